package registry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xeipuuv/gojsonschema"
)

func TestSchemaMapShape(t *testing.T) {
	reg, err := New()
	require.NoError(t, err)

	doc, ok := reg.SchemaMap("send_email")
	require.True(t, ok)

	assert.Equal(t, "object", doc["type"])
	assert.Equal(t, false, doc["additionalProperties"])
	assert.ElementsMatch(t, []string{"to", "subject", "body"}, doc["required"])

	properties := doc["properties"].(map[string]interface{})
	to := properties["to"].(map[string]interface{})
	assert.Equal(t, "string", to["type"])
	assert.NotEmpty(t, to["pattern"])
}

func TestSchemaValidatesDocuments(t *testing.T) {
	reg, err := New()
	require.NoError(t, err)

	schema, ok := reg.Schema("send_email")
	require.True(t, ok)

	good, err := schema.Validate(gojsonschema.NewGoLoader(map[string]interface{}{
		"to": "cfo@acme.example", "subject": "hi", "body": "hello",
	}))
	require.NoError(t, err)
	assert.True(t, good.Valid())

	bad, err := schema.Validate(gojsonschema.NewGoLoader(map[string]interface{}{
		"to": "not-an-email",
	}))
	require.NoError(t, err)
	assert.False(t, bad.Valid())
}

func TestSchemaUnknownTool(t *testing.T) {
	reg, err := New()
	require.NoError(t, err)

	_, ok := reg.Schema("nonexistent")
	assert.False(t, ok)

	_, ok = reg.SchemaMap("nonexistent")
	assert.False(t, ok)
}

func TestDefaultsSurfaceInSchema(t *testing.T) {
	reg, err := New()
	require.NoError(t, err)

	doc, ok := reg.SchemaMap("search_deals")
	require.True(t, ok)

	properties := doc["properties"].(map[string]interface{})
	limit := properties["limit"].(map[string]interface{})
	assert.Equal(t, 20, limit["default"])
}
