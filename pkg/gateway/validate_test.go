package gateway

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dealgrid/agentgate/pkg/registry"
)

func emailDef(t *testing.T) *registry.Definition {
	t.Helper()
	reg, err := registry.New()
	require.NoError(t, err)
	def, ok := reg.Lookup("send_email")
	require.True(t, ok)
	return def
}

func TestValidateArgs(t *testing.T) {
	def := emailDef(t)

	tests := []struct {
		name string
		args map[string]interface{}
		want []string
	}{
		{
			name: "valid",
			args: map[string]interface{}{
				"to": "cfo@acme.example", "subject": "hi", "body": "hello",
			},
		},
		{
			name: "missing required",
			args: map[string]interface{}{"to": "cfo@acme.example"},
			want: []string{
				"Missing required parameter: subject",
				"Missing required parameter: body",
			},
		},
		{
			name: "nil counts as missing",
			args: map[string]interface{}{
				"to": "cfo@acme.example", "subject": nil, "body": "hello",
			},
			want: []string{"Missing required parameter: subject"},
		},
		{
			name: "wrong type",
			args: map[string]interface{}{
				"to": "cfo@acme.example", "subject": 42, "body": "hello",
			},
			want: []string{"Invalid parameter subject: expected string"},
		},
		{
			name: "pattern mismatch",
			args: map[string]interface{}{
				"to": "not-an-email", "subject": "hi", "body": "hello",
			},
			want: []string{"Invalid parameter to: value does not match pattern"},
		},
		{
			name: "optional array accepted",
			args: map[string]interface{}{
				"to": "cfo@acme.example", "subject": "hi", "body": "hello",
				"cc": []interface{}{"vp@acme.example"},
			},
		},
		{
			name: "optional wrong type still rejected",
			args: map[string]interface{}{
				"to": "cfo@acme.example", "subject": "hi", "body": "hello",
				"cc": "vp@acme.example",
			},
			want: []string{"Invalid parameter cc: expected array"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateArgs(def, tt.args)
			if len(tt.want) == 0 {
				assert.NoError(t, err)
				return
			}

			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, "send_email", verr.Tool)
			for _, fragment := range tt.want {
				assert.True(t, containsFragment(verr.Violations, fragment),
					"expected violation %q in %v", fragment, verr.Violations)
			}
		})
	}
}

func containsFragment(violations []string, fragment string) bool {
	for _, v := range violations {
		if strings.Contains(v, fragment) {
			return true
		}
	}
	return false
}

func TestValidateArgsCollectsAllViolations(t *testing.T) {
	def := emailDef(t)

	err := validateArgs(def, map[string]interface{}{"to": "bad", "subject": 7})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Len(t, verr.Violations, 3) // bad address, wrong subject type, missing body
}

func TestTypeMatches(t *testing.T) {
	tests := []struct {
		declared string
		value    interface{}
		want     bool
	}{
		{"string", "x", true},
		{"string", 1, false},
		{"boolean", true, true},
		{"boolean", "true", false},
		{"number", 3.14, true},
		{"number", 7, true},
		{"number", "7", false},
		{"integer", float64(20), true}, // JSON decoding yields float64
		{"integer", 20.5, false},
		{"integer", 20, true},
		{"object", map[string]interface{}{"a": 1}, true},
		{"object", []interface{}{}, false},
		{"array", []interface{}{1, 2}, true},
		{"array", []string{"a"}, true},
		{"array", "not an array", false},
		{"unknown_type", "x", false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, typeMatches(tt.declared, tt.value),
			"typeMatches(%q, %#v)", tt.declared, tt.value)
	}
}
