package gateway

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dealgrid/agentgate/pkg/registry"
)

func TestBuildPreview(t *testing.T) {
	reg, err := registry.New()
	require.NoError(t, err)

	lookup := func(name string) *registry.Definition {
		def, ok := reg.Lookup(name)
		require.True(t, ok)
		return def
	}

	t.Run("send_email names the recipient", func(t *testing.T) {
		preview := buildPreview(lookup("send_email"), map[string]interface{}{
			"to": "cfo@acme.example", "subject": "Q3 pricing", "body": "see attached",
		})
		assert.Contains(t, preview, "cfo@acme.example")
		assert.Contains(t, preview, "Q3 pricing")
	})

	t.Run("schedule_meeting lists attendees", func(t *testing.T) {
		preview := buildPreview(lookup("schedule_meeting"), map[string]interface{}{
			"title":      "Kickoff",
			"start_time": "2026-04-01T10:00:00Z",
			"attendees":  []interface{}{"a@x.example", "b@x.example"},
		})
		assert.Contains(t, preview, "a@x.example, b@x.example")
	})

	t.Run("delete_record names the target", func(t *testing.T) {
		preview := buildPreview(lookup("delete_record"), map[string]interface{}{
			"record_type": "deal", "record_id": "deal_42",
		})
		assert.Contains(t, preview, "Permanently delete deal deal_42")
	})

	t.Run("generic fallback for tools without a template", func(t *testing.T) {
		preview := buildPreview(lookup("search_deals"), map[string]interface{}{"query": "acme"})
		assert.Contains(t, preview, "execute")
		assert.Contains(t, preview, "acme")
	})

	t.Run("long free text is truncated", func(t *testing.T) {
		body := strings.Repeat("a", 500)
		preview := buildPreview(lookup("send_email"), map[string]interface{}{
			"to": "cfo@acme.example", "subject": "hi", "body": body,
		})
		assert.Contains(t, preview, "...")
		assert.Less(t, len(preview), 300)
	})

	t.Run("missing args render as unset", func(t *testing.T) {
		preview := buildPreview(lookup("send_email"), map[string]interface{}{})
		assert.Contains(t, preview, "(unset)")
	})
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short"))

	long := strings.Repeat("x", freeTextBudget+10)
	got := truncate(long)
	assert.Len(t, got, freeTextBudget+3)
	assert.True(t, strings.HasSuffix(got, "..."))
}
