package gateway

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/dealgrid/agentgate/pkg/registry"
)

// freeTextBudget caps free-text fields inside previews so stored previews
// stay bounded regardless of source content length.
const freeTextBudget = 140

// previewFunc renders one human-readable line describing the side effect a
// tool call is about to have. The line is the approval UI's primary content
// and the audit trail's summary.
type previewFunc func(args map[string]interface{}) string

// previewTemplates maps tool names to bespoke renderers. Tools without an
// entry fall back to the generic template. Adding a preview for a new tool
// is one entry here, independent of the rest of the engine.
var previewTemplates = map[string]previewFunc{
	"send_email": func(args map[string]interface{}) string {
		return fmt.Sprintf("Send email to %s with subject %q: %s",
			strArg(args, "to"), strArg(args, "subject"), truncate(strArg(args, "body")))
	},
	"send_slack_message": func(args map[string]interface{}) string {
		return fmt.Sprintf("Post to Slack channel %s: %s",
			strArg(args, "channel"), truncate(strArg(args, "message")))
	},
	"schedule_meeting": func(args map[string]interface{}) string {
		return fmt.Sprintf("Schedule meeting %q at %s with %s",
			strArg(args, "title"), strArg(args, "start_time"), listArg(args, "attendees"))
	},
	"send_proposal": func(args map[string]interface{}) string {
		return fmt.Sprintf("Send proposal for %s to %s using template %q",
			strArg(args, "deal_id"), strArg(args, "recipient"), strArg(args, "template"))
	},
	"update_deal_stage": func(args map[string]interface{}) string {
		return fmt.Sprintf("Move %s to stage %q",
			strArg(args, "deal_id"), strArg(args, "stage"))
	},
	"update_contact": func(args map[string]interface{}) string {
		return fmt.Sprintf("Update contact %s: %s",
			strArg(args, "contact_id"), truncate(jsonArg(args, "fields")))
	},
	"add_note": func(args map[string]interface{}) string {
		return fmt.Sprintf("Add note to %s: %s",
			strArg(args, "deal_id"), truncate(strArg(args, "body")))
	},
	"create_task": func(args map[string]interface{}) string {
		return fmt.Sprintf("Create task %q on %s",
			strArg(args, "title"), strArg(args, "deal_id"))
	},
	"merge_contacts": func(args map[string]interface{}) string {
		return fmt.Sprintf("Merge contact %s into %s (the duplicate is retired)",
			strArg(args, "duplicate_id"), strArg(args, "primary_id"))
	},
	"delete_record": func(args map[string]interface{}) string {
		return fmt.Sprintf("Permanently delete %s %s",
			strArg(args, "record_type"), strArg(args, "record_id"))
	},
}

// buildPreview renders the preview for a proposed call.
func buildPreview(def *registry.Definition, args map[string]interface{}) string {
	if render, ok := previewTemplates[def.Name]; ok {
		return render(args)
	}

	encoded, err := json.Marshal(args)
	if err != nil {
		encoded = []byte("{}")
	}
	return fmt.Sprintf("execute %s with %s", strings.ToLower(def.Description), truncate(string(encoded)))
}

func strArg(args map[string]interface{}, key string) string {
	value, ok := args[key]
	if !ok || value == nil {
		return "(unset)"
	}
	return fmt.Sprintf("%v", value)
}

func listArg(args map[string]interface{}, key string) string {
	value, ok := args[key]
	if !ok || value == nil {
		return "(unset)"
	}
	if items, ok := value.([]interface{}); ok {
		parts := make([]string, len(items))
		for i, item := range items {
			parts[i] = fmt.Sprintf("%v", item)
		}
		return strings.Join(parts, ", ")
	}
	return fmt.Sprintf("%v", value)
}

func jsonArg(args map[string]interface{}, key string) string {
	value, ok := args[key]
	if !ok || value == nil {
		return "{}"
	}
	encoded, err := json.Marshal(value)
	if err != nil {
		return fmt.Sprintf("%v", value)
	}
	return string(encoded)
}

// truncate bounds a free-text field at the preview budget with an ellipsis.
func truncate(s string) string {
	if len(s) <= freeTextBudget {
		return s
	}
	return s[:freeTextBudget] + "..."
}
