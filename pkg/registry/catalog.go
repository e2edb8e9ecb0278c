package registry

// builtinCatalog is the declarative table of every tool the agent may
// propose. Risk, scope, and approval classification live here and nowhere
// else; the cross-field invariant (external impact forces approval) is
// enforced when the registry is built.
func builtinCatalog() []Definition {
	return []Definition{
		// Read tools: internal lookups with no side effects.
		{
			Name:        "search_deals",
			Description: "Search deals by free-text query, optionally filtered by pipeline stage",
			Category:    CategoryRead,
			Risk:        RiskLow,
			Scope:       ScopeOperator,
			Reversible:  true,
			Parameters: []Parameter{
				{Name: "query", Type: "string", Description: "Free-text search query", Required: true},
				{Name: "stage", Type: "string", Description: "Pipeline stage filter",
					Pattern: "^(prospect|qualified|proposal|negotiation|closed_won|closed_lost)$"},
				{Name: "limit", Type: "integer", Description: "Maximum results to return", Default: 20},
			},
		},
		{
			Name:        "get_deal",
			Description: "Fetch a single deal record with its pipeline state",
			Category:    CategoryRead,
			Risk:        RiskLow,
			Scope:       ScopeDeal,
			Reversible:  true,
			Parameters: []Parameter{
				{Name: "deal_id", Type: "string", Description: "Deal record identifier", Required: true,
					Pattern: "^deal_[A-Za-z0-9]+$"},
			},
		},
		{
			Name:        "get_contact",
			Description: "Fetch a contact record including communication history summary",
			Category:    CategoryRead,
			Risk:        RiskLow,
			Scope:       ScopeOperator,
			Reversible:  true,
			Parameters: []Parameter{
				{Name: "contact_id", Type: "string", Description: "Contact record identifier", Required: true,
					Pattern: "^contact_[A-Za-z0-9]+$"},
			},
		},
		{
			Name:        "list_tasks",
			Description: "List open tasks for a deal",
			Category:    CategoryRead,
			Risk:        RiskLow,
			Scope:       ScopeDeal,
			Reversible:  true,
			Parameters: []Parameter{
				{Name: "deal_id", Type: "string", Description: "Deal record identifier", Required: true,
					Pattern: "^deal_[A-Za-z0-9]+$"},
				{Name: "status", Type: "string", Description: "Task status filter",
					Pattern: "^(open|done|overdue)$"},
			},
		},

		// Record tools: internal writes against business records.
		{
			Name:        "add_note",
			Description: "Attach a note to a deal",
			Category:    CategoryRecord,
			Risk:        RiskLow,
			Scope:       ScopeDeal,
			Reversible:  true,
			Parameters: []Parameter{
				{Name: "deal_id", Type: "string", Description: "Deal record identifier", Required: true,
					Pattern: "^deal_[A-Za-z0-9]+$"},
				{Name: "body", Type: "string", Description: "Note body", Required: true},
			},
		},
		{
			Name:        "create_task",
			Description: "Create a follow-up task on a deal",
			Category:    CategoryRecord,
			Risk:        RiskLow,
			Scope:       ScopeDeal,
			Reversible:  true,
			Parameters: []Parameter{
				{Name: "deal_id", Type: "string", Description: "Deal record identifier", Required: true,
					Pattern: "^deal_[A-Za-z0-9]+$"},
				{Name: "title", Type: "string", Description: "Task title", Required: true},
				{Name: "due_date", Type: "string", Description: "Due date, ISO 8601 date",
					Pattern: `^\d{4}-\d{2}-\d{2}$`},
				{Name: "assignee", Type: "string", Description: "Operator to assign the task to"},
			},
		},
		{
			Name:        "update_deal_stage",
			Description: "Move a deal to a different pipeline stage",
			Category:    CategoryRecord,
			Risk:        RiskMedium,
			Scope:       ScopeDeal,
			Reversible:  true,
			Parameters: []Parameter{
				{Name: "deal_id", Type: "string", Description: "Deal record identifier", Required: true,
					Pattern: "^deal_[A-Za-z0-9]+$"},
				{Name: "stage", Type: "string", Description: "Target pipeline stage", Required: true,
					Pattern: "^(prospect|qualified|proposal|negotiation|closed_won|closed_lost)$"},
				{Name: "reason", Type: "string", Description: "Why the stage is changing"},
			},
		},
		{
			Name:        "update_contact",
			Description: "Update fields on a contact record",
			Category:    CategoryRecord,
			Risk:        RiskMedium,
			Scope:       ScopeOperator,
			Reversible:  true,
			Parameters: []Parameter{
				{Name: "contact_id", Type: "string", Description: "Contact record identifier", Required: true,
					Pattern: "^contact_[A-Za-z0-9]+$"},
				{Name: "fields", Type: "object", Description: "Field name to new value mapping", Required: true},
			},
		},

		// Communication tools: visible outside the system, always gated.
		{
			Name:             "send_email",
			Description:      "Send an email to an external recipient",
			Category:         CategoryCommunication,
			Risk:             RiskHigh,
			RequiresApproval: true,
			Scope:            ScopeOperator,
			ExternalImpact:   true,
			Parameters: []Parameter{
				{Name: "to", Type: "string", Description: "Recipient email address", Required: true,
					Pattern: `^[^@\s]+@[^@\s]+\.[^@\s]+$`},
				{Name: "subject", Type: "string", Description: "Email subject line", Required: true},
				{Name: "body", Type: "string", Description: "Email body", Required: true},
				{Name: "cc", Type: "array", Description: "CC email addresses"},
			},
		},
		{
			Name:             "send_slack_message",
			Description:      "Post a message to a shared Slack channel",
			Category:         CategoryCommunication,
			Risk:             RiskMedium,
			RequiresApproval: true,
			Scope:            ScopeOperator,
			ExternalImpact:   true,
			Parameters: []Parameter{
				{Name: "channel", Type: "string", Description: "Slack channel name", Required: true,
					Pattern: `^#[a-z0-9_-]+$`},
				{Name: "message", Type: "string", Description: "Message text", Required: true},
			},
		},
		{
			Name:             "schedule_meeting",
			Description:      "Create a calendar invitation and send it to attendees",
			Category:         CategoryScheduling,
			Risk:             RiskHigh,
			RequiresApproval: true,
			Scope:            ScopeOperator,
			ExternalImpact:   true,
			Parameters: []Parameter{
				{Name: "attendees", Type: "array", Description: "Attendee email addresses", Required: true},
				{Name: "title", Type: "string", Description: "Meeting title", Required: true},
				{Name: "start_time", Type: "string", Description: "Start time, RFC 3339", Required: true},
				{Name: "duration_minutes", Type: "integer", Description: "Meeting length in minutes", Default: 30},
			},
		},
		{
			Name:             "send_proposal",
			Description:      "Render a proposal document for a deal and email it to the recipient",
			Category:         CategoryCommunication,
			Risk:             RiskCritical,
			RequiresApproval: true,
			Scope:            ScopeDeal,
			ExternalImpact:   true,
			Parameters: []Parameter{
				{Name: "deal_id", Type: "string", Description: "Deal record identifier", Required: true,
					Pattern: "^deal_[A-Za-z0-9]+$"},
				{Name: "recipient", Type: "string", Description: "Recipient email address", Required: true,
					Pattern: `^[^@\s]+@[^@\s]+\.[^@\s]+$`},
				{Name: "template", Type: "string", Description: "Proposal template name", Default: "standard"},
			},
		},

		// Destructive tools: internal but irreversible, always gated.
		{
			Name:             "merge_contacts",
			Description:      "Merge a duplicate contact into a primary contact",
			Category:         CategoryDestructive,
			Risk:             RiskHigh,
			RequiresApproval: true,
			Scope:            ScopeOperator,
			Parameters: []Parameter{
				{Name: "primary_id", Type: "string", Description: "Contact to keep", Required: true,
					Pattern: "^contact_[A-Za-z0-9]+$"},
				{Name: "duplicate_id", Type: "string", Description: "Contact to merge and retire", Required: true,
					Pattern: "^contact_[A-Za-z0-9]+$"},
			},
		},
		{
			Name:             "delete_record",
			Description:      "Permanently delete a business record",
			Category:         CategoryDestructive,
			Risk:             RiskCritical,
			RequiresApproval: true,
			Scope:            ScopeGlobal,
			Parameters: []Parameter{
				{Name: "record_type", Type: "string", Description: "Type of record to delete", Required: true,
					Pattern: "^(deal|contact|task|note)$"},
				{Name: "record_id", Type: "string", Description: "Record identifier", Required: true},
			},
		},
	}
}
