// Package dealtools binds the built-in catalog to concrete capabilities.
// The gateway stays agnostic to what these handlers do; they translate
// validated argument maps into calls on the injected CRM and Messenger.
package dealtools

import (
	"context"
	"fmt"

	"github.com/dealgrid/agentgate/pkg/gateway"
)

// Deal is a pipeline record.
type Deal struct {
	ID      string  `json:"id"`
	Name    string  `json:"name"`
	Stage   string  `json:"stage"`
	Amount  float64 `json:"amount"`
	OwnerID string  `json:"owner_id"`
}

// Contact is a person attached to deals.
type Contact struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Task is a follow-up item on a deal.
type Task struct {
	ID       string `json:"id"`
	DealID   string `json:"deal_id"`
	Title    string `json:"title"`
	Status   string `json:"status"`
	DueDate  string `json:"due_date,omitempty"`
	Assignee string `json:"assignee,omitempty"`
}

// CRM is the business-record backend the read and record tools act on.
type CRM interface {
	SearchDeals(ctx context.Context, query, stage string, limit int) ([]Deal, error)
	GetDeal(ctx context.Context, id string) (*Deal, error)
	GetContact(ctx context.Context, id string) (*Contact, error)
	ListTasks(ctx context.Context, dealID, status string) ([]Task, error)
	AddNote(ctx context.Context, dealID, body string) (string, error)
	CreateTask(ctx context.Context, task Task) (string, error)
	UpdateDealStage(ctx context.Context, dealID, stage, reason string) error
	UpdateContact(ctx context.Context, contactID string, fields map[string]interface{}) error
	MergeContacts(ctx context.Context, primaryID, duplicateID string) error
	DeleteRecord(ctx context.Context, recordType, recordID string) error
}

// Messenger is the outbound-communication backend the external-impact
// tools act on. Everything here is visible outside the system, which is
// why the catalog gates all of it behind approval.
type Messenger interface {
	SendEmail(ctx context.Context, to, subject, body string, cc []string) (string, error)
	PostSlack(ctx context.Context, channel, message string) error
	ScheduleMeeting(ctx context.Context, attendees []string, title, startTime string, durationMinutes int) (string, error)
	SendProposal(ctx context.Context, dealID, recipient, template string) (string, error)
}

// Options configures tool registration.
type Options struct {
	CRM       CRM
	Messenger Messenger
}

// Register binds an implementation to every tool in the built-in catalog.
func Register(g *gateway.Gateway, opts Options) error {
	if opts.CRM == nil {
		return fmt.Errorf("crm backend is required")
	}
	if opts.Messenger == nil {
		return fmt.Errorf("messenger backend is required")
	}

	handlers := map[string]gateway.Handler{
		"search_deals": func(ctx context.Context, args map[string]interface{}, _ gateway.ThreadContext) (interface{}, error) {
			return opts.CRM.SearchDeals(ctx, stringArg(args, "query"), stringArg(args, "stage"), intArg(args, "limit", 20))
		},
		"get_deal": func(ctx context.Context, args map[string]interface{}, _ gateway.ThreadContext) (interface{}, error) {
			return opts.CRM.GetDeal(ctx, stringArg(args, "deal_id"))
		},
		"get_contact": func(ctx context.Context, args map[string]interface{}, _ gateway.ThreadContext) (interface{}, error) {
			return opts.CRM.GetContact(ctx, stringArg(args, "contact_id"))
		},
		"list_tasks": func(ctx context.Context, args map[string]interface{}, _ gateway.ThreadContext) (interface{}, error) {
			return opts.CRM.ListTasks(ctx, stringArg(args, "deal_id"), stringArg(args, "status"))
		},
		"add_note": func(ctx context.Context, args map[string]interface{}, _ gateway.ThreadContext) (interface{}, error) {
			return opts.CRM.AddNote(ctx, stringArg(args, "deal_id"), stringArg(args, "body"))
		},
		"create_task": func(ctx context.Context, args map[string]interface{}, _ gateway.ThreadContext) (interface{}, error) {
			return opts.CRM.CreateTask(ctx, Task{
				DealID:   stringArg(args, "deal_id"),
				Title:    stringArg(args, "title"),
				DueDate:  stringArg(args, "due_date"),
				Assignee: stringArg(args, "assignee"),
				Status:   "open",
			})
		},
		"update_deal_stage": func(ctx context.Context, args map[string]interface{}, _ gateway.ThreadContext) (interface{}, error) {
			err := opts.CRM.UpdateDealStage(ctx, stringArg(args, "deal_id"), stringArg(args, "stage"), stringArg(args, "reason"))
			return nil, err
		},
		"update_contact": func(ctx context.Context, args map[string]interface{}, _ gateway.ThreadContext) (interface{}, error) {
			err := opts.CRM.UpdateContact(ctx, stringArg(args, "contact_id"), objectArg(args, "fields"))
			return nil, err
		},
		"merge_contacts": func(ctx context.Context, args map[string]interface{}, _ gateway.ThreadContext) (interface{}, error) {
			err := opts.CRM.MergeContacts(ctx, stringArg(args, "primary_id"), stringArg(args, "duplicate_id"))
			return nil, err
		},
		"delete_record": func(ctx context.Context, args map[string]interface{}, _ gateway.ThreadContext) (interface{}, error) {
			err := opts.CRM.DeleteRecord(ctx, stringArg(args, "record_type"), stringArg(args, "record_id"))
			return nil, err
		},
		"send_email": func(ctx context.Context, args map[string]interface{}, _ gateway.ThreadContext) (interface{}, error) {
			return opts.Messenger.SendEmail(ctx,
				stringArg(args, "to"), stringArg(args, "subject"), stringArg(args, "body"), stringsArg(args, "cc"))
		},
		"send_slack_message": func(ctx context.Context, args map[string]interface{}, _ gateway.ThreadContext) (interface{}, error) {
			err := opts.Messenger.PostSlack(ctx, stringArg(args, "channel"), stringArg(args, "message"))
			return nil, err
		},
		"schedule_meeting": func(ctx context.Context, args map[string]interface{}, _ gateway.ThreadContext) (interface{}, error) {
			return opts.Messenger.ScheduleMeeting(ctx,
				stringsArg(args, "attendees"), stringArg(args, "title"), stringArg(args, "start_time"),
				intArg(args, "duration_minutes", 30))
		},
		"send_proposal": func(ctx context.Context, args map[string]interface{}, _ gateway.ThreadContext) (interface{}, error) {
			return opts.Messenger.SendProposal(ctx,
				stringArg(args, "deal_id"), stringArg(args, "recipient"), stringArg(args, "template"))
		},
	}

	for name, handler := range handlers {
		if err := g.RegisterHandler(name, handler); err != nil {
			return fmt.Errorf("failed to register %s: %w", name, err)
		}
	}

	return nil
}

func stringArg(args map[string]interface{}, key string) string {
	if value, ok := args[key].(string); ok {
		return value
	}
	return ""
}

func intArg(args map[string]interface{}, key string, fallback int) int {
	switch value := args[key].(type) {
	case int:
		return value
	case int64:
		return int(value)
	case float64:
		return int(value)
	}
	return fallback
}

func stringsArg(args map[string]interface{}, key string) []string {
	items, ok := args[key].([]interface{})
	if !ok {
		return nil
	}
	values := make([]string, 0, len(items))
	for _, item := range items {
		values = append(values, fmt.Sprintf("%v", item))
	}
	return values
}

func objectArg(args map[string]interface{}, key string) map[string]interface{} {
	if value, ok := args[key].(map[string]interface{}); ok {
		return value
	}
	return map[string]interface{}{}
}
