package dealtools

import (
	"context"
	"fmt"
	"strings"
	"sync"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/rs/zerolog"
)

// MemoryCRM is a map-backed CRM for local runs and tests.
type MemoryCRM struct {
	mu       sync.RWMutex
	deals    map[string]Deal
	contacts map[string]Contact
	tasks    map[string]Task
	notes    map[string][]string
}

var _ CRM = (*MemoryCRM)(nil)

// NewMemoryCRM creates an empty in-memory CRM.
func NewMemoryCRM() *MemoryCRM {
	return &MemoryCRM{
		deals:    make(map[string]Deal),
		contacts: make(map[string]Contact),
		tasks:    make(map[string]Task),
		notes:    make(map[string][]string),
	}
}

// SeedDeal inserts a deal record.
func (c *MemoryCRM) SeedDeal(deal Deal) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.deals[deal.ID] = deal
}

// SeedContact inserts a contact record.
func (c *MemoryCRM) SeedContact(contact Contact) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.contacts[contact.ID] = contact
}

func (c *MemoryCRM) SearchDeals(_ context.Context, query, stage string, limit int) ([]Deal, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	matched := []Deal{}
	needle := strings.ToLower(query)
	for _, deal := range c.deals {
		if stage != "" && deal.Stage != stage {
			continue
		}
		if needle != "" && !strings.Contains(strings.ToLower(deal.Name), needle) {
			continue
		}
		matched = append(matched, deal)
		if limit > 0 && len(matched) >= limit {
			break
		}
	}
	return matched, nil
}

func (c *MemoryCRM) GetDeal(_ context.Context, id string) (*Deal, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	deal, ok := c.deals[id]
	if !ok {
		return nil, fmt.Errorf("deal %s not found", id)
	}
	return &deal, nil
}

func (c *MemoryCRM) GetContact(_ context.Context, id string) (*Contact, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	contact, ok := c.contacts[id]
	if !ok {
		return nil, fmt.Errorf("contact %s not found", id)
	}
	return &contact, nil
}

func (c *MemoryCRM) ListTasks(_ context.Context, dealID, status string) ([]Task, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	matched := []Task{}
	for _, task := range c.tasks {
		if task.DealID != dealID {
			continue
		}
		if status != "" && task.Status != status {
			continue
		}
		matched = append(matched, task)
	}
	return matched, nil
}

func (c *MemoryCRM) AddNote(_ context.Context, dealID, body string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.deals[dealID]; !ok {
		return "", fmt.Errorf("deal %s not found", dealID)
	}
	c.notes[dealID] = append(c.notes[dealID], body)
	return gonanoid.Must(), nil
}

func (c *MemoryCRM) CreateTask(_ context.Context, task Task) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	task.ID = gonanoid.Must()
	c.tasks[task.ID] = task
	return task.ID, nil
}

func (c *MemoryCRM) UpdateDealStage(_ context.Context, dealID, stage, _ string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	deal, ok := c.deals[dealID]
	if !ok {
		return fmt.Errorf("deal %s not found", dealID)
	}
	deal.Stage = stage
	c.deals[dealID] = deal
	return nil
}

func (c *MemoryCRM) UpdateContact(_ context.Context, contactID string, fields map[string]interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	contact, ok := c.contacts[contactID]
	if !ok {
		return fmt.Errorf("contact %s not found", contactID)
	}
	if name, ok := fields["name"].(string); ok {
		contact.Name = name
	}
	if email, ok := fields["email"].(string); ok {
		contact.Email = email
	}
	c.contacts[contactID] = contact
	return nil
}

func (c *MemoryCRM) MergeContacts(_ context.Context, primaryID, duplicateID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.contacts[primaryID]; !ok {
		return fmt.Errorf("contact %s not found", primaryID)
	}
	if _, ok := c.contacts[duplicateID]; !ok {
		return fmt.Errorf("contact %s not found", duplicateID)
	}
	delete(c.contacts, duplicateID)
	return nil
}

func (c *MemoryCRM) DeleteRecord(_ context.Context, recordType, recordID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch recordType {
	case "deal":
		delete(c.deals, recordID)
	case "contact":
		delete(c.contacts, recordID)
	case "task":
		delete(c.tasks, recordID)
	case "note":
		// Notes are keyed by deal; a standalone note id is not addressable here.
		return fmt.Errorf("note deletion is not supported by the in-memory backend")
	default:
		return fmt.Errorf("unknown record type %q", recordType)
	}
	return nil
}

// LogMessenger logs outbound messages instead of delivering them. Useful
// for local runs where real delivery would be an external side effect.
type LogMessenger struct {
	logger zerolog.Logger
}

var _ Messenger = (*LogMessenger)(nil)

// NewLogMessenger creates a log-only messenger.
func NewLogMessenger(logger zerolog.Logger) *LogMessenger {
	return &LogMessenger{logger: logger}
}

func (m *LogMessenger) SendEmail(_ context.Context, to, subject, _ string, cc []string) (string, error) {
	messageID := gonanoid.Must()
	m.logger.Info().
		Str("to", to).
		Str("subject", subject).
		Strs("cc", cc).
		Str("message_id", messageID).
		Msg("Email send (log-only)")
	return messageID, nil
}

func (m *LogMessenger) PostSlack(_ context.Context, channel, message string) error {
	m.logger.Info().Str("channel", channel).Str("message", message).Msg("Slack post (log-only)")
	return nil
}

func (m *LogMessenger) ScheduleMeeting(_ context.Context, attendees []string, title, startTime string, durationMinutes int) (string, error) {
	eventID := gonanoid.Must()
	m.logger.Info().
		Strs("attendees", attendees).
		Str("title", title).
		Str("start_time", startTime).
		Int("duration_minutes", durationMinutes).
		Str("event_id", eventID).
		Msg("Meeting scheduled (log-only)")
	return eventID, nil
}

func (m *LogMessenger) SendProposal(_ context.Context, dealID, recipient, template string) (string, error) {
	documentID := gonanoid.Must()
	m.logger.Info().
		Str("deal_id", dealID).
		Str("recipient", recipient).
		Str("template", template).
		Str("document_id", documentID).
		Msg("Proposal sent (log-only)")
	return documentID, nil
}
