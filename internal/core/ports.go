package core

import (
	"context"
	"errors"
)

// ErrNotFound is returned by repository lookups when no row matches
var ErrNotFound = errors.New("not found")

// CompletionClient defines the interface for issuing text-generation calls.
// Implementations never return a Go error: every outcome, including transport
// failures and exhausted retries, is reported through the CompletionResult.
type CompletionClient interface {
	// Complete issues a single completion call and returns its uniform result
	Complete(ctx context.Context, req *CompletionRequest) *CompletionResult
}

// EmailRepository defines the storage interface for emails, action items,
// drafts, prompts and processing logs
type EmailRepository interface {
	// SaveEmail stores an email and returns its assigned ID
	SaveEmail(ctx context.Context, email *Email) (int64, error)

	// GetEmails returns emails matching the filter, newest first
	GetEmails(ctx context.Context, filter EmailFilter) ([]*Email, error)

	// GetEmailByID returns a single email or ErrNotFound
	GetEmailByID(ctx context.Context, id int64) (*Email, error)

	// UpdateEmailCategory sets the category and marks the email processed
	UpdateEmailCategory(ctx context.Context, id int64, category string) error

	// ResetProcessed clears the processed flag for one email (id > 0) or all
	ResetProcessed(ctx context.Context, id int64) (int64, error)

	// SaveActionItem stores an extracted action item
	SaveActionItem(ctx context.Context, item *ActionItem) (int64, error)

	// GetActionItems returns action items ordered by priority then deadline
	GetActionItems(ctx context.Context, filter ActionItemFilter) ([]*ActionItem, error)

	// CompleteActionItem marks an action item as done
	CompleteActionItem(ctx context.Context, id int64) error

	// SaveDraft stores a draft and returns its assigned ID
	SaveDraft(ctx context.Context, draft *Draft) (int64, error)

	// GetDrafts returns all drafts, most recently updated first
	GetDrafts(ctx context.Context) ([]*Draft, error)

	// GetDraftByID returns a single draft or ErrNotFound
	GetDraftByID(ctx context.Context, id int64) (*Draft, error)

	// UpdateDraft replaces a draft's subject and body
	UpdateDraft(ctx context.Context, id int64, subject, body string) error

	// DeleteDraft removes a draft
	DeleteDraft(ctx context.Context, id int64) error

	// SavePrompt stores a prompt template
	SavePrompt(ctx context.Context, prompt *Prompt) (int64, error)

	// GetPrompts returns active prompts, optionally filtered by type
	GetPrompts(ctx context.Context, promptType string) ([]*Prompt, error)

	// GetPromptByType returns the most recently updated active prompt of a type
	GetPromptByType(ctx context.Context, promptType string) (*Prompt, error)

	// UpdatePrompt replaces a prompt's content (and name when non-empty)
	UpdatePrompt(ctx context.Context, id int64, content, name string) error

	// DeactivatePrompt soft-deletes a prompt
	DeactivatePrompt(ctx context.Context, id int64) error

	// LogProcessing records the outcome of a processing operation
	LogProcessing(ctx context.Context, entry *ProcessingLog) error

	// GetStats returns aggregate inbox statistics
	GetStats(ctx context.Context) (*InboxStats, error)
}

// EmailFilter narrows a GetEmails query. Zero values mean "no constraint".
type EmailFilter struct {
	Category  string
	Processed *bool
	Limit     int
}

// ActionItemFilter narrows a GetActionItems query
type ActionItemFilter struct {
	EmailID   int64
	Completed *bool
}

// PromptProvider returns the active prompt text for a purpose, or "" when
// none is configured
type PromptProvider interface {
	Get(ctx context.Context, purpose string) string
}
