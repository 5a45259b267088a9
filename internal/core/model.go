package core

import (
	"fmt"
	"time"
)

// Email represents a single inbox message
type Email struct {
	ID          int64
	Sender      string
	Subject     string
	Body        string
	Timestamp   string
	Category    string
	IsProcessed bool
	RawJSON     string
}

// Known email categories. The assistant only ever assigns one of these or,
// for short unrecognized model output, an ad-hoc name.
const (
	CategoryImportant      = "Important"
	CategoryNewsletter     = "Newsletter"
	CategorySpam           = "Spam"
	CategoryToDo           = "To-Do"
	CategoryProjectUpdate  = "Project Update"
	CategoryMeetingRequest = "Meeting Request"
	CategoryGeneral        = "General"

	// CategoryUncategorized is the sentinel for emails that have not been
	// categorized, or whose categorization could not be determined.
	CategoryUncategorized = "Uncategorized"
)

// Categories returns the closed set of known categories in canonical casing.
func Categories() []string {
	return []string{
		CategoryImportant,
		CategoryNewsletter,
		CategorySpam,
		CategoryToDo,
		CategoryProjectUpdate,
		CategoryMeetingRequest,
		CategoryGeneral,
	}
}

// ActionItem represents a task extracted from an email
type ActionItem struct {
	ID          int64
	EmailID     int64
	Task        string
	Deadline    string
	Priority    string
	IsCompleted bool
}

// Action item priorities
const (
	PriorityHigh   = "high"
	PriorityMedium = "medium"
	PriorityLow    = "low"
)

// Draft represents a generated email draft
type Draft struct {
	ID        int64
	EmailID   int64
	Subject   string
	Body      string
	Metadata  string
	UpdatedAt time.Time
}

// DraftContent is the (subject, body) pair parsed from model output.
// Both fields are always populated, falling back to caller-supplied
// defaults when the output does not follow the expected format.
type DraftContent struct {
	Subject string
	Body    string
}

// Prompt represents a stored prompt template
type Prompt struct {
	ID        int64
	Name      string
	Type      string
	Content   string
	IsActive  bool
	UpdatedAt time.Time
}

// Prompt purposes recognized by the prompt provider
const (
	PromptCategorization   = "categorization"
	PromptActionExtraction = "action_extraction"
	PromptAutoReply        = "auto_reply"
)

// CompletionRequest describes a single text-generation call.
// The zero value of the optional fields means "use the client defaults".
type CompletionRequest struct {
	Prompt            string
	SystemInstruction string
	Temperature       float32
	HasTemperature    bool
	MaxTokens         int
}

// FailureReason classifies why a completion call produced no usable text
type FailureReason string

const (
	FailureSafetyBlocked    FailureReason = "safety_blocked"
	FailureEmptyResponse    FailureReason = "empty_response"
	FailureRateLimited      FailureReason = "rate_limited"
	FailureExhaustedRetries FailureReason = "exhausted_retries"
	FailureTransportError   FailureReason = "transport_error"
)

// CompletionResult is the uniform outcome of a completion call. Exactly one
// of Text or Reason is set: a successful call carries the model text and an
// empty Reason, a failed call carries a Reason and optionally a Detail with
// the truncated underlying error.
type CompletionResult struct {
	Text   string
	Reason FailureReason
	Detail string
}

// OK reports whether the call produced usable text
func (r *CompletionResult) OK() bool {
	return r.Reason == ""
}

// Err converts a failed result into an error for callers that surface
// failures to the user. It returns nil for successful results.
func (r *CompletionResult) Err() error {
	if r.OK() {
		return nil
	}
	if r.Detail != "" {
		return fmt.Errorf("completion failed (%s): %s", r.Reason, r.Detail)
	}
	return fmt.Errorf("completion failed (%s)", r.Reason)
}

// InboxStats summarizes the current state of the inbox
type InboxStats struct {
	TotalEmails    int
	CategoryCounts map[string]int
	PendingActions int
	TotalDrafts    int
}

// ProcessingLog records the outcome of a single processing operation
type ProcessingLog struct {
	EmailID       int64
	OperationType string
	Status        string
	ErrorMessage  string
}

// Processing log statuses
const (
	StatusSuccess = "success"
	StatusFailed  = "failed"
)

// ProcessReport summarizes a batch processing run over the inbox
type ProcessReport struct {
	Processed int
	Failed    int
	Total     int
	Errors    []string
}

// UrgentEmail pairs an email with the reason it was flagged as urgent
type UrgentEmail struct {
	Email  *Email
	Reason string
}
