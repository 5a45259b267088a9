package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ishaanpearpie/email-productivity-agent/internal/adapters/store"
	"github.com/ishaanpearpie/email-productivity-agent/internal/core"
)

// stubClient returns scripted results in order, repeating the last one
type stubClient struct {
	results  []*core.CompletionResult
	requests []*core.CompletionRequest
}

func (c *stubClient) Complete(_ context.Context, req *core.CompletionRequest) *core.CompletionResult {
	c.requests = append(c.requests, req)
	if len(c.results) == 0 {
		return &core.CompletionResult{Reason: core.FailureEmptyResponse}
	}
	result := c.results[0]
	if len(c.results) > 1 {
		c.results = c.results[1:]
	}
	return result
}

func ok(text string) *core.CompletionResult {
	return &core.CompletionResult{Text: text}
}

func failed(reason core.FailureReason) *core.CompletionResult {
	return &core.CompletionResult{Reason: reason}
}

// staticPrompts serves fixed prompt text per purpose
type staticPrompts map[string]string

func (p staticPrompts) Get(_ context.Context, purpose string) string {
	return p[purpose]
}

func testPrompts() staticPrompts {
	return staticPrompts{
		core.PromptCategorization:   "Categorize this email.",
		core.PromptActionExtraction: "Extract tasks.",
		core.PromptAutoReply:        "Write a reply.",
	}
}

func newServiceStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.NewSQLiteStore(":memory:", zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func newTestProcessor(t *testing.T, s *store.Store, client *stubClient) (*EmailProcessor, *[]time.Duration) {
	t.Helper()
	p := NewEmailProcessor(s, testPrompts(), client, zap.NewNop(), ProcessorOptions{})
	var sleeps []time.Duration
	p.sleep = func(d time.Duration) { sleeps = append(sleeps, d) }
	return p, &sleeps
}

func TestCategorizeEmail_NormalizesModelOutput(t *testing.T) {
	s := newServiceStore(t)
	client := &stubClient{results: []*core.CompletionResult{ok(`Category: "To-Do".`)}}
	p, _ := newTestProcessor(t, s, client)

	category := p.CategorizeEmail(context.Background(), &core.Email{ID: 1, Subject: "x"})
	assert.Equal(t, core.CategoryToDo, category)
	require.Len(t, client.requests, 1)
	assert.Equal(t, categorizationMaxTokens, client.requests[0].MaxTokens)
	assert.False(t, client.requests[0].HasTemperature)
}

func TestCategorizeEmail_ClipsBodyInPrompt(t *testing.T) {
	s := newServiceStore(t)
	client := &stubClient{results: []*core.CompletionResult{ok("General")}}
	p, _ := newTestProcessor(t, s, client)

	long := make([]byte, 2000)
	for i := range long {
		long[i] = 'a'
	}
	p.CategorizeEmail(context.Background(), &core.Email{ID: 1, Body: string(long)})

	require.Len(t, client.requests, 1)
	assert.Less(t, len(client.requests[0].Prompt), 1000, "body must be clipped")
}

func TestCategorizeEmail_FailureLogsAndReturnsUncategorized(t *testing.T) {
	s := newServiceStore(t)
	emailID, err := s.SaveEmail(context.Background(), &core.Email{
		Sender: "a@x.com", Subject: "x", Timestamp: "2026-01-01T09:00:00",
	})
	require.NoError(t, err)

	client := &stubClient{results: []*core.CompletionResult{failed(core.FailureExhaustedRetries)}}
	p, _ := newTestProcessor(t, s, client)

	category := p.CategorizeEmail(context.Background(), &core.Email{ID: emailID, Subject: "x"})
	assert.Equal(t, core.CategoryUncategorized, category)

	var count int
	err = s.DB().QueryRow(
		`SELECT COUNT(*) FROM processing_logs WHERE email_id = ? AND status = 'failed'`, emailID,
	).Scan(&count)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestExtractActionItems_ParsesTasks(t *testing.T) {
	s := newServiceStore(t)
	client := &stubClient{results: []*core.CompletionResult{
		ok("```json\n{\"tasks\": [{\"task\": \"Send report\", \"priority\": \"HIGH\", \"deadline\": \"Friday\"}]}\n```"),
	}}
	p, _ := newTestProcessor(t, s, client)

	items := p.ExtractActionItems(context.Background(), &core.Email{ID: 1, Subject: "x"})
	require.Len(t, items, 1)
	assert.Equal(t, "Send report", items[0].Task)
	assert.Equal(t, core.PriorityHigh, items[0].Priority)
	assert.Equal(t, "Friday", items[0].Deadline)
	require.Len(t, client.requests, 1)
	assert.Equal(t, extractionMaxTokens, client.requests[0].MaxTokens)
}

func TestProcessEmail_SavesCategoryAndItems(t *testing.T) {
	s := newServiceStore(t)
	ctx := context.Background()
	emailID, err := s.SaveEmail(ctx, &core.Email{
		Sender: "boss@x.com", Subject: "Report", Body: "Send it.", Timestamp: "2026-01-01T09:00:00",
	})
	require.NoError(t, err)

	client := &stubClient{results: []*core.CompletionResult{
		ok("To-Do"),
		ok(`{"tasks": [{"task": "Send report", "priority": "high"}]}`),
	}}
	p, _ := newTestProcessor(t, s, client)

	category, saved, err := p.ProcessEmail(ctx, emailID)
	require.NoError(t, err)
	assert.Equal(t, core.CategoryToDo, category)
	assert.Equal(t, 1, saved)

	email, err := s.GetEmailByID(ctx, emailID)
	require.NoError(t, err)
	assert.Equal(t, core.CategoryToDo, email.Category)
	assert.True(t, email.IsProcessed)

	items, err := s.GetActionItems(ctx, core.ActionItemFilter{EmailID: emailID})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.EqualValues(t, emailID, items[0].EmailID)
}

func TestProcessEmail_MissingEmail(t *testing.T) {
	s := newServiceStore(t)
	p, _ := newTestProcessor(t, s, &stubClient{})

	_, _, err := p.ProcessEmail(context.Background(), 42)
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestProcessInbox_PacesBetweenEmails(t *testing.T) {
	s := newServiceStore(t)
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		_, err := s.SaveEmail(ctx, &core.Email{
			Sender: "a@x.com", Subject: "email", Timestamp: "2026-01-01T09:00:00",
		})
		require.NoError(t, err)
	}

	client := &stubClient{results: []*core.CompletionResult{ok("General")}}
	p, sleeps := newTestProcessor(t, s, client)

	var progress []string
	report, err := p.ProcessInbox(ctx, 0, true, func(current, total int, subject string) {
		progress = append(progress, subject)
	})
	require.NoError(t, err)
	assert.Equal(t, 3, report.Total)
	assert.Equal(t, 3, report.Processed)
	assert.Zero(t, report.Failed)
	assert.Len(t, progress, 3)
	assert.Len(t, *sleeps, 2, "no pause before the first email")
}

func TestProcessInbox_ContinuesAfterFailures(t *testing.T) {
	s := newServiceStore(t)
	ctx := context.Background()
	for i := 0; i < 2; i++ {
		_, err := s.SaveEmail(ctx, &core.Email{
			Sender: "a@x.com", Subject: "email", Timestamp: "2026-01-01T09:00:00",
		})
		require.NoError(t, err)
	}

	client := &stubClient{results: []*core.CompletionResult{
		failed(core.FailureRateLimited),
		ok("General"),
	}}
	p, _ := newTestProcessor(t, s, client)

	report, err := p.ProcessInbox(ctx, 0, true, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Processed)
	assert.Equal(t, 1, report.Failed)
	require.Len(t, report.Errors, 1)
	assert.Contains(t, report.Errors[0], core.CategoryUncategorized)

	// Both emails end up processed either way.
	unprocessed := false
	remaining, err := s.GetEmails(ctx, core.EmailFilter{Processed: &unprocessed})
	require.NoError(t, err)
	assert.Empty(t, remaining)
}

func TestProcessInbox_EmptyInbox(t *testing.T) {
	s := newServiceStore(t)
	p, sleeps := newTestProcessor(t, s, &stubClient{})

	report, err := p.ProcessInbox(context.Background(), 0, false, nil)
	require.NoError(t, err)
	assert.Zero(t, report.Total)
	assert.Empty(t, *sleeps)
}
