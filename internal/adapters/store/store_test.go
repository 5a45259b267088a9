package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ishaanpearpie/email-productivity-agent/internal/core"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewSQLiteStore(":memory:", zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func saveTestEmail(t *testing.T, s *Store, sender, subject, timestamp string) int64 {
	t.Helper()
	id, err := s.SaveEmail(context.Background(), &core.Email{
		Sender:    sender,
		Subject:   subject,
		Body:      "body of " + subject,
		Timestamp: timestamp,
	})
	require.NoError(t, err)
	return id
}

func TestStore_SaveAndGetEmail(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	id := saveTestEmail(t, s, "alice@example.com", "Hello", "2026-01-02T10:00:00")

	email, err := s.GetEmailByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", email.Sender)
	assert.Equal(t, "Hello", email.Subject)
	assert.Equal(t, core.CategoryUncategorized, email.Category)
	assert.False(t, email.IsProcessed)

	_, err = s.GetEmailByID(ctx, 9999)
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestStore_GetEmailsFiltering(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	first := saveTestEmail(t, s, "a@x.com", "One", "2026-01-01T09:00:00")
	saveTestEmail(t, s, "b@x.com", "Two", "2026-01-02T09:00:00")
	saveTestEmail(t, s, "c@x.com", "Three", "2026-01-03T09:00:00")

	require.NoError(t, s.UpdateEmailCategory(ctx, first, core.CategoryImportant))

	all, err := s.GetEmails(ctx, core.EmailFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "Three", all[0].Subject, "newest first")

	important, err := s.GetEmails(ctx, core.EmailFilter{Category: core.CategoryImportant})
	require.NoError(t, err)
	require.Len(t, important, 1)
	assert.Equal(t, "One", important[0].Subject)
	assert.True(t, important[0].IsProcessed)

	unprocessed := false
	pending, err := s.GetEmails(ctx, core.EmailFilter{Processed: &unprocessed})
	require.NoError(t, err)
	assert.Len(t, pending, 2)

	limited, err := s.GetEmails(ctx, core.EmailFilter{Limit: 1})
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestStore_ResetProcessed(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	first := saveTestEmail(t, s, "a@x.com", "One", "2026-01-01T09:00:00")
	second := saveTestEmail(t, s, "b@x.com", "Two", "2026-01-02T09:00:00")
	require.NoError(t, s.UpdateEmailCategory(ctx, first, core.CategoryGeneral))
	require.NoError(t, s.UpdateEmailCategory(ctx, second, core.CategoryGeneral))

	n, err := s.ResetProcessed(ctx, first)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	n, err = s.ResetProcessed(ctx, 0)
	require.NoError(t, err)
	assert.EqualValues(t, 2, n, "id 0 resets every email")
}

func TestStore_EmailExists(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	saveTestEmail(t, s, "a@x.com", "One", "2026-01-01T09:00:00")

	exists, err := s.EmailExists(ctx, "a@x.com", "One", "2026-01-01T09:00:00")
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = s.EmailExists(ctx, "a@x.com", "One", "2026-01-02T09:00:00")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestStore_ActionItemOrdering(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	emailID := saveTestEmail(t, s, "a@x.com", "Tasks", "2026-01-01T09:00:00")

	for _, item := range []core.ActionItem{
		{EmailID: emailID, Task: "low task", Priority: core.PriorityLow},
		{EmailID: emailID, Task: "high task", Priority: core.PriorityHigh},
		{EmailID: emailID, Task: "medium task"},
	} {
		_, err := s.SaveActionItem(ctx, &item)
		require.NoError(t, err)
	}

	items, err := s.GetActionItems(ctx, core.ActionItemFilter{EmailID: emailID})
	require.NoError(t, err)
	require.Len(t, items, 3)
	assert.Equal(t, "high task", items[0].Task)
	assert.Equal(t, "medium task", items[1].Task, "missing priority defaults to medium")
	assert.Equal(t, "low task", items[2].Task)
}

func TestStore_CompleteActionItem(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	emailID := saveTestEmail(t, s, "a@x.com", "Tasks", "2026-01-01T09:00:00")
	itemID, err := s.SaveActionItem(ctx, &core.ActionItem{EmailID: emailID, Task: "do it"})
	require.NoError(t, err)

	require.NoError(t, s.CompleteActionItem(ctx, itemID))

	open := false
	items, err := s.GetActionItems(ctx, core.ActionItemFilter{Completed: &open})
	require.NoError(t, err)
	assert.Empty(t, items)

	assert.ErrorIs(t, s.CompleteActionItem(ctx, 9999), core.ErrNotFound)
}

func TestStore_DraftLifecycle(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	id, err := s.SaveDraft(ctx, &core.Draft{Subject: "Hi", Body: "Body", Metadata: "test"})
	require.NoError(t, err)

	draft, err := s.GetDraftByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Hi", draft.Subject)
	assert.Zero(t, draft.EmailID)

	require.NoError(t, s.UpdateDraft(ctx, id, "Hi again", "New body"))
	draft, err = s.GetDraftByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Hi again", draft.Subject)
	assert.Equal(t, "New body", draft.Body)

	require.NoError(t, s.DeleteDraft(ctx, id))
	_, err = s.GetDraftByID(ctx, id)
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestStore_PromptLifecycle(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	id, err := s.SavePrompt(ctx, &core.Prompt{
		Name:    "Default Categorization",
		Type:    core.PromptCategorization,
		Content: "categorize this",
	})
	require.NoError(t, err)

	prompt, err := s.GetPromptByType(ctx, core.PromptCategorization)
	require.NoError(t, err)
	assert.Equal(t, "categorize this", prompt.Content)

	require.NoError(t, s.UpdatePrompt(ctx, id, "new content", ""))
	prompt, err = s.GetPromptByType(ctx, core.PromptCategorization)
	require.NoError(t, err)
	assert.Equal(t, "new content", prompt.Content)

	require.NoError(t, s.DeactivatePrompt(ctx, id))
	_, err = s.GetPromptByType(ctx, core.PromptCategorization)
	assert.ErrorIs(t, err, core.ErrNotFound)

	prompts, err := s.GetPrompts(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, prompts, "deactivated prompts are hidden")
}

func TestStore_Stats(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	first := saveTestEmail(t, s, "a@x.com", "One", "2026-01-01T09:00:00")
	saveTestEmail(t, s, "b@x.com", "Two", "2026-01-02T09:00:00")
	require.NoError(t, s.UpdateEmailCategory(ctx, first, core.CategoryToDo))

	_, err := s.SaveActionItem(ctx, &core.ActionItem{EmailID: first, Task: "task"})
	require.NoError(t, err)
	_, err = s.SaveDraft(ctx, &core.Draft{Subject: "s", Body: "b"})
	require.NoError(t, err)

	stats, err := s.GetStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.TotalEmails)
	assert.Equal(t, 1, stats.CategoryCounts[core.CategoryToDo])
	assert.Equal(t, 1, stats.CategoryCounts[core.CategoryUncategorized])
	assert.Equal(t, 1, stats.PendingActions)
	assert.Equal(t, 1, stats.TotalDrafts)
}
