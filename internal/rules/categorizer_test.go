package rules

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ishaanpearpie/email-productivity-agent/internal/adapters/store"
	"github.com/ishaanpearpie/email-productivity-agent/internal/core"
)

func TestCategorize(t *testing.T) {
	tests := []struct {
		name     string
		subject  string
		body     string
		sender   string
		expected string
	}{
		{
			name:     "phishing subject",
			subject:  "Please verify your account now",
			sender:   "someone@example.com",
			expected: core.CategorySpam,
		},
		{
			name:     "banking sender with verify",
			subject:  "Verify your details",
			sender:   "alerts@bank-verify.example",
			expected: core.CategorySpam,
		},
		{
			name:     "noreply sender",
			subject:  "Your order shipped",
			sender:   "noreply@shop.example",
			expected: core.CategoryNewsletter,
		},
		{
			name:     "digest subject",
			subject:  "Weekly Digest: Engineering",
			sender:   "eng@company.example",
			expected: core.CategoryNewsletter,
		},
		{
			name:     "project status with progress body",
			subject:  "Project Status - Q3 Migration",
			body:     "Completed: schema design. In progress: data backfill.",
			sender:   "pm@company.example",
			expected: core.CategoryProjectUpdate,
		},
		{
			name:     "status update without progress keywords falls through",
			subject:  "Status update",
			body:     "Nothing much happening.",
			sender:   "pm@company.example",
			expected: core.CategoryGeneral,
		},
		{
			name:     "urgent production issue",
			subject:  "URGENT: Bug in production",
			sender:   "oncall@company.example",
			expected: core.CategoryImportant,
		},
		{
			name:     "action required subject",
			subject:  "Action Required: expense policy",
			sender:   "finance@company.example",
			expected: core.CategoryToDo,
		},
		{
			name:     "deadline in body",
			subject:  "Quarterly report",
			body:     "Please review by Friday 15 at the latest.",
			sender:   "boss@company.example",
			expected: core.CategoryToDo,
		},
		{
			name:     "meeting subject",
			subject:  "Sprint planning for next week",
			sender:   "scrum@company.example",
			expected: core.CategoryMeetingRequest,
		},
		{
			name:     "schedule in body",
			subject:  "Quick sync",
			body:     "Can we schedule something for Thursday?",
			sender:   "peer@company.example",
			expected: core.CategoryMeetingRequest,
		},
		{
			name:     "plain email",
			subject:  "Lunch?",
			body:     "Want to grab food later?",
			sender:   "friend@example.com",
			expected: core.CategoryGeneral,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Categorize(tt.subject, tt.body, tt.sender))
		})
	}
}

func TestContainsAny(t *testing.T) {
	words := []string{"deadline", "review by"}
	assert.True(t, containsAny("the deadline is close", words))
	assert.True(t, containsAny("please review by monday", words))
	assert.False(t, containsAny("nothing to see here", words))
	assert.False(t, containsAny("anything", nil))
}

func TestExtractDeadline(t *testing.T) {
	assert.Equal(t, "friday 15", ExtractDeadline("Please send it by Friday 15."))
	assert.Equal(t, "january 19", ExtractDeadline("Deadline: January 19 for all submissions."))
	assert.Equal(t, "week 2", ExtractDeadline("Finish by end of week 2 please."))
	assert.Empty(t, ExtractDeadline("No due date here."))
}

func TestActionItemFor(t *testing.T) {
	email := &core.Email{
		ID:      7,
		Subject: "Urgent: design doc",
		Body:    "Please review the doc by Friday 12.",
	}

	item := ActionItemFor(email)
	assert.EqualValues(t, 7, item.EmailID)
	assert.Equal(t, "Review: Urgent: design doc", item.Task)
	assert.Equal(t, "friday 12", item.Deadline)
	assert.Equal(t, core.PriorityHigh, item.Priority)

	calm := ActionItemFor(&core.Email{ID: 8, Subject: "Timesheet", Body: "Approve my timesheet when you can."})
	assert.Equal(t, "Approve: Timesheet", calm.Task)
	assert.Equal(t, core.PriorityMedium, calm.Priority)
	assert.Empty(t, calm.Deadline)
}

func TestCategorizer_CategorizeAll(t *testing.T) {
	s, err := store.NewSQLiteStore(":memory:", zap.NewNop())
	require.NoError(t, err)
	defer s.Close()
	ctx := context.Background()

	todoID, err := s.SaveEmail(ctx, &core.Email{
		Sender:    "boss@company.example",
		Subject:   "Action Required: budget",
		Body:      "Approve the budget by Friday 20.",
		Timestamp: "2026-01-01T09:00:00",
	})
	require.NoError(t, err)

	_, err = s.SaveEmail(ctx, &core.Email{
		Sender:    "noreply@shop.example",
		Subject:   "Sale!",
		Body:      "Everything discounted.",
		Timestamp: "2026-01-02T09:00:00",
	})
	require.NoError(t, err)

	alreadyID, err := s.SaveEmail(ctx, &core.Email{
		Sender:    "x@example.com",
		Subject:   "meeting",
		Body:      "",
		Timestamp: "2026-01-03T09:00:00",
		Category:  core.CategoryImportant,
	})
	require.NoError(t, err)

	c := NewCategorizer(s, zap.NewNop())
	count, err := c.CategorizeAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, count, "pre-categorized email is skipped")

	email, err := s.GetEmailByID(ctx, todoID)
	require.NoError(t, err)
	assert.Equal(t, core.CategoryToDo, email.Category)

	email, err = s.GetEmailByID(ctx, alreadyID)
	require.NoError(t, err)
	assert.Equal(t, core.CategoryImportant, email.Category)

	items, err := s.GetActionItems(ctx, core.ActionItemFilter{EmailID: todoID})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "Approve: Action Required: budget", items[0].Task)
	assert.Equal(t, "friday 20", items[0].Deadline)
}
