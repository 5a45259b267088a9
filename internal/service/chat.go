package service

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/ishaanpearpie/email-productivity-agent/internal/core"
)

const (
	chatTemperature = 0.7
	chatMaxTokens   = 500
	summaryTokens   = 200

	maxHistoryMessages  = 10
	historyInPrompt     = 5
	recentEmailsFetched = 10
	recentEmailsShown   = 5
)

const chatSystemInstruction = "You are an intelligent email assistant. Answer questions about the user's email inbox based on the provided context. Be concise and helpful."

type chatMessage struct {
	role    string
	content string
}

// ChatAgent answers free-form questions about the inbox. It grounds every
// answer in live repository state (stats plus recent emails) and keeps a
// short rolling conversation history. Not safe for concurrent use.
type ChatAgent struct {
	repo    core.EmailRepository
	client  core.CompletionClient
	logger  *zap.Logger
	history []chatMessage
}

func NewChatAgent(repo core.EmailRepository, client core.CompletionClient, logger *zap.Logger) *ChatAgent {
	return &ChatAgent{
		repo:   repo,
		client: client,
		logger: logger,
	}
}

func (a *ChatAgent) buildContext(ctx context.Context) (string, error) {
	stats, err := a.repo.GetStats(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to load stats: %w", err)
	}
	emails, err := a.repo.GetEmails(ctx, core.EmailFilter{Limit: recentEmailsFetched})
	if err != nil {
		return "", fmt.Errorf("failed to load recent emails: %w", err)
	}

	var b strings.Builder
	b.WriteString("Email Inbox Statistics:\n")
	fmt.Fprintf(&b, "- Total emails: %d\n", stats.TotalEmails)
	fmt.Fprintf(&b, "- Categories: %s\n", formatCategoryCounts(stats.CategoryCounts))
	fmt.Fprintf(&b, "- Pending action items: %d\n\n", stats.PendingActions)

	b.WriteString("Recent Emails:\n")
	for i, email := range emails {
		if i >= recentEmailsShown {
			break
		}
		fmt.Fprintf(&b, "- [%s] %s (from %s)\n", email.Category, email.Subject, email.Sender)
	}

	return b.String(), nil
}

// formatCategoryCounts renders counts in a stable order so prompts are
// reproducible.
func formatCategoryCounts(counts map[string]int) string {
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %d", k, counts[k]))
	}
	return strings.Join(parts, ", ")
}

// AnswerQuery answers a question about the inbox. extraContext, when
// non-empty, is appended to the inbox summary before the model is called.
func (a *ChatAgent) AnswerQuery(ctx context.Context, query, extraContext string) (string, error) {
	inboxContext, err := a.buildContext(ctx)
	if err != nil {
		return "", err
	}
	if extraContext != "" {
		inboxContext += fmt.Sprintf("\nAdditional Context:\n%s\n", extraContext)
	}

	var historyText string
	if len(a.history) > 0 {
		historyText = "\nPrevious conversation:\n"
		start := len(a.history) - historyInPrompt
		if start < 0 {
			start = 0
		}
		for _, msg := range a.history[start:] {
			historyText += fmt.Sprintf("%s: %s\n", msg.role, msg.content)
		}
	}

	prompt := fmt.Sprintf("%s\n\n%s\n%s\n\nUser: %s\n\nAssistant:",
		chatSystemInstruction, inboxContext, historyText, query)

	result := a.client.Complete(ctx, &core.CompletionRequest{
		Prompt:            prompt,
		SystemInstruction: chatSystemInstruction,
		Temperature:       chatTemperature,
		HasTemperature:    true,
		MaxTokens:         chatMaxTokens,
	})
	if !result.OK() {
		return "", result.Err()
	}

	answer := strings.TrimSpace(result.Text)
	a.history = append(a.history,
		chatMessage{role: "user", content: query},
		chatMessage{role: "assistant", content: answer})
	if len(a.history) > maxHistoryMessages {
		a.history = a.history[len(a.history)-maxHistoryMessages:]
	}

	return answer, nil
}

// SummarizeEmail produces a short summary of one stored email
func (a *ChatAgent) SummarizeEmail(ctx context.Context, emailID int64) (string, error) {
	email, err := a.repo.GetEmailByID(ctx, emailID)
	if err != nil {
		return "", fmt.Errorf("failed to load email %d: %w", emailID, err)
	}

	prompt := fmt.Sprintf(
		"Summarize this email in 2-3 sentences, highlighting key points and any action items:\n\nFrom: %s\nSubject: %s\nBody: %s\n",
		email.Sender, email.Subject, email.Body)

	result := a.client.Complete(ctx, &core.CompletionRequest{
		Prompt:    prompt,
		MaxTokens: summaryTokens,
	})
	if !result.OK() {
		return "", result.Err()
	}
	return strings.TrimSpace(result.Text), nil
}

// FindUrgentEmails returns emails marked Important plus emails that carry
// an open high-priority action item, each with the reason it was flagged.
// No model call is involved.
func (a *ChatAgent) FindUrgentEmails(ctx context.Context) ([]core.UrgentEmail, error) {
	important, err := a.repo.GetEmails(ctx, core.EmailFilter{Category: core.CategoryImportant})
	if err != nil {
		return nil, fmt.Errorf("failed to load important emails: %w", err)
	}
	open := false
	items, err := a.repo.GetActionItems(ctx, core.ActionItemFilter{Completed: &open})
	if err != nil {
		return nil, fmt.Errorf("failed to load action items: %w", err)
	}

	var urgent []core.UrgentEmail
	seen := make(map[int64]bool)

	for _, email := range important {
		urgent = append(urgent, core.UrgentEmail{Email: email, Reason: "Marked as Important"})
		seen[email.ID] = true
	}

	for _, item := range items {
		if item.Priority != core.PriorityHigh || seen[item.EmailID] {
			continue
		}
		email, err := a.repo.GetEmailByID(ctx, item.EmailID)
		if err != nil {
			a.logger.Warn("Skipping action item with missing email",
				zap.Int64("email_id", item.EmailID),
				zap.Error(err))
			continue
		}
		urgent = append(urgent, core.UrgentEmail{
			Email:  email,
			Reason: fmt.Sprintf("High priority task: %s", item.Task),
		})
		seen[email.ID] = true
	}

	return urgent, nil
}

// PendingActionItem pairs an open action item with its source email
type PendingActionItem struct {
	Item  *core.ActionItem
	Email *core.Email
}

// ListActionItems returns all open action items with their source emails
func (a *ChatAgent) ListActionItems(ctx context.Context) ([]PendingActionItem, error) {
	open := false
	items, err := a.repo.GetActionItems(ctx, core.ActionItemFilter{Completed: &open})
	if err != nil {
		return nil, fmt.Errorf("failed to load action items: %w", err)
	}

	result := make([]PendingActionItem, 0, len(items))
	for _, item := range items {
		email, err := a.repo.GetEmailByID(ctx, item.EmailID)
		if err != nil {
			a.logger.Warn("Action item references missing email",
				zap.Int64("email_id", item.EmailID),
				zap.Error(err))
			email = nil
		}
		result = append(result, PendingActionItem{Item: item, Email: email})
	}
	return result, nil
}

// ClearHistory drops the rolling conversation history
func (a *ChatAgent) ClearHistory() {
	a.history = nil
}
