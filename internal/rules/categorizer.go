// Package rules categorizes emails with keyword heuristics, without calling
// the language model. Useful for bulk pre-processing and as a fallback when
// no API key is configured.
package rules

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/ishaanpearpie/email-productivity-agent/internal/core"
)

var (
	spamSubjectWords       = []string{"urgent verify", "verify your account", "suspicious", "90% off", "flash sale"}
	spamSenderWords        = []string{"security@banking", "bank-verify"}
	newsletterSenderWords  = []string{"newsletter", "noreply", "digest"}
	newsletterSubjectWords = []string{"weekly digest", "weekly updates", "top stories", "top 10", "newsletter"}
	projectBodyWords       = []string{"completed:", "in progress", "blocked", "sprint", "on track"}
	importantSubjectWords  = []string{"urgent:", "critical", "emergency", "server downtime", "bug in production"}
	todoSubjectWords       = []string{"action required", "approval required", "code review request", "review required"}
	todoBodyWords          = []string{"deadline", "review by", "by end of", "by friday", "by monday", "approve by", "provide feedback by"}
	meetingSubjectWords    = []string{"meeting", "standup", "conference", "sprint planning"}
	meetingBodyWords       = []string{"join us", "schedule", "meeting is scheduled", "meeting room", "meeting link"}
	urgencyWords           = []string{"urgent", "critical", "immediate"}

	deadlinePatterns = []*regexp.Regexp{
		regexp.MustCompile(`by\s+(?:end\s+of\s+)?(\w+\s+\d{1,2})`),
		regexp.MustCompile(`deadline[:\s]+(\w+\s+\d{1,2})`),
		regexp.MustCompile(`by\s+(\w+\s+\d{1,2})`),
	}
)

func containsAny(s string, words []string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}

// Categorize assigns a category to an email using keyword rules. Rules are
// checked in a fixed order, so spam patterns beat newsletter patterns and
// so on down to the General fallback.
func Categorize(subject, body, sender string) string {
	subjectLower := strings.ToLower(subject)
	bodyLower := strings.ToLower(body)
	senderLower := strings.ToLower(sender)

	if containsAny(subjectLower, spamSubjectWords) {
		return core.CategorySpam
	}
	if containsAny(senderLower, spamSenderWords) &&
		(strings.Contains(subjectLower, "verify") || strings.Contains(subjectLower, "click")) {
		return core.CategorySpam
	}

	if containsAny(senderLower, newsletterSenderWords) || containsAny(subjectLower, newsletterSubjectWords) {
		return core.CategoryNewsletter
	}

	if strings.Contains(subjectLower, "status update") || strings.Contains(subjectLower, "project status") {
		if containsAny(bodyLower, projectBodyWords) {
			return core.CategoryProjectUpdate
		}
	}

	if containsAny(subjectLower, importantSubjectWords) &&
		(strings.Contains(subjectLower, "important") || strings.Contains(subjectLower, "urgent")) {
		return core.CategoryImportant
	}

	if containsAny(subjectLower, todoSubjectWords) || containsAny(bodyLower, todoBodyWords) ||
		strings.Contains(subjectLower, "database migration") ||
		strings.Contains(subjectLower, "expense report approval") {
		return core.CategoryToDo
	}

	if containsAny(subjectLower, meetingSubjectWords) || containsAny(bodyLower, meetingBodyWords) {
		return core.CategoryMeetingRequest
	}

	return core.CategoryGeneral
}

// ExtractDeadline pulls a human-readable deadline phrase out of an email
// body, like "friday 15" or "january 19". Empty when nothing matches.
func ExtractDeadline(body string) string {
	bodyLower := strings.ToLower(body)
	for _, pattern := range deadlinePatterns {
		if match := pattern.FindStringSubmatch(bodyLower); match != nil {
			return match[1]
		}
	}
	return ""
}

// ActionItemFor synthesizes an action item for a To-Do email. The task text
// is derived from the subject, prefixed with the kind of action the body
// asks for, and urgency keywords in the subject raise the priority.
func ActionItemFor(email *core.Email) core.ActionItem {
	bodyLower := strings.ToLower(email.Body)

	task := email.Subject
	switch {
	case strings.Contains(bodyLower, "review"):
		task = "Review: " + email.Subject
	case strings.Contains(bodyLower, "approve"):
		task = "Approve: " + email.Subject
	case strings.Contains(bodyLower, "provide feedback"):
		task = "Provide feedback: " + email.Subject
	}

	priority := core.PriorityMedium
	if containsAny(strings.ToLower(email.Subject), urgencyWords) {
		priority = core.PriorityHigh
	}

	return core.ActionItem{
		EmailID:  email.ID,
		Task:     task,
		Deadline: ExtractDeadline(email.Body),
		Priority: priority,
	}
}

// Categorizer applies the keyword rules across a stored inbox.
type Categorizer struct {
	repo   core.EmailRepository
	logger *zap.Logger
}

func NewCategorizer(repo core.EmailRepository, logger *zap.Logger) *Categorizer {
	return &Categorizer{repo: repo, logger: logger}
}

// CategorizeAll assigns a rule-based category to every uncategorized email
// and records action items for the ones that land in To-Do. Returns the
// number of emails categorized.
func (c *Categorizer) CategorizeAll(ctx context.Context) (int, error) {
	emails, err := c.repo.GetEmails(ctx, core.EmailFilter{})
	if err != nil {
		return 0, fmt.Errorf("failed to load emails: %w", err)
	}

	var count int
	for _, email := range emails {
		if email.Category != "" && email.Category != core.CategoryUncategorized {
			continue
		}

		category := Categorize(email.Subject, email.Body, email.Sender)
		if err := c.repo.UpdateEmailCategory(ctx, email.ID, category); err != nil {
			return count, fmt.Errorf("failed to update email %d: %w", email.ID, err)
		}
		count++

		if category == core.CategoryToDo {
			item := ActionItemFor(email)
			if _, err := c.repo.SaveActionItem(ctx, &item); err != nil {
				return count, fmt.Errorf("failed to save action item for email %d: %w", email.ID, err)
			}
		}

		c.logger.Debug("Rule-categorized email",
			zap.Int64("email_id", email.ID),
			zap.String("category", category))
	}

	return count, nil
}
