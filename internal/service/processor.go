// Package service holds the assistant's application services: batch email
// processing, draft generation and the inbox chat agent. Services depend on
// the completion client, the repository and the prompt provider through
// their core interfaces.
package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/ishaanpearpie/email-productivity-agent/internal/core"
	"github.com/ishaanpearpie/email-productivity-agent/internal/normalize"
	"github.com/ishaanpearpie/email-productivity-agent/internal/utils"
)

const (
	categorizationMaxTokens = 50
	extractionMaxTokens     = 500

	// Body text sent with a categorization prompt is clipped; the category
	// is usually decidable from the opening lines and short prompts keep
	// the calls cheap.
	defaultCategoryBodyLimit = 500

	defaultPacing = 200 * time.Millisecond

	maxReportErrors = 5
)

// ProgressFunc is called once per email during a batch run
type ProgressFunc func(current, total int, subject string)

// EmailProcessor categorizes emails and extracts their action items
type EmailProcessor struct {
	repo    core.EmailRepository
	prompts core.PromptProvider
	client  core.CompletionClient
	logger  *zap.Logger

	text      *utils.TextProcessor
	bodyLimit int
	pacing    time.Duration
	sleep     func(time.Duration)
}

// ProcessorOptions tunes batch processing behaviour. Zero values fall back
// to the defaults.
type ProcessorOptions struct {
	CategoryBodyLimit int
	Pacing            time.Duration
}

func NewEmailProcessor(
	repo core.EmailRepository,
	prompts core.PromptProvider,
	client core.CompletionClient,
	logger *zap.Logger,
	opts ProcessorOptions,
) *EmailProcessor {
	if opts.CategoryBodyLimit <= 0 {
		opts.CategoryBodyLimit = defaultCategoryBodyLimit
	}
	if opts.Pacing <= 0 {
		opts.Pacing = defaultPacing
	}
	return &EmailProcessor{
		repo:      repo,
		prompts:   prompts,
		client:    client,
		logger:    logger,
		text:      utils.NewTextProcessor(logger),
		bodyLimit: opts.CategoryBodyLimit,
		pacing:    opts.Pacing,
		sleep:     time.Sleep,
	}
}

// CategorizeEmail asks the model for a category and normalizes the answer.
// Failures are logged to the repository and reported as Uncategorized; the
// email still gets a category either way.
func (p *EmailProcessor) CategorizeEmail(ctx context.Context, email *core.Email) string {
	prompt := p.prompts.Get(ctx, core.PromptCategorization)
	if prompt == "" {
		p.logger.Error("No categorization prompt found")
		return core.CategoryUncategorized
	}

	body := p.text.ProcessText(email.Body, p.bodyLimit)
	fullPrompt := fmt.Sprintf("%s\n\nEmail:\nFrom: %s\nSubject: %s\nBody: %s\n",
		prompt, email.Sender, email.Subject, body)

	result := p.client.Complete(ctx, &core.CompletionRequest{
		Prompt:    fullPrompt,
		MaxTokens: categorizationMaxTokens,
	})
	if !result.OK() {
		p.logger.Warn("Categorization failed",
			zap.Int64("email_id", email.ID),
			zap.String("reason", string(result.Reason)))
		p.logFailure(ctx, email.ID, core.PromptCategorization, result)
		return core.CategoryUncategorized
	}

	category := normalize.Category(result.Text, core.Categories(), core.CategoryUncategorized)
	p.logger.Info("Categorized email",
		zap.Int64("email_id", email.ID),
		zap.String("category", category))
	return category
}

// ExtractActionItems asks the model for the email's tasks and parses its
// JSON answer. Failures are logged and yield an empty list.
func (p *EmailProcessor) ExtractActionItems(ctx context.Context, email *core.Email) []core.ActionItem {
	prompt := p.prompts.Get(ctx, core.PromptActionExtraction)
	if prompt == "" {
		p.logger.Error("No action extraction prompt found")
		return nil
	}

	fullPrompt := fmt.Sprintf("%s\n\nEmail:\nSender: %s\nSubject: %s\nBody: %s\n",
		prompt, email.Sender, email.Subject, email.Body)

	result := p.client.Complete(ctx, &core.CompletionRequest{
		Prompt:    fullPrompt,
		MaxTokens: extractionMaxTokens,
	})
	if !result.OK() {
		p.logger.Warn("Action extraction failed",
			zap.Int64("email_id", email.ID),
			zap.String("reason", string(result.Reason)))
		p.logFailure(ctx, email.ID, core.PromptActionExtraction, result)
		return nil
	}

	items := normalize.ActionItems(result.Text)
	p.logOutcome(ctx, email.ID, core.PromptActionExtraction, core.StatusSuccess, "")
	return items
}

// ProcessEmail categorizes one email and stores its extracted action items.
// Returns the assigned category and the number of saved items.
func (p *EmailProcessor) ProcessEmail(ctx context.Context, emailID int64) (string, int, error) {
	email, err := p.repo.GetEmailByID(ctx, emailID)
	if err != nil {
		return "", 0, fmt.Errorf("failed to load email %d: %w", emailID, err)
	}

	category := p.CategorizeEmail(ctx, email)
	if err := p.repo.UpdateEmailCategory(ctx, emailID, category); err != nil {
		return category, 0, fmt.Errorf("failed to store category: %w", err)
	}

	items := p.ExtractActionItems(ctx, email)
	var saved int
	for i := range items {
		items[i].EmailID = emailID
		if _, err := p.repo.SaveActionItem(ctx, &items[i]); err != nil {
			p.logger.Warn("Failed to save action item",
				zap.Int64("email_id", emailID),
				zap.Error(err))
			continue
		}
		saved++
	}

	return category, saved, nil
}

// ProcessInbox runs over unprocessed emails sequentially, pacing the calls
// to stay under provider rate limits. When categorizeOnly is set, action
// extraction is skipped and an email counts as failed if it could not be
// categorized. Individual failures never stop the run.
func (p *EmailProcessor) ProcessInbox(ctx context.Context, limit int, categorizeOnly bool, progress ProgressFunc) (*core.ProcessReport, error) {
	unprocessed := false
	emails, err := p.repo.GetEmails(ctx, core.EmailFilter{Processed: &unprocessed, Limit: limit})
	if err != nil {
		return nil, fmt.Errorf("failed to load unprocessed emails: %w", err)
	}

	report := &core.ProcessReport{Total: len(emails)}
	if len(emails) == 0 {
		return report, nil
	}

	for idx, email := range emails {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		if progress != nil {
			progress(idx+1, report.Total, email.Subject)
		}
		if idx > 0 {
			p.sleep(p.pacing)
		}

		if categorizeOnly {
			category := p.CategorizeEmail(ctx, email)
			if err := p.repo.UpdateEmailCategory(ctx, email.ID, category); err != nil {
				report.Failed++
				p.addError(report, fmt.Sprintf("Email %d: %v", email.ID, err))
				continue
			}
			if category != core.CategoryUncategorized {
				report.Processed++
			} else {
				report.Failed++
				p.addError(report, fmt.Sprintf("Email %d: categorized as %s", email.ID, category))
			}
			continue
		}

		if _, _, err := p.ProcessEmail(ctx, email.ID); err != nil {
			p.logger.Error("Error processing email",
				zap.Int64("email_id", email.ID),
				zap.Error(err))
			report.Failed++
			p.addError(report, fmt.Sprintf("Email %d: %v", email.ID, err))
			continue
		}
		report.Processed++
	}

	return report, nil
}

func (p *EmailProcessor) addError(report *core.ProcessReport, msg string) {
	if len(report.Errors) < maxReportErrors {
		report.Errors = append(report.Errors, msg)
	}
}

func (p *EmailProcessor) logFailure(ctx context.Context, emailID int64, operation string, result *core.CompletionResult) {
	msg := string(result.Reason)
	if result.Detail != "" {
		msg = result.Detail
	}
	p.logOutcome(ctx, emailID, operation, core.StatusFailed, msg)
}

func (p *EmailProcessor) logOutcome(ctx context.Context, emailID int64, operation, status, errMsg string) {
	err := p.repo.LogProcessing(ctx, &core.ProcessingLog{
		EmailID:       emailID,
		OperationType: operation,
		Status:        status,
		ErrorMessage:  errMsg,
	})
	if err != nil {
		p.logger.Warn("Failed to write processing log", zap.Error(err))
	}
}
