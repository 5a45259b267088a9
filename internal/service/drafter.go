package service

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/ishaanpearpie/email-productivity-agent/internal/core"
	"github.com/ishaanpearpie/email-productivity-agent/internal/normalize"
	"github.com/ishaanpearpie/email-productivity-agent/internal/utils"
)

const (
	draftTemperature = 0.8
	draftMaxTokens   = 1000

	// New-email fallback subjects are clipped to a sane length
	maxFallbackSubjectLen = 50
)

const newEmailGuidelines = `Guidelines:
- Create an appropriate subject line
- Write a professional, concise email body (2-3 paragraphs)
- Match the tone to the purpose
- Be clear and direct

Format your response as:
Subject: [subject line]
---
[email body]`

// DraftGenerator writes reply drafts, fresh emails and draft refinements
type DraftGenerator struct {
	repo    core.EmailRepository
	prompts core.PromptProvider
	client  core.CompletionClient
	logger  *zap.Logger
	text    *utils.TextProcessor
}

func NewDraftGenerator(
	repo core.EmailRepository,
	prompts core.PromptProvider,
	client core.CompletionClient,
	logger *zap.Logger,
) *DraftGenerator {
	return &DraftGenerator{
		repo:    repo,
		prompts: prompts,
		client:  client,
		logger:  logger,
		text:    utils.NewTextProcessor(logger),
	}
}

// GenerateReply drafts a reply to a stored email and saves it. Optional
// custom instructions are appended to the email context.
func (g *DraftGenerator) GenerateReply(ctx context.Context, emailID int64, customInstructions string) (*core.Draft, error) {
	email, err := g.repo.GetEmailByID(ctx, emailID)
	if err != nil {
		return nil, fmt.Errorf("failed to load email %d: %w", emailID, err)
	}

	prompt := g.prompts.Get(ctx, core.PromptAutoReply)
	if prompt == "" {
		return nil, fmt.Errorf("no auto-reply prompt found")
	}

	emailContext := fmt.Sprintf("Original Email:\nFrom: %s\nSubject: %s\nBody: %s\n",
		email.Sender, email.Subject, email.Body)
	if customInstructions != "" {
		emailContext += fmt.Sprintf("\nCustom Instructions: %s\n", customInstructions)
	}

	result := g.client.Complete(ctx, &core.CompletionRequest{
		Prompt:         prompt + "\n\n" + emailContext,
		Temperature:    draftTemperature,
		HasTemperature: true,
		MaxTokens:      draftMaxTokens,
	})
	if !result.OK() {
		return nil, result.Err()
	}

	// The reply template asks the model to start the subject with "Re: ";
	// strip it here since the fallback subject carries its own prefix.
	content := normalize.Draft(result.Text, "Re: "+email.Subject, true)

	draft := &core.Draft{
		EmailID:  emailID,
		Subject:  content.Subject,
		Body:     content.Body,
		Metadata: fmt.Sprintf("Generated reply for email %d", emailID),
	}
	draft.ID, err = g.repo.SaveDraft(ctx, draft)
	if err != nil {
		return nil, fmt.Errorf("failed to save draft: %w", err)
	}

	g.logger.Info("Generated reply draft",
		zap.Int64("email_id", emailID),
		zap.Int64("draft_id", draft.ID))
	return draft, nil
}

// GenerateNewEmail drafts a fresh email for a recipient and purpose and
// saves it. keyPoints is optional extra guidance for the body.
func (g *DraftGenerator) GenerateNewEmail(ctx context.Context, recipient, purpose, keyPoints string) (*core.Draft, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "Generate a professional email with the following requirements:\n\n")
	fmt.Fprintf(&b, "Recipient: %s\nPurpose: %s\n", recipient, purpose)
	if keyPoints != "" {
		fmt.Fprintf(&b, "Key Points to Include: %s\n", keyPoints)
	}
	b.WriteString("\n" + newEmailGuidelines)

	result := g.client.Complete(ctx, &core.CompletionRequest{
		Prompt:         b.String(),
		Temperature:    draftTemperature,
		HasTemperature: true,
		MaxTokens:      draftMaxTokens,
	})
	if !result.OK() {
		return nil, result.Err()
	}

	fallbackSubject := g.text.TruncateText(purpose, maxFallbackSubjectLen)
	content := normalize.Draft(result.Text, fallbackSubject, false)

	draft := &core.Draft{
		Subject:  content.Subject,
		Body:     content.Body,
		Metadata: fmt.Sprintf("New email to %s", recipient),
	}
	var err error
	draft.ID, err = g.repo.SaveDraft(ctx, draft)
	if err != nil {
		return nil, fmt.Errorf("failed to save draft: %w", err)
	}

	g.logger.Info("Generated new email draft",
		zap.String("recipient", recipient),
		zap.Int64("draft_id", draft.ID))
	return draft, nil
}

// RefineDraft rewrites an existing draft following the given instructions
// and stores the result. Output that does not follow the subject/body
// format leaves the draft unchanged rather than clobbering it.
func (g *DraftGenerator) RefineDraft(ctx context.Context, draftID int64, instructions string) (*core.Draft, error) {
	draft, err := g.repo.GetDraftByID(ctx, draftID)
	if err != nil {
		return nil, fmt.Errorf("failed to load draft %d: %w", draftID, err)
	}

	prompt := fmt.Sprintf(`Refine this email draft based on the following instructions:

Original Draft:
Subject: %s
Body: %s

Refinement Instructions: %s

Provide the refined email in the same format:
Subject: [subject line]
---
[email body]`, draft.Subject, draft.Body, instructions)

	result := g.client.Complete(ctx, &core.CompletionRequest{
		Prompt:         prompt,
		Temperature:    draftTemperature,
		HasTemperature: true,
		MaxTokens:      draftMaxTokens,
	})
	if !result.OK() {
		return nil, result.Err()
	}

	subject, body := draft.Subject, draft.Body
	if strings.Contains(result.Text, "Subject:") {
		content := normalize.Draft(result.Text, draft.Subject, false)
		subject, body = content.Subject, content.Body
	}

	if err := g.repo.UpdateDraft(ctx, draftID, subject, body); err != nil {
		return nil, fmt.Errorf("failed to update draft: %w", err)
	}

	draft.Subject = subject
	draft.Body = body
	g.logger.Info("Refined draft", zap.Int64("draft_id", draftID))
	return draft, nil
}
