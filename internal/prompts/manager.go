// Package prompts manages the prompt templates the assistant sends to the
// language model. Templates live in the repository so users can tune them;
// built-in defaults are seeded for any purpose that has no active template.
package prompts

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/ishaanpearpie/email-productivity-agent/internal/core"
)

const defaultCategorizationPrompt = `Categorize this email into one of these categories: Important, Newsletter, Spam, To-Do, Project Update, Meeting Request, or General.

Rules:
- Important: Urgent matters requiring immediate attention
- To-Do: Direct requests requiring user action
- Meeting Request: Scheduling or calendar-related
- Newsletter: Bulk marketing or informational content
- Spam: Unwanted or suspicious content
- Project Update: Status reports or progress updates
- General: Everything else

Respond with ONLY the category name, nothing else.`

const defaultActionExtractionPrompt = `Extract actionable tasks from this email. For each task found, identify:
- The specific action required
- Any mentioned deadline or timeframe
- Priority level (high/medium/low)

Respond ONLY in valid JSON format:
{
  "tasks": [
    {"task": "description", "deadline": "date or timeframe", "priority": "high/medium/low"}
  ]
}

If no tasks found, return: {"tasks": []}

Do not include any markdown formatting or code blocks, just the raw JSON.`

const defaultAutoReplyPrompt = `Generate a professional, concise email reply based on the context provided.

Guidelines:
- Match the tone of the original email
- Be polite and professional
- Keep it brief (2-3 paragraphs max)
- For meeting requests: ask for agenda and confirm availability
- For task requests: acknowledge and provide timeline
- For questions: provide clear answers or next steps

Include a subject line starting with "Re: "
Format your response as:
Subject: [subject line]
---
[email body]`

var defaultPrompts = map[string]string{
	core.PromptCategorization:   defaultCategorizationPrompt,
	core.PromptActionExtraction: defaultActionExtractionPrompt,
	core.PromptAutoReply:        defaultAutoReplyPrompt,
}

// Manager resolves prompt templates by purpose, backed by the repository.
// It implements core.PromptProvider.
type Manager struct {
	repo   core.EmailRepository
	logger *zap.Logger
}

func NewManager(repo core.EmailRepository, logger *zap.Logger) *Manager {
	return &Manager{repo: repo, logger: logger}
}

// EnsureDefaults seeds a built-in template for every purpose that has no
// active template yet. Existing templates are never overwritten.
func (m *Manager) EnsureDefaults(ctx context.Context) error {
	for _, purpose := range []string{core.PromptCategorization, core.PromptActionExtraction, core.PromptAutoReply} {
		_, err := m.repo.GetPromptByType(ctx, purpose)
		if err == nil {
			continue
		}
		if !errors.Is(err, core.ErrNotFound) {
			return fmt.Errorf("failed to look up prompt %s: %w", purpose, err)
		}

		if _, err := m.repo.SavePrompt(ctx, &core.Prompt{
			Name:    defaultPromptName(purpose),
			Type:    purpose,
			Content: defaultPrompts[purpose],
		}); err != nil {
			return fmt.Errorf("failed to seed prompt %s: %w", purpose, err)
		}
		m.logger.Info("Created default prompt", zap.String("type", purpose))
	}
	return nil
}

// Get returns the active template for a purpose, falling back to the
// built-in default when the repository has none.
func (m *Manager) Get(ctx context.Context, purpose string) string {
	prompt, err := m.repo.GetPromptByType(ctx, purpose)
	if err != nil {
		if !errors.Is(err, core.ErrNotFound) {
			m.logger.Warn("Failed to load prompt, using default",
				zap.String("type", purpose),
				zap.Error(err))
		}
		return defaultPrompts[purpose]
	}
	return prompt.Content
}

// RestoreDefault deactivates every template of a purpose and re-seeds the
// built-in one.
func (m *Manager) RestoreDefault(ctx context.Context, purpose string) error {
	content, ok := defaultPrompts[purpose]
	if !ok {
		return fmt.Errorf("unknown prompt type: %s", purpose)
	}

	existing, err := m.repo.GetPrompts(ctx, purpose)
	if err != nil {
		return fmt.Errorf("failed to list prompts: %w", err)
	}
	for _, prompt := range existing {
		if err := m.repo.DeactivatePrompt(ctx, prompt.ID); err != nil {
			return fmt.Errorf("failed to deactivate prompt %d: %w", prompt.ID, err)
		}
	}

	if _, err := m.repo.SavePrompt(ctx, &core.Prompt{
		Name:    defaultPromptName(purpose),
		Type:    purpose,
		Content: content,
	}); err != nil {
		return fmt.Errorf("failed to restore prompt %s: %w", purpose, err)
	}
	return nil
}

// defaultPromptName turns a purpose slug into a display name, e.g.
// "action_extraction" becomes "Default Action Extraction".
func defaultPromptName(purpose string) string {
	words := strings.ReplaceAll(purpose, "_", " ")
	return "Default " + cases.Title(language.English).String(words)
}
