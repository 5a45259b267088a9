// Package inbox loads emails from a mock inbox file into the repository.
package inbox

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/ishaanpearpie/email-productivity-agent/internal/adapters/store"
	"github.com/ishaanpearpie/email-productivity-agent/internal/core"
)

// inboxFile is the on-disk format: {"emails": [{...}, ...]}
type inboxFile struct {
	Emails []inboxEmail `json:"emails"`
}

type inboxEmail struct {
	ID        int    `json:"id"`
	Sender    string `json:"sender"`
	Subject   string `json:"subject"`
	Body      string `json:"body"`
	Timestamp string `json:"timestamp"`
}

// Loader imports a mock inbox JSON file into the store
type Loader struct {
	store  *store.Store
	logger *zap.Logger
	now    func() time.Time
}

func NewLoader(s *store.Store, logger *zap.Logger) *Loader {
	return &Loader{store: s, logger: logger, now: time.Now}
}

// Load reads the mock inbox and inserts its emails. It refuses to load into
// a non-empty inbox, and within a run skips entries whose sender, subject
// and timestamp match an already stored email. Returns the number loaded.
func (l *Loader) Load(ctx context.Context, path string) (int, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("failed to read mock inbox: %w", err)
	}

	var file inboxFile
	if err := json.Unmarshal(raw, &file); err != nil {
		return 0, fmt.Errorf("failed to parse mock inbox: %w", err)
	}
	if len(file.Emails) == 0 {
		return 0, fmt.Errorf("no emails found in %s", path)
	}

	existing, err := l.store.CountEmails(ctx)
	if err != nil {
		return 0, err
	}
	if existing > 0 {
		return 0, fmt.Errorf("emails already loaded (%d in database), clear the database to reload", existing)
	}

	var loaded int
	for _, entry := range file.Emails {
		timestamp := entry.Timestamp
		if timestamp == "" {
			timestamp = l.now().Format(time.RFC3339)
		}

		exists, err := l.store.EmailExists(ctx, entry.Sender, entry.Subject, timestamp)
		if err != nil {
			return loaded, err
		}
		if exists {
			l.logger.Debug("Email already exists", zap.String("subject", entry.Subject))
			continue
		}

		rawJSON, err := json.Marshal(entry)
		if err != nil {
			return loaded, fmt.Errorf("failed to re-encode email: %w", err)
		}

		if _, err := l.store.SaveEmail(ctx, &core.Email{
			Sender:    entry.Sender,
			Subject:   entry.Subject,
			Body:      entry.Body,
			Timestamp: timestamp,
			RawJSON:   string(rawJSON),
		}); err != nil {
			l.logger.Warn("Failed to insert email",
				zap.String("subject", entry.Subject),
				zap.Error(err))
			continue
		}
		loaded++
	}

	l.logger.Info("Loaded mock inbox",
		zap.String("path", path),
		zap.Int("loaded", loaded))
	return loaded, nil
}
