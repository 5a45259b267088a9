// Package store implements the relational repository behind the assistant:
// emails, prompts, action items, drafts and processing logs. Two backends
// are supported, SQLite (default) and MySQL, sharing the same queries.
package store

import (
	"context"
	"database/sql"
	"fmt"

	"go.uber.org/zap"

	"github.com/ishaanpearpie/email-productivity-agent/internal/core"
)

// Store is a database/sql implementation of core.EmailRepository
type Store struct {
	db     *sql.DB
	logger *zap.Logger
}

func newStore(driver, dsn string, schema []string, logger *zap.Logger) (*Store, error) {
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s database: %w", driver, err)
	}

	if driver == "sqlite3" {
		// SQLite is single-writer, and an in-memory database exists per
		// connection, so the pool must stay at one.
		db.SetMaxOpenConns(1)
	}

	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to apply schema: %w", err)
		}
	}

	return &Store{db: db, logger: logger}, nil
}

// Close closes the underlying database connection
func (s *Store) Close() error {
	return s.db.Close()
}

// DB exposes the underlying handle, mainly for tests
func (s *Store) DB() *sql.DB {
	return s.db
}

// SaveEmail stores an email and returns its assigned ID
func (s *Store) SaveEmail(ctx context.Context, email *core.Email) (int64, error) {
	category := email.Category
	if category == "" {
		category = core.CategoryUncategorized
	}

	result, err := s.db.ExecContext(ctx, `
		INSERT INTO emails (sender, subject, body, timestamp, category, is_processed, raw_json)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, email.Sender, email.Subject, email.Body, email.Timestamp, category, email.IsProcessed, email.RawJSON)
	if err != nil {
		return 0, fmt.Errorf("failed to insert email: %w", err)
	}

	return result.LastInsertId()
}

// EmailExists reports whether an email with the same sender, subject and
// timestamp is already stored. Used for duplicate suppression on load.
func (s *Store) EmailExists(ctx context.Context, sender, subject, timestamp string) (bool, error) {
	var id int64
	err := s.db.QueryRowContext(ctx, `
		SELECT id FROM emails
		WHERE sender = ? AND subject = ? AND timestamp = ?
	`, sender, subject, timestamp).Scan(&id)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to query email: %w", err)
	}
	return true, nil
}

// CountEmails returns the number of stored emails
func (s *Store) CountEmails(ctx context.Context) (int, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM emails`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count emails: %w", err)
	}
	return count, nil
}

// GetEmails returns emails matching the filter, newest first
func (s *Store) GetEmails(ctx context.Context, filter core.EmailFilter) ([]*core.Email, error) {
	query := `
		SELECT id, sender, subject, body, timestamp, category, is_processed, COALESCE(raw_json, '')
		FROM emails WHERE 1=1`
	var args []interface{}

	if filter.Category != "" {
		query += " AND category = ?"
		args = append(args, filter.Category)
	}
	if filter.Processed != nil {
		query += " AND is_processed = ?"
		args = append(args, *filter.Processed)
	}

	query += " ORDER BY timestamp DESC"

	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query emails: %w", err)
	}
	defer rows.Close()

	var emails []*core.Email
	for rows.Next() {
		var email core.Email
		if err := rows.Scan(&email.ID, &email.Sender, &email.Subject, &email.Body,
			&email.Timestamp, &email.Category, &email.IsProcessed, &email.RawJSON); err != nil {
			return nil, fmt.Errorf("failed to scan email: %w", err)
		}
		emails = append(emails, &email)
	}

	return emails, rows.Err()
}

// GetEmailByID returns a single email or core.ErrNotFound
func (s *Store) GetEmailByID(ctx context.Context, id int64) (*core.Email, error) {
	var email core.Email
	err := s.db.QueryRowContext(ctx, `
		SELECT id, sender, subject, body, timestamp, category, is_processed, COALESCE(raw_json, '')
		FROM emails WHERE id = ?
	`, id).Scan(&email.ID, &email.Sender, &email.Subject, &email.Body,
		&email.Timestamp, &email.Category, &email.IsProcessed, &email.RawJSON)
	if err == sql.ErrNoRows {
		return nil, core.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query email: %w", err)
	}
	return &email, nil
}

// UpdateEmailCategory sets the category and marks the email processed
func (s *Store) UpdateEmailCategory(ctx context.Context, id int64, category string) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE emails SET category = ?, is_processed = ? WHERE id = ?
	`, category, true, id)
	if err != nil {
		return fmt.Errorf("failed to update email category: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if affected == 0 {
		return core.ErrNotFound
	}

	s.logger.Debug("Updated email category",
		zap.Int64("email_id", id),
		zap.String("category", category))
	return nil
}

// ResetProcessed clears the processed flag for one email (id > 0) or all
func (s *Store) ResetProcessed(ctx context.Context, id int64) (int64, error) {
	var result sql.Result
	var err error
	if id > 0 {
		result, err = s.db.ExecContext(ctx, `UPDATE emails SET is_processed = ? WHERE id = ?`, false, id)
	} else {
		result, err = s.db.ExecContext(ctx, `UPDATE emails SET is_processed = ?`, false)
	}
	if err != nil {
		return 0, fmt.Errorf("failed to reset processed flag: %w", err)
	}
	return result.RowsAffected()
}

// SaveActionItem stores an extracted action item
func (s *Store) SaveActionItem(ctx context.Context, item *core.ActionItem) (int64, error) {
	priority := item.Priority
	if priority == "" {
		priority = core.PriorityMedium
	}

	var deadline interface{}
	if item.Deadline != "" {
		deadline = item.Deadline
	}

	result, err := s.db.ExecContext(ctx, `
		INSERT INTO action_items (email_id, task, deadline, priority, is_completed)
		VALUES (?, ?, ?, ?, ?)
	`, item.EmailID, item.Task, deadline, priority, item.IsCompleted)
	if err != nil {
		return 0, fmt.Errorf("failed to insert action item: %w", err)
	}

	return result.LastInsertId()
}

// GetActionItems returns action items ordered by priority then deadline
func (s *Store) GetActionItems(ctx context.Context, filter core.ActionItemFilter) ([]*core.ActionItem, error) {
	query := `
		SELECT id, email_id, task, COALESCE(deadline, ''), priority, is_completed
		FROM action_items WHERE 1=1`
	var args []interface{}

	if filter.EmailID > 0 {
		query += " AND email_id = ?"
		args = append(args, filter.EmailID)
	}
	if filter.Completed != nil {
		query += " AND is_completed = ?"
		args = append(args, *filter.Completed)
	}

	query += `
		ORDER BY
			CASE priority
				WHEN 'high' THEN 1
				WHEN 'medium' THEN 2
				WHEN 'low' THEN 3
			END,
			deadline ASC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query action items: %w", err)
	}
	defer rows.Close()

	var items []*core.ActionItem
	for rows.Next() {
		var item core.ActionItem
		if err := rows.Scan(&item.ID, &item.EmailID, &item.Task,
			&item.Deadline, &item.Priority, &item.IsCompleted); err != nil {
			return nil, fmt.Errorf("failed to scan action item: %w", err)
		}
		items = append(items, &item)
	}

	return items, rows.Err()
}

// CompleteActionItem marks an action item as done
func (s *Store) CompleteActionItem(ctx context.Context, id int64) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE action_items SET is_completed = ? WHERE id = ?
	`, true, id)
	if err != nil {
		return fmt.Errorf("failed to complete action item: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if affected == 0 {
		return core.ErrNotFound
	}
	return nil
}

// SaveDraft stores a draft and returns its assigned ID
func (s *Store) SaveDraft(ctx context.Context, draft *core.Draft) (int64, error) {
	var emailID interface{}
	if draft.EmailID > 0 {
		emailID = draft.EmailID
	}

	result, err := s.db.ExecContext(ctx, `
		INSERT INTO drafts (email_id, subject, body, metadata)
		VALUES (?, ?, ?, ?)
	`, emailID, draft.Subject, draft.Body, draft.Metadata)
	if err != nil {
		return 0, fmt.Errorf("failed to insert draft: %w", err)
	}

	return result.LastInsertId()
}

// GetDrafts returns all drafts, most recently updated first
func (s *Store) GetDrafts(ctx context.Context) ([]*core.Draft, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, COALESCE(email_id, 0), subject, body, COALESCE(metadata, ''), updated_at
		FROM drafts ORDER BY updated_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query drafts: %w", err)
	}
	defer rows.Close()

	var drafts []*core.Draft
	for rows.Next() {
		var draft core.Draft
		if err := rows.Scan(&draft.ID, &draft.EmailID, &draft.Subject,
			&draft.Body, &draft.Metadata, &draft.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan draft: %w", err)
		}
		drafts = append(drafts, &draft)
	}

	return drafts, rows.Err()
}

// GetDraftByID returns a single draft or core.ErrNotFound
func (s *Store) GetDraftByID(ctx context.Context, id int64) (*core.Draft, error) {
	var draft core.Draft
	err := s.db.QueryRowContext(ctx, `
		SELECT id, COALESCE(email_id, 0), subject, body, COALESCE(metadata, ''), updated_at
		FROM drafts WHERE id = ?
	`, id).Scan(&draft.ID, &draft.EmailID, &draft.Subject,
		&draft.Body, &draft.Metadata, &draft.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, core.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query draft: %w", err)
	}
	return &draft, nil
}

// UpdateDraft replaces a draft's subject and body
func (s *Store) UpdateDraft(ctx context.Context, id int64, subject, body string) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE drafts SET subject = ?, body = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?
	`, subject, body, id)
	if err != nil {
		return fmt.Errorf("failed to update draft: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if affected == 0 {
		return core.ErrNotFound
	}
	return nil
}

// DeleteDraft removes a draft
func (s *Store) DeleteDraft(ctx context.Context, id int64) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM drafts WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete draft: %w", err)
	}
	return nil
}

// SavePrompt stores a prompt template
func (s *Store) SavePrompt(ctx context.Context, prompt *core.Prompt) (int64, error) {
	result, err := s.db.ExecContext(ctx, `
		INSERT INTO prompts (name, prompt_type, content, is_active)
		VALUES (?, ?, ?, ?)
	`, prompt.Name, prompt.Type, prompt.Content, true)
	if err != nil {
		return 0, fmt.Errorf("failed to insert prompt: %w", err)
	}
	return result.LastInsertId()
}

// GetPrompts returns active prompts, optionally filtered by type
func (s *Store) GetPrompts(ctx context.Context, promptType string) ([]*core.Prompt, error) {
	query := `
		SELECT id, name, prompt_type, content, is_active, updated_at
		FROM prompts WHERE is_active = ?`
	args := []interface{}{true}

	if promptType != "" {
		query += " AND prompt_type = ?"
		args = append(args, promptType)
	}

	query += " ORDER BY updated_at DESC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query prompts: %w", err)
	}
	defer rows.Close()

	var prompts []*core.Prompt
	for rows.Next() {
		var prompt core.Prompt
		if err := rows.Scan(&prompt.ID, &prompt.Name, &prompt.Type,
			&prompt.Content, &prompt.IsActive, &prompt.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan prompt: %w", err)
		}
		prompts = append(prompts, &prompt)
	}

	return prompts, rows.Err()
}

// GetPromptByType returns the most recently updated active prompt of a type
func (s *Store) GetPromptByType(ctx context.Context, promptType string) (*core.Prompt, error) {
	var prompt core.Prompt
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, prompt_type, content, is_active, updated_at
		FROM prompts
		WHERE prompt_type = ? AND is_active = ?
		ORDER BY updated_at DESC
		LIMIT 1
	`, promptType, true).Scan(&prompt.ID, &prompt.Name, &prompt.Type,
		&prompt.Content, &prompt.IsActive, &prompt.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, core.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query prompt: %w", err)
	}
	return &prompt, nil
}

// UpdatePrompt replaces a prompt's content (and name when non-empty)
func (s *Store) UpdatePrompt(ctx context.Context, id int64, content, name string) error {
	var err error
	if name != "" {
		_, err = s.db.ExecContext(ctx, `
			UPDATE prompts SET content = ?, name = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?
		`, content, name, id)
	} else {
		_, err = s.db.ExecContext(ctx, `
			UPDATE prompts SET content = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?
		`, content, id)
	}
	if err != nil {
		return fmt.Errorf("failed to update prompt: %w", err)
	}
	return nil
}

// DeactivatePrompt soft-deletes a prompt
func (s *Store) DeactivatePrompt(ctx context.Context, id int64) error {
	if _, err := s.db.ExecContext(ctx, `UPDATE prompts SET is_active = ? WHERE id = ?`, false, id); err != nil {
		return fmt.Errorf("failed to deactivate prompt: %w", err)
	}
	return nil
}

// LogProcessing records the outcome of a processing operation
func (s *Store) LogProcessing(ctx context.Context, entry *core.ProcessingLog) error {
	var emailID interface{}
	if entry.EmailID > 0 {
		emailID = entry.EmailID
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO processing_logs (email_id, operation_type, status, error_message)
		VALUES (?, ?, ?, ?)
	`, emailID, entry.OperationType, entry.Status, entry.ErrorMessage)
	if err != nil {
		return fmt.Errorf("failed to insert processing log: %w", err)
	}
	return nil
}

// GetStats returns aggregate inbox statistics
func (s *Store) GetStats(ctx context.Context) (*core.InboxStats, error) {
	stats := &core.InboxStats{CategoryCounts: make(map[string]int)}

	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM emails`).Scan(&stats.TotalEmails); err != nil {
		return nil, fmt.Errorf("failed to count emails: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, `SELECT category, COUNT(*) FROM emails GROUP BY category`)
	if err != nil {
		return nil, fmt.Errorf("failed to count categories: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var category string
		var count int
		if err := rows.Scan(&category, &count); err != nil {
			return nil, fmt.Errorf("failed to scan category count: %w", err)
		}
		stats.CategoryCounts[category] = count
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM action_items WHERE is_completed = ?
	`, false).Scan(&stats.PendingActions); err != nil {
		return nil, fmt.Errorf("failed to count pending actions: %w", err)
	}

	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM drafts`).Scan(&stats.TotalDrafts); err != nil {
		return nil, fmt.Errorf("failed to count drafts: %w", err)
	}

	return stats, nil
}
