package store

import (
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"
)

var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS emails (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		sender TEXT NOT NULL,
		subject TEXT NOT NULL,
		body TEXT NOT NULL DEFAULT '',
		timestamp TEXT NOT NULL DEFAULT '',
		category TEXT NOT NULL DEFAULT 'Uncategorized',
		is_processed BOOLEAN NOT NULL DEFAULT 0,
		raw_json TEXT,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE INDEX IF NOT EXISTS idx_emails_category ON emails(category)`,
	`CREATE INDEX IF NOT EXISTS idx_emails_processed ON emails(is_processed)`,
	`CREATE TABLE IF NOT EXISTS prompts (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		prompt_type TEXT NOT NULL,
		content TEXT NOT NULL,
		is_active BOOLEAN NOT NULL DEFAULT 1,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS action_items (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		email_id INTEGER NOT NULL,
		task TEXT NOT NULL,
		deadline TEXT,
		priority TEXT NOT NULL DEFAULT 'medium',
		is_completed BOOLEAN NOT NULL DEFAULT 0,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS drafts (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		email_id INTEGER,
		subject TEXT NOT NULL,
		body TEXT NOT NULL,
		metadata TEXT,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS processing_logs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		email_id INTEGER,
		operation_type TEXT NOT NULL,
		status TEXT NOT NULL,
		error_message TEXT,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	)`,
}

// NewSQLiteStore opens (creating if necessary) a SQLite-backed store
func NewSQLiteStore(dbPath string, logger *zap.Logger) (*Store, error) {
	if dir := filepath.Dir(dbPath); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create data directory: %w", err)
		}
	}

	return newStore("sqlite3", dbPath, sqliteSchema, logger)
}
