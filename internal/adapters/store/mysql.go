package store

import (
	_ "github.com/go-sql-driver/mysql"
	"go.uber.org/zap"
)

var mysqlSchema = []string{
	`CREATE TABLE IF NOT EXISTS emails (
		id BIGINT AUTO_INCREMENT PRIMARY KEY,
		sender VARCHAR(320) NOT NULL,
		subject TEXT NOT NULL,
		body MEDIUMTEXT NOT NULL,
		timestamp VARCHAR(64) NOT NULL DEFAULT '',
		category VARCHAR(64) NOT NULL DEFAULT 'Uncategorized',
		is_processed TINYINT(1) NOT NULL DEFAULT 0,
		raw_json MEDIUMTEXT,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		INDEX idx_emails_category (category),
		INDEX idx_emails_processed (is_processed)
	)`,
	`CREATE TABLE IF NOT EXISTS prompts (
		id BIGINT AUTO_INCREMENT PRIMARY KEY,
		name VARCHAR(255) NOT NULL,
		prompt_type VARCHAR(64) NOT NULL,
		content TEXT NOT NULL,
		is_active TINYINT(1) NOT NULL DEFAULT 1,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS action_items (
		id BIGINT AUTO_INCREMENT PRIMARY KEY,
		email_id BIGINT NOT NULL,
		task TEXT NOT NULL,
		deadline VARCHAR(255),
		priority VARCHAR(16) NOT NULL DEFAULT 'medium',
		is_completed TINYINT(1) NOT NULL DEFAULT 0,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS drafts (
		id BIGINT AUTO_INCREMENT PRIMARY KEY,
		email_id BIGINT,
		subject TEXT NOT NULL,
		body MEDIUMTEXT NOT NULL,
		metadata TEXT,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS processing_logs (
		id BIGINT AUTO_INCREMENT PRIMARY KEY,
		email_id BIGINT,
		operation_type VARCHAR(64) NOT NULL,
		status VARCHAR(32) NOT NULL,
		error_message TEXT,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	)`,
}

// NewMySQLStore opens a MySQL-backed store. The DSN should include
// parseTime=true so timestamp columns scan into time.Time.
func NewMySQLStore(dsn string, logger *zap.Logger) (*Store, error) {
	return newStore("mysql", dsn, mysqlSchema, logger)
}
