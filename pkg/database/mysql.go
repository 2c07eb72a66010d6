package database

import (
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"

	"github.com/leadpulse-id/outreach-service/environments"
	"github.com/leadpulse-id/outreach-service/pkg/logger"
)

func NewMySQLDB(cfg environments.DatabaseConfig) (*sqlx.DB, error) {
	dsn := fmt.Sprintf(
		"%s:%s@tcp(%s:%s)/%s?parseTime=true&charset=utf8mb4&collation=utf8mb4_unicode_ci",
		cfg.User, cfg.Password, cfg.Host, cfg.Port, cfg.DBName,
	)

	db, err := sqlx.Connect("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logger.Infof("Connected to MySQL database")
	return db, nil
}

// RunMigrations creates the schema. Statements are idempotent so the service
// can run them on every boot.
func RunMigrations(db *sqlx.DB) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS leads (
			id BIGINT AUTO_INCREMENT PRIMARY KEY,
			name VARCHAR(255) NOT NULL,
			phone VARCHAR(32),
			company VARCHAR(255) NOT NULL DEFAULT '',
			product_id BIGINT,
			source_id BIGINT,
			status_code VARCHAR(32) NOT NULL DEFAULT 'new',
			sales_user_id BIGINT,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
			INDEX idx_leads_sales_user (sales_user_id),
			INDEX idx_leads_status (status_code)
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci`,

		`CREATE TABLE IF NOT EXISTS sales_users (
			id BIGINT AUTO_INCREMENT PRIMARY KEY,
			name VARCHAR(255) NOT NULL,
			phone VARCHAR(32) NOT NULL DEFAULT '',
			wa_owner_id VARCHAR(64) NOT NULL,
			UNIQUE KEY uq_sales_users_owner (wa_owner_id)
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci`,

		`CREATE TABLE IF NOT EXISTS products (
			id BIGINT AUTO_INCREMENT PRIMARY KEY,
			name VARCHAR(255) NOT NULL,
			price BIGINT NOT NULL DEFAULT 0,
			catalog_url VARCHAR(512) NOT NULL DEFAULT ''
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci`,

		`CREATE TABLE IF NOT EXISTS sequence_plans (
			id BIGINT AUTO_INCREMENT PRIMARY KEY,
			name VARCHAR(255) NOT NULL,
			product_id BIGINT,
			source_id BIGINT,
			status_code VARCHAR(32),
			is_active TINYINT(1) NOT NULL DEFAULT 1,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci`,

		`CREATE TABLE IF NOT EXISTS sequence_steps (
			id BIGINT AUTO_INCREMENT PRIMARY KEY,
			plan_id BIGINT NOT NULL,
			step_order INT NOT NULL,
			delay_hours INT NOT NULL DEFAULT 0,
			template_id BIGINT NOT NULL,
			UNIQUE KEY uq_sequence_steps_order (plan_id, step_order)
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci`,

		`CREATE TABLE IF NOT EXISTS message_templates (
			id BIGINT AUTO_INCREMENT PRIMARY KEY,
			title VARCHAR(255) NOT NULL,
			body TEXT NOT NULL,
			media_url VARCHAR(512),
			is_active TINYINT(1) NOT NULL DEFAULT 1
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci`,

		`CREATE TABLE IF NOT EXISTS lead_engagement_states (
			id BIGINT AUTO_INCREMENT PRIMARY KEY,
			lead_id BIGINT NOT NULL,
			status VARCHAR(16) NOT NULL DEFAULT 'active',
			plan_id BIGINT,
			current_step_index INT NOT NULL DEFAULT 0,
			started_at DATETIME,
			last_sent_at DATETIME,
			paused_at DATETIME,
			pause_reason VARCHAR(32),
			manual_paused TINYINT(1) NOT NULL DEFAULT 0,
			next_send_at DATETIME,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
			UNIQUE KEY uq_engagement_lead (lead_id),
			INDEX idx_engagement_status (status)
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci`,

		`CREATE TABLE IF NOT EXISTS messages (
			id BIGINT AUTO_INCREMENT PRIMARY KEY,
			lead_id BIGINT NOT NULL,
			direction VARCHAR(16) NOT NULL,
			channel VARCHAR(16) NOT NULL DEFAULT 'whatsapp',
			content TEXT NOT NULL,
			external_message_id VARCHAR(128),
			delivery_status VARCHAR(16) NOT NULL DEFAULT 'pending',
			dedup_key VARCHAR(64),
			is_automated TINYINT(1) NOT NULL DEFAULT 0,
			sent_at DATETIME,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
			INDEX idx_messages_lead (lead_id, direction, created_at),
			INDEX idx_messages_dedup (dedup_key)
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci`,

		`CREATE TABLE IF NOT EXISTS follow_ups (
			id BIGINT AUTO_INCREMENT PRIMARY KEY,
			lead_id BIGINT NOT NULL,
			note TEXT NOT NULL,
			is_automated TINYINT(1) NOT NULL DEFAULT 0,
			is_done TINYINT(1) NOT NULL DEFAULT 0,
			created_by VARCHAR(128) NOT NULL DEFAULT '',
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			INDEX idx_follow_ups_lead (lead_id, created_at)
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci`,

		`CREATE TABLE IF NOT EXISTS blast_jobs (
			id BIGINT AUTO_INCREMENT PRIMARY KEY,
			public_id VARCHAR(36) NOT NULL,
			message TEXT NOT NULL,
			created_by VARCHAR(128) NOT NULL DEFAULT '',
			status VARCHAR(16) NOT NULL DEFAULT 'pending',
			success_count INT NOT NULL DEFAULT 0,
			failed_count INT NOT NULL DEFAULT 0,
			total_items INT NOT NULL DEFAULT 0,
			started_at DATETIME,
			finished_at DATETIME,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
			UNIQUE KEY uq_blast_jobs_public (public_id),
			INDEX idx_blast_jobs_status (status, created_at)
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci`,

		`CREATE TABLE IF NOT EXISTS blast_items (
			id BIGINT AUTO_INCREMENT PRIMARY KEY,
			job_id BIGINT NOT NULL,
			lead_id BIGINT NOT NULL,
			status VARCHAR(16) NOT NULL DEFAULT 'pending',
			error TEXT,
			message_id BIGINT,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			INDEX idx_blast_items_job (job_id, status, id)
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci`,

		`CREATE TABLE IF NOT EXISTS app_settings (
			setting_key VARCHAR(64) PRIMARY KEY,
			setting_value VARCHAR(255) NOT NULL
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci`,
	}

	for _, stmt := range statements {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}
	}

	logger.Infof("Database migrations completed")

	return nil
}
