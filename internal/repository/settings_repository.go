package repository

import (
	"context"
	"fmt"
	"strconv"

	"github.com/jmoiron/sqlx"

	"github.com/leadpulse-id/outreach-service/internal/domain"
)

// SettingsRepository reads the app_settings key/value rows. Unknown or
// malformed values fall back to defaults rather than failing a tick.
type SettingsRepository struct {
	db *sqlx.DB
}

func NewSettingsRepository(db *sqlx.DB) *SettingsRepository {
	return &SettingsRepository{db: db}
}

const (
	keyAutoNurtureEnabled = "auto_nurture_enabled"
	keyIdleThresholdHours = "idle_threshold_hours"
	keyNurtureBatchSize   = "nurture_batch_size"
	keyCompanyName        = "company_name"
)

func (r *SettingsRepository) Get(ctx context.Context) (*domain.Settings, error) {
	rows := []struct {
		Key   string `db:"setting_key"`
		Value string `db:"setting_value"`
	}{}

	if err := r.db.SelectContext(ctx, &rows, "SELECT setting_key, setting_value FROM app_settings"); err != nil {
		return nil, fmt.Errorf("failed to load settings: %w", err)
	}

	settings := &domain.Settings{
		AutoNurtureEnabled: true,
		IdleThresholdHours: domain.DefaultIdleThresholdHours,
		NurtureBatchSize:   domain.DefaultNurtureBatchSize,
	}

	for _, row := range rows {
		switch row.Key {
		case keyAutoNurtureEnabled:
			if v, err := strconv.ParseBool(row.Value); err == nil {
				settings.AutoNurtureEnabled = v
			}
		case keyIdleThresholdHours:
			if v, err := strconv.Atoi(row.Value); err == nil && v > 0 {
				settings.IdleThresholdHours = v
			}
		case keyNurtureBatchSize:
			if v, err := strconv.Atoi(row.Value); err == nil && v > 0 {
				settings.NurtureBatchSize = v
			}
		case keyCompanyName:
			settings.CompanyName = row.Value
		}
	}

	return settings, nil
}
