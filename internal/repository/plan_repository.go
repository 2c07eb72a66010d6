package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/leadpulse-id/outreach-service/internal/domain"
)

// PlanRepository serves the read-only plan/step/template catalog, including
// the plan-picker matching rule.
type PlanRepository struct {
	db *sqlx.DB
}

func NewPlanRepository(db *sqlx.DB) *PlanRepository {
	return &PlanRepository{db: db}
}

func (r *PlanRepository) GetPlan(ctx context.Context, id int64) (*domain.SequencePlan, error) {
	query := `
		SELECT id, name, product_id, source_id, status_code, is_active, created_at
		FROM sequence_plans
		WHERE id = ?
	`

	var plan domain.SequencePlan
	if err := r.db.GetContext(ctx, &plan, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get plan: %w", err)
	}

	return &plan, nil
}

// PickPlanForLead resolves the active plan whose match columns fit the lead.
// NULL columns match anything; among candidates the most specific wins
// (most non-NULL matching columns, then newest).
func (r *PlanRepository) PickPlanForLead(
	ctx context.Context,
	productID, sourceID *int64,
	statusCode string,
) (*domain.SequencePlan, error) {
	query := `
		SELECT id, name, product_id, source_id, status_code, is_active, created_at
		FROM sequence_plans
		WHERE is_active = 1
		  AND (product_id IS NULL OR product_id <=> ?)
		  AND (source_id IS NULL OR source_id <=> ?)
		  AND (status_code IS NULL OR status_code = ?)
		ORDER BY
			(product_id IS NOT NULL) + (source_id IS NOT NULL) + (status_code IS NOT NULL) DESC,
			id DESC
		LIMIT 1
	`

	var plan domain.SequencePlan
	if err := r.db.GetContext(ctx, &plan, query, productID, sourceID, statusCode); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to pick plan: %w", err)
	}

	return &plan, nil
}

// GetStep returns the step with the given order, or nil when the sequence has
// no such step (exhausted).
func (r *PlanRepository) GetStep(ctx context.Context, planID int64, order int) (*domain.SequenceStep, error) {
	query := `
		SELECT id, plan_id, step_order, delay_hours, template_id
		FROM sequence_steps
		WHERE plan_id = ? AND step_order = ?
	`

	var step domain.SequenceStep
	if err := r.db.GetContext(ctx, &step, query, planID, order); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get step: %w", err)
	}

	return &step, nil
}

// GetStepWithTemplate resolves a step together with its template. A missing
// template is not an error here; the caller treats it as a configuration gap.
func (r *PlanRepository) GetStepWithTemplate(
	ctx context.Context,
	planID int64,
	order int,
) (*domain.StepWithTemplate, error) {
	step, err := r.GetStep(ctx, planID, order)
	if err != nil {
		return nil, err
	}
	if step == nil {
		return nil, nil
	}

	result := &domain.StepWithTemplate{Step: *step}

	query := `
		SELECT id, title, body, media_url, is_active
		FROM message_templates
		WHERE id = ?
	`

	var tpl domain.MessageTemplate
	if err := r.db.GetContext(ctx, &tpl, query, step.TemplateID); err != nil {
		if err == sql.ErrNoRows {
			return result, nil
		}
		return nil, fmt.Errorf("failed to get template: %w", err)
	}

	result.Template = &tpl

	return result, nil
}

// GetFirstStepDelayHours is the catalog contract used at enrollment time.
func (r *PlanRepository) GetFirstStepDelayHours(ctx context.Context, planID int64) (*int, error) {
	step, err := r.GetStep(ctx, planID, 1)
	if err != nil {
		return nil, err
	}
	if step == nil {
		return nil, nil
	}

	return &step.DelayHours, nil
}
