package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/leadpulse-id/outreach-service/internal/domain"
)

// LeadRepository reads lead master data. Leads are owned by the main CRM;
// this service never writes them.
type LeadRepository struct {
	db *sqlx.DB
}

func NewLeadRepository(db *sqlx.DB) *LeadRepository {
	return &LeadRepository{db: db}
}

func (r *LeadRepository) GetByID(ctx context.Context, id int64) (*domain.Lead, error) {
	query := `
		SELECT id, name, phone, company, product_id, source_id, status_code, sales_user_id, created_at, updated_at
		FROM leads
		WHERE id = ?
	`

	var lead domain.Lead
	if err := r.db.GetContext(ctx, &lead, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get lead: %w", err)
	}

	return &lead, nil
}

func (r *LeadRepository) GetSalesUser(ctx context.Context, id int64) (*domain.SalesUser, error) {
	query := `
		SELECT id, name, phone, wa_owner_id
		FROM sales_users
		WHERE id = ?
	`

	var user domain.SalesUser
	if err := r.db.GetContext(ctx, &user, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get sales user: %w", err)
	}

	return &user, nil
}

func (r *LeadRepository) GetProduct(ctx context.Context, id int64) (*domain.Product, error) {
	query := `
		SELECT id, name, price, catalog_url
		FROM products
		WHERE id = ?
	`

	var product domain.Product
	if err := r.db.GetContext(ctx, &product, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get product: %w", err)
	}

	return &product, nil
}

// CountExisting returns how many of the given lead ids actually exist, so job
// submission can reject unknown recipients before creating anything.
func (r *LeadRepository) CountExisting(ctx context.Context, ids []int64) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	query, args, err := sqlx.In("SELECT COUNT(*) FROM leads WHERE id IN (?)", ids)
	if err != nil {
		return 0, fmt.Errorf("failed to build lead count query: %w", err)
	}

	var count int
	if err := r.db.GetContext(ctx, &count, r.db.Rebind(query), args...); err != nil {
		return 0, fmt.Errorf("failed to count leads: %w", err)
	}

	return count, nil
}
