package database

import (
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/leadpulse-id/outreach-service/pkg/logger"
)

// SeedTestData loads a small demo dataset: two sales users, two products,
// one default plan with three steps, and a handful of leads. Inserts use
// INSERT IGNORE keyed on stable ids so reruns are harmless.
func SeedTestData(db *sqlx.DB) error {
	statements := []string{
		`INSERT IGNORE INTO sales_users (id, name, phone, wa_owner_id) VALUES
			(1, 'Dewi Lestari', '+6281200000001', 'wa-dewi'),
			(2, 'Bima Pratama', '+6281200000002', 'wa-bima')`,

		`INSERT IGNORE INTO products (id, name, price, catalog_url) VALUES
			(1, 'Paket CRM Starter', 1500000, 'https://leadpulse.id/catalog/starter'),
			(2, 'Paket CRM Business', 4500000, 'https://leadpulse.id/catalog/business')`,

		`INSERT IGNORE INTO message_templates (id, title, body, media_url, is_active) VALUES
			(1, 'Perkenalan', 'Halo {{nama_lead}}, saya {{nama_sales}} dari {{perusahaan}}. Terima kasih sudah tertarik dengan {{produk}}!', NULL, 1),
			(2, 'Follow up katalog', 'Halo {{nama_lead}}, sudah sempat lihat katalog {{produk}}? Link: {{link_produk}}', NULL, 1),
			(3, 'Penawaran terakhir', 'Halo {{nama_lead}}, ini {{nama_sales}}. Ada promo khusus untuk {{produk}} minggu ini. Hubungi saya di {{telepon_sales}} ya!', NULL, 1)`,

		`INSERT IGNORE INTO sequence_plans (id, name, product_id, source_id, status_code, is_active) VALUES
			(1, 'Default nurture', NULL, NULL, NULL, 1)`,

		`INSERT IGNORE INTO sequence_steps (id, plan_id, step_order, delay_hours, template_id) VALUES
			(1, 1, 1, 0, 1),
			(2, 1, 2, 48, 2),
			(3, 1, 3, 96, 3)`,

		`INSERT IGNORE INTO leads (id, name, phone, company, product_id, source_id, status_code, sales_user_id) VALUES
			(1, 'Rina Wijaya', '+6281300000001', 'PT Maju Jaya', 1, NULL, 'new', 1),
			(2, 'Agus Santoso', '+6281300000002', 'CV Sumber Rejeki', 2, NULL, 'new', 2),
			(3, 'Sari Handayani', NULL, 'Toko Sari', 1, NULL, 'new', 1)`,

		`INSERT IGNORE INTO app_settings (setting_key, setting_value) VALUES
			('auto_nurture_enabled', 'true'),
			('idle_threshold_hours', '48'),
			('nurture_batch_size', '50'),
			('company_name', 'LeadPulse')`,
	}

	for _, stmt := range statements {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("failed to seed test data: %w", err)
		}
	}

	logger.Infof("Test data seeded")

	return nil
}
