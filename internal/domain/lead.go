package domain

import "time"

// Lead is the sales lead being nurtured. Master-data CRUD for leads lives in
// the main CRM; this service only reads them.
type Lead struct {
	ID          int64      `db:"id" json:"id"`
	Name        string     `db:"name" json:"name"`
	Phone       *string    `db:"phone" json:"phone,omitempty"`
	Company     string     `db:"company" json:"company"`
	ProductID   *int64     `db:"product_id" json:"productId,omitempty"`
	SourceID    *int64     `db:"source_id" json:"sourceId,omitempty"`
	StatusCode  string     `db:"status_code" json:"statusCode"`
	SalesUserID *int64     `db:"sales_user_id" json:"salesUserId,omitempty"`
	CreatedAt   time.Time  `db:"created_at" json:"createdAt"`
	UpdatedAt   time.Time  `db:"updated_at" json:"updatedAt"`
}

// SalesUser owns leads and the WhatsApp session messages go out on.
type SalesUser struct {
	ID        int64  `db:"id" json:"id"`
	Name      string `db:"name" json:"name"`
	Phone     string `db:"phone" json:"phone"`
	WAOwnerID string `db:"wa_owner_id" json:"waOwnerId"`
}

type Product struct {
	ID         int64  `db:"id" json:"id"`
	Name       string `db:"name" json:"name"`
	Price      int64  `db:"price" json:"price"`
	CatalogURL string `db:"catalog_url" json:"catalogUrl"`
}
