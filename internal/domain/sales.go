package domain

import (
	"time"

	"github.com/google/uuid"
)

// Well-known sales document keys. Sales records attach to games by title.
const (
	SalesFieldTitle    = "title"
	SalesFieldPlatform = "platform"
	SalesFieldRegion   = "region"
	SalesFieldUnits    = "units"
	SalesFieldRevenue  = "revenue"
	SalesFieldPrice    = "price"
	SalesFieldDate     = "sale_date"
)

// SalesRecord is one sales summary row tied to a game.
type SalesRecord struct {
	ID        uuid.UUID `json:"id"`
	Doc       Document  `json:"properties"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewSalesRecord builds a record around a copied document.
func NewSalesRecord(doc Document) SalesRecord {
	now := time.Now()
	return SalesRecord{
		ID:        uuid.New(),
		Doc:       doc.Copy(),
		CreatedAt: now,
		UpdatedAt: now,
	}
}
