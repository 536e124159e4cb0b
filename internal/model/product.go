package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Product represents a catalog item. CostBasis and Quantity are derived
// fields: they are mutated only by replaying or applying stock adjustments,
// never written directly by catalog CRUD.
type Product struct {
	ID        uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	SKU       *string         `gorm:"type:varchar(100);uniqueIndex" json:"sku"` // optional, unique when present
	Title     string          `gorm:"type:varchar(255);not null" json:"title"`
	Price     decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"price"`
	CostBasis decimal.Decimal `gorm:"type:decimal(18,6);not null;default:0" json:"cost_basis"`
	Quantity  int             `gorm:"type:int;not null;default:0" json:"quantity"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
	DeletedAt gorm.DeletedAt  `gorm:"index" json:"-"` // soft removal only; sales keep referencing removed products
}

func (p *Product) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}
