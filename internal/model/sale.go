package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// SaleSource constants
const (
	SaleSourceManual   = "manual"
	SaleSourceImported = "imported"
)

// MatchStatus constants
const (
	MatchStatusMatched   = "matched"
	MatchStatusUnmatched = "unmatched"
	MatchStatusAmbiguous = "ambiguous"
)

// Match confidence constants
const (
	ConfidenceExactSKU   = "exact-sku"
	ConfidenceExactTitle = "exact-title"
	ConfidenceAmbiguous  = "ambiguous"
	ConfidenceUnmatched  = "unmatched"
	ConfidenceManual     = "manual"
)

// Sale is a single sales record, entered manually or pulled in from a
// marketplace spreadsheet. Immutable once written, except that ProductID may
// be set exactly once when an unresolved imported row is matched.
type Sale struct {
	ID        uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	ProductID *uuid.UUID `gorm:"type:uuid;index" json:"product_id"` // nil until matched
	Product   *Product   `gorm:"foreignKey:ProductID" json:"product,omitempty"`

	Quantity  int             `gorm:"type:int;not null" json:"quantity"`
	UnitPrice decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"unit_price"`
	Source    string          `gorm:"type:varchar(20);not null" json:"source"` // manual, imported
	SoldAt    time.Time       `gorm:"not null;index" json:"sold_at"`

	// External marketplace fields, populated for imported rows only.
	ExternalRef   string `gorm:"type:varchar(100);index" json:"external_ref"`
	ExternalSKU   string `gorm:"type:varchar(100)" json:"external_sku"`
	ExternalTitle string `gorm:"type:varchar(255)" json:"external_title"`

	MatchStatus     string `gorm:"type:varchar(20);not null;index" json:"match_status"`
	MatchConfidence string `gorm:"type:varchar(20);not null" json:"match_confidence"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (s *Sale) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	if s.SoldAt.IsZero() {
		s.SoldAt = time.Now()
	}
	return nil
}
