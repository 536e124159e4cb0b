package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// StockAdjustment is one append-only ledger event for a product. Rows are
// never updated or deleted once recorded. QuantityAfter and CostAfter
// snapshot the derived product state right after the event, so the cost
// basis "as of" any timestamp is a single indexed lookup instead of a
// replay of the full log.
type StockAdjustment struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ProductID uuid.UUID `gorm:"type:uuid;not null;index" json:"product_id"`
	Product   Product   `gorm:"foreignKey:ProductID" json:"-"`

	Delta    int              `gorm:"type:int;not null" json:"delta"`          // positive = stock in, negative = stock out
	UnitCost *decimal.Decimal `gorm:"type:decimal(18,6)" json:"unit_cost"`     // required for stock-in events
	Note     string           `gorm:"type:text" json:"note"`
	OccurredAt time.Time      `gorm:"not null;index" json:"occurred_at"`

	QuantityAfter int             `gorm:"type:int;not null" json:"quantity_after"`
	CostAfter     decimal.Decimal `gorm:"type:decimal(18,6);not null" json:"cost_after"`
	Overdrawn     bool            `gorm:"not null;default:false" json:"overdrawn"` // quantity went negative under the allow-negative override

	CreatedAt time.Time `json:"created_at"`
}

func (a *StockAdjustment) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	if a.OccurredAt.IsZero() {
		a.OccurredAt = time.Now()
	}
	return nil
}
