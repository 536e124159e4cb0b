package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// SettingsID is the primary key of the single settings row.
const SettingsID = 1

// Settings is a singleton row holding the report configuration. TaxRate and
// ExpenseRate are fractions of revenue (0.05 = 5%). A missing row is not an
// error: reports fall back to zero rates.
type Settings struct {
	ID                 uint            `gorm:"primaryKey" json:"-"`
	TaxRate            decimal.Decimal `gorm:"type:decimal(10,4);not null;default:0" json:"tax_rate"`
	ExpenseRate        decimal.Decimal `gorm:"type:decimal(10,4);not null;default:0" json:"expense_rate"`
	AllowNegativeStock bool            `gorm:"not null;default:false" json:"allow_negative_stock"`
	UpdatedAt          time.Time       `json:"updated_at"`
}
