package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Settings is a single-row table (id = 1) holding store-wide configuration.
type Settings struct {
	ID                   uint            `gorm:"primaryKey"`
	CompanyName          string          `gorm:"size:200"`
	CompanyPhone         string          `gorm:"size:30"`
	CompanyAddress       string          `gorm:"size:300"`
	OpeningBalance       decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	TaxRate              decimal.Decimal `gorm:"type:decimal(5,2);not null"` // VAT percent
	NextInvoiceNumber    uint            `gorm:"not null;default:1"`
	PreventNegativeStock bool            `gorm:"not null;default:false"`
	AutoPrint            bool            `gorm:"not null;default:false"`
	InvoiceTerms         string          `gorm:"size:500"`
	UpdatedAt            time.Time
}
