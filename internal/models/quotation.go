package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type QuotationStatus string

const (
	QuotationDraft     QuotationStatus = "draft"
	QuotationPending   QuotationStatus = "pending"
	QuotationConverted QuotationStatus = "converted"
)

type Quotation struct {
	ID           uint            `gorm:"primaryKey"`
	Number       string          `gorm:"size:30;uniqueIndex;not null"`
	Date         time.Time       `gorm:"not null"`
	CustomerID   uint            `gorm:"index;not null"`
	CustomerName string          `gorm:"size:200;not null"`
	TotalAmount  decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Status       QuotationStatus `gorm:"size:20;not null;default:'pending'"`

	// Transaction created when the quotation was converted to a sale.
	SaleTransactionID *uint

	Items []QuotationItem `gorm:"foreignKey:QuotationID;constraint:OnDelete:CASCADE"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

type QuotationItem struct {
	ID          uint            `gorm:"primaryKey"`
	QuotationID uint            `gorm:"index;not null"`
	ProductID   uint            `gorm:"index;not null"`
	ProductName string          `gorm:"size:200;not null"`
	Quantity    decimal.Decimal `gorm:"type:decimal(12,3);not null"`
	UnitPrice   decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Discount    decimal.Decimal `gorm:"type:decimal(5,2);not null;default:0"`
	CreatedAt   time.Time
}
