package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type Product struct {
	ID            uint            `gorm:"primaryKey"`
	SKU           string          `gorm:"size:50;uniqueIndex;not null"`
	Name          string          `gorm:"size:200;not null"`
	Category      string          `gorm:"size:100;index"`
	Unit          string          `gorm:"size:30;not null;default:'piece'"`
	Quantity      decimal.Decimal `gorm:"type:decimal(12,3);not null"`
	CostPrice     decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	SellPrice     decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	MinStockAlert decimal.Decimal `gorm:"type:decimal(12,3);not null;default:0"`
	Barcode       string          `gorm:"size:60;index"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
}
