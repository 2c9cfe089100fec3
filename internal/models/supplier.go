package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type Supplier struct {
	ID        uint            `gorm:"primaryKey"`
	Name      string          `gorm:"size:200;not null"`
	Phone     string          `gorm:"size:30"`
	Balance   decimal.Decimal `gorm:"type:decimal(12,2);not null"` // payable we owe
	CreatedAt time.Time
	UpdatedAt time.Time
}
