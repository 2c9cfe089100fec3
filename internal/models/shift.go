package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type ShiftStatus string

const (
	ShiftOpen   ShiftStatus = "open"
	ShiftClosed ShiftStatus = "closed"
)

// Shift is one cash-drawer session for one user. Opening fields are immutable;
// closing fields are written exactly once. The partial unique index lets the
// database enforce "at most one open shift per user" regardless of races.
type Shift struct {
	ID        uint            `gorm:"primaryKey"`
	UserID    uint            `gorm:"not null;index:idx_shifts_open_user,unique,where:status = 'open'"`
	UserName  string          `gorm:"size:100;not null"`
	StartTime time.Time       `gorm:"not null"`
	StartCash decimal.Decimal `gorm:"type:decimal(12,2);not null"`

	EndTime      *time.Time
	EndCash      *decimal.Decimal `gorm:"type:decimal(12,2)"`
	ExpectedCash *decimal.Decimal `gorm:"type:decimal(12,2)"`
	TotalSales   *decimal.Decimal `gorm:"type:decimal(12,2)"`

	// Per-payment-method sales totals, serialized at close.
	SalesByMethod string `gorm:"type:jsonb"`

	Status    ShiftStatus `gorm:"size:10;not null;default:'open'"`
	CreatedAt time.Time
	UpdatedAt time.Time
}
