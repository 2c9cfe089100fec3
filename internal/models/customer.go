package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type CustomerType string

const (
	CustomerConsumer CustomerType = "consumer" // cash only
	CustomerBusiness CustomerType = "business" // credit allowed up to CreditLimit
)

type Customer struct {
	ID          uint            `gorm:"primaryKey"`
	Name        string          `gorm:"size:200;not null"`
	Phone       string          `gorm:"size:30"`
	Type        CustomerType    `gorm:"size:20;not null;default:'consumer'"`
	Balance     decimal.Decimal `gorm:"type:decimal(12,2);not null"` // receivable owed to us
	CreditLimit decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
