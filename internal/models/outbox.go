package models

import "time"

type OperationType string

const (
	OpSale           OperationType = "sale"
	OpPurchase       OperationType = "purchase"
	OpExpense        OperationType = "expense"
	OpCapital        OperationType = "capital"
	OpWithdrawal     OperationType = "withdrawal"
	OpReturn         OperationType = "return"
	OpDebtSettlement OperationType = "debt_settlement"
)

// OutboxEntry is one queued write awaiting upstream acknowledgment. Entries
// are drained strictly by ascending ID (enqueue order) and deleted only after
// the upstream acks; ClientRef is the idempotency key sent on every attempt,
// so a replay after a lost ack cannot double-apply.
type OutboxEntry struct {
	ID            uint          `gorm:"primaryKey"`
	OperationType OperationType `gorm:"size:30;not null"`
	Payload       string        `gorm:"type:jsonb;not null"`
	ClientRef     string        `gorm:"size:36;uniqueIndex;not null"`

	// Local transaction the entry mirrors, if any (debt settlements have none).
	TransactionID *uint `gorm:"index"`

	Attempts  int    `gorm:"not null;default:0"`
	LastError string `gorm:"size:500"`
	CreatedAt time.Time
}
