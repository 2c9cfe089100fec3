package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type TransactionType string

const (
	TxSale       TransactionType = "sale"
	TxPurchase   TransactionType = "purchase"
	TxExpense    TransactionType = "expense"
	TxReturn     TransactionType = "return"
	TxAdjustment TransactionType = "adjustment"
	TxShiftOpen  TransactionType = "shift_open"
	TxShiftClose TransactionType = "shift_close"
	TxCapital    TransactionType = "capital"
	TxWithdrawal TransactionType = "withdrawal"
)

type PaymentMethod string

const (
	PayCash     PaymentMethod = "cash"
	PayWallet   PaymentMethod = "wallet"
	PayInstapay PaymentMethod = "instapay"
	PayDeferred PaymentMethod = "deferred"
)

type TxStatus string

const (
	TxPending   TxStatus = "pending"
	TxCompleted TxStatus = "completed"
	TxRejected  TxStatus = "rejected"
)

type SyncState string

const (
	SyncLocal   SyncState = "local"        // never mirrored (markers, adjustments)
	SyncPending SyncState = "pending_sync" // waiting in the outbox
	SyncDone    SyncState = "synced"       // acknowledged by the upstream
)

type CounterpartyType string

const (
	CounterpartyCustomer CounterpartyType = "customer"
	CounterpartySupplier CounterpartyType = "supplier"
)

// Transaction is an immutable ledger event. Amount is always non-negative;
// direction is implied by Type. Only Status may change after creation.
type Transaction struct {
	ID            uint            `gorm:"primaryKey"`
	Type          TransactionType `gorm:"size:20;index;not null"`
	Date          time.Time       `gorm:"index;not null"`
	Amount        decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	PaymentMethod PaymentMethod   `gorm:"size:20;not null"`
	Status        TxStatus        `gorm:"size:20;index;not null;default:'completed'"`
	Description   string          `gorm:"size:500"`
	Category      string          `gorm:"size:100"` // expense category (rent, wages, ...)

	// Counterparty, when the event involves a customer or supplier.
	CounterpartyType CounterpartyType `gorm:"size:20"`
	RelatedID        *uint            `gorm:"index"`

	// For returns: the reversed sale/purchase. One return per original.
	ReturnOfID *uint `gorm:"index"`

	ShiftID *uint `gorm:"index"` // owning shift, stamped at creation, immutable

	InvoiceNumber string     `gorm:"size:30;index"`
	DueDate       *time.Time // deferred payments only
	IsDirectSale  bool       `gorm:"not null;default:false"`

	// Upstream mirroring.
	ClientRef string    `gorm:"size:36;uniqueIndex;not null"` // idempotency key
	LocalRef  string    `gorm:"size:40;index"`                // offline_<unix-ms> placeholder id
	RemoteID  string    `gorm:"size:40"`                      // upstream-assigned id once acked
	SyncState SyncState `gorm:"size:20;not null;default:'synced'"`

	Items []TransactionItem `gorm:"foreignKey:TransactionID;constraint:OnDelete:CASCADE"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

// TransactionItem is one cart line. Quantity and prices are captured at sale
// time so later price edits do not rewrite history.
type TransactionItem struct {
	ID            uint            `gorm:"primaryKey"`
	TransactionID uint            `gorm:"index;not null"`
	ProductID     uint            `gorm:"index;not null"`
	ProductName   string          `gorm:"size:200;not null"`
	Quantity      decimal.Decimal `gorm:"type:decimal(12,3);not null"`
	UnitPrice     decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	CostPrice     decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Discount      decimal.Decimal `gorm:"type:decimal(5,2);not null;default:0"` // percent
	CreatedAt     time.Time
}

// Counts toward treasury and drawer arithmetic only when completed and not
// settled on credit.
func (t *Transaction) AffectsCash() bool {
	return t.Status == TxCompleted && t.PaymentMethod != PayDeferred
}
