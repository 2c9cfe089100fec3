package shift

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/smsm300/fox-kiro-v5/internal/core"
	"github.com/smsm300/fox-kiro-v5/internal/models"
	"github.com/smsm300/fox-kiro-v5/internal/treasury"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Reconciliation is the arithmetic outcome of closing a shift.
type Reconciliation struct {
	CashMovement  decimal.Decimal
	SalesTotal    decimal.Decimal
	SalesByMethod map[models.PaymentMethod]decimal.Decimal
	ExpectedCash  decimal.Decimal
}

// Reconcile computes expected drawer cash for a shift from its transactions.
// Only cash-method amounts move the drawer; every method counts toward the
// sales totals. Pending and rejected transactions must be filtered out by the
// caller (the engine selects on status).
func Reconcile(startCash decimal.Decimal, txs []models.Transaction, customerIDs map[uint]struct{}) Reconciliation {
	cashMovement := decimal.Zero
	salesTotal := decimal.Zero
	salesByMethod := map[models.PaymentMethod]decimal.Decimal{
		models.PayCash:     decimal.Zero,
		models.PayWallet:   decimal.Zero,
		models.PayInstapay: decimal.Zero,
		models.PayDeferred: decimal.Zero,
	}

	for _, t := range txs {
		isCash := t.PaymentMethod == models.PayCash

		switch t.Type {
		case models.TxSale:
			salesByMethod[t.PaymentMethod] = salesByMethod[t.PaymentMethod].Add(t.Amount)
			salesTotal = salesTotal.Add(t.Amount)
			if isCash {
				cashMovement = cashMovement.Add(t.Amount)
			}
		case models.TxReturn:
			if !isCash {
				break
			}
			if treasury.IsCustomerReturn(t, customerIDs) {
				cashMovement = cashMovement.Sub(t.Amount) // refund leaves the drawer
			} else {
				cashMovement = cashMovement.Add(t.Amount) // supplier refund comes back
			}
		case models.TxPurchase, models.TxExpense, models.TxWithdrawal:
			if isCash {
				cashMovement = cashMovement.Sub(t.Amount)
			}
		case models.TxCapital:
			if isCash {
				cashMovement = cashMovement.Add(t.Amount)
			}
		}
	}

	return Reconciliation{
		CashMovement:  cashMovement,
		SalesTotal:    salesTotal,
		SalesByMethod: salesByMethod,
		ExpectedCash:  startCash.Add(cashMovement),
	}
}

// CurrentForUser returns the user's open shift, or nil when none exists.
func CurrentForUser(db *gorm.DB, userID uint) (*models.Shift, error) {
	var s models.Shift
	err := db.Where("user_id = ? AND status = ?", userID, models.ShiftOpen).First(&s).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// Open starts a drawer session for the user. At most one open shift per user;
// the check here gives a friendly error and the partial unique index on shifts
// backs it up against concurrent openers.
func Open(db *gorm.DB, userID uint, userName string, startCash decimal.Decimal) (*models.Shift, error) {
	if startCash.IsNegative() {
		return nil, fmt.Errorf("start cash must not be negative")
	}

	existing, err := CurrentForUser(db, userID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, core.ErrShiftAlreadyOpen
	}

	s := models.Shift{
		UserID:    userID,
		UserName:  userName,
		StartTime: time.Now(),
		StartCash: startCash,
		Status:    models.ShiftOpen,
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&s).Error; err != nil {
			return err
		}
		// Zero-amount ledger marker, local only.
		marker := models.Transaction{
			Type:          models.TxShiftOpen,
			Date:          s.StartTime,
			Amount:        decimal.Zero,
			PaymentMethod: models.PayCash,
			Status:        models.TxCompleted,
			Description:   fmt.Sprintf("shift opened by %s", userName),
			ShiftID:       &s.ID,
			ClientRef:     uuid.NewString(),
			SyncState:     models.SyncLocal,
		}
		return tx.Create(&marker).Error
	})
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// Close reconciles and closes an open shift. endCash is the operator's
// physical count; the discrepancy against expected cash is reported, never
// corrected.
func Close(db *gorm.DB, shiftID uint, endCash decimal.Decimal) (*models.Shift, *Reconciliation, error) {
	if endCash.IsNegative() {
		return nil, nil, fmt.Errorf("end cash must not be negative")
	}

	var s models.Shift
	if err := db.First(&s, shiftID).Error; err != nil {
		return nil, nil, fmt.Errorf("shift %d not found", shiftID)
	}
	if s.Status != models.ShiftOpen {
		return nil, nil, core.ErrShiftNotOpen
	}

	// Strictly by shift id; the date window the UI used to filter on is prone
	// to clock-skew boundary mistakes.
	var txs []models.Transaction
	if err := db.
		Where("shift_id = ? AND status NOT IN ?", s.ID, []models.TxStatus{models.TxPending, models.TxRejected}).
		Find(&txs).Error; err != nil {
		return nil, nil, err
	}

	var customers []models.Customer
	if err := db.Select("id").Find(&customers).Error; err != nil {
		return nil, nil, err
	}

	rec := Reconcile(s.StartCash, txs, treasury.CustomerIDSet(customers))

	byMethod, err := json.Marshal(rec.SalesByMethod)
	if err != nil {
		return nil, nil, err
	}

	now := time.Now()
	s.EndTime = &now
	s.EndCash = &endCash
	s.ExpectedCash = &rec.ExpectedCash
	s.TotalSales = &rec.SalesTotal
	s.SalesByMethod = string(byMethod)
	s.Status = models.ShiftClosed

	err = db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(&s).Error; err != nil {
			return err
		}
		marker := models.Transaction{
			Type:          models.TxShiftClose,
			Date:          now,
			Amount:        decimal.Zero,
			PaymentMethod: models.PayCash,
			Status:        models.TxCompleted,
			Description:   fmt.Sprintf("shift closed by %s", s.UserName),
			ShiftID:       &s.ID,
			ClientRef:     uuid.NewString(),
			SyncState:     models.SyncLocal,
		}
		return tx.Create(&marker).Error
	})
	if err != nil {
		return nil, nil, err
	}
	return &s, &rec, nil
}
