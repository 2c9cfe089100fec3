package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/smsm300/fox-kiro-v5/internal/auth"
	"github.com/smsm300/fox-kiro-v5/internal/core"
	"github.com/smsm300/fox-kiro-v5/internal/models"
	"github.com/smsm300/fox-kiro-v5/internal/offline"
	"github.com/smsm300/fox-kiro-v5/internal/shift"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Service owns every write into the transaction ledger. Each queueable write
// commits locally together with its outbox entry, then kicks the sync manager
// so the online path comes back already acknowledged.
type Service struct {
	db      *gorm.DB
	queue   *offline.Queue
	monitor *offline.Monitor
	sync    *offline.Manager
}

func NewService(db *gorm.DB, queue *offline.Queue, monitor *offline.Monitor, sync *offline.Manager) *Service {
	return &Service{db: db, queue: queue, monitor: monitor, sync: sync}
}

type CartLine struct {
	ProductID uint            `json:"product_id"`
	Quantity  decimal.Decimal `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Discount  decimal.Decimal `json:"discount"` // percent
}

type SaleInput struct {
	Items              []CartLine           `json:"items"`
	CustomerID         *uint                `json:"customer_id"`
	PaymentMethod      models.PaymentMethod `json:"payment_method"`
	TotalAmount        decimal.Decimal      `json:"total_amount"`
	Description        string               `json:"description"`
	IsDirectSale       bool                 `json:"is_direct_sale"`
	DueDate            *time.Time           `json:"due_date"`
	AllowNegativeStock bool                 `json:"allow_negative_stock"`
}

type PurchaseInput struct {
	Items         []CartLine           `json:"items"`
	SupplierID    *uint                `json:"supplier_id"`
	PaymentMethod models.PaymentMethod `json:"payment_method"`
	TotalAmount   decimal.Decimal      `json:"total_amount"`
	Description   string               `json:"description"`
	DueDate       *time.Time           `json:"due_date"`
}

// MoneyInput covers expense / capital / withdrawal.
type MoneyInput struct {
	Amount        decimal.Decimal      `json:"amount"`
	PaymentMethod models.PaymentMethod `json:"payment_method"`
	Category      string               `json:"category"`
	Description   string               `json:"description"`
}

type ReturnInput struct {
	OriginalID    uint                 `json:"original_id"`
	PaymentMethod models.PaymentMethod `json:"payment_method"` // empty means original's method
	Description   string               `json:"description"`
}

type AdjustmentInput struct {
	ProductID    uint            `json:"product_id"`
	QuantityDiff decimal.Decimal `json:"quantity_diff"`
	Reason       string          `json:"reason"`
}

func validMethod(m models.PaymentMethod) bool {
	switch m {
	case models.PayCash, models.PayWallet, models.PayInstapay, models.PayDeferred:
		return true
	}
	return false
}

// currentShiftID stamps cash-affecting writes with the actor's open shift.
// Admins may transact without one.
func (s *Service) currentShiftID(actor auth.Actor, required bool) (*uint, error) {
	open, err := shift.CurrentForUser(s.db, actor.UserID)
	if err != nil {
		return nil, err
	}
	if open != nil {
		id := open.ID
		return &id, nil
	}
	if required && actor.Role != models.RoleAdmin {
		return nil, core.ErrShiftRequired
	}
	return nil, nil
}

// finish is the shared tail of every queueable write: kick the sync manager
// and reload, so callers see the authoritative state when we were online.
func (s *Service) finish(ctx context.Context, txID uint) (*models.Transaction, error) {
	if s.sync != nil {
		s.sync.Kick(ctx)
	}
	var out models.Transaction
	if err := s.db.Preload("Items").First(&out, txID).Error; err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *Service) markOffline(t *models.Transaction) {
	if s.monitor.Standalone() {
		t.SyncState = models.SyncLocal
		return
	}
	t.SyncState = models.SyncPending
	if !s.monitor.Online() {
		t.LocalRef = fmt.Sprintf("offline_%d", time.Now().UnixMilli())
	}
}

func (s *Service) enqueue(tx *gorm.DB, t *models.Transaction, op models.OperationType, payload any) error {
	if s.monitor.Standalone() {
		return nil
	}
	_, err := s.queue.Enqueue(tx, op, payload, t.ClientRef, &t.ID)
	return err
}

// CreateSale books a sale. Non-admin roles need an open shift; nothing is
// created when the gate rejects. Direct sales skip inventory and book a
// companion cost-of-goods expense on the same shift.
func (s *Service) CreateSale(ctx context.Context, actor auth.Actor, in SaleInput) (*models.Transaction, error) {
	if len(in.Items) == 0 {
		return nil, fmt.Errorf("cart is empty")
	}
	if !in.TotalAmount.IsPositive() {
		return nil, fmt.Errorf("total amount must be positive")
	}
	if !validMethod(in.PaymentMethod) {
		return nil, fmt.Errorf("invalid payment method %q", in.PaymentMethod)
	}

	shiftID, err := s.currentShiftID(actor, true)
	if err != nil {
		return nil, err
	}

	var customer *models.Customer
	if in.CustomerID != nil {
		customer = &models.Customer{}
		if err := s.db.First(customer, *in.CustomerID).Error; err != nil {
			return nil, fmt.Errorf("customer %d not found", *in.CustomerID)
		}
	}

	if in.PaymentMethod == models.PayDeferred {
		if customer == nil {
			return nil, fmt.Errorf("deferred sale requires a customer")
		}
		if customer.Type != models.CustomerBusiness {
			return nil, fmt.Errorf("deferred sale requires a business customer")
		}
		if customer.Balance.Add(in.TotalAmount).GreaterThan(customer.CreditLimit) {
			return nil, core.ErrCreditLimit
		}
	}

	sale := models.Transaction{
		Type:          models.TxSale,
		Date:          time.Now(),
		Amount:        in.TotalAmount,
		PaymentMethod: in.PaymentMethod,
		Status:        models.TxCompleted,
		Description:   in.Description,
		ShiftID:       shiftID,
		DueDate:       in.DueDate,
		IsDirectSale:  in.IsDirectSale,
		ClientRef:     uuid.NewString(),
	}
	if customer != nil {
		sale.CounterpartyType = models.CounterpartyCustomer
		sale.RelatedID = in.CustomerID
	}
	s.markOffline(&sale)

	err = s.db.Transaction(func(tx *gorm.DB) error {
		// Row lock on the settings row: concurrent sales serialize here, so
		// each one mints a distinct invoice number.
		var settings models.Settings
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&settings, 1).Error; err != nil {
			return err
		}

		cogs := decimal.Zero
		for _, line := range in.Items {
			if !line.Quantity.IsPositive() {
				return fmt.Errorf("line quantity must be positive")
			}
			var p models.Product
			if err := tx.First(&p, line.ProductID).Error; err != nil {
				return fmt.Errorf("product %d not found", line.ProductID)
			}

			if !in.IsDirectSale {
				remaining := p.Quantity.Sub(line.Quantity)
				if remaining.IsNegative() {
					if settings.PreventNegativeStock {
						return fmt.Errorf("%w: %s (strict mode)", core.ErrInsufficientStock, p.Name)
					}
					if !in.AllowNegativeStock {
						return fmt.Errorf("%w: %s", core.ErrInsufficientStock, p.Name)
					}
				}
				if err := tx.Model(&models.Product{}).Where("id = ?", p.ID).
					Update("quantity", gorm.Expr("quantity - ?", line.Quantity)).Error; err != nil {
					return err
				}
			}

			price := line.UnitPrice
			if price.IsZero() {
				price = p.SellPrice
			}
			sale.Items = append(sale.Items, models.TransactionItem{
				ProductID:   p.ID,
				ProductName: p.Name,
				Quantity:    line.Quantity,
				UnitPrice:   price,
				CostPrice:   p.CostPrice,
				Discount:    line.Discount,
			})
			cogs = cogs.Add(p.CostPrice.Mul(line.Quantity))
		}

		sale.InvoiceNumber = fmt.Sprintf("INV-%06d", settings.NextInvoiceNumber)
		if err := tx.Model(&models.Settings{}).Where("id = ?", 1).
			Update("next_invoice_number", gorm.Expr("next_invoice_number + 1")).Error; err != nil {
			return err
		}

		if err := tx.Create(&sale).Error; err != nil {
			return err
		}

		if in.PaymentMethod == models.PayDeferred {
			if err := tx.Model(&models.Customer{}).Where("id = ?", customer.ID).
				Update("balance", gorm.Expr("balance + ?", in.TotalAmount)).Error; err != nil {
				return err
			}
		}

		// Direct sales never touched inventory, so the goods were sourced on
		// the spot: book their cost as a cash expense on the same shift.
		if in.IsDirectSale && cogs.IsPositive() {
			expense := models.Transaction{
				Type:          models.TxExpense,
				Date:          sale.Date,
				Amount:        cogs,
				PaymentMethod: models.PayCash,
				Status:        models.TxCompleted,
				Description:   "cost of goods for direct sale " + sale.InvoiceNumber,
				Category:      "cost_of_goods",
				ShiftID:       shiftID,
				ClientRef:     uuid.NewString(),
			}
			s.markOffline(&expense)
			if err := tx.Create(&expense).Error; err != nil {
				return err
			}
			if err := s.enqueue(tx, &expense, models.OpExpense, MoneyInput{
				Amount:        cogs,
				PaymentMethod: models.PayCash,
				Category:      expense.Category,
				Description:   expense.Description,
			}); err != nil {
				return err
			}
		}

		return s.enqueue(tx, &sale, models.OpSale, in)
	})
	if err != nil {
		return nil, err
	}

	return s.finish(ctx, sale.ID)
}

// CreatePurchase books incoming goods: stock goes up, cash (or supplier
// payable on deferred terms) goes out.
func (s *Service) CreatePurchase(ctx context.Context, actor auth.Actor, in PurchaseInput) (*models.Transaction, error) {
	if len(in.Items) == 0 {
		return nil, fmt.Errorf("purchase has no items")
	}
	if !in.TotalAmount.IsPositive() {
		return nil, fmt.Errorf("total amount must be positive")
	}
	if !validMethod(in.PaymentMethod) {
		return nil, fmt.Errorf("invalid payment method %q", in.PaymentMethod)
	}
	if in.PaymentMethod == models.PayDeferred && in.SupplierID == nil {
		return nil, fmt.Errorf("deferred purchase requires a supplier")
	}

	shiftID, err := s.currentShiftID(actor, false)
	if err != nil {
		return nil, err
	}

	purchase := models.Transaction{
		Type:          models.TxPurchase,
		Date:          time.Now(),
		Amount:        in.TotalAmount,
		PaymentMethod: in.PaymentMethod,
		Status:        models.TxCompleted,
		Description:   in.Description,
		ShiftID:       shiftID,
		DueDate:       in.DueDate,
		ClientRef:     uuid.NewString(),
	}
	if in.SupplierID != nil {
		var supplier models.Supplier
		if err := s.db.First(&supplier, *in.SupplierID).Error; err != nil {
			return nil, fmt.Errorf("supplier %d not found", *in.SupplierID)
		}
		purchase.CounterpartyType = models.CounterpartySupplier
		purchase.RelatedID = in.SupplierID
	}
	s.markOffline(&purchase)

	err = s.db.Transaction(func(tx *gorm.DB) error {
		for _, line := range in.Items {
			if !line.Quantity.IsPositive() {
				return fmt.Errorf("line quantity must be positive")
			}
			var p models.Product
			if err := tx.First(&p, line.ProductID).Error; err != nil {
				return fmt.Errorf("product %d not found", line.ProductID)
			}
			if err := tx.Model(&models.Product{}).Where("id = ?", p.ID).
				Update("quantity", gorm.Expr("quantity + ?", line.Quantity)).Error; err != nil {
				return err
			}
			cost := line.UnitPrice
			if cost.IsZero() {
				cost = p.CostPrice
			}
			purchase.Items = append(purchase.Items, models.TransactionItem{
				ProductID:   p.ID,
				ProductName: p.Name,
				Quantity:    line.Quantity,
				UnitPrice:   cost,
				CostPrice:   cost,
			})
		}

		if err := tx.Create(&purchase).Error; err != nil {
			return err
		}

		if in.PaymentMethod == models.PayDeferred {
			if err := tx.Model(&models.Supplier{}).Where("id = ?", *in.SupplierID).
				Update("balance", gorm.Expr("balance + ?", in.TotalAmount)).Error; err != nil {
				return err
			}
		}

		return s.enqueue(tx, &purchase, models.OpPurchase, in)
	})
	if err != nil {
		return nil, err
	}

	return s.finish(ctx, purchase.ID)
}

// createMoney is the shared path for expense / capital / withdrawal.
func (s *Service) createMoney(ctx context.Context, actor auth.Actor, txType models.TransactionType, op models.OperationType, in MoneyInput) (*models.Transaction, error) {
	if !in.Amount.IsPositive() {
		return nil, fmt.Errorf("amount must be positive")
	}
	if !validMethod(in.PaymentMethod) {
		return nil, fmt.Errorf("invalid payment method %q", in.PaymentMethod)
	}
	if in.PaymentMethod == models.PayDeferred {
		return nil, fmt.Errorf("%s cannot be deferred", txType)
	}

	shiftID, err := s.currentShiftID(actor, false)
	if err != nil {
		return nil, err
	}

	t := models.Transaction{
		Type:          txType,
		Date:          time.Now(),
		Amount:        in.Amount,
		PaymentMethod: in.PaymentMethod,
		Status:        models.TxCompleted,
		Description:   in.Description,
		Category:      in.Category,
		ShiftID:       shiftID,
		ClientRef:     uuid.NewString(),
	}
	s.markOffline(&t)

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&t).Error; err != nil {
			return err
		}
		return s.enqueue(tx, &t, op, in)
	})
	if err != nil {
		return nil, err
	}

	return s.finish(ctx, t.ID)
}

func (s *Service) CreateExpense(ctx context.Context, actor auth.Actor, in MoneyInput) (*models.Transaction, error) {
	return s.createMoney(ctx, actor, models.TxExpense, models.OpExpense, in)
}

func (s *Service) CreateCapital(ctx context.Context, actor auth.Actor, in MoneyInput) (*models.Transaction, error) {
	return s.createMoney(ctx, actor, models.TxCapital, models.OpCapital, in)
}

func (s *Service) CreateWithdrawal(ctx context.Context, actor auth.Actor, in MoneyInput) (*models.Transaction, error) {
	return s.createMoney(ctx, actor, models.TxWithdrawal, models.OpWithdrawal, in)
}

// CreateReturn reverses a sale or purchase in full; partial returns do not
// exist, so the money and the stock of the original always move back
// together. The inventory decision mirrors the original exactly: a direct
// sale's return never restores stock, a normal sale's return restores every
// line, a purchase return hands goods back. A second return of the same
// original is refused.
func (s *Service) CreateReturn(ctx context.Context, actor auth.Actor, in ReturnInput) (*models.Transaction, error) {
	var original models.Transaction
	if err := s.db.Preload("Items").First(&original, in.OriginalID).Error; err != nil {
		return nil, fmt.Errorf("original transaction %d not found", in.OriginalID)
	}
	if original.Type != models.TxSale && original.Type != models.TxPurchase {
		return nil, fmt.Errorf("only sales and purchases can be returned")
	}

	var returned int64
	if err := s.db.Model(&models.Transaction{}).
		Where("type = ? AND return_of_id = ?", models.TxReturn, original.ID).
		Count(&returned).Error; err != nil {
		return nil, err
	}
	if returned > 0 {
		return nil, core.ErrAlreadyReturned
	}

	amount := original.Amount
	method := in.PaymentMethod
	if method == "" {
		method = original.PaymentMethod
	}
	if !validMethod(method) {
		return nil, fmt.Errorf("invalid payment method %q", method)
	}

	shiftID, err := s.currentShiftID(actor, false)
	if err != nil {
		return nil, err
	}

	ret := models.Transaction{
		Type:             models.TxReturn,
		Date:             time.Now(),
		Amount:           amount,
		PaymentMethod:    method,
		Status:           models.TxCompleted,
		Description:      in.Description,
		CounterpartyType: original.CounterpartyType,
		RelatedID:        original.RelatedID,
		ReturnOfID:       &original.ID,
		ShiftID:          shiftID,
		IsDirectSale:     original.IsDirectSale, // reversal symmetry
		ClientRef:        uuid.NewString(),
	}
	s.markOffline(&ret)

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if !original.IsDirectSale {
			for _, item := range original.Items {
				// Sale return brings goods back; purchase return hands them out.
				expr := gorm.Expr("quantity + ?", item.Quantity)
				if original.Type == models.TxPurchase {
					expr = gorm.Expr("quantity - ?", item.Quantity)
				}
				if err := tx.Model(&models.Product{}).Where("id = ?", item.ProductID).
					Update("quantity", expr).Error; err != nil {
					return err
				}
			}
		}

		if err := tx.Create(&ret).Error; err != nil {
			return err
		}

		// Deferred originals moved a counterparty balance; move it back.
		if original.PaymentMethod == models.PayDeferred && original.RelatedID != nil {
			switch original.Type {
			case models.TxSale:
				if err := tx.Model(&models.Customer{}).Where("id = ?", *original.RelatedID).
					Update("balance", gorm.Expr("balance - ?", amount)).Error; err != nil {
					return err
				}
			case models.TxPurchase:
				if err := tx.Model(&models.Supplier{}).Where("id = ?", *original.RelatedID).
					Update("balance", gorm.Expr("balance - ?", amount)).Error; err != nil {
					return err
				}
			}
		}

		return s.enqueue(tx, &ret, models.OpReturn, in)
	})
	if err != nil {
		return nil, err
	}

	return s.finish(ctx, ret.ID)
}

// CreateAdjustment logs a stock correction as a zero-amount ledger marker.
// Purely local; the upstream learns stock levels from its own counts.
func (s *Service) CreateAdjustment(ctx context.Context, actor auth.Actor, in AdjustmentInput) (*models.Transaction, error) {
	if in.QuantityDiff.IsZero() {
		return nil, fmt.Errorf("quantity_diff must not be zero")
	}

	var p models.Product
	if err := s.db.First(&p, in.ProductID).Error; err != nil {
		return nil, fmt.Errorf("product %d not found", in.ProductID)
	}

	t := models.Transaction{
		Type:          models.TxAdjustment,
		Date:          time.Now(),
		Amount:        decimal.Zero,
		PaymentMethod: models.PayCash,
		Status:        models.TxCompleted,
		Description:   fmt.Sprintf("stock adjustment %s for %s: %s", in.QuantityDiff.String(), p.Name, in.Reason),
		ClientRef:     uuid.NewString(),
		SyncState:     models.SyncLocal,
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Product{}).Where("id = ?", p.ID).
			Update("quantity", gorm.Expr("quantity + ?", in.QuantityDiff)).Error; err != nil {
			return err
		}
		return tx.Create(&t).Error
	})
	if err != nil {
		return nil, err
	}
	return &t, nil
}
