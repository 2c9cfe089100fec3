package ledger

import (
	"strconv"
	"time"

	"github.com/smsm300/fox-kiro-v5/internal/audit"
	"github.com/smsm300/fox-kiro-v5/internal/auth"
	"github.com/smsm300/fox-kiro-v5/internal/database"
	"github.com/smsm300/fox-kiro-v5/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

type ItemResponse struct {
	ProductID   uint            `json:"product_id"`
	ProductName string          `json:"product_name"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Discount    decimal.Decimal `json:"discount"`
}

type TransactionResponse struct {
	// ID is the upstream id once acked, the offline placeholder while queued,
	// or the local row id.
	ID            string                 `json:"id"`
	LocalID       uint                   `json:"local_id"`
	Type          models.TransactionType `json:"type"`
	Date          string                 `json:"date"`
	Amount        decimal.Decimal        `json:"amount"`
	PaymentMethod models.PaymentMethod   `json:"payment_method"`
	Status        models.TxStatus        `json:"status"`
	SyncState     models.SyncState       `json:"sync_state"`
	Description   string                 `json:"description,omitempty"`
	Category      string                 `json:"category,omitempty"`
	InvoiceNumber string                 `json:"invoice_number,omitempty"`
	ShiftID       *uint                  `json:"shift_id,omitempty"`
	RelatedID     *uint                  `json:"related_id,omitempty"`
	Counterparty  string                 `json:"counterparty_type,omitempty"`
	IsDirectSale  bool                   `json:"is_direct_sale,omitempty"`
	DueDate       *string                `json:"due_date,omitempty"`
	Items         []ItemResponse         `json:"items,omitempty"`
}

func toResponse(t *models.Transaction) TransactionResponse {
	id := strconv.FormatUint(uint64(t.ID), 10)
	if t.LocalRef != "" && t.SyncState == models.SyncPending {
		id = t.LocalRef
	}
	if t.RemoteID != "" {
		id = t.RemoteID
	}

	resp := TransactionResponse{
		ID:            id,
		LocalID:       t.ID,
		Type:          t.Type,
		Date:          t.Date.Format(time.RFC3339),
		Amount:        t.Amount,
		PaymentMethod: t.PaymentMethod,
		Status:        t.Status,
		SyncState:     t.SyncState,
		Description:   t.Description,
		Category:      t.Category,
		InvoiceNumber: t.InvoiceNumber,
		ShiftID:       t.ShiftID,
		RelatedID:     t.RelatedID,
		Counterparty:  string(t.CounterpartyType),
		IsDirectSale:  t.IsDirectSale,
	}
	if t.DueDate != nil {
		d := t.DueDate.Format("2006-01-02")
		resp.DueDate = &d
	}
	for _, item := range t.Items {
		resp.Items = append(resp.Items, ItemResponse{
			ProductID:   item.ProductID,
			ProductName: item.ProductName,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
			Discount:    item.Discount,
		})
	}
	return resp
}

// -------------------------------------------------
// POST /api/transactions/sales
// -------------------------------------------------
func CreateSaleHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := auth.ActorFromCtx(c)
		if err != nil {
			return err
		}

		var in SaleInput
		if err := c.BodyParser(&in); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}

		t, err := svc.CreateSale(c.Context(), actor, in)
		if err != nil {
			return err
		}

		audit.Record(actor.UserID, actor.Name, "sale", "transaction", t.ID,
			"sale "+t.InvoiceNumber+" for "+t.Amount.StringFixed(2))
		return c.Status(fiber.StatusCreated).JSON(toResponse(t))
	}
}

// -------------------------------------------------
// POST /api/transactions/purchases
// -------------------------------------------------
func CreatePurchaseHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := auth.ActorFromCtx(c)
		if err != nil {
			return err
		}

		var in PurchaseInput
		if err := c.BodyParser(&in); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}

		t, err := svc.CreatePurchase(c.Context(), actor, in)
		if err != nil {
			return err
		}

		audit.Record(actor.UserID, actor.Name, "purchase", "transaction", t.ID,
			"purchase for "+t.Amount.StringFixed(2))
		return c.Status(fiber.StatusCreated).JSON(toResponse(t))
	}
}

func moneyHandler(action string, create func(*fiber.Ctx, auth.Actor, MoneyInput) (*models.Transaction, error)) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := auth.ActorFromCtx(c)
		if err != nil {
			return err
		}

		var in MoneyInput
		if err := c.BodyParser(&in); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}

		t, err := create(c, actor, in)
		if err != nil {
			return err
		}

		audit.Record(actor.UserID, actor.Name, action, "transaction", t.ID,
			action+" for "+t.Amount.StringFixed(2))
		return c.Status(fiber.StatusCreated).JSON(toResponse(t))
	}
}

// POST /api/transactions/expenses
func CreateExpenseHandler(svc *Service) fiber.Handler {
	return moneyHandler("expense", func(c *fiber.Ctx, actor auth.Actor, in MoneyInput) (*models.Transaction, error) {
		return svc.CreateExpense(c.Context(), actor, in)
	})
}

// POST /api/transactions/capital
func CreateCapitalHandler(svc *Service) fiber.Handler {
	return moneyHandler("capital", func(c *fiber.Ctx, actor auth.Actor, in MoneyInput) (*models.Transaction, error) {
		return svc.CreateCapital(c.Context(), actor, in)
	})
}

// POST /api/transactions/withdrawals
func CreateWithdrawalHandler(svc *Service) fiber.Handler {
	return moneyHandler("withdrawal", func(c *fiber.Ctx, actor auth.Actor, in MoneyInput) (*models.Transaction, error) {
		return svc.CreateWithdrawal(c.Context(), actor, in)
	})
}

// -------------------------------------------------
// POST /api/transactions/returns
// -------------------------------------------------
func CreateReturnHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := auth.ActorFromCtx(c)
		if err != nil {
			return err
		}

		var in ReturnInput
		if err := c.BodyParser(&in); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}
		if in.OriginalID == 0 {
			return fiber.NewError(fiber.StatusBadRequest, "original_id is required")
		}

		t, err := svc.CreateReturn(c.Context(), actor, in)
		if err != nil {
			return err
		}

		audit.Record(actor.UserID, actor.Name, "return", "transaction", t.ID,
			"return of transaction "+strconv.FormatUint(uint64(in.OriginalID), 10))
		return c.Status(fiber.StatusCreated).JSON(toResponse(t))
	}
}

// -------------------------------------------------
// POST /api/transactions/adjustments
// -------------------------------------------------
func CreateAdjustmentHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := auth.ActorFromCtx(c)
		if err != nil {
			return err
		}

		var in AdjustmentInput
		if err := c.BodyParser(&in); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}

		t, err := svc.CreateAdjustment(c.Context(), actor, in)
		if err != nil {
			return err
		}

		audit.Record(actor.UserID, actor.Name, "adjustment", "transaction", t.ID, t.Description)
		return c.Status(fiber.StatusCreated).JSON(toResponse(t))
	}
}

// -------------------------------------------------
// GET /api/transactions?type=sale&from=2026-01-01&to=2026-01-31&shift_id=4
// -------------------------------------------------
func ListHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		dbq := database.DB.Model(&models.Transaction{}).Preload("Items")

		if txType := c.Query("type"); txType != "" {
			dbq = dbq.Where("type = ?", txType)
		}
		if from := c.Query("from"); from != "" {
			t, err := time.Parse("2006-01-02", from)
			if err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "invalid from date, want YYYY-MM-DD")
			}
			dbq = dbq.Where("date >= ?", t)
		}
		if to := c.Query("to"); to != "" {
			t, err := time.Parse("2006-01-02", to)
			if err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "invalid to date, want YYYY-MM-DD")
			}
			dbq = dbq.Where("date < ?", t.AddDate(0, 0, 1))
		}
		if shiftID := c.QueryInt("shift_id"); shiftID > 0 {
			dbq = dbq.Where("shift_id = ?", shiftID)
		}

		var txs []models.Transaction
		if err := dbq.Order("date desc, id desc").Find(&txs).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "cannot list transactions")
		}

		resp := make([]TransactionResponse, 0, len(txs))
		for i := range txs {
			resp = append(resp, toResponse(&txs[i]))
		}
		return c.JSON(resp)
	}
}
