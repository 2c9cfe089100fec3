package quotation

import (
	"fmt"
	"time"

	"github.com/smsm300/fox-kiro-v5/internal/audit"
	"github.com/smsm300/fox-kiro-v5/internal/auth"
	"github.com/smsm300/fox-kiro-v5/internal/database"
	"github.com/smsm300/fox-kiro-v5/internal/ledger"
	"github.com/smsm300/fox-kiro-v5/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

type QuotationRequest struct {
	CustomerID uint              `json:"customer_id"`
	Items      []ledger.CartLine `json:"items"`
	Draft      bool              `json:"draft"`
}

type ConvertRequest struct {
	PaymentMethod      models.PaymentMethod `json:"payment_method"`
	DueDate            *time.Time           `json:"due_date"`
	AllowNegativeStock bool                 `json:"allow_negative_stock"`
}

// -------------------------------------------------
// POST /api/quotations
// -------------------------------------------------
func CreateHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := auth.ActorFromCtx(c)
		if err != nil {
			return err
		}

		var body QuotationRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}
		if len(body.Items) == 0 {
			return fiber.NewError(fiber.StatusBadRequest, "quotation has no items")
		}

		var customer models.Customer
		if err := database.DB.First(&customer, body.CustomerID).Error; err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "customer not found")
		}

		q := models.Quotation{
			Date:         time.Now(),
			CustomerID:   customer.ID,
			CustomerName: customer.Name,
			Status:       models.QuotationPending,
		}
		if body.Draft {
			q.Status = models.QuotationDraft
		}

		total := decimal.Zero
		for _, line := range body.Items {
			if !line.Quantity.IsPositive() {
				return fiber.NewError(fiber.StatusBadRequest, "line quantity must be positive")
			}
			var p models.Product
			if err := database.DB.First(&p, line.ProductID).Error; err != nil {
				return fiber.NewError(fiber.StatusBadRequest, fmt.Sprintf("product %d not found", line.ProductID))
			}
			price := line.UnitPrice
			if price.IsZero() {
				price = p.SellPrice
			}
			lineTotal := price.Mul(line.Quantity)
			if line.Discount.IsPositive() {
				lineTotal = lineTotal.Mul(decimal.NewFromInt(100).Sub(line.Discount)).Div(decimal.NewFromInt(100))
			}
			total = total.Add(lineTotal)
			q.Items = append(q.Items, models.QuotationItem{
				ProductID:   p.ID,
				ProductName: p.Name,
				Quantity:    line.Quantity,
				UnitPrice:   price,
				Discount:    line.Discount,
			})
		}
		q.TotalAmount = total.Round(2)
		q.Number = fmt.Sprintf("QT-%d", time.Now().UnixMilli())

		if err := database.DB.Create(&q).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "cannot create quotation")
		}

		audit.Record(actor.UserID, actor.Name, "quotation_create", "quotation", q.ID, q.Number)
		return c.Status(fiber.StatusCreated).JSON(q)
	}
}

// -------------------------------------------------
// GET /api/quotations?status=pending
// -------------------------------------------------
func ListHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		dbq := database.DB.Model(&models.Quotation{}).Preload("Items")
		if status := c.Query("status"); status != "" {
			dbq = dbq.Where("status = ?", status)
		}

		var quotes []models.Quotation
		if err := dbq.Order("date desc, id desc").Find(&quotes).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "cannot list quotations")
		}
		return c.JSON(quotes)
	}
}

// -------------------------------------------------
// POST /api/quotations/:id/convert
// -------------------------------------------------
// Converts a pending quotation into a sale. Depleted inventory surfaces the
// insufficient-stock advisory; the operator may resubmit with the override.
func ConvertHandler(svc *ledger.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := auth.ActorFromCtx(c)
		if err != nil {
			return err
		}

		id, err := c.ParamsInt("id")
		if err != nil || id <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "invalid quotation id")
		}

		var body ConvertRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}
		if body.PaymentMethod == "" {
			body.PaymentMethod = models.PayCash
		}

		var q models.Quotation
		if err := database.DB.Preload("Items").First(&q, id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "quotation not found")
		}
		if q.Status == models.QuotationConverted {
			return fiber.NewError(fiber.StatusConflict, "quotation already converted")
		}

		items := make([]ledger.CartLine, 0, len(q.Items))
		for _, item := range q.Items {
			items = append(items, ledger.CartLine{
				ProductID: item.ProductID,
				Quantity:  item.Quantity,
				UnitPrice: item.UnitPrice,
				Discount:  item.Discount,
			})
		}

		sale, err := svc.CreateSale(c.Context(), actor, ledger.SaleInput{
			Items:              items,
			CustomerID:         &q.CustomerID,
			PaymentMethod:      body.PaymentMethod,
			TotalAmount:        q.TotalAmount,
			Description:        "converted from quotation " + q.Number,
			DueDate:            body.DueDate,
			AllowNegativeStock: body.AllowNegativeStock,
		})
		if err != nil {
			return err
		}

		q.Status = models.QuotationConverted
		q.SaleTransactionID = &sale.ID
		if err := database.DB.Save(&q).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "sale created but quotation not marked converted")
		}

		audit.Record(actor.UserID, actor.Name, "quotation_convert", "quotation", q.ID,
			q.Number+" -> "+sale.InvoiceNumber)
		return c.JSON(fiber.Map{"quotation": q, "sale_id": sale.ID})
	}
}
