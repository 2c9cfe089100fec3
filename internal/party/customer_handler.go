package party

import (
	"context"

	"github.com/smsm300/fox-kiro-v5/internal/audit"
	"github.com/smsm300/fox-kiro-v5/internal/auth"
	"github.com/smsm300/fox-kiro-v5/internal/database"
	"github.com/smsm300/fox-kiro-v5/internal/models"
	"github.com/smsm300/fox-kiro-v5/internal/offline"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type CustomerRequest struct {
	Name        string              `json:"name"`
	Phone       string              `json:"phone"`
	Type        models.CustomerType `json:"type"`
	CreditLimit decimal.Decimal     `json:"credit_limit"`
}

type SettleDebtRequest struct {
	Amount        decimal.Decimal      `json:"amount"`
	PaymentMethod models.PaymentMethod `json:"payment_method"`
}

// settlementPayload is what the upstream receives on replay.
type settlementPayload struct {
	EntityType    string               `json:"entity_type"`
	EntityID      uint                 `json:"entity_id"`
	Amount        decimal.Decimal      `json:"amount"`
	PaymentMethod models.PaymentMethod `json:"payment_method"`
}

// -------------------------------------------------
// POST /api/customers
// -------------------------------------------------
func CreateCustomerHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := auth.ActorFromCtx(c)
		if err != nil {
			return err
		}

		var body CustomerRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}
		if body.Name == "" {
			return fiber.NewError(fiber.StatusBadRequest, "name is required")
		}
		if body.Type == "" {
			body.Type = models.CustomerConsumer
		}
		if body.Type != models.CustomerConsumer && body.Type != models.CustomerBusiness {
			return fiber.NewError(fiber.StatusBadRequest, "type must be consumer or business")
		}
		if body.CreditLimit.IsNegative() {
			return fiber.NewError(fiber.StatusBadRequest, "credit_limit must not be negative")
		}

		customer := models.Customer{
			Name:        body.Name,
			Phone:       body.Phone,
			Type:        body.Type,
			Balance:     decimal.Zero,
			CreditLimit: body.CreditLimit,
		}
		if err := database.DB.Create(&customer).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "cannot create customer")
		}

		audit.Record(actor.UserID, actor.Name, "customer_create", "customer", customer.ID, customer.Name)
		return c.Status(fiber.StatusCreated).JSON(customer)
	}
}

// -------------------------------------------------
// GET /api/customers?search=ali
// -------------------------------------------------
func ListCustomersHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		dbq := database.DB.Model(&models.Customer{})
		if search := c.Query("search"); search != "" {
			dbq = dbq.Where("name ILIKE ? OR phone ILIKE ?", "%"+search+"%", "%"+search+"%")
		}

		var customers []models.Customer
		if err := dbq.Order("name asc").Find(&customers).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "cannot list customers")
		}
		return c.JSON(customers)
	}
}

// -------------------------------------------------
// PUT /api/customers/:id
// -------------------------------------------------
func UpdateCustomerHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := c.ParamsInt("id")
		if err != nil || id <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "invalid customer id")
		}

		var customer models.Customer
		if err := database.DB.First(&customer, id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "customer not found")
		}

		var body CustomerRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}
		if body.Name != "" {
			customer.Name = body.Name
		}
		customer.Phone = body.Phone
		if body.Type != "" {
			customer.Type = body.Type
		}
		if !body.CreditLimit.IsNegative() {
			customer.CreditLimit = body.CreditLimit
		}

		if err := database.DB.Save(&customer).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "cannot update customer")
		}
		return c.JSON(customer)
	}
}

// -------------------------------------------------
// DELETE /api/customers/:id  (online-only, see offline.Guard in routing)
// -------------------------------------------------
func DeleteCustomerHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := auth.ActorFromCtx(c)
		if err != nil {
			return err
		}

		id, err := c.ParamsInt("id")
		if err != nil || id <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "invalid customer id")
		}

		var customer models.Customer
		if err := database.DB.First(&customer, id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "customer not found")
		}
		if !customer.Balance.IsZero() {
			return fiber.NewError(fiber.StatusConflict, "customer has an outstanding balance")
		}

		if err := database.DB.Delete(&customer).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "cannot delete customer")
		}

		audit.Record(actor.UserID, actor.Name, "customer_delete", "customer", customer.ID, customer.Name)
		return c.SendStatus(fiber.StatusNoContent)
	}
}

// -------------------------------------------------
// POST /api/customers/:id/settle-debt
// -------------------------------------------------
// Queueable: offline settlements reduce the local balance immediately and
// replay upstream later.
func SettleCustomerDebtHandler(queue *offline.Queue, monitor *offline.Monitor, mgr *offline.Manager) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := auth.ActorFromCtx(c)
		if err != nil {
			return err
		}

		id, err := c.ParamsInt("id")
		if err != nil || id <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "invalid customer id")
		}

		var body SettleDebtRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}
		if !body.Amount.IsPositive() {
			return fiber.NewError(fiber.StatusBadRequest, "amount must be positive")
		}
		if body.PaymentMethod == models.PayDeferred {
			return fiber.NewError(fiber.StatusBadRequest, "settlement cannot be deferred")
		}

		var customer models.Customer
		if err := database.DB.First(&customer, id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "customer not found")
		}
		if body.Amount.GreaterThan(customer.Balance) {
			return fiber.NewError(fiber.StatusBadRequest, "amount exceeds outstanding balance")
		}

		err = database.DB.Transaction(func(tx *gorm.DB) error {
			if err := tx.Model(&models.Customer{}).Where("id = ?", customer.ID).
				Update("balance", gorm.Expr("balance - ?", body.Amount)).Error; err != nil {
				return err
			}
			if monitor.Standalone() {
				return nil
			}
			_, err := queue.Enqueue(tx, models.OpDebtSettlement, settlementPayload{
				EntityType:    "customer",
				EntityID:      customer.ID,
				Amount:        body.Amount,
				PaymentMethod: body.PaymentMethod,
			}, "", nil)
			return err
		})
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "cannot settle debt")
		}

		mgr.Kick(context.Background())

		audit.Record(actor.UserID, actor.Name, "debt_settlement", "customer", customer.ID,
			"settled "+body.Amount.StringFixed(2))
		return c.JSON(fiber.Map{
			"settled":      true,
			"pending_sync": !monitor.Standalone() && !monitor.Online(),
		})
	}
}
