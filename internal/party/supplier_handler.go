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

type SupplierRequest struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
}

// -------------------------------------------------
// POST /api/suppliers
// -------------------------------------------------
func CreateSupplierHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := auth.ActorFromCtx(c)
		if err != nil {
			return err
		}

		var body SupplierRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}
		if body.Name == "" {
			return fiber.NewError(fiber.StatusBadRequest, "name is required")
		}

		supplier := models.Supplier{
			Name:    body.Name,
			Phone:   body.Phone,
			Balance: decimal.Zero,
		}
		if err := database.DB.Create(&supplier).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "cannot create supplier")
		}

		audit.Record(actor.UserID, actor.Name, "supplier_create", "supplier", supplier.ID, supplier.Name)
		return c.Status(fiber.StatusCreated).JSON(supplier)
	}
}

// -------------------------------------------------
// GET /api/suppliers?search=metro
// -------------------------------------------------
func ListSuppliersHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		dbq := database.DB.Model(&models.Supplier{})
		if search := c.Query("search"); search != "" {
			dbq = dbq.Where("name ILIKE ? OR phone ILIKE ?", "%"+search+"%", "%"+search+"%")
		}

		var suppliers []models.Supplier
		if err := dbq.Order("name asc").Find(&suppliers).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "cannot list suppliers")
		}
		return c.JSON(suppliers)
	}
}

// -------------------------------------------------
// PUT /api/suppliers/:id
// -------------------------------------------------
func UpdateSupplierHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := c.ParamsInt("id")
		if err != nil || id <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "invalid supplier id")
		}

		var supplier models.Supplier
		if err := database.DB.First(&supplier, id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "supplier not found")
		}

		var body SupplierRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}
		if body.Name != "" {
			supplier.Name = body.Name
		}
		supplier.Phone = body.Phone

		if err := database.DB.Save(&supplier).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "cannot update supplier")
		}
		return c.JSON(supplier)
	}
}

// -------------------------------------------------
// DELETE /api/suppliers/:id  (online-only, see offline.Guard in routing)
// -------------------------------------------------
func DeleteSupplierHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := auth.ActorFromCtx(c)
		if err != nil {
			return err
		}

		id, err := c.ParamsInt("id")
		if err != nil || id <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "invalid supplier id")
		}

		var supplier models.Supplier
		if err := database.DB.First(&supplier, id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "supplier not found")
		}
		if !supplier.Balance.IsZero() {
			return fiber.NewError(fiber.StatusConflict, "supplier has an outstanding balance")
		}

		if err := database.DB.Delete(&supplier).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "cannot delete supplier")
		}

		audit.Record(actor.UserID, actor.Name, "supplier_delete", "supplier", supplier.ID, supplier.Name)
		return c.SendStatus(fiber.StatusNoContent)
	}
}

// -------------------------------------------------
// POST /api/suppliers/:id/settle-debt
// -------------------------------------------------
func SettleSupplierDebtHandler(queue *offline.Queue, monitor *offline.Monitor, mgr *offline.Manager) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := auth.ActorFromCtx(c)
		if err != nil {
			return err
		}

		id, err := c.ParamsInt("id")
		if err != nil || id <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "invalid supplier id")
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

		var supplier models.Supplier
		if err := database.DB.First(&supplier, id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "supplier not found")
		}
		if body.Amount.GreaterThan(supplier.Balance) {
			return fiber.NewError(fiber.StatusBadRequest, "amount exceeds outstanding balance")
		}

		err = database.DB.Transaction(func(tx *gorm.DB) error {
			if err := tx.Model(&models.Supplier{}).Where("id = ?", supplier.ID).
				Update("balance", gorm.Expr("balance - ?", body.Amount)).Error; err != nil {
				return err
			}
			if monitor.Standalone() {
				return nil
			}
			_, err := queue.Enqueue(tx, models.OpDebtSettlement, settlementPayload{
				EntityType:    "supplier",
				EntityID:      supplier.ID,
				Amount:        body.Amount,
				PaymentMethod: body.PaymentMethod,
			}, "", nil)
			return err
		})
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "cannot settle debt")
		}

		mgr.Kick(context.Background())

		audit.Record(actor.UserID, actor.Name, "debt_settlement", "supplier", supplier.ID,
			"paid "+body.Amount.StringFixed(2))
		return c.JSON(fiber.Map{
			"settled":      true,
			"pending_sync": !monitor.Standalone() && !monitor.Online(),
		})
	}
}
