package admin

import (
	"time"

	"github.com/smsm300/fox-kiro-v5/internal/audit"
	"github.com/smsm300/fox-kiro-v5/internal/auth"
	"github.com/smsm300/fox-kiro-v5/internal/database"
	"github.com/smsm300/fox-kiro-v5/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Backup is a full JSON dump of the store's business data. These endpoints
// are admin-only and routed behind the offline guard: they require upstream
// authority and are never queued.

type BackupPayload struct {
	CreatedAt    time.Time                `json:"created_at"`
	Settings     models.Settings          `json:"settings"`
	Products     []models.Product         `json:"products"`
	Customers    []models.Customer        `json:"customers"`
	Suppliers    []models.Supplier        `json:"suppliers"`
	Transactions []models.Transaction     `json:"transactions"`
	Items        []models.TransactionItem `json:"transaction_items"`
	Shifts       []models.Shift           `json:"shifts"`
	Quotations   []models.Quotation       `json:"quotations"`
}

// -------------------------------------------------
// GET /api/admin/backup
// -------------------------------------------------
func BackupHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := auth.ActorFromCtx(c)
		if err != nil {
			return err
		}

		payload := BackupPayload{CreatedAt: time.Now()}
		db := database.DB
		if err := db.First(&payload.Settings, 1).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "cannot dump settings")
		}
		for name, dest := range map[string]any{
			"products":     &payload.Products,
			"customers":    &payload.Customers,
			"suppliers":    &payload.Suppliers,
			"transactions": &payload.Transactions,
			"items":        &payload.Items,
			"shifts":       &payload.Shifts,
			"quotations":   &payload.Quotations,
		} {
			if err := db.Find(dest).Error; err != nil {
				return fiber.NewError(fiber.StatusInternalServerError, "cannot dump "+name)
			}
		}

		audit.Record(actor.UserID, actor.Name, "backup", "database", 0, "full backup exported")
		c.Set("Content-Disposition", "attachment; filename=backup-"+time.Now().Format("2006-01-02")+".json")
		return c.JSON(payload)
	}
}

// -------------------------------------------------
// POST /api/admin/restore
// -------------------------------------------------
// Replaces all business data with the uploaded dump. Destructive.
func RestoreHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := auth.ActorFromCtx(c)
		if err != nil {
			return err
		}

		var payload BackupPayload
		if err := c.BodyParser(&payload); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid backup payload")
		}

		err = database.DB.Transaction(func(tx *gorm.DB) error {
			for _, model := range []any{
				&models.TransactionItem{}, &models.Transaction{},
				&models.QuotationItem{}, &models.Quotation{},
				&models.Shift{}, &models.OutboxEntry{},
				&models.Product{}, &models.Customer{}, &models.Supplier{},
			} {
				if err := tx.Where("1 = 1").Delete(model).Error; err != nil {
					return err
				}
			}

			if payload.Settings.ID != 0 {
				if err := tx.Save(&payload.Settings).Error; err != nil {
					return err
				}
			}
			if len(payload.Products) > 0 {
				if err := tx.Create(&payload.Products).Error; err != nil {
					return err
				}
			}
			if len(payload.Customers) > 0 {
				if err := tx.Create(&payload.Customers).Error; err != nil {
					return err
				}
			}
			if len(payload.Suppliers) > 0 {
				if err := tx.Create(&payload.Suppliers).Error; err != nil {
					return err
				}
			}
			if len(payload.Shifts) > 0 {
				if err := tx.Create(&payload.Shifts).Error; err != nil {
					return err
				}
			}
			if len(payload.Transactions) > 0 {
				if err := tx.Create(&payload.Transactions).Error; err != nil {
					return err
				}
			}
			if len(payload.Items) > 0 {
				if err := tx.Create(&payload.Items).Error; err != nil {
					return err
				}
			}
			if len(payload.Quotations) > 0 {
				if err := tx.Create(&payload.Quotations).Error; err != nil {
					return err
				}
			}
			return nil
		})
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "restore failed: "+err.Error())
		}

		audit.Record(actor.UserID, actor.Name, "restore", "database", 0, "backup restored")
		return c.JSON(fiber.Map{"restored": true})
	}
}

// -------------------------------------------------
// POST /api/admin/factory-reset
// -------------------------------------------------
// Wipes all business data and resets settings to their defaults. User
// accounts survive so the admin can log back in.
func FactoryResetHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := auth.ActorFromCtx(c)
		if err != nil {
			return err
		}

		err = database.DB.Transaction(func(tx *gorm.DB) error {
			for _, model := range []any{
				&models.TransactionItem{}, &models.Transaction{},
				&models.QuotationItem{}, &models.Quotation{},
				&models.Shift{}, &models.OutboxEntry{},
				&models.Product{}, &models.Customer{}, &models.Supplier{},
				&models.ActivityLog{},
			} {
				if err := tx.Where("1 = 1").Delete(model).Error; err != nil {
					return err
				}
			}
			return tx.Save(&models.Settings{
				ID:                1,
				OpeningBalance:    decimal.Zero,
				TaxRate:           decimal.Zero,
				NextInvoiceNumber: 1,
			}).Error
		})
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "factory reset failed")
		}

		audit.Record(actor.UserID, actor.Name, "factory_reset", "database", 0,
			"all business data wiped, settings reset")
		return c.JSON(fiber.Map{"reset": true})
	}
}

// -------------------------------------------------
// POST /api/admin/clear-transactions
// -------------------------------------------------
// Wipes the ledger, shifts and outbox. Counterparty balances and stock levels
// are left as they stand; this is a bookkeeping reset, not a time machine.
func ClearTransactionsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := auth.ActorFromCtx(c)
		if err != nil {
			return err
		}

		err = database.DB.Transaction(func(tx *gorm.DB) error {
			for _, model := range []any{
				&models.TransactionItem{}, &models.Transaction{},
				&models.Shift{}, &models.OutboxEntry{},
			} {
				if err := tx.Where("1 = 1").Delete(model).Error; err != nil {
					return err
				}
			}
			return nil
		})
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "clear failed")
		}

		audit.Record(actor.UserID, actor.Name, "clear_transactions", "database", 0,
			"ledger, shifts and outbox wiped")
		return c.JSON(fiber.Map{"cleared": true})
	}
}
