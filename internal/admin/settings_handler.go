package admin

import (
	"github.com/smsm300/fox-kiro-v5/internal/audit"
	"github.com/smsm300/fox-kiro-v5/internal/auth"
	"github.com/smsm300/fox-kiro-v5/internal/database"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

type SettingsRequest struct {
	CompanyName          *string          `json:"company_name"`
	CompanyPhone         *string          `json:"company_phone"`
	CompanyAddress       *string          `json:"company_address"`
	OpeningBalance       *decimal.Decimal `json:"opening_balance"`
	TaxRate              *decimal.Decimal `json:"tax_rate"`
	PreventNegativeStock *bool            `json:"prevent_negative_stock"`
	AutoPrint            *bool            `json:"auto_print"`
	InvoiceTerms         *string          `json:"invoice_terms"`
}

// -------------------------------------------------
// GET /api/settings
// -------------------------------------------------
func GetSettingsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		settings, err := database.LoadSettings(database.DB)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "cannot load settings")
		}
		return c.JSON(settings)
	}
}

// -------------------------------------------------
// PUT /api/settings
// -------------------------------------------------
func UpdateSettingsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := auth.ActorFromCtx(c)
		if err != nil {
			return err
		}

		var body SettingsRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}

		settings, err := database.LoadSettings(database.DB)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "cannot load settings")
		}

		if body.CompanyName != nil {
			settings.CompanyName = *body.CompanyName
		}
		if body.CompanyPhone != nil {
			settings.CompanyPhone = *body.CompanyPhone
		}
		if body.CompanyAddress != nil {
			settings.CompanyAddress = *body.CompanyAddress
		}
		if body.OpeningBalance != nil {
			settings.OpeningBalance = *body.OpeningBalance
		}
		if body.TaxRate != nil {
			if body.TaxRate.IsNegative() {
				return fiber.NewError(fiber.StatusBadRequest, "tax_rate must not be negative")
			}
			settings.TaxRate = *body.TaxRate
		}
		if body.PreventNegativeStock != nil {
			settings.PreventNegativeStock = *body.PreventNegativeStock
		}
		if body.AutoPrint != nil {
			settings.AutoPrint = *body.AutoPrint
		}
		if body.InvoiceTerms != nil {
			settings.InvoiceTerms = *body.InvoiceTerms
		}

		if err := database.DB.Save(&settings).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "cannot update settings")
		}

		audit.Record(actor.UserID, actor.Name, "settings_update", "settings", settings.ID, "")
		return c.JSON(settings)
	}
}
