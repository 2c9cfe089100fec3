package treasury

import (
	"github.com/smsm300/fox-kiro-v5/internal/database"
	"github.com/smsm300/fox-kiro-v5/internal/models"

	"github.com/gofiber/fiber/v2"
)

// -------------------------------------------------
// GET /api/treasury/summary
// -------------------------------------------------
func SummaryHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		settings, err := database.LoadSettings(database.DB)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "cannot load settings")
		}

		var txs []models.Transaction
		if err := database.DB.Order("date asc, id asc").Find(&txs).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "cannot load transactions")
		}

		var customers []models.Customer
		if err := database.DB.Select("id").Find(&customers).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "cannot load customers")
		}

		summary := ComputeBalance(txs, CustomerIDSet(customers), settings.OpeningBalance)

		return c.JSON(fiber.Map{
			"opening_balance": settings.OpeningBalance,
			"balance":         summary.Balance,
			"total_income":    summary.TotalIncome,
			"total_expenses":  summary.TotalExpenses,
			"net_flow":        summary.NetFlow,
		})
	}
}
