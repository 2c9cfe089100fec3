package reports

import (
	"fmt"
	"time"

	"github.com/smsm300/fox-kiro-v5/internal/database"
	"github.com/smsm300/fox-kiro-v5/internal/models"
	"github.com/smsm300/fox-kiro-v5/internal/treasury"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

type MonthlySummaryResponse struct {
	Year          int                        `json:"year"`
	Month         int                        `json:"month"`
	TotalsByType  map[string]decimal.Decimal `json:"totals_by_type"`
	SalesByMethod map[string]decimal.Decimal `json:"sales_by_method"`
	TotalIncome   decimal.Decimal            `json:"total_income"`
	TotalExpenses decimal.Decimal            `json:"total_expenses"`
	NetFlow       decimal.Decimal            `json:"net_flow"`
}

// -------------------------------------------------
// GET /api/reports/monthly?year=2026&month=8
// -------------------------------------------------
func MonthlyHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		now := time.Now()
		year := c.QueryInt("year", now.Year())
		month := c.QueryInt("month", int(now.Month()))
		if month < 1 || month > 12 {
			return fiber.NewError(fiber.StatusBadRequest, "month must be 1-12")
		}

		start := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.Local)
		end := start.AddDate(0, 1, 0)

		var txs []models.Transaction
		if err := database.DB.
			Where("date >= ? AND date < ?", start, end).
			Order("date asc, id asc").
			Find(&txs).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "cannot load transactions")
		}

		var customers []models.Customer
		if err := database.DB.Select("id").Find(&customers).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "cannot load customers")
		}

		summary := treasury.ComputeBalance(txs, treasury.CustomerIDSet(customers), decimal.Zero)

		totalsByType := map[string]decimal.Decimal{}
		salesByMethod := map[string]decimal.Decimal{}
		for _, t := range txs {
			if t.Status != models.TxCompleted {
				continue
			}
			totalsByType[string(t.Type)] = totalsByType[string(t.Type)].Add(t.Amount)
			if t.Type == models.TxSale {
				salesByMethod[string(t.PaymentMethod)] = salesByMethod[string(t.PaymentMethod)].Add(t.Amount)
			}
		}

		return c.JSON(MonthlySummaryResponse{
			Year:          year,
			Month:         month,
			TotalsByType:  totalsByType,
			SalesByMethod: salesByMethod,
			TotalIncome:   summary.TotalIncome,
			TotalExpenses: summary.TotalExpenses,
			NetFlow:       summary.NetFlow,
		})
	}
}

// -------------------------------------------------
// GET /api/reports/daily?date=2026-08-31
// -------------------------------------------------
func DailyHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		dateStr := c.Query("date")
		var day time.Time
		if dateStr == "" {
			now := time.Now()
			day = time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
		} else {
			parsed, err := time.Parse("2006-01-02", dateStr)
			if err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "invalid date, want YYYY-MM-DD")
			}
			day = parsed
		}

		var txs []models.Transaction
		if err := database.DB.
			Where("date >= ? AND date < ?", day, day.AddDate(0, 0, 1)).
			Find(&txs).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "cannot load transactions")
		}

		var customers []models.Customer
		if err := database.DB.Select("id").Find(&customers).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "cannot load customers")
		}

		summary := treasury.ComputeBalance(txs, treasury.CustomerIDSet(customers), decimal.Zero)
		return c.JSON(fiber.Map{
			"date":           day.Format("2006-01-02"),
			"total_income":   summary.TotalIncome,
			"total_expenses": summary.TotalExpenses,
			"net_flow":       summary.NetFlow,
			"transactions":   len(txs),
		})
	}
}

// -------------------------------------------------
// GET /api/reports/export?from=2026-08-01&to=2026-08-31
// -------------------------------------------------
func ExportHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		dbq := database.DB.Model(&models.Transaction{})
		if from := c.Query("from"); from != "" {
			dbq = dbq.Where("date >= ?", from)
		}
		if to := c.Query("to"); to != "" {
			dbq = dbq.Where("date <= ?", to)
		}

		var txs []models.Transaction
		if err := dbq.Order("date asc, id asc").Find(&txs).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "cannot load transactions")
		}

		buf, err := buildLedgerWorkbook(txs)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "cannot build workbook: "+err.Error())
		}

		filename := fmt.Sprintf("ledger-%s.xlsx", time.Now().Format("2006-01-02"))
		c.Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		c.Set("Content-Disposition", "attachment; filename="+filename)
		return c.Send(buf)
	}
}
