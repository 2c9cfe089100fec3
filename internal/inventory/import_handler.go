package inventory

import (
	"strings"

	"github.com/smsm300/fox-kiro-v5/internal/audit"
	"github.com/smsm300/fox-kiro-v5/internal/auth"
	"github.com/smsm300/fox-kiro-v5/internal/database"
	"github.com/smsm300/fox-kiro-v5/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Expected columns: SKU | NAME | CATEGORY | UNIT | QUANTITY | COST | PRICE
// A header row is skipped when the first cell looks like a title.

type importResult struct {
	Imported int      `json:"imported"`
	Updated  int      `json:"updated"`
	Skipped  int      `json:"skipped"`
	Errors   []string `json:"errors,omitempty"`
}

// -------------------------------------------------
// POST /api/products/import  (multipart, field "file")
// -------------------------------------------------
func ImportProductsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := auth.ActorFromCtx(c)
		if err != nil {
			return err
		}

		fileHeader, err := c.FormFile("file")
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "missing file upload")
		}
		file, err := fileHeader.Open()
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "cannot open upload")
		}
		defer file.Close()

		excelFile, err := excelize.OpenReader(file)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "cannot read Excel file: "+err.Error())
		}
		defer excelFile.Close()

		sheets := excelFile.GetSheetList()
		if len(sheets) == 0 {
			return fiber.NewError(fiber.StatusBadRequest, "workbook has no sheets")
		}
		rows, err := excelFile.GetRows(sheets[0])
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "cannot read sheet: "+err.Error())
		}
		if len(rows) == 0 {
			return fiber.NewError(fiber.StatusBadRequest, "sheet is empty")
		}

		start := 0
		if first := strings.ToUpper(strings.TrimSpace(cell(rows[0], 0))); first == "SKU" || strings.Contains(first, "PRODUCT") {
			start = 1
		}

		result := importResult{}
		err = database.DB.Transaction(func(tx *gorm.DB) error {
			for i := start; i < len(rows); i++ {
				row := rows[i]
				sku := strings.TrimSpace(cell(row, 0))
				name := strings.TrimSpace(cell(row, 1))
				if sku == "" || name == "" {
					result.Skipped++
					continue
				}

				qty, err1 := parseDec(cell(row, 4))
				cost, err2 := parseDec(cell(row, 5))
				price, err3 := parseDec(cell(row, 6))
				if err1 != nil || err2 != nil || err3 != nil {
					result.Skipped++
					result.Errors = append(result.Errors, "row "+sku+": bad number")
					continue
				}

				unit := strings.TrimSpace(cell(row, 3))
				if unit == "" {
					unit = "piece"
				}

				p := models.Product{
					SKU:       sku,
					Name:      name,
					Category:  strings.TrimSpace(cell(row, 2)),
					Unit:      unit,
					Quantity:  qty,
					CostPrice: cost,
					SellPrice: price,
				}

				res := tx.Clauses(clause.OnConflict{
					Columns: []clause.Column{{Name: "sku"}},
					DoUpdates: clause.AssignmentColumns([]string{
						"name", "category", "unit", "cost_price", "sell_price",
					}),
				}).Create(&p)
				if res.Error != nil {
					return res.Error
				}
				result.Imported++
			}
			return nil
		})
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "import failed: "+err.Error())
		}

		audit.Record(actor.UserID, actor.Name, "product_import", "product", 0,
			fileHeader.Filename)
		return c.JSON(result)
	}
}

func cell(row []string, i int) string {
	if i < len(row) {
		return row[i]
	}
	return ""
}

func parseDec(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(strings.ReplaceAll(s, ",", "."))
	if s == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(s)
}
