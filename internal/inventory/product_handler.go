package inventory

import (
	"github.com/smsm300/fox-kiro-v5/internal/audit"
	"github.com/smsm300/fox-kiro-v5/internal/auth"
	"github.com/smsm300/fox-kiro-v5/internal/database"
	"github.com/smsm300/fox-kiro-v5/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

type ProductRequest struct {
	SKU           string          `json:"sku"`
	Name          string          `json:"name"`
	Category      string          `json:"category"`
	Unit          string          `json:"unit"`
	Quantity      decimal.Decimal `json:"quantity"`
	CostPrice     decimal.Decimal `json:"cost_price"`
	SellPrice     decimal.Decimal `json:"sell_price"`
	MinStockAlert decimal.Decimal `json:"min_stock_alert"`
	Barcode       string          `json:"barcode"`
}

// -------------------------------------------------
// POST /api/products
// -------------------------------------------------
func CreateProductHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := auth.ActorFromCtx(c)
		if err != nil {
			return err
		}

		var body ProductRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}
		if body.Name == "" || body.SKU == "" {
			return fiber.NewError(fiber.StatusBadRequest, "name and sku are required")
		}
		if body.CostPrice.IsNegative() || body.SellPrice.IsNegative() {
			return fiber.NewError(fiber.StatusBadRequest, "prices must not be negative")
		}
		if body.Unit == "" {
			body.Unit = "piece"
		}

		p := models.Product{
			SKU:           body.SKU,
			Name:          body.Name,
			Category:      body.Category,
			Unit:          body.Unit,
			Quantity:      body.Quantity,
			CostPrice:     body.CostPrice,
			SellPrice:     body.SellPrice,
			MinStockAlert: body.MinStockAlert,
			Barcode:       body.Barcode,
		}
		if err := database.DB.Create(&p).Error; err != nil {
			return fiber.NewError(fiber.StatusConflict, "cannot create product (duplicate sku?)")
		}

		audit.Record(actor.UserID, actor.Name, "product_create", "product", p.ID, p.Name)
		return c.Status(fiber.StatusCreated).JSON(p)
	}
}

// -------------------------------------------------
// GET /api/products?category=drinks&search=cola&low_stock=1
// -------------------------------------------------
func ListProductsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		dbq := database.DB.Model(&models.Product{})

		if category := c.Query("category"); category != "" {
			dbq = dbq.Where("category = ?", category)
		}
		if search := c.Query("search"); search != "" {
			like := "%" + search + "%"
			dbq = dbq.Where("name ILIKE ? OR sku ILIKE ? OR barcode ILIKE ?", like, like, like)
		}
		if c.QueryBool("low_stock") {
			dbq = dbq.Where("quantity <= min_stock_alert")
		}

		var products []models.Product
		if err := dbq.Order("name asc").Find(&products).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "cannot list products")
		}
		return c.JSON(products)
	}
}

// -------------------------------------------------
// PUT /api/products/:id
// -------------------------------------------------
func UpdateProductHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := c.ParamsInt("id")
		if err != nil || id <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "invalid product id")
		}

		var p models.Product
		if err := database.DB.First(&p, id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "product not found")
		}

		var body ProductRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}
		if body.Name != "" {
			p.Name = body.Name
		}
		if body.SKU != "" {
			p.SKU = body.SKU
		}
		if body.Unit != "" {
			p.Unit = body.Unit
		}
		p.Category = body.Category
		p.Barcode = body.Barcode
		if !body.CostPrice.IsNegative() {
			p.CostPrice = body.CostPrice
		}
		if !body.SellPrice.IsNegative() {
			p.SellPrice = body.SellPrice
		}
		if !body.MinStockAlert.IsNegative() {
			p.MinStockAlert = body.MinStockAlert
		}
		// Quantity is deliberately not editable here; stock moves through
		// sales, purchases, returns and adjustments only.

		if err := database.DB.Save(&p).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "cannot update product")
		}
		return c.JSON(p)
	}
}

// -------------------------------------------------
// DELETE /api/products/:id  (online-only, see offline.Guard in routing)
// -------------------------------------------------
func DeleteProductHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := auth.ActorFromCtx(c)
		if err != nil {
			return err
		}

		id, err := c.ParamsInt("id")
		if err != nil || id <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "invalid product id")
		}

		var p models.Product
		if err := database.DB.First(&p, id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "product not found")
		}

		var used int64
		database.DB.Model(&models.TransactionItem{}).Where("product_id = ?", p.ID).Count(&used)
		if used > 0 {
			return fiber.NewError(fiber.StatusConflict, "product appears in transactions")
		}

		if err := database.DB.Delete(&p).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "cannot delete product")
		}

		audit.Record(actor.UserID, actor.Name, "product_delete", "product", p.ID, p.Name)
		return c.SendStatus(fiber.StatusNoContent)
	}
}
