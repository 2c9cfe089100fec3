package audit

import (
	"github.com/smsm300/fox-kiro-v5/internal/database"
	"github.com/smsm300/fox-kiro-v5/internal/models"

	"github.com/gofiber/fiber/v2"
)

// -------------------------------------------------
// GET /api/activity-logs?action=sale&user_id=3&limit=100
// -------------------------------------------------
func ListHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		dbq := database.DB.Model(&models.ActivityLog{})

		if action := c.Query("action"); action != "" {
			dbq = dbq.Where("action = ?", action)
		}
		if userID := c.QueryInt("user_id"); userID > 0 {
			dbq = dbq.Where("user_id = ?", userID)
		}

		limit := c.QueryInt("limit", 200)
		if limit <= 0 || limit > 1000 {
			limit = 200
		}

		var logs []models.ActivityLog
		if err := dbq.Order("date desc, id desc").Limit(limit).Find(&logs).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "cannot list activity logs")
		}
		return c.JSON(logs)
	}
}
