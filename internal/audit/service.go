package audit

import (
	"time"

	"github.com/smsm300/fox-kiro-v5/internal/database"
	"github.com/smsm300/fox-kiro-v5/internal/logger"
	"github.com/smsm300/fox-kiro-v5/internal/models"
)

// Record appends one activity-log row. Log failures never fail the operation
// that triggered them; they are logged and dropped.
func Record(userID uint, userName, action, entityType string, entityID uint, details string) {
	entry := models.ActivityLog{
		Date:       time.Now(),
		UserID:     userID,
		UserName:   userName,
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		Details:    details,
	}
	if err := database.DB.Create(&entry).Error; err != nil {
		logger.L.Error("cannot write activity log",
			"action", action, "entity_type", entityType, "err", err)
	}
}
