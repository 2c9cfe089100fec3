package models

import "time"

// ActivityLog is an append-only record of who did what. Never updated,
// never deleted.
type ActivityLog struct {
	ID         uint      `gorm:"primaryKey"`
	Date       time.Time `gorm:"index;not null"`
	UserID     uint      `gorm:"index"`
	UserName   string    `gorm:"size:100"` // denormalized
	Action     string    `gorm:"size:50;index;not null"`
	EntityType string    `gorm:"size:50;index"`
	EntityID   uint      `gorm:"index"`
	Details    string    `gorm:"size:500"`
	CreatedAt  time.Time
}
