package database

import (
	"log"

	"github.com/smsm300/fox-kiro-v5/internal/config"
	"github.com/smsm300/fox-kiro-v5/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var DB *gorm.DB

func Init(cfg *config.Config) {
	var err error

	DB, err = gorm.Open(postgres.Open(cfg.DatabaseDSN), &gorm.Config{})
	if err != nil {
		log.Fatalf("cannot connect to database: %v", err)
	}

	err = DB.AutoMigrate(
		&models.User{},
		&models.Settings{},
		&models.Product{},
		&models.Customer{},
		&models.Supplier{},
		&models.Transaction{},
		&models.TransactionItem{},
		&models.Shift{},
		&models.Quotation{},
		&models.QuotationItem{},
		&models.OutboxEntry{},
		&models.ActivityLog{},
	)
	if err != nil {
		log.Fatalf("AutoMigrate failed: %v", err)
	}

	seedSettings()

	log.Println("database connected, migration complete")
}

// seedSettings guarantees the single settings row exists.
func seedSettings() {
	var count int64
	DB.Model(&models.Settings{}).Count(&count)
	if count == 0 {
		if err := DB.Create(&models.Settings{
			ID:                1,
			OpeningBalance:    decimal.Zero,
			TaxRate:           decimal.Zero,
			NextInvoiceNumber: 1,
		}).Error; err != nil {
			log.Fatalf("cannot seed settings row: %v", err)
		}
	}
}

// LoadSettings reads the single settings row.
func LoadSettings(db *gorm.DB) (models.Settings, error) {
	var s models.Settings
	err := db.First(&s, "id = ?", 1).Error
	return s, err
}
