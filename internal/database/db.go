package database

import (
	"fmt"

	"lokanta-backend/internal/config"
	"lokanta-backend/internal/models"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// Connect: Postgres bağlantısını açar ve şemayı migrate eder. Bağlantı
// global tutulmaz; çağıran taraf döneni servislere kendisi enjekte eder.
func Connect(cfg *config.Config) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(cfg.DatabaseDSN), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("veritabanına bağlanılamadı: %w", err)
	}

	if err := Migrate(db); err != nil {
		return nil, err
	}

	return db, nil
}

func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&models.MenuItem{},
		&models.StockRecord{},
		&models.Table{},
		&models.Reservation{},
		&models.Order{},
		&models.OrderLine{},
		&models.AuditLog{},
	)
	if err != nil {
		return fmt.Errorf("AutoMigrate hatası: %w", err)
	}
	return nil
}
