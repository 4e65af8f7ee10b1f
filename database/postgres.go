package database

import (
	"log"

	"penaltybox-backend/config"
	"penaltybox-backend/models"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func Connect(cfg *config.Config) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(cfg.DatabaseURL), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, err
	}

	log.Println("✅ Database connected successfully")

	if err := Migrate(db); err != nil {
		return nil, err
	}

	log.Println("✅ Database migrated successfully")
	return db, nil
}

// Migrate creates or updates the schema for every persisted entity,
// including the user_groups, penalty_payments and background_tasks tables.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.Group{},
		&models.GroupMember{},
		&models.Rule{},
		&models.Penalty{},
		&models.Proof{},
		&models.Payment{},
		&models.PenaltyPayment{},
		&models.BackgroundTask{},
	)
}
