package db

import (
	"fmt"
	"log"

	"go_subdns/internal/model"

	"gorm.io/gorm"
)

// Models lists every table managed by AutoMigrate
func Models() []interface{} {
	return []interface{}{
		&model.User{},
		&model.DNSProvider{},
		&model.DNSAccount{},
		&model.AvailableDomain{},
		&model.Domain{},
		&model.BlockedSubdomain{},
		&model.InviteCode{},
		&model.SystemSetting{},
		&model.APILog{},
	}
}

// Migrate runs database migrations for all models
func Migrate(db *gorm.DB) error {
	log.Println("Starting database migration...")

	models := Models()
	if err := db.AutoMigrate(models...); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	log.Printf("✓ Database migration completed successfully (%d tables)", len(models))
	return nil
}
