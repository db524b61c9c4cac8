package database

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/strivetech/saiplatform/internal/models"
)

// Models lists every persistent model in migration order.
func Models() []interface{} {
	return []interface{}{
		&models.Organization{},
		&models.User{},
		&models.OrganizationMember{},
		&models.Subscription{},
		&models.Customer{},
		&models.Project{},
		&models.Task{},
		&models.ActivityLog{},
		&models.CacheEntry{},
	}
}

// AutoMigrate creates or updates the database schema for all models.
func AutoMigrate(db *gorm.DB) error {
	if db == nil {
		return errors.New("nil database handle")
	}
	if err := db.AutoMigrate(Models()...); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return nil
}
