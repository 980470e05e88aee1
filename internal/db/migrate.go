package db

import (
	"fmt"

	"github.com/zulandar/shovo/internal/models"
	"github.com/zulandar/shovo/internal/position"
	"gorm.io/gorm"
)

// AllModels returns every GORM model managed by shovo.
func AllModels() []interface{} {
	return []interface{}{
		&models.ListItem{},
		&models.RatingCache{},
		&models.MetadataCache{},
	}
}

// AutoMigrate creates or updates all tables.
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(AllModels()...); err != nil {
		return fmt.Errorf("db: auto-migrate: %w", err)
	}
	return nil
}

// Migrate brings a store of any age up to the current schema. Lists created
// before ordering existed get every room renumbered by insertion order; later
// stores only have their unpositioned items appended. A position of 0 is a
// legacy placeholder and is treated as unset.
func Migrate(db *gorm.DB) error {
	m := db.Migrator()
	hadPosition := !m.HasTable(&models.ListItem{}) || m.HasColumn(&models.ListItem{}, "Position")

	if err := AutoMigrate(db); err != nil {
		return err
	}

	if err := db.Model(&models.ListItem{}).
		Where("watched IS NULL").
		Update("watched", false).Error; err != nil {
		return fmt.Errorf("db: migrate watched: %w", err)
	}

	if !hadPosition {
		if _, err := position.BackfillAll(db, true); err != nil {
			return fmt.Errorf("db: migrate: %w", err)
		}
		return nil
	}

	if err := db.Model(&models.ListItem{}).
		Where("position = ?", 0).
		Update("position", nil).Error; err != nil {
		return fmt.Errorf("db: migrate position: %w", err)
	}
	if _, err := position.BackfillAll(db, false); err != nil {
		return fmt.Errorf("db: migrate: %w", err)
	}
	return nil
}
