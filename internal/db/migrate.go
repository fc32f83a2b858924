package db

import (
	"fmt"

	"github.com/snig/folio/internal/models"
)

// Migrate creates or updates the schema for every model.
func Migrate(database *DB) error {
	if err := database.AutoMigrate(
		&models.User{},
		&models.Asset{},
		&models.Portfolio{},
		&models.Position{},
		&models.Transaction{},
	); err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}
	return nil
}
