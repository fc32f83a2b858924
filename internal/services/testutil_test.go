package services

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/snig/folio/internal/db"
	"github.com/snig/folio/internal/models"
	"github.com/snig/folio/internal/repositories"
)

// setupTestDB opens an in-memory database with a fresh schema.
func setupTestDB(t *testing.T) *db.DB {
	t.Helper()

	database, err := db.ConnectSQLite()
	require.NoError(t, err)
	require.NoError(t, db.Migrate(database))

	t.Cleanup(func() { _ = database.Close() })
	return database
}

func seedUser(t *testing.T, database *db.DB) *models.User {
	t.Helper()

	user := &models.User{Username: "trader", Email: "trader@example.com"}
	require.NoError(t, repositories.NewUserRepository(database).Create(context.Background(), user))
	return user
}

func seedAsset(t *testing.T, database *db.DB, symbol string, assetType models.AssetType, price decimal.Decimal) *models.Asset {
	t.Helper()

	asset := models.NewAsset(symbol, symbol+" Test Asset", assetType, price)
	require.NoError(t, repositories.NewAssetRepository(database).Create(context.Background(), asset))
	return asset
}

func seedPortfolio(t *testing.T, database *db.DB, userID string, initialCash decimal.Decimal) *models.Portfolio {
	t.Helper()

	portfolio := models.NewPortfolio(userID, "Test Portfolio", initialCash)
	require.NoError(t, repositories.NewPortfolioRepository(database).Create(context.Background(), portfolio))
	return portfolio
}

func testLogger() *zap.Logger {
	return zap.NewNop()
}
