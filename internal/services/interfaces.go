package services

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/snig/folio/internal/models"
)

// PortfolioService defines the interface for portfolio operations
type PortfolioService interface {
	CreatePortfolio(ctx context.Context, userID, name string, initialCash decimal.Decimal) (*models.Portfolio, error)
	GetPortfolio(ctx context.Context, id string) (*models.Portfolio, error)
	ListPortfolios(ctx context.Context, userID string) ([]*models.Portfolio, error)
	// GetValue recomputes the portfolio total from live asset prices; the
	// stored total is only a cache.
	GetValue(ctx context.Context, id string) (decimal.Decimal, error)
	GetPerformance(ctx context.Context, id string) (*models.PortfolioPerformance, error)
	// AdjustCash deposits (positive amount) or withdraws (negative amount)
	// cash, serialized against concurrent mutations of the same portfolio.
	AdjustCash(ctx context.Context, id string, amount decimal.Decimal, reason string) (*models.Portfolio, error)
	ListPositions(ctx context.Context, portfolioID string, activeOnly bool) ([]*models.Position, error)
}

// TransactionService defines the interface for transaction operations
type TransactionService interface {
	CreateTransaction(ctx context.Context, tx *models.Transaction) error
	GetTransaction(ctx context.Context, id string) (*models.Transaction, error)
	ListTransactions(ctx context.Context, filter *models.TransactionFilter) ([]*models.Transaction, error)
	// Execute applies the transaction's position and cash effects
	// atomically. A transaction whose effects cannot be applied ends
	// FAILED with portfolio and position state untouched.
	Execute(ctx context.Context, id string) (*models.Transaction, error)
	Cancel(ctx context.Context, id string) (*models.Transaction, error)
	Fail(ctx context.Context, id string, reason string) (*models.Transaction, error)
}

// AssetService defines the interface for asset reference data operations
type AssetService interface {
	CreateAsset(ctx context.Context, asset *models.Asset) error
	GetAsset(ctx context.Context, id string) (*models.Asset, error)
	GetAssetBySymbol(ctx context.Context, symbol string) (*models.Asset, error)
	ListAssets(ctx context.Context, activeOnly bool) ([]*models.Asset, error)
	// UpdatePrice is the entry point for the external price feed. It
	// shifts current price to previous close and revalues every position
	// holding the asset.
	UpdatePrice(ctx context.Context, id string, newPrice decimal.Decimal) (*models.Asset, error)
}

// UserService defines the interface for user operations
type UserService interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUser(ctx context.Context, id string) (*models.User, error)
}
