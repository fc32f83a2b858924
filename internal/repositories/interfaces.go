package repositories

import (
	"context"

	"gorm.io/gorm"

	"github.com/snig/folio/internal/models"
)

// UserRepository defines the interface for user data operations
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
}

// AssetRepository defines the interface for asset data operations
type AssetRepository interface {
	Create(ctx context.Context, asset *models.Asset) error
	GetByID(ctx context.Context, id string) (*models.Asset, error)
	GetBySymbol(ctx context.Context, symbol string) (*models.Asset, error)
	List(ctx context.Context, activeOnly bool) ([]*models.Asset, error)
	Update(ctx context.Context, asset *models.Asset) error
}

// PortfolioRepository defines the interface for portfolio data operations
type PortfolioRepository interface {
	Create(ctx context.Context, portfolio *models.Portfolio) error
	GetByID(ctx context.Context, id string) (*models.Portfolio, error)
	// GetForUpdate loads the portfolio with a row lock inside the given
	// database transaction. This is the per-portfolio serialization point
	// for concurrent cash mutations.
	GetForUpdate(ctx context.Context, tx *gorm.DB, id string) (*models.Portfolio, error)
	ListByUser(ctx context.Context, userID string) ([]*models.Portfolio, error)
	Update(ctx context.Context, portfolio *models.Portfolio) error
	Save(tx *gorm.DB, portfolio *models.Portfolio) error
}

// PositionRepository defines the interface for position data operations
type PositionRepository interface {
	Create(ctx context.Context, position *models.Position) error
	GetByID(ctx context.Context, id string) (*models.Position, error)
	GetByPortfolioAndAsset(ctx context.Context, portfolioID, assetID string) (*models.Position, error)
	GetByPortfolioAndAssetTx(tx *gorm.DB, portfolioID, assetID string) (*models.Position, error)
	// List returns the portfolio's positions; activeOnly excludes closed
	// (zero quantity) records.
	List(ctx context.Context, portfolioID string, activeOnly bool) ([]*models.Position, error)
	ListByAsset(ctx context.Context, assetID string) ([]*models.Position, error)
	Update(ctx context.Context, position *models.Position) error
	Save(tx *gorm.DB, position *models.Position) error
}

// TransactionRepository defines the interface for transaction data operations
type TransactionRepository interface {
	Create(ctx context.Context, tx *models.Transaction) error
	GetByID(ctx context.Context, id string) (*models.Transaction, error)
	// GetByIDTx re-reads the transaction inside an existing database
	// transaction, after the portfolio row lock is held.
	GetByIDTx(dbTx *gorm.DB, id string) (*models.Transaction, error)
	List(ctx context.Context, filter *models.TransactionFilter) ([]*models.Transaction, error)
	Update(ctx context.Context, tx *models.Transaction) error
	Save(dbTx *gorm.DB, tx *models.Transaction) error
}
