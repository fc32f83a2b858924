package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/snig/folio/internal/db"
	apperrors "github.com/snig/folio/internal/errors"
	"github.com/snig/folio/internal/models"
)

type positionRepository struct {
	db *db.DB
}

// NewPositionRepository creates a new position repository
func NewPositionRepository(database *db.DB) PositionRepository {
	return &positionRepository{db: database}
}

func (r *positionRepository) Create(ctx context.Context, position *models.Position) error {
	if position.PortfolioID == "" {
		return &apperrors.ErrValidation{Field: "portfolio_id", Message: "is required"}
	}
	if position.AssetID == "" {
		return &apperrors.ErrValidation{Field: "asset_id", Message: "is required"}
	}
	if position.ID == "" {
		position.ID = uuid.NewString()
	}

	if err := r.db.WithContext(ctx).Create(position).Error; err != nil {
		return fmt.Errorf("failed to create position: %w", err)
	}
	return nil
}

func (r *positionRepository) GetByID(ctx context.Context, id string) (*models.Position, error) {
	var position models.Position
	if err := r.db.WithContext(ctx).First(&position, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &apperrors.ErrNotFound{Entity: "position", ID: id}
		}
		return nil, fmt.Errorf("failed to get position: %w", err)
	}
	return &position, nil
}

func (r *positionRepository) GetByPortfolioAndAsset(ctx context.Context, portfolioID, assetID string) (*models.Position, error) {
	return r.getByPortfolioAndAsset(r.db.WithContext(ctx), portfolioID, assetID)
}

// GetByPortfolioAndAssetTx is the transactional variant used during
// transaction execution.
func (r *positionRepository) GetByPortfolioAndAssetTx(tx *gorm.DB, portfolioID, assetID string) (*models.Position, error) {
	return r.getByPortfolioAndAsset(tx, portfolioID, assetID)
}

func (r *positionRepository) getByPortfolioAndAsset(query *gorm.DB, portfolioID, assetID string) (*models.Position, error) {
	var position models.Position
	err := query.First(&position, "portfolio_id = ? AND asset_id = ?", portfolioID, assetID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &apperrors.ErrNotFound{Entity: "position", ID: portfolioID + "/" + assetID}
		}
		return nil, fmt.Errorf("failed to get position: %w", err)
	}
	return &position, nil
}

func (r *positionRepository) List(ctx context.Context, portfolioID string, activeOnly bool) ([]*models.Position, error) {
	query := r.db.WithContext(ctx).Where("portfolio_id = ?", portfolioID)
	if activeOnly {
		// Closed positions stay on record with zero quantity
		query = query.Where("quantity > 0")
	}

	var positions []models.Position
	if err := query.Order("created_at ASC").Find(&positions).Error; err != nil {
		return nil, fmt.Errorf("failed to list positions: %w", err)
	}

	result := make([]*models.Position, len(positions))
	for i := range positions {
		result[i] = &positions[i]
	}
	return result, nil
}

func (r *positionRepository) ListByAsset(ctx context.Context, assetID string) ([]*models.Position, error) {
	var positions []models.Position
	if err := r.db.WithContext(ctx).
		Where("asset_id = ?", assetID).
		Find(&positions).Error; err != nil {
		return nil, fmt.Errorf("failed to list positions by asset: %w", err)
	}

	result := make([]*models.Position, len(positions))
	for i := range positions {
		result[i] = &positions[i]
	}
	return result, nil
}

func (r *positionRepository) Update(ctx context.Context, position *models.Position) error {
	if err := r.db.WithContext(ctx).Save(position).Error; err != nil {
		return fmt.Errorf("failed to update position: %w", err)
	}
	return nil
}

// Save persists the position inside an existing database transaction,
// assigning an ID when the position was created during execution.
func (r *positionRepository) Save(tx *gorm.DB, position *models.Position) error {
	if position.ID == "" {
		position.ID = uuid.NewString()
	}
	if err := tx.Save(position).Error; err != nil {
		return fmt.Errorf("failed to save position: %w", err)
	}
	return nil
}
