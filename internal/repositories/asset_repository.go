package repositories

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/snig/folio/internal/db"
	apperrors "github.com/snig/folio/internal/errors"
	"github.com/snig/folio/internal/models"
)

type assetRepository struct {
	db *db.DB
}

// NewAssetRepository creates a new asset repository
func NewAssetRepository(database *db.DB) AssetRepository {
	return &assetRepository{db: database}
}

func (r *assetRepository) Create(ctx context.Context, asset *models.Asset) error {
	if err := asset.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}
	if asset.ID == "" {
		asset.ID = uuid.NewString()
	}

	if err := r.db.WithContext(ctx).Create(asset).Error; err != nil {
		return fmt.Errorf("failed to create asset: %w", err)
	}
	return nil
}

func (r *assetRepository) GetByID(ctx context.Context, id string) (*models.Asset, error) {
	var asset models.Asset
	if err := r.db.WithContext(ctx).First(&asset, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &apperrors.ErrNotFound{Entity: "asset", ID: id}
		}
		return nil, fmt.Errorf("failed to get asset: %w", err)
	}
	return &asset, nil
}

func (r *assetRepository) GetBySymbol(ctx context.Context, symbol string) (*models.Asset, error) {
	symbol = strings.ToUpper(symbol)

	var asset models.Asset
	if err := r.db.WithContext(ctx).First(&asset, "symbol = ?", symbol).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &apperrors.ErrNotFound{Entity: "asset", ID: symbol}
		}
		return nil, fmt.Errorf("failed to get asset: %w", err)
	}
	return &asset, nil
}

func (r *assetRepository) List(ctx context.Context, activeOnly bool) ([]*models.Asset, error) {
	query := r.db.WithContext(ctx)
	if activeOnly {
		query = query.Where("is_active = ?", true)
	}

	var assets []models.Asset
	if err := query.Order("symbol ASC").Find(&assets).Error; err != nil {
		return nil, fmt.Errorf("failed to list assets: %w", err)
	}

	result := make([]*models.Asset, len(assets))
	for i := range assets {
		result[i] = &assets[i]
	}
	return result, nil
}

func (r *assetRepository) Update(ctx context.Context, asset *models.Asset) error {
	if err := asset.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	if err := r.db.WithContext(ctx).Save(asset).Error; err != nil {
		return fmt.Errorf("failed to update asset: %w", err)
	}
	return nil
}
