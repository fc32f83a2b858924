package services

import (
	"context"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/snig/folio/internal/db"
	"github.com/snig/folio/internal/models"
	"github.com/snig/folio/internal/repositories"
)

// assetService implements the AssetService interface
type assetService struct {
	db        *db.DB
	logger    *zap.Logger
	assets    repositories.AssetRepository
	positions repositories.PositionRepository
}

// NewAssetService creates a new asset service
func NewAssetService(database *db.DB, logger *zap.Logger) AssetService {
	return &assetService{
		db:        database,
		logger:    logger,
		assets:    repositories.NewAssetRepository(database),
		positions: repositories.NewPositionRepository(database),
	}
}

func (s *assetService) CreateAsset(ctx context.Context, asset *models.Asset) error {
	if err := s.assets.Create(ctx, asset); err != nil {
		return err
	}

	s.logger.Info("asset created",
		zap.String("asset_id", asset.ID),
		zap.String("symbol", asset.Symbol),
		zap.String("type", string(asset.Type)))
	return nil
}

func (s *assetService) GetAsset(ctx context.Context, id string) (*models.Asset, error) {
	return s.assets.GetByID(ctx, id)
}

func (s *assetService) GetAssetBySymbol(ctx context.Context, symbol string) (*models.Asset, error) {
	return s.assets.GetBySymbol(ctx, symbol)
}

func (s *assetService) ListAssets(ctx context.Context, activeOnly bool) ([]*models.Asset, error) {
	return s.assets.List(ctx, activeOnly)
}

// UpdatePrice applies a price tick from the external feed and revalues every
// position holding the asset at the new price.
func (s *assetService) UpdatePrice(ctx context.Context, id string, newPrice decimal.Decimal) (*models.Asset, error) {
	asset, err := s.assets.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := asset.UpdatePrice(newPrice); err != nil {
		return nil, err
	}
	if err := s.assets.Update(ctx, asset); err != nil {
		return nil, err
	}

	positions, err := s.positions.ListByAsset(ctx, id)
	if err != nil {
		return nil, err
	}
	for _, pos := range positions {
		pos.UpdateCurrentValue(asset.CurrentPrice)
		if err := s.positions.Update(ctx, pos); err != nil {
			return nil, err
		}
	}

	s.logger.Debug("price updated",
		zap.String("symbol", asset.Symbol),
		zap.String("price", newPrice.String()),
		zap.Int("positions_revalued", len(positions)))
	return asset, nil
}
