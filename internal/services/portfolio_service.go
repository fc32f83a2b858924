package services

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/snig/folio/internal/db"
	apperrors "github.com/snig/folio/internal/errors"
	"github.com/snig/folio/internal/models"
	"github.com/snig/folio/internal/repositories"
)

// portfolioService implements the PortfolioService interface
type portfolioService struct {
	db         *db.DB
	logger     *zap.Logger
	users      repositories.UserRepository
	portfolios repositories.PortfolioRepository
	positions  repositories.PositionRepository
	assets     repositories.AssetRepository
}

// NewPortfolioService creates a new portfolio service
func NewPortfolioService(database *db.DB, logger *zap.Logger) PortfolioService {
	return &portfolioService{
		db:         database,
		logger:     logger,
		users:      repositories.NewUserRepository(database),
		portfolios: repositories.NewPortfolioRepository(database),
		positions:  repositories.NewPositionRepository(database),
		assets:     repositories.NewAssetRepository(database),
	}
}

func (s *portfolioService) CreatePortfolio(ctx context.Context, userID, name string, initialCash decimal.Decimal) (*models.Portfolio, error) {
	if initialCash.IsNegative() {
		return nil, &apperrors.ErrValidation{Field: "initial_cash", Message: "cannot be negative"}
	}

	// Owner must exist before a portfolio can be attached to it
	if _, err := s.users.GetByID(ctx, userID); err != nil {
		return nil, err
	}

	portfolio := models.NewPortfolio(userID, name, initialCash)
	if err := s.portfolios.Create(ctx, portfolio); err != nil {
		return nil, err
	}

	s.logger.Info("portfolio created",
		zap.String("portfolio_id", portfolio.ID),
		zap.String("user_id", userID),
		zap.String("initial_cash", initialCash.StringFixed(2)))
	return portfolio, nil
}

func (s *portfolioService) GetPortfolio(ctx context.Context, id string) (*models.Portfolio, error) {
	return s.portfolios.GetByID(ctx, id)
}

func (s *portfolioService) ListPortfolios(ctx context.Context, userID string) ([]*models.Portfolio, error) {
	return s.portfolios.ListByUser(ctx, userID)
}

// GetValue revalues every open position at its asset's current price, sums
// them with cash, refreshes the cached total and returns it.
func (s *portfolioService) GetValue(ctx context.Context, id string) (decimal.Decimal, error) {
	portfolio, err := s.portfolios.GetByID(ctx, id)
	if err != nil {
		return decimal.Zero, err
	}

	positionsValue, err := s.revaluePositions(ctx, id)
	if err != nil {
		return decimal.Zero, err
	}

	portfolio.UpdateTotalValue(positionsValue)
	if err := s.portfolios.Update(ctx, portfolio); err != nil {
		return decimal.Zero, err
	}
	return portfolio.TotalValue, nil
}

func (s *portfolioService) GetPerformance(ctx context.Context, id string) (*models.PortfolioPerformance, error) {
	portfolio, err := s.portfolios.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	positionsValue, err := s.revaluePositions(ctx, id)
	if err != nil {
		return nil, err
	}
	portfolio.UpdateTotalValue(positionsValue)

	all, err := s.positions.List(ctx, id, false)
	if err != nil {
		return nil, err
	}

	realized := decimal.Zero
	unrealized := decimal.Zero
	active := 0
	for _, pos := range all {
		realized = realized.Add(pos.RealizedGainLoss)
		unrealized = unrealized.Add(pos.UnrealizedGainLoss)
		if pos.HasShares() {
			active++
		}
	}

	return &models.PortfolioPerformance{
		PortfolioID:      portfolio.ID,
		CurrentValue:     portfolio.TotalValue,
		CashBalance:      portfolio.CashBalance,
		InitialCash:      portfolio.InitialCash,
		TotalReturn:      portfolio.TotalProfitLoss(),
		ReturnPercentage: portfolio.ReturnPercentage(),
		CashAllocation:   portfolio.CashAllocationPercent(),
		RealizedGainLoss: realized,
		UnrealizedGain:   unrealized,
		PositionCount:    active,
	}, nil
}

// AdjustCash deposits or withdraws cash under the portfolio row lock so two
// concurrent adjustments cannot both pass the sufficiency check.
func (s *portfolioService) AdjustCash(ctx context.Context, id string, amount decimal.Decimal, reason string) (*models.Portfolio, error) {
	if amount.IsZero() {
		return nil, &apperrors.ErrValidation{Field: "amount", Message: "must be non-zero"}
	}

	var portfolio *models.Portfolio
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		portfolio, err = s.portfolios.GetForUpdate(ctx, tx, id)
		if err != nil {
			return err
		}

		if amount.IsPositive() {
			err = portfolio.AddCash(amount)
		} else {
			err = portfolio.WithdrawCash(amount.Abs())
		}
		if err != nil {
			return err
		}

		return s.portfolios.Save(tx, portfolio)
	})
	if err != nil {
		return nil, fmt.Errorf("cash adjustment failed: %w", err)
	}

	s.logger.Info("cash adjusted",
		zap.String("portfolio_id", id),
		zap.String("amount", amount.StringFixed(2)),
		zap.String("reason", reason),
		zap.String("balance", portfolio.CashBalance.StringFixed(2)))
	return portfolio, nil
}

func (s *portfolioService) ListPositions(ctx context.Context, portfolioID string, activeOnly bool) ([]*models.Position, error) {
	if _, err := s.portfolios.GetByID(ctx, portfolioID); err != nil {
		return nil, err
	}
	return s.positions.List(ctx, portfolioID, activeOnly)
}

// revaluePositions refreshes each open position's current value from its
// asset price and returns the sum.
func (s *portfolioService) revaluePositions(ctx context.Context, portfolioID string) (decimal.Decimal, error) {
	positions, err := s.positions.List(ctx, portfolioID, true)
	if err != nil {
		return decimal.Zero, err
	}

	total := decimal.Zero
	for _, pos := range positions {
		asset, err := s.assets.GetByID(ctx, pos.AssetID)
		if err != nil {
			return decimal.Zero, err
		}
		pos.UpdateCurrentValue(asset.CurrentPrice)
		if err := s.positions.Update(ctx, pos); err != nil {
			return decimal.Zero, err
		}
		total = total.Add(pos.CurrentValue)
	}
	return total, nil
}
