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

// transactionService implements the TransactionService interface
type transactionService struct {
	db           *db.DB
	logger       *zap.Logger
	transactions repositories.TransactionRepository
	portfolios   repositories.PortfolioRepository
	positions    repositories.PositionRepository
	assets       repositories.AssetRepository
}

// NewTransactionService creates a new transaction service
func NewTransactionService(database *db.DB, logger *zap.Logger) TransactionService {
	return &transactionService{
		db:           database,
		logger:       logger,
		transactions: repositories.NewTransactionRepository(database),
		portfolios:   repositories.NewPortfolioRepository(database),
		positions:    repositories.NewPositionRepository(database),
		assets:       repositories.NewAssetRepository(database),
	}
}

// CreateTransaction records a PENDING transaction with its derived amounts
// and settlement date. No position or cash effect is applied until Execute.
func (s *transactionService) CreateTransaction(ctx context.Context, tx *models.Transaction) error {
	if _, err := s.portfolios.GetByID(ctx, tx.PortfolioID); err != nil {
		return err
	}
	asset, err := s.assets.GetByID(ctx, tx.AssetID)
	if err != nil {
		return err
	}

	tx.Status = models.TransactionStatusPending
	tx.CalculateSettlementDate(asset.Type)
	if err := s.transactions.Create(ctx, tx); err != nil {
		return err
	}

	s.logger.Debug("transaction created",
		zap.String("transaction_id", tx.ID),
		zap.String("type", string(tx.Type)),
		zap.String("net_amount", tx.NetAmount.StringFixed(2)))
	return nil
}

func (s *transactionService) GetTransaction(ctx context.Context, id string) (*models.Transaction, error) {
	return s.transactions.GetByID(ctx, id)
}

func (s *transactionService) ListTransactions(ctx context.Context, filter *models.TransactionFilter) ([]*models.Transaction, error) {
	return s.transactions.List(ctx, filter)
}

// Execute applies the transaction's effects in one database transaction with
// the portfolio row locked. When the effects cannot be applied (insufficient
// cash or shares) the transaction is marked FAILED, no position or cash
// mutation is committed, and the causal error is returned.
func (s *transactionService) Execute(ctx context.Context, id string) (*models.Transaction, error) {
	tx, err := s.transactions.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if tx.Status != models.TransactionStatusPending {
		return tx, &apperrors.ErrInvalidTransition{From: string(tx.Status), To: string(models.TransactionStatusExecuted)}
	}

	asset, err := s.assets.GetByID(ctx, tx.AssetID)
	if err != nil {
		return nil, err
	}

	// Derived amounts must be current before effects are applied
	if err := tx.PreSave(); err != nil {
		return nil, err
	}

	var effectErr error
	var raceErr error
	err = s.db.WithContext(ctx).Transaction(func(dbTx *gorm.DB) error {
		portfolio, err := s.portfolios.GetForUpdate(ctx, dbTx, tx.PortfolioID)
		if err != nil {
			return err
		}

		// The status check above ran on an unlocked read; a concurrent
		// Execute, Cancel or Fail may have won the race to the row lock.
		// Re-check on the locked re-read so the same transaction can
		// never apply its effects twice.
		current, err := s.transactions.GetByIDTx(dbTx, tx.ID)
		if err != nil {
			return err
		}
		if current.Status != models.TransactionStatusPending {
			tx = current
			raceErr = &apperrors.ErrInvalidTransition{From: string(current.Status), To: string(models.TransactionStatusExecuted)}
			return nil
		}

		effectErr = s.applyEffects(dbTx, tx, portfolio, asset)
		if effectErr != nil {
			// Persist only the FAILED status; position and portfolio
			// rows are left exactly as they were.
			if err := tx.MarkFailed(effectErr.Error()); err != nil {
				return err
			}
			return s.transactions.Save(dbTx, tx)
		}

		if err := tx.MarkExecuted(); err != nil {
			return err
		}

		positionsValue, err := s.sumPositionValues(dbTx, portfolio.ID)
		if err != nil {
			return err
		}
		portfolio.UpdateTotalValue(positionsValue)

		if err := s.portfolios.Save(dbTx, portfolio); err != nil {
			return err
		}
		return s.transactions.Save(dbTx, tx)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to execute transaction: %w", err)
	}

	if raceErr != nil {
		return tx, raceErr
	}

	if effectErr != nil {
		s.logger.Warn("transaction failed",
			zap.String("transaction_id", tx.ID),
			zap.String("type", string(tx.Type)),
			zap.Error(effectErr))
		return tx, effectErr
	}

	s.logger.Info("transaction executed",
		zap.String("transaction_id", tx.ID),
		zap.String("type", string(tx.Type)),
		zap.String("net_amount", tx.NetAmount.StringFixed(2)))
	return tx, nil
}

// applyEffects dispatches on the transaction type and mutates the in-memory
// portfolio and position. Any returned error means zero effects were staged
// for commit.
func (s *transactionService) applyEffects(dbTx *gorm.DB, tx *models.Transaction, portfolio *models.Portfolio, asset *models.Asset) error {
	switch tx.Type {
	case models.TransactionTypeBuy:
		// Insufficient funds is a hard failure, not a silent skip
		if portfolio.CashBalance.LessThan(tx.NetAmount) {
			return &apperrors.ErrInsufficientFunds{Available: portfolio.CashBalance, Requested: tx.NetAmount}
		}

		position, err := s.positions.GetByPortfolioAndAssetTx(dbTx, tx.PortfolioID, tx.AssetID)
		if err != nil {
			if !apperrors.IsNotFound(err) {
				return err
			}
			position = models.NewPosition(tx.PortfolioID, tx.AssetID)
		}

		if err := position.BuyShares(tx.Quantity, tx.PricePerShare); err != nil {
			return err
		}
		position.UpdateCurrentValue(asset.CurrentPrice)

		if err := portfolio.DebitCash(tx.NetAmount); err != nil {
			return err
		}
		if err := s.positions.Save(dbTx, position); err != nil {
			return err
		}
		tx.PositionID = &position.ID
		return nil

	case models.TransactionTypeSell:
		position, err := s.positions.GetByPortfolioAndAssetTx(dbTx, tx.PortfolioID, tx.AssetID)
		if err != nil {
			return err
		}

		if err := position.SellShares(tx.Quantity, tx.PricePerShare); err != nil {
			return err
		}
		position.UpdateCurrentValue(asset.CurrentPrice)

		// Charges equal to the proceeds leave nothing to credit
		if tx.NetAmount.IsPositive() {
			if err := portfolio.CreditCash(tx.NetAmount); err != nil {
				return err
			}
		}
		if err := s.positions.Save(dbTx, position); err != nil {
			return err
		}
		tx.PositionID = &position.ID
		return nil

	case models.TransactionTypeDividend, models.TransactionTypeInterest, models.TransactionTypeTransferIn:
		return portfolio.CreditCash(tx.NetAmount)

	case models.TransactionTypeFee, models.TransactionTypeTransferOut:
		if portfolio.CashBalance.LessThan(tx.NetAmount) {
			return &apperrors.ErrInsufficientFunds{Available: portfolio.CashBalance, Requested: tx.NetAmount}
		}
		return portfolio.DebitCash(tx.NetAmount)

	case models.TransactionTypeSplit:
		// Cash-neutral corporate action; quantity restatement is recorded
		// by the transaction itself
		return nil

	default:
		return &apperrors.ErrValidation{Field: "type", Message: "unknown transaction type"}
	}
}

// Cancel transitions a PENDING transaction to CANCELLED with no financial
// effect.
func (s *transactionService) Cancel(ctx context.Context, id string) (*models.Transaction, error) {
	tx, err := s.transactions.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := tx.MarkCancelled(); err != nil {
		return tx, err
	}
	if err := s.transactions.Update(ctx, tx); err != nil {
		return nil, err
	}

	s.logger.Info("transaction cancelled", zap.String("transaction_id", id))
	return tx, nil
}

// Fail transitions a PENDING transaction to FAILED, recording the reason.
func (s *transactionService) Fail(ctx context.Context, id string, reason string) (*models.Transaction, error) {
	tx, err := s.transactions.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := tx.MarkFailed(reason); err != nil {
		return tx, err
	}
	if err := s.transactions.Update(ctx, tx); err != nil {
		return nil, err
	}

	s.logger.Info("transaction failed",
		zap.String("transaction_id", id),
		zap.String("reason", reason))
	return tx, nil
}

func (s *transactionService) sumPositionValues(dbTx *gorm.DB, portfolioID string) (decimal.Decimal, error) {
	var positions []models.Position
	if err := dbTx.Where("portfolio_id = ? AND quantity > 0", portfolioID).Find(&positions).Error; err != nil {
		return decimal.Zero, fmt.Errorf("failed to sum position values: %w", err)
	}

	total := decimal.Zero
	for i := range positions {
		total = total.Add(positions[i].CurrentValue)
	}
	return total, nil
}
