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

type transactionRepository struct {
	db *db.DB
}

// NewTransactionRepository creates a new transaction repository
func NewTransactionRepository(database *db.DB) TransactionRepository {
	return &transactionRepository{db: database}
}

func (r *transactionRepository) Create(ctx context.Context, tx *models.Transaction) error {
	if err := tx.PreSave(); err != nil {
		return fmt.Errorf("transaction validation failed: %w", err)
	}
	if tx.ID == "" {
		tx.ID = uuid.NewString()
	}

	if err := r.db.WithContext(ctx).Create(tx).Error; err != nil {
		return fmt.Errorf("failed to create transaction: %w", err)
	}
	return nil
}

func (r *transactionRepository) GetByID(ctx context.Context, id string) (*models.Transaction, error) {
	var tx models.Transaction
	if err := r.db.WithContext(ctx).First(&tx, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &apperrors.ErrNotFound{Entity: "transaction", ID: id}
		}
		return nil, fmt.Errorf("failed to get transaction: %w", err)
	}
	return &tx, nil
}

// GetByIDTx is the transactional variant of GetByID, used to re-check status
// under the portfolio row lock during execution.
func (r *transactionRepository) GetByIDTx(dbTx *gorm.DB, id string) (*models.Transaction, error) {
	var tx models.Transaction
	if err := dbTx.First(&tx, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &apperrors.ErrNotFound{Entity: "transaction", ID: id}
		}
		return nil, fmt.Errorf("failed to get transaction: %w", err)
	}
	return &tx, nil
}

func (r *transactionRepository) List(ctx context.Context, filter *models.TransactionFilter) ([]*models.Transaction, error) {
	query := r.db.WithContext(ctx)

	if filter != nil {
		if filter.PortfolioID != nil && *filter.PortfolioID != "" {
			query = query.Where("portfolio_id = ?", *filter.PortfolioID)
		}
		if filter.AssetID != nil && *filter.AssetID != "" {
			query = query.Where("asset_id = ?", *filter.AssetID)
		}
		if len(filter.Types) > 0 {
			query = query.Where("type IN ?", filter.Types)
		}
		if len(filter.Statuses) > 0 {
			query = query.Where("status IN ?", filter.Statuses)
		}
		if filter.StartDate != nil {
			query = query.Where("transaction_date >= ?", *filter.StartDate)
		}
		if filter.EndDate != nil {
			query = query.Where("transaction_date <= ?", *filter.EndDate)
		}
	}

	query = query.Order("transaction_date DESC")

	if filter != nil && filter.Limit > 0 {
		query = query.Limit(filter.Limit)
		if filter.Offset > 0 {
			query = query.Offset(filter.Offset)
		}
	}

	var transactions []models.Transaction
	if err := query.Find(&transactions).Error; err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}

	result := make([]*models.Transaction, len(transactions))
	for i := range transactions {
		result[i] = &transactions[i]
	}
	return result, nil
}

func (r *transactionRepository) Update(ctx context.Context, tx *models.Transaction) error {
	if err := r.db.WithContext(ctx).Save(tx).Error; err != nil {
		return fmt.Errorf("failed to update transaction: %w", err)
	}
	return nil
}

// Save persists the transaction inside an existing database transaction.
func (r *transactionRepository) Save(dbTx *gorm.DB, tx *models.Transaction) error {
	if err := dbTx.Save(tx).Error; err != nil {
		return fmt.Errorf("failed to save transaction: %w", err)
	}
	return nil
}
