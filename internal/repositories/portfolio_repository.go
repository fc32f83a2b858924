package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/snig/folio/internal/db"
	apperrors "github.com/snig/folio/internal/errors"
	"github.com/snig/folio/internal/models"
)

type portfolioRepository struct {
	db *db.DB
}

// NewPortfolioRepository creates a new portfolio repository
func NewPortfolioRepository(database *db.DB) PortfolioRepository {
	return &portfolioRepository{db: database}
}

func (r *portfolioRepository) Create(ctx context.Context, portfolio *models.Portfolio) error {
	if err := portfolio.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}
	if portfolio.ID == "" {
		portfolio.ID = uuid.NewString()
	}

	if err := r.db.WithContext(ctx).Create(portfolio).Error; err != nil {
		return fmt.Errorf("failed to create portfolio: %w", err)
	}
	return nil
}

func (r *portfolioRepository) GetByID(ctx context.Context, id string) (*models.Portfolio, error) {
	var portfolio models.Portfolio
	if err := r.db.WithContext(ctx).First(&portfolio, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &apperrors.ErrNotFound{Entity: "portfolio", ID: id}
		}
		return nil, fmt.Errorf("failed to get portfolio: %w", err)
	}
	return &portfolio, nil
}

// GetForUpdate locks the portfolio row for the duration of the enclosing
// database transaction so concurrent executions against the same portfolio
// serialize. SQLite has no row locks; its single-writer model covers it.
func (r *portfolioRepository) GetForUpdate(ctx context.Context, tx *gorm.DB, id string) (*models.Portfolio, error) {
	query := tx.WithContext(ctx)
	if tx.Dialector.Name() == "postgres" {
		query = query.Clauses(clause.Locking{Strength: "UPDATE"})
	}

	var portfolio models.Portfolio
	if err := query.First(&portfolio, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &apperrors.ErrNotFound{Entity: "portfolio", ID: id}
		}
		return nil, fmt.Errorf("failed to lock portfolio: %w", err)
	}
	return &portfolio, nil
}

func (r *portfolioRepository) ListByUser(ctx context.Context, userID string) ([]*models.Portfolio, error) {
	var portfolios []models.Portfolio
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at ASC").
		Find(&portfolios).Error; err != nil {
		return nil, fmt.Errorf("failed to list portfolios: %w", err)
	}

	result := make([]*models.Portfolio, len(portfolios))
	for i := range portfolios {
		result[i] = &portfolios[i]
	}
	return result, nil
}

func (r *portfolioRepository) Update(ctx context.Context, portfolio *models.Portfolio) error {
	if err := portfolio.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	if err := r.db.WithContext(ctx).Save(portfolio).Error; err != nil {
		return fmt.Errorf("failed to update portfolio: %w", err)
	}
	return nil
}

// Save persists the portfolio inside an existing database transaction.
func (r *portfolioRepository) Save(tx *gorm.DB, portfolio *models.Portfolio) error {
	if err := tx.Save(portfolio).Error; err != nil {
		return fmt.Errorf("failed to save portfolio: %w", err)
	}
	return nil
}
