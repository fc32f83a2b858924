package models

import (
	"time"

	"github.com/shopspring/decimal"

	apperrors "github.com/snig/folio/internal/errors"
)

// Portfolio aggregates one user's positions and cash balance. TotalValue is a
// derived cache of cash plus position values; the recomputation is always
// authoritative over the stored figure.
type Portfolio struct {
	ID          string  `json:"id" gorm:"primaryKey;column:id;type:varchar(255)"`
	UserID      string  `json:"user_id" gorm:"column:user_id;type:varchar(255);not null;index"`
	Name        string  `json:"name" gorm:"column:name;type:varchar(100);not null"`
	Description *string `json:"description,omitempty" gorm:"column:description;type:varchar(500)"`

	CashBalance decimal.Decimal `json:"cash_balance" gorm:"column:cash_balance;type:decimal(15,2);not null;default:0"`
	InitialCash decimal.Decimal `json:"initial_cash" gorm:"column:initial_cash;type:decimal(15,2);not null;default:0"`
	TotalValue  decimal.Decimal `json:"total_value" gorm:"column:total_value;type:decimal(15,2);not null;default:0"`

	CreatedAt time.Time `json:"created_at" gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"column:updated_at;autoUpdateTime"`
}

// TableName returns the table name for the Portfolio model
func (Portfolio) TableName() string {
	return "portfolios"
}

// NewPortfolio creates a portfolio with an initial cash balance. Total value
// starts equal to the cash.
func NewPortfolio(userID, name string, initialCash decimal.Decimal) *Portfolio {
	return &Portfolio{
		UserID:      userID,
		Name:        name,
		CashBalance: initialCash,
		InitialCash: initialCash,
		TotalValue:  initialCash,
	}
}

// Validate validates the portfolio data
func (p *Portfolio) Validate() error {
	if p.UserID == "" {
		return &apperrors.ErrValidation{Field: "user_id", Message: "is required"}
	}
	if len(p.Name) < 2 {
		return &apperrors.ErrValidation{Field: "name", Message: "must be at least 2 characters"}
	}
	if len(p.Name) > 100 {
		return &apperrors.ErrValidation{Field: "name", Message: "must be 100 characters or less"}
	}
	if p.CashBalance.IsNegative() {
		return &apperrors.ErrValidation{Field: "cash_balance", Message: "cannot be negative"}
	}
	return nil
}

// AddCash deposits cash into the portfolio. Non-positive amounts are rejected.
func (p *Portfolio) AddCash(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return &apperrors.ErrValidation{Field: "amount", Message: "must be greater than zero"}
	}
	p.CashBalance = p.CashBalance.Add(amount)
	return nil
}

// WithdrawCash removes cash from the portfolio. The balance can never go
// negative; an overdraw fails without mutation.
func (p *Portfolio) WithdrawCash(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return &apperrors.ErrValidation{Field: "amount", Message: "must be greater than zero"}
	}
	if p.CashBalance.LessThan(amount) {
		return &apperrors.ErrInsufficientFunds{Available: p.CashBalance, Requested: amount}
	}
	p.CashBalance = p.CashBalance.Sub(amount)
	return nil
}

// DebitCash is the transaction-execution debit path. Same guards as
// WithdrawCash.
func (p *Portfolio) DebitCash(amount decimal.Decimal) error {
	return p.WithdrawCash(amount)
}

// CreditCash is the transaction-execution credit path. Same guards as
// AddCash.
func (p *Portfolio) CreditCash(amount decimal.Decimal) error {
	return p.AddCash(amount)
}

// UpdateTotalValue recomputes the derived total from cash plus the summed
// current value of the portfolio's positions.
func (p *Portfolio) UpdateTotalValue(positionsValue decimal.Decimal) {
	p.TotalValue = p.CashBalance.Add(positionsValue)
}

// TotalProfitLoss returns total value minus the cash the portfolio started
// with.
func (p *Portfolio) TotalProfitLoss() decimal.Decimal {
	return p.TotalValue.Sub(p.InitialCash)
}

// ReturnPercentage returns the portfolio return over the initial cash.
func (p *Portfolio) ReturnPercentage() decimal.Decimal {
	if !p.InitialCash.IsPositive() {
		return decimal.Zero
	}
	return p.TotalProfitLoss().Div(p.InitialCash).Mul(decimal.NewFromInt(100)).Round(4)
}

// CashAllocationPercent returns the share of total value held as cash.
func (p *Portfolio) CashAllocationPercent() decimal.Decimal {
	if !p.TotalValue.IsPositive() {
		return decimal.Zero
	}
	return p.CashBalance.Div(p.TotalValue).Mul(decimal.NewFromInt(100)).Round(4)
}
