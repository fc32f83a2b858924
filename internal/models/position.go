package models

import (
	"time"

	"github.com/shopspring/decimal"

	apperrors "github.com/snig/folio/internal/errors"
)

// Position represents one portfolio's holding of one asset: quantity plus
// weighted-average cost basis. A position whose quantity reaches zero is
// retained as a closed record rather than deleted.
type Position struct {
	ID          string `json:"id" gorm:"primaryKey;column:id;type:varchar(255)"`
	PortfolioID string `json:"portfolio_id" gorm:"column:portfolio_id;type:varchar(255);not null;index:idx_portfolio_asset,unique"`
	AssetID     string `json:"asset_id" gorm:"column:asset_id;type:varchar(255);not null;index:idx_portfolio_asset,unique"`

	Quantity           decimal.Decimal `json:"quantity" gorm:"column:quantity;type:decimal(15,4);not null;default:0"`
	AverageCost        decimal.Decimal `json:"average_cost" gorm:"column:average_cost;type:decimal(15,4);not null;default:0"`
	TotalCost          decimal.Decimal `json:"total_cost" gorm:"column:total_cost;type:decimal(15,2);not null;default:0"`
	CurrentValue       decimal.Decimal `json:"current_value" gorm:"column:current_value;type:decimal(15,2);not null;default:0"`
	UnrealizedGainLoss decimal.Decimal `json:"unrealized_gain_loss" gorm:"column:unrealized_gain_loss;type:decimal(15,2);not null;default:0"`
	RealizedGainLoss   decimal.Decimal `json:"realized_gain_loss" gorm:"column:realized_gain_loss;type:decimal(15,2);not null;default:0"`

	LastUpdated time.Time `json:"last_updated" gorm:"column:last_updated;not null"`
	CreatedAt   time.Time `json:"created_at" gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time `json:"updated_at" gorm:"column:updated_at;autoUpdateTime"`
}

// TableName returns the table name for the Position model
func (Position) TableName() string {
	return "positions"
}

// NewPosition creates an empty position for an asset in a portfolio.
func NewPosition(portfolioID, assetID string) *Position {
	return &Position{
		PortfolioID:        portfolioID,
		AssetID:            assetID,
		Quantity:           decimal.Zero,
		AverageCost:        decimal.Zero,
		TotalCost:          decimal.Zero,
		CurrentValue:       decimal.Zero,
		UnrealizedGainLoss: decimal.Zero,
		RealizedGainLoss:   decimal.Zero,
		LastUpdated:        time.Now(),
	}
}

// BuyShares adds qty shares bought at price to the position, folding the
// purchase into the weighted-average cost. Average cost is kept at 4 decimal
// places, money amounts at 2, both rounded half-up.
func (p *Position) BuyShares(qty, price decimal.Decimal) error {
	if !qty.IsPositive() {
		return &apperrors.ErrValidation{Field: "quantity", Message: "must be greater than zero"}
	}
	if !price.IsPositive() {
		return &apperrors.ErrValidation{Field: "price", Message: "must be greater than zero"}
	}

	currentTotal := p.Quantity.Mul(p.AverageCost)
	additionalTotal := qty.Mul(price)
	newQuantity := p.Quantity.Add(qty)

	p.AverageCost = currentTotal.Add(additionalTotal).Div(newQuantity).Round(4)
	p.Quantity = newQuantity
	p.calculateTotalCost()
	p.UpdateCurrentValue(price)
	return nil
}

// SellShares removes qty shares sold at price and books the realized
// gain/loss against the unchanged average cost. Selling more than is held
// fails without mutation.
func (p *Position) SellShares(qty, price decimal.Decimal) error {
	if !qty.IsPositive() {
		return &apperrors.ErrValidation{Field: "quantity", Message: "must be greater than zero"}
	}
	if !price.IsPositive() {
		return &apperrors.ErrValidation{Field: "price", Message: "must be greater than zero"}
	}
	if p.Quantity.LessThan(qty) {
		return &apperrors.ErrInsufficientShares{Available: p.Quantity, Requested: qty}
	}

	gainLoss := qty.Mul(price.Sub(p.AverageCost)).Round(2)
	p.RealizedGainLoss = p.RealizedGainLoss.Add(gainLoss)
	p.Quantity = p.Quantity.Sub(qty)
	p.calculateTotalCost()
	p.UpdateCurrentValue(price)
	return nil
}

// UpdateCurrentValue revalues the position at the given market price.
func (p *Position) UpdateCurrentValue(marketPrice decimal.Decimal) {
	p.CurrentValue = p.Quantity.Mul(marketPrice).Round(2)
	p.UnrealizedGainLoss = p.CurrentValue.Sub(p.TotalCost)
	p.LastUpdated = time.Now()
}

func (p *Position) calculateTotalCost() {
	p.TotalCost = p.Quantity.Mul(p.AverageCost).Round(2)
}

// UnrealizedGainLossPercent returns the unrealized return over cost basis.
func (p *Position) UnrealizedGainLossPercent() decimal.Decimal {
	if !p.TotalCost.IsPositive() {
		return decimal.Zero
	}
	return p.UnrealizedGainLoss.Div(p.TotalCost).Mul(decimal.NewFromInt(100)).Round(4)
}

// TotalGainLoss returns realized plus unrealized gain/loss.
func (p *Position) TotalGainLoss() decimal.Decimal {
	return p.RealizedGainLoss.Add(p.UnrealizedGainLoss)
}

// PortfolioWeight returns this position's share of the portfolio total value.
func (p *Position) PortfolioWeight(portfolioTotalValue decimal.Decimal) decimal.Decimal {
	if !portfolioTotalValue.IsPositive() {
		return decimal.Zero
	}
	return p.CurrentValue.Div(portfolioTotalValue).Mul(decimal.NewFromInt(100)).Round(4)
}

// IsProfitable reports whether the position has an unrealized gain.
func (p *Position) IsProfitable() bool {
	return p.UnrealizedGainLoss.IsPositive()
}

// IsAtLoss reports whether the position has an unrealized loss.
func (p *Position) IsAtLoss() bool {
	return p.UnrealizedGainLoss.IsNegative()
}

// HasShares reports whether the position is open.
func (p *Position) HasShares() bool {
	return p.Quantity.IsPositive()
}
