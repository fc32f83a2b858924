package models

import "github.com/shopspring/decimal"

// PortfolioPerformance is the derived performance snapshot for one portfolio.
// Every figure is recomputed from live state when requested.
type PortfolioPerformance struct {
	PortfolioID      string          `json:"portfolio_id"`
	CurrentValue     decimal.Decimal `json:"current_value"`
	CashBalance      decimal.Decimal `json:"cash_balance"`
	InitialCash      decimal.Decimal `json:"initial_cash"`
	TotalReturn      decimal.Decimal `json:"total_return"`
	ReturnPercentage decimal.Decimal `json:"return_percentage"`
	CashAllocation   decimal.Decimal `json:"cash_allocation_percent"`
	RealizedGainLoss decimal.Decimal `json:"realized_gain_loss"`
	UnrealizedGain   decimal.Decimal `json:"unrealized_gain_loss"`
	PositionCount    int             `json:"position_count"`
}
