package models

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	apperrors "github.com/snig/folio/internal/errors"
)

// TransactionType enumerates the events that can mutate a position and a
// portfolio's cash.
type TransactionType string

const (
	TransactionTypeBuy         TransactionType = "BUY"
	TransactionTypeSell        TransactionType = "SELL"
	TransactionTypeDividend    TransactionType = "DIVIDEND"
	TransactionTypeSplit       TransactionType = "SPLIT"
	TransactionTypeTransferIn  TransactionType = "TRANSFER_IN"
	TransactionTypeTransferOut TransactionType = "TRANSFER_OUT"
	TransactionTypeInterest    TransactionType = "INTEREST"
	TransactionTypeFee         TransactionType = "FEE"
)

var transactionTypes = map[TransactionType]bool{
	TransactionTypeBuy:         true,
	TransactionTypeSell:        true,
	TransactionTypeDividend:    true,
	TransactionTypeSplit:       true,
	TransactionTypeTransferIn:  true,
	TransactionTypeTransferOut: true,
	TransactionTypeInterest:    true,
	TransactionTypeFee:         true,
}

// IsValid reports whether the transaction type is one of the known values.
func (t TransactionType) IsValid() bool {
	return transactionTypes[t]
}

// TransactionStatus is the lifecycle state of a transaction. PENDING is the
// only mutable state; EXECUTED, CANCELLED and FAILED are terminal.
type TransactionStatus string

const (
	TransactionStatusPending   TransactionStatus = "PENDING"
	TransactionStatusExecuted  TransactionStatus = "EXECUTED"
	TransactionStatusCancelled TransactionStatus = "CANCELLED"
	TransactionStatusFailed    TransactionStatus = "FAILED"
)

// Transaction represents a single portfolio event. It is created PENDING and
// either executes (applying position and cash effects) or terminates as
// CANCELLED/FAILED with no financial effect.
type Transaction struct {
	ID          string  `json:"id" gorm:"primaryKey;column:id;type:varchar(255)"`
	PortfolioID string  `json:"portfolio_id" gorm:"column:portfolio_id;type:varchar(255);not null;index"`
	AssetID     string  `json:"asset_id" gorm:"column:asset_id;type:varchar(255);not null;index"`
	PositionID  *string `json:"position_id,omitempty" gorm:"column:position_id;type:varchar(255);index"`

	Type          TransactionType `json:"type" gorm:"column:type;type:varchar(20);not null;index"`
	Quantity      decimal.Decimal `json:"quantity" gorm:"column:quantity;type:decimal(15,4);not null"`
	PricePerShare decimal.Decimal `json:"price_per_share" gorm:"column:price_per_share;type:decimal(15,4);not null"`
	TotalAmount   decimal.Decimal `json:"total_amount" gorm:"column:total_amount;type:decimal(15,2);not null"`
	Commission    decimal.Decimal `json:"commission" gorm:"column:commission;type:decimal(10,2);not null;default:0"`
	Fees          decimal.Decimal `json:"fees" gorm:"column:fees;type:decimal(10,2);not null;default:0"`
	NetAmount     decimal.Decimal `json:"net_amount" gorm:"column:net_amount;type:decimal(15,2);not null"`

	TransactionDate time.Time  `json:"transaction_date" gorm:"column:transaction_date;not null;index"`
	SettlementDate  *time.Time `json:"settlement_date,omitempty" gorm:"column:settlement_date"`

	Status     TransactionStatus `json:"status" gorm:"column:status;type:varchar(20);not null;default:'PENDING';index"`
	Notes      *string           `json:"notes,omitempty" gorm:"column:notes;type:varchar(500)"`
	ExternalID *string           `json:"external_id,omitempty" gorm:"column:external_id;type:varchar(100)"`

	CreatedAt time.Time `json:"created_at" gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"column:updated_at;autoUpdateTime"`
}

// TableName returns the table name for the Transaction model
func (Transaction) TableName() string {
	return "transactions"
}

// TransactionFilter represents filters for querying transactions
type TransactionFilter struct {
	PortfolioID *string
	AssetID     *string
	Types       []TransactionType
	Statuses    []TransactionStatus
	StartDate   *time.Time
	EndDate     *time.Time
	Limit       int
	Offset      int
}

// NewTransaction creates a PENDING transaction against a portfolio and asset.
func NewTransaction(txType TransactionType, portfolioID, assetID string, quantity, pricePerShare decimal.Decimal) *Transaction {
	tx := &Transaction{
		Type:            txType,
		PortfolioID:     portfolioID,
		AssetID:         assetID,
		Quantity:        quantity,
		PricePerShare:   pricePerShare,
		Commission:      decimal.Zero,
		Fees:            decimal.Zero,
		TransactionDate: time.Now(),
		Status:          TransactionStatusPending,
	}
	tx.CalculateTotalAmount()
	tx.CalculateNetAmount()
	return tx
}

// Validate validates the transaction data
func (t *Transaction) Validate() error {
	if !t.Type.IsValid() {
		return &apperrors.ErrValidation{Field: "type", Message: "unknown transaction type"}
	}
	if t.PortfolioID == "" {
		return &apperrors.ErrValidation{Field: "portfolio_id", Message: "is required"}
	}
	if t.AssetID == "" {
		return &apperrors.ErrValidation{Field: "asset_id", Message: "is required"}
	}
	if !t.Quantity.IsPositive() {
		return &apperrors.ErrValidation{Field: "quantity", Message: "must be greater than zero"}
	}
	if !t.PricePerShare.IsPositive() {
		return &apperrors.ErrValidation{Field: "price_per_share", Message: "must be greater than zero"}
	}
	if t.Commission.IsNegative() {
		return &apperrors.ErrValidation{Field: "commission", Message: "cannot be negative"}
	}
	if t.Fees.IsNegative() {
		return &apperrors.ErrValidation{Field: "fees", Message: "cannot be negative"}
	}
	if t.TransactionDate.IsZero() {
		return &apperrors.ErrValidation{Field: "transaction_date", Message: "is required"}
	}
	// Charges may consume the whole proceeds of a sale but never exceed them
	if t.Type == TransactionTypeSell && t.Commission.Add(t.Fees).GreaterThan(t.Quantity.Mul(t.PricePerShare).Round(2)) {
		return &apperrors.ErrValidation{Field: "fees", Message: "commission and fees exceed sale proceeds"}
	}
	return nil
}

// CalculateTotalAmount sets TotalAmount = quantity x price, 2 decimal places.
func (t *Transaction) CalculateTotalAmount() {
	t.TotalAmount = t.Quantity.Mul(t.PricePerShare).Round(2)
}

// CalculateNetAmount sets the cash-flow magnitude: buys add commission and
// fees to the cost, sells subtract them from the proceeds, every other type
// moves the plain total amount.
func (t *Transaction) CalculateNetAmount() {
	switch t.Type {
	case TransactionTypeBuy:
		t.NetAmount = t.TotalAmount.Add(t.Commission).Add(t.Fees)
	case TransactionTypeSell:
		t.NetAmount = t.TotalAmount.Sub(t.Commission).Sub(t.Fees)
	default:
		t.NetAmount = t.TotalAmount
	}
}

// CalculateSettlementDate derives the settlement date from the asset type:
// equities and funds settle T+2, bonds T+1, crypto immediately. Calendar
// days, matching broker statements rather than exchange trading days.
func (t *Transaction) CalculateSettlementDate(assetType AssetType) {
	var settlement time.Time
	switch assetType {
	case AssetTypeStock, AssetTypeETF, AssetTypeMutualFund:
		settlement = t.TransactionDate.AddDate(0, 0, 2)
	case AssetTypeBond:
		settlement = t.TransactionDate.AddDate(0, 0, 1)
	case AssetTypeCrypto:
		settlement = t.TransactionDate
	default:
		settlement = t.TransactionDate.AddDate(0, 0, 1)
	}
	t.SettlementDate = &settlement
}

// PreSave recomputes the derived amounts and validates the transaction.
// Only valid while PENDING; terminal transactions are immutable.
func (t *Transaction) PreSave() error {
	if t.Status != TransactionStatusPending {
		return &apperrors.ErrInvalidTransition{From: string(t.Status), To: string(t.Status)}
	}
	t.CalculateTotalAmount()
	t.CalculateNetAmount()
	return t.Validate()
}

// MarkExecuted transitions PENDING -> EXECUTED.
func (t *Transaction) MarkExecuted() error {
	if t.Status != TransactionStatusPending {
		return &apperrors.ErrInvalidTransition{From: string(t.Status), To: string(TransactionStatusExecuted)}
	}
	t.Status = TransactionStatusExecuted
	return nil
}

// MarkCancelled transitions PENDING -> CANCELLED. No financial effect.
func (t *Transaction) MarkCancelled() error {
	if t.Status != TransactionStatusPending {
		return &apperrors.ErrInvalidTransition{From: string(t.Status), To: string(TransactionStatusCancelled)}
	}
	t.Status = TransactionStatusCancelled
	return nil
}

// MarkFailed transitions PENDING -> FAILED and records the reason in the
// notes. No financial effect.
func (t *Transaction) MarkFailed(reason string) error {
	if t.Status != TransactionStatusPending {
		return &apperrors.ErrInvalidTransition{From: string(t.Status), To: string(TransactionStatusFailed)}
	}
	t.Status = TransactionStatusFailed
	if reason != "" {
		t.Notes = &reason
	}
	return nil
}

// IsBuy reports whether the transaction is a buy.
func (t *Transaction) IsBuy() bool {
	return t.Type == TransactionTypeBuy
}

// IsSell reports whether the transaction is a sell.
func (t *Transaction) IsSell() bool {
	return t.Type == TransactionTypeSell
}

// IsExecuted reports whether the transaction has applied its effects.
func (t *Transaction) IsExecuted() bool {
	return t.Status == TransactionStatusExecuted
}

// IsSettled reports whether an executed transaction is past its settlement
// date. A transaction that never executed can never settle.
func (t *Transaction) IsSettled() bool {
	return t.Status == TransactionStatusExecuted &&
		t.SettlementDate != nil &&
		time.Now().After(*t.SettlementDate)
}

// TotalFees returns commission plus other fees.
func (t *Transaction) TotalFees() decimal.Decimal {
	return t.Commission.Add(t.Fees)
}

// Description returns a human-readable one-line summary.
func (t *Transaction) Description() string {
	return fmt.Sprintf("%s %s shares of %s at $%s",
		t.Type, t.Quantity.String(), t.AssetID, t.PricePerShare.String())
}
