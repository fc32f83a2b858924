package models

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	apperrors "github.com/snig/folio/internal/errors"
)

// AssetType classifies a tradable asset. It drives settlement timing.
type AssetType string

const (
	AssetTypeStock      AssetType = "STOCK"
	AssetTypeBond       AssetType = "BOND"
	AssetTypeETF        AssetType = "ETF"
	AssetTypeMutualFund AssetType = "MUTUAL_FUND"
	AssetTypeCrypto     AssetType = "CRYPTO"
	AssetTypeCommodity  AssetType = "COMMODITY"
	AssetTypeREIT       AssetType = "REIT"
)

var assetTypes = map[AssetType]bool{
	AssetTypeStock:      true,
	AssetTypeBond:       true,
	AssetTypeETF:        true,
	AssetTypeMutualFund: true,
	AssetTypeCrypto:     true,
	AssetTypeCommodity:  true,
	AssetTypeREIT:       true,
}

// IsValid reports whether the asset type is one of the known values.
func (t AssetType) IsValid() bool {
	return assetTypes[t]
}

// Asset represents reference data for a tradable instrument. Prices are
// pushed in by an external feed through UpdatePrice.
type Asset struct {
	ID     string    `json:"id" gorm:"primaryKey;column:id;type:varchar(255)"`
	Symbol string    `json:"symbol" gorm:"column:symbol;type:varchar(10);not null;uniqueIndex"`
	Name   string    `json:"name" gorm:"column:name;type:varchar(200);not null"`
	Type   AssetType `json:"type" gorm:"column:type;type:varchar(20);not null"`

	CurrentPrice  decimal.Decimal `json:"current_price" gorm:"column:current_price;type:decimal(15,4);not null"`
	PreviousClose decimal.Decimal `json:"previous_close" gorm:"column:previous_close;type:decimal(15,4);not null;default:0"`

	Sector   *string `json:"sector,omitempty" gorm:"column:sector;type:varchar(100)"`
	Exchange *string `json:"exchange,omitempty" gorm:"column:exchange;type:varchar(50)"`
	IsActive bool    `json:"is_active" gorm:"column:is_active;type:boolean;not null;default:true"`

	LastUpdated time.Time `json:"last_updated" gorm:"column:last_updated;not null"`
	CreatedAt   time.Time `json:"created_at" gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time `json:"updated_at" gorm:"column:updated_at;autoUpdateTime"`
}

// TableName returns the table name for the Asset model
func (Asset) TableName() string {
	return "assets"
}

// NewAsset creates an asset with the symbol normalized to uppercase and the
// previous close seeded from the initial price.
func NewAsset(symbol, name string, assetType AssetType, currentPrice decimal.Decimal) *Asset {
	now := time.Now()
	return &Asset{
		Symbol:        strings.ToUpper(symbol),
		Name:          name,
		Type:          assetType,
		CurrentPrice:  currentPrice,
		PreviousClose: currentPrice,
		IsActive:      true,
		LastUpdated:   now,
	}
}

// Validate validates the asset data
func (a *Asset) Validate() error {
	if a.Symbol == "" {
		return &apperrors.ErrValidation{Field: "symbol", Message: "is required"}
	}
	if len(a.Symbol) > 10 {
		return &apperrors.ErrValidation{Field: "symbol", Message: "must be 10 characters or less"}
	}
	if a.Name == "" {
		return &apperrors.ErrValidation{Field: "name", Message: "is required"}
	}
	if !a.Type.IsValid() {
		return &apperrors.ErrValidation{Field: "type", Message: "unknown asset type"}
	}
	if !a.CurrentPrice.IsPositive() {
		return &apperrors.ErrValidation{Field: "current_price", Message: "must be greater than zero"}
	}
	if a.PreviousClose.IsNegative() {
		return &apperrors.ErrValidation{Field: "previous_close", Message: "cannot be negative"}
	}
	return nil
}

// UpdatePrice shifts the current price into the previous close and stamps the
// new price. A non-positive price is rejected without mutation.
func (a *Asset) UpdatePrice(newPrice decimal.Decimal) error {
	if !newPrice.IsPositive() {
		return &apperrors.ErrValidation{Field: "price", Message: "must be greater than zero"}
	}
	a.PreviousClose = a.CurrentPrice
	a.CurrentPrice = newPrice
	a.LastUpdated = time.Now()
	return nil
}

// PriceChange returns current price minus previous close, zero when there is
// no previous close.
func (a *Asset) PriceChange() decimal.Decimal {
	if !a.PreviousClose.IsPositive() {
		return decimal.Zero
	}
	return a.CurrentPrice.Sub(a.PreviousClose)
}

// PriceChangePercent returns the percentage move from the previous close.
func (a *Asset) PriceChangePercent() decimal.Decimal {
	if !a.PreviousClose.IsPositive() {
		return decimal.Zero
	}
	return a.PriceChange().Div(a.PreviousClose).Mul(decimal.NewFromInt(100)).Round(4)
}
