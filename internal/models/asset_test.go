package models

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestAssetValidate(t *testing.T) {
	tests := []struct {
		name          string
		asset         *Asset
		expectError   bool
		expectedError string
	}{
		{
			name:        "valid stock",
			asset:       NewAsset("aapl", "Apple Inc.", AssetTypeStock, decimal.NewFromFloat(187.44)),
			expectError: false,
		},
		{
			name:          "missing symbol",
			asset:         NewAsset("", "Apple Inc.", AssetTypeStock, decimal.NewFromInt(100)),
			expectError:   true,
			expectedError: "symbol: is required",
		},
		{
			name:          "unknown type",
			asset:         NewAsset("AAPL", "Apple Inc.", "DERIVATIVE", decimal.NewFromInt(100)),
			expectError:   true,
			expectedError: "type: unknown asset type",
		},
		{
			name:          "non-positive price",
			asset:         NewAsset("AAPL", "Apple Inc.", AssetTypeStock, decimal.Zero),
			expectError:   true,
			expectedError: "current_price: must be greater than zero",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.asset.Validate()

			if tt.expectError {
				if err == nil {
					t.Errorf("Expected error but got none")
					return
				}
				if tt.expectedError != "" && err.Error() != tt.expectedError {
					t.Errorf("Expected error '%s' but got '%s'", tt.expectedError, err.Error())
				}
			} else {
				if err != nil {
					t.Errorf("Expected no error but got: %v", err)
				}
			}
		})
	}
}

func TestAssetSymbolUppercased(t *testing.T) {
	asset := NewAsset("btc", "Bitcoin", AssetTypeCrypto, decimal.NewFromInt(67000))
	if asset.Symbol != "BTC" {
		t.Errorf("Expected symbol 'BTC', got '%s'", asset.Symbol)
	}
}

func TestAssetUpdatePrice(t *testing.T) {
	asset := NewAsset("AAPL", "Apple Inc.", AssetTypeStock, decimal.NewFromInt(100))

	if err := asset.UpdatePrice(decimal.NewFromInt(110)); err != nil {
		t.Fatalf("Expected price update to succeed: %v", err)
	}
	if asset.CurrentPrice.String() != "110" {
		t.Errorf("Expected current price 110, got %s", asset.CurrentPrice)
	}
	if asset.PreviousClose.String() != "100" {
		t.Errorf("Expected previous close 100, got %s", asset.PreviousClose)
	}

	// Non-positive prices are rejected without mutation
	if err := asset.UpdatePrice(decimal.Zero); err == nil {
		t.Error("Expected zero price to be rejected")
	}
	if err := asset.UpdatePrice(decimal.NewFromInt(-5)); err == nil {
		t.Error("Expected negative price to be rejected")
	}
	if asset.CurrentPrice.String() != "110" {
		t.Errorf("Expected price unchanged after rejected update, got %s", asset.CurrentPrice)
	}
}

func TestAssetPriceChange(t *testing.T) {
	asset := NewAsset("AAPL", "Apple Inc.", AssetTypeStock, decimal.NewFromInt(100))
	if err := asset.UpdatePrice(decimal.NewFromInt(104)); err != nil {
		t.Fatal(err)
	}

	if asset.PriceChange().String() != "4" {
		t.Errorf("Expected price change 4, got %s", asset.PriceChange())
	}
	if asset.PriceChangePercent().String() != "4" {
		t.Errorf("Expected price change percent 4, got %s", asset.PriceChangePercent())
	}
}

func TestAssetPriceChangeZeroGuard(t *testing.T) {
	asset := &Asset{
		Symbol:        "NEW",
		Name:          "Fresh Listing",
		Type:          AssetTypeStock,
		CurrentPrice:  decimal.NewFromInt(50),
		PreviousClose: decimal.Zero,
	}

	if !asset.PriceChange().IsZero() {
		t.Error("Expected zero price change without a previous close")
	}
	if !asset.PriceChangePercent().IsZero() {
		t.Error("Expected zero percent change without a previous close")
	}
}
