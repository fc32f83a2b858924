package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/require"

	"github.com/snig/folio/internal/db"
	"github.com/snig/folio/internal/models"
	"github.com/snig/folio/internal/services"
	"go.uber.org/zap"
)

func setupRouter(t *testing.T) *mux.Router {
	t.Helper()

	database, err := db.ConnectSQLite()
	require.NoError(t, err)
	require.NoError(t, db.Migrate(database))
	t.Cleanup(func() { _ = database.Close() })

	logger := zap.NewNop()
	return NewRouter(
		NewUserHandler(services.NewUserService(database, logger)),
		NewAssetHandler(services.NewAssetService(database, logger)),
		NewPortfolioHandler(services.NewPortfolioService(database, logger)),
		NewTransactionHandler(services.NewTransactionService(database, logger)),
	)
}

func doJSON(t *testing.T, router *mux.Router, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.NewDecoder(rec.Body).Decode(v))
}

func createUser(t *testing.T, router *mux.Router) models.User {
	t.Helper()

	rec := doJSON(t, router, http.MethodPost, "/api/users", map[string]string{
		"username": "trader",
		"email":    "trader@example.com",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	var user models.User
	decodeBody(t, rec, &user)
	return user
}

func createAsset(t *testing.T, router *mux.Router, symbol, price string) models.Asset {
	t.Helper()

	rec := doJSON(t, router, http.MethodPost, "/api/assets", map[string]string{
		"symbol":        symbol,
		"name":          symbol + " Inc.",
		"type":          "STOCK",
		"current_price": price,
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	var asset models.Asset
	decodeBody(t, rec, &asset)
	return asset
}

func createPortfolio(t *testing.T, router *mux.Router, userID, initialCash string) models.Portfolio {
	t.Helper()

	rec := doJSON(t, router, http.MethodPost, "/api/portfolios", map[string]string{
		"user_id":      userID,
		"name":         "Main",
		"initial_cash": initialCash,
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	var portfolio models.Portfolio
	decodeBody(t, rec, &portfolio)
	return portfolio
}

func TestHealthEndpoint(t *testing.T) {
	router := setupRouter(t)

	rec := doJSON(t, router, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]string
	decodeBody(t, rec, &body)
	require.Equal(t, "healthy", body["status"])
}

func TestTransactionLifecycleOverHTTP(t *testing.T) {
	router := setupRouter(t)
	user := createUser(t, router)
	asset := createAsset(t, router, "AAPL", "100")
	portfolio := createPortfolio(t, router, user.ID, "2000")

	rec := doJSON(t, router, http.MethodPost, "/api/transactions", map[string]string{
		"type":            "BUY",
		"portfolio_id":    portfolio.ID,
		"asset_id":        asset.ID,
		"quantity":        "10",
		"price_per_share": "100",
		"commission":      "5",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	var tx models.Transaction
	decodeBody(t, rec, &tx)
	require.Equal(t, models.TransactionStatusPending, tx.Status)
	require.Equal(t, "1005.00", tx.NetAmount.StringFixed(2))
	require.NotNil(t, tx.SettlementDate)

	rec = doJSON(t, router, http.MethodPost, fmt.Sprintf("/api/transactions/%s/execute", tx.ID), nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var executed models.Transaction
	decodeBody(t, rec, &executed)
	require.Equal(t, models.TransactionStatusExecuted, executed.Status)

	rec = doJSON(t, router, http.MethodGet, fmt.Sprintf("/api/portfolios/%s", portfolio.ID), nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var updated models.Portfolio
	decodeBody(t, rec, &updated)
	require.Equal(t, "995.00", updated.CashBalance.StringFixed(2))

	rec = doJSON(t, router, http.MethodGet, fmt.Sprintf("/api/portfolios/%s/positions", portfolio.ID), nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var positions []models.Position
	decodeBody(t, rec, &positions)
	require.Len(t, positions, 1)
	require.Equal(t, "10", positions[0].Quantity.String())
	require.Equal(t, "100", positions[0].AverageCost.String())
}

func TestExecuteInsufficientFundsReturnsFailedTransaction(t *testing.T) {
	router := setupRouter(t)
	user := createUser(t, router)
	asset := createAsset(t, router, "AAPL", "100")
	portfolio := createPortfolio(t, router, user.ID, "50")

	rec := doJSON(t, router, http.MethodPost, "/api/transactions", map[string]string{
		"type":            "BUY",
		"portfolio_id":    portfolio.ID,
		"asset_id":        asset.ID,
		"quantity":        "10",
		"price_per_share": "100",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	var tx models.Transaction
	decodeBody(t, rec, &tx)

	rec = doJSON(t, router, http.MethodPost, fmt.Sprintf("/api/transactions/%s/execute", tx.ID), nil)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	var failed models.Transaction
	decodeBody(t, rec, &failed)
	require.Equal(t, models.TransactionStatusFailed, failed.Status)

	// Cash untouched by the failed execution
	rec = doJSON(t, router, http.MethodGet, fmt.Sprintf("/api/portfolios/%s", portfolio.ID), nil)
	var loaded models.Portfolio
	decodeBody(t, rec, &loaded)
	require.Equal(t, "50.00", loaded.CashBalance.StringFixed(2))

	// A terminal transaction cannot be executed again
	rec = doJSON(t, router, http.MethodPost, fmt.Sprintf("/api/transactions/%s/execute", tx.ID), nil)
	require.Equal(t, http.StatusConflict, rec.Code)
}

func TestCashAdjustmentOverHTTP(t *testing.T) {
	router := setupRouter(t)
	user := createUser(t, router)
	portfolio := createPortfolio(t, router, user.ID, "1000")

	rec := doJSON(t, router, http.MethodPost, fmt.Sprintf("/api/portfolios/%s/cash", portfolio.ID), map[string]string{
		"amount": "250",
		"reason": "deposit",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var updated models.Portfolio
	decodeBody(t, rec, &updated)
	require.Equal(t, "1250.00", updated.CashBalance.StringFixed(2))

	rec = doJSON(t, router, http.MethodPost, fmt.Sprintf("/api/portfolios/%s/cash", portfolio.ID), map[string]string{
		"amount": "-5000",
		"reason": "overdraw",
	})
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestAssetPriceUpdateOverHTTP(t *testing.T) {
	router := setupRouter(t)
	asset := createAsset(t, router, "voo", "512.34")
	require.Equal(t, "VOO", asset.Symbol)

	rec := doJSON(t, router, http.MethodGet, "/api/assets/symbol/VOO", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, router, http.MethodPut, fmt.Sprintf("/api/assets/%s/price", asset.ID), map[string]string{
		"price": "520.00",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var updated models.Asset
	decodeBody(t, rec, &updated)
	require.Equal(t, "520.00", updated.CurrentPrice.StringFixed(2))
	require.Equal(t, "512.34", updated.PreviousClose.StringFixed(2))

	rec = doJSON(t, router, http.MethodPut, fmt.Sprintf("/api/assets/%s/price", asset.ID), map[string]string{
		"price": "0",
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestNotFoundMapping(t *testing.T) {
	router := setupRouter(t)

	rec := doJSON(t, router, http.MethodGet, "/api/portfolios/missing", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)

	rec = doJSON(t, router, http.MethodGet, "/api/transactions/missing", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)

	rec = doJSON(t, router, http.MethodGet, "/api/assets/symbol/NOPE", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
}
