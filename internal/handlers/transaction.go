package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"

	apperrors "github.com/snig/folio/internal/errors"
	"github.com/snig/folio/internal/models"
	"github.com/snig/folio/internal/services"
)

type TransactionHandler struct {
	service services.TransactionService
}

func NewTransactionHandler(service services.TransactionService) *TransactionHandler {
	return &TransactionHandler{service: service}
}

type createTransactionRequest struct {
	Type          models.TransactionType `json:"type"`
	PortfolioID   string                 `json:"portfolio_id"`
	AssetID       string                 `json:"asset_id"`
	Quantity      decimal.Decimal        `json:"quantity"`
	PricePerShare decimal.Decimal        `json:"price_per_share"`
	Commission    decimal.Decimal        `json:"commission"`
	Fees          decimal.Decimal        `json:"fees"`
	Notes         *string                `json:"notes,omitempty"`
	ExternalID    *string                `json:"external_id,omitempty"`
}

type failTransactionRequest struct {
	Reason string `json:"reason"`
}

// HandleTransactions handles collection-level operations for transactions.
// @Summary List or create transactions
// @Description List transactions with optional filters or record a new pending one
// @Tags transactions
// @Accept json
// @Produce json
// @Param portfolio_id query string false "Filter by portfolio"
// @Param asset_id query string false "Filter by asset"
// @Param types query string false "Comma-separated transaction types"
// @Param statuses query string false "Comma-separated statuses"
// @Param start_date query string false "Start date (YYYY-MM-DD)"
// @Param end_date query string false "End date (YYYY-MM-DD)"
// @Param limit query int false "Limit"
// @Param offset query int false "Offset"
// @Success 200 {array} models.Transaction
// @Success 201 {object} models.Transaction
// @Failure 400 {string} string "Invalid request"
// @Router /transactions [get]
// @Router /transactions [post]
func (h *TransactionHandler) HandleTransactions(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	switch r.Method {
	case http.MethodGet:
		h.listTransactions(w, r)
	case http.MethodPost:
		h.createTransaction(w, r)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// HandleTransactionByID handles GET /api/transactions/{id}
// @Summary Get transaction by ID
// @Tags transactions
// @Produce json
// @Param id path string true "Transaction ID"
// @Success 200 {object} models.Transaction
// @Failure 404 {string} string "Transaction not found"
// @Router /transactions/{id} [get]
func (h *TransactionHandler) HandleTransactionByID(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	tx, err := h.service.GetTransaction(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, err)
		return
	}
	json.NewEncoder(w).Encode(tx)
}

// HandleExecute handles POST /api/transactions/{id}/execute
// @Summary Execute a pending transaction
// @Description Apply position and cash effects atomically; a transaction whose effects cannot be applied ends FAILED
// @Tags transactions
// @Produce json
// @Param id path string true "Transaction ID"
// @Success 200 {object} models.Transaction
// @Failure 404 {string} string "Transaction not found"
// @Failure 409 {string} string "Transaction is not pending"
// @Failure 422 {string} string "Insufficient funds or shares"
// @Router /transactions/{id}/execute [post]
func (h *TransactionHandler) HandleExecute(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	tx, err := h.service.Execute(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		// An effect failure leaves a terminal FAILED row behind; return it
		// so clients can see the outcome alongside the error status.
		if tx != nil && tx.Status == models.TransactionStatusFailed && !apperrors.IsInvalidTransition(err) {
			w.WriteHeader(http.StatusUnprocessableEntity)
			json.NewEncoder(w).Encode(tx)
			return
		}
		writeError(w, err)
		return
	}
	json.NewEncoder(w).Encode(tx)
}

// HandleCancel handles POST /api/transactions/{id}/cancel
// @Summary Cancel a pending transaction
// @Tags transactions
// @Produce json
// @Param id path string true "Transaction ID"
// @Success 200 {object} models.Transaction
// @Failure 409 {string} string "Transaction is not pending"
// @Router /transactions/{id}/cancel [post]
func (h *TransactionHandler) HandleCancel(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	tx, err := h.service.Cancel(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, err)
		return
	}
	json.NewEncoder(w).Encode(tx)
}

// HandleFail handles POST /api/transactions/{id}/fail
// @Summary Mark a pending transaction as failed
// @Tags transactions
// @Accept json
// @Produce json
// @Param id path string true "Transaction ID"
// @Success 200 {object} models.Transaction
// @Failure 409 {string} string "Transaction is not pending"
// @Router /transactions/{id}/fail [post]
func (h *TransactionHandler) HandleFail(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req failTransactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON: "+err.Error(), http.StatusBadRequest)
		return
	}

	tx, err := h.service.Fail(r.Context(), mux.Vars(r)["id"], req.Reason)
	if err != nil {
		writeError(w, err)
		return
	}
	json.NewEncoder(w).Encode(tx)
}

func (h *TransactionHandler) listTransactions(w http.ResponseWriter, r *http.Request) {
	filter := &models.TransactionFilter{}

	if portfolioID := r.URL.Query().Get("portfolio_id"); portfolioID != "" {
		filter.PortfolioID = &portfolioID
	}

	if assetID := r.URL.Query().Get("asset_id"); assetID != "" {
		filter.AssetID = &assetID
	}

	if types := r.URL.Query().Get("types"); types != "" {
		for _, t := range strings.Split(types, ",") {
			filter.Types = append(filter.Types, models.TransactionType(strings.ToUpper(t)))
		}
	}

	if statuses := r.URL.Query().Get("statuses"); statuses != "" {
		for _, s := range strings.Split(statuses, ",") {
			filter.Statuses = append(filter.Statuses, models.TransactionStatus(strings.ToUpper(s)))
		}
	}

	if startDate := r.URL.Query().Get("start_date"); startDate != "" {
		if date, err := time.Parse("2006-01-02", startDate); err == nil {
			filter.StartDate = &date
		}
	}

	if endDate := r.URL.Query().Get("end_date"); endDate != "" {
		if date, err := time.Parse("2006-01-02", endDate); err == nil {
			filter.EndDate = &date
		}
	}

	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if limit, err := strconv.Atoi(limitStr); err == nil && limit > 0 {
			filter.Limit = limit
		}
	}

	if offsetStr := r.URL.Query().Get("offset"); offsetStr != "" {
		if offset, err := strconv.Atoi(offsetStr); err == nil && offset >= 0 {
			filter.Offset = offset
		}
	}

	transactions, err := h.service.ListTransactions(r.Context(), filter)
	if err != nil {
		writeError(w, err)
		return
	}
	json.NewEncoder(w).Encode(transactions)
}

func (h *TransactionHandler) createTransaction(w http.ResponseWriter, r *http.Request) {
	var req createTransactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON: "+err.Error(), http.StatusBadRequest)
		return
	}

	tx := models.NewTransaction(req.Type, req.PortfolioID, req.AssetID, req.Quantity, req.PricePerShare)
	tx.Commission = req.Commission
	tx.Fees = req.Fees
	tx.Notes = req.Notes
	tx.ExternalID = req.ExternalID

	if err := h.service.CreateTransaction(r.Context(), tx); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, tx)
}
