package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"

	"github.com/snig/folio/internal/services"
)

type PortfolioHandler struct {
	service services.PortfolioService
}

func NewPortfolioHandler(service services.PortfolioService) *PortfolioHandler {
	return &PortfolioHandler{service: service}
}

type createPortfolioRequest struct {
	UserID      string          `json:"user_id"`
	Name        string          `json:"name"`
	InitialCash decimal.Decimal `json:"initial_cash"`
}

type adjustCashRequest struct {
	Amount decimal.Decimal `json:"amount"`
	Reason string          `json:"reason"`
}

// HandlePortfolios handles collection-level operations for portfolios.
// @Summary List or create portfolios
// @Description List portfolios for a user or create a new one
// @Tags portfolios
// @Accept json
// @Produce json
// @Param user_id query string false "Owner user ID (required for GET)"
// @Success 200 {array} models.Portfolio
// @Success 201 {object} models.Portfolio
// @Failure 400 {string} string "Invalid request"
// @Failure 404 {string} string "User not found"
// @Router /portfolios [get]
// @Router /portfolios [post]
func (h *PortfolioHandler) HandlePortfolios(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	switch r.Method {
	case http.MethodGet:
		userID := r.URL.Query().Get("user_id")
		if userID == "" {
			http.Error(w, "user_id is required", http.StatusBadRequest)
			return
		}
		portfolios, err := h.service.ListPortfolios(r.Context(), userID)
		if err != nil {
			writeError(w, err)
			return
		}
		json.NewEncoder(w).Encode(portfolios)
	case http.MethodPost:
		var req createPortfolioRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid JSON: "+err.Error(), http.StatusBadRequest)
			return
		}
		portfolio, err := h.service.CreatePortfolio(r.Context(), req.UserID, req.Name, req.InitialCash)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, portfolio)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// HandlePortfolioByID handles GET /api/portfolios/{id}
// @Summary Get portfolio by ID
// @Tags portfolios
// @Produce json
// @Param id path string true "Portfolio ID"
// @Success 200 {object} models.Portfolio
// @Failure 404 {string} string "Portfolio not found"
// @Router /portfolios/{id} [get]
func (h *PortfolioHandler) HandlePortfolioByID(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	portfolio, err := h.service.GetPortfolio(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, err)
		return
	}
	json.NewEncoder(w).Encode(portfolio)
}

// HandlePortfolioValue handles GET /api/portfolios/{id}/value
// @Summary Get current portfolio value
// @Description Revalue all open positions at current prices and return the total
// @Tags portfolios
// @Produce json
// @Param id path string true "Portfolio ID"
// @Success 200 {object} map[string]string
// @Failure 404 {string} string "Portfolio not found"
// @Router /portfolios/{id}/value [get]
func (h *PortfolioHandler) HandlePortfolioValue(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	id := mux.Vars(r)["id"]
	value, err := h.service.GetValue(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	json.NewEncoder(w).Encode(map[string]string{
		"portfolio_id": id,
		"total_value":  value.StringFixed(2),
	})
}

// HandlePortfolioPerformance handles GET /api/portfolios/{id}/performance
// @Summary Get portfolio performance metrics
// @Tags portfolios
// @Produce json
// @Param id path string true "Portfolio ID"
// @Success 200 {object} models.PortfolioPerformance
// @Failure 404 {string} string "Portfolio not found"
// @Router /portfolios/{id}/performance [get]
func (h *PortfolioHandler) HandlePortfolioPerformance(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	perf, err := h.service.GetPerformance(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, err)
		return
	}
	json.NewEncoder(w).Encode(perf)
}

// HandlePortfolioCash handles POST /api/portfolios/{id}/cash
// @Summary Deposit or withdraw cash
// @Description Positive amount deposits, negative amount withdraws
// @Tags portfolios
// @Accept json
// @Produce json
// @Param id path string true "Portfolio ID"
// @Success 200 {object} models.Portfolio
// @Failure 400 {string} string "Invalid request"
// @Failure 422 {string} string "Insufficient funds"
// @Router /portfolios/{id}/cash [post]
func (h *PortfolioHandler) HandlePortfolioCash(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req adjustCashRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON: "+err.Error(), http.StatusBadRequest)
		return
	}

	portfolio, err := h.service.AdjustCash(r.Context(), mux.Vars(r)["id"], req.Amount, req.Reason)
	if err != nil {
		writeError(w, err)
		return
	}
	json.NewEncoder(w).Encode(portfolio)
}

// HandlePortfolioPositions handles GET /api/portfolios/{id}/positions
// @Summary List portfolio positions
// @Tags portfolios
// @Produce json
// @Param id path string true "Portfolio ID"
// @Param include_closed query bool false "Include closed positions"
// @Success 200 {array} models.Position
// @Failure 404 {string} string "Portfolio not found"
// @Router /portfolios/{id}/positions [get]
func (h *PortfolioHandler) HandlePortfolioPositions(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	activeOnly := true
	if includeStr := r.URL.Query().Get("include_closed"); includeStr != "" {
		if include, err := strconv.ParseBool(includeStr); err == nil && include {
			activeOnly = false
		}
	}

	positions, err := h.service.ListPositions(r.Context(), mux.Vars(r)["id"], activeOnly)
	if err != nil {
		writeError(w, err)
		return
	}
	json.NewEncoder(w).Encode(positions)
}
