package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"

	"github.com/snig/folio/internal/models"
	"github.com/snig/folio/internal/services"
)

type AssetHandler struct {
	service services.AssetService
}

func NewAssetHandler(service services.AssetService) *AssetHandler {
	return &AssetHandler{service: service}
}

type createAssetRequest struct {
	Symbol       string           `json:"symbol"`
	Name         string           `json:"name"`
	Type         models.AssetType `json:"type"`
	CurrentPrice decimal.Decimal  `json:"current_price"`
	Sector       *string          `json:"sector,omitempty"`
	Exchange     *string          `json:"exchange,omitempty"`
}

type updatePriceRequest struct {
	Price decimal.Decimal `json:"price"`
}

// HandleAssets handles collection-level operations for assets.
// @Summary List or create assets
// @Tags assets
// @Accept json
// @Produce json
// @Param active query bool false "Only active assets"
// @Success 200 {array} models.Asset
// @Success 201 {object} models.Asset
// @Failure 400 {string} string "Invalid request"
// @Router /assets [get]
// @Router /assets [post]
func (h *AssetHandler) HandleAssets(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	switch r.Method {
	case http.MethodGet:
		activeOnly := false
		if activeStr := r.URL.Query().Get("active"); activeStr != "" {
			if active, err := strconv.ParseBool(activeStr); err == nil {
				activeOnly = active
			}
		}
		assets, err := h.service.ListAssets(r.Context(), activeOnly)
		if err != nil {
			writeError(w, err)
			return
		}
		json.NewEncoder(w).Encode(assets)
	case http.MethodPost:
		var req createAssetRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid JSON: "+err.Error(), http.StatusBadRequest)
			return
		}
		asset := models.NewAsset(req.Symbol, req.Name, req.Type, req.CurrentPrice)
		asset.Sector = req.Sector
		asset.Exchange = req.Exchange
		if err := h.service.CreateAsset(r.Context(), asset); err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, asset)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// HandleAssetByID handles GET /api/assets/{id}
// @Summary Get asset by ID
// @Tags assets
// @Produce json
// @Param id path string true "Asset ID"
// @Success 200 {object} models.Asset
// @Failure 404 {string} string "Asset not found"
// @Router /assets/{id} [get]
func (h *AssetHandler) HandleAssetByID(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	asset, err := h.service.GetAsset(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, err)
		return
	}
	json.NewEncoder(w).Encode(asset)
}

// HandleAssetBySymbol handles GET /api/assets/symbol/{symbol}
// @Summary Get asset by ticker symbol
// @Tags assets
// @Produce json
// @Param symbol path string true "Ticker symbol"
// @Success 200 {object} models.Asset
// @Failure 404 {string} string "Asset not found"
// @Router /assets/symbol/{symbol} [get]
func (h *AssetHandler) HandleAssetBySymbol(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	asset, err := h.service.GetAssetBySymbol(r.Context(), mux.Vars(r)["symbol"])
	if err != nil {
		writeError(w, err)
		return
	}
	json.NewEncoder(w).Encode(asset)
}

// HandleAssetPrice handles PUT /api/assets/{id}/price
// @Summary Update asset price
// @Description Apply a price tick and revalue every position holding the asset
// @Tags assets
// @Accept json
// @Produce json
// @Param id path string true "Asset ID"
// @Success 200 {object} models.Asset
// @Failure 400 {string} string "Invalid price"
// @Failure 404 {string} string "Asset not found"
// @Router /assets/{id}/price [put]
func (h *AssetHandler) HandleAssetPrice(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if r.Method != http.MethodPut {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req updatePriceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON: "+err.Error(), http.StatusBadRequest)
		return
	}

	asset, err := h.service.UpdatePrice(r.Context(), mux.Vars(r)["id"], req.Price)
	if err != nil {
		writeError(w, err)
		return
	}
	json.NewEncoder(w).Encode(asset)
}
