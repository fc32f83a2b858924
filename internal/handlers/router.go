package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// NewRouter wires every handler onto the API routes.
func NewRouter(users *UserHandler, assets *AssetHandler, portfolios *PortfolioHandler, transactions *TransactionHandler) *mux.Router {
	r := mux.NewRouter()

	r.HandleFunc("/health", func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{
			"status":  "healthy",
			"service": "folio-backend",
		})
	})

	api := r.PathPrefix("/api").Subrouter()

	api.HandleFunc("/users", users.HandleUsers)
	api.HandleFunc("/users/{id}", users.HandleUserByID)

	api.HandleFunc("/assets", assets.HandleAssets)
	api.HandleFunc("/assets/symbol/{symbol}", assets.HandleAssetBySymbol)
	api.HandleFunc("/assets/{id}", assets.HandleAssetByID)
	api.HandleFunc("/assets/{id}/price", assets.HandleAssetPrice)

	api.HandleFunc("/portfolios", portfolios.HandlePortfolios)
	api.HandleFunc("/portfolios/{id}", portfolios.HandlePortfolioByID)
	api.HandleFunc("/portfolios/{id}/value", portfolios.HandlePortfolioValue)
	api.HandleFunc("/portfolios/{id}/performance", portfolios.HandlePortfolioPerformance)
	api.HandleFunc("/portfolios/{id}/cash", portfolios.HandlePortfolioCash)
	api.HandleFunc("/portfolios/{id}/positions", portfolios.HandlePortfolioPositions)

	api.HandleFunc("/transactions", transactions.HandleTransactions)
	api.HandleFunc("/transactions/{id}", transactions.HandleTransactionByID)
	api.HandleFunc("/transactions/{id}/execute", transactions.HandleExecute)
	api.HandleFunc("/transactions/{id}/cancel", transactions.HandleCancel)
	api.HandleFunc("/transactions/{id}/fail", transactions.HandleFail)

	return r
}

// RequestLogger logs one line per request with method, path, status and
// duration.
func RequestLogger(logger *zap.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r)

			logger.Info("request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", rec.status),
				zap.Duration("duration", time.Since(start)))
		})
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// CORS allows browser clients on other origins to call the API.
func CORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
