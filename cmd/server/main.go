package main

import (
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/snig/folio/internal/db"
	"github.com/snig/folio/internal/handlers"
	"github.com/snig/folio/internal/logger"
	"github.com/snig/folio/internal/services"
)

func main() {
	// Optional .env for local development; real deployments set env directly
	_ = godotenv.Load()

	log, err := logger.New()
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	// Database connection
	config := db.NewConfig()
	database, err := db.Connect(config)
	if err != nil {
		log.Fatal("failed to connect to database", zap.Error(err))
	}
	defer database.Close()

	if err := database.Health(); err != nil {
		log.Fatal("database health check failed", zap.Error(err))
	}
	if err := db.Migrate(database); err != nil {
		log.Fatal("migration failed", zap.Error(err))
	}
	log.Info("database connection established", zap.String("host", config.Host), zap.String("database", config.Name))

	// Services
	userService := services.NewUserService(database, log)
	assetService := services.NewAssetService(database, log)
	portfolioService := services.NewPortfolioService(database, log)
	transactionService := services.NewTransactionService(database, log)

	// Handlers and routing
	router := handlers.NewRouter(
		handlers.NewUserHandler(userService),
		handlers.NewAssetHandler(assetService),
		handlers.NewPortfolioHandler(portfolioService),
		handlers.NewTransactionHandler(transactionService),
	)
	router.Use(handlers.RequestLogger(log))

	port := os.Getenv("SERVER_PORT")
	if port == "" {
		port = "8080"
	}

	log.Info("server starting", zap.String("port", port))
	if err := http.ListenAndServe(":"+port, handlers.CORS(router)); err != nil {
		log.Fatal("server exited", zap.Error(err))
	}
}
