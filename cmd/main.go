package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/bancodev/bankdash-gobackend/internal/apiclient"
	"github.com/bancodev/bankdash-gobackend/internal/auth"
	"github.com/bancodev/bankdash-gobackend/internal/cache"
	"github.com/bancodev/bankdash-gobackend/internal/config"
	"github.com/bancodev/bankdash-gobackend/internal/dashboard"
	"github.com/bancodev/bankdash-gobackend/internal/db"
	"github.com/bancodev/bankdash-gobackend/internal/events"
	"github.com/bancodev/bankdash-gobackend/internal/handlers"
	"github.com/bancodev/bankdash-gobackend/internal/logging"
	"github.com/bancodev/bankdash-gobackend/internal/metrics"
	"github.com/bancodev/bankdash-gobackend/internal/sepa"
	"github.com/bancodev/bankdash-gobackend/internal/services"
)

func main() {
	// Load .env
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("Warning: Error loading .env: %s", err)
	}

	cfg := config.Load()

	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	if cfg.MongoURI == "" {
		logger.Fatal("MONGOURI environment variable not set")
	}

	// Connect to MongoDB
	client, err := db.Connect(context.Background(), cfg.MongoURI)
	if err != nil {
		logger.Fatal("Failed to connect to MongoDB", zap.Error(err))
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := db.Disconnect(ctx, client); err != nil {
			logger.Error("Error disconnecting from MongoDB", zap.Error(err))
		}
	}()
	logger.Info("Successfully connected to MongoDB")

	database := client.Database(cfg.MongoDB)

	// Optional infrastructure: read cache and status event publishing
	readCache, err := cache.New(cfg.RedisAddr, cfg.CacheTTL, logger)
	if err != nil {
		logger.Fatal("Failed to connect to Redis", zap.Error(err))
	}
	defer readCache.Close()

	publisher := events.NewPublisher(cfg.KafkaBrokers, cfg.KafkaTopic, logger)
	defer publisher.Close()

	metrics.Register()

	// Initialize services and handlers
	authManager := auth.NewManager(cfg.JWTSecret, cfg.AccessTTL, cfg.RefreshTTL)

	accountService := services.NewAccountService(database, readCache, logger)
	accountHandler := handlers.NewAccountHandler(accountService)

	transactionService := services.NewTransactionService(database, publisher, logger)
	transactionHandler := handlers.NewTransactionHandler(transactionService)

	sepaClient := sepa.NewClient(cfg.SepaBaseURL, cfg.SepaClientID, cfg.SepaClientSecret, logger)
	sepaHandler := handlers.NewSepaHandler(sepaClient)

	transferService := services.NewTransferService(database, accountService, sepaClient, publisher, logger)
	transferHandler := handlers.NewTransferHandler(transferService)

	userService := services.NewUserService(database)
	userHandler := handlers.NewUserHandler(userService, authManager)

	dashboardClient := apiclient.New(cfg.BaseURL)
	aggregator := dashboard.NewAggregator(dashboardClient, logger)
	dashboardHandler := handlers.NewDashboardHandler(aggregator)

	indexCtx, indexCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer indexCancel()
	for _, ensure := range []func(context.Context) error{
		accountService.EnsureIndexes,
		transactionService.EnsureIndexes,
		transferService.EnsureIndexes,
	} {
		if err := ensure(indexCtx); err != nil {
			logger.Fatal("Failed to create indexes", zap.Error(err))
		}
	}

	// Set up router
	router := mux.NewRouter()
	router.Use(metrics.Middleware())

	router.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	}).Methods("GET", "HEAD")
	router.Handle("/metrics", promhttp.Handler()).Methods("GET")

	router.HandleFunc("/api/user", userHandler.CreateUser).Methods("POST")
	router.HandleFunc("/api/login", userHandler.LoginUserHandler).Methods("POST")
	router.HandleFunc("/api/token/refresh", userHandler.RefreshToken).Methods("POST")

	router.HandleFunc("/api/accounts", accountHandler.GetAccounts).Methods("GET")
	router.HandleFunc("/api/accounts/{accountID}", accountHandler.GetAccount).Methods("GET")
	router.HandleFunc("/api/accounts/{accountID}/balance", accountHandler.GetBalance).Methods("GET")

	router.HandleFunc("/api/transactions", transactionHandler.GetTransactions).Methods("GET")
	router.HandleFunc("/api/transactions/{transactionID}", transactionHandler.GetTransaction).Methods("GET")

	router.HandleFunc("/api/transfers", transferHandler.GetTransfers).Methods("GET")
	router.HandleFunc("/api/transfers/{transferID}", transferHandler.GetTransfer).Methods("GET")
	router.HandleFunc("/api/transfers/{transferID}/status", transferHandler.GetStatusHistory).Methods("GET")

	// Mutations require a valid access token
	protected := router.PathPrefix("/api").Subrouter()
	protected.Use(mux.MiddlewareFunc(authManager.Middleware))
	protected.HandleFunc("/user/list", userHandler.GetUsers).Methods("GET")
	protected.HandleFunc("/user/{userID}", userHandler.GetUser).Methods("GET")
	protected.HandleFunc("/accounts", accountHandler.CreateAccount).Methods("POST")
	protected.HandleFunc("/accounts/{accountID}", accountHandler.UpdateAccount).Methods("PUT")
	protected.HandleFunc("/accounts/{accountID}", accountHandler.DeleteAccount).Methods("DELETE")
	protected.HandleFunc("/transactions", transactionHandler.CreateTransaction).Methods("POST")
	protected.HandleFunc("/transactions/{transactionID}", transactionHandler.UpdateTransaction).Methods("PUT")
	protected.HandleFunc("/transactions/{transactionID}", transactionHandler.DeleteTransaction).Methods("DELETE")
	protected.HandleFunc("/transfers", transferHandler.CreateTransfer).Methods("POST")
	protected.HandleFunc("/transfers/{transferID}/process", transferHandler.ProcessTransfer).Methods("POST")
	protected.HandleFunc("/transfers/{transferID}/status", transferHandler.UpdateStatus).Methods("PATCH", "PUT")

	// SEPA proxy (consumed third-party rail)
	protected.HandleFunc("/sepa/reachability", sepaHandler.ReachabilityStatus).Methods("GET")
	protected.HandleFunc("/sepa/credit-transfers", sepaHandler.CreateCreditTransfer).Methods("POST")
	protected.HandleFunc("/sepa/credit-transfers/{paymentID}", sepaHandler.GetCreditTransfer).Methods("GET")
	protected.HandleFunc("/sepa/credit-transfers/{paymentID}", sepaHandler.CancelCreditTransfer).Methods("DELETE")

	router.HandleFunc("/app/dashboard", dashboardHandler.ServeDashboard).Methods("GET")

	// Poll the bank for status updates on submitted transfers
	pollCtx, pollCancel := context.WithCancel(context.Background())
	defer pollCancel()
	if cfg.SepaPollInterval > 0 && sepaClient.Configured() {
		poller := services.NewStatusPoller(transferService, cfg.SepaPollInterval, logger)
		go func() {
			if err := poller.Run(pollCtx); err != nil && err != context.Canceled {
				logger.Error("Status poller exited", zap.Error(err))
			}
		}()
	}

	// Start server
	server := &http.Server{
		Addr:         "0.0.0.0:" + cfg.Port,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("Server running", zap.String("port", cfg.Port))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Error("Server shutdown error", zap.Error(err))
	}
}
