package main

import (
	"fmt"
	"net/http"
	"os"
	"time"

	"database/sql"

	"github.com/bankcards/card-service/internal/config"
	"github.com/bankcards/card-service/internal/handler"
	"github.com/bankcards/card-service/internal/middleware"
	"github.com/bankcards/card-service/internal/repository"
	"github.com/bankcards/card-service/internal/scheduler"
	"github.com/bankcards/card-service/internal/service"
	"github.com/bankcards/card-service/internal/utils"
	"github.com/bankcards/card-service/internal/utils/email"
	"github.com/gorilla/mux"
	_ "github.com/lib/pq"
	"github.com/sirupsen/logrus"
)

func main() {
	// Initialize logger
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logLevel, err := logrus.ParseLevel(os.Getenv("LOG_LEVEL"))
	if err != nil {
		logLevel = logrus.InfoLevel
	}
	logger.SetLevel(logLevel)

	// Load configuration
	cfg, err := config.NewConfig()
	if err != nil {
		logger.Fatalf("Failed to load config: %v", err)
	}

	// Initialize database
	db, err := sql.Open("postgres", cfg.DBConn)
	if err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()
	if err := db.Ping(); err != nil {
		logger.Fatalf("Failed to ping database: %v", err)
	}

	// Initialize layers
	key, err := cfg.EncryptionKeyBytes()
	if err != nil {
		logger.Fatalf("Failed to load encryption key: %v", err)
	}
	encryptor, err := utils.NewEncryptor(key)
	if err != nil {
		logger.Fatalf("Failed to initialize encryptor: %v", err)
	}

	repo := repository.NewRepository(db)
	sender := email.NewSender(cfg, logger)
	var notifier service.Notifier
	if sender.Enabled() {
		notifier = sender
	}

	cardSvc := service.NewCardService(repo, encryptor, cfg.HMACSecret, logger)
	transactionSvc := service.NewTransactionService(repo, cardSvc, notifier, logger)
	userSvc := service.NewUserService(repo, logger)
	authSvc := service.NewAuthService(repo, cfg.JWTSecret, time.Duration(cfg.JWTExpiryHours)*time.Hour, logger)
	h := handler.NewHandler(cardSvc, transactionSvc, userSvc, authSvc, logger)

	// Setup router
	r := mux.NewRouter()
	// Public routes
	r.HandleFunc("/api/auth", h.Login).Methods("POST")
	// Protected routes
	authRouter := r.PathPrefix("/api").Subrouter()
	authRouter.Use(middleware.AuthMiddleware(cfg, repo))

	authRouter.HandleFunc("/users/me", h.GetMe).Methods("GET")
	authRouter.HandleFunc("/users", h.GetAllUsers).Methods("GET")
	authRouter.HandleFunc("/users", h.CreateUser).Methods("PUT")
	authRouter.HandleFunc("/users/{id:[0-9]+}", h.GetUser).Methods("GET")
	authRouter.HandleFunc("/users/{id:[0-9]+}/enable", h.EnableUser).Methods("POST")
	authRouter.HandleFunc("/users/{id:[0-9]+}/disable", h.DisableUser).Methods("POST")

	authRouter.HandleFunc("/cards/own", h.GetOwnCards).Methods("GET")
	authRouter.HandleFunc("/cards", h.GetAllCards).Methods("GET")
	authRouter.HandleFunc("/cards", h.CreateCard).Methods("PUT")
	authRouter.HandleFunc("/cards/{id:[0-9]+}", h.GetCard).Methods("GET")
	authRouter.HandleFunc("/cards/{id:[0-9]+}/activate", h.ActivateCard).Methods("POST")
	authRouter.HandleFunc("/cards/{id:[0-9]+}/block", h.BlockCard).Methods("POST")
	authRouter.HandleFunc("/cards/{id:[0-9]+}", h.DeleteCard).Methods("DELETE")

	authRouter.HandleFunc("/transactions/own", h.GetOwnTransactions).Methods("GET")
	authRouter.HandleFunc("/transactions/card/{cardId:[0-9]+}", h.GetCardTransactions).Methods("GET")
	authRouter.HandleFunc("/transactions/card/{cardId:[0-9]+}/statement", h.ExportCardStatement).Methods("GET")
	authRouter.HandleFunc("/transactions/user/{userId:[0-9]+}", h.GetUserTransactions).Methods("GET")
	authRouter.HandleFunc("/transactions/deposit", h.Deposit).Methods("POST")
	authRouter.HandleFunc("/transactions/transfer", h.Transfer).Methods("POST")

	// Expiry reminders run only when mail is configured
	if sender.Enabled() {
		sched := scheduler.New(cardSvc, repo, sender, logger)
		if err := sched.Start(); err != nil {
			logger.Fatalf("Failed to start scheduler: %v", err)
		}
		defer sched.Stop()
	}

	// Start server
	addr := fmt.Sprintf(":%s", cfg.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	logger.Infof("Starting server on %s", addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatalf("Server failed: %v", err)
	}
}
