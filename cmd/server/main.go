package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/acerempel/monies/internal/config"
	"github.com/acerempel/monies/internal/database"
	"github.com/acerempel/monies/internal/executor"
	"github.com/acerempel/monies/internal/ledger"
	mW "github.com/acerempel/monies/internal/middleware"
	"github.com/acerempel/monies/internal/services"
)

func main() {
	configPath := flag.String("config", "monies.toml", "path to the configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	ctx := context.Background()
	pool, err := database.Open(ctx, database.Config{
		File:           cfg.DBFile,
		MaxConns:       cfg.DBMaxConns,
		AcquireTimeout: cfg.DBAcquireTimeout,
	})
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer pool.Close()

	// One worker per pooled connection: more would only queue behind
	// connections that cannot be acquired.
	exec := executor.New(cfg.DBMaxConns)
	defer exec.Close()

	repo := ledger.NewRepository(pool)
	transactionService := services.NewTransactionService(repo, exec)
	accountService := services.NewAccountService(repo, exec)

	r := chi.NewRouter()

	r.Use(mW.SecurityHeaders)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"https://*", "http://*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         86400,
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		stats := pool.Stats()
		services.SendJSONResponse(w, http.StatusOK, map[string]any{
			"status":           "healthy",
			"open_connections": stats.OpenConnections,
			"in_use":           stats.InUse,
		})
	})

	r.Get("/transactions/list", transactionService.ListTransactions)
	r.Post("/transactions/new", transactionService.CreateTransaction)
	r.Get("/transactions/{transactionID}", transactionService.GetTransaction)

	r.Post("/accounts/new", accountService.CreateAccount)
	r.Get("/accounts/list", accountService.ListAccounts)
	r.Get("/accounts/{accountID}/balance", accountService.GetBalance)
	r.Put("/accounts/{accountID}/name", accountService.RenameAccount)

	server := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Server starting on %s", cfg.Addr())
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Server shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	log.Println("Server stopped")
}
