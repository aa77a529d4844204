package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/pzaremba/site-auth-be/internal/api"
	"github.com/pzaremba/site-auth-be/internal/clock"
	"github.com/pzaremba/site-auth-be/internal/config"
	"github.com/pzaremba/site-auth-be/internal/database"
	"github.com/pzaremba/site-auth-be/internal/hashing"
	"github.com/pzaremba/site-auth-be/internal/logger"
	"github.com/pzaremba/site-auth-be/internal/services"
	"github.com/pzaremba/site-auth-be/internal/storage"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger.Init(cfg.LogLevel)

	// Set up database
	db, err := database.New(cfg.DatabasePath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		log.Fatal().Err(err).Msg("Failed to apply database migrations")
	}

	// Set up the account service and its collaborators
	repo := storage.NewSQLiteRepository(db)
	hasher := hashing.NewBcryptHasher(cfg.BcryptCost)
	policy := services.Policy{
		MinPasswordLength: cfg.MinPasswordLength,
		MaxFailedLogins:   cfg.MaxFailedLogins,
		LockoutDuration:   cfg.LockoutDuration,
	}
	accountService := services.NewAccountService(repo, hasher, clock.New(), policy)

	// Set up router
	router := api.NewRouter(accountService, cfg.StaticDir, cfg.AllowedOrigins)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.ServerPort),
		Handler: router,
	}

	// Graceful shutdown
	go func() {
		log.Info().Int("port", cfg.ServerPort).Msg("Server starting")
		if err := srv.ListenAndServe(); err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("ListenAndServe()")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exiting")
}
