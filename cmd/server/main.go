package main

import (
	"time"

	"corrcreate/internal/cache"
	"corrcreate/internal/config"
	"corrcreate/internal/dataservice"
	"corrcreate/internal/email"
	"corrcreate/internal/server"
	"corrcreate/internal/session"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Setup logger
	logger := cfg.SetupLogger()

	// Initialize database connection
	db, err := dataservice.NewDB(cfg.DatabaseURL)
	if err != nil {
		logger.Warn().Err(err).Msg("Database connection failed")
		logger.Info().Msg("Starting server without database connection")
	} else {
		logger.Info().Msg("Database connection established successfully")
	}

	data := dataservice.NewSQLService(db)
	sender := email.NewEmailService(cfg.SendGridAPIKey, cfg.SenderEmail)

	registry := session.NewRegistry(session.Deps{
		Data:              data,
		Sender:            sender,
		Cache:             cache.New(),
		Logger:            logger,
		CatalogTTL:        time.Duration(cfg.CatalogCacheTTL) * time.Second,
		DispatchTimeout:   time.Duration(cfg.DispatchTimeout) * time.Second,
		NavigationActions: cfg.NavigationActions,
		MultiSelect:       cfg.MultiSelect,
	})

	// Create and initialize server
	srv := server.New(cfg, db, data, registry, logger)
	srv.Initialize()

	// Start server
	if err := srv.Start(); err != nil {
		logger.Fatal().Err(err).Msg("Server failed to start")
	}
}
