package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/Guilhem-Bonnet/kitsu/internal/adapters/hianime"
	"github.com/Guilhem-Bonnet/kitsu/internal/adapters/httpapi"
	"github.com/Guilhem-Bonnet/kitsu/internal/adapters/keyring"
	"github.com/Guilhem-Bonnet/kitsu/internal/adapters/memorybus"
	"github.com/Guilhem-Bonnet/kitsu/internal/adapters/sqlite"
	"github.com/Guilhem-Bonnet/kitsu/internal/app"
	"github.com/Guilhem-Bonnet/kitsu/internal/buildinfo"
	"github.com/Guilhem-Bonnet/kitsu/internal/config"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}
	addr := flag.String("addr", cfg.Addr, "Adresse d'écoute (ex: 127.0.0.1:8080)")
	dbPath := flag.String("db", cfg.DBPath, "Chemin SQLite (ex: kitsu.db)")
	apiURL := flag.String("api", cfg.APIBaseURL, "URL de base du catalogue distant")
	flag.Parse()

	logger := cfg.Logger("kitsu-server", os.Stdout)
	log.Logger = logger

	logger.Info().Interface("build", buildinfo.Current()).Str("db", *dbPath).Str("api", *apiURL).Msg("starting")

	ctx := context.Background()
	db, err := sqlite.Open(ctx, *dbPath)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to open db")
	}
	defer func() { _ = db.Close() }()
	if db.Reset {
		logger.Warn().Int("schema", sqlite.SchemaVersion).Msg("database schema changed, local data was reset")
	}

	bus := memorybus.New()
	defer bus.Close()

	client := hianime.New(hianime.Options{
		BaseURL:   *apiURL,
		Timeout:   cfg.HTTPTimeout,
		RateLimit: cfg.RateLimit,
		RateBurst: cfg.RateBurst,
		UserAgent: buildinfo.UserAgent(),
		Logger:    logger.With().Str("component", "hianime").Logger(),
	})

	srv := httpapi.NewServer(logger, httpapi.Services{
		Catalog:   app.NewCatalogService(client, logger),
		Watchlist: app.NewWatchlistService(sqlite.NewWatchlistRepository(db.SQL), bus),
		Settings:  app.NewSettingsService(sqlite.NewSettingsRepository(db.SQL)),
		Session:   app.NewSessionService(keyring.NewSessionStore(cfg.KeyringService)),
		Bus:       bus,
	})

	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	httpServer := &http.Server{
		Addr:              *addr,
		Handler:           srv.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info().Str("addr", *addr).Msg("listening")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("http server crashed")
			stop()
		}
	}()

	<-shutdownCtx.Done()
	logger.Info().Msg("shutting down")

	// Les flux SSE restent ouverts: on ferme le bus pour les terminer.
	bus.Close()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = httpServer.Shutdown(ctx)
	logger.Info().Msg("bye")
}
