package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/Guilhem-Bonnet/kitsu/internal/adapters/hianime"
	"github.com/Guilhem-Bonnet/kitsu/internal/adapters/keyring"
	"github.com/Guilhem-Bonnet/kitsu/internal/adapters/memorybus"
	"github.com/Guilhem-Bonnet/kitsu/internal/adapters/sqlite"
	"github.com/Guilhem-Bonnet/kitsu/internal/app"
	"github.com/Guilhem-Bonnet/kitsu/internal/buildinfo"
	"github.com/Guilhem-Bonnet/kitsu/internal/config"
)

// cli porte la configuration et les services, ouverts à la demande:
// une commande de catalogue n'ouvre pas la base, et inversement.
type cli struct {
	cfg    config.Config
	logger zerolog.Logger
	out    io.Writer
	json   bool

	db        *sqlite.DB
	bus       *memorybus.Bus
	catalog   *app.CatalogService
	watchlist *app.WatchlistService
	settings  *app.SettingsService
}

func newRootCmd() *cobra.Command {
	c := &cli{out: os.Stdout}
	def := config.Default()

	var (
		dbPath    string
		apiURL    string
		logLevel  string
		logFormat string
	)

	root := &cobra.Command{
		Use:           "kitsu",
		Short:         "Browse, search and track anime from the terminal",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			flags := cmd.Flags()
			if flags.Changed("db") {
				cfg.DBPath = dbPath
			}
			if flags.Changed("api") {
				cfg.APIBaseURL = apiURL
			}
			// Défauts de log propres au CLI, sauf flag ou variable d'environnement.
			if flags.Changed("log-level") || os.Getenv("KITSU_LOG_LEVEL") == "" {
				cfg.LogLevel = logLevel
			}
			if flags.Changed("log-format") || os.Getenv("KITSU_LOG_FORMAT") == "" {
				cfg.LogFormat = logFormat
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			c.cfg = cfg
			c.logger = cfg.Logger("kitsu", os.Stderr)
			return nil
		},
	}
	cobra.OnFinalize(c.close)

	pf := root.PersistentFlags()
	pf.StringVar(&dbPath, "db", def.DBPath, "Chemin SQLite de la watchlist")
	pf.StringVar(&apiURL, "api", def.APIBaseURL, "URL de base du catalogue distant")
	pf.StringVar(&logLevel, "log-level", "warn", "Niveau de log (debug, info, warn, error)")
	pf.StringVar(&logFormat, "log-format", "console", "Format des logs (json, console)")
	pf.BoolVar(&c.json, "json", false, "Sortie JSON")

	root.AddCommand(
		newHomeCmd(c),
		newSearchCmd(c),
		newBrowseCmd(c),
		newAnimeCmd(c),
		newStreamCmd(c),
		newScheduleCmd(c),
		newWatchlistCmd(c),
		newSettingsCmd(c),
		newLoginCmd(c),
		newLogoutCmd(c),
		newWhoamiCmd(c),
		newVersionCmd(c),
	)
	return root
}

func (c *cli) catalogService() *app.CatalogService {
	if c.catalog == nil {
		client := hianime.New(hianime.Options{
			BaseURL:   c.cfg.APIBaseURL,
			Timeout:   c.cfg.HTTPTimeout,
			RateLimit: c.cfg.RateLimit,
			RateBurst: c.cfg.RateBurst,
			UserAgent: buildinfo.UserAgent(),
			Logger:    c.logger.With().Str("component", "hianime").Logger(),
		})
		c.catalog = app.NewCatalogService(client, c.logger)
	}
	return c.catalog
}

func (c *cli) openDB(ctx context.Context) (*sqlite.DB, error) {
	if c.db != nil {
		return c.db, nil
	}
	db, err := sqlite.Open(ctx, c.cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", c.cfg.DBPath, err)
	}
	if db.Reset {
		c.logger.Warn().Str("db", c.cfg.DBPath).Msg("database schema changed, local data was reset")
	}
	c.db = db
	return db, nil
}

func (c *cli) watchlistService(ctx context.Context) (*app.WatchlistService, error) {
	if c.watchlist != nil {
		return c.watchlist, nil
	}
	db, err := c.openDB(ctx)
	if err != nil {
		return nil, err
	}
	c.bus = memorybus.New()
	c.watchlist = app.NewWatchlistService(sqlite.NewWatchlistRepository(db.SQL), c.bus)
	return c.watchlist, nil
}

func (c *cli) settingsService(ctx context.Context) (*app.SettingsService, error) {
	if c.settings != nil {
		return c.settings, nil
	}
	db, err := c.openDB(ctx)
	if err != nil {
		return nil, err
	}
	c.settings = app.NewSettingsService(sqlite.NewSettingsRepository(db.SQL))
	return c.settings, nil
}

func (c *cli) sessionService() *app.SessionService {
	return app.NewSessionService(keyring.NewSessionStore(c.cfg.KeyringService))
}

func (c *cli) close() {
	if c.bus != nil {
		c.bus.Close()
	}
	if c.db != nil {
		_ = c.db.Close()
	}
}

func (c *cli) printJSON(v any) error {
	enc := json.NewEncoder(c.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func (c *cli) printf(format string, args ...any) {
	fmt.Fprintf(c.out, format, args...)
}

func newVersionCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			info := buildinfo.Current()
			if c.json {
				return c.printJSON(info)
			}
			c.printf("kitsu %s", info.Version)
			if info.Commit != "" {
				c.printf(" (%s)", info.Commit)
			}
			c.printf(" %s\n", info.GoVersion)
			return nil
		},
	}
}
