package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
)

const envPrefix = "KITSU_"

// Config est lue depuis les variables KITSU_*; les flags des binaires
// peuvent ensuite surcharger chaque champ.
type Config struct {
	Addr   string `env:"ADDR" envDefault:"127.0.0.1:8080"`
	DBPath string `env:"DB_PATH" envDefault:"kitsu.db"`

	// Catalogue distant.
	APIBaseURL  string        `env:"API_BASE_URL" envDefault:"https://aniwatch-api.vercel.app/"`
	HTTPTimeout time.Duration `env:"HTTP_TIMEOUT" envDefault:"60s"`
	RateLimit   float64       `env:"RATE_LIMIT" envDefault:"10"`
	RateBurst   int           `env:"RATE_BURST" envDefault:"5"`

	SearchDebounce time.Duration `env:"SEARCH_DEBOUNCE" envDefault:"800ms"`

	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"json"`

	KeyringService string `env:"KEYRING_SERVICE" envDefault:"kitsu"`
}

// Default renvoie la configuration sans tenir compte de l'environnement.
func Default() Config {
	var c Config
	// Ne peut échouer: seules les valeurs par défaut sont parsées.
	_ = env.ParseWithOptions(&c, env.Options{Prefix: envPrefix, Environment: map[string]string{}})
	return c
}

// Load lit un éventuel .env du répertoire courant (sans écraser les
// variables déjà définies) puis parse l'environnement.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("config: .env: %w", err)
	}
	return parse(nil)
}

func parse(environ map[string]string) (Config, error) {
	var c Config
	opts := env.Options{Prefix: envPrefix}
	if environ != nil {
		opts.Environment = environ
	}
	if err := env.ParseWithOptions(&c, opts); err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.APIBaseURL) == "" {
		return fmt.Errorf("config: %sAPI_BASE_URL must not be empty", envPrefix)
	}
	if c.HTTPTimeout <= 0 {
		return fmt.Errorf("config: %sHTTP_TIMEOUT must be positive", envPrefix)
	}
	if c.RateLimit <= 0 || c.RateBurst <= 0 {
		return fmt.Errorf("config: rate limit and burst must be positive")
	}
	if c.SearchDebounce < 0 {
		return fmt.Errorf("config: %sSEARCH_DEBOUNCE must not be negative", envPrefix)
	}
	switch c.LogFormat {
	case "json", "console":
	default:
		return fmt.Errorf("config: unknown log format %q", c.LogFormat)
	}
	if _, err := zerolog.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}

// Logger construit le logger racine d'un binaire.
func (c Config) Logger(app string, w io.Writer) zerolog.Logger {
	if w == nil {
		w = os.Stderr
	}
	if c.LogFormat == "console" {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.Kitchen}
	}
	level, err := zerolog.ParseLevel(c.LogLevel)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	return zerolog.New(w).Level(level).With().Timestamp().Str("app", app).Logger()
}
