package config

import (
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"esg-engagement/models"
)

// Config is the service configuration read from the environment.
type Config struct {
	Port           string   `env:"PORT" envDefault:"5200"`
	DatabaseURL    string   `env:"DATABASE_URL,required"`
	GatewayToken   string   `env:"GATEWAY_TOKEN,required"`
	AllowedOrigins []string `env:"ALLOWED_ORIGINS" envSeparator:"," envDefault:"http://localhost:3000"`

	SyncServiceURL   string `env:"SYNC_SERVICE_URL"`
	SyncServiceToken string `env:"SYNC_SERVICE_TOKEN"`

	MemberTokenSecret string `env:"MEMBER_TOKEN_SECRET"`
	CatalogPath       string `env:"CATALOG_PATH"`

	R2 R2Config

	SweepInterval   time.Duration `env:"SWEEP_INTERVAL" envDefault:"1m"`
	MissedGrace     time.Duration `env:"MISSED_GRACE" envDefault:"24h"`
	LeaderboardCron string        `env:"LEADERBOARD_CRON" envDefault:"0 0 * * 1"`
}

// R2Config holds the Cloudflare R2 credentials used for leaderboard exports.
type R2Config struct {
	AccountID       string `env:"CLOUDFLARE_ACCOUNT_ID"`
	AccessKeyID     string `env:"R2_ACCESS_KEY_ID"`
	AccessKeySecret string `env:"R2_ACCESS_KEY_SECRET"`
	Bucket          string `env:"R2_BUCKET_NAME"`
	CDNBaseURL      string `env:"CDN_BASE_URL"`
}

// Enabled reports whether enough is set to talk to R2.
func (c R2Config) Enabled() bool {
	return c.AccountID != "" && c.AccessKeyID != "" && c.AccessKeySecret != "" && c.Bucket != ""
}

// SyncEnabled reports whether the profile and event sync workers can run.
func (c Config) SyncEnabled() bool {
	return c.SyncServiceURL != "" && c.SyncServiceToken != ""
}

// Load reads .env when present and parses the environment.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️  No .env file found, reading environment variables directly")
	}
	return Parse()
}

// Parse reads the configuration from the current environment only.
func Parse() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	for i, origin := range cfg.AllowedOrigins {
		cfg.AllowedOrigins[i] = strings.TrimSpace(origin)
	}
	if cfg.SweepInterval <= 0 {
		return Config{}, fmt.Errorf("parse env: SWEEP_INTERVAL must be positive, got %s", cfg.SweepInterval)
	}
	if cfg.MissedGrace < 0 {
		return Config{}, fmt.Errorf("parse env: MISSED_GRACE must not be negative, got %s", cfg.MissedGrace)
	}
	return cfg, nil
}

// LoadCatalog returns the built-in catalog, or the JSON catalog at path when set.
func LoadCatalog(path string) (models.Catalog, error) {
	if strings.TrimSpace(path) == "" {
		return models.DefaultCatalog(), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return models.Catalog{}, fmt.Errorf("open catalog: %w", err)
	}
	defer f.Close()
	return models.DecodeCatalog(f)
}
