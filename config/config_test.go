package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"esg-engagement/models"
)

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("DATABASE_URL", "postgres://localhost/esg")
	t.Setenv("GATEWAY_TOKEN", "gw-secret")
}

func TestParseDefaults(t *testing.T) {
	setRequired(t)

	cfg, err := Parse()
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if cfg.Port != "5200" {
		t.Fatalf("expected default port, got %q", cfg.Port)
	}
	if cfg.SweepInterval != time.Minute {
		t.Fatalf("expected 1m sweep, got %s", cfg.SweepInterval)
	}
	if cfg.MissedGrace != 24*time.Hour {
		t.Fatalf("expected 24h missed grace, got %s", cfg.MissedGrace)
	}
	if len(cfg.AllowedOrigins) != 1 || cfg.AllowedOrigins[0] != "http://localhost:3000" {
		t.Fatalf("unexpected origins %v", cfg.AllowedOrigins)
	}
	if cfg.R2.Enabled() || cfg.SyncEnabled() {
		t.Fatalf("optional integrations must be disabled by default")
	}
}

func TestParseOrigins(t *testing.T) {
	setRequired(t)
	t.Setenv("ALLOWED_ORIGINS", "https://a.example, https://b.example")

	cfg, err := Parse()
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(cfg.AllowedOrigins) != 2 || cfg.AllowedOrigins[1] != "https://b.example" {
		t.Fatalf("unexpected origins %v", cfg.AllowedOrigins)
	}
}

func TestParseMissingRequired(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("GATEWAY_TOKEN", "")
	os.Unsetenv("DATABASE_URL")
	os.Unsetenv("GATEWAY_TOKEN")

	_, err := Parse()
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "parse env:") {
		t.Fatalf("expected parse env prefix, got %v", err)
	}
}

func TestParseRejectsBadInterval(t *testing.T) {
	setRequired(t)
	t.Setenv("SWEEP_INTERVAL", "0s")
	if _, err := Parse(); err == nil {
		t.Fatal("expected error for zero interval")
	}
}

func TestParseMissedGrace(t *testing.T) {
	setRequired(t)
	t.Setenv("MISSED_GRACE", "6h")
	cfg, err := Parse()
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if cfg.MissedGrace != 6*time.Hour {
		t.Fatalf("expected 6h grace, got %s", cfg.MissedGrace)
	}

	t.Setenv("MISSED_GRACE", "-1h")
	if _, err := Parse(); err == nil {
		t.Fatal("expected error for negative grace")
	}
}

func TestLoadCatalog(t *testing.T) {
	c, err := LoadCatalog("")
	if err != nil {
		t.Fatalf("default catalog: %v", err)
	}
	if len(c.LevelNames) != 5 {
		t.Fatalf("expected default levels, got %v", c.LevelNames)
	}

	path := filepath.Join(t.TempDir(), "catalog.json")
	raw := `{"level_thresholds":[0,10],"level_names":["Seed","Sprout"],"badges":[{"title":"Green Thumb","type":"Environmental","points_required":5}]}`
	if err := os.WriteFile(path, []byte(raw), 0o600); err != nil {
		t.Fatalf("write catalog: %v", err)
	}
	c, err = LoadCatalog(path)
	if err != nil {
		t.Fatalf("load catalog: %v", err)
	}
	if c.Badges[0].ID != "green-thumb" {
		t.Fatalf("expected derived id, got %q", c.Badges[0].ID)
	}

	if err := os.WriteFile(path, []byte(`{"level_thresholds":[5],"level_names":["A"]}`), 0o600); err != nil {
		t.Fatalf("write catalog: %v", err)
	}
	if _, err := LoadCatalog(path); !errors.Is(err, models.ErrInvalidCatalog) {
		t.Fatalf("expected ErrInvalidCatalog, got %v", err)
	}
}
