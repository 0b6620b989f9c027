package config

import (
	"context"
	"testing"
	"time"

	"github.com/sethvargo/go-envconfig"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := load(context.Background(), envconfig.MapLookuper(map[string]string{}))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Port != "8080" || cfg.Env != "development" {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if cfg.Session.TabTTL != 30*time.Minute {
		t.Fatalf("tab ttl = %s", cfg.Session.TabTTL)
	}
	if cfg.Portal.Secret == "" {
		t.Fatalf("development must get a fallback secret")
	}
	if cfg.AuditWorkers != 4 {
		t.Fatalf("audit workers = %d", cfg.AuditWorkers)
	}
}

func TestLoad_Overrides(t *testing.T) {
	cfg, err := load(context.Background(), envconfig.MapLookuper(map[string]string{
		"ENV":             "production",
		"PORTAL_SECRET":   "s3cret",
		"BACKEND_URL":     "https://api.atreo.io",
		"BACKEND_TIMEOUT": "3s",
		"REDIS_DB":        "2",
	}))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Backend.URL != "https://api.atreo.io" || cfg.Backend.Timeout != 3*time.Second {
		t.Fatalf("unexpected backend config: %+v", cfg.Backend)
	}
	if cfg.Redis.DB != 2 {
		t.Fatalf("redis db = %d", cfg.Redis.DB)
	}
}

func TestLoad_ProductionRequiresSecret(t *testing.T) {
	_, err := load(context.Background(), envconfig.MapLookuper(map[string]string{"ENV": "production"}))
	if err == nil {
		t.Fatalf("expected an error without PORTAL_SECRET")
	}
}

func TestLoad_CORSOrigins(t *testing.T) {
	cfg, err := load(context.Background(), envconfig.MapLookuper(map[string]string{
		"CORS_ORIGINS":    "https://portal.atreo.io,https://staging.atreo.io",
		"AUTH_RATE_LIMIT": "0",
	}))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(cfg.HTTP.CORSOrigins) != 2 || cfg.HTTP.CORSOrigins[1] != "https://staging.atreo.io" {
		t.Fatalf("unexpected origins %v", cfg.HTTP.CORSOrigins)
	}
	if cfg.HTTP.AuthRate != 0 {
		t.Fatalf("auth rate = %v", cfg.HTTP.AuthRate)
	}
}
