package config

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("MNO_API_URL", "http://mno.test/api/v1")
	t.Setenv("PAGE_LIMIT", "25")
	t.Setenv("AUTH_RESERVED_ROLES", " admin , offline_access,,")
	t.Setenv("SIM_ACCESS_TTL", "90s")

	cfg := Load()
	if cfg.MNO.BaseURL != "http://mno.test/api/v1" || cfg.MNO.PageLimit != 25 {
		t.Fatalf("unexpected mno config %+v", cfg.MNO)
	}
	if len(cfg.Auth.ReservedRoles) != 2 || cfg.Auth.ReservedRoles[0] != "admin" {
		t.Fatalf("unexpected reserved roles %v", cfg.Auth.ReservedRoles)
	}
	if cfg.Sim.AccessTTL != 90*time.Second {
		t.Fatalf("unexpected access ttl %s", cfg.Sim.AccessTTL)
	}
	if cfg.Auth.ClientID != "dirbs" || cfg.Sim.CountryCode != "92" {
		t.Fatalf("defaults not applied: %+v %+v", cfg.Auth, cfg.Sim)
	}
}

func TestLevel(t *testing.T) {
	if (AppCfg{LogLevel: "DEBUG"}).Level() != zerolog.DebugLevel {
		t.Fatal("expected debug level")
	}
	if (AppCfg{LogLevel: "nonsense"}).Level() != zerolog.InfoLevel {
		t.Fatal("expected info fallback")
	}
}
