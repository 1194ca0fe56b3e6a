package config

import (
	"errors"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"

	"imsidesk/internal/domain/request"
)

type AppCfg struct {
	Env       string
	LogLevel  string
	LogFile   string
	ExportDir string
}

type MNOCfg struct {
	BaseURL    string
	PageLimit  int
	TimeoutSec int
}

type AuthCfg struct {
	TokenURL      string
	ClientID      string
	ClientSecret  string
	AccessToken   string
	RefreshToken  string
	ReservedRoles []string
}

type RedisCfg struct {
	Addr       string
	SessionKey string
	SessionTTL time.Duration
}

type SimCfg struct {
	Port        string
	DSN         string
	JWTSecret   string
	CountryCode string
	AccessTTL   time.Duration
	SeedCases   int
}

type Cfg struct {
	App   AppCfg
	MNO   MNOCfg
	Auth  AuthCfg
	Redis RedisCfg
	Sim   SimCfg
}

var ErrMissingBaseURL = errors.New("MNO_API_URL is required")

// Load reads .env (if present) and the process environment
func Load() Cfg {
	// 1) .env into process env; a missing file is fine
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Warn().Err(err).Msg("could not read .env")
	}

	// 2) Read from env via viper
	viper.AutomaticEnv()
	viper.SetDefault("APP_ENV", "sandbox")
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("LOG_FILE", "imsidesk.log")
	viper.SetDefault("EXPORT_DIR", ".")
	viper.SetDefault("MNO_API_URL", "http://localhost:8080/api/v1")
	viper.SetDefault("PAGE_LIMIT", request.DefaultPageSize)
	viper.SetDefault("MNO_TIMEOUT_SEC", 30)
	viper.SetDefault("AUTH_TOKEN_URL", "http://localhost:8080/auth/token")
	viper.SetDefault("AUTH_CLIENT_ID", "dirbs")
	viper.SetDefault("AUTH_RESERVED_ROLES", "uma_authorization,offline_access,admin,manage-account,view-profile")
	viper.SetDefault("REDIS_SESSION_KEY", "imsidesk:session")
	viper.SetDefault("REDIS_SESSION_TTL", "12h")
	viper.SetDefault("SIM_PORT", "8080")
	viper.SetDefault("SIM_JWT_SECRET", "imsidesk-dev-secret")
	viper.SetDefault("SIM_COUNTRY_CODE", "92")
	viper.SetDefault("SIM_ACCESS_TTL", "5m")
	viper.SetDefault("SIM_SEED_CASES", 45)

	cfg := Cfg{
		App: AppCfg{
			Env:       viper.GetString("APP_ENV"),
			LogLevel:  viper.GetString("LOG_LEVEL"),
			LogFile:   viper.GetString("LOG_FILE"),
			ExportDir: viper.GetString("EXPORT_DIR"),
		},
		MNO: MNOCfg{
			BaseURL:    strings.TrimSpace(viper.GetString("MNO_API_URL")),
			PageLimit:  viper.GetInt("PAGE_LIMIT"),
			TimeoutSec: viper.GetInt("MNO_TIMEOUT_SEC"),
		},
		Auth: AuthCfg{
			TokenURL:      viper.GetString("AUTH_TOKEN_URL"),
			ClientID:      viper.GetString("AUTH_CLIENT_ID"),
			ClientSecret:  viper.GetString("AUTH_CLIENT_SECRET"),
			AccessToken:   strings.TrimSpace(viper.GetString("AUTH_ACCESS_TOKEN")),
			RefreshToken:  strings.TrimSpace(viper.GetString("AUTH_REFRESH_TOKEN")),
			ReservedRoles: splitList(viper.GetString("AUTH_RESERVED_ROLES")),
		},
		Redis: RedisCfg{
			Addr:       viper.GetString("REDIS_ADDR"),
			SessionKey: viper.GetString("REDIS_SESSION_KEY"),
			SessionTTL: viper.GetDuration("REDIS_SESSION_TTL"),
		},
		Sim: SimCfg{
			Port:        viper.GetString("SIM_PORT"),
			DSN:         viper.GetString("SIM_DB_DSN"),
			JWTSecret:   viper.GetString("SIM_JWT_SECRET"),
			CountryCode: viper.GetString("SIM_COUNTRY_CODE"),
			AccessTTL:   viper.GetDuration("SIM_ACCESS_TTL"),
			SeedCases:   viper.GetInt("SIM_SEED_CASES"),
		},
	}

	// 3) Fail fast on required settings
	if cfg.MNO.BaseURL == "" {
		log.Fatal().Err(ErrMissingBaseURL).Msg("invalid configuration")
	}
	if cfg.MNO.PageLimit <= 0 {
		cfg.MNO.PageLimit = request.DefaultPageSize
	}
	return cfg
}

// Level parses LogLevel, falling back to info
func (a AppCfg) Level() zerolog.Level {
	lvl, err := zerolog.ParseLevel(strings.ToLower(a.LogLevel))
	if err != nil || a.LogLevel == "" {
		return zerolog.InfoLevel
	}
	return lvl
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
