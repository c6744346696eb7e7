package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/EmpoweredVote/EV-Links/internal/utils"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Port           string        `mapstructure:"PORT"`
	DatabaseURL    string        `mapstructure:"DATABASE_URL"`
	DBSchema       string        `mapstructure:"DB_SCHEMA"`
	DBLogLevel     string        `mapstructure:"DB_LOG_LEVEL"`
	SessionTTL     time.Duration `mapstructure:"SESSION_TTL"`
	CookieName     string        `mapstructure:"COOKIE_NAME"`
	CookieSecure   bool          `mapstructure:"COOKIE_SECURE"`
	LoginRate      float64       `mapstructure:"LOGIN_RATE"`
	LoginBurst     int           `mapstructure:"LOGIN_BURST"`
	AdminEmailsRaw string        `mapstructure:"ADMIN_EMAILS"`
	OriginsRaw     string        `mapstructure:"ALLOWED_ORIGINS"`

	// Parsed from AdminEmailsRaw and OriginsRaw.
	AdminEmails    []string `mapstructure:"-"`
	AllowedOrigins []string `mapstructure:"-"`
}

// Load reads .env.local when present and then the process environment.
func Load() (Config, error) {
	_ = godotenv.Load(".env.local")

	v := viper.New()
	v.SetDefault("PORT", "5050")
	v.SetDefault("DATABASE_URL", "")
	v.SetDefault("DB_SCHEMA", "links")
	v.SetDefault("DB_LOG_LEVEL", "warn")
	v.SetDefault("SESSION_TTL", "1440h") // 60 days
	v.SetDefault("COOKIE_NAME", "user_session_id")
	v.SetDefault("COOKIE_SECURE", false)
	v.SetDefault("LOGIN_RATE", 1.0)
	v.SetDefault("LOGIN_BURST", 10)
	v.SetDefault("ADMIN_EMAILS", "")
	v.SetDefault("ALLOWED_ORIGINS", "http://localhost:3000")
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("decode config: %w", err)
	}

	for _, email := range splitList(cfg.AdminEmailsRaw) {
		cfg.AdminEmails = append(cfg.AdminEmails, utils.NormalizeEmail(email))
	}
	cfg.AllowedOrigins = splitList(cfg.OriginsRaw)

	return cfg, cfg.Validate()
}

func (c Config) Validate() error {
	if c.DatabaseURL == "" {
		return errors.New("DATABASE_URL is empty")
	}
	if c.SessionTTL <= 0 {
		return fmt.Errorf("SESSION_TTL must be positive, got %s", c.SessionTTL)
	}
	if c.CookieName == "" {
		return errors.New("COOKIE_NAME is empty")
	}
	if c.LoginRate <= 0 || c.LoginBurst <= 0 {
		return errors.New("LOGIN_RATE and LOGIN_BURST must be positive")
	}
	return nil
}

// splitList accepts both ";" (the historical ADMIN_EMAILS separator) and ",".
func splitList(raw string) []string {
	fields := strings.FieldsFunc(raw, func(r rune) bool { return r == ';' || r == ',' })
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		if f = strings.TrimSpace(f); f != "" {
			out = append(out, f)
		}
	}
	return out
}
