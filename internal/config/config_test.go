package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "sqlite://:memory:")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "5050", cfg.Port)
	assert.Equal(t, "links", cfg.DBSchema)
	assert.Equal(t, 60*24*time.Hour, cfg.SessionTTL)
	assert.Equal(t, "user_session_id", cfg.CookieName)
	assert.Empty(t, cfg.AdminEmails)
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.AllowedOrigins)
}

func TestLoadAdminEmails(t *testing.T) {
	t.Setenv("DATABASE_URL", "sqlite://:memory:")
	t.Setenv("ADMIN_EMAILS", " Root@Example.com; ops@example.com,,")
	t.Setenv("SESSION_TTL", "2h")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, []string{"root@example.com", "ops@example.com"}, cfg.AdminEmails)
	assert.Equal(t, 2*time.Hour, cfg.SessionTTL)
}

func TestLoadRequiresDatabaseURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "")

	_, err := Load()
	assert.ErrorContains(t, err, "DATABASE_URL")
}

func TestValidate(t *testing.T) {
	base := Config{DatabaseURL: "postgres://x", SessionTTL: time.Hour, CookieName: "c", LoginRate: 1, LoginBurst: 1}
	assert.NoError(t, base.Validate())

	bad := base
	bad.SessionTTL = 0
	assert.Error(t, bad.Validate())

	bad = base
	bad.LoginBurst = 0
	assert.Error(t, bad.Validate())
}
