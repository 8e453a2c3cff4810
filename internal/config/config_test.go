package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestFromEnvDefaults(t *testing.T) {
	t.Setenv("MODE", "")
	t.Setenv("SESSION_GRACE_PERIOD", "")
	t.Setenv("FULLSCREEN_SUPPRESS_WINDOW", "")

	cfg := FromEnv()
	require.Equal(t, ModeOffline, cfg.Mode)
	require.Equal(t, time.Second, cfg.GracePeriod)
	require.Equal(t, 100*time.Millisecond, cfg.SuppressWindow)
	require.Equal(t, "development", cfg.LogMode)
	require.Equal(t, cfg.CORSOriginsOffline, cfg.CORSOrigins())
}

func TestEnvDurationAcceptsMillis(t *testing.T) {
	t.Setenv("FULLSCREEN_SUPPRESS_WINDOW", "250")
	t.Setenv("SESSION_GRACE_PERIOD", "2s")
	t.Setenv("FINALIZE_TIMEOUT", "nonsense")

	cfg := FromEnv()
	require.Equal(t, 250*time.Millisecond, cfg.SuppressWindow)
	require.Equal(t, 2*time.Second, cfg.GracePeriod)
	require.Equal(t, 15*time.Second, cfg.FinalizeTimeout)
}

func TestCSVOrTrims(t *testing.T) {
	t.Setenv("CORS_ORIGINS_ONLINE", " https://a.example , ,https://b.example")
	t.Setenv("MODE", "online")

	cfg := FromEnv()
	require.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSOrigins())
	require.Equal(t, "production", cfg.LogMode)
}
