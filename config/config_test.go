package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestNewDefaults(t *testing.T) {
	cfg, err := New()
	require.NoError(t, err)
	require.Equal(t, EnvDevelopment, cfg.Environment)
	require.Equal(t, 5*time.Second, cfg.StoreTimeout)
	require.Equal(t, "clothing-images", cfg.StorageBucket)
	require.Equal(t, 500, cfg.SearchCandidateLimit)
	require.False(t, cfg.IsProduction())
	require.Equal(t, ":3000", cfg.HTTPAddr())
}

func TestNewFromEnvironment(t *testing.T) {
	t.Setenv("WARDROBE_ENVIRONMENT", "production")
	t.Setenv("WARDROBE_HTTP_PORT", "8083")
	t.Setenv("WARDROBE_STORE_TIMEOUT", "2s")
	t.Setenv("WARDROBE_DB_USERNAME", "closet")
	t.Setenv("WARDROBE_DB_PASSWORD", "secret")
	t.Setenv("WARDROBE_DB_HOST", "db")
	t.Setenv("WARDROBE_DB_NAME", "wardrobe")

	cfg, err := New()
	require.NoError(t, err)
	require.True(t, cfg.IsProduction())
	require.Equal(t, ":8083", cfg.HTTPAddr())
	require.Equal(t, 2*time.Second, cfg.StoreTimeout)
	require.Equal(t, "postgres://closet:secret@db:5432/wardrobe", cfg.DatabaseDSN())
}

func TestDatabaseURLOverridesFields(t *testing.T) {
	t.Setenv("WARDROBE_DATABASE_URL", "postgres://u:p@supabase:6543/postgres")
	cfg, err := New()
	require.NoError(t, err)
	require.Equal(t, "postgres://u:p@supabase:6543/postgres", cfg.DatabaseDSN())
}

func TestNewRejectsUnknownEnvironment(t *testing.T) {
	t.Setenv("WARDROBE_ENVIRONMENT", "staging")
	_, err := New()
	require.Error(t, err)
}

func TestNewRejectsBadFailureRatio(t *testing.T) {
	t.Setenv("WARDROBE_BREAKER_FAILURE_RATIO", "1.5")
	_, err := New()
	require.Error(t, err)
}
