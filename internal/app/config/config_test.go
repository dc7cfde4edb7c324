package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func missingEnvFile(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "absent.env")
}

func TestLoad_Defaults(t *testing.T) {
	for _, key := range []string{"PORT", "POSTGRES_DSN", "ORDER_PLACEMENT_TIMEOUT", "ORDER_STATUS_POLICY", "RATE_LIMIT_RPS", "TEMPORAL_DISABLED"} {
		t.Setenv(key, "")
	}
	cfg, err := Load(missingEnvFile(t))
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, 10*time.Second, cfg.OrderPlacementTimeout)
	assert.Equal(t, 24*time.Hour, cfg.IdempotencyTTL)
	assert.Equal(t, "assume-paid", cfg.OrderStatusPolicy)
	assert.Equal(t, float64(10), cfg.RateLimitRPS)
	assert.Equal(t, int64(5<<20), cfg.ImageMaxUploadBytes)
	assert.False(t, cfg.TemporalDisabled)
}

func TestLoad_ParsesOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("ORDER_PLACEMENT_TIMEOUT", "3")
	t.Setenv("ORDER_STATUS_POLICY", "await-payment")
	t.Setenv("ORDER_ENFORCE_TOTAL", "true")
	t.Setenv("IDEMPOTENCY_TTL_HOURS", "2")
	t.Setenv("TEMPORAL_DISABLED", "1")
	t.Setenv("RATE_LIMIT_RPS", "2.5")

	cfg, err := Load(missingEnvFile(t))
	require.NoError(t, err)
	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, 3*time.Second, cfg.OrderPlacementTimeout)
	assert.Equal(t, "await-payment", cfg.OrderStatusPolicy)
	assert.True(t, cfg.OrderEnforceTotal)
	assert.Equal(t, 2*time.Hour, cfg.IdempotencyTTL)
	assert.True(t, cfg.TemporalDisabled)
	assert.Equal(t, 2.5, cfg.RateLimitRPS)
}

func TestLoad_RejectsInvalidValues(t *testing.T) {
	cases := map[string]string{
		"ORDER_PLACEMENT_TIMEOUT": "-5s",
		"ORDER_STATUS_POLICY":     "free",
		"IDEMPOTENCY_TTL_HOURS":   "zero",
		"RATE_LIMIT_RPS":          "0",
		"IMAGE_MAX_UPLOAD_BYTES":  "-1",
	}
	for key, value := range cases {
		t.Run(key, func(t *testing.T) {
			t.Setenv(key, value)
			_, err := Load(missingEnvFile(t))
			assert.ErrorContains(t, err, key)
		})
	}
}

func TestLoad_ReadsDotEnvWithoutOverridingEnvironment(t *testing.T) {
	file := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(file, []byte("PORT=7070\nCLOUDINARY_CLOUD_NAME=demo\n"), 0o600))
	t.Setenv("PORT", "6060")
	t.Setenv("CLOUDINARY_CLOUD_NAME", "")
	t.Setenv("CLOUDINARY_API_KEY", "")
	t.Setenv("CLOUDINARY_API_SECRET", "")
	t.Setenv("CLOUDINARY_URL", "")
	os.Unsetenv("CLOUDINARY_CLOUD_NAME")

	cfg, err := Load(file)
	require.NoError(t, err)
	assert.Equal(t, "6060", cfg.Port)
	assert.Equal(t, "demo", cfg.Cloudinary.CloudName)
	assert.False(t, cfg.CloudinaryConfigured())
}
