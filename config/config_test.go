package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const requiredEnv = `PORT=8080
DB_HOST=localhost
DB_PORT=5432
DB_USERNAME=stock
DB_PASSWORD=secret
DB_DBNAME=stock
JWT_SECRETKEY=jwt-secret
JWT_EXPIRE=3600
INTERNAL_AUTH_HEADER=internal-token
ADMIN_PASSWORD_HASH=bcrypt-hash-placeholder
NATS_URL=nats://localhost:4222
SMTP_HOST=localhost
SMTP_FROM=shop@example.com
`

func writeEnvFile(t *testing.T, content string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.env")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	t.Setenv("ENV_FILE", path)
}

func TestInitConfig(t *testing.T) {
	ctx := context.Background()

	t.Run("defaults fill optional keys", func(t *testing.T) {
		writeEnvFile(t, requiredEnv)

		cfg, err := InitConfig(ctx)
		require.NoError(t, err)
		assert.Equal(t, "8080", cfg.Port)
		assert.Equal(t, "disable", cfg.Db.SSLMode)
		assert.Equal(t, 587, cfg.Smtp.Port)
		assert.Equal(t, 10*time.Minute, cfg.Reservation.Hold)
		assert.Equal(t, 30*time.Minute, cfg.Reservation.RollbackHold)
		assert.Equal(t, 3, cfg.Reservation.RetryAttempts)
		assert.Equal(t, "memory", cfg.RateLimit.Store)
		assert.Equal(t, int64(10), cfg.RateLimit.Rollback().MaxAttempts)
		assert.Equal(t, 5*time.Minute, cfg.RateLimit.Rollback().Window)
	})

	t.Run("environment overrides the file", func(t *testing.T) {
		writeEnvFile(t, requiredEnv+"RESERVATION_HOLD=15m\n")
		t.Setenv("PORT", "9090")
		t.Setenv("RATE_LIMIT_STORE", "postgres")

		cfg, err := InitConfig(ctx)
		require.NoError(t, err)
		assert.Equal(t, "9090", cfg.Port)
		assert.Equal(t, 15*time.Minute, cfg.Reservation.Hold)
		assert.Equal(t, "postgres", cfg.RateLimit.Store)
	})

	t.Run("missing required keys fail validation", func(t *testing.T) {
		writeEnvFile(t, "PORT=8080\n")

		_, err := InitConfig(ctx)
		assert.Error(t, err)
	})

	t.Run("unknown counter store is rejected", func(t *testing.T) {
		writeEnvFile(t, requiredEnv+"RATE_LIMIT_STORE=redis\n")

		_, err := InitConfig(ctx)
		assert.Error(t, err)
	})
}
