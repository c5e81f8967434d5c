package config

import (
	"testing"
	"time"

	"github.com/digitalme/backend/internal/did"
	"github.com/digitalme/backend/internal/vault"
	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DID_NETWORK", "")
	t.Setenv("SCRYPT_N", "")
	t.Setenv("TX_LOCK_TTL_SECONDS", "")
	t.Setenv("JWT_EXPIRATION_HOURS", "")

	cfg := Load()
	assert.Equal(t, did.TestNet, cfg.DIDNetwork)
	assert.Equal(t, vault.DefaultScryptParams.N, cfg.Scrypt.N)
	assert.Equal(t, time.Minute, cfg.TxLockTTL)
	assert.Equal(t, 24*time.Hour, cfg.JWTExpiration)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("DID_NETWORK", "MainNet")
	t.Setenv("SCRYPT_N", "2048")
	t.Setenv("RPC_TIMEOUT_MS", "1500")
	t.Setenv("TX_LOCK_TTL_SECONDS", "5")
	t.Setenv("RATE_LIMIT_PER_MINUTE", "not-a-number")

	cfg := Load()
	assert.Equal(t, did.MainNet, cfg.DIDNetwork)
	assert.Equal(t, 2048, cfg.Scrypt.N)
	assert.Equal(t, 1500*time.Millisecond, cfg.RPCTimeout)
	assert.Equal(t, 5*time.Second, cfg.TxLockTTL)
	assert.Equal(t, 100, cfg.RateLimitPerMinute)
}

func TestGetEnvDurationRejectsNonPositive(t *testing.T) {
	t.Setenv("SOME_TTL", "0")
	assert.Equal(t, time.Second, getEnvDuration("SOME_TTL", time.Second, time.Minute))
	t.Setenv("SOME_TTL", "-3")
	assert.Equal(t, time.Second, getEnvDuration("SOME_TTL", time.Second, time.Minute))
}
