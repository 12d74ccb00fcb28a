package configs

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultsRequireEncryptionKey(t *testing.T) {
	c := Defaults()

	assert.Empty(t, c.Vault.EncryptionKey)
	assert.Empty(t, c.Auth.AdminAPIKey)
	assert.ErrorContains(t, c.Validate(), "EncryptionKey")

	c.Vault.EncryptionKey = "operator-secret"
	require.NoError(t, c.Validate())
	assert.Equal(t, SQLitePure, c.DB.Type)
	assert.Equal(t, DefaultPresignTTLSeconds, c.Presign.DefaultTTLSeconds)
	assert.Equal(t, 5*time.Minute, c.KV.DefaultTTL)
}

func TestInitConfigWithoutEncryptionKey(t *testing.T) {
	assert.ErrorContains(t, InitConfig(t.TempDir()), "invalid config")
}

func TestInitConfigFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  port: 9000
presign:
  default_ttl_seconds: 60
vault:
  encryption_key: from-file
`), 0o600))

	require.NoError(t, InitConfig(dir))

	c := GetConfig()
	assert.Equal(t, 9000, c.Server.Port)
	assert.Equal(t, 60, c.Presign.DefaultTTLSeconds)
	assert.Equal(t, "from-file", c.Vault.EncryptionKey)
	assert.Equal(t, path, GetViper().ConfigFileUsed())
}

func TestInitConfigRejectsInvalid(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(`
presign:
  default_ttl_seconds: 900
  max_ttl_seconds: 60
vault:
  encryption_key: from-file
`), 0o600))

	assert.ErrorContains(t, InitConfig(dir), "invalid config")
}

func TestInitConfigEnvOverride(t *testing.T) {
	t.Setenv("DOCVAULT_SERVER_PORT", "7070")
	t.Setenv("DOCVAULT_VAULT_ENCRYPTION_KEY", "from-env")
	t.Setenv("DOCVAULT_AUTH_ADMIN_API_KEY", "admin-from-env")

	require.NoError(t, InitConfig(t.TempDir()))
	assert.Equal(t, 7070, GetConfig().Server.Port)
	assert.Equal(t, "from-env", GetConfig().Vault.EncryptionKey)
	assert.Equal(t, "admin-from-env", GetConfig().Auth.AdminAPIKey)
}

func TestRateLimitKey(t *testing.T) {
	c := RateLimitConfig{Key: "header:X-User"}
	h, ok := c.KeyHeader()
	assert.True(t, ok)
	assert.Equal(t, "X-User", h)
	assert.False(t, c.Global())

	c.Key = "ip"
	_, ok = c.KeyHeader()
	assert.False(t, ok)

	c.Key = ""
	assert.True(t, c.Global())

	assert.Equal(t, 1, c.BucketSize())
	assert.False(t, c.Active())
}

func TestCircuitBreakerShouldTrip(t *testing.T) {
	c := CircuitBreakerConfig{FailureRate: 0.5, MinRequests: 4}

	assert.False(t, c.ShouldTrip(0, 0))
	assert.False(t, c.ShouldTrip(3, 3), "below min requests")
	assert.False(t, c.ShouldTrip(4, 1))
	assert.True(t, c.ShouldTrip(4, 2))
}

func TestTracingLabels(t *testing.T) {
	c := Defaults().Tracing

	labels := c.Labels()
	assert.Equal(t, "development", labels["deployment.environment"])
	assert.Equal(t, AppName, labels["service.namespace"])

	c.ResourceLabels = map[string]string{"service.name": "spoofed", "service.namespace": "docs"}
	labels = c.Labels()
	assert.NotContains(t, labels, "service.name")
	assert.Equal(t, "docs", labels["service.namespace"])
	assert.Equal(t, "spoofed", c.ResourceLabels["service.name"], "input untouched")
}

func TestTracingValidation(t *testing.T) {
	c := Defaults()
	c.Vault.EncryptionKey = "k"
	c.Tracing.Enabled = true
	c.Tracing.ExporterType = "jaeger"
	assert.Error(t, c.Validate())

	c.Tracing.ExporterType = ExporterZipkin
	c.Tracing.SampleRate = 1.5
	assert.Error(t, c.Validate())

	c.Tracing.SampleRate = 0.25
	require.NoError(t, c.Validate())
}
