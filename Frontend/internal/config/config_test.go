package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func TestLoadDefaults(t *testing.T) {
	t.Setenv("SESSION_SECRET", testSecret)
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, ":8090", cfg.SellerHTTPAddr)
	assert.Equal(t, "http://localhost:5000/api", cfg.APIBaseURL)
	assert.Equal(t, 5*time.Second, cfg.APITimeout)
	assert.Equal(t, time.Minute, cfg.CacheTTL)
	assert.Equal(t, 2, cfg.APIRetry)
	assert.Equal(t, "sqlite", cfg.SessionDriver)
	assert.Equal(t, "USD", cfg.BaseCurrency)
	assert.Empty(t, cfg.CORSOrigins)
	assert.False(t, cfg.SessionSecure)
}

func TestLoadFromEnvFile(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "test.env")
	content := "SESSION_SECRET=" + testSecret + "\n" +
		"API_BASE_URL=http://api.local/v1/\n" +
		"API_TIMEOUT=2s\n" +
		"CORS_ORIGINS=http://a.test, http://b.test\n" +
		"BASE_CURRENCY=eur\n"
	require.NoError(t, os.WriteFile(file, []byte(content), 0o600))

	// godotenv does not override what is already set; make sure the keys
	// are absent for this test and restored afterwards.
	for _, k := range []string{"SESSION_SECRET", "API_BASE_URL", "API_TIMEOUT", "CORS_ORIGINS", "BASE_CURRENCY"} {
		t.Setenv(k, "")
		require.NoError(t, os.Unsetenv(k))
	}

	cfg, err := Load(file)
	require.NoError(t, err)
	assert.Equal(t, "http://api.local/v1", cfg.APIBaseURL)
	assert.Equal(t, 2*time.Second, cfg.APITimeout)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.CORSOrigins)
	assert.Equal(t, "EUR", cfg.BaseCurrency)
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"missing secret", map[string]string{"SESSION_SECRET": ""}},
		{"short secret", map[string]string{"SESSION_SECRET": "short"}},
		{"bad timeout", map[string]string{"SESSION_SECRET": testSecret, "API_TIMEOUT": "soon"}},
		{"bad retry", map[string]string{"SESSION_SECRET": testSecret, "API_RETRY_MAX": "many"}},
		{"bad driver", map[string]string{"SESSION_SECRET": testSecret, "SESSION_DB_DRIVER": "postgres"}},
		{"unsupported currency", map[string]string{"SESSION_SECRET": testSecret, "BASE_CURRENCY": "JPY"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load(filepath.Join(t.TempDir(), "none.env"))
			assert.Error(t, err)
		})
	}
}
