package config

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		ModelName:        DefaultModelName,
		EmbedderModel:    DefaultEmbedderModel,
		RouteThreshold:   DefaultRouteThreshold,
		RetrieveTopK:     DefaultRetrieveTopK,
		PostgresHost:     "localhost",
		PostgresPort:     5432,
		PostgresUser:     "docschat",
		PostgresPassword: "a-secret-password",
		PostgresDBName:   "docschat",
		PostgresSSLMode:  "disable",
		RateLimitRPS:     5,
		RateLimitBurst:   10,
	}
}

func TestValidate(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "test-key")

	require.NoError(t, validConfig().Validate())
}

func TestValidateMissingAPIKey(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")

	err := validConfig().Validate()
	require.ErrorIs(t, err, ErrMissingAPIKey)
}

func TestValidateErrors(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "test-key")

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr error
	}{
		{
			name:    "empty model name",
			mutate:  func(c *Config) { c.ModelName = "" },
			wantErr: ErrInvalidModelName,
		},
		{
			name:    "empty embedder model",
			mutate:  func(c *Config) { c.EmbedderModel = "" },
			wantErr: ErrInvalidEmbedderModel,
		},
		{
			name:    "negative threshold",
			mutate:  func(c *Config) { c.RouteThreshold = -0.1 },
			wantErr: ErrInvalidThreshold,
		},
		{
			name:    "top-k too small",
			mutate:  func(c *Config) { c.RetrieveTopK = 0 },
			wantErr: ErrInvalidTopK,
		},
		{
			name:    "top-k too large",
			mutate:  func(c *Config) { c.RetrieveTopK = 11 },
			wantErr: ErrInvalidTopK,
		},
		{
			name:    "empty host",
			mutate:  func(c *Config) { c.PostgresHost = "" },
			wantErr: ErrInvalidPostgresHost,
		},
		{
			name:    "port out of range",
			mutate:  func(c *Config) { c.PostgresPort = 70000 },
			wantErr: ErrInvalidPostgresPort,
		},
		{
			name:    "empty database name",
			mutate:  func(c *Config) { c.PostgresDBName = "" },
			wantErr: ErrInvalidPostgresDBName,
		},
		{
			name:    "empty password",
			mutate:  func(c *Config) { c.PostgresPassword = "" },
			wantErr: ErrInvalidPostgresPassword,
		},
		{
			name:    "short password",
			mutate:  func(c *Config) { c.PostgresPassword = "short" },
			wantErr: ErrInvalidPostgresPassword,
		},
		{
			name:    "deprecated ssl mode",
			mutate:  func(c *Config) { c.PostgresSSLMode = "prefer" },
			wantErr: ErrInvalidPostgresSSLMode,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			require.ErrorIs(t, cfg.Validate(), tt.wantErr)
		})
	}
}

func TestValidateZeroThresholdAllowed(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "test-key")

	cfg := validConfig()
	cfg.RouteThreshold = 0
	require.NoError(t, cfg.Validate())
}

func TestValidateServe(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "test-key")

	require.NoError(t, validConfig().ValidateServe())

	cfg := validConfig()
	cfg.RateLimitRPS = 0
	require.ErrorIs(t, cfg.ValidateServe(), ErrInvalidRateLimit)

	cfg = validConfig()
	cfg.RateLimitBurst = 0
	require.ErrorIs(t, cfg.ValidateServe(), ErrInvalidRateLimit)
}

func TestMarshalJSONMasksPassword(t *testing.T) {
	t.Parallel()

	cfg := validConfig()
	data, err := json.Marshal(cfg)
	require.NoError(t, err)

	assert.NotContains(t, string(data), "a-secret-password")
	assert.Contains(t, string(data), maskedValue)
}

func TestStringMasksPassword(t *testing.T) {
	t.Parallel()

	cfg := validConfig()
	assert.NotContains(t, cfg.String(), "a-secret-password")
}

func TestMaskSecret(t *testing.T) {
	t.Parallel()

	assert.Empty(t, maskSecret(""))
	assert.Equal(t, maskedValue, maskSecret("short"))

	masked := maskSecret("super-secret-value")
	assert.NotContains(t, masked, "per-secret-val")
	assert.Contains(t, masked, maskedValue)
}
