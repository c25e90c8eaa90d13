package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ── helpers ───────────────────────────────────────────────────────────────────

func writeTempJSONConfig(t *testing.T, v any) string {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	f, err := os.CreateTemp(t.TempDir(), "config-*.json")
	require.NoError(t, err)
	_, err = f.Write(data)
	require.NoError(t, err)
	require.NoError(t, f.Close())
	return f.Name()
}

func validConfig() *StructuredConfig {
	cfg := Defaults()
	cfg.Auth.TokenSignKey = "secret"
	return cfg
}

// ── build ─────────────────────────────────────────────────────────────────────

// TestNewConfigBuilder_InitialState verifies that a freshly created builder
// has no error and an empty configs slice.
func TestNewConfigBuilder_InitialState(t *testing.T) {
	b := newConfigBuilder()
	require.NotNil(t, b)
	assert.NoError(t, b.err)
	assert.Empty(t, b.configs)
}

// TestBuild_EmptyBuilderFailsValidation verifies that a config assembled
// from nothing is rejected.
func TestBuild_EmptyBuilderFailsValidation(t *testing.T) {
	cfg, err := newConfigBuilder().build()

	assert.Nil(t, cfg)
	assert.ErrorIs(t, err, ErrInvalidAppConfigs)
	assert.ErrorIs(t, err, ErrInvalidAuthConfigs)
	assert.ErrorIs(t, err, ErrInvalidServerConfigs)
}

// TestBuild_PropagatesBuilderError verifies that a pre-set b.err is wrapped
// and returned, with nil config.
func TestBuild_PropagatesBuilderError(t *testing.T) {
	b := newConfigBuilder()
	b.err = assert.AnError

	cfg, err := b.build()
	assert.Nil(t, cfg)
	require.Error(t, err)
	assert.ErrorIs(t, err, assert.AnError)
}

// TestBuild_LaterSourcesOverride verifies that non-zero fields of later
// configs win and zero fields leave earlier values alone.
func TestBuild_LaterSourcesOverride(t *testing.T) {
	b := newConfigBuilder().withDefaults()
	b.configs = append(b.configs,
		&StructuredConfig{Auth: Auth{TokenSignKey: "from-env"}, App: App{Env: EnvDevelopment}},
		&StructuredConfig{Auth: Auth{TokenSignKey: "from-flags"}},
	)

	cfg, err := b.build()
	require.NoError(t, err)
	assert.Equal(t, "from-flags", cfg.Auth.TokenSignKey)
	assert.Equal(t, EnvDevelopment, cfg.App.Env)
	assert.Equal(t, int64(10*1024), cfg.Security.BodyLimit)
	assert.Equal(t, 100, cfg.RateLimit.Max)
	assert.Equal(t, time.Hour, cfg.RateLimit.Window)
}

func TestDefaults(t *testing.T) {
	cfg := Defaults()

	assert.Equal(t, EnvProduction, cfg.App.Env)
	assert.Equal(t, int64(10*1024), cfg.Security.BodyLimit)
	assert.Equal(t, 100, cfg.RateLimit.Max)
	assert.Equal(t, time.Hour, cfg.RateLimit.Window)
	assert.Equal(t, []string{"duration", "ratingsQuantity", "ratingsAverage", "maxGroupSize", "difficulty", "price"},
		cfg.Security.HPPWhitelist)
	assert.Equal(t, 5*time.Minute, cfg.Webhook.Tolerance)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*StructuredConfig)
		wantErr error
	}{
		{name: "valid", mutate: func(*StructuredConfig) {}},
		{name: "unknown mode", mutate: func(c *StructuredConfig) { c.App.Env = "staging" }, wantErr: ErrInvalidAppConfigs},
		{name: "missing sign key", mutate: func(c *StructuredConfig) { c.Auth.TokenSignKey = "" }, wantErr: ErrInvalidAuthConfigs},
		{name: "zero body limit", mutate: func(c *StructuredConfig) { c.Security.BodyLimit = 0 }, wantErr: ErrInvalidSecurityConfigs},
		{name: "zero rate limit", mutate: func(c *StructuredConfig) { c.RateLimit.Max = 0 }, wantErr: ErrInvalidRateLimitConfigs},
		{name: "zero window", mutate: func(c *StructuredConfig) { c.RateLimit.Window = 0 }, wantErr: ErrInvalidRateLimitConfigs},
		{name: "no address", mutate: func(c *StructuredConfig) { c.Server.HTTPAddress = "" }, wantErr: ErrInvalidServerConfigs},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)

			err := cfg.validate()
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

// ── withEnv / withFlags ───────────────────────────────────────────────────────

func TestWithEnv_ReadsEnvVars(t *testing.T) {
	setEnvVars(t, map[string]string{"APP_ENV": "development"})

	b := newConfigBuilder().withEnv()

	require.NoError(t, b.err)
	require.Len(t, b.configs, 1)
	assert.Equal(t, "development", b.configs[0].App.Env)
}

func TestWithFlags_SetsErrorOnBadArgs(t *testing.T) {
	b := newConfigBuilder().withFlags([]string{"-rate-limit", "many"})

	assert.Error(t, b.err)
	assert.Empty(t, b.configs)
}

// ── withJSON ──────────────────────────────────────────────────────────────────

func TestWithJSON_NoOp_WhenNoPathSet(t *testing.T) {
	b := newConfigBuilder().withDefaults().withJSON()

	assert.NoError(t, b.err)
	assert.Len(t, b.configs, 1)
}

func TestWithJSON_AppendsConfig_WhenValidFile(t *testing.T) {
	path := writeTempJSONConfig(t, map[string]any{"auth": map[string]any{"token_sign_key": "from-json"}})
	b := newConfigBuilder()
	b.configs = append(b.configs, validConfig(), &StructuredConfig{JSONFilePath: path})

	cfg, err := b.withJSON().build()

	require.NoError(t, err)
	assert.Equal(t, "from-json", cfg.Auth.TokenSignKey)
}

func TestWithJSON_SetsError_WhenFileNotFound(t *testing.T) {
	b := newConfigBuilder()
	b.configs = append(b.configs, &StructuredConfig{JSONFilePath: filepath.Join(t.TempDir(), "nope.json")})

	b.withJSON()

	assert.Error(t, b.err)
}

func TestWithJSON_UsesLastPath(t *testing.T) {
	first := writeTempJSONConfig(t, map[string]any{"app": map[string]any{"name": "first"}})
	second := writeTempJSONConfig(t, map[string]any{"app": map[string]any{"name": "second"}})
	b := newConfigBuilder()
	b.configs = append(b.configs, &StructuredConfig{JSONFilePath: first}, &StructuredConfig{JSONFilePath: second})

	b.withJSON()

	require.NoError(t, b.err)
	require.Len(t, b.configs, 3)
	assert.Equal(t, "second", b.configs[2].App.Name)
}
