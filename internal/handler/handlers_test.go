package handler

import (
	"testing"
	"time"

	"github.com/MKhiriev/go-natours/internal/config"
	"github.com/MKhiriev/go-natours/internal/logger"
	"github.com/MKhiriev/go-natours/internal/ratelimit"
	"github.com/MKhiriev/go-natours/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestServices returns an empty *service.Services. http.NewHandler only
// stores the pointer, so it is safe for construction-time tests.
func newTestServices() *service.Services {
	return &service.Services{}
}

func newTestLimiter(t *testing.T) ratelimit.Limiter {
	t.Helper()
	l, err := ratelimit.NewMemory(100, time.Hour)
	require.NoError(t, err)
	return l
}

func testConfig() config.StructuredConfig {
	cfg := *config.Defaults()
	cfg.App.StaticDir = ""
	return cfg
}

func TestNewHandlers(t *testing.T) {
	h, err := NewHandlers(newTestServices(), testConfig(), newTestLimiter(t), logger.Nop())

	require.NoError(t, err)
	require.NotNil(t, h)
	assert.NotNil(t, h.HTTP, "expected HTTP handler to be initialised")
}

func TestNewHandlers_NoAddress(t *testing.T) {
	cfg := testConfig()
	cfg.Server.HTTPAddress = ""

	h, err := NewHandlers(newTestServices(), cfg, newTestLimiter(t), logger.Nop())

	require.ErrorIs(t, err, errNoHandlersAreCreated)
	assert.Nil(t, h)
}

func TestNewHandlers_UnknownMode(t *testing.T) {
	cfg := testConfig()
	cfg.App.Env = "staging"

	h, err := NewHandlers(newTestServices(), cfg, newTestLimiter(t), logger.Nop())

	require.Error(t, err)
	assert.Nil(t, h)
}

func TestNewHandlers_IndependentInstances(t *testing.T) {
	h1, err1 := NewHandlers(newTestServices(), testConfig(), newTestLimiter(t), logger.Nop())
	h2, err2 := NewHandlers(newTestServices(), testConfig(), newTestLimiter(t), logger.Nop())

	require.NoError(t, err1)
	require.NoError(t, err2)
	assert.NotSame(t, h1, h2)
	assert.NotSame(t, h1.HTTP, h2.HTTP)
}
