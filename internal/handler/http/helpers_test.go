package http

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/MKhiriev/go-natours/internal/config"
	"github.com/MKhiriev/go-natours/internal/disclosure"
	"github.com/MKhiriev/go-natours/internal/logger"
	"github.com/MKhiriev/go-natours/internal/mock"
	"github.com/MKhiriev/go-natours/internal/ratelimit"
	"github.com/MKhiriev/go-natours/internal/service"
	"github.com/MKhiriev/go-natours/models"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

// ---- Helpers ----

type testEnv struct {
	h        *Handler
	server   http.Handler
	docs     *mock.MockDocumentService
	auth     *mock.MockAuthService
	checkout *mock.MockCheckoutService
	logs     *bytes.Buffer
	now      time.Time
}

var fixedNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func testConfig(mode string) config.StructuredConfig {
	cfg := *config.Defaults()
	cfg.App.Env = mode
	cfg.App.StaticDir = ""
	cfg.Auth.TokenSignKey = "test-sign-key"
	cfg.Webhook.Secret = "whsec_test"
	return cfg
}

func newTestEnv(t *testing.T, mode string, opts ...func(*config.StructuredConfig)) *testEnv {
	t.Helper()

	cfg := testConfig(mode)
	for _, opt := range opts {
		opt(&cfg)
	}

	ctrl := gomock.NewController(t)
	env := &testEnv{
		docs:     mock.NewMockDocumentService(ctrl),
		auth:     mock.NewMockAuthService(ctrl),
		checkout: mock.NewMockCheckoutService(ctrl),
		logs:     &bytes.Buffer{},
		now:      fixedNow,
	}

	policy, err := disclosure.New(mode)
	require.NoError(t, err)

	limiter, err := ratelimit.NewMemory(cfg.RateLimit.Max, cfg.RateLimit.Window,
		ratelimit.WithClock(func() time.Time { return env.now }))
	require.NoError(t, err)

	services := &service.Services{
		DocumentService: env.docs,
		AuthService:     env.auth,
		CheckoutService: env.checkout,
	}
	log := &logger.Logger{Logger: zerolog.New(env.logs)}

	env.h = NewHandler(services, cfg, policy, limiter, log)
	env.server = env.h.Init()
	return env
}

// do sends r through the full pipeline.
func (e *testEnv) do(r *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	e.server.ServeHTTP(rec, r)
	return rec
}

// loginAs makes protect accept token "good-token" for user.
func (e *testEnv) loginAs(user models.User) {
	e.auth.EXPECT().ParseToken(gomock.Any(), "good-token").
		Return(models.Token{UserID: user.ID}, nil).AnyTimes()
	e.auth.EXPECT().GetUser(gomock.Any(), user.ID).Return(user, nil).AnyTimes()
}

func jsonRequest(method, target, body string) *http.Request {
	var rd io.Reader
	if body != "" {
		rd = bytes.NewBufferString(body)
	}
	r := httptest.NewRequest(method, target, rd)
	if body != "" {
		r.Header.Set("Content-Type", "application/json")
	}
	return r
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body), rec.Body.String())
	return body
}

var adminUser = models.User{ID: 1, Name: "Admin", Email: "admin@natours.io", Role: models.RoleAdmin}
