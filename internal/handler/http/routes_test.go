package http

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/MKhiriev/go-natours/internal/apperror"
	"github.com/MKhiriev/go-natours/internal/config"
	"github.com/MKhiriev/go-natours/internal/ratelimit"
	"github.com/MKhiriev/go-natours/internal/service"
	"github.com/MKhiriev/go-natours/internal/store"
	"github.com/MKhiriev/go-natours/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

// ─────────────────────────────────────────────
// Pipeline order
// ─────────────────────────────────────────────

func TestPipeline_FilterOrder(t *testing.T) {
	tests := []struct {
		name string
		mode string
		opts []func(*config.StructuredConfig)
		want []string
	}{
		{
			name: "production",
			mode: config.EnvProduction,
			want: []string{
				"trace-id", "cors", "compression", "static", "security",
				"rate-limit", "webhook", "body", "sanitize-nosql", "sanitize-xss", "hpp",
			},
		},
		{
			name: "development adds request logging",
			mode: config.EnvDevelopment,
			want: []string{
				"trace-id", "cors", "compression", "static", "security", "logging",
				"rate-limit", "webhook", "body", "sanitize-nosql", "sanitize-xss", "hpp",
			},
		},
		{
			name: "trusted proxy resolves the client address before limiting",
			mode: config.EnvProduction,
			opts: []func(*config.StructuredConfig){func(c *config.StructuredConfig) { c.RateLimit.TrustProxy = true }},
			want: []string{
				"trace-id", "cors", "compression", "static", "security", "real-ip",
				"rate-limit", "webhook", "body", "sanitize-nosql", "sanitize-xss", "hpp",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t, tt.mode, tt.opts...)
			assert.Equal(t, tt.want, env.h.Pipeline().Names())
		})
	}
}

func TestRoutes_MountOrder(t *testing.T) {
	env := newTestEnv(t, config.EnvProduction)

	assert.Equal(t,
		[]string{toursPrefix, usersPrefix, reviewsPrefix, bookingsPrefix, "/"},
		env.h.Routes().Prefixes())
}

// ─────────────────────────────────────────────
// Rate limiting
// ─────────────────────────────────────────────

func TestRateLimit_101stRequestIsRejected(t *testing.T) {
	env := newTestEnv(t, config.EnvProduction)
	env.docs.EXPECT().List(gomock.Any(), models.CollectionTours, gomock.Any()).
		Return([]models.Document{}, nil).Times(100)

	for i := 0; i < 100; i++ {
		rec := env.do(httptest.NewRequest(http.MethodGet, "/api/v1/tours", nil))
		require.Equal(t, http.StatusOK, rec.Code, "request %d", i+1)
		assert.Equal(t, fmt.Sprint(99-i), rec.Header().Get("RateLimit-Remaining"))
	}

	rec := env.do(httptest.NewRequest(http.MethodGet, "/api/v1/tours", nil))

	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, map[string]any{"status": "fail", "message": msgTooManyRequests}, decodeBody(t, rec))
	assert.Equal(t, "100", rec.Header().Get("RateLimit-Limit"))
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))

	other := httptest.NewRequest(http.MethodGet, "/api/v1/tours/abc", nil)
	other.RemoteAddr = "198.51.100.7:5555"
	env.docs.EXPECT().Get(gomock.Any(), models.CollectionTours, "abc").
		Return(nil, &store.CastError{Path: "id", Value: "abc"})
	assert.Equal(t, http.StatusBadRequest, env.do(other).Code, "other clients keep their own budget")
}

func TestRateLimit_OnlyAPIPrefix(t *testing.T) {
	env := newTestEnv(t, config.EnvProduction)

	for i := 0; i < 150; i++ {
		rec := env.do(httptest.NewRequest(http.MethodGet, "/no-such-page", nil))
		require.Equal(t, http.StatusNotFound, rec.Code, "request %d", i+1)
		assert.Empty(t, rec.Header().Get("RateLimit-Limit"))
	}
}

func TestRateLimit_BudgetHoldsForTheWholeWindow(t *testing.T) {
	env := newTestEnv(t, config.EnvProduction)
	env.docs.EXPECT().List(gomock.Any(), models.CollectionTours, gomock.Any()).
		Return([]models.Document{}, nil).Times(101)

	for i := 0; i < 100; i++ {
		require.Equal(t, http.StatusOK, env.do(httptest.NewRequest(http.MethodGet, "/api/v1/tours", nil)).Code)
	}

	env.now = env.now.Add(37 * time.Second)
	rec := env.do(httptest.NewRequest(http.MethodGet, "/api/v1/tours", nil))
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "3563", rec.Header().Get("Retry-After"))

	env.now = env.now.Add(59 * time.Minute)
	rec = env.do(httptest.NewRequest(http.MethodGet, "/api/v1/tours", nil))
	assert.Equal(t, http.StatusTooManyRequests, rec.Code, "still inside the first hour")

	env.now = env.now.Add(time.Minute)
	rec = env.do(httptest.NewRequest(http.MethodGet, "/api/v1/tours", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "99", rec.Header().Get("RateLimit-Remaining"))
}

type unavailableLimiter struct{}

func (unavailableLimiter) Allow(context.Context, string) (ratelimit.Decision, error) {
	return ratelimit.Decision{}, errors.New("dial tcp 127.0.0.1:6379: connection refused")
}

func TestRateLimit_BackendDownLetsRequestsThrough(t *testing.T) {
	env := newTestEnv(t, config.EnvProduction)
	env.h.limiter = unavailableLimiter{}
	env.docs.EXPECT().List(gomock.Any(), models.CollectionTours, gomock.Any()).
		Return([]models.Document{}, nil).Times(3)

	for i := 0; i < 3; i++ {
		rec := env.do(httptest.NewRequest(http.MethodGet, "/api/v1/tours", nil))
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Empty(t, rec.Header().Get("RateLimit-Limit"))
	}

	assert.Equal(t, 1, strings.Count(env.logs.String(), "rate limiter unavailable"),
		"a failing backend is reported once per interval")
}

// ─────────────────────────────────────────────
// Body governor
// ─────────────────────────────────────────────

type explodingReader struct{ t *testing.T }

func (e explodingReader) Read([]byte) (int, error) {
	e.t.Error("body was read although Content-Length exceeds the limit")
	return 0, io.EOF
}

func TestBodyGovernor_RejectsLargeBodiesBeforeParsing(t *testing.T) {
	big := `{"name":"` + strings.Repeat("a", 11*1024) + `"}`

	tests := []struct {
		name    string
		request func(t *testing.T) *http.Request
	}{
		{
			name: "declared content length",
			request: func(t *testing.T) *http.Request {
				return jsonRequest(http.MethodPost, "/api/v1/tours", big)
			},
		},
		{
			name: "chunked body is cut off while reading",
			request: func(t *testing.T) *http.Request {
				r := jsonRequest(http.MethodPost, "/api/v1/tours", big)
				r.ContentLength = -1
				return r
			},
		},
		{
			name: "content length checked before any read",
			request: func(t *testing.T) *http.Request {
				r := httptest.NewRequest(http.MethodPost, "/api/v1/tours", explodingReader{t: t})
				r.Header.Set("Content-Type", "application/json")
				r.ContentLength = 20 * 1024
				return r
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// no expectations: any service call fails the test
			env := newTestEnv(t, config.EnvProduction)

			rec := env.do(tt.request(t))

			assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
			body := decodeBody(t, rec)
			assert.Equal(t, "fail", body["status"])
			assert.Equal(t, "Request body is larger than 10kb", body["message"])
		})
	}
}

func TestBodyGovernor_MalformedJSON(t *testing.T) {
	env := newTestEnv(t, config.EnvProduction)

	rec := env.do(jsonRequest(http.MethodPost, "/api/v1/tours", `{"name": "Everest`))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, map[string]any{"status": "fail", "message": "Invalid JSON in request body"}, decodeBody(t, rec))
}

func TestBodyGovernor_FormBody(t *testing.T) {
	env := newTestEnv(t, config.EnvProduction)
	env.auth.EXPECT().Login(gomock.Any(), models.LoginRequest{Email: "test@natours.io", Password: "pass1234"}).
		Return(models.User{ID: 3, Email: "test@natours.io", Role: models.RoleUser}, nil)
	env.auth.EXPECT().CreateToken(gomock.Any(), gomock.Any()).Return(models.Token{SignedString: "signed"}, nil)

	r := httptest.NewRequest(http.MethodPost, "/api/v1/users/login",
		strings.NewReader("email=test%40natours.io&password=pass1234"))
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	rec := env.do(r)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "signed", decodeBody(t, rec)["token"])
}

// ─────────────────────────────────────────────
// Webhook bypass
// ─────────────────────────────────────────────

func TestWebhook_ReceivesRawBytes(t *testing.T) {
	// whitespace, key order, an operator key and markup must all survive
	payload := []byte("{\"type\":  \"checkout.session.completed\",\n \"$where\": \"<b>x</b>\",\"data\":{}}  \n" +
		strings.Repeat(" ", 12*1024))

	env := newTestEnv(t, config.EnvProduction)
	env.checkout.EXPECT().
		HandleWebhook(gomock.Any(), gomock.Any(), "t=1,v1=abc").
		DoAndReturn(func(_ any, got []byte, _ string) (models.Document, error) {
			assert.True(t, bytes.Equal(payload, got), "payload was altered")
			return models.Document{models.IDField: int64(7)}, nil
		})

	r := httptest.NewRequest(http.MethodPost, webhookPath, bytes.NewReader(payload))
	r.Header.Set("Content-Type", "application/json")
	r.Header.Set(webhookSignatureHeader, "t=1,v1=abc")

	rec := env.do(r)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, map[string]any{"received": true}, decodeBody(t, rec))
}

func TestWebhook_SignatureFailureGoesThroughErrorStage(t *testing.T) {
	env := newTestEnv(t, config.EnvProduction)
	env.checkout.EXPECT().HandleWebhook(gomock.Any(), gomock.Any(), "").
		Return(nil, fmt.Errorf("verify: %w", service.ErrInvalidSignature))

	rec := env.do(httptest.NewRequest(http.MethodPost, webhookPath, strings.NewReader(`{}`)))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "fail", decodeBody(t, rec)["status"])
	assert.Contains(t, decodeBody(t, rec)["message"], "Webhook error")
}

func TestWebhook_GetIsNotTheWebhook(t *testing.T) {
	env := newTestEnv(t, config.EnvProduction)

	rec := env.do(httptest.NewRequest(http.MethodGet, webhookPath, nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

// ─────────────────────────────────────────────
// Fallback
// ─────────────────────────────────────────────

func TestFallback_UnmatchedRequests(t *testing.T) {
	tests := []struct {
		method string
		target string
	}{
		{http.MethodGet, "/api/v1/unknown"},
		{http.MethodGet, "/api/v2/tours"},
		{http.MethodPut, "/api/v1/tours/5"},
		{http.MethodDelete, "/api/v1/tours"},
		{http.MethodGet, "/api/v1/toursabc"},
		{http.MethodGet, "/nope/deeper?x=1&x=2"},
		{http.MethodPost, "/"},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.target, func(t *testing.T) {
			env := newTestEnv(t, config.EnvProduction)

			rec := env.do(httptest.NewRequest(tt.method, tt.target, nil))

			assert.Equal(t, http.StatusNotFound, rec.Code)
			assert.Equal(t, map[string]any{
				"status":  "fail",
				"message": "Can't find " + tt.target + " on this server!",
			}, decodeBody(t, rec))
		})
	}
}

// ─────────────────────────────────────────────
// Error stage scenarios
// ─────────────────────────────────────────────

func TestMissingTour_ProductionResponse(t *testing.T) {
	env := newTestEnv(t, config.EnvProduction)
	env.docs.EXPECT().Get(gomock.Any(), models.CollectionTours, "999999").
		Return(nil, fmt.Errorf("get tours 999999: %w", store.ErrDocumentNotFound))

	rec := env.do(httptest.NewRequest(http.MethodGet, "/api/v1/tours/999999", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, map[string]any{"status": "fail", "message": "No tour found with that ID"}, body)
	assert.NotContains(t, body, "stack")
}

func TestMissingTour_DevelopmentResponse(t *testing.T) {
	env := newTestEnv(t, config.EnvDevelopment)
	env.docs.EXPECT().Get(gomock.Any(), models.CollectionTours, "999999").
		Return(nil, store.ErrDocumentNotFound)

	rec := env.do(httptest.NewRequest(http.MethodGet, "/api/v1/tours/999999", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "fail", body["status"])
	assert.Equal(t, "No tour found with that ID", body["message"])
	assert.NotEmpty(t, body["stack"])
	assert.Contains(t, body, "error")
}

func TestDuplicateTourName(t *testing.T) {
	env := newTestEnv(t, config.EnvProduction)
	env.loginAs(adminUser)
	env.docs.EXPECT().Create(gomock.Any(), models.CollectionTours, models.Document{"name": "Everest Trek"}).
		Return(nil, fmt.Errorf("create tours: %w", &store.DuplicateKeyError{
			Collection: models.CollectionTours,
			KeyValue:   map[string]any{"name": "Everest Trek"},
		}))

	r := jsonRequest(http.MethodPost, "/api/v1/tours", `{"name":"Everest Trek"}`)
	r.Header.Set("Authorization", "Bearer good-token")
	rec := env.do(r)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, map[string]any{
		"status":  "fail",
		"message": "Duplicate field value: Everest Trek. Please use another value!",
	}, decodeBody(t, rec))
}

func TestInvalidID_IsACastError(t *testing.T) {
	env := newTestEnv(t, config.EnvProduction)
	env.docs.EXPECT().Get(gomock.Any(), models.CollectionTours, "wwwww").
		Return(nil, &store.CastError{Path: "id", Value: "wwwww"})

	rec := env.do(httptest.NewRequest(http.MethodGet, "/api/v1/tours/wwwww", nil))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Invalid id: wwwww.", decodeBody(t, rec)["message"])
}

func TestListTours_HugePageIsACastError(t *testing.T) {
	env := newTestEnv(t, config.EnvProduction)

	rec := env.do(httptest.NewRequest(http.MethodGet, "/api/v1/tours?page=9223372036854775807&limit=2", nil))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, map[string]any{
		"status":  "fail",
		"message": "Invalid page: 9223372036854775807.",
	}, decodeBody(t, rec))
}

func TestHandlerPanic_ProductionHidesDetails(t *testing.T) {
	env := newTestEnv(t, config.EnvProduction)
	env.docs.EXPECT().List(gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(_, _, _ any) ([]models.Document, error) {
			var user *models.User
			return []models.Document{{"name": user.Name}}, nil
		})

	rec := env.do(httptest.NewRequest(http.MethodGet, "/api/v1/tours", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, map[string]any{"status": "error", "message": apperror.GenericMessage}, decodeBody(t, rec))

	logs := env.logs.String()
	assert.Contains(t, logs, "nil pointer dereference")
	assert.Contains(t, logs, "goroutine")
}

func TestUnexpectedError_ProductionMessageIsGeneric(t *testing.T) {
	env := newTestEnv(t, config.EnvProduction)
	env.docs.EXPECT().List(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(nil, errors.New("connection refused to 10.0.0.5:5432"))

	rec := env.do(httptest.NewRequest(http.MethodGet, "/api/v1/reviews", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "10.0.0.5")
	assert.Contains(t, env.logs.String(), "connection refused to 10.0.0.5:5432")
}

// ─────────────────────────────────────────────
// Sanitizers
// ─────────────────────────────────────────────

func TestParameterPollution(t *testing.T) {
	env := newTestEnv(t, config.EnvProduction)

	var got store.Filter
	env.docs.EXPECT().List(gomock.Any(), models.CollectionTours, gomock.Any()).
		DoAndReturn(func(_ any, _ string, f store.Filter) ([]models.Document, error) {
			got = f
			return []models.Document{}, nil
		})

	rec := env.do(httptest.NewRequest(http.MethodGet,
		"/api/v1/tours?difficulty=easy&difficulty=medium&sort=price&sort=-duration&name=a&name=b", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []store.Condition{
		{Field: "difficulty", Op: store.OpIn, Values: []string{"easy", "medium"}},
		{Field: "name", Op: store.OpEq, Values: []string{"b"}},
	}, got.Conditions)
	assert.Equal(t, []store.SortKey{{Field: "duration", Desc: true}}, got.Sort)
}

func TestSanitizers_CleanBodyAndQuery(t *testing.T) {
	env := newTestEnv(t, config.EnvProduction)
	env.loginAs(adminUser)
	env.docs.EXPECT().Create(gomock.Any(), models.CollectionTours, models.Document{
		"name":  "Bold Tour",
		"price": map[string]any{},
	}).Return(models.Document{models.IDField: int64(9), "name": "Bold Tour"}, nil)

	r := jsonRequest(http.MethodPost, "/api/v1/tours?price[$gt]=1",
		`{"name":"<b>Bold</b> Tour","$where":"1","price":{"$gte":1},"a.b":2}`)
	r.Header.Set("Authorization", "Bearer good-token")
	rec := env.do(r)

	assert.Equal(t, http.StatusCreated, rec.Code)
	data := decodeBody(t, rec)["data"].(map[string]any)
	assert.Equal(t, "Bold Tour", data["tour"].(map[string]any)["name"])
}

// ─────────────────────────────────────────────
// CORS, security headers, static, compression
// ─────────────────────────────────────────────

func TestCORS_PreflightIsAnswered(t *testing.T) {
	env := newTestEnv(t, config.EnvProduction)

	r := httptest.NewRequest(http.MethodOptions, "/api/v1/tours/5", nil)
	r.Header.Set("Origin", "https://example.com")
	r.Header.Set("Access-Control-Request-Method", http.MethodPatch)

	rec := env.do(r)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, http.MethodPatch, rec.Header().Get("Access-Control-Allow-Methods"))
	assert.Empty(t, rec.Header().Get("RateLimit-Limit"), "preflight must not be counted")
}

func TestSecurityHeaders(t *testing.T) {
	env := newTestEnv(t, config.EnvProduction)

	rec := env.do(httptest.NewRequest(http.MethodGet, "/api/v1/nothing", nil))

	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "SAMEORIGIN", rec.Header().Get("X-Frame-Options"))
	assert.Equal(t, "no-referrer", rec.Header().Get("Referrer-Policy"))
	assert.NotEmpty(t, rec.Header().Get(traceIDHeader))
}

func TestStaticAssets(t *testing.T) {
	env := newTestEnv(t, config.EnvProduction)

	rec := env.do(httptest.NewRequest(http.MethodGet, "/css/style.css", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/css")
	assert.Contains(t, rec.Body.String(), ".card-container")
	assert.Empty(t, rec.Header().Get("X-Frame-Options"), "static short-circuits before security headers")
}

func TestHandlerPanic_DevelopmentShowsCause(t *testing.T) {
	env := newTestEnv(t, config.EnvDevelopment)
	env.docs.EXPECT().List(gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(_, _, _ any) ([]models.Document, error) {
			var user *models.User
			return []models.Document{{"name": user.Name}}, nil
		})

	rec := env.do(httptest.NewRequest(http.MethodGet, "/api/v1/tours", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "error", body["status"])
	inner, ok := body["error"].(map[string]any)
	require.True(t, ok)
	assert.Contains(t, inner["detail"], "nil pointer dereference")
}
