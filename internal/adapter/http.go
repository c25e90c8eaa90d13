package adapter

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/MKhiriev/go-natours/internal/logger"
	"github.com/MKhiriev/go-natours/internal/utils"
	"github.com/MKhiriev/go-natours/models"
	"github.com/go-resty/resty/v2"
)

const apiRoot = "/api/v1/"

// singular is the data key a single document of a collection is sent under.
var singular = map[string]string{
	models.CollectionTours:    "tour",
	models.CollectionUsers:    "user",
	models.CollectionReviews:  "review",
	models.CollectionBookings: "booking",
}

// envelope is the success body of the API.
type envelope struct {
	Status  string                     `json:"status"`
	Token   string                     `json:"token"`
	Results *int                       `json:"results"`
	Data    map[string]json.RawMessage `json:"data"`
}

type httpAPI struct {
	client *utils.HTTPClient

	mu    sync.RWMutex
	token string

	logger *logger.Logger
}

// NewHTTPAPI constructs the REST implementation of [API] for the server at
// address, which may omit the scheme ("localhost:3000").
func NewHTTPAPI(address string, timeout time.Duration, logger *logger.Logger) (API, error) {
	baseURL, err := normalizeBaseURL(address)
	if err != nil {
		return nil, fmt.Errorf("invalid api address: %w", err)
	}

	client := utils.NewHTTPClient(baseURL)
	if timeout > 0 {
		client.SetTimeout(timeout)
	}
	return &httpAPI{client: client, logger: logger}, nil
}

func normalizeBaseURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", fmt.Errorf("empty address")
	}

	if !strings.Contains(raw, "://") {
		raw = "http://" + raw
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", err
	}
	if u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("address must include host and scheme")
	}

	return strings.TrimRight(u.String(), "/"), nil
}

func (h *httpAPI) SetToken(token string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.token = strings.TrimSpace(token)
}

func (h *httpAPI) Token() string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.token
}

// request starts a request carrying the stored token, if any.
func (h *httpAPI) request(ctx context.Context) *resty.Request {
	r := h.client.R().SetContext(ctx)
	if token := h.Token(); token != "" {
		r.SetAuthToken(token)
	}
	return r
}

func (h *httpAPI) Signup(ctx context.Context, req models.SignupRequest) (models.User, error) {
	return h.authenticate(ctx, "signup", req)
}

func (h *httpAPI) Login(ctx context.Context, req models.LoginRequest) (models.User, error) {
	return h.authenticate(ctx, "login", req)
}

// authenticate posts body to /users/<action> and keeps the returned token.
func (h *httpAPI) authenticate(ctx context.Context, action string, body any) (models.User, error) {
	var env envelope
	resp, err := h.request(ctx).
		SetBody(body).
		SetResult(&env).
		Post(apiRoot + models.CollectionUsers + "/" + action)
	if err != nil {
		return models.User{}, fmt.Errorf("%s request: %w", action, err)
	}
	if err = mapHTTPError(resp); err != nil {
		return models.User{}, err
	}
	if env.Token == "" {
		return models.User{}, fmt.Errorf("%s: no token in response", action)
	}

	var user models.User
	if err = decodeData(env, "user", &user); err != nil {
		return models.User{}, fmt.Errorf("%s: %w", action, err)
	}

	h.SetToken(env.Token)
	h.logger.Debug().Int64("id", user.ID).Str("action", action).Msg("authenticated against api")
	return user, nil
}

func (h *httpAPI) Me(ctx context.Context) (models.Document, error) {
	return h.single(h.request(ctx), "GET", apiRoot+models.CollectionUsers+"/me", models.CollectionUsers)
}

func (h *httpAPI) List(ctx context.Context, collection string, query url.Values) ([]models.Document, error) {
	var env envelope
	resp, err := h.request(ctx).
		SetQueryParamsFromValues(query).
		SetResult(&env).
		Get(apiRoot + collection)
	if err != nil {
		return nil, fmt.Errorf("list %s request: %w", collection, err)
	}
	if err = mapHTTPError(resp); err != nil {
		return nil, err
	}

	var docs []models.Document
	if err = decodeData(env, collection, &docs); err != nil {
		return nil, fmt.Errorf("list %s: %w", collection, err)
	}
	return docs, nil
}

func (h *httpAPI) Get(ctx context.Context, collection, id string) (models.Document, error) {
	return h.single(h.request(ctx), "GET", documentPath(collection, id), collection)
}

func (h *httpAPI) Create(ctx context.Context, collection string, doc models.Document) (models.Document, error) {
	return h.single(h.request(ctx).SetBody(doc), "POST", apiRoot+collection, collection)
}

func (h *httpAPI) Update(ctx context.Context, collection, id string, patch models.Document) (models.Document, error) {
	return h.single(h.request(ctx).SetBody(patch), "PATCH", documentPath(collection, id), collection)
}

func (h *httpAPI) Delete(ctx context.Context, collection, id string) error {
	resp, err := h.request(ctx).Delete(documentPath(collection, id))
	if err != nil {
		return fmt.Errorf("delete %s %s request: %w", collection, id, err)
	}
	return mapHTTPError(resp)
}

// single executes r and decodes the one document the answer carries.
func (h *httpAPI) single(r *resty.Request, method, path, collection string) (models.Document, error) {
	var env envelope
	resp, err := r.SetResult(&env).Execute(method, path)
	if err != nil {
		return nil, fmt.Errorf("%s %s request: %w", method, path, err)
	}
	if err = mapHTTPError(resp); err != nil {
		return nil, err
	}

	var doc models.Document
	if err = decodeData(env, singular[collection], &doc); err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	return doc, nil
}

func documentPath(collection, id string) string {
	return apiRoot + collection + "/" + url.PathEscape(id)
}

func decodeData(env envelope, key string, dst any) error {
	raw, ok := env.Data[key]
	if !ok {
		return fmt.Errorf("response data has no %q", key)
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("decode %q: %w", key, err)
	}
	return nil
}
