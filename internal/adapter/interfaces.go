// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

// Package adapter is a typed client for the natours REST API.
//
// [API] hides the JSON envelopes and the bearer token handling. Failed
// responses are mapped by mapHTTPError to an [*APIError] that unwraps to a
// status sentinel, so callers can use [errors.Is] (e.g. [ErrNotFound] for
// 404, [ErrTooManyRequests] for 429) and still read the server's message.
package adapter

import (
	"context"
	"net/url"

	"github.com/MKhiriev/go-natours/models"
)

// API defines communication with the natours server.
type API interface {
	// SetToken stores the bearer token attached to all subsequent requests.
	// Signup and Login call it themselves.
	SetToken(token string)

	// Token returns the bearer token currently stored, or "".
	Token() string

	// Signup creates an account and stores the issued token.
	Signup(ctx context.Context, req models.SignupRequest) (models.User, error)

	// Login authenticates with email and password and stores the issued
	// token.
	Login(ctx context.Context, req models.LoginRequest) (models.User, error)

	// Me returns the document of the logged-in user.
	Me(ctx context.Context) (models.Document, error)

	// List returns the documents of collection matching query, which uses
	// the server's filter syntax (price[lt]=500, sort=-price, ...).
	List(ctx context.Context, collection string, query url.Values) ([]models.Document, error)

	// Get returns one document by id.
	Get(ctx context.Context, collection, id string) (models.Document, error)

	// Create stores doc and returns it with its id.
	Create(ctx context.Context, collection string, doc models.Document) (models.Document, error)

	// Update merges patch into the document and returns the result.
	Update(ctx context.Context, collection, id string, patch models.Document) (models.Document, error)

	// Delete removes a document.
	Delete(ctx context.Context, collection, id string) error
}
