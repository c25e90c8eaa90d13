package service

import (
	"context"

	"github.com/MKhiriev/go-natours/internal/store"
	"github.com/MKhiriev/go-natours/models"
)

//go:generate mockgen -source=interfaces.go -destination=../mock/service_mock.go -package=mock

// DocumentService is the CRUD surface behind the tours, users, reviews and
// bookings routers.
type DocumentService interface {
	List(ctx context.Context, collection string, filter store.Filter) ([]models.Document, error)
	Get(ctx context.Context, collection, id string) (models.Document, error)
	Create(ctx context.Context, collection string, doc models.Document) (models.Document, error)
	Update(ctx context.Context, collection, id string, patch models.Document) (models.Document, error)
	Delete(ctx context.Context, collection, id string) error
}

type AuthService interface {
	Signup(ctx context.Context, req models.SignupRequest) (models.User, error)
	Login(ctx context.Context, req models.LoginRequest) (models.User, error)
	GetUser(ctx context.Context, userID int64) (models.User, error)
	CreateToken(ctx context.Context, user models.User) (models.Token, error)
	ParseToken(ctx context.Context, tokenString string) (models.Token, error)

	// UpdatePassword replaces the password of userID once the current one
	// is confirmed. Tokens issued before the change stop working.
	UpdatePassword(ctx context.Context, userID int64, req models.UpdatePasswordRequest) (models.User, error)
	// UpdateMe changes the profile fields (name, email, photo) of userID.
	// Password fields are refused with ErrPasswordUpdateNotAllowed.
	UpdateMe(ctx context.Context, userID int64, patch models.Document) (models.User, error)
	// Deactivate soft-deletes userID by setting active to false.
	Deactivate(ctx context.Context, userID int64) error
}

// CheckoutService records bookings for signed payment webhooks.
type CheckoutService interface {
	// HandleWebhook verifies signatureHeader against the raw payload and,
	// for completed checkouts, creates a booking. It returns the booking, or
	// nil for events that are acknowledged without action.
	HandleWebhook(ctx context.Context, payload []byte, signatureHeader string) (models.Document, error)
}
