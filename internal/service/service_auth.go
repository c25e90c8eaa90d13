package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/MKhiriev/go-natours/internal/config"
	"github.com/MKhiriev/go-natours/internal/logger"
	"github.com/MKhiriev/go-natours/internal/store"
	"github.com/MKhiriev/go-natours/internal/utils"
	"github.com/MKhiriev/go-natours/models"
	"golang.org/x/crypto/bcrypt"
)

// authService is the concrete implementation of AuthService.
// It handles user registration, credential verification, and JWT token
// lifecycle using the users collection for persistence and bcrypt for
// password hashing.
type authService struct {
	// documents is the store holding the users collection.
	documents store.DocumentStore

	// bcryptCost is the work factor used when hashing new passwords.
	bcryptCost int

	// tokenSignKey is the HMAC secret used to sign and verify JWT tokens.
	tokenSignKey string

	// tokenIssuer is the "iss" claim embedded in every issued JWT.
	// Tokens whose issuer does not match this value are rejected during parsing.
	tokenIssuer string

	// tokenDuration controls how long a newly issued JWT remains valid.
	tokenDuration time.Duration

	now func() time.Time

	logger *logger.Logger
}

// selfUpdatableFields are the profile fields a user may change on their own
// account through UpdateMe.
var selfUpdatableFields = []string{"name", "email", "photo"}

// NewAuthService constructs a new AuthService over documents, populated
// with token parameters from cfg.
//
// The returned service is safe for concurrent use; all state is read-only after
// construction.
func NewAuthService(documents store.DocumentStore, cfg config.Auth, logger *logger.Logger) AuthService {
	return &authService{
		documents:     documents,
		bcryptCost:    bcrypt.DefaultCost,
		tokenSignKey:  cfg.TokenSignKey,
		tokenIssuer:   cfg.TokenIssuer,
		tokenDuration: cfg.TokenDuration,
		now:           time.Now,
		logger:        logger,
	}
}

// Signup creates a new account with the "user" role.
//
// Name, email and password are required and the password confirmation must
// match. A taken email surfaces as the store's duplicate-key error.
func (a *authService) Signup(ctx context.Context, req models.SignupRequest) (models.User, error) {
	log := logger.FromContext(ctx)

	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Name == "" || req.Email == "" || req.Password == "" {
		log.Error().Str("email", req.Email).Msg("invalid user data provided")
		return models.User{}, ErrInvalidDataProvided
	}
	if req.Password != req.PasswordConfirm {
		return models.User{}, ErrPasswordsDoNotMatch
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), a.bcryptCost)
	if err != nil {
		return models.User{}, fmt.Errorf("error hashing password: %w", err)
	}

	user := models.User{Name: req.Name, Email: req.Email, Role: models.RoleUser, PasswordHash: string(hash)}
	created, err := a.documents.Create(ctx, models.CollectionUsers, user.Document())
	if err != nil {
		log.Err(err).Str("email", req.Email).Msg("user creation ended with error")
		return models.User{}, fmt.Errorf("user creation ended with error: %w", err)
	}

	return models.UserFromDocument(created), nil
}

// Login authenticates an existing user by email and password.
//
// An unknown email and a wrong password both yield ErrWrongPassword.
func (a *authService) Login(ctx context.Context, req models.LoginRequest) (models.User, error) {
	log := logger.FromContext(ctx)

	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" || req.Password == "" {
		return models.User{}, ErrInvalidDataProvided
	}

	doc, err := a.documents.FindOne(ctx, models.CollectionUsers, "email", email)
	if err != nil {
		if errors.Is(err, store.ErrDocumentNotFound) {
			return models.User{}, ErrWrongPassword
		}
		log.Err(err).Str("email", email).Msg("user search by email failed")
		return models.User{}, fmt.Errorf("user search by email failed: %w", err)
	}

	user := models.UserFromDocument(doc)
	if !user.Active {
		log.Warn().Int64("id", user.ID).Msg("login to deactivated account")
		return models.User{}, ErrWrongPassword
	}
	if err = bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		log.Warn().Int64("id", user.ID).Msg("wrong password")
		return models.User{}, ErrWrongPassword
	}

	return user, nil
}

// GetUser loads the user a token was issued for. Deactivated accounts are
// reported as gone.
func (a *authService) GetUser(ctx context.Context, userID int64) (models.User, error) {
	doc, err := a.documents.Get(ctx, models.CollectionUsers, userKey(userID))
	if err != nil {
		if errors.Is(err, store.ErrDocumentNotFound) {
			return models.User{}, ErrUserNoLongerExists
		}
		return models.User{}, fmt.Errorf("user lookup failed: %w", err)
	}

	user := models.UserFromDocument(doc)
	if !user.Active {
		return models.User{}, ErrUserNoLongerExists
	}
	return user, nil
}

// UpdatePassword checks req.PasswordCurrent against the stored hash, then
// stores the new hash together with the change time. The change time is set
// one second back so that a token issued right after it is still accepted.
func (a *authService) UpdatePassword(ctx context.Context, userID int64, req models.UpdatePasswordRequest) (models.User, error) {
	log := logger.FromContext(ctx)

	if req.PasswordCurrent == "" || req.Password == "" {
		return models.User{}, ErrInvalidDataProvided
	}

	user, err := a.GetUser(ctx, userID)
	if err != nil {
		return models.User{}, err
	}
	if err = bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.PasswordCurrent)); err != nil {
		log.Warn().Int64("id", userID).Msg("wrong current password")
		return models.User{}, ErrWrongCurrentPassword
	}
	if req.Password != req.PasswordConfirm {
		return models.User{}, ErrPasswordsDoNotMatch
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), a.bcryptCost)
	if err != nil {
		return models.User{}, fmt.Errorf("error hashing password: %w", err)
	}

	changedAt := a.now().Add(-time.Second).UTC()
	doc, err := a.documents.Update(ctx, models.CollectionUsers, userKey(userID), models.Document{
		models.PasswordField:          string(hash),
		models.PasswordChangedAtField: changedAt.Format(time.RFC3339Nano),
	})
	if err != nil {
		log.Err(err).Int64("id", userID).Msg("password update failed")
		return models.User{}, fmt.Errorf("password update failed: %w", err)
	}

	log.Info().Int64("id", userID).Msg("password changed")
	return models.UserFromDocument(doc), nil
}

// UpdateMe applies the profile fields of patch to userID and ignores every
// other key, so role or active cannot be changed this way.
func (a *authService) UpdateMe(ctx context.Context, userID int64, patch models.Document) (models.User, error) {
	if _, ok := patch[models.PasswordField]; ok {
		return models.User{}, ErrPasswordUpdateNotAllowed
	}
	if _, ok := patch[models.PasswordConfirmField]; ok {
		return models.User{}, ErrPasswordUpdateNotAllowed
	}

	allowed := patch.Project(selfUpdatableFields)
	delete(allowed, models.IDField)
	if email, ok := allowed["email"].(string); ok {
		allowed["email"] = strings.ToLower(strings.TrimSpace(email))
	}
	if len(allowed) == 0 {
		return a.GetUser(ctx, userID)
	}

	if _, err := a.GetUser(ctx, userID); err != nil {
		return models.User{}, err
	}
	doc, err := a.documents.Update(ctx, models.CollectionUsers, userKey(userID), allowed)
	if err != nil {
		logger.FromContext(ctx).Err(err).Int64("id", userID).Msg("profile update failed")
		return models.User{}, fmt.Errorf("profile update failed: %w", err)
	}
	return models.UserFromDocument(doc), nil
}

// Deactivate marks userID inactive. The document is kept; login and token
// checks treat it as deleted from then on.
func (a *authService) Deactivate(ctx context.Context, userID int64) error {
	_, err := a.documents.Update(ctx, models.CollectionUsers, userKey(userID), models.Document{models.ActiveField: false})
	if err != nil {
		if errors.Is(err, store.ErrDocumentNotFound) {
			return ErrUserNoLongerExists
		}
		return fmt.Errorf("deactivate user %d: %w", userID, err)
	}
	logger.FromContext(ctx).Info().Int64("id", userID).Msg("user deactivated")
	return nil
}

func userKey(userID int64) string {
	return strconv.FormatInt(userID, 10)
}

// CreateToken issues a signed JWT for the given user.
//
// The token is signed with the configured tokenSignKey, carries the configured
// tokenIssuer as the "iss" claim and the user's role, and expires after
// tokenDuration.
func (a *authService) CreateToken(ctx context.Context, user models.User) (models.Token, error) {
	token, err := utils.GenerateJWTToken(a.tokenIssuer, user.ID, user.Role, a.tokenDuration, a.tokenSignKey)
	if err != nil {
		return models.Token{}, fmt.Errorf("%w: %w", ErrTokenCreationFailed, err)
	}

	return token, nil
}

// ParseToken validates and parses a raw JWT string.
//
// Any validation failure (expired, wrong issuer, malformed) is normalised to
// ErrTokenIsExpiredOrInvalid so that callers do not need to inspect
// low-level JWT errors.
func (a *authService) ParseToken(ctx context.Context, tokenString string) (models.Token, error) {
	token, err := utils.ValidateAndParseJWTToken(tokenString, a.tokenSignKey, a.tokenIssuer)
	if err != nil {
		logger.FromContext(ctx).Debug().Err(err).Msg("token rejected")
		return models.Token{}, ErrTokenIsExpiredOrInvalid
	}

	return token, nil
}
