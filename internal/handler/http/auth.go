package http

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/MKhiriev/go-natours/internal/apperror"
	"github.com/MKhiriev/go-natours/internal/logger"
	"github.com/MKhiriev/go-natours/internal/service"
	"github.com/MKhiriev/go-natours/internal/utils"
	"github.com/MKhiriev/go-natours/models"
)

func (h *Handler) signup(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()
	log := logger.FromRequest(r)

	var req models.SignupRequest
	if err := bindBody(r, &req); err != nil {
		return err
	}

	user, err := h.services.AuthService.Signup(ctx, req)
	if err != nil {
		log.Err(err).Msg("signup failed")
		if errors.Is(err, service.ErrInvalidDataProvided) {
			return apperror.BadRequest("Please provide name, email and password!").WithCause(err)
		}
		return err
	}

	return h.sendToken(w, r, user, http.StatusCreated)
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()
	log := logger.FromRequest(r)

	var req models.LoginRequest
	if err := bindBody(r, &req); err != nil {
		return err
	}
	if req.Email == "" || req.Password == "" {
		return apperror.BadRequest("Please provide email and password!")
	}

	user, err := h.services.AuthService.Login(ctx, req)
	if err != nil {
		log.Err(err).Msg("login failed")
		return err
	}

	log.Debug().Int64("id", user.ID).Msg("user successfully logged in")
	return h.sendToken(w, r, user, http.StatusOK)
}

// logout overwrites the token cookie with one that expires at once.
func (h *Handler) logout(w http.ResponseWriter, r *http.Request) error {
	http.SetCookie(w, &http.Cookie{
		Name:     h.cfg.Auth.CookieName,
		Value:    "loggedout",
		Path:     "/",
		Expires:  time.Now().Add(10 * time.Second),
		HttpOnly: true,
	})
	h.respond(w, r, models.Envelope{Status: models.StatusSuccess}, http.StatusOK)
	return nil
}

func (h *Handler) me(w http.ResponseWriter, r *http.Request) error {
	userID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		return errNotLoggedIn(nil)
	}

	doc, err := h.services.DocumentService.Get(r.Context(), users.collection, strconv.FormatInt(userID, 10))
	if err != nil {
		return documentError(users, err)
	}

	h.respond(w, r, models.Success(map[string]any{users.singular: doc}), http.StatusOK)
	return nil
}

// updateMyPassword changes the caller's password and logs them in again
// with a fresh token, since older ones are rejected from now on.
func (h *Handler) updateMyPassword(w http.ResponseWriter, r *http.Request) error {
	current, ok := utils.GetUserFromContext(r.Context())
	if !ok {
		return errNotLoggedIn(nil)
	}

	var req models.UpdatePasswordRequest
	if err := bindBody(r, &req); err != nil {
		return err
	}
	if req.PasswordCurrent == "" || req.Password == "" {
		return apperror.BadRequest("Please provide your current and your new password!")
	}

	user, err := h.services.AuthService.UpdatePassword(r.Context(), current.ID, req)
	if err != nil {
		return err
	}
	return h.sendToken(w, r, user, http.StatusOK)
}

func (h *Handler) updateMe(w http.ResponseWriter, r *http.Request) error {
	current, ok := utils.GetUserFromContext(r.Context())
	if !ok {
		return errNotLoggedIn(nil)
	}

	patch, err := bodyDocument(r)
	if err != nil {
		return err
	}

	user, err := h.services.AuthService.UpdateMe(r.Context(), current.ID, patch)
	if err != nil {
		return err
	}
	h.respond(w, r, models.Success(map[string]any{users.singular: user}), http.StatusOK)
	return nil
}

// deleteMe deactivates the caller's account; the document stays stored.
func (h *Handler) deleteMe(w http.ResponseWriter, r *http.Request) error {
	current, ok := utils.GetUserFromContext(r.Context())
	if !ok {
		return errNotLoggedIn(nil)
	}

	if err := h.services.AuthService.Deactivate(r.Context(), current.ID); err != nil {
		return err
	}
	utils.NoContent(w)
	return nil
}

// sendToken issues a token for user, sets it as an HTTP-only cookie and
// returns it in the body as well.
func (h *Handler) sendToken(w http.ResponseWriter, r *http.Request, user models.User, statusCode int) error {
	token, err := h.services.AuthService.CreateToken(r.Context(), user)
	if err != nil {
		return fmt.Errorf("issue token for user %d: %w", user.ID, err)
	}

	http.SetCookie(w, &http.Cookie{
		Name:     h.cfg.Auth.CookieName,
		Value:    token.SignedString,
		Path:     "/",
		Expires:  time.Now().Add(h.cfg.Auth.TokenDuration),
		HttpOnly: true,
		Secure:   r.TLS != nil || r.Header.Get("X-Forwarded-Proto") == "https",
		SameSite: http.SameSiteLaxMode,
	})

	body := models.Envelope{
		Status: models.StatusSuccess,
		Token:  token.SignedString,
		Data:   map[string]any{users.singular: user},
	}
	h.respond(w, r, body, statusCode)
	return nil
}
