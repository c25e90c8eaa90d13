// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package http

import (
	"net/http"
	"slices"

	"github.com/MKhiriev/go-natours/internal/apperror"
	"github.com/MKhiriev/go-natours/internal/logger"
	"github.com/MKhiriev/go-natours/internal/service"
	"github.com/MKhiriev/go-natours/internal/utils"
)

// protect is a router middleware that enforces JWT-based authentication.
//
// The token is taken from the "Authorization: Bearer" header or, when the
// header is absent, from the auth cookie. It is validated via
// [service.AuthService.ParseToken] and the user it was issued for is loaded
// with [service.AuthService.GetUser]; on success the user is stored in the
// request context with [utils.WithUser] before delegating to next.
//
// Every rejection is sent to the error stage as a 401:
//   - no token at all ([ErrNoToken]);
//   - a malformed Authorization header;
//   - an expired or otherwise invalid token;
//   - a token whose user no longer exists or was deactivated;
//   - a token issued before the user's last password change.
func (h *Handler) protect(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		log := logger.FromRequest(r)

		tokenString, err := h.tokenFromRequest(r)
		if err != nil {
			log.Debug().Err(err).Msg("request without usable token")
			h.fail(w, r, errNotLoggedIn(err))
			return
		}

		token, err := h.services.AuthService.ParseToken(ctx, tokenString)
		if err != nil {
			log.Err(err).Msg("error occurred during parsing token")
			h.fail(w, r, mapError(err))
			return
		}

		user, err := h.services.AuthService.GetUser(ctx, token.UserID)
		if err != nil {
			log.Err(err).Int64("id", token.UserID).Msg("token user lookup failed")
			h.fail(w, r, mapError(err))
			return
		}
		if token.IssuedAt != nil && user.PasswordChangedAfter(token.IssuedAt.Time) {
			log.Debug().Int64("id", user.ID).Msg("token predates password change")
			h.fail(w, r, mapError(service.ErrPasswordChanged))
			return
		}

		next.ServeHTTP(w, r.WithContext(utils.WithUser(ctx, user)))
	})
}

// tokenFromRequest prefers the Authorization header over the cookie.
func (h *Handler) tokenFromRequest(r *http.Request) (string, error) {
	if header := r.Header.Get("Authorization"); header != "" {
		return utils.ParseBearerToken(header)
	}
	if cookie, err := r.Cookie(h.cfg.Auth.CookieName); err == nil && cookie.Value != "" {
		return cookie.Value, nil
	}
	return "", ErrNoToken
}

// restrictTo lets through only users whose role is one of roles. It must run
// after protect.
func (h *Handler) restrictTo(roles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, ok := utils.GetUserFromContext(r.Context())
			if !ok {
				h.fail(w, r, errNotLoggedIn(ErrNoToken))
				return
			}
			if !slices.Contains(roles, user.Role) {
				h.fail(w, r, apperror.Forbidden(msgNoPermission))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
