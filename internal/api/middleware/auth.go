package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/yuta/recipe-box/internal/api/dto"
	"github.com/yuta/recipe-box/internal/auth"
	"github.com/yuta/recipe-box/internal/database/models"
)

// Session header names, shared with the sign-in response.
const (
	HeaderAccessToken = "access-token"
	HeaderClient      = "client"
	HeaderUID         = "uid"
	HeaderExpiry      = "expiry"
	HeaderTokenType   = "token-type"
)

type contextKey string

const (
	userKey     contextKey = "current_user"
	clientIDKey contextKey = "client_id"
)

const unauthenticatedMessage = "Please sign in or sign up to continue"

// Auth validates the access-token/client/uid header triple. On success the
// rotated credentials are attached to the response headers and the user is
// placed in the request context. Validation on the rotation grace path
// yields no fresh credentials, so no headers are written.
func Auth(validator auth.SessionValidator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, sess, err := validator.Validate(
				r.Context(),
				r.Header.Get(HeaderUID),
				r.Header.Get(HeaderClient),
				r.Header.Get(HeaderAccessToken),
			)
			if err != nil {
				writeError(w, http.StatusUnauthorized, unauthenticatedMessage)
				return
			}

			if sess != nil {
				SetSessionHeaders(w, *sess)
			}

			ctx := r.Context()
			ctx = context.WithValue(ctx, userKey, user)
			ctx = context.WithValue(ctx, clientIDKey, r.Header.Get(HeaderClient))

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// SetSessionHeaders attaches a session's credentials to the response.
func SetSessionHeaders(w http.ResponseWriter, sess auth.Session) {
	h := w.Header()
	h.Set(HeaderAccessToken, sess.Token)
	h.Set(HeaderClient, sess.ClientID)
	h.Set(HeaderUID, sess.UID)
	h.Set(HeaderExpiry, strconv.FormatInt(sess.ExpiresAt.Unix(), 10))
	h.Set(HeaderTokenType, auth.TokenTypeBearer)
}

// ClearSessionHeaders removes any session credentials already attached.
// Destructive operations that invalidate the session (guest destroy,
// withdrawal) call this so the client is not handed credentials for an
// account that no longer resolves.
func ClearSessionHeaders(w http.ResponseWriter) {
	h := w.Header()
	h.Del(HeaderAccessToken)
	h.Del(HeaderClient)
	h.Del(HeaderUID)
	h.Del(HeaderExpiry)
	h.Del(HeaderTokenType)
}

// CurrentUser returns the authenticated principal, or nil outside Auth.
func CurrentUser(ctx context.Context) *models.User {
	if user, ok := ctx.Value(userKey).(*models.User); ok {
		return user
	}
	return nil
}

// ClientID returns the client identifier the request authenticated with.
func ClientID(ctx context.Context) string {
	if id, ok := ctx.Value(clientIDKey).(string); ok {
		return id
	}
	return ""
}

// RequireRole rejects authenticated principals whose role is not listed.
func RequireRole(roles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user := CurrentUser(r.Context())
			if user == nil {
				writeError(w, http.StatusUnauthorized, unauthenticatedMessage)
				return
			}

			for _, role := range roles {
				if user.Role == role {
					next.ServeHTTP(w, r)
					return
				}
			}

			writeError(w, http.StatusForbidden, "You do not have permission to perform this action")
		})
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(dto.ErrorResponse{Error: msg})
}
