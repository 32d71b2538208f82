package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"geocatalog/internal/logger"
	"geocatalog/internal/model"
	"geocatalog/internal/service"
)

// Authentication failure messages.
const (
	MsgNotAuthenticated = "Authentication credentials were not provided."
	MsgInvalidToken     = "Invalid token."
	MsgInvalidHeader    = "Invalid token header."
)

type userKey struct{}

// Authenticator resolves a token key to its user.
type Authenticator interface {
	Authenticate(ctx context.Context, key string) (*model.User, error)
}

// TokenAuth reads "Authorization: Token <key>" (or "Bearer <key>") and puts the
// matching user in the request context. Requests without credentials pass
// through anonymously. A malformed header or an unknown token is rejected with 401.
func TokenAuth(auth Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key, ok, err := tokenFromHeader(r.Header.Get("Authorization"))
			if err != nil {
				unauthorized(w, r, MsgInvalidHeader)
				return
			}
			if !ok {
				next.ServeHTTP(w, r)
				return
			}

			user, err := auth.Authenticate(r.Context(), key)
			if err != nil {
				if errors.Is(err, service.ErrInvalidToken) {
					unauthorized(w, r, MsgInvalidToken)
					return
				}
				logger.Ctx(r.Context()).Error().Err(err).Msg("token lookup failed")
				writeError(w, http.StatusInternalServerError, "Internal server error")
				return
			}

			ctx := context.WithValue(r.Context(), userKey{}, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAuth rejects anonymous requests with 401.
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := UserFromContext(r.Context()); !ok {
			unauthorized(w, r, MsgNotAuthenticated)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// UserFromContext returns the authenticated user, if any.
func UserFromContext(ctx context.Context) (*model.User, bool) {
	user, ok := ctx.Value(userKey{}).(*model.User)
	return user, ok && user != nil
}

// WithUser returns a copy of ctx carrying user.
func WithUser(ctx context.Context, user *model.User) context.Context {
	return context.WithValue(ctx, userKey{}, user)
}

// tokenFromHeader returns the key of a Token or Bearer header. ok is false
// when the header is absent or uses another scheme.
func tokenFromHeader(header string) (key string, ok bool, err error) {
	parts := strings.Fields(header)
	if len(parts) == 0 {
		return "", false, nil
	}
	scheme := strings.ToLower(parts[0])
	if scheme != "token" && scheme != "bearer" {
		return "", false, nil
	}
	if len(parts) != 2 {
		return "", false, errors.New("malformed authorization header")
	}
	return parts[1], true, nil
}

func unauthorized(w http.ResponseWriter, r *http.Request, msg string) {
	logger.Ctx(r.Context()).Debug().Str("path", r.URL.Path).Msg(msg)
	w.Header().Set("WWW-Authenticate", "Token")
	writeError(w, http.StatusUnauthorized, msg)
}
