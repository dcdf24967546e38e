package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/edvin/unihub/internal/api/response"
	"github.com/edvin/unihub/internal/core"
)

type contextKey string

const identityKey contextKey = "identity"

// Authenticator resolves an Authorization header to a caller.
// *core.AuthService satisfies it.
type Authenticator interface {
	Authenticate(ctx context.Context, header string) (*core.Identity, error)
}

// Identity resolves the bearer token, if any, and stores the caller in the
// request context. A rejected token leaves the request anonymous; routes that
// need a caller use RequireUser, RequireAuthenticated or RequireAdmin. Lookup
// failures other than a rejected token answer 500.
func Identity(auth Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" {
				next.ServeHTTP(w, r)
				return
			}

			id, err := auth.Authenticate(r.Context(), header)
			if err != nil {
				if !errors.Is(err, core.ErrUnauthorized) {
					response.WriteServiceError(w, r, err)
					return
				}
				zerolog.Ctx(r.Context()).Debug().Err(err).Msg("token not accepted")
				next.ServeHTTP(w, r)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), id)))
		})
	}
}

// WithIdentity returns ctx carrying id.
func WithIdentity(ctx context.Context, id *core.Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

// GetIdentity returns the authenticated caller, or nil.
func GetIdentity(ctx context.Context) *core.Identity {
	id, _ := ctx.Value(identityKey).(*core.Identity)
	if id == nil || id.User == nil {
		return nil
	}
	return id
}

// UserID returns the authenticated user's id, or "".
func UserID(ctx context.Context) string {
	if id := GetIdentity(ctx); id != nil {
		return id.User.ID
	}
	return ""
}

// RequireAuthenticated rejects requests without a caller. Inactive accounts
// pass.
func RequireAuthenticated(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if GetIdentity(r.Context()) == nil {
			response.WriteError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireUser rejects requests without a caller and callers whose account
// has not been activated.
func RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := GetIdentity(r.Context())
		if id == nil {
			response.WriteError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}
		if !id.User.IsActive {
			response.WriteError(w, http.StatusForbidden, "account pending approval")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireAdmin rejects callers that are not active admins. The role is read
// from the user row, not from the token.
func RequireAdmin(next http.Handler) http.Handler {
	return RequireUser(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !GetIdentity(r.Context()).User.IsAdmin() {
			response.WriteError(w, http.StatusForbidden, "admin access required")
			return
		}
		next.ServeHTTP(w, r)
	}))
}
