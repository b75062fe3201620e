package middleware

import (
	"context"
	"errors"
	"net/http"

	"biteme-be/internal/auth"
	"biteme-be/internal/logger"
	"biteme-be/internal/user"
	"biteme-be/internal/utils"

	"go.uber.org/zap"
)

// Authenticator resolves an access token to the stored user.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*user.User, error)
}

// Auth attaches the caller to the request context. Requests without a token
// pass through anonymously; a token that does not resolve is refused.
func Auth(authn Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := auth.ExtractAccessToken(r)
			if token == "" {
				next.ServeHTTP(w, r)
				return
			}

			u, err := authn.Authenticate(r.Context(), token)
			switch {
			case errors.Is(err, auth.ErrInvalidToken):
				utils.WriteJSONError(w, "could not validate credentials", http.StatusUnauthorized)
				return
			case errors.Is(err, user.ErrInactiveUser):
				utils.WriteJSONError(w, "inactive user", http.StatusUnauthorized)
				return
			case err != nil:
				logger.FromCtx(r.Context()).Error("failed to authenticate request",
					zap.String("layer", "middleware"),
					zap.Error(err),
				)
				utils.WriteJSONError(w, "internal server error", http.StatusInternalServerError)
				return
			}

			role := utils.RoleUser
			if u.IsAdmin {
				role = utils.RoleAdmin
			}
			ctx := utils.SetUserContext(r.Context(), u.ID, u.Email, role)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := utils.GetUserIDFromContext(r.Context()); !ok {
			w.Header().Set("WWW-Authenticate", "Bearer")
			utils.WriteJSONError(w, "not authenticated", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireAdmin implies RequireAuth.
func RequireAdmin(next http.Handler) http.Handler {
	return RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !utils.IsAdmin(r.Context()) {
			utils.WriteJSONError(w, "admin privileges required", http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	}))
}
