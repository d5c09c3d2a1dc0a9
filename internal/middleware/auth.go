package middleware

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/bankcards/card-service/internal/config"
	"github.com/bankcards/card-service/internal/models"
	"github.com/bankcards/card-service/internal/service"
	"github.com/golang-jwt/jwt/v5"
)

type contextKey struct{}

var identityKey contextKey

// UserFinder resolves token subjects against the store.
type UserFinder interface {
	FindUserByID(ctx context.Context, id int64) (*models.User, error)
}

// AuthMiddleware validates the Bearer token, resolves the subject against
// the store and injects the caller's identity into the request context.
// The user is loaded on every request: disabling an account revokes access
// immediately, not when the token expires, and the role always reflects
// the stored record rather than the claim.
func AuthMiddleware(cfg *config.Config, users UserFinder) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if !strings.HasPrefix(header, "Bearer ") {
				http.Error(w, "missing or malformed token", http.StatusUnauthorized)
				return
			}
			tokenString := strings.TrimPrefix(header, "Bearer ")

			claims := &service.Claims{}
			token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
				return []byte(cfg.JWTSecret), nil
			}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
			if err != nil || !token.Valid {
				http.Error(w, "invalid token", http.StatusUnauthorized)
				return
			}

			userID, err := strconv.ParseInt(claims.Subject, 10, 64)
			if err != nil {
				http.Error(w, "invalid token", http.StatusUnauthorized)
				return
			}

			user, err := users.FindUserByID(r.Context(), userID)
			if err != nil || !user.Enabled {
				http.Error(w, "invalid token", http.StatusUnauthorized)
				return
			}

			identity := models.Identity{UserID: user.ID, Role: user.Role}
			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), identity)))
		})
	}
}

// WithIdentity returns a context carrying the identity.
func WithIdentity(ctx context.Context, identity models.Identity) context.Context {
	return context.WithValue(ctx, identityKey, identity)
}

// IdentityFrom extracts the authenticated identity from the context.
func IdentityFrom(ctx context.Context) (models.Identity, bool) {
	identity, ok := ctx.Value(identityKey).(models.Identity)
	return identity, ok
}
