package middleware

import (
	"context"
	"net/http"
	"strings"

	jwt "github.com/golang-jwt/jwt/v5"

	"greenlens/internal/models"
)

// UserLoader resolves the token subject to a user document.
type UserLoader interface {
	FindByEmail(ctx context.Context, email string) (*models.User, error)
}

type AuthMiddleware struct {
	jwtSecret []byte
	users     UserLoader
}

func NewAuthMiddleware(secret []byte, users UserLoader) *AuthMiddleware {
	return &AuthMiddleware{jwtSecret: secret, users: users}
}

// RequireAuth rejects requests without a valid bearer token. On success the
// resolved user is stored in the request context under "user".
func (m *AuthMiddleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := m.resolve(r)
		if !ok {
			http.Error(w, "could not validate credentials", http.StatusUnauthorized)
			return
		}
		ctx := context.WithValue(r.Context(), "user", user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// OptionalAuth resolves the user when a valid token is present and leaves
// the context empty otherwise. Routes behind it serve anonymous callers.
func (m *AuthMiddleware) OptionalAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if user, ok := m.resolve(r); ok {
			r = r.WithContext(context.WithValue(r.Context(), "user", user))
		}
		next.ServeHTTP(w, r)
	})
}

func (m *AuthMiddleware) resolve(r *http.Request) (*models.User, bool) {
	authz := r.Header.Get("Authorization")
	if !strings.HasPrefix(authz, "Bearer ") {
		return nil, false
	}
	tokenStr := strings.TrimPrefix(authz, "Bearer ")

	token, err := jwt.Parse(tokenStr, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return m.jwtSecret, nil
	})
	if err != nil || !token.Valid {
		return nil, false
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, false
	}
	email, ok := claims["sub"].(string)
	if !ok || email == "" {
		return nil, false
	}

	user, err := m.users.FindByEmail(r.Context(), email)
	if err != nil {
		return nil, false
	}
	return user, true
}

// CurrentUser pulls the authenticated user out of the request context, or
// nil when the route allows anonymous access.
func CurrentUser(r *http.Request) *models.User {
	user, _ := r.Context().Value("user").(*models.User)
	return user
}
