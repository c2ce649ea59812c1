package httpserver

import (
	"context"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"unidrive/internal/server/models"
)

// contextKey is an unexported type for context keys in this package.
type contextKey string

const (
	userKey  contextKey = "user"
	tokenKey contextKey = "token"
)

// userFromContext returns the authenticated user injected by requireAuth.
func userFromContext(ctx context.Context) (*models.User, bool) {
	u, ok := ctx.Value(userKey).(*models.User)
	return u, ok
}

// tokenFromContext returns the raw bearer token. It doubles as the session
// token for event subscriptions: a client reconnecting with the same token
// replaces its previous emitter instead of leaking a session.
func tokenFromContext(ctx context.Context) (string, bool) {
	t, ok := ctx.Value(tokenKey).(string)
	return t, ok
}

// requireAuth validates the Bearer JWT issued by the upstream identity
// service and injects the resolved user into the request context. Tokens
// are only ever consumed here; the engine never issues them.
func (s *Server) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			respondUnauthorized(w, "authorization header required")
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			respondUnauthorized(w, "invalid authorization header format")
			return
		}

		token, err := jwt.Parse(parts[1], func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrSignatureInvalid
			}
			return []byte(s.cfg.SecretKey), nil
		})
		if err != nil || !token.Valid {
			respondUnauthorized(w, "invalid or expired token")
			return
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			respondUnauthorized(w, "invalid token claims")
			return
		}

		sub, _ := claims["sub"].(string)
		username, _ := claims["username"].(string)
		email, _ := claims["email"].(string)
		if sub == "" || username == "" {
			respondUnauthorized(w, "invalid token claims")
			return
		}

		user := &models.User{ID: sub, Username: username, Email: email}
		if err := s.svc.SyncIdentity(r.Context(), user); err != nil {
			s.logger.Warn(r.Context(), "identity sync failed", "user", user.ID, "err", err)
		}

		ctx := context.WithValue(r.Context(), userKey, user)
		ctx = context.WithValue(ctx, tokenKey, parts[1])
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
