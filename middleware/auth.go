package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v4"
)

type contextKey string

const olympiadIDKey contextKey = "olympiad_id"

var ErrNoOlympiadInContext = errors.New("olympiad id not found in request context")

// Authenticate verifies the Bearer token issued by the verify-pin
// endpoint and stores the olympiad scope in the request context.
func Authenticate(jwtSecret string) func(http.Handler) http.Handler {
	secret := []byte(jwtSecret)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if !strings.HasPrefix(header, "Bearer ") {
				http.Error(w, "missing or malformed Authorization header", http.StatusUnauthorized)
				return
			}
			tokenStr := strings.TrimPrefix(header, "Bearer ")

			token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (interface{}, error) {
				if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, errors.New("unexpected signing method")
				}
				return secret, nil
			})
			if err != nil || !token.Valid {
				http.Error(w, "invalid or expired token", http.StatusUnauthorized)
				return
			}

			claims, ok := token.Claims.(jwt.MapClaims)
			if !ok {
				http.Error(w, "invalid token claims", http.StatusUnauthorized)
				return
			}
			rawID, ok := claims["olympiad_id"].(float64)
			if !ok || rawID < 1 {
				http.Error(w, "token is missing olympiad scope", http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), olympiadIDKey, int(rawID))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func OlympiadIDFromContext(ctx context.Context) (int, error) {
	id, ok := ctx.Value(olympiadIDKey).(int)
	if !ok {
		return 0, ErrNoOlympiadInContext
	}
	return id, nil
}
