package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func signTestToken(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return token
}

func TestAuthenticate(t *testing.T) {
	var gotOlympiadID int
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, err := OlympiadIDFromContext(r.Context())
		require.NoError(t, err)
		gotOlympiadID = id
		w.WriteHeader(http.StatusOK)
	})
	handler := Authenticate(testSecret)(next)

	t.Run("passes a valid token and exposes the scope", func(t *testing.T) {
		token := signTestToken(t, testSecret, jwt.MapClaims{
			"olympiad_id": 42,
			"exp":         time.Now().Add(time.Hour).Unix(),
		})

		req := httptest.NewRequest(http.MethodPut, "/matches/1", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, 42, gotOlympiadID)
	})

	t.Run("rejects a missing header", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPut, "/matches/1", nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("rejects a token signed with another secret", func(t *testing.T) {
		token := signTestToken(t, "other-secret", jwt.MapClaims{
			"olympiad_id": 42,
			"exp":         time.Now().Add(time.Hour).Unix(),
		})

		req := httptest.NewRequest(http.MethodPut, "/matches/1", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("rejects an expired token", func(t *testing.T) {
		token := signTestToken(t, testSecret, jwt.MapClaims{
			"olympiad_id": 42,
			"exp":         time.Now().Add(-time.Hour).Unix(),
		})

		req := httptest.NewRequest(http.MethodPut, "/matches/1", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("rejects a token without olympiad scope", func(t *testing.T) {
		token := signTestToken(t, testSecret, jwt.MapClaims{
			"exp": time.Now().Add(time.Hour).Unix(),
		})

		req := httptest.NewRequest(http.MethodPut, "/matches/1", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}
