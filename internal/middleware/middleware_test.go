package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	"github.com/dmateos/courtside/internal/auth"
)

const testSecret = "middleware-test-secret"

func signToken(t *testing.T, userID int64) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"id": userID}).
		SignedString([]byte(testSecret))
	require.NoError(t, err)
	return token
}

func TestAuthenticate(t *testing.T) {
	verifier := auth.NewVerifier(testSecret)

	var gotUserID int64
	handler := Authenticate(verifier)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUserID = UserID(r)
	}))

	t.Run("valid bearer token", func(t *testing.T) {
		r := httptest.NewRequest("GET", "/api/notifications", nil)
		r.Header.Set("Authorization", "Bearer "+signToken(t, 42))
		w := httptest.NewRecorder()

		handler.ServeHTTP(w, r)
		require.Equal(t, http.StatusOK, w.Code)
		require.Equal(t, int64(42), gotUserID)
	})

	t.Run("missing header", func(t *testing.T) {
		r := httptest.NewRequest("GET", "/api/notifications", nil)
		w := httptest.NewRecorder()

		handler.ServeHTTP(w, r)
		require.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("wrong scheme", func(t *testing.T) {
		r := httptest.NewRequest("GET", "/api/notifications", nil)
		r.Header.Set("Authorization", "Basic dXNlcjpwYXNz")
		w := httptest.NewRecorder()

		handler.ServeHTTP(w, r)
		require.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("tampered token", func(t *testing.T) {
		r := httptest.NewRequest("GET", "/api/notifications", nil)
		r.Header.Set("Authorization", "Bearer "+signToken(t, 42)+"x")
		w := httptest.NewRecorder()

		handler.ServeHTTP(w, r)
		require.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestUserIDWithoutMiddleware(t *testing.T) {
	r := httptest.NewRequest("GET", "/", nil)
	require.Zero(t, UserID(r))
}
