package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dosada05/league-system/models"
)

const testSecret = "unit-test-secret"

func signToken(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func playerClaims(userID int) jwt.MapClaims {
	return jwt.MapClaims{
		"user_id": userID,
		"role":    string(models.RolePlayer),
		"exp":     time.Now().Add(time.Hour).Unix(),
		"iat":     time.Now().Unix(),
	}
}

func runAuthenticated(token string) (*httptest.ResponseRecorder, *http.Request) {
	var captured *http.Request
	handler := Authenticate(testSecret)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured = r
		w.WriteHeader(http.StatusOK)
	}))

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	handler.ServeHTTP(rec, req)
	return rec, captured
}

func TestAuthenticate_ValidToken(t *testing.T) {
	token := signToken(t, testSecret, playerClaims(7))

	rec, captured := runAuthenticated(token)
	require.Equal(t, http.StatusOK, rec.Code)

	userID, err := GetUserIDFromContext(captured.Context())
	require.NoError(t, err)
	assert.Equal(t, 7, userID)

	role, err := GetUserRoleFromContext(captured.Context())
	require.NoError(t, err)
	assert.Equal(t, models.RolePlayer, role)
}

func TestAuthenticate_Rejections(t *testing.T) {
	tests := []struct {
		name  string
		token string
	}{
		{"missing header", ""},
		{"garbage token", "not-a-jwt"},
		{"wrong secret", signToken(t, "other-secret", playerClaims(7))},
		{"expired", signToken(t, testSecret, jwt.MapClaims{
			"user_id": 7,
			"role":    string(models.RolePlayer),
			"exp":     time.Now().Add(-time.Hour).Unix(),
		})},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, _ := runAuthenticated(tt.token)
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
		})
	}
}

func TestAuthenticate_RejectsNonHMACAlgorithm(t *testing.T) {
	// alg=none tokens must never pass, even with a valid payload.
	token := jwt.NewWithClaims(jwt.SigningMethodNone, playerClaims(7))
	signed, err := token.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	rec, _ := runAuthenticated(signed)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireRole(t *testing.T) {
	adminOnly := func(token string) int {
		handler := Authenticate(testSecret)(RequireRole(models.RoleAdmin)(http.HandlerFunc(
			func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) },
		)))
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		handler.ServeHTTP(rec, req)
		return rec.Code
	}

	adminToken := signToken(t, testSecret, jwt.MapClaims{
		"user_id": 1,
		"role":    string(models.RoleAdmin),
		"exp":     time.Now().Add(time.Hour).Unix(),
	})
	assert.Equal(t, http.StatusOK, adminOnly(adminToken))

	playerToken := signToken(t, testSecret, playerClaims(2))
	assert.Equal(t, http.StatusForbidden, adminOnly(playerToken))
}

func TestGetUserIDFromContext_BadClaims(t *testing.T) {
	tests := []struct {
		name   string
		claims jwt.MapClaims
	}{
		{"missing user_id", jwt.MapClaims{"role": "player"}},
		{"non numeric", jwt.MapClaims{"user_id": "seven"}},
		{"fractional", jwt.MapClaims{"user_id": 7.5}},
		{"non positive", jwt.MapClaims{"user_id": float64(0)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			token := signToken(t, testSecret, tt.claims)
			rec, captured := runAuthenticated(token)
			require.Equal(t, http.StatusOK, rec.Code)

			_, err := GetUserIDFromContext(captured.Context())
			assert.Error(t, err)
		})
	}
}
