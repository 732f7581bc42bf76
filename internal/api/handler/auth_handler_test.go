package handler_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"loan-feature-engine/internal/api/handler"
	"loan-feature-engine/internal/api/handler/dto"
	"loan-feature-engine/internal/config"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateBearerToken(t *testing.T) {
	cfg := config.AuthConfig{Enabled: true, JWTSecret: "testsecret"}

	t.Run("Success", func(t *testing.T) {
		h := handler.NewAuthHandler(cfg, testLogger())

		rec := httptest.NewRecorder()
		h.GenerateBearerToken(rec, newRequest(http.MethodPost, "/auth/token", []byte(`{"username":"analyst"}`), nil))

		require.Equal(t, http.StatusOK, rec.Code)
		var resp dto.TokenResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		require.True(t, strings.HasPrefix(resp.Token, "Bearer "))

		claims := jwt.MapClaims{}
		_, err := jwt.ParseWithClaims(strings.TrimPrefix(resp.Token, "Bearer "), claims, func(*jwt.Token) (any, error) {
			return []byte("testsecret"), nil
		})
		require.NoError(t, err)
		assert.Equal(t, "analyst", claims["username"])
		assert.NotZero(t, resp.ExpiresAt)
	})

	t.Run("Error - Missing Username", func(t *testing.T) {
		h := handler.NewAuthHandler(cfg, testLogger())

		rec := httptest.NewRecorder()
		h.GenerateBearerToken(rec, newRequest(http.MethodPost, "/auth/token", []byte(`{}`), nil))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("Error - No Body", func(t *testing.T) {
		h := handler.NewAuthHandler(cfg, testLogger())

		rec := httptest.NewRecorder()
		h.GenerateBearerToken(rec, newRequest(http.MethodPost, "/auth/token", nil, nil))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("Error - No Secret", func(t *testing.T) {
		h := handler.NewAuthHandler(config.AuthConfig{}, testLogger())

		rec := httptest.NewRecorder()
		h.GenerateBearerToken(rec, newRequest(http.MethodPost, "/auth/token", []byte(`{"username":"analyst"}`), nil))

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
	})
}
