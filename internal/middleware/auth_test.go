package middleware_test

import (
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"keycloak-login/internal/middleware"
	"keycloak-login/internal/models"
	"keycloak-login/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testCookie = "keycloak_login.session"

func signedToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return token
}

func rawPayloadToken(t *testing.T, payload any) string {
	t.Helper()
	raw, err := json.Marshal(payload)
	require.NoError(t, err)
	return "header." + base64.RawURLEncoding.EncodeToString(raw)
}

func newGuardedRouter(t *testing.T, sessions services.SessionService) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	guard := middleware.NewAuthGuard(sessions, testCookie)
	guard.Public("/public")

	router := gin.New()
	router.Use(guard.Handler())

	router.GET("/public", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "public"})
	})
	router.GET("/protected", func(c *gin.Context) {
		userID, ok := middleware.CurrentUserID(c)
		if !ok {
			c.JSON(http.StatusOK, gin.H{"user_id": nil})
			return
		}
		c.JSON(http.StatusOK, gin.H{"user_id": userID})
	})

	return router
}

func TestAuthGuard_BearerToken(t *testing.T) {
	sessions := services.NewSessionService(time.Minute)
	defer sessions.Close()
	router := newGuardedRouter(t, sessions)

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+signedToken(t, jwt.MapClaims{"sub": "user-42"}))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"user_id":"user-42"`)
}

func TestAuthGuard_TwoSegmentBearerToken(t *testing.T) {
	sessions := services.NewSessionService(time.Minute)
	defer sessions.Close()
	router := newGuardedRouter(t, sessions)

	// Токен без підпису: двох сегментів достатньо для структурного декодування
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+rawPayloadToken(t, map[string]any{"sub": "user-7"}))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"user_id":"user-7"`)
}

func TestAuthGuard_NoCredentials(t *testing.T) {
	sessions := services.NewSessionService(time.Minute)
	defer sessions.Close()
	router := newGuardedRouter(t, sessions)

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "unauthorized")
}

func TestAuthGuard_MalformedToken(t *testing.T) {
	sessions := services.NewSessionService(time.Minute)
	defer sessions.Close()
	router := newGuardedRouter(t, sessions)

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthGuard_NullPayloadToken(t *testing.T) {
	sessions := services.NewSessionService(time.Minute)
	defer sessions.Close()
	router := newGuardedRouter(t, sessions)

	// Payload "null" декодується, але не є JSON-об'єктом: строга політика
	// відхиляє такий токен
	token := "header." + base64.RawURLEncoding.EncodeToString([]byte(`null`))
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthGuard_SessionFallback(t *testing.T) {
	sessions := services.NewSessionService(time.Minute)
	defer sessions.Close()
	router := newGuardedRouter(t, sessions)

	sessionID := services.NewSessionID()
	require.NoError(t, sessions.SetTokens(sessionID, &models.Token{
		AccessToken: signedToken(t, jwt.MapClaims{"sub": "session-user"}),
	}))

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.AddCookie(&http.Cookie{Name: testCookie, Value: sessionID})
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"user_id":"session-user"`)
}

func TestAuthGuard_SessionFallsBackToIDToken(t *testing.T) {
	sessions := services.NewSessionService(time.Minute)
	defer sessions.Close()
	router := newGuardedRouter(t, sessions)

	sessionID := services.NewSessionID()
	require.NoError(t, sessions.SetTokens(sessionID, &models.Token{
		IDToken: signedToken(t, jwt.MapClaims{"sub": "id-token-user"}),
	}))

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.AddCookie(&http.Cookie{Name: testCookie, Value: sessionID})
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"user_id":"id-token-user"`)
}

func TestAuthGuard_NoUsableSubject(t *testing.T) {
	sessions := services.NewSessionService(time.Minute)
	defer sessions.Close()
	router := newGuardedRouter(t, sessions)

	// Токен декодується, але claims без sub/user_id: запит проходить
	// без прикріпленої identity
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+rawPayloadToken(t, map[string]any{"aud": "account"}))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"user_id":null`)
}

func TestAuthGuard_PublicRoute(t *testing.T) {
	sessions := services.NewSessionService(time.Minute)
	defer sessions.Close()
	router := newGuardedRouter(t, sessions)

	req := httptest.NewRequest(http.MethodGet, "/public", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAuthGuard_UnmatchedRoute(t *testing.T) {
	sessions := services.NewSessionService(time.Minute)
	defer sessions.Close()
	router := newGuardedRouter(t, sessions)

	req := httptest.NewRequest(http.MethodGet, "/nonexistent", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	// Незматчені маршрути лишаються 404, а не 401
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAuthGuard_UnknownSessionCookie(t *testing.T) {
	sessions := services.NewSessionService(time.Minute)
	defer sessions.Close()
	router := newGuardedRouter(t, sessions)

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.AddCookie(&http.Cookie{Name: testCookie, Value: "sess_unknown"})
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
