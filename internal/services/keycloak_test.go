package services_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"keycloak-login/internal/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthURL(t *testing.T) {
	keycloak := services.NewKeycloakService("https://idp.test", "r", "c", "s", time.Second)

	got := keycloak.AuthURL("https://app.test/auth/callback")

	assert.Equal(t,
		"https://idp.test/auth?client_id=c&redirect_uri=https%3A%2F%2Fapp.test%2Fauth%2Fcallback&response_type=code&scope=openid+profile+email",
		got)
}

func TestAuthURL_NoStateOrCode(t *testing.T) {
	keycloak := services.NewKeycloakService("https://idp.test", "r", "c", "s", time.Second)

	got := keycloak.AuthURL("https://app.test/auth/callback")

	assert.NotContains(t, got, "state=")
	assert.NotContains(t, got, "code=")
}

func TestExchangeCode_Success(t *testing.T) {
	var gotForm map[string]string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/token", r.URL.Path)
		require.NoError(t, r.ParseForm())

		gotForm = map[string]string{
			"grant_type":    r.PostFormValue("grant_type"),
			"client_id":     r.PostFormValue("client_id"),
			"client_secret": r.PostFormValue("client_secret"),
			"code":          r.PostFormValue("code"),
			"redirect_uri":  r.PostFormValue("redirect_uri"),
		}

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"access_token":"at","refresh_token":"rt","id_token":"it","token_type":"Bearer","expires_in":300}`))
	}))
	defer srv.Close()

	keycloak := services.NewKeycloakService(srv.URL, "realm", "client", "secret", time.Second)

	tokens, err := keycloak.ExchangeCode(context.Background(), "the-code", "https://app.test/auth/callback")
	require.NoError(t, err)

	assert.Equal(t, "at", tokens.AccessToken)
	assert.Equal(t, "rt", tokens.RefreshToken)
	assert.Equal(t, "it", tokens.IDToken)

	assert.Equal(t, map[string]string{
		"grant_type":    "authorization_code",
		"client_id":     "client",
		"client_secret": "secret",
		"code":          "the-code",
		"redirect_uri":  "https://app.test/auth/callback",
	}, gotForm)
}

func TestExchangeCode_MissingAccessToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":"invalid_grant","error_description":"Code not valid"}`))
	}))
	defer srv.Close()

	keycloak := services.NewKeycloakService(srv.URL, "realm", "client", "secret", time.Second)

	tokens, err := keycloak.ExchangeCode(context.Background(), "bad-code", "https://app.test/auth/callback")
	require.Error(t, err)
	assert.Nil(t, tokens)

	var exchangeErr *services.TokenExchangeError
	require.True(t, errors.As(err, &exchangeErr))
	assert.Equal(t, http.StatusBadRequest, exchangeErr.StatusCode)
	assert.Contains(t, exchangeErr.RawResponse, "invalid_grant")
}

func TestExchangeCode_UnparseableBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html>not json</html>`))
	}))
	defer srv.Close()

	keycloak := services.NewKeycloakService(srv.URL, "realm", "client", "secret", time.Second)

	_, err := keycloak.ExchangeCode(context.Background(), "code", "https://app.test/auth/callback")
	require.Error(t, err)

	var exchangeErr *services.TokenExchangeError
	require.True(t, errors.As(err, &exchangeErr))
	assert.Contains(t, exchangeErr.RawResponse, "not json")
}

func TestExchangeCode_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.Write([]byte(`{"access_token":"at"}`))
	}))
	defer srv.Close()

	keycloak := services.NewKeycloakService(srv.URL, "realm", "client", "secret", 20*time.Millisecond)

	_, err := keycloak.ExchangeCode(context.Background(), "code", "https://app.test/auth/callback")
	require.Error(t, err)

	var exchangeErr *services.TokenExchangeError
	assert.True(t, errors.As(err, &exchangeErr))
}

func TestEndSession_Success(t *testing.T) {
	var gotQuery map[string]string
	var hintPresent bool

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/logout", r.URL.Path)

		_, hintPresent = r.URL.Query()["id_token_hint"]
		gotQuery = map[string]string{
			"client_id":                r.URL.Query().Get("client_id"),
			"id_token_hint":            r.URL.Query().Get("id_token_hint"),
			"post_logout_redirect_uri": r.URL.Query().Get("post_logout_redirect_uri"),
		}

		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	keycloak := services.NewKeycloakService(srv.URL, "realm", "client", "secret", time.Second)

	err := keycloak.EndSession(context.Background(), "the-id-token", "https://app.test/")
	require.NoError(t, err)

	assert.True(t, hintPresent)
	assert.Equal(t, map[string]string{
		"client_id":                "client",
		"id_token_hint":            "the-id-token",
		"post_logout_redirect_uri": "https://app.test/",
	}, gotQuery)
}

func TestEndSession_EmptyHint(t *testing.T) {
	var hintPresent bool

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, hintPresent = r.URL.Query()["id_token_hint"]
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	keycloak := services.NewKeycloakService(srv.URL, "realm", "client", "secret", time.Second)

	// Відсутній id_token рендериться порожнім значенням, без збою
	require.NoError(t, keycloak.EndSession(context.Background(), "", ""))
	assert.True(t, hintPresent)
}

func TestEndSession_ProviderError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	keycloak := services.NewKeycloakService(srv.URL, "realm", "client", "secret", time.Second)

	err := keycloak.EndSession(context.Background(), "hint", "")
	require.Error(t, err)

	var endErr *services.EndSessionError
	require.True(t, errors.As(err, &endErr))
	assert.Equal(t, http.StatusInternalServerError, endErr.StatusCode)
}
