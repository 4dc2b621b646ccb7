package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"keycloak-login/internal/models"

	"github.com/hashicorp/go-cleanhttp"
	"github.com/sirupsen/logrus"
)

// keycloakService реалізація KeycloakService
type keycloakService struct {
	host         string
	realm        string
	clientID     string
	clientSecret string
	httpClient   *http.Client
}

// NewKeycloakService створює новий Keycloak сервіс. Всі вихідні запити до
// провайдера обмежені таймаутом timeout.
func NewKeycloakService(host, realm, clientID, clientSecret string, timeout time.Duration) KeycloakService {
	client := cleanhttp.DefaultPooledClient()
	client.Timeout = timeout

	return &keycloakService{
		host:         strings.TrimRight(host, "/"),
		realm:        realm,
		clientID:     clientID,
		clientSecret: clientSecret,
		httpClient:   client,
	}
}

// AuthURL формує URL авторизації для редіректу браузера користувача
func (k *keycloakService) AuthURL(redirectURI string) string {
	params := url.Values{}
	params.Set("client_id", k.clientID)
	params.Set("redirect_uri", redirectURI)
	params.Set("response_type", "code")
	params.Set("scope", "openid profile email")

	return k.host + "/auth?" + params.Encode()
}

// ExchangeCode обмінює authorization code на токени через token endpoint
func (k *keycloakService) ExchangeCode(ctx context.Context, code, redirectURI string) (*models.Token, error) {
	logrus.WithFields(logrus.Fields{
		"code":         truncate(code, 10),
		"redirect_uri": redirectURI,
	}).Info("Exchanging authorization code for tokens")

	data := url.Values{}
	data.Set("grant_type", "authorization_code")
	data.Set("client_id", k.clientID)
	data.Set("client_secret", k.clientSecret)
	data.Set("code", code)
	data.Set("redirect_uri", redirectURI)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, k.host+"/token", strings.NewReader(data.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to create token request: %w", err)
	}

	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := k.httpClient.Do(req)
	if err != nil {
		// таймаут трактуємо так само, як будь-яку транспортну помилку
		return nil, &TokenExchangeError{Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TokenExchangeError{StatusCode: resp.StatusCode, Err: err}
	}

	var tokenResp models.TokenResponse
	if err := json.Unmarshal(body, &tokenResp); err != nil {
		logrus.WithFields(logrus.Fields{
			"status_code": resp.StatusCode,
			"response":    string(body),
		}).Error("Failed to parse token response JSON")
		return nil, &TokenExchangeError{StatusCode: resp.StatusCode, RawResponse: string(body), Err: err}
	}

	// Відсутність access_token означає що Keycloak відмовив
	if tokenResp.AccessToken == "" {
		logrus.WithFields(logrus.Fields{
			"status_code":       resp.StatusCode,
			"error":             tokenResp.Error,
			"error_description": tokenResp.ErrorDescription,
		}).Error("Token exchange response has no access_token")
		return nil, &TokenExchangeError{StatusCode: resp.StatusCode, RawResponse: string(body)}
	}

	logrus.WithFields(logrus.Fields{
		"token_type":    tokenResp.TokenType,
		"expires_in":    tokenResp.ExpiresIn,
		"session_state": tokenResp.SessionState,
	}).Info("Successfully received tokens from Keycloak")

	return &models.Token{
		AccessToken:  tokenResp.AccessToken,
		RefreshToken: tokenResp.RefreshToken,
		IDToken:      tokenResp.IDToken,
	}, nil
}

// EndSession викликає logout endpoint провайдера і чекає на відповідь.
// Політика: server-to-server виклик, а не редірект браузера; успіхом
// вважається статус 2xx або 3xx.
func (k *keycloakService) EndSession(ctx context.Context, idTokenHint, postLogoutRedirectURI string) error {
	params := url.Values{}
	params.Set("client_id", k.clientID)
	params.Set("id_token_hint", idTokenHint)
	if postLogoutRedirectURI != "" {
		params.Set("post_logout_redirect_uri", postLogoutRedirectURI)
	}

	endSessionURL := k.host + "/logout?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endSessionURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create end session request: %w", err)
	}

	resp, err := k.httpClient.Do(req)
	if err != nil {
		return &EndSessionError{Err: err}
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode >= http.StatusBadRequest {
		logrus.WithField("status_code", resp.StatusCode).Error("Keycloak end session returned error")
		return &EndSessionError{StatusCode: resp.StatusCode}
	}

	logrus.WithField("status_code", resp.StatusCode).Info("Keycloak session ended")
	return nil
}

// truncate обрізає значення для безпечного логування
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
