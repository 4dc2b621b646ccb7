package handlers

import (
	"errors"
	"net/http"
	"net/url"
	"strconv"

	"keycloak-login/internal/models"
	"keycloak-login/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// AuthHandler містить handlers для Keycloak authentication flow
type AuthHandler struct {
	keycloak           services.KeycloakService
	sessions           services.SessionService
	users              services.UserService // nil коли провізія вимкнена
	callbackURL        string
	sessionCookie      string
	sessionMaxAge      int
	postLoginRedirect  string
	postLogoutRedirect string
}

// NewAuthHandler створює новий AuthHandler
func NewAuthHandler(keycloak services.KeycloakService, sessions services.SessionService, users services.UserService, callbackURL, sessionCookie string, sessionMaxAge int, postLoginRedirect, postLogoutRedirect string) *AuthHandler {
	return &AuthHandler{
		keycloak:           keycloak,
		sessions:           sessions,
		users:              users,
		callbackURL:        callbackURL,
		sessionCookie:      sessionCookie,
		sessionMaxAge:      sessionMaxAge,
		postLoginRedirect:  postLoginRedirect,
		postLogoutRedirect: postLogoutRedirect,
	}
}

// Login ініціює Authorization Code Flow редіректом на Keycloak
// @Summary Login
// @Description Редіректить браузер на сторінку авторизації Keycloak
// @Tags auth
// @Success 302
// @Router /auth/login [get]
func (h *AuthHandler) Login(c *gin.Context) {
	logrus.Info("Keycloak login request")

	redirectURI := h.redirectURI(c)
	authURL := h.keycloak.AuthURL(redirectURI)

	logrus.WithField("redirect_uri", redirectURI).Info("Redirecting to Keycloak authorization endpoint")
	c.Redirect(http.StatusFound, authURL)
}

// Callback обробляє повернення від Keycloak (Authorization Code Flow)
// @Summary Callback
// @Description Обмінює authorization code на токени і зберігає їх у сесії
// @Tags auth
// @Param code query string true "Authorization Code"
// @Success 302
// @Router /auth/callback [get]
func (h *AuthHandler) Callback(c *gin.Context) {
	logrus.Info("Keycloak authorization code callback")

	// code має бути рівно одним рядковим значенням query
	codes := c.Request.URL.Query()["code"]
	if len(codes) != 1 || codes[0] == "" {
		logrus.WithError(services.ErrMissingCode).Warn("Callback without usable code parameter")
		h.redirectError(c, http.StatusBadRequest, "Missing or invalid code")
		return
	}
	code := codes[0]

	// redirect_uri обчислюється так само, як у Login
	redirectURI := h.redirectURI(c)

	tokens, err := h.keycloak.ExchangeCode(c.Request.Context(), code, redirectURI)
	if err != nil {
		var exchangeErr *services.TokenExchangeError
		if errors.As(err, &exchangeErr) && exchangeErr.RawResponse != "" {
			logrus.WithError(err).WithField("response", exchangeErr.RawResponse).Error("Token exchange failed")
		} else {
			logrus.WithError(err).Error("Token exchange failed")
		}
		h.redirectError(c, http.StatusBadGateway, "Failed to exchange authorization code")
		return
	}

	sessionID, _ := c.Cookie(h.sessionCookie)
	if sessionID == "" {
		sessionID = services.NewSessionID()
	}

	if err := h.sessions.SetTokens(sessionID, tokens); err != nil {
		logrus.WithError(err).Error("Failed to write tokens into session")
		h.redirectError(c, http.StatusInternalServerError, "Failed to persist session")
		return
	}

	c.SetCookie(h.sessionCookie, sessionID, h.sessionMaxAge, "/", "", c.Request.TLS != nil, true)

	h.provisionUser(tokens)

	logrus.WithField("session_id", sessionID).Info("Keycloak callback processed successfully")
	c.Redirect(http.StatusFound, h.postLoginRedirect)
}

// Logout очищає сесію і завершує сесію на стороні Keycloak
// @Summary Logout
// @Description Очищає токени сесії та викликає end session endpoint Keycloak
// @Tags auth
// @Success 200 {object} map[string]interface{}
// @Failure 502 {object} map[string]interface{}
// @Router /auth/logout [get]
func (h *AuthHandler) Logout(c *gin.Context) {
	logrus.Info("Keycloak logout request")

	sessionID, _ := c.Cookie(h.sessionCookie)

	var idToken string
	if bundle := h.sessions.Tokens(sessionID); bundle != nil {
		idToken = bundle.IDToken
	}

	// Слот очищається безумовно, навіть якщо токенів не було
	if sessionID != "" {
		if err := h.sessions.SetTokens(sessionID, nil); err != nil {
			logrus.WithError(err).Warn("Failed to clear session token slot")
		}
	}

	// Best-effort очищення cookie; збій не перериває logout
	c.SetCookie(h.sessionCookie, "", -1, "/", "", c.Request.TLS != nil, true)

	if err := h.keycloak.EndSession(c.Request.Context(), idToken, h.postLogoutRedirect); err != nil {
		logrus.WithError(err).Error("Keycloak end session failed")
		c.JSON(http.StatusBadGateway, gin.H{
			"error":             "end_session_failed",
			"error_description": "Identity provider logout failed",
		})
		return
	}

	logrus.Info("User logged out successfully")
	c.JSON(http.StatusOK, gin.H{
		"message": "Logout successful",
	})
}

// ErrorPage рендерить помилку автентифікації з query параметрів
// @Summary Error
// @Description Рендерить code та message помилки автентифікації
// @Tags auth
// @Param code query int false "HTTP статус" default(500)
// @Param message query string false "Повідомлення"
// @Success 200 {object} models.ErrorResponse
// @Router /auth/error [get]
func (h *AuthHandler) ErrorPage(c *gin.Context) {
	code, err := strconv.Atoi(c.DefaultQuery("code", "500"))
	if err != nil || code < http.StatusContinue || code > 599 {
		code = http.StatusInternalServerError
	}

	message := c.DefaultQuery("message", "Authentication error occurred")

	c.JSON(code, models.ErrorResponse{Message: message})
}

// redirectURI обчислює адресу callback з вхідного запиту, з fallback на
// значення з конфігурації
func (h *AuthHandler) redirectURI(c *gin.Context) string {
	host := c.Request.Host
	if host == "" {
		return h.callbackURL
	}

	scheme := "http"
	if c.Request.TLS != nil {
		scheme = "https"
	}

	return scheme + "://" + host + "/auth/callback"
}

// redirectError перенаправляє на error маршрут з machine-readable кодом
// та загальним повідомленням. Сирі відповіді провайдера сюди не потрапляють.
func (h *AuthHandler) redirectError(c *gin.Context, code int, message string) {
	params := url.Values{}
	params.Set("code", strconv.Itoa(code))
	params.Set("message", message)

	c.Redirect(http.StatusFound, "/auth/error?"+params.Encode())
}

// provisionUser створює/оновлює локального користувача з claims id_token.
// Провізія best-effort: її збій не ламає login flow.
func (h *AuthHandler) provisionUser(tokens *models.Token) {
	if h.users == nil || tokens.IDToken == "" {
		return
	}

	claims, ok := services.DecodeClaims(tokens.IDToken)
	if !ok {
		return
	}

	if _, err := h.users.CreateOrUpdateFromClaims(claims); err != nil {
		logrus.WithError(err).Warn("Failed to provision user from id_token claims")
	}
}
