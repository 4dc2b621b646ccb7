package middleware

import (
	"net/http"
	"strings"

	"keycloak-login/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

const contextUserIDKey = "user_id"

// AuthGuard перевіряє автентифікацію кожного запиту перед захищеними
// handlers. Маршрути, позначені як публічні при реєстрації, пропускаються
// без жодної перевірки.
type AuthGuard struct {
	sessions      services.SessionService
	sessionCookie string
	public        map[string]bool
}

// NewAuthGuard створює новий guard поверх сесійного сховища токенів
func NewAuthGuard(sessions services.SessionService, sessionCookie string) *AuthGuard {
	return &AuthGuard{
		sessions:      sessions,
		sessionCookie: sessionCookie,
		public:        make(map[string]bool),
	}
}

// Public позначає зареєстровані маршрути як публічні. Викликається під
// час реєстрації routes, до старту сервера.
func (g *AuthGuard) Public(routes ...string) *AuthGuard {
	for _, route := range routes {
		g.public[route] = true
	}
	return g
}

// Handler повертає gin middleware з перевіркою автентифікації
func (g *AuthGuard) Handler() gin.HandlerFunc {
	return gin.HandlerFunc(func(c *gin.Context) {
		route := c.FullPath()

		// Незматчені маршрути віддаємо роутеру (404), публічні пропускаємо
		if route == "" || g.public[route] {
			c.Next()
			return
		}

		userID, err := g.resolveIdentity(c)
		if err != nil {
			logrus.WithFields(logrus.Fields{
				"path": c.Request.URL.Path,
			}).Warn("Rejected unauthenticated request")
			c.JSON(http.StatusUnauthorized, gin.H{
				"error":             "unauthorized",
				"error_description": "Unauthorized",
			})
			c.Abort()
			return
		}

		if userID != "" {
			c.Set(contextUserIDKey, userID)
			logrus.WithFields(logrus.Fields{
				"user_id": userID,
				"path":    c.Request.URL.Path,
			}).Debug("User authenticated successfully")
		}

		c.Next()
	})
}

// resolveIdentity вибирає токен з Authorization header або сесії, декодує
// claims і повертає ідентифікатор користувача. Порожній ідентифікатор з
// nil помилкою означає: токен структурно валідний, але claims не містять
// придатного sub/user_id — запит проходить без identity.
func (g *AuthGuard) resolveIdentity(c *gin.Context) (userID string, err error) {
	// Будь-який неочікуваний збій guard-а стає рівно 401, ніколи 500
	defer func() {
		if r := recover(); r != nil {
			logrus.WithField("panic", r).Error("Auth guard recovered from panic")
			userID = ""
			err = services.ErrUnauthorized
		}
	}()

	token := c.GetHeader("Authorization")

	if token == "" {
		// Fallback на токени з сесії: access_token, потім id_token
		sessionID, _ := c.Cookie(g.sessionCookie)
		if bundle := g.sessions.Tokens(sessionID); bundle != nil {
			if bundle.AccessToken != "" {
				token = bundle.AccessToken
			} else {
				token = bundle.IDToken
			}
		}
	}

	if token == "" {
		return "", services.ErrUnauthorized
	}

	token = strings.TrimPrefix(token, "Bearer ")

	// Строга політика: присутній, але недекодовний токен відхиляється
	claims, ok := services.DecodeClaims(token)
	if !ok {
		return "", services.ErrUnauthorized
	}

	id, _ := services.SubjectID(claims)
	return id, nil
}

// CurrentUserID витягує ідентифікатор поточного користувача з контексту
func CurrentUserID(c *gin.Context) (string, bool) {
	userID, exists := c.Get(contextUserIDKey)
	if !exists {
		return "", false
	}

	userIDStr, ok := userID.(string)
	return userIDStr, ok
}
