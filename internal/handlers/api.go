package handlers

import (
	"net/http"

	"keycloak-login/internal/middleware"
	"keycloak-login/internal/models"
	"keycloak-login/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// APIHandler містить handlers для захищених API endpoints
type APIHandler struct {
	userService services.UserService // nil коли провізія вимкнена
}

// NewAPIHandler створює новий APIHandler
func NewAPIHandler(userService services.UserService) *APIHandler {
	return &APIHandler{
		userService: userService,
	}
}

// Protected повертає сторінку після успішного логіну
// @Summary Protected landing
// @Description Цільова сторінка після успішного логіну
// @Tags api
// @Produce json
// @Security BearerAuth
// @Success 200 {object} map[string]interface{}
// @Failure 401 {object} map[string]interface{}
// @Router /protected [get]
func (h *APIHandler) Protected(c *gin.Context) {
	userID, _ := middleware.CurrentUserID(c)

	c.JSON(http.StatusOK, gin.H{
		"message": "You are authenticated",
		"user_id": userID,
	})
}

// PublicData повертає публічні дані без автентифікації
// @Summary Public data
// @Description Публічний endpoint, не вимагає токена
// @Tags api
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /api/v1/public [get]
func (h *APIHandler) PublicData(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message": "This endpoint is public",
	})
}

// Me повертає ідентифікатор, прикріплений guard-ом до запиту
// @Summary Current identity
// @Description Повертає ідентифікатор користувача з контексту запиту
// @Tags api
// @Produce json
// @Security BearerAuth
// @Success 200 {object} map[string]interface{}
// @Failure 401 {object} map[string]interface{}
// @Router /api/v1/me [get]
func (h *APIHandler) Me(c *gin.Context) {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		// Токен пройшов guard, але claims не містили придатного sub/user_id
		c.JSON(http.StatusOK, gin.H{
			"user_id": nil,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user_id": userID,
	})
}

// Profile повертає запровіженого користувача з локальної бази
// @Summary User profile
// @Description Повертає локальний профіль запровіженого користувача
// @Tags api
// @Produce json
// @Security BearerAuth
// @Success 200 {object} models.User
// @Failure 404 {object} map[string]interface{}
// @Failure 503 {object} map[string]interface{}
// @Router /api/v1/profile [get]
func (h *APIHandler) Profile(c *gin.Context) {
	if h.userService == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error":             "provisioning_disabled",
			"error_description": "User provisioning requires a database",
		})
		return
	}

	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{
			"error":             "no_identity",
			"error_description": "Request carries no resolved identity",
		})
		return
	}

	user, err := h.userService.GetUserBySubject(userID)
	if err != nil {
		logrus.WithError(err).WithField("sub", userID).Warn("Provisioned user not found")
		c.JSON(http.StatusNotFound, gin.H{
			"error":             "user_not_found",
			"error_description": "No provisioned user for this subject",
		})
		return
	}

	c.JSON(http.StatusOK, models.User{
		ID:       user.ID,
		Subject:  user.Subject,
		Email:    user.Email,
		Name:     user.Name,
		CreateAt: user.CreatedAt,
		UpdateAt: user.UpdatedAt,
	})
}
