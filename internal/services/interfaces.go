package services

import (
	"context"
	"time"

	"keycloak-login/internal/models"

	"github.com/golang-jwt/jwt/v5"
)

// KeycloakService інтерфейс для роботи з зовнішнім Keycloak провайдером
type KeycloakService interface {
	ExchangeCode(ctx context.Context, code, redirectURI string) (*models.Token, error)
	EndSession(ctx context.Context, idTokenHint, postLogoutRedirectURI string) error
	AuthURL(redirectURI string) string
}

// SessionService інтерфейс для зберігання токенів у сесії користувача
type SessionService interface {
	Tokens(sessionID string) *models.Token
	SetTokens(sessionID string, tokens *models.Token) error
	Close()
}

// UserService інтерфейс для провізії локальних користувачів з claims
type UserService interface {
	CreateOrUpdateFromClaims(claims jwt.MapClaims) (*User, error)
	GetUserBySubject(subject string) (*User, error)
}

// User представляє запровіженого користувача в базі даних
type User struct {
	ID        string    `gorm:"primaryKey;size:255" json:"id"`
	Subject   string    `gorm:"uniqueIndex;not null;size:255" json:"sub"`
	Email     string    `gorm:"size:255" json:"email,omitempty"`
	Name      string    `gorm:"size:255" json:"name,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
