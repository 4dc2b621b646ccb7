package services

import (
	"fmt"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// userService реалізація UserService поверх GORM
type userService struct {
	db *gorm.DB
}

// NewUserService створює новий User сервіс
func NewUserService(db *gorm.DB) UserService {
	return &userService{db: db}
}

// CreateOrUpdateFromClaims створює або оновлює локального користувача за
// декодованими claims id_token. Ключем є subject (sub) провайдера.
func (s *userService) CreateOrUpdateFromClaims(claims jwt.MapClaims) (*User, error) {
	subject, ok := SubjectID(claims)
	if !ok {
		return nil, fmt.Errorf("claims carry no usable subject")
	}

	email, _ := claims["email"].(string)
	name, _ := claims["name"].(string)

	var user User
	err := s.db.Where("subject = ?", subject).First(&user).Error
	if err == gorm.ErrRecordNotFound {
		user = User{
			ID:      "usr_" + uuid.NewString(),
			Subject: subject,
			Email:   email,
			Name:    name,
		}
		if err := s.db.Create(&user).Error; err != nil {
			return nil, fmt.Errorf("failed to create user: %w", err)
		}

		logrus.WithFields(logrus.Fields{
			"user_id": user.ID,
			"sub":     subject,
		}).Info("Provisioned new user from claims")
		return &user, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}

	// Оновлюємо профільні поля якщо провайдер їх змінив
	updates := map[string]interface{}{}
	if email != "" && email != user.Email {
		updates["email"] = email
	}
	if name != "" && name != user.Name {
		updates["name"] = name
	}
	if len(updates) > 0 {
		if err := s.db.Model(&user).Updates(updates).Error; err != nil {
			return nil, fmt.Errorf("failed to update user: %w", err)
		}
	}

	logrus.WithFields(logrus.Fields{
		"user_id": user.ID,
		"sub":     subject,
	}).Debug("User refreshed from claims")

	return &user, nil
}

// GetUserBySubject повертає користувача за subject провайдера
func (s *userService) GetUserBySubject(subject string) (*User, error) {
	var user User
	if err := s.db.Where("subject = ?", subject).First(&user).Error; err != nil {
		return nil, fmt.Errorf("user not found: %w", err)
	}
	return &user, nil
}
