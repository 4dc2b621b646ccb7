package models

import "time"

// User представляє користувача, запровіженого з claims Keycloak
type User struct {
	ID       string    `json:"id"`
	Subject  string    `json:"sub"`
	Email    string    `json:"email,omitempty"`
	Name     string    `json:"name,omitempty"`
	CreateAt time.Time `json:"created_at"`
	UpdateAt time.Time `json:"updated_at"`
}
