package services

import (
	"errors"
	"fmt"
)

// ErrMissingCode повертається коли callback не містить параметра code
var ErrMissingCode = errors.New("missing or invalid code")

// ErrUnauthorized повертається guard-ом коли запит не автентифікований
var ErrUnauthorized = errors.New("unauthorized")

// ErrSessionWrite повертається коли токени не вдалося записати в сесію
var ErrSessionWrite = errors.New("failed to write session")

// TokenExchangeError описує невдалий обмін authorization code на токени.
// RawResponse зберігає сире тіло відповіді провайдера для діагностики.
type TokenExchangeError struct {
	StatusCode  int
	RawResponse string
	Err         error
}

func (e *TokenExchangeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("token exchange failed: %v", e.Err)
	}
	return fmt.Sprintf("token exchange failed with status %d", e.StatusCode)
}

func (e *TokenExchangeError) Unwrap() error {
	return e.Err
}

// EndSessionError описує невдалий виклик logout endpoint провайдера
type EndSessionError struct {
	StatusCode int
	Err        error
}

func (e *EndSessionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("end session failed: %v", e.Err)
	}
	return fmt.Sprintf("end session failed with status %d", e.StatusCode)
}

func (e *EndSessionError) Unwrap() error {
	return e.Err
}
