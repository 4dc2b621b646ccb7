package services_test

import (
	"testing"
	"time"

	"keycloak-login/internal/models"
	"keycloak-login/internal/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionService_SetAndGet(t *testing.T) {
	sessions := services.NewSessionService(time.Minute)
	defer sessions.Close()

	sessionID := services.NewSessionID()
	bundle := &models.Token{AccessToken: "at", RefreshToken: "rt", IDToken: "it"}

	require.NoError(t, sessions.SetTokens(sessionID, bundle))

	got := sessions.Tokens(sessionID)
	require.NotNil(t, got)
	assert.Equal(t, "at", got.AccessToken)
	assert.Equal(t, "rt", got.RefreshToken)
	assert.Equal(t, "it", got.IDToken)
}

func TestSessionService_UnknownSession(t *testing.T) {
	sessions := services.NewSessionService(time.Minute)
	defer sessions.Close()

	assert.Nil(t, sessions.Tokens("sess_unknown"))
	assert.Nil(t, sessions.Tokens(""))
}

func TestSessionService_ClearKeepsSessionAlive(t *testing.T) {
	sessions := services.NewSessionService(time.Minute)
	defer sessions.Close()

	sessionID := services.NewSessionID()
	require.NoError(t, sessions.SetTokens(sessionID, &models.Token{AccessToken: "at"}))

	// Очищення слоту: токени зникають, сесія лишається придатною до запису
	require.NoError(t, sessions.SetTokens(sessionID, nil))
	assert.Nil(t, sessions.Tokens(sessionID))

	require.NoError(t, sessions.SetTokens(sessionID, &models.Token{AccessToken: "at2"}))
	got := sessions.Tokens(sessionID)
	require.NotNil(t, got)
	assert.Equal(t, "at2", got.AccessToken)
}

func TestSessionService_Expiry(t *testing.T) {
	sessions := services.NewSessionService(20 * time.Millisecond)
	defer sessions.Close()

	sessionID := services.NewSessionID()
	require.NoError(t, sessions.SetTokens(sessionID, &models.Token{AccessToken: "at"}))

	time.Sleep(40 * time.Millisecond)
	assert.Nil(t, sessions.Tokens(sessionID))
}

func TestSessionService_WriteAfterClose(t *testing.T) {
	sessions := services.NewSessionService(time.Minute)
	sessions.Close()

	err := sessions.SetTokens(services.NewSessionID(), &models.Token{AccessToken: "at"})
	assert.ErrorIs(t, err, services.ErrSessionWrite)
}

func TestNewSessionID_Unique(t *testing.T) {
	a := services.NewSessionID()
	b := services.NewSessionID()

	assert.NotEqual(t, a, b)
	assert.Contains(t, a, "sess_")
}
