package services_test

import (
	"encoding/base64"
	"encoding/json"
	"testing"

	"keycloak-login/internal/services"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// signedToken мінтить повноцінний трисегментний токен для тестів
func signedToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return signed
}

// rawPayloadToken будує двосегментний токен з довільним payload
func rawPayloadToken(payload string) string {
	header := base64.RawURLEncoding.EncodeToString([]byte(`{"alg":"none"}`))
	return header + "." + base64.RawURLEncoding.EncodeToString([]byte(payload))
}

func TestDecodeClaims_RoundTrip(t *testing.T) {
	token := signedToken(t, jwt.MapClaims{
		"sub":   "user-42",
		"email": "user@example.com",
		"admin": true,
	})

	claims, ok := services.DecodeClaims(token)
	require.True(t, ok)

	assert.Equal(t, "user-42", claims["sub"])
	assert.Equal(t, "user@example.com", claims["email"])
	assert.Equal(t, true, claims["admin"])
}

func TestDecodeClaims_TwoSegments(t *testing.T) {
	claims, ok := services.DecodeClaims(rawPayloadToken(`{"sub":"abc"}`))
	require.True(t, ok)
	assert.Equal(t, "abc", claims["sub"])
}

func TestDecodeClaims_URLSafeAlphabetAndPadding(t *testing.T) {
	// Значення підібране так, щоб у base64url з'явилися - та _
	original := jwt.MapClaims{"sub": "????>>>>", "n": "abc"}
	payload, err := json.Marshal(original)
	require.NoError(t, err)

	token := "x." + base64.RawURLEncoding.EncodeToString(payload)

	claims, ok := services.DecodeClaims(token)
	require.True(t, ok)
	assert.Equal(t, "????>>>>", claims["sub"])
}

func TestDecodeClaims_NoClaims(t *testing.T) {
	tests := []struct {
		name  string
		token string
	}{
		{"empty string", ""},
		{"single segment", "onlyonesegment"},
		{"invalid base64", "header.!!!not-base64!!!"},
		{"payload is a string", rawPayloadToken(`"just a string"`)},
		{"payload is a number", rawPayloadToken(`12345`)},
		{"payload is an array", rawPayloadToken(`[1,2,3]`)},
		{"payload is null", rawPayloadToken(`null`)},
		{"payload is not json", rawPayloadToken(`{{{{`)},
		{"trailing garbage after object", rawPayloadToken(`{"sub":"x"}garbage`)},
		{"second json value after object", rawPayloadToken(`{"sub":"x"}{"sub":"y"}`)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			claims, ok := services.DecodeClaims(tt.token)
			assert.False(t, ok)
			assert.Nil(t, claims)
		})
	}
}

func TestSubjectID(t *testing.T) {
	tests := []struct {
		name   string
		claims jwt.MapClaims
		want   string
		wantOK bool
	}{
		{"string sub", jwt.MapClaims{"sub": "user-1"}, "user-1", true},
		{"numeric sub", jwt.MapClaims{"sub": json.Number("42")}, "42", true},
		{"float sub", jwt.MapClaims{"sub": float64(123)}, "123", true},
		{"user_id fallback", jwt.MapClaims{"user_id": "fallback-1"}, "fallback-1", true},
		{"sub preferred over user_id", jwt.MapClaims{"sub": "s", "user_id": "u"}, "s", true},
		{"unusable sub falls back", jwt.MapClaims{"sub": true, "user_id": "u"}, "u", true},
		{"no usable claim", jwt.MapClaims{"sub": true}, "", false},
		{"empty claims", jwt.MapClaims{}, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := services.SubjectID(tt.claims)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDecodeClaims_SignatureIsNotVerified(t *testing.T) {
	token := signedToken(t, jwt.MapClaims{"sub": "user-1"})

	// Псуємо підпис: декодування claims все одно проходить
	tampered := token[:len(token)-4] + "AAAA"

	claims, ok := services.DecodeClaims(tampered)
	require.True(t, ok)
	assert.Equal(t, "user-1", claims["sub"])
}
