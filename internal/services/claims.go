package services

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"strconv"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// DecodeClaims структурно декодує payload сегмент compact токена без
// жодної криптографічної перевірки. Підпис, issuer, audience та expiry
// НЕ перевіряються — перед продакшеном потрібна повноцінна валідація
// через JWKS провайдера.
//
// Функція тотальна: будь-яка помилка декодування повертає (nil, false),
// ніколи не panic і не error.
func DecodeClaims(token string) (jwt.MapClaims, bool) {
	parts := strings.Split(token, ".")
	if len(parts) < 2 {
		return nil, false
	}

	// URL-safe алфавіт -> стандартний, з паддінгом до кратності 4
	payload := strings.ReplaceAll(parts[1], "-", "+")
	payload = strings.ReplaceAll(payload, "_", "/")
	if pad := len(payload) % 4; pad != 0 {
		payload += strings.Repeat("=", 4-pad)
	}

	raw, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, false
	}

	var claims jwt.MapClaims
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&claims); err != nil || claims == nil {
		// не JSON-об'єкт (рядок, число, масив, null) — claims відсутні
		return nil, false
	}
	if dec.More() {
		// сміття після об'єкта робить payload невалідним цілком
		return nil, false
	}

	return claims, true
}

// SubjectID проектує ідентифікатор користувача з claims: спочатку "sub",
// потім "user_id". Приймаються тільки рядкові та числові значення; числа
// нормалізуються до десяткового рядка.
func SubjectID(claims jwt.MapClaims) (string, bool) {
	for _, name := range []string{"sub", "user_id"} {
		v, exists := claims[name]
		if !exists {
			continue
		}
		switch id := v.(type) {
		case string:
			return id, true
		case json.Number:
			return id.String(), true
		case float64:
			return strconv.FormatFloat(id, 'f', -1, 64), true
		}
	}
	return "", false
}
