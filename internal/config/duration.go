package config

import (
	"fmt"
	"time"

	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/gocty"
)

// Duration — тривалість, яку можна декодувати з рядків HCL конфігурації
// ("15s", "5m"). Використовується для таймаутів вихідних запитів до Keycloak.
type Duration time.Duration

// UnmarshalText реалізує encoding.TextUnmarshaler
func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = Duration(parsed)
	return nil
}

// Duration повертає значення як time.Duration
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}

// String повертає рядкове представлення тривалості
func (d Duration) String() string {
	return time.Duration(d).String()
}

// DecodeCTY декодує значення cty.String з HCL у тривалість
func (d *Duration) DecodeCTY(val cty.Value) error {
	if val.Type() != cty.String {
		return fmt.Errorf("duration must be a string")
	}

	var s string
	err := gocty.FromCtyValue(val, &s)
	if err != nil {
		return err
	}

	parsed, err := time.ParseDuration(s)
	if err != nil {
		return err
	}

	*d = Duration(parsed)
	return nil
}
