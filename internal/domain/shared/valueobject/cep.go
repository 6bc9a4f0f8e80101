package valueobject

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
)

// CEP is a value object representing a Brazilian postal code (Código de
// Endereçamento Postal). It is immutable and always stored as eight digits.
type CEP struct {
	digits string
}

// NewCEP creates a CEP from a string, accepting both "01310-100" and
// "01310100" forms. Any non-digit characters are stripped before validation.
func NewCEP(raw string) (CEP, error) {
	var sb strings.Builder
	for _, r := range strings.TrimSpace(raw) {
		if r >= '0' && r <= '9' {
			sb.WriteRune(r)
		}
	}
	digits := sb.String()
	if len(digits) != 8 {
		return CEP{}, fmt.Errorf("cep must contain exactly 8 digits, got %q", raw)
	}
	return CEP{digits: digits}, nil
}

// MustNewCEP creates a CEP, panics on error
func MustNewCEP(raw string) CEP {
	cep, err := NewCEP(raw)
	if err != nil {
		panic(err)
	}
	return cep
}

// EmptyCEP returns a zero-value CEP (for optional fields)
func EmptyCEP() CEP {
	return CEP{}
}

// IsEmpty returns true if the CEP has no value
func (c CEP) IsEmpty() bool {
	return c.digits == ""
}

// Digits returns the raw eight digits without formatting
func (c CEP) Digits() string {
	return c.digits
}

// String returns the CEP in the canonical "XXXXX-XXX" format
func (c CEP) String() string {
	if c.digits == "" {
		return ""
	}
	return c.digits[:5] + "-" + c.digits[5:]
}

// Equals returns true if both CEPs have the same digits
func (c CEP) Equals(other CEP) bool {
	return c.digits == other.digits
}

// MarshalJSON implements json.Marshaler, emitting the formatted form
func (c CEP) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.String())
}

// UnmarshalJSON implements json.Unmarshaler, accepting formatted or bare digits
func (c *CEP) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if s == "" {
		*c = EmptyCEP()
		return nil
	}
	cep, err := NewCEP(s)
	if err != nil {
		return err
	}
	*c = cep
	return nil
}

// Value implements driver.Valuer for database storage (formatted, NULL when empty)
func (c CEP) Value() (driver.Value, error) {
	if c.IsEmpty() {
		return nil, nil
	}
	return c.String(), nil
}

// Scan implements sql.Scanner for database retrieval
func (c *CEP) Scan(value any) error {
	if value == nil {
		*c = EmptyCEP()
		return nil
	}

	var s string
	switch v := value.(type) {
	case string:
		s = v
	case []byte:
		s = string(v)
	default:
		return fmt.Errorf("cannot scan %T into CEP", value)
	}

	if s == "" {
		*c = EmptyCEP()
		return nil
	}

	cep, err := NewCEP(s)
	if err != nil {
		return err
	}
	*c = cep
	return nil
}
