// Package valueobject holds the immutable value types shared across
// bounded contexts: monetary amounts, Brazilian postal codes, and
// delivery addresses.
package valueobject

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// Currency is an ISO 4217 currency code.
type Currency string

// Currencies accepted by the marketplace. BRL is the home currency;
// the rest cover cross-border buyers and Latin American artisan
// payouts.
const (
	BRL Currency = "BRL" // Brazilian Real
	USD Currency = "USD" // US Dollar
	EUR Currency = "EUR" // Euro
	ARS Currency = "ARS" // Argentine Peso
	MXN Currency = "MXN" // Mexican Peso
	CLP Currency = "CLP" // Chilean Peso
)

// DefaultCurrency is assumed wherever an amount carries no explicit
// currency, e.g. values scanned from a single numeric column.
const DefaultCurrency = BRL

// Money is an immutable amount in a single currency. Every operation
// returns a fresh value, and mixing currencies is an error rather
// than an implicit conversion.
type Money struct {
	amount   decimal.Decimal
	currency Currency
}

// with keeps the receiver's currency and swaps in a new amount. All
// arithmetic funnels through here.
func (m Money) with(amount decimal.Decimal) Money {
	return Money{amount: amount, currency: m.currency}
}

// sameCurrency rejects mixed-currency operations; op names the caller
// in the error text.
func (m Money) sameCurrency(op string, other Money) error {
	if m.currency != other.currency {
		return fmt.Errorf("cannot %s money with different currencies: %s and %s", op, m.currency, other.currency)
	}
	return nil
}

// NewMoney builds a Money from an exact decimal amount. The currency
// must be non-empty; negative amounts are allowed for refunds and
// adjustments.
func NewMoney(amount decimal.Decimal, currency Currency) (Money, error) {
	if currency == "" {
		return Money{}, errors.New("currency cannot be empty")
	}
	return Money{amount: amount, currency: currency}, nil
}

// NewMoneyFromFloat builds a Money from a float64 amount.
func NewMoneyFromFloat(amount float64, currency Currency) (Money, error) {
	return NewMoney(decimal.NewFromFloat(amount), currency)
}

// NewMoneyFromInt builds a Money from a whole-unit int64 amount.
func NewMoneyFromInt(amount int64, currency Currency) (Money, error) {
	return NewMoney(decimal.NewFromInt(amount), currency)
}

// NewMoneyFromString parses a decimal string such as "123.45".
func NewMoneyFromString(amount string, currency Currency) (Money, error) {
	d, err := decimal.NewFromString(amount)
	if err != nil {
		return Money{}, fmt.Errorf("invalid amount string: %w", err)
	}
	return NewMoney(d, currency)
}

// NewMoneyBRL builds a Money in the home currency.
func NewMoneyBRL(amount decimal.Decimal) Money {
	return Money{amount: amount, currency: BRL}
}

// NewMoneyBRLFromFloat builds a BRL Money from a float64 amount.
func NewMoneyBRLFromFloat(amount float64) Money {
	return Money{amount: decimal.NewFromFloat(amount), currency: BRL}
}

// NewMoneyBRLFromString parses a decimal string into a BRL Money.
func NewMoneyBRLFromString(amount string) (Money, error) {
	d, err := decimal.NewFromString(amount)
	if err != nil {
		return Money{}, fmt.Errorf("invalid amount string: %w", err)
	}
	return Money{amount: d, currency: BRL}, nil
}

// Zero returns 0.00 in the given currency.
func Zero(currency Currency) Money {
	return Money{amount: decimal.Zero, currency: currency}
}

// ZeroBRL returns 0.00 in BRL.
func ZeroBRL() Money {
	return Zero(BRL)
}

// Amount returns the exact decimal amount.
func (m Money) Amount() decimal.Decimal { return m.amount }

// Currency returns the currency code.
func (m Money) Currency() Currency { return m.currency }

// Sign predicates on the amount.
func (m Money) IsZero() bool     { return m.amount.IsZero() }
func (m Money) IsPositive() bool { return m.amount.IsPositive() }
func (m Money) IsNegative() bool { return m.amount.IsNegative() }

// Add sums two amounts of the same currency.
func (m Money) Add(other Money) (Money, error) {
	if err := m.sameCurrency("add", other); err != nil {
		return Money{}, err
	}
	return m.with(m.amount.Add(other.amount)), nil
}

// MustAdd is Add for amounts known to share a currency; it panics on a
// mismatch.
func (m Money) MustAdd(other Money) Money {
	sum, err := m.Add(other)
	if err != nil {
		panic(err)
	}
	return sum
}

// Subtract takes other from m, requiring matching currencies.
func (m Money) Subtract(other Money) (Money, error) {
	if err := m.sameCurrency("subtract", other); err != nil {
		return Money{}, err
	}
	return m.with(m.amount.Sub(other.amount)), nil
}

// MustSubtract is Subtract for amounts known to share a currency; it
// panics on a mismatch.
func (m Money) MustSubtract(other Money) Money {
	diff, err := m.Subtract(other)
	if err != nil {
		panic(err)
	}
	return diff
}

// Multiply scales the amount by an exact decimal factor.
func (m Money) Multiply(factor decimal.Decimal) Money {
	return m.with(m.amount.Mul(factor))
}

// MultiplyByInt scales the amount by an integer factor, e.g. a line
// item quantity.
func (m Money) MultiplyByInt(factor int64) Money {
	return m.Multiply(decimal.NewFromInt(factor))
}

// MultiplyByFloat scales the amount by a float factor.
func (m Money) MultiplyByFloat(factor float64) Money {
	return m.Multiply(decimal.NewFromFloat(factor))
}

// Divide splits the amount by a non-zero divisor.
func (m Money) Divide(divisor decimal.Decimal) (Money, error) {
	if divisor.IsZero() {
		return Money{}, errors.New("cannot divide by zero")
	}
	return m.with(m.amount.Div(divisor)), nil
}

// Negate flips the sign of the amount.
func (m Money) Negate() Money { return m.with(m.amount.Neg()) }

// Abs strips the sign of the amount.
func (m Money) Abs() Money { return m.with(m.amount.Abs()) }

// Round rounds half away from zero to the given decimal places.
func (m Money) Round(places int32) Money { return m.with(m.amount.Round(places)) }

// RoundBank rounds half to even, which keeps bias out of settlement
// totals.
func (m Money) RoundBank(places int32) Money { return m.with(m.amount.RoundBank(places)) }

// Truncate drops digits past the given decimal places without
// rounding.
func (m Money) Truncate(places int32) Money { return m.with(m.amount.Truncate(places)) }

// Equals reports whether both currency and amount match.
func (m Money) Equals(other Money) bool {
	return m.currency == other.currency && m.amount.Equal(other.amount)
}

// LessThan orders two amounts of the same currency.
func (m Money) LessThan(other Money) (bool, error) {
	if err := m.sameCurrency("compare", other); err != nil {
		return false, err
	}
	return m.amount.LessThan(other.amount), nil
}

// LessThanOrEqual orders two amounts of the same currency.
func (m Money) LessThanOrEqual(other Money) (bool, error) {
	if err := m.sameCurrency("compare", other); err != nil {
		return false, err
	}
	return m.amount.LessThanOrEqual(other.amount), nil
}

// GreaterThan orders two amounts of the same currency.
func (m Money) GreaterThan(other Money) (bool, error) {
	if err := m.sameCurrency("compare", other); err != nil {
		return false, err
	}
	return m.amount.GreaterThan(other.amount), nil
}

// GreaterThanOrEqual orders two amounts of the same currency.
func (m Money) GreaterThanOrEqual(other Money) (bool, error) {
	if err := m.sameCurrency("compare", other); err != nil {
		return false, err
	}
	return m.amount.GreaterThanOrEqual(other.amount), nil
}

// String renders the amount to two places followed by the currency
// code, e.g. "129.90 BRL".
func (m Money) String() string {
	return fmt.Sprintf("%s %s", m.amount.StringFixed(2), m.currency)
}

// StringFixed renders only the amount, rounded to the given number of
// decimal places.
func (m Money) StringFixed(places int32) string {
	return m.amount.StringFixed(places)
}

// Float64 converts the amount to a float64. Precision may be lost, so
// keep it out of arithmetic and use it only at display boundaries.
func (m Money) Float64() float64 {
	f, _ := m.amount.Float64()
	return f
}

// moneyJSON is the wire shape shared by the JSON codec and
// ParseMoneyFromJSON. The amount travels as a string so no reader ever
// sees a float-rounded price.
type moneyJSON struct {
	Amount   string   `json:"amount"`
	Currency Currency `json:"currency"`
}

// MarshalJSON implements json.Marshaler.
func (m Money) MarshalJSON() ([]byte, error) {
	return json.Marshal(moneyJSON{Amount: m.amount.String(), Currency: m.currency})
}

// UnmarshalJSON implements json.Unmarshaler for request binding. It
// assigns fields directly and does not reject an empty currency;
// callers that need that guarantee decode through ParseMoneyFromJSON
// instead.
func (m *Money) UnmarshalJSON(data []byte) error {
	var v moneyJSON
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	amount, err := decimal.NewFromString(v.Amount)
	if err != nil {
		return fmt.Errorf("invalid amount: %w", err)
	}
	m.amount = amount
	m.currency = v.Currency
	return nil
}

// ParseMoneyFromJSON decodes a Money and runs it through the NewMoney
// factory, so an empty currency is rejected here. Prefer it over
// json.Unmarshal when decoding untrusted payloads by hand.
func ParseMoneyFromJSON(data []byte) (Money, error) {
	var v moneyJSON
	if err := json.Unmarshal(data, &v); err != nil {
		return Money{}, fmt.Errorf("failed to parse money JSON: %w", err)
	}
	amount, err := decimal.NewFromString(v.Amount)
	if err != nil {
		return Money{}, fmt.Errorf("invalid amount: %w", err)
	}
	return NewMoney(amount, v.Currency)
}

// Value implements driver.Valuer. Only the amount is stored; the
// owning row keeps the currency in its own column.
func (m Money) Value() (driver.Value, error) {
	return m.amount.String(), nil
}

// Scan implements sql.Scanner for numeric columns. NULL scans as zero
// in the DefaultCurrency. A currency already set on the receiver is
// kept, so model converters may preset it before scanning; otherwise
// it falls back to DefaultCurrency.
func (m *Money) Scan(value any) error {
	if value == nil {
		m.amount = decimal.Zero
		m.currency = DefaultCurrency
		return nil
	}

	var raw string
	switch v := value.(type) {
	case string:
		raw = v
	case []byte:
		raw = string(v)
	default:
		return fmt.Errorf("cannot scan %T into Money", value)
	}

	amount, err := decimal.NewFromString(raw)
	if err != nil {
		return fmt.Errorf("invalid decimal value: %w", err)
	}
	m.amount = amount
	if m.currency == "" {
		m.currency = DefaultCurrency
	}
	return nil
}

// Allocate splits the amount into parts that sum exactly to the
// original. Each part gets the truncated even share and the leftover
// cents land one apiece on the leading parts, so 100.00 split three
// ways comes back 33.34, 33.33, 33.33.
func (m Money) Allocate(parts int) ([]Money, error) {
	if parts <= 0 {
		return nil, errors.New("parts must be positive")
	}
	if parts == 1 {
		return []Money{m}, nil
	}

	n := decimal.NewFromInt(int64(parts))
	share := m.amount.Div(n).Truncate(2)
	leftoverCents := m.amount.Sub(share.Mul(n)).Mul(decimal.NewFromInt(100)).IntPart()

	cent := decimal.New(1, -2)
	result := make([]Money, parts)
	for i := range result {
		amount := share
		if int64(i) < leftoverCents {
			amount = amount.Add(cent)
		}
		result[i] = m.with(amount)
	}
	return result, nil
}

// CalculatePercentage returns percent% of the amount, e.g. a platform
// fee or tax line.
func (m Money) CalculatePercentage(percent decimal.Decimal) Money {
	return m.with(m.amount.Mul(percent).Div(decimal.NewFromInt(100)))
}

// ApplyDiscount subtracts a percentage discount from the amount.
func (m Money) ApplyDiscount(discountPercent decimal.Decimal) Money {
	discount := m.CalculatePercentage(discountPercent)
	return m.with(m.amount.Sub(discount.amount))
}
