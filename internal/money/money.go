package money

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/jedlsf/buwis-friend/internal/domain"
)

// DefaultCurrency is used when no currency code is given.
const DefaultCurrency = "PHP"

var (
	ErrCurrencyMismatch = errors.New("currency mismatch")
	ErrDivisionByZero   = errors.New("division by zero")
)

var hundred = decimal.NewFromInt(100)

// Money is an immutable decimal amount tagged with an ISO-4217 currency code.
// The zero value is 0.00 in DefaultCurrency.
type Money struct {
	amount   decimal.Decimal
	currency string
}

// New returns amount in currency. An empty currency means DefaultCurrency.
func New(amount decimal.Decimal, currency string) Money {
	return Money{amount: amount, currency: normalize(currency)}
}

// Zero returns a zero amount in currency.
func Zero(currency string) Money {
	return New(decimal.Zero, currency)
}

// FromString parses a decimal string amount.
func FromString(amount, currency string) (Money, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(amount))
	if err != nil {
		return Money{}, domain.Malformed("amount %q is not a decimal", amount)
	}
	return New(d, currency), nil
}

// MustFromString is FromString that panics on error. Meant for constants and tests.
func MustFromString(amount, currency string) Money {
	m, err := FromString(amount, currency)
	if err != nil {
		panic(err)
	}
	return m
}

// FromCentavos builds a DefaultCurrency amount from minor units.
func FromCentavos(centavos int64) Money {
	return New(decimal.New(centavos, -2), DefaultCurrency)
}

// FromPesos builds a DefaultCurrency amount from a float, using its shortest
// decimal representation.
func FromPesos(pesos float64) Money {
	return New(decimal.NewFromFloat(pesos), DefaultCurrency)
}

func normalize(currency string) string {
	c := strings.ToUpper(strings.TrimSpace(currency))
	if c == "" {
		return DefaultCurrency
	}
	return c
}

// Amount returns the exact decimal amount.
func (m Money) Amount() decimal.Decimal { return m.amount }

// Currency returns the upper-case currency code.
func (m Money) Currency() string {
	if m.currency == "" {
		return DefaultCurrency
	}
	return m.currency
}

// Pesos returns the amount in major units.
func (m Money) Pesos() decimal.Decimal { return m.amount }

// Centavos returns the amount in minor units, rounded half away from zero.
func (m Money) Centavos() int64 {
	return m.amount.Mul(hundred).Round(0).IntPart()
}

func (m Money) sameCurrency(o Money) error {
	if m.Currency() != o.Currency() {
		return fmt.Errorf("%w: %s vs %s", ErrCurrencyMismatch, m.Currency(), o.Currency())
	}
	return nil
}

// Add returns m + o.
func (m Money) Add(o Money) (Money, error) {
	if err := m.sameCurrency(o); err != nil {
		return Money{}, err
	}
	return Money{amount: m.amount.Add(o.amount), currency: m.Currency()}, nil
}

// Sub returns m - o.
func (m Money) Sub(o Money) (Money, error) {
	if err := m.sameCurrency(o); err != nil {
		return Money{}, err
	}
	return Money{amount: m.amount.Sub(o.amount), currency: m.Currency()}, nil
}

// Mul scales m by factor.
func (m Money) Mul(factor decimal.Decimal) Money {
	return Money{amount: m.amount.Mul(factor), currency: m.Currency()}
}

// Div divides m by divisor.
func (m Money) Div(divisor decimal.Decimal) (Money, error) {
	if divisor.IsZero() {
		return Money{}, ErrDivisionByZero
	}
	return Money{amount: m.amount.Div(divisor), currency: m.Currency()}, nil
}

// Round returns m rounded to places decimal places, half away from zero.
func (m Money) Round(places int32) Money {
	return Money{amount: m.amount.Round(places), currency: m.Currency()}
}

// Equal reports whether both currency and exact amount match.
func (m Money) Equal(o Money) bool {
	return m.Currency() == o.Currency() && m.amount.Equal(o.amount)
}

func (m Money) IsZero() bool     { return m.amount.IsZero() }
func (m Money) IsNegative() bool { return m.amount.IsNegative() }

// Cmp compares amounts; currencies must match.
func (m Money) Cmp(o Money) (int, error) {
	if err := m.sameCurrency(o); err != nil {
		return 0, err
	}
	return m.amount.Cmp(o.amount), nil
}

// StringFixed returns the amount with exactly two fractional digits.
func (m Money) StringFixed() string {
	return m.amount.StringFixed(2)
}

func (m Money) String() string {
	return m.Currency() + " " + m.StringFixed()
}

type moneyJSON struct {
	Amount   string `json:"amount"`
	Currency string `json:"currency"`
}

// MarshalJSON renders {"amount":"0.00","currency":"PHP"}.
func (m Money) MarshalJSON() ([]byte, error) {
	return json.Marshal(moneyJSON{Amount: m.StringFixed(), Currency: m.Currency()})
}

// UnmarshalJSON accepts a numeric or string amount and requires a string currency.
func (m *Money) UnmarshalJSON(data []byte) error {
	var raw struct {
		Amount   json.RawMessage `json:"amount"`
		Currency json.RawMessage `json:"currency"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return domain.Malformed("money: %v", err)
	}
	if len(raw.Amount) == 0 || bytes.Equal(raw.Amount, []byte("null")) {
		return domain.Malformed("money: amount is required")
	}
	var amount decimal.Decimal
	if err := amount.UnmarshalJSON(raw.Amount); err != nil {
		return domain.Malformed("money: amount %s is not a decimal", raw.Amount)
	}
	trimmed := bytes.TrimSpace(raw.Currency)
	if len(trimmed) == 0 || trimmed[0] != '"' {
		return domain.Malformed("money: currency must be a string")
	}
	var currency string
	if err := json.Unmarshal(trimmed, &currency); err != nil {
		return domain.Malformed("money: currency must be a string")
	}
	*m = New(amount, currency)
	return nil
}

// Sum adds all values, starting from zero in currency.
func Sum(currency string, values ...Money) (Money, error) {
	total := Zero(currency)
	for _, v := range values {
		var err error
		if total, err = total.Add(v); err != nil {
			return Money{}, err
		}
	}
	return total, nil
}
