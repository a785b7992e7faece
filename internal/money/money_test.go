package money_test

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jedlsf/buwis-friend/internal/domain"
	"github.com/jedlsf/buwis-friend/internal/money"
)

func TestNew_NormalizesCurrency(t *testing.T) {
	assert.Equal(t, "USD", money.New(decimal.NewFromInt(1), " usd ").Currency())
	assert.Equal(t, money.DefaultCurrency, money.New(decimal.NewFromInt(1), "").Currency())
	assert.Equal(t, money.DefaultCurrency, money.Money{}.Currency())
}

func TestAddSubtract_RoundTrip(t *testing.T) {
	cases := []struct{ a, b string }{
		{"0", "0"},
		{"100.25", "0.75"},
		{"1.005", "2.3333"},
		{"-50", "12.5"},
		{"999999999.99", "0.01"},
	}
	for _, tc := range cases {
		t.Run(tc.a+"+"+tc.b, func(t *testing.T) {
			a := money.MustFromString(tc.a, "PHP")
			b := money.MustFromString(tc.b, "PHP")
			sum, err := a.Add(b)
			require.NoError(t, err)
			back, err := sum.Sub(b)
			require.NoError(t, err)
			assert.True(t, back.Equal(a), "expected %s, got %s", a, back)
		})
	}
}

func TestAdd_CurrencyMismatch(t *testing.T) {
	php := money.MustFromString("10", "PHP")
	usd := money.MustFromString("10", "USD")

	_, err := php.Add(usd)
	assert.ErrorIs(t, err, money.ErrCurrencyMismatch)

	_, err = php.Sub(usd)
	assert.ErrorIs(t, err, money.ErrCurrencyMismatch)

	_, err = money.Sum("PHP", php, usd)
	assert.ErrorIs(t, err, money.ErrCurrencyMismatch)
}

func TestAdd_DoesNotMutateOperands(t *testing.T) {
	a := money.MustFromString("10", "PHP")
	b := money.MustFromString("5", "PHP")
	_, err := a.Add(b)
	require.NoError(t, err)
	assert.Equal(t, "10.00", a.StringFixed())
	assert.Equal(t, "5.00", b.StringFixed())
}

func TestMulDiv(t *testing.T) {
	m := money.MustFromString("11200", "PHP")

	base, err := m.Div(decimal.RequireFromString("1.12"))
	require.NoError(t, err)
	assert.Equal(t, "10000.00", base.StringFixed())

	assert.Equal(t, "1200.00", base.Mul(decimal.RequireFromString("0.12")).StringFixed())

	_, err = m.Div(decimal.Zero)
	assert.ErrorIs(t, err, money.ErrDivisionByZero)
}

func TestEqual(t *testing.T) {
	assert.True(t, money.MustFromString("1.50", "PHP").Equal(money.MustFromString("1.5", "php")))
	assert.False(t, money.MustFromString("1.50", "PHP").Equal(money.MustFromString("1.5", "USD")))
	assert.False(t, money.MustFromString("1.50", "PHP").Equal(money.MustFromString("1.51", "PHP")))
}

func TestCentavos(t *testing.T) {
	assert.True(t, money.FromCentavos(12345).Pesos().Equal(decimal.RequireFromString("123.45")))
	assert.Equal(t, int64(101), money.FromPesos(1.005).Centavos())
	assert.Equal(t, int64(-101), money.MustFromString("-1.005", "PHP").Centavos())
	assert.Equal(t, int64(100), money.MustFromString("1.004", "PHP").Centavos())
}

func TestRound_HalfUp(t *testing.T) {
	assert.Equal(t, "2.35", money.MustFromString("2.345", "PHP").Round(2).StringFixed())
	assert.Equal(t, "2.34", money.MustFromString("2.3449", "PHP").Round(2).StringFixed())
}

func TestRound_NegativeHalfMirrorsPositive(t *testing.T) {
	assert.Equal(t, "-0.01", money.MustFromString("-0.005", "PHP").Round(2).StringFixed())
	assert.Equal(t, "-2.35", money.MustFromString("-2.345", "PHP").Round(2).StringFixed())
	assert.Equal(t, "-2.34", money.MustFromString("-2.3449", "PHP").Round(2).StringFixed())
}

func TestJSON_RoundTrip(t *testing.T) {
	m := money.MustFromString("1234.5", "php")
	data, err := json.Marshal(m)
	require.NoError(t, err)
	assert.JSONEq(t, `{"amount":"1234.50","currency":"PHP"}`, string(data))

	var back money.Money
	require.NoError(t, json.Unmarshal(data, &back))
	assert.True(t, back.Equal(m))

	again, err := json.Marshal(back)
	require.NoError(t, err)
	assert.Equal(t, string(data), string(again))
}

func TestJSON_SerializesTwoDecimals(t *testing.T) {
	data, err := json.Marshal(money.MustFromString("0.125", "PHP"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"amount":"0.13","currency":"PHP"}`, string(data))
}

func TestUnmarshalJSON(t *testing.T) {
	t.Run("numeric_amount", func(t *testing.T) {
		var m money.Money
		require.NoError(t, json.Unmarshal([]byte(`{"amount":99.9,"currency":"usd"}`), &m))
		assert.Equal(t, "USD 99.90", m.String())
	})

	t.Run("currency_not_string", func(t *testing.T) {
		var m money.Money
		err := json.Unmarshal([]byte(`{"amount":"1","currency":608}`), &m)
		assert.ErrorIs(t, err, domain.ErrMalformedInput)
	})

	t.Run("currency_missing", func(t *testing.T) {
		var m money.Money
		err := json.Unmarshal([]byte(`{"amount":"1"}`), &m)
		assert.ErrorIs(t, err, domain.ErrMalformedInput)
	})

	t.Run("amount_missing", func(t *testing.T) {
		var m money.Money
		err := json.Unmarshal([]byte(`{"currency":"PHP"}`), &m)
		assert.ErrorIs(t, err, domain.ErrMalformedInput)
	})

	t.Run("amount_garbage", func(t *testing.T) {
		var m money.Money
		err := json.Unmarshal([]byte(`{"amount":"abc","currency":"PHP"}`), &m)
		assert.ErrorIs(t, err, domain.ErrMalformedInput)
	})
}
