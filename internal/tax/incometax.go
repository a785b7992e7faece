package tax

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/jedlsf/buwis-friend/internal/domain"
	"github.com/jedlsf/buwis-friend/internal/money"
)

// Flat8Rate is the optional flat income tax rate on gross sales above the
// exemption threshold.
var (
	Flat8Rate      = decimal.RequireFromString("0.08")
	ExemptionFloor = decimal.NewFromInt(250_000)
)

// bracket covers incomes up to and including ceiling. A zero ceiling marks
// the open top bracket.
type bracket struct {
	ceiling decimal.Decimal
	floor   decimal.Decimal
	base    decimal.Decimal
	rate    decimal.Decimal
}

// graduatedTable is the TRAIN schedule effective 2023 onwards.
var graduatedTable = []bracket{
	{ceiling: d("250000"), floor: d("0"), base: d("0"), rate: d("0")},
	{ceiling: d("400000"), floor: d("250000"), base: d("0"), rate: d("0.15")},
	{ceiling: d("800000"), floor: d("400000"), base: d("22500"), rate: d("0.20")},
	{ceiling: d("2000000"), floor: d("800000"), base: d("102500"), rate: d("0.25")},
	{ceiling: d("8000000"), floor: d("2000000"), base: d("402500"), rate: d("0.30")},
	{floor: d("8000000"), base: d("2202500"), rate: d("0.35")},
}

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

// IncomeTax returns the annual income tax due on income under regime,
// rounded to centavos. Non-positive income owes nothing.
func IncomeTax(income money.Money, regime domain.IncomeTaxRegime) (money.Money, error) {
	amount := income.Amount()
	cur := income.Currency()
	if !amount.IsPositive() {
		return money.Zero(cur), nil
	}

	switch regime {
	case domain.RegimeFlat8:
		if amount.LessThanOrEqual(ExemptionFloor) {
			return money.Zero(cur), nil
		}
		return money.New(amount.Sub(ExemptionFloor).Mul(Flat8Rate), cur).Round(2), nil
	case domain.RegimeGraduated:
		return money.New(graduated(amount), cur).Round(2), nil
	default:
		return money.Money{}, domain.NewFieldError("income_tax_regime", fmt.Sprintf("unsupported regime %q", regime))
	}
}

func graduated(income decimal.Decimal) decimal.Decimal {
	for _, b := range graduatedTable {
		if b.ceiling.IsZero() || income.LessThanOrEqual(b.ceiling) {
			return b.base.Add(income.Sub(b.floor).Mul(b.rate))
		}
	}
	return decimal.Zero
}
