package tax

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/jedlsf/buwis-friend/internal/domain"
	"github.com/jedlsf/buwis-friend/internal/money"
)

// Statutory rates and defaults.
var (
	SCPWDDiscountRate        = decimal.RequireFromString("0.20")
	DefaultVATRate           = decimal.RequireFromString("0.12")
	DefaultPercentageTaxRate = decimal.RequireFromString("0.03")
)

var one = decimal.NewFromInt(1)

// Input is everything the breakdown depends on.
type Input struct {
	Currency          string
	LineAmounts       []money.Money
	OtherDiscount     money.Money
	SCPWDEligible     bool
	VATType           domain.VATType
	VATRate           decimal.Decimal
	VATSubtype        domain.VATSubtype
	VATInclusive      bool
	PercentageTaxRate decimal.Decimal
	WithholdingRate   decimal.Decimal
}

// Discount splits the discount granted on an invoice.
type Discount struct {
	SeniorCitizenPWD money.Money `json:"senior_citizen_pwd"`
	Other            money.Money `json:"other"`
	Total            money.Money `json:"total"`
}

// VAT is the value-added tax block. It is zeroed for non-VAT issuers.
type VAT struct {
	Rate                   decimal.Decimal   `json:"rate"`
	Subtype                domain.VATSubtype `json:"subtype"`
	Inclusive              bool              `json:"inclusive"`
	Total                  money.Money       `json:"total"`
	VATableSales           money.Money       `json:"vatable_sales"`
	ExemptSales            money.Money       `json:"exempt_sales"`
	ZeroRatedSales         money.Money       `json:"zero_rated_sales"`
	TotalSalesVATInclusive money.Money       `json:"total_sales_vat_inclusive"`
}

// PercentageTax is the percentage tax block. It is zeroed for VAT issuers.
type PercentageTax struct {
	Rate  decimal.Decimal `json:"rate"`
	Sales money.Money     `json:"sales"`
	Total money.Money     `json:"total"`
}

// Withholding is the creditable withholding tax block.
type Withholding struct {
	Rate  decimal.Decimal `json:"rate"`
	Total money.Money     `json:"total"`
}

// Breakdown is the reconciled tax computation of one invoice.
type Breakdown struct {
	TotalSales     money.Money   `json:"total_sales"`
	Discount       Discount      `json:"discount"`
	NetReceivable  money.Money   `json:"net_receivable"`
	TotalAmountDue money.Money   `json:"total_amount_due"`
	VAT            VAT           `json:"vat"`
	PercentageTax  PercentageTax `json:"percentage_tax"`
	Withholding    Withholding   `json:"withholding"`
}

// Validate checks the configuration part of the input.
func (in Input) Validate() error {
	if _, err := domain.ParseVATType(string(in.VATType)); err != nil {
		return err
	}
	if _, err := domain.ParseVATSubtype(string(in.VATSubtype)); err != nil {
		return err
	}
	if err := checkRate("vat_rate", in.VATRate); err != nil {
		return err
	}
	if err := checkRate("percentage_tax_rate", in.PercentageTaxRate); err != nil {
		return err
	}
	if err := checkRate("withholding_tax_rate", in.WithholdingRate); err != nil {
		return err
	}
	if in.OtherDiscount.IsNegative() {
		return domain.NewFieldError("other_discount", "must not be negative")
	}
	return nil
}

// checkRate keeps rates within [0, 1]; this also rules out the -100% VAT
// rate that would zero the (1 + rate) divisor.
func checkRate(field string, r decimal.Decimal) error {
	if r.IsNegative() || r.GreaterThan(one) {
		return domain.NewFieldError(field, fmt.Sprintf("rate %s must be between 0 and 1", r.String()))
	}
	return nil
}

// Compute derives the full breakdown. Intermediate values keep full
// precision; every monetary output is rounded to two places at the end.
func Compute(in Input) (Breakdown, error) {
	if err := in.Validate(); err != nil {
		return Breakdown{}, err
	}
	cur := in.Currency
	subtype, _ := domain.ParseVATSubtype(string(in.VATSubtype))
	zero := money.Zero(cur)

	vatRate, ptRate := decimal.Zero, decimal.Zero
	if in.VATType == domain.VATRegistered {
		vatRate = in.VATRate
	} else {
		ptRate = in.PercentageTaxRate
	}

	b := Breakdown{
		TotalSales:     zero,
		Discount:       Discount{SeniorCitizenPWD: zero, Other: zero, Total: zero},
		NetReceivable:  zero,
		TotalAmountDue: zero,
		VAT: VAT{
			Rate: vatRate, Subtype: subtype, Inclusive: in.VATInclusive,
			Total: zero, VATableSales: zero, ExemptSales: zero, ZeroRatedSales: zero,
			TotalSalesVATInclusive: zero,
		},
		PercentageTax: PercentageTax{Rate: ptRate, Sales: zero, Total: zero},
		Withholding:   Withholding{Rate: in.WithholdingRate, Total: zero},
	}
	if len(in.LineAmounts) == 0 {
		return b, nil
	}

	totalSales, err := money.Sum(cur, in.LineAmounts...)
	if err != nil {
		return Breakdown{}, err
	}
	other := in.OtherDiscount
	if other.IsZero() {
		other = zero
	}
	netSales, err := totalSales.Sub(other)
	if err != nil {
		return Breakdown{}, err
	}

	inclusive := in.VATType == domain.VATRegistered && in.VATInclusive
	vatDivisor := one.Add(vatRate)

	scPwd := zero
	if in.SCPWDEligible {
		if inclusive {
			base, err := netSales.Div(vatDivisor)
			if err != nil {
				return Breakdown{}, err
			}
			scPwd = base.Mul(SCPWDDiscountRate)
		} else {
			scPwd = netSales.Mul(SCPWDDiscountRate)
		}
	}
	totalDiscount, _ := scPwd.Add(other)

	b.TotalSales = totalSales
	b.Discount = Discount{SeniorCitizenPWD: scPwd, Other: other, Total: totalDiscount}

	switch in.VATType {
	case domain.NonVAT:
		salesLessSCPWD, _ := netSales.Sub(scPwd)
		wht := netSales.Mul(in.WithholdingRate)
		pt := salesLessSCPWD.Mul(ptRate)
		netReceivable, _ := netSales.Sub(wht)
		netReceivable, _ = netReceivable.Sub(pt)
		amountDue, _ := netSales.Sub(wht)

		b.PercentageTax.Sales = netSales
		if !scPwd.IsZero() {
			b.PercentageTax.Sales = salesLessSCPWD
		}
		b.PercentageTax.Total = pt
		b.Withholding.Total = wht
		b.NetReceivable = netReceivable
		b.TotalAmountDue = amountDue

	case domain.VATRegistered:
		var base money.Money
		switch subtype {
		case domain.VATExempt, domain.VATZeroRated:
			base, _ = netSales.Sub(scPwd)
			if subtype == domain.VATExempt {
				b.VAT.ExemptSales = netSales
			} else {
				b.VAT.ZeroRatedSales = netSales
			}
			// No VAT is levied, so the exclusive total is the discounted base.
			b.VAT.TotalSalesVATInclusive = base
			if in.VATInclusive {
				b.VAT.TotalSalesVATInclusive = netSales
			}
		case domain.VATStandard:
			if in.VATInclusive {
				if base, err = netSales.Div(vatDivisor); err != nil {
					return Breakdown{}, err
				}
				b.VAT.ExemptSales = scPwd
				b.VAT.VATableSales, _ = base.Sub(scPwd)
				b.VAT.Total = b.VAT.VATableSales.Mul(vatRate)
				b.VAT.TotalSalesVATInclusive = netSales
			} else {
				base, _ = netSales.Sub(scPwd)
				b.VAT.VATableSales = base
				b.VAT.Total = base.Mul(vatRate)
				b.VAT.TotalSalesVATInclusive, _ = base.Add(b.VAT.Total)
			}
		default:
			return Breakdown{}, domain.NewFieldError("vat_subtype", fmt.Sprintf("unhandled VAT subtype %q", subtype))
		}
		wht := base.Mul(in.WithholdingRate)
		b.Withholding.Total = wht
		b.NetReceivable, _ = base.Sub(wht)
		b.TotalAmountDue, _ = b.VAT.TotalSalesVATInclusive.Sub(wht)

	default:
		return Breakdown{}, domain.NewFieldError("vat_type", fmt.Sprintf("unhandled VAT type %q", in.VATType))
	}

	return b.rounded(), nil
}

func (b Breakdown) rounded() Breakdown {
	r := func(m money.Money) money.Money { return m.Round(2) }
	b.TotalSales = r(b.TotalSales)
	b.Discount.SeniorCitizenPWD = r(b.Discount.SeniorCitizenPWD)
	b.Discount.Other = r(b.Discount.Other)
	b.Discount.Total = r(b.Discount.Total)
	b.NetReceivable = r(b.NetReceivable)
	b.TotalAmountDue = r(b.TotalAmountDue)
	b.VAT.Total = r(b.VAT.Total)
	b.VAT.VATableSales = r(b.VAT.VATableSales)
	b.VAT.ExemptSales = r(b.VAT.ExemptSales)
	b.VAT.ZeroRatedSales = r(b.VAT.ZeroRatedSales)
	b.VAT.TotalSalesVATInclusive = r(b.VAT.TotalSalesVATInclusive)
	b.PercentageTax.Sales = r(b.PercentageTax.Sales)
	b.PercentageTax.Total = r(b.PercentageTax.Total)
	b.Withholding.Total = r(b.Withholding.Total)
	return b
}
