package filing

import (
	"github.com/jedlsf/buwis-friend/internal/calendar"
	"github.com/jedlsf/buwis-friend/internal/domain"
	"github.com/jedlsf/buwis-friend/internal/invoice"
	"github.com/jedlsf/buwis-friend/internal/money"
	"github.com/jedlsf/buwis-friend/internal/tax"
)

// Header identifies whose period a summary covers.
type Header struct {
	Taxpayer domain.LegalEntity `json:"taxpayer"`
	UserID   string             `json:"user_id"`
	Period   calendar.Period    `json:"period"`
	Currency string             `json:"currency"`
}

// VATTotals pools the VAT blocks of VAT-registered invoices.
type VATTotals struct {
	VATableSales           money.Money `json:"vatable_sales"`
	ExemptSales            money.Money `json:"exempt_sales"`
	ZeroRatedSales         money.Money `json:"zero_rated_sales"`
	Total                  money.Money `json:"total"`
	TotalSalesVATInclusive money.Money `json:"total_sales_vat_inclusive"`
}

// PercentageTaxTotals pools the percentage tax blocks of non-VAT invoices.
type PercentageTaxTotals struct {
	Sales money.Money `json:"sales"`
	Total money.Money `json:"total"`
}

// Summary is the derived quarterly report of a filing session.
type Summary struct {
	Header
	Regime       domain.IncomeTaxRegime `json:"income_tax_regime"`
	InvoiceCount int                    `json:"invoice_count"`

	GrossSales     money.Money         `json:"gross_sales"`
	Discounts      tax.Discount        `json:"discounts"`
	NetSales       money.Money         `json:"net_sales"`
	VAT            VATTotals           `json:"vat"`
	PercentageTax  PercentageTaxTotals `json:"percentage_tax"`
	WithholdingTax money.Money         `json:"withholding_tax"`
	NetReceivable  money.Money         `json:"net_receivable"`
	TotalAmountDue money.Money         `json:"total_amount_due"`

	NetIncomeBeforeTax money.Money `json:"net_income_before_tax"`
	IncomeTaxDue       money.Money `json:"income_tax_due"`
	NetIncomeAfterTax  money.Money `json:"net_income_after_tax"`
}

// accumulator sums money in a single currency and remembers the first error.
type accumulator struct {
	err error
}

func (a *accumulator) add(into *money.Money, v money.Money) {
	if a.err != nil {
		return
	}
	sum, err := into.Add(v)
	if err != nil {
		a.err = err
		return
	}
	*into = sum
}

func emptySummary(h Header, regime domain.IncomeTaxRegime) Summary {
	z := money.Zero(h.Currency)
	h.Currency = z.Currency()
	return Summary{
		Header:             h,
		Regime:             regime,
		GrossSales:         z,
		Discounts:          tax.Discount{SeniorCitizenPWD: z, Other: z, Total: z},
		NetSales:           z,
		VAT:                VATTotals{VATableSales: z, ExemptSales: z, ZeroRatedSales: z, Total: z, TotalSalesVATInclusive: z},
		PercentageTax:      PercentageTaxTotals{Sales: z, Total: z},
		WithholdingTax:     z,
		NetReceivable:      z,
		TotalAmountDue:     z,
		NetIncomeBeforeTax: z,
		IncomeTaxDue:       z,
		NetIncomeAfterTax:  z,
	}
}

// Aggregate folds the breakdowns of invoices issued within h.Period into a
// Summary. Invoices outside the period are skipped. The income tax base is
// the pooled net receivable under the graduated regime and pooled net sales
// under the flat 8% option.
func Aggregate(h Header, invoices []*invoice.Invoice, regime domain.IncomeTaxRegime) (Summary, error) {
	regime, err := domain.ParseIncomeTaxRegime(string(regime))
	if err != nil {
		return Summary{}, err
	}
	s := emptySummary(h, regime)
	acc := &accumulator{}

	for _, inv := range invoices {
		if !h.Period.Contains(inv.IssuedAt()) {
			continue
		}
		b := inv.Breakdown()
		s.InvoiceCount++
		acc.add(&s.GrossSales, b.TotalSales)
		acc.add(&s.Discounts.SeniorCitizenPWD, b.Discount.SeniorCitizenPWD)
		acc.add(&s.Discounts.Other, b.Discount.Other)
		acc.add(&s.Discounts.Total, b.Discount.Total)
		acc.add(&s.WithholdingTax, b.Withholding.Total)
		acc.add(&s.NetReceivable, b.NetReceivable)
		acc.add(&s.TotalAmountDue, b.TotalAmountDue)

		switch inv.VATType() {
		case domain.VATRegistered:
			acc.add(&s.VAT.VATableSales, b.VAT.VATableSales)
			acc.add(&s.VAT.ExemptSales, b.VAT.ExemptSales)
			acc.add(&s.VAT.ZeroRatedSales, b.VAT.ZeroRatedSales)
			acc.add(&s.VAT.Total, b.VAT.Total)
			acc.add(&s.VAT.TotalSalesVATInclusive, b.VAT.TotalSalesVATInclusive)
		case domain.NonVAT:
			acc.add(&s.PercentageTax.Sales, b.PercentageTax.Sales)
			acc.add(&s.PercentageTax.Total, b.PercentageTax.Total)
		}
	}
	if acc.err != nil {
		return Summary{}, acc.err
	}

	s.NetSales, err = s.GrossSales.Sub(s.Discounts.Total)
	if err != nil {
		return Summary{}, err
	}

	switch regime {
	case domain.RegimeFlat8:
		s.NetIncomeBeforeTax = s.NetSales
	default:
		s.NetIncomeBeforeTax = s.NetReceivable
	}
	if s.IncomeTaxDue, err = tax.IncomeTax(s.NetIncomeBeforeTax, regime); err != nil {
		return Summary{}, err
	}
	if s.NetIncomeAfterTax, err = s.NetIncomeBeforeTax.Sub(s.IncomeTaxDue); err != nil {
		return Summary{}, err
	}
	return s, nil
}
