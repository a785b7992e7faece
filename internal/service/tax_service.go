package service

import (
	"context"

	"github.com/jedlsf/buwis-friend/internal/calendar"
	"github.com/jedlsf/buwis-friend/internal/domain"
	"github.com/jedlsf/buwis-friend/internal/metrics"
	"github.com/jedlsf/buwis-friend/internal/money"
	"github.com/jedlsf/buwis-friend/internal/tax"
)

// IncomeTaxResult is the outcome of an income tax computation.
type IncomeTaxResult struct {
	Regime            domain.IncomeTaxRegime `json:"income_tax_regime"`
	Income            money.Money            `json:"income"`
	IncomeTaxDue      money.Money            `json:"income_tax_due"`
	NetIncomeAfterTax money.Money            `json:"net_income_after_tax"`
}

// TaxService exposes the stateless computations.
type TaxService interface {
	ComputeBreakdown(ctx context.Context, input *BreakdownInput) (*tax.Breakdown, error)
	ComputeIncomeTax(ctx context.Context, input *IncomeTaxInput) (*IncomeTaxResult, error)
	Deadlines(ctx context.Context, year, quarter int) (*calendar.Deadlines, error)
}

type taxService struct {
	defaults Defaults
	metrics  *metrics.Metrics
}

// NewTaxService creates a new TaxService.
func NewTaxService(defaults Defaults, m *metrics.Metrics) TaxService {
	return &taxService{defaults: defaults, metrics: m}
}

func (s *taxService) ComputeBreakdown(_ context.Context, input *BreakdownInput) (b *tax.Breakdown, err error) {
	defer func() { s.metrics.ObserveBreakdown(input.VATType, err) }()

	currency := input.Currency
	if currency == "" {
		currency = s.defaults.Currency
	}
	currency = money.Zero(currency).Currency()

	in := tax.Input{
		Currency:          currency,
		OtherDiscount:     money.Zero(currency),
		SCPWDEligible:     input.SCPWDEligible,
		VATType:           domain.VATType(input.VATType),
		VATRate:           s.defaults.Config.VATRate,
		VATSubtype:        domain.VATStandard,
		VATInclusive:      true,
		PercentageTaxRate: s.defaults.Config.PercentageTaxRate,
		WithholdingRate:   s.defaults.WithholdingRate,
	}
	for _, l := range lines(input.Lines, currency) {
		in.LineAmounts = append(in.LineAmounts, l.Amount)
	}
	if input.OtherDiscount != nil {
		in.OtherDiscount = money.New(*input.OtherDiscount, currency)
	}
	if input.VATRate != nil {
		in.VATRate = *input.VATRate
	}
	if input.VATSubtype != "" {
		in.VATSubtype = domain.VATSubtype(input.VATSubtype)
	}
	if input.VATInclusive != nil {
		in.VATInclusive = *input.VATInclusive
	}
	if input.PercentageTaxRate != nil {
		in.PercentageTaxRate = *input.PercentageTaxRate
	}
	if input.WithholdingRate != nil {
		in.WithholdingRate = *input.WithholdingRate
	}

	out, err := tax.Compute(in)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *taxService) ComputeIncomeTax(_ context.Context, input *IncomeTaxInput) (*IncomeTaxResult, error) {
	regime, err := domain.ParseIncomeTaxRegime(input.Regime)
	if err != nil {
		return nil, err
	}
	currency := input.Currency
	if currency == "" {
		currency = s.defaults.Currency
	}
	income := money.New(input.Income, currency).Round(2)

	due, err := tax.IncomeTax(income, regime)
	if err != nil {
		return nil, err
	}
	after, err := income.Sub(due)
	if err != nil {
		return nil, err
	}
	return &IncomeTaxResult{Regime: regime, Income: income, IncomeTaxDue: due, NetIncomeAfterTax: after}, nil
}

func (s *taxService) Deadlines(_ context.Context, year, quarter int) (*calendar.Deadlines, error) {
	d, err := calendar.DeadlinesFor(calendar.Period{Year: year, Quarter: quarter})
	if err != nil {
		return nil, err
	}
	return &d, nil
}
