package service_test

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jedlsf/buwis-friend/internal/domain"
	"github.com/jedlsf/buwis-friend/internal/metrics"
	"github.com/jedlsf/buwis-friend/internal/service"
)

func setupTaxService(t *testing.T) (service.TaxService, *metrics.Metrics) {
	t.Helper()
	m := metrics.New("test", prometheus.NewRegistry())
	return service.NewTaxService(testDefaults(t), m), m
}

func TestTaxService_ComputeBreakdown_NonVAT(t *testing.T) {
	svc, m := setupTaxService(t)

	b, err := svc.ComputeBreakdown(context.Background(), &service.BreakdownInput{
		VATType: "NON_VAT",
		Lines:   []service.LineInput{{Label: "Consulting", Quantity: decimal.NewFromInt(2), UnitPrice: decimal.NewFromInt(5000)}},
	})
	require.NoError(t, err)
	assert.Equal(t, "10000.00", b.TotalSales.StringFixed())
	assert.Equal(t, "300.00", b.PercentageTax.Total.StringFixed())
	assert.Equal(t, "9700.00", b.TotalAmountDue.StringFixed())
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Breakdowns.WithLabelValues("NON_VAT", "ok")))
}

func TestTaxService_ComputeBreakdown_VATWithSCPWD(t *testing.T) {
	svc, _ := setupTaxService(t)

	b, err := svc.ComputeBreakdown(context.Background(), &service.BreakdownInput{
		VATType:       "VAT",
		SCPWDEligible: true,
		Lines:         []service.LineInput{{Label: "Meds", Amount: dec("11200")}},
	})
	require.NoError(t, err)
	assert.Equal(t, "2000.00", b.Discount.SeniorCitizenPWD.StringFixed())
	assert.Equal(t, "960.00", b.VAT.Total.StringFixed())
	assert.True(t, b.PercentageTax.Total.IsZero())
}

func TestTaxService_ComputeBreakdown_Overrides(t *testing.T) {
	svc, _ := setupTaxService(t)
	exclusive := false

	b, err := svc.ComputeBreakdown(context.Background(), &service.BreakdownInput{
		VATType:      "VAT",
		VATInclusive: &exclusive,
		VATRate:      dec("0.10"),
		Lines:        []service.LineInput{{Label: "Goods", Amount: dec("1000")}},
	})
	require.NoError(t, err)
	assert.Equal(t, "100.00", b.VAT.Total.StringFixed())
}

func TestTaxService_ComputeBreakdown_Invalid(t *testing.T) {
	svc, m := setupTaxService(t)

	_, err := svc.ComputeBreakdown(context.Background(), &service.BreakdownInput{VATType: "MAYBE"})
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = svc.ComputeBreakdown(context.Background(), &service.BreakdownInput{VATType: "NON_VAT", WithholdingRate: dec("-0.01")})
	assert.ErrorIs(t, err, domain.ErrValidation)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Breakdowns.WithLabelValues("NON_VAT", "error")))
}

func TestTaxService_ComputeIncomeTax(t *testing.T) {
	svc, _ := setupTaxService(t)

	res, err := svc.ComputeIncomeTax(context.Background(), &service.IncomeTaxInput{Income: decimal.NewFromInt(500000)})
	require.NoError(t, err)
	assert.Equal(t, domain.RegimeGraduated, res.Regime)
	assert.Equal(t, "42500.00", res.IncomeTaxDue.StringFixed())
	assert.Equal(t, "457500.00", res.NetIncomeAfterTax.StringFixed())

	res, err = svc.ComputeIncomeTax(context.Background(), &service.IncomeTaxInput{Income: decimal.NewFromInt(500000), Regime: "flat_8"})
	require.NoError(t, err)
	assert.Equal(t, "20000.00", res.IncomeTaxDue.StringFixed())

	_, err = svc.ComputeIncomeTax(context.Background(), &service.IncomeTaxInput{Regime: "bogus"})
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestTaxService_Deadlines(t *testing.T) {
	svc, _ := setupTaxService(t)

	d, err := svc.Deadlines(context.Background(), 2024, 4)
	require.NoError(t, err)
	assert.Equal(t, "2025-01-25", d.PercentageTax)
	assert.Equal(t, "2025-04-15", d.IncomeTax)
	assert.Equal(t, []string{"2024-11-10", "2024-12-10", "2025-01-15"}, d.MonthlyWithholding)

	_, err = svc.Deadlines(context.Background(), 2024, 5)
	assert.ErrorIs(t, err, domain.ErrValidation)
}
