package validator

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/jedlsf/buwis-friend/internal/domain"
	"github.com/jedlsf/buwis-friend/internal/money"
	"github.com/jedlsf/buwis-friend/internal/tax"
)

var tolerance = decimal.RequireFromString("0.01")

// rule is a reconciliation check backed by a function.
type rule struct {
	ruleKey  string
	ruleName string
	severity Severity
	validate func(recomputed, stored tax.Breakdown, vatType domain.VATType) []Result
}

func (r *rule) RuleKey() string    { return r.ruleKey }
func (r *rule) RuleName() string   { return r.ruleName }
func (r *rule) Severity() Severity { return r.severity }

// Validate skips subjects without a stored breakdown; there is nothing to
// reconcile against.
func (r *rule) Validate(_ context.Context, s *Subject) []Result {
	if s == nil || s.Invoice == nil || s.Stored == nil {
		return nil
	}
	return r.validate(s.Invoice.Breakdown(), *s.Stored, s.Invoice.VATType())
}

func approxEqual(a, b money.Money) bool {
	return a.Currency() == b.Currency() && a.Amount().Sub(b.Amount()).Abs().LessThanOrEqual(tolerance)
}

func moneyResult(ruleName, fieldPath string, expected, actual money.Money) Result {
	passed := approxEqual(expected, actual)
	msg := fmt.Sprintf("%s: %s matches", ruleName, fieldPath)
	if !passed {
		msg = fmt.Sprintf("%s: %s mismatch (expected %s, got %s)", ruleName, fieldPath, expected, actual)
	}
	return Result{
		Passed: passed, FieldPath: fieldPath,
		ExpectedValue: expected.String(), ActualValue: actual.String(), Message: msg,
	}
}

func rateResult(ruleName, fieldPath string, expected, actual decimal.Decimal) Result {
	passed := expected.Equal(actual)
	msg := fmt.Sprintf("%s: %s matches", ruleName, fieldPath)
	if !passed {
		msg = fmt.Sprintf("%s: %s mismatch (expected %s, got %s)", ruleName, fieldPath, expected, actual)
	}
	return Result{
		Passed: passed, FieldPath: fieldPath,
		ExpectedValue: expected.String(), ActualValue: actual.String(), Message: msg,
	}
}

type field struct {
	path     string
	expected money.Money
	actual   money.Money
}

func compare(ruleName string, fields ...field) []Result {
	out := make([]Result, 0, len(fields))
	for _, f := range fields {
		out = append(out, moneyResult(ruleName, f.path, f.expected, f.actual))
	}
	return out
}

// BuiltinValidators returns every reconciliation rule.
func BuiltinValidators() []Validator {
	return []Validator{
		&rule{
			ruleKey: "recon.sales", ruleName: "Reconcile: Sales", severity: SeverityError,
			validate: func(r, s tax.Breakdown, _ domain.VATType) []Result {
				return compare("Reconcile: Sales",
					field{"breakdown.total_sales", r.TotalSales, s.TotalSales},
					field{"breakdown.net_receivable", r.NetReceivable, s.NetReceivable},
					field{"breakdown.total_amount_due", r.TotalAmountDue, s.TotalAmountDue},
				)
			},
		},
		&rule{
			ruleKey: "recon.discount", ruleName: "Reconcile: Discount", severity: SeverityError,
			validate: func(r, s tax.Breakdown, _ domain.VATType) []Result {
				return compare("Reconcile: Discount",
					field{"breakdown.discount.senior_citizen_pwd", r.Discount.SeniorCitizenPWD, s.Discount.SeniorCitizenPWD},
					field{"breakdown.discount.other", r.Discount.Other, s.Discount.Other},
					field{"breakdown.discount.total", r.Discount.Total, s.Discount.Total},
				)
			},
		},
		&rule{
			ruleKey: "recon.vat", ruleName: "Reconcile: VAT", severity: SeverityError,
			validate: func(r, s tax.Breakdown, _ domain.VATType) []Result {
				out := compare("Reconcile: VAT",
					field{"breakdown.vat.total", r.VAT.Total, s.VAT.Total},
					field{"breakdown.vat.vatable_sales", r.VAT.VATableSales, s.VAT.VATableSales},
					field{"breakdown.vat.exempt_sales", r.VAT.ExemptSales, s.VAT.ExemptSales},
					field{"breakdown.vat.zero_rated_sales", r.VAT.ZeroRatedSales, s.VAT.ZeroRatedSales},
					field{"breakdown.vat.total_sales_vat_inclusive", r.VAT.TotalSalesVATInclusive, s.VAT.TotalSalesVATInclusive},
				)
				return append(out, rateResult("Reconcile: VAT", "breakdown.vat.rate", r.VAT.Rate, s.VAT.Rate))
			},
		},
		&rule{
			ruleKey: "recon.percentage_tax", ruleName: "Reconcile: Percentage Tax", severity: SeverityError,
			validate: func(r, s tax.Breakdown, _ domain.VATType) []Result {
				out := compare("Reconcile: Percentage Tax",
					field{"breakdown.percentage_tax.sales", r.PercentageTax.Sales, s.PercentageTax.Sales},
					field{"breakdown.percentage_tax.total", r.PercentageTax.Total, s.PercentageTax.Total},
				)
				return append(out, rateResult("Reconcile: Percentage Tax", "breakdown.percentage_tax.rate", r.PercentageTax.Rate, s.PercentageTax.Rate))
			},
		},
		&rule{
			ruleKey: "recon.withholding", ruleName: "Reconcile: Withholding", severity: SeverityError,
			validate: func(r, s tax.Breakdown, _ domain.VATType) []Result {
				return []Result{
					moneyResult("Reconcile: Withholding", "breakdown.withholding.total", r.Withholding.Total, s.Withholding.Total),
					rateResult("Reconcile: Withholding", "breakdown.withholding.rate", r.Withholding.Rate, s.Withholding.Rate),
				}
			},
		},
		&rule{
			ruleKey: "identity.discount_total", ruleName: "Identity: Discount Total", severity: SeverityWarning,
			validate: func(_, s tax.Breakdown, _ domain.VATType) []Result {
				sum, err := s.Discount.SeniorCitizenPWD.Add(s.Discount.Other)
				if err != nil {
					return []Result{{
						FieldPath: "breakdown.discount.total",
						Message:   fmt.Sprintf("Identity: Discount Total: %v", err),
					}}
				}
				return []Result{moneyResult("Identity: Discount Total", "breakdown.discount.total", sum, s.Discount.Total)}
			},
		},
		&rule{
			ruleKey: "identity.active_block", ruleName: "Identity: Single Active Tax Block", severity: SeverityWarning,
			validate: func(_, s tax.Breakdown, vatType domain.VATType) []Result {
				var inactive []field
				rate := s.VAT.Rate
				path := "breakdown.vat"
				if vatType == domain.VATRegistered {
					rate, path = s.PercentageTax.Rate, "breakdown.percentage_tax"
					zero := money.Zero(s.PercentageTax.Total.Currency())
					inactive = []field{{path + ".total", zero, s.PercentageTax.Total}}
				} else {
					zero := money.Zero(s.VAT.Total.Currency())
					inactive = []field{
						{path + ".total", zero, s.VAT.Total},
						{path + ".vatable_sales", zero, s.VAT.VATableSales},
					}
				}
				out := compare("Identity: Single Active Tax Block", inactive...)
				return append(out, rateResult("Identity: Single Active Tax Block", path+".rate", decimal.Zero, rate))
			},
		},
	}
}
