package validator

import (
	"context"

	"github.com/rs/zerolog"
)

// Status is the overall outcome of a reconciliation run.
type Status string

const (
	StatusValid   Status = "valid"
	StatusWarning Status = "warning"
	StatusInvalid Status = "invalid"
)

// Finding is a failed result tagged with the rule and invoice it came from.
type Finding struct {
	InvoiceNumber string   `json:"invoice_number"`
	RuleKey       string   `json:"rule_key"`
	RuleName      string   `json:"rule_name"`
	Severity      Severity `json:"severity"`
	Result
}

// Report summarises a reconciliation run.
type Report struct {
	Status   Status    `json:"status"`
	Checked  int       `json:"checked"`
	Findings []Finding `json:"findings"`
}

// Engine runs every registered rule over imported invoices. Findings are
// reported, never enforced.
type Engine struct {
	registry *Registry
	logger   zerolog.Logger
}

// NewEngine creates a new reconciliation engine.
func NewEngine(registry *Registry, logger zerolog.Logger) *Engine {
	return &Engine{registry: registry, logger: logger}
}

// Reconcile checks each subject against all rules.
func (e *Engine) Reconcile(ctx context.Context, subjects []Subject) Report {
	report := Report{Status: StatusValid, Findings: []Finding{}}
	hasError, hasWarning := false, false

	for i := range subjects {
		s := &subjects[i]
		if s.Invoice == nil || s.Stored == nil {
			continue
		}
		report.Checked++
		for _, v := range e.registry.All() {
			for _, r := range v.Validate(ctx, s) {
				if r.Passed {
					continue
				}
				report.Findings = append(report.Findings, Finding{
					InvoiceNumber: s.Invoice.Number(),
					RuleKey:       v.RuleKey(),
					RuleName:      v.RuleName(),
					Severity:      v.Severity(),
					Result:        r,
				})
				if v.Severity() == SeverityError {
					hasError = true
				} else {
					hasWarning = true
				}
			}
		}
	}

	switch {
	case hasError:
		report.Status = StatusInvalid
	case hasWarning:
		report.Status = StatusWarning
	}

	for _, f := range report.Findings {
		e.logger.Warn().
			Str("invoice", f.InvoiceNumber).
			Str("rule", f.RuleKey).
			Str("field", f.FieldPath).
			Str("expected", f.ExpectedValue).
			Str("actual", f.ActualValue).
			Msg("reconciliation mismatch")
	}
	e.logger.Debug().Int("checked", report.Checked).Int("findings", len(report.Findings)).
		Str("status", string(report.Status)).Msg("reconciliation finished")
	return report
}
