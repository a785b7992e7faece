package validator

import (
	"context"

	"github.com/jedlsf/buwis-friend/internal/invoice"
	"github.com/jedlsf/buwis-friend/internal/tax"
)

// Severity grades a failed rule.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Subject is one imported invoice: the freshly recomputed invoice and the
// breakdown that was stored alongside it, if any.
type Subject struct {
	Invoice *invoice.Invoice
	Stored  *tax.Breakdown
}

// Result is the outcome of one check on one field.
type Result struct {
	Passed        bool   `json:"passed"`
	FieldPath     string `json:"field_path"`
	ExpectedValue string `json:"expected_value"`
	ActualValue   string `json:"actual_value"`
	Message       string `json:"message"`
}

// Validator is a single reconciliation rule.
type Validator interface {
	Validate(ctx context.Context, s *Subject) []Result
	RuleKey() string
	RuleName() string
	Severity() Severity
}
