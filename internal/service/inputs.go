package service

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/jedlsf/buwis-friend/internal/config"
	"github.com/jedlsf/buwis-friend/internal/domain"
	"github.com/jedlsf/buwis-friend/internal/filing"
	"github.com/jedlsf/buwis-friend/internal/invoice"
	"github.com/jedlsf/buwis-friend/internal/money"
)

// Defaults are the rates and currency applied when a request leaves them out.
type Defaults struct {
	Currency        string
	Config          filing.TaxConfig
	WithholdingRate decimal.Decimal
}

// DefaultsFromConfig validates the configured tax defaults.
func DefaultsFromConfig(cfg config.TaxConfig) (Defaults, error) {
	tc := filing.TaxConfig{
		VATRate:           cfg.VATRate,
		VATSubtype:        domain.VATStandard,
		PercentageTaxRate: cfg.PercentageTaxRate,
		Regime:            domain.IncomeTaxRegime(cfg.Regime),
	}
	if err := tc.Validate(); err != nil {
		return Defaults{}, err
	}
	if cfg.WithholdingRate.IsNegative() || cfg.WithholdingRate.GreaterThan(decimal.NewFromInt(1)) {
		return Defaults{}, domain.NewFieldError("withholding_tax_rate", "rate must be between 0 and 1")
	}
	return Defaults{
		Currency:        money.Zero(cfg.Currency).Currency(),
		Config:          tc,
		WithholdingRate: cfg.WithholdingRate,
	}, nil
}

// EntityInput is the DTO for a taxpayer, customer or issuer.
type EntityInput struct {
	Name    string `json:"name" binding:"required"`
	TIN     string `json:"tin"`
	Address string `json:"address"`
	Contact string `json:"contact"`
	SCPWDID string `json:"sc_pwd_id"`
}

func (e EntityInput) entity() domain.LegalEntity {
	return domain.LegalEntity{Name: e.Name, TIN: e.TIN, Address: e.Address, Contact: e.Contact, SCPWDID: e.SCPWDID}
}

// LineInput is one billed item. Amount overrides quantity × unit price when set.
type LineInput struct {
	Label     string           `json:"label" binding:"required"`
	Quantity  decimal.Decimal  `json:"quantity"`
	Unit      string           `json:"unit"`
	UnitPrice decimal.Decimal  `json:"unit_price"`
	Amount    *decimal.Decimal `json:"amount"`
}

func (l LineInput) line(currency string) invoice.OrderLine {
	qty := l.Quantity
	if qty.IsZero() {
		qty = decimal.NewFromInt(1)
	}
	ol := invoice.NewLine(l.Label, qty, l.Unit, money.New(l.UnitPrice, currency))
	if l.Amount != nil {
		ol.Amount = money.New(*l.Amount, currency).Round(2)
	}
	return ol
}

func lines(in []LineInput, currency string) []invoice.OrderLine {
	out := make([]invoice.OrderLine, len(in))
	for i, l := range in {
		out[i] = l.line(currency)
	}
	return out
}

// PaymentInput is the DTO for invoice payment details.
type PaymentInput struct {
	Method    string `json:"method"`
	Reference string `json:"reference"`
	Terms     string `json:"terms"`
}

// InvoiceInput is the DTO for adding or replacing an invoice in a session.
// Missing issuer defaults to the session taxpayer; missing payment method to
// cash; missing VAT type to non-VAT.
type InvoiceInput struct {
	Number          string           `json:"number" binding:"required"`
	IssuedAt        time.Time        `json:"issued_at"`
	Customer        EntityInput      `json:"customer"`
	Issuer          *EntityInput     `json:"issuer"`
	Payment         PaymentInput     `json:"payment"`
	VATType         string           `json:"vat_type"`
	VATInclusive    *bool            `json:"vat_inclusive"`
	WithholdingRate *decimal.Decimal `json:"withholding_tax_rate"`
	Lines           []LineInput      `json:"lines" binding:"dive"`
	OtherDiscount   *decimal.Decimal `json:"other_discount"`
	Notes           string           `json:"notes"`
}

// TaxConfigInput is a partial update of a session's tax configuration.
type TaxConfigInput struct {
	VATRate           *decimal.Decimal `json:"vat_rate"`
	VATSubtype        string           `json:"vat_subtype"`
	PercentageTaxRate *decimal.Decimal `json:"percentage_tax_rate"`
	Regime            string           `json:"income_tax_regime"`
}

func (in TaxConfigInput) apply(base filing.TaxConfig) filing.TaxConfig {
	if in.VATRate != nil {
		base.VATRate = *in.VATRate
	}
	if in.VATSubtype != "" {
		base.VATSubtype = domain.VATSubtype(in.VATSubtype)
	}
	if in.PercentageTaxRate != nil {
		base.PercentageTaxRate = *in.PercentageTaxRate
	}
	if in.Regime != "" {
		base.Regime = domain.IncomeTaxRegime(in.Regime)
	}
	return base
}

// CreateSessionInput is the DTO for opening a filing session.
type CreateSessionInput struct {
	Taxpayer  EntityInput     `json:"taxpayer"`
	Year      int             `json:"year" binding:"required"`
	Quarter   int             `json:"quarter" binding:"required,min=1,max=4"`
	Currency  string          `json:"currency"`
	TaxConfig *TaxConfigInput `json:"tax_config"`
	Invoices  []InvoiceInput  `json:"invoices" binding:"dive"`
}

// BreakdownInput is the DTO for a stateless breakdown computation.
type BreakdownInput struct {
	Currency          string           `json:"currency"`
	Lines             []LineInput      `json:"lines" binding:"dive"`
	OtherDiscount     *decimal.Decimal `json:"other_discount"`
	SCPWDEligible     bool             `json:"sc_pwd_eligible"`
	VATType           string           `json:"vat_type" binding:"required"`
	VATRate           *decimal.Decimal `json:"vat_rate"`
	VATSubtype        string           `json:"vat_subtype"`
	VATInclusive      *bool            `json:"vat_inclusive"`
	PercentageTaxRate *decimal.Decimal `json:"percentage_tax_rate"`
	WithholdingRate   *decimal.Decimal `json:"withholding_tax_rate"`
}

// IncomeTaxInput is the DTO for an income tax computation.
type IncomeTaxInput struct {
	Income   decimal.Decimal `json:"income"`
	Currency string          `json:"currency"`
	Regime   string          `json:"income_tax_regime"`
}
