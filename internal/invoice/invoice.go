package invoice

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jedlsf/buwis-friend/internal/domain"
	"github.com/jedlsf/buwis-friend/internal/money"
	"github.com/jedlsf/buwis-friend/internal/tax"
)

var now = func() time.Time { return time.Now().UTC() }

// OrderLine is one billed item. Amount is trusted as given and is never
// re-derived from quantity and unit price, but it is held to centavos so a
// serialised invoice parses back to the same breakdown.
type OrderLine struct {
	Label     string          `json:"label"`
	Quantity  decimal.Decimal `json:"quantity"`
	Unit      string          `json:"unit"`
	UnitPrice money.Money     `json:"unit_price"`
	Amount    money.Money     `json:"amount"`
}

// NewLine builds a line whose amount is quantity × unit price.
func NewLine(label string, quantity decimal.Decimal, unit string, unitPrice money.Money) OrderLine {
	return OrderLine{
		Label:     label,
		Quantity:  quantity,
		Unit:      unit,
		UnitPrice: unitPrice,
		Amount:    unitPrice.Mul(quantity).Round(2),
	}
}

// Settings are the per-invoice tax switches.
type Settings struct {
	VATType           domain.VATType    `json:"vat_type"`
	VATRate           decimal.Decimal   `json:"vat_rate"`
	VATSubtype        domain.VATSubtype `json:"vat_subtype"`
	VATInclusive      bool              `json:"vat_inclusive"`
	PercentageTaxRate decimal.Decimal   `json:"percentage_tax_rate"`
	WithholdingRate   decimal.Decimal   `json:"withholding_tax_rate"`
}

// DefaultSettings is a non-VAT issuer at the statutory rates with no withholding.
func DefaultSettings() Settings {
	return Settings{
		VATType:           domain.NonVAT,
		VATRate:           tax.DefaultVATRate,
		VATSubtype:        domain.VATStandard,
		VATInclusive:      true,
		PercentageTaxRate: tax.DefaultPercentageTaxRate,
		WithholdingRate:   decimal.Zero,
	}
}

// Metadata carries bookkeeping timestamps and free-form notes.
type Metadata struct {
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Notes     string    `json:"notes,omitempty"`
}

// Params is the input to New.
type Params struct {
	ID            uuid.UUID
	Number        string
	IssuedAt      time.Time
	Currency      string
	Customer      domain.LegalEntity
	Issuer        domain.LegalEntity
	Payment       domain.PaymentInfo
	Settings      Settings
	Lines         []OrderLine
	OtherDiscount money.Money
	Notes         string
}

// Invoice is a digital sales invoice with an always-current tax breakdown.
// It is not safe for concurrent mutation.
type Invoice struct {
	id            uuid.UUID
	number        string
	issuedAt      time.Time
	currency      string
	customer      domain.LegalEntity
	issuer        domain.LegalEntity
	payment       domain.PaymentInfo
	settings      Settings
	lines         []OrderLine
	otherDiscount money.Money
	breakdown     tax.Breakdown
	metadata      Metadata
}

// New validates p and computes the initial breakdown. A nil ID is replaced
// with a fresh one.
func New(p Params) (*Invoice, error) {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	ts := now()
	inv := &Invoice{
		id:            p.ID,
		number:        strings.TrimSpace(p.Number),
		issuedAt:      p.IssuedAt,
		currency:      money.Zero(p.Currency).Currency(),
		customer:      p.Customer,
		issuer:        p.Issuer,
		payment:       p.Payment,
		settings:      p.Settings,
		lines:         centavoLines(p.Lines),
		otherDiscount: p.OtherDiscount.Round(2),
		metadata:      Metadata{CreatedAt: ts, UpdatedAt: ts, Notes: p.Notes},
	}
	if err := inv.validate(); err != nil {
		return nil, err
	}
	if err := inv.recompute(); err != nil {
		return nil, err
	}
	return inv, nil
}

func (inv *Invoice) validate() error {
	if inv.number == "" {
		return domain.NewFieldError("number", "is required")
	}
	if inv.issuedAt.IsZero() {
		return domain.NewFieldError("issued_at", "is required")
	}
	if err := inv.customer.Validate("customer"); err != nil {
		return err
	}
	if err := inv.issuer.Validate("issuer"); err != nil {
		return err
	}
	if err := inv.payment.Validate(); err != nil {
		return err
	}
	return validateLines(inv.lines)
}

func centavoLines(lines []OrderLine) []OrderLine {
	out := make([]OrderLine, len(lines))
	for i, l := range lines {
		l.Amount = l.Amount.Round(2)
		out[i] = l
	}
	return out
}

func validateLines(lines []OrderLine) error {
	for i, l := range lines {
		if strings.TrimSpace(l.Label) == "" {
			return domain.NewFieldError(fmt.Sprintf("order.lines[%d].label", i), "is required")
		}
	}
	return nil
}

func (inv *Invoice) taxInput() tax.Input {
	amounts := make([]money.Money, len(inv.lines))
	for i, l := range inv.lines {
		amounts[i] = l.Amount
	}
	return tax.Input{
		Currency:          inv.currency,
		LineAmounts:       amounts,
		OtherDiscount:     inv.otherDiscount,
		SCPWDEligible:     inv.customer.EligibleForSCPWD(),
		VATType:           inv.settings.VATType,
		VATRate:           inv.settings.VATRate,
		VATSubtype:        inv.settings.VATSubtype,
		VATInclusive:      inv.settings.VATInclusive,
		PercentageTaxRate: inv.settings.PercentageTaxRate,
		WithholdingRate:   inv.settings.WithholdingRate,
	}
}

func (inv *Invoice) recompute() error {
	b, err := tax.Compute(inv.taxInput())
	if err != nil {
		return fmt.Errorf("invoice %s: %w", inv.number, err)
	}
	inv.breakdown = b
	return nil
}

// Clone returns a deep copy.
func (inv *Invoice) Clone() *Invoice {
	c := *inv
	c.lines = append([]OrderLine(nil), inv.lines...)
	return &c
}

// mutate applies fn to a copy and recomputes it, committing only on success.
func (inv *Invoice) mutate(fn func(next *Invoice) error) error {
	next := inv.Clone()
	if err := fn(next); err != nil {
		return err
	}
	if err := next.recompute(); err != nil {
		return err
	}
	next.metadata.UpdatedAt = now()
	*inv = *next
	return nil
}

func (inv *Invoice) ID() uuid.UUID                { return inv.id }
func (inv *Invoice) Number() string               { return inv.number }
func (inv *Invoice) IssuedAt() time.Time          { return inv.issuedAt }
func (inv *Invoice) Currency() string             { return inv.currency }
func (inv *Invoice) Customer() domain.LegalEntity { return inv.customer }
func (inv *Invoice) Issuer() domain.LegalEntity   { return inv.issuer }
func (inv *Invoice) Payment() domain.PaymentInfo  { return inv.payment }
func (inv *Invoice) Settings() Settings           { return inv.settings }
func (inv *Invoice) VATType() domain.VATType      { return inv.settings.VATType }
func (inv *Invoice) OtherDiscount() money.Money   { return inv.otherDiscount }
func (inv *Invoice) Breakdown() tax.Breakdown     { return inv.breakdown }
func (inv *Invoice) Metadata() Metadata           { return inv.metadata }
func (inv *Invoice) Lines() []OrderLine           { return append([]OrderLine(nil), inv.lines...) }
func (inv *Invoice) TaxInput() tax.Input          { return inv.taxInput() }

func (inv *Invoice) touch() { inv.metadata.UpdatedAt = now() }

// SetNotes replaces the free-form notes.
func (inv *Invoice) SetNotes(notes string) {
	inv.metadata.Notes = notes
	inv.touch()
}

// Setters below change the breakdown inputs and recompute it.

func (inv *Invoice) SetLines(lines []OrderLine) error {
	return inv.mutate(func(next *Invoice) error {
		if err := validateLines(lines); err != nil {
			return err
		}
		next.lines = centavoLines(lines)
		return nil
	})
}

func (inv *Invoice) AddLine(line OrderLine) error {
	return inv.SetLines(append(inv.Lines(), line))
}

func (inv *Invoice) RemoveLine(index int) error {
	if index < 0 || index >= len(inv.lines) {
		return domain.NewFieldError("order.lines", fmt.Sprintf("index %d out of range", index))
	}
	lines := inv.Lines()
	return inv.SetLines(append(lines[:index], lines[index+1:]...))
}

func (inv *Invoice) SetOtherDiscount(amount money.Money) error {
	return inv.mutate(func(next *Invoice) error {
		next.otherDiscount = amount.Round(2)
		return nil
	})
}

// SetCustomer recomputes because SC/PWD eligibility depends on the customer.
func (inv *Invoice) SetCustomer(customer domain.LegalEntity) error {
	return inv.mutate(func(next *Invoice) error {
		if err := customer.Validate("customer"); err != nil {
			return err
		}
		next.customer = customer
		return nil
	})
}

func (inv *Invoice) SetSettings(s Settings) error {
	return inv.mutate(func(next *Invoice) error {
		next.settings = s
		return nil
	})
}

func (inv *Invoice) SetVATType(t domain.VATType) error {
	return inv.mutate(func(next *Invoice) error {
		next.settings.VATType = t
		return nil
	})
}

func (inv *Invoice) SetVATRate(rate decimal.Decimal) error {
	return inv.mutate(func(next *Invoice) error {
		next.settings.VATRate = rate
		return nil
	})
}

func (inv *Invoice) SetVATSubtype(st domain.VATSubtype) error {
	return inv.mutate(func(next *Invoice) error {
		next.settings.VATSubtype = st
		return nil
	})
}

func (inv *Invoice) SetVATInclusive(inclusive bool) error {
	return inv.mutate(func(next *Invoice) error {
		next.settings.VATInclusive = inclusive
		return nil
	})
}

func (inv *Invoice) SetPercentageTaxRate(rate decimal.Decimal) error {
	return inv.mutate(func(next *Invoice) error {
		next.settings.PercentageTaxRate = rate
		return nil
	})
}

func (inv *Invoice) SetWithholdingRate(rate decimal.Decimal) error {
	return inv.mutate(func(next *Invoice) error {
		next.settings.WithholdingRate = rate
		return nil
	})
}

// ApplyRates overwrites the rate-related settings shared by a filing session.
func (inv *Invoice) ApplyRates(vatRate decimal.Decimal, subtype domain.VATSubtype, ptRate decimal.Decimal) error {
	cur := inv.settings
	if cur.VATRate.Equal(vatRate) && cur.VATSubtype == subtype && cur.PercentageTaxRate.Equal(ptRate) {
		return nil
	}
	return inv.mutate(func(next *Invoice) error {
		next.settings.VATRate = vatRate
		next.settings.VATSubtype = subtype
		next.settings.PercentageTaxRate = ptRate
		return nil
	})
}

// Descriptive setters leave the breakdown untouched.

func (inv *Invoice) SetNumber(number string) error {
	number = strings.TrimSpace(number)
	if number == "" {
		return domain.NewFieldError("number", "is required")
	}
	inv.number = number
	inv.touch()
	return nil
}

func (inv *Invoice) SetIssuedAt(t time.Time) error {
	if t.IsZero() {
		return domain.NewFieldError("issued_at", "is required")
	}
	inv.issuedAt = t
	inv.touch()
	return nil
}

func (inv *Invoice) SetIssuer(issuer domain.LegalEntity) error {
	if err := issuer.Validate("issuer"); err != nil {
		return err
	}
	inv.issuer = issuer
	inv.touch()
	return nil
}

func (inv *Invoice) SetPayment(p domain.PaymentInfo) error {
	if err := p.Validate(); err != nil {
		return err
	}
	inv.payment = p
	inv.touch()
	return nil
}
