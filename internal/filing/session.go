// Package filing models a quarterly filing session: the invoices issued in
// one period and the summary derived from them.
package filing

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jedlsf/buwis-friend/internal/calendar"
	"github.com/jedlsf/buwis-friend/internal/domain"
	"github.com/jedlsf/buwis-friend/internal/invoice"
	"github.com/jedlsf/buwis-friend/internal/money"
	"github.com/jedlsf/buwis-friend/internal/tax"
)

var now = func() time.Time { return time.Now().UTC() }

// TaxConfig is the rate snapshot applied to every invoice of a session.
type TaxConfig struct {
	VATRate           decimal.Decimal        `json:"vat_rate"`
	VATSubtype        domain.VATSubtype      `json:"vat_subtype"`
	PercentageTaxRate decimal.Decimal        `json:"percentage_tax_rate"`
	Regime            domain.IncomeTaxRegime `json:"income_tax_regime"`
}

// DefaultTaxConfig returns the statutory rates under the graduated regime.
func DefaultTaxConfig() TaxConfig {
	return TaxConfig{
		VATRate:           tax.DefaultVATRate,
		VATSubtype:        domain.VATStandard,
		PercentageTaxRate: tax.DefaultPercentageTaxRate,
		Regime:            domain.RegimeGraduated,
	}
}

// Validate checks rates and enums. Empty subtype and regime take their defaults.
func (c *TaxConfig) Validate() error {
	st, err := domain.ParseVATSubtype(string(c.VATSubtype))
	if err != nil {
		return err
	}
	regime, err := domain.ParseIncomeTaxRegime(string(c.Regime))
	if err != nil {
		return err
	}
	for field, r := range map[string]decimal.Decimal{"vat_rate": c.VATRate, "percentage_tax_rate": c.PercentageTaxRate} {
		if r.IsNegative() || r.GreaterThan(decimal.NewFromInt(1)) {
			return domain.NewFieldError(field, fmt.Sprintf("rate %s must be between 0 and 1", r))
		}
	}
	c.VATSubtype, c.Regime = st, regime
	return nil
}

// Metadata carries bookkeeping timestamps.
type Metadata struct {
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Params is the input to NewSession.
type Params struct {
	ID       uuid.UUID
	UserID   string
	Taxpayer domain.LegalEntity
	Period   calendar.Period
	Currency string
	Config   TaxConfig
}

// Session holds the invoices of one taxpayer for one quarter. Every mutation
// rebuilds the summary before returning and either applies fully or not at
// all. It is not safe for concurrent mutation.
type Session struct {
	id       uuid.UUID
	userID   string
	taxpayer domain.LegalEntity
	period   calendar.Period
	start    time.Time
	end      time.Time
	currency string
	config   TaxConfig
	invoices []*invoice.Invoice
	summary  Summary
	metadata Metadata
}

// NewSession validates p and returns an empty session.
func NewSession(p Params) (*Session, error) {
	if strings.TrimSpace(p.UserID) == "" {
		return nil, domain.NewFieldError("user_id", "is required")
	}
	if err := p.Taxpayer.Validate("taxpayer"); err != nil {
		return nil, err
	}
	start, end, err := p.Period.Range()
	if err != nil {
		return nil, err
	}
	if err := p.Config.Validate(); err != nil {
		return nil, err
	}
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	ts := now()
	s := &Session{
		id:       p.ID,
		userID:   p.UserID,
		taxpayer: p.Taxpayer,
		period:   p.Period,
		start:    start,
		end:      end,
		currency: money.Zero(p.Currency).Currency(),
		config:   p.Config,
		metadata: Metadata{CreatedAt: ts, UpdatedAt: ts},
	}
	if err := s.rebuild(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Session) ID() uuid.UUID                { return s.id }
func (s *Session) UserID() string               { return s.userID }
func (s *Session) Taxpayer() domain.LegalEntity { return s.taxpayer }
func (s *Session) Period() calendar.Period      { return s.period }
func (s *Session) Currency() string             { return s.currency }
func (s *Session) Config() TaxConfig            { return s.config }
func (s *Session) Summary() Summary             { return s.summary }
func (s *Session) Metadata() Metadata           { return s.metadata }
func (s *Session) Len() int                     { return len(s.invoices) }

// PeriodRange returns the inclusive bounds of the session's quarter.
func (s *Session) PeriodRange() (time.Time, time.Time) { return s.start, s.end }

// Invoices returns copies of the invoices ordered by issue date.
func (s *Session) Invoices() []*invoice.Invoice {
	out := make([]*invoice.Invoice, len(s.invoices))
	for i, inv := range s.invoices {
		out[i] = inv.Clone()
	}
	return out
}

// Invoice returns a copy of the invoice with number.
func (s *Session) Invoice(number string) (*invoice.Invoice, error) {
	if i := s.indexOf(number); i >= 0 {
		return s.invoices[i].Clone(), nil
	}
	return nil, fmt.Errorf("invoice %q: %w", number, domain.ErrNotFound)
}

func (s *Session) header() Header {
	return Header{Taxpayer: s.taxpayer, UserID: s.userID, Period: s.period, Currency: s.currency}
}

// indexOf matches numbers the way invoice.New stores them, trimmed.
func (s *Session) indexOf(number string) int {
	number = strings.TrimSpace(number)
	for i, inv := range s.invoices {
		if inv.Number() == number {
			return i
		}
	}
	return -1
}

// admit checks an invoice against the period and prepares a session-owned copy
// carrying the session's rates.
func (s *Session) admit(inv *invoice.Invoice) (*invoice.Invoice, error) {
	if inv == nil {
		return nil, domain.NewFieldError("invoice", "is required")
	}
	issued := inv.IssuedAt()
	if issued.Before(s.start) || issued.After(s.end) {
		return nil, fmt.Errorf("invoice %s issued %s not in %s: %w",
			inv.Number(), issued.In(calendar.Manila).Format(time.RFC3339), s.period, domain.ErrPeriodMismatch)
	}
	if inv.Currency() != s.currency {
		return nil, fmt.Errorf("invoice %s in %s, session in %s: %w",
			inv.Number(), inv.Currency(), s.currency, money.ErrCurrencyMismatch)
	}
	c := inv.Clone()
	if err := c.ApplyRates(s.config.VATRate, s.config.VATSubtype, s.config.PercentageTaxRate); err != nil {
		return nil, err
	}
	return c, nil
}

// commit swaps in next and rebuilds. On failure the previous state is kept.
func (s *Session) commit(next []*invoice.Invoice, cfg TaxConfig) error {
	prevInvoices, prevConfig, prevSummary := s.invoices, s.config, s.summary
	sort.SliceStable(next, func(i, j int) bool {
		return next[i].IssuedAt().Before(next[j].IssuedAt())
	})
	s.invoices, s.config = next, cfg
	if err := s.rebuild(); err != nil {
		s.invoices, s.config, s.summary = prevInvoices, prevConfig, prevSummary
		return err
	}
	s.metadata.UpdatedAt = now()
	return nil
}

func (s *Session) rebuild() error {
	sum, err := Aggregate(s.header(), s.invoices, s.config.Regime)
	if err != nil {
		return err
	}
	s.summary = sum
	return nil
}

// AddInvoice adds one invoice.
func (s *Session) AddInvoice(inv *invoice.Invoice) error {
	return s.AddInvoices([]*invoice.Invoice{inv})
}

// AddInvoices adds a batch. A duplicate number, within the batch or against
// the session, or an out-of-period invoice rejects the whole batch.
func (s *Session) AddInvoices(batch []*invoice.Invoice) error {
	seen := make(map[string]struct{}, len(s.invoices)+len(batch))
	for _, inv := range s.invoices {
		seen[inv.Number()] = struct{}{}
	}
	next := append(make([]*invoice.Invoice, 0, len(s.invoices)+len(batch)), s.invoices...)
	for _, inv := range batch {
		c, err := s.admit(inv)
		if err != nil {
			return err
		}
		if _, dup := seen[c.Number()]; dup {
			return fmt.Errorf("invoice %s: %w", c.Number(), domain.ErrDuplicateInvoice)
		}
		seen[c.Number()] = struct{}{}
		next = append(next, c)
	}
	return s.commit(next, s.config)
}

// RemoveInvoice drops the invoice with number.
func (s *Session) RemoveInvoice(number string) error {
	i := s.indexOf(number)
	if i < 0 {
		return fmt.Errorf("invoice %q: %w", number, domain.ErrNotFound)
	}
	next := make([]*invoice.Invoice, 0, len(s.invoices)-1)
	next = append(next, s.invoices[:i]...)
	next = append(next, s.invoices[i+1:]...)
	return s.commit(next, s.config)
}

// ReplaceInvoice swaps the invoice with number for inv. inv may carry a new
// number as long as it does not collide with another invoice.
func (s *Session) ReplaceInvoice(number string, inv *invoice.Invoice) error {
	i := s.indexOf(number)
	if i < 0 {
		return fmt.Errorf("invoice %q: %w", number, domain.ErrNotFound)
	}
	c, err := s.admit(inv)
	if err != nil {
		return err
	}
	if j := s.indexOf(c.Number()); j >= 0 && j != i {
		return fmt.Errorf("invoice %s: %w", c.Number(), domain.ErrDuplicateInvoice)
	}
	next := append([]*invoice.Invoice(nil), s.invoices...)
	next[i] = c
	return s.commit(next, s.config)
}

// Clear removes every invoice.
func (s *Session) Clear() error {
	return s.commit(nil, s.config)
}

// SetTaxConfig applies cfg to every invoice and rebuilds the summary.
func (s *Session) SetTaxConfig(cfg TaxConfig) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	next := make([]*invoice.Invoice, len(s.invoices))
	for i, inv := range s.invoices {
		c := inv.Clone()
		if err := c.ApplyRates(cfg.VATRate, cfg.VATSubtype, cfg.PercentageTaxRate); err != nil {
			return err
		}
		next[i] = c
	}
	return s.commit(next, cfg)
}

// SetTaxpayer updates the identity shown on the summary.
func (s *Session) SetTaxpayer(taxpayer domain.LegalEntity) error {
	if err := taxpayer.Validate("taxpayer"); err != nil {
		return err
	}
	prev := s.taxpayer
	s.taxpayer = taxpayer
	if err := s.commit(s.invoices, s.config); err != nil {
		s.taxpayer = prev
		return err
	}
	return nil
}
