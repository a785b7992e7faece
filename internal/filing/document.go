package filing

import (
	"encoding/json"

	"github.com/google/uuid"

	"github.com/jedlsf/buwis-friend/internal/calendar"
	"github.com/jedlsf/buwis-friend/internal/domain"
	"github.com/jedlsf/buwis-friend/internal/invoice"
)

// Document is the canonical JSON projection of a Session.
type Document struct {
	ID       *uuid.UUID          `json:"id"`
	UserID   string              `json:"user_id"`
	Taxpayer *domain.LegalEntity `json:"taxpayer"`
	Period   *calendar.Period    `json:"period"`
	Currency string              `json:"currency"`
	Config   *TaxConfig          `json:"tax_config"`
	Metadata *Metadata           `json:"metadata"`
	Invoices *[]invoice.Document `json:"invoices"`
	Summary  *Summary            `json:"summary"`
}

// Document projects s.
func (s *Session) Document() Document {
	id := s.id
	taxpayer, period, cfg, meta, sum := s.taxpayer, s.period, s.config, s.metadata, s.summary
	docs := make([]invoice.Document, len(s.invoices))
	for i, inv := range s.invoices {
		docs[i] = inv.Document()
	}
	return Document{
		ID:       &id,
		UserID:   s.userID,
		Taxpayer: &taxpayer,
		Period:   &period,
		Currency: s.currency,
		Config:   &cfg,
		Metadata: &meta,
		Invoices: &docs,
		Summary:  &sum,
	}
}

// MarshalJSON renders the canonical document.
func (s *Session) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Document())
}

// Check reports the first missing required field.
func (d Document) Check() error {
	switch {
	case d.ID == nil:
		return domain.Malformed("session: id is required")
	case d.Metadata == nil:
		return domain.Malformed("session: metadata is required")
	case d.Taxpayer == nil:
		return domain.Malformed("session: taxpayer is required")
	case d.Period == nil:
		return domain.Malformed("session: period is required")
	case d.Invoices == nil:
		return domain.Malformed("session: invoices is required")
	case d.Summary == nil:
		return domain.Malformed("session: summary is required")
	}
	return nil
}

// FromDocument rebuilds a Session. Invoices are re-validated and their
// breakdowns and the summary are recomputed; the stored summary is only
// required to be present.
func FromDocument(d Document) (*Session, error) {
	if err := d.Check(); err != nil {
		return nil, err
	}
	cfg := DefaultTaxConfig()
	if d.Config != nil {
		cfg = *d.Config
	}
	s, err := NewSession(Params{
		ID:       *d.ID,
		UserID:   d.UserID,
		Taxpayer: *d.Taxpayer,
		Period:   *d.Period,
		Currency: d.Currency,
		Config:   cfg,
	})
	if err != nil {
		return nil, err
	}
	invoices := make([]*invoice.Invoice, 0, len(*d.Invoices))
	for _, doc := range *d.Invoices {
		inv, err := invoice.FromDocument(doc)
		if err != nil {
			return nil, err
		}
		invoices = append(invoices, inv)
	}
	if err := s.AddInvoices(invoices); err != nil {
		return nil, err
	}
	s.metadata = *d.Metadata
	return s, nil
}

// DecodeDocument unmarshals data without validating it.
func DecodeDocument(data []byte) (Document, error) {
	var d Document
	if err := json.Unmarshal(data, &d); err != nil {
		return Document{}, domain.Malformed("session: %v", err)
	}
	return d, nil
}

// Parse decodes and validates a serialised session.
func Parse(data []byte) (*Session, error) {
	d, err := DecodeDocument(data)
	if err != nil {
		return nil, err
	}
	return FromDocument(d)
}
