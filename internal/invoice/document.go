package invoice

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/jedlsf/buwis-friend/internal/domain"
	"github.com/jedlsf/buwis-friend/internal/money"
	"github.com/jedlsf/buwis-friend/internal/tax"
)

// OrderDocument is the serialised order: lines, discount and breakdown.
type OrderDocument struct {
	Currency      string         `json:"currency"`
	Lines         []OrderLine    `json:"lines"`
	OtherDiscount *money.Money   `json:"other_discount"`
	Breakdown     *tax.Breakdown `json:"breakdown"`
}

// Document is the canonical JSON projection of an Invoice. Pointer fields are
// required at the top level and are nil when absent from the input.
type Document struct {
	ID       *uuid.UUID          `json:"id"`
	Number   string              `json:"number"`
	IssuedAt time.Time           `json:"issued_at"`
	Metadata *Metadata           `json:"metadata"`
	Customer *domain.LegalEntity `json:"customer"`
	Issuer   *domain.LegalEntity `json:"issuer"`
	Order    *OrderDocument      `json:"order"`
	Payment  *domain.PaymentInfo `json:"payment"`
	Tax      *Settings           `json:"tax"`
}

// Document projects inv.
func (inv *Invoice) Document() Document {
	id := inv.id
	meta := inv.metadata
	customer, issuer, payment, settings := inv.customer, inv.issuer, inv.payment, inv.settings
	other := inv.otherDiscount
	if other.IsZero() {
		other = money.Zero(inv.currency)
	}
	b := inv.breakdown
	lines := inv.Lines()
	if lines == nil {
		lines = []OrderLine{}
	}
	return Document{
		ID:       &id,
		Number:   inv.number,
		IssuedAt: inv.issuedAt,
		Metadata: &meta,
		Customer: &customer,
		Issuer:   &issuer,
		Order: &OrderDocument{
			Currency:      inv.currency,
			Lines:         lines,
			OtherDiscount: &other,
			Breakdown:     &b,
		},
		Payment: &payment,
		Tax:     &settings,
	}
}

// MarshalJSON renders the canonical document.
func (inv *Invoice) MarshalJSON() ([]byte, error) {
	return json.Marshal(inv.Document())
}

// Check reports the first missing required field.
func (d Document) Check() error {
	switch {
	case d.ID == nil:
		return domain.Malformed("invoice: id is required")
	case d.Metadata == nil:
		return domain.Malformed("invoice: metadata is required")
	case d.Customer == nil:
		return domain.Malformed("invoice: customer is required")
	case d.Issuer == nil:
		return domain.Malformed("invoice: issuer is required")
	case d.Order == nil:
		return domain.Malformed("invoice: order is required")
	case d.Payment == nil:
		return domain.Malformed("invoice: payment is required")
	case d.Tax == nil:
		return domain.Malformed("invoice: tax is required")
	}
	return nil
}

// FromDocument rebuilds an Invoice, re-validating every field and
// recomputing the breakdown. The stored breakdown is ignored; compare it with
// the result to reconcile.
func FromDocument(d Document) (*Invoice, error) {
	if err := d.Check(); err != nil {
		return nil, err
	}
	other := money.Zero(d.Order.Currency)
	if d.Order.OtherDiscount != nil {
		other = *d.Order.OtherDiscount
	}
	inv, err := New(Params{
		ID:            *d.ID,
		Number:        d.Number,
		IssuedAt:      d.IssuedAt,
		Currency:      d.Order.Currency,
		Customer:      *d.Customer,
		Issuer:        *d.Issuer,
		Payment:       *d.Payment,
		Settings:      *d.Tax,
		Lines:         d.Order.Lines,
		OtherDiscount: other,
		Notes:         d.Metadata.Notes,
	})
	if err != nil {
		return nil, err
	}
	inv.metadata = *d.Metadata
	return inv, nil
}

// DecodeDocument unmarshals data without validating it.
func DecodeDocument(data []byte) (Document, error) {
	var d Document
	if err := json.Unmarshal(data, &d); err != nil {
		return Document{}, domain.Malformed("invoice: %v", err)
	}
	return d, nil
}

// Parse decodes and validates a serialised invoice.
func Parse(data []byte) (*Invoice, error) {
	d, err := DecodeDocument(data)
	if err != nil {
		return nil, err
	}
	return FromDocument(d)
}
