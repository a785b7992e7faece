package domain

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
)

// LegalEntity is an invoice party or a filing taxpayer.
type LegalEntity struct {
	Name    string `json:"name"`
	TIN     string `json:"tin"`
	Address string `json:"address"`
	Contact string `json:"contact"`
	// SCPWDID is the senior citizen or PWD identification number of a customer.
	SCPWDID string `json:"sc_pwd_id"`
}

// EligibleForSCPWD reports whether the entity carries a senior citizen or PWD ID.
func (e LegalEntity) EligibleForSCPWD() bool {
	return strings.TrimSpace(e.SCPWDID) != ""
}

// Validate checks required fields. field prefixes error paths, e.g. "customer".
func (e LegalEntity) Validate(field string) error {
	if strings.TrimSpace(e.Name) == "" {
		return NewFieldError(field+".name", "is required")
	}
	return nil
}

// PaymentInfo holds settlement details of an invoice.
type PaymentInfo struct {
	Method    PaymentMethod `json:"method"`
	Reference string        `json:"reference"`
	Terms     string        `json:"terms"`
}

// Validate checks the payment method.
func (p PaymentInfo) Validate() error {
	_, err := ParsePaymentMethod(string(p.Method))
	return err
}

// SessionRecord is the persisted form of a filing session.
type SessionRecord struct {
	ID        uuid.UUID       `db:"id" json:"id"`
	UserID    string          `db:"user_id" json:"user_id"`
	Year      int             `db:"year" json:"year"`
	Quarter   int             `db:"quarter" json:"quarter"`
	Document  json.RawMessage `db:"document" json:"document"`
	CreatedAt time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt time.Time       `db:"updated_at" json:"updated_at"`
}
