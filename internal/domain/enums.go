package domain

import "fmt"

// VATType is the VAT-registration classification of an issuer.
type VATType string

const (
	VATRegistered VATType = "VAT"
	NonVAT        VATType = "NON_VAT"
)

// ParseVATType validates s as a VATType.
func ParseVATType(s string) (VATType, error) {
	switch t := VATType(s); t {
	case VATRegistered, NonVAT:
		return t, nil
	default:
		return "", NewFieldError("vat_type", fmt.Sprintf("unknown VAT type %q", s))
	}
}

// VATSubtype selects how a VAT-registered sale is treated.
type VATSubtype string

const (
	VATStandard  VATSubtype = "standard"
	VATExempt    VATSubtype = "exempt"
	VATZeroRated VATSubtype = "zero_rated"
)

// ParseVATSubtype validates s as a VATSubtype. An empty string means standard.
func ParseVATSubtype(s string) (VATSubtype, error) {
	switch st := VATSubtype(s); st {
	case "":
		return VATStandard, nil
	case VATStandard, VATExempt, VATZeroRated:
		return st, nil
	default:
		return "", NewFieldError("vat_subtype", fmt.Sprintf("unknown VAT subtype %q", s))
	}
}

// IncomeTaxRegime selects the income tax schedule applied to a filing period.
type IncomeTaxRegime string

const (
	RegimeGraduated IncomeTaxRegime = "graduated"
	RegimeFlat8     IncomeTaxRegime = "flat_8"
)

// ParseIncomeTaxRegime validates s as an IncomeTaxRegime. An empty string means graduated.
func ParseIncomeTaxRegime(s string) (IncomeTaxRegime, error) {
	switch r := IncomeTaxRegime(s); r {
	case "":
		return RegimeGraduated, nil
	case RegimeGraduated, RegimeFlat8:
		return r, nil
	default:
		return "", NewFieldError("income_tax_regime", fmt.Sprintf("unknown income tax regime %q", s))
	}
}

// PaymentMethod describes how an invoice is settled.
type PaymentMethod string

const (
	PaymentCash         PaymentMethod = "cash"
	PaymentCheck        PaymentMethod = "check"
	PaymentBankTransfer PaymentMethod = "bank_transfer"
	PaymentEWallet      PaymentMethod = "e_wallet"
	PaymentCard         PaymentMethod = "card"
	PaymentOther        PaymentMethod = "other"
)

// ParsePaymentMethod validates s as a PaymentMethod.
func ParsePaymentMethod(s string) (PaymentMethod, error) {
	switch m := PaymentMethod(s); m {
	case PaymentCash, PaymentCheck, PaymentBankTransfer, PaymentEWallet, PaymentCard, PaymentOther:
		return m, nil
	default:
		return "", NewFieldError("payment.method", fmt.Sprintf("unknown payment method %q", s))
	}
}

// ExportFormat is a supported report export format.
type ExportFormat string

const (
	ExportCSV  ExportFormat = "csv"
	ExportXLSX ExportFormat = "xlsx"
)

// ContentType returns the MIME type for the format.
func (f ExportFormat) ContentType() string {
	switch f {
	case ExportXLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	default:
		return "text/csv; charset=utf-8"
	}
}

// ParseExportFormat validates s as an ExportFormat.
func ParseExportFormat(s string) (ExportFormat, error) {
	switch f := ExportFormat(s); f {
	case ExportCSV, ExportXLSX:
		return f, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, s)
	}
}
