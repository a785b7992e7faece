package csvexport

import (
	"encoding/csv"
	"fmt"
	"io"
	"regexp"
	"strings"
	"time"

	"github.com/jedlsf/buwis-friend/internal/calendar"
	"github.com/jedlsf/buwis-friend/internal/invoice"
	"github.com/jedlsf/buwis-friend/internal/money"
)

// UTF-8 BOM bytes for Excel compatibility on Windows.
var BOM = []byte{0xEF, 0xBB, 0xBF}

// Columns is the per-invoice header row shared by every export format.
var Columns = []string{
	"Invoice Number",
	"Issue Date",
	"Customer",
	"Customer TIN",
	"SC/PWD ID",
	"VAT Type",
	"VAT Subtype",
	"Gross Sales",
	"SC/PWD Discount",
	"Other Discount",
	"Total Discount",
	"VATable Sales",
	"VAT-Exempt Sales",
	"Zero-Rated Sales",
	"VAT",
	"Percentage Tax",
	"Withholding Tax",
	"Net Receivable",
	"Amount Due",
	"Currency",
	"Payment Method",
}

// Writer wraps csv.Writer for exporting invoices as CSV.
type Writer struct {
	csv *csv.Writer
}

// NewWriter creates a Writer that writes CSV to w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{csv: csv.NewWriter(w)}
}

// WriteBOM writes the UTF-8 byte order mark. Call it before anything else.
func WriteBOM(w io.Writer) error {
	_, err := w.Write(BOM)
	return err
}

// WriteHeader writes the header row.
func (w *Writer) WriteHeader() error {
	return w.csv.Write(Columns)
}

// WriteInvoices writes one row per invoice.
func (w *Writer) WriteInvoices(invoices []*invoice.Invoice) error {
	for _, inv := range invoices {
		if err := w.csv.Write(InvoiceRow(inv)); err != nil {
			return err
		}
	}
	return nil
}

// Flush flushes the underlying csv.Writer buffer.
func (w *Writer) Flush() {
	w.csv.Flush()
}

// Error returns any error from the underlying csv.Writer.
func (w *Writer) Error() error {
	return w.csv.Error()
}

// InvoiceRow converts an invoice to a row matching Columns.
func InvoiceRow(inv *invoice.Invoice) []string {
	b := inv.Breakdown()
	c := inv.Customer()
	return []string{
		inv.Number(),
		inv.IssuedAt().In(calendar.Manila).Format("2006-01-02"),
		c.Name,
		c.TIN,
		c.SCPWDID,
		string(inv.VATType()),
		string(b.VAT.Subtype),
		formatMoney(b.TotalSales),
		formatMoney(b.Discount.SeniorCitizenPWD),
		formatMoney(b.Discount.Other),
		formatMoney(b.Discount.Total),
		formatMoney(b.VAT.VATableSales),
		formatMoney(b.VAT.ExemptSales),
		formatMoney(b.VAT.ZeroRatedSales),
		formatMoney(b.VAT.Total),
		formatMoney(b.PercentageTax.Total),
		formatMoney(b.Withholding.Total),
		formatMoney(b.NetReceivable),
		formatMoney(b.TotalAmountDue),
		inv.Currency(),
		string(inv.Payment().Method),
	}
}

func formatMoney(m money.Money) string {
	return m.StringFixed()
}

// nonAlphanumeric matches characters that are not alphanumeric, hyphen, or underscore.
var nonAlphanumeric = regexp.MustCompile(`[^a-zA-Z0-9_-]+`)

// multiUnderscore matches consecutive underscores.
var multiUnderscore = regexp.MustCompile(`_{2,}`)

// SanitizeFilename cleans a taxpayer name for use in Content-Disposition.
// Replaces non-alphanumeric chars (except - _) with _, collapses consecutive
// underscores, and truncates to 100 chars.
func SanitizeFilename(name string) string {
	s := nonAlphanumeric.ReplaceAllString(name, "_")
	s = multiUnderscore.ReplaceAllString(s, "_")
	s = strings.Trim(s, "_")
	if len(s) > 100 {
		s = s[:100]
	}
	if s == "" {
		s = "report"
	}
	return s
}

// BuildFilename returns a sanitized filename for Content-Disposition header.
// Format: {taxpayer}_{year}Q{quarter}_{YYYY-MM-DD}.{ext}
func BuildFilename(taxpayer string, p calendar.Period, ext string, date time.Time) string {
	return fmt.Sprintf("%s_%s_%s.%s", SanitizeFilename(taxpayer), p, date.In(calendar.Manila).Format("2006-01-02"), ext)
}
