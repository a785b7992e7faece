package csvexport

import (
	"bytes"
	"encoding/csv"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jedlsf/buwis-friend/internal/calendar"
	"github.com/jedlsf/buwis-friend/internal/domain"
	"github.com/jedlsf/buwis-friend/internal/invoice"
	"github.com/jedlsf/buwis-friend/internal/money"
)

func testInvoice(t *testing.T) *invoice.Invoice {
	t.Helper()
	settings := invoice.DefaultSettings()
	settings.VATType = domain.VATRegistered
	inv, err := invoice.New(invoice.Params{
		Number:   "INV-001",
		IssuedAt: time.Date(2024, time.March, 31, 20, 0, 0, 0, time.UTC),
		Customer: domain.LegalEntity{Name: "Lolo Ben", TIN: "999", SCPWDID: "SC-1"},
		Issuer:   domain.LegalEntity{Name: "Store"},
		Payment:  domain.PaymentInfo{Method: domain.PaymentCash},
		Settings: settings,
		Lines:    []invoice.OrderLine{invoice.NewLine("Meds", decimal.NewFromInt(1), "box", money.MustFromString("11200", "PHP"))},
	})
	require.NoError(t, err)
	return inv
}

func TestWriteHeader(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	require.NoError(t, w.WriteHeader())
	w.Flush()
	require.NoError(t, w.Error())

	r := csv.NewReader(&buf)
	row, err := r.Read()
	require.NoError(t, err)

	assert.Len(t, row, len(Columns))
	assert.Equal(t, "Invoice Number", row[0])
	assert.Equal(t, "Payment Method", row[len(row)-1])
}

func TestWriteInvoices(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	require.NoError(t, w.WriteInvoices([]*invoice.Invoice{testInvoice(t)}))
	w.Flush()
	require.NoError(t, w.Error())

	row, err := csv.NewReader(&buf).Read()
	require.NoError(t, err)
	require.Len(t, row, len(Columns))

	assert.Equal(t, "INV-001", row[0])
	// 20:00 UTC on March 31 is April 1 in Manila.
	assert.Equal(t, "2024-04-01", row[1])
	assert.Equal(t, "Lolo Ben", row[2])
	assert.Equal(t, "SC-1", row[4])
	assert.Equal(t, "VAT", row[5])
	assert.Equal(t, "standard", row[6])
	assert.Equal(t, "11200.00", row[7])
	assert.Equal(t, "2000.00", row[8])
	assert.Equal(t, "8000.00", row[11])
	assert.Equal(t, "2000.00", row[12])
	assert.Equal(t, "960.00", row[14])
	assert.Equal(t, "0.00", row[15])
	assert.Equal(t, "PHP", row[19])
	assert.Equal(t, "cash", row[20])
}

func TestWriteBOM(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteBOM(&buf))
	assert.Equal(t, BOM, buf.Bytes())
}

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"Maria Santos", "Maria_Santos"},
		{"Dela Cruz & Sons, Inc.", "Dela_Cruz_Sons_Inc"},
		{"already_clean-name", "already_clean-name"},
		{"***", "report"},
		{"", "report"},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, SanitizeFilename(tt.input))
		})
	}

	long := bytes.Repeat([]byte("a"), 150)
	assert.Len(t, SanitizeFilename(string(long)), 100)
}

func TestBuildFilename(t *testing.T) {
	date := time.Date(2024, time.July, 3, 9, 0, 0, 0, calendar.Manila)
	got := BuildFilename("Maria Santos", calendar.Period{Year: 2024, Quarter: 2}, "csv", date)
	assert.Equal(t, "Maria_Santos_2024Q2_2024-07-03.csv", got)
}
