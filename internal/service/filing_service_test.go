package service_test

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/jedlsf/buwis-friend/internal/calendar"
	"github.com/jedlsf/buwis-friend/internal/config"
	"github.com/jedlsf/buwis-friend/internal/csvexport"
	"github.com/jedlsf/buwis-friend/internal/domain"
	"github.com/jedlsf/buwis-friend/internal/filing"
	"github.com/jedlsf/buwis-friend/internal/money"
	"github.com/jedlsf/buwis-friend/internal/port"
	"github.com/jedlsf/buwis-friend/internal/service"
	"github.com/jedlsf/buwis-friend/internal/validator"
	"github.com/jedlsf/buwis-friend/mocks"
)

const userID = "user-1"

func dec(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func testDefaults(t *testing.T) service.Defaults {
	t.Helper()
	d, err := service.DefaultsFromConfig(config.TaxConfig{
		Currency:          "PHP",
		VATRate:           decimal.RequireFromString("0.12"),
		PercentageTaxRate: decimal.RequireFromString("0.03"),
		Regime:            "graduated",
	})
	require.NoError(t, err)
	return d
}

var testS3 = config.S3Config{Bucket: "reports", PresignExpiry: 900}

func setupFilingService(t *testing.T, storage port.ObjectStorage) (service.FilingService, *mocks.MockSessionRepo) {
	t.Helper()
	repo := new(mocks.MockSessionRepo)
	engine := validator.NewEngine(validator.DefaultRegistry(), zerolog.Nop())
	svc := service.NewFilingService(repo, storage, testS3, engine, testDefaults(t), nil, zerolog.Nop())
	return svc, repo
}

func invoiceInput(number string, issued time.Time, amount string) service.InvoiceInput {
	return service.InvoiceInput{
		Number:   number,
		IssuedAt: issued,
		Customer: service.EntityInput{Name: "Client " + number},
		Lines:    []service.LineInput{{Label: "Service", Quantity: decimal.NewFromInt(1), UnitPrice: decimal.RequireFromString(amount)}},
	}
}

func jan(day int) time.Time { return time.Date(2024, time.January, day, 9, 0, 0, 0, calendar.Manila) }

// storedSession builds a persisted Q1 2024 session holding one 10,000 invoice.
func storedSession(t *testing.T) (*domain.SessionRecord, *filing.Session) {
	t.Helper()
	svc, repo := setupFilingService(t, nil)
	var rec *domain.SessionRecord
	repo.On("Create", mock.Anything, mock.AnythingOfType("*domain.SessionRecord")).
		Run(func(args mock.Arguments) { rec = args.Get(1).(*domain.SessionRecord) }).
		Return(nil)

	sess, err := svc.CreateSession(context.Background(), userID, &service.CreateSessionInput{
		Taxpayer: service.EntityInput{Name: "Ana Reyes", TIN: "123-456-789"},
		Year:     2024,
		Quarter:  1,
		Invoices: []service.InvoiceInput{invoiceInput("OR-1", jan(5), "10000")},
	})
	require.NoError(t, err)
	rec.UpdatedAt = time.Date(2024, time.February, 1, 0, 0, 0, 0, time.UTC)
	return rec, sess
}

// --- Create ---

func TestFilingService_CreateSession_Success(t *testing.T) {
	rec, sess := storedSession(t)

	assert.Equal(t, userID, rec.UserID)
	assert.Equal(t, 2024, rec.Year)
	assert.Equal(t, 1, rec.Quarter)
	assert.Equal(t, sess.ID(), rec.ID)

	sum := sess.Summary()
	assert.Equal(t, 1, sum.InvoiceCount)
	assert.Equal(t, "10000.00", sum.GrossSales.StringFixed())
	assert.Equal(t, "300.00", sum.PercentageTax.Total.StringFixed())
	assert.Equal(t, "Ana Reyes", sess.Invoices()[0].Issuer().Name)
	assert.Equal(t, domain.PaymentCash, sess.Invoices()[0].Payment().Method)

	parsed, err := filing.Parse(rec.Document)
	require.NoError(t, err)
	assert.Equal(t, sess.ID(), parsed.ID())
}

func TestFilingService_CreateSession_InvalidPeriod(t *testing.T) {
	svc, repo := setupFilingService(t, nil)

	_, err := svc.CreateSession(context.Background(), userID, &service.CreateSessionInput{
		Taxpayer: service.EntityInput{Name: "Ana"},
		Year:     1700,
		Quarter:  1,
	})
	assert.ErrorIs(t, err, domain.ErrValidation)
	repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestFilingService_CreateSession_DuplicateInvoices(t *testing.T) {
	svc, repo := setupFilingService(t, nil)

	_, err := svc.CreateSession(context.Background(), userID, &service.CreateSessionInput{
		Taxpayer: service.EntityInput{Name: "Ana"},
		Year:     2024,
		Quarter:  1,
		Invoices: []service.InvoiceInput{
			invoiceInput("OR-1", jan(5), "100"),
			invoiceInput("OR-1", jan(6), "200"),
		},
	})
	assert.ErrorIs(t, err, domain.ErrDuplicateInvoice)
	repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestFilingService_CreateSession_TaxConfigOverride(t *testing.T) {
	svc, repo := setupFilingService(t, nil)
	repo.On("Create", mock.Anything, mock.Anything).Return(nil)

	sess, err := svc.CreateSession(context.Background(), userID, &service.CreateSessionInput{
		Taxpayer:  service.EntityInput{Name: "Ana"},
		Year:      2024,
		Quarter:   2,
		TaxConfig: &service.TaxConfigInput{PercentageTaxRate: dec("0.01"), Regime: "flat_8"},
	})
	require.NoError(t, err)
	assert.Equal(t, domain.RegimeFlat8, sess.Config().Regime)
	assert.Equal(t, "0.01", sess.Config().PercentageTaxRate.String())
	assert.Equal(t, "0.12", sess.Config().VATRate.String())
}

// --- Mutations ---

func TestFilingService_AddInvoices_Success(t *testing.T) {
	rec, _ := storedSession(t)
	svc, repo := setupFilingService(t, nil)
	id := rec.ID

	repo.On("GetByID", mock.Anything, userID, id).Return(rec, nil)
	var saved *domain.SessionRecord
	repo.On("Update", mock.Anything, mock.AnythingOfType("*domain.SessionRecord")).
		Run(func(args mock.Arguments) { saved = args.Get(1).(*domain.SessionRecord) }).
		Return(nil)

	in := invoiceInput("OR-2", jan(2), "5000")
	in.VATType = "VAT"
	sess, err := svc.AddInvoices(context.Background(), userID, id, []service.InvoiceInput{in})
	require.NoError(t, err)

	assert.Equal(t, 2, sess.Len())
	assert.Equal(t, "OR-2", sess.Invoices()[0].Number(), "invoices sorted by issue date")
	assert.Equal(t, "15000.00", sess.Summary().GrossSales.StringFixed())

	require.NotNil(t, saved)
	stored, err := filing.Parse(saved.Document)
	require.NoError(t, err)
	assert.Equal(t, 2, stored.Len())
	repo.AssertExpectations(t)
}

func TestFilingService_AddInvoices_OutOfPeriodRejectsBatch(t *testing.T) {
	rec, _ := storedSession(t)
	svc, repo := setupFilingService(t, nil)

	repo.On("GetByID", mock.Anything, userID, rec.ID).Return(rec, nil)

	_, err := svc.AddInvoices(context.Background(), userID, rec.ID, []service.InvoiceInput{
		invoiceInput("OR-2", jan(2), "5000"),
		invoiceInput("OR-3", time.Date(2024, time.April, 1, 9, 0, 0, 0, calendar.Manila), "5000"),
	})
	assert.ErrorIs(t, err, domain.ErrPeriodMismatch)
	repo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
}

func TestFilingService_AddInvoices_Empty(t *testing.T) {
	svc, _ := setupFilingService(t, nil)
	_, err := svc.AddInvoices(context.Background(), userID, uuid.New(), nil)
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestFilingService_AddInvoices_Conflict(t *testing.T) {
	rec, _ := storedSession(t)
	svc, repo := setupFilingService(t, nil)

	repo.On("GetByID", mock.Anything, userID, rec.ID).Return(rec, nil)
	repo.On("Update", mock.Anything, mock.Anything).Return(domain.ErrConflict)

	_, err := svc.AddInvoices(context.Background(), userID, rec.ID, []service.InvoiceInput{invoiceInput("OR-2", jan(2), "1")})
	assert.ErrorIs(t, err, domain.ErrConflict)
}

func TestFilingService_GetSession_NotFound(t *testing.T) {
	svc, repo := setupFilingService(t, nil)
	id := uuid.New()
	repo.On("GetByID", mock.Anything, userID, id).Return(nil, domain.ErrNotFound)

	_, err := svc.GetSession(context.Background(), userID, id)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestFilingService_RemoveInvoice(t *testing.T) {
	rec, _ := storedSession(t)
	svc, repo := setupFilingService(t, nil)
	repo.On("GetByID", mock.Anything, userID, rec.ID).Return(rec, nil)
	repo.On("Update", mock.Anything, mock.Anything).Return(nil)

	_, err := svc.RemoveInvoice(context.Background(), userID, rec.ID, "OR-404")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	sess, err := svc.RemoveInvoice(context.Background(), userID, rec.ID, "OR-1")
	require.NoError(t, err)
	assert.Zero(t, sess.Len())
	assert.True(t, sess.Summary().GrossSales.IsZero())
}

func TestFilingService_ReplaceInvoice(t *testing.T) {
	rec, _ := storedSession(t)
	svc, repo := setupFilingService(t, nil)
	repo.On("GetByID", mock.Anything, userID, rec.ID).Return(rec, nil)
	repo.On("Update", mock.Anything, mock.Anything).Return(nil)

	in := invoiceInput("OR-1", jan(5), "20000")
	sess, err := svc.ReplaceInvoice(context.Background(), userID, rec.ID, "OR-1", &in)
	require.NoError(t, err)
	assert.Equal(t, "20000.00", sess.Summary().GrossSales.StringFixed())
}

func TestFilingService_ClearInvoices(t *testing.T) {
	rec, _ := storedSession(t)
	svc, repo := setupFilingService(t, nil)
	repo.On("GetByID", mock.Anything, userID, rec.ID).Return(rec, nil)
	repo.On("Update", mock.Anything, mock.Anything).Return(nil)

	sess, err := svc.ClearInvoices(context.Background(), userID, rec.ID)
	require.NoError(t, err)
	assert.Zero(t, sess.Summary().InvoiceCount)
}

func TestFilingService_UpdateTaxConfig(t *testing.T) {
	rec, _ := storedSession(t)
	svc, repo := setupFilingService(t, nil)
	repo.On("GetByID", mock.Anything, userID, rec.ID).Return(rec, nil)
	repo.On("Update", mock.Anything, mock.Anything).Return(nil)

	sess, err := svc.UpdateTaxConfig(context.Background(), userID, rec.ID, &service.TaxConfigInput{PercentageTaxRate: dec("0.01")})
	require.NoError(t, err)
	assert.Equal(t, "100.00", sess.Summary().PercentageTax.Total.StringFixed())

	_, err = svc.UpdateTaxConfig(context.Background(), userID, rec.ID, &service.TaxConfigInput{VATRate: dec("1.5")})
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestFilingService_ListSessions(t *testing.T) {
	rec, _ := storedSession(t)
	svc, repo := setupFilingService(t, nil)
	repo.On("ListByUser", mock.Anything, userID, 0, 20).Return([]domain.SessionRecord{*rec}, 1, nil)

	sessions, total, err := svc.ListSessions(context.Background(), userID, 0, 20)
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, sessions, 1)
	assert.Equal(t, rec.ID, sessions[0].ID())
}

// --- Import ---

func TestFilingService_ImportSession_ReportsMismatches(t *testing.T) {
	_, sess := storedSession(t)
	doc := sess.Document()
	stored := (*doc.Invoices)[0].Order.Breakdown
	stored.PercentageTax.Total = money.MustFromString("250", "PHP")
	raw, err := json.Marshal(doc)
	require.NoError(t, err)

	svc, repo := setupFilingService(t, nil)
	var created *domain.SessionRecord
	repo.On("Create", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { created = args.Get(1).(*domain.SessionRecord) }).
		Return(nil)

	res, err := svc.ImportSession(context.Background(), "user-2", raw)
	require.NoError(t, err)

	assert.NotEqual(t, sess.ID(), res.Session.ID())
	assert.Equal(t, "user-2", res.Session.UserID())
	assert.Equal(t, "300.00", res.Session.Summary().PercentageTax.Total.StringFixed())
	assert.Equal(t, validator.StatusInvalid, res.Reconciliation.Status)
	assert.Equal(t, 1, res.Reconciliation.Checked)
	require.NotEmpty(t, res.Reconciliation.Findings)
	assert.Equal(t, "OR-1", res.Reconciliation.Findings[0].InvoiceNumber)

	require.NotNil(t, created)
	assert.Equal(t, "user-2", created.UserID)
	assert.Equal(t, res.Session.ID(), created.ID)
}

func TestFilingService_ImportSession_PaddedNumberIsReconciled(t *testing.T) {
	_, sess := storedSession(t)
	doc := sess.Document()
	inv := &(*doc.Invoices)[0]
	inv.Number = " OR-1 "
	inv.Order.Breakdown.PercentageTax.Total = money.MustFromString("250", "PHP")
	raw, err := json.Marshal(doc)
	require.NoError(t, err)

	svc, repo := setupFilingService(t, nil)
	repo.On("Create", mock.Anything, mock.Anything).Return(nil)

	res, err := svc.ImportSession(context.Background(), userID, raw)
	require.NoError(t, err)

	assert.Equal(t, "OR-1", res.Session.Invoices()[0].Number())
	assert.Equal(t, 1, res.Reconciliation.Checked)
	assert.Equal(t, validator.StatusInvalid, res.Reconciliation.Status)
	assert.NotEmpty(t, res.Reconciliation.Findings)
}

func TestFilingService_ImportSession_Malformed(t *testing.T) {
	svc, repo := setupFilingService(t, nil)

	_, err := svc.ImportSession(context.Background(), userID, []byte(`{"user_id":"x"}`))
	assert.ErrorIs(t, err, domain.ErrMalformedInput)
	repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

// --- Export ---

func TestFilingService_Export_CSV(t *testing.T) {
	rec, _ := storedSession(t)
	svc, repo := setupFilingService(t, nil)
	repo.On("GetByID", mock.Anything, userID, rec.ID).Return(rec, nil)

	out, err := svc.Export(context.Background(), userID, rec.ID, domain.ExportCSV)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out.Data, csvexport.BOM))
	assert.Contains(t, string(out.Data), "OR-1")
	assert.Regexp(t, `^Ana_Reyes_2024Q1_\d{4}-\d{2}-\d{2}\.csv$`, out.Filename)
	assert.Equal(t, "text/csv; charset=utf-8", out.ContentType)
}

func TestFilingService_Export_XLSX(t *testing.T) {
	rec, _ := storedSession(t)
	svc, repo := setupFilingService(t, nil)
	repo.On("GetByID", mock.Anything, userID, rec.ID).Return(rec, nil)

	out, err := svc.Export(context.Background(), userID, rec.ID, domain.ExportXLSX)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out.Data, []byte("PK")))
}

func TestFilingService_Export_Unsupported(t *testing.T) {
	rec, _ := storedSession(t)
	svc, repo := setupFilingService(t, nil)
	repo.On("GetByID", mock.Anything, userID, rec.ID).Return(rec, nil)

	_, err := svc.Export(context.Background(), userID, rec.ID, domain.ExportFormat("pdf"))
	assert.ErrorIs(t, err, domain.ErrUnsupportedFormat)
}

func TestFilingService_PublishReport(t *testing.T) {
	rec, _ := storedSession(t)
	storage := new(mocks.MockObjectStorage)
	svc, repo := setupFilingService(t, storage)
	repo.On("GetByID", mock.Anything, userID, rec.ID).Return(rec, nil)

	storage.On("Upload", mock.Anything, mock.MatchedBy(func(in port.UploadInput) bool {
		return in.Bucket == "reports" && in.ContentType == "text/csv; charset=utf-8"
	})).Return(&port.UploadOutput{Location: "s3://reports/x"}, nil)
	storage.On("GetPresignedURL", mock.Anything, "reports", mock.AnythingOfType("string"), int64(900)).
		Return("https://signed.example/x", nil)

	pub, err := svc.PublishReport(context.Background(), userID, rec.ID, domain.ExportCSV)
	require.NoError(t, err)
	assert.Equal(t, "https://signed.example/x", pub.URL)
	assert.Contains(t, pub.Key, "reports/"+userID+"/"+rec.ID.String()+"/")
	storage.AssertExpectations(t)
}

func TestFilingService_PublishReport_NoStorage(t *testing.T) {
	svc, _ := setupFilingService(t, nil)
	_, err := svc.PublishReport(context.Background(), userID, uuid.New(), domain.ExportCSV)
	assert.ErrorIs(t, err, domain.ErrStorageFailed)
}

func TestDefaultsFromConfig_Invalid(t *testing.T) {
	_, err := service.DefaultsFromConfig(config.TaxConfig{Regime: "progressive"})
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = service.DefaultsFromConfig(config.TaxConfig{WithholdingRate: decimal.NewFromInt(2)})
	assert.ErrorIs(t, err, domain.ErrValidation)
}
