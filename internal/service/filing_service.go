package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/jedlsf/buwis-friend/internal/calendar"
	"github.com/jedlsf/buwis-friend/internal/config"
	"github.com/jedlsf/buwis-friend/internal/domain"
	"github.com/jedlsf/buwis-friend/internal/filing"
	"github.com/jedlsf/buwis-friend/internal/invoice"
	"github.com/jedlsf/buwis-friend/internal/metrics"
	"github.com/jedlsf/buwis-friend/internal/money"
	"github.com/jedlsf/buwis-friend/internal/port"
	s3storage "github.com/jedlsf/buwis-friend/internal/storage/s3"
	"github.com/jedlsf/buwis-friend/internal/validator"
)

// ImportResult is an imported session and the reconciliation of the
// breakdowns it carried against the recomputed ones.
type ImportResult struct {
	Session        *filing.Session  `json:"session"`
	Reconciliation validator.Report `json:"reconciliation"`
}

// PublishedReport locates an export uploaded to object storage.
type PublishedReport struct {
	Key       string    `json:"key"`
	Filename  string    `json:"filename"`
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expires_at"`
}

// FilingService defines the filing session management contract. Every
// operation is scoped to the calling user.
type FilingService interface {
	CreateSession(ctx context.Context, userID string, input *CreateSessionInput) (*filing.Session, error)
	GetSession(ctx context.Context, userID string, id uuid.UUID) (*filing.Session, error)
	ListSessions(ctx context.Context, userID string, offset, limit int) ([]*filing.Session, int, error)
	DeleteSession(ctx context.Context, userID string, id uuid.UUID) error
	AddInvoices(ctx context.Context, userID string, id uuid.UUID, inputs []InvoiceInput) (*filing.Session, error)
	ReplaceInvoice(ctx context.Context, userID string, id uuid.UUID, number string, input *InvoiceInput) (*filing.Session, error)
	RemoveInvoice(ctx context.Context, userID string, id uuid.UUID, number string) (*filing.Session, error)
	ClearInvoices(ctx context.Context, userID string, id uuid.UUID) (*filing.Session, error)
	UpdateTaxConfig(ctx context.Context, userID string, id uuid.UUID, input *TaxConfigInput) (*filing.Session, error)
	ImportSession(ctx context.Context, userID string, raw []byte) (*ImportResult, error)
	Export(ctx context.Context, userID string, id uuid.UUID, format domain.ExportFormat) (*ExportResult, error)
	PublishReport(ctx context.Context, userID string, id uuid.UUID, format domain.ExportFormat) (*PublishedReport, error)
}

type filingService struct {
	repo     port.SessionRepository
	storage  port.ObjectStorage
	s3Cfg    config.S3Config
	engine   *validator.Engine
	defaults Defaults
	metrics  *metrics.Metrics
	log      zerolog.Logger
	now      func() time.Time
}

// NewFilingService creates a new FilingService. storage may be nil, in which
// case PublishReport fails with domain.ErrStorageFailed.
func NewFilingService(
	repo port.SessionRepository,
	storage port.ObjectStorage,
	s3Cfg config.S3Config,
	engine *validator.Engine,
	defaults Defaults,
	m *metrics.Metrics,
	log zerolog.Logger,
) FilingService {
	return &filingService{
		repo:     repo,
		storage:  storage,
		s3Cfg:    s3Cfg,
		engine:   engine,
		defaults: defaults,
		metrics:  m,
		log:      log.With().Str("component", "filing_service").Logger(),
		now:      time.Now,
	}
}

func (s *filingService) toInvoice(in *InvoiceInput, sess *filing.Session) (*invoice.Invoice, error) {
	currency := sess.Currency()

	settings := invoice.DefaultSettings()
	settings.WithholdingRate = s.defaults.WithholdingRate
	if in.VATType != "" {
		vt, err := domain.ParseVATType(in.VATType)
		if err != nil {
			return nil, err
		}
		settings.VATType = vt
	}
	if in.VATInclusive != nil {
		settings.VATInclusive = *in.VATInclusive
	}
	if in.WithholdingRate != nil {
		settings.WithholdingRate = *in.WithholdingRate
	}

	issuer := sess.Taxpayer()
	if in.Issuer != nil {
		issuer = in.Issuer.entity()
	}
	method := domain.PaymentCash
	if in.Payment.Method != "" {
		method = domain.PaymentMethod(in.Payment.Method)
	}
	other := money.Zero(currency)
	if in.OtherDiscount != nil {
		other = money.New(*in.OtherDiscount, currency)
	}

	inv, err := invoice.New(invoice.Params{
		Number:        in.Number,
		IssuedAt:      in.IssuedAt,
		Currency:      currency,
		Customer:      in.Customer.entity(),
		Issuer:        issuer,
		Payment:       domain.PaymentInfo{Method: method, Reference: in.Payment.Reference, Terms: in.Payment.Terms},
		Settings:      settings,
		Lines:         lines(in.Lines, currency),
		OtherDiscount: other,
		Notes:         in.Notes,
	})
	if err != nil {
		return nil, fmt.Errorf("invoice %q: %w", in.Number, err)
	}
	return inv, nil
}

func (s *filingService) toInvoices(inputs []InvoiceInput, sess *filing.Session) ([]*invoice.Invoice, error) {
	out := make([]*invoice.Invoice, 0, len(inputs))
	for i := range inputs {
		inv, err := s.toInvoice(&inputs[i], sess)
		if err != nil {
			return nil, err
		}
		out = append(out, inv)
	}
	return out, nil
}

func encode(sess *filing.Session) (json.RawMessage, error) {
	data, err := json.Marshal(sess)
	if err != nil {
		return nil, fmt.Errorf("encoding session %s: %w", sess.ID(), err)
	}
	return data, nil
}

func decode(rec *domain.SessionRecord) (*filing.Session, error) {
	sess, err := filing.Parse(rec.Document)
	if err != nil {
		return nil, fmt.Errorf("decoding session %s: %w", rec.ID, err)
	}
	return sess, nil
}

func (s *filingService) load(ctx context.Context, userID string, id uuid.UUID) (*domain.SessionRecord, *filing.Session, error) {
	rec, err := s.repo.GetByID(ctx, userID, id)
	if err != nil {
		return nil, nil, err
	}
	sess, err := decode(rec)
	if err != nil {
		return nil, nil, err
	}
	return rec, sess, nil
}

// mutate loads a session, applies fn and stores the result under the
// optimistic updated_at check.
func (s *filingService) mutate(ctx context.Context, kind, userID string, id uuid.UUID, fn func(*filing.Session) error) (sess *filing.Session, err error) {
	defer func() { s.metrics.ObserveMutation(kind, err) }()

	rec, sess, err := s.load(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if err := fn(sess); err != nil {
		return nil, err
	}
	doc, err := encode(sess)
	if err != nil {
		return nil, err
	}
	rec.Document = doc
	if err := s.repo.Update(ctx, rec); err != nil {
		return nil, err
	}

	s.log.Debug().
		Str("session_id", id.String()).
		Str("kind", kind).
		Int("invoices", sess.Len()).
		Str("net_receivable", sess.Summary().NetReceivable.StringFixed()).
		Msg("session updated")
	return sess, nil
}

func (s *filingService) CreateSession(ctx context.Context, userID string, input *CreateSessionInput) (sess *filing.Session, err error) {
	defer func() { s.metrics.ObserveMutation("create", err) }()

	cfg := s.defaults.Config
	if input.TaxConfig != nil {
		cfg = input.TaxConfig.apply(cfg)
	}
	currency := input.Currency
	if currency == "" {
		currency = s.defaults.Currency
	}

	sess, err = filing.NewSession(filing.Params{
		UserID:   userID,
		Taxpayer: input.Taxpayer.entity(),
		Period:   calendar.Period{Year: input.Year, Quarter: input.Quarter},
		Currency: currency,
		Config:   cfg,
	})
	if err != nil {
		return nil, err
	}
	if len(input.Invoices) > 0 {
		invs, err := s.toInvoices(input.Invoices, sess)
		if err != nil {
			return nil, err
		}
		if err := sess.AddInvoices(invs); err != nil {
			return nil, err
		}
	}

	doc, err := encode(sess)
	if err != nil {
		return nil, err
	}
	rec := &domain.SessionRecord{
		ID:       sess.ID(),
		UserID:   userID,
		Year:     input.Year,
		Quarter:  input.Quarter,
		Document: doc,
	}
	if err := s.repo.Create(ctx, rec); err != nil {
		return nil, err
	}

	s.log.Info().
		Str("session_id", sess.ID().String()).
		Str("period", sess.Period().String()).
		Int("invoices", sess.Len()).
		Msg("session created")
	return sess, nil
}

func (s *filingService) GetSession(ctx context.Context, userID string, id uuid.UUID) (*filing.Session, error) {
	_, sess, err := s.load(ctx, userID, id)
	return sess, err
}

func (s *filingService) ListSessions(ctx context.Context, userID string, offset, limit int) ([]*filing.Session, int, error) {
	recs, total, err := s.repo.ListByUser(ctx, userID, offset, limit)
	if err != nil {
		return nil, 0, err
	}
	out := make([]*filing.Session, 0, len(recs))
	for i := range recs {
		sess, err := decode(&recs[i])
		if err != nil {
			return nil, 0, err
		}
		out = append(out, sess)
	}
	return out, total, nil
}

func (s *filingService) DeleteSession(ctx context.Context, userID string, id uuid.UUID) (err error) {
	defer func() { s.metrics.ObserveMutation("delete", err) }()
	return s.repo.Delete(ctx, userID, id)
}

func (s *filingService) AddInvoices(ctx context.Context, userID string, id uuid.UUID, inputs []InvoiceInput) (*filing.Session, error) {
	if len(inputs) == 0 {
		return nil, domain.NewFieldError("invoices", "at least one invoice is required")
	}
	return s.mutate(ctx, "add_invoices", userID, id, func(sess *filing.Session) error {
		invs, err := s.toInvoices(inputs, sess)
		if err != nil {
			return err
		}
		return sess.AddInvoices(invs)
	})
}

func (s *filingService) ReplaceInvoice(ctx context.Context, userID string, id uuid.UUID, number string, input *InvoiceInput) (*filing.Session, error) {
	return s.mutate(ctx, "replace_invoice", userID, id, func(sess *filing.Session) error {
		inv, err := s.toInvoice(input, sess)
		if err != nil {
			return err
		}
		return sess.ReplaceInvoice(number, inv)
	})
}

func (s *filingService) RemoveInvoice(ctx context.Context, userID string, id uuid.UUID, number string) (*filing.Session, error) {
	return s.mutate(ctx, "remove_invoice", userID, id, func(sess *filing.Session) error {
		return sess.RemoveInvoice(number)
	})
}

func (s *filingService) ClearInvoices(ctx context.Context, userID string, id uuid.UUID) (*filing.Session, error) {
	return s.mutate(ctx, "clear", userID, id, func(sess *filing.Session) error {
		return sess.Clear()
	})
}

func (s *filingService) UpdateTaxConfig(ctx context.Context, userID string, id uuid.UUID, input *TaxConfigInput) (*filing.Session, error) {
	return s.mutate(ctx, "tax_config", userID, id, func(sess *filing.Session) error {
		return sess.SetTaxConfig(input.apply(sess.Config()))
	})
}

// ImportSession stores a session document under a fresh ID owned by userID.
// Stored breakdowns are ignored for the result and only reconciled.
func (s *filingService) ImportSession(ctx context.Context, userID string, raw []byte) (res *ImportResult, err error) {
	defer func() { s.metrics.ObserveMutation("import", err) }()

	doc, err := filing.DecodeDocument(raw)
	if err != nil {
		return nil, err
	}
	id := uuid.New()
	doc.ID = &id
	doc.UserID = userID

	sess, err := filing.FromDocument(doc)
	if err != nil {
		return nil, err
	}

	subjects := make([]validator.Subject, 0, len(*doc.Invoices))
	for _, d := range *doc.Invoices {
		if d.Order == nil || d.Order.Breakdown == nil {
			continue
		}
		inv, err := sess.Invoice(d.Number)
		if err != nil {
			return nil, fmt.Errorf("reconciling stored invoice: %w", err)
		}
		stored := *d.Order.Breakdown
		subjects = append(subjects, validator.Subject{Invoice: inv, Stored: &stored})
	}
	report := s.engine.Reconcile(ctx, subjects)
	for _, f := range report.Findings {
		s.metrics.ObserveFinding(f.RuleKey)
	}

	encoded, err := encode(sess)
	if err != nil {
		return nil, err
	}
	p := sess.Period()
	rec := &domain.SessionRecord{ID: id, UserID: userID, Year: p.Year, Quarter: p.Quarter, Document: encoded}
	if err := s.repo.Create(ctx, rec); err != nil {
		return nil, err
	}

	s.log.Info().
		Str("session_id", id.String()).
		Int("invoices", sess.Len()).
		Str("reconciliation", string(report.Status)).
		Int("findings", len(report.Findings)).
		Msg("session imported")
	return &ImportResult{Session: sess, Reconciliation: report}, nil
}

func (s *filingService) render(ctx context.Context, userID string, id uuid.UUID, format domain.ExportFormat) (*ExportResult, error) {
	_, sess, err := s.load(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	return RenderReport(sess, format, s.now())
}

func (s *filingService) Export(ctx context.Context, userID string, id uuid.UUID, format domain.ExportFormat) (*ExportResult, error) {
	out, err := s.render(ctx, userID, id, format)
	if err != nil {
		return nil, err
	}
	s.metrics.ObserveExport(string(format), "download")
	return out, nil
}

func (s *filingService) PublishReport(ctx context.Context, userID string, id uuid.UUID, format domain.ExportFormat) (*PublishedReport, error) {
	if s.storage == nil {
		return nil, fmt.Errorf("%w: object storage is not configured", domain.ErrStorageFailed)
	}
	out, err := s.render(ctx, userID, id, format)
	if err != nil {
		return nil, err
	}

	key := s3storage.ReportKey(userID, id.String(), out.Filename)
	_, err = s.storage.Upload(ctx, port.UploadInput{
		Bucket:             s.s3Cfg.Bucket,
		Key:                key,
		Body:               bytes.NewReader(out.Data),
		ContentType:        out.ContentType,
		ContentDisposition: out.ContentDisposition(),
	})
	if err != nil {
		return nil, err
	}

	url, err := s.storage.GetPresignedURL(ctx, s.s3Cfg.Bucket, key, s.s3Cfg.PresignExpiry)
	if err != nil {
		return nil, err
	}
	s.metrics.ObserveExport(string(format), "s3")
	s.log.Info().Str("session_id", id.String()).Str("key", key).Msg("report published")

	return &PublishedReport{
		Key:       key,
		Filename:  out.Filename,
		URL:       url,
		ExpiresAt: s.now().Add(time.Duration(s.s3Cfg.PresignExpiry) * time.Second),
	}, nil
}
