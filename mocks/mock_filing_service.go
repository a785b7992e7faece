package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/jedlsf/buwis-friend/internal/domain"
	"github.com/jedlsf/buwis-friend/internal/filing"
	"github.com/jedlsf/buwis-friend/internal/service"
)

// MockFilingService is a mock implementation of service.FilingService.
type MockFilingService struct {
	mock.Mock
}

func (m *MockFilingService) session(args mock.Arguments) (*filing.Session, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*filing.Session), args.Error(1)
}

func (m *MockFilingService) CreateSession(ctx context.Context, userID string, input *service.CreateSessionInput) (*filing.Session, error) {
	return m.session(m.Called(ctx, userID, input))
}

func (m *MockFilingService) GetSession(ctx context.Context, userID string, id uuid.UUID) (*filing.Session, error) {
	return m.session(m.Called(ctx, userID, id))
}

func (m *MockFilingService) ListSessions(ctx context.Context, userID string, offset, limit int) ([]*filing.Session, int, error) {
	args := m.Called(ctx, userID, offset, limit)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]*filing.Session), args.Int(1), args.Error(2)
}

func (m *MockFilingService) DeleteSession(ctx context.Context, userID string, id uuid.UUID) error {
	args := m.Called(ctx, userID, id)
	return args.Error(0)
}

func (m *MockFilingService) AddInvoices(ctx context.Context, userID string, id uuid.UUID, inputs []service.InvoiceInput) (*filing.Session, error) {
	return m.session(m.Called(ctx, userID, id, inputs))
}

func (m *MockFilingService) ReplaceInvoice(ctx context.Context, userID string, id uuid.UUID, number string, input *service.InvoiceInput) (*filing.Session, error) {
	return m.session(m.Called(ctx, userID, id, number, input))
}

func (m *MockFilingService) RemoveInvoice(ctx context.Context, userID string, id uuid.UUID, number string) (*filing.Session, error) {
	return m.session(m.Called(ctx, userID, id, number))
}

func (m *MockFilingService) ClearInvoices(ctx context.Context, userID string, id uuid.UUID) (*filing.Session, error) {
	return m.session(m.Called(ctx, userID, id))
}

func (m *MockFilingService) UpdateTaxConfig(ctx context.Context, userID string, id uuid.UUID, input *service.TaxConfigInput) (*filing.Session, error) {
	return m.session(m.Called(ctx, userID, id, input))
}

func (m *MockFilingService) ImportSession(ctx context.Context, userID string, raw []byte) (*service.ImportResult, error) {
	args := m.Called(ctx, userID, raw)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.ImportResult), args.Error(1)
}

func (m *MockFilingService) Export(ctx context.Context, userID string, id uuid.UUID, format domain.ExportFormat) (*service.ExportResult, error) {
	args := m.Called(ctx, userID, id, format)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.ExportResult), args.Error(1)
}

func (m *MockFilingService) PublishReport(ctx context.Context, userID string, id uuid.UUID, format domain.ExportFormat) (*service.PublishedReport, error) {
	args := m.Called(ctx, userID, id, format)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.PublishedReport), args.Error(1)
}
