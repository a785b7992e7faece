package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/jedlsf/buwis-friend/internal/calendar"
	"github.com/jedlsf/buwis-friend/internal/service"
	"github.com/jedlsf/buwis-friend/internal/tax"
)

// MockTaxService is a mock implementation of service.TaxService.
type MockTaxService struct {
	mock.Mock
}

func (m *MockTaxService) ComputeBreakdown(ctx context.Context, input *service.BreakdownInput) (*tax.Breakdown, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*tax.Breakdown), args.Error(1)
}

func (m *MockTaxService) ComputeIncomeTax(ctx context.Context, input *service.IncomeTaxInput) (*service.IncomeTaxResult, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.IncomeTaxResult), args.Error(1)
}

func (m *MockTaxService) Deadlines(ctx context.Context, year, quarter int) (*calendar.Deadlines, error) {
	args := m.Called(ctx, year, quarter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*calendar.Deadlines), args.Error(1)
}
