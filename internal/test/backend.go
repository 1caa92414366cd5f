package test

import (
	"context"
	"sync"

	domainErrors "github.com/dominatehq/payportal/internal/domain/errors"
	"github.com/dominatehq/payportal/internal/domain/model"
)

// BackendStatusCall stores information about UpdateOrderStatus invocations.
type BackendStatusCall struct {
	OrderID string
	Status  model.PaymentStatus
}

// BackendClientStub simulates the remote portal backend.
type BackendClientStub struct {
	OrderFn         func(context.Context, string, string) (*model.Order, error)
	UpdateStatusFn  func(context.Context, string, string, model.PaymentStatus) error
	CreateLicenseFn func(context.Context, string, int64) (*model.License, error)
	UserLicensesFn  func(context.Context, string, string, int, int, string) (*model.LicensePage, error)
	AssignFn        func(context.Context, string, string, int64) (*model.License, error)
	ActivateFn      func(context.Context, string, string, string) (*model.License, error)

	Orders map[string]*model.Order

	mu          sync.Mutex
	StatusCalls []BackendStatusCall
	CreateCalls []int64
}

// Order returns the stored order or delegates to the override.
func (s *BackendClientStub) Order(ctx context.Context, token, orderID string) (*model.Order, error) {
	if s.OrderFn != nil {
		return s.OrderFn(ctx, token, orderID)
	}
	if order, ok := s.Orders[orderID]; ok {
		copied := *order
		return &copied, nil
	}
	return nil, domainErrors.ErrNotFound
}

// UpdateOrderStatus records transition requests.
func (s *BackendClientStub) UpdateOrderStatus(ctx context.Context, token, orderID string, status model.PaymentStatus) error {
	if s.UpdateStatusFn != nil {
		return s.UpdateStatusFn(ctx, token, orderID, status)
	}
	s.mu.Lock()
	s.StatusCalls = append(s.StatusCalls, BackendStatusCall{OrderID: orderID, Status: status})
	s.mu.Unlock()
	if order, ok := s.Orders[orderID]; ok {
		order.PaymentStatus = status
	}
	return nil
}

// CreateLicense records issuance requests and returns a default license.
func (s *BackendClientStub) CreateLicense(ctx context.Context, token string, orderID int64) (*model.License, error) {
	s.mu.Lock()
	s.CreateCalls = append(s.CreateCalls, orderID)
	s.mu.Unlock()
	if s.CreateLicenseFn != nil {
		return s.CreateLicenseFn(ctx, token, orderID)
	}
	return &model.License{ID: 1, OrderID: orderID, LicenseKey: "KEY", DaysLeft: 30, CanUsed: true}, nil
}

// UserLicenses returns the configured page.
func (s *BackendClientStub) UserLicenses(ctx context.Context, token, userID string, page, size int, search string) (*model.LicensePage, error) {
	if s.UserLicensesFn != nil {
		return s.UserLicensesFn(ctx, token, userID, page, size, search)
	}
	return &model.LicensePage{Page: page, Size: size}, nil
}

// AssignLicense delegates to the override or returns a default license.
func (s *BackendClientStub) AssignLicense(ctx context.Context, token, userID string, orderID int64) (*model.License, error) {
	if s.AssignFn != nil {
		return s.AssignFn(ctx, token, userID, orderID)
	}
	return &model.License{ID: 1, OrderID: orderID, LicenseKey: "KEY"}, nil
}

// ActivateNextLicense delegates to the override or returns a default license.
func (s *BackendClientStub) ActivateNextLicense(ctx context.Context, token, userID, licenseType string) (*model.License, error) {
	if s.ActivateFn != nil {
		return s.ActivateFn(ctx, token, userID, licenseType)
	}
	return &model.License{ID: 1, LicenseKey: "KEY", CanUsed: true}, nil
}

// CreateLicenseCalls returns the recorded issuance order ids.
func (s *BackendClientStub) CreateLicenseCalls() []int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	calls := make([]int64, len(s.CreateCalls))
	copy(calls, s.CreateCalls)
	return calls
}
