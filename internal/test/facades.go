package test

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dominatehq/payportal/internal/domain/model"
	"github.com/dominatehq/payportal/internal/usecase"
)

// OrderFacadeStub provides controllable behaviour for order endpoints.
type OrderFacadeStub struct {
	RefreshFn func(context.Context, string, string) (*model.Order, error)
	SubmitFn  func(context.Context, string, string, model.PaymentMethod, *model.BankTransfer) (*model.Order, error)
}

// RefreshOrder delegates to provided function or returns a default order.
func (s OrderFacadeStub) RefreshOrder(ctx context.Context, token, orderCode string) (*model.Order, error) {
	if s.RefreshFn != nil {
		return s.RefreshFn(ctx, token, orderCode)
	}
	return &model.Order{ID: 1, Code: orderCode, PaymentStatus: model.PaymentStatusPending}, nil
}

// SubmitPayment executes the configured handler or echoes the submission.
func (s OrderFacadeStub) SubmitPayment(ctx context.Context, token, orderCode string, method model.PaymentMethod, bank *model.BankTransfer) (*model.Order, error) {
	if s.SubmitFn != nil {
		return s.SubmitFn(ctx, token, orderCode, method, bank)
	}
	return &model.Order{
		ID:            1,
		Code:          orderCode,
		PaymentMethod: &method,
		PaymentStatus: model.PaymentStatusProcessing,
		BankTransfer:  bank,
	}, nil
}

// AdminFacadeStub simulates operator transitions.
type AdminFacadeStub struct {
	UpdateFn    func(context.Context, string, string, model.PaymentStatus) (*usecase.TransitionResult, error)
	IssuancesFn func(context.Context, int64) ([]model.IssuanceRecord, error)
}

// UpdateOrderStatus returns the configured transition result.
func (s AdminFacadeStub) UpdateOrderStatus(ctx context.Context, token, orderCode string, status model.PaymentStatus) (*usecase.TransitionResult, error) {
	if s.UpdateFn != nil {
		return s.UpdateFn(ctx, token, orderCode, status)
	}
	return &usecase.TransitionResult{
		Order: &model.Order{ID: 1, Code: orderCode, PaymentStatus: status},
	}, nil
}

// IssuanceHistory returns preconfigured audit entries.
func (s AdminFacadeStub) IssuanceHistory(ctx context.Context, orderID int64) ([]model.IssuanceRecord, error) {
	if s.IssuancesFn != nil {
		return s.IssuancesFn(ctx, orderID)
	}
	return []model.IssuanceRecord{{OrderID: orderID, Succeeded: true, AttemptedAt: time.Unix(0, 0)}}, nil
}

// LicenseFacadeStub simulates license proxy operations.
type LicenseFacadeStub struct {
	IssueFn    func(context.Context, string, int64) (*model.License, error)
	ListFn     func(context.Context, string, string, int, int, string) (*model.LicensePage, error)
	AssignFn   func(context.Context, string, string, int64) (*model.License, error)
	ActivateFn func(context.Context, string, string, string) (*model.License, error)
}

// IssueLicense returns configured license or a default one.
func (s LicenseFacadeStub) IssueLicense(ctx context.Context, token string, orderID int64) (*model.License, error) {
	if s.IssueFn != nil {
		return s.IssueFn(ctx, token, orderID)
	}
	return &model.License{ID: 1, OrderID: orderID, LicenseKey: "KEY", DaysLeft: 30, CanUsed: true}, nil
}

// UserLicenses returns configured page.
func (s LicenseFacadeStub) UserLicenses(ctx context.Context, token, userID string, page, size int, search string) (*model.LicensePage, error) {
	if s.ListFn != nil {
		return s.ListFn(ctx, token, userID, page, size, search)
	}
	return &model.LicensePage{Page: page, Size: size}, nil
}

// AssignLicense executes the configured handler.
func (s LicenseFacadeStub) AssignLicense(ctx context.Context, token, userID string, orderID int64) (*model.License, error) {
	if s.AssignFn != nil {
		return s.AssignFn(ctx, token, userID, orderID)
	}
	return &model.License{ID: 1, OrderID: orderID, LicenseKey: "KEY"}, nil
}

// ActivateNextLicense executes the configured handler.
func (s LicenseFacadeStub) ActivateNextLicense(ctx context.Context, token, userID, licenseType string) (*model.License, error) {
	if s.ActivateFn != nil {
		return s.ActivateFn(ctx, token, userID, licenseType)
	}
	return &model.License{ID: 1, LicenseKey: "KEY", CanUsed: true}, nil
}

// PortalFacadeStub aggregates facade dependencies for HTTP layer tests.
type PortalFacadeStub struct {
	OrderFacadeStub
	AdminFacadeStub
	LicenseFacadeStub
	HealthFn func(context.Context) error
}

// HealthCheck reports configured readiness state.
func (s PortalFacadeStub) HealthCheck(ctx context.Context) error {
	if s.HealthFn != nil {
		return s.HealthFn(ctx)
	}
	return nil
}

// WorkerFacadeStub mimics settlement watcher interactions with the facade.
type WorkerFacadeStub struct {
	Batches         [][]model.Order
	OrdersFn        func(context.Context, int) ([]model.Order, error)
	ReconcileFn     func(context.Context, string) error
	Reconciled      []string
	mu              sync.Mutex
	ordersCallCount int32
}

// Lock exposes internal mutex for external synchronization.
func (s *WorkerFacadeStub) Lock() { s.mu.Lock() }

// Unlock releases previously acquired lock.
func (s *WorkerFacadeStub) Unlock() { s.mu.Unlock() }

// OrdersForRecheck returns batches from configured queue.
func (s *WorkerFacadeStub) OrdersForRecheck(ctx context.Context, limit int) ([]model.Order, error) {
	if s.OrdersFn != nil {
		return s.OrdersFn(ctx, limit)
	}
	call := atomic.AddInt32(&s.ordersCallCount, 1)
	if int(call) <= len(s.Batches) {
		return s.Batches[call-1], nil
	}
	time.Sleep(10 * time.Millisecond)
	return nil, nil
}

// ReconcileOrder records reconciled order codes.
func (s *WorkerFacadeStub) ReconcileOrder(ctx context.Context, orderCode string) error {
	if s.ReconcileFn != nil {
		return s.ReconcileFn(ctx, orderCode)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Reconciled = append(s.Reconciled, orderCode)
	return nil
}

// TrackerFacadeStub feeds order snapshots to tracker tests.
type TrackerFacadeStub struct {
	RefreshFn func(context.Context, string, string) (*model.Order, error)
	Order     *model.Order
	Err       error
	Calls     int32
}

// RefreshOrder counts invocations and returns the configured snapshot.
func (s *TrackerFacadeStub) RefreshOrder(ctx context.Context, token, orderCode string) (*model.Order, error) {
	atomic.AddInt32(&s.Calls, 1)
	if s.RefreshFn != nil {
		return s.RefreshFn(ctx, token, orderCode)
	}
	if s.Err != nil {
		return nil, s.Err
	}
	if s.Order != nil {
		return s.Order, nil
	}
	return &model.Order{ID: 1, Code: orderCode, PaymentStatus: model.PaymentStatusPending}, nil
}

// RefreshCalls reports how many fetches the tracker issued.
func (s *TrackerFacadeStub) RefreshCalls() int {
	return int(atomic.LoadInt32(&s.Calls))
}
