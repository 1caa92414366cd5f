package app

import (
	"context"

	"github.com/dominatehq/payportal/internal/domain/model"
	"github.com/dominatehq/payportal/internal/storage/postgres"
	"github.com/dominatehq/payportal/internal/usecase"
)

// PortalFacade is the single application surface behind the HTTP handlers,
// the order tracker and the settlement watcher.
type PortalFacade struct {
	orders       *usecase.OrderUseCase
	licenses     *usecase.LicenseUseCase
	admin        *usecase.AdminUseCase
	storage      *postgres.Storage
	backendToken string
}

func NewPortalFacade(orders *usecase.OrderUseCase, licenses *usecase.LicenseUseCase, admin *usecase.AdminUseCase, storage *postgres.Storage, backendToken string) *PortalFacade {
	return &PortalFacade{
		orders:       orders,
		licenses:     licenses,
		admin:        admin,
		storage:      storage,
		backendToken: backendToken,
	}
}

func (f *PortalFacade) RefreshOrder(ctx context.Context, token, orderCode string) (*model.Order, error) {
	return f.orders.Refresh(ctx, token, orderCode)
}

func (f *PortalFacade) SubmitPayment(ctx context.Context, token, orderCode string, method model.PaymentMethod, bank *model.BankTransfer) (*model.Order, error) {
	return f.orders.SubmitPayment(ctx, token, orderCode, method, bank)
}

func (f *PortalFacade) UpdateOrderStatus(ctx context.Context, token, orderCode string, status model.PaymentStatus) (*usecase.TransitionResult, error) {
	return f.admin.UpdateStatus(ctx, token, orderCode, status)
}

func (f *PortalFacade) IssueLicense(ctx context.Context, token string, orderID int64) (*model.License, error) {
	return f.licenses.Issue(ctx, token, orderID)
}

func (f *PortalFacade) UserLicenses(ctx context.Context, token, userID string, page, size int, search string) (*model.LicensePage, error) {
	return f.licenses.UserLicenses(ctx, token, userID, page, size, search)
}

func (f *PortalFacade) AssignLicense(ctx context.Context, token, userID string, orderID int64) (*model.License, error) {
	return f.licenses.Assign(ctx, token, userID, orderID)
}

func (f *PortalFacade) ActivateNextLicense(ctx context.Context, token, userID, licenseType string) (*model.License, error) {
	return f.licenses.ActivateNext(ctx, token, userID, licenseType)
}

func (f *PortalFacade) IssuanceHistory(ctx context.Context, orderID int64) ([]model.IssuanceRecord, error) {
	return f.licenses.IssuanceHistory(ctx, orderID)
}

func (f *PortalFacade) OrdersForRecheck(ctx context.Context, limit int) ([]model.Order, error) {
	return f.orders.OrdersForRecheck(ctx, limit)
}

// ReconcileOrder re-fetches one order on the service's own credentials and
// lets the refresh path publish any status change it discovers.
func (f *PortalFacade) ReconcileOrder(ctx context.Context, orderCode string) error {
	_, err := f.orders.Refresh(ctx, f.backendToken, orderCode)
	return err
}

func (f *PortalFacade) HealthCheck(ctx context.Context) error {
	return f.storage.HealthCheck(ctx)
}
