package handlers

import (
	"context"

	"github.com/dominatehq/payportal/internal/domain/model"
	"github.com/dominatehq/payportal/internal/usecase"
)

// OrderFacade encapsulates order operations exposed via HTTP.
type OrderFacade interface {
	RefreshOrder(ctx context.Context, token, orderCode string) (*model.Order, error)
	SubmitPayment(ctx context.Context, token, orderCode string, method model.PaymentMethod, bank *model.BankTransfer) (*model.Order, error)
}

// AdminFacade describes operator capabilities required by handlers.
type AdminFacade interface {
	UpdateOrderStatus(ctx context.Context, token, orderCode string, status model.PaymentStatus) (*usecase.TransitionResult, error)
	IssuanceHistory(ctx context.Context, orderID int64) ([]model.IssuanceRecord, error)
}

// LicenseFacade provides license related operations.
type LicenseFacade interface {
	IssueLicense(ctx context.Context, token string, orderID int64) (*model.License, error)
	UserLicenses(ctx context.Context, token, userID string, page, size int, search string) (*model.LicensePage, error)
	AssignLicense(ctx context.Context, token, userID string, orderID int64) (*model.License, error)
	ActivateNextLicense(ctx context.Context, token, userID, licenseType string) (*model.License, error)
}

// PortalFacade aggregates the full set of operations used across handlers.
type PortalFacade interface {
	OrderFacade
	AdminFacade
	LicenseFacade
	HealthCheck(ctx context.Context) error
}
