package usecase

import (
	"context"
	"log/slog"

	"github.com/dominatehq/payportal/internal/adapter/backend"
	domainErrors "github.com/dominatehq/payportal/internal/domain/errors"
	"github.com/dominatehq/payportal/internal/domain/model"
	"github.com/dominatehq/payportal/internal/domain/repository"
)

// LicenseUseCase drives license issuance against the backend and keeps the
// local issuance audit. Issue is not idempotent; avoiding repeated calls for
// the same order is the caller's responsibility, and every attempt lands in
// the audit trail because backend-side deduplication is unspecified.
type LicenseUseCase struct {
	backend  backend.Client
	licenses repository.LicenseRepository
	logger   *slog.Logger
}

// NewLicenseUseCase constructs LicenseUseCase.
func NewLicenseUseCase(client backend.Client, licenses repository.LicenseRepository, logger *slog.Logger) *LicenseUseCase {
	return &LicenseUseCase{backend: client, licenses: licenses, logger: logger}
}

// Issue requests license creation for a settled order and records the
// attempt. The audit write is best-effort and never masks the backend
// outcome.
func (u *LicenseUseCase) Issue(ctx context.Context, token string, orderID int64) (*model.License, error) {
	license, err := u.backend.CreateLicense(ctx, token, orderID)
	if err != nil {
		u.recordIssuance(ctx, orderID, false, err.Error())
		return nil, err
	}

	license.OrderID = orderID
	u.recordIssuance(ctx, orderID, true, "")

	if err := u.licenses.AttachToOrder(ctx, license); err != nil {
		u.logger.Warn("attach license to order failed",
			slog.Int64("order_id", orderID),
			slog.String("error", err.Error()),
		)
	}

	return license, nil
}

// UserLicenses lists one page of a user's licenses from the backend.
func (u *LicenseUseCase) UserLicenses(ctx context.Context, token, userID string, page, size int, search string) (*model.LicensePage, error) {
	if userID == "" {
		return nil, domainErrors.ErrMissingParameter
	}
	return u.backend.UserLicenses(ctx, token, userID, page, size, search)
}

// Assign creates a license for a user directly.
func (u *LicenseUseCase) Assign(ctx context.Context, token, userID string, orderID int64) (*model.License, error) {
	if userID == "" {
		return nil, domainErrors.ErrMissingParameter
	}
	return u.backend.AssignLicense(ctx, token, userID, orderID)
}

// ActivateNext activates the user's next usable license of the given type.
func (u *LicenseUseCase) ActivateNext(ctx context.Context, token, userID, licenseType string) (*model.License, error) {
	if userID == "" || licenseType == "" {
		return nil, domainErrors.ErrMissingParameter
	}
	return u.backend.ActivateNextLicense(ctx, token, userID, licenseType)
}

// IssuanceHistory returns the audit trail of issuance attempts for an order.
func (u *LicenseUseCase) IssuanceHistory(ctx context.Context, orderID int64) ([]model.IssuanceRecord, error) {
	return u.licenses.IssuanceHistory(ctx, orderID)
}

func (u *LicenseUseCase) recordIssuance(ctx context.Context, orderID int64, succeeded bool, message string) {
	if err := u.licenses.RecordIssuance(ctx, orderID, succeeded, message); err != nil {
		u.logger.Warn("record license issuance failed",
			slog.Int64("order_id", orderID),
			slog.String("error", err.Error()),
		)
	}
}
