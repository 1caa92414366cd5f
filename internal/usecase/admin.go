package usecase

import (
	"context"
	"log/slog"

	"github.com/dominatehq/payportal/internal/adapter/backend"
	domainErrors "github.com/dominatehq/payportal/internal/domain/errors"
	"github.com/dominatehq/payportal/internal/domain/model"
	"github.com/dominatehq/payportal/internal/domain/repository"
	"github.com/dominatehq/payportal/internal/pubsub"
)

// AdminUseCase is the status transition authority: it lets an operator move
// an order's payment status forward and triggers license issuance on SUCCESS.
type AdminUseCase struct {
	orders   repository.OrderRepository
	licenses *LicenseUseCase
	backend  backend.Client
	events   *pubsub.Manager
	logger   *slog.Logger
}

// NewAdminUseCase constructs AdminUseCase.
func NewAdminUseCase(orders repository.OrderRepository, licenses *LicenseUseCase, client backend.Client, events *pubsub.Manager, logger *slog.Logger) *AdminUseCase {
	return &AdminUseCase{orders: orders, licenses: licenses, backend: client, events: events, logger: logger}
}

// TransitionResult reports a completed status transition. License issuance
// outcome is carried separately: its failure never reverts the transition.
type TransitionResult struct {
	Order      *model.Order
	License    *model.License
	LicenseErr error
}

// UpdateStatus moves an order to newStatus. Only orders still in PENDING or
// PROCESSING may be moved, and only along the settlement state machine; once
// terminal, no transition is offered. When the transition lands on SUCCESS
// the license issuance trigger fires exactly once, synchronously.
func (u *AdminUseCase) UpdateStatus(ctx context.Context, token, orderCode string, newStatus model.PaymentStatus) (*TransitionResult, error) {
	if !model.ValidPaymentStatus(newStatus) {
		return nil, domainErrors.ErrInvalidStatus
	}

	order, err := u.backend.Order(ctx, token, orderCode)
	if err != nil {
		return nil, err
	}

	current := order.PaymentStatus
	if current != model.PaymentStatusPending && current != model.PaymentStatusProcessing {
		return nil, domainErrors.ErrOrderTerminal
	}
	if !model.CanTransition(current, newStatus) {
		return nil, domainErrors.ErrInvalidTransition
	}

	if err := u.backend.UpdateOrderStatus(ctx, token, orderCode, newStatus); err != nil {
		// Backend refused; local state stays at last-known-good.
		return nil, err
	}

	order.PaymentStatus = newStatus
	if err := u.orders.Upsert(ctx, order); err != nil {
		u.logger.Warn("store order snapshot failed", slog.String("order", orderCode), slog.String("error", err.Error()))
	}

	if err := u.events.PublishStatusChange(ctx, order.Code, newStatus); err != nil {
		u.logger.Warn("publish status change failed", slog.String("order", orderCode), slog.String("error", err.Error()))
	}

	result := &TransitionResult{Order: order}

	if newStatus == model.PaymentStatusSuccess {
		license, licenseErr := u.licenses.Issue(ctx, token, order.ID)
		result.License = license
		result.LicenseErr = licenseErr
		if license != nil {
			order.License = license
		}
		if licenseErr != nil {
			u.logger.Error("license issuance failed after success transition",
				slog.String("order", orderCode),
				slog.String("error", licenseErr.Error()),
			)
		}
	}

	return result, nil
}
