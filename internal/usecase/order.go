package usecase

import (
	"context"
	"errors"
	"log/slog"

	"github.com/dominatehq/payportal/internal/adapter/backend"
	domainErrors "github.com/dominatehq/payportal/internal/domain/errors"
	"github.com/dominatehq/payportal/internal/domain/model"
	"github.com/dominatehq/payportal/internal/domain/repository"
	"github.com/dominatehq/payportal/internal/pubsub"
)

// OrderUseCase tracks backend order state: pull, snapshot, fan-out.
type OrderUseCase struct {
	orders  repository.OrderRepository
	backend backend.Client
	events  *pubsub.Manager
	logger  *slog.Logger
}

// NewOrderUseCase constructs OrderUseCase.
func NewOrderUseCase(orders repository.OrderRepository, client backend.Client, events *pubsub.Manager, logger *slog.Logger) *OrderUseCase {
	return &OrderUseCase{orders: orders, backend: client, events: events, logger: logger}
}

// Refresh pulls the current order from the backend, persists the snapshot
// and announces a status change when one is observed against the previous
// snapshot. An empty order code is a no-op. The backend stays the source of
// truth; a failing snapshot write never fails the read.
func (u *OrderUseCase) Refresh(ctx context.Context, token, orderCode string) (*model.Order, error) {
	if orderCode == "" {
		return nil, nil
	}

	fresh, err := u.backend.Order(ctx, token, orderCode)
	if err != nil {
		return nil, err
	}

	previous, err := u.orders.GetByCode(ctx, orderCode)
	if err != nil && !errors.Is(err, domainErrors.ErrNotFound) {
		u.logger.Warn("read order snapshot failed", slog.String("order", orderCode), slog.String("error", err.Error()))
		previous = nil
	}

	if err := u.orders.Upsert(ctx, fresh); err != nil {
		u.logger.Warn("store order snapshot failed", slog.String("order", orderCode), slog.String("error", err.Error()))
	}

	if previous == nil || previous.PaymentStatus != fresh.PaymentStatus {
		if err := u.events.PublishStatusChange(ctx, fresh.Code, fresh.PaymentStatus); err != nil {
			u.logger.Warn("publish status change failed", slog.String("order", orderCode), slog.String("error", err.Error()))
		}
	}

	return fresh, nil
}

// SubmitPayment runs one of the two payment sub-flows. BANK requires
// transfer metadata, PAYOS does not carry any. Submission is refused once a
// payment instrument is attached and moves the order into PROCESSING.
func (u *OrderUseCase) SubmitPayment(ctx context.Context, token, orderCode string, method model.PaymentMethod, bank *model.BankTransfer) (*model.Order, error) {
	if !model.ValidPaymentMethod(method) {
		return nil, domainErrors.ErrInvalidMethod
	}
	if method == model.PaymentMethodBank && bank == nil {
		return nil, domainErrors.ErrMissingParameter
	}
	if method == model.PaymentMethodPayos {
		bank = nil
	}

	order, err := u.backend.Order(ctx, token, orderCode)
	if err != nil {
		return nil, err
	}
	if order.PaymentSubmitted() {
		return nil, domainErrors.ErrPaymentSubmitted
	}
	if order.PaymentStatus.Terminal() {
		return nil, domainErrors.ErrOrderTerminal
	}

	if err := u.backend.UpdateOrderStatus(ctx, token, orderCode, model.PaymentStatusProcessing); err != nil {
		return nil, err
	}

	if err := u.orders.Upsert(ctx, order); err != nil {
		u.logger.Warn("store order snapshot failed", slog.String("order", orderCode), slog.String("error", err.Error()))
	} else {
		if err := u.orders.SetPaymentMethod(ctx, order.ID, method, bank); err != nil {
			u.logger.Warn("store payment method failed", slog.String("order", orderCode), slog.String("error", err.Error()))
		}
		if err := u.orders.UpdateStatus(ctx, order.ID, model.PaymentStatusProcessing); err != nil {
			u.logger.Warn("store order status failed", slog.String("order", orderCode), slog.String("error", err.Error()))
		}
	}

	order.PaymentMethod = &method
	order.BankTransfer = bank
	order.PaymentStatus = model.PaymentStatusProcessing

	if err := u.events.PublishStatusChange(ctx, order.Code, order.PaymentStatus); err != nil {
		u.logger.Warn("publish status change failed", slog.String("order", orderCode), slog.String("error", err.Error()))
	}

	return order, nil
}

// OrdersForRecheck returns tracked orders whose settlement is still in
// flight, for the settlement watcher.
func (u *OrderUseCase) OrdersForRecheck(ctx context.Context, limit int) ([]model.Order, error) {
	return u.orders.SelectNonTerminal(ctx, limit)
}
