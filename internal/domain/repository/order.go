package repository

import (
	"context"

	"github.com/dominatehq/payportal/internal/domain/model"
)

// OrderRepository persists the local read model of backend orders.
type OrderRepository interface {
	// Upsert stores the freshest observed snapshot of an order. Last write
	// wins; the backend remains the source of truth.
	Upsert(ctx context.Context, order *model.Order) error
	GetByID(ctx context.Context, id int64) (*model.Order, error)
	GetByCode(ctx context.Context, code string) (*model.Order, error)
	// SelectNonTerminal returns up to limit orders whose settlement is still
	// in flight, for the settlement watcher to re-poll.
	SelectNonTerminal(ctx context.Context, limit int) ([]model.Order, error)
	UpdateStatus(ctx context.Context, id int64, status model.PaymentStatus) error
	SetPaymentMethod(ctx context.Context, id int64, method model.PaymentMethod, bank *model.BankTransfer) error
}
