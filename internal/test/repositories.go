package test

import (
	"context"
	"time"

	domainErrors "github.com/dominatehq/payportal/internal/domain/errors"
	"github.com/dominatehq/payportal/internal/domain/model"
)

// StatusUpdateCall stores information about UpdateStatus invocations.
type StatusUpdateCall struct {
	OrderID int64
	Status  model.PaymentStatus
}

// MethodUpdateCall stores information about SetPaymentMethod invocations.
type MethodUpdateCall struct {
	OrderID int64
	Method  model.PaymentMethod
	Bank    *model.BankTransfer
}

// OrderRepositoryStub allows tests to customize behaviour.
type OrderRepositoryStub struct {
	UpsertFn            func(context.Context, *model.Order) error
	GetByIDFn           func(context.Context, int64) (*model.Order, error)
	GetByCodeFn         func(context.Context, string) (*model.Order, error)
	SelectNonTerminalFn func(context.Context, int) ([]model.Order, error)
	UpdateStatusFn      func(context.Context, int64, model.PaymentStatus) error
	SetPaymentMethodFn  func(context.Context, int64, model.PaymentMethod, *model.BankTransfer) error

	Orders      []model.Order
	NonTerminal []model.Order
	Upserted    []model.Order
	StatusCalls []StatusUpdateCall
	MethodCalls []MethodUpdateCall
}

// Upsert tracks stored snapshots.
func (s *OrderRepositoryStub) Upsert(ctx context.Context, order *model.Order) error {
	if s.UpsertFn != nil {
		return s.UpsertFn(ctx, order)
	}
	s.Upserted = append(s.Upserted, *order)
	return nil
}

// GetByID returns matched order either via override or stored slice.
func (s *OrderRepositoryStub) GetByID(ctx context.Context, id int64) (*model.Order, error) {
	if s.GetByIDFn != nil {
		return s.GetByIDFn(ctx, id)
	}
	for _, o := range s.Orders {
		if o.ID == id {
			order := o
			return &order, nil
		}
	}
	return nil, domainErrors.ErrNotFound
}

// GetByCode returns matched order either via override or stored slice.
func (s *OrderRepositoryStub) GetByCode(ctx context.Context, code string) (*model.Order, error) {
	if s.GetByCodeFn != nil {
		return s.GetByCodeFn(ctx, code)
	}
	for _, o := range s.Orders {
		if o.Code == code {
			order := o
			return &order, nil
		}
	}
	return nil, domainErrors.ErrNotFound
}

// SelectNonTerminal returns queued orders for the settlement watcher.
func (s *OrderRepositoryStub) SelectNonTerminal(ctx context.Context, limit int) ([]model.Order, error) {
	if s.SelectNonTerminalFn != nil {
		return s.SelectNonTerminalFn(ctx, limit)
	}
	return s.NonTerminal, nil
}

// UpdateStatus records update invocations.
func (s *OrderRepositoryStub) UpdateStatus(ctx context.Context, id int64, status model.PaymentStatus) error {
	if s.UpdateStatusFn != nil {
		return s.UpdateStatusFn(ctx, id, status)
	}
	s.StatusCalls = append(s.StatusCalls, StatusUpdateCall{OrderID: id, Status: status})
	return nil
}

// SetPaymentMethod records method submissions.
func (s *OrderRepositoryStub) SetPaymentMethod(ctx context.Context, id int64, method model.PaymentMethod, bank *model.BankTransfer) error {
	if s.SetPaymentMethodFn != nil {
		return s.SetPaymentMethodFn(ctx, id, method, bank)
	}
	s.MethodCalls = append(s.MethodCalls, MethodUpdateCall{OrderID: id, Method: method, Bank: bank})
	return nil
}

// IssuanceCall stores information about RecordIssuance invocations.
type IssuanceCall struct {
	OrderID   int64
	Succeeded bool
	Message   string
}

// LicenseRepositoryStub lets tests control license persistence.
type LicenseRepositoryStub struct {
	AttachFn  func(context.Context, *model.License) error
	GetFn     func(context.Context, int64) (*model.License, error)
	RecordFn  func(context.Context, int64, bool, string) error
	HistoryFn func(context.Context, int64) ([]model.IssuanceRecord, error)

	Attached  []model.License
	Issuances []IssuanceCall
	History   []model.IssuanceRecord
}

// AttachToOrder tracks attached licenses.
func (s *LicenseRepositoryStub) AttachToOrder(ctx context.Context, license *model.License) error {
	if s.AttachFn != nil {
		return s.AttachFn(ctx, license)
	}
	s.Attached = append(s.Attached, *license)
	return nil
}

// GetByOrder returns attached license or not found.
func (s *LicenseRepositoryStub) GetByOrder(ctx context.Context, orderID int64) (*model.License, error) {
	if s.GetFn != nil {
		return s.GetFn(ctx, orderID)
	}
	for _, l := range s.Attached {
		if l.OrderID == orderID {
			license := l
			return &license, nil
		}
	}
	return nil, domainErrors.ErrNotFound
}

// RecordIssuance records every issuance attempt.
func (s *LicenseRepositoryStub) RecordIssuance(ctx context.Context, orderID int64, succeeded bool, message string) error {
	if s.RecordFn != nil {
		return s.RecordFn(ctx, orderID, succeeded, message)
	}
	s.Issuances = append(s.Issuances, IssuanceCall{OrderID: orderID, Succeeded: succeeded, Message: message})
	return nil
}

// IssuanceHistory returns configured audit entries.
func (s *LicenseRepositoryStub) IssuanceHistory(ctx context.Context, orderID int64) ([]model.IssuanceRecord, error) {
	if s.HistoryFn != nil {
		return s.HistoryFn(ctx, orderID)
	}
	if s.History != nil {
		return s.History, nil
	}
	records := make([]model.IssuanceRecord, 0, len(s.Issuances))
	for _, call := range s.Issuances {
		records = append(records, model.IssuanceRecord{
			OrderID:     call.OrderID,
			Succeeded:   call.Succeeded,
			Message:     call.Message,
			AttemptedAt: time.Unix(0, 0),
		})
	}
	return records, nil
}
