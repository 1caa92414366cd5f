package usecase_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/redis/go-redis/v9"

	domainErrors "github.com/dominatehq/payportal/internal/domain/errors"
	"github.com/dominatehq/payportal/internal/domain/model"
	"github.com/dominatehq/payportal/internal/pubsub"
	testhelpers "github.com/dominatehq/payportal/internal/test"
	"github.com/dominatehq/payportal/internal/usecase"
)

func newEvents() *pubsub.Manager {
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	rdb := redis.NewClient(&redis.Options{Addr: "localhost:0"})
	return pubsub.NewManager(rdb, logger)
}

func newOrderUseCase(backendStub *testhelpers.BackendClientStub, orders *testhelpers.OrderRepositoryStub) *usecase.OrderUseCase {
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	return usecase.NewOrderUseCase(orders, backendStub, newEvents(), logger)
}

func TestRefreshEmptyCodeIsNoOp(t *testing.T) {
	backendStub := &testhelpers.BackendClientStub{
		OrderFn: func(context.Context, string, string) (*model.Order, error) {
			t.Fatal("backend must not be called for an empty order code")
			return nil, nil
		},
	}
	uc := newOrderUseCase(backendStub, &testhelpers.OrderRepositoryStub{})

	order, err := uc.Refresh(context.Background(), "token", "")
	if err != nil || order != nil {
		t.Fatalf("expected nil result for empty code, got order=%v err=%v", order, err)
	}
}

func TestRefreshStoresSnapshot(t *testing.T) {
	backendStub := &testhelpers.BackendClientStub{Orders: map[string]*model.Order{
		"ord-1": {ID: 1, Code: "ord-1", PaymentStatus: model.PaymentStatusPending},
	}}
	orders := &testhelpers.OrderRepositoryStub{}
	uc := newOrderUseCase(backendStub, orders)

	order, err := uc.Refresh(context.Background(), "token", "ord-1")
	if err != nil {
		t.Fatalf("refresh returned error: %v", err)
	}
	if order == nil || order.PaymentStatus != model.PaymentStatusPending {
		t.Fatalf("unexpected order %+v", order)
	}
	if len(orders.Upserted) != 1 || orders.Upserted[0].Code != "ord-1" {
		t.Fatalf("expected snapshot stored, got %+v", orders.Upserted)
	}
}

func TestRefreshBackendFailureKeepsLocalState(t *testing.T) {
	backendStub := &testhelpers.BackendClientStub{
		OrderFn: func(context.Context, string, string) (*model.Order, error) {
			return nil, errors.New("backend down")
		},
	}
	orders := &testhelpers.OrderRepositoryStub{}
	uc := newOrderUseCase(backendStub, orders)

	if _, err := uc.Refresh(context.Background(), "token", "ord-1"); err == nil {
		t.Fatal("expected error from failing backend")
	}
	if len(orders.Upserted) != 0 {
		t.Fatalf("expected no snapshot write on failure, got %+v", orders.Upserted)
	}
}

func TestRefreshSnapshotWriteFailureIsNonFatal(t *testing.T) {
	backendStub := &testhelpers.BackendClientStub{Orders: map[string]*model.Order{
		"ord-1": {ID: 1, Code: "ord-1", PaymentStatus: model.PaymentStatusSuccess},
	}}
	orders := &testhelpers.OrderRepositoryStub{
		UpsertFn: func(context.Context, *model.Order) error { return errors.New("db down") },
	}
	uc := newOrderUseCase(backendStub, orders)

	order, err := uc.Refresh(context.Background(), "token", "ord-1")
	if err != nil {
		t.Fatalf("expected refresh to succeed despite snapshot failure, got %v", err)
	}
	if order.PaymentStatus != model.PaymentStatusSuccess {
		t.Fatalf("unexpected order %+v", order)
	}
}

func TestSubmitPaymentValidations(t *testing.T) {
	backendStub := &testhelpers.BackendClientStub{Orders: map[string]*model.Order{}}
	uc := newOrderUseCase(backendStub, &testhelpers.OrderRepositoryStub{})

	if _, err := uc.SubmitPayment(context.Background(), "token", "ord-1", "CASH", nil); !errors.Is(err, domainErrors.ErrInvalidMethod) {
		t.Fatalf("expected invalid method, got %v", err)
	}
	if _, err := uc.SubmitPayment(context.Background(), "token", "ord-1", model.PaymentMethodBank, nil); !errors.Is(err, domainErrors.ErrMissingParameter) {
		t.Fatalf("expected missing parameter for BANK without transfer data, got %v", err)
	}
}

func TestSubmitPaymentRefusedOnceSubmitted(t *testing.T) {
	method := model.PaymentMethodPayos
	backendStub := &testhelpers.BackendClientStub{Orders: map[string]*model.Order{
		"ord-1": {ID: 1, Code: "ord-1", PaymentMethod: &method, PaymentStatus: model.PaymentStatusProcessing},
	}}
	uc := newOrderUseCase(backendStub, &testhelpers.OrderRepositoryStub{})

	if _, err := uc.SubmitPayment(context.Background(), "token", "ord-1", model.PaymentMethodBank, &model.BankTransfer{}); !errors.Is(err, domainErrors.ErrPaymentSubmitted) {
		t.Fatalf("expected payment submitted, got %v", err)
	}
}

func TestSubmitPaymentRefusedOnTerminalOrder(t *testing.T) {
	backendStub := &testhelpers.BackendClientStub{Orders: map[string]*model.Order{
		"ord-1": {ID: 1, Code: "ord-1", PaymentStatus: model.PaymentStatusCancelled},
	}}
	uc := newOrderUseCase(backendStub, &testhelpers.OrderRepositoryStub{})

	if _, err := uc.SubmitPayment(context.Background(), "token", "ord-1", model.PaymentMethodPayos, nil); !errors.Is(err, domainErrors.ErrOrderTerminal) {
		t.Fatalf("expected terminal order, got %v", err)
	}
}

func TestSubmitPaymentBackendRefusalLeavesLocalStateUntouched(t *testing.T) {
	backendStub := &testhelpers.BackendClientStub{
		Orders: map[string]*model.Order{
			"ord-1": {ID: 1, Code: "ord-1", PaymentStatus: model.PaymentStatusPending},
		},
		UpdateStatusFn: func(context.Context, string, string, model.PaymentStatus) error {
			return errors.New("backend refused")
		},
	}
	orders := &testhelpers.OrderRepositoryStub{}
	uc := newOrderUseCase(backendStub, orders)

	if _, err := uc.SubmitPayment(context.Background(), "token", "ord-1", model.PaymentMethodPayos, nil); err == nil {
		t.Fatal("expected error from refusing backend")
	}
	if len(orders.Upserted) != 0 || len(orders.MethodCalls) != 0 || len(orders.StatusCalls) != 0 {
		t.Fatal("expected no local writes when the backend refuses")
	}
}

func TestSubmitPaymentBankFlow(t *testing.T) {
	backendStub := &testhelpers.BackendClientStub{Orders: map[string]*model.Order{
		"ord-1": {ID: 1, Code: "ord-1", PaymentStatus: model.PaymentStatusPending},
	}}
	orders := &testhelpers.OrderRepositoryStub{}
	uc := newOrderUseCase(backendStub, orders)

	bank := &model.BankTransfer{AccountName: "acme", AccountNumber: "42", BankBIN: "970"}
	order, err := uc.SubmitPayment(context.Background(), "token", "ord-1", model.PaymentMethodBank, bank)
	if err != nil {
		t.Fatalf("submit returned error: %v", err)
	}
	if order.PaymentStatus != model.PaymentStatusProcessing {
		t.Fatalf("expected PROCESSING, got %s", order.PaymentStatus)
	}
	if order.BankTransfer == nil || order.BankTransfer.AccountNumber != "42" {
		t.Fatalf("expected transfer data kept, got %+v", order.BankTransfer)
	}
	if len(orders.MethodCalls) != 1 || orders.MethodCalls[0].Method != model.PaymentMethodBank {
		t.Fatalf("expected stored method call, got %+v", orders.MethodCalls)
	}
	if len(orders.StatusCalls) != 1 || orders.StatusCalls[0].Status != model.PaymentStatusProcessing {
		t.Fatalf("expected stored status call, got %+v", orders.StatusCalls)
	}
}

func TestSubmitPaymentPayosDropsTransferData(t *testing.T) {
	backendStub := &testhelpers.BackendClientStub{Orders: map[string]*model.Order{
		"ord-1": {ID: 1, Code: "ord-1", PaymentStatus: model.PaymentStatusPending},
	}}
	uc := newOrderUseCase(backendStub, &testhelpers.OrderRepositoryStub{})

	order, err := uc.SubmitPayment(context.Background(), "token", "ord-1", model.PaymentMethodPayos, &model.BankTransfer{AccountName: "stray"})
	if err != nil {
		t.Fatalf("submit returned error: %v", err)
	}
	if order.BankTransfer != nil {
		t.Fatalf("expected no transfer data for PAYOS, got %+v", order.BankTransfer)
	}
}

func TestOrdersForRecheck(t *testing.T) {
	orders := &testhelpers.OrderRepositoryStub{
		NonTerminal: []model.Order{{ID: 1, Code: "ord-1", PaymentStatus: model.PaymentStatusPending}},
	}
	uc := newOrderUseCase(&testhelpers.BackendClientStub{}, orders)

	batch, err := uc.OrdersForRecheck(context.Background(), 10)
	if err != nil || len(batch) != 1 {
		t.Fatalf("unexpected batch: %v err=%v", batch, err)
	}
}
