package usecase_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	domainErrors "github.com/dominatehq/payportal/internal/domain/errors"
	"github.com/dominatehq/payportal/internal/domain/model"
	testhelpers "github.com/dominatehq/payportal/internal/test"
	"github.com/dominatehq/payportal/internal/usecase"
)

func newLicenseUseCase(backendStub *testhelpers.BackendClientStub, licenses *testhelpers.LicenseRepositoryStub) *usecase.LicenseUseCase {
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	return usecase.NewLicenseUseCase(backendStub, licenses, logger)
}

func TestIssueRecordsSuccessfulAttempt(t *testing.T) {
	backendStub := &testhelpers.BackendClientStub{}
	licenses := &testhelpers.LicenseRepositoryStub{}
	uc := newLicenseUseCase(backendStub, licenses)

	license, err := uc.Issue(context.Background(), "token", 1)
	if err != nil {
		t.Fatalf("issue returned error: %v", err)
	}
	if license.OrderID != 1 {
		t.Fatalf("expected license bound to order 1, got %+v", license)
	}
	if len(licenses.Issuances) != 1 || !licenses.Issuances[0].Succeeded {
		t.Fatalf("expected successful audit entry, got %+v", licenses.Issuances)
	}
	if len(licenses.Attached) != 1 {
		t.Fatalf("expected license attached locally, got %+v", licenses.Attached)
	}
}

func TestIssueRecordsFailedAttempt(t *testing.T) {
	backendStub := &testhelpers.BackendClientStub{
		CreateLicenseFn: func(context.Context, string, int64) (*model.License, error) {
			return nil, errors.New("backend down")
		},
	}
	licenses := &testhelpers.LicenseRepositoryStub{}
	uc := newLicenseUseCase(backendStub, licenses)

	if _, err := uc.Issue(context.Background(), "token", 1); err == nil {
		t.Fatal("expected error from failing backend")
	}
	if len(licenses.Issuances) != 1 || licenses.Issuances[0].Succeeded {
		t.Fatalf("expected failed audit entry, got %+v", licenses.Issuances)
	}
	if len(licenses.Attached) != 0 {
		t.Fatalf("expected no license attached, got %+v", licenses.Attached)
	}
}

func TestIssueIsNotIdempotent(t *testing.T) {
	backendStub := &testhelpers.BackendClientStub{}
	uc := newLicenseUseCase(backendStub, &testhelpers.LicenseRepositoryStub{})

	if _, err := uc.Issue(context.Background(), "token", 1); err != nil {
		t.Fatalf("first issue failed: %v", err)
	}
	if _, err := uc.Issue(context.Background(), "token", 1); err != nil {
		t.Fatalf("second issue failed: %v", err)
	}
	if calls := backendStub.CreateLicenseCalls(); len(calls) != 2 {
		t.Fatalf("expected two issuance calls, got %v", calls)
	}
}

func TestIssueAttachFailureIsNonFatal(t *testing.T) {
	licenses := &testhelpers.LicenseRepositoryStub{
		AttachFn: func(context.Context, *model.License) error { return errors.New("db down") },
	}
	uc := newLicenseUseCase(&testhelpers.BackendClientStub{}, licenses)

	if _, err := uc.Issue(context.Background(), "token", 1); err != nil {
		t.Fatalf("expected issue to survive attach failure, got %v", err)
	}
}

func TestUserLicensesRequiresUserID(t *testing.T) {
	uc := newLicenseUseCase(&testhelpers.BackendClientStub{}, &testhelpers.LicenseRepositoryStub{})

	if _, err := uc.UserLicenses(context.Background(), "token", "", 0, 10, ""); !errors.Is(err, domainErrors.ErrMissingParameter) {
		t.Fatalf("expected missing parameter, got %v", err)
	}

	page, err := uc.UserLicenses(context.Background(), "token", "user-1", 2, 10, "pro")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if page.Page != 2 || page.Size != 10 {
		t.Fatalf("unexpected page: %+v", page)
	}
}

func TestAssignRequiresUserID(t *testing.T) {
	uc := newLicenseUseCase(&testhelpers.BackendClientStub{}, &testhelpers.LicenseRepositoryStub{})

	if _, err := uc.Assign(context.Background(), "token", "", 1); !errors.Is(err, domainErrors.ErrMissingParameter) {
		t.Fatalf("expected missing parameter, got %v", err)
	}
	if _, err := uc.Assign(context.Background(), "token", "user-1", 1); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestActivateNextRequiresUserAndType(t *testing.T) {
	uc := newLicenseUseCase(&testhelpers.BackendClientStub{}, &testhelpers.LicenseRepositoryStub{})

	if _, err := uc.ActivateNext(context.Background(), "token", "", "pro"); !errors.Is(err, domainErrors.ErrMissingParameter) {
		t.Fatalf("expected missing parameter, got %v", err)
	}
	if _, err := uc.ActivateNext(context.Background(), "token", "user-1", ""); !errors.Is(err, domainErrors.ErrMissingParameter) {
		t.Fatalf("expected missing parameter, got %v", err)
	}
	if _, err := uc.ActivateNext(context.Background(), "token", "user-1", "pro"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestIssuanceHistoryDelegates(t *testing.T) {
	licenses := &testhelpers.LicenseRepositoryStub{
		History: []model.IssuanceRecord{{OrderID: 1, Succeeded: true}},
	}
	uc := newLicenseUseCase(&testhelpers.BackendClientStub{}, licenses)

	records, err := uc.IssuanceHistory(context.Background(), 1)
	if err != nil || len(records) != 1 {
		t.Fatalf("unexpected history: %v err=%v", records, err)
	}
}
