package repository

import (
	"context"

	"github.com/dominatehq/payportal/internal/domain/model"
)

// LicenseRepository persists licenses attached to local orders and the
// issuance audit trail.
type LicenseRepository interface {
	AttachToOrder(ctx context.Context, license *model.License) error
	GetByOrder(ctx context.Context, orderID int64) (*model.License, error)
	RecordIssuance(ctx context.Context, orderID int64, succeeded bool, message string) error
	IssuanceHistory(ctx context.Context, orderID int64) ([]model.IssuanceRecord, error)
}
