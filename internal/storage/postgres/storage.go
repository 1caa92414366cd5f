package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	domainErrors "github.com/dominatehq/payportal/internal/domain/errors"
	"github.com/dominatehq/payportal/internal/domain/model"
	"github.com/dominatehq/payportal/internal/domain/repository"
)

// dbPool is the subset of pgxpool.Pool the storage relies on. pgxmock
// implements the same surface for tests.
type dbPool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	BeginTx(ctx context.Context, txOptions pgx.TxOptions) (pgx.Tx, error)
	Ping(ctx context.Context) error
	Close()
}

// Storage acts as repository facade backed by PostgreSQL. It holds the
// service's read model of backend orders plus the license issuance audit.
type Storage struct {
	pool   dbPool
	logger *slog.Logger
}

type orderRepository struct {
	storage *Storage
}

type licenseRepository struct {
	storage *Storage
}

// newPgxPool is swapped in tests.
var newPgxPool = func(ctx context.Context, cfg *pgxpool.Config) (dbPool, error) {
	return pgxpool.NewWithConfig(ctx, cfg)
}

// New creates storage with schema initialization.
func New(ctx context.Context, dsn string, logger *slog.Logger) (*Storage, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse dsn: %w", err)
	}

	pool, err := newPgxPool(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect db: %w", err)
	}

	storage := &Storage{pool: pool, logger: logger}
	if err := storage.initSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return storage, nil
}

// Close releases database resources.
func (s *Storage) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// Factory methods for domain repositories.
func (s *Storage) Orders() repository.OrderRepository {
	return &orderRepository{storage: s}
}

func (s *Storage) Licenses() repository.LicenseRepository {
	return &licenseRepository{storage: s}
}

func (s *Storage) initSchema(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS orders (
            id BIGINT PRIMARY KEY,
            code TEXT UNIQUE NOT NULL,
            payment_method TEXT,
            payment_status TEXT NOT NULL,
            price DOUBLE PRECISION,
            subscription JSONB,
            buyer JSONB,
            account_name TEXT,
            account_number TEXT,
            bank_bin TEXT,
            date_transfer TIMESTAMPTZ,
            created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
            updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
            checked_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
        )`,
		`CREATE TABLE IF NOT EXISTS licenses (
            id SERIAL PRIMARY KEY,
            order_id BIGINT UNIQUE NOT NULL REFERENCES orders(id),
            license_key TEXT NOT NULL,
            days_left INT NOT NULL DEFAULT 0,
            can_used BOOLEAN NOT NULL DEFAULT TRUE,
            activated_at TIMESTAMPTZ
        )`,
		`CREATE TABLE IF NOT EXISTS license_issuances (
            id SERIAL PRIMARY KEY,
            order_id BIGINT NOT NULL,
            succeeded BOOLEAN NOT NULL,
            message TEXT NOT NULL DEFAULT '',
            attempted_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
        )`,
		`CREATE INDEX IF NOT EXISTS idx_orders_status ON orders(payment_status, checked_at)`,
		`CREATE INDEX IF NOT EXISTS idx_issuances_order ON license_issuances(order_id, attempted_at DESC)`,
	}

	for _, stmt := range statements {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("init schema: %w", err)
		}
	}

	return nil
}

// --- OrderRepository implementation ---

const orderColumns = `id, code, payment_method, payment_status, price, subscription, buyer,
                      account_name, account_number, bank_bin, date_transfer, created_at, updated_at`

func (r *orderRepository) Upsert(ctx context.Context, order *model.Order) error {
	subscription, err := marshalNullable(order.Subscription)
	if err != nil {
		return fmt.Errorf("encode subscription: %w", err)
	}
	buyer, err := marshalNullable(order.Buyer)
	if err != nil {
		return fmt.Errorf("encode buyer: %w", err)
	}

	var method *string
	if order.PaymentMethod != nil {
		m := string(*order.PaymentMethod)
		method = &m
	}

	var accountName, accountNumber, bankBIN *string
	var dateTransfer *time.Time
	if order.BankTransfer != nil {
		accountName = &order.BankTransfer.AccountName
		accountNumber = &order.BankTransfer.AccountNumber
		bankBIN = &order.BankTransfer.BankBIN
		dateTransfer = order.BankTransfer.DateTransfer
	}

	const query = `INSERT INTO orders (id, code, payment_method, payment_status, price, subscription, buyer,
                                       account_name, account_number, bank_bin, date_transfer, created_at, updated_at)
                   VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, NOW())
                   ON CONFLICT (id) DO UPDATE SET
                       payment_method = EXCLUDED.payment_method,
                       payment_status = EXCLUDED.payment_status,
                       price = EXCLUDED.price,
                       subscription = EXCLUDED.subscription,
                       buyer = EXCLUDED.buyer,
                       account_name = EXCLUDED.account_name,
                       account_number = EXCLUDED.account_number,
                       bank_bin = EXCLUDED.bank_bin,
                       date_transfer = EXCLUDED.date_transfer,
                       updated_at = NOW()`
	_, err = r.storage.pool.Exec(ctx, query,
		order.ID, order.Code, method, order.PaymentStatus, order.Price, subscription, buyer,
		accountName, accountNumber, bankBIN, dateTransfer, order.CreatedAt)
	return err
}

func (r *orderRepository) GetByID(ctx context.Context, id int64) (*model.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id=$1`
	order, err := scanOrder(r.storage.pool.QueryRow(ctx, query, id))
	if err != nil {
		return nil, err
	}
	if err := r.storage.attachLicense(ctx, order); err != nil {
		return nil, err
	}
	return order, nil
}

func (r *orderRepository) GetByCode(ctx context.Context, code string) (*model.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE code=$1`
	order, err := scanOrder(r.storage.pool.QueryRow(ctx, query, code))
	if err != nil {
		return nil, err
	}
	if err := r.storage.attachLicense(ctx, order); err != nil {
		return nil, err
	}
	return order, nil
}

func (r *orderRepository) SelectNonTerminal(ctx context.Context, limit int) ([]model.Order, error) {
	selectQuery := `SELECT ` + orderColumns + `
                    FROM orders
                    WHERE payment_status IN ('PENDING', 'PROCESSING')
                    ORDER BY checked_at
                    LIMIT $1
                    FOR UPDATE SKIP LOCKED`

	var orders []model.Order
	err := r.storage.WithinTransaction(ctx, func(tx pgx.Tx) error {
		rows, err := tx.Query(ctx, selectQuery, limit)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			order, err := scanOrder(rows)
			if err != nil {
				return err
			}
			orders = append(orders, *order)
		}
		if err := rows.Err(); err != nil {
			return err
		}

		for _, o := range orders {
			if _, err := tx.Exec(ctx, `UPDATE orders SET checked_at=NOW() WHERE id=$1`, o.ID); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return orders, nil
}

func (r *orderRepository) UpdateStatus(ctx context.Context, id int64, status model.PaymentStatus) error {
	const query = `UPDATE orders SET payment_status=$1, updated_at=NOW() WHERE id=$2`
	tag, err := r.storage.pool.Exec(ctx, query, status, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domainErrors.ErrNotFound
	}
	return nil
}

func (r *orderRepository) SetPaymentMethod(ctx context.Context, id int64, method model.PaymentMethod, bank *model.BankTransfer) error {
	var accountName, accountNumber, bankBIN *string
	var dateTransfer *time.Time
	if bank != nil {
		accountName = &bank.AccountName
		accountNumber = &bank.AccountNumber
		bankBIN = &bank.BankBIN
		dateTransfer = bank.DateTransfer
	}

	const query = `UPDATE orders SET payment_method=$1, account_name=$2, account_number=$3,
                       bank_bin=$4, date_transfer=$5, updated_at=NOW()
                   WHERE id=$6`
	tag, err := r.storage.pool.Exec(ctx, query, method, accountName, accountNumber, bankBIN, dateTransfer, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domainErrors.ErrNotFound
	}
	return nil
}

// --- LicenseRepository implementation ---

func (r *licenseRepository) AttachToOrder(ctx context.Context, license *model.License) error {
	const query = `INSERT INTO licenses (order_id, license_key, days_left, can_used, activated_at)
                   VALUES ($1, $2, $3, $4, $5)
                   ON CONFLICT (order_id) DO UPDATE SET
                       license_key = EXCLUDED.license_key,
                       days_left = EXCLUDED.days_left,
                       can_used = EXCLUDED.can_used,
                       activated_at = EXCLUDED.activated_at
                   RETURNING id`
	return r.storage.pool.QueryRow(ctx, query,
		license.OrderID, license.LicenseKey, license.DaysLeft, license.CanUsed, license.ActivatedAt).
		Scan(&license.ID)
}

func (r *licenseRepository) GetByOrder(ctx context.Context, orderID int64) (*model.License, error) {
	const query = `SELECT id, order_id, license_key, days_left, can_used, activated_at
                   FROM licenses WHERE order_id=$1`
	var l model.License
	err := r.storage.pool.QueryRow(ctx, query, orderID).
		Scan(&l.ID, &l.OrderID, &l.LicenseKey, &l.DaysLeft, &l.CanUsed, &l.ActivatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domainErrors.ErrNotFound
		}
		return nil, err
	}
	return &l, nil
}

func (r *licenseRepository) RecordIssuance(ctx context.Context, orderID int64, succeeded bool, message string) error {
	const query = `INSERT INTO license_issuances (order_id, succeeded, message) VALUES ($1, $2, $3)`
	_, err := r.storage.pool.Exec(ctx, query, orderID, succeeded, message)
	return err
}

func (r *licenseRepository) IssuanceHistory(ctx context.Context, orderID int64) ([]model.IssuanceRecord, error) {
	const query = `SELECT id, order_id, succeeded, message, attempted_at
                   FROM license_issuances WHERE order_id=$1 ORDER BY attempted_at DESC`
	rows, err := r.storage.pool.Query(ctx, query, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []model.IssuanceRecord
	for rows.Next() {
		var rec model.IssuanceRecord
		if err := rows.Scan(&rec.ID, &rec.OrderID, &rec.Succeeded, &rec.Message, &rec.AttemptedAt); err != nil {
			return nil, err
		}
		result = append(result, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// --- helpers ---

func (s *Storage) attachLicense(ctx context.Context, order *model.Order) error {
	license, err := (&licenseRepository{storage: s}).GetByOrder(ctx, order.ID)
	if err != nil {
		if errors.Is(err, domainErrors.ErrNotFound) {
			return nil
		}
		return err
	}
	order.License = license
	return nil
}

func marshalNullable(v any) ([]byte, error) {
	switch t := v.(type) {
	case *model.Subscription:
		if t == nil {
			return nil, nil
		}
	case *model.Buyer:
		if t == nil {
			return nil, nil
		}
	}
	return json.Marshal(v)
}

func scanOrder(row pgx.Row) (*model.Order, error) {
	var (
		o             model.Order
		method        *string
		subscription  []byte
		buyer         []byte
		accountName   *string
		accountNumber *string
		bankBIN       *string
		dateTransfer  *time.Time
	)

	err := row.Scan(&o.ID, &o.Code, &method, &o.PaymentStatus, &o.Price, &subscription, &buyer,
		&accountName, &accountNumber, &bankBIN, &dateTransfer, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domainErrors.ErrNotFound
		}
		return nil, err
	}

	if method != nil {
		m := model.PaymentMethod(*method)
		o.PaymentMethod = &m
	}
	if len(subscription) > 0 {
		var s model.Subscription
		if err := json.Unmarshal(subscription, &s); err != nil {
			return nil, fmt.Errorf("decode subscription: %w", err)
		}
		o.Subscription = &s
	}
	if len(buyer) > 0 {
		var b model.Buyer
		if err := json.Unmarshal(buyer, &b); err != nil {
			return nil, fmt.Errorf("decode buyer: %w", err)
		}
		o.Buyer = &b
	}
	if accountName != nil || accountNumber != nil || bankBIN != nil || dateTransfer != nil {
		bt := model.BankTransfer{DateTransfer: dateTransfer}
		if accountName != nil {
			bt.AccountName = *accountName
		}
		if accountNumber != nil {
			bt.AccountNumber = *accountNumber
		}
		if bankBIN != nil {
			bt.BankBIN = *bankBIN
		}
		o.BankTransfer = &bt
	}

	return &o, nil
}

// WithinTransaction executes function inside transaction boundary.
func (s *Storage) WithinTransaction(ctx context.Context, fn func(pgx.Tx) error) (err error) {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		} else {
			err = tx.Commit(ctx)
		}
	}()

	err = fn(tx)
	return err
}

// HealthCheck verifies database connectivity.
func (s *Storage) HealthCheck(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return s.pool.Ping(ctx)
}

// Logger returns storage logger.
func (s *Storage) Logger() *slog.Logger {
	return s.logger
}
