package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"path"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"

	domainErrors "github.com/dominatehq/payportal/internal/domain/errors"
	"github.com/dominatehq/payportal/internal/domain/model"
)

// StatusError represents a business-level failure reported inside the
// backend's response envelope.
type StatusError struct {
	Code    int
	Message string
}

func (e StatusError) Error() string {
	return fmt.Sprintf("backend code %d: %s", e.Code, e.Message)
}

// TooManyRequestsError represents rate limiting signal from the backend.
type TooManyRequestsError struct {
	RetryAfter time.Duration
}

func (e TooManyRequestsError) Error() string {
	return fmt.Sprintf("too many requests, retry after %s", e.RetryAfter)
}

// Client exposes operations against the remote portal backend. Every call
// forwards the caller's bearer token; the backend owns authorization.
type Client interface {
	Order(ctx context.Context, token, orderID string) (*model.Order, error)
	UpdateOrderStatus(ctx context.Context, token, orderID string, status model.PaymentStatus) error
	CreateLicense(ctx context.Context, token string, orderID int64) (*model.License, error)
	UserLicenses(ctx context.Context, token, userID string, page, size int, search string) (*model.LicensePage, error)
	AssignLicense(ctx context.Context, token, userID string, orderID int64) (*model.License, error)
	ActivateNextLicense(ctx context.Context, token, userID, licenseType string) (*model.License, error)
}

// HTTPClient implements Client via the backend's REST API.
type HTTPClient struct {
	baseURL    *url.URL
	httpClient *http.Client
	validate   *validator.Validate
	logger     *slog.Logger
}

// envelope mirrors the backend's {code, message, data} response wrapper.
type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// Wire payloads are validated before they become domain state; a mismatch is
// surfaced as ErrSchemaMismatch instead of passing loose data through.
type orderPayload struct {
	ID            int64                `json:"id" validate:"required"`
	OrderID       string               `json:"orderId" validate:"required"`
	PaymentMethod *string              `json:"paymentMethod" validate:"omitempty,oneof=BANK PAYOS"`
	PaymentStatus string               `json:"paymentStatus" validate:"required,oneof=PENDING PROCESSING SUCCESS FAILED CANCELLED"`
	Price         *float64             `json:"price"`
	CreatedAt     time.Time            `json:"createdAt"`
	Subscription  *subscriptionPayload `json:"subscription"`
	Buyer         *buyerPayload        `json:"buyer"`
	AccountName   *string              `json:"accountName"`
	AccountNumber *string              `json:"accountNumber"`
	Bin           *string              `json:"bin"`
	DateTransfer  *time.Time           `json:"dateTransfer"`
	License       *licensePayload      `json:"license"`
}

type subscriptionPayload struct {
	Name         string          `json:"name" validate:"required"`
	Price        float64         `json:"price"`
	Discount     float64         `json:"discount"`
	BillingCycle string          `json:"billingCycle"`
	TypePackage  string          `json:"typePackage"`
	IsActive     bool            `json:"isActive"`
	Options      []optionPayload `json:"options"`
}

type optionPayload struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type buyerPayload struct {
	UserName    string `json:"userName"`
	FirstName   string `json:"firstName"`
	LastName    string `json:"lastName"`
	Email       string `json:"email"`
	PhoneNumber string `json:"phoneNumber"`
}

type licensePayload struct {
	ID          int64      `json:"id"`
	OrderID     int64      `json:"orderId"`
	LicenseKey  string     `json:"licenseKey" validate:"required"`
	DaysLeft    int        `json:"daysLeft" validate:"gte=0"`
	CanUsed     bool       `json:"canUsed"`
	ActivatedAt *time.Time `json:"activatedAt"`
}

type licensePagePayload struct {
	Content       []licensePayload `json:"content"`
	Number        int              `json:"number"`
	Size          int              `json:"size" validate:"gte=0"`
	TotalElements int64            `json:"totalElements"`
	TotalPages    int              `json:"totalPages"`
}

// NewHTTPClient creates the backend client with default timeout.
func NewHTTPClient(baseURL string, logger *slog.Logger) (*HTTPClient, error) {
	parsed, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse backend url: %w", err)
	}
	if !parsed.IsAbs() {
		return nil, fmt.Errorf("backend url must be absolute")
	}
	return &HTTPClient{
		baseURL:  parsed,
		validate: validator.New(),
		logger:   logger,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}, nil
}

// Order fetches the current order record by its public code.
func (c *HTTPClient) Order(ctx context.Context, token, orderID string) (*model.Order, error) {
	data, err := c.do(ctx, http.MethodGet, c.endpoint("/order/", orderID), token, nil)
	if err != nil {
		return nil, err
	}
	return c.decodeOrder(data)
}

// UpdateOrderStatus asks the backend to move an order to a new payment status.
func (c *HTTPClient) UpdateOrderStatus(ctx context.Context, token, orderID string, status model.PaymentStatus) error {
	endpoint := c.endpoint("/order-admin/", orderID)
	q := endpoint.Query()
	q.Set("newStatus", string(status))
	endpoint.RawQuery = q.Encode()

	_, err := c.do(ctx, http.MethodPatch, endpoint, token, nil)
	return err
}

// CreateLicense requests license creation for a settled order.
func (c *HTTPClient) CreateLicense(ctx context.Context, token string, orderID int64) (*model.License, error) {
	body := map[string]int64{"orderId": orderID}
	data, err := c.do(ctx, http.MethodPost, c.endpoint("/licenses"), token, body)
	if err != nil {
		return nil, err
	}
	return c.decodeLicense(data)
}

// UserLicenses lists one page of a user's licenses.
func (c *HTTPClient) UserLicenses(ctx context.Context, token, userID string, page, size int, search string) (*model.LicensePage, error) {
	endpoint := c.endpoint("/licenses/user/", userID)
	q := endpoint.Query()
	q.Set("page", strconv.Itoa(page))
	q.Set("size", strconv.Itoa(size))
	if search != "" {
		q.Set("search", search)
	}
	endpoint.RawQuery = q.Encode()

	data, err := c.do(ctx, http.MethodGet, endpoint, token, nil)
	if err != nil {
		return nil, err
	}

	var payload licensePagePayload
	if err := c.decode(data, &payload); err != nil {
		return nil, err
	}

	result := &model.LicensePage{
		Page:       payload.Number,
		Size:       payload.Size,
		TotalItems: payload.TotalElements,
		TotalPages: payload.TotalPages,
	}
	for _, item := range payload.Content {
		result.Items = append(result.Items, *item.toModel())
	}
	return result, nil
}

// AssignLicense creates a license for a user out of band of any order view.
func (c *HTTPClient) AssignLicense(ctx context.Context, token, userID string, orderID int64) (*model.License, error) {
	body := map[string]int64{"orderId": orderID}
	data, err := c.do(ctx, http.MethodPost, c.endpoint("/licenses/user/", userID), token, body)
	if err != nil {
		return nil, err
	}
	return c.decodeLicense(data)
}

// ActivateNextLicense activates the user's next usable license of given type.
func (c *HTTPClient) ActivateNextLicense(ctx context.Context, token, userID, licenseType string) (*model.License, error) {
	endpoint := c.endpoint("/licenses/activate-next/", userID)
	q := endpoint.Query()
	q.Set("type", licenseType)
	endpoint.RawQuery = q.Encode()

	data, err := c.do(ctx, http.MethodPost, endpoint, token, nil)
	if err != nil {
		return nil, err
	}
	return c.decodeLicense(data)
}

func (c *HTTPClient) endpoint(parts ...string) *url.URL {
	endpoint := *c.baseURL
	joined := append([]string{endpoint.Path}, parts...)
	endpoint.Path = path.Join(joined...)
	return &endpoint
}

func (c *HTTPClient) do(ctx context.Context, method string, endpoint *url.URL, token string, body any) (json.RawMessage, error) {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint.String(), reader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNoContent || resp.StatusCode == http.StatusNotFound:
		return nil, domainErrors.ErrNotFound
	case resp.StatusCode == http.StatusTooManyRequests:
		retryAfter := parseRetryAfter(resp.Header.Get("Retry-After"))
		return nil, TooManyRequestsError{RetryAfter: retryAfter}
	case resp.StatusCode >= http.StatusOK && resp.StatusCode < http.StatusMultipleChoices:
		raw, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, err
		}
		var env envelope
		if err := json.Unmarshal(raw, &env); err != nil {
			return nil, fmt.Errorf("%w: %v", domainErrors.ErrSchemaMismatch, err)
		}
		if env.Code < http.StatusOK || env.Code >= http.StatusMultipleChoices {
			return nil, StatusError{Code: env.Code, Message: env.Message}
		}
		return env.Data, nil
	default:
		raw, _ := io.ReadAll(resp.Body)
		c.logger.Error("backend request failed",
			slog.String("method", method),
			slog.String("path", endpoint.Path),
			slog.Int("status", resp.StatusCode),
			slog.String("body", string(raw)),
		)
		return nil, fmt.Errorf("backend error: %s", resp.Status)
	}
}

func (c *HTTPClient) decode(data json.RawMessage, dst any) error {
	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("%w: %v", domainErrors.ErrSchemaMismatch, err)
	}
	if err := c.validate.Struct(dst); err != nil {
		var invalid *validator.InvalidValidationError
		if errors.As(err, &invalid) {
			return err
		}
		return fmt.Errorf("%w: %v", domainErrors.ErrSchemaMismatch, err)
	}
	return nil
}

func (c *HTTPClient) decodeOrder(data json.RawMessage) (*model.Order, error) {
	var payload orderPayload
	if err := c.decode(data, &payload); err != nil {
		return nil, err
	}
	return payload.toModel(), nil
}

func (c *HTTPClient) decodeLicense(data json.RawMessage) (*model.License, error) {
	var payload licensePayload
	if err := c.decode(data, &payload); err != nil {
		return nil, err
	}
	return payload.toModel(), nil
}

func (p *orderPayload) toModel() *model.Order {
	order := &model.Order{
		ID:            p.ID,
		Code:          p.OrderID,
		PaymentStatus: model.PaymentStatus(p.PaymentStatus),
		Price:         p.Price,
		CreatedAt:     p.CreatedAt,
	}
	if p.PaymentMethod != nil {
		method := model.PaymentMethod(*p.PaymentMethod)
		order.PaymentMethod = &method
	}
	if p.Subscription != nil {
		sub := &model.Subscription{
			Name:         p.Subscription.Name,
			Price:        p.Subscription.Price,
			Discount:     p.Subscription.Discount,
			BillingCycle: p.Subscription.BillingCycle,
			TypePackage:  p.Subscription.TypePackage,
			IsActive:     p.Subscription.IsActive,
		}
		for _, opt := range p.Subscription.Options {
			sub.Options = append(sub.Options, model.SubscriptionOption{ID: opt.ID, Name: opt.Name})
		}
		order.Subscription = sub
	}
	if p.Buyer != nil {
		order.Buyer = &model.Buyer{
			UserName:    p.Buyer.UserName,
			FirstName:   p.Buyer.FirstName,
			LastName:    p.Buyer.LastName,
			Email:       p.Buyer.Email,
			PhoneNumber: p.Buyer.PhoneNumber,
		}
	}
	if p.AccountName != nil || p.AccountNumber != nil || p.Bin != nil || p.DateTransfer != nil {
		bank := &model.BankTransfer{DateTransfer: p.DateTransfer}
		if p.AccountName != nil {
			bank.AccountName = *p.AccountName
		}
		if p.AccountNumber != nil {
			bank.AccountNumber = *p.AccountNumber
		}
		if p.Bin != nil {
			bank.BankBIN = *p.Bin
		}
		order.BankTransfer = bank
	}
	if p.License != nil {
		order.License = p.License.toModel()
	}
	return order
}

func (p *licensePayload) toModel() *model.License {
	return &model.License{
		ID:          p.ID,
		OrderID:     p.OrderID,
		LicenseKey:  p.LicenseKey,
		DaysLeft:    p.DaysLeft,
		CanUsed:     p.CanUsed,
		ActivatedAt: p.ActivatedAt,
	}
}

func parseRetryAfter(header string) time.Duration {
	if header == "" {
		return 5 * time.Second
	}
	if seconds, err := strconv.Atoi(header); err == nil {
		return time.Duration(seconds) * time.Second
	}
	if t, err := http.ParseTime(header); err == nil {
		return time.Until(t)
	}
	return 5 * time.Second
}
