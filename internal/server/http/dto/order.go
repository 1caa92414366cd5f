package dto

import "time"

// OrderResponse mirrors the portal wire format for an order record.
type OrderResponse struct {
	ID            int64                 `json:"id"`
	OrderID       string                `json:"orderId"`
	PaymentMethod *string               `json:"paymentMethod,omitempty"`
	PaymentStatus string                `json:"paymentStatus"`
	Price         *float64              `json:"price,omitempty"`
	CreatedAt     time.Time             `json:"createdAt"`
	Subscription  *SubscriptionResponse `json:"subscription,omitempty"`
	Buyer         *BuyerResponse        `json:"buyer,omitempty"`
	AccountName   string                `json:"accountName,omitempty"`
	AccountNumber string                `json:"accountNumber,omitempty"`
	Bin           string                `json:"bin,omitempty"`
	DateTransfer  *time.Time            `json:"dateTransfer,omitempty"`
	License       *LicenseResponse      `json:"license,omitempty"`
}

// SubscriptionResponse is the package snapshot attached to an order.
type SubscriptionResponse struct {
	Name         string           `json:"name"`
	Price        float64          `json:"price"`
	Discount     float64          `json:"discount"`
	BillingCycle string           `json:"billingCycle"`
	TypePackage  string           `json:"typePackage"`
	IsActive     bool             `json:"isActive"`
	Options      []OptionResponse `json:"options,omitempty"`
}

// OptionResponse is a single package feature.
type OptionResponse struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// BuyerResponse is the buyer snapshot attached to an order.
type BuyerResponse struct {
	UserName    string `json:"userName"`
	FirstName   string `json:"firstName"`
	LastName    string `json:"lastName"`
	Email       string `json:"email"`
	PhoneNumber string `json:"phoneNumber"`
}

// SubmitPaymentRequest carries the buyer's payment sub-flow submission.
type SubmitPaymentRequest struct {
	PaymentMethod string     `json:"paymentMethod"`
	AccountName   string     `json:"accountName,omitempty"`
	AccountNumber string     `json:"accountNumber,omitempty"`
	Bin           string     `json:"bin,omitempty"`
	DateTransfer  *time.Time `json:"dateTransfer,omitempty"`
}

// AdminUpdateResponse reports a completed admin transition. The license
// outcome travels separately from the already-applied status change.
type AdminUpdateResponse struct {
	Order        OrderResponse    `json:"order"`
	License      *LicenseResponse `json:"license,omitempty"`
	LicenseError string           `json:"licenseError,omitempty"`
}

// ErrorResponse is the uniform error payload of the proxy routes.
type ErrorResponse struct {
	Error string `json:"error"`
}
