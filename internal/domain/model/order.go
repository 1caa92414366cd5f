package model

import "time"

// Order describes a purchase order as observed from the portal backend.
// The subscription and buyer fields are point-in-time snapshots captured at
// order time, not live catalog references.
type Order struct {
	ID            int64
	Code          string
	PaymentMethod *PaymentMethod
	PaymentStatus PaymentStatus
	Price         *float64
	CreatedAt     time.Time
	UpdatedAt     time.Time

	Subscription *Subscription
	Buyer        *Buyer
	BankTransfer *BankTransfer
	License      *License
}

// PaymentSubmitted reports whether a payment instrument was already attached
// to the order. Once true the method selector is immutable.
func (o *Order) PaymentSubmitted() bool {
	return o != nil && o.PaymentMethod != nil
}

// Subscription is an immutable snapshot of the purchased package.
type Subscription struct {
	Name         string
	Price        float64
	Discount     float64
	BillingCycle string
	TypePackage  string
	IsActive     bool
	Options      []SubscriptionOption
}

// SubscriptionOption is a single feature included in a package snapshot.
type SubscriptionOption struct {
	ID   int64
	Name string
}

// Buyer is a snapshot of the purchasing account.
type Buyer struct {
	UserName    string
	FirstName   string
	LastName    string
	Email       string
	PhoneNumber string
}

// BankTransfer carries bank settlement metadata reported by the buyer.
type BankTransfer struct {
	AccountName   string
	AccountNumber string
	BankBIN       string
	DateTransfer  *time.Time
}
