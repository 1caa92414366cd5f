package model

import "time"

// License is an activation credential minted by the backend after an order
// settles successfully. At most one license is owned by an order.
type License struct {
	ID          int64
	OrderID     int64
	LicenseKey  string
	DaysLeft    int
	CanUsed     bool
	ActivatedAt *time.Time
}

// LicensePage is one page of a user's licenses as returned by the backend.
type LicensePage struct {
	Items      []License
	Page       int
	Size       int
	TotalItems int64
	TotalPages int
}

// IssuanceRecord is an audit entry for a license issuance attempt. The
// backend does not advertise idempotency for repeated issuance, so every
// attempt is recorded.
type IssuanceRecord struct {
	ID          int64
	OrderID     int64
	Succeeded   bool
	Message     string
	AttemptedAt time.Time
}
