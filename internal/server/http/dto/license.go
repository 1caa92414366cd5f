package dto

import "time"

// LicenseResponse mirrors the portal wire format for a license.
type LicenseResponse struct {
	ID          int64      `json:"id,omitempty"`
	OrderID     int64      `json:"orderId,omitempty"`
	LicenseKey  string     `json:"licenseKey"`
	DaysLeft    int        `json:"daysLeft"`
	CanUsed     bool       `json:"canUsed"`
	ActivatedAt *time.Time `json:"activatedAt,omitempty"`
}

// CreateLicenseRequest asks for license issuance for a settled order.
type CreateLicenseRequest struct {
	OrderID int64 `json:"orderId"`
}

// LicensePageResponse is one page of a user's licenses, kept in the
// backend's page shape so existing consumers parse it unchanged.
type LicensePageResponse struct {
	Content       []LicenseResponse `json:"content"`
	Number        int               `json:"number"`
	Size          int               `json:"size"`
	TotalElements int64             `json:"totalElements"`
	TotalPages    int               `json:"totalPages"`
}

// IssuanceRecordResponse is one audit entry of a license issuance attempt.
type IssuanceRecordResponse struct {
	OrderID     int64     `json:"orderId"`
	Succeeded   bool      `json:"succeeded"`
	Message     string    `json:"message,omitempty"`
	AttemptedAt time.Time `json:"attemptedAt"`
}
