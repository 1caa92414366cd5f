package model

import "time"

// PaymentMethod enumerates supported payment channels.
type PaymentMethod string

const (
	PaymentMethodBank  PaymentMethod = "BANK"
	PaymentMethodPayos PaymentMethod = "PAYOS"
)

// ValidPaymentMethod reports whether m is a known payment channel.
func ValidPaymentMethod(m PaymentMethod) bool {
	return m == PaymentMethodBank || m == PaymentMethodPayos
}

// PaymentStatus describes settlement lifecycle of an order.
type PaymentStatus string

const (
	PaymentStatusPending    PaymentStatus = "PENDING"
	PaymentStatusProcessing PaymentStatus = "PROCESSING"
	PaymentStatusSuccess    PaymentStatus = "SUCCESS"
	PaymentStatusFailed     PaymentStatus = "FAILED"
	PaymentStatusCancelled  PaymentStatus = "CANCELLED"
)

var validNext = map[PaymentStatus]map[PaymentStatus]bool{
	PaymentStatusPending: {
		PaymentStatusProcessing: true,
		PaymentStatusSuccess:    true,
		PaymentStatusFailed:     true,
		PaymentStatusCancelled:  true,
	},
	PaymentStatusProcessing: {
		PaymentStatusSuccess:   true,
		PaymentStatusFailed:    true,
		PaymentStatusCancelled: true,
	},
	PaymentStatusSuccess:   {},
	PaymentStatusFailed:    {},
	PaymentStatusCancelled: {},
}

// ValidPaymentStatus reports whether s belongs to the enumeration.
func ValidPaymentStatus(s PaymentStatus) bool {
	_, ok := validNext[s]
	return ok
}

// Terminal reports whether no further transition is allowed from s.
// SUCCESS, FAILED and CANCELLED are terminal.
func (s PaymentStatus) Terminal() bool {
	next, ok := validNext[s]
	return ok && len(next) == 0
}

// CanTransition reports whether the settlement state machine permits from -> to.
func CanTransition(from, to PaymentStatus) bool {
	return validNext[from][to]
}

// PaymentEvent is the message published on payment topics when an order's
// status changes. Subscribers treat it as a signal and re-fetch the full
// order; the payload is never applied as state.
type PaymentEvent struct {
	EventID    string        `json:"eventId"`
	OrderID    string        `json:"orderId"`
	NewStatus  PaymentStatus `json:"newStatus"`
	OccurredAt time.Time     `json:"occurredAt"`
}
