package errors

import "errors"

var (
	ErrNotFound          = errors.New("not found")
	ErrMissingParameter  = errors.New("missing parameter(s)")
	ErrInvalidStatus     = errors.New("invalid payment status")
	ErrInvalidMethod     = errors.New("invalid payment method")
	ErrInvalidTransition = errors.New("transition not allowed")
	ErrOrderTerminal     = errors.New("order already settled")
	ErrPaymentSubmitted  = errors.New("payment already submitted")
	ErrSchemaMismatch    = errors.New("backend response schema mismatch")
)
