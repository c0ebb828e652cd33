package usecase

import "errors"

// Sentinel domain errors. Services wrap these with context via fmt.Errorf
// and handlers map them to HTTP statuses with errors.Is.
var (
	ErrValidation            = errors.New("validation failed")
	ErrNotFound              = errors.New("not found")
	ErrForbidden             = errors.New("forbidden")
	ErrStateConflict         = errors.New("operation not allowed in current state")
	ErrInvalidServiceRef     = errors.New("invalid service reference")
	ErrInvalidQuantity       = errors.New("invalid quantity")
	ErrSignatureVerification = errors.New("signature verification failed")
	ErrPaymentAlreadyDone    = errors.New("payment already completed for booking")
	ErrNotRefundable         = errors.New("payment is not refundable")
	ErrRefundExceedsPayment  = errors.New("refund exceeds payment amount")
	ErrGatewayUnavailable    = errors.New("payment gateway unavailable")
	ErrInvalidCredentials    = errors.New("invalid email or password")
	ErrEmailTaken            = errors.New("email already registered")
)
