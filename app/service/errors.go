package service

import "errors"

var (
	ErrInvalidRequest        = errors.New("invalid request")
	ErrGatewayUnsupported    = errors.New("gateway is not supported")
	ErrGatewayUnavailable    = errors.New("gateway unavailable")
	ErrOperationNotSupported = errors.New("operation not supported")
	ErrWebhookRejected       = errors.New("webhook rejected")
	ErrOrderNotFound         = errors.New("order not found")
	ErrProductNotFound       = errors.New("product not found")
	ErrGiftNotFound          = errors.New("gift not found")
	ErrGiftExpired           = errors.New("gift expired")
	ErrTerminalState         = errors.New("gift is in a terminal state")
	ErrInvalidStatus         = errors.New("invalid status for this operation")
	ErrVerificationFailed    = errors.New("verification code does not match")
	ErrAmountMismatch        = errors.New("paid amount does not match expected total")
)
