package gateway

import "errors"

var (
	// ErrAuthentication marks an inbound payload whose signature did
	// not verify. Handlers must reject the call without any state
	// mutation.
	ErrAuthentication = errors.New("gateway signature verification failed")

	// ErrUnavailable marks a transport failure or malformed
	// counterparty response. Retryable; distinct from a definitive
	// "payment failed".
	ErrUnavailable = errors.New("gateway unavailable")

	ErrNotSupported = errors.New("gateway is not supported")

	// ErrRejected marks a definitive counterparty refusal (non-zero
	// result code on an otherwise well-formed exchange). Not retryable;
	// the wrapped message carries the counterparty's reason.
	ErrRejected = errors.New("gateway rejected the request")

	// ErrOperationNotSupported marks a capability a particular gateway
	// does not offer (e.g. cancel on the legacy gateway).
	ErrOperationNotSupported = errors.New("operation not supported by gateway")
)
