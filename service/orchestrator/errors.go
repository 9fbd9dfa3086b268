package orchestrator

import (
	"fmt"
)

// Kind classifies a submission failure. Every failure in the submission
// pipeline is converted to exactly one kind and returned as data on the
// SubmissionResult, never raised, so batch processing can continue past
// individual failures.
type Kind string

const (
	KindNotConnected       Kind = "not_connected"
	KindInvalidRecipient   Kind = "invalid_recipient"
	KindInvalidAmount      Kind = "invalid_amount"
	KindWalletUnavailable  Kind = "wallet_unavailable"
	KindSigningFailed      Kind = "signing_failed"
	KindWalletDisconnected Kind = "wallet_disconnected"
	KindNetworkUnavailable Kind = "network_unavailable"
	KindAPIError           Kind = "api_error"
	KindNotFound           Kind = "not_found"
)

// Error is a typed submission failure. Status is set for KindAPIError and
// carries the backend's HTTP status.
type Error struct {
	Kind    Kind
	Status  int
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.Kind, e.cause)
	}
	if e.Message != "" {
		return fmt.Sprintf("%s: %s", e.Kind, e.Message)
	}
	return string(e.Kind)
}

func (e *Error) Unwrap() error {
	return e.cause
}

func newError(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func wrapError(kind Kind, cause error) *Error {
	return &Error{Kind: kind, cause: cause}
}
