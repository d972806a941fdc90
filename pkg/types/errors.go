package types

import "github.com/cockroachdb/errors"

// ErrorKind tags an ExecutionError the way every validator, given the same
// input, must tag it — the kind is part of the replicated result, not just
// a debugging aid.
type ErrorKind string

const (
	AccountCreation          ErrorKind = "AccountCreation"
	AccountLookup            ErrorKind = "AccountLookup"
	InsufficientBalance      ErrorKind = "InsufficientBalance"
	OrderExceedsBalance      ErrorKind = "OrderExceedsBalance"
	PaymentRequestError      ErrorKind = "PaymentRequest"
	OrderBookCreation        ErrorKind = "OrderBookCreation"
	OrderRequestError        ErrorKind = "OrderRequest"
	InvalidRequestType       ErrorKind = "InvalidRequestType"
	FailedVerification       ErrorKind = "FailedVerification"
	InvalidSignature         ErrorKind = "InvalidSignature"
	TransactionDuplicate     ErrorKind = "TransactionDuplicate"
	TransactionSerialization ErrorKind = "TransactionSerialization"
	TransactionDeserial      ErrorKind = "TransactionDeserialization"
	InvariantViolation       ErrorKind = "InvariantViolation"
)

// ExecutionError is the error type every controller returns. Its Kind is
// recorded verbatim in the transaction's ExecutionResult; every validator
// applying the same input must produce the same Kind.
type ExecutionError struct {
	Kind ErrorKind
	msg  string
}

func (e *ExecutionError) Error() string {
	return string(e.Kind) + ": " + e.msg
}

// NewExecutionError builds an ExecutionError holding msg as plain text;
// no stack trace is captured.
func NewExecutionError(kind ErrorKind, msg string) *ExecutionError {
	return &ExecutionError{Kind: kind, msg: msg}
}

// Errorf is like NewExecutionError but formats msg, matching the teacher's
// cockroachdb/errors.Newf usage pattern.
func Errorf(kind ErrorKind, format string, args ...any) *ExecutionError {
	return &ExecutionError{Kind: kind, msg: errors.Newf(format, args...).Error()}
}

// KindOf extracts the ErrorKind of err, or "" if err isn't an ExecutionError.
func KindOf(err error) ErrorKind {
	var ee *ExecutionError
	if errors.As(err, &ee) {
		return ee.Kind
	}
	return ""
}

// IsInvariantViolation reports whether err demands a validator halt.
func IsInvariantViolation(err error) bool {
	return KindOf(err) == InvariantViolation
}
