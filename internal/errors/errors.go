package errors

import (
	stderrors "errors"
	"fmt"
)

// Kind is the stable, machine-readable category of a failure.
type Kind string

const (
	KindInsufficientFunds    Kind = "insufficient_funds"
	KindInsufficientPosition Kind = "insufficient_position"
	KindAssetNotFound        Kind = "asset_not_found"
	KindPriceUnavailable     Kind = "price_unavailable"
	KindSimulationNotFound   Kind = "simulation_not_found"
	KindValidation           Kind = "validation_error"
	KindNoSnapshot           Kind = "no_snapshot"
	KindSnapshotState        Kind = "snapshot_state_error"
	KindAdvanceBlocked       Kind = "advance_blocked"
	KindConflict             Kind = "conflict"
	KindGateway              Kind = "gateway_error"
	KindInternal             Kind = "internal_error"
)

// Error is a typed domain failure carrying a human-readable message.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New builds an Error of the given kind with a formatted message.
func New(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap builds an Error of the given kind around a cause.
func Wrap(kind Kind, err error, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Err: err}
}

type ErrValidation struct {
	Field   string
	Message string
}

func (e *ErrValidation) Error() string {
	return e.Field + ": " + e.Message
}

// Validation is a shorthand for a field-level validation failure.
func Validation(field, format string, args ...any) *ErrValidation {
	return &ErrValidation{Field: field, Message: fmt.Sprintf(format, args...)}
}

// KindOf reports the kind of the outermost typed failure in err's chain.
// Untyped errors report KindInternal; nil reports "".
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	for e := err; e != nil; e = stderrors.Unwrap(e) {
		switch v := e.(type) {
		case *ErrValidation:
			return KindValidation
		case *Error:
			return v.Kind
		}
	}
	return KindInternal
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	return KindOf(err) == kind
}
