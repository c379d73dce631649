// Package hcerr defines the error taxonomy shared by every layer of the
// core engine: the flat-tree/codec/bitfield/merkletree/oplog/storage
// packages all return errors wrapped with a Kind from this package, and
// the facade (package hypercore) and its callers switch on Kind rather
// than on package-specific sentinel values.
package hcerr

import (
	"errors"
	"fmt"
)

// Kind classifies why an operation failed.
type Kind int

const (
	// Unknown is the zero value. It is also the Kind of errors with no
	// closer match, such as a compression failure in Backup/Restore.
	Unknown Kind = iota
	// InvalidSignature means a signature did not verify against the
	// claimed public key.
	InvalidSignature
	// BadHash means a reconstructed hash did not match the expected one.
	BadHash
	// MalformedEntry means bytes failed structural decoding or a CRC
	// check.
	MalformedEntry
	// MissingNode means a tree node is not locally present.
	MissingNode
	// MissingBlock means a data block is not locally present.
	MissingBlock
	// OutOfRange means an index fell outside [0, length).
	OutOfRange
	// ForkMismatch means a proof or upgrade referred to a different
	// fork than the local state.
	ForkMismatch
	// IoError wraps an error propagated from the storage layer.
	IoError
	// PermissionDenied means a write was attempted without a secret key.
	PermissionDenied
	// Closed means the operation was attempted after Close.
	Closed
	// Inconsistent means a proof's internal indices/sizes don't add up.
	Inconsistent
)

func (k Kind) String() string {
	switch k {
	case InvalidSignature:
		return "InvalidSignature"
	case BadHash:
		return "BadHash"
	case MalformedEntry:
		return "MalformedEntry"
	case MissingNode:
		return "MissingNode"
	case MissingBlock:
		return "MissingBlock"
	case OutOfRange:
		return "OutOfRange"
	case ForkMismatch:
		return "ForkMismatch"
	case IoError:
		return "IoError"
	case PermissionDenied:
		return "PermissionDenied"
	case Closed:
		return "Closed"
	case Inconsistent:
		return "Inconsistent"
	default:
		return "Unknown"
	}
}

// Error is the concrete error type returned throughout this module. It
// carries a Kind so callers can branch with errors.As and a wrapped
// cause for %w-chains.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

// Is lets errors.Is(err, hcerr.New(hcerr.InvalidSignature, "")) match
// any *Error of the same Kind, whatever its Message and Cause.
func (e *Error) Is(target error) bool {
	other, ok := target.(*Error)
	return ok && other.Kind == e.Kind
}

// New builds an *Error of the given kind.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap builds an *Error of the given kind around a lower-level cause.
func Wrap(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Cause: cause}
}

// Of reports the Kind of err if it is (or wraps) an *Error, else Unknown.
func Of(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Unknown
}
