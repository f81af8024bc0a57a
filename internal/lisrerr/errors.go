// Package lisrerr defines the error taxonomy shared across the protocol
// engines, session drivers, and delivery client.
package lisrerr

import (
	"errors"
	"fmt"
)

// Kind classifies an error into one of the buckets spec.md §7 describes.
// Each bucket carries a different recovery policy at the call site.
type Kind string

const (
	KindFraming    Kind = "framing"    // malformed byte layout, bad checksum, missing terminators
	KindProtocol   Kind = "protocol"   // unexpected byte in FSM state, unknown record/segment type
	KindValidation Kind = "validation" // unsupported message type, missing required segment
	KindTransport  Kind = "transport"  // socket read/write failure
	KindConfig     Kind = "config"     // invalid port, bad IP, wrong protocol family
	KindDelivery   Kind = "delivery"   // HIS HTTP failure
)

// Error is the taxonomy-tagged error type. Kind lets callers branch on
// recovery policy without string matching; Detail is the human-readable
// message surfaced to operators per spec.md §7.
type Error struct {
	Kind   Kind
	Detail string
	Err    error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Detail, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Detail)
}

func (e *Error) Unwrap() error { return e.Err }

// New builds a tagged error with no underlying cause.
func New(kind Kind, detail string) *Error {
	return &Error{Kind: kind, Detail: detail}
}

// Wrap tags an existing error with a Kind and a human-readable detail.
func Wrap(kind Kind, detail string, err error) *Error {
	return &Error{Kind: kind, Detail: detail, Err: err}
}

// Is reports whether err is a lisrerr.Error of the given kind.
func Is(err error, kind Kind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == kind
	}
	return false
}
