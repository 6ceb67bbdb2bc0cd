// internal/analytics/errors.go
package analytics

import (
	"errors"
	"fmt"
)

// Kind classifies a computation failure so the request layer can map it to
// a response without inspecting error strings.
type Kind int

const (
	// KindUnknown is any failure that does not fit the taxonomy.
	KindUnknown Kind = iota
	// KindInvalidInput marks malformed date/mode/page parameters, rejected
	// before any retrieval happens.
	KindInvalidInput
	// KindRetrieval marks an external store failure after the retry budget
	// is exhausted. The whole computation is aborted.
	KindRetrieval
	// KindNotFound marks a lookup of an entity that does not exist.
	KindNotFound
)

func (k Kind) String() string {
	switch k {
	case KindInvalidInput:
		return "invalid_input"
	case KindRetrieval:
		return "retrieval"
	case KindNotFound:
		return "not_found"
	default:
		return "unknown"
	}
}

// Error attaches a Kind to an underlying cause.
type Error struct {
	Kind Kind
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// E wraps err with the given kind. A nil err yields nil.
func E(kind Kind, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Err: err}
}

// Errorf is E with fmt.Errorf formatting.
func Errorf(kind Kind, format string, args ...interface{}) error {
	return &Error{Kind: kind, Err: fmt.Errorf(format, args...)}
}

// KindOf extracts the kind of err, or KindUnknown when it carries none.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}
