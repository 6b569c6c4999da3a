package domain

import (
	"errors"
	"fmt"
)

// Kind classifies failures of the submission workflow.
type Kind int

const (
	KindUnknown Kind = iota
	// KindValidation: the client sent missing or invalid fields. Nothing was written.
	KindValidation
	// KindStorageBackend: folder lookup or creation failed. Nothing was uploaded.
	KindStorageBackend
	// KindUpload: file creation failed. No row was appended; an empty folder may exist.
	KindUpload
	// KindAppend: the row append failed. A photo may already be stored without a row.
	KindAppend
	// KindConfiguration: the process is misconfigured.
	KindConfiguration
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindStorageBackend:
		return "storage_backend"
	case KindUpload:
		return "upload"
	case KindAppend:
		return "append"
	case KindConfiguration:
		return "configuration"
	default:
		return "unknown"
	}
}

// Error is the typed error returned by the inspection workflow.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Op == "" {
		return e.Err.Error()
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// NewError wraps err with kind and op.
func NewError(kind Kind, op string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Op: op, Err: err}
}

// ValidationError builds a client-facing validation failure.
func ValidationError(message string) error {
	return &Error{Kind: KindValidation, Err: errors.New(message)}
}

// KindOf returns the kind of the outermost domain error in err's chain.
func KindOf(err error) Kind {
	var domainErr *Error
	if errors.As(err, &domainErr) {
		return domainErr.Kind
	}
	return KindUnknown
}

// IsKind reports whether err carries kind.
func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}
