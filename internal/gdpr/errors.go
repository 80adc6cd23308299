package gdpr

import (
	"errors"
	"fmt"
)

type Kind int

const (
	KindUnknown Kind = iota
	KindUnauthorized
	KindNotFound
	KindInvalid
	KindCollection
	KindStorage
	KindUnsupported
)

func (k Kind) String() string {
	switch k {
	case KindUnauthorized:
		return "unauthorized"
	case KindNotFound:
		return "not_found"
	case KindInvalid:
		return "invalid"
	case KindCollection:
		return "collection"
	case KindStorage:
		return "storage"
	case KindUnsupported:
		return "unsupported"
	}
	return "unknown"
}

var (
	ErrUnauthorized      = errors.New("not authorized to manage this user's data")
	ErrUserNotFound      = errors.New("user not found")
	ErrDeletionNotFound  = errors.New("deletion request not found")
	ErrUnsupportedFormat = errors.New("export format not supported")
	ErrNothingToRectify  = errors.New("no corrections supplied")
)

// Error is returned by every public Service method. Op names the operation,
// Kind classifies the failure for callers that need to branch on it.
type Error struct {
	Op   string
	Kind Kind
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("gdpr %s: %s", e.Op, e.Kind)
	}
	return e.Err.Error()
}

func (e *Error) Unwrap() error {
	return e.Err
}

func newError(op string, kind Kind, err error) *Error {
	return &Error{Op: op, Kind: kind, Err: err}
}

// KindOf returns the Kind of the first *Error in err's chain.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}
