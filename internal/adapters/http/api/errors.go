package api

import (
	"errors"
	"fmt"
)

// Sentinel kinds for API errors.
var (
	ErrBadRequest = errors.New("bad request")
)

// Kind is an error raised by one API operation. Err is the sentinel callers
// match with errors.Is; Cause carries the detail when there is one.
type Kind struct {
	Op    string
	Err   error
	Cause error
}

// NewKind returns a Kind error for op without further detail.
func NewKind(op string, kind error) error {
	return &Kind{Op: op, Err: kind}
}

// WrapKind returns a Kind error for op with cause attached.
func WrapKind(op string, kind, cause error) error {
	return &Kind{Op: op, Err: kind, Cause: cause}
}

// Wrap annotates err with op. It returns nil for a nil err.
func Wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	return &Kind{Op: op, Err: err}
}

func (k *Kind) Error() string {
	if k.Cause != nil {
		return fmt.Sprintf("%s: %v: %v", k.Op, k.Err, k.Cause)
	}
	return fmt.Sprintf("%s: %v", k.Op, k.Err)
}

// Unwrap exposes both the kind and the cause to errors.Is and errors.As.
func (k *Kind) Unwrap() []error {
	if k.Cause != nil {
		return []error{k.Err, k.Cause}
	}
	return []error{k.Err}
}
