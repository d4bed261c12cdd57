// Package errx provides the sentinel-wrapping convention used across the
// rest of this module: packages declare `var ErrX = errors.New(...)` and
// call sites attach a cause or formatted detail without losing errors.Is
// comparability against the sentinel.
package errx

import (
	"errors"
	"fmt"
)

// Wrap attaches cause to sentinel so that both errors.Is(err, sentinel) and
// errors.Is(err, cause) succeed.
func Wrap(sentinel, cause error) error {
	if cause == nil {
		return sentinel
	}
	return &wrapped{sentinel: sentinel, msg: fmt.Sprintf("%s: %s", sentinel, cause), cause: cause}
}

// With attaches a formatted detail message to sentinel. If format contains
// %w, the matching arg becomes the wrapped cause, same as fmt.Errorf.
func With(sentinel error, format string, args ...any) error {
	detail := fmt.Errorf(format, args...)
	return &wrapped{sentinel: sentinel, msg: sentinel.Error() + detail.Error(), cause: errors.Unwrap(detail)}
}

type wrapped struct {
	sentinel error
	msg      string
	cause    error
}

func (w *wrapped) Error() string { return w.msg }

func (w *wrapped) Unwrap() []error {
	if w.cause == nil {
		return []error{w.sentinel}
	}
	return []error{w.sentinel, w.cause}
}
