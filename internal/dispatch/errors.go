package dispatch

import (
	"errors"
	"fmt"
)

var (
	ErrSpawn           = errors.New("failed to execute command")
	ErrEncoding        = errors.New("invalid UTF-8")
	ErrExternalProcess = errors.New("command failed")
	ErrTimeout         = errors.New("command timed out")
)

// Error is the failure half of a Result.
type Error struct {
	Kind error
	Msg  string
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Msg == "" {
		return e.Kind.Error()
	}
	return fmt.Sprintf("%s: %s", e.Kind.Error(), e.Msg)
}

func (e *Error) Unwrap() error { return e.Kind }

func failf(kind error, format string, args ...any) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// KindName returns the stable, lowercase name of err's failure kind, or ""
// when err is not a dispatch failure.
func KindName(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrSpawn):
		return "spawn"
	case errors.Is(err, ErrEncoding):
		return "encoding"
	case errors.Is(err, ErrExternalProcess):
		return "external_process"
	case errors.Is(err, ErrTimeout):
		return "timeout"
	default:
		return ""
	}
}
