// Package checkpoint decorates errors with the location they passed through.
// A checkpoint can carry a sentinel error next to its cause, and errors.Is / errors.As
// match both of them.
package checkpoint

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"runtime"
)

// From wraps err in a checkpoint recording the caller.
// It returns nil if err is nil and passes io.EOF and io.ErrUnexpectedEOF through untouched,
// as callers compare them with ==.
func From(err error) error {
	if err == nil || err == io.EOF || err == io.ErrUnexpectedEOF {
		return err
	}

	return newCheckpoint(err, nil)
}

// Wrap records the caller and tags cause with the sentinel err:
//
//	var ErrMountFailed = errors.New("mount failed")
//
//	func mount() error {
//		err := readBootSector()
//		return checkpoint.Wrap(err, ErrMountFailed)
//	}
//
// errors.Is(result, ErrMountFailed) and errors.Is(result, <cause>) both hold.
// Wrap returns nil if cause is nil and io.EOF if cause is io.EOF.
func Wrap(cause, err error) error {
	if cause == nil {
		return nil
	}
	if cause == io.EOF {
		return io.EOF
	}

	return newCheckpoint(cause, err)
}

// New creates a checkpoint for the sentinel err without an underlying cause.
func New(err error) error {
	if err == nil {
		return nil
	}
	return newCheckpoint(nil, err)
}

func newCheckpoint(cause, err error) *checkpoint {
	// Skip newCheckpoint and the exported helper.
	_, file, line, ok := runtime.Caller(2)

	return &checkpoint{
		err:  err,
		prev: cause,

		callerOk: ok,
		file:     filepath.Base(file),
		line:     line,
	}
}

type checkpoint struct {
	err  error
	prev error

	callerOk bool
	file     string
	line     int
}

func (e *checkpoint) location() string {
	if !e.callerOk {
		return "unknown"
	}
	return fmt.Sprintf("%s:%d", e.file, e.line)
}

func (e *checkpoint) Error() string {
	switch {
	case e.err == nil:
		return fmt.Sprintf("[%s] %v", e.location(), e.prev)
	case e.prev == nil:
		return fmt.Sprintf("[%s] %v", e.location(), e.err)
	default:
		return fmt.Sprintf("[%s] %v: %v", e.location(), e.err, e.prev)
	}
}

func (e *checkpoint) Unwrap() error {
	return e.prev
}

func (e *checkpoint) Is(target error) bool {
	return e.err != nil && errors.Is(e.err, target)
}

func (e *checkpoint) As(target interface{}) bool {
	return e.err != nil && errors.As(e.err, target)
}
