package engine

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/roach88/ndetsrc/internal/decay"
	"github.com/roach88/ndetsrc/internal/dist"
	"github.com/roach88/ndetsrc/internal/reaction"
)

// SourceError is the typed error surfaced by the engine's configuration and
// generation API.
type SourceError struct {
	// Code identifies the error category.
	Code ErrorCode

	// Message is a human-readable description.
	Message string

	// Path is the input file involved, if any.
	Path string

	// Err is the underlying cause.
	Err error
}

// ErrorCode categorizes source errors.
type ErrorCode string

const (
	// ErrCodeIO indicates an input file could not be read.
	ErrCodeIO ErrorCode = "IO_ERROR"

	// ErrCodeParse indicates malformed file contents.
	ErrCodeParse ErrorCode = "PARSE_ERROR"

	// ErrCodeInvalidArgument indicates a bad name or out-of-range value.
	ErrCodeInvalidArgument ErrorCode = "INVALID_ARGUMENT"

	// ErrCodeEmptyDistribution indicates sampling before any data was supplied.
	ErrCodeEmptyDistribution ErrorCode = "EMPTY_DISTRIBUTION"

	// ErrCodeKinematicallyForbidden indicates an emission angle outside the
	// range allowed by the reaction kinematics.
	ErrCodeKinematicallyForbidden ErrorCode = "KINEMATICALLY_FORBIDDEN"
)

// Error implements the error interface.
func (e *SourceError) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if e.Path != "" {
		return fmt.Sprintf("%s: %s (path=%s)", e.Code, msg, e.Path)
	}
	return fmt.Sprintf("%s: %s", e.Code, msg)
}

// Unwrap returns the underlying cause.
func (e *SourceError) Unwrap() error {
	return e.Err
}

func hasCode(err error, code ErrorCode) bool {
	var se *SourceError
	if errors.As(err, &se) {
		return se.Code == code
	}
	return false
}

// IsIOError reports whether err is an unreadable-file error.
func IsIOError(err error) bool { return hasCode(err, ErrCodeIO) }

// IsParseError reports whether err is a malformed-file error.
func IsParseError(err error) bool { return hasCode(err, ErrCodeParse) }

// IsInvalidArgument reports whether err is a bad-argument error.
func IsInvalidArgument(err error) bool { return hasCode(err, ErrCodeInvalidArgument) }

// IsEmptyDistribution reports whether err is an empty-distribution error.
func IsEmptyDistribution(err error) bool { return hasCode(err, ErrCodeEmptyDistribution) }

// IsKinematicallyForbidden reports whether err is a forbidden-angle error.
func IsKinematicallyForbidden(err error) bool { return hasCode(err, ErrCodeKinematicallyForbidden) }

// classify wraps err from a leaf package into a SourceError. Errors that
// already are SourceErrors pass through.
func classify(path string, err error) error {
	if err == nil {
		return nil
	}
	var se *SourceError
	if errors.As(err, &se) {
		return err
	}

	code := ErrCodeInvalidArgument
	var pe *fs.PathError
	switch {
	case errors.Is(err, dist.ErrEmptyDistribution):
		code = ErrCodeEmptyDistribution
	case errors.Is(err, reaction.ErrKinematicallyForbidden):
		code = ErrCodeKinematicallyForbidden
	case errors.Is(err, dist.ErrParse), errors.Is(err, reaction.ErrParse), errors.Is(err, decay.ErrParse):
		code = ErrCodeParse
	case errors.As(err, &pe):
		code = ErrCodeIO
	}
	return &SourceError{Code: code, Path: path, Err: err}
}

func invalidArgument(format string, args ...any) *SourceError {
	return &SourceError{Code: ErrCodeInvalidArgument, Message: fmt.Sprintf(format, args...)}
}
