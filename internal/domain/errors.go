package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrFileNotFound        = errors.New("file not found")
	ErrNoProposals         = errors.New("no fixes proposed")
	ErrPathEscapesRoot     = errors.New("path escapes repository root")
	ErrEmptyReplacement    = errors.New("reasoning service returned empty file content")
	ErrTruncatedCompletion = errors.New("reasoning service response truncated at token limit")
)

// ConfigError reports required configuration that is missing or invalid.
type ConfigError struct {
	Missing []string
	Err     error
}

func (e *ConfigError) Error() string {
	if len(e.Missing) > 0 {
		return "missing required configuration: " + strings.Join(e.Missing, ", ")
	}
	return fmt.Sprintf("invalid configuration: %v", e.Err)
}

func (e *ConfigError) Unwrap() error { return e.Err }

// RetrievalError aborts a fetch. Page is the 1-based page that failed.
type RetrievalError struct {
	Page int
	Err  error
}

func (e *RetrievalError) Error() string {
	return fmt.Sprintf("fetching issues page %d: %v", e.Page, e.Err)
}

func (e *RetrievalError) Unwrap() error { return e.Err }

// ValidationError reports a server record that does not fit the Issue shape.
type ValidationError struct {
	Key   string
	Field string
	Err   error
}

func (e *ValidationError) Error() string {
	if e.Key == "" {
		return fmt.Sprintf("invalid issue: %s: %v", e.Field, e.Err)
	}
	return fmt.Sprintf("invalid issue %s: %s: %v", e.Key, e.Field, e.Err)
}

func (e *ValidationError) Unwrap() error { return e.Err }

// ProposalError means a file's fix proposals could not be produced.
type ProposalError struct {
	Path string
	Err  error
}

func (e *ProposalError) Error() string {
	return fmt.Sprintf("proposing fixes for %s: %v", e.Path, e.Err)
}

func (e *ProposalError) Unwrap() error { return e.Err }

// ApplicationError means a file's fixes could not be applied; the file is untouched.
type ApplicationError struct {
	Path string
	Err  error
}

func (e *ApplicationError) Error() string {
	return fmt.Sprintf("applying fixes to %s: %v", e.Path, e.Err)
}

func (e *ApplicationError) Unwrap() error { return e.Err }

// PreconditionError short-circuits the apply stage before any network call.
type PreconditionError struct {
	Path string
	Err  error
}

func (e *PreconditionError) Error() string {
	return fmt.Sprintf("cannot apply fixes to %s: %v", e.Path, e.Err)
}

func (e *PreconditionError) Unwrap() error { return e.Err }

// IsFatal reports whether err must abort the whole run.
func IsFatal(err error) bool {
	var (
		cfg *ConfigError
		ret *RetrievalError
		val *ValidationError
	)
	return errors.As(err, &cfg) || errors.As(err, &ret) || errors.As(err, &val)
}
