package cli

import (
	"errors"
	"fmt"

	"github.com/sandeepkv93/ritualday/internal/commands"
	"github.com/sandeepkv93/ritualday/internal/model"
	"github.com/sandeepkv93/ritualday/internal/ritual"
)

const (
	ExitSuccess          = 0
	ExitFailure          = 1
	ExitUsage            = 2
	ExitNotAuthenticated = 3
	ExitUnavailable      = 4
)

// ExitError carries the process exit code for a failed command.
type ExitError struct {
	Code    int
	Message string
	Err     error
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

func WrapExitError(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Message: message, Err: err}
}

// GetExitCode maps err onto a process exit code.
func GetExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	var cmdErr *commands.CommandError
	switch {
	case errors.Is(err, ritual.ErrNotAuthenticated):
		return ExitNotAuthenticated
	case errors.Is(err, ritual.ErrRemoteUnavailable):
		return ExitUnavailable
	case errors.Is(err, ritual.ErrInvalidDateFormat),
		errors.Is(err, ritual.ErrEmptyKeystone),
		errors.Is(err, model.ErrInvalidCategory),
		errors.As(err, &cmdErr):
		return ExitUsage
	default:
		return ExitFailure
	}
}

// describe turns the error taxonomy into something a person can act on.
func describe(err error) error {
	switch {
	case errors.Is(err, ritual.ErrNotAuthenticated):
		return WrapExitError(ExitNotAuthenticated, "not signed in (run: ritualday login <name>)", err)
	case errors.Is(err, ritual.ErrRemoteUnavailable):
		return WrapExitError(ExitUnavailable, "store unavailable, change kept in the local draft", err)
	case errors.Is(err, ritual.ErrEmptyKeystone):
		return WrapExitError(ExitUsage, "keystone needs lock text (run: ritualday lock <text>)", err)
	}
	return err
}
