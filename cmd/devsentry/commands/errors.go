package commands

import (
	"errors"
	"strings"

	"github.com/devsentry/devsentry/cmd/devsentry/internal/bind"
	"github.com/devsentry/devsentry/cmd/devsentry/internal/format"
	"github.com/devsentry/devsentry/pkg/analysis"
	"github.com/devsentry/devsentry/pkg/server"
)

var (
	// ErrWorkspaceRequired is returned when a command needs the workspace
	// but --no-workspace was given.
	ErrWorkspaceRequired = errors.New("this command needs a workspace; drop --no-workspace")
	// ErrConfigMissing is returned when a command runs without the root
	// command having loaded configuration.
	ErrConfigMissing = errors.New("configuration not loaded")
)

// ExitCode maps any command error to the process exit code:
// 0 success, 1 generic, 2 usage, 3 input unreadable, 4 risk threshold
// exceeded.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, bind.ErrInvalidFlag),
		errors.Is(err, ErrWorkspaceRequired):
		return 2
	}
	if code := server.ExitCode(err); code != 1 {
		return code
	}
	return analysis.ExitCode(err)
}

// errorCode picks the code shown in failure summaries.
func errorCode(err error) string {
	if code := server.ErrorCode(err); strings.HasPrefix(code, "SERVER_") && !server.IsRuntime(err) {
		return code
	}
	return analysis.ErrorCode(err)
}

// fail prints a failure summary for operation and returns err marked as
// reported.
func fail(f format.Formatter, operation string, err error) error {
	if err == nil {
		return nil
	}
	_ = f.PrintTotalFailureSummary(operation, err, errorCode(err))
	return &reportedError{err: err}
}

// failServer is fail for serve, whose errors always carry server codes.
func failServer(f format.Formatter, operation string, err error) error {
	if err == nil {
		return nil
	}
	_ = f.PrintTotalFailureSummary(operation, err, server.ErrorCode(err))
	return &reportedError{err: err}
}
