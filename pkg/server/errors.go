// Package server holds the error vocabulary of the serve command. The
// runtime lives in the app, httpx, api and jobs subpackages.
package server

import (
	"errors"
	"fmt"
)

const (
	errorCodeInvalidPort         = "SERVER_INVALID_PORT"
	errorCodeConfigUnavailable   = "SERVER_CONFIG_UNAVAILABLE"
	errorCodeInvalidConfig       = "SERVER_INVALID_CONFIG"
	errorCodeWorkspaceInitFailed = "SERVER_WORKSPACE_INIT_FAILED"
	errorCodeAppInitFailed       = "SERVER_INIT_FAILED"
	errorCodeRuntimeFailed       = "SERVER_RUNTIME_FAILED"
)

var (
	// ErrInvalidPort indicates an invalid port flag value.
	ErrInvalidPort = errors.New("invalid port")
	// ErrConfigUnavailable indicates the command context lacked a config manager.
	ErrConfigUnavailable = errors.New("config manager unavailable")
)

// codeInfo is what the CLI needs to know about a server error code.
type codeInfo struct {
	exit  int
	hints []string
}

var catalog = map[string]codeInfo{
	errorCodeInvalidPort: {exit: 2, hints: []string{
		"Use a port between 1 and 65535",
		"Example:                 devsentry serve --server.port 8080",
	}},
	errorCodeConfigUnavailable: {exit: 1, hints: []string{
		"Run via the devsentry CLI so configuration is loaded",
	}},
	errorCodeInvalidConfig: {exit: 2, hints: []string{
		"Check server.* values in the config file",
		"Token auth needs a token: DEVSENTRY_SERVER_AUTH_TOKEN=<secret>",
		"Retry with --debug for detailed validation errors",
	}},
	errorCodeWorkspaceInitFailed: {exit: 1, hints: []string{
		"Verify workspace directory permissions",
		"Override the workspace:  devsentry serve --workspace.dir <path>",
	}},
	errorCodeAppInitFailed: {exit: 1, hints: []string{
		"Retry with verbose logging: devsentry serve --debug",
	}},
	errorCodeRuntimeFailed: {exit: 1, hints: []string{
		"Check server logs for runtime errors",
		"Ensure no other process is using the selected port",
	}},
}

type codedError struct {
	err  error
	code string
}

func (e *codedError) Error() string { return e.err.Error() }
func (e *codedError) Unwrap() error { return e.err }
func (e *codedError) Code() string  { return e.code }

// WithErrorCode annotates err with a server error code.
func WithErrorCode(err error, code string) error {
	if err == nil {
		return nil
	}
	return &codedError{err: err, code: code}
}

func wrapper(code string, decorate func(error) error) func(error) error {
	return func(err error) error {
		if err == nil {
			return nil
		}
		if decorate != nil {
			err = decorate(err)
		}
		return WithErrorCode(err, code)
	}
}

var (
	// WrapInvalidConfig marks a server config validation failure.
	WrapInvalidConfig = wrapper(errorCodeInvalidConfig, func(err error) error {
		return fmt.Errorf("invalid server configuration: %w", err)
	})
	// WrapWorkspaceInit marks a workspace or journal preparation failure.
	WrapWorkspaceInit = wrapper(errorCodeWorkspaceInitFailed, nil)
	// WrapAppInit marks a failure building the server app.
	WrapAppInit = wrapper(errorCodeAppInitFailed, nil)
	// WrapRuntime marks a failure while serving.
	WrapRuntime = wrapper(errorCodeRuntimeFailed, nil)
)

// NewInvalidPortError reports a port outside 1..65535.
func NewInvalidPortError(port int) error {
	return WithErrorCode(fmt.Errorf("%w: invalid port %d: must be between 1 and 65535", ErrInvalidPort, port), errorCodeInvalidPort)
}

// ErrorCode resolves err to a code. Any error carrying a Code() wins;
// otherwise sentinels are matched and the rest count as runtime failures.
func ErrorCode(err error) string {
	if err == nil {
		return ""
	}
	var coded interface{ Code() string }
	if errors.As(err, &coded) && coded.Code() != "" {
		return coded.Code()
	}
	switch {
	case errors.Is(err, ErrInvalidPort):
		return errorCodeInvalidPort
	case errors.Is(err, ErrConfigUnavailable):
		return errorCodeConfigUnavailable
	}
	return errorCodeRuntimeFailed
}

// IsRuntime reports whether err resolves to the catch-all runtime code.
func IsRuntime(err error) bool {
	return ErrorCode(err) == errorCodeRuntimeFailed
}

// ExitCode maps server errors to CLI exit codes: 2 for bad input, 1
// otherwise.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	if errors.Is(err, ErrInvalidPort) {
		return 2
	}
	if info, ok := catalog[ErrorCode(err)]; ok {
		return info.exit
	}
	return 1
}

// Suggestions returns CLI hints for err, or nil for codes this package
// does not own.
func Suggestions(err error) []string {
	if err == nil {
		return nil
	}
	return catalog[ErrorCode(err)].hints
}
