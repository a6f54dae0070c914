package server

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestServerError_WithErrorCodeAndUnwrap(t *testing.T) {
	require.NoError(t, WithErrorCode(nil, "X"))

	base := errors.New("base")
	wrapped := WithErrorCode(base, "CODE123")
	assert.Equal(t, "CODE123", ErrorCode(wrapped))
	assert.ErrorIs(t, wrapped, base)
}

func TestServerError_Constructors(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		sentinel error
		code     string
	}{
		{"invalid port", NewInvalidPortError(99999), ErrInvalidPort, errorCodeInvalidPort},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, tt.err, tt.sentinel)
			assert.Equal(t, tt.code, ErrorCode(tt.err))
		})
	}
	assert.Contains(t, NewInvalidPortError(99999).Error(), "invalid port 99999")
}

func TestServerError_Wrappers(t *testing.T) {
	tests := []struct {
		name string
		wrap func(error) error
		code string
	}{
		{"invalid config", WrapInvalidConfig, errorCodeInvalidConfig},
		{"workspace", WrapWorkspaceInit, errorCodeWorkspaceInitFailed},
		{"app init", WrapAppInit, errorCodeAppInitFailed},
		{"runtime", WrapRuntime, errorCodeRuntimeFailed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.NoError(t, tt.wrap(nil))

			base := errors.New("bad")
			err := tt.wrap(base)
			assert.ErrorIs(t, err, base)
			assert.Equal(t, tt.code, ErrorCode(err))
		})
	}
	assert.Contains(t, WrapInvalidConfig(errors.New("bad")).Error(), "invalid server configuration")
}

func TestServerError_ErrorCodeFallbacks(t *testing.T) {
	assert.Equal(t, "", ErrorCode(nil))
	assert.Equal(t, errorCodeInvalidPort, ErrorCode(ErrInvalidPort))
	assert.Equal(t, errorCodeConfigUnavailable, ErrorCode(ErrConfigUnavailable))
	assert.Equal(t, errorCodeRuntimeFailed, ErrorCode(errors.New("random")))
}

func TestServerError_ExitCode(t *testing.T) {
	tests := []struct {
		err      error
		expected int
	}{
		{nil, 0},
		{ErrInvalidPort, 2},
		{WrapInvalidConfig(errors.New("x")), 2},
		{ErrConfigUnavailable, 1},
		{WrapWorkspaceInit(errors.New("x")), 1},
		{WithErrorCode(errors.New("x"), "UNKNOWN_CODE"), 1},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expected, ExitCode(tt.err), "ExitCode(%v)", tt.err)
	}
}

func TestServerError_Suggestions(t *testing.T) {
	codes := []string{
		errorCodeInvalidPort,
		errorCodeConfigUnavailable,
		errorCodeInvalidConfig,
		errorCodeWorkspaceInitFailed,
		errorCodeAppInitFailed,
		errorCodeRuntimeFailed,
	}
	for _, code := range codes {
		assert.NotEmpty(t, Suggestions(WithErrorCode(errors.New("x"), code)), code)
	}
	assert.Nil(t, Suggestions(WithErrorCode(errors.New("x"), "UNKNOWN_CODE")))
	assert.Nil(t, Suggestions(nil))
}

func TestServerError_IsRuntime(t *testing.T) {
	assert.True(t, IsRuntime(errors.New("listen tcp: address in use")))
	assert.True(t, IsRuntime(WrapRuntime(errors.New("x"))))
	assert.False(t, IsRuntime(WrapAppInit(errors.New("x"))))
	assert.False(t, IsRuntime(nil))
}
