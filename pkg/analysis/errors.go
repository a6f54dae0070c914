package analysis

import (
	"errors"
	"fmt"
)

const (
	errorCodeEmptyInput      = "ANALYSIS_EMPTY_INPUT"
	errorCodeUnreadableInput = "ANALYSIS_UNREADABLE_INPUT"
	errorCodeUnknownTier     = "ANALYSIS_UNKNOWN_TIER"
	errorCodeRiskThreshold   = "ANALYSIS_RISK_THRESHOLD"
	errorCodeFailed          = "ANALYSIS_FAILED"
)

var (
	// ErrEmptyInput indicates the dump was empty.
	ErrEmptyInput = errors.New("empty input")
	// ErrUnreadableInput indicates the dump could not be read or decoded.
	ErrUnreadableInput = errors.New("unreadable input")
	// ErrUnknownTier indicates a tier other than native or platform.
	ErrUnknownTier = errors.New("unknown tier")
	// ErrRiskThreshold indicates the risk score exceeded --fail-above.
	ErrRiskThreshold = errors.New("risk threshold exceeded")
)

type errorCoder interface {
	error
	Code() string
}

type withCodeError struct {
	error
	code string
}

func (e *withCodeError) Code() string {
	return e.code
}

func (e *withCodeError) Unwrap() error {
	return e.error
}

// WithErrorCode annotates err with an analysis error code.
func WithErrorCode(err error, code string) error {
	if err == nil {
		return nil
	}
	return &withCodeError{error: err, code: code}
}

// NewEmptyInputError formats an empty input error for source.
func NewEmptyInputError(source string) error {
	return WithErrorCode(fmt.Errorf("%w: %s", ErrEmptyInput, source), errorCodeEmptyInput)
}

// WrapUnreadable annotates a read or decode failure of source.
func WrapUnreadable(source string, err error) error {
	if err == nil {
		return nil
	}
	return WithErrorCode(fmt.Errorf("%w: %s: %w", ErrUnreadableInput, source, err), errorCodeUnreadableInput)
}

// ParseTier resolves a tier name.
func ParseTier(name string) (Tier, error) {
	switch Tier(name) {
	case TierNative, TierPlatform:
		return Tier(name), nil
	default:
		return "", WithErrorCode(fmt.Errorf("%w: %q (want native or platform)", ErrUnknownTier, name), errorCodeUnknownTier)
	}
}

// NewRiskThresholdError reports a score above the allowed maximum.
func NewRiskThresholdError(score, limit int) error {
	return WithErrorCode(fmt.Errorf("%w: risk score %d is above %d", ErrRiskThreshold, score, limit), errorCodeRiskThreshold)
}

// ErrorCode resolves an error to its analysis error code.
func ErrorCode(err error) string {
	if err == nil {
		return ""
	}

	var coded errorCoder
	if errors.As(err, &coded) {
		if code := coded.Code(); code != "" {
			return code
		}
	}

	switch {
	case errors.Is(err, ErrEmptyInput):
		return errorCodeEmptyInput
	case errors.Is(err, ErrUnreadableInput):
		return errorCodeUnreadableInput
	case errors.Is(err, ErrUnknownTier):
		return errorCodeUnknownTier
	case errors.Is(err, ErrRiskThreshold):
		return errorCodeRiskThreshold
	default:
		return errorCodeFailed
	}
}

// ExitCode maps analysis errors to CLI exit codes.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}

	switch {
	case errors.Is(err, ErrUnknownTier):
		return 2
	case errors.Is(err, ErrEmptyInput),
		errors.Is(err, ErrUnreadableInput):
		return 3
	case errors.Is(err, ErrRiskThreshold):
		return 4
	default:
		return 1
	}
}

// HTTPStatus maps analysis errors to HTTP status codes.
func HTTPStatus(err error) int {
	if err == nil {
		return 200
	}

	switch {
	case errors.Is(err, ErrEmptyInput),
		errors.Is(err, ErrUnreadableInput),
		errors.Is(err, ErrUnknownTier):
		return 400
	default:
		return 500
	}
}

// Suggestions provides CLI hints for analysis errors.
func Suggestions(err error) []string {
	if err == nil {
		return nil
	}

	switch ErrorCode(err) {
	case errorCodeEmptyInput:
		return []string{
			"Check the collector produced output before uploading",
			"Example:                   devsentry analyze native dump.txt",
		}
	case errorCodeUnreadableInput:
		return []string{
			"Verify the file path and permissions",
			"Platform dumps must be JSON objects",
		}
	case errorCodeUnknownTier:
		return []string{
			"Use one of:                native, platform",
		}
	case errorCodeRiskThreshold:
		return []string{
			"Inspect the report above for the flagged categories",
			"Raise the limit with --fail-above or drop the flag",
		}
	default:
		return nil
	}
}
