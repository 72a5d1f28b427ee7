package common

import (
	"errors"
	"fmt"
)

// Error codes surfaced by the extraction pipeline.
const (
	CodeSourceUnreadable   = "SOURCE_UNREADABLE"
	CodeInvalidPageSpec    = "INVALID_PAGE_SPEC"
	CodeStageFailure       = "EXTRACTION_STAGE_FAILURE"
	CodeCombinationFailure = "COMBINATION_FAILURE"
)

// AppError represents a classified pipeline error.
type AppError struct {
	Code    string
	Message string
	Cause   error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// Is matches any AppError carrying the same code, so the sentinels below
// work with errors.Is regardless of message or cause.
func (e *AppError) Is(target error) bool {
	var t *AppError
	if !errors.As(target, &t) {
		return false
	}
	return t.Code == e.Code
}

var (
	ErrSourceUnreadable   = &AppError{Code: CodeSourceUnreadable, Message: "source unreadable"}
	ErrInvalidPageSpec    = &AppError{Code: CodeInvalidPageSpec, Message: "invalid page spec"}
	ErrStageFailure       = &AppError{Code: CodeStageFailure, Message: "extraction stage failed"}
	ErrCombinationFailure = &AppError{Code: CodeCombinationFailure, Message: "combination failed"}
)

func NewAppError(code, message string, cause error) *AppError {
	return &AppError{Code: code, Message: message, Cause: cause}
}

func SourceUnreadable(path string, cause error) error {
	return NewAppError(CodeSourceUnreadable, fmt.Sprintf("cannot read %q", path), cause)
}

func InvalidPageSpec(spec, reason string) error {
	return NewAppError(CodeInvalidPageSpec, fmt.Sprintf("%q: %s", spec, reason), nil)
}

func StageFailure(stage string, cause error) error {
	return NewAppError(CodeStageFailure, stage, cause)
}

func CombinationFailure(cause error) error {
	return NewAppError(CodeCombinationFailure, "merge request failed", cause)
}

// ErrorCode returns the code of the first AppError in err's chain, or "".
func ErrorCode(err error) string {
	var ae *AppError
	if errors.As(err, &ae) {
		return ae.Code
	}
	return ""
}
