package translate

import (
	"errors"
	"fmt"
)

// ErrorCode categorizes translation failures.
type ErrorCode string

const (
	// ErrCodeParse indicates the request text could not be parsed.
	ErrCodeParse ErrorCode = "PARSE_ERROR"

	// ErrCodeTranslate indicates a root field could not be translated.
	// The wrapped error is usually a *queryast.TranslationError.
	ErrCodeTranslate ErrorCode = "TRANSLATION_ERROR"

	// ErrCodeRecord indicates the translation log rejected a write.
	ErrCodeRecord ErrorCode = "RECORD_ERROR"
)

// Error is a failed translation.
type Error struct {
	Code  ErrorCode
	Field string // root field response key, empty for request-level errors
	Err   error
}

func (e *Error) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Field, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Code, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// CodeOf returns the code of an Error in err's chain, or "".
func CodeOf(err error) ErrorCode {
	var te *Error
	if errors.As(err, &te) {
		return te.Code
	}
	return ""
}
