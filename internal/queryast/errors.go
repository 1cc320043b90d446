package queryast

import (
	"errors"
	"fmt"
)

// TranslationError is a fatal error building or compiling a Query AST.
//
// Translation errors include:
//   - Schema references: a where key or selected field names an attribute,
//     relationship or entity the schema does not have
//   - Invalid operators: e.g. a comparison operator on a relationship
//   - Invalid arguments: malformed sort, pagination or filter values
//   - Invariants: an unreachable compiler branch, always a defect
//
// Translation is pure, so retrying a failed translation reproduces the
// same error.
type TranslationError struct {
	// Code identifies the error category.
	Code ErrorCode

	// Message is a human-readable description.
	Message string

	// Entity is the entity being translated, if known.
	Entity string

	// Field is the offending field or where key, if known.
	Field string
}

// ErrorCode categorizes translation errors.
type ErrorCode string

const (
	// ErrCodeAttributeNotFound indicates an unknown attribute.
	ErrCodeAttributeNotFound ErrorCode = "ATTRIBUTE_NOT_FOUND"

	// ErrCodeRelationshipNotFound indicates an unknown relationship.
	ErrCodeRelationshipNotFound ErrorCode = "RELATIONSHIP_NOT_FOUND"

	// ErrCodeEntityNotFound indicates an unknown entity or root field.
	ErrCodeEntityNotFound ErrorCode = "ENTITY_NOT_FOUND"

	// ErrCodeInvalidOperator indicates an operator not valid for the field.
	ErrCodeInvalidOperator ErrorCode = "INVALID_OPERATOR"

	// ErrCodeInvalidArgument indicates a malformed argument value.
	ErrCodeInvalidArgument ErrorCode = "INVALID_ARGUMENT"

	// ErrCodeInvariant indicates a programming error.
	ErrCodeInvariant ErrorCode = "INVARIANT"
)

// Error implements the error interface.
func (e *TranslationError) Error() string {
	switch {
	case e.Entity != "" && e.Field != "":
		return fmt.Sprintf("%s: %s (entity=%s, field=%s)", e.Code, e.Message, e.Entity, e.Field)
	case e.Entity != "":
		return fmt.Sprintf("%s: %s (entity=%s)", e.Code, e.Message, e.Entity)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Errorf builds a TranslationError with a formatted message.
func Errorf(code ErrorCode, format string, args ...any) *TranslationError {
	return &TranslationError{Code: code, Message: fmt.Sprintf(format, args...)}
}

// WithEntity returns a copy of e naming the entity and field.
func (e *TranslationError) WithEntity(entity, field string) *TranslationError {
	c := *e
	c.Entity = entity
	c.Field = field
	return &c
}

// CodeOf returns the code of a TranslationError in err's chain, or "".
func CodeOf(err error) ErrorCode {
	var te *TranslationError
	if errors.As(err, &te) {
		return te.Code
	}
	return ""
}

// IsNotFound reports whether err is a schema-reference error.
func IsNotFound(err error) bool {
	switch CodeOf(err) {
	case ErrCodeAttributeNotFound, ErrCodeRelationshipNotFound, ErrCodeEntityNotFound:
		return true
	}
	return false
}

// IsInvalidOperator reports whether err is an invalid-operator error.
func IsInvalidOperator(err error) bool {
	return CodeOf(err) == ErrCodeInvalidOperator
}

// IsInvariant reports whether err is a programming invariant violation.
func IsInvariant(err error) bool {
	return CodeOf(err) == ErrCodeInvariant
}
