package schema

import (
	"errors"
	"fmt"
)

var (
	// ErrMalformedNumber is returned when a numeric code is given a value
	// that does not parse as a number. Integers are Go ints, so a value
	// outside the int range (int64 on 64-bit platforms) is malformed too.
	ErrMalformedNumber = errors.New("malformed number")

	// ErrNegativeNotAllowed is returned when code u is given a negative value.
	ErrNegativeNotAllowed = errors.New("value must not be negative")

	// ErrNotPositive is returned when code v is given zero or a negative value.
	ErrNotPositive = errors.New("value must be positive")

	// ErrInvalidIdentifier is returned when code n is given a value that is
	// not an identifier.
	ErrInvalidIdentifier = errors.New("value must contain only letters, digits and underscores and must not begin with a digit")

	// ErrUndefinedEnumValue is returned when code e or y is given a value that
	// the bound enumeration does not contain.
	ErrUndefinedEnumValue = errors.New("undefined enumeration value")

	// ErrUnknownField is returned by [BuildRecord] for a raw key that has no
	// entry in the schema table.
	ErrUnknownField = errors.New("unknown field")

	// ErrIncompleteGroup is returned when a repeated group runs out of values
	// before all of its mandatory codes are filled.
	ErrIncompleteGroup = errors.New("incomplete value group")

	// ErrBadPattern is returned for a type pattern that does not compile.
	ErrBadPattern = errors.New("invalid type pattern")
)

// FieldError locates an interpretation failure inside a PBS file.
type FieldError struct {
	// Section is the identifier of the section being built.
	Section string

	// Field is the raw key of the failing field.
	Field string

	// Value is the raw value that failed to interpret.
	Value string

	// Err is the underlying error; it wraps one of the package sentinels.
	Err error
}

// Error implements error.
func (e *FieldError) Error() string {
	return fmt.Sprintf("schema: [%s] %s = %q: %v", e.Section, e.Field, e.Value, e.Err)
}

// Unwrap returns the underlying error for [errors.Is] and [errors.As].
func (e *FieldError) Unwrap() error { return e.Err }
