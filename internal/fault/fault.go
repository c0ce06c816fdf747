package fault

import (
	"errors"
	"fmt"
)

// Kind identifies one terminal failure class of the batch pipeline.
// The set is closed: every handled failure maps to exactly one kind.
type Kind string

const (
	ConfigNotFound      Kind = "config_not_found"
	ConfigMalformed     Kind = "config_malformed"
	ConfigMissingFields Kind = "config_missing_fields"
	ConfigTypeError     Kind = "config_type_error"
	InputNotFound       Kind = "input_not_found"
	InputNotReadable    Kind = "input_not_readable"
	MalformedInput      Kind = "malformed_input"
	EmptyDataset        Kind = "empty_dataset"
	MissingColumns      Kind = "missing_columns"
	NonNumericValue     Kind = "non_numeric_value"
)

// Error is a pipeline failure tagged with its Kind. Message is the
// operator-facing text that ends up in the error report verbatim.
type Error struct {
	Kind    Kind
	Message string
}

// Error implements the error interface.
func (e *Error) Error() string {
	return e.Message
}

// New builds a tagged failure with a formatted message.
func New(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// KindOf extracts the failure kind from err, unwrapping as needed.
// Errors that carry no kind report the empty Kind.
func KindOf(err error) Kind {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return ""
}
