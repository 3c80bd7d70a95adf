package domain

import "fmt"

// MalformedInputError marks a day whose record source could not be parsed
// into a valid sample sequence. The batch runner logs it and skips the day;
// it never aborts sibling days.
type MalformedInputError struct {
	Field string
	Value string
	Err   error
}

func (e *MalformedInputError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("malformed input: field %q value %q: %v", e.Field, e.Value, e.Err)
	}
	return fmt.Sprintf("malformed input: field %q value %q", e.Field, e.Value)
}

func (e *MalformedInputError) Unwrap() error {
	return e.Err
}
