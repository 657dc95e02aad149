package scheduling

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel causes carried by FieldError. Match them with errors.Is.
var (
	ErrInvalidTimeFormat = errors.New("time must be formatted as HH:MM")
	ErrEndNotAfterStart  = errors.New("end time must be later than start time")
	ErrNoTeacherSelected = errors.New("at least one teacher must be assigned")
	ErrDayOutOfRange     = errors.New("day of week is not an open studio day")
)

// Error codes surfaced to clients.
const (
	CodeInvalidFormat    = "invalid_format"
	CodeEndNotAfterStart = "end_not_after_start"
	CodeNoneSelected     = "none_selected"
	CodeOutOfRange       = "out_of_range"
)

// Field names as they appear in the JSON payload.
const (
	FieldDayOfWeek  = "dayOfWeek"
	FieldStartTime  = "startTime"
	FieldEndTime    = "endTime"
	FieldTeacherIDs = "teacherIds"
)

// FieldError is a recoverable input problem tied to one payload field.
type FieldError struct {
	Field string
	Code  string
	Value string
	Err   error
}

func (e *FieldError) Error() string {
	if e.Value != "" {
		return fmt.Sprintf("%s: %v (%q)", e.Field, e.Err, e.Value)
	}
	return e.Field + ": " + e.Err.Error()
}

func (e *FieldError) Unwrap() error {
	return e.Err
}

// Message is the text shown next to the form field.
func (e *FieldError) Message() string {
	return e.Err.Error()
}

// ValidationErrors collects every problem found in an entry.
type ValidationErrors []*FieldError

func (v ValidationErrors) Error() string {
	parts := make([]string, 0, len(v))
	for _, fe := range v {
		parts = append(parts, fe.Error())
	}
	return strings.Join(parts, "; ")
}

// Unwrap exposes the individual field errors to errors.Is / errors.As.
func (v ValidationErrors) Unwrap() []error {
	errs := make([]error, 0, len(v))
	for _, fe := range v {
		errs = append(errs, fe)
	}
	return errs
}

// Fields lists the fields that failed, in detection order.
func (v ValidationErrors) Fields() []string {
	fields := make([]string, 0, len(v))
	for _, fe := range v {
		fields = append(fields, fe.Field)
	}
	return fields
}

func fieldError(field, code, value string, err error) *FieldError {
	return &FieldError{Field: field, Code: code, Value: value, Err: err}
}
