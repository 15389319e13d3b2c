package application

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/example/room-ledger/internal/ledger"
)

// ErrNotFound is returned when the requested slot is not booked.
var ErrNotFound = errors.New("application: not found")

// ValidationError captures field level validation issues that callers can surface to users.
type ValidationError struct {
	FieldErrors map[string]string
}

// Error implements the error interface. Fields are listed in name order.
func (v *ValidationError) Error() string {
	if v == nil {
		return ""
	}
	if len(v.FieldErrors) == 0 {
		return "validation failed"
	}
	fields := make([]string, 0, len(v.FieldErrors))
	for field := range v.FieldErrors {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	parts := make([]string, len(fields))
	for i, field := range fields {
		parts[i] = field + ": " + v.FieldErrors[field]
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// HasErrors reports whether any field level issues were recorded.
func (v *ValidationError) HasErrors() bool {
	return v != nil && len(v.FieldErrors) > 0
}

// add records a field level validation error.
func (v *ValidationError) add(field, message string) {
	if v.FieldErrors == nil {
		v.FieldErrors = make(map[string]string)
	}
	v.FieldErrors[field] = message
}

// merge copies entries from another validation error into the receiver.
func (v *ValidationError) merge(other *ValidationError) {
	if other == nil || len(other.FieldErrors) == 0 {
		return
	}
	for field, msg := range other.FieldErrors {
		v.add(field, msg)
	}
}

// InvalidSlotError reports a slot that is neither a known label nor a valid
// index. It matches ledger.ErrInvalidTimeslot.
type InvalidSlotError struct {
	Value string
}

func (e *InvalidSlotError) Error() string {
	return fmt.Sprintf("Invalid slot %s", e.Value)
}

// Is matches ledger.ErrInvalidTimeslot.
func (e *InvalidSlotError) Is(target error) bool {
	var lErr *ledger.Error
	return errors.As(target, &lErr) && lErr.Kind == ledger.KindInvalidTimeslot
}
