package ledger

import (
	"errors"
	"fmt"
	"strings"
)

// Kind classifies ledger failures so callers can switch on them.
type Kind uint8

const (
	KindUnknown Kind = iota
	KindRoomAlreadyExists
	KindRoomDoesntExist
	KindInvalidBookingOnWeekend
	KindBookingTooFarAhead
	KindBookingInThePastForbidden
	KindTimeslotNotAvailable
	KindInvalidTimeslot
	KindPersistence
)

var kindNames = map[Kind]string{
	KindUnknown:                   "unknown",
	KindRoomAlreadyExists:         "room_already_exists",
	KindRoomDoesntExist:           "room_doesnt_exist",
	KindInvalidBookingOnWeekend:   "invalid_booking_on_weekend",
	KindBookingTooFarAhead:        "booking_too_far_ahead",
	KindBookingInThePastForbidden: "booking_in_the_past_forbidden",
	KindTimeslotNotAvailable:      "timeslot_not_available",
	KindInvalidTimeslot:           "invalid_timeslot",
	KindPersistence:               "persistence",
}

var kindMessages = map[Kind]string{
	KindRoomAlreadyExists:         "this room already exists",
	KindRoomDoesntExist:           "this room doesn't exist",
	KindInvalidBookingOnWeekend:   "invalid booking on the weekend",
	KindBookingTooFarAhead:        "this booking is too far ahead",
	KindBookingInThePastForbidden: "bookings in the past are not allowed",
	KindTimeslotNotAvailable:      "this timeslot is not available",
	KindInvalidTimeslot:           "invalid timeslot",
	KindPersistence:               "failed to persist bookings",
}

// String returns a stable snake_case label for logs and API error codes.
func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// Error is the error type returned by ledger operations. Room, Day and Slot
// carry the request context when known; Slot is -1 when not applicable.
type Error struct {
	Kind Kind
	Room string
	Day  string
	Slot int
	Err  error
}

// Sentinels for errors.Is comparisons. They match any *Error of the same kind.
var (
	ErrRoomAlreadyExists         = &Error{Kind: KindRoomAlreadyExists, Slot: -1}
	ErrRoomDoesntExist           = &Error{Kind: KindRoomDoesntExist, Slot: -1}
	ErrInvalidBookingOnWeekend   = &Error{Kind: KindInvalidBookingOnWeekend, Slot: -1}
	ErrBookingTooFarAhead        = &Error{Kind: KindBookingTooFarAhead, Slot: -1}
	ErrBookingInThePastForbidden = &Error{Kind: KindBookingInThePastForbidden, Slot: -1}
	ErrTimeslotNotAvailable      = &Error{Kind: KindTimeslotNotAvailable, Slot: -1}
	ErrInvalidTimeslot           = &Error{Kind: KindInvalidTimeslot, Slot: -1}
	ErrPersistence               = &Error{Kind: KindPersistence, Slot: -1}
)

var (
	// ErrEmptyRoomID is returned when a blank room code is added.
	ErrEmptyRoomID = errors.New("ledger: room id must not be empty")
	// ErrCorruptSnapshot is returned when a loaded artifact violates the ledger invariants.
	ErrCorruptSnapshot = errors.New("ledger: corrupt snapshot")
)

func newError(kind Kind, room, day string, slot int) *Error {
	return &Error{Kind: kind, Room: room, Day: day, Slot: slot}
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	msg, ok := kindMessages[e.Kind]
	if !ok {
		msg = "ledger error"
	}

	var context []string
	if e.Room != "" {
		context = append(context, "room "+e.Room)
	}
	if e.Day != "" {
		context = append(context, "day "+e.Day)
	}
	if label, ok := SlotLabel(e.Slot); ok {
		context = append(context, "slot "+label)
	} else if e.Kind == KindInvalidTimeslot && e.Slot != -1 {
		context = append(context, fmt.Sprintf("slot %d", e.Slot))
	}
	if len(context) > 0 {
		msg += " (" + strings.Join(context, ", ") + ")"
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap exposes the underlying cause of persistence failures.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Is matches any *Error of the same kind.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) || e == nil || t == nil {
		return false
	}
	return t.Kind == e.Kind
}

// KindOf extracts the ledger kind from err, or KindUnknown.
func KindOf(err error) Kind {
	var lErr *Error
	if errors.As(err, &lErr) && lErr != nil {
		return lErr.Kind
	}
	return KindUnknown
}
