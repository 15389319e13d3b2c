package testfixtures

import (
	"context"
	"testing"
	"time"

	"github.com/example/room-ledger/internal/ledger"
)

// referenceTime is a Tuesday, so the whole booking window around it contains
// weekdays, a weekend and a weekday exactly MaxDaysAhead days later.
var referenceTime = time.Date(2024, time.January, 2, 15, 4, 5, 0, time.UTC)

// ReferenceTime returns the canonical baseline timestamp used by fixtures.
func ReferenceTime() time.Time {
	return referenceTime
}

// DefaultRoomID is the room used by fixtures unless overridden.
const DefaultRoomID = "HW.003"

// ----------------------------- Booking fixtures -----------------------------

// BookingFixture describes a booking request against the ledger.
type BookingFixture struct {
	RoomID     string
	Day        time.Time
	Slot       int
	ClassName  string
	Instructor string
}

// BookingOption configures the generated booking fixture.
type BookingOption func(*BookingFixture)

// NewBookingFixture returns an anonymous booking of slot 0 in DefaultRoomID on
// the first weekday after the reference time.
func NewBookingFixture(opts ...BookingOption) BookingFixture {
	fixture := BookingFixture{
		RoomID: DefaultRoomID,
		Day:    NewClock(time.Time{}).NextWeekday(1),
		Slot:   0,
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

// WithBookingRoom overrides the booked room.
func WithBookingRoom(roomID string) BookingOption {
	return func(f *BookingFixture) {
		f.RoomID = roomID
	}
}

// WithBookingDay overrides the booked day.
func WithBookingDay(day time.Time) BookingOption {
	return func(f *BookingFixture) {
		f.Day = day
	}
}

// WithBookingSlot overrides the booked slot index.
func WithBookingSlot(slot int) BookingOption {
	return func(f *BookingFixture) {
		f.Slot = slot
	}
}

// WithBookingClass attaches class metadata.
func WithBookingClass(className, instructor string) BookingOption {
	return func(f *BookingFixture) {
		f.ClassName = className
		f.Instructor = instructor
	}
}

// Booking returns the fixture as a ledger.Booking value.
func (f BookingFixture) Booking() ledger.Booking {
	return ledger.Booking{Slot: f.Slot, ClassName: f.ClassName, Instructor: f.Instructor}
}

// Apply books the fixture on l.
func (f BookingFixture) Apply(ctx context.Context, l *ledger.Ledger) error {
	return l.BookRoom(ctx, f.RoomID, f.Day, f.Booking())
}

// ----------------------------- Ledger harness -----------------------------

// LedgerHarness bundles a ledger with the in-memory store and clock behind it.
type LedgerHarness struct {
	Ledger *ledger.Ledger
	Store  *MemoryStore
	Clock  *Clock
}

// NewLedgerHarness opens a ledger over an empty MemoryStore, pinned to
// ReferenceTime in UTC, and adds the given rooms.
func NewLedgerHarness(tb testing.TB, rooms ...string) *LedgerHarness {
	tb.Helper()

	clock := NewClock(time.Time{})
	store := NewMemoryStore(nil)
	l, err := ledger.Open(context.Background(), store,
		ledger.WithClock(clock.NowFunc()),
		ledger.WithLocation(time.UTC),
	)
	if err != nil {
		tb.Fatalf("failed to open ledger: %v", err)
	}
	for _, room := range rooms {
		if err := l.AddRoom(context.Background(), room); err != nil {
			tb.Fatalf("failed to add room %s: %v", room, err)
		}
	}
	return &LedgerHarness{Ledger: l, Store: store, Clock: clock}
}

// Reopen builds a fresh ledger from whatever the harness store holds.
func (h *LedgerHarness) Reopen(tb testing.TB) *ledger.Ledger {
	tb.Helper()

	l, err := ledger.Open(context.Background(), h.Store,
		ledger.WithClock(h.Clock.NowFunc()),
		ledger.WithLocation(time.UTC),
	)
	if err != nil {
		tb.Fatalf("failed to reopen ledger: %v", err)
	}
	return l
}
