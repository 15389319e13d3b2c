package application

import (
	"context"
	"time"

	"github.com/example/room-ledger/internal/ledger"
)

// Ledger captures the ledger operations needed by the service.
type Ledger interface {
	AddRoom(ctx context.Context, roomID string) error
	BookRoom(ctx context.Context, roomID string, day time.Time, booking ledger.Booking) error
	BookingAt(roomID string, day time.Time, slot int) (ledger.Booking, bool, error)
	DaySchedule(roomID string, day time.Time) (ledger.DaySchedule, bool, error)
	Schedules(roomID string, days []time.Time) ([]ledger.DaySchedule, error)
	Rooms() []string
	Today() time.Time
}

// BookParams carries a booking request as entered by a user. Slot may be a
// timeslot label such as "08:00-08:45" or a slot index.
type BookParams struct {
	RoomID     string
	Date       string
	Slot       string
	ClassName  string
	Instructor string
}

// Booking is an occupied slot of a room on a day.
type Booking struct {
	RoomID     string
	Date       string
	Slot       int
	SlotLabel  string
	ClassName  string
	Instructor string
}

// Anonymous reports whether the booking was made without class metadata.
func (b Booking) Anonymous() bool {
	return b.ClassName == "" && b.Instructor == ""
}

// SlotView identifies a timeslot by index and label.
type SlotView struct {
	Index int
	Label string
}

// DaySchedule is the occupancy of a room on one day.
type DaySchedule struct {
	RoomID string
	Date   string
	Open   []SlotView
	Booked []Booking
}

func bookingView(roomID, date string, b ledger.Booking) Booking {
	return Booking{
		RoomID:     roomID,
		Date:       date,
		Slot:       b.Slot,
		SlotLabel:  b.Label(),
		ClassName:  b.ClassName,
		Instructor: b.Instructor,
	}
}

func slotView(index int) SlotView {
	label, _ := ledger.SlotLabel(index)
	return SlotView{Index: index, Label: label}
}
