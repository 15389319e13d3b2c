// Package ledger holds the booking ledger: per room and calendar day it tracks
// which of the fixed timeslots are booked, enforces the booking window and
// persists the whole structure after every successful mutation.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/example/room-ledger/internal/persistence"
)

// Store is the durable home of the ledger. The ledger writes the complete
// snapshot after every mutation and reads it once when opened.
type Store interface {
	Load(ctx context.Context) (persistence.Snapshot, error)
	Save(ctx context.Context, snapshot persistence.Snapshot) error
}

// Booking is one occupied slot. Empty ClassName and Instructor denote an
// anonymous (student) booking.
type Booking struct {
	Slot       int
	ClassName  string
	Instructor string
}

// Anonymous reports whether the booking carries no class metadata.
func (b Booking) Anonymous() bool {
	return b.ClassName == "" && b.Instructor == ""
}

// Label returns the display label of the booked slot.
func (b Booking) Label() string {
	label, _ := SlotLabel(b.Slot)
	return label
}

// DaySchedule is the occupancy of one room on one day. Open holds free slot
// indices in ascending order and Booked the bookings in the order they were
// made; together they cover every slot exactly once.
type DaySchedule struct {
	Open   []int
	Booked []Booking
}

func newDaySchedule() *DaySchedule {
	return &DaySchedule{Open: allSlots(), Booked: []Booking{}}
}

func (d *DaySchedule) clone() DaySchedule {
	return DaySchedule{
		Open:   append([]int{}, d.Open...),
		Booked: append([]Booking{}, d.Booked...),
	}
}

func (d *DaySchedule) booking(slot int) (Booking, bool) {
	for _, b := range d.Booked {
		if b.Slot == slot {
			return b, true
		}
	}
	return Booking{}, false
}

func (d *DaySchedule) occupy(b Booking) {
	d.Booked = append(d.Booked, b)
	if i := slices.Index(d.Open, b.Slot); i >= 0 {
		d.Open = slices.Delete(d.Open, i, i+1)
	}
}

func (d *DaySchedule) release(slot int) {
	for i, b := range d.Booked {
		if b.Slot == slot {
			d.Booked = slices.Delete(d.Booked, i, i+1)
			break
		}
	}
	if !slices.Contains(d.Open, slot) {
		d.Open = append(d.Open, slot)
		slices.Sort(d.Open)
	}
}

// Option configures a Ledger.
type Option func(*Ledger)

// WithClock overrides the time source used to determine today.
func WithClock(now func() time.Time) Option {
	return func(l *Ledger) {
		if now != nil {
			l.now = now
		}
	}
}

// WithLocation sets the zone whose calendar date counts as today.
func WithLocation(loc *time.Location) Option {
	return func(l *Ledger) {
		if loc != nil {
			l.loc = loc
		}
	}
}

// Ledger maps rooms to days to day schedules. It is safe for concurrent use:
// every mutation validates, applies and persists inside one critical section.
type Ledger struct {
	mu    sync.Mutex
	rooms map[string]map[string]*DaySchedule
	store Store
	now   func() time.Time
	loc   *time.Location
}

// New returns an empty ledger backed by store without reading from it.
func New(store Store, opts ...Option) *Ledger {
	l := &Ledger{
		rooms: make(map[string]map[string]*DaySchedule),
		store: store,
		now:   time.Now,
		loc:   time.Local,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Open returns a ledger initialised from the store. A store that has never been
// written to yields an empty ledger.
func Open(ctx context.Context, store Store, opts ...Option) (*Ledger, error) {
	l := New(store, opts...)
	if store == nil {
		return l, nil
	}

	snapshot, err := store.Load(ctx)
	if err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			return l, nil
		}
		return nil, fmt.Errorf("ledger: load snapshot: %w", err)
	}

	rooms, err := fromSnapshot(snapshot)
	if err != nil {
		return nil, err
	}
	l.rooms = rooms
	return l, nil
}

// Today returns the current calendar date in the ledger's location.
func (l *Ledger) Today() time.Time {
	return DayOf(l.now().In(l.loc))
}

// AddRoom registers a new room without any bookings.
func (l *Ledger) AddRoom(ctx context.Context, roomID string) error {
	if strings.TrimSpace(roomID) == "" {
		return ErrEmptyRoomID
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.rooms[roomID]; ok {
		return newError(KindRoomAlreadyExists, roomID, "", -1)
	}

	l.rooms[roomID] = make(map[string]*DaySchedule)
	if err := l.persistLocked(ctx); err != nil {
		delete(l.rooms, roomID)
		return &Error{Kind: KindPersistence, Room: roomID, Slot: -1, Err: err}
	}
	return nil
}

// BookRoom books booking.Slot of roomID on day. The room must exist, the day must
// lie inside the booking window and the slot must still be open.
func (l *Ledger) BookRoom(ctx context.Context, roomID string, day time.Time, booking Booking) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	room, ok := l.rooms[roomID]
	if !ok {
		return newError(KindRoomDoesntExist, roomID, "", -1)
	}

	key := DayKey(day)
	if err := ValidateDay(day, l.Today()); err != nil {
		var lErr *Error
		if errors.As(err, &lErr) {
			lErr.Room = roomID
			lErr.Slot = booking.Slot
		}
		return err
	}
	if !ValidSlot(booking.Slot) {
		return newError(KindInvalidTimeslot, roomID, key, booking.Slot)
	}

	schedule, created := l.daySchedule(room, key)
	if _, taken := schedule.booking(booking.Slot); taken {
		return newError(KindTimeslotNotAvailable, roomID, key, booking.Slot)
	}

	schedule.occupy(booking)
	if err := l.persistLocked(ctx); err != nil {
		schedule.release(booking.Slot)
		if created {
			delete(room, key)
		}
		return &Error{Kind: KindPersistence, Room: roomID, Day: key, Slot: booking.Slot, Err: err}
	}
	return nil
}

// daySchedule returns the schedule for key, creating one with every slot open
// when the room has none for that day yet.
func (l *Ledger) daySchedule(room map[string]*DaySchedule, key string) (*DaySchedule, bool) {
	if schedule, ok := room[key]; ok {
		return schedule, false
	}
	schedule := newDaySchedule()
	room[key] = schedule
	return schedule, true
}

// BookingAt returns the booking occupying slot of roomID on day. A day without
// any bookings reports found=false; an unknown room is an error.
func (l *Ledger) BookingAt(roomID string, day time.Time, slot int) (Booking, bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	room, ok := l.rooms[roomID]
	if !ok {
		return Booking{}, false, newError(KindRoomDoesntExist, roomID, "", -1)
	}
	schedule, ok := room[DayKey(day)]
	if !ok {
		return Booking{}, false, nil
	}
	booking, found := schedule.booking(slot)
	return booking, found, nil
}

// DaySchedule returns a copy of the schedule of roomID on day. Days that were
// never booked report found=false and are not materialised.
func (l *Ledger) DaySchedule(roomID string, day time.Time) (DaySchedule, bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	room, ok := l.rooms[roomID]
	if !ok {
		return DaySchedule{}, false, newError(KindRoomDoesntExist, roomID, "", -1)
	}
	schedule, ok := room[DayKey(day)]
	if !ok {
		return DaySchedule{}, false, nil
	}
	return schedule.clone(), true, nil
}

// Schedules returns copies of the schedules of roomID on each of days, read
// under one lock so that a week view never mixes states. Days without
// bookings come back with every slot open and are not materialised.
func (l *Ledger) Schedules(roomID string, days []time.Time) ([]DaySchedule, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	room, ok := l.rooms[roomID]
	if !ok {
		return nil, newError(KindRoomDoesntExist, roomID, "", -1)
	}
	schedules := make([]DaySchedule, len(days))
	for i, day := range days {
		if schedule, ok := room[DayKey(day)]; ok {
			schedules[i] = schedule.clone()
			continue
		}
		schedules[i] = newDaySchedule().clone()
	}
	return schedules, nil
}

// HasRoom reports whether roomID has been added.
func (l *Ledger) HasRoom(roomID string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, ok := l.rooms[roomID]
	return ok
}

// Rooms returns the known room codes in ascending order.
func (l *Ledger) Rooms() []string {
	l.mu.Lock()
	defer l.mu.Unlock()

	rooms := make([]string, 0, len(l.rooms))
	for id := range l.rooms {
		rooms = append(rooms, id)
	}
	sort.Strings(rooms)
	return rooms
}

// Snapshot returns the ledger in its durable form.
func (l *Ledger) Snapshot() persistence.Snapshot {
	l.mu.Lock()
	defer l.mu.Unlock()
	return toSnapshot(l.rooms)
}

func (l *Ledger) persistLocked(ctx context.Context) error {
	if l.store == nil {
		return nil
	}
	return l.store.Save(ctx, toSnapshot(l.rooms))
}
