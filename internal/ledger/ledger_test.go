package ledger_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/example/room-ledger/internal/ledger"
	"github.com/example/room-ledger/internal/persistence"
	"github.com/example/room-ledger/internal/testfixtures"
)

func TestLedger_AddRoom(t *testing.T) {
	t.Parallel()

	t.Run("registers room and persists", func(t *testing.T) {
		t.Parallel()

		h := testfixtures.NewLedgerHarness(t)
		if err := h.Ledger.AddRoom(context.Background(), "HW.003"); err != nil {
			t.Fatalf("AddRoom returned error: %v", err)
		}
		if !h.Ledger.HasRoom("HW.003") {
			t.Fatalf("expected room to exist")
		}
		stored := h.Store.Stored()
		days, ok := stored["HW.003"]
		if !ok {
			t.Fatalf("expected room in stored snapshot, got %v", stored)
		}
		if len(days) != 0 {
			t.Fatalf("expected no days for new room, got %d", len(days))
		}
	})

	t.Run("duplicate room is rejected", func(t *testing.T) {
		t.Parallel()

		h := testfixtures.NewLedgerHarness(t, "HW.003")
		saves := h.Store.Saves()

		err := h.Ledger.AddRoom(context.Background(), "HW.003")
		if !errors.Is(err, ledger.ErrRoomAlreadyExists) {
			t.Fatalf("expected ErrRoomAlreadyExists, got %v", err)
		}
		if h.Store.Saves() != saves {
			t.Fatalf("expected no additional save, got %d", h.Store.Saves()-saves)
		}
	})

	t.Run("empty room id is rejected", func(t *testing.T) {
		t.Parallel()

		h := testfixtures.NewLedgerHarness(t)
		if err := h.Ledger.AddRoom(context.Background(), "  "); !errors.Is(err, ledger.ErrEmptyRoomID) {
			t.Fatalf("expected ErrEmptyRoomID, got %v", err)
		}
	})

	t.Run("persistence failure removes the room again", func(t *testing.T) {
		t.Parallel()

		h := testfixtures.NewLedgerHarness(t)
		h.Store.FailSaves(errors.New("disk full"))

		err := h.Ledger.AddRoom(context.Background(), "HW.003")
		if !errors.Is(err, ledger.ErrPersistence) {
			t.Fatalf("expected ErrPersistence, got %v", err)
		}
		if h.Ledger.HasRoom("HW.003") {
			t.Fatalf("expected room to be rolled back")
		}
	})
}

func TestLedger_Rooms(t *testing.T) {
	t.Parallel()

	h := testfixtures.NewLedgerHarness(t, "T1.011", "HW.003", "A.100")
	got := h.Ledger.Rooms()
	want := []string{"A.100", "HW.003", "T1.011"}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, got)
		}
	}
}

func TestLedger_BookRoomPolicy(t *testing.T) {
	t.Parallel()

	clock := testfixtures.NewClock(time.Time{})

	tests := []struct {
		name    string
		room    string
		day     time.Time
		slot    int
		wantErr error
	}{
		{name: "today is allowed", room: "HW.003", day: clock.Today(), slot: 0},
		{name: "last day of window is allowed", room: "HW.003", day: clock.DaysFromToday(ledger.MaxDaysAhead), slot: 5},
		{name: "one day beyond window", room: "HW.003", day: clock.DaysFromToday(ledger.MaxDaysAhead + 1), slot: 0, wantErr: ledger.ErrBookingTooFarAhead},
		{name: "yesterday", room: "HW.003", day: clock.DaysFromToday(-1), slot: 0, wantErr: ledger.ErrBookingInThePastForbidden},
		{name: "saturday", room: "HW.003", day: clock.NextWeekend(0), slot: 0, wantErr: ledger.ErrInvalidBookingOnWeekend},
		{name: "sunday", room: "HW.003", day: clock.NextWeekend(0).AddDate(0, 0, 1), slot: 0, wantErr: ledger.ErrInvalidBookingOnWeekend},
		{name: "weekend beyond window reports weekend", room: "HW.003", day: clock.NextWeekend(ledger.MaxDaysAhead + 1), slot: 0, wantErr: ledger.ErrInvalidBookingOnWeekend},
		{name: "weekend in the past reports weekend", room: "HW.003", day: clock.NextWeekend(-10), slot: 0, wantErr: ledger.ErrInvalidBookingOnWeekend},
		{name: "unknown room wins over policy", room: "X.999", day: clock.NextWeekend(0), slot: 0, wantErr: ledger.ErrRoomDoesntExist},
		{name: "slot out of range", room: "HW.003", day: clock.NextWeekday(1), slot: ledger.SlotCount, wantErr: ledger.ErrInvalidTimeslot},
		{name: "negative slot", room: "HW.003", day: clock.NextWeekday(1), slot: -1, wantErr: ledger.ErrInvalidTimeslot},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			h := testfixtures.NewLedgerHarness(t, "HW.003")
			saves := h.Store.Saves()

			err := h.Ledger.BookRoom(context.Background(), tt.room, tt.day, ledger.Booking{Slot: tt.slot})
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("BookRoom returned error: %v", err)
				}
				if h.Store.Saves() != saves+1 {
					t.Fatalf("expected one save, got %d", h.Store.Saves()-saves)
				}
				return
			}

			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}
			if h.Store.Saves() != saves {
				t.Fatalf("expected rejected booking not to persist")
			}
			if tt.room == "HW.003" {
				if _, found, _ := h.Ledger.DaySchedule(tt.room, tt.day); found {
					t.Fatalf("expected rejected booking not to materialise the day")
				}
			}
		})
	}
}

func TestLedger_BookRoomDoubleBooking(t *testing.T) {
	t.Parallel()

	h := testfixtures.NewLedgerHarness(t, "HW.003")
	ctx := context.Background()
	day := h.Clock.NextWeekday(1)

	first := ledger.Booking{Slot: 3, ClassName: "Statistik", Instructor: "Wermuth"}
	if err := h.Ledger.BookRoom(ctx, "HW.003", day, first); err != nil {
		t.Fatalf("first booking failed: %v", err)
	}

	err := h.Ledger.BookRoom(ctx, "HW.003", day, ledger.Booking{Slot: 3})
	if !errors.Is(err, ledger.ErrTimeslotNotAvailable) {
		t.Fatalf("expected ErrTimeslotNotAvailable, got %v", err)
	}

	booking, found, err := h.Ledger.BookingAt("HW.003", day, 3)
	if err != nil || !found {
		t.Fatalf("expected booking at slot 3, found=%v err=%v", found, err)
	}
	if booking != first {
		t.Fatalf("expected original booking %+v to survive, got %+v", first, booking)
	}
}

func TestLedger_DaySchedulePartition(t *testing.T) {
	t.Parallel()

	h := testfixtures.NewLedgerHarness(t, "HW.003")
	ctx := context.Background()
	day := h.Clock.NextWeekday(1)

	order := []int{7, 0, 12, 4}
	for _, slot := range order {
		if err := h.Ledger.BookRoom(ctx, "HW.003", day, ledger.Booking{Slot: slot}); err != nil {
			t.Fatalf("BookRoom(%d) failed: %v", slot, err)
		}
	}

	schedule, found, err := h.Ledger.DaySchedule("HW.003", day)
	if err != nil || !found {
		t.Fatalf("expected schedule, found=%v err=%v", found, err)
	}
	if len(schedule.Booked) != len(order) {
		t.Fatalf("expected %d bookings, got %d", len(order), len(schedule.Booked))
	}
	for i, slot := range order {
		if schedule.Booked[i].Slot != slot {
			t.Fatalf("expected insertion order %v, got %+v", order, schedule.Booked)
		}
	}
	if len(schedule.Open)+len(schedule.Booked) != ledger.SlotCount {
		t.Fatalf("open and booked must cover every slot, got %d+%d", len(schedule.Open), len(schedule.Booked))
	}
	for i := 1; i < len(schedule.Open); i++ {
		if schedule.Open[i-1] >= schedule.Open[i] {
			t.Fatalf("expected ascending open slots, got %v", schedule.Open)
		}
	}
	for _, slot := range schedule.Open {
		for _, booked := range order {
			if slot == booked {
				t.Fatalf("slot %d is both open and booked", slot)
			}
		}
	}
}

func TestLedger_BookingAt(t *testing.T) {
	t.Parallel()

	h := testfixtures.NewLedgerHarness(t, "HW.003")
	day := h.Clock.NextWeekday(1)

	t.Run("unknown room", func(t *testing.T) {
		_, _, err := h.Ledger.BookingAt("X.999", day, 0)
		if !errors.Is(err, ledger.ErrRoomDoesntExist) {
			t.Fatalf("expected ErrRoomDoesntExist, got %v", err)
		}
	})

	t.Run("day without bookings", func(t *testing.T) {
		_, found, err := h.Ledger.BookingAt("HW.003", day, 0)
		if err != nil || found {
			t.Fatalf("expected no booking, found=%v err=%v", found, err)
		}
		if _, materialised, _ := h.Ledger.DaySchedule("HW.003", day); materialised {
			t.Fatalf("query must not create a day entry")
		}
	})
}

func TestLedger_ReopenRestoresState(t *testing.T) {
	t.Parallel()

	h := testfixtures.NewLedgerHarness(t, "HW.003", "T1.011")
	ctx := context.Background()
	day := h.Clock.NextWeekday(1)

	fixtures := []testfixtures.BookingFixture{
		testfixtures.NewBookingFixture(testfixtures.WithBookingDay(day), testfixtures.WithBookingSlot(3),
			testfixtures.WithBookingClass("Statistik", "Wermuth")),
		testfixtures.NewBookingFixture(testfixtures.WithBookingDay(day), testfixtures.WithBookingSlot(0)),
		testfixtures.NewBookingFixture(testfixtures.WithBookingRoom("T1.011"), testfixtures.WithBookingDay(day)),
	}
	for _, f := range fixtures {
		if err := f.Apply(ctx, h.Ledger); err != nil {
			t.Fatalf("apply fixture %+v: %v", f, err)
		}
	}

	reopened := h.Reopen(t)
	for _, f := range fixtures {
		got, found, err := reopened.BookingAt(f.RoomID, f.Day, f.Slot)
		if err != nil || !found {
			t.Fatalf("expected booking %+v after reopen, found=%v err=%v", f, found, err)
		}
		if got != f.Booking() {
			t.Fatalf("expected %+v, got %+v", f.Booking(), got)
		}
	}

	before, _, _ := h.Ledger.DaySchedule("HW.003", day)
	after, _, _ := reopened.DaySchedule("HW.003", day)
	if len(before.Open) != len(after.Open) || len(before.Booked) != len(after.Booked) {
		t.Fatalf("expected schedules to match, before=%+v after=%+v", before, after)
	}
	for i := range before.Booked {
		if before.Booked[i] != after.Booked[i] {
			t.Fatalf("expected booking order to survive reopen, before=%+v after=%+v", before.Booked, after.Booked)
		}
	}
}

func TestLedger_AnonymousBookingStoredAsNull(t *testing.T) {
	t.Parallel()

	h := testfixtures.NewLedgerHarness(t, "HW.003")
	day := h.Clock.NextWeekday(1)
	if err := h.Ledger.BookRoom(context.Background(), "HW.003", day, ledger.Booking{Slot: 2}); err != nil {
		t.Fatalf("BookRoom failed: %v", err)
	}

	record := h.Store.Stored()["HW.003"][ledger.DayKey(day)]
	if len(record.BookedSlots) != 1 {
		t.Fatalf("expected one booked slot, got %+v", record)
	}
	if record.BookedSlots[0].ClassName != nil || record.BookedSlots[0].ProfName != nil {
		t.Fatalf("expected null metadata, got %+v", record.BookedSlots[0])
	}
	if len(record.OpenSlots) != ledger.SlotCount-1 {
		t.Fatalf("expected %d open slots, got %v", ledger.SlotCount-1, record.OpenSlots)
	}
}

func TestLedger_SQLiteRoundTrip(t *testing.T) {
	t.Parallel()

	h := testfixtures.NewSQLiteHarness(t)
	clock := testfixtures.NewClock(time.Time{})
	ctx := context.Background()
	opts := []ledger.Option{ledger.WithClock(clock.NowFunc()), ledger.WithLocation(time.UTC)}

	l, err := ledger.Open(ctx, h.Storage, opts...)
	if err != nil {
		t.Fatalf("Open on empty database failed: %v", err)
	}
	if len(l.Rooms()) != 0 {
		t.Fatalf("expected empty ledger, got %v", l.Rooms())
	}

	fixture := testfixtures.NewBookingFixture(testfixtures.WithBookingSlot(3), testfixtures.WithBookingClass("Statistik", "Wermuth"))
	if err := l.AddRoom(ctx, fixture.RoomID); err != nil {
		t.Fatalf("AddRoom failed: %v", err)
	}
	if err := fixture.Apply(ctx, l); err != nil {
		t.Fatalf("apply fixture: %v", err)
	}

	reopened, err := ledger.Open(ctx, h.Storage, opts...)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	got, found, err := reopened.BookingAt(fixture.RoomID, fixture.Day, fixture.Slot)
	if err != nil || !found || got != fixture.Booking() {
		t.Fatalf("expected %+v after reopen, got %+v found=%v err=%v", fixture.Booking(), got, found, err)
	}
}

func TestLedger_PersistenceFailureRollsBack(t *testing.T) {
	t.Parallel()

	h := testfixtures.NewLedgerHarness(t, "HW.003")
	ctx := context.Background()
	day := h.Clock.NextWeekday(1)
	other := h.Clock.NextWeekday(2)

	if err := h.Ledger.BookRoom(ctx, "HW.003", day, ledger.Booking{Slot: 1}); err != nil {
		t.Fatalf("BookRoom failed: %v", err)
	}

	cause := errors.New("disk full")
	h.Store.FailSaves(cause)

	err := h.Ledger.BookRoom(ctx, "HW.003", day, ledger.Booking{Slot: 2})
	if !errors.Is(err, ledger.ErrPersistence) || !errors.Is(err, cause) {
		t.Fatalf("expected persistence error wrapping cause, got %v", err)
	}
	if _, found, _ := h.Ledger.BookingAt("HW.003", day, 2); found {
		t.Fatalf("expected failed booking to be rolled back")
	}
	schedule, _, _ := h.Ledger.DaySchedule("HW.003", day)
	if len(schedule.Open)+len(schedule.Booked) != ledger.SlotCount || len(schedule.Booked) != 1 {
		t.Fatalf("expected schedule restored, got %+v", schedule)
	}

	if err := h.Ledger.BookRoom(ctx, "HW.003", other, ledger.Booking{Slot: 0}); !errors.Is(err, ledger.ErrPersistence) {
		t.Fatalf("expected persistence error, got %v", err)
	}
	if _, found, _ := h.Ledger.DaySchedule("HW.003", other); found {
		t.Fatalf("expected lazily created day to be removed")
	}

	h.Store.FailSaves(nil)
	if err := h.Ledger.BookRoom(ctx, "HW.003", day, ledger.Booking{Slot: 2}); err != nil {
		t.Fatalf("expected slot to be bookable after recovery, got %v", err)
	}
}

func TestLedger_ConcurrentBookingsHaveOneWinner(t *testing.T) {
	t.Parallel()

	h := testfixtures.NewLedgerHarness(t, "HW.003")
	day := h.Clock.NextWeekday(1)

	const contenders = 16
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
		conflicts int
	)
	for i := 0; i < contenders; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := h.Ledger.BookRoom(context.Background(), "HW.003", day, ledger.Booking{Slot: 6})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				successes++
			case errors.Is(err, ledger.ErrTimeslotNotAvailable):
				conflicts++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	if successes != 1 || conflicts != contenders-1 {
		t.Fatalf("expected 1 success and %d conflicts, got %d and %d", contenders-1, successes, conflicts)
	}
}

func TestLedger_Open(t *testing.T) {
	t.Parallel()

	class := "Statistik"
	prof := "Wermuth"

	t.Run("empty store yields empty ledger", func(t *testing.T) {
		t.Parallel()

		l, err := ledger.Open(context.Background(), testfixtures.NewMemoryStore(nil))
		if err != nil {
			t.Fatalf("Open returned error: %v", err)
		}
		if len(l.Rooms()) != 0 {
			t.Fatalf("expected no rooms, got %v", l.Rooms())
		}
	})

	t.Run("stale open slots are recomputed", func(t *testing.T) {
		t.Parallel()

		store := testfixtures.NewMemoryStore(persistence.Snapshot{
			"HW.003": {
				"2024-01-03": {
					OpenSlots:   []int{0, 3},
					BookedSlots: []persistence.BookingRecord{{Slot: 3, ClassName: &class, ProfName: &prof}},
				},
			},
		})
		l, err := ledger.Open(context.Background(), store)
		if err != nil {
			t.Fatalf("Open returned error: %v", err)
		}
		day, _ := ledger.ParseDay("2024-01-03")
		schedule, found, err := l.DaySchedule("HW.003", day)
		if err != nil || !found {
			t.Fatalf("expected schedule, found=%v err=%v", found, err)
		}
		if len(schedule.Open) != ledger.SlotCount-1 {
			t.Fatalf("expected %d open slots, got %v", ledger.SlotCount-1, schedule.Open)
		}
	})

	corrupt := map[string]persistence.Snapshot{
		"invalid day key": {"HW.003": {"03.01.2024": {}}},
		"slot out of range": {"HW.003": {"2024-01-03": {
			BookedSlots: []persistence.BookingRecord{{Slot: 13}},
		}}},
		"slot booked twice": {"HW.003": {"2024-01-03": {
			BookedSlots: []persistence.BookingRecord{{Slot: 1}, {Slot: 1}},
		}}},
	}
	for name, snapshot := range corrupt {
		snapshot := snapshot
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			_, err := ledger.Open(context.Background(), testfixtures.NewMemoryStore(snapshot))
			if !errors.Is(err, ledger.ErrCorruptSnapshot) {
				t.Fatalf("expected ErrCorruptSnapshot, got %v", err)
			}
		})
	}

	t.Run("load failure is reported", func(t *testing.T) {
		t.Parallel()

		store := testfixtures.NewMemoryStore(nil)
		store.LoadErr = errors.New("permission denied")
		if _, err := ledger.Open(context.Background(), store); !errors.Is(err, store.LoadErr) {
			t.Fatalf("expected load error, got %v", err)
		}
	})
}

func TestLedger_TodayUsesLocation(t *testing.T) {
	t.Parallel()

	// 23:30 UTC on Friday is already Saturday in Berlin.
	instant := time.Date(2024, time.January, 5, 23, 30, 0, 0, time.UTC)
	berlin := time.FixedZone("CET", 60*60)
	l := ledger.New(nil, ledger.WithClock(func() time.Time { return instant }), ledger.WithLocation(berlin))

	if got := ledger.DayKey(l.Today()); got != "2024-01-06" {
		t.Fatalf("expected 2024-01-06, got %s", got)
	}
}

func TestLedger_Schedules(t *testing.T) {
	t.Parallel()

	h := testfixtures.NewLedgerHarness(t, "HW.003")
	ctx := context.Background()
	days := ledger.WeekDays(h.Clock.Today())
	booked := days[2]
	if err := h.Ledger.BookRoom(ctx, "HW.003", booked, ledger.Booking{Slot: 3, ClassName: "Statistik", Instructor: "Wermuth"}); err != nil {
		t.Fatalf("BookRoom failed: %v", err)
	}

	schedules, err := h.Ledger.Schedules("HW.003", days)
	if err != nil {
		t.Fatalf("Schedules returned error: %v", err)
	}
	if len(schedules) != len(days) {
		t.Fatalf("expected %d schedules, got %d", len(days), len(schedules))
	}
	for i, schedule := range schedules {
		if len(schedule.Open)+len(schedule.Booked) != ledger.SlotCount {
			t.Fatalf("day %d: open and booked must cover every slot, got %d+%d", i, len(schedule.Open), len(schedule.Booked))
		}
		wantBooked := 0
		if i == 2 {
			wantBooked = 1
		}
		if len(schedule.Booked) != wantBooked {
			t.Fatalf("day %d: expected %d bookings, got %+v", i, wantBooked, schedule.Booked)
		}
	}

	if _, found, _ := h.Ledger.DaySchedule("HW.003", days[0]); found {
		t.Fatalf("expected Schedules not to materialise untouched days")
	}
	if _, err := h.Ledger.Schedules("HW.404", days); !errors.Is(err, ledger.ErrRoomDoesntExist) {
		t.Fatalf("expected ErrRoomDoesntExist, got %v", err)
	}
}

func TestLedger_SnapshotMatchesStore(t *testing.T) {
	t.Parallel()

	h := testfixtures.NewLedgerHarness(t, "HW.003", "HW.101")
	ctx := context.Background()
	if err := h.Ledger.BookRoom(ctx, "HW.003", h.Clock.NextWeekday(1), ledger.Booking{Slot: 0}); err != nil {
		t.Fatalf("BookRoom failed: %v", err)
	}
	if err := h.Ledger.BookRoom(ctx, "HW.101", h.Clock.NextWeekday(2), ledger.Booking{Slot: 5, ClassName: "Statistik", Instructor: "Wermuth"}); err != nil {
		t.Fatalf("BookRoom failed: %v", err)
	}

	got, err := persistence.Encode(h.Ledger.Snapshot())
	if err != nil {
		t.Fatalf("encode snapshot: %v", err)
	}
	want, err := persistence.Encode(h.Store.Stored())
	if err != nil {
		t.Fatalf("encode stored snapshot: %v", err)
	}
	if string(got) != string(want) {
		t.Fatalf("snapshot diverges from store:\n got %s\nwant %s", got, want)
	}

	snapshot := h.Ledger.Snapshot()
	delete(snapshot, "HW.003")
	if !h.Ledger.HasRoom("HW.003") {
		t.Fatalf("expected Snapshot to return a copy")
	}
}
