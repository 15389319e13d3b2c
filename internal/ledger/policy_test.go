package ledger

import (
	"errors"
	"testing"
	"time"
)

func TestValidateDay(t *testing.T) {
	t.Parallel()

	today := time.Date(2024, time.January, 2, 0, 0, 0, 0, time.UTC) // Tuesday

	tests := []struct {
		name string
		day  string
		want Kind
	}{
		{name: "today", day: "2024-01-02", want: KindUnknown},
		{name: "friday", day: "2024-01-05", want: KindUnknown},
		{name: "horizon", day: "2024-01-15", want: KindUnknown},
		{name: "past the horizon", day: "2024-01-16", want: KindBookingTooFarAhead},
		{name: "yesterday", day: "2024-01-01", want: KindBookingInThePastForbidden},
		{name: "saturday", day: "2024-01-06", want: KindInvalidBookingOnWeekend},
		{name: "sunday far ahead", day: "2024-01-21", want: KindInvalidBookingOnWeekend},
		{name: "sunday in the past", day: "2023-12-31", want: KindInvalidBookingOnWeekend},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			day, err := ParseDay(tt.day)
			if err != nil {
				t.Fatalf("ParseDay: %v", err)
			}
			err = ValidateDay(day, today)
			if tt.want == KindUnknown {
				if err != nil {
					t.Fatalf("expected no error, got %v", err)
				}
				return
			}
			if got := KindOf(err); got != tt.want {
				t.Fatalf("expected %s, got %s (%v)", tt.want, got, err)
			}
		})
	}
}

func TestDayOfKeepsCalendarDate(t *testing.T) {
	t.Parallel()

	tokyo := time.FixedZone("JST", 9*60*60)
	instant := time.Date(2024, time.January, 3, 1, 0, 0, 0, tokyo)
	if got := DayKey(instant); got != "2024-01-03" {
		t.Fatalf("expected 2024-01-03, got %s", got)
	}
	if got := DaysBetween(instant, time.Date(2024, time.January, 2, 23, 0, 0, 0, time.UTC)); got != -1 {
		t.Fatalf("expected -1 day, got %d", got)
	}
}

func TestWeekDays(t *testing.T) {
	t.Parallel()

	for _, ref := range []string{"2024-01-01", "2024-01-03", "2024-01-05", "2024-01-07"} {
		day, _ := ParseDay(ref)
		days := WeekDays(day)
		if len(days) != 5 {
			t.Fatalf("expected five days, got %d", len(days))
		}
		if got := DayKey(days[0]); got != "2024-01-01" {
			t.Fatalf("WeekDays(%s) starts at %s, want 2024-01-01", ref, got)
		}
		if got := DayKey(days[4]); got != "2024-01-05" {
			t.Fatalf("WeekDays(%s) ends at %s, want 2024-01-05", ref, got)
		}
	}
}

func TestParseDayRejectsGarbage(t *testing.T) {
	t.Parallel()

	for _, value := range []string{"", "2024-13-01", "03.01.2024", "2024-1-3"} {
		if _, err := ParseDay(value); err == nil {
			t.Fatalf("expected error for %q", value)
		}
	}
}

func TestErrorMatching(t *testing.T) {
	t.Parallel()

	err := newError(KindTimeslotNotAvailable, "HW.003", "2024-01-03", 4)
	if !errors.Is(err, ErrTimeslotNotAvailable) {
		t.Fatalf("expected kind match")
	}
	if errors.Is(err, ErrRoomDoesntExist) {
		t.Fatalf("unexpected match across kinds")
	}
	want := "this timeslot is not available (room HW.003, day 2024-01-03, slot 11.30-12:15)"
	if err.Error() != want {
		t.Fatalf("expected %q, got %q", want, err.Error())
	}
	if KindOf(errors.New("plain")) != KindUnknown {
		t.Fatalf("expected KindUnknown for foreign errors")
	}
	if KindPersistence.String() != "persistence" {
		t.Fatalf("unexpected kind label %q", KindPersistence.String())
	}
}

func TestSlotLookup(t *testing.T) {
	t.Parallel()

	labels := Timeslots()
	if len(labels) != SlotCount || SlotCount != 13 {
		t.Fatalf("expected 13 slots, got %d", len(labels))
	}
	for i, label := range labels {
		index, ok := SlotIndex(label)
		if !ok || index != i {
			t.Fatalf("SlotIndex(%q) = %d, %v", label, index, ok)
		}
	}
	if idx, ok := SlotIndex("11.30-12:15"); !ok || idx != 4 {
		t.Fatalf("expected verbatim label for slot 4")
	}
	if _, ok := SlotIndex("11:30-12:15"); ok {
		t.Fatalf("normalised label must not resolve")
	}
	if _, ok := SlotLabel(SlotCount); ok {
		t.Fatalf("expected out of range slot to have no label")
	}

	labels[0] = "changed"
	if Timeslots()[0] != "08:00-08:45" {
		t.Fatalf("Timeslots must return a copy")
	}
}
