package ledger

import "time"

// MaxDaysAhead is the furthest a booking may be placed after today.
const MaxDaysAhead = 13

// DayOf strips the time of day from t, keeping the calendar date t has in its
// own location. The result is midnight UTC so day arithmetic ignores DST.
func DayOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DayKey returns the canonical ISO 8601 key of the calendar date of t.
func DayKey(t time.Time) string {
	return DayOf(t).Format(time.DateOnly)
}

// ParseDay parses an ISO 8601 date such as "2024-01-03".
func ParseDay(value string) (time.Time, error) {
	return time.Parse(time.DateOnly, value)
}

// DaysBetween returns the number of calendar days from a to b.
func DaysBetween(a, b time.Time) int {
	return int(DayOf(b).Sub(DayOf(a)).Hours() / 24)
}

// ValidateDay applies the booking window to day relative to today. The checks run
// in a fixed order: weekend first, then the horizon, then the past.
func ValidateDay(day, today time.Time) error {
	key := DayKey(day)
	switch DayOf(day).Weekday() {
	case time.Saturday, time.Sunday:
		return newError(KindInvalidBookingOnWeekend, "", key, -1)
	}

	ahead := DaysBetween(today, day)
	if ahead > MaxDaysAhead {
		return newError(KindBookingTooFarAhead, "", key, -1)
	}
	if ahead < 0 {
		return newError(KindBookingInThePastForbidden, "", key, -1)
	}
	return nil
}

// WeekDays returns Monday through Friday of the week containing ref.
func WeekDays(ref time.Time) []time.Time {
	day := DayOf(ref)
	offset := (int(day.Weekday()) + 6) % 7
	monday := day.AddDate(0, 0, -offset)

	days := make([]time.Time, 5)
	for i := range days {
		days[i] = monday.AddDate(0, 0, i)
	}
	return days
}
