package ledger

// timeslots is the fixed daily grid. Persisted data refers to slots by index, so
// the order and the labels must never change.
var timeslots = [...]string{
	"08:00-08:45",
	"08:45-09:30",
	"09:45-10:30",
	"10:30-11:15",
	"11.30-12:15",
	"12:15-13:00",
	"13:00-14:00",
	"14:00-14:45",
	"14:45-15:30",
	"15:45-16:30",
	"16:30-17:15",
	"17:30-18:15",
	"18:15-19:00",
}

// SlotCount is the number of bookable timeslots per day.
const SlotCount = len(timeslots)

// Timeslots returns the slot labels in schedule order.
func Timeslots() []string {
	out := make([]string, SlotCount)
	copy(out, timeslots[:])
	return out
}

// SlotLabel returns the display label of the slot at index.
func SlotLabel(index int) (string, bool) {
	if !ValidSlot(index) {
		return "", false
	}
	return timeslots[index], true
}

// SlotIndex resolves a display label such as "08:00-08:45" to its index.
func SlotIndex(label string) (int, bool) {
	for i, candidate := range timeslots {
		if candidate == label {
			return i, true
		}
	}
	return -1, false
}

// ValidSlot reports whether index addresses a slot of the daily grid.
func ValidSlot(index int) bool {
	return index >= 0 && index < SlotCount
}

func allSlots() []int {
	out := make([]int, SlotCount)
	for i := range out {
		out[i] = i
	}
	return out
}
