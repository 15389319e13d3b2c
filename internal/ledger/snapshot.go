package ledger

import (
	"fmt"
	"time"

	"github.com/example/room-ledger/internal/persistence"
)

func toSnapshot(rooms map[string]map[string]*DaySchedule) persistence.Snapshot {
	snapshot := make(persistence.Snapshot, len(rooms))
	for roomID, days := range rooms {
		records := make(map[string]persistence.DayRecord, len(days))
		for key, schedule := range days {
			record := persistence.DayRecord{
				OpenSlots:   append([]int{}, schedule.Open...),
				BookedSlots: make([]persistence.BookingRecord, 0, len(schedule.Booked)),
			}
			for _, b := range schedule.Booked {
				record.BookedSlots = append(record.BookedSlots, persistence.BookingRecord{
					Slot:      b.Slot,
					ClassName: optional(b.ClassName),
					ProfName:  optional(b.Instructor),
				})
			}
			records[key] = record
		}
		snapshot[roomID] = records
	}
	return snapshot
}

// fromSnapshot rebuilds the in-memory ledger. Open slots are recomputed as the
// complement of the booked ones, so a stale open list cannot break the partition.
func fromSnapshot(snapshot persistence.Snapshot) (map[string]map[string]*DaySchedule, error) {
	rooms := make(map[string]map[string]*DaySchedule, len(snapshot))
	for roomID, records := range snapshot {
		if roomID == "" {
			return nil, fmt.Errorf("%w: empty room id", ErrCorruptSnapshot)
		}
		days := make(map[string]*DaySchedule, len(records))
		for key, record := range records {
			day, err := ParseDay(key)
			if err != nil || day.Format(time.DateOnly) != key {
				return nil, fmt.Errorf("%w: room %s has invalid day %q", ErrCorruptSnapshot, roomID, key)
			}

			schedule := &DaySchedule{Booked: make([]Booking, 0, len(record.BookedSlots))}
			seen := make(map[int]bool, len(record.BookedSlots))
			for _, b := range record.BookedSlots {
				if !ValidSlot(b.Slot) {
					return nil, fmt.Errorf("%w: room %s day %s has invalid slot %d", ErrCorruptSnapshot, roomID, key, b.Slot)
				}
				if seen[b.Slot] {
					return nil, fmt.Errorf("%w: room %s day %s books slot %d twice", ErrCorruptSnapshot, roomID, key, b.Slot)
				}
				seen[b.Slot] = true
				schedule.Booked = append(schedule.Booked, Booking{
					Slot:       b.Slot,
					ClassName:  deref(b.ClassName),
					Instructor: deref(b.ProfName),
				})
			}

			schedule.Open = make([]int, 0, SlotCount-len(seen))
			for slot := 0; slot < SlotCount; slot++ {
				if !seen[slot] {
					schedule.Open = append(schedule.Open, slot)
				}
			}
			days[key] = schedule
		}
		rooms[roomID] = days
	}
	return rooms, nil
}

func optional(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}

func deref(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}
