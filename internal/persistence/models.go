package persistence

// Snapshot is the complete durable form of the booking ledger:
// room code -> ISO 8601 day -> day record.
type Snapshot map[string]map[string]DayRecord

// DayRecord is the stored occupancy of one room on one day.
type DayRecord struct {
	OpenSlots   []int           `json:"open_slots"`
	BookedSlots []BookingRecord `json:"booked_slots"`
}

// BookingRecord is a single occupied slot. Nil metadata marks an anonymous booking
// and is written as JSON null.
type BookingRecord struct {
	Slot      int     `json:"slot"`
	ClassName *string `json:"class_name"`
	ProfName  *string `json:"prof_name"`
}

// Clone returns a deep copy of the snapshot.
func (s Snapshot) Clone() Snapshot {
	if s == nil {
		return nil
	}
	out := make(Snapshot, len(s))
	for room, days := range s {
		copied := make(map[string]DayRecord, len(days))
		for day, record := range days {
			copied[day] = record.Clone()
		}
		out[room] = copied
	}
	return out
}

// Clone returns a deep copy of the day record.
func (d DayRecord) Clone() DayRecord {
	out := DayRecord{
		OpenSlots:   append([]int{}, d.OpenSlots...),
		BookedSlots: make([]BookingRecord, 0, len(d.BookedSlots)),
	}
	for _, booking := range d.BookedSlots {
		out.BookedSlots = append(out.BookedSlots, BookingRecord{
			Slot:      booking.Slot,
			ClassName: cloneString(booking.ClassName),
			ProfName:  cloneString(booking.ProfName),
		})
	}
	return out
}

func cloneString(value *string) *string {
	if value == nil {
		return nil
	}
	clone := *value
	return &clone
}
