// Package availability is the slot table: a hierarchical mapping
// month -> center -> visa type -> day -> day record, shared by request
// handling and the background mutation engine.
package availability

import "sort"

type DayStatus string

const (
	DayAvailable DayStatus = "available"
	DayNA        DayStatus = "na"
	DayFull      DayStatus = "full"
	DayHoliday   DayStatus = "holiday"
)

// ValidDayStatus reports whether s is one of the admin-settable day
// statuses.
func ValidDayStatus(s DayStatus) bool {
	switch s {
	case DayAvailable, DayNA, DayFull, DayHoliday:
		return true
	}
	return false
}

type SlotStatus string

const (
	SlotAvailable SlotStatus = "available"
	SlotBooked    SlotStatus = "booked"
)

func ValidSlotStatus(s SlotStatus) bool {
	return s == SlotAvailable || s == SlotBooked
}

// DayRecord is the stored truth for one calendar date within a given
// center and visa type. Readers always get copies; the store swaps
// whole records so a concurrent reader never sees a half-applied
// mutation.
type DayRecord struct {
	Status DayStatus             `json:"status"`
	Slots  map[string]SlotStatus `json:"slots"`
}

func (d DayRecord) Clone() DayRecord {
	slots := make(map[string]SlotStatus, len(d.Slots))
	for k, v := range d.Slots {
		slots[k] = v
	}
	return DayRecord{Status: d.Status, Slots: slots}
}

// Times returns the day's slot times in ascending order.
func (d DayRecord) Times() []string {
	times := make([]string, 0, len(d.Slots))
	for t := range d.Slots {
		times = append(times, t)
	}
	sort.Strings(times)
	return times
}

// AvailableSlots counts slots currently marked available.
func (d DayRecord) AvailableSlots() int {
	n := 0
	for _, s := range d.Slots {
		if s == SlotAvailable {
			n++
		}
	}
	return n
}
