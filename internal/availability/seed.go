package availability

import "fmt"

// DefaultDaySlots builds the standard appointment grid: every quarter
// hour from 08:00 through 17:45, all open.
func DefaultDaySlots() map[string]SlotStatus {
	slots := make(map[string]SlotStatus, 40)
	for h := 8; h <= 17; h++ {
		for _, m := range []int{0, 15, 30, 45} {
			slots[fmt.Sprintf("%02d:%02d", h, m)] = SlotAvailable
		}
	}
	return slots
}

// NewDefaultDay is the record minted when a day is first touched: a
// full grid of open slots under a closed day status, matching how the
// real portal seeds dates before publishing them.
func NewDefaultDay() DayRecord {
	return DayRecord{Status: DayNA, Slots: DefaultDaySlots()}
}
