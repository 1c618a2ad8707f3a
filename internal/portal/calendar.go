package portal

import (
	"fmt"
	"sort"
	"time"

	"github.com/educypnishi/embassydemo/internal/availability"
	"github.com/educypnishi/embassydemo/internal/simrand"
)

// DayView is one calendar cell as the portal renders it.
type DayView struct {
	Date      string `json:"date"`
	Status    string `json:"status"`
	DayStatus string `json:"dayStatus"`
	IsOpen    bool   `json:"isOpen"`
	ClassName string `json:"className"`
	Ghost     bool   `json:"ghost,omitempty"`
}

func dayView(date string, status availability.DayStatus) DayView {
	open := status == availability.DayAvailable
	class := "closed-date"
	if open {
		class = "open-date"
	}
	return DayView{
		Date:      date,
		Status:    string(status),
		DayStatus: string(status),
		IsOpen:    open,
		ClassName: class,
	}
}

// monthView renders every stored day of the month in date order. A
// non-empty force overrides each day's status, which is how the
// AllUnavailable and AllFull profiles and the month-level overlay
// flatten a month.
func monthView(days map[string]availability.DayRecord, force availability.DayStatus) []DayView {
	dates := make([]string, 0, len(days))
	for date := range days {
		dates = append(dates, date)
	}
	sort.Strings(dates)

	out := make([]DayView, 0, len(dates))
	for _, date := range dates {
		status := days[date].Status
		if force != "" {
			status = force
		}
		out = append(out, dayView(date, status))
	}
	return out
}

// AvailableDate is one entry of the condensed (JSONOnly) calendar.
type AvailableDate struct {
	Date           string `json:"date"`
	DayOfWeek      string `json:"dayOfWeek"`
	SlotsAvailable int    `json:"slotsAvailable"`
}

// condensedView lists only the currently open days: no per-slot detail,
// no closed-day entries.
func condensedView(days map[string]availability.DayRecord) []AvailableDate {
	dates := make([]string, 0, len(days))
	for date, rec := range days {
		if rec.Status == availability.DayAvailable {
			dates = append(dates, date)
		}
	}
	sort.Strings(dates)

	out := make([]AvailableDate, 0, len(dates))
	for _, date := range dates {
		entry := AvailableDate{Date: date, SlotsAvailable: days[date].AvailableSlots()}
		if d, err := time.Parse("2006-01-02", date); err == nil {
			entry.DayOfWeek = d.Format("Mon")
		}
		out = append(out, entry)
	}
	return out
}

// ghostDates fabricates one to three extra "open" cells, the
// anti-automation trick real portals pull on scrapers. They are
// flagged so tests can tell them apart; scrapers usually cannot.
func ghostDates(monthKey string, rng *simrand.Rand) []DayView {
	n := 1 + rng.Intn(3)
	out := make([]DayView, 0, n)
	for i := 0; i < n; i++ {
		v := dayView(fmt.Sprintf("%s-%02d", monthKey, 1+rng.Intn(28)), availability.DayAvailable)
		v.Ghost = true
		out = append(out, v)
	}
	return out
}

var wrapperPrefixes = []string{"cal", "grid", "embassy", "visa"}

// renderHints mimics the DOM class churn of the hosted portal: a
// wrapper class that changes on every query.
func renderHints(rng *simrand.Rand) map[string]string {
	prefix := wrapperPrefixes[rng.Intn(len(wrapperPrefixes))]
	return map[string]string{
		"wrapperClass": fmt.Sprintf("embassy-wrapper %s-%06x", prefix, rng.Intn(1<<24)),
	}
}

// SlotView is one time-slot row of the day detail response.
type SlotView struct {
	Time      string `json:"time"`
	Status    string `json:"status"`
	Available bool   `json:"available"`
	Action    string `json:"action"`
}

func slotViews(rec availability.DayRecord) []SlotView {
	out := make([]SlotView, 0, len(rec.Slots))
	for _, t := range rec.Times() {
		status := rec.Slots[t]
		out = append(out, SlotView{
			Time:      t,
			Status:    string(status),
			Available: status == availability.SlotAvailable,
			Action:    "select-time",
		})
	}
	return out
}
