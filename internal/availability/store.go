package availability

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Settings is the administrative knob block persisted next to the slot
// table.
type Settings struct {
	HeavyLoad bool `json:"heavyLoad"`
}

type dayTable struct {
	Days map[string]DayRecord `json:"days"`
}

// Store holds the slot table in memory and mirrors it to a JSON file.
// All access is serialized here; callers only ever receive copies of
// day records, and writers replace records wholesale, so a concurrent
// read observes either the pre- or post-mutation state of a day, never
// something in between.
type Store struct {
	mu       sync.RWMutex
	settings Settings
	slots    map[string]map[string]map[string]*dayTable

	path      string
	log       zerolog.Logger
	lastSaved time.Time
}

// MonthKey extracts the YYYY-MM month key from a YYYY-MM-DD date.
func MonthKey(date string) string {
	if len(date) < 7 {
		return date
	}
	return date[:7]
}

// HeavyLoad reports the live heavy-load flag.
func (s *Store) HeavyLoad() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.settings.HeavyLoad
}

// SetHeavyLoad flips the heavy-load flag and persists it.
func (s *Store) SetHeavyLoad(enabled bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settings.HeavyLoad = enabled
	return s.save()
}

// table returns the day table for the tuple, creating intermediate
// levels when create is set. Callers hold the appropriate lock.
func (s *Store) table(month, center, typ string, create bool) *dayTable {
	centers, ok := s.slots[month]
	if !ok {
		if !create {
			return nil
		}
		centers = make(map[string]map[string]*dayTable)
		s.slots[month] = centers
	}

	types, ok := centers[center]
	if !ok {
		if !create {
			return nil
		}
		types = make(map[string]*dayTable)
		centers[center] = types
	}

	tbl, ok := types[typ]
	if !ok {
		if !create {
			return nil
		}
		tbl = &dayTable{Days: make(map[string]DayRecord)}
		types[typ] = tbl
	}
	return tbl
}

// Day returns a copy of one day record.
func (s *Store) Day(month, center, typ, date string) (DayRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tbl := s.table(month, center, typ, false)
	if tbl == nil {
		return DayRecord{}, false
	}
	rec, ok := tbl.Days[date]
	if !ok {
		return DayRecord{}, false
	}
	return rec.Clone(), true
}

// EnsureDay returns the day record for date, minting and persisting a
// default record when the date has never been touched.
func (s *Store) EnsureDay(month, center, typ, date string) (DayRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tbl := s.table(month, center, typ, true)
	if rec, ok := tbl.Days[date]; ok {
		return rec.Clone(), nil
	}

	rec := NewDefaultDay()
	tbl.Days[date] = rec
	if err := s.save(); err != nil {
		return DayRecord{}, err
	}
	return rec.Clone(), nil
}

// MonthDays returns copies of every day record stored for the tuple.
// An unknown tuple yields an empty map, not an error: the portal
// renders unpublished months as having no days.
func (s *Store) MonthDays(month, center, typ string) map[string]DayRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]DayRecord)
	tbl := s.table(month, center, typ, false)
	if tbl == nil {
		return out
	}
	for date, rec := range tbl.Days {
		out[date] = rec.Clone()
	}
	return out
}

// ReplaceDay swaps in a new record for date atomically and persists.
func (s *Store) ReplaceDay(month, center, typ, date string, rec DayRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tbl := s.table(month, center, typ, true)
	tbl.Days[date] = rec.Clone()
	return s.save()
}

// SetDayStatus is the administrative day edit. It seeds a default slot
// grid for days that never had one.
func (s *Store) SetDayStatus(date, center, typ string, status DayStatus) (DayRecord, error) {
	if !ValidDayStatus(status) {
		return DayRecord{}, fmt.Errorf("availability: invalid day status %q", status)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tbl := s.table(MonthKey(date), center, typ, true)
	rec, ok := tbl.Days[date]
	if !ok {
		rec = NewDefaultDay()
	}
	rec = rec.Clone()
	rec.Status = status
	tbl.Days[date] = rec

	if err := s.save(); err != nil {
		return DayRecord{}, err
	}
	return rec.Clone(), nil
}

// SetSlotStatus is the administrative slot edit.
func (s *Store) SetSlotStatus(date, center, typ, slot string, status SlotStatus) error {
	if !ValidSlotStatus(status) {
		return fmt.Errorf("availability: invalid slot status %q", status)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tbl := s.table(MonthKey(date), center, typ, true)
	rec, ok := tbl.Days[date]
	if !ok {
		rec = DayRecord{Status: DayAvailable, Slots: DefaultDaySlots()}
	}
	rec = rec.Clone()
	rec.Slots[slot] = status
	tbl.Days[date] = rec

	return s.save()
}

// Months lists the stored month keys in ascending order.
func (s *Store) Months() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return sortedKeys(s.slots)
}

// Centers lists the centers stored under month.
func (s *Store) Centers(month string) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return sortedKeys(s.slots[month])
}

// Types lists the visa types stored under month/center.
func (s *Store) Types(month, center string) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return sortedKeys(s.slots[month][center])
}

// Dates lists the dates stored under the tuple in ascending order.
func (s *Store) Dates(month, center, typ string) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tbl := s.table(month, center, typ, false)
	if tbl == nil {
		return nil
	}
	return sortedKeys(tbl.Days)
}

func sortedKeys[M ~map[string]V, V any](m M) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
