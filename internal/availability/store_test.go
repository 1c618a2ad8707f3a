package availability

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "slots.json")
	s, err := Open(path, false, zerolog.Nop())
	require.NoError(t, err)
	return s
}

func TestOpenCreatesEmptyTable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "slots.json")
	s, err := Open(path, true, zerolog.Nop())
	require.NoError(t, err)

	require.True(t, s.HeavyLoad())
	require.Empty(t, s.Months())
	require.FileExists(t, path)
}

func TestOpenRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "slots.json")
	s, err := Open(path, false, zerolog.Nop())
	require.NoError(t, err)

	_, err = s.SetDayStatus("2026-09-14", "DXB", "Tourist", DayAvailable)
	require.NoError(t, err)
	require.NoError(t, s.SetHeavyLoad(true))

	reopened, err := Open(path, false, zerolog.Nop())
	require.NoError(t, err)
	require.True(t, reopened.HeavyLoad())

	rec, ok := reopened.Day("2026-09", "DXB", "Tourist", "2026-09-14")
	require.True(t, ok)
	require.Equal(t, DayAvailable, rec.Status)
	require.Len(t, rec.Slots, 40)
}

func TestEnsureDaySeedsDefaultGrid(t *testing.T) {
	s := newTestStore(t)

	rec, err := s.EnsureDay("2026-09", "DXB", "Tourist", "2026-09-03")
	require.NoError(t, err)
	require.Equal(t, DayNA, rec.Status)
	require.Len(t, rec.Slots, 40)
	require.Equal(t, SlotAvailable, rec.Slots["08:00"])
	require.Equal(t, SlotAvailable, rec.Slots["17:45"])

	// Second call returns the stored record, not a fresh one.
	_, err = s.SetDayStatus("2026-09-03", "DXB", "Tourist", DayFull)
	require.NoError(t, err)
	rec, err = s.EnsureDay("2026-09", "DXB", "Tourist", "2026-09-03")
	require.NoError(t, err)
	require.Equal(t, DayFull, rec.Status)
}

func TestSetDayStatusRejectsUnknownEnum(t *testing.T) {
	s := newTestStore(t)

	_, err := s.SetDayStatus("2026-09-03", "DXB", "Tourist", DayStatus("open"))
	require.Error(t, err)
}

func TestDayReturnsCopies(t *testing.T) {
	s := newTestStore(t)

	_, err := s.EnsureDay("2026-09", "DXB", "Tourist", "2026-09-03")
	require.NoError(t, err)

	rec, ok := s.Day("2026-09", "DXB", "Tourist", "2026-09-03")
	require.True(t, ok)
	rec.Slots["08:00"] = SlotBooked

	again, _ := s.Day("2026-09", "DXB", "Tourist", "2026-09-03")
	require.Equal(t, SlotAvailable, again.Slots["08:00"], "caller edits must not leak into the store")
}

func TestReplaceDayIsAtomicUnderConcurrentReads(t *testing.T) {
	s := newTestStore(t)

	_, err := s.EnsureDay("2026-09", "DXB", "Tourist", "2026-09-03")
	require.NoError(t, err)

	booked := DayRecord{Status: DayNA, Slots: map[string]SlotStatus{}}
	for ts := range DefaultDaySlots() {
		booked.Slots[ts] = SlotBooked
	}

	var wg sync.WaitGroup
	stop := make(chan struct{})

	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-stop:
				return
			default:
			}
			rec, ok := s.Day("2026-09", "DXB", "Tourist", "2026-09-03")
			if !ok {
				t.Error("day vanished mid-test")
				return
			}
			// Either the all-open default or the all-booked replacement,
			// never a blend.
			avail := rec.AvailableSlots()
			if avail != 0 && avail != len(rec.Slots) {
				t.Errorf("observed partially applied day: %d of %d available", avail, len(rec.Slots))
				return
			}
		}
	}()

	for i := 0; i < 50; i++ {
		require.NoError(t, s.ReplaceDay("2026-09", "DXB", "Tourist", "2026-09-03", NewDefaultDay()))
		require.NoError(t, s.ReplaceDay("2026-09", "DXB", "Tourist", "2026-09-03", booked))
	}
	close(stop)
	wg.Wait()
}

func TestReloadPicksUpExternalEdit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "slots.json")
	s, err := Open(path, false, zerolog.Nop())
	require.NoError(t, err)

	external := `{"settings":{"heavyLoad":true},"slots":{"2026-10":{"DXB":{"Tourist":{"days":{"2026-10-01":{"status":"available","slots":{"09:00":"available"}}}}}}}}`
	require.NoError(t, os.WriteFile(path, []byte(external), 0o644))

	s.reload()

	require.True(t, s.HeavyLoad())
	rec, ok := s.Day("2026-10", "DXB", "Tourist", "2026-10-01")
	require.True(t, ok)
	require.Equal(t, DayAvailable, rec.Status)
}

func TestTupleListings(t *testing.T) {
	s := newTestStore(t)

	_, err := s.SetDayStatus("2026-09-02", "DXB", "Tourist", DayNA)
	require.NoError(t, err)
	_, err = s.SetDayStatus("2026-09-01", "DXB", "Student", DayAvailable)
	require.NoError(t, err)
	_, err = s.SetDayStatus("2026-08-20", "AUH", "Tourist", DayHoliday)
	require.NoError(t, err)

	require.Equal(t, []string{"2026-08", "2026-09"}, s.Months())
	require.Equal(t, []string{"DXB"}, s.Centers("2026-09"))
	require.Equal(t, []string{"Student", "Tourist"}, s.Types("2026-09", "DXB"))
	require.Equal(t, []string{"2026-09-02"}, s.Dates("2026-09", "DXB", "Tourist"))
	require.Empty(t, s.Dates("2027-01", "DXB", "Tourist"))
}
