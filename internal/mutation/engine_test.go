package mutation

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/educypnishi/embassydemo/internal/availability"
	"github.com/educypnishi/embassydemo/internal/simrand"
)

func newTestEngine(t *testing.T, seed int64) (*Engine, *availability.Store) {
	t.Helper()
	store, err := availability.Open(filepath.Join(t.TempDir(), "slots.json"), false, zerolog.Nop())
	require.NoError(t, err)
	return New(store, simrand.New(seed), zerolog.Nop()), store
}

func seedDay(t *testing.T, store *availability.Store, date string, status availability.DayStatus, slot availability.SlotStatus) {
	t.Helper()
	rec := availability.NewDefaultDay()
	rec.Status = status
	for ts := range rec.Slots {
		rec.Slots[ts] = slot
	}
	require.NoError(t, store.ReplaceDay(availability.MonthKey(date), "DXB", "Tourist", date, rec))
}

func TestStepOnEmptyStoreIsNoOp(t *testing.T) {
	e, _ := newTestEngine(t, 1)

	ev := e.Step()
	require.True(t, ev.NoOp)
	require.Zero(t, ev.SlotsChanged)
	require.Empty(t, ev.Date)

	last, ok := e.LastEvent()
	require.True(t, ok)
	require.Equal(t, ev.Kind, last.Kind)
	require.True(t, last.NoOp)
}

func TestLastEventInitiallyAbsent(t *testing.T) {
	e, _ := newTestEngine(t, 1)

	_, ok := e.LastEvent()
	require.False(t, ok)
}

func TestActivateOpensClosedSlots(t *testing.T) {
	e, store := newTestEngine(t, 2)
	seedDay(t, store, "2026-09-10", availability.DayNA, availability.SlotBooked)

	ev := e.apply(KindActivate)
	require.False(t, ev.NoOp)
	require.Equal(t, "2026-09-10", ev.Date)

	// 30-70% of 40 closed slots.
	require.GreaterOrEqual(t, ev.SlotsChanged, 12)
	require.LessOrEqual(t, ev.SlotsChanged, 28)

	rec, ok := store.Day("2026-09", "DXB", "Tourist", "2026-09-10")
	require.True(t, ok)
	require.Equal(t, availability.DayAvailable, rec.Status)
	require.Equal(t, ev.SlotsChanged, rec.AvailableSlots())
}

func TestSuppressBooksOutAvailableDay(t *testing.T) {
	e, store := newTestEngine(t, 3)
	seedDay(t, store, "2026-09-11", availability.DayAvailable, availability.SlotAvailable)

	ev := e.apply(KindSuppress)
	require.False(t, ev.NoOp)
	require.Equal(t, 40, ev.SlotsChanged)

	rec, ok := store.Day("2026-09", "DXB", "Tourist", "2026-09-11")
	require.True(t, ok)
	require.Contains(t, []availability.DayStatus{availability.DayNA, availability.DayFull}, rec.Status)
	require.Zero(t, rec.AvailableSlots())
}

func TestSuppressWithoutEligibleDayIsNoOp(t *testing.T) {
	e, store := newTestEngine(t, 4)
	seedDay(t, store, "2026-09-12", availability.DayNA, availability.SlotBooked)

	ev := e.apply(KindSuppress)
	require.True(t, ev.NoOp)
	require.Zero(t, ev.SlotsChanged)
}

func TestWipeBooksEverything(t *testing.T) {
	e, store := newTestEngine(t, 5)
	seedDay(t, store, "2026-09-13", availability.DayAvailable, availability.SlotAvailable)

	ev := e.apply(KindWipe)
	require.False(t, ev.NoOp)
	require.Equal(t, 40, ev.SlotsChanged)

	rec, ok := store.Day("2026-09", "DXB", "Tourist", "2026-09-13")
	require.True(t, ok)
	require.Equal(t, availability.DayNA, rec.Status)
	require.Zero(t, rec.AvailableSlots())
}

func TestRestoreReopensClosedDay(t *testing.T) {
	e, store := newTestEngine(t, 6)
	seedDay(t, store, "2026-09-14", availability.DayFull, availability.SlotBooked)

	ev := e.apply(KindRestore)
	require.False(t, ev.NoOp)

	// 50-70% of 40 slots.
	require.GreaterOrEqual(t, ev.SlotsChanged, 20)
	require.LessOrEqual(t, ev.SlotsChanged, 28)

	rec, ok := store.Day("2026-09", "DXB", "Tourist", "2026-09-14")
	require.True(t, ok)
	require.Equal(t, availability.DayAvailable, rec.Status)
}

func TestRestoreWithoutEligibleDayIsNoOp(t *testing.T) {
	e, store := newTestEngine(t, 7)
	seedDay(t, store, "2026-09-15", availability.DayAvailable, availability.SlotAvailable)

	ev := e.apply(KindRestore)
	require.True(t, ev.NoOp)
}

func TestKindDistribution(t *testing.T) {
	e, _ := newTestEngine(t, 8)

	const trials = 20000
	counts := map[Kind]int{}
	for i := 0; i < trials; i++ {
		counts[e.pickKind()]++
	}

	require.InDelta(t, 0.35, float64(counts[KindActivate])/trials, 0.02)
	require.InDelta(t, 0.30, float64(counts[KindSuppress])/trials, 0.02)
	require.InDelta(t, 0.10, float64(counts[KindWipe])/trials, 0.02)
	require.InDelta(t, 0.25, float64(counts[KindRestore])/trials, 0.02)
}

// A day must never settle as available with every slot booked after a
// completed step, whatever the drawn kind.
func TestStepPreservesDayInvariant(t *testing.T) {
	e, store := newTestEngine(t, 9)
	seedDay(t, store, "2026-09-16", availability.DayNA, availability.SlotBooked)
	seedDay(t, store, "2026-09-17", availability.DayAvailable, availability.SlotAvailable)

	for i := 0; i < 200; i++ {
		e.Step()
		for _, date := range store.Dates("2026-09", "DXB", "Tourist") {
			rec, ok := store.Day("2026-09", "DXB", "Tourist", date)
			require.True(t, ok)
			if rec.Status == availability.DayAvailable {
				require.Greater(t, rec.AvailableSlots(), 0,
					"day %s available with all slots booked after step %d", date, i)
			}
		}
	}
}

func TestRunStopsOnContextCancel(t *testing.T) {
	e, _ := newTestEngine(t, 10)
	e.initialMin, e.initialMax = time.Millisecond, 2*time.Millisecond
	e.recurringMin, e.recurringMax = time.Millisecond, 2*time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		e.Run(ctx)
		close(done)
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("engine did not stop")
	}

	_, ok := e.LastEvent()
	require.True(t, ok, "loop should have produced at least one event")
}
