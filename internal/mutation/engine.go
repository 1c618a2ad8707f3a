// Package mutation is the background drift engine: at randomized
// intervals it picks one stored day and perturbs it, simulating the
// organic slot churn of a real booking portal.
package mutation

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/educypnishi/embassydemo/internal/availability"
	"github.com/educypnishi/embassydemo/internal/simrand"
)

type Kind string

const (
	KindActivate Kind = "activate"
	KindSuppress Kind = "suppress"
	KindWipe     Kind = "wipe"
	KindRestore  Kind = "restore"
)

// Event describes one mutation run. A run that found no eligible day
// for its chosen kind still produces an event, with NoOp set and zero
// slots changed; callers polling LastEvent can observe the gap.
type Event struct {
	Timestamp    time.Time `json:"timestamp"`
	Kind         Kind      `json:"kind"`
	Month        string    `json:"month,omitempty"`
	Center       string    `json:"center,omitempty"`
	Type         string    `json:"type,omitempty"`
	Date         string    `json:"date,omitempty"`
	SlotsChanged int       `json:"slotsChanged"`
	NoOp         bool      `json:"noOp"`
}

// Engine runs mutation steps against the availability store. Steps are
// mutually exclusive: the background loop and the manual trigger share
// one lock, so at most one mutation is in flight at a time.
type Engine struct {
	store *availability.Store
	rng   *simrand.Rand
	log   zerolog.Logger

	initialMin, initialMax     time.Duration
	recurringMin, recurringMax time.Duration

	stepMu sync.Mutex

	lastMu  sync.RWMutex
	last    Event
	hasLast bool
}

func New(store *availability.Store, rng *simrand.Rand, log zerolog.Logger) *Engine {
	return &Engine{
		store:        store,
		rng:          rng,
		log:          log,
		initialMin:   15 * time.Second,
		initialMax:   30 * time.Second,
		recurringMin: 30 * time.Second,
		recurringMax: 60 * time.Second,
	}
}

// Run loops until ctx is done: a 15-30s initial wait, then one step
// every 30-60s.
func (e *Engine) Run(ctx context.Context) {
	wait := e.rng.DurationBetween(e.initialMin, e.initialMax)
	for {
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}

		ev := e.Step()
		e.log.Info().
			Str("kind", string(ev.Kind)).
			Str("date", ev.Date).
			Int("slots_changed", ev.SlotsChanged).
			Bool("noop", ev.NoOp).
			Msg("mutation step")

		wait = e.rng.DurationBetween(e.recurringMin, e.recurringMax)
	}
}

// Step performs exactly one mutation and records it as the last event.
func (e *Engine) Step() Event {
	e.stepMu.Lock()
	defer e.stepMu.Unlock()

	ev := e.apply(e.pickKind())
	ev.Timestamp = time.Now()

	e.lastMu.Lock()
	e.last = ev
	e.hasLast = true
	e.lastMu.Unlock()

	return ev
}

// LastEvent returns the most recent event, no-ops included.
func (e *Engine) LastEvent() (Event, bool) {
	e.lastMu.RLock()
	defer e.lastMu.RUnlock()
	return e.last, e.hasLast
}

// pickKind draws the mutation kind: activate 35%, suppress 30%,
// wipe 10%, restore 25%.
func (e *Engine) pickKind() Kind {
	r := e.rng.Float64()
	switch {
	case r < 0.35:
		return KindActivate
	case r < 0.65:
		return KindSuppress
	case r < 0.75:
		return KindWipe
	default:
		return KindRestore
	}
}

// pickTuple chooses a random populated (month, center, type) holding at
// least the table levels; ok is false on an empty store.
func (e *Engine) pickTuple() (month, center, typ string, ok bool) {
	months := e.store.Months()
	if len(months) == 0 {
		return "", "", "", false
	}
	month = months[e.rng.Intn(len(months))]

	centers := e.store.Centers(month)
	if len(centers) == 0 {
		return "", "", "", false
	}
	center = centers[e.rng.Intn(len(centers))]

	types := e.store.Types(month, center)
	if len(types) == 0 {
		return "", "", "", false
	}
	typ = types[e.rng.Intn(len(types))]
	return month, center, typ, true
}

func (e *Engine) apply(kind Kind) Event {
	ev := Event{Kind: kind, NoOp: true}

	month, center, typ, ok := e.pickTuple()
	if !ok {
		return ev
	}
	ev.Month, ev.Center, ev.Type = month, center, typ

	dates := e.store.Dates(month, center, typ)
	if len(dates) == 0 {
		return ev
	}

	switch kind {
	case KindActivate:
		return e.activate(ev, dates)
	case KindSuppress:
		return e.suppress(ev, dates)
	case KindWipe:
		return e.wipe(ev, dates)
	case KindRestore:
		return e.restore(ev, dates)
	}
	return ev
}

// activate opens 30-70% of a random day's closed slots, in time order,
// and marks the day available when anything opened.
func (e *Engine) activate(ev Event, dates []string) Event {
	date := dates[e.rng.Intn(len(dates))]
	rec, ok := e.store.Day(ev.Month, ev.Center, ev.Type, date)
	if !ok {
		return ev
	}

	var closed []string
	for _, t := range rec.Times() {
		if rec.Slots[t] != availability.SlotAvailable {
			closed = append(closed, t)
		}
	}

	count := int(float64(len(closed)) * e.rng.Between(0.3, 0.7))
	for i := 0; i < count; i++ {
		rec.Slots[closed[i]] = availability.SlotAvailable
	}

	if count > 0 {
		rec.Status = availability.DayAvailable
		if err := e.store.ReplaceDay(ev.Month, ev.Center, ev.Type, date, rec); err != nil {
			e.log.Error().Err(err).Msg("activate mutation not persisted")
			return ev
		}
		ev.Date, ev.SlotsChanged, ev.NoOp = date, count, false
	}
	return ev
}

// suppress books out every open slot of a random available day and
// closes it as na or full, 50/50.
func (e *Engine) suppress(ev Event, dates []string) Event {
	eligible := e.datesWithStatus(ev, dates, availability.DayAvailable)
	if len(eligible) == 0 {
		return ev
	}

	date := eligible[e.rng.Intn(len(eligible))]
	rec, ok := e.store.Day(ev.Month, ev.Center, ev.Type, date)
	if !ok {
		return ev
	}

	flipped := 0
	for t, s := range rec.Slots {
		if s == availability.SlotAvailable {
			rec.Slots[t] = availability.SlotBooked
			flipped++
		}
	}

	rec.Status = availability.DayNA
	if e.rng.Float64() < 0.5 {
		rec.Status = availability.DayFull
	}

	if err := e.store.ReplaceDay(ev.Month, ev.Center, ev.Type, date, rec); err != nil {
		e.log.Error().Err(err).Msg("suppress mutation not persisted")
		return ev
	}
	ev.Date, ev.SlotsChanged, ev.NoOp = date, flipped, false
	return ev
}

// wipe books out every slot of a random day regardless of state.
func (e *Engine) wipe(ev Event, dates []string) Event {
	date := dates[e.rng.Intn(len(dates))]
	rec, ok := e.store.Day(ev.Month, ev.Center, ev.Type, date)
	if !ok {
		return ev
	}

	for t := range rec.Slots {
		rec.Slots[t] = availability.SlotBooked
	}
	rec.Status = availability.DayNA

	if err := e.store.ReplaceDay(ev.Month, ev.Center, ev.Type, date, rec); err != nil {
		e.log.Error().Err(err).Msg("wipe mutation not persisted")
		return ev
	}
	ev.Date, ev.SlotsChanged, ev.NoOp = date, len(rec.Slots), false
	return ev
}

// restore reopens 50-70% of a closed day's slots, in time order, and
// marks the day available when anything opened.
func (e *Engine) restore(ev Event, dates []string) Event {
	eligible := e.datesWithStatus(ev, dates, availability.DayNA, availability.DayFull)
	if len(eligible) == 0 {
		return ev
	}

	date := eligible[e.rng.Intn(len(eligible))]
	rec, ok := e.store.Day(ev.Month, ev.Center, ev.Type, date)
	if !ok {
		return ev
	}

	times := rec.Times()
	count := int(float64(len(times)) * e.rng.Between(0.5, 0.7))

	opened := 0
	for i := 0; i < count; i++ {
		if rec.Slots[times[i]] != availability.SlotAvailable {
			rec.Slots[times[i]] = availability.SlotAvailable
			opened++
		}
	}

	if opened > 0 {
		rec.Status = availability.DayAvailable
		if err := e.store.ReplaceDay(ev.Month, ev.Center, ev.Type, date, rec); err != nil {
			e.log.Error().Err(err).Msg("restore mutation not persisted")
			return ev
		}
		ev.Date, ev.SlotsChanged, ev.NoOp = date, opened, false
	}
	return ev
}

func (e *Engine) datesWithStatus(ev Event, dates []string, statuses ...availability.DayStatus) []string {
	var out []string
	for _, date := range dates {
		rec, ok := e.store.Day(ev.Month, ev.Center, ev.Type, date)
		if !ok {
			continue
		}
		for _, s := range statuses {
			if rec.Status == s {
				out = append(out, date)
				break
			}
		}
	}
	return out
}
