// Package faults is the request fault-injection pipeline: every route
// pays an artificial base delay and risks a probabilistic short-circuit
// into 429 or 503, with a global heavy-load flag that widens both.
package faults

import (
	"context"
	"net/http"
	"time"

	"github.com/educypnishi/embassydemo/internal/simrand"
)

// Class parameterizes the pipeline per logical route. The structure of
// the decision is identical everywhere; only the numbers differ.
type Class struct {
	Name        string
	MinDelay    time.Duration
	MaxDelay    time.Duration
	ErrorBudget float64 // split evenly between 429 and 503
}

var (
	// Generic covers the raw slot-table routes.
	Generic = Class{Name: "generic", MinDelay: 300 * time.Millisecond, MaxDelay: 1500 * time.Millisecond, ErrorBudget: 0.08}

	// Detail covers day/time-slot detail routes.
	Detail = Class{Name: "detail", MinDelay: 600 * time.Millisecond, MaxDelay: 1400 * time.Millisecond, ErrorBudget: 0.04}

	// Calendar covers month-view routes.
	Calendar = Class{Name: "calendar", MinDelay: 800 * time.Millisecond, MaxDelay: 2000 * time.Millisecond, ErrorBudget: 0.05}

	// Login covers session creation.
	Login = Class{Name: "login", MinDelay: 1000 * time.Millisecond, MaxDelay: 2000 * time.Millisecond, ErrorBudget: 0.04}
)

// Heavy-load overrides, applied to every class while the flag is set.
const (
	heavyMinDelay    = 2000 * time.Millisecond
	heavyMaxDelay    = 3000 * time.Millisecond
	heavyErrorBudget = 0.25
)

// Outcome is the pipeline's verdict for one request. A zero Status
// means proceed; otherwise the request short-circuits with that HTTP
// status. The delay applies either way: faulted responses still feel
// like a server under load.
type Outcome struct {
	Delay  time.Duration
	Status int
}

func (o Outcome) ShortCircuit() bool { return o.Status != 0 }

// Pipeline draws delays and failures for incoming requests. The
// heavy-load flag is read per call so an admin toggle takes effect on
// the very next request.
type Pipeline struct {
	rng   *simrand.Rand
	heavy func() bool
}

func New(rng *simrand.Rand, heavy func() bool) *Pipeline {
	if heavy == nil {
		heavy = func() bool { return false }
	}
	return &Pipeline{rng: rng, heavy: heavy}
}

// Heavy reports the live heavy-load flag.
func (p *Pipeline) Heavy() bool { return p.heavy() }

// Admit decides one request's fate under class.
func (p *Pipeline) Admit(class Class) Outcome {
	minDelay, maxDelay, budget := class.MinDelay, class.MaxDelay, class.ErrorBudget
	if p.heavy() {
		minDelay, maxDelay, budget = heavyMinDelay, heavyMaxDelay, heavyErrorBudget
	}

	out := Outcome{Delay: p.rng.DurationBetween(minDelay, maxDelay)}

	r := p.rng.Float64()
	switch {
	case r < budget/2:
		out.Status = http.StatusTooManyRequests
	case r < budget:
		out.Status = http.StatusServiceUnavailable
	}

	return out
}

// Wait sleeps for d without blocking other requests, abandoning the
// wait when ctx is cancelled (client gone).
func Wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
