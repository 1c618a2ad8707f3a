package faults

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/educypnishi/embassydemo/internal/simrand"
)

func TestAdmitDelayWithinClassRange(t *testing.T) {
	p := New(simrand.New(7), nil)

	for _, class := range []Class{Generic, Detail, Calendar, Login} {
		for i := 0; i < 1000; i++ {
			out := p.Admit(class)
			require.GreaterOrEqual(t, out.Delay, class.MinDelay, class.Name)
			require.Less(t, out.Delay, class.MaxDelay, class.Name)
		}
	}
}

func TestAdmitHeavyLoadRates(t *testing.T) {
	p := New(simrand.New(11), func() bool { return true })

	const trials = 20000
	var faulted, tooMany, unavailable int
	for i := 0; i < trials; i++ {
		out := p.Admit(Generic)
		require.GreaterOrEqual(t, out.Delay, heavyMinDelay)
		require.Less(t, out.Delay, heavyMaxDelay)

		switch out.Status {
		case http.StatusTooManyRequests:
			faulted++
			tooMany++
		case http.StatusServiceUnavailable:
			faulted++
			unavailable++
		case 0:
		default:
			t.Fatalf("unexpected status %d", out.Status)
		}
	}

	rate := float64(faulted) / trials
	require.InDelta(t, heavyErrorBudget, rate, 0.02)

	// The budget splits evenly between the two failure classes.
	require.InDelta(t, float64(tooMany)/trials, float64(unavailable)/trials, 0.02)
}

func TestAdmitNormalLoadRate(t *testing.T) {
	p := New(simrand.New(13), nil)

	const trials = 20000
	faulted := 0
	for i := 0; i < trials; i++ {
		if p.Admit(Generic).ShortCircuit() {
			faulted++
		}
	}

	require.InDelta(t, Generic.ErrorBudget, float64(faulted)/trials, 0.01)
}

func TestHeavyFlagReadPerCall(t *testing.T) {
	heavy := false
	p := New(simrand.New(3), func() bool { return heavy })

	out := p.Admit(Login)
	require.Less(t, out.Delay, heavyMinDelay)

	heavy = true
	out = p.Admit(Login)
	require.GreaterOrEqual(t, out.Delay, heavyMinDelay)
}

func TestWaitHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	start := time.Now()
	err := Wait(ctx, 5*time.Second)
	require.Error(t, err)
	require.Less(t, time.Since(start), time.Second)
}

func TestWaitZeroDelay(t *testing.T) {
	require.NoError(t, Wait(context.Background(), 0))
}
