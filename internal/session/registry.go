package session

import (
	"context"
	"time"

	"github.com/educypnishi/embassydemo/internal/simrand"
)

const (
	// TTL is the hard session ceiling, surfaced to clients as
	// expiresIn/timeRemaining in seconds.
	TTL = 420 * time.Second

	// EarlyExpiryChance is rolled on every validity probe, independently
	// of the TTL, to simulate flaky session infrastructure. Checking per
	// probe rather than once at creation spreads drops across a client's
	// lifetime instead of concentrating them at login.
	EarlyExpiryChance = 0.04
)

// Registry owns session lifecycle: creation, validity evaluation and
// destruction. A session found invalid by either the TTL or the random
// early-expiry roll is evicted on the spot and never revalidated.
type Registry struct {
	store Store
	rng   *simrand.Rand

	ttl         time.Duration
	earlyChance float64
	now         func() time.Time
}

func NewRegistry(store Store, rng *simrand.Rand) *Registry {
	return &Registry{
		store:       store,
		rng:         rng,
		ttl:         TTL,
		earlyChance: EarlyExpiryChance,
		now:         time.Now,
	}
}

// SetEarlyExpiryChance overrides the per-probe drop probability.
// Deterministic harnesses set it to 0 or 1.
func (r *Registry) SetEarlyExpiryChance(p float64) {
	r.earlyChance = p
}

// Create records a new session for owner and returns it. Login latency
// is the fault pipeline's concern, not this component's.
func (r *Registry) Create(ctx context.Context, owner string) (Session, error) {
	s := Session{
		Token:     NewToken(),
		Owner:     owner,
		CreatedAt: r.now(),
	}
	if err := r.store.Create(ctx, s); err != nil {
		return Session{}, err
	}
	return s, nil
}

// Validate reports whether token is still live and, when it is, the
// whole seconds it has left. Unknown tokens, tokens past the TTL and
// tokens hit by the early-expiry roll all come back invalid; the latter
// two are evicted so a later probe cannot resurrect them. Backend
// errors count as invalid: the portal would rather drop a session than
// block a request.
func (r *Registry) Validate(ctx context.Context, token string) (remaining int, valid bool) {
	if token == "" {
		return 0, false
	}

	s, err := r.store.Get(ctx, token)
	if err != nil || s == nil {
		return 0, false
	}

	elapsed := r.now().Sub(s.CreatedAt)
	if elapsed > r.ttl {
		_ = r.store.Delete(ctx, token)
		return 0, false
	}

	if r.rng.Float64() < r.earlyChance {
		_ = r.store.Delete(ctx, token)
		return 0, false
	}

	return int((r.ttl - elapsed) / time.Second), true
}

// IsValid is Validate without the countdown.
func (r *Registry) IsValid(ctx context.Context, token string) bool {
	_, ok := r.Validate(ctx, token)
	return ok
}

// Destroy removes token. Destroying an unknown token is a no-op.
func (r *Registry) Destroy(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	return r.store.Delete(ctx, token)
}
