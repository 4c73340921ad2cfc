package syncclient

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/stargrid/stargrid/internal/localstate"
)

const DefaultCooldown = 30 * time.Second

// Trigger decides when the sync client actually runs: app foreground,
// network restored, a currency-affecting action, or a periodic tick. A
// cooldown bounds server load from a flapping connection, and only one
// attempt runs at a time.
type Trigger struct {
	mu       sync.Mutex
	cooldown time.Duration
	last     time.Time
	inFlight bool

	now    func() time.Time
	store  *localstate.Store
	syncFn func(ctx context.Context) error
}

func NewTrigger(store *localstate.Store, syncFn func(ctx context.Context) error, cooldown time.Duration) *Trigger {
	if cooldown <= 0 {
		cooldown = DefaultCooldown
	}
	return &Trigger{
		cooldown: cooldown,
		now:      time.Now,
		store:    store,
		syncFn:   syncFn,
	}
}

func (t *Trigger) OnForeground(ctx context.Context) bool      { return t.attempt(ctx) }
func (t *Trigger) OnNetworkRestored(ctx context.Context) bool { return t.attempt(ctx) }
func (t *Trigger) OnCurrencyAction(ctx context.Context) bool  { return t.attempt(ctx) }
func (t *Trigger) Tick(ctx context.Context) bool              { return t.attempt(ctx) }

// attempt fires the sync on a goroutine so the caller (usually a gameplay
// callback) never blocks on the network. Failures are logged only; the store
// was untouched, so the next allowed trigger retries the same payload.
func (t *Trigger) attempt(ctx context.Context) bool {
	t.mu.Lock()
	if t.inFlight || !t.store.Dirty() {
		t.mu.Unlock()
		return false
	}
	now := t.now()
	if !t.last.IsZero() && now.Sub(t.last) < t.cooldown {
		t.mu.Unlock()
		return false
	}
	t.last = now
	t.inFlight = true
	t.mu.Unlock()

	// The caller's ctx may be a short-lived UI scope that gets cancelled the
	// moment the callback returns; the sync must outlive it. Values (auth,
	// tracing) are kept, cancellation is not.
	bg := context.WithoutCancel(ctx)
	go func() {
		if err := t.syncFn(bg); err != nil {
			log.Println("sync attempt failed:", err)
		}
		t.mu.Lock()
		t.inFlight = false
		t.mu.Unlock()
	}()
	return true
}
