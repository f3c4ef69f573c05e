// Package cooldown rate limits user initiated mutations per actor.
package cooldown

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-petr/coincard/pkg/metricspkg"
)

// Gate admits an actor at most once per interval. It never blocks: stamps live in a
// sync.Map and are swapped with compare-and-swap.
type Gate struct {
	interval atomic.Int64
	stamps   sync.Map // actor -> time.Time
	now      func() time.Time
}

// New returns a Gate with the given minimum interval between admitted actions.
func New(interval time.Duration) *Gate {
	g := &Gate{now: time.Now}
	g.interval.Store(int64(interval))

	return g
}

// SetInterval replaces the interval. Existing stamps are kept and judged by the new value.
func (g *Gate) SetInterval(interval time.Duration) {
	g.interval.Store(int64(interval))
}

// CheckAndStamp admits actor and records now as its last action when the actor has no
// record or the cooldown has elapsed. It returns false otherwise.
func (g *Gate) CheckAndStamp(actor string) bool {
	now := g.now()
	interval := time.Duration(g.interval.Load())

	for {
		prev, loaded := g.stamps.LoadOrStore(actor, now)
		if !loaded {
			return true
		}

		if now.Sub(prev.(time.Time)) < interval {
			metricspkg.CooldownRejections.Inc()
			return false
		}

		if g.stamps.CompareAndSwap(actor, prev, now) {
			return true
		}
	}
}

// Remaining returns how long actor has to wait before being admitted again.
func (g *Gate) Remaining(actor string) time.Duration {
	prev, ok := g.stamps.Load(actor)
	if !ok {
		return 0
	}

	left := time.Duration(g.interval.Load()) - g.now().Sub(prev.(time.Time))
	if left < 0 {
		return 0
	}

	return left
}
