// Package balancecache keeps the last known ledger balance of every observed account and
// notifies registered listeners when a balance changes.
package balancecache

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/rs/zerolog"

	"github.com/go-petr/coincard/internal/domain"
	"github.com/go-petr/coincard/pkg/amountpkg"
	"github.com/go-petr/coincard/pkg/metricspkg"
)

// Ledger provides the remote calls needed by the cache.
//
//go:generate mockgen -source cache.go -destination cache_mock.go -package balancecache
type Ledger interface {
	Transfer(ctx context.Context, fromAccount, toAccount string, amount float64) domain.TransferResult
	GetBalance(ctx context.Context, account string) domain.BalanceResult
}

// Change describes a balance movement observed by the cache.
type Change = domain.BalanceChange

// Listener is notified of balance changes of one account.
type Listener func(Change)

// ListenerID identifies a registered listener.
type ListenerID uint64

// BalanceCallback receives the outcome of an asynchronous balance lookup.
type BalanceCallback func(value float64, err error)

// TransferCallback receives the outcome of an asynchronous transfer.
type TransferCallback func(res domain.TransferResult, err error)

type entry struct {
	value       float64
	lastUpdated time.Time
	// deltaSeq is the sequence number of the last optimistic delta applied to value.
	deltaSeq uint64
}

type registration struct {
	id ListenerID
	fn Listener
}

// Cache is the balance cache and notification hub. Balances and listeners are guarded by
// separate locks.
type Cache struct {
	ledger Ledger
	logger zerolog.Logger
	now    func() time.Time

	balMu    sync.RWMutex
	balances map[string]*entry

	lisMu     sync.RWMutex
	listeners map[string][]registration

	seq    atomic.Uint64
	nextID atomic.Uint64
	closed atomic.Bool

	stop     chan struct{}
	stopOnce sync.Once
}

// New returns an empty Cache backed by ledger.
func New(ledger Ledger, logger zerolog.Logger) *Cache {
	return &Cache{
		ledger:    ledger,
		logger:    logger.With().Str("component", "balancecache").Logger(),
		now:       time.Now,
		balances:  make(map[string]*entry),
		listeners: make(map[string][]registration),
		stop:      make(chan struct{}),
	}
}

// Cached returns the last known balance of account without calling the ledger.
func (c *Cache) Cached(account string) (domain.CachedBalance, bool) {
	c.balMu.RLock()
	defer c.balMu.RUnlock()

	e, ok := c.balances[account]
	if !ok {
		return domain.CachedBalance{}, false
	}

	return domain.CachedBalance{Account: account, Value: e.value, LastUpdated: e.lastUpdated}, true
}

// GetBalance fetches the live balance of account and stores it as authoritative.
func (c *Cache) GetBalance(ctx context.Context, account string) (float64, error) {
	return c.refresh(ctx, account)
}

// GetBalanceAsync is GetBalance off the calling goroutine. callback may be nil.
//
// Both forms return the value the ledger reported, even when that read is older than an
// optimistic delta and therefore not stored.
func (c *Cache) GetBalanceAsync(account string, callback BalanceCallback) {
	go func() {
		v, err := c.refresh(context.Background(), account)
		if callback != nil {
			callback(v, err)
		}
	}()
}

func (c *Cache) refresh(ctx context.Context, account string) (float64, error) {
	if account == "" {
		return 0, domain.ErrInvalidAccount
	}

	if c.closed.Load() {
		return 0, domain.ErrShutdown
	}

	issued := c.seq.Add(1)

	res := c.ledger.GetBalance(ctx, account)

	if c.closed.Load() {
		return 0, domain.ErrShutdown
	}

	if !res.Success || !res.HasCoins {
		if res.Error == domain.ErrLedgerUnavailable.Error() {
			return 0, domain.ErrLedgerUnavailable
		}

		return 0, fmt.Errorf("%w: %s", domain.ErrBalanceUnavailable, res.Error)
	}

	value, change, changed := c.store(account, res.Coins, issued)
	if changed {
		c.notify(change)
	}

	return value, nil
}

// store records an authoritative read issued at sequence issued. A read that was issued
// before the latest optimistic delta on the account is stale and leaves the entry alone;
// value is still handed back to the caller.
func (c *Cache) store(account string, value float64, issued uint64) (float64, Change, bool) {
	c.balMu.Lock()
	defer c.balMu.Unlock()

	e, ok := c.balances[account]
	if !ok {
		c.balances[account] = &entry{value: value, lastUpdated: c.now()}
		return value, Change{}, false
	}

	if e.deltaSeq > issued {
		c.logger.Debug().Str("account", account).Msg("discarding stale balance read")
		return value, Change{}, false
	}

	old := e.value
	e.value = value
	e.lastUpdated = c.now()

	return value, Change{Account: account, Old: old, New: value}, old != value
}

// applyDelta adjusts the cached balance of account relative to its last value. Accounts
// without a cached baseline are refreshed instead.
func (c *Cache) applyDelta(account string, delta float64) {
	c.balMu.Lock()

	e, ok := c.balances[account]
	if !ok {
		c.balMu.Unlock()
		c.GetBalanceAsync(account, nil)

		return
	}

	old := e.value
	e.value = amountpkg.Add(old, delta)
	e.lastUpdated = c.now()
	e.deltaSeq = c.seq.Add(1)
	change := Change{Account: account, Old: old, New: e.value}

	c.balMu.Unlock()

	if change.Old != change.New {
		c.notify(change)
	}
}

// TransferSync validates the request, submits it to the ledger and, on success, applies
// the amount to both cached balances.
func (c *Cache) TransferSync(ctx context.Context, from, to string, amount float64) (domain.TransferResult, error) {
	if from == "" {
		return domain.TransferResult{}, domain.ErrInvalidAccount
	}

	return c.TransferByCard(ctx, from, from, to, amount)
}

// TransferByCard is TransferSync for a transfer authorized by card. The ledger debits the
// account behind card; from names that account for the cache and may be empty when it is
// not known, in which case only the recipient gets a delta.
func (c *Cache) TransferByCard(ctx context.Context, card, from, to string, amount float64) (domain.TransferResult, error) {
	if card == "" || to == "" {
		return domain.TransferResult{}, domain.ErrInvalidAccount
	}

	amount, err := amountpkg.Positive(amount, domain.CoinScale)
	if err != nil {
		return domain.TransferResult{}, domain.ErrNegativeAmount
	}

	if c.closed.Load() {
		return domain.TransferResult{}, domain.ErrShutdown
	}

	res := c.ledger.Transfer(ctx, card, to, amount)
	if !res.Success {
		return res, failureReason(res)
	}

	if c.closed.Load() {
		return res, nil
	}

	if from != "" {
		c.applyDelta(from, -amount)
	}

	c.applyDelta(to, amount)

	return res, nil
}

// Transfer is TransferSync off the calling goroutine. callback may be nil.
func (c *Cache) Transfer(from, to string, amount float64, callback TransferCallback) {
	go func() {
		res, err := c.TransferSync(context.Background(), from, to, amount)
		if callback != nil {
			callback(res, err)
		}
	}()
}

func failureReason(res domain.TransferResult) error {
	if res.Raw == "" {
		return domain.ErrLedgerUnavailable
	}

	for _, key := range []string{"error", "message"} {
		if v := jsoniter.Get([]byte(res.Raw), key); v.ValueType() == jsoniter.StringValue && v.ToString() != "" {
			return fmt.Errorf("%w: %s", domain.ErrTransferRejected, v.ToString())
		}
	}

	return domain.ErrTransferRejected
}

// AddListener registers fn for balance changes of account.
func (c *Cache) AddListener(account string, fn Listener) ListenerID {
	id := ListenerID(c.nextID.Add(1))

	c.lisMu.Lock()
	defer c.lisMu.Unlock()

	c.listeners[account] = append(c.listeners[account], registration{id: id, fn: fn})

	return id
}

// RemoveListener deregisters the listener. Removing the last listener of an account drops
// its listener entry but keeps the cached balance.
func (c *Cache) RemoveListener(account string, id ListenerID) bool {
	c.lisMu.Lock()
	defer c.lisMu.Unlock()

	regs := c.listeners[account]
	for i, r := range regs {
		if r.id != id {
			continue
		}

		next := make([]registration, 0, len(regs)-1)
		next = append(next, regs[:i]...)
		next = append(next, regs[i+1:]...)

		if len(next) == 0 {
			delete(c.listeners, account)
		} else {
			c.listeners[account] = next
		}

		return true
	}

	return false
}

// MonitoredAccounts returns the accounts with at least one listener.
func (c *Cache) MonitoredAccounts() []string {
	c.lisMu.RLock()
	defer c.lisMu.RUnlock()

	accounts := make([]string, 0, len(c.listeners))
	for a := range c.listeners {
		accounts = append(accounts, a)
	}

	return accounts
}

func (c *Cache) notify(change Change) {
	c.lisMu.RLock()
	regs := append([]registration(nil), c.listeners[change.Account]...)
	c.lisMu.RUnlock()

	for _, r := range regs {
		c.invoke(r, change)
	}
}

func (c *Cache) invoke(r registration, change Change) {
	defer func() {
		if p := recover(); p != nil {
			metricspkg.ListenerPanics.Inc()
			c.logger.Error().
				Str("account", change.Account).
				Uint64("listener", uint64(r.id)).
				Msgf("balance listener panicked: %v", p)
		}
	}()

	r.fn(change)
}

// PollOnce refreshes every monitored account concurrently and waits for the lookups.
func (c *Cache) PollOnce(ctx context.Context) {
	accounts := c.MonitoredAccounts()
	if len(accounts) == 0 {
		return
	}

	var wg sync.WaitGroup

	for _, account := range accounts {
		wg.Add(1)

		go func(account string) {
			defer wg.Done()

			if _, err := c.refresh(ctx, account); err != nil && !errors.Is(err, domain.ErrShutdown) {
				c.logger.Debug().Err(err).Str("account", account).Msg("poll refresh failed")
			}
		}(account)
	}

	wg.Wait()
}

// RunPoll re-queries monitored accounts every interval until ctx is done or the cache is
// shut down.
func (c *Cache) RunPoll(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-c.stop:
			return
		case <-ticker.C:
			c.PollOnce(ctx)
		}
	}
}

// Shutdown halts the poll, clears listeners and balances, and discards results of lookups
// still in flight.
func (c *Cache) Shutdown() {
	c.closed.Store(true)
	c.stopOnce.Do(func() { close(c.stop) })

	c.lisMu.Lock()
	c.listeners = make(map[string][]registration)
	c.lisMu.Unlock()

	c.balMu.Lock()
	c.balances = make(map[string]*entry)
	c.balMu.Unlock()
}
