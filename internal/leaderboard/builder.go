// Package leaderboard builds a ranked, paginated view of every known account balance.
package leaderboard

import (
	"context"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/go-petr/coincard/internal/domain"
	"github.com/go-petr/coincard/pkg/metricspkg"
)

// AccountLister enumerates the account holders to rank.
//
//go:generate mockgen -source builder.go -destination builder_mock.go -package leaderboard
type AccountLister interface {
	AllKnownAccounts(ctx context.Context) ([]domain.KnownAccount, error)
}

// BalanceReader looks up a live ledger balance.
type BalanceReader interface {
	GetBalance(ctx context.Context, account string) domain.BalanceResult
}

// Publisher receives every finished snapshot.
type Publisher interface {
	Publish(ctx context.Context, s Snapshot) error
}

// Options configures a Builder.
type Options struct {
	// TTL is the age after which the snapshot is rebuilt on request.
	TTL time.Duration
	// Stagger is the delay between two consecutive balance lookups of a rebuild.
	Stagger time.Duration
	// PageSize is the number of entries per page.
	PageSize int
}

// DefaultPageSize is used when Options.PageSize is not positive.
const DefaultPageSize = 10

// Snapshot is one complete leaderboard build.
type Snapshot struct {
	Entries       []domain.LeaderboardEntry `json:"entries"`
	TotalBalance  float64                   `json:"total_balance"`
	TotalAccounts int                       `json:"total_accounts"`
	BuiltAt       time.Time                 `json:"built_at"`
}

type state struct {
	pages         map[int][]domain.LeaderboardEntry
	totalPages    int
	totalBalance  float64
	totalAccounts int
	builtAt       time.Time
}

// Builder rebuilds the leaderboard on a TTL. Only one rebuild runs at a time.
type Builder struct {
	store     AccountLister
	ledger    BalanceReader
	publisher Publisher
	opts      Options
	logger    zerolog.Logger
	now       func() time.Time

	mu    sync.RWMutex
	state *state

	building atomic.Bool

	stop     chan struct{}
	stopOnce sync.Once
}

// New returns a Builder with an empty leaderboard.
func New(store AccountLister, ledger BalanceReader, opts Options, logger zerolog.Logger) *Builder {
	if opts.PageSize <= 0 {
		opts.PageSize = DefaultPageSize
	}

	return &Builder{
		store:  store,
		ledger: ledger,
		opts:   opts,
		logger: logger.With().Str("component", "leaderboard").Logger(),
		now:    time.Now,
		stop:   make(chan struct{}),
	}
}

// WithPublisher makes the builder hand every finished snapshot to p.
func (b *Builder) WithPublisher(p Publisher) *Builder {
	b.publisher = p
	return b
}

// RequestPage returns page number (1-based). An empty or expired leaderboard is rebuilt
// first and the call waits for the rebuild. While a rebuild is running other callers get
// domain.ErrBuildInProgress.
func (b *Builder) RequestPage(ctx context.Context, number int) (domain.LeaderboardPage, error) {
	if number < 1 {
		return domain.LeaderboardPage{}, domain.ErrPageNotFound
	}

	if b.stale() {
		done, ok := b.start()
		if !ok {
			return domain.LeaderboardPage{}, domain.ErrBuildInProgress
		}

		select {
		case <-done:
		case <-ctx.Done():
			return domain.LeaderboardPage{}, ctx.Err()
		}
	}

	return b.page(number)
}

func (b *Builder) stale() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()

	return b.state == nil || b.now().Sub(b.state.builtAt) >= b.opts.TTL
}

// Rebuild runs a rebuild now and waits for it. It returns domain.ErrBuildInProgress when
// one is already running.
func (b *Builder) Rebuild(ctx context.Context) error {
	done, ok := b.start()
	if !ok {
		return domain.ErrBuildInProgress
	}

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Building reports whether a rebuild is running.
func (b *Builder) Building() bool {
	return b.building.Load()
}

func (b *Builder) start() (<-chan struct{}, bool) {
	if !b.building.CompareAndSwap(false, true) {
		return nil, false
	}

	done := make(chan struct{})
	go b.build(done)

	return done, true
}

func (b *Builder) build(done chan struct{}) {
	defer close(done)
	defer b.building.Store(false)

	ctx := context.Background()
	start := b.now()

	accounts, err := b.store.AllKnownAccounts(ctx)
	if err != nil {
		b.logger.Error().Err(err).Msg("cannot enumerate accounts")
		metricspkg.LeaderboardBuilds.WithLabelValues(metricspkg.OutcomeError).Inc()

		return
	}

	resolved := b.lookup(ctx, accounts)

	snap := b.assemble(resolved)
	b.swap(snap)

	metricspkg.LeaderboardBuilds.WithLabelValues(metricspkg.OutcomeOK).Inc()
	metricspkg.LeaderboardAccounts.Set(float64(snap.TotalAccounts))

	b.logger.Info().
		Int("candidates", len(accounts)).
		Int("ranked", snap.TotalAccounts).
		Dur("took", b.now().Sub(start)).
		Msg("leaderboard rebuilt")

	if b.publisher != nil {
		if err := b.publisher.Publish(ctx, snap); err != nil {
			b.logger.Warn().Err(err).Msg("cannot publish leaderboard snapshot")
		}
	}
}

// lookup resolves every account balance. Lookup i starts i*Stagger after the first one;
// the build is complete when the shared counter reaches len(accounts).
func (b *Builder) lookup(ctx context.Context, accounts []domain.KnownAccount) []*domain.LeaderboardEntry {
	n := len(accounts)
	results := make([]*domain.LeaderboardEntry, n)

	if n == 0 {
		return results
	}

	var completed atomic.Int64

	finished := make(chan struct{})

	for i, acc := range accounts {
		i, acc := i, acc

		time.AfterFunc(time.Duration(i)*b.opts.Stagger, func() {
			defer func() {
				if completed.Add(1) == int64(n) {
					close(finished)
				}
			}()

			select {
			case <-b.stop:
				return
			default:
			}

			res := b.ledger.GetBalance(ctx, acc.Account)
			if !res.Success || !res.HasCoins {
				b.logger.Debug().Str("account", acc.Account).Str("error", res.Error).Msg("excluding unreachable account")
				return
			}

			results[i] = &domain.LeaderboardEntry{
				DisplayName: acc.DisplayName,
				Balance:     res.Coins,
				Account:     acc.Account,
			}
		})
	}

	<-finished

	return results
}

func (b *Builder) assemble(resolved []*domain.LeaderboardEntry) Snapshot {
	entries := make([]domain.LeaderboardEntry, 0, len(resolved))
	total := decimal.Zero

	for _, e := range resolved {
		if e == nil {
			continue
		}

		entries = append(entries, *e)
		total = total.Add(decimal.NewFromFloat(e.Balance))
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Balance > entries[j].Balance
	})

	sum, _ := total.Float64()

	return Snapshot{
		Entries:       entries,
		TotalBalance:  sum,
		TotalAccounts: len(entries),
		BuiltAt:       b.now(),
	}
}

func (b *Builder) swap(snap Snapshot) {
	size := b.opts.PageSize

	st := &state{
		pages:         make(map[int][]domain.LeaderboardEntry),
		totalBalance:  snap.TotalBalance,
		totalAccounts: snap.TotalAccounts,
		builtAt:       snap.BuiltAt,
	}

	for i := 0; i < len(snap.Entries); i += size {
		end := i + size
		if end > len(snap.Entries) {
			end = len(snap.Entries)
		}

		st.totalPages++
		st.pages[st.totalPages] = snap.Entries[i:end]
	}

	b.mu.Lock()
	b.state = st
	b.mu.Unlock()
}

func (b *Builder) page(number int) (domain.LeaderboardPage, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	st := b.state
	if st == nil {
		return domain.LeaderboardPage{}, domain.ErrLeaderboardUnavailable
	}

	p := domain.LeaderboardPage{
		Number:        number,
		TotalPages:    st.totalPages,
		TotalBalance:  st.totalBalance,
		TotalAccounts: st.totalAccounts,
		BuiltAt:       st.builtAt,
	}

	entries, ok := st.pages[number]
	if !ok {
		if number == 1 && st.totalPages == 0 {
			p.Entries = []domain.LeaderboardEntry{}
			return p, nil
		}

		return p, domain.ErrPageNotFound
	}

	p.Entries = append([]domain.LeaderboardEntry(nil), entries...)

	return p, nil
}

// Rank returns the 1-based global position of account in the current leaderboard.
func (b *Builder) Rank(account string) (int, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	st := b.state
	if st == nil {
		return 0, domain.ErrNotRanked
	}

	for p := 1; p <= st.totalPages; p++ {
		for k, e := range st.pages[p] {
			if e.Account == account {
				return b.opts.PageSize*(p-1) + k + 1, nil
			}
		}
	}

	return 0, domain.ErrNotRanked
}

// Shutdown makes lookups of a running rebuild finish without calling the ledger.
func (b *Builder) Shutdown() {
	b.stopOnce.Do(func() { close(b.stop) })
}
