// Package exchange manages business logic of coin payments and coin/vault conversions.
package exchange

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/go-petr/coincard/internal/balancecache"
	"github.com/go-petr/coincard/internal/domain"
	"github.com/go-petr/coincard/internal/taskqueue"
	"github.com/go-petr/coincard/pkg/amountpkg"
	"github.com/go-petr/coincard/pkg/errorspkg"
)

// Store provides the identity mapping needed by the exchange.
//
//go:generate mockgen -source service.go -destination service_mock.go -package exchange
type Store interface {
	Get(ctx context.Context, id uuid.UUID) (domain.Identity, error)
	Lookup(ctx context.Context, id uuid.UUID) (string, error)
	Resolve(ctx context.Context, nameOrAccount string) (string, error)
	SetNick(ctx context.Context, id uuid.UUID, nick string) error
	SetID(ctx context.Context, id uuid.UUID, account string) error
	SetCard(ctx context.Context, id uuid.UUID, card string) error
}

// Ledger is the cached view of the remote ledger.
type Ledger interface {
	TransferByCard(ctx context.Context, card, from, to string, amount float64) (domain.TransferResult, error)
	GetBalance(ctx context.Context, account string) (float64, error)
	GetBalanceAsync(account string, callback balancecache.BalanceCallback)
	Cached(account string) (domain.CachedBalance, bool)
	AddListener(account string, fn balancecache.Listener) balancecache.ListenerID
	RemoveListener(account string, id balancecache.ListenerID) bool
}

// Treasury holds the local vault balances.
type Treasury interface {
	Balance(ctx context.Context, identity uuid.UUID) (string, error)
	Transfer(ctx context.Context, from, to uuid.UUID, amount string) error
}

// Queue serializes ledger mutations.
type Queue interface {
	Enqueue(task taskqueue.Task) error
}

// Gate rate limits actors.
type Gate interface {
	CheckAndStamp(actor string) bool
	Remaining(actor string) time.Duration
}

// Options holds the server accounts and conversion rates.
//
// ServerLedgerID is the public account of the server and receives bought coins.
// ServerCard spends from it for sells and server payments.
type Options struct {
	ServerIdentity uuid.UUID
	ServerLedgerID string
	ServerCard     string
	BuyRate        float64
	SellRate       float64
}

// Service facilitates exchange service layer logic.
type Service struct {
	store    Store
	ledger   Ledger
	treasury Treasury
	queue    Queue
	gate     Gate

	mu   sync.RWMutex
	opts Options
}

// New returns exchange service struct to manage coin business logic.
func New(store Store, ledger Ledger, treasury Treasury, queue Queue, gate Gate, opts Options) *Service {
	return &Service{
		store:    store,
		ledger:   ledger,
		treasury: treasury,
		queue:    queue,
		gate:     gate,
		opts:     opts,
	}
}

// SetOptions replaces the server accounts and rates. Operations already admitted keep the
// values they started with.
func (s *Service) SetOptions(opts Options) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.opts = opts
}

func (s *Service) options() Options {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.opts
}

func parseAmount(s string, scale int32) (float64, error) {
	v, err := amountpkg.Parse(s, scale)
	switch {
	case errors.Is(err, amountpkg.ErrInvalidAmount):
		return 0, domain.ErrInvalidAmount
	case err != nil:
		return 0, domain.ErrNegativeAmount
	}

	return v, nil
}

func (s *Service) admit(ctx context.Context, actor uuid.UUID) error {
	if s.gate.CheckAndStamp(actor.String()) {
		return nil
	}

	wait := s.gate.Remaining(actor.String())
	zerolog.Ctx(ctx).Info().Str("actor", actor.String()).Dur("wait", wait).Msg("cooldown")

	return fmt.Errorf("%w: retry in %s", domain.ErrCooldown, wait.Round(time.Millisecond))
}

// spender returns the identity of actor, which must hold a card.
func (s *Service) spender(ctx context.Context, actor uuid.UUID) (domain.Identity, error) {
	ident, err := s.store.Get(ctx, actor)
	if err != nil {
		return domain.Identity{}, err
	}

	if ident.Card == "" {
		return domain.Identity{}, domain.ErrCardNotSet
	}

	return ident, nil
}

type outcome struct {
	receipt domain.Receipt
	err     error
}

// submit runs fn on the task queue and waits for its outcome or ctx.
func (s *Service) submit(ctx context.Context, fn func(ctx context.Context) (domain.Receipt, error)) (domain.Receipt, error) {
	taskCtx := context.WithoutCancel(ctx)
	out := make(chan outcome, 1)

	err := s.queue.Enqueue(func() error {
		r, err := fn(taskCtx)
		out <- outcome{receipt: r, err: err}

		return err
	})
	if err != nil {
		return domain.Receipt{}, err
	}

	select {
	case o := <-out:
		return o.receipt, o.err
	case <-ctx.Done():
		return domain.Receipt{}, ctx.Err()
	}
}

func (s *Service) register(ctx context.Context, id uuid.UUID, nick, value string,
	set func(ctx context.Context, id uuid.UUID, value string) error,
) (domain.Identity, error) {
	l := zerolog.Ctx(ctx)

	if value == "" {
		return domain.Identity{}, domain.ErrInvalidAccount
	}

	if nick != "" {
		if err := s.store.SetNick(ctx, id, nick); err != nil {
			l.Error().Err(err).Send()
			return domain.Identity{}, errorspkg.ErrInternal
		}
	}

	if err := set(ctx, id, value); err != nil {
		l.Error().Err(err).Send()
		return domain.Identity{}, errorspkg.ErrInternal
	}

	return s.store.Get(ctx, id)
}

// RegisterAccount stores the nick and the public ledger account id of the identity.
func (s *Service) RegisterAccount(ctx context.Context, id uuid.UUID, nick, account string) (domain.Identity, error) {
	return s.register(ctx, id, nick, account, s.store.SetID)
}

// RegisterCard stores the nick and the spend card of the identity.
func (s *Service) RegisterCard(ctx context.Context, id uuid.UUID, nick, card string) (domain.Identity, error) {
	return s.register(ctx, id, nick, card, s.store.SetCard)
}

// Balance returns the live coin balance and the vault balance of the identity.
func (s *Service) Balance(ctx context.Context, id uuid.UUID) (domain.Holdings, error) {
	account, err := s.store.Lookup(ctx, id)
	if err != nil {
		return domain.Holdings{}, err
	}

	coins, err := s.ledger.GetBalance(ctx, account)
	if err != nil {
		return domain.Holdings{}, err
	}

	vault, err := s.treasury.Balance(ctx, id)
	if err != nil {
		return domain.Holdings{}, err
	}

	return domain.Holdings{Account: account, Coins: coins, Vault: vault}, nil
}

// AccountBalance fetches the live balance of a nick or account reference.
func (s *Service) AccountBalance(ctx context.Context, nameOrAccount string) (domain.CachedBalance, error) {
	account, err := s.store.Resolve(ctx, nameOrAccount)
	if err != nil {
		return domain.CachedBalance{}, err
	}

	if _, err := s.ledger.GetBalance(ctx, account); err != nil {
		return domain.CachedBalance{}, err
	}

	cached, ok := s.ledger.Cached(account)
	if !ok {
		return domain.CachedBalance{}, domain.ErrBalanceUnavailable
	}

	return cached, nil
}

// Watch resolves nameOrAccount and delivers its balance changes to fn until stop is
// called. The current balance is delivered once as a change with Old equal to New.
func (s *Service) Watch(ctx context.Context, nameOrAccount string, fn func(domain.BalanceChange)) (string, func(), error) {
	account, err := s.store.Resolve(ctx, nameOrAccount)
	if err != nil {
		return "", nil, err
	}

	l := zerolog.Ctx(ctx).With().Str("account", account).Logger()

	id := s.ledger.AddListener(account, fn)

	s.ledger.GetBalanceAsync(account, func(v float64, err error) {
		if err != nil {
			l.Debug().Err(err).Msg("watch: initial balance")
			return
		}

		fn(domain.BalanceChange{Account: account, Old: v, New: v})
	})

	var once sync.Once

	stop := func() {
		once.Do(func() { s.ledger.RemoveListener(account, id) })
	}

	return account, stop, nil
}

// Pay sends amount coins from the actor's card to a nick or account reference.
func (s *Service) Pay(ctx context.Context, actor uuid.UUID, to, amount string) (domain.Receipt, error) {
	if err := s.admit(ctx, actor); err != nil {
		return domain.Receipt{}, err
	}

	from, err := s.spender(ctx, actor)
	if err != nil {
		return domain.Receipt{}, err
	}

	target, err := s.store.Resolve(ctx, to)
	if err != nil {
		return domain.Receipt{}, err
	}

	coins, err := parseAmount(amount, domain.CoinScale)
	if err != nil {
		return domain.Receipt{}, err
	}

	return s.submit(ctx, func(ctx context.Context) (domain.Receipt, error) {
		res, err := s.ledger.TransferByCard(ctx, from.Card, from.Account, target, coins)
		if err != nil {
			return domain.Receipt{}, err
		}

		zerolog.Ctx(ctx).Info().
			Str("actor", actor.String()).
			Str("to", target).
			Float64("coins", coins).
			Str("tx", res.TxID).
			Msg("pay")

		return domain.Receipt{Kind: domain.KindPay, Actor: actor.String(), Target: target, Coins: coins, TxID: res.TxID}, nil
	})
}

// Buy converts coins of the actor into vault paid by the server treasury.
func (s *Service) Buy(ctx context.Context, actor uuid.UUID, amount string) (domain.Receipt, error) {
	opts := s.options()

	if err := s.admit(ctx, actor); err != nil {
		return domain.Receipt{}, err
	}

	from, err := s.spender(ctx, actor)
	if err != nil {
		return domain.Receipt{}, err
	}

	if opts.ServerLedgerID == "" || opts.ServerIdentity == uuid.Nil {
		return domain.Receipt{}, domain.ErrServerMisconfigured
	}

	coins, err := parseAmount(amount, domain.CoinScale)
	if err != nil {
		return domain.Receipt{}, err
	}

	vault := amountpkg.Mul(coins, opts.BuyRate, domain.VaultScale)

	if err := s.requireVault(ctx, opts.ServerIdentity, vault, domain.ErrLowServerBalance); err != nil {
		return domain.Receipt{}, err
	}

	return s.submit(ctx, func(ctx context.Context) (domain.Receipt, error) {
		// tasks drained before this one may have spent the server vault
		if err := s.requireVault(ctx, opts.ServerIdentity, vault, domain.ErrLowServerBalance); err != nil {
			return domain.Receipt{}, err
		}

		res, err := s.ledger.TransferByCard(ctx, from.Card, from.Account, opts.ServerLedgerID, coins)
		if err != nil {
			return domain.Receipt{}, err
		}

		r := domain.Receipt{Kind: domain.KindBuy, Actor: actor.String(), Coins: coins, Vault: vault, TxID: res.TxID}

		if err := s.moveVault(ctx, r, opts.ServerIdentity, actor); err != nil {
			return r, err
		}

		return r, nil
	})
}

// Sell converts vault of the actor into coins paid from the server card to the actor's
// account id.
func (s *Service) Sell(ctx context.Context, actor uuid.UUID, amount string) (domain.Receipt, error) {
	opts := s.options()

	if err := s.admit(ctx, actor); err != nil {
		return domain.Receipt{}, err
	}

	account, err := s.store.Lookup(ctx, actor)
	if err != nil {
		return domain.Receipt{}, err
	}

	if opts.ServerCard == "" || opts.ServerIdentity == uuid.Nil {
		return domain.Receipt{}, domain.ErrServerMisconfigured
	}

	vault, err := parseAmount(amount, domain.VaultScale)
	if err != nil {
		return domain.Receipt{}, err
	}

	if err := s.requireVault(ctx, actor, vault, domain.ErrInsufficientBalance); err != nil {
		return domain.Receipt{}, err
	}

	coins := amountpkg.Mul(vault, opts.SellRate, domain.CoinScale)
	if coins <= 0 {
		return domain.Receipt{}, domain.ErrNegativeAmount
	}

	return s.submit(ctx, func(ctx context.Context) (domain.Receipt, error) {
		if err := s.requireVault(ctx, actor, vault, domain.ErrInsufficientBalance); err != nil {
			return domain.Receipt{}, err
		}

		res, err := s.ledger.TransferByCard(ctx, opts.ServerCard, opts.ServerLedgerID, account, coins)
		if err != nil {
			return domain.Receipt{}, err
		}

		r := domain.Receipt{Kind: domain.KindSell, Actor: actor.String(), Target: account, Coins: coins, Vault: vault, TxID: res.TxID}

		if err := s.moveVault(ctx, r, actor, opts.ServerIdentity); err != nil {
			return r, err
		}

		return r, nil
	})
}

// ServerPay sends coins from the server card. It is not rate limited.
func (s *Service) ServerPay(ctx context.Context, to, amount string) (domain.Receipt, error) {
	opts := s.options()

	if opts.ServerCard == "" {
		return domain.Receipt{}, domain.ErrServerMisconfigured
	}

	target, err := s.store.Resolve(ctx, to)
	if err != nil {
		return domain.Receipt{}, err
	}

	coins, err := parseAmount(amount, domain.CoinScale)
	if err != nil {
		return domain.Receipt{}, err
	}

	return s.submit(ctx, func(ctx context.Context) (domain.Receipt, error) {
		res, err := s.ledger.TransferByCard(ctx, opts.ServerCard, opts.ServerLedgerID, target, coins)
		if err != nil {
			return domain.Receipt{}, err
		}

		return domain.Receipt{Kind: domain.KindServerPay, Actor: "server", Target: target, Coins: coins, TxID: res.TxID}, nil
	})
}

func (s *Service) requireVault(ctx context.Context, id uuid.UUID, amount float64, errLow error) error {
	raw, err := s.treasury.Balance(ctx, id)
	if err != nil {
		return err
	}

	balance, err := decimal.NewFromString(raw)
	if err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Str("balance", raw).Send()
		return errorspkg.ErrInternal
	}

	if balance.LessThan(decimal.NewFromFloat(amount)) {
		return errLow
	}

	return nil
}

// moveVault applies the treasury side of a conversion whose ledger transfer already
// succeeded. A failure here leaves the two sides out of step.
func (s *Service) moveVault(ctx context.Context, r domain.Receipt, from, to uuid.UUID) error {
	l := zerolog.Ctx(ctx)

	if r.Vault > 0 {
		if err := s.treasury.Transfer(ctx, from, to, amountpkg.String(r.Vault)); err != nil {
			l.Error().Err(err).
				Bool("reconcile", true).
				Str("kind", r.Kind).
				Str("actor", r.Actor).
				Float64("coins", r.Coins).
				Float64("vault", r.Vault).
				Str("tx", r.TxID).
				Msg("treasury adjustment failed after ledger transfer")

			return errorspkg.ErrInternal
		}
	}

	l.Info().
		Str("kind", r.Kind).
		Str("actor", r.Actor).
		Float64("coins", r.Coins).
		Float64("vault", r.Vault).
		Str("tx", r.TxID).
		Msg("conversion")

	return nil
}
