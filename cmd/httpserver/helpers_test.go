package httpserver_test

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/go-petr/coincard/cmd/httpserver"
	"github.com/go-petr/coincard/internal/accountstore"
	"github.com/go-petr/coincard/pkg/configpkg"
	"github.com/go-petr/coincard/pkg/randompkg"
)

// fakeLedger is an in-memory ledger speaking the remote HTTP protocol. Transfers are
// authorized by card; the card is swapped for the account it was issued to.
type fakeLedger struct {
	mu       sync.Mutex
	balances map[string]float64
	cards    map[string]string
	txs      int
}

func newFakeLedger(t *testing.T, balances map[string]float64) (*fakeLedger, *httptest.Server) {
	t.Helper()

	l := &fakeLedger{balances: balances, cards: make(map[string]string)}

	mux := http.NewServeMux()
	mux.HandleFunc("/transfer", l.transfer)
	mux.HandleFunc("/balance", l.balance)

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	return l, srv
}

func (l *fakeLedger) transfer(w http.ResponseWriter, r *http.Request) {
	var req struct {
		FromAccount string      `json:"fromAccount"`
		ToAccount   string      `json:"toAccount"`
		Amount      json.Number `json:"amount"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	amount, err := req.Amount.Float64()
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	from, ok := l.cards[req.FromAccount]
	if !ok {
		fmt.Fprint(w, `{"success":false,"error":"invalid card"}`)
		return
	}

	if l.balances[from] < amount {
		fmt.Fprint(w, `{"success":false,"error":"insufficient funds"}`)
		return
	}

	l.balances[from] -= amount
	l.balances[req.ToAccount] += amount
	l.txs++

	fmt.Fprintf(w, `{"success":true,"txId":"tx-%d"}`, l.txs)
}

func (l *fakeLedger) balance(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Account string `json:"account"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	v, ok := l.balances[req.Account]
	if !ok {
		fmt.Fprint(w, `{"success":false,"error":"unknown account"}`)
		return
	}

	fmt.Fprintf(w, `{"success":true,"coins":%v}`, v)
}

func (l *fakeLedger) issueCard(card, account string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.cards[card] = account
}

func (l *fakeLedger) get(account string) float64 {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.balances[account]
}

func testConfig(ledgerURL string) configpkg.Config {
	return configpkg.Config{
		LedgerAPI:           ledgerURL,
		LedgerTimeout:       time.Second,
		QueueInterval:       5 * time.Millisecond,
		UserCooldown:        time.Second,
		BalancePollInterval: time.Hour,
		LeaderboardTTL:      time.Minute,
		LeaderboardStagger:  time.Millisecond,
		LeaderboardPageSize: 2,
		ServerCard:          "SERVER-CARD",
		ServerLedgerID:      "900001",
		BuyRate:             0.5,
		SellRate:            2,
		TokenType:           "paseto",
		TokenSymmetricKey:   randompkg.String(32),
		AccessTokenDuration: time.Minute,
		AdminUsername:       "admin",
	}
}

func setupServer(t *testing.T, config configpkg.Config, db *sql.DB) (*httpserver.Server, *accountstore.StoreYAML) {
	t.Helper()

	return setupServerWith(t, config, httpserver.Deps{DB: db})
}

func setupServerWith(t *testing.T, config configpkg.Config, deps httpserver.Deps) (*httpserver.Server, *accountstore.StoreYAML) {
	t.Helper()

	store, err := accountstore.Open(filepath.Join(t.TempDir(), "users.yml"))
	require.NoError(t, err)

	deps.Store = store

	server, err := httpserver.New(deps, zerolog.Nop(), config)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	server.Start(ctx)

	t.Cleanup(func() {
		cancel()
		server.Shutdown()
	})

	return server, store
}

// register gives id a public account and a card issued for it.
func register(t *testing.T, store *accountstore.StoreYAML, ledger *fakeLedger, id uuid.UUID, nick, account, card string) {
	t.Helper()

	ctx := context.Background()

	if nick != "" {
		require.NoError(t, store.SetNick(ctx, id, nick))
	}

	require.NoError(t, store.SetID(ctx, id, account))

	if card != "" {
		require.NoError(t, store.SetCard(ctx, id, card))
		ledger.issueCard(card, account)
	}
}
