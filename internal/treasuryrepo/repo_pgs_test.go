//go:build integration

package treasuryrepo_test

import (
	"context"
	"log"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/go-petr/coincard/internal/domain"
	"github.com/go-petr/coincard/internal/middleware"
	"github.com/go-petr/coincard/internal/treasuryrepo"
	"github.com/go-petr/coincard/pkg/configpkg"
	"github.com/go-petr/coincard/pkg/dbpkg"
)

var (
	dbDriver string
	dbSource string
	ctx      context.Context
)

func TestMain(m *testing.M) {
	config, err := configpkg.Load("../../configs")
	if err != nil {
		log.Fatal("cannot load config:", err)
	}

	dbDriver = config.DBDriver
	dbSource = config.DBSource

	logger := middleware.GetLogger(config)
	ctx = logger.WithContext(context.Background())

	os.Exit(m.Run())
}

func requireBalance(t *testing.T, r *treasuryrepo.RepoPGS, id uuid.UUID, want string) {
	t.Helper()

	got, err := r.Balance(ctx, id)
	require.NoError(t, err)
	require.True(t, decimal.RequireFromString(want).Equal(decimal.RequireFromString(got)), "got %s want %s", got, want)
}

func TestDepositWithdraw(t *testing.T) {
	tx := dbpkg.SetupTX(t, dbDriver, dbSource)
	r := treasuryrepo.NewTxRepoPGS(tx)

	id := uuid.New()
	requireBalance(t, r, id, "0")

	_, err := r.Deposit(ctx, id, "100.5")
	require.NoError(t, err)
	_, err = r.Deposit(ctx, id, "0.25")
	require.NoError(t, err)
	requireBalance(t, r, id, "100.75")

	got, err := r.Withdraw(ctx, id, "50")
	require.NoError(t, err)
	require.True(t, decimal.RequireFromString("50.75").Equal(decimal.RequireFromString(got)))
}

func TestWithdrawInsufficient(t *testing.T) {
	testCases := []struct {
		name    string
		seed    string
		amount  string
		wantErr error
	}{
		{name: "UnknownIdentity", amount: "1", wantErr: domain.ErrInsufficientBalance},
		{name: "Overdraw", seed: "10", amount: "10.0001", wantErr: domain.ErrInsufficientBalance},
		{name: "Exact", seed: "10", amount: "10"},
	}

	for _, tc := range testCases {
		tc := tc

		t.Run(tc.name, func(t *testing.T) {
			tx := dbpkg.SetupTX(t, dbDriver, dbSource)
			r := treasuryrepo.NewTxRepoPGS(tx)

			id := uuid.New()
			if tc.seed != "" {
				_, err := r.Deposit(ctx, id, tc.seed)
				require.NoError(t, err)
			}

			_, err := r.Withdraw(ctx, id, tc.amount)
			if tc.wantErr != nil {
				require.ErrorIs(t, err, tc.wantErr)
				return
			}

			require.NoError(t, err)
		})
	}
}

func TestTransfer(t *testing.T) {
	tx := dbpkg.SetupTX(t, dbDriver, dbSource)
	r := treasuryrepo.NewTxRepoPGS(tx)

	from, to := uuid.New(), uuid.New()

	_, err := r.Deposit(ctx, from, "20")
	require.NoError(t, err)

	require.NoError(t, r.Transfer(ctx, from, to, "7.5"))
	requireBalance(t, r, from, "12.5")
	requireBalance(t, r, to, "7.5")
}
