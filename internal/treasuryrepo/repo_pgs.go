// Package treasuryrepo manages repository layer of local vault balances.
package treasuryrepo

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/rs/zerolog"

	"github.com/go-petr/coincard/internal/domain"
	"github.com/go-petr/coincard/pkg/dbpkg"
	"github.com/go-petr/coincard/pkg/errorspkg"
)

// RepoPGS facilitates treasury repository layer logic.
type RepoPGS struct {
	db   dbpkg.SQLInterface
	conn *sql.DB
}

// NewTxRepoPGS returns treasury RepoPGS bound to an existing transaction.
func NewTxRepoPGS(db dbpkg.SQLInterface) *RepoPGS {
	return &RepoPGS{
		db: db,
	}
}

// NewRepoPGS returns treasury RepoPGS with connection to start transactions.
func NewRepoPGS(db *sql.DB) *RepoPGS {
	return &RepoPGS{
		db:   db,
		conn: db,
	}
}

const balanceQuery = `
SELECT balance
FROM treasury_balances
WHERE identity = $1
`

// Balance returns the vault balance of the identity. Unknown identities hold zero.
func (r *RepoPGS) Balance(ctx context.Context, identity uuid.UUID) (string, error) {
	l := zerolog.Ctx(ctx)

	var balance string

	err := r.db.QueryRowContext(ctx, balanceQuery, identity).Scan(&balance)
	if err == sql.ErrNoRows {
		return "0", nil
	}

	if err != nil {
		l.Error().Err(err).Str("identity", identity.String()).Msg("treasury balance")
		return "", errorspkg.ErrInternal
	}

	return balance, nil
}

const depositQuery = `
INSERT INTO treasury_balances (identity, balance)
VALUES ($1, $2)
ON CONFLICT (identity) DO UPDATE
SET balance = treasury_balances.balance + EXCLUDED.balance, updated_at = now()
RETURNING balance
`

// Deposit adds amount to the identity balance and returns the new balance.
func (r *RepoPGS) Deposit(ctx context.Context, identity uuid.UUID, amount string) (string, error) {
	l := zerolog.Ctx(ctx)

	var balance string

	err := r.db.QueryRowContext(ctx, depositQuery, identity, amount).Scan(&balance)
	if err != nil {
		l.Error().Err(err).Str("identity", identity.String()).Str("amount", amount).Msg("treasury deposit")
		return "", mapError(err)
	}

	return balance, nil
}

const withdrawQuery = `
UPDATE treasury_balances
SET balance = balance - $2, updated_at = now()
WHERE identity = $1
RETURNING balance
`

// Withdraw subtracts amount from the identity balance and returns the new balance.
func (r *RepoPGS) Withdraw(ctx context.Context, identity uuid.UUID, amount string) (string, error) {
	l := zerolog.Ctx(ctx)

	var balance string

	err := r.db.QueryRowContext(ctx, withdrawQuery, identity, amount).Scan(&balance)
	if err == sql.ErrNoRows {
		return "", domain.ErrInsufficientBalance
	}

	if err != nil {
		l.Error().Err(err).Str("identity", identity.String()).Str("amount", amount).Msg("treasury withdraw")
		return "", mapError(err)
	}

	return balance, nil
}

func mapError(err error) error {
	if pqErr, ok := err.(*pq.Error); ok {
		switch pqErr.Constraint {
		case "treasury_balances_balance_check":
			return domain.ErrInsufficientBalance
		}

		if pqErr.Code.Name() == "invalid_text_representation" {
			return domain.ErrInvalidAmount
		}
	}

	return errorspkg.ErrInternal
}

// Transfer moves amount from one identity to another within a single db transaction.
func (r *RepoPGS) Transfer(ctx context.Context, from, to uuid.UUID, amount string) error {
	l := zerolog.Ctx(ctx)

	if r.conn == nil {
		return r.transfer(ctx, from, to, amount)
	}

	tx, err := r.conn.BeginTx(ctx, nil)
	if err != nil {
		l.Error().Err(err).Send()
		return errorspkg.ErrInternal
	}

	defer func() {
		if err := tx.Rollback(); err != nil && err != sql.ErrTxDone {
			l.Error().Err(err).Send()
		}
	}()

	if err := NewTxRepoPGS(tx).transfer(ctx, from, to, amount); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		l.Error().Err(err).Send()
		return errorspkg.ErrInternal
	}

	return nil
}

func (r *RepoPGS) transfer(ctx context.Context, from, to uuid.UUID, amount string) error {
	if _, err := r.Withdraw(ctx, from, amount); err != nil {
		return err
	}

	_, err := r.Deposit(ctx, to, amount)

	return err
}
