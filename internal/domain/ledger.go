// Package domain provides definitions of all entities.
package domain

import (
	"errors"
	"time"
)

// Decimal precision of amounts sent to the ledger and applied to the treasury.
const (
	CoinScale  = 8
	VaultScale = 4
)

var (
	// ErrInvalidAccount indicates an empty account reference.
	ErrInvalidAccount = errors.New("invalid account")
	// ErrInvalidAmount indicates an amount that cannot be parsed.
	ErrInvalidAmount = errors.New("invalid amount")
	// ErrNegativeAmount indicates a zero or negative amount.
	ErrNegativeAmount = errors.New("amount must be positive")
	// ErrLedgerUnavailable indicates a transport failure talking to the ledger.
	ErrLedgerUnavailable = errors.New("ledger unavailable")
	// ErrTransferRejected indicates that the ledger refused the transfer.
	ErrTransferRejected = errors.New("transfer rejected by ledger")
	// ErrBalanceUnavailable indicates that the ledger returned no balance.
	ErrBalanceUnavailable = errors.New("balance unavailable")
	// ErrShutdown indicates that the subsystem is shutting down.
	ErrShutdown = errors.New("shutting down")
)

// TransferResult is the outcome of a ledger transfer call.
//
// TxID is only meaningful when Success is true. Raw keeps the untouched response body.
type TransferResult struct {
	Success bool   `json:"success"`
	TxID    string `json:"tx_id,omitempty"`
	Raw     string `json:"-"`
}

// BalanceResult is the outcome of a ledger balance lookup.
type BalanceResult struct {
	Success  bool    `json:"success"`
	Coins    float64 `json:"coins"`
	HasCoins bool    `json:"-"`
	Error    string  `json:"error,omitempty"`
}

// CachedBalance is the last known balance of a ledger account.
type CachedBalance struct {
	Account     string    `json:"account"`
	Value       float64   `json:"value"`
	LastUpdated time.Time `json:"last_updated"`
}

// BalanceChange describes a balance movement of one account.
type BalanceChange struct {
	Account string  `json:"account"`
	Old     float64 `json:"old"`
	New     float64 `json:"new"`
}
