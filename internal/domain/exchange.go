package domain

import "errors"

var (
	// ErrCooldown indicates that the actor acted too recently.
	ErrCooldown = errors.New("wait before making another transaction")
	// ErrLowServerBalance indicates that the server treasury cannot cover a buy.
	ErrLowServerBalance = errors.New("low server balance")
	// ErrInsufficientBalance indicates that the treasury account cannot cover the amount.
	ErrInsufficientBalance = errors.New("insufficient balance")
	// ErrServerMisconfigured indicates missing server accounts in configuration.
	ErrServerMisconfigured = errors.New("server accounts are not configured")
)

// Receipt kinds.
const (
	KindPay       = "pay"
	KindBuy       = "buy"
	KindSell      = "sell"
	KindServerPay = "server_pay"
)

// Receipt describes a committed exchange operation.
type Receipt struct {
	Kind   string  `json:"kind"`
	Actor  string  `json:"actor"`
	Target string  `json:"target,omitempty"`
	Coins  float64 `json:"coins"`
	Vault  float64 `json:"vault,omitempty"`
	TxID   string  `json:"tx_id"`
}

// Holdings is the combined view of an identity's ledger coins and treasury vault.
type Holdings struct {
	Account string  `json:"account"`
	Coins   float64 `json:"coins"`
	Vault   string  `json:"vault"`
}

// Settings is the reloadable part of the exchange configuration. It never carries the
// server card.
type Settings struct {
	BuyRate        float64 `json:"buy_rate"`
	SellRate       float64 `json:"sell_rate"`
	Cooldown       string  `json:"cooldown"`
	ServerLedgerID string  `json:"server_id"`
}
