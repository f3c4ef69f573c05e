// Package ledgerclient talks to the remote ledger HTTP service.
package ledgerclient

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/rs/zerolog"

	"github.com/go-petr/coincard/internal/domain"
	"github.com/go-petr/coincard/pkg/amountpkg"
	"github.com/go-petr/coincard/pkg/metricspkg"
)

const (
	transferPath = "transfer"
	balancePath  = "balance"

	maxBodySize = 1 << 20
)

var (
	txIDFields    = []string{"txId", "transactionId", "tx_id"}
	balanceFields = []string{"coins", "balance", "value"}
)

// Client is a synchronous ledger client. It keeps no state across calls besides its
// configuration and is safe for concurrent use.
type Client struct {
	baseURL string
	http    *http.Client
	logger  zerolog.Logger
}

// New returns a ledger Client. Every request is bounded by timeout.
func New(baseURL string, timeout time.Duration, logger zerolog.Logger) *Client {
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}

	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
		logger:  logger.With().Str("component", "ledger").Logger(),
	}
}

type transferRequest struct {
	FromAccount string      `json:"fromAccount"`
	ToAccount   string      `json:"toAccount"`
	Amount      json.Number `json:"amount"`
}

type balanceRequest struct {
	Account string `json:"account"`
}

// Transfer moves amount from one account to another.
func (c *Client) Transfer(ctx context.Context, fromAccount, toAccount string, amount float64) domain.TransferResult {
	if fromAccount == "" || toAccount == "" || amount <= 0 {
		return domain.TransferResult{}
	}

	req := transferRequest{
		FromAccount: fromAccount,
		ToAccount:   toAccount,
		Amount:      json.Number(amountpkg.String(amount)),
	}

	body, ok := c.post(ctx, transferPath, req)
	if body == nil {
		return domain.TransferResult{}
	}

	res := domain.TransferResult{Raw: string(body)}
	res.Success = ok && readBool(body, "success")

	if res.Success {
		res.TxID = readString(body, txIDFields...)
	}

	c.observe(transferPath, res.Success)

	return res
}

// GetBalance returns the current balance of account.
func (c *Client) GetBalance(ctx context.Context, account string) domain.BalanceResult {
	if account == "" {
		return domain.BalanceResult{Error: domain.ErrInvalidAccount.Error()}
	}

	body, ok := c.post(ctx, balancePath, balanceRequest{Account: account})
	if body == nil {
		return domain.BalanceResult{Error: domain.ErrLedgerUnavailable.Error()}
	}

	var res domain.BalanceResult

	if ok && readBool(body, "success") {
		res.Coins, res.HasCoins = readNumber(body, balanceFields...)
		res.Success = res.HasCoins
	}

	if !res.Success {
		res.Error = readString(body, "error")
		if res.Error == "" {
			res.Error = domain.ErrBalanceUnavailable.Error()
		}
	}

	c.observe(balancePath, res.Success)

	return res
}

// post sends v as JSON to path. It returns the response body and whether the status was
// 2xx; a nil body means the request never produced a response.
func (c *Client) post(ctx context.Context, path string, v any) ([]byte, bool) {
	start := time.Now()
	defer func() {
		metricspkg.LedgerLatency.WithLabelValues(path).Observe(time.Since(start).Seconds())
	}()

	payload, err := jsoniter.ConfigCompatibleWithStandardLibrary.Marshal(v)
	if err != nil {
		c.logger.Error().Err(err).Str("path", path).Msg("cannot encode ledger request")
		metricspkg.LedgerRequests.WithLabelValues(path, metricspkg.OutcomeError).Inc()

		return nil, false
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		c.logger.Error().Err(err).Str("path", path).Msg("cannot build ledger request")
		metricspkg.LedgerRequests.WithLabelValues(path, metricspkg.OutcomeError).Inc()

		return nil, false
	}

	req.Header.Set("Content-Type", "application/json; charset=UTF-8")

	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Warn().Err(err).Str("path", path).Msg("ledger request failed")
		metricspkg.LedgerRequests.WithLabelValues(path, metricspkg.OutcomeError).Inc()

		return nil, false
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		c.logger.Warn().Err(err).Str("path", path).Msg("cannot read ledger response")
		metricspkg.LedgerRequests.WithLabelValues(path, metricspkg.OutcomeError).Inc()

		return nil, false
	}

	ok := resp.StatusCode >= 200 && resp.StatusCode < 300
	if !ok {
		c.logger.Info().Int("status", resp.StatusCode).Str("path", path).Msg("ledger returned non-2xx")
	}

	return body, ok
}

func (c *Client) observe(path string, success bool) {
	outcome := metricspkg.OutcomeOK
	if !success {
		outcome = metricspkg.OutcomeRejected
	}

	metricspkg.LedgerRequests.WithLabelValues(path, outcome).Inc()
}

func readBool(body []byte, key string) bool {
	v := jsoniter.Get(body, key)

	switch v.ValueType() {
	case jsoniter.BoolValue:
		return v.ToBool()
	case jsoniter.StringValue:
		return strings.EqualFold(v.ToString(), "true")
	case jsoniter.NumberValue:
		return v.ToInt() != 0
	}

	return false
}

func readString(body []byte, keys ...string) string {
	for _, key := range keys {
		v := jsoniter.Get(body, key)

		switch v.ValueType() {
		case jsoniter.StringValue:
			return v.ToString()
		case jsoniter.NumberValue:
			return v.ToString()
		}
	}

	return ""
}

func readNumber(body []byte, keys ...string) (float64, bool) {
	for _, key := range keys {
		v := jsoniter.Get(body, key)

		switch v.ValueType() {
		case jsoniter.NumberValue:
			return v.ToFloat64(), true
		case jsoniter.StringValue:
			f, err := strconv.ParseFloat(strings.TrimSpace(v.ToString()), 64)
			if err == nil {
				return f, true
			}
		}
	}

	return 0, false
}
