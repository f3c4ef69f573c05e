package ledgerclient

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/go-petr/coincard/internal/domain"
)

type recordedRequest struct {
	Path string
	Body map[string]any
}

type recorder struct {
	mu    sync.Mutex
	calls []recordedRequest
}

func (r *recorder) get() []recordedRequest {
	r.mu.Lock()
	defer r.mu.Unlock()

	return append([]recordedRequest(nil), r.calls...)
}

func newLedger(t *testing.T, status int, body string) (*httptest.Server, *recorder) {
	t.Helper()

	rec := &recorder{}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, err := io.ReadAll(r.Body)
		require.NoError(t, err)

		var m map[string]any
		require.NoError(t, json.Unmarshal(raw, &m))

		rec.mu.Lock()
		rec.calls = append(rec.calls, recordedRequest{Path: r.URL.Path, Body: m})
		rec.mu.Unlock()

		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)

	return srv, rec
}

func TestTransfer(t *testing.T) {
	testCases := []struct {
		name     string
		status   int
		body     string
		from     string
		to       string
		amount   float64
		want     domain.TransferResult
		wantCall bool
	}{
		{
			name:     "OK",
			status:   http.StatusOK,
			body:     `{"success":true,"txId":"tx1","extra":{"a":1}}`,
			from:     "CARD-1",
			to:       "123456",
			amount:   1.5,
			want:     domain.TransferResult{Success: true, TxID: "tx1", Raw: `{"success":true,"txId":"tx1","extra":{"a":1}}`},
			wantCall: true,
		},
		{
			name:     "NumericTxID",
			status:   http.StatusOK,
			body:     `{"success":"true","transactionId":42}`,
			from:     "CARD-1",
			to:       "123456",
			amount:   1,
			want:     domain.TransferResult{Success: true, TxID: "42", Raw: `{"success":"true","transactionId":42}`},
			wantCall: true,
		},
		{
			name:     "Rejected",
			status:   http.StatusOK,
			body:     `{"success":false,"error":"insufficient funds","txId":"ignored"}`,
			from:     "CARD-1",
			to:       "123456",
			amount:   1,
			want:     domain.TransferResult{Raw: `{"success":false,"error":"insufficient funds","txId":"ignored"}`},
			wantCall: true,
		},
		{
			name:     "MissingSuccessField",
			status:   http.StatusOK,
			body:     `{"txId":"tx9"}`,
			from:     "CARD-1",
			to:       "123456",
			amount:   1,
			want:     domain.TransferResult{Raw: `{"txId":"tx9"}`},
			wantCall: true,
		},
		{
			name:     "Non2xxWithSuccessBody",
			status:   http.StatusInternalServerError,
			body:     `{"success":true,"txId":"tx1"}`,
			from:     "CARD-1",
			to:       "123456",
			amount:   1,
			want:     domain.TransferResult{Raw: `{"success":true,"txId":"tx1"}`},
			wantCall: true,
		},
		{
			name:     "GarbageBody",
			status:   http.StatusBadGateway,
			body:     `<html>bad gateway</html>`,
			from:     "CARD-1",
			to:       "123456",
			amount:   1,
			want:     domain.TransferResult{Raw: `<html>bad gateway</html>`},
			wantCall: true,
		},
		{
			name:   "NonPositiveAmount",
			status: http.StatusOK,
			body:   `{"success":true}`,
			from:   "CARD-1",
			to:     "123456",
			amount: -5,
			want:   domain.TransferResult{},
		},
		{
			name:   "EmptyAccount",
			status: http.StatusOK,
			body:   `{"success":true}`,
			to:     "123456",
			amount: 1,
			want:   domain.TransferResult{},
		},
	}

	for _, tc := range testCases {
		tc := tc

		t.Run(tc.name, func(t *testing.T) {
			srv, calls := newLedger(t, tc.status, tc.body)
			c := New(srv.URL, time.Second, zerolog.Nop())

			got := c.Transfer(context.Background(), tc.from, tc.to, tc.amount)
			if diff := cmp.Diff(tc.want, got); diff != "" {
				t.Errorf("Transfer returned unexpected diff (-want +got):\n%s", diff)
			}

			if !tc.wantCall {
				require.Empty(t, calls.get())
				return
			}

			require.Len(t, calls.get(), 1)
			call := calls.get()[0]
			require.Equal(t, "/transfer", call.Path)
			require.Equal(t, tc.from, call.Body["fromAccount"])
			require.Equal(t, tc.to, call.Body["toAccount"])
			require.Equal(t, tc.amount, call.Body["amount"])
		})
	}
}

func TestGetBalance(t *testing.T) {
	testCases := []struct {
		name   string
		status int
		body   string
		want   domain.BalanceResult
	}{
		{
			name:   "OK",
			status: http.StatusOK,
			body:   `{"success":true,"coins":12.5}`,
			want:   domain.BalanceResult{Success: true, Coins: 12.5, HasCoins: true},
		},
		{
			name:   "BalanceField",
			status: http.StatusOK,
			body:   `{"success":true,"balance":"7.25","owner":"x"}`,
			want:   domain.BalanceResult{Success: true, Coins: 7.25, HasCoins: true},
		},
		{
			name:   "SuccessWithoutBalance",
			status: http.StatusOK,
			body:   `{"success":true}`,
			want:   domain.BalanceResult{Error: domain.ErrBalanceUnavailable.Error()},
		},
		{
			name:   "LedgerError",
			status: http.StatusNotFound,
			body:   `{"success":false,"error":"unknown account"}`,
			want:   domain.BalanceResult{Error: "unknown account"},
		},
		{
			name:   "Garbage",
			status: http.StatusOK,
			body:   `not json`,
			want:   domain.BalanceResult{Error: domain.ErrBalanceUnavailable.Error()},
		},
	}

	for _, tc := range testCases {
		tc := tc

		t.Run(tc.name, func(t *testing.T) {
			srv, calls := newLedger(t, tc.status, tc.body)
			c := New(srv.URL+"/", time.Second, zerolog.Nop())

			got := c.GetBalance(context.Background(), "123456")
			if diff := cmp.Diff(tc.want, got); diff != "" {
				t.Errorf("GetBalance returned unexpected diff (-want +got):\n%s", diff)
			}

			require.Len(t, calls.get(), 1)
			require.Equal(t, "/balance", calls.get()[0].Path)
			require.Equal(t, "123456", calls.get()[0].Body["account"])
		})
	}
}

func TestGetBalanceEmptyAccount(t *testing.T) {
	c := New("http://127.0.0.1:1", time.Second, zerolog.Nop())

	got := c.GetBalance(context.Background(), "")
	require.False(t, got.Success)
	require.Equal(t, domain.ErrInvalidAccount.Error(), got.Error)
}

func TestTransportFailure(t *testing.T) {
	var hits int32

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		time.Sleep(200 * time.Millisecond)
		_, _ = w.Write([]byte(`{"success":true,"txId":"late","coins":1}`))
	}))
	defer srv.Close()

	c := New(srv.URL, 20*time.Millisecond, zerolog.Nop())

	res := c.Transfer(context.Background(), "CARD-1", "123456", 1)
	require.Equal(t, domain.TransferResult{}, res)

	bal := c.GetBalance(context.Background(), "123456")
	require.False(t, bal.Success)
	require.False(t, bal.HasCoins)
	require.Equal(t, domain.ErrLedgerUnavailable.Error(), bal.Error)

	require.EqualValues(t, 2, atomic.LoadInt32(&hits))
}

func TestConnectionRefused(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c := New(url, time.Second, zerolog.Nop())

	res := c.Transfer(context.Background(), "CARD-1", "123456", 1)
	require.False(t, res.Success)
	require.Empty(t, res.TxID)
	require.Empty(t, res.Raw)
}
