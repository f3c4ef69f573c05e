package coindelivery

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/require"

	"github.com/go-petr/coincard/internal/domain"
	"github.com/go-petr/coincard/internal/middleware"
	"github.com/go-petr/coincard/pkg/errorspkg"
	"github.com/go-petr/coincard/pkg/randompkg"
	"github.com/go-petr/coincard/pkg/tokenpkg"
	"github.com/go-petr/coincard/pkg/web"
)

const adminUsername = "admin"

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)

	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		if err := v.RegisterValidation("amount", ValidAmount); err != nil {
			panic(err)
		}
	}

	os.Exit(m.Run())
}

func setupServer(t *testing.T, maker tokenpkg.Maker, s Service, lb Leaderboard, r Reloader) *gin.Engine {
	t.Helper()

	h := NewHandler(s, lb)
	if r != nil {
		h.WithReloader(r)
	}

	server := gin.New()

	auth := server.Group("/", middleware.AuthMiddleware(maker))
	auth.PUT("/me/id", h.RegisterAccount)
	auth.PUT("/me/card", h.RegisterCard)
	auth.GET("/me/balance", h.MyBalance)
	auth.GET("/balances/:account", h.AccountBalance)
	auth.GET("/balances/:account/watch", h.Watch)
	auth.POST("/pay", h.Pay)
	auth.POST("/buy", h.Buy)
	auth.POST("/sell", h.Sell)
	auth.GET("/leaderboard", h.Leaderboard)
	auth.GET("/leaderboard/rank/:account", h.Rank)
	auth.POST("/server/pay", middleware.AdminOnly(adminUsername), h.ServerPay)
	auth.POST("/server/reload", middleware.AdminOnly(adminUsername), h.Reload)

	return server
}

func TestHandlers(t *testing.T) {
	maker, err := tokenpkg.NewPasetoMaker(randompkg.String(32))
	require.NoError(t, err)

	actor := randompkg.Identity()
	receipt := domain.Receipt{Kind: domain.KindPay, Actor: actor.String(), Target: "123456", Coins: 1.5, TxID: "tx"}

	testCases := []struct {
		name       string
		method     string
		url        string
		body       gin.H
		username   string
		buildStubs func(s *MockService, lb *MockLeaderboard)
		reload     func(r *MockReloader)
		wantStatus int
		wantError  string
	}{
		{
			name:       "PayNoAuthorization",
			method:     http.MethodPost,
			url:        "/pay",
			body:       gin.H{"to": "steve", "amount": "1.5"},
			buildStubs: func(s *MockService, lb *MockLeaderboard) {},
			wantStatus: http.StatusUnauthorized,
			wantError:  middleware.ErrAuthHeaderNotFound.Error(),
		},
		{
			name:     "PayOK",
			method:   http.MethodPost,
			url:      "/pay",
			body:     gin.H{"to": "steve", "amount": "1.5"},
			username: actor.String(),
			buildStubs: func(s *MockService, lb *MockLeaderboard) {
				s.EXPECT().Pay(gomock.Any(), actor, "steve", "1.5").Times(1).Return(receipt, nil)
			},
			wantStatus: http.StatusOK,
		},
		{
			name:     "PayInvalidSubject",
			method:   http.MethodPost,
			url:      "/pay",
			body:     gin.H{"to": "steve", "amount": "1.5"},
			username: "steve",
			buildStubs: func(s *MockService, lb *MockLeaderboard) {
				s.EXPECT().Pay(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Times(0)
			},
			wantStatus: http.StatusUnauthorized,
			wantError:  ErrInvalidIdentity.Error(),
		},
		{
			name:     "PayBadAmount",
			method:   http.MethodPost,
			url:      "/pay",
			body:     gin.H{"to": "steve", "amount": "lots"},
			username: actor.String(),
			buildStubs: func(s *MockService, lb *MockLeaderboard) {
				s.EXPECT().Pay(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Times(0)
			},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:     "PayCooldown",
			method:   http.MethodPost,
			url:      "/pay",
			body:     gin.H{"to": "steve", "amount": "1"},
			username: actor.String(),
			buildStubs: func(s *MockService, lb *MockLeaderboard) {
				s.EXPECT().Pay(gomock.Any(), actor, "steve", "1").Times(1).Return(domain.Receipt{}, domain.ErrCooldown)
			},
			wantStatus: http.StatusTooManyRequests,
			wantError:  domain.ErrCooldown.Error(),
		},
		{
			name:     "PayRejected",
			method:   http.MethodPost,
			url:      "/pay",
			body:     gin.H{"to": "steve", "amount": "1"},
			username: actor.String(),
			buildStubs: func(s *MockService, lb *MockLeaderboard) {
				err := fmt.Errorf("%w: %s", domain.ErrTransferRejected, "insufficient funds")
				s.EXPECT().Pay(gomock.Any(), actor, "steve", "1").Times(1).Return(domain.Receipt{}, err)
			},
			wantStatus: http.StatusUnprocessableEntity,
			wantError:  "transfer rejected by ledger: insufficient funds",
		},
		{
			name:     "PayInternal",
			method:   http.MethodPost,
			url:      "/pay",
			body:     gin.H{"to": "steve", "amount": "1"},
			username: actor.String(),
			buildStubs: func(s *MockService, lb *MockLeaderboard) {
				s.EXPECT().Pay(gomock.Any(), actor, "steve", "1").Times(1).Return(domain.Receipt{}, fmt.Errorf("boom"))
			},
			wantStatus: http.StatusInternalServerError,
			wantError:  "internal",
		},
		{
			name:     "BuyOK",
			method:   http.MethodPost,
			url:      "/buy",
			body:     gin.H{"coins": "5"},
			username: actor.String(),
			buildStubs: func(s *MockService, lb *MockLeaderboard) {
				s.EXPECT().Buy(gomock.Any(), actor, "5").Times(1).Return(domain.Receipt{Kind: domain.KindBuy}, nil)
			},
			wantStatus: http.StatusOK,
		},
		{
			name:     "BuyLowServerBalance",
			method:   http.MethodPost,
			url:      "/buy",
			body:     gin.H{"coins": "5"},
			username: actor.String(),
			buildStubs: func(s *MockService, lb *MockLeaderboard) {
				s.EXPECT().Buy(gomock.Any(), actor, "5").Times(1).Return(domain.Receipt{}, domain.ErrLowServerBalance)
			},
			wantStatus: http.StatusBadRequest,
			wantError:  domain.ErrLowServerBalance.Error(),
		},
		{
			name:     "SellMissingVault",
			method:   http.MethodPost,
			url:      "/sell",
			body:     gin.H{},
			username: actor.String(),
			buildStubs: func(s *MockService, lb *MockLeaderboard) {
				s.EXPECT().Sell(gomock.Any(), gomock.Any(), gomock.Any()).Times(0)
			},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:     "SellOK",
			method:   http.MethodPost,
			url:      "/sell",
			body:     gin.H{"vault": "2"},
			username: actor.String(),
			buildStubs: func(s *MockService, lb *MockLeaderboard) {
				s.EXPECT().Sell(gomock.Any(), actor, "2").Times(1).Return(domain.Receipt{Kind: domain.KindSell}, nil)
			},
			wantStatus: http.StatusOK,
		},
		{
			name:     "RegisterCardOK",
			method:   http.MethodPut,
			url:      "/me/card",
			body:     gin.H{"nick": "steve", "card": "CARD-1"},
			username: actor.String(),
			buildStubs: func(s *MockService, lb *MockLeaderboard) {
				s.EXPECT().RegisterCard(gomock.Any(), actor, "steve", "CARD-1").
					Times(1).
					Return(domain.Identity{ID: actor, Nick: "steve", Account: "100001", Card: "CARD-1"}, nil)
			},
			wantStatus: http.StatusOK,
		},
		{
			name:     "RegisterAccountOK",
			method:   http.MethodPut,
			url:      "/me/id",
			body:     gin.H{"nick": "steve", "id": "100001"},
			username: actor.String(),
			buildStubs: func(s *MockService, lb *MockLeaderboard) {
				s.EXPECT().RegisterAccount(gomock.Any(), actor, "steve", "100001").
					Times(1).
					Return(domain.Identity{ID: actor, Nick: "steve", Account: "100001"}, nil)
			},
			wantStatus: http.StatusOK,
		},
		{
			name:     "RegisterAccountNotNumeric",
			method:   http.MethodPut,
			url:      "/me/id",
			body:     gin.H{"id": "CARD-1"},
			username: actor.String(),
			buildStubs: func(s *MockService, lb *MockLeaderboard) {
				s.EXPECT().RegisterAccount(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Times(0)
			},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:     "SellAccountNotSet",
			method:   http.MethodPost,
			url:      "/sell",
			body:     gin.H{"vault": "1"},
			username: actor.String(),
			buildStubs: func(s *MockService, lb *MockLeaderboard) {
				s.EXPECT().Sell(gomock.Any(), actor, "1").Times(1).Return(domain.Receipt{}, domain.ErrAccountNotSet)
			},
			wantStatus: http.StatusBadRequest,
			wantError:  domain.ErrAccountNotSet.Error(),
		},
		{
			name:     "MyBalanceCardNotSet",
			method:   http.MethodGet,
			url:      "/me/balance",
			username: actor.String(),
			buildStubs: func(s *MockService, lb *MockLeaderboard) {
				s.EXPECT().Balance(gomock.Any(), actor).Times(1).Return(domain.Holdings{}, domain.ErrCardNotSet)
			},
			wantStatus: http.StatusBadRequest,
			wantError:  domain.ErrCardNotSet.Error(),
		},
		{
			name:     "AccountBalanceUnavailable",
			method:   http.MethodGet,
			url:      "/balances/steve",
			username: actor.String(),
			buildStubs: func(s *MockService, lb *MockLeaderboard) {
				s.EXPECT().AccountBalance(gomock.Any(), "steve").Times(1).
					Return(domain.CachedBalance{}, domain.ErrLedgerUnavailable)
			},
			wantStatus: http.StatusServiceUnavailable,
			wantError:  domain.ErrLedgerUnavailable.Error(),
		},
		{
			name:     "ServerPayForbidden",
			method:   http.MethodPost,
			url:      "/server/pay",
			body:     gin.H{"to": "steve", "amount": "1"},
			username: actor.String(),
			buildStubs: func(s *MockService, lb *MockLeaderboard) {
				s.EXPECT().ServerPay(gomock.Any(), gomock.Any(), gomock.Any()).Times(0)
			},
			wantStatus: http.StatusForbidden,
			wantError:  middleware.ErrForbidden.Error(),
		},
		{
			name:     "ServerPayOK",
			method:   http.MethodPost,
			url:      "/server/pay",
			body:     gin.H{"to": "steve", "amount": "1"},
			username: adminUsername,
			buildStubs: func(s *MockService, lb *MockLeaderboard) {
				s.EXPECT().ServerPay(gomock.Any(), "steve", "1").Times(1).Return(domain.Receipt{Kind: domain.KindServerPay}, nil)
			},
			wantStatus: http.StatusOK,
		},
		{
			name:       "ReloadForbidden",
			method:     http.MethodPost,
			url:        "/server/reload",
			username:   actor.String(),
			buildStubs: func(s *MockService, lb *MockLeaderboard) {},
			reload: func(r *MockReloader) {
				r.EXPECT().Reload(gomock.Any()).Times(0)
			},
			wantStatus: http.StatusForbidden,
			wantError:  middleware.ErrForbidden.Error(),
		},
		{
			name:       "ReloadOK",
			method:     http.MethodPost,
			url:        "/server/reload",
			username:   adminUsername,
			buildStubs: func(s *MockService, lb *MockLeaderboard) {},
			reload: func(r *MockReloader) {
				r.EXPECT().Reload(gomock.Any()).Times(1).Return(domain.Settings{BuyRate: 2, SellRate: 3, Cooldown: "1s"}, nil)
			},
			wantStatus: http.StatusOK,
		},
		{
			name:       "ReloadFailed",
			method:     http.MethodPost,
			url:        "/server/reload",
			username:   adminUsername,
			buildStubs: func(s *MockService, lb *MockLeaderboard) {},
			reload: func(r *MockReloader) {
				r.EXPECT().Reload(gomock.Any()).Times(1).Return(domain.Settings{}, errors.New("bad config"))
			},
			wantStatus: http.StatusInternalServerError,
			wantError:  errorspkg.ErrInternal.Error(),
		},
		{
			name:     "WatchUnknownAccount",
			method:   http.MethodGet,
			url:      "/balances/nobody/watch",
			username: actor.String(),
			buildStubs: func(s *MockService, lb *MockLeaderboard) {
				s.EXPECT().Watch(gomock.Any(), "nobody", gomock.Any()).Times(1).Return("", nil, domain.ErrUnknownRecipient)
			},
			wantStatus: http.StatusBadRequest,
			wantError:  domain.ErrUnknownRecipient.Error(),
		},
		{
			name:     "LeaderboardDefaultPage",
			method:   http.MethodGet,
			url:      "/leaderboard",
			username: actor.String(),
			buildStubs: func(s *MockService, lb *MockLeaderboard) {
				lb.EXPECT().RequestPage(gomock.Any(), 1).Times(1).Return(domain.LeaderboardPage{Number: 1, TotalPages: 1}, nil)
			},
			wantStatus: http.StatusOK,
		},
		{
			name:     "LeaderboardInvalidPage",
			method:   http.MethodGet,
			url:      "/leaderboard?page=-1",
			username: actor.String(),
			buildStubs: func(s *MockService, lb *MockLeaderboard) {
				lb.EXPECT().RequestPage(gomock.Any(), gomock.Any()).Times(0)
			},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:     "LeaderboardBuilding",
			method:   http.MethodGet,
			url:      "/leaderboard?page=2",
			username: actor.String(),
			buildStubs: func(s *MockService, lb *MockLeaderboard) {
				lb.EXPECT().RequestPage(gomock.Any(), 2).Times(1).Return(domain.LeaderboardPage{}, domain.ErrBuildInProgress)
			},
			wantStatus: http.StatusServiceUnavailable,
			wantError:  domain.ErrBuildInProgress.Error(),
		},
		{
			name:     "LeaderboardPageNotFound",
			method:   http.MethodGet,
			url:      "/leaderboard?page=9",
			username: actor.String(),
			buildStubs: func(s *MockService, lb *MockLeaderboard) {
				lb.EXPECT().RequestPage(gomock.Any(), 9).Times(1).Return(domain.LeaderboardPage{}, domain.ErrPageNotFound)
			},
			wantStatus: http.StatusNotFound,
			wantError:  domain.ErrPageNotFound.Error(),
		},
		{
			name:     "RankOK",
			method:   http.MethodGet,
			url:      "/leaderboard/rank/123456",
			username: actor.String(),
			buildStubs: func(s *MockService, lb *MockLeaderboard) {
				lb.EXPECT().Rank("123456").Times(1).Return(3, nil)
			},
			wantStatus: http.StatusOK,
		},
		{
			name:     "RankNotRanked",
			method:   http.MethodGet,
			url:      "/leaderboard/rank/123456",
			username: actor.String(),
			buildStubs: func(s *MockService, lb *MockLeaderboard) {
				lb.EXPECT().Rank("123456").Times(1).Return(0, domain.ErrNotRanked)
			},
			wantStatus: http.StatusNotFound,
			wantError:  domain.ErrNotRanked.Error(),
		},
	}

	for i := range testCases {
		tc := testCases[i]

		t.Run(tc.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)

			service := NewMockService(ctrl)
			lb := NewMockLeaderboard(ctrl)
			reloader := NewMockReloader(ctrl)
			tc.buildStubs(service, lb)

			if tc.reload != nil {
				tc.reload(reloader)
			}

			server := setupServer(t, maker, service, lb, reloader)

			var body bytes.Buffer
			if tc.body != nil {
				require.NoError(t, json.NewEncoder(&body).Encode(tc.body))
			}

			request, err := http.NewRequest(tc.method, tc.url, &body)
			require.NoError(t, err)

			if tc.username != "" {
				err := middleware.AddAuthorization(request, maker, middleware.AuthTypeBearer, tc.username, time.Minute)
				require.NoError(t, err)
			}

			recorder := httptest.NewRecorder()
			server.ServeHTTP(recorder, request)

			require.Equal(t, tc.wantStatus, recorder.Code, recorder.Body.String())

			var got web.Response
			require.NoError(t, json.NewDecoder(recorder.Body).Decode(&got))

			if tc.wantError != "" {
				require.Equal(t, tc.wantError, got.Error)
			}

			if tc.wantStatus == http.StatusOK {
				require.Empty(t, got.Error)
				require.NotNil(t, got.Data)
			}
		})
	}
}

func TestRankResponse(t *testing.T) {
	maker, err := tokenpkg.NewPasetoMaker(randompkg.String(32))
	require.NoError(t, err)

	ctrl := gomock.NewController(t)
	lb := NewMockLeaderboard(ctrl)
	lb.EXPECT().Rank("123456").Return(7, nil)

	server := setupServer(t, maker, NewMockService(ctrl), lb, nil)

	request, err := http.NewRequest(http.MethodGet, "/leaderboard/rank/123456", nil)
	require.NoError(t, err)
	require.NoError(t, middleware.AddAuthorization(request, maker, middleware.AuthTypeBearer, "anyone", time.Minute))

	recorder := httptest.NewRecorder()
	server.ServeHTTP(recorder, request)

	var got struct {
		Data rankData `json:"data"`
	}
	require.NoError(t, json.NewDecoder(recorder.Body).Decode(&got))
	require.Equal(t, rankData{Account: "123456", Rank: 7}, got.Data)
}

func TestReloadUnsupported(t *testing.T) {
	maker, err := tokenpkg.NewPasetoMaker(randompkg.String(32))
	require.NoError(t, err)

	ctrl := gomock.NewController(t)
	server := setupServer(t, maker, NewMockService(ctrl), NewMockLeaderboard(ctrl), nil)

	request, err := http.NewRequest(http.MethodPost, "/server/reload", nil)
	require.NoError(t, err)
	require.NoError(t, middleware.AddAuthorization(request, maker, middleware.AuthTypeBearer, adminUsername, time.Minute))

	recorder := httptest.NewRecorder()
	server.ServeHTTP(recorder, request)

	require.Equal(t, http.StatusNotImplemented, recorder.Code)
}

func TestWatchStream(t *testing.T) {
	maker, err := tokenpkg.NewPasetoMaker(randompkg.String(32))
	require.NoError(t, err)

	ctrl := gomock.NewController(t)
	service := NewMockService(ctrl)

	var stopped atomic.Bool

	service.EXPECT().Watch(gomock.Any(), "steve", gomock.Any()).Times(1).
		DoAndReturn(func(_ context.Context, _ string, fn func(domain.BalanceChange)) (string, func(), error) {
			fn(domain.BalanceChange{Account: "123456", Old: 5, New: 5})
			fn(domain.BalanceChange{Account: "123456", Old: 5, New: 8})

			return "123456", func() { stopped.Store(true) }, nil
		})

	server := httptest.NewServer(setupServer(t, maker, service, NewMockLeaderboard(ctrl), nil))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	request, err := http.NewRequestWithContext(ctx, http.MethodGet, server.URL+"/balances/steve/watch", nil)
	require.NoError(t, err)
	require.NoError(t, middleware.AddAuthorization(request, maker, middleware.AuthTypeBearer, "anyone", time.Minute))

	response, err := http.DefaultClient.Do(request)
	require.NoError(t, err)
	defer response.Body.Close()

	require.Equal(t, http.StatusOK, response.StatusCode)
	require.Contains(t, response.Header.Get("Content-Type"), "text/event-stream")

	var got []domain.BalanceChange

	scanner := bufio.NewScanner(response.Body)
	for len(got) < 2 && scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, "data:") {
			continue
		}

		var ch domain.BalanceChange
		require.NoError(t, json.Unmarshal([]byte(strings.TrimPrefix(line, "data:")), &ch))
		got = append(got, ch)
	}

	require.Equal(t, []domain.BalanceChange{
		{Account: "123456", Old: 5, New: 5},
		{Account: "123456", Old: 5, New: 8},
	}, got)

	cancel()

	require.Eventually(t, stopped.Load, 5*time.Second, 10*time.Millisecond)
}
