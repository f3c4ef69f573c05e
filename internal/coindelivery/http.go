// Package coindelivery manages delivery layer of coin operations and the leaderboard.
package coindelivery

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/go-petr/coincard/internal/domain"
	"github.com/go-petr/coincard/internal/middleware"
	"github.com/go-petr/coincard/pkg/errorspkg"
	"github.com/go-petr/coincard/pkg/tokenpkg"
	"github.com/go-petr/coincard/pkg/web"
)

var (
	// ErrInvalidIdentity indicates a token whose subject is not an identity.
	ErrInvalidIdentity = errors.New("token subject is not an identity")
	// ErrReloadUnsupported indicates a handler built without a Reloader.
	ErrReloadUnsupported = errors.New("configuration reload is not supported")
)

const watchBuffer = 16

// Service provides service layer interface needed by coin delivery layer.
//
//go:generate mockgen -source http.go -destination http_mock.go -package coindelivery
type Service interface {
	RegisterAccount(ctx context.Context, id uuid.UUID, nick, account string) (domain.Identity, error)
	RegisterCard(ctx context.Context, id uuid.UUID, nick, card string) (domain.Identity, error)
	Balance(ctx context.Context, id uuid.UUID) (domain.Holdings, error)
	AccountBalance(ctx context.Context, nameOrAccount string) (domain.CachedBalance, error)
	Watch(ctx context.Context, nameOrAccount string, fn func(domain.BalanceChange)) (string, func(), error)
	Pay(ctx context.Context, actor uuid.UUID, to, amount string) (domain.Receipt, error)
	Buy(ctx context.Context, actor uuid.UUID, amount string) (domain.Receipt, error)
	Sell(ctx context.Context, actor uuid.UUID, amount string) (domain.Receipt, error)
	ServerPay(ctx context.Context, to, amount string) (domain.Receipt, error)
}

// Leaderboard provides the ranked view of all accounts.
type Leaderboard interface {
	RequestPage(ctx context.Context, number int) (domain.LeaderboardPage, error)
	Rank(account string) (int, error)
}

// Reloader re-reads the exchange configuration.
type Reloader interface {
	Reload(ctx context.Context) (domain.Settings, error)
}

// Handler facilitates coin delivery layer logic.
type Handler struct {
	service     Service
	leaderboard Leaderboard
	reloader    Reloader
}

// NewHandler returns coin handler.
func NewHandler(s Service, lb Leaderboard) *Handler {
	return &Handler{
		service:     s,
		leaderboard: lb,
	}
}

// WithReloader enables the Reload handler.
func (h *Handler) WithReloader(r Reloader) *Handler {
	h.reloader = r
	return h
}

func status(err error) (int, error) {
	switch {
	case errors.Is(err, domain.ErrInvalidAmount),
		errors.Is(err, domain.ErrNegativeAmount),
		errors.Is(err, domain.ErrInvalidAccount),
		errors.Is(err, domain.ErrCardNotSet),
		errors.Is(err, domain.ErrAccountNotSet),
		errors.Is(err, domain.ErrUnknownRecipient),
		errors.Is(err, domain.ErrInsufficientBalance),
		errors.Is(err, domain.ErrLowServerBalance):
		return http.StatusBadRequest, err
	case errors.Is(err, domain.ErrTransferRejected):
		return http.StatusUnprocessableEntity, err
	case errors.Is(err, domain.ErrIdentityNotFound),
		errors.Is(err, domain.ErrPageNotFound),
		errors.Is(err, domain.ErrNotRanked):
		return http.StatusNotFound, err
	case errors.Is(err, domain.ErrCooldown):
		return http.StatusTooManyRequests, err
	case errors.Is(err, domain.ErrLedgerUnavailable),
		errors.Is(err, domain.ErrBalanceUnavailable),
		errors.Is(err, domain.ErrBuildInProgress),
		errors.Is(err, domain.ErrLeaderboardUnavailable),
		errors.Is(err, domain.ErrShutdown):
		return http.StatusServiceUnavailable, err
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, err
	case errors.Is(err, ErrReloadUnsupported):
		return http.StatusNotImplemented, err
	}

	return http.StatusInternalServerError, errorspkg.ErrInternal
}

func (h *Handler) fail(gctx *gin.Context, err error) {
	code, err := status(err)
	if code >= http.StatusInternalServerError {
		zerolog.Ctx(gctx.Request.Context()).Error().Err(err).Send()
	} else {
		zerolog.Ctx(gctx.Request.Context()).Info().Err(err).Send()
	}

	gctx.JSON(code, web.Error(err))
}

func identity(gctx *gin.Context) (uuid.UUID, bool) {
	payload := gctx.MustGet(middleware.AuthPayloadKey).(*tokenpkg.Payload)

	id, err := uuid.Parse(payload.Username)
	if err != nil {
		gctx.JSON(http.StatusUnauthorized, web.Error(ErrInvalidIdentity))
		return uuid.Nil, false
	}

	return id, true
}

type accountRequest struct {
	Nick string `json:"nick" binding:"omitempty,max=32"`
	ID   string `json:"id" binding:"required,numeric,min=6"`
}

// RegisterAccount handles http request to set the public ledger account id of the caller.
func (h *Handler) RegisterAccount(gctx *gin.Context) {
	var req accountRequest
	if err := gctx.ShouldBindJSON(&req); err != nil {
		zerolog.Ctx(gctx.Request.Context()).Info().Err(err).Send()
		gctx.JSON(http.StatusBadRequest, web.Error(err))

		return
	}

	id, ok := identity(gctx)
	if !ok {
		return
	}

	ident, err := h.service.RegisterAccount(gctx.Request.Context(), id, req.Nick, req.ID)
	if err != nil {
		h.fail(gctx, err)
		return
	}

	gctx.JSON(http.StatusOK, web.Data(ident))
}

type cardRequest struct {
	Nick string `json:"nick" binding:"omitempty,max=32"`
	Card string `json:"card" binding:"required"`
}

// RegisterCard handles http request to set the spend card of the caller.
func (h *Handler) RegisterCard(gctx *gin.Context) {
	var req cardRequest
	if err := gctx.ShouldBindJSON(&req); err != nil {
		zerolog.Ctx(gctx.Request.Context()).Info().Err(err).Send()
		gctx.JSON(http.StatusBadRequest, web.Error(err))

		return
	}

	id, ok := identity(gctx)
	if !ok {
		return
	}

	ident, err := h.service.RegisterCard(gctx.Request.Context(), id, req.Nick, req.Card)
	if err != nil {
		h.fail(gctx, err)
		return
	}

	gctx.JSON(http.StatusOK, web.Data(ident))
}

// MyBalance handles http request to get the coins and vault of the caller.
func (h *Handler) MyBalance(gctx *gin.Context) {
	id, ok := identity(gctx)
	if !ok {
		return
	}

	holdings, err := h.service.Balance(gctx.Request.Context(), id)
	if err != nil {
		h.fail(gctx, err)
		return
	}

	gctx.JSON(http.StatusOK, web.Data(holdings))
}

// AccountBalance handles http request to get the balance of a nick or account.
func (h *Handler) AccountBalance(gctx *gin.Context) {
	balance, err := h.service.AccountBalance(gctx.Request.Context(), gctx.Param("account"))
	if err != nil {
		h.fail(gctx, err)
		return
	}

	gctx.JSON(http.StatusOK, web.Data(balance))
}

// Watch streams balance changes of a nick or account as server-sent events until the
// client goes away.
func (h *Handler) Watch(gctx *gin.Context) {
	ctx := gctx.Request.Context()
	l := zerolog.Ctx(ctx)
	changes := make(chan domain.BalanceChange, watchBuffer)

	account, stop, err := h.service.Watch(ctx, gctx.Param("account"), func(ch domain.BalanceChange) {
		select {
		case changes <- ch:
		default:
			l.Warn().Str("account", ch.Account).Msg("watch: slow client, change dropped")
		}
	})
	if err != nil {
		h.fail(gctx, err)
		return
	}
	defer stop()

	l.Info().Str("account", account).Msg("watch started")

	gctx.Header("Cache-Control", "no-cache")
	gctx.Stream(func(io.Writer) bool {
		select {
		case ch := <-changes:
			gctx.SSEvent("balance", ch)
			return true
		case <-ctx.Done():
			return false
		}
	})

	l.Info().Str("account", account).Msg("watch stopped")
}

type payRequest struct {
	To     string `json:"to" binding:"required"`
	Amount string `json:"amount" binding:"required,amount"`
}

// Pay handles http request to send coins to another account.
func (h *Handler) Pay(gctx *gin.Context) {
	var req payRequest
	if err := gctx.ShouldBindJSON(&req); err != nil {
		zerolog.Ctx(gctx.Request.Context()).Info().Err(err).Send()
		gctx.JSON(http.StatusBadRequest, web.Error(err))

		return
	}

	id, ok := identity(gctx)
	if !ok {
		return
	}

	receipt, err := h.service.Pay(gctx.Request.Context(), id, req.To, req.Amount)
	if err != nil {
		h.fail(gctx, err)
		return
	}

	gctx.JSON(http.StatusOK, web.Data(receipt))
}

type buyRequest struct {
	Coins string `json:"coins" binding:"required,amount"`
}

// Buy handles http request to convert coins into vault.
func (h *Handler) Buy(gctx *gin.Context) {
	var req buyRequest
	if err := gctx.ShouldBindJSON(&req); err != nil {
		zerolog.Ctx(gctx.Request.Context()).Info().Err(err).Send()
		gctx.JSON(http.StatusBadRequest, web.Error(err))

		return
	}

	id, ok := identity(gctx)
	if !ok {
		return
	}

	receipt, err := h.service.Buy(gctx.Request.Context(), id, req.Coins)
	if err != nil {
		h.fail(gctx, err)
		return
	}

	gctx.JSON(http.StatusOK, web.Data(receipt))
}

type sellRequest struct {
	Vault string `json:"vault" binding:"required,amount"`
}

// Sell handles http request to convert vault into coins.
func (h *Handler) Sell(gctx *gin.Context) {
	var req sellRequest
	if err := gctx.ShouldBindJSON(&req); err != nil {
		zerolog.Ctx(gctx.Request.Context()).Info().Err(err).Send()
		gctx.JSON(http.StatusBadRequest, web.Error(err))

		return
	}

	id, ok := identity(gctx)
	if !ok {
		return
	}

	receipt, err := h.service.Sell(gctx.Request.Context(), id, req.Vault)
	if err != nil {
		h.fail(gctx, err)
		return
	}

	gctx.JSON(http.StatusOK, web.Data(receipt))
}

// ServerPay handles the admin request to pay from the server card.
func (h *Handler) ServerPay(gctx *gin.Context) {
	var req payRequest
	if err := gctx.ShouldBindJSON(&req); err != nil {
		zerolog.Ctx(gctx.Request.Context()).Info().Err(err).Send()
		gctx.JSON(http.StatusBadRequest, web.Error(err))

		return
	}

	receipt, err := h.service.ServerPay(gctx.Request.Context(), req.To, req.Amount)
	if err != nil {
		h.fail(gctx, err)
		return
	}

	gctx.JSON(http.StatusOK, web.Data(receipt))
}

// Reload handles the admin request to re-read rates, cooldown and server accounts.
func (h *Handler) Reload(gctx *gin.Context) {
	if h.reloader == nil {
		h.fail(gctx, ErrReloadUnsupported)
		return
	}

	settings, err := h.reloader.Reload(gctx.Request.Context())
	if err != nil {
		h.fail(gctx, err)
		return
	}

	gctx.JSON(http.StatusOK, web.Data(settings))
}

type pageRequest struct {
	Page int `form:"page" binding:"omitempty,min=1"`
}

// Leaderboard handles http request to get a leaderboard page.
func (h *Handler) Leaderboard(gctx *gin.Context) {
	var req pageRequest
	if err := gctx.ShouldBindQuery(&req); err != nil {
		zerolog.Ctx(gctx.Request.Context()).Info().Err(err).Send()
		gctx.JSON(http.StatusBadRequest, web.Error(err))

		return
	}

	if req.Page == 0 {
		req.Page = 1
	}

	page, err := h.leaderboard.RequestPage(gctx.Request.Context(), req.Page)
	if err != nil {
		h.fail(gctx, err)
		return
	}

	gctx.JSON(http.StatusOK, web.Data(page))
}

type rankData struct {
	Account string `json:"account"`
	Rank    int    `json:"rank"`
}

// Rank handles http request to get the leaderboard position of an account.
func (h *Handler) Rank(gctx *gin.Context) {
	account := gctx.Param("account")

	rank, err := h.leaderboard.Rank(account)
	if err != nil {
		h.fail(gctx, err)
		return
	}

	gctx.JSON(http.StatusOK, web.Data(rankData{Account: account, Rank: rank}))
}
