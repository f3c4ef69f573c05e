// Package httpserver wires the coin subsystem and routes its HTTP facade.
package httpserver

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/go-petr/coincard/internal/accountstore"
	"github.com/go-petr/coincard/internal/balancecache"
	"github.com/go-petr/coincard/internal/coindelivery"
	"github.com/go-petr/coincard/internal/cooldown"
	"github.com/go-petr/coincard/internal/domain"
	"github.com/go-petr/coincard/internal/exchange"
	"github.com/go-petr/coincard/internal/leaderboard"
	"github.com/go-petr/coincard/internal/leaderboardrepo"
	"github.com/go-petr/coincard/internal/ledgerclient"
	"github.com/go-petr/coincard/internal/middleware"
	"github.com/go-petr/coincard/internal/taskqueue"
	"github.com/go-petr/coincard/internal/treasuryrepo"
	"github.com/go-petr/coincard/pkg/configpkg"
	"github.com/go-petr/coincard/pkg/tokenpkg"
)

// Deps holds the connections opened by the caller.
type Deps struct {
	DB    *sql.DB
	Store *accountstore.StoreYAML
	// Redis is optional. When set every leaderboard snapshot is published to it.
	Redis *redis.Client
	// ConfigPath is the directory POST /server/reload reads app.env from. Reload is
	// disabled when empty.
	ConfigPath string
}

// Server holds the running components, handlers router and configuration.
type Server struct {
	Engine      *gin.Engine
	Config      configpkg.Config
	Cache       *balancecache.Cache
	Queue       *taskqueue.Queue
	Leaderboard *leaderboard.Builder
	TokenMaker  tokenpkg.Maker

	exchange   *exchange.Service
	gate       *cooldown.Gate
	configPath string
}

// ServeHTTP implements the http.Handler interface for the Server type.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.Engine.ServeHTTP(w, r)
}

func exchangeOptions(config configpkg.Config) (exchange.Options, error) {
	var serverIdentity uuid.UUID

	if config.ServerIdentity != "" {
		id, err := uuid.Parse(config.ServerIdentity)
		if err != nil {
			return exchange.Options{}, fmt.Errorf("invalid SERVER_IDENTITY: %w", err)
		}

		serverIdentity = id
	}

	return exchange.Options{
		ServerIdentity: serverIdentity,
		ServerLedgerID: config.ServerLedgerID,
		ServerCard:     config.ServerCard,
		BuyRate:        config.BuyRate,
		SellRate:       config.SellRate,
	}, nil
}

// New creates Server type with instantiated components and routes.
func New(deps Deps, logger zerolog.Logger, config configpkg.Config) (*Server, error) {
	opts, err := exchangeOptions(config)
	if err != nil {
		return nil, err
	}

	tokenMaker, err := tokenpkg.New(config.TokenType, config.TokenSymmetricKey)
	if err != nil {
		return nil, fmt.Errorf("cannot create token maker: %w", err)
	}

	ledger := ledgerclient.New(config.LedgerAPI, config.LedgerTimeout, logger)
	cache := balancecache.New(ledger, logger)
	queue := taskqueue.New(logger)
	gate := cooldown.New(config.UserCooldown)

	board := leaderboard.New(deps.Store, ledger, leaderboard.Options{
		TTL:      config.LeaderboardTTL,
		Stagger:  config.LeaderboardStagger,
		PageSize: config.LeaderboardPageSize,
	}, logger)

	if deps.Redis != nil {
		board.WithPublisher(leaderboardrepo.NewRepoRedis(deps.Redis, 0))
	}

	service := exchange.New(deps.Store, cache, treasuryrepo.NewRepoPGS(deps.DB), queue, gate, opts)

	server := &Server{
		Config:      config,
		Cache:       cache,
		Queue:       queue,
		Leaderboard: board,
		TokenMaker:  tokenMaker,
		exchange:    service,
		gate:        gate,
		configPath:  deps.ConfigPath,
	}

	handler := coindelivery.NewHandler(service, board).WithReloader(server)

	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()

	engine.Use(middleware.RequestLogger(logger))
	engine.Use(gin.Recovery())

	engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	authRoutes := engine.Group("/").Use(middleware.AuthMiddleware(tokenMaker))

	authRoutes.PUT("/me/id", handler.RegisterAccount)
	authRoutes.PUT("/me/card", handler.RegisterCard)
	authRoutes.GET("/me/balance", handler.MyBalance)
	authRoutes.GET("/balances/:account", handler.AccountBalance)
	authRoutes.GET("/balances/:account/watch", handler.Watch)
	authRoutes.POST("/pay", handler.Pay)
	authRoutes.POST("/buy", handler.Buy)
	authRoutes.POST("/sell", handler.Sell)
	authRoutes.GET("/leaderboard", handler.Leaderboard)
	authRoutes.GET("/leaderboard/rank/:account", handler.Rank)

	authRoutes.POST("/server/pay", middleware.AdminOnly(config.AdminUsername), handler.ServerPay)
	authRoutes.POST("/server/reload", middleware.AdminOnly(config.AdminUsername), handler.Reload)

	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		err := v.RegisterValidation("amount", coindelivery.ValidAmount)
		if err != nil {
			return nil, errors.New("cannot register amount validator")
		}
	}

	server.Engine = engine

	return server, nil
}

// Reload re-reads app.env and applies the exchange rates, the cooldown and the server
// accounts. Operations already queued keep the settings they started with. Everything
// else in Config needs a restart.
func (s *Server) Reload(ctx context.Context) (domain.Settings, error) {
	if s.configPath == "" {
		return domain.Settings{}, coindelivery.ErrReloadUnsupported
	}

	config, err := configpkg.Load(s.configPath)
	if err != nil {
		return domain.Settings{}, fmt.Errorf("cannot load config: %w", err)
	}

	opts, err := exchangeOptions(config)
	if err != nil {
		return domain.Settings{}, err
	}

	s.exchange.SetOptions(opts)
	s.gate.SetInterval(config.UserCooldown)

	zerolog.Ctx(ctx).Info().
		Float64("buy_rate", opts.BuyRate).
		Float64("sell_rate", opts.SellRate).
		Dur("cooldown", config.UserCooldown).
		Str("server_id", opts.ServerLedgerID).
		Msg("configuration reloaded")

	return domain.Settings{
		BuyRate:        opts.BuyRate,
		SellRate:       opts.SellRate,
		Cooldown:       config.UserCooldown.String(),
		ServerLedgerID: opts.ServerLedgerID,
	}, nil
}

// Start runs the queue driver and the balance poll until ctx is done or Shutdown is called.
func (s *Server) Start(ctx context.Context) {
	go s.Queue.Run(ctx, s.Config.QueueInterval)
	go s.Cache.RunPoll(ctx, s.Config.BalancePollInterval)
}

// Shutdown drops pending tasks and stops the cache and the leaderboard.
func (s *Server) Shutdown() {
	s.Queue.Shutdown()
	s.Cache.Shutdown()
	s.Leaderboard.Shutdown()
}
