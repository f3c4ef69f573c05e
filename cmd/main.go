// Package main runs the coin card service: the ledger task queue, the balance cache, the
// leaderboard and their HTTP API.
package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/go-petr/coincard/cmd/httpserver"
	"github.com/go-petr/coincard/internal/accountstore"
	"github.com/go-petr/coincard/internal/leaderboardrepo"
	"github.com/go-petr/coincard/internal/middleware"
	"github.com/go-petr/coincard/pkg/configpkg"
	"github.com/go-petr/coincard/pkg/dbpkg"

	_ "github.com/lib/pq"
)

const (
	configPath      = "./configs"
	shutdownTimeout = 10 * time.Second
)

func main() {
	config, err := configpkg.Load(configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("cannot load config")
	}

	logger := middleware.GetLogger(config)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := dbpkg.Setup(config.DBDriver, config.DBSource)
	if err != nil {
		logger.Fatal().Err(err).Msg("cannot connect to database")
	}
	defer db.Close()

	store, err := accountstore.Open(config.UsersFile)
	if err != nil {
		logger.Fatal().Err(err).Msg("cannot open users file")
	}

	var rdb *redis.Client

	if config.RedisAddr != "" {
		rdb, err = leaderboardrepo.Connect(ctx, config.RedisAddr)
		if err != nil {
			logger.Fatal().Err(err).Msg("cannot connect to redis")
		}
		defer rdb.Close()
	}

	server, err := httpserver.New(httpserver.Deps{DB: db, Store: store, Redis: rdb, ConfigPath: configPath}, logger, config)
	if err != nil {
		logger.Fatal().Err(err).Msg("cannot create server")
	}

	server.Start(ctx)

	srv := &http.Server{
		Addr:              config.ServerAddress,
		Handler:           server,
		ReadHeaderTimeout: 5 * time.Second,
		// balance watch streams end with ctx
		BaseContext: func(net.Listener) context.Context { return ctx },
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("cannot start server")
		}
	}()

	logger.Info().Str("address", config.ServerAddress).Msg("COINCARD SERVER HAS STARTED")

	<-ctx.Done()

	logger.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("http shutdown")
	}

	server.Shutdown()
}
