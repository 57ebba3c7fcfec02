package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	router "github.com/dkeye/LiveTalk/internal/adapters/http"
	"github.com/dkeye/LiveTalk/internal/app"
	"github.com/dkeye/LiveTalk/internal/app/orch"
	"github.com/dkeye/LiveTalk/internal/auth"
	"github.com/dkeye/LiveTalk/internal/config"
	"github.com/dkeye/LiveTalk/internal/identity"
	"github.com/dkeye/LiveTalk/internal/store"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Logger first so config.Load can use it.
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	if lvl, err := zerolog.ParseLevel(cfg.LogLevel); err == nil && cfg.LogLevel != "" {
		zerolog.SetGlobalLevel(lvl)
	}

	st, err := store.Open(ctx, store.Options{
		Driver:      cfg.Store.Driver,
		SQLitePath:  cfg.Store.SQLitePath,
		PostgresDSN: cfg.Store.PostgresDSN,
		RedisURL:    cfg.Store.RedisURL,
		CacheTTL:    cfg.Store.CacheTTL,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open store")
	}
	defer func() {
		if err := st.Close(); err != nil {
			log.Error().Err(err).Msg("store close")
		}
	}()

	bootstrap := auth.NewBootstrap(
		identity.NewService(st, cfg.Auth.BcryptCost),
		st,
		auth.AdminConfig{
			Email:          cfg.Admin.Email,
			FallbackSecret: cfg.Admin.FallbackSecret,
			Provision:      cfg.Admin.Provision,
			Avatar:         cfg.Auth.LogoURL,
		},
		cfg.Auth.AvatarBase,
	)

	o := &orch.Orchestrator{
		Registry: app.NewRegistry(),
		Rooms:    app.NewRoomManager(cfg.Rooms.MaxCapacity),
		Policy:   app.SimplePolicy{},
		Seats:    app.ModeratedSeatPolicy{},
	}
	go o.RunOverlaySweeper(ctx, cfg.Rooms.OverlaySweep)

	r := router.SetupRouter(ctx, cfg, router.Deps{
		Orch:     o,
		Auth:     bootstrap,
		Tokens:   auth.NewTokens(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL),
		Accounts: st,
		Health:   st,
	})
	addr := fmt.Sprintf(":%d", cfg.Port)

	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().Str("addr", addr).Msg("LiveTalk server started")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("server error")
			cancel()
		}
	}()

	<-ctx.Done()
	log.Info().Msg("Shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}
	log.Info().Msg("Server exited gracefully")
}
