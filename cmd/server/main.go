package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	router "github.com/scrumdeck/scrumdeck/internal/adapters/http"
	signalws "github.com/scrumdeck/scrumdeck/internal/adapters/signal"
	"github.com/scrumdeck/scrumdeck/internal/app"
	"github.com/scrumdeck/scrumdeck/internal/auth"
	"github.com/scrumdeck/scrumdeck/internal/config"
	"github.com/scrumdeck/scrumdeck/internal/core"
	"github.com/scrumdeck/scrumdeck/internal/store"
	"github.com/scrumdeck/scrumdeck/internal/worker"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	_ = godotenv.Load()

	// Initialize zerolog global logger early so config.Load can use it.
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	// Human-friendly output for terminal; in production you may want JSON only.
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	var (
		st       *store.Store
		authSvc  *auth.Service
		archiver app.Archiver
		archive  *worker.Server
	)

	if cfg.DatabaseURL != "" {
		st, err = store.Open(cfg.DatabaseURL)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to open store")
		}
		authSvc, err = auth.NewService(st, cfg.Secret, cfg.JWTExpiry)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to init auth service")
		}
	} else {
		log.Warn().Msg("no database_url configured, running realtime-only")
	}

	if cfg.RedisAddr != "" && st != nil {
		enq := worker.NewEnqueuer(cfg.RedisAddr)
		defer enq.Close()
		archiver = enq

		archive = worker.NewServer(cfg.RedisAddr, st)
		go func() {
			if err := archive.Start(); err != nil {
				log.Error().Err(err).Msg("archive worker error")
			}
		}()
	}

	rooms := core.NewRegistry(cfg.TimerSeconds)
	coord := app.NewCoordinator(rooms, archiver)
	limiter := signalws.NewEventRateLimiter(cfg.EventRateLimit, time.Second)
	ctl := signalws.NewController(coord, limiter)
	ctl.ReadLimit = cfg.ReadLimit
	if cfg.PingPeriod > 0 {
		ctl.PingPeriod = cfg.PingPeriod
	}

	r := router.SetupRouter(ctx, cfg, router.Deps{
		Rooms:  rooms,
		Signal: ctl,
		Store:  st,
		Auth:   authSvc,
	})
	addr := fmt.Sprintf(":%d", cfg.Port)

	srv := &http.Server{
		Addr:    addr,
		Handler: r,
	}

	go func() {
		log.Info().Str("addr", addr).Msg("Scrumdeck server started")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("server error")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("Shutting down")
	if archive != nil {
		archive.Shutdown()
	}
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}
	log.Info().Msg("Server exited gracefully")
}
