package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/mkravets/dictmatch/internal/api"
	"github.com/mkravets/dictmatch/internal/config"
	"github.com/mkravets/dictmatch/internal/engine"
	"github.com/mkravets/dictmatch/internal/loader"
	"github.com/mkravets/dictmatch/internal/rules"
	"github.com/mkravets/dictmatch/internal/store"
	"github.com/mkravets/dictmatch/internal/telemetry"
)

func main() {
	log := zerolog.New(os.Stderr).With().Timestamp().Logger()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("config load failed")
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("config validation failed")
	}

	ctx := context.Background()
	st, err := store.NewStore(ctx, cfg.StoreType, cfg.DatabaseDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("store init failed")
	}
	defer st.Close()

	if cfg.RulesFile != "" {
		rs, err := loader.LoadFile(cfg.RulesFile)
		if err != nil {
			log.Fatal().Err(err).Str("file", cfg.RulesFile).Msg("rule file load failed")
		}
		for _, r := range rs {
			if err := st.UpsertRule(ctx, r); err != nil {
				log.Fatal().Err(err).Str("rule", r.ID).Msg("rule seed failed")
			}
		}
		log.Info().Int("rules", len(rs)).Str("file", cfg.RulesFile).Msg("rule file loaded")
	}

	opts := engine.Options{}
	if len(cfg.DomainKeys) > 0 {
		keys := make([]rules.Key, 0, len(cfg.DomainKeys))
		for _, k := range cfg.DomainKeys {
			keys = append(keys, rules.Key(k))
		}
		opts.Domain = rules.NewDomain(keys...)
	}

	telemetry.Init()
	srvAPI := api.NewServer(st, engine.Backend(cfg.MatcherBackend), opts, cfg.QueryCache,
		cfg.AdminAPIKey, cfg.AdminAPIKeyHash, log)

	if err := srvAPI.RebuildSnapshot(ctx); err != nil {
		log.Fatal().Err(err).Msg("initial snapshot build failed")
	}
	log.Info().Str("backend", cfg.MatcherBackend).Msg("initial snapshot built")

	go func() {
		log.Info().Str("addr", cfg.MetricsAddr).Msg("metrics server listening")
		if err := telemetry.StartServer(cfg.MetricsAddr); err != nil {
			log.Error().Err(err).Msg("metrics server stopped")
		}
	}()

	srv := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      srvAPI.Router(),
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	go func() {
		log.Info().Str("addr", cfg.HTTPAddr).Msg("api server listening")
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("api server failed")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	ctxShut, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = srv.Shutdown(ctxShut)
	log.Info().Msg("stopped")
}
