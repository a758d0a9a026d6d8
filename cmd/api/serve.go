package main

import (
	"context"
	"io"
	"os/signal"
	"syscall"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/m-mizutani/goerr/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	planner "go-toolchat/internal/agents/planner/handler"
	sessionactor "go-toolchat/internal/agents/session/actor"
	"go-toolchat/internal/agents/session/handler"
	"go-toolchat/internal/api"
	"go-toolchat/internal/config"
	"go-toolchat/internal/llm"
	"go-toolchat/internal/llm/gemini"
	"go-toolchat/internal/llm/openai"
	"go-toolchat/internal/metrics"
	"go-toolchat/internal/store"
	"go-toolchat/internal/store/postgres"
	"go-toolchat/internal/store/redis"
	"go-toolchat/internal/telemetry"
	"go-toolchat/internal/tools"
	"go-toolchat/pkg/logger"
)

func serveCMD() *cobra.Command {
	var addr string

	serve := &cobra.Command{
		Use:   "serve",
		Short: "Run the chat server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath(cmd))
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.Server.Address = addr
			}
			return run(cmd.Context(), cfg)
		},
	}
	serve.Flags().StringVar(&addr, "addr", "", "listen address (overrides server.address)")

	return serve
}

func run(ctx context.Context, cfg *config.Config) error {
	if err := logger.NewGlobal(cfg.General.LogLevel, cfg.General.PrettyLogs); err != nil {
		return goerr.Wrap(err, "failed to initialize logger")
	}

	shutdownTracing, err := telemetry.Init(ctx, cfg.Telemetry)
	if err != nil {
		return err
	}
	defer func() {
		if err := shutdownTracing(context.Background()); err != nil {
			log.Warn().Err(err).Msg("failed to flush traces")
		}
	}()

	st, closer, err := openStore(ctx, cfg.Storage)
	if err != nil {
		return err
	}
	if closer != nil {
		defer closer.Close()
	}

	client, err := newLLM(ctx, cfg.LLM)
	if err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	registry := tools.FromConfig(tools.Config{
		Timeout:         cfg.Tools.Timeout,
		UserAgent:       cfg.Tools.UserAgent,
		GeocodingURL:    cfg.Tools.GeocodingURL,
		ForecastURL:     cfg.Tools.ForecastURL,
		EncyclopediaURL: cfg.Tools.EncyclopediaURL,
		SatelliteURL:    cfg.Tools.SatelliteURL,
	})
	plan, err := planner.New(client, registry, m, planner.Config{
		Temperature: cfg.LLM.PlannerTemperature,
		MaxTokens:   cfg.LLM.PlannerMaxTokens,
	})
	if err != nil {
		return err
	}

	deps := handler.Deps{
		Store:    st,
		Planner:  plan,
		LLM:      client,
		Registry: registry,
		Metrics:  m,
	}
	sessionCfg := handler.Config{
		DefaultModel:    cfg.LLM.DefaultModel,
		ContextWindow:   cfg.Session.ContextWindow,
		TTL:             cfg.Session.TTL,
		TurnTimeout:     cfg.Session.TurnTimeout,
		ChatTemperature: cfg.LLM.ChatTemperature,
		ChatMaxTokens:   cfg.LLM.ChatMaxTokens,
	}

	system := actor.NewActorSystem().Root
	app := api.New(system, cfg.Server, func(id string) *actor.Props {
		return sessionactor.Props(id, deps, sessionCfg)
	}, reg)

	errs := make(chan error, 1)
	go func() {
		errs <- app.Start()
	}()

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	select {
	case <-ctx.Done():
	case err := <-errs:
		if err != nil {
			return err
		}
	}
	stop()
	log.Info().Msg("shutting down gracefully")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := app.Stop(ctx); err != nil {
		return goerr.Wrap(err, "server forced to shutdown")
	}

	log.Info().Msg("server exiting")
	return nil
}

func openStore(ctx context.Context, cfg config.StorageConfig) (store.Store, io.Closer, error) {
	switch cfg.Backend {
	case config.BackendRedis:
		s, err := redis.Connect(ctx, redis.Config{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
		if err != nil {
			return nil, nil, err
		}
		return s, s, nil
	case config.BackendPostgres:
		s, err := postgres.Open(ctx, cfg.Postgres.URL)
		if err != nil {
			return nil, nil, err
		}
		return s, s, nil
	default:
		return store.NewMemory(), nil, nil
	}
}

func newLLM(ctx context.Context, cfg config.LLMConfig) (llm.Client, error) {
	switch cfg.Provider {
	case config.ProviderGemini:
		return gemini.New(ctx, gemini.Config{APIKey: cfg.APIKey, BaseURL: cfg.BaseURL, DefaultModel: cfg.DefaultModel})
	default:
		return openai.New(openai.Config{BaseURL: cfg.BaseURL, APIKey: cfg.APIKey, DefaultModel: cfg.DefaultModel})
	}
}
