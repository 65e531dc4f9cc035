package main

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/exopredict/exopredict/internal/activation"
	"github.com/exopredict/exopredict/internal/config"
	"github.com/exopredict/exopredict/internal/engine"
	"github.com/exopredict/exopredict/internal/features"
	"github.com/exopredict/exopredict/internal/pipeline"
	"github.com/exopredict/exopredict/internal/telemetry"
)

// app holds the components shared by serve and predict.
type app struct {
	invoker   *engine.Invoker
	pipeline  *pipeline.Pipeline
	emitter   *activation.Emitter
	telemetry *telemetry.Provider
	deriver   features.Deriver
}

func newApp(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*app, error) {
	tp, err := telemetry.NewProvider(ctx, telemetry.Config{
		Enabled:  cfg.Telemetry.Enabled,
		Endpoint: cfg.Telemetry.Endpoint,
		Protocol: cfg.Telemetry.Protocol,
		Service:  cfg.Telemetry.Service,
		Version:  version,
		Logger:   logger.Named("telemetry"),
	})
	if err != nil {
		return nil, err
	}

	em, err := activation.FromConfig(cfg.Activation, logger.Named("activation"))
	if err != nil {
		tp.Shutdown(ctx)
		return nil, err
	}

	inv := engine.New(engine.Config{
		Command:        cfg.Engine.Command,
		Args:           cfg.Engine.Args,
		Dir:            cfg.Engine.Dir,
		Env:            cfg.Engine.Env,
		Timeout:        cfg.Engine.Timeout,
		MaxOutputBytes: cfg.Engine.MaxOutputBytes,
	}, logger.Named("engine"))

	deriver, err := features.NewDeriver(features.EpsilonPlacement(cfg.Features.EpsilonPlacement))
	if err != nil {
		em.Close(ctx)
		tp.Shutdown(ctx)
		return nil, fmt.Errorf("features.epsilon_placement: %w", err)
	}
	p := pipeline.New(inv,
		pipeline.WithDeriver(deriver),
		pipeline.WithEmitter(em),
		pipeline.WithTelemetry(tp),
		pipeline.WithLogger(logger.Named("pipeline")),
		pipeline.WithConcurrency(cfg.Batch.Concurrency),
	)

	return &app{
		invoker:   inv,
		pipeline:  p,
		emitter:   em,
		telemetry: tp,
		deriver:   deriver,
	}, nil
}

// Close drains pending events and flushes telemetry.
func (a *app) Close(timeout time.Duration) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	a.emitter.Close(ctx)
	a.telemetry.Shutdown(ctx)
}
