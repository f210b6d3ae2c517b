package main

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/tournevent/sendparcel/internal/config"
	"github.com/tournevent/sendparcel/internal/telemetry"
	"github.com/tournevent/sendparcel/pkg/sendparcel"
	"github.com/tournevent/sendparcel/pkg/sendparcel/sendparceltest"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
)

const mockAPIKey = "mock-api-key"

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if useMock {
		cfg.UseMock = true
	}
	if production {
		cfg.Sandbox = false
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func initLogger(cfg *config.Config) (*otelzap.Logger, error) {
	return telemetry.NewLogger(cfg.LogLevel,
		zap.String("service", cfg.ServiceName),
		zap.String("version", cfg.Version),
	)
}

func initTracer(ctx context.Context, cfg *config.Config) (func(context.Context) error, error) {
	if !cfg.OTELEnabled {
		return func(context.Context) error { return nil }, nil
	}

	_, shutdown, err := telemetry.InitTracer(ctx, cfg.OTELEndpoint, cfg.ServiceName, cfg.Version, cfg.Attributes()...)
	return shutdown, err
}

// initClient builds the SendParcel client. With UseMock set it starts an
// in-process fake API and routes the client to it; the returned cleanup
// stops it.
func initClient(cfg *config.Config, logger *otelzap.Logger, reg prometheus.Registerer) (*sendparcel.Client, func(), error) {
	opts := []sendparcel.Option{
		sendparcel.WithUserAgent(cfg.ServiceName + "/" + cfg.Version),
	}
	if reg != nil {
		opts = append(opts, sendparcel.WithMetrics(telemetry.NewMetrics(reg)))
	}

	apiKey := cfg.APIKey
	cleanup := func() {}
	if cfg.UseMock {
		fake := sendparceltest.NewServer()
		if apiKey == "" {
			apiKey = mockAPIKey
		}
		fake.APIKey = apiKey
		opts = append(opts, sendparcel.WithHTTPClient(fake.HTTPClient()))
		cleanup = fake.Close
		logger.Info("Using in-process SendParcel fake", zap.String("url", fake.URL))
	}

	client, err := sendparcel.New(sendparcel.Config{
		APIKey:  apiKey,
		Sandbox: cfg.Sandbox,
		Timeout: cfg.Timeout,
	}, logger, otel.Tracer(cfg.ServiceName), opts...)
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	return client, cleanup, nil
}
