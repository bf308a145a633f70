package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/kbukum/draftkit/auth"
	"github.com/kbukum/draftkit/auth/jwt"
	"github.com/kbukum/draftkit/bootstrap"
	"github.com/kbukum/draftkit/draft"
	"github.com/kbukum/draftkit/draftapi"
	"github.com/kbukum/draftkit/encryption"
	"github.com/kbukum/draftkit/observability"
	"github.com/kbukum/draftkit/server"
	"github.com/kbukum/draftkit/storage"
	"github.com/kbukum/draftkit/upload"
)

const meterName = "github.com/kbukum/draftkit/cmd/draftd"

// service holds what wire built, for main and the tests.
type service struct {
	server *server.Server
	maint  *draft.Maintenance
}

// wire registers the backend, janitor and HTTP server components on app.
// ctx bounds background work such as the rate limiter sweeper.
func wire(ctx context.Context, app *bootstrap.App[*Config]) (*service, error) {
	cfg := app.Cfg
	log := app.Logger

	meter := observability.Meter(meterName)
	draftMetrics, err := observability.NewDraftMetrics(meter)
	if err != nil {
		return nil, fmt.Errorf("draft metrics: %w", err)
	}
	requestMetrics, err := observability.NewMetrics(meter)
	if err != nil {
		return nil, fmt.Errorf("request metrics: %w", err)
	}

	b := newBackend(cfg, log)
	for _, c := range b.components {
		if err := app.RegisterComponent(c); err != nil {
			return nil, err
		}
	}

	maint := draft.NewMaintenance(b.store, cfg.Drafts, nil, draftMetrics)
	if cfg.Janitor.Enabled {
		if err := app.RegisterComponent(draft.NewJanitor(maint, cfg.Janitor)); err != nil {
			return nil, err
		}
	}

	opts := []draftapi.Option{draftapi.WithLogger(log), draftapi.WithMetrics(draftMetrics)}
	var validator auth.TokenValidator
	if cfg.Auth.Enabled {
		svc, err := jwt.NewService(cfg.Auth.JWT, jwt.NewClaims)
		if err != nil {
			return nil, fmt.Errorf("auth: %w", err)
		}
		validator = svc
		opts = append(opts, draftapi.WithSubjectNamespace())
	}
	if cfg.Encryption.Enabled {
		enc, err := encryption.NewFromConfig(cfg.Encryption)
		if err != nil {
			return nil, fmt.Errorf("encryption: %w", err)
		}
		opts = append(opts, draftapi.WithEncryptor(enc))
	}
	drafts, err := draftapi.NewHandler(b.store, cfg.Drafts, opts...)
	if err != nil {
		return nil, err
	}

	srv := server.New(cfg.Server, log)
	srv.ApplyMiddleware(validator)
	srv.UseRouteMiddleware(ctx, requestMetrics)
	srv.RegisterDefaultEndpoints(cfg.Name, app.Components.HealthAll, app.Components.Describe)
	drafts.Register(srv.GinEngine())

	if b.objects != nil {
		uploader, err := upload.NewUploader(storage.NewDeferred(b.objects.Storage), cfg.Upload, log)
		if err != nil {
			return nil, err
		}
		draftapi.NewUploadHandler(uploader).Register(srv.GinEngine())
	}

	if err := app.RegisterComponent(server.NewComponent(srv)); err != nil {
		return nil, err
	}
	return &service{server: srv, maint: maint}, nil
}

// initObservability installs the OTLP tracer and meter providers when
// enabled and returns the hook that flushes them on shutdown.
func initObservability(ctx context.Context, cfg *Config) (bootstrap.Hook, error) {
	if !cfg.Observability.Enabled {
		return func(context.Context) error { return nil }, nil
	}
	tp, err := observability.InitTracer(ctx, cfg.Observability.TracerConfig(cfg.Name, cfg.Environment))
	if err != nil {
		return nil, err
	}
	mp, err := observability.InitMeter(ctx, cfg.Observability.MeterConfig(cfg.Name, cfg.Environment))
	if err != nil {
		_ = tp.Shutdown(ctx)
		return nil, err
	}
	return func(ctx context.Context) error {
		return errors.Join(tp.Shutdown(ctx), mp.Shutdown(ctx))
	}, nil
}
