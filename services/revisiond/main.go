// Copyright (C) 2026 LexForge AI (oss@lexforge.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"

	"github.com/LexForgeAI/LexForge/pkg/logging"
	"github.com/LexForgeAI/LexForge/services/revision/collab"
	"github.com/LexForgeAI/LexForge/services/revision/config"
	"github.com/LexForgeAI/LexForge/services/revision/diff"
	"github.com/LexForgeAI/LexForge/services/revision/notify"
	"github.com/LexForgeAI/LexForge/services/revision/rollback"
	"github.com/LexForgeAI/LexForge/services/revisiond/observability"
	"github.com/LexForgeAI/LexForge/services/revisiond/routes"
	"github.com/LexForgeAI/LexForge/services/revisiond/ttl"

	// --- OpenTelemetry imports ---
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

func initTracer(endpoint string) (func(context.Context), error) {
	ctx := context.Background()

	conn, err := grpc.NewClient(endpoint,
		grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, err
	}
	traceExporter, err := otlptracegrpc.New(ctx, otlptracegrpc.WithGRPCConn(conn))
	if err != nil {
		return nil, err
	}
	res, err := resource.New(ctx,
		resource.WithAttributes(semconv.ServiceNameKey.String("revisiond")))
	if err != nil {
		return nil, err
	}
	bsp := sdktrace.NewBatchSpanProcessor(traceExporter)
	traceProvider := sdktrace.NewTracerProvider(
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
		sdktrace.WithResource(res),
		sdktrace.WithSpanProcessor(bsp))
	otel.SetTracerProvider(traceProvider)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(propagation.
		TraceContext{}, propagation.Baggage{}))

	return func(ctx context.Context) {
		ctx, cancel := context.WithTimeout(ctx, time.Second*5)
		defer cancel()
		if err := traceExporter.Shutdown(ctx); err != nil {
			slog.Error("failed to shutdown OTLP exporter", "error", err)
		}
	}, nil
}

func main() {
	logger := logging.New(logging.Config{
		Level:   logging.ParseLevel(os.Getenv("REVISIOND_LOG_LEVEL")),
		Service: "revisiond",
		JSON:    true,
	})
	defer logger.Close()
	slog.SetDefault(logger.Logger)

	configPath := os.Getenv("REVISIOND_CONFIG")
	if configPath == "" {
		configPath = "revisiond.yaml"
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	// --- Init the tracer ---
	if cfg.Server.OTLPEndpoint != "" {
		cleanup, err := initTracer(cfg.Server.OTLPEndpoint)
		if err != nil {
			log.Fatalf("failed to setup the OTLP tracer: %v", err)
		}
		defer cleanup(context.Background())
	} else {
		slog.Info("OTLP endpoint not set, trace export disabled")
	}

	observability.InitMetrics()

	// Hot-reload the impact policy: the differ reads it through the
	// watcher on every Compute. File watching is skipped when the config
	// file does not exist.
	policy := func() diff.ImpactPolicy { return cfg.Impact }
	if _, err := os.Stat(configPath); err == nil {
		watcher, werr := config.NewPolicyWatcher(configPath, cfg.Impact)
		if werr != nil {
			log.Fatalf("failed to watch config file: %v", werr)
		}
		defer watcher.Stop()
		policy = watcher.Current
	}

	differ := diff.NewDifferWithPolicyFunc(policy)
	planner := rollback.NewPlanner()
	hub := notify.NewHub()
	sessions := collab.NewServer(collab.WithUpdateSink(func(u collab.DiffUpdate) {
		hub.Notify(notify.SessionTopic(u.SessionID), u)
	}))

	router := gin.Default()
	router.Use(otelgin.Middleware("revisiond"))
	routes.SetupRoutes(router, routes.Deps{
		Differ:          differ,
		Planner:         planner,
		Sessions:        sessions,
		Hub:             hub,
		APIKey:          cfg.Server.APIKey,
		StreamBatchSize: cfg.Stream.BatchSize,
	})

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router,
	}

	ctx, stop := signal.NotifyContext(context.Background(),
		syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		slog.Info("starting revisiond", "port", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		reaper := ttl.NewReaper(sessions, cfg.Sessions.IdleTTL, cfg.Sessions.ReapInterval)
		if err := reaper.Run(gctx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Fatalf("revisiond exited with error: %v", err)
	}
	slog.Info("revisiond shut down cleanly")
}
