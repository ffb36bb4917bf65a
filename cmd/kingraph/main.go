// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/AleutianAI/KinGraph/pkg/logging"
	"github.com/AleutianAI/KinGraph/services/kinship/cache"
	"github.com/AleutianAI/KinGraph/services/kinship/engine"
	"github.com/AleutianAI/KinGraph/services/kinship/graph"
	"github.com/AleutianAI/KinGraph/services/kinship/observability"
	"github.com/AleutianAI/KinGraph/services/kinship/routes"
	"github.com/AleutianAI/KinGraph/services/kinship/store/badgerstore"
	"github.com/AleutianAI/KinGraph/services/kinship/store/memstore"

	// --- OpenTelemetry imports ---
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
)

func initTracer() (func(context.Context), error) {
	ctx := context.Background()

	otelEndpoint := os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT")
	if otelEndpoint == "" {
		slog.Info("OTEL_EXPORTER_OTLP_ENDPOINT not set, tracing disabled")
		return func(context.Context) {}, nil
	}
	conn, err := grpc.NewClient(otelEndpoint,
		grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, err
	}
	traceExporter, err := otlptracegrpc.New(ctx, otlptracegrpc.WithGRPCConn(conn))
	if err != nil {
		return nil, err
	}
	res, err := resource.New(ctx,
		resource.WithAttributes(semconv.ServiceNameKey.String("kingraph-service")))
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
	port := os.Getenv("KINGRAPH_PORT")
	if port == "" {
		port = "12310"
	}

	appLog := logging.New(logging.Config{
		Level:   logging.ParseLevel(os.Getenv("KINGRAPH_LOG_LEVEL")),
		LogDir:  os.Getenv("KINGRAPH_LOG_DIR"),
		Service: "kingraph",
		Output:  os.Stdout,
	})
	defer appLog.Close()
	logger := appLog.Slog()
	slog.SetDefault(logger)

	// --- Init the tracer ---
	cleanup, err := initTracer()
	if err != nil {
		log.Fatalf("failed to setup the OTLP tracer: %v", err)
	}
	defer cleanup(context.Background())

	observability.InitMetrics()

	// Graph storage: BadgerDB when a data dir is configured, otherwise
	// the in-memory store for lightweight and test deployments.
	var store graph.GraphStore
	dataDir := os.Getenv("KINGRAPH_DATA_DIR")
	if dataDir != "" {
		cfg := badgerstore.DefaultConfig()
		cfg.Path = dataDir
		cfg.Logger = logger
		bs, err := badgerstore.Open(cfg)
		if err != nil {
			log.Fatalf("Failed to open the graph store at %s: %v", dataDir, err)
		}
		defer func() {
			if err := bs.Close(); err != nil {
				slog.Error("failed to close the graph store", "error", err)
			}
		}()
		store = bs
		slog.Info("Using BadgerDB graph storage", "dir", dataDir)
	} else {
		store = memstore.New()
		slog.Info("KINGRAPH_DATA_DIR not set. Running with in-memory graph storage.")
	}

	// Result cache sizing.
	cacheOpts := []cache.Option{}
	if ttl := os.Getenv("KINGRAPH_CACHE_TTL"); ttl != "" {
		d, err := time.ParseDuration(ttl)
		if err != nil {
			log.Fatalf("Invalid KINGRAPH_CACHE_TTL %q: %v", ttl, err)
		}
		cacheOpts = append(cacheOpts, cache.WithTTL(d))
	}
	if max := os.Getenv("KINGRAPH_CACHE_MAX_ENTRIES"); max != "" {
		n, err := strconv.Atoi(max)
		if err != nil {
			log.Fatalf("Invalid KINGRAPH_CACHE_MAX_ENTRIES %q: %v", max, err)
		}
		cacheOpts = append(cacheOpts, cache.WithMaxEntries(n))
	}
	resultCache := cache.NewFailsafe(cache.NewTreeCache(cacheOpts...),
		cache.WithFailsafeLogger(logger))

	engOpts := []engine.Option{engine.WithLogger(logger)}
	if depth := os.Getenv("KINGRAPH_MAX_DEPTH"); depth != "" {
		n, err := strconv.Atoi(depth)
		if err != nil {
			log.Fatalf("Invalid KINGRAPH_MAX_DEPTH %q: %v", depth, err)
		}
		engOpts = append(engOpts,
			engine.WithPathFinder(graph.NewPathFinder(store, graph.WithDepthCap(n))))
	}
	eng := engine.New(store, resultCache, engOpts...)

	router := gin.Default()
	router.Use(otelgin.Middleware("kingraph-service"))

	defaultTenant := graph.TenantID(os.Getenv("KINGRAPH_DEFAULT_TENANT"))
	routes.SetupRoutes(router, eng, defaultTenant)

	log.Println("Starting the kingraph server on port ", port)
	if err := router.Run(":" + port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
