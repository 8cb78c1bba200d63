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

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	"go.uber.org/zap"

	"github.com/SivanLevi100/storefront/internal/application"
	appcart "github.com/SivanLevi100/storefront/internal/application/cart"
	appcatalog "github.com/SivanLevi100/storefront/internal/application/catalog"
	apporder "github.com/SivanLevi100/storefront/internal/application/order"
	"github.com/SivanLevi100/storefront/internal/config"
	"github.com/SivanLevi100/storefront/internal/infrastructure/auth"
	"github.com/SivanLevi100/storefront/internal/infrastructure/cache"
	"github.com/SivanLevi100/storefront/internal/infrastructure/gormstore"
	"github.com/SivanLevi100/storefront/internal/infrastructure/id"
	"github.com/SivanLevi100/storefront/internal/infrastructure/memory"
	infraobs "github.com/SivanLevi100/storefront/internal/infrastructure/observability"
	"github.com/SivanLevi100/storefront/internal/infrastructure/observability/oteltrace"
	"github.com/SivanLevi100/storefront/internal/infrastructure/observability/prometrics"
	"github.com/SivanLevi100/storefront/internal/infrastructure/observability/zaplogger"
	"github.com/SivanLevi100/storefront/internal/infrastructure/outbox"
	"github.com/SivanLevi100/storefront/internal/observability"
	"github.com/SivanLevi100/storefront/internal/pkg/logging"
	httppresentation "github.com/SivanLevi100/storefront/internal/presentation/http"
	workerpresentation "github.com/SivanLevi100/storefront/internal/presentation/worker"
)

type backend interface {
	application.UnitOfWork
	application.Stores
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	baseLogger, err := logging.NewLogger(logging.Options{
		Service: cfg.ServiceName,
		Env:     cfg.Env,
		Level:   cfg.Log.Level,
		File:    cfg.Log.File,
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer func() { _ = baseLogger.Sync() }()
	zap.ReplaceGlobals(baseLogger)

	systemLogger := zaplogger.New(
		logging.WithTrace(baseLogger, logging.SystemTraceID, logging.SystemSpanID),
	)

	if err := run(cfg, baseLogger, systemLogger); err != nil {
		systemLogger.Error("service_exit", observability.Err(err))
		_ = baseLogger.Sync()
		os.Exit(1)
	}
}

func run(cfg config.Config, baseLogger *zap.Logger, systemLogger observability.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{}, propagation.Baggage{},
	))

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	tel := newObservability(cfg.ServiceName, zaplogger.New(baseLogger), reg)

	store, closeStore, err := openBackend(ctx, cfg.DB, systemLogger)
	if err != nil {
		return err
	}
	defer closeStore()

	var productCache appcatalog.Cache
	if cfg.Redis.Enabled() {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer func() { _ = client.Close() }()

		pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		if err := client.Ping(pingCtx).Err(); err != nil {
			systemLogger.Warn("redis_unreachable", observability.F("addr", cfg.Redis.Addr), observability.Err(err))
		}
		cancel()
		productCache = cache.NewProductCache(client, cfg.Redis.CacheTTL)
		systemLogger.Info("product_cache_enabled", observability.F("addr", cfg.Redis.Addr))
	}

	bus := outbox.NewBus(systemLogger)
	bus.Start(ctx)
	defer func() {
		drainCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		_ = bus.Stop(drainCtx)
	}()

	catalogService := appcatalog.NewService(store.Catalog(), store, productCache, bus, tel)
	workerpresentation.NewCacheWorker(bus, catalogService, tel).Start()

	handler := httppresentation.NewHandler(httppresentation.Deps{
		Catalog: catalogService,
		Carts:   appcart.NewService(store.Carts(), store.Catalog(), tel),
		Orders:  apporder.NewService(store.Orders(), tel),
		CreateOrder: apporder.NewCreateOrderFromCartUseCase(store, id.NewOrderNumbers(), bus, tel,
			apporder.WithNumberAttempts(cfg.OrderNumberAttempts),
		),
		DeleteOrder:  apporder.NewDeleteOrderUseCase(store, bus, tel),
		Recompute:    apporder.NewRecomputeOrderTotalsUseCase(store, tel),
		UpdateStatus: apporder.NewUpdateOrderStatusUseCase(store, tel),
		Tokens:       auth.NewTokens(cfg.JWT.Secret, cfg.JWT.TTL),
		Metrics:      promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}),
	}, tel.Logger(), tel)

	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           otelhttp.NewHandler(handler.Router(), cfg.ServiceName),
		ReadHeaderTimeout: 5 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		systemLogger.Info("http_server_start",
			observability.F("addr", server.Addr),
			observability.F("db_driver", cfg.DB.Driver),
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case <-ctx.Done():
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		systemLogger.Error("http_server_shutdown_error", observability.Err(err))
		return err
	}
	systemLogger.Info("http_server_stopped")
	return nil
}

func newObservability(serviceName string, logger observability.Logger, reg prometheus.Registerer) observability.Observability {
	metrics := prometrics.New("storefront", "", reg)
	return infraobs.New(
		oteltrace.New(serviceName),
		logger,
		map[observability.MetricKey]observability.Counter{
			observability.MUsecaseRequests: metrics.Counter(string(observability.MUsecaseRequests),
				"Total number of use case invocations.", "use_case", "outcome"),
			observability.MHTTPRequests: metrics.Counter(string(observability.MHTTPRequests),
				"Total number of HTTP requests.", "method", "route", "status"),
			observability.MExternalRequests: metrics.Counter(string(observability.MExternalRequests),
				"Calls made to collaborators outside the process boundary.", "peer", "endpoint", "outcome"),
			observability.MCacheRequests: metrics.Counter(string(observability.MCacheRequests),
				"Cache lookups by result.", "cache", "result"),
		},
		map[observability.MetricKey]observability.Histogram{
			observability.MUsecaseDuration: metrics.Histogram(string(observability.MUsecaseDuration),
				"Duration of use case execution in seconds.", prometheus.DefBuckets, "use_case"),
			observability.MHTTPRequestDuration: metrics.Histogram(string(observability.MHTTPRequestDuration),
				"Duration of HTTP requests in seconds.", prometheus.DefBuckets, "method", "route", "status"),
			observability.MExternalRequestDuration: metrics.Histogram(string(observability.MExternalRequestDuration),
				"Duration of outbound calls in seconds.", prometheus.DefBuckets, "peer", "endpoint"),
		},
	)
}

func openBackend(ctx context.Context, cfg config.DBConfig, logger observability.Logger) (backend, func(), error) {
	if cfg.Driver == "memory" {
		logger.Warn("storage_in_memory", observability.F("note", "data is lost on restart"))
		return memory.NewStore(), func() {}, nil
	}

	db, err := gormstore.Open(gormstore.Options{
		Driver:       cfg.Driver,
		DSN:          cfg.DSN,
		MaxOpenConns: cfg.MaxOpenConns,
		Logger:       logger,
	})
	if err != nil {
		return nil, nil, err
	}
	if err := gormstore.Migrate(ctx, db); err != nil {
		_ = gormstore.Close(db)
		return nil, nil, err
	}
	closeFn := func() {
		if err := gormstore.Close(db); err != nil {
			logger.Warn("db_close_failed", observability.Err(err))
		}
	}
	return gormstore.New(db, cfg.TxTimeout), closeFn, nil
}
