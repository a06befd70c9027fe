package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/kailas-cloud/searchgate/internal/cache"
	"github.com/kailas-cloud/searchgate/internal/classifier"
	"github.com/kailas-cloud/searchgate/internal/config"
	"github.com/kailas-cloud/searchgate/internal/dispatcher"
	"github.com/kailas-cloud/searchgate/internal/domain"
	complexEngine "github.com/kailas-cloud/searchgate/internal/engine/complex"
	simpleEngine "github.com/kailas-cloud/searchgate/internal/engine/simple"
	"github.com/kailas-cloud/searchgate/internal/gateway"
	"github.com/kailas-cloud/searchgate/internal/health"
	logpkg "github.com/kailas-cloud/searchgate/internal/logger"
	"github.com/kailas-cloud/searchgate/internal/metrics"
	"github.com/kailas-cloud/searchgate/internal/tenant"
	apitransport "github.com/kailas-cloud/searchgate/internal/transport/chi"
	"github.com/kailas-cloud/searchgate/internal/version"
)

func main() {
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("starting search gateway",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.Strings("simple_addrs", cfg.Engine.Simple.Addrs),
		zap.Strings("complex_addrs", cfg.Engine.Complex.Addresses),
	)

	simple, err := simpleEngine.New(simpleEngine.Config{
		Addrs:            cfg.Engine.Simple.Addrs,
		Username:         cfg.Engine.Simple.Username,
		Password:         cfg.Engine.Simple.Password,
		KeyPrefix:        cfg.Engine.Simple.KeyPrefix,
		RequestTimeoutMs: cfg.Engine.Simple.RequestTimeoutMs,
	})
	if err != nil {
		logger.Fatal("failed to create simple engine adapter", zap.Error(err))
	}
	defer simple.Close()

	complexAdapter, err := complexEngine.New(complexEngine.Config{
		Addresses:              cfg.Engine.Complex.Addresses,
		Username:               cfg.Engine.Complex.Username,
		Password:               cfg.Engine.Complex.Password,
		InsecureSkipTLS:        cfg.Engine.Complex.InsecureSkipTLS,
		Index:                  cfg.Engine.Complex.Index,
		FacetFields:            cfg.Engine.Complex.FacetFields,
		DateHistogramField:     cfg.Engine.Complex.DateHistogramField,
		NumericRangeField:      cfg.Engine.Complex.NumericRangeField,
		HighlightFragmentSize:  cfg.Engine.Complex.HighlightFragmentSize,
		HighlightFragmentCount: cfg.Engine.Complex.HighlightFragmentCount,
		RequestTimeoutMs:       cfg.Engine.Complex.RequestTimeoutMs,
	})
	if err != nil {
		logger.Fatal("failed to create complex engine adapter", zap.Error(err))
	}

	var l2Client *redis.Client
	if cfg.Cache.L2Enabled {
		l2Client = redis.NewClient(&redis.Options{
			Addr:     cfg.Cache.L2Endpoint,
			Password: cfg.Cache.L2Password,
		})
		defer func() { _ = l2Client.Close() }()
	}

	respCache := cache.New(cache.Config{
		L1MaxEntries: cfg.Cache.L1MaxEntries,
		L1DefaultTTL: time.Duration(cfg.Cache.L1DefaultTTLMs) * time.Millisecond,
		L2Enabled:    cfg.Cache.L2Enabled,
		RedisClient:  l2Client,
	}, logger)

	// Register gateway metrics explicitly (no init())
	metrics.RegisterGatewayMetrics()

	c := classifier.New(classifier.Config{
		SimpleThreshold:  cfg.Classifier.SimpleThreshold,
		ComplexThreshold: cfg.Classifier.ComplexThreshold,
		LongQueryChars:   cfg.Classifier.LongQueryChars,
		LargePageSize:    cfg.Classifier.LargePageSize,
		BaseLatencyMs:    classifier.DefaultConfig().BaseLatencyMs,
	})

	router := tenant.NewRouter(tenant.NewDefaultLookup(cfg.Engine.Complex.Index))

	exactFilterFields := make(map[string]struct{}, len(cfg.Dispatch.ExactFilterFields))
	for _, f := range cfg.Dispatch.ExactFilterFields {
		exactFilterFields[f] = struct{}{}
	}

	d := dispatcher.New(dispatcher.Config{
		DefaultTimeout:    time.Duration(cfg.Dispatch.DefaultTimeoutMs) * time.Millisecond,
		MinTimeout:        time.Duration(cfg.Dispatch.MinTimeoutMs) * time.Millisecond,
		MaxTimeout:        time.Duration(cfg.Dispatch.MaxTimeoutMs) * time.Millisecond,
		HybridOverfetch:   cfg.Dispatch.HybridOverfetchFactor,
		FallbackTimeout:   time.Duration(cfg.Dispatch.FallbackTimeoutMs) * time.Millisecond,
		ExactFilterFields: exactFilterFields,
	}, simple, complexAdapter, respCache, logger)

	g := gateway.New(c, router, respCache, d, simple, gateway.DefaultTTLPolicy(), logger)

	tokenTable := make(map[string]domain.Claims, len(cfg.Auth.Tokens))
	for token, claims := range cfg.Auth.Tokens {
		tokenTable[token] = domain.Claims{Roles: claims.Roles, Groups: claims.Groups}
	}
	var resolver = apitransport.NewStaticTokenClaims(tokenTable)

	prober := health.New(simple, complexAdapter, respCache, logger)
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	prober.Probe(ctx)
	go prober.Run(ctx, time.Duration(cfg.Health.ProbeIntervalMs)*time.Millisecond)

	server := apitransport.NewServer(g, prober, logger)

	r := chi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(logger))
	r.Use(apitransport.BearerAuthMiddleware(resolver))
	r.Use(metrics.Middleware())
	apitransport.Routes(r, server)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("received shutdown signal")
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("error during shutdown", zap.Error(err))
	}

	logger.Info("server stopped gracefully")
}

// jsonRecoverer is a recovery middleware that returns JSON instead of a plain text stacktrace.
func jsonRecoverer(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rvr := recover(); rvr != nil {
					logger.Error("panic recovered",
						zap.Any("panic", rvr),
						zap.Stack("stacktrace"),
					)
					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					_ = json.NewEncoder(w).Encode(map[string]string{
						"code":    "internal_error",
						"message": "internal error",
					})
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// wideEventMiddleware emits a canonical log line per request and propagates X-Request-ID.
func wideEventMiddleware(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			requestID := chiMiddleware.GetReqID(r.Context())
			if requestID != "" {
				w.Header().Set("X-Request-ID", requestID)
			}

			reqLogger := logger.With(zap.String("request_id", requestID))
			ctx := logpkg.ContextWithLogger(r.Context(), reqLogger)

			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(ctx))

			reqLogger.Info("http_request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("latency", time.Since(start)),
				zap.String("ip", r.RemoteAddr),
				zap.Int64("content_length", r.ContentLength),
				zap.String("user_agent", r.UserAgent()),
				zap.Int("response_bytes", ww.BytesWritten()),
			)
		})
	}
}
