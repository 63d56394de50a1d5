// Command hsgate serves the login, identity and protected-resource
// endpoints over HTTP.
//
// Configuration comes from the environment (and an optional .env file):
//
//	HSGATE_SECRET          signing secret (required)
//	HSGATE_USERS           user:password:role,...
//	HSGATE_TOKEN_TTL       token lifetime in seconds (default 900)
//	HSGATE_ADDR            listen address (default :8080)
//	REDIS_ADDR             enables the login limiter against this Redis
//	HSGATE_EMBEDDED_REDIS  run the limiter against an in-process miniredis
//	HSGATE_OTEL_METRICS    install an OpenTelemetry MeterProvider and log
//	                       engine counters every HSGATE_OTEL_INTERVAL (default 60s)
//
// Run:
//
//	HSGATE_SECRET=$(openssl rand -hex 32) HSGATE_USERS=alice:wonderland:demo-user go run ./cmd/hsgate
//
// Then:
//
//	curl -s -X POST localhost:8080/login -d '{"username":"alice","password":"wonderland"}'
//	curl -s localhost:8080/me -H "Authorization: Bearer <TOKEN>"
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/caarlos0/env/v11"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/hsgate/hsgate"
	"github.com/hsgate/hsgate/httpapi"
	promexport "github.com/hsgate/hsgate/metrics/export/prometheus"
)

type serverEnv struct {
	Addr           string        `env:"HSGATE_ADDR" envDefault:":8080"`
	RedisAddr      string        `env:"REDIS_ADDR"`
	RedisPassword  string        `env:"REDIS_PASSWORD,unset"`
	EmbeddedRedis  bool          `env:"HSGATE_EMBEDDED_REDIS" envDefault:"false"`
	TrustProxy     bool          `env:"HSGATE_TRUST_PROXY" envDefault:"false"`
	SecretRoles    []string      `env:"HSGATE_SECRET_ROLES" envSeparator:","`
	OTelMetrics    bool          `env:"HSGATE_OTEL_METRICS" envDefault:"false"`
	OTelInterval   time.Duration `env:"HSGATE_OTEL_INTERVAL" envDefault:"60s"`
	LogLevel       string        `env:"HSGATE_LOG_LEVEL" envDefault:"info"`
	ShutdownGrace  time.Duration `env:"HSGATE_SHUTDOWN_GRACE" envDefault:"10s"`
	StrictLint     bool          `env:"HSGATE_STRICT_LINT" envDefault:"false"`
	ReadTimeout    time.Duration `env:"HSGATE_READ_TIMEOUT" envDefault:"5s"`
	WriteTimeout   time.Duration `env:"HSGATE_WRITE_TIMEOUT" envDefault:"10s"`
	IdleTimeout    time.Duration `env:"HSGATE_IDLE_TIMEOUT" envDefault:"60s"`
	HeaderMaxBytes int           `env:"HSGATE_MAX_HEADER_BYTES" envDefault:"16384"`
}

func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetOutput(os.Stdout)

	if err := run(logger); err != nil {
		logger.WithError(err).Fatal("hsgate exited")
	}
}

func run(logger *logrus.Logger) error {
	if err := hsgate.LoadEnvFiles(); err != nil {
		return err
	}

	var senv serverEnv
	if err := env.Parse(&senv); err != nil {
		return err
	}
	if level, err := logrus.ParseLevel(senv.LogLevel); err == nil {
		logger.SetLevel(level)
	} else {
		logger.WithField("level", senv.LogLevel).Warn("unknown log level, keeping info")
	}

	cfg, err := hsgate.ConfigFromEnv()
	if err != nil {
		return err
	}

	lint := cfg.Lint()
	for _, w := range lint {
		logger.WithFields(logrus.Fields{
			"code":     w.Code,
			"severity": w.Severity.String(),
		}).Warn(w.Message)
	}
	if senv.StrictLint {
		if err := lint.AsError(hsgate.LintHigh); err != nil {
			return err
		}
	}

	client, closeRedis, err := openRedis(senv, logger)
	if err != nil {
		return err
	}
	defer closeRedis()

	builder := hsgate.New().
		WithConfig(cfg).
		WithLogger(logger).
		WithAuditSink(hsgate.NewLogrusSink(logger.WithField("stream", "audit")))
	if client != nil {
		builder = builder.WithRedis(client)
	}
	engine, err := builder.Build()
	if err != nil {
		return err
	}
	defer engine.Close()

	var metricsHandler http.Handler
	if cfg.Metrics.Enabled {
		metricsHandler = promexport.NewExporter(engine).Handler()
		if senv.OTelMetrics {
			om, err := setupOTelMetrics(engine, logger.WithField("stream", "metrics"), senv.OTelInterval)
			if err != nil {
				return err
			}
			defer func() {
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := om.shutdown(ctx); err != nil {
					logger.WithError(err).Warn("otel metrics shutdown")
				}
			}()
		}
	}

	handler := httpapi.NewHandler(engine, httpapi.Options{
		CORS:        cfg.CORS,
		TrustProxy:  senv.TrustProxy,
		SecretRoles: senv.SecretRoles,
		Metrics:     metricsHandler,
		Logger:      logger,
	})

	srv := &http.Server{
		Addr:              senv.Addr,
		Handler:           handler,
		ReadHeaderTimeout: senv.ReadTimeout,
		ReadTimeout:       senv.ReadTimeout,
		WriteTimeout:      senv.WriteTimeout,
		IdleTimeout:       senv.IdleTimeout,
		MaxHeaderBytes:    senv.HeaderMaxBytes,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.WithFields(logrus.Fields{
			"addr":    senv.Addr,
			"limiter": engine.LimiterEnabled(),
			"ttl":     engine.TokenTTL().String(),
		}).Info("listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), senv.ShutdownGrace)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errCh
}

// openRedis returns a nil client when neither REDIS_ADDR nor the embedded
// server is configured; the engine then runs without a login limiter.
func openRedis(senv serverEnv, logger logrus.FieldLogger) (redis.UniversalClient, func(), error) {
	switch {
	case senv.RedisAddr != "":
		client := redis.NewUniversalClient(&redis.UniversalOptions{
			Addrs:    []string{senv.RedisAddr},
			Password: senv.RedisPassword,
		})
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		if err := client.Ping(ctx).Err(); err != nil {
			// The limiter fails closed, so an unreachable Redis only blocks logins.
			logger.WithError(err).WithField("redis_addr", senv.RedisAddr).Warn("redis ping failed")
		}
		logger.WithField("redis_addr", senv.RedisAddr).Info("login limiter enabled")
		return client, func() { _ = client.Close() }, nil
	case senv.EmbeddedRedis:
		mr, err := miniredis.Run()
		if err != nil {
			return nil, nil, err
		}
		client := redis.NewUniversalClient(&redis.UniversalOptions{Addrs: []string{mr.Addr()}})
		logger.WithField("redis_addr", mr.Addr()).Info("login limiter enabled (embedded redis)")
		return client, func() {
			_ = client.Close()
			mr.Close()
		}, nil
	default:
		logger.Info("login limiter disabled")
		return nil, func() {}, nil
	}
}
