package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/url"
	"os"
	"time"

	"github.com/absmach/cvdash/dashboard"
	"github.com/absmach/cvdash/dashboard/api"
	"github.com/absmach/cvdash/dashboard/middleware"
	"github.com/absmach/cvdash/pkg/fallback"
	"github.com/absmach/cvdash/pkg/mqtt"
	"github.com/absmach/cvdash/pkg/sdk"
	"github.com/absmach/cvdash/pkg/storage"
	"github.com/absmach/cvdash/session"
	"github.com/absmach/supermq/pkg/jaeger"
	"github.com/absmach/supermq/pkg/prometheus"
	"github.com/absmach/supermq/pkg/server"
	httpserver "github.com/absmach/supermq/pkg/server/http"
	"github.com/caarlos0/env/v11"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"golang.org/x/sync/errgroup"
	"k8s.io/utils/clock"
)

const (
	svcName         = "dashboard"
	defHTTPPort     = "8080"
	envPrefixHTTP   = "CVDASH_HTTP_"
	envPrefixMQTT   = "CVDASH_MQTT_"
	envPrefixLocal  = "CVDASH_FALLBACK_"
	pathEnv         = ".env"
	disconnectGrace = 5 * time.Second
)

type envConfig struct {
	LogLevel        string        `env:"CVDASH_LOG_LEVEL"        envDefault:"info"`
	InstanceID      string        `env:"CVDASH_INSTANCE_ID"`
	RemoteURL       string        `env:"CVDASH_REMOTE_URL"       envDefault:"http://localhost:8000"`
	RemoteTimeout   time.Duration `env:"CVDASH_REMOTE_TIMEOUT"   envDefault:"10s"`
	TLSVerification bool          `env:"CVDASH_TLS_VERIFICATION" envDefault:"false"`
	PredictCBOR     bool          `env:"CVDASH_PREDICT_CBOR"     envDefault:"false"`
	HospitalID      string        `env:"CVDASH_HOSPITAL_ID"      envDefault:"h1"`
	AdminPassword   string        `env:"CVDASH_ADMIN_PASSWORD"   envDefault:"admin"`
	UserPassword    string        `env:"CVDASH_USER_PASSWORD"    envDefault:"user"`
	Storage         storage.Config
	OTELURL         url.URL `env:"CVDASH_OTEL_URL"`
	TraceRatio      float64 `env:"CVDASH_TRACE_RATIO" envDefault:"0"`
}

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	g, ctx := errgroup.WithContext(ctx)

	if _, err := os.Stat(pathEnv); err == nil {
		_ = godotenv.Load(pathEnv)
	}

	cfg := envConfig{}
	if err := env.Parse(&cfg); err != nil {
		log.Fatalf("failed to load configuration : %s", err.Error())
	}

	if cfg.InstanceID == "" {
		cfg.InstanceID = uuid.NewString()
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		log.Fatalf("failed to parse log level: %s", err.Error())
	}
	logHandler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	})
	logger := slog.New(logHandler)
	slog.SetDefault(logger)

	var tp trace.TracerProvider
	switch {
	case cfg.OTELURL == (url.URL{}):
		tp = noop.NewTracerProvider()
	default:
		sdktp, err := jaeger.NewProvider(ctx, svcName, cfg.OTELURL, cfg.InstanceID, cfg.TraceRatio)
		if err != nil {
			logger.Error("failed to initialize opentelemetry", slog.String("error", err.Error()))

			return
		}
		defer func() {
			if err := sdktp.Shutdown(ctx); err != nil {
				logger.Error("error shutting down tracer provider", slog.Any("error", err))
			}
		}()
		tp = sdktp
	}
	// otelhttp handlers and the SDK transport read the global provider.
	otel.SetTracerProvider(tp)
	tracer := tp.Tracer(svcName)

	repos, err := storage.NewRepositories(cfg.Storage)
	if err != nil {
		logger.Error("failed to initialize storage", slog.String("type", cfg.Storage.Type), slog.String("error", err.Error()))

		return
	}
	if repos.Closer != nil {
		defer repos.Closer.Close()
	}

	fbCfg := fallback.Config{}
	if err := env.ParseWithOptions(&fbCfg, env.Options{Prefix: envPrefixLocal}); err != nil {
		logger.Error(fmt.Sprintf("failed to load %s fallback configuration : %s", svcName, err.Error()))

		return
	}

	mqttCfg := mqtt.Config{}
	if err := env.ParseWithOptions(&mqttCfg, env.Options{Prefix: envPrefixMQTT}); err != nil {
		logger.Error(fmt.Sprintf("failed to load %s MQTT configuration : %s", svcName, err.Error()))

		return
	}
	var pubsub mqtt.PubSub
	if mqttCfg.URL != "" {
		if mqttCfg.ClientID == "" {
			mqttCfg.ClientID = svcName + "-" + cfg.InstanceID
		}
		pubsub, err = mqtt.NewPubSub(mqttCfg, logger)
		if err != nil {
			logger.Error("failed to initialize mqtt pubsub", slog.String("error", err.Error()))

			return
		}
		defer func() {
			dctx, dcancel := context.WithTimeout(context.Background(), disconnectGrace)
			defer dcancel()
			if err := pubsub.Disconnect(dctx); err != nil {
				logger.Warn("failed to disconnect mqtt", slog.Any("error", err))
			}
		}()

		if err := pubsub.Subscribe(ctx, mqtt.TopicStatus, func(topic string, msg map[string]any) error {
			logger.Info("Remote training status changed", slog.String("topic", topic), slog.Any("event", msg))

			return nil
		}); err != nil {
			logger.Warn("failed to subscribe to training status", slog.String("error", err.Error()))
		}
	}

	clk := clock.RealClock{}
	remote := sdk.NewSDK(sdk.Config{
		RemoteURL:       cfg.RemoteURL,
		TLSVerification: cfg.TLSVerification,
		Timeout:         cfg.RemoteTimeout,
		PredictCBOR:     cfg.PredictCBOR,
	})

	svc := dashboard.NewService(remote, fallback.New(fbCfg, clk), repos.Predictions, pubsub, clk, logger)
	svc = middleware.Logging(logger, svc)
	svc = middleware.Tracing(tracer, svc)
	counter, latency := prometheus.MakeMetrics(svcName, "api")
	svc = middleware.Metrics(counter, latency, svc)

	creds := session.DefaultCredentials(cfg.HospitalID)
	for i := range creds {
		switch creds[i].Role {
		case session.Admin:
			creds[i].Password = cfg.AdminPassword
		case session.Hospital:
			creds[i].Password = cfg.UserPassword
		}
	}
	sessions := session.NewManager(creds, repos.Slots, svc, clk, logger)
	defer sessions.Close()

	httpServerConfig := server.Config{Port: defHTTPPort}
	if err := env.ParseWithOptions(&httpServerConfig, env.Options{Prefix: envPrefixHTTP}); err != nil {
		logger.Error(fmt.Sprintf("failed to load %s HTTP server configuration : %s", svcName, err.Error()))

		return
	}

	hs := httpserver.NewServer(ctx, cancel, svcName, httpServerConfig, api.MakeHandler(svc, sessions, logger, cfg.InstanceID), logger)

	g.Go(func() error {
		return hs.Start()
	})

	g.Go(func() error {
		return server.StopSignalHandler(ctx, cancel, logger, svcName, hs)
	})

	if err := g.Wait(); err != nil {
		logger.Error(fmt.Sprintf("%s service exited with error: %s", svcName, err))
	}
}
