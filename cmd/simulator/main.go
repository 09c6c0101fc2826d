package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/url"
	"os"
	"time"

	"github.com/absmach/cvdash/pkg/cron"
	"github.com/absmach/cvdash/pkg/mqtt"
	"github.com/absmach/cvdash/simulator"
	"github.com/absmach/cvdash/simulator/api"
	"github.com/absmach/cvdash/simulator/middleware"
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
	svcName         = "simulator"
	defHTTPPort     = "8000"
	envPrefix       = "SIMULATOR_"
	envPrefixHTTP   = "SIMULATOR_HTTP_"
	envPrefixMQTT   = "SIMULATOR_MQTT_"
	pathEnv         = ".env"
	disconnectGrace = 5 * time.Second
)

type envConfig struct {
	LogLevel   string  `env:"SIMULATOR_LOG_LEVEL"   envDefault:"info"`
	InstanceID string  `env:"SIMULATOR_INSTANCE_ID"`
	OTELURL    url.URL `env:"SIMULATOR_OTEL_URL"`
	TraceRatio float64 `env:"SIMULATOR_TRACE_RATIO" envDefault:"0"`
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
	// otelhttp handlers read the global provider.
	otel.SetTracerProvider(tp)
	tracer := tp.Tracer(svcName)

	simCfg := simulator.Config{}
	if err := env.ParseWithOptions(&simCfg, env.Options{Prefix: envPrefix}); err != nil {
		logger.Error(fmt.Sprintf("failed to load %s configuration : %s", svcName, err.Error()))

		return
	}

	mqttCfg := mqtt.Config{}
	if err := env.ParseWithOptions(&mqttCfg, env.Options{Prefix: envPrefixMQTT}); err != nil {
		logger.Error(fmt.Sprintf("failed to load %s MQTT configuration : %s", svcName, err.Error()))

		return
	}
	var publisher mqtt.PubSub
	if mqttCfg.URL != "" {
		if mqttCfg.ClientID == "" {
			mqttCfg.ClientID = svcName + "-" + cfg.InstanceID
		}
		ps, err := mqtt.NewPubSub(mqttCfg, logger)
		if err != nil {
			logger.Error("failed to initialize mqtt pubsub", slog.String("error", err.Error()))

			return
		}
		defer func() {
			dctx, dcancel := context.WithTimeout(context.Background(), disconnectGrace)
			defer dcancel()
			if err := ps.Disconnect(dctx); err != nil {
				logger.Warn("failed to disconnect mqtt", slog.Any("error", err))
			}
		}()
		publisher = ps
	}

	clk := clock.RealClock{}
	svc := simulator.NewService(simCfg, clk, publisher, logger)
	svc = middleware.Logging(logger, svc)
	svc = middleware.Tracing(tracer, svc)
	counter, latency := prometheus.MakeMetrics(svcName, "api")
	svc = middleware.Metrics(counter, latency, svc)

	if simCfg.TrainingSchedule != "" {
		sched, err := cron.Parse(simCfg.TrainingSchedule, simCfg.Timezone)
		if err != nil {
			logger.Error("failed to parse training schedule", slog.String("schedule", simCfg.TrainingSchedule), slog.String("error", err.Error()))

			return
		}
		g.Go(func() error {
			return cron.Run(ctx, clk, sched, func(ctx context.Context) {
				// Rejections while a run is active are logged by the middleware.
				_, _ = svc.StartTraining(ctx, "")
			})
		})
	}

	httpServerConfig := server.Config{Port: defHTTPPort}
	if err := env.ParseWithOptions(&httpServerConfig, env.Options{Prefix: envPrefixHTTP}); err != nil {
		logger.Error(fmt.Sprintf("failed to load %s HTTP server configuration : %s", svcName, err.Error()))

		return
	}

	hs := httpserver.NewServer(ctx, cancel, svcName, httpServerConfig, api.MakeHandler(svc, logger, cfg.InstanceID), logger)

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
