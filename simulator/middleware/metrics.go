package middleware

import (
	"context"
	"time"

	"github.com/absmach/cvdash/pkg/prediction"
	"github.com/absmach/cvdash/pkg/training"
	"github.com/absmach/cvdash/simulator"
	"github.com/go-kit/kit/metrics"
)

var _ simulator.Service = (*metricsMiddleware)(nil)

type metricsMiddleware struct {
	counter metrics.Counter
	latency metrics.Histogram
	svc     simulator.Service
}

func Metrics(counter metrics.Counter, latency metrics.Histogram, svc simulator.Service) simulator.Service {
	return &metricsMiddleware{
		counter: counter,
		latency: latency,
		svc:     svc,
	}
}

func (mm *metricsMiddleware) observe(method string, begin time.Time) {
	mm.counter.With("method", method).Add(1)
	mm.latency.With("method", method).Observe(time.Since(begin).Seconds())
}

func (mm *metricsMiddleware) GlobalStatus(ctx context.Context) (training.GlobalStatus, error) {
	defer mm.observe("global-status", time.Now())

	return mm.svc.GlobalStatus(ctx)
}

func (mm *metricsMiddleware) TrainingStatus(ctx context.Context) (training.Status, error) {
	defer mm.observe("training-status", time.Now())

	return mm.svc.TrainingStatus(ctx)
}

func (mm *metricsMiddleware) Metrics(ctx context.Context) (training.Summary, error) {
	defer mm.observe("metrics", time.Now())

	return mm.svc.Metrics(ctx)
}

func (mm *metricsMiddleware) Rounds(ctx context.Context) ([]training.Round, error) {
	defer mm.observe("rounds", time.Now())

	return mm.svc.Rounds(ctx)
}

func (mm *metricsMiddleware) Clients(ctx context.Context) ([]training.Client, error) {
	defer mm.observe("clients", time.Now())

	return mm.svc.Clients(ctx)
}

func (mm *metricsMiddleware) Logs(ctx context.Context) ([]training.LogEntry, error) {
	defer mm.observe("logs", time.Now())

	return mm.svc.Logs(ctx)
}

func (mm *metricsMiddleware) Features(ctx context.Context) ([]prediction.Feature, error) {
	defer mm.observe("features", time.Now())

	return mm.svc.Features(ctx)
}

func (mm *metricsMiddleware) HospitalDashboard(ctx context.Context, hospitalID string) (training.HospitalDashboard, error) {
	defer mm.observe("hospital-dashboard", time.Now())

	return mm.svc.HospitalDashboard(ctx, hospitalID)
}

func (mm *metricsMiddleware) LocalMetrics(ctx context.Context, hospitalID string) (training.History, error) {
	defer mm.observe("local-metrics", time.Now())

	return mm.svc.LocalMetrics(ctx, hospitalID)
}

func (mm *metricsMiddleware) Predict(ctx context.Context, hospitalID string, req prediction.Request) (prediction.Response, error) {
	defer mm.observe("predict", time.Now())

	return mm.svc.Predict(ctx, hospitalID, req)
}

func (mm *metricsMiddleware) StartTraining(ctx context.Context, hospitalID string) (training.StartAck, error) {
	defer mm.observe("start-training", time.Now())

	return mm.svc.StartTraining(ctx, hospitalID)
}

func (mm *metricsMiddleware) Reset(ctx context.Context) error {
	defer mm.observe("reset", time.Now())

	return mm.svc.Reset(ctx)
}
