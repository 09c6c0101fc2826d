package middleware

import (
	"context"

	"github.com/absmach/cvdash/pkg/prediction"
	"github.com/absmach/cvdash/pkg/training"
	"github.com/absmach/cvdash/simulator"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

var _ simulator.Service = (*tracing)(nil)

type tracing struct {
	tracer trace.Tracer
	svc    simulator.Service
}

func Tracing(tracer trace.Tracer, svc simulator.Service) simulator.Service {
	return &tracing{tracer, svc}
}

func (tm *tracing) GlobalStatus(ctx context.Context) (training.GlobalStatus, error) {
	ctx, span := tm.tracer.Start(ctx, "global-status")
	defer span.End()

	return tm.svc.GlobalStatus(ctx)
}

func (tm *tracing) TrainingStatus(ctx context.Context) (training.Status, error) {
	ctx, span := tm.tracer.Start(ctx, "training-status")
	defer span.End()

	return tm.svc.TrainingStatus(ctx)
}

func (tm *tracing) Metrics(ctx context.Context) (training.Summary, error) {
	ctx, span := tm.tracer.Start(ctx, "metrics")
	defer span.End()

	return tm.svc.Metrics(ctx)
}

func (tm *tracing) Rounds(ctx context.Context) ([]training.Round, error) {
	ctx, span := tm.tracer.Start(ctx, "rounds")
	defer span.End()

	return tm.svc.Rounds(ctx)
}

func (tm *tracing) Clients(ctx context.Context) ([]training.Client, error) {
	ctx, span := tm.tracer.Start(ctx, "clients")
	defer span.End()

	return tm.svc.Clients(ctx)
}

func (tm *tracing) Logs(ctx context.Context) ([]training.LogEntry, error) {
	ctx, span := tm.tracer.Start(ctx, "logs")
	defer span.End()

	return tm.svc.Logs(ctx)
}

func (tm *tracing) Features(ctx context.Context) ([]prediction.Feature, error) {
	ctx, span := tm.tracer.Start(ctx, "features")
	defer span.End()

	return tm.svc.Features(ctx)
}

func (tm *tracing) HospitalDashboard(ctx context.Context, hospitalID string) (training.HospitalDashboard, error) {
	ctx, span := tm.tracer.Start(ctx, "hospital-dashboard", trace.WithAttributes(
		attribute.String("hospital_id", hospitalID),
	))
	defer span.End()

	return tm.svc.HospitalDashboard(ctx, hospitalID)
}

func (tm *tracing) LocalMetrics(ctx context.Context, hospitalID string) (training.History, error) {
	ctx, span := tm.tracer.Start(ctx, "local-metrics", trace.WithAttributes(
		attribute.String("hospital_id", hospitalID),
	))
	defer span.End()

	return tm.svc.LocalMetrics(ctx, hospitalID)
}

func (tm *tracing) Predict(ctx context.Context, hospitalID string, req prediction.Request) (prediction.Response, error) {
	ctx, span := tm.tracer.Start(ctx, "predict", trace.WithAttributes(
		attribute.String("hospital_id", hospitalID),
		attribute.Int("features", len(req.Features)),
	))
	defer span.End()

	return tm.svc.Predict(ctx, hospitalID, req)
}

func (tm *tracing) StartTraining(ctx context.Context, hospitalID string) (training.StartAck, error) {
	ctx, span := tm.tracer.Start(ctx, "start-training", trace.WithAttributes(
		attribute.String("hospital_id", hospitalID),
	))
	defer span.End()

	return tm.svc.StartTraining(ctx, hospitalID)
}

func (tm *tracing) Reset(ctx context.Context) error {
	ctx, span := tm.tracer.Start(ctx, "reset")
	defer span.End()

	return tm.svc.Reset(ctx)
}
