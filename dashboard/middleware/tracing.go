package middleware

import (
	"context"

	"github.com/absmach/cvdash/dashboard"
	"github.com/absmach/cvdash/pkg/prediction"
	"github.com/absmach/cvdash/pkg/training"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

var _ dashboard.Service = (*tracing)(nil)

type tracing struct {
	tracer trace.Tracer
	svc    dashboard.Service
}

func Tracing(tracer trace.Tracer, svc dashboard.Service) dashboard.Service {
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

func (tm *tracing) Predict(ctx context.Context, hospitalID string, form prediction.Form) (prediction.Result, error) {
	ctx, span := tm.tracer.Start(ctx, "predict", trace.WithAttributes(
		attribute.String("hospital_id", hospitalID),
		attribute.String("patient_id", form.PatientID),
	))
	defer span.End()

	return tm.svc.Predict(ctx, hospitalID, form)
}

func (tm *tracing) PredictionHistory(ctx context.Context, hospitalID string, offset, limit uint64) (prediction.Page, error) {
	ctx, span := tm.tracer.Start(ctx, "prediction-history", trace.WithAttributes(
		attribute.String("hospital_id", hospitalID),
		attribute.Int64("offset", int64(offset)),
		attribute.Int64("limit", int64(limit)),
	))
	defer span.End()

	return tm.svc.PredictionHistory(ctx, hospitalID, offset, limit)
}

func (tm *tracing) StartTraining(ctx context.Context, hospitalID string) (training.StartAck, error) {
	ctx, span := tm.tracer.Start(ctx, "start-training", trace.WithAttributes(
		attribute.String("hospital_id", hospitalID),
	))
	defer span.End()

	return tm.svc.StartTraining(ctx, hospitalID)
}
