package dashboard

import (
	"context"

	"github.com/absmach/cvdash/pkg/prediction"
	"github.com/absmach/cvdash/pkg/training"
)

// Service serves dashboard data. Reads and the start-training write try the
// remote status source first and substitute fallback data on any fetch
// failure.
type Service interface {
	GlobalStatus(ctx context.Context) (training.GlobalStatus, error)
	TrainingStatus(ctx context.Context) (training.Status, error)
	Metrics(ctx context.Context) (training.Summary, error)
	Rounds(ctx context.Context) ([]training.Round, error)
	Clients(ctx context.Context) ([]training.Client, error)
	Logs(ctx context.Context) ([]training.LogEntry, error)
	Features(ctx context.Context) ([]prediction.Feature, error)

	HospitalDashboard(ctx context.Context, hospitalID string) (training.HospitalDashboard, error)
	LocalMetrics(ctx context.Context, hospitalID string) (training.History, error)

	// Predict validates the form before any network call, scores it and
	// records the result in the hospital's prediction history.
	Predict(ctx context.Context, hospitalID string, form prediction.Form) (prediction.Result, error)
	PredictionHistory(ctx context.Context, hospitalID string, offset, limit uint64) (prediction.Page, error)

	// StartTraining fails only when both the remote and the fallback path
	// fail; the error is then a *errors.ActionError.
	StartTraining(ctx context.Context, hospitalID string) (training.StartAck, error)
}

// Source is one provider of dashboard data. The remote SDK and the fallback
// generator both satisfy it.
type Source interface {
	GlobalStatus(ctx context.Context) (training.GlobalStatus, error)
	TrainingStatus(ctx context.Context) (training.Status, error)
	Metrics(ctx context.Context) (training.Summary, error)
	Rounds(ctx context.Context) ([]training.Round, error)
	Clients(ctx context.Context) ([]training.Client, error)
	Logs(ctx context.Context) ([]training.LogEntry, error)
	Features(ctx context.Context) ([]prediction.Feature, error)
	HospitalDashboard(ctx context.Context, hospitalID string) (training.HospitalDashboard, error)
	LocalMetrics(ctx context.Context, hospitalID string) (training.History, error)
	Predict(ctx context.Context, hospitalID string, req prediction.Request) (prediction.Response, error)
	StartTraining(ctx context.Context, hospitalID string) (training.StartAck, error)
}

// Fallback is the local Source used when the remote one fails.
type Fallback interface {
	Source
	PredictionHistory(ctx context.Context, hospitalID string) ([]prediction.Result, error)
}
