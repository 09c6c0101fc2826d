package middleware

import (
	"context"
	"log/slog"
	"time"

	"github.com/absmach/cvdash/dashboard"
	"github.com/absmach/cvdash/pkg/prediction"
	"github.com/absmach/cvdash/pkg/training"
)

var _ dashboard.Service = (*loggingMiddleware)(nil)

type loggingMiddleware struct {
	logger *slog.Logger
	svc    dashboard.Service
}

func Logging(logger *slog.Logger, svc dashboard.Service) dashboard.Service {
	return &loggingMiddleware{
		logger: logger,
		svc:    svc,
	}
}

func (lm *loggingMiddleware) log(op string, begin time.Time, err error, args ...any) {
	args = append([]any{slog.String("duration", time.Since(begin).String())}, args...)
	if err != nil {
		args = append(args, slog.Any("error", err))
		lm.logger.Warn(op+" failed", args...)

		return
	}
	lm.logger.Info(op+" completed successfully", args...)
}

func (lm *loggingMiddleware) GlobalStatus(ctx context.Context) (gs training.GlobalStatus, err error) {
	defer func(begin time.Time) {
		lm.log("Get global status", begin, err,
			slog.Group("model",
				slog.String("version", gs.Version),
				slog.Float64("accuracy", gs.Accuracy),
			),
		)
	}(time.Now())

	return lm.svc.GlobalStatus(ctx)
}

func (lm *loggingMiddleware) TrainingStatus(ctx context.Context) (s training.Status, err error) {
	defer func(begin time.Time) {
		lm.log("Get training status", begin, err,
			slog.Group("training",
				slog.String("status", s.Status.String()),
				slog.Uint64("current_round", s.CurrentRound),
				slog.Uint64("total_rounds", s.TotalRounds),
			),
		)
	}(time.Now())

	return lm.svc.TrainingStatus(ctx)
}

func (lm *loggingMiddleware) Metrics(ctx context.Context) (m training.Summary, err error) {
	defer func(begin time.Time) {
		lm.log("Get metrics", begin, err, slog.Uint64("total_rounds", m.TotalRounds), slog.Float64("latest_accuracy", m.LatestAccuracy))
	}(time.Now())

	return lm.svc.Metrics(ctx)
}

func (lm *loggingMiddleware) Rounds(ctx context.Context) (r []training.Round, err error) {
	defer func(begin time.Time) {
		lm.log("List rounds", begin, err, slog.Int("count", len(r)))
	}(time.Now())

	return lm.svc.Rounds(ctx)
}

func (lm *loggingMiddleware) Clients(ctx context.Context) (c []training.Client, err error) {
	defer func(begin time.Time) {
		lm.log("List clients", begin, err, slog.Int("count", len(c)))
	}(time.Now())

	return lm.svc.Clients(ctx)
}

func (lm *loggingMiddleware) Logs(ctx context.Context) (l []training.LogEntry, err error) {
	defer func(begin time.Time) {
		lm.log("List logs", begin, err, slog.Int("count", len(l)))
	}(time.Now())

	return lm.svc.Logs(ctx)
}

func (lm *loggingMiddleware) Features(ctx context.Context) (f []prediction.Feature, err error) {
	defer func(begin time.Time) {
		lm.log("List features", begin, err, slog.Int("count", len(f)))
	}(time.Now())

	return lm.svc.Features(ctx)
}

func (lm *loggingMiddleware) HospitalDashboard(ctx context.Context, hospitalID string) (d training.HospitalDashboard, err error) {
	defer func(begin time.Time) {
		lm.log("Get hospital dashboard", begin, err, slog.String("hospital_id", hospitalID))
	}(time.Now())

	return lm.svc.HospitalDashboard(ctx, hospitalID)
}

func (lm *loggingMiddleware) LocalMetrics(ctx context.Context, hospitalID string) (h training.History, err error) {
	defer func(begin time.Time) {
		lm.log("Get local metrics", begin, err,
			slog.String("hospital_id", hospitalID),
			slog.Int("rounds", len(h)),
		)
	}(time.Now())

	return lm.svc.LocalMetrics(ctx, hospitalID)
}

func (lm *loggingMiddleware) Predict(ctx context.Context, hospitalID string, form prediction.Form) (res prediction.Result, err error) {
	defer func(begin time.Time) {
		lm.log("Predict", begin, err,
			slog.String("hospital_id", hospitalID),
			slog.Group("prediction",
				slog.String("id", res.ID),
				slog.String("patient_id", form.PatientID),
				slog.Float64("risk_score", res.RiskScore),
				slog.Bool("synthetic", res.Synthetic),
			),
		)
	}(time.Now())

	return lm.svc.Predict(ctx, hospitalID, form)
}

func (lm *loggingMiddleware) PredictionHistory(ctx context.Context, hospitalID string, offset, limit uint64) (page prediction.Page, err error) {
	defer func(begin time.Time) {
		lm.log("List predictions", begin, err,
			slog.String("hospital_id", hospitalID),
			slog.Uint64("offset", offset),
			slog.Uint64("limit", limit),
			slog.Uint64("total", page.Total),
		)
	}(time.Now())

	return lm.svc.PredictionHistory(ctx, hospitalID, offset, limit)
}

func (lm *loggingMiddleware) StartTraining(ctx context.Context, hospitalID string) (ack training.StartAck, err error) {
	defer func(begin time.Time) {
		lm.log("Start training", begin, err,
			slog.String("hospital_id", hospitalID),
			slog.Group("training",
				slog.String("id", ack.TrainingID),
				slog.Bool("synthetic", ack.Synthetic),
			),
		)
	}(time.Now())

	return lm.svc.StartTraining(ctx, hospitalID)
}
