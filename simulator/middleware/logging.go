package middleware

import (
	"context"
	"log/slog"
	"time"

	"github.com/absmach/cvdash/pkg/prediction"
	"github.com/absmach/cvdash/pkg/training"
	"github.com/absmach/cvdash/simulator"
)

var _ simulator.Service = (*loggingMiddleware)(nil)

type loggingMiddleware struct {
	logger *slog.Logger
	svc    simulator.Service
}

// Logging logs state-changing calls at Info and reads at Debug.
func Logging(logger *slog.Logger, svc simulator.Service) simulator.Service {
	return &loggingMiddleware{
		logger: logger,
		svc:    svc,
	}
}

func (lm *loggingMiddleware) read(op string, begin time.Time, err error, args ...any) {
	args = append([]any{slog.String("duration", time.Since(begin).String())}, args...)
	if err != nil {
		args = append(args, slog.Any("error", err))
		lm.logger.Warn(op+" failed", args...)

		return
	}
	lm.logger.Debug(op+" completed successfully", args...)
}

func (lm *loggingMiddleware) GlobalStatus(ctx context.Context) (gs training.GlobalStatus, err error) {
	defer func(begin time.Time) {
		lm.read("Get global status", begin, err, slog.String("version", gs.Version))
	}(time.Now())

	return lm.svc.GlobalStatus(ctx)
}

func (lm *loggingMiddleware) TrainingStatus(ctx context.Context) (s training.Status, err error) {
	defer func(begin time.Time) {
		lm.read("Get training status", begin, err,
			slog.String("status", s.Status.String()),
			slog.Uint64("current_round", s.CurrentRound),
		)
	}(time.Now())

	return lm.svc.TrainingStatus(ctx)
}

func (lm *loggingMiddleware) Metrics(ctx context.Context) (m training.Summary, err error) {
	defer func(begin time.Time) {
		lm.read("Get metrics", begin, err, slog.Uint64("total_rounds", m.TotalRounds))
	}(time.Now())

	return lm.svc.Metrics(ctx)
}

func (lm *loggingMiddleware) Rounds(ctx context.Context) (r []training.Round, err error) {
	defer func(begin time.Time) {
		lm.read("List rounds", begin, err, slog.Int("count", len(r)))
	}(time.Now())

	return lm.svc.Rounds(ctx)
}

func (lm *loggingMiddleware) Clients(ctx context.Context) (c []training.Client, err error) {
	defer func(begin time.Time) {
		lm.read("List clients", begin, err, slog.Int("count", len(c)))
	}(time.Now())

	return lm.svc.Clients(ctx)
}

func (lm *loggingMiddleware) Logs(ctx context.Context) (l []training.LogEntry, err error) {
	defer func(begin time.Time) {
		lm.read("List logs", begin, err, slog.Int("count", len(l)))
	}(time.Now())

	return lm.svc.Logs(ctx)
}

func (lm *loggingMiddleware) Features(ctx context.Context) (f []prediction.Feature, err error) {
	defer func(begin time.Time) {
		lm.read("List features", begin, err)
	}(time.Now())

	return lm.svc.Features(ctx)
}

func (lm *loggingMiddleware) HospitalDashboard(ctx context.Context, hospitalID string) (d training.HospitalDashboard, err error) {
	defer func(begin time.Time) {
		lm.read("Get hospital dashboard", begin, err, slog.String("hospital_id", hospitalID))
	}(time.Now())

	return lm.svc.HospitalDashboard(ctx, hospitalID)
}

func (lm *loggingMiddleware) LocalMetrics(ctx context.Context, hospitalID string) (h training.History, err error) {
	defer func(begin time.Time) {
		lm.read("Get local metrics", begin, err, slog.String("hospital_id", hospitalID))
	}(time.Now())

	return lm.svc.LocalMetrics(ctx, hospitalID)
}

func (lm *loggingMiddleware) Predict(ctx context.Context, hospitalID string, req prediction.Request) (resp prediction.Response, err error) {
	defer func(begin time.Time) {
		args := []any{
			slog.String("duration", time.Since(begin).String()),
			slog.String("hospital_id", hospitalID),
			slog.Group("prediction",
				slog.Float64("value", resp.Prediction),
				slog.String("risk_level", resp.RiskLevel),
			),
		}
		if err != nil {
			args = append(args, slog.Any("error", err))
			lm.logger.Warn("Predict failed", args...)

			return
		}
		lm.logger.Info("Predict completed successfully", args...)
	}(time.Now())

	return lm.svc.Predict(ctx, hospitalID, req)
}

func (lm *loggingMiddleware) StartTraining(ctx context.Context, hospitalID string) (ack training.StartAck, err error) {
	defer func(begin time.Time) {
		args := []any{
			slog.String("duration", time.Since(begin).String()),
			slog.String("hospital_id", hospitalID),
			slog.String("training_id", ack.TrainingID),
		}
		if err != nil {
			args = append(args, slog.Any("error", err))
			lm.logger.Warn("Start training failed", args...)

			return
		}
		lm.logger.Info("Start training completed successfully", args...)
	}(time.Now())

	return lm.svc.StartTraining(ctx, hospitalID)
}

func (lm *loggingMiddleware) Reset(ctx context.Context) (err error) {
	defer func(begin time.Time) {
		args := []any{
			slog.String("duration", time.Since(begin).String()),
		}
		if err != nil {
			args = append(args, slog.Any("error", err))
			lm.logger.Warn("Reset failed", args...)

			return
		}
		lm.logger.Info("Reset completed successfully", args...)
	}(time.Now())

	return lm.svc.Reset(ctx)
}
