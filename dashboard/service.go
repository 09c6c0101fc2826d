package dashboard

import (
	"context"
	"errors"
	"log/slog"

	pkgerrors "github.com/absmach/cvdash/pkg/errors"
	"github.com/absmach/cvdash/pkg/mqtt"
	"github.com/absmach/cvdash/pkg/prediction"
	"github.com/absmach/cvdash/pkg/storage"
	"github.com/absmach/cvdash/pkg/training"
	"github.com/google/uuid"
	"k8s.io/utils/clock"
)

const (
	startAction = "start-training"
	eventSource = "dashboard"
)

type service struct {
	remote      Source
	local       Fallback
	predictions storage.PredictionRepository
	publisher   mqtt.PubSub
	clock       clock.PassiveClock
	logger      *slog.Logger
}

// NewService composes the remote source with the fallback. remote and
// publisher may be nil; without a remote every call is served locally.
func NewService(remote Source, local Fallback, predictions storage.PredictionRepository, publisher mqtt.PubSub, clk clock.PassiveClock, logger *slog.Logger) Service {
	return &service{
		remote:      remote,
		local:       local,
		predictions: predictions,
		publisher:   publisher,
		clock:       clk,
		logger:      logger,
	}
}

// resolve runs the remote call and substitutes the local one on a fetch
// failure. The bool result reports substitution.
func resolve[T any](ctx context.Context, svc *service, endpoint string, remote, local func(context.Context) (T, error)) (T, bool, error) {
	var remoteErr error
	if svc.remote != nil {
		v, err := remote(ctx)
		if err == nil {
			return v, false, nil
		}
		var fe *pkgerrors.FetchError
		if !errors.As(err, &fe) {
			return v, false, err
		}
		svc.logger.Warn("Remote fetch failed, substituting fallback data",
			slog.String("endpoint", endpoint),
			slog.String("reason", fe.Reason.String()),
			slog.Any("error", err),
		)
		remoteErr = err
	}

	v, err := local(ctx)
	if err != nil {
		return v, true, errors.Join(remoteErr, err)
	}

	return v, true, nil
}

func (svc *service) GlobalStatus(ctx context.Context) (training.GlobalStatus, error) {
	gs, _, err := resolve(ctx, svc, "/admin/global-status",
		func(ctx context.Context) (training.GlobalStatus, error) { return svc.remote.GlobalStatus(ctx) },
		svc.local.GlobalStatus,
	)

	return gs, err
}

func (svc *service) TrainingStatus(ctx context.Context) (training.Status, error) {
	s, _, err := resolve(ctx, svc, "/training-status",
		func(ctx context.Context) (training.Status, error) { return svc.remote.TrainingStatus(ctx) },
		svc.local.TrainingStatus,
	)

	return s, err
}

func (svc *service) Metrics(ctx context.Context) (training.Summary, error) {
	m, _, err := resolve(ctx, svc, "/metrics",
		func(ctx context.Context) (training.Summary, error) { return svc.remote.Metrics(ctx) },
		svc.local.Metrics,
	)

	return m, err
}

func (svc *service) Rounds(ctx context.Context) ([]training.Round, error) {
	r, _, err := resolve(ctx, svc, "/rounds",
		func(ctx context.Context) ([]training.Round, error) { return svc.remote.Rounds(ctx) },
		svc.local.Rounds,
	)

	return r, err
}

func (svc *service) Clients(ctx context.Context) ([]training.Client, error) {
	c, _, err := resolve(ctx, svc, "/clients",
		func(ctx context.Context) ([]training.Client, error) { return svc.remote.Clients(ctx) },
		svc.local.Clients,
	)

	return c, err
}

func (svc *service) Logs(ctx context.Context) ([]training.LogEntry, error) {
	l, _, err := resolve(ctx, svc, "/logs",
		func(ctx context.Context) ([]training.LogEntry, error) { return svc.remote.Logs(ctx) },
		svc.local.Logs,
	)

	return l, err
}

func (svc *service) Features(ctx context.Context) ([]prediction.Feature, error) {
	f, _, err := resolve(ctx, svc, "/features",
		func(ctx context.Context) ([]prediction.Feature, error) { return svc.remote.Features(ctx) },
		svc.local.Features,
	)

	return f, err
}

func (svc *service) HospitalDashboard(ctx context.Context, hospitalID string) (training.HospitalDashboard, error) {
	if hospitalID == "" {
		return training.HospitalDashboard{}, pkgerrors.NewValidationError("hospitalId", "required")
	}
	d, _, err := resolve(ctx, svc, "/hospital/"+hospitalID+"/dashboard",
		func(ctx context.Context) (training.HospitalDashboard, error) {
			return svc.remote.HospitalDashboard(ctx, hospitalID)
		},
		func(ctx context.Context) (training.HospitalDashboard, error) {
			return svc.local.HospitalDashboard(ctx, hospitalID)
		},
	)

	return d, err
}

func (svc *service) LocalMetrics(ctx context.Context, hospitalID string) (training.History, error) {
	if hospitalID == "" {
		return nil, pkgerrors.NewValidationError("hospitalId", "required")
	}
	h, _, err := resolve(ctx, svc, "/hospital/"+hospitalID+"/local-metrics",
		func(ctx context.Context) (training.History, error) { return svc.remote.LocalMetrics(ctx, hospitalID) },
		func(ctx context.Context) (training.History, error) { return svc.local.LocalMetrics(ctx, hospitalID) },
	)

	return h, err
}

func (svc *service) Predict(ctx context.Context, hospitalID string, form prediction.Form) (prediction.Result, error) {
	if hospitalID == "" {
		return prediction.Result{}, pkgerrors.NewValidationError("hospitalId", "required")
	}
	if err := form.Validate(); err != nil {
		return prediction.Result{}, err
	}

	req := form.Request()
	resp, synthetic, err := resolve(ctx, svc, "/hospital/"+hospitalID+"/predict",
		func(ctx context.Context) (prediction.Response, error) { return svc.remote.Predict(ctx, hospitalID, req) },
		func(ctx context.Context) (prediction.Response, error) { return svc.local.Predict(ctx, hospitalID, req) },
	)
	if err != nil {
		return prediction.Result{}, err
	}

	res := resp.ToResult(hospitalID, form.PatientID, svc.clock.Now().UTC())
	res.ID = uuid.NewString()
	res.Synthetic = synthetic

	if err := svc.predictions.Save(ctx, res); err != nil {
		svc.logger.Warn("Failed to save prediction",
			slog.String("hospital_id", hospitalID),
			slog.String("prediction_id", res.ID),
			slog.Any("error", err),
		)
	}

	return res, nil
}

// PredictionHistory lists stored predictions newest first. A hospital
// without any gets synthetic history.
func (svc *service) PredictionHistory(ctx context.Context, hospitalID string, offset, limit uint64) (prediction.Page, error) {
	if hospitalID == "" {
		return prediction.Page{}, pkgerrors.NewValidationError("hospitalId", "required")
	}

	page, err := svc.predictions.List(ctx, hospitalID, offset, limit)
	if err != nil {
		return prediction.Page{}, err
	}
	if page.Total > 0 {
		return page, nil
	}

	synthetic, err := svc.local.PredictionHistory(ctx, hospitalID)
	switch {
	case errors.Is(err, pkgerrors.ErrFallbackDisabled):
		return page, nil
	case err != nil:
		return prediction.Page{}, err
	}

	page.Total = uint64(len(synthetic))
	page.Predictions = []prediction.Result{}
	if offset < page.Total {
		end := page.Total
		if limit < page.Total-offset {
			end = offset + limit
		}
		page.Predictions = synthetic[offset:end]
	}

	return page, nil
}

func (svc *service) StartTraining(ctx context.Context, hospitalID string) (training.StartAck, error) {
	var remoteErr error
	if svc.remote != nil {
		ack, err := svc.remote.StartTraining(ctx, hospitalID)
		if err == nil {
			svc.publish(ctx, hospitalID, ack)

			return ack, nil
		}
		svc.logger.Warn("Remote start training failed, substituting fallback acknowledgment",
			slog.String("hospital_id", hospitalID),
			slog.Any("error", err),
		)
		remoteErr = err
	}

	ack, err := svc.local.StartTraining(ctx, hospitalID)
	if err != nil {
		if remoteErr == nil {
			remoteErr = err
		}

		return training.StartAck{}, pkgerrors.ActionFromFetch(startAction, remoteErr)
	}
	ack.Synthetic = true
	svc.publish(ctx, hospitalID, ack)

	return ack, nil
}

func (svc *service) publish(ctx context.Context, hospitalID string, ack training.StartAck) {
	if svc.publisher == nil {
		return
	}

	ev := mqtt.Event{
		Kind:      startAction,
		Source:    eventSource,
		Timestamp: svc.clock.Now().UTC(),
		Payload: map[string]any{
			"hospitalId": hospitalID,
			"trainingId": ack.TrainingID,
			"synthetic":  ack.Synthetic,
		},
	}
	if err := svc.publisher.Publish(ctx, mqtt.TopicActions, ev); err != nil {
		svc.logger.Warn("Failed to publish action event", slog.String("topic", mqtt.TopicActions), slog.Any("error", err))
	}
}
