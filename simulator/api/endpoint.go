package api

import (
	"context"
	"errors"

	pkgerrors "github.com/absmach/cvdash/pkg/errors"
	"github.com/absmach/cvdash/pkg/prediction"
	"github.com/absmach/cvdash/pkg/training"
	"github.com/absmach/cvdash/simulator"
	apiutil "github.com/absmach/supermq/api/http/util"
	"github.com/go-kit/kit/endpoint"
)

type hospitalReq struct {
	hospitalID string
}

func (req hospitalReq) validate() error {
	if req.hospitalID == "" {
		return apiutil.ErrMissingID
	}

	return nil
}

type predictReq struct {
	hospitalID string
	prediction.Request
}

func globalStatusEndpoint(svc simulator.Service) endpoint.Endpoint {
	return func(ctx context.Context, _ any) (any, error) {
		gs, err := svc.GlobalStatus(ctx)
		if err != nil {
			return response{}, err
		}

		return newResponse(gs), nil
	}
}

func trainingStatusEndpoint(svc simulator.Service) endpoint.Endpoint {
	return func(ctx context.Context, _ any) (any, error) {
		st, err := svc.TrainingStatus(ctx)
		if err != nil {
			return response{}, err
		}

		return newResponse(st), nil
	}
}

func metricsEndpoint(svc simulator.Service) endpoint.Endpoint {
	return func(ctx context.Context, _ any) (any, error) {
		m, err := svc.Metrics(ctx)
		if err != nil {
			return response{}, err
		}

		return newResponse(m), nil
	}
}

func roundsEndpoint(svc simulator.Service) endpoint.Endpoint {
	return func(ctx context.Context, _ any) (any, error) {
		rounds, err := svc.Rounds(ctx)
		if err != nil {
			return response{}, err
		}

		return newResponse(struct {
			Rounds []training.Round `json:"rounds"`
		}{rounds}), nil
	}
}

func clientsEndpoint(svc simulator.Service) endpoint.Endpoint {
	return func(ctx context.Context, _ any) (any, error) {
		clients, err := svc.Clients(ctx)
		if err != nil {
			return response{}, err
		}

		return newResponse(struct {
			Clients []training.Client `json:"clients"`
		}{clients}), nil
	}
}

func logsEndpoint(svc simulator.Service) endpoint.Endpoint {
	return func(ctx context.Context, _ any) (any, error) {
		logs, err := svc.Logs(ctx)
		if err != nil {
			return response{}, err
		}

		return newResponse(struct {
			Logs []training.LogEntry `json:"logs"`
		}{logs}), nil
	}
}

func featuresEndpoint(svc simulator.Service) endpoint.Endpoint {
	return func(ctx context.Context, _ any) (any, error) {
		features, err := svc.Features(ctx)
		if err != nil {
			return response{}, err
		}

		return newResponse(struct {
			Features []prediction.Feature `json:"features"`
		}{features}), nil
	}
}

func hospitalDashboardEndpoint(svc simulator.Service) endpoint.Endpoint {
	return func(ctx context.Context, request any) (any, error) {
		req, ok := request.(hospitalReq)
		if !ok {
			return response{}, errors.Join(apiutil.ErrValidation, pkgerrors.ErrInvalidData)
		}
		if err := req.validate(); err != nil {
			return response{}, errors.Join(apiutil.ErrValidation, err)
		}

		d, err := svc.HospitalDashboard(ctx, req.hospitalID)
		if err != nil {
			return response{}, err
		}

		return newResponse(d), nil
	}
}

func localMetricsEndpoint(svc simulator.Service) endpoint.Endpoint {
	return func(ctx context.Context, request any) (any, error) {
		req, ok := request.(hospitalReq)
		if !ok {
			return response{}, errors.Join(apiutil.ErrValidation, pkgerrors.ErrInvalidData)
		}
		if err := req.validate(); err != nil {
			return response{}, errors.Join(apiutil.ErrValidation, err)
		}

		h, err := svc.LocalMetrics(ctx, req.hospitalID)
		if err != nil {
			return response{}, err
		}

		return newResponse(struct {
			Rounds training.History `json:"rounds"`
		}{h}), nil
	}
}

func predictEndpoint(svc simulator.Service) endpoint.Endpoint {
	return func(ctx context.Context, request any) (any, error) {
		req, ok := request.(predictReq)
		if !ok {
			return response{}, errors.Join(apiutil.ErrValidation, pkgerrors.ErrInvalidData)
		}

		resp, err := svc.Predict(ctx, req.hospitalID, req.Request)
		if err != nil {
			return response{}, err
		}

		return newResponse(resp), nil
	}
}

func startTrainingEndpoint(svc simulator.Service) endpoint.Endpoint {
	return func(ctx context.Context, request any) (any, error) {
		req, ok := request.(hospitalReq)
		if !ok {
			return response{}, errors.Join(apiutil.ErrValidation, pkgerrors.ErrInvalidData)
		}

		ack, err := svc.StartTraining(ctx, req.hospitalID)
		if err != nil {
			return response{}, err
		}

		return newResponse(ack), nil
	}
}

func resetEndpoint(svc simulator.Service) endpoint.Endpoint {
	return func(ctx context.Context, _ any) (any, error) {
		if err := svc.Reset(ctx); err != nil {
			return response{}, err
		}

		return newResponse(messageRes{Message: "Training state reset successfully"}), nil
	}
}
