package api

import (
	"context"
	"errors"

	"github.com/absmach/cvdash/dashboard"
	pkgerrors "github.com/absmach/cvdash/pkg/errors"
	"github.com/absmach/cvdash/pkg/training"
	"github.com/absmach/cvdash/session"
	apiutil "github.com/absmach/supermq/api/http/util"
	"github.com/go-kit/kit/endpoint"
	"golang.org/x/sync/errgroup"
)

// authorize returns the request's session when it may act as role on
// hospitalID.
func authorize(ctx context.Context, role session.Role, hospitalID string) (*session.Session, error) {
	s, ok := session.FromContext(ctx)
	if !ok {
		return nil, pkgerrors.ErrUnauthorized
	}
	if err := s.Authorize(role, hospitalID); err != nil {
		return nil, err
	}

	return s, nil
}

func loginEndpoint(sessions *session.Manager) endpoint.Endpoint {
	return func(ctx context.Context, request any) (any, error) {
		req, ok := request.(loginReq)
		if !ok {
			return loginResponse{}, errors.Join(apiutil.ErrValidation, pkgerrors.ErrInvalidData)
		}
		if err := req.validate(); err != nil {
			return loginResponse{}, errors.Join(apiutil.ErrValidation, err)
		}

		s, err := sessions.Login(ctx, req.Username, req.Password)
		if err != nil {
			return loginResponse{}, err
		}

		return loginResponse{
			Token:      s.Token,
			Role:       s.Role,
			HospitalID: s.HospitalID,
		}, nil
	}
}

func logoutEndpoint(sessions *session.Manager) endpoint.Endpoint {
	return func(ctx context.Context, _ any) (any, error) {
		s, ok := session.FromContext(ctx)
		if !ok {
			return logoutResponse{}, pkgerrors.ErrUnauthorized
		}
		if err := sessions.Logout(ctx, s.Token); err != nil {
			return logoutResponse{}, err
		}

		return logoutResponse{}, nil
	}
}

func sessionEndpoint() endpoint.Endpoint {
	return func(ctx context.Context, _ any) (any, error) {
		s, ok := session.FromContext(ctx)
		if !ok {
			return sessionResponse{}, pkgerrors.ErrUnauthorized
		}

		return sessionResponse{Record: s.Record}, nil
	}
}

func adminViewEndpoint() endpoint.Endpoint {
	return func(ctx context.Context, _ any) (any, error) {
		s, err := authorize(ctx, session.Admin, "")
		if err != nil {
			return viewResponse{}, err
		}

		return viewResponse{Snapshot: s.View().Snapshot()}, nil
	}
}

func hospitalViewEndpoint() endpoint.Endpoint {
	return func(ctx context.Context, request any) (any, error) {
		req, ok := request.(hospitalReq)
		if !ok {
			return viewResponse{}, errors.Join(apiutil.ErrValidation, pkgerrors.ErrInvalidData)
		}
		if err := req.validate(); err != nil {
			return viewResponse{}, errors.Join(apiutil.ErrValidation, err)
		}
		s, err := authorize(ctx, session.Hospital, req.hospitalID)
		if err != nil {
			return viewResponse{}, err
		}

		return viewResponse{Snapshot: s.View().Snapshot()}, nil
	}
}

func dismissAlertEndpoint() endpoint.Endpoint {
	return func(ctx context.Context, _ any) (any, error) {
		s, ok := session.FromContext(ctx)
		if !ok {
			return viewResponse{}, pkgerrors.ErrUnauthorized
		}
		if err := s.View().DismissAlert(); err != nil {
			return viewResponse{}, err
		}

		return viewResponse{Snapshot: s.View().Snapshot()}, nil
	}
}

func overviewEndpoint(svc dashboard.Service) endpoint.Endpoint {
	return func(ctx context.Context, _ any) (any, error) {
		if _, err := authorize(ctx, session.Admin, ""); err != nil {
			return overviewResponse{}, err
		}

		var res overviewResponse
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() (err error) {
			res.Global, err = svc.GlobalStatus(gctx)

			return err
		})
		g.Go(func() (err error) {
			res.Training, err = svc.TrainingStatus(gctx)

			return err
		})
		g.Go(func() (err error) {
			res.Metrics, err = svc.Metrics(gctx)

			return err
		})
		if err := g.Wait(); err != nil {
			return overviewResponse{}, err
		}

		return res, nil
	}
}

func roundsEndpoint(svc dashboard.Service) endpoint.Endpoint {
	return func(ctx context.Context, _ any) (any, error) {
		if _, err := authorize(ctx, session.Admin, ""); err != nil {
			return roundsResponse{}, err
		}

		rounds, err := svc.Rounds(ctx)
		if err != nil {
			return roundsResponse{}, err
		}

		return roundsResponse{Rounds: rounds}, nil
	}
}

func hospitalsEndpoint(svc dashboard.Service) endpoint.Endpoint {
	return func(ctx context.Context, _ any) (any, error) {
		if _, err := authorize(ctx, session.Admin, ""); err != nil {
			return clientsResponse{}, err
		}

		clients, err := svc.Clients(ctx)
		if err != nil {
			return clientsResponse{}, err
		}

		return clientsResponse{Clients: clients}, nil
	}
}

func logsEndpoint(svc dashboard.Service) endpoint.Endpoint {
	return func(ctx context.Context, _ any) (any, error) {
		if _, err := authorize(ctx, session.Admin, ""); err != nil {
			return logsResponse{}, err
		}

		logs, err := svc.Logs(ctx)
		if err != nil {
			return logsResponse{}, err
		}

		return logsResponse{Logs: training.SortLogs(logs)}, nil
	}
}

// adminStartTrainingEndpoint goes through the session's view so the
// optimistic status and polling activation apply.
func adminStartTrainingEndpoint() endpoint.Endpoint {
	return func(ctx context.Context, _ any) (any, error) {
		s, err := authorize(ctx, session.Admin, "")
		if err != nil {
			return startTrainingResponse{}, err
		}

		ack, err := s.View().StartTraining(ctx)
		if err != nil {
			return startTrainingResponse{}, err
		}

		return startTrainingResponse{StartAck: ack}, nil
	}
}

func hospitalStartTrainingEndpoint() endpoint.Endpoint {
	return func(ctx context.Context, request any) (any, error) {
		req, ok := request.(hospitalReq)
		if !ok {
			return startTrainingResponse{}, errors.Join(apiutil.ErrValidation, pkgerrors.ErrInvalidData)
		}
		if err := req.validate(); err != nil {
			return startTrainingResponse{}, errors.Join(apiutil.ErrValidation, err)
		}
		s, err := authorize(ctx, session.Hospital, req.hospitalID)
		if err != nil {
			return startTrainingResponse{}, err
		}

		ack, err := s.View().StartTraining(ctx)
		if err != nil {
			return startTrainingResponse{}, err
		}

		return startTrainingResponse{StartAck: ack}, nil
	}
}

func hospitalDashboardEndpoint(svc dashboard.Service) endpoint.Endpoint {
	return func(ctx context.Context, request any) (any, error) {
		req, ok := request.(hospitalReq)
		if !ok {
			return dashboardResponse{}, errors.Join(apiutil.ErrValidation, pkgerrors.ErrInvalidData)
		}
		if err := req.validate(); err != nil {
			return dashboardResponse{}, errors.Join(apiutil.ErrValidation, err)
		}
		if _, err := authorize(ctx, session.Hospital, req.hospitalID); err != nil {
			return dashboardResponse{}, err
		}

		d, err := svc.HospitalDashboard(ctx, req.hospitalID)
		if err != nil {
			return dashboardResponse{}, err
		}

		return dashboardResponse{HospitalDashboard: d}, nil
	}
}

func localMetricsEndpoint(svc dashboard.Service) endpoint.Endpoint {
	return func(ctx context.Context, request any) (any, error) {
		req, ok := request.(hospitalReq)
		if !ok {
			return localMetricsResponse{}, errors.Join(apiutil.ErrValidation, pkgerrors.ErrInvalidData)
		}
		if err := req.validate(); err != nil {
			return localMetricsResponse{}, errors.Join(apiutil.ErrValidation, err)
		}
		if _, err := authorize(ctx, session.Hospital, req.hospitalID); err != nil {
			return localMetricsResponse{}, err
		}

		h, err := svc.LocalMetrics(ctx, req.hospitalID)
		if err != nil {
			return localMetricsResponse{}, err
		}

		return localMetricsResponse{Rounds: h}, nil
	}
}

func predictEndpoint(svc dashboard.Service) endpoint.Endpoint {
	return func(ctx context.Context, request any) (any, error) {
		req, ok := request.(predictReq)
		if !ok {
			return predictResponse{}, errors.Join(apiutil.ErrValidation, pkgerrors.ErrInvalidData)
		}
		if err := req.validate(); err != nil {
			return predictResponse{}, errors.Join(apiutil.ErrValidation, err)
		}
		if _, err := authorize(ctx, session.Hospital, req.hospitalID); err != nil {
			return predictResponse{}, err
		}

		res, err := svc.Predict(ctx, req.hospitalID, req.Form)
		if err != nil {
			return predictResponse{}, err
		}

		return predictResponse{Result: res}, nil
	}
}

func listPredictionsEndpoint(svc dashboard.Service) endpoint.Endpoint {
	return func(ctx context.Context, request any) (any, error) {
		req, ok := request.(listPredictionsReq)
		if !ok {
			return listPredictionsResponse{}, errors.Join(apiutil.ErrValidation, pkgerrors.ErrInvalidData)
		}
		if err := req.validate(); err != nil {
			return listPredictionsResponse{}, errors.Join(apiutil.ErrValidation, err)
		}
		if _, err := authorize(ctx, session.Hospital, req.hospitalID); err != nil {
			return listPredictionsResponse{}, err
		}

		page, err := svc.PredictionHistory(ctx, req.hospitalID, req.offset, req.limit)
		if err != nil {
			return listPredictionsResponse{}, err
		}

		return listPredictionsResponse{Page: page}, nil
	}
}
