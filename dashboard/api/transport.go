package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/absmach/cvdash/dashboard"
	"github.com/absmach/cvdash/pkg/api"
	"github.com/absmach/cvdash/session"
	"github.com/absmach/supermq"
	apiutil "github.com/absmach/supermq/api/http/util"
	"github.com/go-chi/chi/v5"
	"github.com/go-kit/kit/endpoint"
	kithttp "github.com/go-kit/kit/transport/http"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const hospitalIDKey = "hospitalID"

func MakeHandler(svc dashboard.Service, sessions *session.Manager, logger *slog.Logger, instanceID string) http.Handler {
	mux := chi.NewRouter()

	opts := []kithttp.ServerOption{
		kithttp.ServerErrorEncoder(apiutil.LoggingErrorEncoder(logger, api.EncodeError)),
	}

	handler := func(ep endpoint.Endpoint, dec kithttp.DecodeRequestFunc, name string) http.HandlerFunc {
		return otelhttp.NewHandler(kithttp.NewServer(ep, dec, api.EncodeResponse, opts...), name).ServeHTTP
	}

	mux.Route("/api", func(r chi.Router) {
		r.Post("/login", handler(loginEndpoint(sessions), decodeLoginReq, "login"))

		r.Group(func(r chi.Router) {
			r.Use(session.Authenticated(sessions))
			r.Post("/logout", handler(logoutEndpoint(sessions), decodeNoReq, "logout"))
			r.Get("/session", handler(sessionEndpoint(), decodeNoReq, "get-session"))
			r.Delete("/alert", handler(dismissAlertEndpoint(), decodeNoReq, "dismiss-alert"))
		})

		r.Group(func(r chi.Router) {
			r.Use(session.Guard(sessions, session.Admin))
			r.Post("/start-training", handler(adminStartTrainingEndpoint(), decodeNoReq, "start-training"))
			r.Route("/admin", func(r chi.Router) {
				r.Get("/view", handler(adminViewEndpoint(), decodeNoReq, "admin-view"))
				r.Get("/overview", handler(overviewEndpoint(svc), decodeNoReq, "admin-overview"))
				r.Get("/rounds", handler(roundsEndpoint(svc), decodeNoReq, "list-rounds"))
				r.Get("/hospitals", handler(hospitalsEndpoint(svc), decodeNoReq, "list-hospitals"))
				r.Get("/logs", handler(logsEndpoint(svc), decodeNoReq, "list-logs"))
			})
		})

		r.Route("/hospital/{hospitalID}", func(r chi.Router) {
			r.Use(session.Guard(sessions, session.Hospital))
			r.Get("/dashboard", handler(hospitalDashboardEndpoint(svc), decodeHospitalReq, "hospital-dashboard"))
			r.Get("/local-metrics", handler(localMetricsEndpoint(svc), decodeHospitalReq, "local-metrics"))
			r.Post("/predict", handler(predictEndpoint(svc), decodePredictReq, "predict"))
			r.Get("/predictions", handler(listPredictionsEndpoint(svc), decodeListPredictionsReq, "list-predictions"))
			r.Post("/start-training", handler(hospitalStartTrainingEndpoint(), decodeHospitalReq, "hospital-start-training"))
			r.Get("/view", handler(hospitalViewEndpoint(), decodeHospitalReq, "hospital-view"))
		})
	})

	mux.Get("/health", supermq.Health("dashboard", instanceID))
	mux.Handle("/metrics", promhttp.Handler())

	return mux
}

func decodeNoReq(_ context.Context, _ *http.Request) (any, error) {
	return nil, nil
}

func decodeLoginReq(_ context.Context, r *http.Request) (any, error) {
	if !strings.Contains(r.Header.Get("Content-Type"), api.ContentType) {
		return nil, errors.Join(apiutil.ErrValidation, apiutil.ErrUnsupportedContentType)
	}

	var req loginReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return nil, errors.Join(err, apiutil.ErrValidation)
	}

	return req, nil
}

func decodeHospitalReq(_ context.Context, r *http.Request) (any, error) {
	return hospitalReq{
		hospitalID: chi.URLParam(r, hospitalIDKey),
	}, nil
}

func decodePredictReq(_ context.Context, r *http.Request) (any, error) {
	if !strings.Contains(r.Header.Get("Content-Type"), api.ContentType) {
		return nil, errors.Join(apiutil.ErrValidation, apiutil.ErrUnsupportedContentType)
	}

	req := predictReq{hospitalID: chi.URLParam(r, hospitalIDKey)}
	if err := json.NewDecoder(r.Body).Decode(&req.Form); err != nil {
		return nil, errors.Join(err, apiutil.ErrValidation)
	}

	return req, nil
}

func decodeListPredictionsReq(_ context.Context, r *http.Request) (any, error) {
	o, err := apiutil.ReadNumQuery[uint64](r, api.OffsetKey, api.DefOffset)
	if err != nil {
		return nil, errors.Join(apiutil.ErrValidation, err)
	}

	l, err := apiutil.ReadNumQuery[uint64](r, api.LimitKey, api.DefLimit)
	if err != nil {
		return nil, errors.Join(apiutil.ErrValidation, err)
	}

	return listPredictionsReq{
		hospitalID: chi.URLParam(r, hospitalIDKey),
		offset:     o,
		limit:      l,
	}, nil
}
