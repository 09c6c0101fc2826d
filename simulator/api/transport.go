package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"mime"
	"net/http"

	"github.com/absmach/cvdash/pkg/api"
	pkgerrors "github.com/absmach/cvdash/pkg/errors"
	"github.com/absmach/cvdash/simulator"
	"github.com/absmach/supermq"
	apiutil "github.com/absmach/supermq/api/http/util"
	"github.com/fxamacker/cbor/v2"
	"github.com/go-chi/chi/v5"
	"github.com/go-kit/kit/endpoint"
	kithttp "github.com/go-kit/kit/transport/http"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const (
	hospitalIDKey = "hospitalID"
	ctCBOR        = "application/cbor"
	maxBodySize   = 64 * 1024

	// PrometheusPath avoids /metrics, which serves training metrics.
	PrometheusPath = "/debug/metrics"
)

func MakeHandler(svc simulator.Service, logger *slog.Logger, instanceID string) http.Handler {
	mux := chi.NewRouter()

	opts := []kithttp.ServerOption{
		kithttp.ServerErrorEncoder(apiutil.LoggingErrorEncoder(logger, encodeError)),
	}

	handler := func(ep endpoint.Endpoint, dec kithttp.DecodeRequestFunc, name string) http.HandlerFunc {
		return otelhttp.NewHandler(kithttp.NewServer(ep, dec, api.EncodeResponse, opts...), name).ServeHTTP
	}

	mux.Get("/admin/global-status", handler(globalStatusEndpoint(svc), decodeNoReq, "global-status"))
	mux.Get("/training-status", handler(trainingStatusEndpoint(svc), decodeNoReq, "training-status"))
	mux.Get("/metrics", handler(metricsEndpoint(svc), decodeNoReq, "metrics"))
	mux.Get("/rounds", handler(roundsEndpoint(svc), decodeNoReq, "rounds"))
	mux.Get("/clients", handler(clientsEndpoint(svc), decodeNoReq, "clients"))
	mux.Get("/logs", handler(logsEndpoint(svc), decodeNoReq, "logs"))
	mux.Get("/features", handler(featuresEndpoint(svc), decodeNoReq, "features"))
	mux.Post("/predict", handler(predictEndpoint(svc), decodePredictReq, "predict"))
	mux.Post("/start-training", handler(startTrainingEndpoint(svc), decodeHospitalReq, "start-training"))
	mux.Post("/reset", handler(resetEndpoint(svc), decodeNoReq, "reset"))

	mux.Route("/hospital/{hospitalID}", func(r chi.Router) {
		r.Get("/dashboard", handler(hospitalDashboardEndpoint(svc), decodeHospitalReq, "hospital-dashboard"))
		r.Get("/local-metrics", handler(localMetricsEndpoint(svc), decodeHospitalReq, "local-metrics"))
		r.Post("/predict", handler(predictEndpoint(svc), decodePredictReq, "hospital-predict"))
		r.Post("/start-training", handler(startTrainingEndpoint(svc), decodeHospitalReq, "hospital-start-training"))
	})

	mux.Get("/health", supermq.Health("simulator", instanceID))
	mux.Handle(PrometheusPath, promhttp.Handler())

	return mux
}

func decodeNoReq(_ context.Context, _ *http.Request) (any, error) {
	return nil, nil
}

func decodeHospitalReq(_ context.Context, r *http.Request) (any, error) {
	return hospitalReq{hospitalID: chi.URLParam(r, hospitalIDKey)}, nil
}

// decodePredictReq accepts JSON and CBOR bodies.
func decodePredictReq(_ context.Context, r *http.Request) (any, error) {
	req := predictReq{hospitalID: chi.URLParam(r, hospitalIDKey)}

	ct, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil {
		ct = api.ContentType
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodySize))
	if err != nil {
		return nil, pkgerrors.NewValidationError("body", err.Error())
	}

	switch ct {
	case api.ContentType:
		if err := json.Unmarshal(body, &req.Request); err != nil {
			return nil, pkgerrors.NewValidationError("body", "Invalid JSON body")
		}
	case ctCBOR:
		if err := cbor.Unmarshal(body, &req.Request); err != nil {
			return nil, pkgerrors.NewValidationError("body", "Invalid CBOR body")
		}
	default:
		return nil, errors.Join(apiutil.ErrValidation, apiutil.ErrUnsupportedContentType)
	}

	return req, nil
}

// encodeError writes {"detail": ...} bodies.
func encodeError(_ context.Context, err error, w http.ResponseWriter) {
	code, detail := errorDetail(err)

	w.Header().Set("Content-Type", api.ContentType)
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(errorRes{Detail: detail}); err != nil {
		w.WriteHeader(http.StatusInternalServerError)
	}
}

func errorDetail(err error) (int, string) {
	var verr *pkgerrors.ValidationError
	switch {
	case errors.Is(err, simulator.ErrTrainingInProgress):
		return http.StatusBadRequest, "Training is already in progress"
	case errors.Is(err, simulator.ErrResetWhileTraining):
		return http.StatusBadRequest, "Cannot reset while training is in progress"
	case errors.Is(err, apiutil.ErrUnsupportedContentType):
		return http.StatusUnsupportedMediaType, apiutil.ErrUnsupportedContentType.Error()
	case errors.As(err, &verr):
		if verr.Reason != "" {
			return http.StatusBadRequest, verr.Reason
		}

		return http.StatusBadRequest, verr.Error()
	case errors.Is(err, apiutil.ErrValidation):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, pkgerrors.ErrNotFound):
		return http.StatusNotFound, "Not Found"
	default:
		return http.StatusInternalServerError, "Internal Server Error"
	}
}
