package sdk

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	pkgerrors "github.com/absmach/cvdash/pkg/errors"
	"github.com/absmach/cvdash/pkg/prediction"
	"github.com/absmach/cvdash/pkg/training"
	"github.com/fxamacker/cbor/v2"
)

const (
	hospitalsEndpoint    = "/hospital"
	clientsEndpoint      = "/clients"
	logsEndpoint         = "/logs"
	featuresEndpoint     = "/features"
	dashboardEndpoint    = "/dashboard"
	localMetricsEndpoint = "/local-metrics"
	predictEndpoint      = "/predict"
)

type clientsPage struct {
	Clients []training.Client `json:"clients"`
}

func (p clientsPage) Validate() error {
	return training.ValidateClients(p.Clients)
}

type logsPage struct {
	Logs []training.LogEntry `json:"logs"`
}

func (p logsPage) Validate() error {
	return training.ValidateLogs(p.Logs)
}

type featuresPage struct {
	Features []prediction.Feature `json:"features"`
}

func (p featuresPage) Validate() error {
	if len(p.Features) != prediction.NumFeatures {
		return pkgerrors.NewValidationError("features", fmt.Sprintf("expected %d features, got %d", prediction.NumFeatures, len(p.Features)))
	}
	for i, f := range p.Features {
		if f.Name != prediction.Features[i].Name {
			return pkgerrors.NewValidationError(fmt.Sprintf("features[%d].name", i), "unexpected feature "+f.Name)
		}
	}

	return nil
}

type localMetricsPage struct {
	Rounds training.History `json:"rounds"`
}

func (p localMetricsPage) Validate() error {
	return p.Rounds.Validate()
}

func (sdk *cvSDK) Clients(ctx context.Context) ([]training.Client, error) {
	var p clientsPage
	if err := sdk.fetch(ctx, clientsEndpoint, Options{}, &p); err != nil {
		return nil, err
	}

	return p.Clients, nil
}

func (sdk *cvSDK) Logs(ctx context.Context) ([]training.LogEntry, error) {
	var p logsPage
	if err := sdk.fetch(ctx, logsEndpoint, Options{}, &p); err != nil {
		return nil, err
	}

	return p.Logs, nil
}

// Features merges the remote descriptions into the local scaling table; the
// remote does not publish bounds.
func (sdk *cvSDK) Features(ctx context.Context) ([]prediction.Feature, error) {
	var p featuresPage
	if err := sdk.fetch(ctx, featuresEndpoint, Options{}, &p); err != nil {
		return nil, err
	}

	features := make([]prediction.Feature, prediction.NumFeatures)
	for i, f := range prediction.Features {
		if p.Features[i].Description != "" {
			f.Description = p.Features[i].Description
		}
		features[i] = f
	}

	return features, nil
}

func (sdk *cvSDK) HospitalDashboard(ctx context.Context, hospitalID string) (training.HospitalDashboard, error) {
	var d training.HospitalDashboard
	if err := sdk.fetch(ctx, hospitalsEndpoint+"/"+hospitalID+dashboardEndpoint, Options{}, &d); err != nil {
		return training.HospitalDashboard{}, err
	}

	return d, nil
}

func (sdk *cvSDK) LocalMetrics(ctx context.Context, hospitalID string) (training.History, error) {
	var p localMetricsPage
	if err := sdk.fetch(ctx, hospitalsEndpoint+"/"+hospitalID+localMetricsEndpoint, Options{}, &p); err != nil {
		return nil, err
	}

	return p.Rounds, nil
}

func (sdk *cvSDK) Predict(ctx context.Context, hospitalID string, req prediction.Request) (prediction.Response, error) {
	endpoint := hospitalsEndpoint + "/" + hospitalID + predictEndpoint

	var (
		body []byte
		err  error
		ct   = CTJSON
	)
	switch sdk.predictCBOR {
	case true:
		body, err = cbor.Marshal(req)
		ct = CTCBOR
	default:
		body, err = json.Marshal(req)
	}
	if err != nil {
		return prediction.Response{}, malformed(endpoint, err)
	}

	var resp prediction.Response
	if err := sdk.fetch(ctx, endpoint, Options{Method: http.MethodPost, Body: body, ContentType: ct}, &resp); err != nil {
		return prediction.Response{}, err
	}

	return resp, nil
}
