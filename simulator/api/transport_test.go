package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	pkgerrors "github.com/absmach/cvdash/pkg/errors"
	"github.com/absmach/cvdash/pkg/prediction"
	"github.com/absmach/cvdash/pkg/sdk"
	"github.com/absmach/cvdash/pkg/training"
	"github.com/absmach/cvdash/simulator"
	simapi "github.com/absmach/cvdash/simulator/api"
	"github.com/fxamacker/cbor/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	clocktesting "k8s.io/utils/clock/testing"
)

func newServer(t *testing.T) (*httptest.Server, *clocktesting.FakeClock) {
	t.Helper()

	clk := clocktesting.NewFakeClock(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := simulator.NewService(simulator.Config{Rounds: 2, RoundDuration: time.Second, Seed: 9}, clk, nil, logger)

	ts := httptest.NewServer(simapi.MakeHandler(svc, logger, "test-instance"))
	t.Cleanup(ts.Close)

	return ts, clk
}

func TestSDKRoundTrip(t *testing.T) {
	t.Parallel()

	ts, clk := newServer(t)
	ctx := context.Background()

	for _, predictCBOR := range []bool{false, true} {
		client := sdk.NewSDK(sdk.Config{RemoteURL: ts.URL, PredictCBOR: predictCBOR})

		gs, err := client.GlobalStatus(ctx)
		require.NoError(t, err)
		assert.NotEmpty(t, gs.Version)

		clients, err := client.Clients(ctx)
		require.NoError(t, err)
		assert.NotEmpty(t, clients)

		features, err := client.Features(ctx)
		require.NoError(t, err)
		assert.Len(t, features, prediction.NumFeatures)

		_, err = client.Logs(ctx)
		require.NoError(t, err)

		d, err := client.HospitalDashboard(ctx, "h1")
		require.NoError(t, err)
		assert.Equal(t, "h1", d.HospitalID)

		resp, err := client.Predict(ctx, "h1", prediction.DefaultForm("P-1").Request())
		require.NoError(t, err)
		assert.True(t, resp.Prediction >= 0 && resp.Prediction <= 1)
	}

	client := sdk.NewSDK(sdk.Config{RemoteURL: ts.URL})

	ack, err := client.StartTraining(ctx, "h1")
	require.NoError(t, err)
	assert.Equal(t, training.TrainingStr, ack.Status)

	_, err = client.StartTraining(ctx, "")
	var fe *pkgerrors.FetchError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, pkgerrors.BadStatus, fe.Reason)
	assert.Equal(t, http.StatusBadRequest, fe.Code)
	assert.Equal(t, "Training is already in progress", fe.Detail)

	err = client.Reset(ctx)
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, "Cannot reset while training is in progress", fe.Detail)

	clk.Step(2 * time.Second)

	st, err := client.TrainingStatus(ctx)
	require.NoError(t, err)
	assert.Equal(t, training.Completed, st.Status)

	m, err := client.Metrics(ctx)
	require.NoError(t, err)
	assert.Len(t, m.Rounds, 2)

	rounds, err := client.Rounds(ctx)
	require.NoError(t, err)
	assert.Len(t, rounds, 2)

	local, err := client.LocalMetrics(ctx, "h1")
	require.NoError(t, err)
	assert.Len(t, local, 2)

	require.NoError(t, client.Reset(ctx))
}

func TestErrorBodies(t *testing.T) {
	t.Parallel()

	ts, _ := newServer(t)

	short, err := cbor.Marshal(prediction.Request{Features: []float64{0.5}})
	require.NoError(t, err)

	cases := []struct {
		desc        string
		method      string
		path        string
		contentType string
		body        []byte
		status      int
		detail      string
	}{
		{
			desc:   "unknown hospital",
			method: http.MethodGet,
			path:   "/hospital/h404/dashboard",
			status: http.StatusNotFound,
			detail: "Not Found",
		},
		{
			desc:        "wrong feature count",
			method:      http.MethodPost,
			path:        "/hospital/h1/predict",
			contentType: "application/json",
			body:        []byte(`{"features":[0.1,0.2,0.3]}`),
			status:      http.StatusBadRequest,
			detail:      "Expected 13 features, got 3",
		},
		{
			desc:        "wrong feature count in cbor",
			method:      http.MethodPost,
			path:        "/predict",
			contentType: "application/cbor",
			body:        short,
			status:      http.StatusBadRequest,
			detail:      "Expected 13 features, got 1",
		},
		{
			desc:        "unsupported content type",
			method:      http.MethodPost,
			path:        "/predict",
			contentType: "text/plain",
			body:        []byte("x"),
			status:      http.StatusUnsupportedMediaType,
		},
		{
			desc:        "malformed json",
			method:      http.MethodPost,
			path:        "/predict",
			contentType: "application/json",
			body:        []byte(`{"features":`),
			status:      http.StatusBadRequest,
		},
	}

	for _, tc := range cases {
		t.Run(tc.desc, func(t *testing.T) {
			req, err := http.NewRequest(tc.method, ts.URL+tc.path, bytes.NewReader(tc.body))
			require.NoError(t, err)
			if tc.contentType != "" {
				req.Header.Set("Content-Type", tc.contentType)
			}

			res, err := ts.Client().Do(req)
			require.NoError(t, err)
			defer res.Body.Close()

			assert.Equal(t, tc.status, res.StatusCode)

			var body struct {
				Detail string `json:"detail"`
			}
			require.NoError(t, json.NewDecoder(res.Body).Decode(&body))
			assert.NotEmpty(t, body.Detail)
			if tc.detail != "" {
				assert.Equal(t, tc.detail, body.Detail)
			}
		})
	}
}

func TestHealthAndPrometheus(t *testing.T) {
	t.Parallel()

	ts, _ := newServer(t)

	for _, path := range []string{"/health", simapi.PrometheusPath} {
		res, err := ts.Client().Get(ts.URL + path)
		require.NoError(t, err)
		res.Body.Close()
		assert.Equal(t, http.StatusOK, res.StatusCode, path)
	}
}
