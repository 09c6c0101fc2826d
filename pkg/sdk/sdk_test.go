package sdk_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"
	"unicode/utf8"

	pkgerrors "github.com/absmach/cvdash/pkg/errors"
	"github.com/absmach/cvdash/pkg/prediction"
	"github.com/absmach/cvdash/pkg/sdk"
	"github.com/absmach/cvdash/pkg/training"
	"github.com/fxamacker/cbor/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newServer(t *testing.T, handler http.HandlerFunc) sdk.SDK {
	t.Helper()
	ts := httptest.NewServer(handler)
	t.Cleanup(ts.Close)

	return sdk.NewSDK(sdk.Config{RemoteURL: ts.URL, Timeout: 2 * time.Second})
}

func respond(code int, body string) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", sdk.CTJSON)
		w.WriteHeader(code)
		_, _ = io.WriteString(w, body)
	}
}

func TestCallErrors(t *testing.T) {
	t.Parallel()

	cases := []struct {
		desc    string
		handler http.HandlerFunc
		reason  pkgerrors.FetchReason
		code    int
		detail  string
		kind    error
	}{
		{
			desc:    "not found",
			handler: respond(http.StatusNotFound, `{"detail":"Not Found"}`),
			reason:  pkgerrors.BadStatus,
			code:    http.StatusNotFound,
			detail:  "Not Found",
			kind:    pkgerrors.ErrBadStatus,
		},
		{
			desc:    "server error with error field",
			handler: respond(http.StatusInternalServerError, `{"error":"boom"}`),
			reason:  pkgerrors.BadStatus,
			code:    http.StatusInternalServerError,
			detail:  "boom",
			kind:    pkgerrors.ErrBadStatus,
		},
		{
			desc:    "long detail is cut on a rune boundary",
			handler: respond(http.StatusBadRequest, `{"detail":"a`+strings.Repeat("é", 300)+`"}`),
			reason:  pkgerrors.BadStatus,
			code:    http.StatusBadRequest,
			detail:  "a" + strings.Repeat("é", 255),
			kind:    pkgerrors.ErrBadStatus,
		},
		{
			desc:    "bad request without body",
			handler: respond(http.StatusBadRequest, ``),
			reason:  pkgerrors.BadStatus,
			code:    http.StatusBadRequest,
			kind:    pkgerrors.ErrBadStatus,
		},
	}

	for _, tc := range cases {
		t.Run(tc.desc, func(t *testing.T) {
			t.Parallel()
			s := newServer(t, tc.handler)

			_, err := s.Call(context.Background(), "/training-status", sdk.Options{})
			require.Error(t, err)
			assert.ErrorIs(t, err, tc.kind)

			var fe *pkgerrors.FetchError
			require.ErrorAs(t, err, &fe)
			assert.Equal(t, tc.reason, fe.Reason)
			assert.Equal(t, tc.code, fe.Code)
			assert.Equal(t, tc.detail, fe.Detail)
			assert.True(t, utf8.ValidString(fe.Detail))
			assert.Equal(t, "/training-status", fe.Endpoint)
		})
	}
}

func TestCallNetworkUnavailable(t *testing.T) {
	t.Parallel()

	ts := httptest.NewServer(respond(http.StatusOK, `{}`))
	url := ts.URL
	ts.Close()

	s := sdk.NewSDK(sdk.Config{RemoteURL: url, Timeout: time.Second})
	_, err := s.Call(context.Background(), "/metrics", sdk.Options{})

	var fe *pkgerrors.FetchError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, pkgerrors.NetworkUnavailable, fe.Reason)
	assert.ErrorIs(t, err, pkgerrors.ErrNetworkUnavailable)
}

func TestCallSingleAttempt(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	s := newServer(t, func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	_, err := s.Call(context.Background(), "/clients", sdk.Options{})
	require.Error(t, err)
	assert.Equal(t, int32(1), calls.Load())
}

func TestCallContextCanceled(t *testing.T) {
	t.Parallel()

	s := newServer(t, respond(http.StatusOK, `{}`))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.Call(ctx, "/clients", sdk.Options{})
	assert.ErrorIs(t, err, pkgerrors.ErrNetworkUnavailable)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestTrainingStatus(t *testing.T) {
	t.Parallel()

	cases := []struct {
		desc   string
		body   string
		status training.State
		reason *pkgerrors.FetchReason
	}{
		{
			desc:   "training",
			body:   `{"status":"training","current_round":2,"total_rounds":5,"progress":0.4,"start_time":"2024-03-01T10:00:00Z"}`,
			status: training.Training,
		},
		{
			desc:   "completed",
			body:   `{"status":"completed","current_round":5,"total_rounds":5,"progress":1}`,
			status: training.Completed,
		},
		{
			desc:   "not json",
			body:   `<html>oops</html>`,
			reason: ptr(pkgerrors.Malformed),
		},
		{
			desc:   "unknown status",
			body:   `{"status":"paused","current_round":0,"total_rounds":0,"progress":0}`,
			reason: ptr(pkgerrors.Malformed),
		},
		{
			desc:   "progress out of range",
			body:   `{"status":"training","current_round":1,"total_rounds":5,"progress":3}`,
			reason: ptr(pkgerrors.Malformed),
		},
	}

	for _, tc := range cases {
		t.Run(tc.desc, func(t *testing.T) {
			t.Parallel()
			s := newServer(t, respond(http.StatusOK, tc.body))

			st, err := s.TrainingStatus(context.Background())
			if tc.reason != nil {
				var fe *pkgerrors.FetchError
				require.ErrorAs(t, err, &fe)
				assert.Equal(t, *tc.reason, fe.Reason)
				assert.ErrorIs(t, err, pkgerrors.ErrMalformed)

				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.status, st.Status)
		})
	}
}

func TestListEndpoints(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("/clients", respond(http.StatusOK, `{"clients":[{"id":"h1","name":"Apollo Hospital Chennai","status":"online","accuracy":0.87,"totalSamples":3421,"roundsParticipated":45}]}`))
	mux.HandleFunc("/logs", respond(http.StatusOK, `{"logs":[{"id":1,"timestamp":"2024-01-15T10:00:00Z","severity":"info","message":"ok"}]}`))
	mux.HandleFunc("/rounds", respond(http.StatusOK, `{"rounds":[{"id":47,"roundNumber":47,"accuracy":0.88,"loss":0.21,"participatingClients":7,"duration":130,"status":"completed"}]}`))
	mux.HandleFunc("/metrics", respond(http.StatusOK, `{"total_rounds":0,"average_accuracy":0,"latest_accuracy":0,"improvement":0,"rounds":[]}`))
	mux.HandleFunc("/hospital/h1/local-metrics", respond(http.StatusOK, `{"rounds":[{"round":33,"accuracy":0.78,"loss":0.32},{"round":34,"accuracy":0.79,"loss":0.31}]}`))
	s := newServer(t, mux.ServeHTTP)
	ctx := context.Background()

	clients, err := s.Clients(ctx)
	require.NoError(t, err)
	require.Len(t, clients, 1)
	assert.Equal(t, training.ClientOnline, clients[0].Status)

	logs, err := s.Logs(ctx)
	require.NoError(t, err)
	require.Len(t, logs, 1)

	rounds, err := s.Rounds(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(47), rounds[0].RoundNumber)

	summary, err := s.Metrics(ctx)
	require.NoError(t, err)
	assert.Empty(t, summary.Rounds)

	local, err := s.LocalMetrics(ctx, "h1")
	require.NoError(t, err)
	assert.Len(t, local, 2)
}

func TestDuplicateClientsAreMalformed(t *testing.T) {
	t.Parallel()

	s := newServer(t, respond(http.StatusOK, `{"clients":[{"id":"h1","status":"online"},{"id":"h1","status":"offline"}]}`))

	_, err := s.Clients(context.Background())
	assert.ErrorIs(t, err, pkgerrors.ErrMalformed)
	assert.ErrorIs(t, err, pkgerrors.ErrValidationFailed)
}

func TestFeatures(t *testing.T) {
	t.Parallel()

	type feat struct {
		Name        string `json:"name"`
		Description string `json:"description"`
		Index       int    `json:"index"`
	}
	fs := make([]feat, 0, prediction.NumFeatures)
	for i, f := range prediction.Features {
		fs = append(fs, feat{Name: f.Name, Description: "remote " + f.Name, Index: i})
	}
	body, err := json.Marshal(map[string]any{"features": fs})
	require.NoError(t, err)

	s := newServer(t, respond(http.StatusOK, string(body)))
	got, err := s.Features(context.Background())
	require.NoError(t, err)
	require.Len(t, got, prediction.NumFeatures)
	assert.Equal(t, "remote age", got[0].Description)
	assert.InDelta(t, 30, got[0].Min, 0)
	assert.InDelta(t, 80, got[0].Max, 0)
}

func TestPredict(t *testing.T) {
	t.Parallel()

	const respBody = `{"prediction":0.73,"risk_level":"High","confidence":0.46,"feature_importance":[{"feature":"age","shap_value":0.12}]}`

	cases := []struct {
		desc string
		cbor bool
	}{
		{desc: "json body", cbor: false},
		{desc: "cbor body", cbor: true},
	}

	for _, tc := range cases {
		t.Run(tc.desc, func(t *testing.T) {
			t.Parallel()

			received := make(chan prediction.Request, 1)
			ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, http.MethodPost, r.Method)
				assert.Equal(t, "/hospital/h1/predict", r.URL.Path)
				data, err := io.ReadAll(r.Body)
				assert.NoError(t, err)
				var got prediction.Request
				switch r.Header.Get("Content-Type") {
				case sdk.CTCBOR:
					assert.NoError(t, cbor.Unmarshal(data, &got))
				default:
					assert.NoError(t, json.Unmarshal(data, &got))
				}
				received <- got
				_, _ = io.WriteString(w, respBody)
			}))
			t.Cleanup(ts.Close)

			s := sdk.NewSDK(sdk.Config{RemoteURL: ts.URL, PredictCBOR: tc.cbor})
			req := prediction.DefaultForm("P-1").Request()

			resp, err := s.Predict(context.Background(), "h1", req)
			require.NoError(t, err)
			assert.InDelta(t, 0.73, resp.Prediction, 1e-9)
			got := <-received
			assert.Equal(t, req.Features, got.Features)
		})
	}
}

func TestStartTraining(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("/start-training", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		_, _ = io.WriteString(w, `{"message":"Training started successfully","status":"training"}`)
	})
	mux.HandleFunc("/hospital/h2/start-training", respond(http.StatusBadRequest, `{"detail":"Training is already in progress"}`))
	s := newServer(t, mux.ServeHTTP)

	ack, err := s.StartTraining(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, "training", ack.Status)

	_, err = s.StartTraining(context.Background(), "h2")
	var fe *pkgerrors.FetchError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, pkgerrors.BadStatus, fe.Reason)
	assert.Equal(t, "Training is already in progress", fe.Detail)

	aerr := pkgerrors.ActionFromFetch("start-training", err)
	assert.Equal(t, pkgerrors.Rejected, aerr.Reason)
	assert.ErrorIs(t, aerr, pkgerrors.ErrActionRejected)
}

func ptr[T any](v T) *T {
	return &v
}
