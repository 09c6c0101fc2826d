package dashboard_test

import (
	"context"
	"io"
	"log/slog"
	"math"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/absmach/cvdash/dashboard"
	pkgerrors "github.com/absmach/cvdash/pkg/errors"
	"github.com/absmach/cvdash/pkg/fallback"
	"github.com/absmach/cvdash/pkg/mqtt"
	mqttmocks "github.com/absmach/cvdash/pkg/mqtt/mocks"
	"github.com/absmach/cvdash/pkg/prediction"
	"github.com/absmach/cvdash/pkg/sdk"
	"github.com/absmach/cvdash/pkg/storage"
	"github.com/absmach/cvdash/pkg/training"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	clocktesting "k8s.io/utils/clock/testing"
)

var now = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

type harness struct {
	svc         dashboard.Service
	predictions storage.PredictionRepository
	calls       *atomic.Int64
}

func newHarness(t *testing.T, handler http.HandlerFunc, fb fallback.Config, publisher mqtt.PubSub) harness {
	t.Helper()

	calls := &atomic.Int64{}
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		handler(w, r)
	}))
	t.Cleanup(ts.Close)

	return build(t, ts.URL, calls, fb, publisher)
}

// newDeadHarness points the remote at a closed listener.
func newDeadHarness(t *testing.T, fb fallback.Config, publisher mqtt.PubSub) harness {
	t.Helper()

	ts := httptest.NewServer(http.NotFoundHandler())
	url := ts.URL
	ts.Close()

	return build(t, url, &atomic.Int64{}, fb, publisher)
}

func build(t *testing.T, url string, calls *atomic.Int64, fb fallback.Config, publisher mqtt.PubSub) harness {
	t.Helper()

	clk := clocktesting.NewFakeClock(now)
	remote := sdk.NewSDK(sdk.Config{RemoteURL: url, Timeout: 2 * time.Second})
	local := fallback.New(fb, clk)
	predictions := storage.NewMemoryPredictionRepository(storage.NewInMemoryStorage())
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	return harness{
		svc:         dashboard.NewService(remote, local, predictions, publisher, clk, logger),
		predictions: predictions,
		calls:       calls,
	}
}

func respond(code int, body string) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", sdk.CTJSON)
		w.WriteHeader(code)
		_, _ = io.WriteString(w, body)
	}
}

func immediate() fallback.Config {
	return fallback.Config{DelayScale: 0, Seed: 7}
}

func TestReadsFallBackWhenRemoteIsDown(t *testing.T) {
	t.Parallel()

	h := newDeadHarness(t, immediate(), nil)
	ctx := context.Background()

	gs, err := h.svc.GlobalStatus(ctx)
	require.NoError(t, err)
	assert.NoError(t, gs.Validate())

	st, err := h.svc.TrainingStatus(ctx)
	require.NoError(t, err)
	assert.NoError(t, st.Validate())

	m, err := h.svc.Metrics(ctx)
	require.NoError(t, err)
	assert.NoError(t, m.Validate())

	rounds, err := h.svc.Rounds(ctx)
	require.NoError(t, err)
	assert.NoError(t, training.ValidateRounds(rounds))

	clients, err := h.svc.Clients(ctx)
	require.NoError(t, err)
	assert.NotEmpty(t, clients)
	assert.NoError(t, training.ValidateClients(clients))

	logs, err := h.svc.Logs(ctx)
	require.NoError(t, err)
	assert.NoError(t, training.ValidateLogs(logs))

	features, err := h.svc.Features(ctx)
	require.NoError(t, err)
	assert.Len(t, features, prediction.NumFeatures)

	d, err := h.svc.HospitalDashboard(ctx, "hospital-1")
	require.NoError(t, err)
	assert.NoError(t, d.Validate())

	hist, err := h.svc.LocalMetrics(ctx, "hospital-1")
	require.NoError(t, err)
	assert.NoError(t, hist.Validate())
}

func TestReadsFailWhenFallbackDisabled(t *testing.T) {
	t.Parallel()

	h := newDeadHarness(t, fallback.Config{Disabled: true}, nil)

	_, err := h.svc.TrainingStatus(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, pkgerrors.ErrNetworkUnavailable)
	assert.ErrorIs(t, err, pkgerrors.ErrFallbackDisabled)
}

func TestRemoteDataIsUsedWhenHealthy(t *testing.T) {
	t.Parallel()

	h := newHarness(t, respond(http.StatusOK, `{"status":"training","current_round":2,"total_rounds":7}`), immediate(), nil)

	st, err := h.svc.TrainingStatus(context.Background())
	require.NoError(t, err)
	assert.Equal(t, training.Training, st.Status)
	assert.Equal(t, uint64(2), st.CurrentRound)
	assert.Equal(t, uint64(7), st.TotalRounds)
	assert.Equal(t, int64(1), h.calls.Load())
}

func TestMalformedRemoteFallsBack(t *testing.T) {
	t.Parallel()

	h := newHarness(t, respond(http.StatusOK, `{"status":"dancing"}`), immediate(), nil)

	st, err := h.svc.TrainingStatus(context.Background())
	require.NoError(t, err)
	assert.NoError(t, st.Validate())
}

func TestStartTraining(t *testing.T) {
	t.Parallel()

	cases := []struct {
		desc      string
		handler   http.HandlerFunc
		dead      bool
		fb        fallback.Config
		synthetic bool
		id        string
		reason    pkgerrors.ActionReason
		detail    string
		err       error
	}{
		{
			desc:    "remote acknowledges",
			handler: respond(http.StatusOK, `{"trainingId":"train_1","message":"Training started successfully","status":"training"}`),
			fb:      immediate(),
			id:      "train_1",
		},
		{
			desc:      "remote rejects and fallback acknowledges",
			handler:   respond(http.StatusBadRequest, `{"detail":"Training is already in progress"}`),
			fb:        immediate(),
			synthetic: true,
		},
		{
			desc:      "remote down and fallback acknowledges",
			dead:      true,
			fb:        immediate(),
			synthetic: true,
		},
		{
			desc:    "remote rejects with fallback disabled",
			handler: respond(http.StatusBadRequest, `{"detail":"Training is already in progress"}`),
			fb:      fallback.Config{Disabled: true},
			reason:  pkgerrors.Rejected,
			detail:  "Training is already in progress",
			err:     pkgerrors.ErrActionRejected,
		},
		{
			desc:   "remote down with fallback disabled",
			dead:   true,
			fb:     fallback.Config{Disabled: true},
			reason: pkgerrors.Unreachable,
			err:    pkgerrors.ErrUnreachable,
		},
	}

	for _, tc := range cases {
		t.Run(tc.desc, func(t *testing.T) {
			t.Parallel()

			var h harness
			if tc.dead {
				h = newDeadHarness(t, tc.fb, nil)
			} else {
				h = newHarness(t, tc.handler, tc.fb, nil)
			}

			ack, err := h.svc.StartTraining(context.Background(), "")
			if tc.err != nil {
				require.Error(t, err)
				assert.ErrorIs(t, err, tc.err)
				var ae *pkgerrors.ActionError
				require.ErrorAs(t, err, &ae)
				assert.Equal(t, tc.reason, ae.Reason)
				assert.Equal(t, tc.detail, ae.Detail)

				return
			}

			require.NoError(t, err)
			assert.Equal(t, tc.synthetic, ack.Synthetic)
			assert.NotEmpty(t, ack.TrainingID)
			if tc.id != "" {
				assert.Equal(t, tc.id, ack.TrainingID)
			}
		})
	}
}

func TestStartTrainingPublishesEvent(t *testing.T) {
	t.Parallel()

	ps := new(mqttmocks.MockPubSub)
	ps.On("Publish", mock.Anything, mqtt.TopicActions, mock.MatchedBy(func(ev mqtt.Event) bool {
		payload, ok := ev.Payload.(map[string]any)

		return ok && ev.Kind == "start-training" && payload["trainingId"] == "train_9"
	})).Return(nil).Once()

	h := newHarness(t, respond(http.StatusOK, `{"trainingId":"train_9","status":"training"}`), immediate(), ps)

	_, err := h.svc.StartTraining(context.Background(), "hospital-1")
	require.NoError(t, err)
	ps.AssertExpectations(t)
}

func TestPredictValidatesBeforeNetwork(t *testing.T) {
	t.Parallel()

	h := newHarness(t, respond(http.StatusOK, `{}`), immediate(), nil)

	form := prediction.DefaultForm("P-1")
	form.Values["age"] = math.NaN()

	_, err := h.svc.Predict(context.Background(), "hospital-1", form)
	require.Error(t, err)
	var ve *pkgerrors.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "age", ve.Field)
	assert.Zero(t, h.calls.Load())
}

func TestPredictStoresResult(t *testing.T) {
	t.Parallel()

	body := `{"prediction":0.73,"risk_level":"high","confidence":0.8,"feature_importance":[{"feature":"age","shap_value":0.12}]}`
	h := newHarness(t, respond(http.StatusOK, body), immediate(), nil)
	ctx := context.Background()

	res, err := h.svc.Predict(ctx, "hospital-1", prediction.DefaultForm("P-1"))
	require.NoError(t, err)
	assert.NotEmpty(t, res.ID)
	assert.InDelta(t, 73.0, res.RiskScore, 1e-9)
	assert.False(t, res.Synthetic)
	assert.Equal(t, now, res.Timestamp)

	stored, err := h.predictions.Retrieve(ctx, res.ID)
	require.NoError(t, err)
	assert.Equal(t, res.PatientID, stored.PatientID)

	page, err := h.svc.PredictionHistory(ctx, "hospital-1", 0, 10)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), page.Total)
	require.Len(t, page.Predictions, 1)
	assert.Equal(t, res.ID, page.Predictions[0].ID)
}

func TestPredictFallsBack(t *testing.T) {
	t.Parallel()

	h := newDeadHarness(t, immediate(), nil)

	res, err := h.svc.Predict(context.Background(), "hospital-1", prediction.DefaultForm("P-2"))
	require.NoError(t, err)
	assert.True(t, res.Synthetic)
	assert.GreaterOrEqual(t, res.RiskScore, 0.0)
	assert.LessOrEqual(t, res.RiskScore, 100.0)
}

func TestPredictionHistorySynthetic(t *testing.T) {
	t.Parallel()

	cases := []struct {
		desc   string
		fb     fallback.Config
		offset uint64
		limit  uint64
		total  uint64
		size   int
	}{
		{desc: "first page", fb: immediate(), offset: 0, limit: 10, total: 15, size: 10},
		{desc: "last page", fb: immediate(), offset: 10, limit: 10, total: 15, size: 5},
		{desc: "past the end", fb: immediate(), offset: 20, limit: 10, total: 15, size: 0},
		{desc: "fallback disabled", fb: fallback.Config{Disabled: true}, offset: 0, limit: 10, total: 0, size: 0},
	}

	for _, tc := range cases {
		t.Run(tc.desc, func(t *testing.T) {
			t.Parallel()

			h := newDeadHarness(t, tc.fb, nil)

			page, err := h.svc.PredictionHistory(context.Background(), "hospital-3", tc.offset, tc.limit)
			require.NoError(t, err)
			assert.Equal(t, tc.total, page.Total)
			assert.Len(t, page.Predictions, tc.size)
			for _, p := range page.Predictions {
				assert.True(t, p.Synthetic)
			}
		})
	}
}

func TestHospitalIDRequired(t *testing.T) {
	t.Parallel()

	h := newDeadHarness(t, immediate(), nil)
	ctx := context.Background()

	_, err := h.svc.HospitalDashboard(ctx, "")
	assert.ErrorIs(t, err, pkgerrors.ErrValidationFailed)
	_, err = h.svc.LocalMetrics(ctx, "")
	assert.ErrorIs(t, err, pkgerrors.ErrValidationFailed)
	_, err = h.svc.PredictionHistory(ctx, "", 0, 10)
	assert.ErrorIs(t, err, pkgerrors.ErrValidationFailed)
}
