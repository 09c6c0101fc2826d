package simulator_test

import (
	"context"
	"io"
	"log/slog"
	"math"
	"testing"
	"time"

	pkgerrors "github.com/absmach/cvdash/pkg/errors"
	"github.com/absmach/cvdash/pkg/fallback"
	"github.com/absmach/cvdash/pkg/mqtt"
	mqttmocks "github.com/absmach/cvdash/pkg/mqtt/mocks"
	"github.com/absmach/cvdash/pkg/prediction"
	"github.com/absmach/cvdash/pkg/training"
	"github.com/absmach/cvdash/simulator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	clocktesting "k8s.io/utils/clock/testing"
)

var now = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func newService(t *testing.T, cfg simulator.Config, publisher mqtt.PubSub) (simulator.Service, *clocktesting.FakeClock) {
	t.Helper()

	if cfg.Rounds == 0 {
		cfg.Rounds = 3
	}
	cfg.RoundDuration = time.Second
	cfg.Seed = 42
	clk := clocktesting.NewFakeClock(now)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	return simulator.NewService(cfg, clk, publisher, logger), clk
}

func TestTrainingRunCompletes(t *testing.T) {
	t.Parallel()

	svc, clk := newService(t, simulator.Config{}, nil)
	ctx := context.Background()

	st, err := svc.TrainingStatus(ctx)
	require.NoError(t, err)
	assert.Equal(t, training.Idle, st.Status)
	assert.Nil(t, st.StartTime)

	ack, err := svc.StartTraining(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, training.TrainingStr, ack.Status)
	assert.NotEmpty(t, ack.TrainingID)

	clk.Step(time.Second)
	st, err = svc.TrainingStatus(ctx)
	require.NoError(t, err)
	assert.Equal(t, training.Training, st.Status)
	assert.Equal(t, uint64(1), st.CurrentRound)
	assert.InDelta(t, 1.0/3, st.Progress, 1e-9)

	clients, err := svc.Clients(ctx)
	require.NoError(t, err)
	for _, c := range clients {
		if c.Status != training.ClientOffline {
			assert.Equal(t, training.ClientTraining, c.Status, c.ID)
		}
	}

	clk.Step(5 * time.Second)
	st, err = svc.TrainingStatus(ctx)
	require.NoError(t, err)
	assert.Equal(t, training.Completed, st.Status)
	assert.Equal(t, uint64(3), st.CurrentRound)
	assert.Equal(t, 1.0, st.Progress)
	require.NotNil(t, st.EndTime)
	assert.Equal(t, now.Add(3*time.Second), *st.EndTime)

	m, err := svc.Metrics(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(3), m.TotalRounds)
	require.Len(t, m.Rounds, 3)
	for i, r := range m.Rounds {
		assert.Equal(t, uint64(i+1), r.Round)
		assert.True(t, r.Accuracy > 0 && r.Accuracy <= 1)
	}

	gs, err := svc.GlobalStatus(ctx)
	require.NoError(t, err)
	assert.Equal(t, "v1.1", gs.Version)
	assert.Equal(t, uint64(3), gs.TotalRounds)
	assert.Equal(t, "active", gs.Status)

	rounds, err := svc.Rounds(ctx)
	require.NoError(t, err)
	require.Len(t, rounds, 3)
	assert.Equal(t, uint64(3), rounds[0].RoundNumber)

	logs, err := svc.Logs(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, logs)
	for i := 1; i < len(logs); i++ {
		assert.False(t, logs[i].Timestamp.After(logs[i-1].Timestamp))
	}
}

func TestTrainingRunFails(t *testing.T) {
	t.Parallel()

	svc, clk := newService(t, simulator.Config{FailAtRound: 2}, nil)
	ctx := context.Background()

	_, err := svc.StartTraining(ctx, "h1")
	require.NoError(t, err)

	clk.Step(10 * time.Second)
	st, err := svc.TrainingStatus(ctx)
	require.NoError(t, err)
	assert.Equal(t, training.Error, st.Status)
	assert.Equal(t, uint64(1), st.CurrentRound)
	assert.Contains(t, st.ErrorMessage, "round 2")

	gs, err := svc.GlobalStatus(ctx)
	require.NoError(t, err)
	assert.Equal(t, "v1.0", gs.Version)

	_, err = svc.StartTraining(ctx, "h1")
	assert.NoError(t, err, "a failed run can be restarted")
}

func TestStartAndResetWhileTraining(t *testing.T) {
	t.Parallel()

	svc, clk := newService(t, simulator.Config{}, nil)
	ctx := context.Background()

	_, err := svc.StartTraining(ctx, "")
	require.NoError(t, err)

	_, err = svc.StartTraining(ctx, "h2")
	assert.ErrorIs(t, err, simulator.ErrTrainingInProgress)
	assert.ErrorIs(t, svc.Reset(ctx), simulator.ErrResetWhileTraining)

	clk.Step(3 * time.Second)
	require.NoError(t, svc.Reset(ctx))

	st, err := svc.TrainingStatus(ctx)
	require.NoError(t, err)
	assert.Equal(t, training.Idle, st.Status)

	gs, err := svc.GlobalStatus(ctx)
	require.NoError(t, err)
	assert.Equal(t, "v1.0", gs.Version)

	d, err := svc.HospitalDashboard(ctx, "h1")
	require.NoError(t, err)
	assert.Equal(t, "untrained", d.ModelStatus)
}

func TestPredict(t *testing.T) {
	t.Parallel()

	svc, clk := newService(t, simulator.Config{}, nil)
	ctx := context.Background()
	req := prediction.DefaultForm("P-1").Request()

	cases := []struct {
		desc     string
		features []float64
		field    string
	}{
		{desc: "too few features", features: []float64{0.1, 0.2}, field: "features"},
		{desc: "too many features", features: make([]float64, prediction.NumFeatures+1), field: "features"},
		{desc: "not finite", features: append([]float64{math.Inf(1)}, req.Features[1:]...), field: prediction.Features[0].Name},
	}
	for _, tc := range cases {
		t.Run(tc.desc, func(t *testing.T) {
			_, err := svc.Predict(ctx, "h1", prediction.Request{Features: tc.features})
			var verr *pkgerrors.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tc.field, verr.Field)
		})
	}

	resp, err := svc.Predict(ctx, "h1", req)
	require.NoError(t, err)
	require.NoError(t, resp.Validate())
	assert.NotEmpty(t, resp.Note)
	assert.Len(t, resp.FeatureImportance, prediction.NumFeatures)
	for i := 1; i < len(resp.FeatureImportance); i++ {
		assert.GreaterOrEqual(t, math.Abs(resp.FeatureImportance[i-1].ShapValue), math.Abs(resp.FeatureImportance[i].ShapValue))
	}

	_, err = svc.StartTraining(ctx, "")
	require.NoError(t, err)
	clk.Step(3 * time.Second)

	resp, err = svc.Predict(ctx, "h1", req)
	require.NoError(t, err)
	assert.Empty(t, resp.Note)

	d, err := svc.HospitalDashboard(ctx, "h1")
	require.NoError(t, err)
	assert.Equal(t, uint64(2), d.TotalPredictions)
	assert.Equal(t, "ready", d.ModelStatus)
}

func TestUnknownHospital(t *testing.T) {
	t.Parallel()

	svc, _ := newService(t, simulator.Config{}, nil)
	ctx := context.Background()

	_, err := svc.HospitalDashboard(ctx, "h404")
	assert.ErrorIs(t, err, pkgerrors.ErrNotFound)

	_, err = svc.LocalMetrics(ctx, "h404")
	assert.ErrorIs(t, err, pkgerrors.ErrNotFound)
}

func TestRoster(t *testing.T) {
	t.Parallel()

	svc, _ := newService(t, simulator.Config{ExtraHospitals: 2}, nil)

	clients, err := svc.Clients(context.Background())
	require.NoError(t, err)
	require.Len(t, clients, len(fallback.Roster)+2)
	require.NoError(t, training.ValidateClients(clients))

	ids := make(map[string]bool, len(clients))
	for _, c := range clients {
		assert.False(t, ids[c.ID], "duplicate id %s", c.ID)
		ids[c.ID] = true
	}
	assert.True(t, ids["h9"])
	assert.True(t, ids["h10"])
}

func TestEventsArePublished(t *testing.T) {
	t.Parallel()

	publisher := new(mqttmocks.MockPubSub)
	publisher.On("Publish", mock.Anything, mock.AnythingOfType("string"), mock.Anything).Return(nil)

	svc, clk := newService(t, simulator.Config{Rounds: 2}, publisher)
	ctx := context.Background()

	_, err := svc.StartTraining(ctx, "")
	require.NoError(t, err)
	clk.Step(2 * time.Second)
	_, err = svc.TrainingStatus(ctx)
	require.NoError(t, err)

	publisher.AssertCalled(t, "Publish", mock.Anything, mqtt.TopicRounds, mock.MatchedBy(func(ev mqtt.Event) bool {
		p, ok := ev.Payload.(map[string]any)

		return ok && ev.Kind == "round" && p["round"] == uint64(2)
	}))
	publisher.AssertCalled(t, "Publish", mock.Anything, mqtt.TopicStatus, mock.MatchedBy(func(ev mqtt.Event) bool {
		st, ok := ev.Payload.(training.Status)

		return ok && st.Status == training.Completed
	}))
	publisher.AssertCalled(t, "Publish", mock.Anything, mqtt.TopicLogs, mock.Anything)
}
