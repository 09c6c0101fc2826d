package training_test

import (
	"encoding/json"
	"testing"
	"time"

	pkgerrors "github.com/absmach/cvdash/pkg/errors"
	"github.com/absmach/cvdash/pkg/training"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStateJSON(t *testing.T) {
	t.Parallel()

	for _, s := range []training.State{training.Idle, training.Training, training.Completed, training.Error} {
		data, err := json.Marshal(s)
		require.NoError(t, err)

		var got training.State
		require.NoError(t, json.Unmarshal(data, &got))
		assert.Equal(t, s, got)
	}

	var st training.State
	err := json.Unmarshal([]byte(`"paused"`), &st)
	assert.ErrorIs(t, err, pkgerrors.ErrInvalidData)
}

func TestStateTerminal(t *testing.T) {
	t.Parallel()

	assert.False(t, training.Idle.Terminal())
	assert.False(t, training.Training.Terminal())
	assert.True(t, training.Completed.Terminal())
	assert.True(t, training.Error.Terminal())
}

func TestStatusValidate(t *testing.T) {
	t.Parallel()

	cases := []struct {
		desc   string
		status training.Status
		err    bool
	}{
		{desc: "idle", status: training.Status{Status: training.Idle}},
		{desc: "training mid run", status: training.Status{Status: training.Training, CurrentRound: 3, TotalRounds: 10, Progress: 0.3}},
		{desc: "progress above one", status: training.Status{Status: training.Training, Progress: 1.2}, err: true},
		{desc: "round beyond total while training", status: training.Status{Status: training.Training, CurrentRound: 11, TotalRounds: 10, Progress: 1}, err: true},
		{desc: "round beyond total once completed", status: training.Status{Status: training.Completed, CurrentRound: 11, TotalRounds: 10, Progress: 1}},
	}

	for _, tc := range cases {
		t.Run(tc.desc, func(t *testing.T) {
			t.Parallel()
			err := tc.status.Validate()
			if tc.err {
				assert.ErrorIs(t, err, pkgerrors.ErrValidationFailed)

				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestStatusDecode(t *testing.T) {
	t.Parallel()

	body := `{"status":"training","current_round":2,"total_rounds":10,"progress":0.2,"start_time":"2024-03-01T10:00:00Z","end_time":null,"error_message":null}`

	var st training.Status
	require.NoError(t, json.Unmarshal([]byte(body), &st))
	assert.Equal(t, training.Training, st.Status)
	assert.Equal(t, uint64(2), st.CurrentRound)
	require.NotNil(t, st.StartTime)
	assert.Nil(t, st.EndTime)
	assert.NoError(t, st.Validate())
}

func seedHistory(from, to uint64) training.History {
	h := make(training.History, 0, to-from+1)
	for r := from; r <= to; r++ {
		i := float64(r - from)
		h = append(h, training.RoundMetrics{Round: r, Accuracy: 0.78 + i*0.005, Loss: 0.35 - i*0.005})
	}

	return h
}

func TestHistoryMonotonic(t *testing.T) {
	t.Parallel()

	h := seedHistory(28, 47)
	require.Len(t, h, 20)
	require.NoError(t, h.Validate())
	for i := 1; i < len(h); i++ {
		assert.Greater(t, h[i].Round, h[i-1].Round)
	}

	dup := append(training.History{}, h...)
	dup[5].Round = dup[4].Round
	assert.ErrorIs(t, dup.Validate(), pkgerrors.ErrValidationFailed)

	bad := append(training.History{}, h...)
	bad[0].Accuracy = 1.1
	assert.Error(t, bad.Validate())
}

func TestHistoryExtends(t *testing.T) {
	t.Parallel()

	prev := seedHistory(28, 40)
	assert.True(t, seedHistory(28, 47).Extends(prev))
	assert.True(t, prev.Extends(prev))
	assert.False(t, seedHistory(29, 47).Extends(prev))
	assert.False(t, seedHistory(28, 35).Extends(prev))
}

func TestSummarize(t *testing.T) {
	t.Parallel()

	h := training.History{
		{Round: 1, Accuracy: 0.6, Loss: 0.5},
		{Round: 2, Accuracy: 0.7, Loss: 0.4},
		{Round: 3, Accuracy: 0.8, Loss: 0.3},
	}
	s := training.Summarize(h)
	assert.Equal(t, uint64(3), s.TotalRounds)
	assert.InDelta(t, 0.7, s.AverageAccuracy, 1e-9)
	assert.InDelta(t, 0.8, s.LatestAccuracy, 1e-9)
	assert.InDelta(t, 0.2, s.Improvement, 1e-9)
	assert.NoError(t, s.Validate())

	empty := training.Summarize(nil)
	assert.Zero(t, empty.TotalRounds)
	assert.NotNil(t, empty.Rounds)
}

func TestValidateClients(t *testing.T) {
	t.Parallel()

	clients := []training.Client{
		{ID: "h1", Name: "Apollo Hospital Chennai", Status: training.ClientOnline, Accuracy: 0.89},
		{ID: "h2", Name: "AIIMS Delhi", Status: training.ClientTraining, Accuracy: 0.91},
	}
	assert.NoError(t, training.ValidateClients(clients))

	clients = append(clients, training.Client{ID: "h1", Status: training.ClientOffline})
	assert.ErrorIs(t, training.ValidateClients(clients), pkgerrors.ErrValidationFailed)

	assert.Error(t, training.ValidateClients([]training.Client{{ID: "h3", Status: "sleeping"}}))
}

func TestSortLogs(t *testing.T) {
	t.Parallel()

	base := time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC)
	logs := []training.LogEntry{
		{ID: 1, Timestamp: base, Severity: training.SeverityInfo},
		{ID: 2, Timestamp: base.Add(2 * time.Minute), Severity: training.SeverityWarning},
		{ID: 3, Timestamp: base.Add(time.Minute), Severity: training.SeverityError},
	}
	require.NoError(t, training.ValidateLogs(logs))

	sorted := training.SortLogs(logs)
	assert.Equal(t, []uint64{2, 3, 1}, []uint64{sorted[0].ID, sorted[1].ID, sorted[2].ID})
	assert.Equal(t, uint64(1), logs[0].ID, "input is not mutated")

	logs = append(logs, training.LogEntry{ID: 2, Severity: training.SeverityInfo})
	assert.Error(t, training.ValidateLogs(logs))
}
