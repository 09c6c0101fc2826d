package cli

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/absmach/cvdash/dashboard"
	dashapi "github.com/absmach/cvdash/dashboard/api"
	"github.com/absmach/cvdash/pkg/fallback"
	"github.com/absmach/cvdash/pkg/storage"
	"github.com/absmach/cvdash/pkg/training"
	"github.com/absmach/cvdash/session"
	"github.com/absmach/cvdash/view"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	clocktesting "k8s.io/utils/clock/testing"
)

func setup(t *testing.T) {
	t.Helper()

	clk := clocktesting.NewFakeClock(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	local := fallback.New(fallback.Config{DelayScale: 0, Seed: 5}, clk)
	predictions := storage.NewMemoryPredictionRepository(storage.NewInMemoryStorage())
	svc := dashboard.NewService(nil, local, predictions, nil, clk, logger)

	sessions := session.NewManager(session.DefaultCredentials("h1"), storage.NewMemorySlotRepository(), svc, clk, logger)
	t.Cleanup(sessions.Close)

	ts := httptest.NewServer(dashapi.MakeHandler(svc, sessions, logger, "cli-test"))
	t.Cleanup(ts.Close)

	SetClient(NewClient(ts.URL, false, 5*time.Second))
	SetSessionStore(storage.NewMemorySlotRepository())
}

func execute(t *testing.T, args ...string) (string, string) {
	t.Helper()

	root := &cobra.Command{Use: "cvdash-cli"}
	root.AddCommand(
		NewLoginCmd(),
		NewLogoutCmd(),
		NewWhoamiCmd(),
		NewAdminCmd(),
		NewHospitalCmd(),
		NewStartCmd(),
		NewViewCmd(),
		NewDismissCmd(),
		NewWatchCmd(),
	)

	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(args)
	require.NoError(t, root.ExecuteContext(context.Background()))

	return out.String(), errOut.String()
}

func TestLoginLifecycle(t *testing.T) {
	setup(t)
	color.NoColor = true

	_, errOut := execute(t, "whoami")
	assert.Contains(t, errOut, errNotLoggedIn.Error())

	_, errOut = execute(t, "login", "admin", "wrong")
	assert.Contains(t, errOut, "401")

	out, errOut := execute(t, "login", "admin", "admin")
	require.Empty(t, errOut)
	assert.Contains(t, out, `"role": "admin"`)

	c, err := loadCredentials(context.Background(), slots)
	require.NoError(t, err)
	assert.Equal(t, "admin", c.Role)
	assert.Equal(t, "admin", c.Username)
	assert.NotEmpty(t, c.Token)

	out, errOut = execute(t, "whoami")
	require.Empty(t, errOut)
	assert.Contains(t, out, c.Token)

	_, errOut = execute(t, "logout")
	require.Empty(t, errOut)

	_, err = loadCredentials(context.Background(), slots)
	assert.ErrorIs(t, err, errNotLoggedIn)
}

func TestAdminCommands(t *testing.T) {
	setup(t)
	color.NoColor = true

	_, errOut := execute(t, "login", "admin", "admin")
	require.Empty(t, errOut)

	cases := []struct {
		desc string
		args []string
		want string
	}{
		{desc: "hospitals", args: []string{"admin", "hospitals"}, want: `"clients"`},
		{desc: "rounds", args: []string{"admin", "rounds"}, want: `"rounds"`},
		{desc: "logs", args: []string{"admin", "logs"}, want: `"logs"`},
		{desc: "overview", args: []string{"admin", "overview"}, want: `"global"`},
		{desc: "view", args: []string{"view"}, want: `"training"`},
	}
	for _, tc := range cases {
		t.Run(tc.desc, func(t *testing.T) {
			out, errOut := execute(t, tc.args...)
			require.Empty(t, errOut)
			assert.Contains(t, out, tc.want)
		})
	}

	_, errOut = execute(t, "hospital", "dashboard")
	assert.NotEmpty(t, errOut)
}

func TestHospitalCommands(t *testing.T) {
	setup(t)
	color.NoColor = true

	_, errOut := execute(t, "login", "user", "user")
	require.Empty(t, errOut)

	out, errOut := execute(t, "hospital", "predict", "P-001", "--value", "age=63")
	require.Empty(t, errOut)
	assert.Contains(t, out, `"patientId": "P-001"`)

	_, errOut = execute(t, "hospital", "predict", "P-002", "--value", "age=abc")
	assert.Contains(t, errOut, "age")

	out, errOut = execute(t, "hospital", "predictions", "--limit", "5")
	require.Empty(t, errOut)
	assert.Contains(t, out, "P-001")

	out, errOut = execute(t, "start")
	require.Empty(t, errOut)
	assert.Contains(t, out, "trainingId")

	_, errOut = execute(t, "start")
	assert.Contains(t, errOut, "Training is already in progress")

	_, errOut = execute(t, "admin", "logs")
	assert.Contains(t, errOut, "403")
}

func TestStatusLine(t *testing.T) {
	color.NoColor = true

	at := time.Date(2026, 3, 1, 12, 30, 0, 0, time.UTC)
	cases := []struct {
		desc string
		snap view.Snapshot
		want []string
	}{
		{
			desc: "idle",
			snap: view.Snapshot{UpdatedAt: at},
			want: []string{"12:30:00", "idle", "round 0/0", "0%"},
		},
		{
			desc: "training with alert",
			snap: view.Snapshot{
				State: view.State{
					Training: training.Status{Status: training.Training, CurrentRound: 2, TotalRounds: 5, Progress: 0.4},
					Metrics:  training.Summary{TotalRounds: 2, LatestAccuracy: 0.8123},
					Alert:    "remote unreachable",
				},
				UpdatedAt: at,
			},
			want: []string{"training", "round 2/5", "40%", "accuracy 0.8123", "alert: remote unreachable"},
		},
		{
			desc: "failed run",
			snap: view.Snapshot{
				State: view.State{
					Training: training.Status{Status: training.Error, CurrentRound: 1, TotalRounds: 5, ErrorMessage: "aggregation failed"},
				},
				UpdatedAt: at,
			},
			want: []string{"error", "aggregation failed"},
		},
	}

	for _, tc := range cases {
		t.Run(tc.desc, func(t *testing.T) {
			line := statusLine(tc.snap)
			for _, w := range tc.want {
				assert.Contains(t, line, w)
			}
		})
	}
}
