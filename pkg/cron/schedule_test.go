package cron_test

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/absmach/cvdash/pkg/cron"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	clocktesting "k8s.io/utils/clock/testing"
)

func TestParse(t *testing.T) {
	t.Parallel()

	from := time.Date(2026, 3, 1, 10, 15, 0, 0, time.UTC)
	cases := []struct {
		desc     string
		expr     string
		timezone string
		next     time.Time
		err      error
	}{
		{desc: "hourly", expr: "0 * * * *", next: time.Date(2026, 3, 1, 11, 0, 0, 0, time.UTC)},
		{desc: "nightly", expr: "30 2 * * *", next: time.Date(2026, 3, 2, 2, 30, 0, 0, time.UTC)},
		{desc: "unknown timezone is utc", expr: "0 * * * *", timezone: "Mars/Olympus", next: time.Date(2026, 3, 1, 11, 0, 0, 0, time.UTC)},
		{desc: "empty", expr: "", err: cron.ErrInvalidCronExpression},
		{desc: "six fields", expr: "0 0 * * * *", err: cron.ErrInvalidCronExpression},
		{desc: "garbage", expr: "every day", err: cron.ErrInvalidCronExpression},
	}

	for _, tc := range cases {
		t.Run(tc.desc, func(t *testing.T) {
			t.Parallel()

			s, err := cron.Parse(tc.expr, tc.timezone)
			if tc.err != nil {
				assert.ErrorIs(t, err, tc.err)

				return
			}
			require.NoError(t, err)
			assert.True(t, tc.next.Equal(s.Next(from)), "got %s", s.Next(from))
		})
	}
}

func TestRun(t *testing.T) {
	t.Parallel()

	clk := clocktesting.NewFakeClock(time.Date(2026, 3, 1, 10, 59, 0, 0, time.UTC))
	s, err := cron.Parse("0 * * * *", "")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	var calls atomic.Int32
	done := make(chan error, 1)
	go func() {
		done <- cron.Run(ctx, clk, s, func(context.Context) { calls.Add(1) })
	}()

	for want := int32(1); want <= 2; want++ {
		require.Eventually(t, clk.HasWaiters, time.Second, time.Millisecond)
		clk.Step(time.Hour)
		require.Eventually(t, func() bool { return calls.Load() == want }, time.Second, time.Millisecond)
	}

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("run did not stop")
	}
}
