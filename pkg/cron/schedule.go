package cron

import (
	"context"
	"errors"
	"time"

	"github.com/robfig/cron/v3"
	"k8s.io/utils/clock"
)

var ErrInvalidCronExpression = errors.New("invalid cron expression")

// Schedule is a standard five-field cron expression bound to a time zone.
type Schedule struct {
	spec cron.Schedule
	loc  *time.Location
}

// Parse accepts a five-field expression. An empty or unknown timezone
// means UTC.
func Parse(expr, timezone string) (*Schedule, error) {
	if expr == "" {
		return nil, ErrInvalidCronExpression
	}

	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	spec, err := parser.Parse(expr)
	if err != nil {
		return nil, ErrInvalidCronExpression
	}

	loc := time.UTC
	if timezone != "" {
		if l, err := time.LoadLocation(timezone); err == nil {
			loc = l
		}
	}

	return &Schedule{spec: spec, loc: loc}, nil
}

func (s *Schedule) Next(from time.Time) time.Time {
	if s == nil || s.spec == nil {
		return time.Time{}
	}

	return s.spec.Next(from.In(s.loc))
}

// Run calls fn at every activation of s until ctx is done. Activations
// missed while fn runs are skipped.
func Run(ctx context.Context, clk clock.Clock, s *Schedule, fn func(context.Context)) error {
	for {
		next := s.Next(clk.Now())
		if next.IsZero() {
			return ErrInvalidCronExpression
		}

		select {
		case <-ctx.Done():
			return nil
		case <-clk.After(next.Sub(clk.Now())):
			fn(ctx)
		}
	}
}
