package view

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"k8s.io/utils/clock"
)

const eventBuffer = 64

var ErrClosed = errors.New("view closed")

// Snapshot is an immutable copy of a view's state published after every
// event.
type Snapshot struct {
	State
	Polls     map[string]PollStats `json:"polls"`
	Errors    map[string]string    `json:"errors,omitempty"`
	UpdatedAt time.Time            `json:"updatedAt"`
}

// View keeps one session's dashboard state in sync with the backend. All
// state transitions happen on a single event-loop goroutine; readers only
// see published snapshots.
type View struct {
	backend Backend
	cfg     Config
	clock   clock.WithTicker
	logger  *slog.Logger

	events chan any
	done   chan struct{}
	cancel context.CancelFunc
	start  sync.Once
	stop   sync.Once

	// Owned by the loop goroutine.
	state   State
	pollers [numResources]*poller

	snap atomic.Pointer[Snapshot]
}

func New(backend Backend, cfg Config, clk clock.WithTicker, logger *slog.Logger) *View {
	v := &View{
		backend: backend,
		cfg:     cfg,
		clock:   clk,
		logger:  logger,
		events:  make(chan any, eventBuffer),
		done:    make(chan struct{}),
	}
	v.publish()

	return v
}

// Start loads every enabled resource once and starts the ungated pollers.
// The view runs until ctx is cancelled or Stop is called.
func (v *View) Start(ctx context.Context) {
	v.start.Do(func() {
		ctx, cancel := context.WithCancel(ctx)
		v.cancel = cancel
		for r := range numResources {
			v.pollers[r] = newPoller(ctx, r, v.cfg.interval(r))
		}

		go v.run(ctx)
	})
}

// Stop tears the view down and waits for the loop to exit. No callback
// mutates state afterwards.
func (v *View) Stop() {
	v.stop.Do(func() {
		v.start.Do(func() { close(v.done) })
		if v.cancel != nil {
			v.cancel()
			<-v.done
		}
	})
}

// Done is closed once the event loop has exited.
func (v *View) Done() <-chan struct{} {
	return v.done
}

func (v *View) Snapshot() Snapshot {
	return *v.snap.Load()
}

func (v *View) run(ctx context.Context) {
	defer close(v.done)

	for _, p := range v.pollers {
		if !p.enabled() {
			continue
		}
		if !p.resource.gated() {
			p.activate(ctx, v.clock, v.post)
		}
		p.issue(v.backend, v.state.Seq, v.post)
	}
	v.publish()

	for {
		select {
		case <-ctx.Done():
			for _, p := range v.pollers {
				p.deactivate(ctx)
			}
			v.publish()

			return
		case msg := <-v.events:
			v.handle(ctx, msg)
			v.publish()
		}
	}
}

func (v *View) post(msg any) bool {
	select {
	case v.events <- msg:
		return true
	case <-v.done:
		return false
	}
}

func (v *View) handle(ctx context.Context, msg any) {
	switch m := msg.(type) {
	case tick:
		p := v.pollers[m.resource]
		if !p.active || m.gen != p.gen {
			return
		}
		p.issue(v.backend, v.state.Seq, v.post)
	case fetched:
		p := v.pollers[m.resource]
		if !p.complete(m) {
			return
		}
		if ff, ok := m.event.(FetchFailed); ok {
			v.logger.Warn("Poll failed",
				slog.String("resource", ff.Resource.String()),
				slog.Any("error", ff.Err),
			)
		}
		v.reduce(ctx, m.event)
	case command:
		d := v.reduce(ctx, m.event)
		v.publish()
		m.reply <- d
	}
}

func (v *View) reduce(ctx context.Context, ev Event) Decision {
	next, d := Reduce(v.state, ev)
	v.state = next

	switch {
	case d.Activate:
		for _, p := range v.pollers {
			if p.resource.gated() {
				p.activate(ctx, v.clock, v.post)
			}
		}
	case d.Deactivate:
		for _, p := range v.pollers {
			if p.resource.gated() {
				p.deactivate(ctx)
			}
		}
	}
	if d.RefreshMetrics && v.pollers[Metrics].enabled() {
		v.pollers[Metrics].issue(v.backend, v.state.Seq, v.post)
	}
	if d.Dropped {
		v.logger.Debug("Dropped stale update", slog.Uint64("seq", next.Seq))
	}

	return d
}

func (v *View) publish() {
	s := &Snapshot{
		State:     v.state,
		Polls:     make(map[string]PollStats, numResources),
		Errors:    make(map[string]string),
		UpdatedAt: v.clock.Now(),
	}
	s.Logs = slices.Clone(v.state.Logs)
	s.Clients = slices.Clone(v.state.Clients)
	s.Metrics.Rounds = slices.Clone(v.state.Metrics.Rounds)

	for r, p := range v.pollers {
		if p == nil || !p.enabled() {
			continue
		}
		s.Polls[Resource(r).String()] = p.snapshot()
	}
	for r := range numResources {
		if e := v.state.errs[r]; e != "" {
			s.Errors[r.String()] = e
		}
	}

	v.snap.Store(s)
}
