package view

import (
	"context"
	"time"

	"k8s.io/utils/clock"
)

// PollStats counts what a poller did over the life of a view.
type PollStats struct {
	Active   bool   `json:"active"`
	Issued   uint64 `json:"issued"`
	Skipped  uint64 `json:"skipped"`
	Failed   uint64 `json:"failed"`
	Inflight bool   `json:"inflight"`
}

// tick is posted by a poller's ticker goroutine.
type tick struct {
	resource Resource
	gen      uint64
}

// fetched carries a completed fetch back to the loop.
type fetched struct {
	resource Resource
	gen      uint64
	event    Event
}

// poller owns the schedule of one resource. It is only touched from the
// view's event loop goroutine; the ticker goroutine communicates by posting
// ticks tagged with the activation generation.
type poller struct {
	resource Resource
	interval time.Duration
	active   bool
	inflight bool
	gen      uint64
	cancel   context.CancelFunc
	ctx      context.Context
	stats    PollStats
}

func newPoller(ctx context.Context, r Resource, interval time.Duration) *poller {
	return &poller{
		resource: r,
		interval: interval,
		ctx:      ctx,
	}
}

func (p *poller) enabled() bool {
	return p.interval > 0
}

// activate starts a ticker tagged with the current generation. A fetch
// already in flight stays valid.
func (p *poller) activate(parent context.Context, clk clock.WithTicker, post func(any) bool) {
	if !p.enabled() || p.active {
		return
	}

	p.active = true

	ctx, cancel := context.WithCancel(parent)
	p.ctx = ctx
	p.cancel = cancel

	gen, r := p.gen, p.resource
	ticker := clk.NewTicker(p.interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C():
				if !post(tick{resource: r, gen: gen}) {
					return
				}
			}
		}
	}()
}

// deactivate cancels the ticker and any fetch in flight. Ticks and results
// of the old generation become no-ops.
func (p *poller) deactivate(parent context.Context) {
	if !p.active {
		return
	}

	p.cancel()
	p.gen++
	p.active = false
	p.inflight = false
	p.ctx = parent
	p.cancel = nil
}

// issue starts one fetch unless one is already outstanding.
func (p *poller) issue(b Backend, seq uint64, post func(any) bool) bool {
	if p.inflight {
		p.stats.Skipped++

		return false
	}

	p.inflight = true
	p.stats.Issued++

	ctx, gen, r := p.ctx, p.gen, p.resource
	go func() {
		ev := fetch(ctx, b, r, seq)
		post(fetched{resource: r, gen: gen, event: ev})
	}()

	return true
}

// complete accepts a result of the current generation.
func (p *poller) complete(f fetched) bool {
	if f.gen != p.gen {
		return false
	}
	p.inflight = false
	if _, ok := f.event.(FetchFailed); ok {
		p.stats.Failed++
	}

	return true
}

func (p *poller) snapshot() PollStats {
	s := p.stats
	s.Active = p.active
	s.Inflight = p.inflight

	return s
}
