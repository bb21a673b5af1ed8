package core

import (
	"context"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog/log"

	"github.com/mindchat/mindchat/internal/backend"
	"github.com/mindchat/mindchat/internal/models"
)

// HealthChecker performs a single backend readiness check.
type HealthChecker interface {
	Health(ctx context.Context) (*backend.HealthStatus, error)
}

// Timer is a pending scheduled callback.
type Timer interface {
	Stop() bool
}

// Scheduler runs f once after d.
type Scheduler interface {
	AfterFunc(d time.Duration, f func()) Timer
}

type wallScheduler struct{}

func (wallScheduler) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

type ProbeOptions struct {
	// Interval between probes while the backend reports it is still loading.
	Interval time.Duration
	// MaxBackoff caps the delay between probes after transport failures.
	MaxBackoff time.Duration
	// RetryOnError keeps probing after transport failures. When false the
	// probe stays in the error state until Retry is called.
	RetryOnError bool
	// Jitter is the randomization factor applied to error backoff delays.
	Jitter    float64
	Scheduler Scheduler
}

// ReadinessProbe owns the backend readiness state and its retry loop.
type ReadinessProbe struct {
	mu        sync.Mutex
	checker   HealthChecker
	opts      ProbeOptions
	errDelay  *backoff.ExponentialBackOff
	state     models.Readiness
	message   string
	retries   int
	timer     Timer
	timerSeq  uint64
	inflight  bool
	stopped   bool
	ctx       context.Context
	cancel    context.CancelFunc
	listeners []func(models.ReadinessSnapshot)
}

func NewReadinessProbe(checker HealthChecker, opts ProbeOptions) *ReadinessProbe {
	if opts.Interval <= 0 {
		opts.Interval = 5 * time.Second
	}
	if opts.MaxBackoff < opts.Interval {
		opts.MaxBackoff = opts.Interval
	}
	if opts.Scheduler == nil {
		opts.Scheduler = wallScheduler{}
	}

	errDelay := backoff.NewExponentialBackOff()
	errDelay.InitialInterval = opts.Interval
	errDelay.MaxInterval = opts.MaxBackoff
	errDelay.RandomizationFactor = opts.Jitter
	errDelay.MaxElapsedTime = 0
	errDelay.Reset()

	ctx, cancel := context.WithCancel(context.Background())
	return &ReadinessProbe{
		checker:  checker,
		opts:     opts,
		errDelay: errDelay,
		state:    models.ReadinessUnknown,
		ctx:      ctx,
		cancel:   cancel,
	}
}

// OnChange registers a listener called after every state transition.
func (p *ReadinessProbe) OnChange(fn func(models.ReadinessSnapshot)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.listeners = append(p.listeners, fn)
}

// Stop cancels any pending timer and in-flight check.
func (p *ReadinessProbe) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stopped = true
	p.stopTimerLocked()
	p.cancel()
}

// Probe performs one health check and applies the resulting transition.
// It is a no-op while another check is in flight.
func (p *ReadinessProbe) Probe(ctx context.Context) models.Readiness {
	p.mu.Lock()
	if p.inflight || p.stopped {
		state := p.state
		p.mu.Unlock()
		return state
	}
	p.inflight = true
	p.stopTimerLocked()
	p.mu.Unlock()

	status, err := p.checker.Health(ctx)

	p.mu.Lock()
	p.inflight = false
	if p.stopped {
		state := p.state
		p.mu.Unlock()
		return state
	}

	switch {
	case err != nil:
		p.state = models.ReadinessError
		p.message = "Unable to reach the chat service"
		log.Warn().Err(err).Int("retries", p.retries).Msg("Readiness probe failed")
		if p.opts.RetryOnError {
			if delay := p.errDelay.NextBackOff(); delay != backoff.Stop {
				p.scheduleLocked(delay)
			}
		}
	case status.Ready():
		p.state = models.ReadinessReady
		p.message = status.Message
		p.retries = 0
		p.errDelay.Reset()
		log.Info().Msg("Backend is ready")
	default:
		p.state = models.ReadinessLoading
		p.message = status.Message
		p.errDelay.Reset()
		log.Debug().Str("status", status.Status).Int("http_status", status.HTTPStatus).Msg("Backend still loading")
		p.scheduleLocked(p.opts.Interval)
	}

	snap := p.snapshotLocked()
	listeners := append([]func(models.ReadinessSnapshot){}, p.listeners...)
	p.mu.Unlock()

	for _, fn := range listeners {
		fn(snap)
	}
	return snap.State
}

// Retry probes immediately, replacing any pending retry.
func (p *ReadinessProbe) Retry() {
	p.mu.Lock()
	p.errDelay.Reset()
	ctx := p.ctx
	p.mu.Unlock()
	p.Probe(ctx)
}

// MarkNotReady reverts to loading after the backend rejected a chat request
// and resumes polling.
func (p *ReadinessProbe) MarkNotReady() {
	p.mu.Lock()
	if p.stopped {
		p.mu.Unlock()
		return
	}
	p.state = models.ReadinessLoading
	p.message = "The chat service is still starting up"
	if !p.inflight {
		p.scheduleLocked(p.opts.Interval)
	}
	snap := p.snapshotLocked()
	listeners := append([]func(models.ReadinessSnapshot){}, p.listeners...)
	p.mu.Unlock()

	for _, fn := range listeners {
		fn(snap)
	}
}

func (p *ReadinessProbe) Ready() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state == models.ReadinessReady
}

func (p *ReadinessProbe) State() models.Readiness {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

func (p *ReadinessProbe) Snapshot() models.ReadinessSnapshot {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.snapshotLocked()
}

// Pending reports whether a retry is scheduled.
func (p *ReadinessProbe) Pending() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.timer != nil
}

func (p *ReadinessProbe) snapshotLocked() models.ReadinessSnapshot {
	return models.ReadinessSnapshot{State: p.state, Message: p.message, Retries: p.retries}
}

// scheduleLocked replaces any pending timer so at most one retry is outstanding.
func (p *ReadinessProbe) scheduleLocked(delay time.Duration) {
	p.stopTimerLocked()
	p.retries++
	seq := p.timerSeq
	p.timer = p.opts.Scheduler.AfterFunc(delay, func() {
		p.fire(seq)
	})
}

func (p *ReadinessProbe) fire(seq uint64) {
	p.mu.Lock()
	if seq != p.timerSeq || p.stopped {
		p.mu.Unlock()
		return
	}
	p.timer = nil
	ctx := p.ctx
	p.mu.Unlock()
	p.Probe(ctx)
}

// stopTimerLocked also invalidates a callback that already fired but has not run yet.
func (p *ReadinessProbe) stopTimerLocked() {
	p.timerSeq++
	if p.timer != nil {
		p.timer.Stop()
		p.timer = nil
	}
}
