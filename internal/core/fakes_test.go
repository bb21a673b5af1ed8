package core

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/mindchat/mindchat/internal/backend"
	"github.com/mindchat/mindchat/internal/models"
)

type fakeReply struct {
	reply *backend.ChatReply
	err   error
	panic bool
}

// fakeBackend answers chat requests from a queue and records every payload.
type fakeBackend struct {
	mu      sync.Mutex
	calls   [][]models.Turn
	replies []fakeReply
	health  []healthResult
	checks  int
	// release, when set, blocks Chat until closed or the request is cancelled.
	release chan struct{}
	started chan struct{}
}

type healthResult struct {
	status *backend.HealthStatus
	err    error
}

func (f *fakeBackend) queue(replies ...fakeReply) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.replies = append(f.replies, replies...)
}

func (f *fakeBackend) Chat(ctx context.Context, turns []models.Turn) (*backend.ChatReply, error) {
	f.mu.Lock()
	f.calls = append(f.calls, turns)
	var next fakeReply
	if len(f.replies) > 0 {
		next = f.replies[0]
		f.replies = f.replies[1:]
	} else {
		next = fakeReply{reply: &backend.ChatReply{Response: "ok"}}
	}
	release, started := f.release, f.started
	f.mu.Unlock()

	if started != nil {
		started <- struct{}{}
	}
	if release != nil {
		select {
		case <-release:
		case <-ctx.Done():
			return nil, &backend.TransportError{Op: "POST /api/chat", Err: ctx.Err()}
		}
	}
	if next.panic {
		panic("backend exploded")
	}
	return next.reply, next.err
}

func (f *fakeBackend) Health(ctx context.Context) (*backend.HealthStatus, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.checks++
	if len(f.health) == 0 {
		return &backend.HealthStatus{Status: backend.StatusReady, HTTPStatus: 200}, nil
	}
	next := f.health[0]
	if len(f.health) > 1 {
		f.health = f.health[1:]
	}
	return next.status, next.err
}

func (f *fakeBackend) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func (f *fakeBackend) lastCall() []models.Turn {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.calls) == 0 {
		return nil
	}
	return f.calls[len(f.calls)-1]
}

func (f *fakeBackend) checkCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.checks
}

func loading() healthResult {
	return healthResult{status: &backend.HealthStatus{Status: "loading", Message: "Model is still loading...", HTTPStatus: 503}}
}

func ready() healthResult {
	return healthResult{status: &backend.HealthStatus{Status: backend.StatusReady, Message: "Model is ready to chat!", HTTPStatus: 200}}
}

func unreachable() healthResult {
	return healthResult{err: &backend.TransportError{Op: "GET /api/health", Err: errors.New("connection refused")}}
}

type fakeGate struct {
	mu     sync.Mutex
	ready  bool
	marked int
}

func (g *fakeGate) Ready() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.ready
}

func (g *fakeGate) MarkNotReady() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.ready = false
	g.marked++
}

// fakeScheduler records timers and fires them only when the test asks.
type fakeScheduler struct {
	mu     sync.Mutex
	timers []*fakeTimer
}

type fakeTimer struct {
	delay   time.Duration
	fn      func()
	stopped bool
	fired   bool
	sched   *fakeScheduler
}

func (t *fakeTimer) Stop() bool {
	t.sched.mu.Lock()
	defer t.sched.mu.Unlock()
	active := !t.stopped && !t.fired
	t.stopped = true
	return active
}

func (s *fakeScheduler) AfterFunc(d time.Duration, f func()) Timer {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := &fakeTimer{delay: d, fn: f, sched: s}
	s.timers = append(s.timers, t)
	return t
}

func (s *fakeScheduler) pending() []*fakeTimer {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*fakeTimer
	for _, t := range s.timers {
		if !t.stopped && !t.fired {
			out = append(out, t)
		}
	}
	return out
}

// fire runs the single pending timer synchronously and returns its delay.
func (s *fakeScheduler) fire() (time.Duration, bool) {
	s.mu.Lock()
	var next *fakeTimer
	for _, t := range s.timers {
		if !t.stopped && !t.fired {
			next = t
		}
	}
	if next == nil {
		s.mu.Unlock()
		return 0, false
	}
	next.fired = true
	s.mu.Unlock()
	next.fn()
	return next.delay, true
}

func errNotReady() error {
	return errors.Wrap(backend.ErrNotReady, "Model is still loading. Please wait a moment and try again.")
}
