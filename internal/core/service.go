package core

import (
	"context"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/mindchat/mindchat/internal/config"
	"github.com/mindchat/mindchat/internal/eventbus"
	"github.com/mindchat/mindchat/internal/models"
)

// Backend is everything the service needs from the remote chat service.
type Backend interface {
	ChatBackend
	HealthChecker
}

// ChatService owns the session and the readiness probe and connects them to the UI through the event bus.
type ChatService struct {
	session  *ChatSession
	probe    *ReadinessProbe // nil when probing is disabled
	eventBus *eventbus.EventBus
	ctx      context.Context
	cancel   context.CancelFunc
	inflight sync.WaitGroup
	started  bool
	done     chan struct{}
}

func NewChatService(profile config.Profile, be Backend, eb *eventbus.EventBus, scheduler Scheduler) *ChatService {
	var probe *ReadinessProbe
	var gate ReadinessGate
	if profile.ProbeEnabled() {
		probe = NewReadinessProbe(be, ProbeOptions{
			Interval:     profile.GetProbeInterval(),
			MaxBackoff:   profile.GetProbeMaxBackoff(),
			RetryOnError: profile.RetryOnError(),
			Jitter:       0.2,
			Scheduler:    scheduler,
		})
		gate = probe
	}

	session := NewChatSession(be, SessionOptions{
		Greeting:       profile.GetGreeting(),
		RollbackPolicy: profile.GetRollbackPolicy(),
		Gate:           gate,
	})

	ctx, cancel := context.WithCancel(context.Background())
	service := &ChatService{
		session:  session,
		probe:    probe,
		eventBus: eb,
		ctx:      ctx,
		cancel:   cancel,
		done:     make(chan struct{}),
	}

	session.OnChange(func(models.SessionSnapshot) { service.pushStateToUI() })
	if probe != nil {
		probe.OnChange(func(models.ReadinessSnapshot) { service.pushStateToUI() })
	}
	return service
}

// Start runs the core logic in a goroutine
func (cs *ChatService) Start() {
	cs.started = true
	cs.pushStateToUI()
	if cs.probe != nil {
		cs.inflight.Add(1)
		go func() {
			defer cs.inflight.Done()
			cs.probe.Probe(cs.ctx)
		}()
	}
	go cs.eventLoop()
}

// Stop cancels outstanding work and waits for in-flight submissions to settle.
func (cs *ChatService) Stop() {
	cs.cancel()
	if cs.probe != nil {
		cs.probe.Stop()
	}
	if cs.started {
		<-cs.done
	}
	cs.inflight.Wait()
}

// Done is closed once the event loop has exited.
func (cs *ChatService) Done() <-chan struct{} {
	return cs.done
}

func (cs *ChatService) Session() *ChatSession {
	return cs.session
}

func (cs *ChatService) eventLoop() {
	defer close(cs.done)
	for {
		select {
		case <-cs.ctx.Done():
			return
		case event, ok := <-cs.eventBus.UIToCore():
			if !ok {
				return
			}
			cs.handleUIEvent(event)
		}
	}
}

func (cs *ChatService) handleUIEvent(event eventbus.UIEvent) {
	switch e := event.(type) {
	case eventbus.SubmitEvent:
		sub, ok := cs.session.Begin(cs.ctx, e.Text)
		if !ok {
			return
		}
		cs.inflight.Add(1)
		go func() {
			defer cs.inflight.Done()
			cs.session.Complete(sub)
		}()
	case eventbus.NewChatEvent:
		cs.session.NewChat()
	case eventbus.RetryProbeEvent:
		if cs.probe != nil {
			cs.inflight.Add(1)
			go func() {
				defer cs.inflight.Done()
				cs.probe.Retry()
			}()
		}
	}
}

// Snapshot combines the session and readiness state into one UI update.
func (cs *ChatService) Snapshot() eventbus.StateUpdateEvent {
	readiness := models.ReadinessSnapshot{State: models.ReadinessReady}
	if cs.probe != nil {
		readiness = cs.probe.Snapshot()
	}
	return eventbus.StateUpdateEvent{
		Session:   cs.session.Snapshot(),
		Readiness: readiness,
		Probing:   cs.probe != nil,
	}
}

func (cs *ChatService) pushStateToUI() {
	if cs.ctx.Err() != nil {
		return
	}
	if err := cs.eventBus.SendToUI(cs.Snapshot()); err != nil {
		log.Error().Err(err).Msg("Error sending state to UI")
	}
}
