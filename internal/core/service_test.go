package core

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/mindchat/mindchat/internal/backend"
	"github.com/mindchat/mindchat/internal/config"
	"github.com/mindchat/mindchat/internal/eventbus"
	"github.com/mindchat/mindchat/internal/models"
)

func probeOff() config.Profile {
	disabled := false
	return config.Profile{Probe: &disabled}
}

// waitForState reads UI updates until one satisfies match.
func waitForState(t *testing.T, eb *eventbus.EventBus, match func(eventbus.StateUpdateEvent) bool) eventbus.StateUpdateEvent {
	t.Helper()
	timeout := time.After(2 * time.Second)
	for {
		select {
		case ev := <-eb.CoreToUI():
			if update, ok := ev.(eventbus.StateUpdateEvent); ok && match(update) {
				return update
			}
		case <-timeout:
			t.Fatal("timed out waiting for state update")
			return eventbus.StateUpdateEvent{}
		}
	}
}

func TestServiceSubmitRoundTrip(t *testing.T) {
	defer goleak.VerifyNone(t)

	be := &fakeBackend{}
	be.queue(fakeReply{reply: &backend.ChatReply{Response: "Tell me more."}})
	eb := eventbus.NewEventBus()
	svc := NewChatService(probeOff(), be, eb, nil)
	svc.Start()

	initial := waitForState(t, eb, func(eventbus.StateUpdateEvent) bool { return true })
	assert.False(t, initial.Probing)
	assert.Equal(t, models.ReadinessReady, initial.Readiness.State)

	require.NoError(t, eb.SendToCore(eventbus.SubmitEvent{Text: "I feel anxious"}))
	final := waitForState(t, eb, func(u eventbus.StateUpdateEvent) bool {
		return u.Session.Accepted == 1 && !u.Session.Locked
	})

	assertTurns(t, []models.Turn{greeting(), user("I feel anxious"), assistant("Tell me more.")}, final.Session.Turns)

	svc.Stop()
	eb.Close()
}

func TestServiceNewChatCancelsInFlightRequest(t *testing.T) {
	defer goleak.VerifyNone(t)

	be := &fakeBackend{release: make(chan struct{}), started: make(chan struct{}, 1)}
	eb := eventbus.NewEventBus()
	svc := NewChatService(probeOff(), be, eb, nil)
	svc.Start()

	require.NoError(t, eb.SendToCore(eventbus.SubmitEvent{Text: "hello"}))
	<-be.started
	waitForState(t, eb, func(u eventbus.StateUpdateEvent) bool { return u.Session.Locked })

	require.NoError(t, eb.SendToCore(eventbus.NewChatEvent{}))
	reset := waitForState(t, eb, func(u eventbus.StateUpdateEvent) bool { return u.Session.Generation == 1 })
	assertTurns(t, []models.Turn{greeting()}, reset.Session.Turns)
	assert.False(t, reset.Session.Locked)

	// The cancelled request settles without touching the new chat.
	svc.Stop()
	assertTurns(t, []models.Turn{greeting()}, svc.Session().Turns())
	eb.Close()
}

func TestServiceGatesSubmissionsOnReadiness(t *testing.T) {
	defer goleak.VerifyNone(t)

	be := &fakeBackend{health: []healthResult{loading(), ready()}}
	sched := &fakeScheduler{}
	eb := eventbus.NewEventBus()
	svc := NewChatService(config.Profile{}, be, eb, sched)
	svc.Start()

	waitForState(t, eb, func(u eventbus.StateUpdateEvent) bool {
		return u.Probing && u.Readiness.State == models.ReadinessLoading
	})

	require.NoError(t, eb.SendToCore(eventbus.SubmitEvent{Text: "too early"}))
	require.NoError(t, eb.SendToCore(eventbus.RetryProbeEvent{}))
	waitForState(t, eb, func(u eventbus.StateUpdateEvent) bool {
		return u.Readiness.State == models.ReadinessReady
	})
	assert.Equal(t, 0, be.callCount())
	assertTurns(t, []models.Turn{greeting()}, svc.Session().Turns())

	require.NoError(t, eb.SendToCore(eventbus.SubmitEvent{Text: "now"}))
	final := waitForState(t, eb, func(u eventbus.StateUpdateEvent) bool {
		return u.Session.Accepted == 1 && !u.Session.Locked
	})
	assertTurns(t, []models.Turn{greeting(), user("now"), assistant("ok")}, final.Session.Turns)

	svc.Stop()
	eb.Close()
}

func TestServiceStopWithoutStart(t *testing.T) {
	defer goleak.VerifyNone(t)

	eb := eventbus.NewEventBus()
	svc := NewChatService(probeOff(), &fakeBackend{}, eb, nil)
	svc.Stop()
	eb.Close()
}
