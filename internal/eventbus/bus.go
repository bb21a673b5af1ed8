package eventbus

import (
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/mindchat/mindchat/internal/models"
)

// UIEvent represents events sent from UI to Core
type UIEvent interface {
	UIEvent()
}

// CoreEvent represents events sent from Core to UI
type CoreEvent interface {
	CoreEvent()
}

// SubmitEvent - UI asks core to submit the input text
type SubmitEvent struct {
	Text string
}

func (e SubmitEvent) UIEvent() {}

// NewChatEvent - UI asks core to reset the conversation
type NewChatEvent struct{}

func (e NewChatEvent) UIEvent() {}

// RetryProbeEvent - UI asks core to check backend readiness right away
type RetryProbeEvent struct{}

func (e RetryProbeEvent) UIEvent() {}

// StateUpdateEvent - Core pushes a full state snapshot to UI
type StateUpdateEvent struct {
	Session   models.SessionSnapshot
	Readiness models.ReadinessSnapshot
	Probing   bool
}

func (e StateUpdateEvent) CoreEvent() {}

var (
	ErrClosed  = errors.New("event bus is closed")
	ErrUIBusy  = errors.New("UI to Core channel is full")
	ErrUIStall = errors.New("Core to UI channel is full")
)

// EventBusError represents errors in event processing
type EventBusError struct {
	Operation string
	Err       error
	Timestamp time.Time
}

func (e EventBusError) Error() string {
	return e.Operation + ": " + e.Err.Error()
}

// EventBus handles communication between UI and Core
type EventBus struct {
	mu            sync.RWMutex
	closed        bool
	uiToCore      chan UIEvent
	coreToUI      chan CoreEvent
	errorCallback func(EventBusError)
}

func NewEventBus() *EventBus {
	return &EventBus{
		uiToCore: make(chan UIEvent, 100),
		coreToUI: make(chan CoreEvent, 100),
	}
}

func (eb *EventBus) SetErrorCallback(callback func(EventBusError)) {
	eb.mu.Lock()
	defer eb.mu.Unlock()
	eb.errorCallback = callback
}

func (eb *EventBus) reportError(operation string, err error) error {
	if eb.errorCallback != nil {
		eb.errorCallback(EventBusError{
			Operation: operation,
			Err:       err,
			Timestamp: time.Now(),
		})
	}
	return err
}

func (eb *EventBus) SendToCore(event UIEvent) error {
	eb.mu.RLock()
	defer eb.mu.RUnlock()
	if eb.closed {
		return eb.reportError("SendToCore", ErrClosed)
	}

	select {
	case eb.uiToCore <- event:
		return nil
	default:
		return eb.reportError("SendToCore", ErrUIBusy)
	}
}

// SendToUI never blocks. State updates are full snapshots, so when the UI
// falls behind the oldest queued event is dropped to make room for the newest.
func (eb *EventBus) SendToUI(event CoreEvent) error {
	eb.mu.RLock()
	defer eb.mu.RUnlock()
	if eb.closed {
		return eb.reportError("SendToUI", ErrClosed)
	}

	for attempt := 0; attempt < 2; attempt++ {
		select {
		case eb.coreToUI <- event:
			return nil
		default:
		}
		select {
		case <-eb.coreToUI:
		default:
		}
	}
	return eb.reportError("SendToUI", ErrUIStall)
}

func (eb *EventBus) UIToCore() <-chan UIEvent {
	return eb.uiToCore
}

func (eb *EventBus) CoreToUI() <-chan CoreEvent {
	return eb.coreToUI
}

func (eb *EventBus) Close() {
	eb.mu.Lock()
	defer eb.mu.Unlock()
	if eb.closed {
		return
	}
	eb.closed = true
	close(eb.uiToCore)
	close(eb.coreToUI)
}
