package dispatcher

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/mindchat/mindchat/internal/eventbus"
	"github.com/mindchat/mindchat/internal/update"
)

// EventDispatcher turns core events into Bubble Tea messages
type EventDispatcher struct {
	eventBus *eventbus.EventBus
}

func NewEventDispatcher(eventBus *eventbus.EventBus) *EventDispatcher {
	return &EventDispatcher{eventBus: eventBus}
}

// ListenForCoreEvents waits for the next core event. The model must call it
// again after handling each event to keep listening.
func (ed *EventDispatcher) ListenForCoreEvents() tea.Cmd {
	ch := ed.eventBus.CoreToUI()
	return func() tea.Msg {
		event, ok := <-ch
		if !ok {
			return nil
		}
		return update.CoreEventMsg{Event: event}
	}
}

func (ed *EventDispatcher) GetEventBus() *eventbus.EventBus {
	return ed.eventBus
}
