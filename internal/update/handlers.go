package update

import (
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog/log"

	"github.com/mindchat/mindchat/internal/eventbus"
	"github.com/mindchat/mindchat/internal/models"
)

// HandleKeyMsgWithEventBus handles the chat key bindings. It reports false for
// keys it does not own so the caller can hand them to the input widget.
func HandleKeyMsgWithEventBus(appModel *models.AppModel, keyMsg tea.KeyMsg, eb *eventbus.EventBus) (tea.Cmd, bool) {
	switch keyMsg.String() {
	case "ctrl+c":
		return tea.Quit, true
	case "enter":
		if appModel.Flags().InputDisabled || strings.TrimSpace(appModel.Input) == "" {
			return nil, true
		}
		// The input is cleared once core confirms it accepted the submission.
		if err := eb.SendToCore(eventbus.SubmitEvent{Text: appModel.Input}); err != nil {
			log.Error().Err(err).Msg("Failed to send submission to core")
			appModel.Status = "Error sending message: " + err.Error()
		}
		return nil, true
	case "ctrl+n":
		if err := eb.SendToCore(eventbus.NewChatEvent{}); err != nil {
			log.Error().Err(err).Msg("Failed to request new chat")
		}
		return nil, true
	case "ctrl+r":
		if appModel.Probing && appModel.Readiness.State != models.ReadinessReady {
			if err := eb.SendToCore(eventbus.RetryProbeEvent{}); err != nil {
				log.Error().Err(err).Msg("Failed to request readiness check")
			}
		}
		return nil, true
	}
	return nil, false
}

// CoreEventMsg wraps core events for Bubble Tea
type CoreEventMsg struct {
	Event eventbus.CoreEvent
}

// HandleCoreEvent copies core state into the UI model. It reports whether a
// new submission was accepted since the previous update, meaning the input
// field should be cleared.
func HandleCoreEvent(appModel *models.AppModel, coreEventMsg CoreEventMsg) bool {
	switch event := coreEventMsg.Event.(type) {
	case eventbus.StateUpdateEvent:
		accepted := event.Session.Accepted > appModel.Session.Accepted
		appModel.Session = event.Session
		appModel.Readiness = event.Readiness
		appModel.Probing = event.Probing
		appModel.Status = event.Readiness.Message
		if !appModel.Session.Locked {
			appModel.LoadingDots = 0
		}
		return accepted
	}
	return false
}

type TickMsg time.Time

func TickCmd() tea.Cmd {
	return tea.Tick(500*time.Millisecond, func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}

func HandleWindowSizeMsg(appModel *models.AppModel, sizeMsg tea.WindowSizeMsg) {
	appModel.Width = sizeMsg.Width
	appModel.Height = sizeMsg.Height
}

func HandleTickMsg(appModel *models.AppModel) tea.Cmd {
	// Only handle UI animations - loading dots
	if appModel.Session.Locked {
		appModel.LoadingDots = (appModel.LoadingDots + 1) % 4
	}
	return TickCmd()
}
