package update

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mindchat/mindchat/internal/eventbus"
	"github.com/mindchat/mindchat/internal/models"
)

func readyModel() *models.AppModel {
	return &models.AppModel{
		Probing:   true,
		Readiness: models.ReadinessSnapshot{State: models.ReadinessReady},
	}
}

func nextUIEvent(eb *eventbus.EventBus) eventbus.UIEvent {
	select {
	case ev := <-eb.UIToCore():
		return ev
	default:
		return nil
	}
}

func TestEnterSubmitsInput(t *testing.T) {
	eb := eventbus.NewEventBus()
	defer eb.Close()
	m := readyModel()
	m.Input = "I feel anxious"

	_, handled := HandleKeyMsgWithEventBus(m, tea.KeyMsg{Type: tea.KeyEnter}, eb)
	assert.True(t, handled)
	assert.Equal(t, eventbus.SubmitEvent{Text: "I feel anxious"}, nextUIEvent(eb))
	// The input is kept until core confirms the submission.
	assert.Equal(t, "I feel anxious", m.Input)
}

func TestEnterIgnoredWhenDisabledOrBlank(t *testing.T) {
	tests := []struct {
		name  string
		model func() *models.AppModel
	}{
		{"blank", func() *models.AppModel {
			m := readyModel()
			m.Input = "   "
			return m
		}},
		{"locked", func() *models.AppModel {
			m := readyModel()
			m.Input = "hello"
			m.Session.Locked = true
			return m
		}},
		{"loading", func() *models.AppModel {
			m := readyModel()
			m.Input = "hello"
			m.Readiness.State = models.ReadinessLoading
			return m
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			eb := eventbus.NewEventBus()
			defer eb.Close()

			_, handled := HandleKeyMsgWithEventBus(tt.model(), tea.KeyMsg{Type: tea.KeyEnter}, eb)
			assert.True(t, handled)
			assert.Nil(t, nextUIEvent(eb))
		})
	}
}

func TestEnterAllowedWithoutProbe(t *testing.T) {
	eb := eventbus.NewEventBus()
	defer eb.Close()
	m := &models.AppModel{Input: "hello"}

	HandleKeyMsgWithEventBus(m, tea.KeyMsg{Type: tea.KeyEnter}, eb)
	assert.Equal(t, eventbus.SubmitEvent{Text: "hello"}, nextUIEvent(eb))
}

func TestShortcutKeys(t *testing.T) {
	eb := eventbus.NewEventBus()
	defer eb.Close()
	m := readyModel()

	HandleKeyMsgWithEventBus(m, tea.KeyMsg{Type: tea.KeyCtrlN}, eb)
	assert.Equal(t, eventbus.NewChatEvent{}, nextUIEvent(eb))

	// Retry only makes sense while the service is not ready.
	HandleKeyMsgWithEventBus(m, tea.KeyMsg{Type: tea.KeyCtrlR}, eb)
	assert.Nil(t, nextUIEvent(eb))
	m.Readiness.State = models.ReadinessError
	HandleKeyMsgWithEventBus(m, tea.KeyMsg{Type: tea.KeyCtrlR}, eb)
	assert.Equal(t, eventbus.RetryProbeEvent{}, nextUIEvent(eb))

	cmd, handled := HandleKeyMsgWithEventBus(m, tea.KeyMsg{Type: tea.KeyCtrlC}, eb)
	assert.True(t, handled)
	require.NotNil(t, cmd)
	assert.Equal(t, tea.QuitMsg{}, cmd())
}

func TestTypingIsLeftToTheInput(t *testing.T) {
	eb := eventbus.NewEventBus()
	defer eb.Close()

	cmd, handled := HandleKeyMsgWithEventBus(readyModel(), tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")}, eb)
	assert.False(t, handled)
	assert.Nil(t, cmd)
}

func TestHandleCoreEventTracksAcceptedSubmissions(t *testing.T) {
	m := readyModel()
	m.LoadingDots = 2

	accepted := HandleCoreEvent(m, CoreEventMsg{Event: eventbus.StateUpdateEvent{
		Session:   models.SessionSnapshot{Accepted: 1, Locked: true},
		Readiness: models.ReadinessSnapshot{State: models.ReadinessReady, Message: "Model is ready to chat!"},
		Probing:   true,
	}})
	assert.True(t, accepted)
	assert.Equal(t, "Model is ready to chat!", m.Status)
	assert.Equal(t, 2, m.LoadingDots)

	accepted = HandleCoreEvent(m, CoreEventMsg{Event: eventbus.StateUpdateEvent{
		Session: models.SessionSnapshot{Accepted: 1},
		Probing: true,
	}})
	assert.False(t, accepted)
	assert.Zero(t, m.LoadingDots)
	assert.Equal(t, models.ReadinessUnknown, m.Readiness.State)
}

func TestTickAnimatesOnlyWhileLocked(t *testing.T) {
	m := readyModel()
	HandleTickMsg(m)
	assert.Zero(t, m.LoadingDots)

	m.Session.Locked = true
	for i := 0; i < 5; i++ {
		assert.NotNil(t, HandleTickMsg(m))
	}
	assert.Equal(t, 1, m.LoadingDots)
}

func TestWindowSize(t *testing.T) {
	m := readyModel()
	HandleWindowSizeMsg(m, tea.WindowSizeMsg{Width: 120, Height: 40})
	assert.Equal(t, 120, m.Width)
	assert.Equal(t, 40, m.Height)
}
