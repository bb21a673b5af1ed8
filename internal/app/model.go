package app

import (
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/mindchat/mindchat/internal/models"
	"github.com/mindchat/mindchat/internal/update"
	"github.com/mindchat/mindchat/ui/components"
)

// Rows taken by the input box, the status line and the help line.
const chromeHeight = 6

func (m *AppModel) Init() tea.Cmd {
	m.syncInput()
	m.refreshThread()
	return tea.Batch(
		update.TickCmd(),
		m.spinner.Tick,
		m.dispatcher.ListenForCoreEvents(),
	)
}

func (m *AppModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	eventBus := m.dispatcher.GetEventBus()

	switch msg := msg.(type) {
	case update.CoreEventMsg:
		// Handle core events and continue listening
		if update.HandleCoreEvent(&m.appModel, msg) {
			m.input.Reset()
			m.appModel.Input = ""
		}
		m.syncInput()
		m.refreshThread()
		return m, m.dispatcher.ListenForCoreEvents()

	case tea.WindowSizeMsg:
		update.HandleWindowSizeMsg(&m.appModel, msg)
		m.resize()
		m.refreshThread()
		return m, nil

	case update.TickMsg:
		cmd := update.HandleTickMsg(&m.appModel)
		if m.appModel.Session.Locked {
			m.refreshThread()
		}
		return m, cmd

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		m.appModel.Input = m.input.Value()
		if cmd, handled := update.HandleKeyMsgWithEventBus(&m.appModel, msg, eventBus); handled {
			return m, cmd
		}
		var cmd tea.Cmd
		switch msg.Type {
		case tea.KeyPgUp, tea.KeyPgDown:
			m.thread, cmd = m.thread.Update(msg)
			return m, cmd
		}
		if m.appModel.Flags().InputDisabled {
			return m, nil
		}
		m.input, cmd = m.input.Update(msg)
		m.appModel.Input = m.input.Value()
		return m, cmd

	case tea.MouseMsg:
		var cmd tea.Cmd
		m.thread, cmd = m.thread.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m *AppModel) View() string {
	var b strings.Builder
	flags := m.appModel.Flags()

	b.WriteString(m.thread.View())
	b.WriteString("\n")
	b.WriteString(components.RenderInput(m.input.View(), flags.InputDisabled, m.appModel.Width))
	b.WriteString("\n")
	b.WriteString(m.statusLine(flags))
	b.WriteString("\n")
	b.WriteString(components.RenderHelp())

	return b.String()
}

func (m *AppModel) statusLine(flags models.ViewFlags) string {
	status := components.RenderStatus(m.appModel.Readiness, flags.ReadinessBanner, m.appModel.Session.Alert, m.appModel.Width)
	if m.appModel.Probing && (m.appModel.Readiness.State == models.ReadinessLoading || m.appModel.Readiness.State == models.ReadinessUnknown) {
		return lipgloss.JoinHorizontal(lipgloss.Top, m.spinner.View(), " ", status)
	}
	return status
}

// refreshThread re-renders the conversation and keeps the newest turn in view.
func (m *AppModel) refreshThread() {
	width := m.thread.Width
	if width <= 0 {
		width = m.appModel.Width
	}
	content := components.Render(
		m.appModel.Session.Turns,
		m.appModel.Flags(),
		m.appModel.Resources,
		m.appModel.LoadingDots,
		width,
	)
	m.thread.SetContent(content)
	m.thread.GotoBottom()
}

func (m *AppModel) syncInput() {
	flags := m.appModel.Flags()
	m.input.Placeholder = components.Placeholder(m.appModel.Readiness, m.appModel.Session.Locked)
	if flags.InputDisabled {
		m.input.Blur()
	} else {
		m.input.Focus()
	}
}

func (m *AppModel) resize() {
	width := m.appModel.Width
	height := m.appModel.Height - chromeHeight
	if height < 3 {
		height = 3
	}
	m.thread.Width = width
	m.thread.Height = height
	m.input.Width = width - 6
}
