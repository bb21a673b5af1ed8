package styles

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/mindchat/mindchat/internal/models"
)

func InputStyle(width int, disabled bool) lipgloss.Style {
	border := lipgloss.Color("62")
	if disabled {
		border = lipgloss.Color("240")
	}
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(border).
		Padding(0, 1).
		Width(max(width-4, 10))
}

func StatusStyle(width int) lipgloss.Style {
	return lipgloss.NewStyle().
		Foreground(lipgloss.Color("241")).
		Background(lipgloss.Color("235")).
		Padding(0, 1).
		Width(width)
}

// ReadinessStyle is the status badge style for each readiness state.
func ReadinessStyle(state models.Readiness) lipgloss.Style {
	base := lipgloss.NewStyle().Bold(true).Padding(0, 1)
	switch state {
	case models.ReadinessReady:
		return base.Foreground(lipgloss.Color("0")).Background(lipgloss.Color("42"))
	case models.ReadinessLoading:
		return base.Foreground(lipgloss.Color("0")).Background(lipgloss.Color("220"))
	case models.ReadinessError:
		return base.Foreground(lipgloss.Color("15")).Background(lipgloss.Color("160"))
	default:
		return base.Foreground(lipgloss.Color("15")).Background(lipgloss.Color("240"))
	}
}

func AlertStyle() lipgloss.Style {
	return lipgloss.NewStyle().
		Foreground(lipgloss.Color("203")).
		Bold(true)
}

func UserStyle() lipgloss.Style {
	return lipgloss.NewStyle().
		Foreground(lipgloss.Color("39")).
		Border(lipgloss.NormalBorder(), false, false, false, true).
		BorderForeground(lipgloss.Color("39")).
		Padding(0, 1).
		MarginLeft(2)
}

func AssistantStyle() lipgloss.Style {
	return lipgloss.NewStyle().
		Foreground(lipgloss.Color("214")).
		Border(lipgloss.NormalBorder(), false, false, false, true).
		BorderForeground(lipgloss.Color("214")).
		Padding(0, 1).
		MarginLeft(2)
}

func NoticeStyle() lipgloss.Style {
	return lipgloss.NewStyle().
		Foreground(lipgloss.Color("245")).
		Italic(true).
		Border(lipgloss.NormalBorder(), false, false, false, true).
		BorderForeground(lipgloss.Color("203")).
		Padding(0, 1).
		MarginLeft(2)
}

func LoadingStyle() lipgloss.Style {
	return lipgloss.NewStyle().
		Foreground(lipgloss.Color("141")).
		Padding(0, 1).
		MarginLeft(2)
}

func SupportPanelStyle(width int) lipgloss.Style {
	return lipgloss.NewStyle().
		Border(lipgloss.ThickBorder()).
		BorderForeground(lipgloss.Color("160")).
		Foreground(lipgloss.Color("15")).
		Padding(0, 1).
		MarginLeft(2).
		Width(max(width-6, 20))
}

func SupportTitleStyle() lipgloss.Style {
	return lipgloss.NewStyle().
		Foreground(lipgloss.Color("203")).
		Bold(true)
}

func HelpStyle() lipgloss.Style {
	return lipgloss.NewStyle().
		Foreground(lipgloss.Color("241")).
		Faint(true)
}
