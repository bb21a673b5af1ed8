package components

import (
	"fmt"

	"github.com/mindchat/mindchat/internal/models"
	"github.com/mindchat/mindchat/ui/styles"
)

// StatusLabel is the readiness indicator text.
func StatusLabel(r models.ReadinessSnapshot) string {
	switch r.State {
	case models.ReadinessReady:
		return "Ready"
	case models.ReadinessLoading:
		if r.Retries > 0 {
			return fmt.Sprintf("Starting up (check %d)", r.Retries)
		}
		return "Starting up"
	case models.ReadinessError:
		return "Offline"
	default:
		return "Connecting"
	}
}

// Placeholder is the input hint for the current state.
func Placeholder(r models.ReadinessSnapshot, locked bool) string {
	if locked {
		return "Waiting for a reply..."
	}
	switch r.State {
	case models.ReadinessReady:
		return "Type your message and press Enter"
	case models.ReadinessLoading:
		return "The chat service is starting up, please wait..."
	case models.ReadinessError:
		return "Chat service unavailable. Press Ctrl+R to retry."
	default:
		return "Checking the chat service..."
	}
}

func RenderStatus(r models.ReadinessSnapshot, banner string, alert string, width int) string {
	badge := styles.ReadinessStyle(r.State).Render(StatusLabel(r))
	line := badge + " " + banner
	if alert != "" {
		line += "  " + styles.AlertStyle().Render(alert)
	}
	return styles.StatusStyle(width).Render(line)
}

func RenderHelp() string {
	return styles.HelpStyle().Render("Enter send · Ctrl+N new chat · Ctrl+R check service · PgUp/PgDn scroll · Ctrl+C quit")
}
