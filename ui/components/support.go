package components

import (
	"strings"

	"github.com/mindchat/mindchat/ui/styles"
)

const supportTitle = "You don't have to go through this alone. Please reach out now:"

// RenderSupportPanel draws the crisis resources panel. It has no close control.
func RenderSupportPanel(resources []string, width int) string {
	var b strings.Builder
	b.WriteString(styles.SupportTitleStyle().Render(supportTitle))
	for _, r := range resources {
		b.WriteString("\n• " + r)
	}
	return styles.SupportPanelStyle(width).Render(b.String()) + "\n"
}
