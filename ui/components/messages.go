package components

import (
	"strings"

	"github.com/mindchat/mindchat/internal/models"
	"github.com/mindchat/mindchat/ui/styles"
)

// RenderMessages draws the whole thread from scratch.
func RenderMessages(turns []models.Turn, width int) string {
	var b strings.Builder

	userStyle := styles.UserStyle()
	assistantStyle := styles.AssistantStyle()
	noticeStyle := styles.NoticeStyle()
	bodyWidth := width - 8

	for _, turn := range turns {
		switch {
		case turn.Role == models.User:
			b.WriteString(userStyle.Render("You: "+turn.Content) + "\n\n")
		case turn.Notice:
			b.WriteString(noticeStyle.Render("AI: "+turn.Content) + "\n\n")
		default:
			b.WriteString(assistantStyle.Render("AI: "+RenderMarkdown(turn.Content, bodyWidth)) + "\n\n")
		}
	}

	return b.String()
}
