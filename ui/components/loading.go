package components

import (
	"strings"

	"github.com/mindchat/mindchat/ui/styles"
)

// RenderLoadingIndicator draws the typing bubble shown while a request is outstanding.
func RenderLoadingIndicator(dots int) string {
	return styles.LoadingStyle().Render("AI: "+strings.Repeat("●", dots%4)+strings.Repeat("○", 3-dots%4)) + "\n\n"
}
