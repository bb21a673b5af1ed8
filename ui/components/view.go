package components

import (
	"strings"

	"github.com/mindchat/mindchat/internal/models"
)

// Render is the full thread projection: turns, then the loading indicator
// while a request is outstanding, then the support panel when a crisis was flagged.
// Output depends only on the arguments.
func Render(turns []models.Turn, flags models.ViewFlags, resources []string, dots int, width int) string {
	var b strings.Builder
	b.WriteString(RenderMessages(turns, width))
	if flags.Loading {
		b.WriteString(RenderLoadingIndicator(dots))
	}
	if flags.Crisis {
		b.WriteString(RenderSupportPanel(resources, width))
	}
	return b.String()
}
