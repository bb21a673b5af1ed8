package components

import (
	"strings"
	"sync"

	"github.com/charmbracelet/glamour"
	"github.com/rs/zerolog/log"
)

var (
	renderersMu sync.Mutex
	renderers   = map[int]*glamour.TermRenderer{}
)

// markdownRenderer memoizes one renderer per wrap width. The notty style
// keeps output independent of the terminal's color profile.
func markdownRenderer(width int) *glamour.TermRenderer {
	renderersMu.Lock()
	defer renderersMu.Unlock()
	if r, ok := renderers[width]; ok {
		return r
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithStylePath("notty"),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		log.Warn().Err(err).Msg("Markdown renderer unavailable, falling back to plain text")
		r = nil
	}
	renderers[width] = r
	return r
}

// RenderMarkdown renders assistant content; it falls back to the raw text on failure.
func RenderMarkdown(text string, width int) string {
	if width < 20 {
		width = 20
	}
	r := markdownRenderer(width)
	if r == nil {
		return text
	}
	out, err := r.Render(text)
	if err != nil {
		return text
	}
	return strings.Trim(out, "\n ")
}
