package components

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mindchat/mindchat/internal/models"
)

var resources = []string{"Emergency hotline: 112", "Crisis line: 0800"}

func conversation() []models.Turn {
	return []models.Turn{
		models.Greeting("Hello. How are you feeling today?"),
		models.NewUserTurn("I feel anxious"),
		models.NewAssistantTurn("Tell me more."),
	}
}

func TestRenderIsIdempotent(t *testing.T) {
	turns := conversation()
	flags := models.ViewFlags{Loading: true, Crisis: true}

	first := Render(turns, flags, resources, 2, 100)
	second := Render(turns, flags, resources, 2, 100)
	assert.Equal(t, first, second)
}

func TestRenderKeepsTurnOrder(t *testing.T) {
	out := Render(conversation(), models.ViewFlags{}, resources, 0, 100)

	greeting := strings.Index(out, "How are you feeling today?")
	userTurn := strings.Index(out, "You: I feel anxious")
	reply := strings.Index(out, "Tell me more.")
	assert.True(t, greeting >= 0 && userTurn > greeting && reply > userTurn, out)
}

func TestRenderLoadingIndicator(t *testing.T) {
	turns := conversation()

	idle := Render(turns, models.ViewFlags{}, resources, 1, 100)
	busy := Render(turns, models.ViewFlags{Loading: true}, resources, 1, 100)

	assert.NotContains(t, idle, "○")
	assert.Contains(t, busy, "●○○")
	// The indicator is the last element of the thread.
	assert.True(t, strings.HasSuffix(strings.TrimSpace(busy), "●○○"), busy)
}

func TestRenderSupportPanel(t *testing.T) {
	turns := conversation()

	calm := Render(turns, models.ViewFlags{}, resources, 0, 100)
	crisis := Render(turns, models.ViewFlags{Crisis: true}, resources, 0, 100)

	assert.NotContains(t, calm, supportTitle)
	assert.Contains(t, crisis, supportTitle)
	for _, r := range resources {
		assert.Contains(t, crisis, r)
	}
	assert.Greater(t, strings.Index(crisis, supportTitle), strings.Index(crisis, "Tell me more."))
}

func TestRenderNoticeIsPlainText(t *testing.T) {
	turns := []models.Turn{models.NewNoticeTurn("I'm having trouble connecting right now.")}

	out := RenderMessages(turns, 100)
	assert.Contains(t, out, "AI: I'm having trouble connecting right now.")
}

func TestRenderMarkdownClampsWidth(t *testing.T) {
	out := RenderMarkdown("- breathe in\n- breathe out", 0)
	assert.Contains(t, out, "breathe in")
	assert.Contains(t, out, "breathe out")
	assert.Equal(t, out, RenderMarkdown("- breathe in\n- breathe out", 5))
}

func TestStatusLabel(t *testing.T) {
	tests := []struct {
		snap models.ReadinessSnapshot
		want string
	}{
		{models.ReadinessSnapshot{State: models.ReadinessUnknown}, "Connecting"},
		{models.ReadinessSnapshot{State: models.ReadinessReady}, "Ready"},
		{models.ReadinessSnapshot{State: models.ReadinessLoading}, "Starting up"},
		{models.ReadinessSnapshot{State: models.ReadinessLoading, Retries: 3}, "Starting up (check 3)"},
		{models.ReadinessSnapshot{State: models.ReadinessError}, "Offline"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, StatusLabel(tt.snap))
	}
}

func TestPlaceholder(t *testing.T) {
	ready := models.ReadinessSnapshot{State: models.ReadinessReady}
	assert.Equal(t, "Waiting for a reply...", Placeholder(ready, true))
	assert.Equal(t, "Type your message and press Enter", Placeholder(ready, false))
	assert.Contains(t, Placeholder(models.ReadinessSnapshot{State: models.ReadinessError}, false), "Ctrl+R")
}

func TestRenderStatusShowsAlert(t *testing.T) {
	out := RenderStatus(models.ReadinessSnapshot{State: models.ReadinessReady}, "Model is ready", "Connection lost", 120)
	assert.Contains(t, out, "Ready")
	assert.Contains(t, out, "Model is ready")
	assert.Contains(t, out, "Connection lost")
}
