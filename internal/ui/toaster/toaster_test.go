package toaster

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNew(t *testing.T) {
	m := New()

	assert.False(t, m.Visible())
	assert.Empty(t, m.View())
}

func TestShow(t *testing.T) {
	m := New().Show("Directory updated", StyleInfo)

	assert.True(t, m.Visible())
	assert.Contains(t, m.View(), "Directory updated")
}

func TestHide(t *testing.T) {
	m := New().Show("Directory updated", StyleInfo).Hide()

	assert.False(t, m.Visible())
	assert.Empty(t, m.View())
}

func TestShow_ReplacesExisting(t *testing.T) {
	m := New().
		Show("First", StyleSuccess).
		Show("Second", StyleError)

	assert.True(t, m.Visible())
	assert.Contains(t, m.View(), "Second")
	assert.NotContains(t, m.View(), "First")
}

func TestView_EmptyWhenMessageEmpty(t *testing.T) {
	m := Model{visible: true, message: ""}

	assert.Empty(t, m.View())
}

func TestView_Styles(t *testing.T) {
	tests := []struct {
		name  string
		style Style
		emoji string
	}{
		{"success", StyleSuccess, "✅"},
		{"error", StyleError, "❌"},
		{"info", StyleInfo, "ℹ️"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			view := New().Show("message", tt.style).View()
			assert.Contains(t, view, tt.emoji)
			assert.Contains(t, view, "message")
			assert.Contains(t, view, "╭") // Rounded border corner
		})
	}
}

func TestOverlay_NotVisiblePassesBackgroundThrough(t *testing.T) {
	bg := "background"
	assert.Equal(t, bg, New().Overlay(bg, 20, 5))
}

func TestOverlay_PlacesToastNearBottom(t *testing.T) {
	bg := strings.TrimSuffix(strings.Repeat(strings.Repeat(".", 30)+"\n", 8), "\n")
	m := New().Show("Saved", StyleSuccess)

	result := m.Overlay(bg, 30, 8)

	assert.Contains(t, result, "Saved")
	lines := strings.Split(result, "\n")
	// Bottom line stays background; the toast sits above it
	assert.Equal(t, strings.Repeat(".", 30), lines[len(lines)-1])
}
