// Package help contains the help overlay component.
package help

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"github.com/aben18/enroll/internal/keys"
	"github.com/aben18/enroll/internal/ui/overlay"
	"github.com/aben18/enroll/internal/ui/styles"
)

const contentWidth = 56

// noMarginStyle removes glamour's document margins so the help text sits
// flush inside the overlay border.
const noMarginStyle = `{
	"document": {
		"margin": 0,
		"block_prefix": "",
		"block_suffix": ""
	}
}`

// Model holds the help overlay state.
type Model struct {
	visible  bool
	rendered string
	width    int
	height   int
}

// New creates the help overlay, rendering its markdown content once.
func New() Model {
	return Model{rendered: renderContent()}
}

// Toggle flips visibility.
func (m Model) Toggle() Model {
	m.visible = !m.visible
	return m
}

// Hide dismisses the overlay.
func (m Model) Hide() Model {
	m.visible = false
	return m
}

// Visible returns whether the overlay is showing.
func (m Model) Visible() bool {
	return m.visible
}

// SetSize updates the viewport dimensions for overlay positioning.
func (m Model) SetSize(width, height int) Model {
	m.width = width
	m.height = height
	return m
}

// View renders the bordered help box.
func (m Model) View() string {
	if !m.visible {
		return ""
	}

	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(styles.OverlayTitleColor).
		PaddingLeft(1)

	boxStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(styles.OverlayBorderColor).
		Padding(0, 1).
		Width(contentWidth + 4)

	return boxStyle.Render(titleStyle.Render("Help") + "\n\n" + m.rendered)
}

// Overlay renders the help box centered on a background view.
func (m Model) Overlay(bg string) string {
	if !m.visible {
		return bg
	}
	return overlay.Place(overlay.Config{
		Width:    m.width,
		Height:   m.height,
		Position: overlay.Center,
	}, m.View(), bg)
}

// renderContent builds the markdown help document from the active keymap and
// renders it with glamour. Falls back to the raw markdown if rendering fails.
func renderContent() string {
	km := keys.Default

	var b strings.Builder
	b.WriteString("Fill in your details, then pick your organization.\n")
	b.WriteString("Entering the organization field checks whether your\n")
	b.WriteString("email already belongs to one; typing searches by name.\n\n")

	bindings := []struct {
		key  string
		desc string
	}{
		{km.NextField.Help().Key, km.NextField.Help().Desc},
		{km.PrevField.Help().Key, km.PrevField.Help().Desc},
		{km.Up.Help().Key + "/" + km.Down.Help().Key, "navigate candidates"},
		{km.Select.Help().Key, km.Select.Help().Desc},
		{km.Create.Help().Key, km.Create.Help().Desc},
		{km.Submit.Help().Key, km.Submit.Help().Desc},
		{km.Escape.Help().Key, km.Escape.Help().Desc},
		{km.Help.Help().Key, "toggle this help"},
		{km.Quit.Help().Key, km.Quit.Help().Desc},
	}
	b.WriteString("| Key | Action |\n|-----|--------|\n")
	for _, bind := range bindings {
		fmt.Fprintf(&b, "| `%s` | %s |\n", bind.key, bind.desc)
	}

	markdown := b.String()

	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithStylesFromJSONBytes([]byte(noMarginStyle)),
		glamour.WithWordWrap(contentWidth),
	)
	if err != nil {
		return markdown
	}
	out, err := r.Render(markdown)
	if err != nil {
		return markdown
	}
	return strings.TrimRight(out, "\n")
}
