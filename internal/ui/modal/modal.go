// Package modal provides the create-organization modal.
package modal

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/aben18/enroll/internal/config"
	"github.com/aben18/enroll/internal/ui/overlay"
	"github.com/aben18/enroll/internal/ui/styles"
)

// Field identifies which element is focused.
type Field int

const (
	FieldName Field = iota
	FieldSave
)

// SaveMsg is sent when the user confirms a non-empty organization name.
type SaveMsg struct {
	Name string
}

// CancelMsg is sent when the user dismisses the modal without saving.
type CancelMsg struct{}

// Model holds the modal state.
type Model struct {
	nameInput textinput.Model
	focused   Field
	width     int
	height    int
	saveError string
	labels    config.LabelsConfig
}

// New creates a create-organization modal. The name input is prefilled with
// the search text the visitor had typed.
func New(labels config.LabelsConfig, prefill string) Model {
	input := textinput.New()
	input.Placeholder = labels.ModalName
	input.CharLimit = 80
	input.Width = 40
	input.Prompt = ""
	input.SetValue(prefill)
	input.Focus()

	return Model{
		nameInput: input,
		focused:   FieldName,
		labels:    labels,
	}
}

// SetSize sets the viewport dimensions for overlay rendering.
func (m Model) SetSize(width, height int) Model {
	m.width = width
	m.height = height
	return m
}

// Focused returns the currently focused field.
func (m Model) Focused() Field {
	return m.focused
}

// Name returns the current name input value.
func (m Model) Name() string {
	return m.nameInput.Value()
}

// HasError returns whether there is a validation error.
func (m Model) HasError() bool {
	return m.saveError != ""
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "esc":
			return m, func() tea.Msg { return CancelMsg{} }

		case "tab", "shift+tab":
			m = m.cycleField()
			return m, nil

		case "enter":
			if m.focused == FieldSave {
				return m.save()
			}
			m = m.cycleField()
			return m, nil
		}
	}

	if m.focused == FieldName {
		var cmd tea.Cmd
		m.nameInput, cmd = m.nameInput.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m Model) cycleField() Model {
	if m.focused == FieldName {
		m.focused = FieldSave
		m.nameInput.Blur()
	} else {
		m.focused = FieldName
		m.nameInput.Focus()
	}
	return m
}

// save validates input and returns a SaveMsg command.
func (m Model) save() (Model, tea.Cmd) {
	m.saveError = ""

	name := strings.TrimSpace(m.nameInput.Value())
	if name == "" {
		m.saveError = m.labels.ModalName + " is required"
		return m, nil
	}

	return m, func() tea.Msg {
		return SaveMsg{Name: name}
	}
}

// View renders the modal.
func (m Model) View() string {
	width := 50
	sectionWidth := width - 2

	nameSection := styles.RenderFormSection(
		[]string{m.nameInput.View()},
		m.labels.ModalName, "required",
		sectionWidth, m.focused == FieldName, styles.BorderHighlightColor,
	)

	errorLine := ""
	if m.saveError != "" {
		errorLine = styles.ErrorStyle.Render(m.saveError)
	}

	saveStyle := styles.PrimaryButtonStyle
	if m.focused == FieldSave {
		saveStyle = styles.PrimaryButtonFocusedStyle
	}
	saveButton := saveStyle.Render(" Save ")

	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(styles.OverlayTitleColor)
	borderStyle := lipgloss.NewStyle().Foreground(styles.BorderDefaultColor)
	titleBorder := borderStyle.Render(strings.Repeat("─", width))

	contentPadding := lipgloss.NewStyle().PaddingLeft(1)

	content := contentPadding.Render(titleStyle.Render(m.labels.ModalTitle)) + "\n" +
		titleBorder + "\n\n" +
		contentPadding.Render(nameSection) + "\n"

	if errorLine != "" {
		content += contentPadding.Render(" "+errorLine) + "\n\n"
	} else {
		content += "\n"
	}

	content += contentPadding.Render(" "+saveButton) + "\n"

	boxStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(styles.OverlayBorderColor).
		Width(width)

	return boxStyle.Render(content)
}

// Overlay renders the modal on top of a background view.
func (m Model) Overlay(background string) string {
	modalView := m.View()

	if background == "" {
		return lipgloss.Place(
			m.width, m.height,
			lipgloss.Center, lipgloss.Center,
			modalView,
		)
	}

	return overlay.Place(overlay.Config{
		Width:    m.width,
		Height:   m.height,
		Position: overlay.Center,
	}, modalView, background)
}
