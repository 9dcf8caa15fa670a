package form

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	zone "github.com/lrstanley/bubblezone"
	"github.com/mattn/go-runewidth"
	"github.com/muesli/reflow/wordwrap"

	"github.com/aben18/enroll/internal/registration"
	"github.com/aben18/enroll/internal/ui/overlay"
	"github.com/aben18/enroll/internal/ui/styles"
)

// View renders the form. The candidate dropdown hangs off the organization
// field as an anchored overlay; the create-organization modal covers the
// whole viewport when open.
func (m Model) View() string {
	labels := m.cfg.Labels
	sectionWidth := formWidth - 2

	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(styles.OverlayTitleColor).
		PaddingLeft(1)

	var b strings.Builder
	b.WriteString(titleStyle.Render(labels.Title))
	b.WriteString("\n\n")

	fieldTitles := [4]string{labels.FirstName, labels.LastName, labels.Email, labels.JobTitle}
	fieldHints := [4]string{"", "required", "required", ""}
	for i := range m.inputs {
		section := styles.RenderFormSection(
			[]string{m.inputs[i].View()},
			fieldTitles[i], fieldHints[i],
			sectionWidth, m.focused == focusTarget(i), styles.BorderHighlightColor,
		)
		b.WriteString(section)
		b.WriteString("\n")
	}

	// Dropdown anchor: the content row inside the organization section sits
	// one line below its top border.
	orgHint := ""
	if m.resolver.State() == registration.StateMatched {
		orgHint = "matched"
	}
	orgSection := styles.RenderFormSection(
		[]string{m.orgInput.View()},
		labels.Organization, orgHint,
		sectionWidth, m.focused == focusOrganization, styles.BorderHighlightColor,
	)
	anchorY := lipgloss.Height(b.String()) + lipgloss.Height(orgSection)
	b.WriteString(orgSection)
	b.WriteString("\n\n")

	b.WriteString(m.renderButtons())
	b.WriteString("\n")

	if msg := m.submitter.ErrorMessage(); msg != "" {
		wrapped := wordwrap.String(msg, formWidth-4)
		b.WriteString("\n")
		b.WriteString(styles.ErrorStyle.Render(wrapped))
		b.WriteString("\n")
	}

	view := b.String()

	if m.resolver.DropdownVisible() {
		view = overlay.Place(overlay.Config{
			Width:    max(m.width, formWidth),
			Height:   lipgloss.Height(view),
			Position: overlay.Anchored,
			X:        2,
			Y:        anchorY,
		}, m.renderDropdown(), view)
	}

	if m.createModal != nil {
		view = m.createModal.Overlay(view)
	}

	return view
}

func (m Model) renderButtons() string {
	labels := m.cfg.Labels

	createStyle := styles.DisabledButtonStyle
	if !registration.CreateDisabled(m.fields, m.resolver) {
		createStyle = styles.PrimaryButtonStyle
		if m.focused == focusCreate {
			createStyle = styles.PrimaryButtonFocusedStyle
		}
	}
	createButton := zone.Mark("form_create", createStyle.Render(labels.CreateButton))

	submitStyle := styles.DisabledButtonStyle
	if !registration.SubmitDisabled(m.fields, m.resolver) {
		submitStyle = styles.PrimaryButtonStyle
		if m.focused == focusSubmit {
			submitStyle = styles.PrimaryButtonFocusedStyle
		}
	}
	submitLabel := labels.SubmitButton
	if m.submitter.Phase() == registration.PhaseSubmitting {
		submitLabel = m.spin.View() + " " + submitLabel
	}
	submitButton := zone.Mark("form_submit", submitStyle.Render(submitLabel))

	loginStyle := lipgloss.NewStyle().Foreground(styles.TextMutedColor).Underline(true)
	if m.focused == focusLogin {
		loginStyle = loginStyle.Foreground(styles.BorderHighlightColor)
	}
	loginLink := zone.Mark("form_login", loginStyle.Render(labels.CancelButton))

	row := lipgloss.JoinHorizontal(lipgloss.Center, createButton, "  ", submitButton, "  ", loginLink)
	return lipgloss.NewStyle().PaddingLeft(1).Render(row)
}

// renderDropdown renders the candidate list shown under the organization
// field. Long names are truncated to the dropdown width.
func (m Model) renderDropdown() string {
	candidates := m.resolver.Candidates()

	borderStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(styles.BorderHighlightColor)

	rows := make([]string, 0, len(candidates))
	for i, org := range candidates {
		name := runewidth.Truncate(org.Name, dropdownWidth-4, "…")
		var row string
		if i == m.candidateIx {
			row = styles.SelectionIndicatorStyle.Render("> ") + name
		} else {
			row = "  " + name
		}
		row += strings.Repeat(" ", max(dropdownWidth-2-lipgloss.Width(row), 0))
		rows = append(rows, zone.Mark(fmt.Sprintf("form_candidate_%d", i), row))
	}

	return borderStyle.Render(strings.Join(rows, "\n"))
}
