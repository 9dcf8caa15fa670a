// Package form implements the self-registration form: the registrant fields,
// the organization search with its candidate dropdown, the create-organization
// modal, and the submission flow.
package form

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	zone "github.com/lrstanley/bubblezone"

	"github.com/aben18/enroll/internal/config"
	"github.com/aben18/enroll/internal/directory"
	"github.com/aben18/enroll/internal/keys"
	"github.com/aben18/enroll/internal/log"
	"github.com/aben18/enroll/internal/registration"
	"github.com/aben18/enroll/internal/ui/modal"
	"github.com/aben18/enroll/internal/ui/styles"
)

const (
	formWidth     = 60
	dropdownWidth = 44
)

// emailPattern is intentionally loose: something@something.something.
var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// focusTarget identifies the element holding keyboard focus.
type focusTarget int

const (
	focusFirstName focusTarget = iota
	focusLastName
	focusEmail
	focusJobTitle
	focusOrganization
	focusCreate
	focusSubmit
	focusLogin
	focusCount
)

// SubmittedMsg bubbles up after a successful submission and redirect, so the
// app can switch to the confirmation view.
type SubmittedMsg struct{}

// LoginMsg bubbles up when the visitor chooses to log in instead.
type LoginMsg struct{}

// ToastMsg asks the app to show a transient notification.
type ToastMsg struct {
	Message string
	IsError bool
}

// Internal async result messages. Every one carries the request version it
// answers; the resolver discards versions that have been superseded.
type lookupResultMsg struct {
	version int
	org     *directory.Organization
	err     error
}

type debounceSearchMsg struct {
	version int
}

type searchResultMsg struct {
	version int
	orgs    []directory.Organization
	err     error
}

type createResultMsg struct {
	id  string
	err error
}

type labelResultMsg struct {
	version int
	org     *directory.Organization
}

type submitResultMsg struct {
	err error
}

// Model is the registration form component.
type Model struct {
	fields    *registration.Fields
	resolver  *registration.Resolver
	submitter *registration.Submitter
	service   directory.Service
	navigator registration.Navigator

	cfg    config.Config
	keymap keys.KeyMap

	inputs   [4]textinput.Model // first name, last name, email, job title
	orgInput textinput.Model
	spin     spinner.Model

	focused     focusTarget
	candidateIx int

	createModal *modal.Model

	width  int
	height int
}

// New creates the registration form.
func New(cfg config.Config, service directory.Service, navigator registration.Navigator) Model {
	fields := registration.NewFields()
	fields.RegisterValidator(registration.FieldLastName, func(v string) bool {
		return strings.TrimSpace(v) != ""
	})
	fields.RegisterValidator(registration.FieldEmail, func(v string) bool {
		return emailPattern.MatchString(strings.TrimSpace(v))
	})

	labels := cfg.Labels
	placeholders := [4]string{labels.FirstName, labels.LastName, labels.Email, labels.JobTitle}
	var inputs [4]textinput.Model
	for i := range inputs {
		in := textinput.New()
		in.Placeholder = placeholders[i]
		in.CharLimit = 80
		in.Width = formWidth - 6
		in.Prompt = ""
		inputs[i] = in
	}
	inputs[0].Focus()

	orgInput := textinput.New()
	orgInput.Placeholder = labels.Organization
	orgInput.CharLimit = 80
	orgInput.Width = formWidth - 6
	orgInput.Prompt = ""

	sp := spinner.New(
		spinner.WithSpinner(spinner.Dot),
		spinner.WithStyle(lipgloss.NewStyle().Foreground(styles.SpinnerColor)),
	)

	return Model{
		fields:    fields,
		resolver:  registration.NewResolver(cfg.Search.MinQueryLength),
		submitter: registration.NewSubmitter(),
		service:   service,
		navigator: navigator,
		cfg:       cfg,
		keymap:    keys.Default,
		inputs:    inputs,
		orgInput:  orgInput,
		spin:      sp,
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

// SetSize updates the viewport dimensions.
func (m Model) SetSize(width, height int) Model {
	m.width = width
	m.height = height
	if m.createModal != nil {
		cm := m.createModal.SetSize(width, height)
		m.createModal = &cm
	}
	return m
}

// OrganizationID exposes the resolved organization for tests and the app.
func (m Model) OrganizationID() string {
	return m.resolver.OrganizationID()
}

// Phase exposes the submission phase.
func (m Model) Phase() registration.Phase {
	return m.submitter.Phase()
}

// ModalOpen reports whether the create-organization modal is showing.
func (m Model) ModalOpen() bool {
	return m.createModal != nil
}

// Refresh re-runs the active organization search against the directory,
// bypassing the debounce. Called when the directory database changes on disk.
func (m Model) Refresh() (Model, tea.Cmd) {
	if m.resolver.OrganizationID() != "" {
		return m, nil
	}
	search, ok := m.resolver.SetQuery(m.orgInput.Value())
	if !ok {
		return m, nil
	}
	return m, m.searchCmd(search.Query, search.Version)
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	// Async results are applied regardless of what is focused or overlaid.
	switch msg := msg.(type) {
	case lookupResultMsg:
		return m.handleLookupResult(msg)
	case debounceSearchMsg:
		if query, ok := m.resolver.TakeSearch(msg.version); ok {
			return m, m.searchCmd(query, msg.version)
		}
		return m, nil
	case searchResultMsg:
		return m.handleSearchResult(msg)
	case createResultMsg:
		return m.handleCreateResult(msg)
	case labelResultMsg:
		if m.resolver.ApplyCreatedLabel(msg.version, msg.org) {
			m.orgInput.SetValue(m.resolver.OrganizationLabel())
		}
		return m, nil
	case submitResultMsg:
		return m.handleSubmitResult(msg)
	case spinner.TickMsg:
		if m.submitter.Phase() == registration.PhaseSubmitting {
			var cmd tea.Cmd
			m.spin, cmd = m.spin.Update(msg)
			return m, cmd
		}
		return m, nil

	case modal.SaveMsg:
		m.createModal = nil
		return m, m.createCmd(msg.Name)
	case modal.CancelMsg:
		// Dismissing the modal leaves the resolver untouched.
		m.createModal = nil
		return m, nil
	}

	// The modal captures all input while open.
	if m.createModal != nil {
		cm, cmd := m.createModal.Update(msg)
		m.createModal = &cm
		return m, cmd
	}

	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)
	case tea.MouseMsg:
		return m.handleMouse(msg)
	}

	return m.updateFocusedInput(msg)
}

func (m Model) handleKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keymap.NextField):
		return m.moveFocus(1)

	case key.Matches(msg, m.keymap.PrevField):
		return m.moveFocus(-1)

	case key.Matches(msg, m.keymap.Escape):
		m.resolver.HideDropdown()
		return m, nil

	case key.Matches(msg, m.keymap.Up):
		if m.resolver.DropdownVisible() && m.candidateIx > 0 {
			m.candidateIx--
		}
		return m, nil

	case key.Matches(msg, m.keymap.Down):
		if m.resolver.DropdownVisible() && m.candidateIx < len(m.resolver.Candidates())-1 {
			m.candidateIx++
		}
		return m, nil

	case key.Matches(msg, m.keymap.Create):
		return m.openCreateModal()

	case key.Matches(msg, m.keymap.Submit):
		return m.beginSubmit()

	case key.Matches(msg, m.keymap.Select):
		return m.handleEnter()
	}

	return m.updateFocusedInput(msg)
}

func (m Model) handleEnter() (Model, tea.Cmd) {
	if m.resolver.DropdownVisible() {
		candidates := m.resolver.Candidates()
		if m.candidateIx < len(candidates) {
			m.selectCandidate(candidates[m.candidateIx])
		}
		return m, nil
	}

	switch m.focused {
	case focusCreate:
		return m.openCreateModal()
	case focusSubmit:
		return m.beginSubmit()
	case focusLogin:
		m.navigator.Navigate(m.cfg.URLs.Login)
		return m, func() tea.Msg { return LoginMsg{} }
	default:
		return m.moveFocus(1)
	}
}

func (m Model) handleMouse(msg tea.MouseMsg) (Model, tea.Cmd) {
	if msg.Action != tea.MouseActionRelease || msg.Button != tea.MouseButtonLeft {
		return m, nil
	}

	for i, org := range m.resolver.Candidates() {
		if zone.Get(fmt.Sprintf("form_candidate_%d", i)).InBounds(msg) {
			m.selectCandidate(org)
			return m, nil
		}
	}

	switch {
	case zone.Get("form_create").InBounds(msg):
		return m.openCreateModal()
	case zone.Get("form_submit").InBounds(msg):
		return m.beginSubmit()
	case zone.Get("form_login").InBounds(msg):
		m.navigator.Navigate(m.cfg.URLs.Login)
		return m, func() tea.Msg { return LoginMsg{} }
	}

	return m, nil
}

// moveFocus advances focus through the tab order, issuing the one-shot email
// lookup when focus lands on the organization field.
func (m Model) moveFocus(delta int) (Model, tea.Cmd) {
	m.resolver.HideDropdown()

	next := (int(m.focused) + delta + int(focusCount)) % int(focusCount)
	m.focused = focusTarget(next)

	for i := range m.inputs {
		m.inputs[i].Blur()
	}
	m.orgInput.Blur()

	var cmds []tea.Cmd
	switch m.focused {
	case focusFirstName, focusLastName, focusEmail, focusJobTitle:
		cmds = append(cmds, m.inputs[m.focused].Focus())
	case focusOrganization:
		cmds = append(cmds, m.orgInput.Focus())
		if lookup, ok := m.resolver.FocusOrganization(); ok {
			cmds = append(cmds, m.lookupCmd(lookup.Email, lookup.Version))
		}
	}

	return m, tea.Batch(cmds...)
}

// updateFocusedInput forwards msg to whichever text input has focus and syncs
// the field store and resolver with the new value.
func (m Model) updateFocusedInput(msg tea.Msg) (Model, tea.Cmd) {
	switch m.focused {
	case focusFirstName, focusLastName, focusEmail, focusJobTitle:
		idx := int(m.focused)
		old := m.inputs[idx].Value()
		var cmd tea.Cmd
		m.inputs[idx], cmd = m.inputs[idx].Update(msg)
		value := m.inputs[idx].Value()
		if value == old {
			return m, cmd
		}

		fieldID := [...]registration.FieldID{
			registration.FieldFirstName,
			registration.FieldLastName,
			registration.FieldEmail,
			registration.FieldJobTitle,
		}[idx]
		if emailChanged := m.fields.Set(fieldID, value); emailChanged {
			// A changed email invalidates any prior match and in-flight work.
			m.resolver.SetEmail(value)
			m.orgInput.SetValue("")
			m.candidateIx = 0
		}
		return m, cmd

	case focusOrganization:
		old := m.orgInput.Value()
		var cmd tea.Cmd
		m.orgInput, cmd = m.orgInput.Update(msg)
		value := m.orgInput.Value()
		if value == old {
			return m, cmd
		}

		m.candidateIx = 0
		if search, ok := m.resolver.SetQuery(value); ok {
			debounce := tea.Tick(m.cfg.Search.Debounce(), func(time.Time) tea.Msg {
				return debounceSearchMsg{version: search.Version}
			})
			return m, tea.Batch(cmd, debounce)
		}
		return m, cmd
	}

	return m, nil
}

func (m *Model) selectCandidate(org directory.Organization) {
	m.resolver.Select(org)
	m.orgInput.SetValue(org.Name)
	m.candidateIx = 0
	log.Debug(log.CatForm, "Organization selected", "id", org.ID, "name", org.Name)
}

func (m Model) openCreateModal() (Model, tea.Cmd) {
	if registration.CreateDisabled(m.fields, m.resolver) {
		return m, nil
	}
	cm := modal.New(m.cfg.Labels, m.resolver.Query()).SetSize(m.width, m.height)
	m.createModal = &cm
	return m, nil
}

func (m Model) beginSubmit() (Model, tea.Cmd) {
	if registration.SubmitDisabled(m.fields, m.resolver) {
		return m, nil
	}
	if !m.submitter.Begin(m.fields.Validate()) {
		return m, nil
	}

	reg := m.fields.Registrant()
	payload := directory.Registration{
		FirstName:      reg.FirstName,
		LastName:       reg.LastName,
		Email:          reg.Email,
		JobTitle:       reg.JobTitle,
		OrganizationID: m.resolver.OrganizationID(),
	}
	log.Info(log.CatForm, "Submitting registration", "organization", payload.OrganizationID)
	return m, tea.Batch(m.submitCmd(payload), m.spin.Tick)
}

func (m Model) handleLookupResult(msg lookupResultMsg) (Model, tea.Cmd) {
	if msg.err != nil {
		log.ErrorErr(log.CatResolver, "Email lookup failed", msg.err)
	}
	if m.resolver.ApplyLookup(msg.version, msg.org, msg.err) && m.resolver.OrganizationID() != "" {
		m.orgInput.SetValue(m.resolver.OrganizationLabel())
		log.Debug(log.CatResolver, "Email matched organization", "id", m.resolver.OrganizationID())
	}
	return m, nil
}

func (m Model) handleSearchResult(msg searchResultMsg) (Model, tea.Cmd) {
	if msg.err != nil {
		log.ErrorErr(log.CatResolver, "Organization search failed", msg.err)
	}
	if m.resolver.ApplySearchResults(msg.version, msg.orgs, msg.err) {
		m.candidateIx = 0
	}
	return m, nil
}

func (m Model) handleCreateResult(msg createResultMsg) (Model, tea.Cmd) {
	if msg.err != nil {
		log.ErrorErr(log.CatResolver, "Organization creation failed", msg.err)
		return m, func() tea.Msg {
			return ToastMsg{Message: registration.FallbackErrorMessage, IsError: true}
		}
	}

	fetch := m.resolver.ApplyCreated(msg.id)
	m.orgInput.SetValue(m.resolver.Query())
	return m, m.labelCmd(fetch.ID, fetch.Version)
}

func (m Model) handleSubmitResult(msg submitResultMsg) (Model, tea.Cmd) {
	if m.submitter.Apply(msg.err) {
		// Redirect fires exactly once, on the transition into succeeded.
		m.navigator.Navigate(m.cfg.URLs.Confirmation)
		log.Info(log.CatForm, "Registration succeeded")
		return m, func() tea.Msg { return SubmittedMsg{} }
	}
	if msg.err != nil {
		log.ErrorErr(log.CatForm, "Registration failed", msg.err)
	}
	return m, nil
}

// Async commands

func (m Model) lookupCmd(email string, version int) tea.Cmd {
	service := m.service
	return func() tea.Msg {
		org, err := service.LookupByEmail(context.Background(), email)
		return lookupResultMsg{version: version, org: org, err: err}
	}
}

func (m Model) searchCmd(query string, version int) tea.Cmd {
	service := m.service
	limit := m.cfg.Search.Limit
	return func() tea.Msg {
		orgs, err := service.SearchByName(context.Background(), query, limit)
		return searchResultMsg{version: version, orgs: orgs, err: err}
	}
}

func (m Model) createCmd(name string) tea.Cmd {
	service := m.service
	return func() tea.Msg {
		id, err := service.CreateOrganization(context.Background(), name)
		return createResultMsg{id: id, err: err}
	}
}

func (m Model) labelCmd(id string, version int) tea.Cmd {
	service := m.service
	return func() tea.Msg {
		org, err := service.LookupByID(context.Background(), id)
		if err != nil {
			log.ErrorErr(log.CatResolver, "Label fetch failed", err, "id", id)
			org = nil
		}
		return labelResultMsg{version: version, org: org}
	}
}

func (m Model) submitCmd(reg directory.Registration) tea.Cmd {
	service := m.service
	return func() tea.Msg {
		return submitResultMsg{err: service.SubmitRegistration(context.Background(), reg)}
	}
}
