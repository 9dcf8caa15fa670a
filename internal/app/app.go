// Package app contains the root application model.
package app

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	zone "github.com/lrstanley/bubblezone"

	"github.com/aben18/enroll/internal/config"
	"github.com/aben18/enroll/internal/directory"
	"github.com/aben18/enroll/internal/keys"
	"github.com/aben18/enroll/internal/log"
	"github.com/aben18/enroll/internal/pubsub"
	"github.com/aben18/enroll/internal/registration"
	"github.com/aben18/enroll/internal/ui/form"
	"github.com/aben18/enroll/internal/ui/help"
	"github.com/aben18/enroll/internal/ui/styles"
	"github.com/aben18/enroll/internal/ui/toaster"
	"github.com/aben18/enroll/internal/watcher"
)

const toastDuration = 3 * time.Second

// screen identifies which top-level view is active.
type screen int

const (
	screenForm screen = iota
	screenConfirmation
)

// Model is the root application state. It owns the registration form, the
// post-submit confirmation view, and the overlays shared across both.
type Model struct {
	cfg    config.Config
	form   form.Model
	screen screen

	width  int
	height int

	// Centralized toaster - owned by app, not individual components
	toaster toaster.Model
	help    help.Model
	keymap  keys.KeyMap

	// Directory cache flushed when the database changes on disk
	cache *directory.CachedService

	// File watcher for auto-refresh (pubsub-based)
	watcherHandle   *watcher.Watcher
	watcherCancel   context.CancelFunc
	watcherListener *pubsub.ContinuousListener[string]
}

// New creates the root application model. cache may be nil when directory
// caching is disabled; it is flushed whenever the watcher reports a change.
func New(cfg config.Config, service directory.Service, cache *directory.CachedService, navigator registration.Navigator) Model {
	var (
		watcherHandle   *watcher.Watcher
		watcherCancel   context.CancelFunc
		watcherListener *pubsub.ContinuousListener[string]
	)

	if cfg.AutoRefresh && cfg.DBPath != "" {
		broker := pubsub.NewBroker[string]()
		w, err := watcher.New(watcher.DefaultConfig(cfg.DBPath), broker)
		if err == nil {
			if err := w.Start(); err == nil {
				var ctx context.Context
				watcherHandle = w
				ctx, watcherCancel = context.WithCancel(context.Background())
				watcherListener = pubsub.NewContinuousListener(ctx, broker)
			} else {
				_ = w.Stop()
			}
		}
		// The form works fine without auto-refresh, so watcher init
		// errors are not fatal.
		if watcherHandle == nil {
			log.Warn(log.CatWatcher, "Auto-refresh unavailable", "path", cfg.DBPath)
		}
	}

	return Model{
		cfg:             cfg,
		form:            form.New(cfg, service, navigator),
		toaster:         toaster.New(),
		help:            help.New(),
		keymap:          keys.Default,
		cache:           cache,
		watcherHandle:   watcherHandle,
		watcherCancel:   watcherCancel,
		watcherListener: watcherListener,
	}
}

// Init implements tea.Model. It starts the form and, when auto-refresh is
// enabled, the watcher listener.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{
		m.form.Init(),
	}

	if m.watcherListener != nil {
		cmds = append(cmds, m.watcherListener.Listen())
	}

	return tea.Batch(cmds...)
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

		m.form = m.form.SetSize(msg.Width, msg.Height)
		m.help = m.help.SetSize(msg.Width, msg.Height)

		return m, nil

	case tea.KeyMsg:
		if key.Matches(msg, m.keymap.Quit) {
			return m, tea.Quit
		}

		// The help overlay takes precedence while visible.
		if m.help.Visible() {
			m.help = m.help.Hide()
			return m, nil
		}

		if key.Matches(msg, m.keymap.Help) && !m.form.ModalOpen() {
			m.help = m.help.Toggle()
			return m, nil
		}

		if m.screen == screenConfirmation {
			if key.Matches(msg, m.keymap.Select) || key.Matches(msg, m.keymap.Escape) {
				return m, tea.Quit
			}
			return m, nil
		}

	case form.SubmittedMsg:
		log.Info(log.CatForm, "Registration submitted, showing confirmation")
		m.screen = screenConfirmation
		return m, nil

	case form.LoginMsg:
		// The navigator has already recorded the login destination.
		return m, tea.Quit

	case form.ToastMsg:
		style := toaster.StyleSuccess
		if msg.IsError {
			style = toaster.StyleError
		}
		m.toaster = m.toaster.Show(msg.Message, style)
		return m, toaster.ScheduleDismiss(toastDuration)

	case toaster.DismissMsg:
		m.toaster = m.toaster.Hide()
		return m, nil

	case pubsub.Event[string]:
		return m.handleWatcherEvent(msg)
	}

	// The confirmation screen ignores everything but the keys above.
	if m.screen == screenConfirmation {
		return m, nil
	}

	var cmd tea.Cmd
	m.form, cmd = m.form.Update(msg)
	return m, cmd
}

// handleWatcherEvent flushes the lookup cache and re-runs the active
// organization search after the directory database changed on disk.
func (m Model) handleWatcherEvent(msg pubsub.Event[string]) (tea.Model, tea.Cmd) {
	var listenCmd tea.Cmd
	if m.watcherListener != nil {
		listenCmd = m.watcherListener.Listen()
	}

	if msg.Type != pubsub.ChangedEvent {
		return m, listenCmd
	}

	if m.cache != nil {
		if err := m.cache.Invalidate(context.Background()); err != nil {
			log.Warn(log.CatCache, "Failed to flush directory cache on change", "error", err)
		}
	}

	var refreshCmd tea.Cmd
	if m.screen == screenForm {
		m.form, refreshCmd = m.form.Refresh()
	}

	log.Debug(log.CatForm, "Directory changed, refreshing", "path", msg.Payload)
	m.toaster = m.toaster.Show("Directory updated", toaster.StyleInfo)

	return m, tea.Batch(refreshCmd, toaster.ScheduleDismiss(toastDuration), listenCmd)
}

// View implements tea.Model.
func (m Model) View() string {
	var view string
	switch m.screen {
	case screenConfirmation:
		view = m.confirmationView()
	default:
		view = m.form.View()
	}

	if m.help.Visible() {
		view = m.help.Overlay(view)
	}

	if m.toaster.Visible() {
		view = m.toaster.Overlay(view, m.width, m.height)
	}

	return zone.Scan(view)
}

// confirmationView renders the post-submit screen.
func (m Model) confirmationView() string {
	title := lipgloss.NewStyle().
		Bold(true).
		Foreground(styles.StatusSuccessColor).
		Render("Almost there!")

	body := lipgloss.NewStyle().
		Foreground(styles.TextPrimaryColor).
		Width(48).
		Render("We sent you an email with a link to set your password. " +
			"Follow it to finish creating your account.")

	hint := lipgloss.NewStyle().
		Foreground(styles.TextMutedColor).
		Render("press enter to exit")

	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(styles.StatusSuccessColor).
		Padding(1, 2).
		Render(lipgloss.JoinVertical(lipgloss.Left, title, "", body, "", hint))

	if m.width > 0 && m.height > 0 {
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, box)
	}
	return box
}

// Close releases resources held by the application.
func (m *Model) Close() error {
	if m.watcherCancel != nil {
		m.watcherCancel()
	}

	if m.watcherHandle != nil {
		if err := m.watcherHandle.Stop(); err != nil {
			return err
		}
	}

	return nil
}
