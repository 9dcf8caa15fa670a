package app

import (
	"bytes"
	"context"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/exp/teatest"
	"github.com/charmbracelet/lipgloss"
	zone "github.com/lrstanley/bubblezone"
	"github.com/muesli/termenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aben18/enroll/internal/cachemanager"
	"github.com/aben18/enroll/internal/config"
	"github.com/aben18/enroll/internal/directory"
	"github.com/aben18/enroll/internal/pubsub"
	"github.com/aben18/enroll/internal/registration"
	"github.com/aben18/enroll/internal/ui/form"
	"github.com/aben18/enroll/internal/ui/toaster"
)

func TestMain(m *testing.M) {
	zone.NewGlobal()
	lipgloss.SetColorProfile(termenv.Ascii)
	m.Run()
}

// fakeService is a minimal directory for app-level tests.
type fakeService struct {
	lookupCalls int
	searchCalls int
}

func (f *fakeService) LookupByEmail(ctx context.Context, email string) (*directory.Organization, error) {
	f.lookupCalls++
	return nil, nil
}

func (f *fakeService) SearchByName(ctx context.Context, name string, limit int) ([]directory.Organization, error) {
	f.searchCalls++
	return nil, nil
}

func (f *fakeService) LookupByID(ctx context.Context, id string) (*directory.Organization, error) {
	return nil, nil
}

func (f *fakeService) CreateOrganization(ctx context.Context, name string) (string, error) {
	return "org-1", nil
}

func (f *fakeService) SubmitRegistration(ctx context.Context, reg directory.Registration) error {
	return nil
}

// createTestModel creates a minimal Model for testing. Auto-refresh stays
// off so no watcher goroutine is started.
func createTestModel() (Model, *fakeService) {
	cfg := config.Defaults()
	cfg.AutoRefresh = false

	svc := &fakeService{}
	m := New(cfg, svc, nil, registration.NavigatorFunc(func(string) {}))
	m.width = 100
	m.height = 40
	return m, svc
}

func TestApp_DefaultScreen(t *testing.T) {
	m, _ := createTestModel()
	assert.Equal(t, screenForm, m.screen, "expected default screen to be the form")
}

func TestApp_WindowSizeMsg(t *testing.T) {
	m, _ := createTestModel()

	newModel, _ := m.Update(tea.WindowSizeMsg{Width: 120, Height: 50})
	m = newModel.(Model)

	assert.Equal(t, 120, m.width, "expected width to be updated")
	assert.Equal(t, 50, m.height, "expected height to be updated")
}

func TestApp_CtrlCQuits(t *testing.T) {
	m, _ := createTestModel()

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})

	require.NotNil(t, cmd, "expected quit command")
	assert.Equal(t, tea.QuitMsg{}, cmd())
}

func TestApp_ViewRendersForm(t *testing.T) {
	m, _ := createTestModel()

	view := m.View()
	assert.Contains(t, view, "Create an account", "form view should render the title")
}

func TestApp_HelpToggle(t *testing.T) {
	m, _ := createTestModel()

	newModel, _ := m.Update(tea.KeyMsg{Type: tea.KeyCtrlH})
	m = newModel.(Model)
	assert.True(t, m.help.Visible(), "ctrl+h should open the help overlay")

	// Any key dismisses it
	newModel, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'x'}})
	m = newModel.(Model)
	assert.False(t, m.help.Visible(), "any key should dismiss the help overlay")
}

func TestApp_ToastShowAndDismiss(t *testing.T) {
	m, _ := createTestModel()

	newModel, cmd := m.Update(form.ToastMsg{Message: "Something went wrong", IsError: true})
	m = newModel.(Model)

	assert.True(t, m.toaster.Visible(), "toast should be visible")
	assert.Contains(t, m.View(), "Something went wrong")
	require.NotNil(t, cmd, "expected a scheduled dismiss")

	newModel, _ = m.Update(toaster.DismissMsg{})
	m = newModel.(Model)
	assert.False(t, m.toaster.Visible(), "toast should be hidden after dismiss")
}

func TestApp_SubmittedShowsConfirmation(t *testing.T) {
	m, _ := createTestModel()

	newModel, _ := m.Update(form.SubmittedMsg{})
	m = newModel.(Model)

	assert.Equal(t, screenConfirmation, m.screen, "should switch to the confirmation screen")
	assert.Contains(t, m.View(), "Almost there!", "confirmation view should render")

	// Form input is ignored on the confirmation screen
	newModel, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'a'}})
	m = newModel.(Model)
	assert.Nil(t, cmd)
	assert.Equal(t, screenConfirmation, m.screen)

	// Enter exits
	_, cmd = m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd, "enter should quit from the confirmation screen")
	assert.Equal(t, tea.QuitMsg{}, cmd())
}

func TestApp_LoginQuits(t *testing.T) {
	m, _ := createTestModel()

	_, cmd := m.Update(form.LoginMsg{})

	require.NotNil(t, cmd, "login should quit")
	assert.Equal(t, tea.QuitMsg{}, cmd())
}

func TestApp_WatcherEventFlushesCacheAndToasts(t *testing.T) {
	m, _ := createTestModel()

	inner := &fakeService{}
	manager := cachemanager.NewInMemoryCacheManager[string, *directory.Organization](
		"directory", cachemanager.DefaultExpiration, cachemanager.DefaultCleanupInterval)
	cache := directory.NewCachedService(inner, manager, time.Minute)
	m.cache = cache

	// Prime the cache so the flush is observable.
	_, err := cache.LookupByEmail(context.Background(), "jane@acme.test")
	require.NoError(t, err)
	_, err = cache.LookupByEmail(context.Background(), "jane@acme.test")
	require.NoError(t, err)
	assert.Equal(t, 1, inner.lookupCalls, "second lookup should be served from cache")

	newModel, _ := m.Update(pubsub.Event[string]{
		Type:      pubsub.ChangedEvent,
		Payload:   "/tmp/directory.db",
		Timestamp: time.Now(),
	})
	m = newModel.(Model)

	assert.True(t, m.toaster.Visible(), "change event should show a toast")
	assert.Contains(t, m.View(), "Directory updated")

	_, err = cache.LookupByEmail(context.Background(), "jane@acme.test")
	require.NoError(t, err)
	assert.Equal(t, 2, inner.lookupCalls, "cache should have been flushed")
}

func TestApp_CloseWithoutWatcher(t *testing.T) {
	m, _ := createTestModel()
	assert.NoError(t, m.Close())
}

// TestApp_ProgramSmoke drives the model through a real Bubble Tea program.
func TestApp_ProgramSmoke(t *testing.T) {
	m, _ := createTestModel()
	tm := teatest.NewTestModel(t, m, teatest.WithInitialTermSize(100, 40))

	teatest.WaitFor(t, tm.Output(), func(bts []byte) bool {
		return bytes.Contains(bts, []byte("Create an account"))
	}, teatest.WithDuration(3*time.Second))

	tm.Send(tea.KeyMsg{Type: tea.KeyCtrlC})
	tm.WaitFinished(t, teatest.WithFinalTimeout(2*time.Second))
}
