package app

import (
	"path/filepath"
	"strings"
	"testing"
	"time"

	tea "charm.land/bubbletea/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/fitrack/internal/appstate"
	"github.com/abhisek/fitrack/internal/core"
	"github.com/abhisek/fitrack/internal/notify"
	"github.com/abhisek/fitrack/internal/router"
	"github.com/abhisek/fitrack/internal/screen"
	"github.com/abhisek/fitrack/internal/store"
)

func newTestModel(t *testing.T) (AppModel, *core.Core) {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "fitrack.db"), store.WithPollInterval(0))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	c := core.New(core.Options{Backend: st, Notifier: notify.Discard{}})
	m := newAppModel(c, nil)
	t.Cleanup(m.sub.Cancel)
	return m, c
}

func update(t *testing.T, m AppModel, msg tea.Msg) AppModel {
	t.Helper()
	next, _ := m.Update(msg)
	am, ok := next.(AppModel)
	require.True(t, ok)
	return am
}

func TestWelcomeLeadsToLogin(t *testing.T) {
	m, _ := newTestModel(t)
	assert.Equal(t, "", m.router.Active().Title())

	next, cmd := m.Update(tea.KeyPressMsg{Code: ' '})
	require.NotNil(t, cmd)
	m = next.(AppModel)
	replace, ok := cmd().(router.ReplaceScreenMsg)
	require.True(t, ok)

	m = update(t, m, replace)
	assert.Equal(t, "Login", m.router.Active().Title())
}

func TestAuthChangesResetStack(t *testing.T) {
	m, c := newTestModel(t)

	c.Store.Dispatch(appstate.SetAuthenticated{})
	m = update(t, m, screen.StateMsg{Snapshot: c.Store.Snapshot()})
	assert.Equal(t, "Home", m.router.Active().Title())
	assert.Equal(t, 1, m.router.Depth())

	m = update(t, m, router.PushScreenMsg{Screen: m.homeScreen()})
	assert.Equal(t, 2, m.router.Depth())

	c.Store.Dispatch(appstate.SetUnauthenticated{})
	m = update(t, m, screen.StateMsg{Snapshot: c.Store.Snapshot()})
	assert.Equal(t, "Login", m.router.Active().Title())
	assert.Equal(t, 1, m.router.Depth())
}

func TestEscPopsUnlessScreenHandlesIt(t *testing.T) {
	m, c := newTestModel(t)
	c.Store.Dispatch(appstate.SetAuthenticated{})
	m = update(t, m, screen.StateMsg{Snapshot: c.Store.Snapshot()})
	m = update(t, m, router.PushScreenMsg{Screen: m.homeScreen()})

	_, cmd := m.Update(tea.KeyPressMsg{Code: tea.KeyEscape})
	require.NotNil(t, cmd)
	_, ok := cmd().(router.PopScreenMsg)
	assert.True(t, ok)
}

func TestToastShownThenExpires(t *testing.T) {
	m, _ := newTestModel(t)
	m = update(t, m, tea.WindowSizeMsg{Width: 100, Height: 30})

	m = update(t, m, toastMsg{Message: "Fetching exercises failed, please try again later", Duration: time.Second})
	require.NotNil(t, m.toast)
	assert.Contains(t, m.render(), "Fetching exercises failed")

	// A stale expiry from an older toast leaves the current one.
	m = update(t, m, toastExpiredMsg{seq: m.toastSeq - 1})
	assert.NotNil(t, m.toast)

	m = update(t, m, toastExpiredMsg{seq: m.toastSeq})
	assert.Nil(t, m.toast)
	assert.False(t, strings.Contains(m.render(), "Fetching exercises failed"))
}

func TestTooSmallTerminal(t *testing.T) {
	m, _ := newTestModel(t)
	m = update(t, m, tea.WindowSizeMsg{Width: 40, Height: 10})
	assert.Contains(t, m.render(), "Terminal too small")
}
