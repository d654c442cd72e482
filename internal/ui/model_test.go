package ui

import (
	"context"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/go-playground/assert/v2"

	"waapiview/internal/config"
	"waapiview/internal/engine"
	"waapiview/internal/services"
	"waapiview/internal/state"
)

func newTestModel(t *testing.T) (Model, *engine.Engine) {
	t.Helper()
	return newTestModelWith(t, services.NewDemoClient())
}

func newTestModelWith(t *testing.T, client *services.MockClient) (Model, *engine.Engine) {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.RootPaths = []string{`\Actor-Mixer Hierarchy`, `\Events`}
	eng := engine.New(client, engine.Options{Sync: cfg.SyncOptions()})
	t.Cleanup(func() {
		_ = eng.Close(context.Background())
	})
	model := NewModel(state.NewState(cfg), eng, cfg)
	model.copyText = func(string) error { return nil }
	return model, eng
}

func deliver(model Model, eng *engine.Engine, pending engine.Pending) Model {
	updated, _ := model.Update(engineEventMsg{pending: pending, event: eng.Await(context.Background(), pending)})
	return updated.(Model)
}

func press(model Model, msg tea.KeyMsg) (Model, tea.Cmd) {
	updated, cmd := model.Update(msg)
	return updated.(Model), cmd
}

func runes(text string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(text)}
}

func TestTreeReadyPopulatesState(t *testing.T) {
	model, eng := newTestModel(t)
	model = deliver(model, eng, eng.RefreshTree())

	assert.Equal(t, model.syncing, false)
	assert.Equal(t, model.connected, true)
	assert.Equal(t, model.state.Forest.Len(), 14)
	assert.Equal(t, model.state.Session != nil, true)
	assert.Equal(t, model.status, "Tree synced: 14 objects under 2 roots")
	assert.Equal(t, strings.Contains(model.View(), "Actor-Mixer Hierarchy"), true)
}

func TestFindRevealsFirstMatch(t *testing.T) {
	model, eng := newTestModel(t)
	model = deliver(model, eng, eng.RefreshTree())

	model, _ = press(model, runes("/"))
	assert.Equal(t, model.focus, focusFind)
	model, _ = press(model, runes("forest"))
	assert.Equal(t, model.state.Navigator.Len(), 2)
	assert.Equal(t, model.state.CurrentNode().Name, "Forest_Loop")

	model, _ = press(model, tea.KeyMsg{Type: tea.KeyEnter})
	assert.Equal(t, model.focus, focusNone)
	model, _ = press(model, runes("n"))
	assert.Equal(t, model.state.CurrentNode().Name, "Play_Forest")
	assert.Equal(t, model.status, "Match 2/2")
}

func TestFacetKeysToggleTypes(t *testing.T) {
	model, eng := newTestModel(t)
	model, _ = press(model, tea.KeyMsg{Type: tea.KeyTab})
	assert.Equal(t, model.mode, modeLive)

	pending, ok := eng.LiveSearch("foot")
	assert.Equal(t, ok, true)
	model = deliver(model, eng, pending)
	assert.Equal(t, eng.Live().Discovered(), []string{"Event", "RandomSequenceContainer", "Sound"})

	model, _ = press(model, runes("3"))
	assert.Equal(t, eng.Live().Active(), map[string]bool{"Sound": true})
	assert.Equal(t, len(eng.Live().Visible()), 4)
	assert.Equal(t, strings.Contains(model.View(), "[x] Sound"), true)

	model, _ = press(model, runes("3"))
	assert.Equal(t, len(eng.Live().Active()), 0)
	assert.Equal(t, len(eng.Live().Visible()), 6)

	model, _ = press(model, runes("9"))
	assert.Equal(t, len(eng.Live().Active()), 0)
}

func TestStaleSearchLeavesStatus(t *testing.T) {
	model, eng := newTestModel(t)
	first, _ := eng.LiveSearch("foo")
	second, _ := eng.LiveSearch("foot")

	model = deliver(model, eng, second)
	assert.Equal(t, model.status, `6 hits for "foot"`)
	model = deliver(model, eng, first)
	assert.Equal(t, model.status, `6 hits for "foot"`)
	assert.Equal(t, eng.Live().Result().Text, "foot")
}

func TestLiveEnterGoesToHit(t *testing.T) {
	model, eng := newTestModel(t)
	model, _ = press(model, tea.KeyMsg{Type: tea.KeyTab})
	pending, _ := eng.LiveSearch("Play_Forest")
	model = deliver(model, eng, pending)

	model, cmd := press(model, tea.KeyMsg{Type: tea.KeyEnter})
	assert.Equal(t, cmd != nil, true)
	updated, _ := model.Update(cmd())
	assert.Equal(t, updated.(Model).status, "Shown 1 objects in Wwise")
}

func TestCopyWithoutNode(t *testing.T) {
	model, _ := newTestModel(t)
	_, cmd := press(model, runes("y"))
	updated, _ := model.Update(cmd())
	assert.Equal(t, updated.(Model).status, "Clipboard error: nothing to copy")
}

func TestCopyCurrentPath(t *testing.T) {
	model, eng := newTestModel(t)
	copied := ""
	model.copyText = func(text string) error {
		copied = text
		return nil
	}
	model = deliver(model, eng, eng.RefreshTree())
	model, cmd := press(model, runes("y"))
	updated, _ := model.Update(cmd())
	assert.Equal(t, copied, `\Actor-Mixer Hierarchy`)
	assert.Equal(t, updated.(Model).status, "Copied path")
}

func TestPropertiesOfSelection(t *testing.T) {
	model, eng := newTestModel(t)
	model = deliver(model, eng, eng.RefreshTree())
	model, _ = press(model, runes("P"))
	assert.Equal(t, model.status, "Fetching Wwise selection...")

	model = deliver(model, eng, eng.FetchSelected())
	assert.Equal(t, model.status, "Properties of 1 objects (Wwise selection)")
	assert.Equal(t, len(model.state.PropertyRows()) > 0, true)
}

func TestEmptyToolSelectionKeepsProperties(t *testing.T) {
	client := services.NewDemoClient()
	model, eng := newTestModelWith(t, client)
	model = deliver(model, eng, eng.RefreshTree())
	model = deliver(model, eng, eng.FetchSelected())
	rows := len(model.state.PropertyRows())
	assert.Equal(t, rows > 0, true)

	client.Selected = nil
	model, _ = press(model, runes("P"))
	model = deliver(model, eng, eng.FetchSelected())
	assert.Equal(t, model.status, "Nothing selected in Wwise")
	assert.Equal(t, len(model.state.Properties), 1)
	assert.Equal(t, len(model.state.PropertyRows()), rows)
}

func TestHelpToggle(t *testing.T) {
	model, _ := newTestModel(t)
	model, _ = press(model, runes("?"))
	assert.Equal(t, strings.Contains(model.View(), "waapiview Help"), true)
	model, _ = press(model, runes("?"))
	assert.Equal(t, model.showHelp, false)
}

func TestConfigSnapshotKeepsPreferences(t *testing.T) {
	model, _ := newTestModel(t)
	model.state.Prefs.Theme = "light"
	model.liveInput.SetValue("amb")
	snapshot := model.ConfigSnapshot()
	assert.Equal(t, snapshot.Theme, "light")
	assert.Equal(t, snapshot.LastSearch, "amb")
	assert.Equal(t, snapshot.URL, services.DefaultWaapiURL)
}
