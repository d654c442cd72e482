package state

import (
	"testing"

	"github.com/go-playground/assert/v2"

	"waapiview/internal/config"
	"waapiview/internal/domain"
)

func buildForest(t *testing.T) *domain.Forest {
	t.Helper()
	forest := domain.NewForest()
	amh, err := forest.AddRoot(`\Actor-Mixer Hierarchy`)
	assert.Equal(t, err, nil)
	wu, _ := forest.AddChild(amh, domain.ObjectInfo{ID: "{W}", Name: "Default Work Unit", Type: "WorkUnit", Path: `\Actor-Mixer Hierarchy\Default Work Unit`})
	forest.AddChild(wu, domain.ObjectInfo{ID: "{R}", Name: "Rain", Type: "Sound", Path: `\Actor-Mixer Hierarchy\Default Work Unit\Rain`})
	forest.AddChild(wu, domain.ObjectInfo{ID: "{T}", Name: "Thunder", Type: "Sound", Path: `\Actor-Mixer Hierarchy\Default Work Unit\Thunder`})
	events, _ := forest.AddRoot(`\Events`)
	forest.AddChild(events, domain.ObjectInfo{ID: "{P}", Name: "Play_Rain", Type: "Event", Path: `\Events\Play_Rain`})
	return forest
}

func visibleNames(appState *State) []string {
	names := []string{}
	for _, visible := range appState.VisibleNodes() {
		names = append(names, visible.Node.Name)
	}
	return names
}

func TestFirstForestExpandsRoots(t *testing.T) {
	appState := NewState(config.DefaultConfig())
	appState.SetForest(buildForest(t))
	assert.Equal(t, visibleNames(appState), []string{"Actor-Mixer Hierarchy", "Default Work Unit", "Events", "Play_Rain"})
}

func TestExpandAndCollapseAll(t *testing.T) {
	appState := NewState(config.DefaultConfig())
	appState.SetForest(buildForest(t))

	appState.ExpandAll()
	assert.Equal(t, len(appState.VisibleNodes()), 6)

	appState.Cursor = 5
	appState.CollapseAll()
	assert.Equal(t, visibleNames(appState), []string{"Actor-Mixer Hierarchy", "Events"})
	assert.Equal(t, appState.Cursor, 1)
}

func TestRevealExpandsAncestors(t *testing.T) {
	appState := NewState(config.DefaultConfig())
	appState.SetForest(buildForest(t))
	appState.CollapseAll()

	set := appState.Navigator.Search("thunder")
	assert.Equal(t, len(set.Matches), 1)
	assert.Equal(t, appState.Reveal(set.Matches[0]), true)
	assert.Equal(t, appState.CurrentNode().Name, "Thunder")
	assert.Equal(t, appState.IsExpanded(`\Actor-Mixer Hierarchy\Default Work Unit`), true)
}

func TestSelectedObjectIDs(t *testing.T) {
	appState := NewState(config.DefaultConfig())
	appState.SetForest(buildForest(t))
	appState.ExpandAll()

	appState.Cursor = 0
	assert.Equal(t, appState.SelectedObjectIDs(), []string{})

	appState.Cursor = 2
	assert.Equal(t, appState.SelectedObjectIDs(), []string{"{R}"})

	appState.ToggleSelection(`\Events\Play_Rain`)
	appState.ToggleSelection(`\Actor-Mixer Hierarchy\Default Work Unit\Thunder`)
	appState.ToggleSelection(`\Events`)
	assert.Equal(t, appState.SelectedObjectIDs(), []string{"{T}", "{P}"})

	appState.ToggleSelection(`\Events\Play_Rain`)
	assert.Equal(t, appState.SelectedObjectIDs(), []string{"{T}"})
}

func TestRebuildKeepsSurvivingSelection(t *testing.T) {
	appState := NewState(config.DefaultConfig())
	appState.SetForest(buildForest(t))
	appState.ToggleSelection(`\Events\Play_Rain`)
	appState.ToggleSelection(`\Events\Gone`)
	appState.Navigator.Search("rain")

	appState.SetForest(buildForest(t))
	assert.Equal(t, appState.Selected, map[string]bool{`\Events\Play_Rain`: true})
	assert.Equal(t, appState.Navigator.Len(), 2)
}

func TestPropertyRowsFilterByKey(t *testing.T) {
	appState := NewState(config.DefaultConfig())
	appState.SetProperties([]domain.PropertyRecord{
		{ID: "{R}", Values: map[string]any{"name": "Rain", "@Volume": -6.0, "@IsVoice": false, "@OutputBus": map[string]any{"id": "{B}", "name": "Master Audio Bus"}}},
	})
	assert.Equal(t, len(appState.PropertyRows()), 4)

	appState.PropertyFilter = "VOL"
	rows := appState.PropertyRows()
	assert.Equal(t, rows, []PropertyRow{{ID: "{R}", Key: "@Volume", Value: "-6"}})

	appState.PropertyFilter = "bus"
	assert.Equal(t, appState.PropertyRows()[0].Value, "Master Audio Bus")
}
