package state

import (
	"fmt"
	"sort"
	"strings"

	"waapiview/internal/config"
	"waapiview/internal/domain"
	"waapiview/internal/search"
)

type Preferences struct {
	Theme string
}

// State is the foreground view of the mirrored project. Selection and
// expansion are keyed by object path so they survive a rebuild.
type State struct {
	Forest         *domain.Forest
	Cursor         int
	Selected       map[string]bool
	Expanded       map[string]bool
	Prefs          Preferences
	KeyBindings    map[string]string
	Navigator      *search.Navigator
	Session        *domain.VersionInfo
	Properties     []domain.PropertyRecord
	PropertyFilter string
	LiveQuery      string
}

func NewState(cfg config.Config) *State {
	forest := domain.NewForest()
	return &State{
		Forest:      forest,
		Cursor:      0,
		Selected:    make(map[string]bool),
		Expanded:    make(map[string]bool),
		Prefs:       Preferences{Theme: cfg.Theme},
		KeyBindings: ensureBindings(cfg.KeyBindings),
		Navigator:   search.NewNavigator(forest),
		LiveQuery:   cfg.LastSearch,
	}
}

func ensureBindings(bindings map[string]string) map[string]string {
	if bindings == nil {
		return map[string]string{}
	}
	return bindings
}

// SetForest installs a rebuilt tree, drops selections that no longer exist
// and re-runs the offline search.
func (appState *State) SetForest(forest *domain.Forest) {
	firstTree := appState.Forest.Len() == 0
	appState.Forest = forest

	filteredSelected := make(map[string]bool, len(appState.Selected))
	for path := range appState.Selected {
		if _, ok := forest.Lookup(path); ok {
			filteredSelected[path] = true
		}
	}
	appState.Selected = filteredSelected

	filteredExpanded := make(map[string]bool, len(appState.Expanded))
	for path := range appState.Expanded {
		if _, ok := forest.Lookup(path); ok {
			filteredExpanded[path] = true
		}
	}
	appState.Expanded = filteredExpanded
	if firstTree {
		for _, root := range forest.Roots {
			appState.Expanded[forest.Node(root).Path] = true
		}
	}

	appState.Navigator.SetForest(forest)
	appState.clampCursor()
}

type VisibleNode struct {
	Index int
	Node  *domain.ObjectNode
	Depth int
}

func (appState *State) VisibleNodes() []VisibleNode {
	visible := make([]VisibleNode, 0, appState.Forest.Len())
	for _, root := range appState.Forest.Roots {
		appState.appendNode(&visible, root, 0)
	}
	return visible
}

func (appState *State) appendNode(visible *[]VisibleNode, index int, depth int) {
	node := appState.Forest.Node(index)
	if node == nil {
		return
	}
	*visible = append(*visible, VisibleNode{Index: index, Node: node, Depth: depth})
	if !appState.IsExpanded(node.Path) {
		return
	}
	for _, child := range node.Children {
		appState.appendNode(visible, child, depth+1)
	}
}

func (appState *State) CurrentNode() *domain.ObjectNode {
	visible := appState.VisibleNodes()
	if len(visible) == 0 || appState.Cursor < 0 || appState.Cursor >= len(visible) {
		return nil
	}
	return visible[appState.Cursor].Node
}

func (appState *State) MoveCursor(delta int) {
	appState.Cursor += delta
	appState.clampCursor()
}

func (appState *State) clampCursor() {
	count := len(appState.VisibleNodes())
	if appState.Cursor >= count {
		appState.Cursor = count - 1
	}
	if appState.Cursor < 0 {
		appState.Cursor = 0
	}
}

func (appState *State) ToggleExpanded(path string) bool {
	if path == "" {
		return false
	}
	appState.Expanded[path] = !appState.Expanded[path]
	if !appState.Expanded[path] {
		delete(appState.Expanded, path)
	}
	appState.clampCursor()
	return appState.Expanded[path]
}

func (appState *State) IsExpanded(path string) bool {
	return appState.Expanded[path]
}

func (appState *State) ExpandAll() {
	for _, node := range appState.Forest.Nodes {
		if len(node.Children) > 0 {
			appState.Expanded[node.Path] = true
		}
	}
}

// CollapseAll folds everything back to the root level.
func (appState *State) CollapseAll() {
	appState.Expanded = make(map[string]bool)
	appState.clampCursor()
}

// Reveal expands the ancestors of index and moves the cursor onto it.
func (appState *State) Reveal(index int) bool {
	node := appState.Forest.Node(index)
	if node == nil {
		return false
	}
	for _, ancestor := range appState.Forest.Ancestors(index) {
		appState.Expanded[appState.Forest.Node(ancestor).Path] = true
	}
	for position, visible := range appState.VisibleNodes() {
		if visible.Index == index {
			appState.Cursor = position
			return true
		}
	}
	return false
}

func (appState *State) ToggleSelection(path string) {
	if path == "" {
		return
	}
	appState.Selected[path] = !appState.Selected[path]
	if !appState.Selected[path] {
		delete(appState.Selected, path)
	}
}

func (appState *State) ClearSelection() {
	appState.Selected = make(map[string]bool)
}

// SelectedObjectIDs lists marked objects in tree order, or the object under
// the cursor when nothing is marked. Synthetic roots have no id.
func (appState *State) SelectedObjectIDs() []string {
	ids := []string{}
	if len(appState.Selected) > 0 {
		appState.Forest.Walk(func(index int, depth int) bool {
			node := appState.Forest.Node(index)
			if appState.Selected[node.Path] && node.ObjectID != "" {
				ids = append(ids, node.ObjectID)
			}
			return true
		})
		return ids
	}
	if node := appState.CurrentNode(); node != nil && node.ObjectID != "" {
		ids = append(ids, node.ObjectID)
	}
	return ids
}

type PropertyRow struct {
	ID    string
	Key   string
	Value string
}

func (appState *State) SetProperties(records []domain.PropertyRecord) {
	appState.Properties = records
}

// PropertyRows flattens the fetched records, keeping keys that contain the
// property filter, case-insensitively.
func (appState *State) PropertyRows() []PropertyRow {
	filter := strings.ToLower(appState.PropertyFilter)
	rows := []PropertyRow{}
	for _, record := range appState.Properties {
		keys := make([]string, 0, len(record.Values))
		for key := range record.Values {
			if filter == "" || strings.Contains(strings.ToLower(key), filter) {
				keys = append(keys, key)
			}
		}
		sort.Strings(keys)
		for _, key := range keys {
			rows = append(rows, PropertyRow{ID: record.ID, Key: key, Value: formatValue(record.Values[key])})
		}
	}
	return rows
}

func formatValue(value any) string {
	switch typed := value.(type) {
	case nil:
		return "-"
	case string:
		return typed
	case float64:
		return fmt.Sprintf("%g", typed)
	case map[string]any:
		if name, ok := typed["name"].(string); ok {
			return name
		}
		if id, ok := typed["id"].(string); ok {
			return id
		}
	}
	return fmt.Sprint(value)
}
