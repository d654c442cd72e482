package ui

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"waapiview/internal/config"
	"waapiview/internal/domain"
	"waapiview/internal/engine"
	"waapiview/internal/services"
	"waapiview/internal/state"
)

type viewMode int

const (
	modeExplorer viewMode = iota
	modeLive
)

type inputFocus int

const (
	focusNone inputFocus = iota
	focusFind
	focusLive
	focusPropertyFilter
)

type Model struct {
	state         *state.State
	engine        *engine.Engine
	base          config.Config
	keys          KeyMap
	mode          viewMode
	focus         inputFocus
	findInput     textinput.Model
	liveInput     textinput.Model
	filterInput   textinput.Model
	properties    viewport.Model
	showHelp      bool
	status        string
	syncing       bool
	connected     bool
	progressCount int64
	liveCursor    int
	liveTop       int
	width         int
	height        int
	viewTop       int
	copyText      func(string) error
}

type ConfigProvider interface {
	ConfigSnapshot() config.Config
}

func NewModel(appState *state.State, eng *engine.Engine, base config.Config) Model {
	findInput := textinput.New()
	findInput.Prompt = "/ "
	findInput.Placeholder = "find in tree"

	liveInput := textinput.New()
	liveInput.Prompt = "search: "
	liveInput.Placeholder = "type to search the project"
	liveInput.SetValue(appState.LiveQuery)

	filterInput := textinput.New()
	filterInput.Prompt = "filter: "
	filterInput.Placeholder = "property name"

	return Model{
		state:       appState,
		engine:      eng,
		base:        base,
		keys:        KeyMapFrom(appState.KeyBindings),
		mode:        modeExplorer,
		findInput:   findInput,
		liveInput:   liveInput,
		filterInput: filterInput,
		properties:  viewport.New(40, 10),
		status:      "Connecting...",
		syncing:     true,
		width:       100,
		height:      30,
		copyText:    clipboard.WriteAll,
	}
}

func (model Model) WithStatus(message string) Model {
	if message != "" {
		model.status = message
	}
	return model
}

func (model Model) ConfigSnapshot() config.Config {
	snapshot := model.base
	snapshot.Theme = model.state.Prefs.Theme
	snapshot.KeyBindings = model.state.KeyBindings
	snapshot.LastSearch = model.liveInput.Value()
	return snapshot
}

func (model Model) Init() tea.Cmd {
	cmds := []tea.Cmd{model.awaitCmd(model.engine.RefreshTree()), model.progressCmd()}
	if pending, ok := model.engine.LiveSearch(model.liveInput.Value()); ok {
		cmds = append(cmds, model.awaitCmd(pending))
	}
	return tea.Batch(cmds...)
}

func (model Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch typed := msg.(type) {
	case tea.KeyMsg:
		return model.handleKey(typed)
	case tea.WindowSizeMsg:
		model.width = typed.Width
		model.height = typed.Height
		model.resizeProperties()
		model.ensureCursorVisible()
		return model, nil
	case engineEventMsg:
		return model.handleEvent(typed.event)
	case syncProgressMsg:
		if typed.progress.Completed {
			if model.syncing {
				return model, model.progressCmd()
			}
			return model, nil
		}
		model.progressCount = typed.progress.Visited
		if typed.progress.Current != "" {
			model.status = fmt.Sprintf("Syncing... %d objects (%s)", typed.progress.Visited, typed.progress.Current)
		} else {
			model.status = fmt.Sprintf("Syncing... %d objects", typed.progress.Visited)
		}
		return model, model.progressCmd()
	case clipboardMsg:
		if typed.err != nil {
			model.status = fmt.Sprintf("Clipboard error: %v", typed.err)
		} else {
			model.status = fmt.Sprintf("Copied %s", typed.label)
		}
		return model, nil
	default:
		return model, nil
	}
}

func (model Model) handleEvent(event engine.Event) (tea.Model, tea.Cmd) {
	switch typed := event.(type) {
	case engine.Connected:
		model.connected = true
		model.status = fmt.Sprintf("Connected to %s", typed.Version)
	case engine.ConnectionFailed:
		model.connected = false
		if typed.Op == engine.OpTree {
			model.syncing = false
		}
		if typed.Op == engine.OpSearch && !model.engine.Live().Fail(typed.Seq) {
			return model, nil
		}
		model.status = typed.Message
	case engine.TreeReady:
		model.syncing = false
		model.connected = true
		model.progressCount = 0
		if typed.Session != nil {
			model.state.Session = typed.Session
		}
		model.state.SetForest(typed.Forest)
		model.ensureCursorVisible()
		model.status = fmt.Sprintf("Tree synced: %d objects under %d roots", typed.Forest.Len(), len(typed.Forest.Roots))
	case engine.NothingSelected:
		model.status = "Nothing selected in Wwise"
	case engine.PropertiesReady:
		model.state.SetProperties(typed.Records)
		model.refreshProperties()
		model.properties.GotoTop()
		source := "selection"
		if typed.Selected {
			source = "Wwise selection"
		}
		model.status = fmt.Sprintf("Properties of %d objects (%s)", len(typed.Records), source)
	case engine.SearchResultReady:
		if err := model.engine.ApplySearch(typed); err != nil {
			return model, nil
		}
		model.clampLiveCursor()
		model.status = fmt.Sprintf("%d hits for %q", len(typed.Result.Hits), typed.Result.Text)
	case engine.Failed:
		if typed.Op == engine.OpTree {
			model.syncing = false
		}
		if typed.Op == engine.OpSearch && !model.engine.Live().Fail(typed.Seq) {
			return model, nil
		}
		model.status = typed.Message
	case engine.GoToDone:
		model.status = fmt.Sprintf("Shown %d objects in Wwise", len(typed.IDs))
	case engine.Discarded:
	}
	return model, nil
}

func (model Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if model.focus != focusNone {
		return model.handleInput(msg)
	}
	switch {
	case key.Matches(msg, model.keys.Quit):
		return model, tea.Quit
	case key.Matches(msg, model.keys.Help):
		model.showHelp = !model.showHelp
		return model, nil
	case key.Matches(msg, model.keys.SwitchMode):
		if model.mode == modeExplorer {
			model.mode = modeLive
			model.status = "Live search - press / to type"
		} else {
			model.mode = modeExplorer
			model.status = "Explorer"
		}
		return model, nil
	case key.Matches(msg, model.keys.Up):
		model.moveCursor(-1)
		return model, nil
	case key.Matches(msg, model.keys.Down):
		model.moveCursor(1)
		return model, nil
	case key.Matches(msg, model.keys.ScrollUp):
		model.properties.HalfViewUp()
		return model, nil
	case key.Matches(msg, model.keys.ScrollDown):
		model.properties.HalfViewDown()
		return model, nil
	case key.Matches(msg, model.keys.Find):
		if model.mode == modeLive {
			model.focus = focusLive
			return model, model.liveInput.Focus()
		}
		model.focus = focusFind
		return model, model.findInput.Focus()
	case key.Matches(msg, model.keys.PropertyFilter):
		model.focus = focusPropertyFilter
		model.filterInput.SetValue(model.state.PropertyFilter)
		return model, model.filterInput.Focus()
	case key.Matches(msg, model.keys.Refresh):
		if model.syncing {
			model.status = "Sync already running"
			return model, nil
		}
		model.syncing = true
		model.progressCount = 0
		model.status = "Syncing..."
		return model, tea.Batch(model.awaitCmd(model.engine.RefreshTree()), model.progressCmd())
	case key.Matches(msg, model.keys.ToolSelection):
		model.status = "Fetching Wwise selection..."
		return model, model.awaitCmd(model.engine.FetchSelected())
	case key.Matches(msg, model.keys.CopyPath):
		return model, model.copyCmd("path", model.currentPath())
	case key.Matches(msg, model.keys.CopyID):
		return model, model.copyCmd("id", model.currentID())
	}
	if model.mode == modeLive {
		return model.handleLiveKey(msg)
	}
	return model.handleExplorerKey(msg)
}

func (model Model) handleExplorerKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, model.keys.Enter):
		node := model.state.CurrentNode()
		if node == nil || len(node.Children) == 0 {
			return model, nil
		}
		model.state.ToggleExpanded(node.Path)
		model.ensureCursorVisible()
		return model, nil
	case key.Matches(msg, model.keys.Select):
		if node := model.state.CurrentNode(); node != nil && !node.IsRoot() {
			model.state.ToggleSelection(node.Path)
		}
		return model, nil
	case key.Matches(msg, model.keys.ClearSelection):
		model.state.ClearSelection()
		model.status = "Selection cleared"
		return model, nil
	case key.Matches(msg, model.keys.ExpandAll):
		model.state.ExpandAll()
		model.ensureCursorVisible()
		return model, nil
	case key.Matches(msg, model.keys.CollapseAll):
		model.state.CollapseAll()
		model.ensureCursorVisible()
		return model, nil
	case key.Matches(msg, model.keys.NextMatch):
		if index, ok := model.state.Navigator.Next(); ok {
			model.reveal(index)
		}
		return model, nil
	case key.Matches(msg, model.keys.PrevMatch):
		if index, ok := model.state.Navigator.Previous(); ok {
			model.reveal(index)
		}
		return model, nil
	case key.Matches(msg, model.keys.Properties):
		pending, ok := model.engine.FetchProperties(model.state.SelectedObjectIDs())
		if !ok {
			model.status = "Nothing selected"
			return model, nil
		}
		model.status = "Fetching properties..."
		return model, model.awaitCmd(pending)
	case key.Matches(msg, model.keys.GoTo):
		pending, ok := model.engine.GoTo(model.state.SelectedObjectIDs())
		if !ok {
			return model, nil
		}
		return model, model.awaitCmd(pending)
	default:
		return model, nil
	}
}

func (model Model) handleLiveKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, model.keys.Facet):
		position := int(msg.String()[0] - '1')
		facets := model.engine.Live().Discovered()
		if position < len(facets) {
			model.engine.Live().ToggleFacet(facets[position])
			model.clampLiveCursor()
		}
		return model, nil
	case key.Matches(msg, model.keys.Enter), key.Matches(msg, model.keys.GoTo):
		hit, ok := model.currentHit()
		if !ok {
			return model, nil
		}
		pending, _ := model.engine.GoTo([]string{hit.ID})
		return model, model.awaitCmd(pending)
	case key.Matches(msg, model.keys.Properties):
		hit, ok := model.currentHit()
		if !ok {
			return model, nil
		}
		pending, _ := model.engine.FetchProperties([]string{hit.ID})
		model.status = "Fetching properties..."
		return model, model.awaitCmd(pending)
	default:
		return model, nil
	}
}

func (model Model) handleInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.Type == tea.KeyCtrlC {
		return model, tea.Quit
	}
	if msg.Type == tea.KeyEsc || msg.Type == tea.KeyEnter {
		model.findInput.Blur()
		model.liveInput.Blur()
		model.filterInput.Blur()
		model.focus = focusNone
		return model, nil
	}
	var cmd tea.Cmd
	switch model.focus {
	case focusFind:
		before := model.findInput.Value()
		model.findInput, cmd = model.findInput.Update(msg)
		if text := model.findInput.Value(); text != before {
			set := model.state.Navigator.Search(text)
			if len(set.Matches) > 0 {
				model.reveal(set.Matches[0])
			} else if text != "" {
				model.status = fmt.Sprintf("No match for %q", text)
			}
		}
		return model, cmd
	case focusLive:
		before := model.liveInput.Value()
		model.liveInput, cmd = model.liveInput.Update(msg)
		text := model.liveInput.Value()
		if text == before {
			return model, cmd
		}
		model.liveCursor = 0
		model.liveTop = 0
		pending, ok := model.engine.LiveSearch(text)
		if !ok {
			return model, cmd
		}
		return model, tea.Batch(cmd, model.awaitCmd(pending))
	case focusPropertyFilter:
		model.filterInput, cmd = model.filterInput.Update(msg)
		model.state.PropertyFilter = model.filterInput.Value()
		model.refreshProperties()
		return model, cmd
	}
	return model, nil
}

func (model Model) awaitCmd(pending engine.Pending) tea.Cmd {
	eng := model.engine
	return func() tea.Msg {
		return engineEventMsg{pending: pending, event: eng.Await(context.Background(), pending)}
	}
}

func (model Model) progressCmd() tea.Cmd {
	eng := model.engine
	return func() tea.Msg {
		channel := eng.Progress()
		if channel == nil {
			time.Sleep(50 * time.Millisecond)
			return syncProgressMsg{progress: services.SyncProgress{Completed: true}}
		}
		progress, ok := <-channel
		if !ok {
			time.Sleep(50 * time.Millisecond)
			return syncProgressMsg{progress: services.SyncProgress{Completed: true}}
		}
		return syncProgressMsg{progress: progress}
	}
}

func (model Model) copyCmd(label string, text string) tea.Cmd {
	write := model.copyText
	if text == "" {
		return func() tea.Msg {
			return clipboardMsg{label: label, err: errNothingToCopy}
		}
	}
	return func() tea.Msg {
		return clipboardMsg{label: label, err: write(text)}
	}
}

func (model *Model) reveal(index int) {
	if model.state.Reveal(index) {
		model.ensureCursorVisible()
		navigator := model.state.Navigator
		model.status = fmt.Sprintf("Match %d/%d", navigator.Cursor()+1, navigator.Len())
	}
}

func (model *Model) moveCursor(delta int) {
	if model.mode == modeLive {
		model.liveCursor += delta
		model.clampLiveCursor()
		return
	}
	model.state.MoveCursor(delta)
	model.ensureCursorVisible()
}

func (model *Model) currentHit() (domain.Hit, bool) {
	hits := model.engine.Live().Visible()
	if model.liveCursor < 0 || model.liveCursor >= len(hits) {
		return domain.Hit{}, false
	}
	return hits[model.liveCursor], true
}

func (model *Model) currentPath() string {
	if model.mode == modeLive {
		hit, _ := model.currentHit()
		return hit.Path
	}
	if node := model.state.CurrentNode(); node != nil {
		return node.Path
	}
	return ""
}

func (model *Model) currentID() string {
	if model.mode == modeLive {
		hit, _ := model.currentHit()
		return hit.ID
	}
	if node := model.state.CurrentNode(); node != nil {
		return node.ObjectID
	}
	return ""
}

func (model *Model) clampLiveCursor() {
	count := len(model.engine.Live().Visible())
	if model.liveCursor >= count {
		model.liveCursor = count - 1
	}
	if model.liveCursor < 0 {
		model.liveCursor = 0
	}
	height := model.listHeight() - 2
	if height <= 0 {
		return
	}
	if model.liveCursor < model.liveTop {
		model.liveTop = model.liveCursor
	}
	if model.liveCursor >= model.liveTop+height {
		model.liveTop = model.liveCursor - height + 1
	}
}

func (model *Model) ensureCursorVisible() {
	visible := model.state.VisibleNodes()
	if len(visible) == 0 {
		model.state.Cursor = 0
		model.viewTop = 0
		return
	}
	if model.state.Cursor >= len(visible) {
		model.state.Cursor = len(visible) - 1
	}
	if model.state.Cursor < 0 {
		model.state.Cursor = 0
	}
	listHeight := model.listHeight() - 1
	if listHeight <= 0 {
		return
	}
	if model.state.Cursor < model.viewTop {
		model.viewTop = model.state.Cursor
	}
	if model.state.Cursor >= model.viewTop+listHeight {
		model.viewTop = model.state.Cursor - listHeight + 1
	}
	maxTop := len(visible) - listHeight
	if maxTop < 0 {
		maxTop = 0
	}
	if model.viewTop > maxTop {
		model.viewTop = maxTop
	}
}

func (model *Model) listHeight() int {
	return model.height - 6
}

func (model *Model) resizeProperties() {
	_, rightWidth, _ := splitPanels(model.width)
	model.properties.Width = maxInt(rightWidth-4, 10)
	model.properties.Height = maxInt(model.listHeight()-2, 3)
	model.refreshProperties()
}

func (model *Model) refreshProperties() {
	model.properties.SetContent(renderPropertyRows(model.state.PropertyRows()))
}

var errNothingToCopy = errors.New("nothing to copy")
