package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
)

type KeyMap struct {
	Up             key.Binding
	Down           key.Binding
	Enter          key.Binding
	Select         key.Binding
	ClearSelection key.Binding
	ExpandAll      key.Binding
	CollapseAll    key.Binding
	Refresh        key.Binding
	Find           key.Binding
	NextMatch      key.Binding
	PrevMatch      key.Binding
	Properties     key.Binding
	ToolSelection  key.Binding
	PropertyFilter key.Binding
	ScrollUp       key.Binding
	ScrollDown     key.Binding
	GoTo           key.Binding
	CopyPath       key.Binding
	CopyID         key.Binding
	SwitchMode     key.Binding
	Facet          key.Binding
	Cancel         key.Binding
	Help           key.Binding
	Quit           key.Binding
}

func DefaultKeyMap() KeyMap {
	return KeyMap{
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "move up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "move down"),
		),
		Enter: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "expand / go to hit"),
		),
		Select: key.NewBinding(
			key.WithKeys(" ", "space"),
			key.WithHelp("space", "toggle select"),
		),
		ClearSelection: key.NewBinding(
			key.WithKeys("x"),
			key.WithHelp("x", "clear selection"),
		),
		ExpandAll: key.NewBinding(
			key.WithKeys("E"),
			key.WithHelp("E", "expand all"),
		),
		CollapseAll: key.NewBinding(
			key.WithKeys("C"),
			key.WithHelp("C", "collapse all"),
		),
		Refresh: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "sync tree"),
		),
		Find: key.NewBinding(
			key.WithKeys("/"),
			key.WithHelp("/", "search"),
		),
		NextMatch: key.NewBinding(
			key.WithKeys("n"),
			key.WithHelp("n", "next match"),
		),
		PrevMatch: key.NewBinding(
			key.WithKeys("N"),
			key.WithHelp("N", "previous match"),
		),
		Properties: key.NewBinding(
			key.WithKeys("p"),
			key.WithHelp("p", "properties"),
		),
		ToolSelection: key.NewBinding(
			key.WithKeys("P"),
			key.WithHelp("P", "properties of Wwise selection"),
		),
		PropertyFilter: key.NewBinding(
			key.WithKeys("f"),
			key.WithHelp("f", "filter properties"),
		),
		ScrollUp: key.NewBinding(
			key.WithKeys("pgup", "ctrl+u"),
			key.WithHelp("pgup", "scroll properties"),
		),
		ScrollDown: key.NewBinding(
			key.WithKeys("pgdown", "ctrl+d"),
			key.WithHelp("pgdn", "scroll properties"),
		),
		GoTo: key.NewBinding(
			key.WithKeys("g"),
			key.WithHelp("g", "show in Wwise"),
		),
		CopyPath: key.NewBinding(
			key.WithKeys("y"),
			key.WithHelp("y", "copy path"),
		),
		CopyID: key.NewBinding(
			key.WithKeys("c"),
			key.WithHelp("c", "copy id"),
		),
		SwitchMode: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "explorer / live search"),
		),
		Facet: key.NewBinding(
			key.WithKeys("1", "2", "3", "4", "5", "6", "7", "8", "9"),
			key.WithHelp("1-9", "toggle type filter"),
		),
		Cancel: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "leave input"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "toggle help"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}

// KeyMapFrom applies configured overrides such as {"refresh": "R,f5"}.
// Unknown names are ignored.
func KeyMapFrom(bindings map[string]string) KeyMap {
	keys := DefaultKeyMap()
	named := map[string]*key.Binding{
		"up":             &keys.Up,
		"down":           &keys.Down,
		"enter":          &keys.Enter,
		"select":         &keys.Select,
		"clearSelection": &keys.ClearSelection,
		"expandAll":      &keys.ExpandAll,
		"collapseAll":    &keys.CollapseAll,
		"refresh":        &keys.Refresh,
		"find":           &keys.Find,
		"nextMatch":      &keys.NextMatch,
		"prevMatch":      &keys.PrevMatch,
		"properties":     &keys.Properties,
		"toolSelection":  &keys.ToolSelection,
		"propertyFilter": &keys.PropertyFilter,
		"goTo":           &keys.GoTo,
		"copyPath":       &keys.CopyPath,
		"copyID":         &keys.CopyID,
		"switchMode":     &keys.SwitchMode,
		"help":           &keys.Help,
		"quit":           &keys.Quit,
	}
	for name, value := range bindings {
		binding, ok := named[name]
		if !ok || strings.TrimSpace(value) == "" {
			continue
		}
		parts := strings.Split(value, ",")
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}
		help := binding.Help()
		binding.SetKeys(parts...)
		binding.SetHelp(strings.Join(parts, "/"), help.Desc)
	}
	return keys
}
