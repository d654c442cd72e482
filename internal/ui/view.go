package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/lipgloss"

	"waapiview/internal/domain"
	"waapiview/internal/state"
)

type palette struct {
	text, muted, accent, warn, cursor, marked, match, rule string
}

var themes = map[string]palette{
	"dark":  {text: "252", muted: "241", accent: "69", warn: "204", cursor: "205", marked: "42", match: "214", rule: "238"},
	"light": {text: "235", muted: "242", accent: "25", warn: "124", cursor: "90", marked: "28", match: "130", rule: "250"},
}

type styles struct {
	title  lipgloss.Style
	muted  lipgloss.Style
	accent lipgloss.Style
	warn   lipgloss.Style
	cursor lipgloss.Style
	marked lipgloss.Style
	match  lipgloss.Style
	rule   lipgloss.Style
	frame  lipgloss.Style
}

func newStyles(theme string) styles {
	colors, ok := themes[strings.ToLower(theme)]
	if !ok {
		colors = themes["dark"]
	}
	fg := func(color string) lipgloss.Style {
		return lipgloss.NewStyle().Foreground(lipgloss.Color(color))
	}
	return styles{
		title:  fg(colors.text).Bold(true),
		muted:  fg(colors.muted),
		accent: fg(colors.accent).Bold(true),
		warn:   fg(colors.warn).Bold(true),
		cursor: fg(colors.cursor).Bold(true),
		marked: fg(colors.marked).Bold(true),
		match:  fg(colors.match),
		rule:   fg(colors.rule),
		frame:  lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color(colors.rule)).Padding(0, 1),
	}
}

func (model Model) View() string {
	look := newStyles(model.state.Prefs.Theme)
	if model.showHelp {
		return helpView(model, look)
	}
	return bodyView(model, look) + "\n" + statusView(model, look)
}

func bodyView(model Model, look styles) string {
	rows := maxInt(model.listHeight(), 3)
	leftWidth, rightWidth, split := splitPanels(model.width)

	var left string
	if model.mode == modeLive {
		left = livePanel(model, look, leftWidth, rows)
	} else {
		left = treePanel(model, look, leftWidth, rows)
	}
	if !split {
		return left
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, left, look.rule.Render("│"), propertyPanel(model, look, rightWidth, rows))
}

func statusView(model Model, look styles) string {
	message := ellipsize(model.status, model.width-4)
	if model.syncing {
		message += "  " + activity(model.progressCount, 18)
	}
	if isProblem(model.status) {
		message = look.warn.Render(message)
	} else {
		message = look.muted.Render(message)
	}

	hints := "↑/↓ move  enter expand  space mark  / find  n/N match  p props  P wwise sel  g show  r sync  tab live  ? help  q quit"
	switch {
	case model.focus != focusNone:
		hints = "type  enter/esc done"
	case model.mode == modeLive:
		hints = "/ type  1-9 types  enter show in Wwise  p props  y/c copy  tab explorer  q quit"
	}
	summary := fmt.Sprintf("Marked: %d  %s", len(model.state.Selected), sessionLabel(model))
	return message + "\n" + look.muted.Render(spread(summary, hints, model.width))
}

func isProblem(status string) bool {
	lower := strings.ToLower(status)
	return strings.HasPrefix(status, "Can not connect") || strings.Contains(lower, "error") || strings.Contains(lower, "failed") || strings.Contains(lower, "timed out")
}

func sessionLabel(model Model) string {
	switch {
	case model.state.Session != nil:
		return model.state.Session.String()
	case model.connected:
		return "connected"
	default:
		return "offline"
	}
}

// framed pads lines to height and draws the panel border around them.
func framed(look styles, width int, height int, lines []string) string {
	for len(lines) < height {
		lines = append(lines, "")
	}
	return look.frame.Width(maxInt(width-2, 10)).Render(strings.Join(lines, "\n"))
}

func treePanel(model Model, look styles, width int, height int) string {
	width = maxInt(width, 20)
	badge := look.accent.Render("IDLE")
	if model.syncing {
		badge = look.accent.Render("SYNCING")
	}
	lines := []string{spread(look.title.Render("waapiview")+"  "+matchSummary(model), badge, width-2)}
	if model.focus == focusFind {
		lines = append(lines, model.findInput.View())
	}

	visible := model.state.VisibleNodes()
	if len(visible) == 0 {
		if model.syncing {
			lines = append(lines, "Syncing...")
		} else {
			lines = append(lines, "No tree - press r to sync")
		}
		return framed(look, width, height, lines)
	}

	room := maxInt(height-len(lines), 1)
	first := clamp(model.viewTop, 0, len(visible)-1)
	last := minInt(first+room, len(visible))
	match, hasMatch := model.state.Navigator.Current()
	for row := first; row < last; row++ {
		lines = append(lines, treeLine(model, look, visible[row], row == model.state.Cursor, hasMatch && visible[row].Index == match))
	}
	return framed(look, width, height, lines)
}

func treeLine(model Model, look styles, item state.VisibleNode, atCursor bool, isMatch bool) string {
	node := item.Node
	mark := "   "
	if !node.IsRoot() {
		mark = "[ ]"
		if model.state.Selected[node.Path] {
			mark = look.marked.Render("[x]")
		}
	}
	name := node.Name
	if isMatch {
		name = look.match.Render(name)
	}
	line := mark + " " + strings.Repeat("  ", item.Depth) + nodeIcon(model, node) + " " + name
	if !node.IsRoot() && node.Type != "" {
		line += look.muted.Render("  " + node.Type)
	}
	if atCursor {
		return look.cursor.Render(line)
	}
	return line
}

func livePanel(model Model, look styles, width int, height int) string {
	width = maxInt(width, 20)
	live := model.engine.Live()
	count := look.accent.Render(fmt.Sprintf("%d hits", len(live.Result().Hits)))
	facets := live.Facets()
	lines := []string{
		spread(look.title.Render("Live search"), count, width-2),
		model.liveInput.View(),
		facetLine(look, facets.Discovered, facets.Active),
	}

	hits := live.Visible()
	if len(hits) == 0 {
		if live.Text() == "" {
			lines = append(lines, look.muted.Render("Type to search"))
		} else {
			lines = append(lines, look.muted.Render("No hits"))
		}
		return framed(look, width, height, lines)
	}
	room := maxInt(height-len(lines), 1)
	first := clamp(model.liveTop, 0, len(hits)-1)
	last := minInt(first+room, len(hits))
	for row := first; row < last; row++ {
		hit := hits[row]
		line := fmt.Sprintf("%-28s %-22s %s", ellipsize(hit.Name, 28), ellipsize(hit.Type, 22), ellipsize(hit.Notes, 30))
		if row == model.liveCursor {
			line = look.cursor.Render(line)
		}
		lines = append(lines, line)
	}
	return framed(look, width, height, lines)
}

// facetLine numbers the first nine types for the digit keys.
func facetLine(look styles, discovered []string, active map[string]bool) string {
	if len(discovered) == 0 {
		return look.muted.Render("types: -")
	}
	var parts []string
	for position, name := range discovered {
		box := "[ ]"
		if active[name] {
			box = look.marked.Render("[x]")
		}
		if position < 9 {
			parts = append(parts, fmt.Sprintf("%d%s %s", position+1, box, name))
		} else {
			parts = append(parts, box+" "+name)
		}
	}
	return strings.Join(parts, "  ")
}

func propertyPanel(model Model, look styles, width int, height int) string {
	lines := []string{look.title.Render("Properties")}
	switch {
	case model.focus == focusPropertyFilter:
		lines = append(lines, model.filterInput.View())
	case model.state.PropertyFilter != "":
		lines = append(lines, look.muted.Render("filter: "+model.state.PropertyFilter))
	}
	if len(model.state.Properties) == 0 {
		lines = append(lines, look.muted.Render("press p for properties"))
	} else {
		lines = append(lines, model.properties.View())
	}
	inner := maxInt(width-2, 10)
	body := lipgloss.NewStyle().Width(inner).Height(height).Render(strings.Join(lines, "\n"))
	return look.frame.Width(inner).Render(body)
}

// renderPropertyRows groups rows under their object id.
func renderPropertyRows(rows []state.PropertyRow) string {
	var out strings.Builder
	owner := ""
	for _, row := range rows {
		if row.ID != owner {
			if owner != "" {
				out.WriteString("\n")
			}
			out.WriteString(row.ID + "\n")
			owner = row.ID
		}
		fmt.Fprintf(&out, "  %-24s %s\n", row.Key, row.Value)
	}
	return strings.TrimSuffix(out.String(), "\n")
}

func helpView(model Model, look styles) string {
	keys := model.keys
	sections := []struct {
		title    string
		bindings []key.Binding
	}{
		{"Explorer", []key.Binding{keys.Up, keys.Down, keys.Enter, keys.Select, keys.ClearSelection, keys.ExpandAll, keys.CollapseAll, keys.Find, keys.NextMatch, keys.PrevMatch}},
		{"Live search", []key.Binding{keys.SwitchMode, keys.Facet}},
		{"Objects", []key.Binding{keys.Properties, keys.ToolSelection, keys.PropertyFilter, keys.ScrollUp, keys.ScrollDown, keys.GoTo, keys.CopyPath, keys.CopyID}},
		{"General", []key.Binding{keys.Refresh, keys.Cancel, keys.Help, keys.Quit}},
	}

	lines := []string{look.title.Render("waapiview Help")}
	for _, section := range sections {
		lines = append(lines, "", look.title.Render(section.title))
		for _, binding := range section.bindings {
			lines = append(lines, fmt.Sprintf("%-18s %s", strings.Join(binding.Keys(), ", "), binding.Help().Desc))
		}
	}
	lines = append(lines, "", look.muted.Render("Press ? to close help"))

	width := model.width
	if width <= 0 {
		width = 80
	}
	return look.frame.Width(maxInt(width-2, 10)).Render(strings.Join(lines, "\n"))
}

func matchSummary(model Model) string {
	navigator := model.state.Navigator
	query := navigator.Set().Query
	switch {
	case navigator.Cleared():
		return ""
	case navigator.NoMatches():
		return fmt.Sprintf("%q: no match", query)
	default:
		return fmt.Sprintf("%q: %d/%d", query, navigator.Cursor()+1, navigator.Len())
	}
}

func nodeIcon(model Model, node *domain.ObjectNode) string {
	open := model.state.IsExpanded(node.Path)
	switch {
	case node.IsRoot() && open:
		return "▾"
	case node.IsRoot():
		return "▸"
	case node.Voice:
		return "🗣"
	case node.Type == "Sound":
		return "♪"
	case node.Type == "Event":
		return "⚡"
	case len(node.Children) == 0:
		return "·"
	case open:
		return "▾"
	default:
		return "▸"
	}
}

// spread puts left and right on one line of the given width.
func spread(left, right string, width int) string {
	if width <= 0 {
		return left
	}
	gap := width - lipgloss.Width(left) - lipgloss.Width(right)
	return left + strings.Repeat(" ", maxInt(gap, 1)) + right
}

// splitPanels returns the tree and property panel widths, or false when the
// terminal is too narrow for both.
func splitPanels(width int) (int, int, bool) {
	if width < 80 {
		return width, 0, false
	}
	left := maxInt(width*3/5, 40)
	right := width - left - 1
	if right < 30 {
		return width, 0, false
	}
	return left, right, true
}

func activity(count int64, width int) string {
	if width <= 0 {
		return ""
	}
	lit := int(count % int64(width))
	return "[" + strings.Repeat("█", lit) + strings.Repeat("░", width-lit) + "]"
}

func ellipsize(text string, width int) string {
	if width <= 0 {
		return text
	}
	runes := []rune(text)
	if len(runes) <= width {
		return text
	}
	if width == 1 {
		return "…"
	}
	return string(runes[:width-1]) + "…"
}

func clamp(value, low, high int) int {
	if high < low {
		return low
	}
	return maxInt(low, minInt(value, high))
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
