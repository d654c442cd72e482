// Package search implements offline match navigation over the mirrored tree
// and the faceted view over live remote search results.
package search

import (
	"strings"

	"waapiview/internal/domain"
)

// Navigator finds nodes by display name and steps through the matches.
type Navigator struct {
	forest *domain.Forest
	set    domain.SearchMatchSet
}

func NewNavigator(forest *domain.Forest) *Navigator {
	return &Navigator{forest: forest}
}

// SetForest swaps in a rebuilt tree and re-runs the current query on it.
func (navigator *Navigator) SetForest(forest *domain.Forest) domain.SearchMatchSet {
	navigator.forest = forest
	return navigator.Search(navigator.set.Query)
}

// Search recomputes the match set from scratch. Empty text clears it.
func (navigator *Navigator) Search(text string) domain.SearchMatchSet {
	if text == "" {
		navigator.Reset()
		return navigator.Set()
	}
	query := strings.ToLower(text)
	matches := []int{}
	navigator.forest.Walk(func(index int, depth int) bool {
		if strings.Contains(strings.ToLower(navigator.forest.Node(index).Name), query) {
			matches = append(matches, index)
		}
		return true
	})
	navigator.set = domain.SearchMatchSet{Query: text, Matches: matches}
	return navigator.Set()
}

func (navigator *Navigator) Reset() {
	navigator.set = domain.SearchMatchSet{}
}

func (navigator *Navigator) Set() domain.SearchMatchSet {
	set := navigator.set
	set.Matches = append([]int(nil), navigator.set.Matches...)
	return set
}

// Cleared reports that no search text is active.
func (navigator *Navigator) Cleared() bool {
	return navigator.set.Query == ""
}

func (navigator *Navigator) NoMatches() bool {
	return navigator.set.Query != "" && len(navigator.set.Matches) == 0
}

func (navigator *Navigator) Len() int {
	return len(navigator.set.Matches)
}

// Current returns the selected node index.
func (navigator *Navigator) Current() (int, bool) {
	if len(navigator.set.Matches) == 0 {
		return domain.NoParent, false
	}
	return navigator.set.Matches[navigator.set.Cursor], true
}

func (navigator *Navigator) Cursor() int {
	return navigator.set.Cursor
}

func (navigator *Navigator) Next() (int, bool) {
	return navigator.move(1)
}

func (navigator *Navigator) Previous() (int, bool) {
	return navigator.move(-1)
}

func (navigator *Navigator) move(step int) (int, bool) {
	count := len(navigator.set.Matches)
	if count == 0 {
		return domain.NoParent, false
	}
	cursor := navigator.set.Cursor + step
	if cursor >= count {
		cursor = 0
	}
	if cursor < 0 {
		cursor = count - 1
	}
	navigator.set.Cursor = cursor
	return navigator.set.Matches[cursor], true
}
