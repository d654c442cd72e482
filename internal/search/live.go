package search

import (
	"sort"
	"sync"

	"github.com/golang/glog"

	"waapiview/internal/domain"
	"waapiview/internal/services"
)

// LiveFilter holds the most recent remote search result and the type facets
// built from it. Only the result of the newest issued request is applied.
type LiveFilter struct {
	mu         sync.Mutex
	issued     uint64
	text       string
	result     domain.LiveResultSet
	discovered []string
	active     map[string]bool
}

func NewLiveFilter() *LiveFilter {
	return &LiveFilter{active: make(map[string]bool)}
}

// Begin issues a sequence number for text. Empty text clears the result
// instead and returns ok=false.
func (filter *LiveFilter) Begin(text string) (seq uint64, ok bool) {
	if text == "" {
		filter.Clear()
		return 0, false
	}
	filter.mu.Lock()
	defer filter.mu.Unlock()
	filter.issued++
	filter.text = text
	return filter.issued, true
}

// Clear drops the current hits and makes every in-flight request stale.
// Facets survive.
func (filter *LiveFilter) Clear() {
	filter.mu.Lock()
	defer filter.mu.Unlock()
	filter.issued++
	filter.text = ""
	filter.result = domain.LiveResultSet{}
}

// Current reports whether seq is the newest issued request.
func (filter *LiveFilter) Current(seq uint64) bool {
	filter.mu.Lock()
	defer filter.mu.Unlock()
	return seq != 0 && seq == filter.issued
}

// Apply installs set if it answers the newest request, otherwise it returns
// services.ErrStaleResult and leaves the state alone.
func (filter *LiveFilter) Apply(set domain.LiveResultSet) error {
	filter.mu.Lock()
	defer filter.mu.Unlock()
	if set.Seq == 0 || set.Seq != filter.issued {
		glog.V(1).Infof("[live]discard result %d (%q), newest is %d", set.Seq, set.Text, filter.issued)
		return services.ErrStaleResult
	}

	hits := append([]domain.Hit{}, set.Hits...)
	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].Type < hits[j].Type
	})

	kept := filter.discovered[:0]
	for _, name := range filter.discovered {
		if filter.active[name] {
			kept = append(kept, name)
		}
	}
	filter.discovered = kept
	for _, hit := range hits {
		if !containsType(filter.discovered, hit.Type) {
			filter.discovered = append(filter.discovered, hit.Type)
		}
	}

	filter.result = domain.LiveResultSet{Seq: set.Seq, Text: set.Text, Hits: hits}
	return nil
}

// Fail reports whether a failure for seq concerns the newest request and
// should be surfaced.
func (filter *LiveFilter) Fail(seq uint64) bool {
	if filter.Current(seq) {
		return true
	}
	glog.V(1).Infof("[live]drop failure of superseded request %d", seq)
	return false
}

// SetFacetActive checks or unchecks a discovered type.
func (filter *LiveFilter) SetFacetActive(name string, active bool) bool {
	filter.mu.Lock()
	defer filter.mu.Unlock()
	if !containsType(filter.discovered, name) {
		return false
	}
	if active {
		filter.active[name] = true
	} else {
		delete(filter.active, name)
	}
	return true
}

func (filter *LiveFilter) ToggleFacet(name string) bool {
	filter.mu.Lock()
	defer filter.mu.Unlock()
	if !containsType(filter.discovered, name) {
		return false
	}
	if filter.active[name] {
		delete(filter.active, name)
	} else {
		filter.active[name] = true
	}
	return true
}

// Visible returns every hit when no facet is checked, otherwise only hits of
// checked types.
func (filter *LiveFilter) Visible() []domain.Hit {
	filter.mu.Lock()
	defer filter.mu.Unlock()
	visible := make([]domain.Hit, 0, len(filter.result.Hits))
	for _, hit := range filter.result.Hits {
		if len(filter.active) == 0 || filter.active[hit.Type] {
			visible = append(visible, hit)
		}
	}
	return visible
}

func (filter *LiveFilter) Discovered() []string {
	filter.mu.Lock()
	defer filter.mu.Unlock()
	return append([]string{}, filter.discovered...)
}

func (filter *LiveFilter) Active() map[string]bool {
	filter.mu.Lock()
	defer filter.mu.Unlock()
	return filter.activeCopy()
}

// Facets returns discovered and checked types from one consistent state.
func (filter *LiveFilter) Facets() domain.FacetState {
	filter.mu.Lock()
	defer filter.mu.Unlock()
	return domain.FacetState{Discovered: append([]string{}, filter.discovered...), Active: filter.activeCopy()}
}

func (filter *LiveFilter) activeCopy() map[string]bool {
	active := make(map[string]bool, len(filter.active))
	for name := range filter.active {
		active[name] = true
	}
	return active
}

func (filter *LiveFilter) Result() domain.LiveResultSet {
	filter.mu.Lock()
	defer filter.mu.Unlock()
	result := filter.result
	result.Hits = append([]domain.Hit{}, filter.result.Hits...)
	return result
}

func (filter *LiveFilter) Text() string {
	filter.mu.Lock()
	defer filter.mu.Unlock()
	return filter.text
}

func containsType(names []string, target string) bool {
	for _, name := range names {
		if name == target {
			return true
		}
	}
	return false
}
