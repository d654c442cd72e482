package search

import (
	"errors"
	"sync"
	"testing"

	"github.com/go-playground/assert/v2"

	"waapiview/internal/domain"
	"waapiview/internal/services"
)

func hit(name, kind string) domain.Hit {
	return domain.Hit{Name: name, Type: kind, ID: "{" + name + "}", Path: `\` + name}
}

func hitNames(hits []domain.Hit) []string {
	result := []string{}
	for _, item := range hits {
		result = append(result, item.Name)
	}
	return result
}

func TestFootScenario(t *testing.T) {
	filter := NewLiveFilter()
	seq, ok := filter.Begin("foot")
	assert.Equal(t, ok, true)

	err := filter.Apply(domain.LiveResultSet{Seq: seq, Text: "foot", Hits: []domain.Hit{hit("Footstep", "Sound"), hit("Play_Footstep", "Event")}})
	assert.Equal(t, err, nil)
	assert.Equal(t, filter.Discovered(), []string{"Event", "Sound"})
	assert.Equal(t, len(filter.Visible()), 2)

	assert.Equal(t, filter.SetFacetActive("Sound", true), true)
	assert.Equal(t, filter.Active(), map[string]bool{"Sound": true})
	assert.Equal(t, hitNames(filter.Visible()), []string{"Footstep"})

	assert.Equal(t, filter.SetFacetActive("Sound", false), true)
	assert.Equal(t, len(filter.Visible()), 2)
}

func TestHitsSortedByTypeStable(t *testing.T) {
	filter := NewLiveFilter()
	seq, _ := filter.Begin("x")
	filter.Apply(domain.LiveResultSet{Seq: seq, Hits: []domain.Hit{
		hit("s1", "Sound"), hit("e1", "Event"), hit("s2", "Sound"), hit("b1", "Bus"), hit("e2", "Event"),
	}})
	assert.Equal(t, hitNames(filter.Visible()), []string{"b1", "e1", "e2", "s1", "s2"})
	assert.Equal(t, filter.Discovered(), []string{"Bus", "Event", "Sound"})
}

func TestStaleResultIsDiscarded(t *testing.T) {
	filter := NewLiveFilter()
	first, _ := filter.Begin("fo")
	second, _ := filter.Begin("foo")
	assert.Equal(t, second > first, true)

	err := filter.Apply(domain.LiveResultSet{Seq: second, Text: "foo", Hits: []domain.Hit{hit("B", "Sound")}})
	assert.Equal(t, err, nil)

	err = filter.Apply(domain.LiveResultSet{Seq: first, Text: "fo", Hits: []domain.Hit{hit("A", "Event")}})
	assert.Equal(t, errors.Is(err, services.ErrStaleResult), true)
	assert.Equal(t, hitNames(filter.Visible()), []string{"B"})
	assert.Equal(t, filter.Discovered(), []string{"Sound"})
	assert.Equal(t, filter.Result().Seq, second)
}

func TestOlderResultArrivingFirstIsDiscarded(t *testing.T) {
	filter := NewLiveFilter()
	first, _ := filter.Begin("fo")
	second, _ := filter.Begin("foo")

	err := filter.Apply(domain.LiveResultSet{Seq: first, Hits: []domain.Hit{hit("A", "Event")}})
	assert.Equal(t, errors.Is(err, services.ErrStaleResult), true)
	assert.Equal(t, len(filter.Visible()), 0)

	assert.Equal(t, filter.Apply(domain.LiveResultSet{Seq: second, Hits: []domain.Hit{hit("B", "Sound")}}), nil)
	assert.Equal(t, hitNames(filter.Visible()), []string{"B"})
}

func TestUncheckedFacetsRebuiltCheckedPersist(t *testing.T) {
	filter := NewLiveFilter()
	seq, _ := filter.Begin("a")
	filter.Apply(domain.LiveResultSet{Seq: seq, Hits: []domain.Hit{hit("e", "Event"), hit("s", "Sound"), hit("w", "WorkUnit")}})
	filter.SetFacetActive("Sound", true)

	seq, _ = filter.Begin("b")
	filter.Apply(domain.LiveResultSet{Seq: seq, Hits: []domain.Hit{hit("f", "Folder"), hit("e2", "Event")}})

	// Sound is checked and stays although R2 has no Sound hits. WorkUnit was
	// unchecked and is gone; Event is rediscovered after the checked facet.
	assert.Equal(t, filter.Discovered(), []string{"Sound", "Event", "Folder"})
	assert.Equal(t, filter.Active(), map[string]bool{"Sound": true})
	assert.Equal(t, len(filter.Visible()), 0)

	filter.SetFacetActive("Sound", false)
	seq, _ = filter.Begin("c")
	filter.Apply(domain.LiveResultSet{Seq: seq, Hits: []domain.Hit{hit("f2", "Folder")}})
	assert.Equal(t, filter.Discovered(), []string{"Folder"})
}

func TestSetFacetActiveRequiresDiscoveredType(t *testing.T) {
	filter := NewLiveFilter()
	assert.Equal(t, filter.SetFacetActive("Sound", true), false)
	assert.Equal(t, len(filter.Active()), 0)

	seq, _ := filter.Begin("a")
	filter.Apply(domain.LiveResultSet{Seq: seq, Hits: []domain.Hit{hit("s", "Sound")}})
	assert.Equal(t, filter.ToggleFacet("Sound"), true)
	assert.Equal(t, filter.Active()["Sound"], true)
	filter.ToggleFacet("Sound")
	assert.Equal(t, filter.Active()["Sound"], false)
}

func TestConcurrentTogglesAreNotLost(t *testing.T) {
	filter := NewLiveFilter()
	seq, _ := filter.Begin("a")
	filter.Apply(domain.LiveResultSet{Seq: seq, Hits: []domain.Hit{hit("s", "Sound")}})

	const toggles = 200
	var wg sync.WaitGroup
	for i := 0; i < toggles; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			filter.ToggleFacet("Sound")
		}()
	}
	wg.Wait()
	assert.Equal(t, filter.Facets().Active["Sound"], false)

	filter.ToggleFacet("Sound")
	facets := filter.Facets()
	assert.Equal(t, facets.Discovered, []string{"Sound"})
	assert.Equal(t, facets.Active, map[string]bool{"Sound": true})
}

func TestClearKeepsFacetsAndStalesInFlight(t *testing.T) {
	filter := NewLiveFilter()
	seq, _ := filter.Begin("a")
	filter.Apply(domain.LiveResultSet{Seq: seq, Hits: []domain.Hit{hit("s", "Sound")}})
	filter.SetFacetActive("Sound", true)

	inFlight, _ := filter.Begin("ab")
	_, ok := filter.Begin("")
	assert.Equal(t, ok, false)
	assert.Equal(t, len(filter.Visible()), 0)
	assert.Equal(t, filter.Text(), "")
	assert.Equal(t, filter.Discovered(), []string{"Sound"})
	assert.Equal(t, filter.Active(), map[string]bool{"Sound": true})

	err := filter.Apply(domain.LiveResultSet{Seq: inFlight, Hits: []domain.Hit{hit("late", "Sound")}})
	assert.Equal(t, errors.Is(err, services.ErrStaleResult), true)
	assert.Equal(t, filter.Fail(inFlight), false)
}

func TestFailOnlySurfacesCurrent(t *testing.T) {
	filter := NewLiveFilter()
	first, _ := filter.Begin("a")
	assert.Equal(t, filter.Fail(first), true)
	second, _ := filter.Begin("ab")
	assert.Equal(t, filter.Fail(first), false)
	assert.Equal(t, filter.Fail(second), true)
	assert.Equal(t, filter.Current(0), false)
}
