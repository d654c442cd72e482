package services

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"waapiview/internal/domain"
)

// MockClient is an in-memory RemoteClient. Searches without a canned result
// fall back to a substring match over every known object.
type MockClient struct {
	mu          sync.Mutex
	Version     domain.VersionInfo
	Children    map[string][]domain.ObjectInfo
	Properties  map[string]map[string]any
	Hits        map[string][]domain.Hit
	Selected    []string
	SearchDelay map[string]time.Duration
	ConnectErr  error
	ChildErr    map[string]error
	PropertyErr map[string]error
	SearchErr   map[string]error

	connected bool
	calls     []string
	goTo      [][]string
}

func NewMockClient() *MockClient {
	return &MockClient{
		Version:     domain.VersionInfo{DisplayName: "Wwise", Version: "v2023.1.0 Build 8367", Year: 2023, Build: 8367, Platform: "x64"},
		Children:    make(map[string][]domain.ObjectInfo),
		Properties:  make(map[string]map[string]any),
		Hits:        make(map[string][]domain.Hit),
		SearchDelay: make(map[string]time.Duration),
		ChildErr:    make(map[string]error),
		PropertyErr: make(map[string]error),
		SearchErr:   make(map[string]error),
	}
}

// AddObject registers info as the last child of parent.
func (client *MockClient) AddObject(parent string, info domain.ObjectInfo, properties map[string]any) {
	client.mu.Lock()
	defer client.mu.Unlock()
	client.Children[parent] = append(client.Children[parent], info)
	values := map[string]any{"id": info.ID, "name": info.Name, "type": info.Type, "path": info.Path}
	for name, value := range properties {
		values[name] = value
	}
	client.Properties[info.ID] = values
}

func (client *MockClient) Calls() []string {
	client.mu.Lock()
	defer client.mu.Unlock()
	return append([]string{}, client.calls...)
}

func (client *MockClient) GoToRequests() [][]string {
	client.mu.Lock()
	defer client.mu.Unlock()
	return append([][]string{}, client.goTo...)
}

func (client *MockClient) record(call string) error {
	client.mu.Lock()
	defer client.mu.Unlock()
	client.calls = append(client.calls, call)
	if !client.connected {
		return &ConnectionError{URL: "mock", Err: ErrNotConnected}
	}
	return nil
}

// Drop simulates a lost connection. Calls fail until Connect succeeds again.
func (client *MockClient) Drop() {
	client.mu.Lock()
	defer client.mu.Unlock()
	client.connected = false
}

func (client *MockClient) Connect(ctx context.Context) (domain.VersionInfo, error) {
	client.mu.Lock()
	defer client.mu.Unlock()
	client.calls = append(client.calls, "connect")
	if client.ConnectErr != nil {
		return domain.VersionInfo{}, &ConnectionError{URL: "mock", Err: client.ConnectErr}
	}
	client.connected = true
	return client.Version, nil
}

func (client *MockClient) GetChildren(ctx context.Context, path string) ([]domain.ObjectInfo, error) {
	if err := client.record("children " + path); err != nil {
		return nil, err
	}
	client.mu.Lock()
	defer client.mu.Unlock()
	if err := client.ChildErr[path]; err != nil {
		return nil, err
	}
	return append([]domain.ObjectInfo{}, client.Children[path]...), nil
}

func (client *MockClient) GetProperty(ctx context.Context, id string, name string) (any, error) {
	if err := client.record("property " + id + " " + name); err != nil {
		return nil, err
	}
	client.mu.Lock()
	defer client.mu.Unlock()
	if err := client.PropertyErr[id]; err != nil {
		return nil, err
	}
	values, ok := client.Properties[id]
	if !ok {
		return nil, fmt.Errorf("object %s not found", id)
	}
	return values["@"+name], nil
}

func (client *MockClient) GetProperties(ctx context.Context, id string) (map[string]any, error) {
	if err := client.record("properties " + id); err != nil {
		return nil, err
	}
	client.mu.Lock()
	defer client.mu.Unlock()
	if err := client.PropertyErr[id]; err != nil {
		return nil, err
	}
	values, ok := client.Properties[id]
	if !ok {
		return nil, fmt.Errorf("object %s not found", id)
	}
	copied := make(map[string]any, len(values))
	for name, value := range values {
		copied[name] = value
	}
	return copied, nil
}

func (client *MockClient) GetFields(ctx context.Context, id string, fields []string) (map[string]any, error) {
	if err := client.record("fields " + id + " " + strings.Join(fields, ",")); err != nil {
		return nil, err
	}
	client.mu.Lock()
	defer client.mu.Unlock()
	if err := client.PropertyErr[id]; err != nil {
		return nil, err
	}
	values, ok := client.Properties[id]
	if !ok {
		return nil, fmt.Errorf("object %s not found", id)
	}
	selected := make(map[string]any, len(fields))
	for _, field := range fields {
		if value, ok := values[field]; ok {
			selected[field] = value
		}
	}
	return selected, nil
}

func (client *MockClient) GetSelected(ctx context.Context, fields []string) ([]map[string]any, error) {
	if err := client.record("selected"); err != nil {
		return nil, err
	}
	client.mu.Lock()
	defer client.mu.Unlock()
	objects := make([]map[string]any, 0, len(client.Selected))
	for _, id := range client.Selected {
		values := client.Properties[id]
		object := make(map[string]any, len(fields))
		for _, field := range fields {
			if value, ok := values[field]; ok {
				object[field] = value
			}
		}
		objects = append(objects, object)
	}
	return objects, nil
}

func (client *MockClient) Search(ctx context.Context, text string) ([]domain.Hit, error) {
	if err := client.record("search " + text); err != nil {
		return nil, err
	}
	client.mu.Lock()
	delay := client.SearchDelay[text]
	client.mu.Unlock()
	if delay > 0 {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay):
		}
	}

	client.mu.Lock()
	defer client.mu.Unlock()
	if err := client.SearchErr[text]; err != nil {
		return nil, err
	}
	if hits, ok := client.Hits[text]; ok {
		return append([]domain.Hit{}, hits...), nil
	}
	return client.scan(text), nil
}

func (client *MockClient) scan(text string) []domain.Hit {
	query := strings.ToLower(text)
	parents := make([]string, 0, len(client.Children))
	for parent := range client.Children {
		parents = append(parents, parent)
	}
	sort.Strings(parents)
	hits := []domain.Hit{}
	for _, parent := range parents {
		for _, info := range client.Children[parent] {
			if !strings.Contains(strings.ToLower(info.Name), query) {
				continue
			}
			notes, _ := client.Properties[info.ID]["notes"].(string)
			hits = append(hits, domain.Hit{Name: info.Name, Type: info.Type, Notes: notes, Path: info.Path, ID: info.ID})
		}
	}
	return hits
}

func (client *MockClient) GoToObjects(ctx context.Context, ids []string) error {
	if err := client.record("goto " + strings.Join(ids, ",")); err != nil {
		return err
	}
	client.mu.Lock()
	defer client.mu.Unlock()
	client.goTo = append(client.goTo, append([]string{}, ids...))
	return nil
}

func (client *MockClient) Disconnect() error {
	client.mu.Lock()
	defer client.mu.Unlock()
	client.calls = append(client.calls, "disconnect")
	client.connected = false
	return nil
}

// NewDemoClient returns a MockClient holding a small sample project.
func NewDemoClient() *MockClient {
	client := NewMockClient()
	add := func(parent, id, name, kind string, properties map[string]any) string {
		path := parent + `\` + name
		client.AddObject(parent, domain.ObjectInfo{ID: id, Name: name, Type: kind, Path: path}, properties)
		return path
	}
	amh := `\Actor-Mixer Hierarchy`
	wu := add(amh, "{A1}", "Default Work Unit", "WorkUnit", nil)
	footsteps := add(wu, "{A2}", "Footsteps", "RandomSequenceContainer", map[string]any{"@RandomOrSequence": 1, "notes": "player locomotion"})
	add(footsteps, "{A3}", "Footstep_Grass_01", "Sound", map[string]any{"@IsVoice": false, "@Volume": -3.0})
	add(footsteps, "{A4}", "Footstep_Grass_02", "Sound", map[string]any{"@IsVoice": false, "@Volume": -3.5})
	add(footsteps, "{A5}", "Footstep_Stone_01", "Sound", map[string]any{"@IsVoice": false, "@Volume": -1.0})
	dialogue := add(wu, "{A6}", "Dialogue", "ActorMixer", map[string]any{"notes": "localized lines"})
	add(dialogue, "{A7}", "VO_Intro_Footsteps", "Sound", map[string]any{"@IsVoice": true, "notes": "intro line"})
	ambience := add(wu, "{A8}", "Ambience", "BlendContainer", nil)
	add(ambience, "{A9}", "Forest_Loop", "Sound", map[string]any{"@IsVoice": false, "@IsLoopingEnabled": true})

	events := `\Events`
	ewu := add(events, "{E1}", "Default Work Unit", "WorkUnit", nil)
	add(ewu, "{E2}", "Play_Footstep", "Event", map[string]any{"notes": "triggered by animation"})
	add(ewu, "{E3}", "Play_Forest", "Event", nil)

	banks := `\SoundBanks`
	bwu := add(banks, "{B1}", "Default Work Unit", "WorkUnit", nil)
	add(bwu, "{B2}", "Main", "SoundBank", nil)

	client.Selected = []string{"{A3}"}
	return client
}
