package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/go-playground/assert/v2"

	"waapiview/internal/domain"
	"waapiview/internal/engine"
)

func runDemo(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := NewRoot()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	configPath := filepath.Join(t.TempDir(), "config.json")
	root.SetArgs(append([]string{"--demo", "--config", configPath}, args...))
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestTreeJSON(t *testing.T) {
	out, err := runDemo(t, "--root", `\Events`, "-F", "json", "tree")
	assert.Equal(t, err, nil)

	var rows []treeRow
	assert.Equal(t, json.Unmarshal([]byte(out), &rows), nil)
	assert.Equal(t, len(rows), 4)
	assert.Equal(t, rows[0].Name, "Events")
	assert.Equal(t, rows[0].Depth, 0)
	assert.Equal(t, rows[2].ID, "{E2}")
	assert.Equal(t, rows[2].Path, `\Events\Default Work Unit\Play_Footstep`)
	assert.Equal(t, rows[3].Depth, 2)
}

func TestTreeTextDepth(t *testing.T) {
	out, err := runDemo(t, "--root", `\SoundBanks`, "tree", "--depth", "1")
	assert.Equal(t, err, nil)
	assert.Equal(t, out, "SoundBanks\n  Default Work Unit  (WorkUnit)\n")
}

func TestSearchTypeFilter(t *testing.T) {
	out, err := runDemo(t, "-F", "json", "search", "foot", "--type", "Sound")
	assert.Equal(t, err, nil)

	var hits []domain.Hit
	assert.Equal(t, json.Unmarshal([]byte(out), &hits), nil)
	assert.Equal(t, len(hits), 4)
	for _, hit := range hits {
		assert.Equal(t, hit.Type, "Sound")
	}
}

func TestSearchUnknownType(t *testing.T) {
	_, err := runDemo(t, "search", "foot", "--type", "Bus")
	assert.NotEqual(t, err, nil)
}

func TestPropsByID(t *testing.T) {
	out, err := runDemo(t, "-F", "json", "props", "{A9}")
	assert.Equal(t, err, nil)

	var records []domain.PropertyRecord
	assert.Equal(t, json.Unmarshal([]byte(out), &records), nil)
	assert.Equal(t, len(records), 1)
	assert.Equal(t, records[0].ID, "{A9}")
	assert.Equal(t, records[0].Values["name"], "Forest_Loop")
	assert.Equal(t, records[0].Values["@IsLoopingEnabled"], true)
}

func TestPropsSelectedText(t *testing.T) {
	out, err := runDemo(t, "--field", "name", "props", "--selected")
	assert.Equal(t, err, nil)
	assert.Equal(t, out, "{A3}\n  name                     Footstep_Grass_01\n")
}

func TestPropertyRecordsWhenNothingSelected(t *testing.T) {
	records := propertyRecords(engine.NothingSelected{})
	assert.Equal(t, records != nil, true)
	assert.Equal(t, len(records), 0)

	ready := engine.PropertiesReady{Records: []domain.PropertyRecord{{ID: "{A3}"}}, Selected: true}
	assert.Equal(t, len(propertyRecords(ready)), 1)
}

func TestPropsNeedsOneSource(t *testing.T) {
	_, err := runDemo(t, "props")
	assert.NotEqual(t, err, nil)

	_, err = runDemo(t, "props", "--selected", "{A1}")
	assert.NotEqual(t, err, nil)
}

func TestGoTo(t *testing.T) {
	out, err := runDemo(t, "goto", "{A1}", "{A2}")
	assert.Equal(t, err, nil)
	assert.Equal(t, out, "revealed 2 objects\n")
}

func TestVersion(t *testing.T) {
	out, err := runDemo(t, "version")
	assert.Equal(t, err, nil)
	assert.Equal(t, out, "Wwise v2023.1.0 Build 8367 at demo\n")

	out, err = runDemo(t, "-F", "yaml", "version")
	assert.Equal(t, err, nil)
	assert.Equal(t, bytes.Contains([]byte(out), []byte("build: 8367")), true)
	assert.Equal(t, bytes.Contains([]byte(out), []byte("semver: 2023.1.0")), true)
}

func TestVersionRequire(t *testing.T) {
	_, err := runDemo(t, "version", "--require", ">=2021.1")
	assert.Equal(t, err, nil)

	_, err = runDemo(t, "version", "--require", "<2020")
	assert.NotEqual(t, err, nil)

	_, err = runDemo(t, "version", "--require", "not a range")
	assert.NotEqual(t, err, nil)
}

func TestRejectsBadFlags(t *testing.T) {
	_, err := runDemo(t, "-F", "xml", "version")
	assert.NotEqual(t, err, nil)

	_, err = runDemo(t, "--url", "http://localhost:8080", "version")
	assert.NotEqual(t, err, nil)
}
