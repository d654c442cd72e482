package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"waapiview/internal/services"
)

const (
	configDirName  = "waapiview"
	configFileName = "config.json"
)

var defaultRootPaths = []string{
	`\Actor-Mixer Hierarchy`,
	`\Interactive Music Hierarchy`,
	`\Events`,
	`\SoundBanks`,
	`\Switches`,
	`\States`,
	`\Game Parameters`,
	`\Triggers`,
	`\Effects`,
	`\Attenuations`,
	`\Master-Mixer Hierarchy`,
}

func DefaultConfig() Config {
	return Config{
		URL:         services.DefaultWaapiURL,
		Realm:       services.DefaultRealm,
		RootPaths:   append([]string{}, defaultRootPaths...),
		CallTimeout: Duration(10 * time.Second),
		Theme:       "dark",
		KeyBindings: map[string]string{},
	}
}

// ConfigPath is config.json under the user config dir.
func ConfigPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("locate config dir: %w", err)
	}
	return filepath.Join(dir, configDirName, configFileName), nil
}

func LoadConfig() (Config, error) {
	location, err := ConfigPath()
	if err != nil {
		return DefaultConfig(), err
	}
	return LoadConfigFile(location)
}

// LoadConfigFile merges the file at path over the defaults. A missing file
// yields the defaults.
func LoadConfigFile(path string) (Config, error) {
	defaults := DefaultConfig()
	raw, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return defaults, nil
	case err != nil:
		return defaults, err
	}
	var stored fileConfig
	if err := json.Unmarshal(raw, &stored); err != nil {
		return defaults, fmt.Errorf("%s: %w", path, err)
	}
	return mergeConfig(defaults, stored), nil
}

func SaveConfig(cfg Config) error {
	location, err := ConfigPath()
	if err != nil {
		return err
	}
	return SaveConfigFile(location, cfg)
}

// SaveConfigFile replaces path atomically so a crash never leaves half a file.
func SaveConfigFile(path string, cfg Config) error {
	raw, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, ".waapiview-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp: %w", err)
	}
	if _, err := tmp.Write(append(raw, '\n')); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("write temp: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("close temp: %w", err)
	}
	if err := os.Chmod(tmp.Name(), 0o600); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("replace %s: %w", path, err)
	}
	return nil
}

func mergeConfig(defaults Config, stored fileConfig) Config {
	merged := defaults
	if stored.URL != nil {
		merged.URL = *stored.URL
	}
	if stored.Realm != nil {
		merged.Realm = *stored.Realm
	}
	if stored.RootPaths != nil {
		merged.RootPaths = stored.RootPaths
	}
	if stored.PropertyFields != nil {
		merged.PropertyFields = stored.PropertyFields
	}
	if stored.ClassifyVoices != nil {
		merged.ClassifyVoices = *stored.ClassifyVoices
	}
	if stored.CallTimeout != nil {
		merged.CallTimeout = *stored.CallTimeout
	}
	if stored.Theme != nil {
		merged.Theme = *stored.Theme
	}
	if stored.KeyBindings != nil {
		merged.KeyBindings = stored.KeyBindings
	}
	if stored.LastSearch != nil {
		merged.LastSearch = *stored.LastSearch
	}
	return merged
}

func (config Config) Validate() error {
	if !strings.HasPrefix(config.URL, "ws://") && !strings.HasPrefix(config.URL, "wss://") {
		return fmt.Errorf("url %q: want ws:// or wss://", config.URL)
	}
	if config.CallTimeout <= 0 {
		return fmt.Errorf("callTimeout must be positive")
	}
	for _, root := range config.RootPaths {
		if !strings.HasPrefix(root, `\`) {
			return fmt.Errorf("root path %q must start with a backslash", root)
		}
	}
	return nil
}

func (config Config) Waapi() *services.WaapiSettings {
	settings := services.DefaultWaapiSettings()
	settings.URL = config.URL
	if config.Realm != "" {
		settings.Realm = config.Realm
	}
	settings.CallTimeout = time.Duration(config.CallTimeout)
	return settings
}

func (config Config) SyncOptions() services.SyncOptions {
	return services.SyncOptions{RootPaths: config.RootPaths, ClassifyVoices: config.ClassifyVoices}
}
