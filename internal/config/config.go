package config

import (
	"encoding/json"
	"time"
)

type Config struct {
	URL            string            `json:"url"`
	Realm          string            `json:"realm"`
	RootPaths      []string          `json:"rootPaths"`
	PropertyFields []string          `json:"propertyFields"`
	ClassifyVoices bool              `json:"classifyVoices"`
	CallTimeout    Duration          `json:"callTimeout"`
	Theme          string            `json:"theme"`
	KeyBindings    map[string]string `json:"keyBindings"`
	LastSearch     string            `json:"lastSearch"`
}

type fileConfig struct {
	URL            *string           `json:"url"`
	Realm          *string           `json:"realm"`
	RootPaths      []string          `json:"rootPaths"`
	PropertyFields []string          `json:"propertyFields"`
	ClassifyVoices *bool             `json:"classifyVoices"`
	CallTimeout    *Duration         `json:"callTimeout"`
	Theme          *string           `json:"theme"`
	KeyBindings    map[string]string `json:"keyBindings"`
	LastSearch     *string           `json:"lastSearch"`
}

// Duration is stored as a Go duration string such as "10s".
type Duration time.Duration

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

func (d *Duration) UnmarshalJSON(data []byte) error {
	var text string
	if err := json.Unmarshal(data, &text); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(text)
	if err != nil {
		return err
	}
	*d = Duration(parsed)
	return nil
}
