package config

import (
	"time"

	"github.com/spf13/pflag"
)

// BindFlags registers flags that override cfg once the flag set is parsed.
func BindFlags(flags *pflag.FlagSet, cfg *Config) {
	flags.StringVar(&cfg.URL, "url", cfg.URL, "WAAPI WebSocket endpoint")
	flags.StringVar(&cfg.Realm, "realm", cfg.Realm, "WAMP realm")
	flags.StringSliceVar(&cfg.RootPaths, "root", cfg.RootPaths, "Root path to mirror (repeatable, replaces the configured list)")
	flags.StringSliceVar(&cfg.PropertyFields, "field", cfg.PropertyFields, "Only fetch these property fields (repeatable)")
	flags.BoolVar(&cfg.ClassifyVoices, "classify-voices", cfg.ClassifyVoices, "Mark voice sounds while mirroring")
	flags.DurationVar((*time.Duration)(&cfg.CallTimeout), "timeout", time.Duration(cfg.CallTimeout), "Per-call timeout")
	flags.StringVar(&cfg.Theme, "theme", cfg.Theme, "Color theme (dark or light)")
}

// Overlay copies the flags that were set on the command line from flagged
// onto cfg, so a config file loaded after parsing does not hide them.
func Overlay(flags *pflag.FlagSet, cfg Config, flagged Config) Config {
	if flags.Changed("url") {
		cfg.URL = flagged.URL
	}
	if flags.Changed("realm") {
		cfg.Realm = flagged.Realm
	}
	if flags.Changed("root") {
		cfg.RootPaths = flagged.RootPaths
	}
	if flags.Changed("field") {
		cfg.PropertyFields = flagged.PropertyFields
	}
	if flags.Changed("classify-voices") {
		cfg.ClassifyVoices = flagged.ClassifyVoices
	}
	if flags.Changed("timeout") {
		cfg.CallTimeout = flagged.CallTimeout
	}
	if flags.Changed("theme") {
		cfg.Theme = flagged.Theme
	}
	return cfg
}
