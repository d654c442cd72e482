package app

import (
	"context"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/golang/glog"

	"waapiview/internal/config"
	"waapiview/internal/engine"
	"waapiview/internal/services"
	"waapiview/internal/state"
	"waapiview/internal/ui"
)

const closeTimeout = 2 * time.Second

// Options controls one interactive session.
type Options struct {
	// Save writes the final preferences back to the config file.
	Save     func(config.Config) error
	Warning  string
	ReadOnly bool
}

// NewEngine wires the background engine for cfg.
func NewEngine(cfg config.Config, client services.RemoteClient) *engine.Engine {
	return engine.New(client, engine.Options{
		Sync:           cfg.SyncOptions(),
		PropertyFields: cfg.PropertyFields,
	})
}

// Run starts the terminal UI and blocks until the user quits.
func Run(cfg config.Config, client services.RemoteClient, options Options) error {
	initialState := state.NewState(cfg)
	eng := NewEngine(cfg, client)

	model := ui.NewModel(initialState, eng, cfg).WithStatus(options.Warning)
	program := tea.NewProgram(model, tea.WithAltScreen())
	finalModel, runErr := program.Run()

	ctx, cancel := context.WithTimeout(context.Background(), closeTimeout)
	defer cancel()
	if err := eng.Close(ctx); err != nil {
		glog.Warningf("[app]close: %v", err)
	}
	if runErr != nil {
		return fmt.Errorf("waapiview: %w", runErr)
	}
	if options.ReadOnly || options.Save == nil {
		return nil
	}
	if provider, ok := finalModel.(ui.ConfigProvider); ok {
		if err := options.Save(provider.ConfigSnapshot()); err != nil {
			return fmt.Errorf("config save: %w", err)
		}
	}
	return nil
}
