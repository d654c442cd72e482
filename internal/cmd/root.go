// Package cmd holds the waapiview command line: the interactive explorer on
// the root command and one-shot subcommands for scripting.
package cmd

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/golang/glog"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"waapiview/internal/app"
	"waapiview/internal/config"
	"waapiview/internal/engine"
	"waapiview/internal/services"
)

const closeTimeout = 2 * time.Second

type rootOptions struct {
	configPath string
	demo       bool
	format     string
	flagged    config.Config
	cfg        config.Config
	warning    string
}

// NewRoot builds the top-level `waapiview` command.
func NewRoot() *cobra.Command {
	options := &rootOptions{flagged: config.DefaultConfig()}

	root := &cobra.Command{
		Use:           "waapiview",
		Short:         "Browse, inspect and search a Wwise project over WAAPI",
		SilenceErrors: true,
		SilenceUsage:  true,
		Args:          cobra.NoArgs,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return options.load(cmd)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if !term.IsTerminal(int(os.Stdout.Fd())) {
				return errors.New("the explorer needs a terminal; use tree, props, search or goto for scripted output")
			}
			return app.Run(options.cfg, options.client(), app.Options{
				Save:     options.save,
				Warning:  options.warning,
				ReadOnly: options.demo,
			})
		},
	}

	flags := root.PersistentFlags()
	config.BindFlags(flags, &options.flagged)
	flags.StringVar(&options.configPath, "config", "", "config file (default: user config dir)")
	flags.BoolVar(&options.demo, "demo", false, "use a built-in sample project instead of WAAPI")
	flags.StringVarP(&options.format, "format", "F", "text", "output format: text|json|yaml")
	flags.AddGoFlagSet(flag.CommandLine)

	root.AddCommand(
		newTreeCmd(options),
		newPropsCmd(options),
		newSearchCmd(options),
		newGoToCmd(options),
		newVersionCmd(options),
	)
	return root
}

// Execute runs the root command with ctx.
func Execute(ctx context.Context) error {
	return NewRoot().ExecuteContext(ctx)
}

func (options *rootOptions) load(cmd *cobra.Command) error {
	var loaded config.Config
	var err error
	if options.configPath != "" {
		loaded, err = config.LoadConfigFile(options.configPath)
	} else {
		loaded, err = config.LoadConfig()
	}
	if err != nil {
		glog.Warningf("[cmd]config: %v", err)
		options.warning = "Config warning: using defaults"
	}
	options.cfg = config.Overlay(cmd.Flags(), loaded, options.flagged)
	if err := options.cfg.Validate(); err != nil {
		return err
	}
	_, err = parseFormat(options.format)
	return err
}

func (options *rootOptions) save(cfg config.Config) error {
	if options.configPath != "" {
		return config.SaveConfigFile(options.configPath, cfg)
	}
	return config.SaveConfig(cfg)
}

func (options *rootOptions) client() services.RemoteClient {
	if options.demo {
		return services.NewDemoClient()
	}
	return services.NewWaapiClient(options.cfg.Waapi())
}

func (options *rootOptions) newEngine() *engine.Engine {
	return app.NewEngine(options.cfg, options.client())
}

func closeEngine(eng *engine.Engine) {
	ctx, cancel := context.WithTimeout(context.Background(), closeTimeout)
	defer cancel()
	if err := eng.Close(ctx); err != nil {
		glog.Warningf("[cmd]close: %v", err)
	}
}

// expect turns failure events into errors.
func expect(event engine.Event) (engine.Event, error) {
	switch typed := event.(type) {
	case engine.ConnectionFailed:
		return nil, errors.New(typed.Message)
	case engine.Failed:
		return nil, errors.New(typed.Message)
	case engine.Discarded:
		return nil, fmt.Errorf("%s interrupted", typed.Op)
	}
	return event, nil
}
