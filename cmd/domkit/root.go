package main

import (
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"domkit/pkg/config"
	"domkit/pkg/resource"
	stdnet "domkit/std/net"
)

// app holds what every subcommand shares once flags are parsed.
type app struct {
	configPath string
	logLevel   string
	noScripts  bool

	cfg    *config.Config
	logger *zap.Logger
}

// newRootCmd builds the command tree. A non-nil logger replaces the one
// built from config.
func newRootCmd(logger *zap.Logger) *cobra.Command {
	a := &app{logger: logger}

	root := &cobra.Command{
		Use:           "domkit",
		Short:         "Load HTML pages and drive their DOM",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			_ = a.logger.Sync()
		},
	}
	root.PersistentFlags().StringVar(&a.configPath, "config", config.FileName, "path to the settings file")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "override the configured log level")
	root.PersistentFlags().BoolVar(&a.noScripts, "no-scripts", false, "load pages without running their scripts")

	root.AddCommand(newRunCmd(a), newFireCmd(a), newStyleCmd(a))
	return root
}

func (a *app) setup() error {
	cfg, err := config.LoadOptional(a.configPath)
	if err != nil {
		return err
	}
	if a.logLevel != "" {
		cfg.Log.Level = a.logLevel
	}
	if a.noScripts {
		disabled := false
		cfg.Script.Enabled = &disabled
	}
	a.cfg = cfg

	if a.logger == nil {
		logger, err := cfg.Log.NewLogger()
		if err != nil {
			return errors.Wrap(err, "configuring logging")
		}
		a.logger = logger
	}
	return nil
}

func (a *app) loader() *resource.Loader {
	client := stdnet.NewClient(a.cfg.Fetch.Timeout)
	client.UserAgent = a.cfg.Fetch.UserAgent
	return resource.NewLoader(
		resource.WithLogger(a.logger),
		resource.WithClient(client),
		resource.WithScripts(a.cfg.ScriptsEnabled()),
		resource.WithScriptTimeout(a.cfg.Script.Timeout),
	)
}
