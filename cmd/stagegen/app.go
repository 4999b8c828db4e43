package main

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/syssam/stagegen/compiler/gen"
)

// environment is the state shared by every command, built once before the
// command runs.
type environment struct {
	configPath string
	config     projectConfig
	logger     *slog.Logger
	color      bool
	opts       []gen.Option
}

var env = &environment{logger: slog.New(slog.DiscardHandler)}

// setup reads the configuration file and persistent flags. Flags take
// precedence over the configuration file.
func setup(cmd *cobra.Command, _ []string) error {
	flags := cmd.Root().PersistentFlags()
	path, err := flags.GetString("config")
	if err != nil {
		return fmt.Errorf("failed to get config flag: %w", err)
	}
	if path == "" {
		found, ok, err := findConfig(".")
		if err != nil {
			return err
		}
		if ok {
			path = found
		}
	}
	var cfg projectConfig
	if path != "" {
		if cfg, err = loadConfig(path); err != nil {
			return err
		}
	}

	level, _ := flags.GetString("log-level")
	if level == "" {
		level = cfg.Log.Level
	}
	format, _ := flags.GetString("log-format")
	if format == "" {
		format = cfg.Log.Format
	}
	logger := newLogger(strings.ToLower(level), strings.ToLower(format), cmd.ErrOrStderr())

	colorFlag, _ := flags.GetString("color")
	mode, err := readColorMode(colorFlag)
	if err != nil {
		return err
	}

	opts := append(cfg.options(), gen.WithLogger(logger))
	if flags.Changed("workers") {
		n, _ := flags.GetInt("workers")
		opts = append(opts, gen.WithWorkers(n))
	}
	tags, _ := flags.GetStringSlice("tags")
	if len(tags) > 0 {
		opts = append(opts, gen.WithBuildFlags("-tags="+strings.Join(tags, ",")))
	}

	env = &environment{
		configPath: path,
		config:     cfg,
		logger:     logger,
		color:      useColor(mode, cmd.ErrOrStderr()),
		opts:       opts,
	}
	if path != "" {
		logger.Debug("loaded configuration", slog.String("path", path))
	}
	return nil
}
