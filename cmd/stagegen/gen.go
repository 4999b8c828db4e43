package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/syssam/stagegen/compiler/diag"
	"github.com/syssam/stagegen/compiler/gen"
	"github.com/syssam/stagegen/compiler/load"
)

var genCmd = &cobra.Command{
	Use:   "gen [packages]",
	Short: "Generate staged builders for the targets in packages",
	Long:  `Generate a <type>_builder.go file next to every struct type annotated with //stagegen:builder. Packages default to the current directory.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runRound(cmd, args, true)
	},
}

var checkCmd = &cobra.Command{
	Use:   "check [packages]",
	Short: "Validate targets without writing files",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runRound(cmd, args, false)
	},
}

func init() {
	for _, c := range []*cobra.Command{genCmd, checkCmd, watchCmd} {
		c.Flags().String("descriptors", "", "read targets from a descriptor file (json|yaml|msgpack) instead of loading packages")
		c.Flags().String("format", "pretty", "diagnostics output format (pretty|json)")
		c.Flags().Int("max-diagnostics", 0, "maximum number of diagnostics to show (0=all)")
	}
}

// roundOptions are the flags shared by gen, check and watch.
type roundOptions struct {
	descriptors string
	format      string
	max         int
	write       bool
}

func readRoundOptions(cmd *cobra.Command, write bool) (roundOptions, error) {
	opts := roundOptions{write: write}
	var err error
	if opts.descriptors, err = cmd.Flags().GetString("descriptors"); err != nil {
		return opts, fmt.Errorf("failed to get descriptors flag: %w", err)
	}
	if opts.format, err = cmd.Flags().GetString("format"); err != nil {
		return opts, fmt.Errorf("failed to get format flag: %w", err)
	}
	opts.format = strings.ToLower(opts.format)
	if opts.format != "pretty" && opts.format != "json" {
		return opts, fmt.Errorf("unknown format %q (expected pretty|json)", opts.format)
	}
	if opts.max, err = cmd.Flags().GetInt("max-diagnostics"); err != nil {
		return opts, fmt.Errorf("failed to get max-diagnostics flag: %w", err)
	}
	return opts, nil
}

func runRound(cmd *cobra.Command, args []string, write bool) error {
	opts, err := readRoundOptions(cmd, write)
	if err != nil {
		return err
	}
	g, err := gen.NewGenerator(env.opts...)
	if err != nil {
		return err
	}
	res, err := round(cmd.Context(), g, args, opts)
	if err != nil {
		return err
	}
	if err := report(cmd.OutOrStdout(), cmd.ErrOrStderr(), res.Diagnostics, opts); err != nil {
		return err
	}
	if res.HasErrors() {
		return errDiagnostics
	}
	return nil
}

// round loads the targets, runs one generation round and, when requested,
// writes the artifacts. Artifacts of healthy targets are written even when
// sibling targets failed.
func round(ctx context.Context, g *gen.Generator, args []string, opts roundOptions) (*gen.Result, error) {
	ds, err := descriptors(ctx, g.Config(), args, opts.descriptors)
	if err != nil {
		return nil, err
	}
	res, err := g.Round(ctx, ds)
	if err != nil {
		return nil, err
	}
	if opts.write {
		if err := g.Write(ctx, res); err != nil {
			return nil, err
		}
	}
	env.logger.Info("round complete",
		slog.Int("targets", len(ds)),
		slog.Int("generated", len(res.Artifacts)),
		slog.Int("diagnostics", len(res.Diagnostics)),
		slog.Bool("write", opts.write),
	)
	return res, nil
}

// descriptors returns the targets named by a descriptor file, or declared in
// the packages matching patterns.
func descriptors(ctx context.Context, cfg *gen.Config, patterns []string, file string) ([]load.TypeDescriptor, error) {
	targets, err := targets(ctx, cfg, patterns, file)
	if err != nil {
		return nil, err
	}
	return load.Descriptors(targets), nil
}

func targets(ctx context.Context, cfg *gen.Config, patterns []string, file string) ([]*load.Target, error) {
	if file != "" {
		if len(patterns) > 0 {
			return nil, fmt.Errorf("--descriptors cannot be combined with package patterns")
		}
		f, err := load.ReadFile(file)
		if err != nil {
			return nil, err
		}
		return f.Targets, nil
	}
	if len(patterns) == 0 {
		patterns = []string{"."}
	}
	return load.Load(ctx, load.Config{BuildFlags: cfg.BuildFlags}, patterns...)
}

// report prints diagnostics: JSON to stdout, the pretty layout to stderr.
func report(stdout, stderr io.Writer, ds []diag.Diagnostic, opts roundOptions) error {
	if opts.format == "json" {
		return diag.JSON(stdout, ds)
	}
	if len(ds) == 0 {
		return nil
	}
	base, _ := os.Getwd()
	return diag.Pretty(stderr, ds, diag.PrettyOpts{Color: env.color, Base: base, Max: opts.max})
}
