// Command stagegen generates staged builders for struct types annotated with
// the //stagegen:builder directive.
//
// Usage:
//
//	stagegen gen [packages]
//	stagegen check [packages]
//	stagegen describe [packages]
//	stagegen watch [packages]
//
// A go:generate line in the package declaring the targets is the usual way
// to run it:
//
//	//go:generate go run github.com/syssam/stagegen/cmd/stagegen gen .
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

// errDiagnostics reports that diagnostics were printed; main exits non-zero
// without printing anything else.
var errDiagnostics = errors.New("generation reported errors")

var rootCmd = &cobra.Command{
	Use:               "stagegen",
	Short:             "Generate staged builders for Go struct types",
	Long:              `stagegen generates builders that require every mandatory field to be set, in order, before Build is reachable.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setup,
}

func init() {
	rootCmd.AddCommand(genCmd)
	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(describeCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(versionCmd)

	rootCmd.PersistentFlags().String("config", "", "path to stagegen.toml (default: search upwards from the working directory)")
	rootCmd.PersistentFlags().String("log-level", "", "log level (debug|info|warn|error)")
	rootCmd.PersistentFlags().String("log-format", "", "log format (text|json)")
	rootCmd.PersistentFlags().String("color", "auto", "colorize output (auto|always|never)")
	rootCmd.PersistentFlags().Int("workers", 0, "targets processed in parallel (0=GOMAXPROCS)")
	rootCmd.PersistentFlags().StringSlice("tags", nil, "build tags used when loading packages")
}

func main() {
	rootCmd.Version = buildVersion()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		if !errors.Is(err, errDiagnostics) {
			fmt.Fprintln(os.Stderr, "stagegen:", err)
		}
		stop()
		os.Exit(1)
	}
}
