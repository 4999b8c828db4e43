package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/syssam/stagegen/compiler/gen"
	"github.com/syssam/stagegen/compiler/load"
)

var describeCmd = &cobra.Command{
	Use:   "describe [packages]",
	Short: "Print the targets declared in packages as a descriptor file",
	Long:  `Print the build targets declared in packages in a descriptor format. The output can be edited and fed back with "stagegen gen --descriptors".`,
	RunE:  runDescribe,
}

func init() {
	describeCmd.Flags().String("format", "yaml", "descriptor format (json|yaml|msgpack)")
	describeCmd.Flags().StringP("output", "o", "", "write to a file; the format is inferred from its extension")
}

func runDescribe(cmd *cobra.Command, args []string) error {
	formatStr, err := cmd.Flags().GetString("format")
	if err != nil {
		return fmt.Errorf("failed to get format flag: %w", err)
	}
	output, err := cmd.Flags().GetString("output")
	if err != nil {
		return fmt.Errorf("failed to get output flag: %w", err)
	}
	format, err := load.ParseFormat(formatStr)
	if err != nil {
		return err
	}
	if output != "" && !cmd.Flags().Changed("format") {
		if format, err = load.FormatOf(output); err != nil {
			return err
		}
	}

	cfg, err := gen.NewConfig(env.opts...)
	if err != nil {
		return err
	}
	ts, err := targets(cmd.Context(), cfg, args, "")
	if err != nil {
		return err
	}
	if output == "" {
		if format == load.FormatMsgpack && isTerminal(os.Stdout) {
			return fmt.Errorf("refusing to write msgpack to a terminal, use --output")
		}
		return load.Write(cmd.OutOrStdout(), format, &load.File{Targets: ts})
	}
	b, err := load.Marshal(format, &load.File{Targets: ts})
	if err != nil {
		return err
	}
	return os.WriteFile(output, b, 0o644)
}
