package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/kingrea/xaicompare/internal/runs"
	"github.com/kingrea/xaicompare/internal/scalars"
)

func newScalarCmd(opts *rootOptions) *cobra.Command {
	var runDir string
	cmd := &cobra.Command{
		Use:   "scalar NAME VALUE STEP",
		Short: "Append a metric value to a run's scalars.jsonl",
		Args:  cobra.ExactArgs(3),
		RunE: func(_ *cobra.Command, args []string) error {
			if !runs.IsValidRun(runDir) {
				return usageError("%s is not a run directory (no valid %s)", runDir, runs.MarkerFile)
			}
			value, err := strconv.ParseFloat(args[1], 64)
			if err != nil {
				return usageError("value %q is not a number", args[1])
			}
			step, err := strconv.Atoi(args[2])
			if err != nil {
				return usageError("step %q is not an integer", args[2])
			}
			w, err := scalars.NewWriter(runDir)
			if err != nil {
				return err
			}
			if err := w.Log(args[0], value, step); err != nil {
				return usageError("%v", err)
			}
			fmt.Fprintf(opts.stdout, "%s[%d] = %g -> %s\n", args[0], step, value, w.Path())
			return nil
		},
	}
	cmd.Flags().StringVar(&runDir, "run", "", "Run directory (required)")
	_ = cmd.MarkFlagRequired("run")
	return cmd
}
