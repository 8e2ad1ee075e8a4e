package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/kingrea/xaicompare/internal/artifact"
	"github.com/kingrea/xaicompare/internal/runs"
)

func newRunsCmd(opts *rootOptions) *cobra.Command {
	var verbose bool
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List valid runs, most recent first",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			cfg, err := loadConfig(opts)
			if err != nil {
				return err
			}
			base := cfg.RunsDir()
			list := runs.ListValidRuns(base)
			if len(list) == 0 {
				fmt.Fprintf(opts.stdout, "No runs under %s\n", base)
				return nil
			}
			for _, path := range list {
				fmt.Fprintf(opts.stdout, "%s\t%s\n", filepath.Base(path), path)
				if !verbose {
					continue
				}
				for _, res := range artifact.CheckRun(path) {
					line := fmt.Sprintf("  %-20s %-8s", res.Ref.ID, res.State)
					if res.State == artifact.StateReady && res.Ref.Kind == artifact.KindTable {
						line += fmt.Sprintf(" %d rows", res.Rows)
					}
					if res.Err != nil {
						line += " " + res.Err.Error()
					}
					fmt.Fprintln(opts.stdout, line)
				}
			}
			return nil
		},
	}
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Show the state of every artifact")
	return cmd
}
