package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newAdaptersCmd(opts *rootOptions) *cobra.Command {
	var strict bool
	cmd := &cobra.Command{
		Use:   "adapters",
		Short: "Discover plugins and list registered adapters",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			cfg, err := loadConfig(opts)
			if err != nil {
				return err
			}
			if _, err := initLogging(cfg, opts.stderr, false); err != nil {
				return err
			}
			disc := newDiscoverer(cfg)
			for _, key := range disc.Keys() {
				fmt.Fprintln(opts.stdout, key)
			}
			report := disc.Report()
			for _, f := range report.Failed {
				fmt.Fprintf(opts.stderr, "skipped %s: %v\n", f.Plugin, f.Err)
			}
			if strict && len(report.Failed) > 0 {
				return &ExitError{Code: 1, Message: fmt.Sprintf("%d plugin(s) failed to load", len(report.Failed))}
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&strict, "strict", false, "Exit non-zero when any plugin fails to load")
	return cmd
}
