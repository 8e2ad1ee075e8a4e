package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kingrea/xaicompare/internal/config"
)

func newInitCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create xaicompare.yaml and the runs and plugins directories",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			if err := config.InitProject(opts.project); err != nil {
				return err
			}
			cfg, err := loadConfig(opts)
			if err != nil {
				return err
			}
			fmt.Fprintf(opts.stdout, "Initialised %s\n", cfg.ConfigPath())
			return nil
		},
	}
}
