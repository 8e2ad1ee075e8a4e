package main

import (
	"io"

	"github.com/spf13/cobra"
)

type rootOptions struct {
	project   string
	logLevel  string
	logFormat string
	stdout    io.Writer
	stderr    io.Writer
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	opts := &rootOptions{stdout: stdout, stderr: stderr}
	root := &cobra.Command{
		Use:   "xaicompare",
		Short: "Compare explanation runs side by side",
		Long: "xaicompare browses the runs written by explanation pipelines: global\n" +
			"feature importance, per-sample attributions, and the text behind each sample.",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		CompletionOptions: cobra.CompletionOptions{
			HiddenDefaultCmd: true,
		},
	}
	root.SetOut(stdout)
	root.SetErr(stderr)

	flags := root.PersistentFlags()
	flags.StringVar(&opts.project, "project", ".", "Project directory holding xaicompare.yaml")
	flags.StringVar(&opts.logLevel, "log-level", "", "Log level (debug, info, warn, error); overrides the project config")
	flags.StringVar(&opts.logFormat, "log-format", "", "Log format (text or json); overrides the project config")

	root.AddCommand(newDashCmd(opts))
	root.AddCommand(newServeCmd(opts))
	root.AddCommand(newRunsCmd(opts))
	root.AddCommand(newAdaptersCmd(opts))
	root.AddCommand(newIndexCmd(opts))
	root.AddCommand(newScalarCmd(opts))
	root.AddCommand(newInitCmd(opts))
	return root
}
