package main

import (
	"net/url"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/kingrea/xaicompare/internal/dashboard"
	"github.com/kingrea/xaicompare/internal/logbook"
	"github.com/kingrea/xaicompare/internal/logging"
	"github.com/kingrea/xaicompare/internal/runs"
	"github.com/kingrea/xaicompare/internal/tui"
)

func newDashCmd(opts *rootOptions) *cobra.Command {
	var topK int
	cmd := &cobra.Command{
		Use:   "dash [RUN] [-- ARGS...]",
		Short: "Open the terminal dashboard",
		Long: `Opens the terminal dashboard. RUN pins the run directory; without it the
dashboard uses ?run= from XAICOMPARE_QUERY, then the most recent run under the
runs directory, then <runs>/_latest. Arguments after -- are passed through to
the dashboard unchanged.

Logs are written to .xaicompare/logs/xaicompare.log inside the project.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			positional, passthrough := args, []string(nil)
			if at := cmd.ArgsLenAtDash(); at >= 0 {
				positional, passthrough = args[:at], args[at:]
			}
			if len(positional) > 1 {
				return usageError("dash accepts at most one run directory, got %d", len(positional))
			}
			run := ""
			if len(positional) == 1 {
				run = positional[0]
			}

			cfg, err := loadConfig(opts)
			if err != nil {
				return err
			}
			logFile, err := logging.OpenFile(cfg.LogsDir())
			if err != nil {
				return err
			}
			defer logFile.Close()
			if _, err := initLogging(cfg, logFile, true); err != nil {
				return err
			}
			journal, err := logbook.New(cfg.JournalPath())
			if err != nil {
				return err
			}

			query := cfg.Query()
			params := runs.ParamStoreFunc(func() (url.Values, error) {
				return url.ParseQuery(query)
			})
			resolver := runs.NewResolver(cfg.RunsDir(), launchArgs(run, passthrough), params,
				runs.WithLogger(logging.New("runs")),
			)
			session := dashboard.NewSession(resolver,
				dashboard.WithLogger(logging.New("dashboard")),
				dashboard.WithJournal(journal),
			)
			app := tui.NewApp(session, tui.WithLogbook(journal), tui.WithTopK(topK))
			p := tea.NewProgram(app, tea.WithAltScreen())
			if _, err := p.Run(); err != nil {
				return &ExitError{Code: 1, Message: "dashboard: " + err.Error()}
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&topK, "top", 15, "Number of global importance rows shown")
	return cmd
}
