package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/kingrea/xaicompare/internal/logbook"
	"github.com/kingrea/xaicompare/internal/logging"
	"github.com/kingrea/xaicompare/internal/server"
)

func newServeCmd(opts *rootOptions) *cobra.Command {
	var (
		host    string
		port    int
		run     string
		maxRows int
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the dashboard API over HTTP",
		Long: `Starts the HTTP dashboard. GET /api/run?run=<dir> performs one render cycle;
--run pins a run for every request the same way the dashboard argument does.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(opts)
			if err != nil {
				return err
			}
			if _, err := initLogging(cfg, opts.stderr, false); err != nil {
				return err
			}
			journal, err := logbook.New(cfg.JournalPath())
			if err != nil {
				return err
			}

			settings := server.SettingsFromConfig(cfg)
			if cmd.Flags().Changed("host") {
				settings.Host = host
			}
			if cmd.Flags().Changed("port") {
				settings.Port = port
			}
			if maxRows > 0 {
				settings.MaxRows = maxRows
			}
			srvOpts := []server.Option{
				server.WithCatalog(newDiscoverer(cfg)),
				server.WithJournal(journal),
				server.WithLogger(logging.New("server")),
			}
			if run != "" {
				srvOpts = append(srvOpts, server.WithArgs(launchArgs(run, nil)))
			}
			srv := server.NewServer(settings, srvOpts...)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			if err := srv.Start(ctx); err != nil {
				return err
			}
			fmt.Fprintf(opts.stdout, "Serving runs from %s at %s\n", settings.RunsDir, srv.BaseURL())
			<-ctx.Done()

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	}
	cmd.Flags().StringVar(&host, "host", server.DefaultHost, "Bind host")
	cmd.Flags().IntVar(&port, "port", server.DefaultPort, "Bind port")
	cmd.Flags().StringVar(&run, "run", "", "Pin every request to this run directory")
	cmd.Flags().IntVar(&maxRows, "max-rows", 0, "Rows returned per artifact table")
	return cmd
}
