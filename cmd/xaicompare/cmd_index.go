package main

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kingrea/xaicompare/internal/adapter"
	"github.com/kingrea/xaicompare/internal/artifact"
	"github.com/kingrea/xaicompare/internal/runs"
)

func newIndexCmd(opts *rootOptions) *cobra.Command {
	var (
		key        string
		runDir     string
		inputPath  string
		labelsPath string
		paramsPath string
	)
	cmd := &cobra.Command{
		Use:   "index",
		Short: "Write text_index.csv for a run using an adapter",
		Long: `Reads one sample per line from --input, runs the adapter over them, and
writes text_index.csv into the run directory. Blank input lines are skipped.
--labels supplies the true label for the input on the same line number and
must have as many lines as --input; --params points at a YAML mapping passed
to the adapter factory.`,
		Args: cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			cfg, err := loadConfig(opts)
			if err != nil {
				return err
			}
			if _, err := initLogging(cfg, opts.stderr, false); err != nil {
				return err
			}
			if !runs.IsValidRun(runDir) {
				return usageError("%s is not a run directory (no valid %s)", runDir, runs.MarkerFile)
			}
			params, err := readParams(paramsPath)
			if err != nil {
				return usageError("%v", err)
			}
			lines, err := readLines(inputPath)
			if err != nil {
				return err
			}
			var labels []string
			if labelsPath != "" {
				if labels, err = readLines(labelsPath); err != nil {
					return err
				}
				if len(labels) != len(lines) {
					return usageError("%s has %d lines but %s has %d; labels are matched to inputs line by line",
						labelsPath, len(labels), inputPath, len(lines))
				}
			}
			var texts []string
			indexOpts := adapter.TextIndexOptions{}
			for i, line := range lines {
				if line == "" {
					continue
				}
				texts = append(texts, line)
				if labels != nil {
					indexOpts.YTrue = append(indexOpts.YTrue, labels[i])
				}
			}
			if len(texts) == 0 {
				return usageError("%s has no samples", inputPath)
			}
			indexOpts.RawText = texts

			disc := newDiscoverer(cfg)
			a, err := disc.Adapter(key, params)
			if errors.Is(err, adapter.ErrNotFound) {
				return usageError("unknown adapter %q (available: %s)", key, strings.Join(disc.Keys(), ", "))
			}
			if err != nil {
				return err
			}
			inputs := make([]any, len(texts))
			for i, t := range texts {
				inputs[i] = t
			}
			f, err := adapter.BuildTextIndex(a, inputs, indexOpts)
			if err != nil {
				return err
			}
			dest := artifact.TextIndex.Path(runDir)
			if err := f.WriteFile(dest); err != nil {
				return err
			}
			fmt.Fprintf(opts.stdout, "Wrote %d rows (%s) to %s\n", f.Len(), strings.Join(f.Columns(), ", "), dest)
			return nil
		},
	}
	flags := cmd.Flags()
	flags.StringVar(&key, "adapter", "", "Adapter key (required)")
	flags.StringVar(&runDir, "run", "", "Run directory (required)")
	flags.StringVar(&inputPath, "input", "", "Text file with one sample per line (required)")
	flags.StringVar(&labelsPath, "labels", "", "Text file with one true label per line")
	flags.StringVar(&paramsPath, "params", "", "YAML file with adapter parameters")
	_ = cmd.MarkFlagRequired("adapter")
	_ = cmd.MarkFlagRequired("run")
	_ = cmd.MarkFlagRequired("input")
	return cmd
}

// readLines returns the trimmed lines of path, keeping blank lines so that
// line numbers stay meaningful. Blank lines at the end of the file are dropped.
func readLines(path string) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer file.Close()
	var lines []string
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		lines = append(lines, strings.TrimSpace(scanner.Text()))
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	for len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines, nil
}
