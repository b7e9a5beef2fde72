// SPDX-License-Identifier: MIT
// Copyright (c) 2026 ModSentry
// Source: github.com/modsentry/dbpf

// Command modscan scans a mods directory, decodes every container file, and
// cross-references the results against the community mod status table.
package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/rs/zerolog"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"github.com/woozymasta/pathrules"

	"github.com/modsentry/dbpf/scan"
	"github.com/modsentry/dbpf/statusdb"
)

// defaultStatusURL is the community-maintained mod status table.
const defaultStatusURL = "https://raw.githubusercontent.com/modsentry/status-table/main/mod_status.csv"

// cliOptions holds resolved command-line flags.
type cliOptions struct {
	statusURL string
	cacheDir  string
	excludes  []string
	maxAge    time.Duration
	workers   int
	offline   bool
	verbose   bool
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var opts cliOptions

	cmd := &cobra.Command{
		Use:   "modscan [mods-dir]",
		Short: "Scan game mods for broken, outdated, or script content",
		Long: `modscan reads every mod container file under a mods directory, extracts
creator metadata, classifies embedded script resources, and joins the results
against the remotely hosted community status table.`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			root := "."
			if len(args) == 1 {
				root = args[0]
			}
			return run(cmd.Context(), root, opts)
		},
	}

	cmd.Flags().StringVar(&opts.statusURL, "status-url", defaultStatusURL, "mod status table URL")
	cmd.Flags().StringVar(&opts.cacheDir, "cache-dir", "", "status table cache directory (default: user cache dir)")
	cmd.Flags().DurationVar(&opts.maxAge, "max-age", 24*time.Hour, "accepted status table cache age")
	cmd.Flags().BoolVar(&opts.offline, "offline", false, "never fetch; use the cached status table only")
	cmd.Flags().IntVar(&opts.workers, "workers", 0, "scan workers (0 = number of CPUs)")
	cmd.Flags().StringSliceVar(&opts.excludes, "exclude", nil, "path patterns to skip (repeatable)")
	cmd.Flags().BoolVar(&opts.verbose, "verbose", false, "debug logging")

	return cmd
}

func run(ctx context.Context, root string, opts cliOptions) error {
	logger := newLogger(opts.verbose)

	table := loadTable(ctx, logger, opts)
	if table == nil {
		logger.Warn().Msg("no status table available; mods will not be cross-referenced")
	} else {
		logger.Debug().Int("rows", table.Len()).Msg("status table loaded")
	}

	bar := progressbar.NewOptions(-1,
		progressbar.OptionSetDescription("scanning"),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionClearOnFinish(),
	)

	summary, err := scan.Scan(ctx, root, scan.Options{
		Rules:      scanRules(opts.excludes),
		MaxWorkers: opts.workers,
		Table:      table,
		OnFileDone: func(scan.Report) { _ = bar.Add(1) },
	})
	_ = bar.Finish()
	if err != nil {
		return fmt.Errorf("scan %s: %w", root, err)
	}

	printSummary(summary)
	return nil
}

// newLogger builds the console logger.
func newLogger(verbose bool) zerolog.Logger {
	level := zerolog.InfoLevel
	if verbose {
		level = zerolog.DebugLevel
	}

	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		Level(level).
		With().Timestamp().Logger()
}

// scanRules builds the scanner rule set: user excludes ahead of the default
// container includes.
func scanRules(excludes []string) []pathrules.Rule {
	rules := make([]pathrules.Rule, 0, len(excludes)+2)
	for _, pattern := range excludes {
		rules = append(rules, pathrules.Rule{Action: pathrules.ActionExclude, Pattern: pattern})
	}
	return append(rules, scan.DefaultRules()...)
}

// loadTable resolves the status table: cache-first when offline, otherwise
// fetch-then-cache with a cache fallback. Table failures degrade to nil
// rather than aborting the scan.
func loadTable(ctx context.Context, logger zerolog.Logger, opts cliOptions) *statusdb.Table {
	cache := newCache(logger, opts.cacheDir)

	if opts.offline {
		return tableFromCache(logger, cache, 0)
	}

	client := statusdb.NewClient(statusdb.ClientOptions{})
	table, raw, err := client.Fetch(ctx, opts.statusURL)
	if err == nil {
		if cache != nil {
			if saveErr := cache.Save(raw); saveErr != nil {
				logger.Warn().Err(saveErr).Msg("could not cache status table")
			}
		}
		return table
	}

	logger.Warn().Err(err).Msg("status table fetch failed; trying cache")
	return tableFromCache(logger, cache, opts.maxAge)
}

// newCache resolves the cache location; nil disables caching.
func newCache(logger zerolog.Logger, dir string) *statusdb.Cache {
	if dir == "" {
		userCache, err := os.UserCacheDir()
		if err != nil {
			logger.Debug().Err(err).Msg("no user cache dir; status table caching disabled")
			return nil
		}
		dir = filepath.Join(userCache, "modscan")
	}

	return statusdb.NewCache(dir)
}

// tableFromCache loads and parses a cached snapshot; nil on any failure.
func tableFromCache(logger zerolog.Logger, cache *statusdb.Cache, maxAge time.Duration) *statusdb.Table {
	if cache == nil {
		return nil
	}

	raw, err := cache.Load(maxAge)
	if err != nil {
		logger.Warn().Err(err).Msg("status table cache unavailable")
		return nil
	}

	table, err := statusdb.Parse(bytes.NewReader(raw))
	if err != nil {
		logger.Warn().Err(err).Msg("cached status table unusable")
		return nil
	}

	return table
}

// printSummary writes the per-mod report and aggregate counters to stdout.
func printSummary(summary *scan.Summary) {
	w := tabwriter.NewWriter(os.Stdout, 2, 4, 2, ' ', 0)
	fmt.Fprintln(w, "MOD\tCREATOR\tSIZE\tKIND\tSTATUS\tNOTES")
	for _, report := range summary.Reports {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			report.Info.Name,
			report.Info.Creator,
			humanize.IBytes(uint64(report.Size)),
			reportKind(report),
			reportStatus(report),
			report.Status.Notes,
		)
	}
	_ = w.Flush()

	fmt.Printf("\n%d mods (%s), %d readable, %d script, %d flagged\n",
		summary.Files,
		humanize.IBytes(uint64(summary.TotalBytes)),
		summary.Valid,
		summary.Scripts,
		summary.Flagged,
	)
}

// reportKind labels one report for display.
func reportKind(report scan.Report) string {
	switch {
	case report.Script:
		return "script"
	case !report.Info.IsValid:
		return "unreadable"
	default:
		return "package"
	}
}

// reportStatus renders the joined status column.
func reportStatus(report scan.Report) string {
	if !report.Matched {
		return "-"
	}
	return report.Status.Status
}
