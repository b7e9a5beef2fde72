// SPDX-License-Identifier: MIT
// Copyright (c) 2026 ModSentry
// Source: github.com/modsentry/dbpf

// Package scan drives concurrent mod-directory scans: it selects container
// files through path rules, reads each one with the dbpf core, joins results
// against the community status table when one is supplied, and aggregates a
// summary. One unreadable or malformed file never aborts the batch.
package scan

import (
	"context"
	"fmt"
	"io/fs"
	"path/filepath"
	"runtime"
	"sort"
	"sync"

	"github.com/woozymasta/pathrules"

	"github.com/modsentry/dbpf"
	"github.com/modsentry/dbpf/statusdb"
)

// Report is the scan result for one container file.
type Report struct {
	// Path is the file path relative to the scan root, slash-separated.
	Path string `json:"path" yaml:"path"`
	// Info is the decoded container metadata.
	Info dbpf.PackageInfo `json:"info" yaml:"info"`
	// Status is the matched status table row; zero when Matched is false.
	Status statusdb.Record `json:"status,omitzero" yaml:"status,omitzero"`
	// Size is file size in bytes.
	Size int64 `json:"size" yaml:"size"`
	// Script reports the script heuristic classification.
	Script bool `json:"script" yaml:"script"`
	// Matched reports whether a status table row was found for this mod.
	Matched bool `json:"matched" yaml:"matched"`
	// ReadErr holds an operating-system-level read failure; the file still
	// produces a safely-defaulted report.
	ReadErr error `json:"-" yaml:"-"`
}

// Flagged reports whether the matched status row calls for attention.
func (r *Report) Flagged() bool {
	return r.Matched && r.Status.Status != statusdb.StatusOK
}

// Summary aggregates one scan.
type Summary struct {
	// Reports holds per-file results sorted by path.
	Reports []Report `json:"reports" yaml:"reports"`
	// Files is the number of scanned container files.
	Files int `json:"files" yaml:"files"`
	// Valid counts files whose container signature matched.
	Valid int `json:"valid" yaml:"valid"`
	// Scripts counts files classified as script mods.
	Scripts int `json:"scripts" yaml:"scripts"`
	// Flagged counts files whose status row is anything but ok.
	Flagged int `json:"flagged" yaml:"flagged"`
	// TotalBytes is the combined size of scanned files.
	TotalBytes int64 `json:"total_bytes" yaml:"total_bytes"`
}

// Options configures one scan.
type Options struct {
	// Table joins reports against status rows; nil disables the join.
	Table *statusdb.Table `json:"-" yaml:"-"`
	// OnFileDone is called from worker goroutines after each file.
	OnFileDone func(report Report) `json:"-" yaml:"-"`
	// Rules select files under the scan root; empty means DefaultRules.
	Rules []pathrules.Rule `json:"rules,omitempty" yaml:"rules,omitempty"`
	// MatcherOptions control rule matching.
	MatcherOptions pathrules.MatcherOptions `json:"matcher_options,omitzero" yaml:"matcher_options,omitzero"`
	// MaxWorkers is the number of scan workers (zero means GOMAXPROCS).
	MaxWorkers int `json:"max_workers,omitempty" yaml:"max_workers,omitempty"`
}

// applyDefaults fills zero-valued scan options with defaults.
func (opts *Options) applyDefaults() {
	if opts.MaxWorkers <= 0 {
		opts.MaxWorkers = runtime.GOMAXPROCS(0)
	}
	if opts.MaxWorkers < 1 {
		opts.MaxWorkers = 1
	}

	if opts.MatcherOptions == (pathrules.MatcherOptions{}) {
		opts.MatcherOptions = pathrules.MatcherOptions{
			CaseInsensitive: true,
			DefaultAction:   pathrules.ActionExclude,
		}
	}
	if opts.MatcherOptions.DefaultAction == pathrules.ActionUnknown {
		opts.MatcherOptions.DefaultAction = pathrules.ActionExclude
	}
}

// scanTask is one selected file with its resolved and relative paths.
type scanTask struct {
	absPath string
	relPath string
	size    int64
}

// Scan walks root, scans every rule-selected container file, and returns the
// aggregated summary. The returned error covers only root-level walk failures
// and context cancellation; per-file failures are absorbed into reports.
func Scan(ctx context.Context, root string, opts Options) (*Summary, error) {
	opts.applyDefaults()

	matcher, err := newFileMatcher(opts.Rules, opts.MatcherOptions)
	if err != nil {
		return nil, err
	}

	tasks, err := collectScanTasks(root, matcher)
	if err != nil {
		return nil, err
	}

	summary := &Summary{Reports: make([]Report, 0, len(tasks))}
	if len(tasks) == 0 {
		return summary, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	taskCh := make(chan scanTask, len(tasks))
	reportCh := make(chan Report, len(tasks))
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup
	for w := 0; w < opts.MaxWorkers; w++ {
		wg.Go(func() {
			for task := range taskCh {
				report := scanOne(task, opts.Table)
				if opts.OnFileDone != nil {
					opts.OnFileDone(report)
				}

				select {
				case reportCh <- report:
				case <-ctx.Done():
					return
				}
			}
		})
	}

	for _, task := range tasks {
		select {
		case <-ctx.Done():
			close(taskCh)
			wg.Wait()
			return nil, ctx.Err()
		case taskCh <- task:
		}
	}

	close(taskCh)
	wg.Wait()
	close(reportCh)

	for report := range reportCh {
		summary.add(report)
	}

	sort.Slice(summary.Reports, func(i, j int) bool {
		return summary.Reports[i].Path < summary.Reports[j].Path
	})

	return summary, nil
}

// collectScanTasks walks root and keeps regular files selected by matcher.
// Unreadable subtrees are skipped rather than failing the walk.
func collectScanTasks(root string, matcher *fileMatcher) ([]scanTask, error) {
	var tasks []scanTask
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			if path == root {
				return fmt.Errorf("walk scan root: %w", walkErr)
			}
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if d.IsDir() {
			return nil
		}

		rel, relErr := filepath.Rel(root, path)
		if relErr != nil || !matcher.Match(rel) {
			return nil
		}

		info, infoErr := d.Info()
		if infoErr != nil {
			return nil
		}

		tasks = append(tasks, scanTask{
			absPath: path,
			relPath: filepath.ToSlash(rel),
			size:    info.Size(),
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	return tasks, nil
}

// scanOne reads one container file and joins it against the status table.
func scanOne(task scanTask, table *statusdb.Table) Report {
	report := Report{
		Path: task.relPath,
		Size: task.size,
	}

	info, err := dbpf.ReadPackage(task.absPath)
	report.Info = info
	report.ReadErr = err
	report.Script = dbpf.IsScriptMod(task.absPath)

	if rec, ok := table.Lookup(info.Name); ok {
		report.Status = rec
		report.Matched = true
	}

	return report
}

// add folds one report into the summary counters.
func (s *Summary) add(report Report) {
	s.Reports = append(s.Reports, report)
	s.Files++
	s.TotalBytes += report.Size

	if report.Info.IsValid {
		s.Valid++
	}
	if report.Script {
		s.Scripts++
	}
	if report.Flagged() {
		s.Flagged++
	}
}
