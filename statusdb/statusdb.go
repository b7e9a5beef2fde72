// SPDX-License-Identifier: MIT
// Copyright (c) 2026 ModSentry
// Source: github.com/modsentry/dbpf

// Package statusdb joins decoded mod names against the community-maintained
// mod status table: a remotely hosted comma-separated file mapping mod names
// to a status string and free-text notes. Lookups normalize both sides and
// fall back to closest-distance fuzzy matching, since table rows are written
// by hand and rarely match file names exactly.
package statusdb

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode"

	"github.com/agnivade/levenshtein"
)

// Reference status vocabulary seen in community tables. Status values are
// free-form strings; these constants only name the common ones.
const (
	StatusOK       = "ok"
	StatusBroken   = "broken"
	StatusOutdated = "outdated"
	StatusCaution  = "caution"
)

// ErrEmptyTable means parsing produced no usable rows.
var ErrEmptyTable = errors.New("status table has no rows")

// Record is one status table row.
type Record struct {
	// Name is the mod name as written in the table.
	Name string `json:"name" yaml:"name"`
	// Status is the community-reported status string.
	Status string `json:"status" yaml:"status"`
	// Notes is free-form commentary attached to the row.
	Notes string `json:"notes,omitempty" yaml:"notes,omitempty"`
}

// Table is an immutable lookup over parsed status rows.
type Table struct {
	// records maps normalized names to rows; first row wins on collision.
	records map[string]Record
	// keys holds normalized names in row order for the fuzzy pass.
	keys []string
}

// Parse reads comma-separated status rows. Ragged rows are tolerated, blank
// and comment rows are skipped, and a leading header row is dropped when
// detected. Rows need at least a name and a status column; any further
// columns are joined into Notes.
func Parse(r io.Reader) (*Table, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.Comment = '#'
	cr.LazyQuotes = true
	cr.TrimLeadingSpace = true

	t := &Table{records: make(map[string]Record)}
	first := true
	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			// One mangled row must not discard the rest of the table.
			var parseErr *csv.ParseError
			if errors.As(err, &parseErr) {
				continue
			}
			return nil, fmt.Errorf("read status rows: %w", err)
		}

		if first {
			first = false
			if isHeaderRow(row) {
				continue
			}
		}

		t.add(row)
	}

	if len(t.records) == 0 {
		return nil, ErrEmptyTable
	}

	return t, nil
}

// add appends one row when it carries at least a name and a status.
func (t *Table) add(row []string) {
	if len(row) < 2 {
		return
	}

	name := strings.TrimSpace(row[0])
	status := strings.TrimSpace(strings.ToLower(row[1]))
	if name == "" || status == "" {
		return
	}

	rec := Record{Name: name, Status: status}
	if len(row) > 2 {
		rec.Notes = strings.TrimSpace(strings.Join(row[2:], ", "))
	}

	key := Normalize(name)
	if key == "" {
		return
	}
	if _, exists := t.records[key]; exists {
		return
	}

	t.records[key] = rec
	t.keys = append(t.keys, key)
}

// isHeaderRow detects a column-caption first row.
func isHeaderRow(row []string) bool {
	if len(row) == 0 {
		return false
	}

	switch Normalize(row[0]) {
	case "name", "mod", "modname", "title":
		return true
	}
	return false
}

// Len returns the number of parsed rows.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.records)
}

// Lookup finds the status row for a mod name. The normalized name is tried
// exactly first, then the closest row within a length-scaled edit-distance
// bound. The boolean reports whether any acceptable row was found.
func (t *Table) Lookup(name string) (Record, bool) {
	if t == nil || len(t.records) == 0 {
		return Record{}, false
	}

	key := Normalize(name)
	if key == "" {
		return Record{}, false
	}

	if rec, ok := t.records[key]; ok {
		return rec, true
	}

	bound := fuzzyBound(len(key))
	bestKey := ""
	bestDist := bound + 1
	for _, candidate := range t.keys {
		dist := levenshtein.ComputeDistance(key, candidate)
		if dist < bestDist {
			bestDist = dist
			bestKey = candidate
		}
	}

	if bestDist > bound {
		return Record{}, false
	}

	return t.records[bestKey], true
}

// fuzzyBound scales the accepted edit distance with name length so short
// names stay strict and long names tolerate small spelling drift.
func fuzzyBound(n int) int {
	bound := n / 5
	if bound < 1 {
		bound = 1
	}
	if bound > 3 {
		bound = 3
	}
	return bound
}

// Normalize reduces a mod or table name to a comparable key: known mod file
// extensions are dropped, everything is lowercased, and only letters and
// digits survive.
func Normalize(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	for _, ext := range []string{".package", ".ts4script", ".zip"} {
		name = strings.TrimSuffix(name, ext)
	}

	var b strings.Builder
	b.Grow(len(name))
	for _, r := range name {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}

	return b.String()
}
