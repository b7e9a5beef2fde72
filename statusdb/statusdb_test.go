// SPDX-License-Identifier: MIT
// Copyright (c) 2026 ModSentry
// Source: github.com/modsentry/dbpf

package statusdb

import (
	"errors"
	"strings"
	"testing"
)

const sampleTable = `name,status,notes
Better BuildBuy,ok,
UI Cheats Extension,outdated,update pending since patch 1.105
# maintained by the community discord
MC Command Center,broken,crashes on load,remove immediately
Faster Gameplay!,caution
`

func TestParse_SampleTable(t *testing.T) {
	t.Parallel()

	table, err := Parse(strings.NewReader(sampleTable))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if table.Len() != 4 {
		t.Fatalf("rows = %d, want 4", table.Len())
	}

	rec, ok := table.Lookup("MC Command Center")
	if !ok {
		t.Fatal("expected lookup hit")
	}
	if rec.Status != StatusBroken {
		t.Errorf("status = %q, want %q", rec.Status, StatusBroken)
	}
	if rec.Notes != "crashes on load, remove immediately" {
		t.Errorf("notes = %q (extra columns must be joined)", rec.Notes)
	}

	// Rows without a notes column still parse.
	rec, ok = table.Lookup("Faster Gameplay!")
	if !ok || rec.Status != StatusCaution {
		t.Errorf("lookup = %+v, %v; want caution row", rec, ok)
	}
}

func TestParse_EmptyTable(t *testing.T) {
	t.Parallel()

	for _, src := range []string{"", "name,status,notes\n", "# only comments\n"} {
		if _, err := Parse(strings.NewReader(src)); !errors.Is(err, ErrEmptyTable) {
			t.Errorf("Parse(%q) err = %v, want ErrEmptyTable", src, err)
		}
	}
}

func TestNormalize(t *testing.T) {
	t.Parallel()

	tests := []struct{ in, want string }{
		{"Better BuildBuy", "betterbuildbuy"},
		{"better_buildbuy.package", "betterbuildbuy"},
		{"UI-Cheats (v1.42).ts4script", "uicheatsv142"},
		{"  MC Command Center  ", "mccommandcenter"},
		{"***", ""},
	}

	for _, tc := range tests {
		if got := Normalize(tc.in); got != tc.want {
			t.Errorf("Normalize(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestLookup_FuzzyMatch(t *testing.T) {
	t.Parallel()

	table, err := Parse(strings.NewReader(sampleTable))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	// File name with spelling drift still resolves to the table row.
	rec, ok := table.Lookup("MC_CommandCentre.package")
	if !ok {
		t.Fatal("expected fuzzy hit")
	}
	if rec.Name != "MC Command Center" {
		t.Errorf("matched %q, want MC Command Center", rec.Name)
	}

	// Unrelated names stay unmatched.
	if rec, ok := table.Lookup("Totally Different Mod"); ok {
		t.Errorf("unexpected match %+v", rec)
	}
}

func TestLookup_ShortNamesStayStrict(t *testing.T) {
	t.Parallel()

	table, err := Parse(strings.NewReader("abc,ok\n"))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	if _, ok := table.Lookup("abc"); !ok {
		t.Error("exact short name must match")
	}
	if _, ok := table.Lookup("xyc"); ok {
		t.Error("two-edit short name must not match")
	}
}

func TestLookup_NilTable(t *testing.T) {
	t.Parallel()

	var table *Table
	if _, ok := table.Lookup("anything"); ok {
		t.Error("nil table must report no match")
	}
	if table.Len() != 0 {
		t.Error("nil table length must be zero")
	}
}
