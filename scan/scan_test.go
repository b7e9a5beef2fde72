// SPDX-License-Identifier: MIT
// Copyright (c) 2026 ModSentry
// Source: github.com/modsentry/dbpf

package scan

import (
	"context"
	"encoding/binary"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/woozymasta/pathrules"

	"github.com/modsentry/dbpf/statusdb"
)

// Container wire format constants mirrored here so scan tests craft real
// files without reaching into the dbpf package internals.
const (
	testHeaderSize  = 96
	testTuningType  = 0x545AC67A
	testScriptType  = 0x00000000
	testOffCount    = 34
	testOffIdxStart = 66
	testOffIdxSize  = 70
)

// buildTestContainer assembles one container file with a single resource of
// the given type and payload.
func buildTestContainer(resourceType uint32, payload []byte) []byte {
	buf := make([]byte, testHeaderSize, testHeaderSize+len(payload)+20)
	copy(buf, "DBPF")
	binary.LittleEndian.PutUint32(buf[4:], 2)
	binary.LittleEndian.PutUint32(buf[8:], 1)
	binary.LittleEndian.PutUint32(buf[testOffCount:], 1)
	binary.LittleEndian.PutUint32(buf[testOffIdxStart:], uint32(testHeaderSize+len(payload)))
	binary.LittleEndian.PutUint32(buf[testOffIdxSize:], 20)

	buf = append(buf, payload...)

	var rec [20]byte
	binary.LittleEndian.PutUint32(rec[0:], resourceType)
	binary.LittleEndian.PutUint32(rec[12:], testHeaderSize)
	binary.LittleEndian.PutUint32(rec[16:], uint32(len(payload)))
	return append(buf, rec[:]...)
}

// writeModsDir lays out a small mods directory and returns its root.
func writeModsDir(t *testing.T) string {
	t.Helper()

	root := t.TempDir()
	files := map[string][]byte{
		"better_buildbuy.package": buildTestContainer(testTuningType, []byte(`creator="Ada"`)),
		"broken_blob.package":     []byte("not a container at all"),
		"readme.txt":              []byte("ignore me"),
	}
	for name, data := range files {
		if err := os.WriteFile(filepath.Join(root, name), data, 0o644); err != nil {
			t.Fatal(err)
		}
	}

	sub := filepath.Join(root, "scripted")
	if err := os.MkdirAll(sub, 0o750); err != nil {
		t.Fatal(err)
	}
	script := buildTestContainer(testScriptType, []byte{0x01})
	if err := os.WriteFile(filepath.Join(sub, "ui_cheats.package"), script, 0o644); err != nil {
		t.Fatal(err)
	}

	return root
}

func TestScan_Directory(t *testing.T) {
	t.Parallel()

	table, err := statusdb.Parse(strings.NewReader("better_buildbuy,broken,remove it\nui cheats,ok\n"))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	var done atomic.Int64
	summary, err := Scan(context.Background(), writeModsDir(t), Options{
		Table:      table,
		OnFileDone: func(Report) { done.Add(1) },
	})
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}

	if summary.Files != 3 {
		t.Fatalf("files = %d, want 3 (readme.txt must be excluded)", summary.Files)
	}
	if done.Load() != 3 {
		t.Errorf("OnFileDone calls = %d, want 3", done.Load())
	}
	if summary.Valid != 2 {
		t.Errorf("valid = %d, want 2", summary.Valid)
	}
	if summary.Scripts != 1 {
		t.Errorf("scripts = %d, want 1", summary.Scripts)
	}
	if summary.Flagged != 1 {
		t.Errorf("flagged = %d, want 1 (broken row only; ok rows are not flagged)", summary.Flagged)
	}

	// Reports are sorted by relative slash path.
	want := []string{"better_buildbuy.package", "broken_blob.package", "scripted/ui_cheats.package"}
	if len(summary.Reports) != len(want) {
		t.Fatalf("reports = %d, want %d", len(summary.Reports), len(want))
	}
	for i, path := range want {
		if summary.Reports[i].Path != path {
			t.Errorf("report %d path = %q, want %q", i, summary.Reports[i].Path, path)
		}
	}

	first := summary.Reports[0]
	if first.Info.Creator != "Ada" {
		t.Errorf("creator = %q, want Ada", first.Info.Creator)
	}
	if !first.Matched || first.Status.Status != statusdb.StatusBroken {
		t.Errorf("status join = %+v, matched=%v; want broken row", first.Status, first.Matched)
	}

	last := summary.Reports[2]
	if !last.Script {
		t.Error("expected script classification for scripted/ui_cheats.package")
	}
	if !last.Matched || last.Status.Status != statusdb.StatusOK {
		t.Errorf("status join = %+v, matched=%v; want ok row", last.Status, last.Matched)
	}
	if last.Flagged() {
		t.Error("ok-status report must not be flagged")
	}
}

func TestScan_InvalidFileStillReported(t *testing.T) {
	t.Parallel()

	summary, err := Scan(context.Background(), writeModsDir(t), Options{})
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}

	var broken *Report
	for i := range summary.Reports {
		if summary.Reports[i].Path == "broken_blob.package" {
			broken = &summary.Reports[i]
		}
	}
	if broken == nil {
		t.Fatal("broken file must still appear in reports")
	}
	if broken.Info.IsValid {
		t.Error("expected is_valid=false for non-container file")
	}
	if broken.Info.Creator != "Unknown" {
		t.Errorf("creator = %q, want Unknown", broken.Info.Creator)
	}
}

func TestScan_CustomRulesRestrictSelection(t *testing.T) {
	t.Parallel()

	summary, err := Scan(context.Background(), writeModsDir(t), Options{
		Rules: []pathrules.Rule{
			{Action: pathrules.ActionInclude, Pattern: "scripted/**"},
		},
	})
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}

	if summary.Files != 1 {
		t.Fatalf("files = %d, want 1", summary.Files)
	}
	if summary.Reports[0].Path != "scripted/ui_cheats.package" {
		t.Errorf("path = %q, want scripted/ui_cheats.package", summary.Reports[0].Path)
	}
}

func TestScan_EmptyRoot(t *testing.T) {
	t.Parallel()

	summary, err := Scan(context.Background(), t.TempDir(), Options{})
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if summary.Files != 0 || len(summary.Reports) != 0 {
		t.Errorf("summary = %+v, want empty", summary)
	}
}

func TestScan_MissingRoot(t *testing.T) {
	t.Parallel()

	if _, err := Scan(context.Background(), filepath.Join(t.TempDir(), "nope"), Options{}); err == nil {
		t.Fatal("expected error for missing scan root")
	}
}

func TestScan_CancelledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := Scan(ctx, writeModsDir(t), Options{}); err == nil {
		t.Fatal("expected context error")
	}
}
