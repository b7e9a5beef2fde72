// SPDX-License-Identifier: MIT
// Copyright (c) 2026 ModSentry
// Source: github.com/modsentry/dbpf

package dbpf

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// skipReason explains why one index record produced no usable result.
// Recording the reason keeps the "skip this record, never abort the file"
// policy inspectable instead of hiding it behind suppressed failures.
type skipReason uint8

const (
	// skipNone means the record decoded cleanly with an in-bounds payload.
	skipNone skipReason = iota
	// skipShortRead means the record bytes run past end-of-file.
	skipShortRead
	// skipPayloadBounds means the payload offset/size points past end-of-file.
	skipPayloadBounds
)

// indexOutcome is one index walk result: a decoded record or a skip reason.
type indexOutcome struct {
	rec  IndexRecord
	skip skipReason
}

// ReadPackage reads container metadata for one mod file.
//
// The returned PackageInfo is always safely defaulted and usable. A non-nil
// error is raised only for operating-system-level open/stat failures; format
// mismatch, truncation, and corrupted index data are all expressed as default
// or partial fields so a batch scan is never aborted by one bad file.
func ReadPackage(path string) (PackageInfo, error) {
	info := newPackageInfo(path)

	f, size, err := openFileWithSize(path)
	if err != nil {
		return info, err
	}
	defer func() { _ = f.Close() }()

	return readPackage(f, size, info), nil
}

// ReadPackageFromReaderAt reads container metadata from a random-access
// source of known size. name is used only for display-name derivation.
func ReadPackageFromReaderAt(ra io.ReaderAt, size int64, name string) PackageInfo {
	info := newPackageInfo(name)
	if ra == nil {
		return info
	}

	return readPackage(ra, size, info)
}

// readPackage populates info from a validated header and one index walk.
func readPackage(ra io.ReaderAt, size int64, info PackageInfo) PackageInfo {
	hdr := readHeader(ra, size)
	if !hdr.Valid {
		return info
	}

	info.IsValid = true
	info.ResourceCount = hdr.EntryCount

	// First acceptable marker match wins; the walk is capped so hostile
	// entry counts cannot inflate per-file cost.
	if creator, ok := sampleCreator(ra, walkIndex(ra, size, hdr, metadataRecordCap)); ok {
		info.Creator = creator
	}

	return info
}

// newPackageInfo builds the safely-defaulted result for one path.
func newPackageInfo(path string) PackageInfo {
	base := filepath.Base(path)
	return PackageInfo{
		FileName:    base,
		Name:        strings.TrimSuffix(base, filepath.Ext(base)),
		Creator:     unknownField,
		GameVersion: unknownField,
	}
}

// walkIndex decodes up to maxRecords index records starting at the header's
// declared index offset. Records that cannot be decoded or whose payload
// references run past end-of-file are reported as skip outcomes; the walk
// itself never fails.
func walkIndex(ra io.ReaderAt, size int64, hdr ContainerHeader, maxRecords int) []indexOutcome {
	if !hdr.Valid || hdr.EntryCount == 0 || hdr.IndexOffset == 0 {
		return nil
	}
	if int64(hdr.IndexOffset) >= size {
		return nil
	}

	count := int(hdr.EntryCount)
	if count > maxRecords {
		count = maxRecords
	}

	outcomes := make([]indexOutcome, 0, count)
	var buf [indexRecordSize]byte
	for i := 0; i < count; i++ {
		recOffset := int64(hdr.IndexOffset) + int64(i)*indexRecordSize
		if _, err := ra.ReadAt(buf[:], recOffset); err != nil {
			// Records are laid out sequentially, so everything past the
			// first short read is unreadable too.
			outcomes = append(outcomes, indexOutcome{skip: skipShortRead})
			break
		}

		rec := IndexRecord{
			Type:     ResourceType(binary.LittleEndian.Uint32(buf[0:4])),
			Group:    binary.LittleEndian.Uint32(buf[4:8]),
			Instance: binary.LittleEndian.Uint32(buf[8:12]),
			Offset:   binary.LittleEndian.Uint32(buf[12:16]),
			Size:     binary.LittleEndian.Uint32(buf[16:20]),
		}

		skip := skipNone
		if int64(rec.Offset)+int64(rec.Size) > size {
			skip = skipPayloadBounds
		}

		outcomes = append(outcomes, indexOutcome{rec: rec, skip: skip})
	}

	return outcomes
}

// openFileWithSize opens a file and returns a handle plus current size.
func openFileWithSize(path string) (*os.File, int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %w", ErrOpen, err)
	}

	fi, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, 0, fmt.Errorf("%w: stat: %w", ErrOpen, err)
	}

	return f, fi.Size(), nil
}
