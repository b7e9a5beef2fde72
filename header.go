// SPDX-License-Identifier: MIT
// Copyright (c) 2026 ModSentry
// Source: github.com/modsentry/dbpf

package dbpf

import (
	"encoding/binary"
	"io"
)

// headerField names one fixed-width little-endian field at an absolute byte
// offset inside the fixed header. The layout table below replaces scattered
// magic seek positions with one declarative description.
type headerField struct {
	name   string
	offset int64
	width  int
}

// headerLayout is the fixed container header layout beyond the signature.
var headerLayout = struct {
	majorVersion headerField
	minorVersion headerField
	entryCount   headerField
	indexOffset  headerField
	indexSize    headerField
}{
	majorVersion: headerField{name: "major_version", offset: offMajorVersion, width: 4},
	minorVersion: headerField{name: "minor_version", offset: offMinorVersion, width: 4},
	entryCount:   headerField{name: "entry_count", offset: offEntryCount, width: 4},
	indexOffset:  headerField{name: "index_offset", offset: offIndexOffset, width: 4},
	indexSize:    headerField{name: "index_size", offset: offIndexSize, width: 4},
}

// readHeaderField reads one layout field, bounds-checked against size.
// A field past end-of-file reads as zero: a valid-signature file shorter than
// the full fixed header is "metadata-limited", not broken, and zero
// offset/count already means "no index available" to every consumer.
func readHeaderField(ra io.ReaderAt, size int64, field headerField) uint32 {
	if field.offset < 0 || field.offset+int64(field.width) > size {
		return 0
	}

	var buf [4]byte
	if _, err := ra.ReadAt(buf[:field.width], field.offset); err != nil {
		return 0
	}

	return binary.LittleEndian.Uint32(buf[:])
}

// readHeader validates the signature and decodes the fixed header fields.
// A signature mismatch yields Valid=false with every other field at its zero
// default; that is the expected negative result for "not this format".
func readHeader(ra io.ReaderAt, size int64) ContainerHeader {
	var hdr ContainerHeader
	if ra == nil {
		return hdr
	}

	var sig [len(magic)]byte
	if _, err := ra.ReadAt(sig[:], 0); err != nil {
		return hdr
	}

	if string(sig[:]) != magic {
		return hdr
	}

	hdr.Valid = true
	hdr.MajorVersion = int32(readHeaderField(ra, size, headerLayout.majorVersion))
	hdr.MinorVersion = int32(readHeaderField(ra, size, headerLayout.minorVersion))
	hdr.EntryCount = readHeaderField(ra, size, headerLayout.entryCount)
	hdr.IndexOffset = readHeaderField(ra, size, headerLayout.indexOffset)
	hdr.IndexSize = readHeaderField(ra, size, headerLayout.indexSize)

	return hdr
}
