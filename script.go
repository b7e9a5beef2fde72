// SPDX-License-Identifier: MIT
// Copyright (c) 2026 ModSentry
// Source: github.com/modsentry/dbpf

package dbpf

import "io"

// IsScriptMod reports whether any of the first scriptRecordCap index records
// carries the script-sentinel type code.
//
// Unreadable or non-conforming files classify as false, never as an error:
// a failure to classify one file must not block the rest of a batch scan.
func IsScriptMod(path string) bool {
	f, size, err := openFileWithSize(path)
	if err != nil {
		return false
	}
	defer func() { _ = f.Close() }()

	return IsScriptModFromReaderAt(f, size)
}

// IsScriptModFromReaderAt classifies a random-access source of known size.
// The header is re-derived here rather than reusing a prior ContainerHeader,
// so the classifier works standalone on the same path as ReadPackage.
func IsScriptModFromReaderAt(ra io.ReaderAt, size int64) bool {
	if ra == nil {
		return false
	}

	hdr := readHeader(ra, size)
	if !hdr.Valid {
		return false
	}

	for _, out := range walkIndex(ra, size, hdr, scriptRecordCap) {
		if out.skip == skipShortRead {
			continue
		}

		// Payload bounds do not matter here: classification reads only the
		// type identifier, never the payload.
		if out.rec.Type == TypeScript {
			return true
		}
	}

	return false
}
