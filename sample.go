// SPDX-License-Identifier: MIT
// Copyright (c) 2026 ModSentry
// Source: github.com/modsentry/dbpf

package dbpf

import (
	"io"
	"strings"
)

// creatorMarkers are substrings that commonly precede a creator/author value
// inside tuning text. Tried in declaration order, case-insensitively; the
// attribute-style markers come first so quoted values are preferred over
// loose label matches.
var creatorMarkers = []string{
	`creator="`,
	`author="`,
	`creator:`,
	`author:`,
}

// creatorStopSet terminates an extracted value.
const creatorStopSet = "\"<>\n\r"

// sampleCreator scans walk outcomes for the first extractable creator value.
// Only cleanly-decoded tuning records below the payload sanity ceiling are
// sampled; the search short-circuits on the first accepted value, which is
// how "at most one creator assignment per file" is guaranteed.
func sampleCreator(ra io.ReaderAt, outcomes []indexOutcome) (string, bool) {
	for _, out := range outcomes {
		if out.skip != skipNone {
			continue
		}
		if out.rec.Type != TypeTuning {
			continue
		}
		if out.rec.Size >= maxSampledPayload {
			// Oversized payloads are assumed non-textual and skipped
			// unread regardless of content.
			continue
		}

		if creator, ok := sampleRecordCreator(ra, out.rec); ok {
			return creator, true
		}
	}

	return "", false
}

// sampleRecordCreator reads a bounded payload prefix through an independent
// section-reader cursor and scans it as text. Using a fresh cursor per sample
// means the index walk position can never be corrupted by sampling. Any
// failure here is "no metadata from this record", never a parse failure.
func sampleRecordCreator(ra io.ReaderAt, rec IndexRecord) (string, bool) {
	n := int64(rec.Size)
	if n > samplePrefixSize {
		n = samplePrefixSize
	}
	if n <= 0 {
		return "", false
	}

	buf := make([]byte, n)
	sr := io.NewSectionReader(ra, int64(rec.Offset), n)
	if _, err := io.ReadFull(sr, buf); err != nil {
		return "", false
	}

	// Malformed sequences are substituted, not fatal: payloads are sampled
	// blind and are frequently binary.
	return extractCreator(strings.ToValidUTF8(string(buf), " "))
}

// extractCreator finds the first marker whose trailing value passes the
// emptiness and length sanity checks. A rejected value does not stop the
// scan; later markers may still produce an acceptable one.
func extractCreator(text string) (string, bool) {
	lower := lowerASCII(text)
	for _, marker := range creatorMarkers {
		idx := strings.Index(lower, marker)
		if idx < 0 {
			continue
		}

		value := text[idx+len(marker):]
		if stop := strings.IndexAny(value, creatorStopSet); stop >= 0 {
			value = value[:stop]
		}

		value = strings.TrimSpace(value)
		if value == "" || len(value) >= maxCreatorLen {
			// Implausibly long matches indicate a false-positive marker.
			continue
		}

		return value, true
	}

	return "", false
}

// lowerASCII folds A-Z byte-wise. Unlike strings.ToLower it never changes
// byte length, so marker indexes found in the folded copy stay valid against
// the original text. Markers are pure ASCII; other bytes pass unchanged.
func lowerASCII(text string) string {
	b := []byte(text)
	for i := 0; i < len(b); i++ {
		if b[i] >= 'A' && b[i] <= 'Z' {
			b[i] += 'a' - 'A'
		}
	}
	return string(b)
}
