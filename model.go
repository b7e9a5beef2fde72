// SPDX-License-Identifier: MIT
// Copyright (c) 2026 ModSentry
// Source: github.com/modsentry/dbpf

package dbpf

// Internal binary layout and format limits.
const (
	// magic is the 4-byte ASCII signature at byte 0 of every container.
	magic = "DBPF"
	// fixedHeaderSize is the full fixed container header size in bytes.
	fixedHeaderSize = 96
	// indexRecordSize is one index record: five 4-byte fields.
	indexRecordSize = 20
)

// Fixed absolute byte offsets of header fields. Read through readHeaderField
// so every access is bounds-checked against the actual file length.
const (
	offMajorVersion = 4  // int32, immediately after the signature
	offMinorVersion = 8  // int32
	offEntryCount   = 34 // uint32 index entry count
	offIndexOffset  = 66 // uint32 absolute index table offset
	offIndexSize    = 70 // uint32 index table size in bytes
)

// Scan bounds against hostile or corrupted declared counts and sizes.
const (
	// metadataRecordCap bounds index records inspected for creator metadata.
	metadataRecordCap = 10
	// scriptRecordCap bounds index records inspected by the script classifier.
	scriptRecordCap = 100
	// maxSampledPayload is the payload size ceiling for metadata sampling;
	// larger payloads are assumed non-textual and skipped unread.
	maxSampledPayload = 100_000
	// samplePrefixSize is the bounded payload prefix read for text scanning.
	samplePrefixSize = 2048
	// maxCreatorLen rejects implausibly long marker matches as false positives.
	maxCreatorLen = 50
)

// ResourceType is the 4-byte type identifier of an index record.
type ResourceType uint32

// Resource type codes interpreted by this package. All other codes are opaque.
const (
	// TypeTuning marks tuning/definition resources, the only payload kind
	// sampled for creator metadata.
	TypeTuning ResourceType = 0x545AC67A
	// TypeScript is the no-type sentinel treated as a script indicator.
	// Known false-positive source: any legitimately zero-typed resource
	// also classifies the file as a script mod.
	TypeScript ResourceType = 0x00000000
)

// ContainerHeader is the validated fixed container header.
type ContainerHeader struct {
	// Valid reports whether the signature matched.
	Valid bool `json:"valid" yaml:"valid"`
	// MajorVersion is the container format major version.
	MajorVersion int32 `json:"major_version" yaml:"major_version"`
	// MinorVersion is the container format minor version.
	MinorVersion int32 `json:"minor_version" yaml:"minor_version"`
	// EntryCount is the declared index entry count; may be zero.
	EntryCount uint32 `json:"entry_count" yaml:"entry_count"`
	// IndexOffset is the declared absolute index table offset.
	IndexOffset uint32 `json:"index_offset" yaml:"index_offset"`
	// IndexSize is the declared index table size in bytes.
	IndexSize uint32 `json:"index_size" yaml:"index_size"`
}

// IndexRecord is one fixed-width index table record. Type is semantically
// meaningful; Group and Instance are carried as an opaque composite key.
type IndexRecord struct {
	// Type is the resource type identifier.
	Type ResourceType `json:"type" yaml:"type"`
	// Group is the resource group identifier.
	Group uint32 `json:"group" yaml:"group"`
	// Instance is the resource instance identifier.
	Instance uint32 `json:"instance" yaml:"instance"`
	// Offset is absolute byte offset of the resource payload.
	Offset uint32 `json:"offset" yaml:"offset"`
	// Size is payload size in bytes.
	Size uint32 `json:"size" yaml:"size"`
}

// PackageInfo is the reader's per-file output. Constructed fresh per call,
// fully populated in one pass, returned by value; no state is shared across
// calls.
type PackageInfo struct {
	// FileName is the base name of the scanned file.
	FileName string `json:"file_name" yaml:"file_name"`
	// Name is the display name derived from the file path.
	Name string `json:"name" yaml:"name"`
	// Creator is the extracted creator/author string, "Unknown" when no
	// metadata marker matched.
	Creator string `json:"creator" yaml:"creator"`
	// GameVersion is reserved; current heuristics never populate it.
	GameVersion string `json:"game_version" yaml:"game_version"`
	// Description is reserved; current heuristics never populate it.
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
	// ResourceCount is the declared index entry count.
	ResourceCount uint32 `json:"resource_count" yaml:"resource_count"`
	// IsValid reports whether the signature matched.
	IsValid bool `json:"is_valid" yaml:"is_valid"`
}

// unknownField is the default value for metadata fields no heuristic filled.
const unknownField = "Unknown"
