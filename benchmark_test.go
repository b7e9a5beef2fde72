// SPDX-License-Identifier: MIT
// Copyright (c) 2026 ModSentry
// Source: github.com/modsentry/dbpf

package dbpf

import (
	"bytes"
	"testing"
)

func BenchmarkReadPackageFromReaderAt(b *testing.B) {
	payload := []byte(`<tuning creator="Ada" version="3">`)
	records := make([]IndexRecord, 0, metadataRecordCap)
	for i := 0; i < metadataRecordCap-1; i++ {
		records = append(records, IndexRecord{Type: 0x0166038C, Offset: fixedHeaderSize, Size: 1})
	}
	records = append(records, IndexRecord{Type: TypeTuning, Offset: fixedHeaderSize, Size: uint32(len(payload))})
	data := buildContainer(uint32(len(records)), payload, records)
	ra := bytes.NewReader(data)

	b.ReportAllocs()
	for b.Loop() {
		info := ReadPackageFromReaderAt(ra, int64(len(data)), "bench.package")
		if !info.IsValid {
			b.Fatal("expected valid container")
		}
	}
}

func BenchmarkIsScriptModFromReaderAt(b *testing.B) {
	data := buildContainer(scriptRecordCap, nil, func() []IndexRecord {
		records := make([]IndexRecord, scriptRecordCap)
		for i := range records {
			records[i] = IndexRecord{Type: 0x0166038C, Offset: fixedHeaderSize, Size: 0}
		}
		return records
	}())
	ra := bytes.NewReader(data)

	b.ReportAllocs()
	for b.Loop() {
		if IsScriptModFromReaderAt(ra, int64(len(data))) {
			b.Fatal("unexpected script classification")
		}
	}
}
