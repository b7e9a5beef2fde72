// SPDX-License-Identifier: MIT
// Copyright (c) 2026 ModSentry
// Source: github.com/modsentry/dbpf

package statusdb

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/klauspost/compress/zstd"
)

// cacheFileName is the on-disk name of the compressed table snapshot.
const cacheFileName = "status_table.csv.zst"

// Cache sentinel errors. Use errors.Is in callers.
var (
	// ErrCacheMiss means no cached table snapshot exists.
	ErrCacheMiss = errors.New("no cached status table")
	// ErrCacheStale means the cached snapshot is older than the allowed age.
	ErrCacheStale = errors.New("cached status table is stale")
)

// Cache persists the raw status table between runs so scans keep working
// offline. Snapshots are zstd-compressed and replaced atomically.
type Cache struct {
	path string
}

// NewCache builds a cache rooted at dir.
func NewCache(dir string) *Cache {
	return &Cache{path: filepath.Join(dir, cacheFileName)}
}

// Path returns the snapshot file path.
func (c *Cache) Path() string {
	return c.path
}

// Save writes raw table bytes as the new snapshot. The write goes through a
// temp file and rename so a crashed run never leaves a torn snapshot.
func (c *Cache) Save(raw []byte) error {
	if err := os.MkdirAll(filepath.Dir(c.path), 0o750); err != nil {
		return fmt.Errorf("create cache dir: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(c.path), cacheFileName+".tmp-*")
	if err != nil {
		return fmt.Errorf("create cache temp file: %w", err)
	}
	tmpPath := tmp.Name()

	enc, err := zstd.NewWriter(tmp)
	if err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("init cache compressor: %w", err)
	}

	if _, err := enc.Write(raw); err == nil {
		err = enc.Close()
	} else {
		_ = enc.Close()
	}
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("write cache snapshot: %w", err)
	}

	if err := os.Rename(tmpPath, c.path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("replace cache snapshot: %w", err)
	}

	return nil
}

// Load reads the cached raw table bytes. maxAge zero accepts any snapshot
// age; otherwise snapshots older than maxAge fail with ErrCacheStale.
func (c *Cache) Load(maxAge time.Duration) ([]byte, error) {
	fi, err := os.Stat(c.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrCacheMiss
		}
		return nil, fmt.Errorf("stat cache snapshot: %w", err)
	}

	if maxAge > 0 && time.Since(fi.ModTime()) > maxAge {
		return nil, fmt.Errorf("%w: written %s", ErrCacheStale, fi.ModTime().Format(time.RFC3339))
	}

	f, err := os.Open(c.path)
	if err != nil {
		return nil, fmt.Errorf("open cache snapshot: %w", err)
	}
	defer func() { _ = f.Close() }()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return nil, fmt.Errorf("init cache decompressor: %w", err)
	}
	defer dec.Close()

	raw, err := io.ReadAll(io.LimitReader(dec, maxTableBytes))
	if err != nil {
		return nil, fmt.Errorf("read cache snapshot: %w", err)
	}

	return raw, nil
}
