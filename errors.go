// SPDX-License-Identifier: MIT
// Copyright (c) 2026 ModSentry
// Source: github.com/modsentry/dbpf

package dbpf

import "errors"

// Sentinel errors for container operations. Use errors.Is in callers.
//
// Format-level anomalies (bad signature, truncated header, out-of-range index
// references) are never represented as errors: they are expressed as default
// or partial PackageInfo fields so a batch scan keeps moving. Only OS-level
// failures surface here.
var (
	// ErrOpen wraps operating-system-level failures opening the container file.
	ErrOpen = errors.New("open container")
)
