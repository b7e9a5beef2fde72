// SPDX-License-Identifier: MIT
// Copyright (c) 2026 ModSentry
// Source: github.com/modsentry/dbpf

/*
Package dbpf reads metadata from DBPF game-mod container files: a fixed
96-byte header, an index table of 20-byte records, and raw resource payloads.
It is designed for batch scanning of community-produced archives that are
routinely truncated, corrupted, or deliberately obfuscated, so every
format-level anomaly is absorbed locally and expressed as data instead of an
error.

# Reading

Read per-file metadata and the script classification:

	info, err := dbpf.ReadPackage("mods/better_build.package")
	if err != nil {
	    // operating-system-level failure only; info is still safely defaulted
	}
	if info.IsValid {
	    fmt.Println(info.Name, info.Creator, info.ResourceCount)
	}
	if dbpf.IsScriptMod("mods/better_build.package") {
	    // file carries a script-sentinel resource
	}

Both operations open and close their own handle, hold no cross-call state,
and bound all work by explicit byte and record caps, so callers may invoke
them concurrently for independent files.

Format mismatch is a normal negative result (IsValid=false), not an error.
A valid signature on a file shorter than the full fixed header yields
zero-valued header fields, which consumers treat as "no index available".

Walking subpackages build on this core: statusdb joins decoded mods against
the community status table, scan drives concurrent directory scans, and
cmd/modscan ties both into a command-line report.
*/
package dbpf
