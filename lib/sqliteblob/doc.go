// Copyright 2026 The Stratum Authors
// SPDX-License-Identifier: Apache-2.0

// Package sqliteblob opens fetched SQLite database blobs as read-only
// connections. Catalog and history objects are both SQLite databases
// shipped as content-addressed blobs; this package handles the spill
// to a temporary file and the read-only connection setup they share.
package sqliteblob
