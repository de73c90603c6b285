// Copyright 2026 The Stratum Authors
// SPDX-License-Identifier: Apache-2.0

// Package history decodes repository tag history objects and walks
// the backward-linked chain of history segments.
//
// A history object is a SQLite database of named tags, each pinning a
// root catalog hash at a revision. Long-lived repositories roll their
// history: a segment carries an optional content hash of the previous
// segment, forming a chain that Older follows lazily back to genesis.
package history
