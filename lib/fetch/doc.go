// Copyright 2026 The Stratum Authors
// SPDX-License-Identifier: Apache-2.0

// Package fetch provides the byte-fetch-by-hash capability consumed
// by the metadata traversal core.
//
// A repository is a directory tree (local or behind a plain HTTP
// server) with a well-known manifest file at its root and
// content-addressed objects sharded under data/. The core never sees
// URLs or paths: it asks a Fetcher for an object by digest and kind,
// and for raw top-level files by name.
//
// Retrieve composes the full pipeline for content-addressed objects:
// fetch, decompress, verify. Decoders receive only verified bytes.
package fetch
