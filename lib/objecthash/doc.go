// Copyright 2026 The Stratum Authors
// SPDX-License-Identifier: Apache-2.0

// Package objecthash provides the content digest type used to address
// and verify every object in a repository.
//
// A repository object (catalog, history database, certificate) is
// identified by the digest of its uncompressed content. The digest is
// both the fetch key and the integrity check: bytes pulled from any
// source are re-hashed and compared against the requested digest
// before they are trusted.
//
// Two algorithms are supported: SHA-256 (the default) and BLAKE3. The
// canonical text form is lowercase hex; BLAKE3 digests carry a
// "-blake3" suffix so the algorithm survives round-trips through
// manifests and catalog tables.
package objecthash
