// Copyright 2026 The Stratum Authors
// SPDX-License-Identifier: Apache-2.0

// Package catalogstore caches decoded catalogs by content hash.
//
// The store owns every decoded catalog in a session. A Get miss runs
// the full object pipeline (fetch, decompress, verify, decode) and
// caches the result; repeated Gets for the same hash hit the cache,
// and concurrent Gets for the same hash share a single in-flight
// fetch. Residency is bounded: least-recently-used catalogs are
// evicted past the configured limit. Content addressing makes
// eviction harmless for correctness — an evicted catalog is simply
// re-fetched by hash on next use.
//
// A store may be shared by any number of repository trees. Decoded
// catalogs are immutable, so sharing needs no coordination beyond the
// store's own locking.
package catalogstore
