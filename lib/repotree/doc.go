// Copyright 2026 The Stratum Authors
// SPDX-License-Identifier: Apache-2.0

// Package repotree navigates the repository namespace across catalog
// boundaries.
//
// A repository's namespace is partitioned into catalogs: the manifest
// pins a root catalog, and each catalog may splice child catalogs in
// at mountpoint paths. Tree composes catalog-store lookups so callers
// see one namespace, fetching a nested catalog only when an operation
// actually crosses its mount boundary.
package repotree
