// Copyright 2026 The Stratum Authors
// SPDX-License-Identifier: Apache-2.0

// Package catalog decodes directory catalogs: content-addressed
// SQLite databases mapping one subtree of repository paths to
// directory entries and nested-catalog mount references.
//
// A catalog covers the subtree rooted at its root prefix. Paths that
// fall under one of its nested references belong to the referenced
// child catalog instead; the reference carries the child's content
// hash so the child can be fetched lazily when a traversal actually
// crosses the mount boundary.
//
// Decoding is strict: a catalog with a missing or duplicated root
// entry, duplicate paths, or broken parent linkage is rejected as
// inconsistent rather than partially trusted. Decoded catalogs are
// immutable.
package catalog
