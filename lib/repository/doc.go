// Copyright 2026 The Stratum Authors
// SPDX-License-Identifier: Apache-2.0

// Package repository is the session surface of the traversal engine.
//
// Open fetches a repository's manifest and signing certificate,
// verifies the signature chain, and hands back a Repository exposing
// the namespace tree and the tag history. A repository whose manifest
// does not verify is never opened.
package repository
