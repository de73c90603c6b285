// Copyright 2026 The Stratum Authors
// SPDX-License-Identifier: Apache-2.0

// Package commands assembles the stratum command tree: inspection
// commands over a repository's manifest, namespace, nested catalogs,
// and tag history.
package commands
