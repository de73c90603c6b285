// Copyright 2026 The Stratum Authors
// SPDX-License-Identifier: Apache-2.0

// Package version provides build version information for stratum
// binaries.
//
// Version information is injected at build time via -ldflags, for
// example:
//
//	go build -ldflags "-X github.com/stratumfs/stratum/lib/version.GitCommit=$(git rev-parse --short HEAD)"
package version
