// Copyright 2026 The Stratum Authors
// SPDX-License-Identifier: Apache-2.0

// Package manifest decodes and verifies the signed root descriptor of
// a repository snapshot.
//
// The manifest is a flat line-oriented record: one single-letter key
// per line, a "--" trailer, then a digest of the field block and a
// detached ed25519 signature over that digest line. The signature is
// checked against the repository certificate, which the manifest pins
// by content hash.
//
// A manifest that fails verification must never be used to resolve a
// root catalog. The repository session enforces this: it refuses to
// construct when Verify fails.
package manifest
