// Copyright 2026 The Stratum Authors
// SPDX-License-Identifier: Apache-2.0

// Package repotest builds synthetic on-disk repositories for tests: a
// signing key and certificate, compressed sharded objects, and a
// signed manifest, laid out the way a published repository is.
package repotest
