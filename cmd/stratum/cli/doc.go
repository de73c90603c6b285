// Copyright 2026 The Stratum Authors
// SPDX-License-Identifier: Apache-2.0

// Package cli provides the command tree framework for the stratum
// binary: declarative commands with pflag flag sets, structured help
// output, and typo suggestions for unknown commands and flags.
package cli
