// Copyright 2026 The Stratum Authors
// SPDX-License-Identifier: Apache-2.0

// Package compression implements the object compression codecs used
// by repository storage.
//
// Content-addressed objects are stored compressed; the manifest
// declares which algorithm the repository uses. Digests are computed
// over the uncompressed content, so fetched bytes are decompressed
// first and verified after.
//
// All three codecs use self-describing framed encodings (zlib stream,
// zstd frame, lz4 frame), so decompression needs no out-of-band
// length information.
package compression
