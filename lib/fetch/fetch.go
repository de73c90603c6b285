// Copyright 2026 The Stratum Authors
// SPDX-License-Identifier: Apache-2.0

package fetch

import (
	"context"
	"errors"
	"fmt"

	"github.com/stratumfs/stratum/lib/compression"
	"github.com/stratumfs/stratum/lib/objecthash"
)

// ManifestName is the well-known name of the signed manifest at the
// repository root. The manifest is fetched raw (by name, uncompressed,
// unverified) because it is the trust anchor everything else hangs
// off; its own integrity comes from the signature check.
const ManifestName = ".stratumpublished"

// ErrNotFound indicates the requested object does not exist at the
// fetch source. Absence may be transient (a half-synced mirror);
// retry policy belongs to the caller.
var ErrNotFound = errors.New("fetch: object not found")

// ObjectKind distinguishes object roles in the content-addressed
// store. The kind appends a one-letter suffix to the shard path so
// that operators can identify object types on disk.
type ObjectKind uint8

const (
	// KindPlain is file content and other unsuffixed objects.
	KindPlain ObjectKind = iota

	// KindCatalog is a directory catalog database.
	KindCatalog

	// KindHistory is a tag history database.
	KindHistory

	// KindCertificate is a repository signing certificate.
	KindCertificate
)

// Suffix returns the shard path suffix for the kind.
func (k ObjectKind) Suffix() string {
	switch k {
	case KindCatalog:
		return "C"
	case KindHistory:
		return "H"
	case KindCertificate:
		return "X"
	default:
		return ""
	}
}

// ObjectPath returns the repository-relative shard path for an
// object: data/<hex[:2]>/<hex[2:]><suffix>. Two-level sharding keeps
// directory fan-out bounded on filesystem-backed repositories.
func ObjectPath(digest objecthash.Digest, kind ObjectKind) string {
	hex := digest.Hex()
	return "data/" + hex[:2] + "/" + hex[2:] + kind.Suffix()
}

// Fetcher retrieves raw repository bytes. Implementations do not
// decompress or verify; that is Retrieve's job. Fetch and FetchName
// return an error wrapping ErrNotFound when the source has no such
// object.
type Fetcher interface {
	// Fetch returns the stored bytes of the content-addressed object
	// with the given digest and kind.
	Fetch(ctx context.Context, digest objecthash.Digest, kind ObjectKind) ([]byte, error)

	// FetchName returns the bytes of a top-level repository file,
	// such as the manifest.
	FetchName(ctx context.Context, name string) ([]byte, error)
}

// Retrieve fetches a content-addressed object, decompresses it with
// the repository's algorithm, and verifies the digest over the
// decompressed bytes. This is the only path by which object bytes
// reach a decoder: a verification failure is fatal for the fetch and
// the bytes are discarded.
func Retrieve(ctx context.Context, fetcher Fetcher, digest objecthash.Digest, kind ObjectKind, algorithm compression.Algorithm) ([]byte, error) {
	stored, err := fetcher.Fetch(ctx, digest, kind)
	if err != nil {
		return nil, err
	}

	data, err := compression.Decompress(stored, algorithm)
	if err != nil {
		return nil, fmt.Errorf("fetch: object %s: %w", digest, err)
	}

	if err := objecthash.Verify(digest, data); err != nil {
		return nil, err
	}
	return data, nil
}
