// Copyright 2026 The Stratum Authors
// SPDX-License-Identifier: Apache-2.0

package repotest

import (
	"crypto/ed25519"
	"crypto/rand"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stratumfs/stratum/lib/catalog"
	"github.com/stratumfs/stratum/lib/compression"
	"github.com/stratumfs/stratum/lib/fetch"
	"github.com/stratumfs/stratum/lib/history"
	"github.com/stratumfs/stratum/lib/manifest"
	"github.com/stratumfs/stratum/lib/objecthash"
)

// Builder assembles a repository under a temporary directory. All
// methods fail the test on error.
type Builder struct {
	tb testing.TB

	dir         string
	name        string
	compression compression.Algorithm

	key             ed25519.PrivateKey
	certificateHash objecthash.Digest
}

// NewBuilder creates a repository skeleton for the named repository:
// a fresh signing key and its certificate object, stored under a
// test-scoped temporary directory. Objects are compressed with zlib.
func NewBuilder(tb testing.TB, name string) *Builder {
	tb.Helper()

	_, key, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		tb.Fatalf("repotest: generating key: %v", err)
	}

	b := &Builder{
		tb:          tb,
		dir:         tb.TempDir(),
		name:        name,
		compression: compression.Zlib,
		key:         key,
	}
	certificate := manifest.EncodeCertificate(name, key.Public().(ed25519.PublicKey))
	b.certificateHash = b.WriteObject(certificate, fetch.KindCertificate)
	return b
}

// Dir returns the repository root directory.
func (b *Builder) Dir() string {
	return b.dir
}

// Key returns the repository signing key.
func (b *Builder) Key() ed25519.PrivateKey {
	return b.key
}

// CertificateHash returns the content hash of the certificate object.
func (b *Builder) CertificateHash() objecthash.Digest {
	return b.certificateHash
}

// WriteObject compresses data and stores it at its sharded object
// path, returning the content hash (computed over the uncompressed
// bytes, which is what readers verify after decompression).
func (b *Builder) WriteObject(data []byte, kind fetch.ObjectKind) objecthash.Digest {
	b.tb.Helper()

	digest := objecthash.Sum(objecthash.SHA256, data)
	compressed, err := compression.Compress(data, b.compression)
	if err != nil {
		b.tb.Fatalf("repotest: compressing object: %v", err)
	}

	objectPath := filepath.Join(b.dir, filepath.FromSlash(fetch.ObjectPath(digest, kind)))
	if err := os.MkdirAll(filepath.Dir(objectPath), 0o755); err != nil {
		b.tb.Fatalf("repotest: creating shard directory: %v", err)
	}
	if err := os.WriteFile(objectPath, compressed, 0o644); err != nil {
		b.tb.Fatalf("repotest: writing object: %v", err)
	}
	return digest
}

// WriteCatalog encodes and stores a catalog, returning its hash.
func (b *Builder) WriteCatalog(builder *catalog.Builder) objecthash.Digest {
	b.tb.Helper()
	data, err := builder.Encode()
	if err != nil {
		b.tb.Fatalf("repotest: encoding catalog: %v", err)
	}
	return b.WriteObject(data, fetch.KindCatalog)
}

// WriteHistory encodes and stores a history segment, returning its
// hash.
func (b *Builder) WriteHistory(builder *history.Builder) objecthash.Digest {
	b.tb.Helper()
	data, err := builder.Encode()
	if err != nil {
		b.tb.Fatalf("repotest: encoding history: %v", err)
	}
	return b.WriteObject(data, fetch.KindHistory)
}

// PublishManifest signs and writes the manifest at the well-known
// name. Repository name, certificate hash, compression, and timestamp
// are filled in when unset, so most tests only provide the root hash.
func (b *Builder) PublishManifest(m manifest.Manifest) {
	b.tb.Helper()

	if m.RepositoryName == "" {
		m.RepositoryName = b.name
	}
	if m.CertificateHash.IsZero() {
		m.CertificateHash = b.certificateHash
	}
	if m.Compression == compression.None {
		m.Compression = b.compression
	}
	if m.LastModified.IsZero() {
		m.LastModified = time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC)
	}

	data, err := m.Encode(b.key)
	if err != nil {
		b.tb.Fatalf("repotest: encoding manifest: %v", err)
	}
	if err := os.WriteFile(filepath.Join(b.dir, fetch.ManifestName), data, 0o644); err != nil {
		b.tb.Fatalf("repotest: writing manifest: %v", err)
	}
}

// PublishSimple writes a one-catalog repository with a root directory
// and a single file, publishes its manifest, and returns the root
// catalog hash. It covers tests that need a valid repository but do
// not care about its shape.
func (b *Builder) PublishSimple() objecthash.Digest {
	b.tb.Helper()

	rootHash := b.WriteCatalog(catalog.NewBuilder("/").
		AddEntry(catalog.Entry("/", catalog.Directory)).
		AddEntry(catalog.Entry("/readme", catalog.Regular)))
	b.PublishManifest(manifest.Manifest{RootHash: rootHash, Revision: 1})
	return rootHash
}
