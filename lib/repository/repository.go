// Copyright 2026 The Stratum Authors
// SPDX-License-Identifier: Apache-2.0

package repository

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/stratumfs/stratum/lib/catalogstore"
	"github.com/stratumfs/stratum/lib/fetch"
	"github.com/stratumfs/stratum/lib/history"
	"github.com/stratumfs/stratum/lib/manifest"
	"github.com/stratumfs/stratum/lib/objecthash"
	"github.com/stratumfs/stratum/lib/repotree"
)

// ErrNoHistory indicates the manifest carries no history object.
var ErrNoHistory = errors.New("repository: manifest has no history")

// Repository is an open, verified session against one repository
// snapshot. It is safe for concurrent use.
type Repository struct {
	manifest    *manifest.Manifest
	certificate *manifest.Certificate
	fetcher     fetch.Fetcher
	store       *catalogstore.Store
	tree        *repotree.Tree
	logger      *slog.Logger
}

// Open fetches and verifies the repository's manifest and signing
// certificate, then builds the session around them. The manifest is
// fetched raw at its well-known name; the certificate is fetched by
// the content hash the manifest pins. Open fails, and the repository
// must not be used, if any link of the chain does not verify.
func Open(ctx context.Context, cfg Config) (*Repository, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	fetcher, err := cfg.fetcher()
	if err != nil {
		return nil, fmt.Errorf("repository: source %q: %w", cfg.Source, err)
	}

	raw, err := fetcher.FetchName(ctx, fetch.ManifestName)
	if err != nil {
		return nil, fmt.Errorf("repository: fetching manifest: %w", err)
	}
	parsed, err := manifest.Parse(raw)
	if err != nil {
		return nil, err
	}
	if cfg.Name != "" && parsed.RepositoryName != cfg.Name {
		return nil, fmt.Errorf("repository: manifest names %q, config expects %q",
			parsed.RepositoryName, cfg.Name)
	}

	certificate, err := loadCertificate(ctx, fetcher, parsed, cfg.CertificateFingerprint)
	if err != nil {
		return nil, err
	}
	if err := parsed.Verify(certificate); err != nil {
		return nil, fmt.Errorf("repository: manifest rejected: %w", err)
	}

	store, err := catalogstore.New(catalogstore.Config{
		Fetcher:     fetcher,
		Compression: parsed.Compression,
		MaxResident: cfg.CacheSize,
		Logger:      logger,
	})
	if err != nil {
		return nil, err
	}

	logger.Info("repository opened",
		"name", parsed.RepositoryName,
		"revision", parsed.Revision,
		"root", parsed.RootHash.String())

	return &Repository{
		manifest:    parsed,
		certificate: certificate,
		fetcher:     fetcher,
		store:       store,
		tree:        repotree.New(store, parsed.RootHash),
		logger:      logger,
	}, nil
}

// loadCertificate retrieves the signing certificate pinned by the
// manifest and checks it against the configured fingerprint, if any.
func loadCertificate(ctx context.Context, fetcher fetch.Fetcher, parsed *manifest.Manifest, fingerprint string) (*manifest.Certificate, error) {
	data, err := fetch.Retrieve(ctx, fetcher, parsed.CertificateHash, fetch.KindCertificate, parsed.Compression)
	if err != nil {
		return nil, fmt.Errorf("repository: fetching certificate: %w", err)
	}
	certificate, err := manifest.ParseCertificate(data)
	if err != nil {
		return nil, err
	}

	if fingerprint != "" {
		pinned, err := objecthash.Parse(fingerprint)
		if err != nil {
			return nil, fmt.Errorf("repository: certificate fingerprint: %w", err)
		}
		actual := certificate.Digest(pinned.Algorithm)
		if !actual.Equal(pinned) {
			return nil, fmt.Errorf("repository: certificate %s does not match pinned fingerprint %s",
				actual, pinned)
		}
	}
	return certificate, nil
}

// Manifest returns the verified manifest.
func (r *Repository) Manifest() *manifest.Manifest {
	return r.manifest
}

// Certificate returns the signing certificate the manifest verified
// against.
func (r *Repository) Certificate() *manifest.Certificate {
	return r.certificate
}

// Tree returns the namespace tree rooted at the manifest's root
// catalog.
func (r *Repository) Tree() *repotree.Tree {
	return r.tree
}

// Store returns the session's catalog store.
func (r *Repository) Store() *catalogstore.Store {
	return r.store
}

// History loads the newest history segment referenced by the
// manifest. It returns ErrNoHistory when the manifest carries none;
// older segments are reached through the chain itself.
func (r *Repository) History(ctx context.Context) (*history.Chain, error) {
	if !r.manifest.HasHistory() {
		return nil, ErrNoHistory
	}
	source := history.Source{Fetcher: r.fetcher, Compression: r.manifest.Compression}
	return history.Load(ctx, source, r.manifest.HistoryHash)
}
