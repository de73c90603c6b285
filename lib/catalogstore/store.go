// Copyright 2026 The Stratum Authors
// SPDX-License-Identifier: Apache-2.0

package catalogstore

import (
	"container/list"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/stratumfs/stratum/lib/catalog"
	"github.com/stratumfs/stratum/lib/compression"
	"github.com/stratumfs/stratum/lib/fetch"
	"github.com/stratumfs/stratum/lib/objecthash"
)

// ErrObjectUnavailable indicates the catalog object is absent at the
// fetch source. Absence may be transient; the caller owns retry
// policy.
var ErrObjectUnavailable = errors.New("catalogstore: object unavailable")

// CorruptError reports a catalog object that was fetched but failed
// verification or decoding. Corruption is fatal for the object and
// never retried by the store.
type CorruptError struct {
	Hash objecthash.Digest
	Err  error
}

func (e *CorruptError) Error() string {
	return fmt.Sprintf("catalogstore: catalog %s corrupt: %v", e.Hash, e.Err)
}

func (e *CorruptError) Unwrap() error {
	return e.Err
}

// DefaultMaxResident is the catalog residency bound used when the
// config leaves it zero.
const DefaultMaxResident = 16

// Config holds the parameters for a catalog store.
type Config struct {
	// Fetcher supplies raw object bytes by hash.
	Fetcher fetch.Fetcher

	// Compression is the repository's object compression algorithm,
	// from the manifest.
	Compression compression.Algorithm

	// MaxResident bounds the number of decoded catalogs held in
	// memory. Zero means DefaultMaxResident; negative disables
	// eviction.
	MaxResident int

	// Logger receives eviction and fetch events. If nil, a no-op
	// logger is used.
	Logger *slog.Logger
}

// Store is a bounded content-addressed cache of decoded catalogs.
// Safe for concurrent use.
type Store struct {
	fetcher     fetch.Fetcher
	compression compression.Algorithm
	maxResident int
	logger      *slog.Logger

	mu       sync.Mutex
	resident map[objecthash.Digest]*list.Element
	order    *list.List // front = most recently used
	inflight map[objecthash.Digest]*fetchCall

	fetchCount int64
}

// residentCatalog is the order-list payload.
type residentCatalog struct {
	hash    objecthash.Digest
	catalog *catalog.Catalog
}

// fetchCall tracks one in-flight fetch shared by concurrent callers.
type fetchCall struct {
	done    chan struct{}
	catalog *catalog.Catalog
	err     error
}

// New creates a catalog store.
func New(cfg Config) (*Store, error) {
	if cfg.Fetcher == nil {
		return nil, fmt.Errorf("catalogstore: Fetcher is required")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	maxResident := cfg.MaxResident
	if maxResident == 0 {
		maxResident = DefaultMaxResident
	}

	return &Store{
		fetcher:     cfg.Fetcher,
		compression: cfg.Compression,
		maxResident: maxResident,
		logger:      logger,
		resident:    make(map[objecthash.Digest]*list.Element),
		order:       list.New(),
		inflight:    make(map[objecthash.Digest]*fetchCall),
	}, nil
}

// Get returns the decoded catalog for hash, fetching and decoding it
// on first use. Concurrent calls for the same hash share one fetch;
// each hash is decoded at most once while it stays resident.
func (s *Store) Get(ctx context.Context, hash objecthash.Digest) (*catalog.Catalog, error) {
	s.mu.Lock()

	if element, ok := s.resident[hash]; ok {
		s.order.MoveToFront(element)
		resident := element.Value.(*residentCatalog)
		s.mu.Unlock()
		return resident.catalog, nil
	}

	if call, ok := s.inflight[hash]; ok {
		s.mu.Unlock()
		select {
		case <-call.done:
			return call.catalog, call.err
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	call := &fetchCall{done: make(chan struct{})}
	s.inflight[hash] = call
	s.mu.Unlock()

	decoded, err := s.fetchAndDecode(ctx, hash)

	s.mu.Lock()
	delete(s.inflight, hash)
	call.catalog, call.err = decoded, err
	if err == nil {
		s.insert(hash, decoded)
	}
	s.mu.Unlock()
	close(call.done)

	return decoded, err
}

// Contains reports whether the catalog is currently resident. It does
// not affect recency.
func (s *Store) Contains(hash objecthash.Digest) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.resident[hash]
	return ok
}

// Len returns the number of resident catalogs.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.order.Len()
}

// FetchCount returns the number of object fetches issued so far.
// Exposed for tests that assert at-most-one-fetch behavior.
func (s *Store) FetchCount() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fetchCount
}

// insert adds a decoded catalog and evicts past the residency bound.
// Caller holds s.mu.
func (s *Store) insert(hash objecthash.Digest, decoded *catalog.Catalog) {
	s.resident[hash] = s.order.PushFront(&residentCatalog{hash: hash, catalog: decoded})

	if s.maxResident < 0 {
		return
	}
	for s.order.Len() > s.maxResident {
		oldest := s.order.Back()
		resident := oldest.Value.(*residentCatalog)
		s.order.Remove(oldest)
		delete(s.resident, resident.hash)
		s.logger.Debug("catalog evicted",
			"hash", resident.hash.String(),
			"resident", s.order.Len(),
		)
	}
}

// fetchAndDecode runs the object pipeline outside the store lock.
func (s *Store) fetchAndDecode(ctx context.Context, hash objecthash.Digest) (*catalog.Catalog, error) {
	s.mu.Lock()
	s.fetchCount++
	s.mu.Unlock()

	data, err := fetch.Retrieve(ctx, s.fetcher, hash, fetch.KindCatalog, s.compression)
	if err != nil {
		if errors.Is(err, fetch.ErrNotFound) {
			return nil, fmt.Errorf("%w: catalog %s", ErrObjectUnavailable, hash)
		}
		var mismatch *objecthash.MismatchError
		if errors.As(err, &mismatch) || errors.Is(err, compression.ErrCorrupt) {
			return nil, &CorruptError{Hash: hash, Err: err}
		}
		// Transport errors pass through for the caller's retry policy.
		return nil, err
	}

	decoded, err := catalog.Decode(data, hash)
	if err != nil {
		return nil, &CorruptError{Hash: hash, Err: err}
	}

	s.logger.Debug("catalog loaded",
		"hash", hash.String(),
		"entries", decoded.EntryCount(),
		"nested", len(decoded.NestedReferences()),
	)
	return decoded, nil
}
