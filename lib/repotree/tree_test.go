// Copyright 2026 The Stratum Authors
// SPDX-License-Identifier: Apache-2.0

package repotree

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stratumfs/stratum/lib/catalog"
	"github.com/stratumfs/stratum/lib/catalogstore"
	"github.com/stratumfs/stratum/lib/compression"
	"github.com/stratumfs/stratum/lib/fetch"
	"github.com/stratumfs/stratum/lib/objecthash"
)

// memoryFetcher serves uncompressed catalog blobs and counts fetches
// per hash.
type memoryFetcher struct {
	mu      sync.Mutex
	objects map[objecthash.Digest][]byte
	counts  map[objecthash.Digest]int
}

func newMemoryFetcher() *memoryFetcher {
	return &memoryFetcher{
		objects: make(map[objecthash.Digest][]byte),
		counts:  make(map[objecthash.Digest]int),
	}
}

func (f *memoryFetcher) Fetch(ctx context.Context, digest objecthash.Digest, kind fetch.ObjectKind) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.counts[digest]++
	data, ok := f.objects[digest]
	if !ok {
		return nil, fetch.ErrNotFound
	}
	return data, nil
}

func (f *memoryFetcher) FetchName(ctx context.Context, name string) ([]byte, error) {
	return nil, fetch.ErrNotFound
}

func (f *memoryFetcher) add(t *testing.T, builder *catalog.Builder) objecthash.Digest {
	t.Helper()
	data, err := builder.Encode()
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	digest := objecthash.Sum(objecthash.SHA256, data)
	f.mu.Lock()
	f.objects[digest] = data
	f.mu.Unlock()
	return digest
}

func (f *memoryFetcher) count(digest objecthash.Digest) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.counts[digest]
}

func newTree(t *testing.T, fetcher *memoryFetcher, rootHash objecthash.Digest, maxResident int) *Tree {
	t.Helper()
	store, err := catalogstore.New(catalogstore.Config{
		Fetcher:     fetcher,
		Compression: compression.None,
		MaxResident: maxResident,
	})
	if err != nil {
		t.Fatalf("catalogstore.New: %v", err)
	}
	return New(store, rootHash)
}

// buildNestedRepository publishes the two-catalog fixture used by
// most tests: a root catalog with /file and a mount at /a, and a
// child catalog with /a/x and /a/y. It returns the root and child
// hashes.
func buildNestedRepository(t *testing.T, fetcher *memoryFetcher) (objecthash.Digest, objecthash.Digest) {
	t.Helper()

	childHash := fetcher.add(t, catalog.NewBuilder("/a").
		AddEntry(catalog.Entry("/a", catalog.Directory)).
		AddEntry(catalog.Entry("/a/x", catalog.Regular)).
		AddEntry(catalog.Entry("/a/y", catalog.Regular)))

	rootHash := fetcher.add(t, catalog.NewBuilder("/").
		AddEntry(catalog.Entry("/", catalog.Directory)).
		AddEntry(catalog.Entry("/file", catalog.Regular)).
		AddEntry(catalog.Entry("/a", catalog.Mountpoint)).
		AddNested(catalog.NestedCatalogReference{MountPath: "/a", Hash: childHash}))

	return rootHash, childHash
}

func TestResolveLocalEntry(t *testing.T) {
	fetcher := newMemoryFetcher()
	rootHash, childHash := buildNestedRepository(t, fetcher)
	tree := newTree(t, fetcher, rootHash, 0)

	entry, err := tree.Resolve(context.Background(), "/file")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if entry.Kind != catalog.Regular || entry.Path != "/file" {
		t.Errorf("entry = %+v", entry)
	}

	// Resolving a path outside the mount must not fetch the nested
	// catalog.
	if got := fetcher.count(childHash); got != 0 {
		t.Errorf("nested catalog fetched %d times resolving /file", got)
	}
}

func TestResolveCrossesMount(t *testing.T) {
	fetcher := newMemoryFetcher()
	rootHash, childHash := buildNestedRepository(t, fetcher)
	tree := newTree(t, fetcher, rootHash, 0)

	entry, err := tree.Resolve(context.Background(), "/a/x")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if entry.Kind != catalog.Regular || entry.Path != "/a/x" {
		t.Errorf("entry = %+v", entry)
	}
	if got := fetcher.count(childHash); got != 1 {
		t.Errorf("nested catalog fetch count = %d, want 1", got)
	}
}

func TestResolveMountBoundary(t *testing.T) {
	fetcher := newMemoryFetcher()
	rootHash, _ := buildNestedRepository(t, fetcher)
	tree := newTree(t, fetcher, rootHash, 0)

	// The mount path resolves to the child catalog's root entry, not
	// the mountpoint placeholder.
	entry, err := tree.Resolve(context.Background(), "/a")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if entry.Kind != catalog.Directory {
		t.Errorf("mount boundary resolved to %s, want directory", entry.Kind)
	}
}

func TestResolveRoot(t *testing.T) {
	fetcher := newMemoryFetcher()
	rootHash, _ := buildNestedRepository(t, fetcher)
	tree := newTree(t, fetcher, rootHash, 0)

	entry, err := tree.Resolve(context.Background(), "/")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if entry.Path != "/" || entry.Kind != catalog.Directory {
		t.Errorf("entry = %+v", entry)
	}
}

func TestResolveNotFound(t *testing.T) {
	fetcher := newMemoryFetcher()
	rootHash, _ := buildNestedRepository(t, fetcher)
	tree := newTree(t, fetcher, rootHash, 0)

	var notFound *NotFoundError
	if _, err := tree.Resolve(context.Background(), "/a/missing"); !errors.As(err, &notFound) {
		t.Fatalf("Resolve = %v, want *NotFoundError", err)
	}
	if _, err := tree.Resolve(context.Background(), "/nope"); !errors.As(err, &notFound) {
		t.Fatalf("Resolve = %v, want *NotFoundError", err)
	}
}

func TestResolveDanglingMount(t *testing.T) {
	fetcher := newMemoryFetcher()
	rootHash := fetcher.add(t, catalog.NewBuilder("/").
		AddEntry(catalog.Entry("/", catalog.Directory)).
		AddEntry(catalog.Entry("/b", catalog.Mountpoint)))
	tree := newTree(t, fetcher, rootHash, 0)

	var broken *BrokenMountError
	if _, err := tree.Resolve(context.Background(), "/b"); !errors.As(err, &broken) {
		t.Fatalf("Resolve(/b) = %v, want *BrokenMountError", err)
	}
	if !errors.Is(broken, ErrDanglingMount) {
		t.Errorf("broken mount cause = %v, want ErrDanglingMount", broken.Err)
	}

	// A path below the dangling mount is broken too, not merely
	// absent.
	if _, err := tree.Resolve(context.Background(), "/b/deep/file"); !errors.As(err, &broken) {
		t.Fatalf("Resolve(/b/deep/file) = %v, want *BrokenMountError", err)
	}
	if broken.MountPath != "/b" {
		t.Errorf("MountPath = %q, want /b", broken.MountPath)
	}
}

func TestResolveUnfetchableMount(t *testing.T) {
	fetcher := newMemoryFetcher()
	missing := objecthash.Sum(objecthash.SHA256, []byte("never published"))
	rootHash := fetcher.add(t, catalog.NewBuilder("/").
		AddEntry(catalog.Entry("/", catalog.Directory)).
		AddEntry(catalog.Entry("/a", catalog.Mountpoint)).
		AddNested(catalog.NestedCatalogReference{MountPath: "/a", Hash: missing}))
	tree := newTree(t, fetcher, rootHash, 0)

	var broken *BrokenMountError
	if _, err := tree.Resolve(context.Background(), "/a/x"); !errors.As(err, &broken) {
		t.Fatalf("Resolve = %v, want *BrokenMountError", err)
	}
	if !errors.Is(broken, catalogstore.ErrObjectUnavailable) {
		t.Errorf("broken mount cause = %v, want ErrObjectUnavailable", broken.Err)
	}
}

func TestList(t *testing.T) {
	fetcher := newMemoryFetcher()
	rootHash, _ := buildNestedRepository(t, fetcher)
	tree := newTree(t, fetcher, rootHash, 0)

	entries, err := tree.List(context.Background(), "/")
	if err != nil {
		t.Fatalf("List(/): %v", err)
	}
	if len(entries) != 2 || entries[0].Path != "/a" || entries[1].Path != "/file" {
		t.Fatalf("List(/) = %v", paths(entries))
	}

	// Listing the mount boundary lists the child catalog's contents.
	entries, err = tree.List(context.Background(), "/a")
	if err != nil {
		t.Fatalf("List(/a): %v", err)
	}
	if len(entries) != 2 || entries[0].Path != "/a/x" || entries[1].Path != "/a/y" {
		t.Fatalf("List(/a) = %v", paths(entries))
	}

	if _, err := tree.List(context.Background(), "/file"); err == nil {
		t.Fatal("List(/file) succeeded on a regular file")
	}
}

func paths(entries []*catalog.DirectoryEntry) []string {
	out := make([]string, len(entries))
	for index, entry := range entries {
		out[index] = entry.Path
	}
	return out
}

// buildDeepRepository publishes three chained catalogs: root mounts
// /a, and /a's catalog mounts /a/b.
func buildDeepRepository(t *testing.T, fetcher *memoryFetcher) objecthash.Digest {
	t.Helper()

	grandchildHash := fetcher.add(t, catalog.NewBuilder("/a/b").
		AddEntry(catalog.Entry("/a/b", catalog.Directory)).
		AddEntry(catalog.Entry("/a/b/leaf", catalog.Regular)))

	childHash := fetcher.add(t, catalog.NewBuilder("/a").
		AddEntry(catalog.Entry("/a", catalog.Directory)).
		AddEntry(catalog.Entry("/a/b", catalog.Mountpoint)).
		AddNested(catalog.NestedCatalogReference{MountPath: "/a/b", Hash: grandchildHash}))

	return fetcher.add(t, catalog.NewBuilder("/").
		AddEntry(catalog.Entry("/", catalog.Directory)).
		AddEntry(catalog.Entry("/a", catalog.Mountpoint)).
		AddEntry(catalog.Entry("/z", catalog.Regular)).
		AddNested(catalog.NestedCatalogReference{MountPath: "/a", Hash: childHash}))
}

func TestListNested(t *testing.T) {
	fetcher := newMemoryFetcher()
	rootHash := buildDeepRepository(t, fetcher)
	tree := newTree(t, fetcher, rootHash, 0)

	// Immediate references only: the root catalog embeds just /a.
	references, err := tree.ListNested(context.Background(), "/", false)
	if err != nil {
		t.Fatalf("ListNested: %v", err)
	}
	if len(references) != 1 || references[0].MountPath != "/a" {
		t.Fatalf("references = %+v", references)
	}

	// Recursive enumeration fetches /a's catalog to find /a/b.
	references, err = tree.ListNested(context.Background(), "/", true)
	if err != nil {
		t.Fatalf("ListNested recursive: %v", err)
	}
	if len(references) != 2 || references[0].MountPath != "/a" || references[1].MountPath != "/a/b" {
		t.Fatalf("recursive references = %+v", references)
	}
}

func TestListNestedScopedToPath(t *testing.T) {
	fetcher := newMemoryFetcher()
	otherHash := fetcher.add(t, catalog.NewBuilder("/other").
		AddEntry(catalog.Entry("/other", catalog.Directory)))
	childHash := fetcher.add(t, catalog.NewBuilder("/a").
		AddEntry(catalog.Entry("/a", catalog.Directory)))
	rootHash := fetcher.add(t, catalog.NewBuilder("/").
		AddEntry(catalog.Entry("/", catalog.Directory)).
		AddEntry(catalog.Entry("/a", catalog.Mountpoint)).
		AddEntry(catalog.Entry("/other", catalog.Mountpoint)).
		AddNested(catalog.NestedCatalogReference{MountPath: "/a", Hash: childHash}).
		AddNested(catalog.NestedCatalogReference{MountPath: "/other", Hash: otherHash}))
	tree := newTree(t, fetcher, rootHash, 0)

	references, err := tree.ListNested(context.Background(), "/a", false)
	if err != nil {
		t.Fatalf("ListNested: %v", err)
	}
	if len(references) != 1 || references[0].MountPath != "/a" {
		t.Fatalf("references = %+v", references)
	}
}

func TestCatalogForPath(t *testing.T) {
	fetcher := newMemoryFetcher()
	rootHash, childHash := buildNestedRepository(t, fetcher)
	tree := newTree(t, fetcher, rootHash, 0)

	owner, err := tree.CatalogForPath(context.Background(), "/a/anything/below")
	if err != nil {
		t.Fatalf("CatalogForPath: %v", err)
	}
	if !owner.Hash.Equal(childHash) {
		t.Errorf("owner = %s, want child catalog %s", owner.Hash, childHash)
	}

	owner, err = tree.CatalogForPath(context.Background(), "/file")
	if err != nil {
		t.Fatalf("CatalogForPath: %v", err)
	}
	if !owner.Hash.Equal(rootHash) {
		t.Errorf("owner = %s, want root catalog %s", owner.Hash, rootHash)
	}
}

func collectWalk(t *testing.T, tree *Tree) ([]string, []WalkItem) {
	t.Helper()
	walker := tree.Walk()
	var visited []string
	var errorItems []WalkItem
	for walker.Next(context.Background()) {
		item := walker.Item()
		if item.Err != nil {
			errorItems = append(errorItems, item)
			continue
		}
		visited = append(visited, item.Path)
	}
	return visited, errorItems
}

func TestWalkOrder(t *testing.T) {
	fetcher := newMemoryFetcher()
	rootHash, _ := buildNestedRepository(t, fetcher)
	tree := newTree(t, fetcher, rootHash, 0)

	want := []string{"/a", "/a/x", "/a/y", "/file"}
	visited, errorItems := collectWalk(t, tree)
	if len(errorItems) != 0 {
		t.Fatalf("walk errors: %+v", errorItems)
	}
	if !equalStrings(visited, want) {
		t.Fatalf("walk order = %v, want %v", visited, want)
	}

	// Restartable: a second walk yields the identical sequence.
	again, _ := collectWalk(t, tree)
	if !equalStrings(again, visited) {
		t.Fatalf("second walk = %v, first = %v", again, visited)
	}
}

func TestWalkContinuesPastBrokenMount(t *testing.T) {
	fetcher := newMemoryFetcher()
	missing := objecthash.Sum(objecthash.SHA256, []byte("never published"))
	goodHash := fetcher.add(t, catalog.NewBuilder("/good").
		AddEntry(catalog.Entry("/good", catalog.Directory)).
		AddEntry(catalog.Entry("/good/file", catalog.Regular)))
	rootHash := fetcher.add(t, catalog.NewBuilder("/").
		AddEntry(catalog.Entry("/", catalog.Directory)).
		AddEntry(catalog.Entry("/broken", catalog.Mountpoint)).
		AddEntry(catalog.Entry("/good", catalog.Mountpoint)).
		AddNested(catalog.NestedCatalogReference{MountPath: "/broken", Hash: missing}).
		AddNested(catalog.NestedCatalogReference{MountPath: "/good", Hash: goodHash}))
	tree := newTree(t, fetcher, rootHash, 0)

	visited, errorItems := collectWalk(t, tree)

	if len(errorItems) != 1 || errorItems[0].Path != "/broken" {
		t.Fatalf("error items = %+v", errorItems)
	}
	var broken *BrokenMountError
	if !errors.As(errorItems[0].Err, &broken) {
		t.Errorf("error item = %v, want *BrokenMountError", errorItems[0].Err)
	}
	if !equalStrings(visited, []string{"/good", "/good/file"}) {
		t.Errorf("visited = %v, want the intact sibling subtree", visited)
	}
}

func TestWalkSurvivesEviction(t *testing.T) {
	fetcher := newMemoryFetcher()
	rootHash := buildDeepRepository(t, fetcher)

	// A single-slot store forces evictions at every mount crossing.
	tree := newTree(t, fetcher, rootHash, 1)

	visited, errorItems := collectWalk(t, tree)
	if len(errorItems) != 0 {
		t.Fatalf("walk errors: %+v", errorItems)
	}
	want := []string{"/a", "/a/b", "/a/b/leaf", "/z"}
	if !equalStrings(visited, want) {
		t.Fatalf("walk order = %v, want %v", visited, want)
	}
	if got := fetcher.count(rootHash); got < 2 {
		t.Errorf("root catalog fetched %d times, eviction expected to force re-fetches", got)
	}
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for index := range a {
		if a[index] != b[index] {
			return false
		}
	}
	return true
}
