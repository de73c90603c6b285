// Copyright 2026 The Stratum Authors
// SPDX-License-Identifier: Apache-2.0

package repotree

import (
	"context"
	"errors"
	"fmt"
	"path"

	"github.com/stratumfs/stratum/lib/catalog"
	"github.com/stratumfs/stratum/lib/catalogstore"
	"github.com/stratumfs/stratum/lib/objecthash"
)

// ErrDanglingMount indicates a mountpoint entry with no matching
// nested catalog reference in its catalog. The subtree behind the
// mount is unreachable.
var ErrDanglingMount = errors.New("repotree: mountpoint has no nested catalog reference")

// NotFoundError reports a path with no entry in the namespace.
type NotFoundError struct {
	Path string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("repotree: path %q not found", e.Path)
}

// BrokenMountError reports a mount boundary that cannot be crossed:
// the nested catalog reference is missing, or the referenced catalog
// cannot be fetched or decoded. The error is fatal for the subtree
// behind the mount and leaves sibling subtrees intact.
type BrokenMountError struct {
	MountPath string
	Err       error
}

func (e *BrokenMountError) Error() string {
	return fmt.Sprintf("repotree: broken mount at %q: %v", e.MountPath, e.Err)
}

func (e *BrokenMountError) Unwrap() error {
	return e.Err
}

// Tree resolves repository paths across nested catalog boundaries.
// All catalog state lives in the shared store, so a Tree is safe for
// concurrent use; walkers returned by Walk are not.
type Tree struct {
	store    *catalogstore.Store
	rootHash objecthash.Digest
}

// New returns a Tree rooted at the catalog with the given hash.
// Nothing is fetched until an operation needs it.
func New(store *catalogstore.Store, rootHash objecthash.Digest) *Tree {
	return &Tree{store: store, rootHash: rootHash}
}

// RootHash returns the content hash of the root catalog.
func (t *Tree) RootHash() objecthash.Digest {
	return t.rootHash
}

// CatalogForPath returns the deepest catalog whose subtree contains
// the given path, descending through nested catalogs as needed. The
// path itself need not exist; the result is the catalog that would
// hold it.
func (t *Tree) CatalogForPath(ctx context.Context, rawPath string) (*catalog.Catalog, error) {
	normalized, err := catalog.NormalizePath(rawPath)
	if err != nil {
		return nil, err
	}
	return t.descend(ctx, normalized)
}

// descend walks from the root catalog to the catalog owning the
// normalized path. Each hop fetches at most one nested catalog, and
// only because its mount path lies on the requested path.
func (t *Tree) descend(ctx context.Context, normalized string) (*catalog.Catalog, error) {
	current, err := t.store.Get(ctx, t.rootHash)
	if err != nil {
		return nil, fmt.Errorf("repotree: root catalog: %w", err)
	}

	for {
		reference, ok := current.NestedForPath(normalized)
		if !ok {
			return current, nil
		}
		child, err := t.store.Get(ctx, reference.Hash)
		if err != nil {
			return nil, &BrokenMountError{MountPath: reference.MountPath, Err: err}
		}
		current = child
	}
}

// Resolve returns the directory entry at the given path, fetching
// nested catalogs lazily as the path crosses mount boundaries. A path
// that lands exactly on a mount boundary resolves to the child
// catalog's root entry.
func (t *Tree) Resolve(ctx context.Context, rawPath string) (*catalog.DirectoryEntry, error) {
	normalized, err := catalog.NormalizePath(rawPath)
	if err != nil {
		return nil, err
	}

	owner, err := t.descend(ctx, normalized)
	if err != nil {
		return nil, err
	}

	entry, ok := owner.Lookup(normalized)
	if !ok {
		// The entry may be missing because an ancestor mountpoint has
		// no nested reference, leaving its subtree stored nowhere.
		for probe := normalized; probe != owner.RootPrefix && probe != "/"; probe = parentOf(probe) {
			if ancestor, ok := owner.Lookup(probe); ok && ancestor.IsMountpoint() {
				return nil, &BrokenMountError{MountPath: probe, Err: ErrDanglingMount}
			}
		}
		return nil, &NotFoundError{Path: normalized}
	}

	if entry.IsMountpoint() {
		// descend found no reference covering this path, so the mount
		// is dangling; a backed mount would have been crossed already.
		return nil, &BrokenMountError{MountPath: normalized, Err: ErrDanglingMount}
	}
	return entry, nil
}

// List returns the entries directly under the given directory path,
// sorted by name. Listing a mount boundary lists the child catalog's
// root directory.
func (t *Tree) List(ctx context.Context, rawPath string) ([]*catalog.DirectoryEntry, error) {
	normalized, err := catalog.NormalizePath(rawPath)
	if err != nil {
		return nil, err
	}

	entry, err := t.Resolve(ctx, normalized)
	if err != nil {
		return nil, err
	}
	if !entry.IsDirectoryLike() {
		return nil, fmt.Errorf("repotree: path %q is a %s, not a directory", normalized, entry.Kind)
	}

	owner, err := t.descend(ctx, normalized)
	if err != nil {
		return nil, err
	}

	childPaths := owner.Children(normalized)
	entries := make([]*catalog.DirectoryEntry, 0, len(childPaths))
	for _, childPath := range childPaths {
		child, ok := owner.Lookup(childPath)
		if !ok {
			continue
		}
		entries = append(entries, child)
	}
	return entries, nil
}

// ListNested enumerates the nested catalog references mounted at or
// below the given path. Without recursive, only references embedded
// in the path's own catalog are returned, requiring no extra fetches;
// with recursive, referenced catalogs are fetched breadth-first and
// their references collected transitively.
func (t *Tree) ListNested(ctx context.Context, rawPath string, recursive bool) ([]catalog.NestedCatalogReference, error) {
	normalized, err := catalog.NormalizePath(rawPath)
	if err != nil {
		return nil, err
	}

	owner, err := t.descend(ctx, normalized)
	if err != nil {
		return nil, err
	}

	var references []catalog.NestedCatalogReference
	for _, reference := range owner.NestedReferences() {
		if pathWithin(reference.MountPath, normalized) {
			references = append(references, reference)
		}
	}

	if !recursive {
		return references, nil
	}

	queue := append([]catalog.NestedCatalogReference(nil), references...)
	for len(queue) > 0 {
		reference := queue[0]
		queue = queue[1:]

		child, err := t.store.Get(ctx, reference.Hash)
		if err != nil {
			return nil, &BrokenMountError{MountPath: reference.MountPath, Err: err}
		}
		childReferences := child.NestedReferences()
		references = append(references, childReferences...)
		queue = append(queue, childReferences...)
	}
	return references, nil
}

// parentOf returns the containing directory of a normalized path. The
// root is its own parent.
func parentOf(p string) string {
	if p == "/" {
		return "/"
	}
	return path.Dir(p)
}

// pathWithin reports whether p lies on or below boundary, respecting
// path-segment boundaries.
func pathWithin(p, boundary string) bool {
	if boundary == "/" {
		return true
	}
	if p == boundary {
		return true
	}
	return len(p) > len(boundary) && p[:len(boundary)] == boundary && p[len(boundary)] == '/'
}
