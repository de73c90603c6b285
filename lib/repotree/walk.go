// Copyright 2026 The Stratum Authors
// SPDX-License-Identifier: Apache-2.0

package repotree

import (
	"context"
	"fmt"

	"github.com/stratumfs/stratum/lib/catalog"
	"github.com/stratumfs/stratum/lib/objecthash"
)

// WalkItem is one step of a tree walk: an entry, or the error that
// made a subtree unreachable. Exactly one of Entry and Err is set.
type WalkItem struct {
	// Path is the full repository path of the item.
	Path string

	// Entry is the directory entry at Path. Mount boundaries yield the
	// child catalog's root entry.
	Entry *catalog.DirectoryEntry

	// Err is set when the subtree at Path could not be entered. The
	// walk continues with the remaining siblings.
	Err error
}

// walkFrame is one catalog level of the traversal stack. It holds the
// owning catalog's hash rather than the decoded catalog, so the store
// may evict and re-fetch catalogs mid-walk without breaking the
// walker.
type walkFrame struct {
	catalogHash objecthash.Digest
	pending     []string
}

// Walker is a lazy depth-first pre-order traversal of the namespace.
// Entries within a directory are visited in name order, making the
// walk deterministic for a given repository state. A walker is for a
// single goroutine.
//
// Re-walking the same tree yields the same sequence; a broken mount
// or a fetch failure yields an error item for that subtree and the
// walk continues with its siblings.
type Walker struct {
	tree    *Tree
	stack   []walkFrame
	started bool
	current WalkItem
}

// Walk returns a walker over the whole namespace, starting below the
// repository root. Nothing is fetched until the first Next call.
func (t *Tree) Walk() *Walker {
	return &Walker{tree: t}
}

// Next advances the walk. It returns false when the traversal is
// exhausted; errors on individual subtrees are reported through Item,
// not by stopping the walk.
func (w *Walker) Next(ctx context.Context) bool {
	if !w.started {
		w.started = true
		root, err := w.tree.store.Get(ctx, w.tree.rootHash)
		if err != nil {
			w.current = WalkItem{Path: "/", Err: fmt.Errorf("repotree: root catalog: %w", err)}
			return true
		}
		w.push(root, "/")
	}

	for len(w.stack) > 0 {
		top := &w.stack[len(w.stack)-1]
		if len(top.pending) == 0 {
			w.stack = w.stack[:len(w.stack)-1]
			continue
		}
		itemPath := top.pending[0]
		top.pending = top.pending[1:]

		// Re-fetch by hash: the owning catalog may have been evicted
		// since this frame was pushed.
		owner, err := w.tree.store.Get(ctx, top.catalogHash)
		if err != nil {
			w.current = WalkItem{Path: itemPath, Err: fmt.Errorf("repotree: catalog for %q: %w", itemPath, err)}
			return true
		}

		entry, ok := owner.Lookup(itemPath)
		if !ok {
			w.current = WalkItem{Path: itemPath, Err: &NotFoundError{Path: itemPath}}
			return true
		}

		if entry.IsMountpoint() {
			w.current = w.crossMount(ctx, owner, itemPath)
			return true
		}

		w.current = WalkItem{Path: itemPath, Entry: entry}
		if entry.Kind == catalog.Directory {
			w.push(owner, itemPath)
		}
		return true
	}
	return false
}

// crossMount enters the nested catalog mounted at mountPath and
// yields its root entry. Broken mounts become error items so sibling
// subtrees keep walking.
func (w *Walker) crossMount(ctx context.Context, owner *catalog.Catalog, mountPath string) WalkItem {
	reference, ok := owner.NestedForPath(mountPath)
	if !ok || reference.MountPath != mountPath {
		return WalkItem{Path: mountPath, Err: &BrokenMountError{MountPath: mountPath, Err: ErrDanglingMount}}
	}

	child, err := w.tree.store.Get(ctx, reference.Hash)
	if err != nil {
		return WalkItem{Path: mountPath, Err: &BrokenMountError{MountPath: mountPath, Err: err}}
	}

	w.push(child, mountPath)
	return WalkItem{Path: mountPath, Entry: child.Root()}
}

// push queues the children of dirPath, owned by the given catalog.
func (w *Walker) push(owner *catalog.Catalog, dirPath string) {
	children := owner.Children(dirPath)
	if len(children) == 0 {
		return
	}
	pending := make([]string, len(children))
	copy(pending, children)
	w.stack = append(w.stack, walkFrame{catalogHash: owner.Hash, pending: pending})
}

// Item returns the current walk item. It is valid after a Next call
// that returned true, until the following Next call.
func (w *Walker) Item() WalkItem {
	return w.current
}
