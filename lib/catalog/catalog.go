// Copyright 2026 The Stratum Authors
// SPDX-License-Identifier: Apache-2.0

package catalog

import (
	"github.com/stratumfs/stratum/lib/objecthash"
)

// Catalog is a decoded, immutable directory catalog.
type Catalog struct {
	// Hash is the content hash the catalog was fetched under.
	Hash objecthash.Digest

	// SchemaVersion is the on-disk schema revision.
	SchemaVersion int64

	// RootPrefix is the repository path of the catalog's root entry:
	// "/" for the root catalog, the mount path for nested catalogs.
	RootPrefix string

	entries          map[string]*DirectoryEntry
	childrenByParent map[string][]string
	nested           []NestedCatalogReference
	nestedByPath     map[string]int
}

// Lookup returns the entry stored locally for the given normalized
// path. It does not consult nested references; callers that need
// cross-catalog resolution use the repository tree.
func (c *Catalog) Lookup(path string) (*DirectoryEntry, bool) {
	entry, ok := c.entries[path]
	return entry, ok
}

// Root returns the catalog's root entry (the entry at RootPrefix).
// Decoding guarantees it exists.
func (c *Catalog) Root() *DirectoryEntry {
	return c.entries[c.RootPrefix]
}

// Children returns the paths of the entries whose parent is the given
// normalized path, sorted by name. The catalog root is not its own
// child.
func (c *Catalog) Children(path string) []string {
	return c.childrenByParent[path]
}

// EntryCount returns the number of directory entries in the catalog.
func (c *Catalog) EntryCount() int {
	return len(c.entries)
}

// NestedReferences returns the catalog's nested-catalog references,
// sorted by mount path.
func (c *Catalog) NestedReferences() []NestedCatalogReference {
	out := make([]NestedCatalogReference, len(c.nested))
	copy(out, c.nested)
	return out
}

// NestedForPath returns the nested reference whose mount subtree
// contains the given normalized path, if any. Mount paths within one
// catalog are disjoint, so at most one reference matches.
func (c *Catalog) NestedForPath(path string) (NestedCatalogReference, bool) {
	// Exact mountpoint or any ancestor directory of path that is a
	// mount. Walking up the ancestor chain bounds the work by path
	// depth instead of reference count.
	for probe := path; ; probe = parentOf(probe) {
		if index, ok := c.nestedByPath[probe]; ok && pathWithin(path, probe) {
			return c.nested[index], true
		}
		if probe == "/" {
			return NestedCatalogReference{}, false
		}
	}
}
