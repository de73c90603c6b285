// Copyright 2026 The Stratum Authors
// SPDX-License-Identifier: Apache-2.0

package catalog

import (
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/stratumfs/stratum/lib/objecthash"
)

// EntryKind is the directory entry variant. Each kind carries only
// the fields it needs: ContentHash is meaningful for regular files,
// SymlinkTarget for symlinks.
type EntryKind uint8

const (
	// Regular is a plain file whose content lives in the object store
	// under the entry's content hash.
	Regular EntryKind = 0

	// Directory is a directory whose children live in the same
	// catalog.
	Directory EntryKind = 1

	// Symlink is a symbolic link; the target is stored inline.
	Symlink EntryKind = 2

	// Mountpoint is a directory whose subtree lives in a nested
	// catalog referenced by the enclosing catalog.
	Mountpoint EntryKind = 3
)

// String returns the lowercase kind name.
func (k EntryKind) String() string {
	switch k {
	case Regular:
		return "regular"
	case Directory:
		return "directory"
	case Symlink:
		return "symlink"
	case Mountpoint:
		return "mountpoint"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(k))
	}
}

// DirectoryEntry is one row of a catalog: a file, directory, symlink,
// or nested-catalog mountpoint, addressed by its full repository
// path.
type DirectoryEntry struct {
	// Path is the full repository path, "/" for the repository root.
	Path string

	// Name is the final path element, empty for the repository root.
	Name string

	// ParentPath is the full path of the containing directory. For
	// the repository root it equals the root itself.
	ParentPath string

	// Kind selects the entry variant.
	Kind EntryKind

	// Size is the content size in bytes for regular files, and the
	// encoded entry count hint for directories.
	Size int64

	// Mode holds the permission bits.
	Mode uint32

	// ModTime is the entry's modification time.
	ModTime time.Time

	// ContentHash addresses the file content. Only set for regular
	// files.
	ContentHash objecthash.Digest

	// SymlinkTarget is the link target. Only set for symlinks.
	SymlinkTarget string
}

// IsMountpoint reports whether the entry marks a nested-catalog
// mount.
func (e *DirectoryEntry) IsMountpoint() bool {
	return e.Kind == Mountpoint
}

// IsDirectoryLike reports whether the entry can have children:
// directories and mountpoints.
func (e *DirectoryEntry) IsDirectoryLike() bool {
	return e.Kind == Directory || e.Kind == Mountpoint
}

// NestedCatalogReference mounts a child catalog's namespace at
// MountPath. The child is fetched by Hash only when traversal crosses
// the boundary.
type NestedCatalogReference struct {
	// MountPath is the full repository path where the child catalog's
	// root is spliced in.
	MountPath string

	// Hash is the content hash of the child catalog.
	Hash objecthash.Digest

	// Size is the stored size hint of the child catalog in bytes.
	Size int64
}

// NormalizePath validates and canonicalizes a repository path:
// absolute, slash-separated, no trailing slash, "/" for the root.
func NormalizePath(p string) (string, error) {
	if p == "" || p == "/" {
		return "/", nil
	}
	if !strings.HasPrefix(p, "/") {
		return "", fmt.Errorf("catalog: path %q is not absolute", p)
	}
	cleaned := path.Clean(p)
	if cleaned != p {
		return "", fmt.Errorf("catalog: path %q is not canonical (want %q)", p, cleaned)
	}
	return cleaned, nil
}

// parentOf returns the containing directory of a normalized path.
// The root is its own parent.
func parentOf(p string) string {
	if p == "/" {
		return "/"
	}
	return path.Dir(p)
}

// baseOf returns the final element of a normalized path, empty for
// the root.
func baseOf(p string) string {
	if p == "/" {
		return ""
	}
	return path.Base(p)
}

// pathWithin reports whether p lies on or below boundary, respecting
// path-segment boundaries ("/ab" is not within "/a").
func pathWithin(p, boundary string) bool {
	if boundary == "/" {
		return true
	}
	return p == boundary || strings.HasPrefix(p, boundary+"/")
}
