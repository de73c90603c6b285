// Copyright 2026 The Stratum Authors
// SPDX-License-Identifier: Apache-2.0

package catalog

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
	"time"

	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"

	"github.com/stratumfs/stratum/lib/objecthash"
	"github.com/stratumfs/stratum/lib/sqliteblob"
)

// ErrMalformed indicates bytes that are not a readable catalog
// database: not SQLite, missing tables, or unparseable column values.
var ErrMalformed = errors.New("catalog: malformed")

// InconsistencyError reports a structurally valid catalog that
// violates a catalog invariant: duplicate paths, a missing or
// duplicated root entry, broken parent linkage, or overlapping nested
// references. It indicates a corrupted or adversarial repository and
// is always fatal for the catalog.
type InconsistencyError struct {
	Reason string
}

func (e *InconsistencyError) Error() string {
	return "catalog: inconsistent: " + e.Reason
}

// OverflowError reports a numeric column whose value does not fit the
// field's declared width. Values are never silently truncated.
type OverflowError struct {
	Column string
	Value  int64
}

func (e *OverflowError) Error() string {
	return fmt.Sprintf("catalog: column %s value %d overflows its field", e.Column, e.Value)
}

// currentSchemaVersion is the newest schema this decoder understands.
const currentSchemaVersion = 1

// Decode parses a catalog database blob. The hash is the content
// hash the blob was fetched (and verified) under; it becomes the
// catalog's identity.
func Decode(data []byte, hash objecthash.Digest) (*Catalog, error) {
	conn, cleanup, err := sqliteblob.Open(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	defer cleanup()

	properties, err := sqliteblob.ReadProperties(conn)
	if err != nil {
		return nil, fmt.Errorf("%w: properties: %v", ErrMalformed, err)
	}

	schemaVersion, err := strconv.ParseInt(properties["schema_version"], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: schema_version %q", ErrMalformed, properties["schema_version"])
	}
	if schemaVersion < 1 || schemaVersion > currentSchemaVersion {
		return nil, fmt.Errorf("%w: unsupported schema version %d", ErrMalformed, schemaVersion)
	}

	rootPrefix, err := NormalizePath(properties["root_prefix"])
	if err != nil {
		return nil, fmt.Errorf("%w: root_prefix: %v", ErrMalformed, err)
	}

	decoded := &Catalog{
		Hash:             hash,
		SchemaVersion:    schemaVersion,
		RootPrefix:       rootPrefix,
		entries:          make(map[string]*DirectoryEntry),
		childrenByParent: make(map[string][]string),
		nestedByPath:     make(map[string]int),
	}

	if err := decoded.readEntries(conn); err != nil {
		return nil, err
	}
	if err := decoded.readNestedReferences(conn); err != nil {
		return nil, err
	}
	if err := decoded.validate(); err != nil {
		return nil, err
	}

	decoded.indexChildren()
	return decoded, nil
}

func (c *Catalog) readEntries(conn *sqlite.Conn) error {
	var rowErr error
	err := sqlitex.Execute(conn,
		`SELECT path, parent, name, kind, size, mode, mtime, hash, symlink FROM entries`,
		&sqlitex.ExecOptions{
			ResultFunc: func(stmt *sqlite.Stmt) error {
				if rowErr != nil {
					return nil
				}
				rowErr = c.addEntryRow(stmt)
				return nil
			},
		})
	if err != nil {
		return fmt.Errorf("%w: entries: %v", ErrMalformed, err)
	}
	return rowErr
}

func (c *Catalog) addEntryRow(stmt *sqlite.Stmt) error {
	entryPath, err := NormalizePath(stmt.ColumnText(0))
	if err != nil {
		return &InconsistencyError{Reason: err.Error()}
	}

	if _, exists := c.entries[entryPath]; exists {
		return &InconsistencyError{Reason: fmt.Sprintf("duplicate entry path %q", entryPath)}
	}

	kindValue := stmt.ColumnInt64(3)
	if kindValue < 0 || kindValue > int64(Mountpoint) {
		return fmt.Errorf("%w: entry %q has unknown kind %d", ErrMalformed, entryPath, kindValue)
	}

	size := stmt.ColumnInt64(4)
	if size < 0 {
		return &OverflowError{Column: "entries.size", Value: size}
	}
	mode := stmt.ColumnInt64(5)
	if mode < 0 || mode > math.MaxUint32 {
		return &OverflowError{Column: "entries.mode", Value: mode}
	}
	mtime := stmt.ColumnInt64(6)
	if mtime < 0 {
		return &OverflowError{Column: "entries.mtime", Value: mtime}
	}

	entry := &DirectoryEntry{
		Path:          entryPath,
		Name:          stmt.ColumnText(2),
		ParentPath:    stmt.ColumnText(1),
		Kind:          EntryKind(kindValue),
		Size:          size,
		Mode:          uint32(mode),
		ModTime:       time.Unix(mtime, 0).UTC(),
		SymlinkTarget: stmt.ColumnText(8),
	}

	if hashText := stmt.ColumnText(7); hashText != "" {
		digest, err := objecthash.Parse(hashText)
		if err != nil {
			return fmt.Errorf("%w: entry %q content hash: %v", ErrMalformed, entryPath, err)
		}
		entry.ContentHash = digest
	}

	c.entries[entryPath] = entry
	return nil
}

func (c *Catalog) readNestedReferences(conn *sqlite.Conn) error {
	var rowErr error
	err := sqlitex.Execute(conn,
		`SELECT path, hash, size FROM nested_catalogs ORDER BY path`,
		&sqlitex.ExecOptions{
			ResultFunc: func(stmt *sqlite.Stmt) error {
				if rowErr != nil {
					return nil
				}

				mountPath, err := NormalizePath(stmt.ColumnText(0))
				if err != nil {
					rowErr = &InconsistencyError{Reason: err.Error()}
					return nil
				}
				if _, exists := c.nestedByPath[mountPath]; exists {
					rowErr = &InconsistencyError{Reason: fmt.Sprintf("duplicate nested reference %q", mountPath)}
					return nil
				}

				digest, err := objecthash.Parse(stmt.ColumnText(1))
				if err != nil {
					rowErr = fmt.Errorf("%w: nested reference %q hash: %v", ErrMalformed, mountPath, err)
					return nil
				}
				size := stmt.ColumnInt64(2)
				if size < 0 {
					rowErr = &OverflowError{Column: "nested_catalogs.size", Value: size}
					return nil
				}

				c.nestedByPath[mountPath] = len(c.nested)
				c.nested = append(c.nested, NestedCatalogReference{
					MountPath: mountPath,
					Hash:      digest,
					Size:      size,
				})
				return nil
			},
		})
	if err != nil {
		return fmt.Errorf("%w: nested_catalogs: %v", ErrMalformed, err)
	}
	return rowErr
}

// validate enforces the catalog invariants that span rows: exactly
// one root entry, every entry inside the root prefix, parent linkage
// consistent with paths, and nested mounts disjoint. A mountpoint
// entry without a matching nested reference is deliberately NOT a
// decode error: it surfaces as a broken mount when (and only when)
// traversal crosses it, so one bad mount cannot poison sibling
// subtrees sharing the catalog.
func (c *Catalog) validate() error {
	rootEntry, ok := c.entries[c.RootPrefix]
	if !ok {
		return &InconsistencyError{Reason: fmt.Sprintf("no root entry at %q", c.RootPrefix)}
	}
	if !rootEntry.IsDirectoryLike() {
		return &InconsistencyError{Reason: fmt.Sprintf("root entry at %q is a %s", c.RootPrefix, rootEntry.Kind)}
	}

	for entryPath, entry := range c.entries {
		if !pathWithin(entryPath, c.RootPrefix) {
			return &InconsistencyError{Reason: fmt.Sprintf("entry %q outside root prefix %q", entryPath, c.RootPrefix)}
		}

		wantParent := parentOf(entryPath)
		wantName := baseOf(entryPath)
		if entryPath == c.RootPrefix {
			// The catalog root's parent lives in the enclosing
			// catalog; its recorded linkage is not checked here.
			continue
		}
		if entry.ParentPath != wantParent {
			return &InconsistencyError{Reason: fmt.Sprintf(
				"entry %q records parent %q, path implies %q", entryPath, entry.ParentPath, wantParent)}
		}
		if entry.Name != wantName {
			return &InconsistencyError{Reason: fmt.Sprintf(
				"entry %q records name %q, path implies %q", entryPath, entry.Name, wantName)}
		}
	}

	for index, reference := range c.nested {
		if !pathWithin(reference.MountPath, c.RootPrefix) || reference.MountPath == c.RootPrefix {
			return &InconsistencyError{Reason: fmt.Sprintf(
				"nested reference %q outside catalog subtree %q", reference.MountPath, c.RootPrefix)}
		}
		// References are sorted by path; an overlap must involve the
		// lexicographic predecessor.
		if index > 0 && pathWithin(reference.MountPath, c.nested[index-1].MountPath) {
			return &InconsistencyError{Reason: fmt.Sprintf(
				"nested references %q and %q overlap", c.nested[index-1].MountPath, reference.MountPath)}
		}
	}

	return nil
}

// indexChildren builds the parent → sorted child paths index used by
// tree iteration.
func (c *Catalog) indexChildren() {
	for entryPath := range c.entries {
		if entryPath == c.RootPrefix {
			continue
		}
		parent := parentOf(entryPath)
		c.childrenByParent[parent] = append(c.childrenByParent[parent], entryPath)
	}
	for _, children := range c.childrenByParent {
		sort.Strings(children)
	}
}
