// Copyright 2026 The Stratum Authors
// SPDX-License-Identifier: Apache-2.0

package catalog

import (
	"fmt"
	"os"

	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"
)

// Builder assembles a catalog database blob row by row. It powers
// repository fixtures and publisher tooling tests; the traversal
// engine itself never writes catalogs.
//
// The builder performs no invariant checking on purpose: decoder
// tests need to encode catalogs that violate the invariants.
type Builder struct {
	// RootPrefix is the repository path of the catalog root, "/" for
	// a root catalog.
	RootPrefix string

	// SchemaVersion defaults to the current schema when zero.
	SchemaVersion int64

	entries []DirectoryEntry
	nested  []NestedCatalogReference
}

// NewBuilder returns a Builder for a catalog mounted at rootPrefix.
func NewBuilder(rootPrefix string) *Builder {
	return &Builder{RootPrefix: rootPrefix}
}

// AddEntry appends a directory entry row.
func (b *Builder) AddEntry(entry DirectoryEntry) *Builder {
	b.entries = append(b.entries, entry)
	return b
}

// AddNested appends a nested-catalog reference row.
func (b *Builder) AddNested(reference NestedCatalogReference) *Builder {
	b.nested = append(b.nested, reference)
	return b
}

const builderSchema = `
CREATE TABLE properties (
	key   TEXT NOT NULL,
	value TEXT NOT NULL
);
CREATE TABLE entries (
	path    TEXT NOT NULL,
	parent  TEXT NOT NULL,
	name    TEXT NOT NULL,
	kind    INTEGER NOT NULL,
	size    INTEGER NOT NULL,
	mode    INTEGER NOT NULL,
	mtime   INTEGER NOT NULL,
	hash    TEXT NOT NULL DEFAULT '',
	symlink TEXT NOT NULL DEFAULT ''
);
CREATE TABLE nested_catalogs (
	path TEXT NOT NULL,
	hash TEXT NOT NULL,
	size INTEGER NOT NULL
);
`

// Encode writes the catalog database and returns its bytes
// (uncompressed; storage compression is the fixture writer's job).
func (b *Builder) Encode() ([]byte, error) {
	file, err := os.CreateTemp("", "stratum-build-*.sqlite")
	if err != nil {
		return nil, fmt.Errorf("catalog: encode: %w", err)
	}
	path := file.Name()
	file.Close()
	defer os.Remove(path)

	conn, err := sqlite.OpenConn(path, sqlite.OpenReadWrite|sqlite.OpenCreate)
	if err != nil {
		return nil, fmt.Errorf("catalog: encode: %w", err)
	}

	if err := b.fill(conn); err != nil {
		conn.Close()
		return nil, err
	}
	if err := conn.Close(); err != nil {
		return nil, fmt.Errorf("catalog: encode: %w", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("catalog: encode: %w", err)
	}
	return data, nil
}

func (b *Builder) fill(conn *sqlite.Conn) error {
	if err := sqlitex.ExecuteScript(conn, builderSchema, nil); err != nil {
		return fmt.Errorf("catalog: encode schema: %w", err)
	}

	schemaVersion := b.SchemaVersion
	if schemaVersion == 0 {
		schemaVersion = currentSchemaVersion
	}
	properties := [][2]string{
		{"schema_version", fmt.Sprintf("%d", schemaVersion)},
		{"root_prefix", b.RootPrefix},
	}
	for _, property := range properties {
		err := sqlitex.Execute(conn, "INSERT INTO properties (key, value) VALUES (?, ?)", &sqlitex.ExecOptions{
			Args: []any{property[0], property[1]},
		})
		if err != nil {
			return fmt.Errorf("catalog: encode properties: %w", err)
		}
	}

	for _, entry := range b.entries {
		hashText := ""
		if !entry.ContentHash.IsZero() {
			hashText = entry.ContentHash.String()
		}
		mtime := int64(0)
		if !entry.ModTime.IsZero() {
			mtime = entry.ModTime.Unix()
		}
		err := sqlitex.Execute(conn,
			`INSERT INTO entries (path, parent, name, kind, size, mode, mtime, hash, symlink)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			&sqlitex.ExecOptions{
				Args: []any{
					entry.Path, entry.ParentPath, entry.Name, int64(entry.Kind),
					entry.Size, int64(entry.Mode), mtime, hashText, entry.SymlinkTarget,
				},
			})
		if err != nil {
			return fmt.Errorf("catalog: encode entry %q: %w", entry.Path, err)
		}
	}

	for _, reference := range b.nested {
		err := sqlitex.Execute(conn,
			"INSERT INTO nested_catalogs (path, hash, size) VALUES (?, ?, ?)",
			&sqlitex.ExecOptions{
				Args: []any{reference.MountPath, reference.Hash.String(), reference.Size},
			})
		if err != nil {
			return fmt.Errorf("catalog: encode nested reference %q: %w", reference.MountPath, err)
		}
	}

	return nil
}

// Entry is a convenience constructor that fills Name and ParentPath
// from the path. The zero ModTime encodes as the Unix epoch.
func Entry(path string, kind EntryKind) DirectoryEntry {
	return DirectoryEntry{
		Path:       path,
		Name:       baseOf(path),
		ParentPath: parentOf(path),
		Kind:       kind,
	}
}
