// Copyright 2026 The Stratum Authors
// SPDX-License-Identifier: Apache-2.0

package history

import (
	"fmt"
	"os"

	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"

	"github.com/stratumfs/stratum/lib/objecthash"
)

// Builder assembles a history database blob for repository fixtures
// and publisher tooling tests. It performs no invariant checking so
// decoder tests can encode malformed segments.
type Builder struct {
	// RepositoryName is recorded in the segment properties.
	RepositoryName string

	// SchemaVersion defaults to the current schema when zero.
	SchemaVersion int64

	// Previous links the segment to an older one when non-zero.
	Previous objecthash.Digest

	tags []Tag
}

// NewBuilder returns a Builder for a history segment of the named
// repository.
func NewBuilder(repositoryName string) *Builder {
	return &Builder{RepositoryName: repositoryName}
}

// AddTag appends a tag row.
func (b *Builder) AddTag(tag Tag) *Builder {
	b.tags = append(b.tags, tag)
	return b
}

const builderSchema = `
CREATE TABLE properties (
	key   TEXT NOT NULL,
	value TEXT NOT NULL
);
CREATE TABLE tags (
	name        TEXT NOT NULL,
	hash        TEXT NOT NULL,
	revision    INTEGER NOT NULL,
	timestamp   INTEGER NOT NULL,
	channel     TEXT NOT NULL DEFAULT '',
	description TEXT NOT NULL DEFAULT ''
);
`

// Encode writes the history database and returns its bytes
// (uncompressed; storage compression is the fixture writer's job).
func (b *Builder) Encode() ([]byte, error) {
	file, err := os.CreateTemp("", "stratum-build-*.sqlite")
	if err != nil {
		return nil, fmt.Errorf("history: encode: %w", err)
	}
	path := file.Name()
	file.Close()
	defer os.Remove(path)

	conn, err := sqlite.OpenConn(path, sqlite.OpenReadWrite|sqlite.OpenCreate)
	if err != nil {
		return nil, fmt.Errorf("history: encode: %w", err)
	}

	if err := b.fill(conn); err != nil {
		conn.Close()
		return nil, err
	}
	if err := conn.Close(); err != nil {
		return nil, fmt.Errorf("history: encode: %w", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("history: encode: %w", err)
	}
	return data, nil
}

func (b *Builder) fill(conn *sqlite.Conn) error {
	if err := sqlitex.ExecuteScript(conn, builderSchema, nil); err != nil {
		return fmt.Errorf("history: encode schema: %w", err)
	}

	schemaVersion := b.SchemaVersion
	if schemaVersion == 0 {
		schemaVersion = currentSchemaVersion
	}
	properties := [][2]string{
		{"schema_version", fmt.Sprintf("%d", schemaVersion)},
		{"repository_name", b.RepositoryName},
	}
	if !b.Previous.IsZero() {
		properties = append(properties, [2]string{"previous_segment", b.Previous.String()})
	}
	for _, property := range properties {
		err := sqlitex.Execute(conn, "INSERT INTO properties (key, value) VALUES (?, ?)", &sqlitex.ExecOptions{
			Args: []any{property[0], property[1]},
		})
		if err != nil {
			return fmt.Errorf("history: encode properties: %w", err)
		}
	}

	for _, tag := range b.tags {
		timestamp := int64(0)
		if !tag.Timestamp.IsZero() {
			timestamp = tag.Timestamp.Unix()
		}
		err := sqlitex.Execute(conn,
			`INSERT INTO tags (name, hash, revision, timestamp, channel, description)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			&sqlitex.ExecOptions{
				Args: []any{
					tag.Name, tag.RootHash.String(), tag.Revision,
					timestamp, tag.Channel, tag.Description,
				},
			})
		if err != nil {
			return fmt.Errorf("history: encode tag %q: %w", tag.Name, err)
		}
	}

	return nil
}
