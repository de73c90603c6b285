// Copyright 2026 The Stratum Authors
// SPDX-License-Identifier: Apache-2.0

package history

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"

	"github.com/stratumfs/stratum/lib/compression"
	"github.com/stratumfs/stratum/lib/fetch"
	"github.com/stratumfs/stratum/lib/objecthash"
	"github.com/stratumfs/stratum/lib/sqliteblob"
)

// ErrMalformed indicates bytes that are not a readable history
// database: not SQLite, missing tables, unparseable column values, or
// duplicate tag names.
var ErrMalformed = errors.New("history: malformed")

// currentSchemaVersion is the newest schema this decoder understands.
const currentSchemaVersion = 1

// Tag is a named snapshot: a repository root pinned at a revision.
type Tag struct {
	Name        string
	RootHash    objecthash.Digest
	Revision    int64
	Timestamp   time.Time
	Channel     string
	Description string
}

// Source fetches history segments. Chains loaded through Load keep
// their source so that Older can follow previous-segment links.
type Source struct {
	Fetcher     fetch.Fetcher
	Compression compression.Algorithm
}

// Chain is one decoded history segment: an ordered run of tags plus
// an optional link to the previous segment. Chains are immutable
// after decode.
type Chain struct {
	// Hash is the content hash the segment was fetched under.
	Hash objecthash.Digest

	// SchemaVersion is the segment's declared schema version.
	SchemaVersion int64

	// RepositoryName is the fully qualified repository name recorded
	// in the segment.
	RepositoryName string

	tags       []Tag
	tagsByName map[string]int

	previous    objecthash.Digest
	hasPrevious bool

	source Source
}

// Load fetches, verifies, and decodes the history segment at hash.
// The returned chain remembers the source, so Older can follow the
// chain backward.
func Load(ctx context.Context, source Source, hash objecthash.Digest) (*Chain, error) {
	if source.Fetcher == nil {
		return nil, errors.New("history: source has no fetcher")
	}

	data, err := fetch.Retrieve(ctx, source.Fetcher, hash, fetch.KindHistory, source.Compression)
	if err != nil {
		return nil, fmt.Errorf("history: segment %s: %w", hash, err)
	}

	chain, err := Decode(data, hash)
	if err != nil {
		return nil, err
	}
	chain.source = source
	return chain, nil
}

// Decode parses a history database blob. The hash is the content hash
// the blob was fetched (and verified) under. Chains produced by
// Decode alone have no source; use Load when Older must work.
func Decode(data []byte, hash objecthash.Digest) (*Chain, error) {
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

	chain := &Chain{
		Hash:           hash,
		SchemaVersion:  schemaVersion,
		RepositoryName: properties["repository_name"],
		tagsByName:     make(map[string]int),
	}

	if previousText, ok := properties["previous_segment"]; ok && previousText != "" {
		previous, err := objecthash.Parse(previousText)
		if err != nil {
			return nil, fmt.Errorf("%w: previous_segment: %v", ErrMalformed, err)
		}
		chain.previous = previous
		chain.hasPrevious = true
	}

	if err := chain.readTags(conn); err != nil {
		return nil, err
	}
	return chain, nil
}

func (c *Chain) readTags(conn *sqlite.Conn) error {
	var rowErr error
	err := sqlitex.Execute(conn,
		`SELECT name, hash, revision, timestamp, channel, description
		 FROM tags ORDER BY revision DESC, name`,
		&sqlitex.ExecOptions{
			ResultFunc: func(stmt *sqlite.Stmt) error {
				if rowErr != nil {
					return nil
				}
				rowErr = c.addTagRow(stmt)
				return nil
			},
		})
	if err != nil {
		return fmt.Errorf("%w: tags: %v", ErrMalformed, err)
	}
	return rowErr
}

func (c *Chain) addTagRow(stmt *sqlite.Stmt) error {
	name := stmt.ColumnText(0)
	if name == "" {
		return fmt.Errorf("%w: tag with empty name", ErrMalformed)
	}
	if _, exists := c.tagsByName[name]; exists {
		return fmt.Errorf("%w: duplicate tag %q", ErrMalformed, name)
	}

	rootHash, err := objecthash.Parse(stmt.ColumnText(1))
	if err != nil {
		return fmt.Errorf("%w: tag %q root hash: %v", ErrMalformed, name, err)
	}

	revision := stmt.ColumnInt64(2)
	if revision < 0 {
		return fmt.Errorf("%w: tag %q has negative revision %d", ErrMalformed, name, revision)
	}
	timestamp := stmt.ColumnInt64(3)
	if timestamp < 0 {
		return fmt.Errorf("%w: tag %q has negative timestamp %d", ErrMalformed, name, timestamp)
	}

	c.tagsByName[name] = len(c.tags)
	c.tags = append(c.tags, Tag{
		Name:        name,
		RootHash:    rootHash,
		Revision:    revision,
		Timestamp:   time.Unix(timestamp, 0).UTC(),
		Channel:     stmt.ColumnText(4),
		Description: stmt.ColumnText(5),
	})
	return nil
}

// Tags returns the segment's tags ordered newest revision first.
func (c *Chain) Tags() []Tag {
	tags := make([]Tag, len(c.tags))
	copy(tags, c.tags)
	return tags
}

// Tag returns the named tag within this segment. It does not chase
// older segments; callers walk the chain with Older when a name may
// have rolled off.
func (c *Chain) Tag(name string) (Tag, bool) {
	index, ok := c.tagsByName[name]
	if !ok {
		return Tag{}, false
	}
	return c.tags[index], true
}

// Previous returns the content hash of the previous segment, if any.
func (c *Chain) Previous() (objecthash.Digest, bool) {
	return c.previous, c.hasPrevious
}

// Older fetches and decodes the previous history segment. It returns
// (nil, nil) at genesis, when the segment has no predecessor.
func (c *Chain) Older(ctx context.Context) (*Chain, error) {
	if !c.hasPrevious {
		return nil, nil
	}
	if c.source.Fetcher == nil {
		return nil, errors.New("history: chain has no source for older segments")
	}
	return Load(ctx, c.source, c.previous)
}
