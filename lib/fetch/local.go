// Copyright 2026 The Stratum Authors
// SPDX-License-Identifier: Apache-2.0

package fetch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/stratumfs/stratum/lib/objecthash"
)

// Local fetches from a repository directory on the local filesystem.
type Local struct {
	root string
}

// NewLocal returns a Local rooted at dir. The directory must exist.
func NewLocal(dir string) (*Local, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("fetch: repository directory %s: %w", dir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("fetch: repository path %s is not a directory", dir)
	}
	return &Local{root: dir}, nil
}

// Fetch implements Fetcher.
func (l *Local) Fetch(ctx context.Context, digest objecthash.Digest, kind ObjectKind) ([]byte, error) {
	return l.read(ObjectPath(digest, kind))
}

// FetchName implements Fetcher.
func (l *Local) FetchName(ctx context.Context, name string) ([]byte, error) {
	return l.read(name)
}

func (l *Local) read(relative string) ([]byte, error) {
	data, err := os.ReadFile(filepath.Join(l.root, filepath.FromSlash(relative)))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, relative)
		}
		return nil, fmt.Errorf("fetch: reading %s: %w", relative, err)
	}
	return data, nil
}
