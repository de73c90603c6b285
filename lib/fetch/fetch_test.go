// Copyright 2026 The Stratum Authors
// SPDX-License-Identifier: Apache-2.0

package fetch

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stratumfs/stratum/lib/compression"
	"github.com/stratumfs/stratum/lib/objecthash"
)

// writeObject stores data (compressed with algorithm) at its shard
// path under root and returns the digest of the uncompressed bytes.
func writeObject(t *testing.T, root string, data []byte, kind ObjectKind, algorithm compression.Algorithm) objecthash.Digest {
	t.Helper()

	digest := objecthash.Sum(objecthash.SHA256, data)
	stored, err := compression.Compress(data, algorithm)
	if err != nil {
		t.Fatalf("Compress: %v", err)
	}

	path := filepath.Join(root, filepath.FromSlash(ObjectPath(digest, kind)))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}
	if err := os.WriteFile(path, stored, 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return digest
}

func TestObjectPath(t *testing.T) {
	digest := objecthash.Sum(objecthash.SHA256, []byte("object"))
	hex := digest.Hex()

	path := ObjectPath(digest, KindCatalog)
	want := "data/" + hex[:2] + "/" + hex[2:] + "C"
	if path != want {
		t.Errorf("ObjectPath = %q, want %q", path, want)
	}

	if !strings.HasSuffix(ObjectPath(digest, KindHistory), "H") {
		t.Error("history objects should carry the H suffix")
	}
	if suffix := KindPlain.Suffix(); suffix != "" {
		t.Errorf("plain objects should have no suffix, got %q", suffix)
	}
}

func TestLocalFetch(t *testing.T) {
	root := t.TempDir()
	data := []byte("compressed catalog payload")
	digest := writeObject(t, root, data, KindCatalog, compression.Zlib)

	fetcher, err := NewLocal(root)
	if err != nil {
		t.Fatalf("NewLocal: %v", err)
	}

	retrieved, err := Retrieve(context.Background(), fetcher, digest, KindCatalog, compression.Zlib)
	if err != nil {
		t.Fatalf("Retrieve: %v", err)
	}
	if !bytes.Equal(retrieved, data) {
		t.Error("Retrieve returned different bytes")
	}
}

func TestLocalFetchName(t *testing.T) {
	root := t.TempDir()
	manifest := []byte("C0123\nN example\n")
	if err := os.WriteFile(filepath.Join(root, ManifestName), manifest, 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	fetcher, err := NewLocal(root)
	if err != nil {
		t.Fatalf("NewLocal: %v", err)
	}

	data, err := fetcher.FetchName(context.Background(), ManifestName)
	if err != nil {
		t.Fatalf("FetchName: %v", err)
	}
	if !bytes.Equal(data, manifest) {
		t.Error("FetchName returned different bytes")
	}
}

func TestLocalNotFound(t *testing.T) {
	fetcher, err := NewLocal(t.TempDir())
	if err != nil {
		t.Fatalf("NewLocal: %v", err)
	}

	missing := objecthash.Sum(objecthash.SHA256, []byte("absent"))
	_, err = fetcher.Fetch(context.Background(), missing, KindPlain)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Fetch of missing object returned %v, want ErrNotFound", err)
	}

	_, err = fetcher.FetchName(context.Background(), "no-such-file")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("FetchName of missing file returned %v, want ErrNotFound", err)
	}
}

func TestNewLocalRejectsMissingDirectory(t *testing.T) {
	if _, err := NewLocal(filepath.Join(t.TempDir(), "nope")); err == nil {
		t.Error("NewLocal accepted a missing directory")
	}
}

func TestHTTPFetch(t *testing.T) {
	root := t.TempDir()
	data := []byte("history database bytes")
	digest := writeObject(t, root, data, KindHistory, compression.Zstd)

	server := httptest.NewServer(http.FileServer(http.Dir(root)))
	defer server.Close()

	fetcher := NewHTTP(server.URL, nil)
	retrieved, err := Retrieve(context.Background(), fetcher, digest, KindHistory, compression.Zstd)
	if err != nil {
		t.Fatalf("Retrieve: %v", err)
	}
	if !bytes.Equal(retrieved, data) {
		t.Error("Retrieve over HTTP returned different bytes")
	}
}

func TestHTTPNotFound(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	defer server.Close()

	fetcher := NewHTTP(server.URL, nil)
	_, err := fetcher.FetchName(context.Background(), ManifestName)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("FetchName returned %v, want ErrNotFound", err)
	}
}

func TestHTTPServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer server.Close()

	fetcher := NewHTTP(server.URL, nil)
	_, err := fetcher.FetchName(context.Background(), ManifestName)
	if err == nil || errors.Is(err, ErrNotFound) {
		t.Errorf("server error should be a distinct failure, got %v", err)
	}
}

func TestRetrieveRejectsCorruption(t *testing.T) {
	root := t.TempDir()
	data := []byte("original object content")
	digest := writeObject(t, root, data, KindPlain, compression.None)

	// Overwrite the stored object with different content.
	path := filepath.Join(root, filepath.FromSlash(ObjectPath(digest, KindPlain)))
	if err := os.WriteFile(path, []byte("tampered object content"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	fetcher, err := NewLocal(root)
	if err != nil {
		t.Fatalf("NewLocal: %v", err)
	}

	var mismatch *objecthash.MismatchError
	_, err = Retrieve(context.Background(), fetcher, digest, KindPlain, compression.None)
	if !errors.As(err, &mismatch) {
		t.Errorf("Retrieve of tampered object returned %v, want *objecthash.MismatchError", err)
	}
}

func TestRetrieveRejectsCorruptCompression(t *testing.T) {
	root := t.TempDir()
	data := []byte("will be stored with a broken stream")
	digest := writeObject(t, root, data, KindPlain, compression.Zlib)

	path := filepath.Join(root, filepath.FromSlash(ObjectPath(digest, KindPlain)))
	if err := os.WriteFile(path, []byte{0x00, 0x01, 0x02}, 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	fetcher, err := NewLocal(root)
	if err != nil {
		t.Fatalf("NewLocal: %v", err)
	}

	if _, err := Retrieve(context.Background(), fetcher, digest, KindPlain, compression.Zlib); err == nil {
		t.Error("Retrieve accepted a corrupt compressed stream")
	}
}
