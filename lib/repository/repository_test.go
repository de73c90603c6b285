// Copyright 2026 The Stratum Authors
// SPDX-License-Identifier: Apache-2.0

package repository

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stratumfs/stratum/lib/catalog"
	"github.com/stratumfs/stratum/lib/fetch"
	"github.com/stratumfs/stratum/lib/history"
	"github.com/stratumfs/stratum/lib/manifest"
	"github.com/stratumfs/stratum/lib/repotest"
)

func TestOpenLocal(t *testing.T) {
	builder := repotest.NewBuilder(t, "demo.stratum.io")
	rootHash := builder.PublishSimple()

	repo, err := Open(context.Background(), Config{Source: builder.Dir()})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	if repo.Manifest().RepositoryName != "demo.stratum.io" {
		t.Errorf("RepositoryName = %q", repo.Manifest().RepositoryName)
	}
	if !repo.Manifest().RootHash.Equal(rootHash) {
		t.Errorf("RootHash = %s, want %s", repo.Manifest().RootHash, rootHash)
	}
	if repo.Certificate().Name != "demo.stratum.io" {
		t.Errorf("certificate name = %q", repo.Certificate().Name)
	}

	entry, err := repo.Tree().Resolve(context.Background(), "/readme")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if entry.Kind != catalog.Regular {
		t.Errorf("entry kind = %s", entry.Kind)
	}
}

func TestOpenHTTP(t *testing.T) {
	builder := repotest.NewBuilder(t, "demo.stratum.io")
	builder.PublishSimple()

	server := httptest.NewServer(http.FileServer(http.Dir(builder.Dir())))
	defer server.Close()

	repo, err := Open(context.Background(), Config{Source: server.URL})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if _, err := repo.Tree().Resolve(context.Background(), "/readme"); err != nil {
		t.Fatalf("Resolve: %v", err)
	}
}

func TestOpenRefusesTamperedManifest(t *testing.T) {
	builder := repotest.NewBuilder(t, "demo.stratum.io")
	builder.PublishSimple()

	manifestPath := filepath.Join(builder.Dir(), fetch.ManifestName)
	data, err := os.ReadFile(manifestPath)
	if err != nil {
		t.Fatalf("reading manifest: %v", err)
	}
	// Bump the revision field without re-signing.
	tampered := bytes.Replace(data, []byte("\nS1\n"), []byte("\nS9\n"), 1)
	if bytes.Equal(tampered, data) {
		t.Fatal("revision line not found in manifest")
	}
	if err := os.WriteFile(manifestPath, tampered, 0o644); err != nil {
		t.Fatalf("writing manifest: %v", err)
	}

	var signatureErr *manifest.SignatureError
	if _, err := Open(context.Background(), Config{Source: builder.Dir()}); !errors.As(err, &signatureErr) {
		t.Fatalf("Open = %v, want *SignatureError", err)
	}
}

func TestOpenChecksRepositoryName(t *testing.T) {
	builder := repotest.NewBuilder(t, "demo.stratum.io")
	builder.PublishSimple()

	cfg := Config{Source: builder.Dir(), Name: "other.stratum.io"}
	if _, err := Open(context.Background(), cfg); err == nil {
		t.Fatal("Open accepted a manifest for a different repository")
	}
}

func TestOpenCertificatePin(t *testing.T) {
	builder := repotest.NewBuilder(t, "demo.stratum.io")
	builder.PublishSimple()

	cfg := Config{
		Source:                 builder.Dir(),
		CertificateFingerprint: builder.CertificateHash().String(),
	}
	if _, err := Open(context.Background(), cfg); err != nil {
		t.Fatalf("Open with matching pin: %v", err)
	}

	other := repotest.NewBuilder(t, "other.stratum.io")
	cfg.CertificateFingerprint = other.CertificateHash().String()
	if _, err := Open(context.Background(), cfg); err == nil {
		t.Fatal("Open accepted a certificate that does not match the pin")
	}
}

func TestOpenMissingManifest(t *testing.T) {
	dir := t.TempDir()
	_, err := Open(context.Background(), Config{Source: dir})
	if !errors.Is(err, fetch.ErrNotFound) {
		t.Fatalf("Open = %v, want ErrNotFound", err)
	}
}

func TestHistory(t *testing.T) {
	builder := repotest.NewBuilder(t, "demo.stratum.io")
	rootHash := builder.WriteCatalog(catalog.NewBuilder("/").
		AddEntry(catalog.Entry("/", catalog.Directory)))

	older := builder.WriteHistory(history.NewBuilder("demo.stratum.io").
		AddTag(history.Tag{Name: "v1", RootHash: rootHash, Revision: 1}))
	newerBuilder := history.NewBuilder("demo.stratum.io")
	newerBuilder.Previous = older
	newer := builder.WriteHistory(newerBuilder.
		AddTag(history.Tag{Name: "v2", RootHash: rootHash, Revision: 2}))

	builder.PublishManifest(manifest.Manifest{
		RootHash:    rootHash,
		Revision:    2,
		HistoryHash: newer,
	})

	repo, err := Open(context.Background(), Config{Source: builder.Dir()})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	chain, err := repo.History(context.Background())
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if _, ok := chain.Tag("v2"); !ok {
		t.Error("newest segment missing tag v2")
	}

	olderChain, err := chain.Older(context.Background())
	if err != nil {
		t.Fatalf("Older: %v", err)
	}
	if olderChain == nil {
		t.Fatal("Older = nil before genesis")
	}
	if _, ok := olderChain.Tag("v1"); !ok {
		t.Error("older segment missing tag v1")
	}
}

func TestHistoryAbsent(t *testing.T) {
	builder := repotest.NewBuilder(t, "demo.stratum.io")
	builder.PublishSimple()

	repo, err := Open(context.Background(), Config{Source: builder.Dir()})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if _, err := repo.History(context.Background()); !errors.Is(err, ErrNoHistory) {
		t.Fatalf("History = %v, want ErrNoHistory", err)
	}
}

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "repo.yaml")
	content := "source: /srv/repo\nname: demo.stratum.io\ncache_size: 8\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Source != "/srv/repo" || cfg.Name != "demo.stratum.io" || cfg.CacheSize != 8 {
		t.Errorf("cfg = %+v", cfg)
	}
}

func TestLoadConfigRejectsUnknownKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "repo.yaml")
	if err := os.WriteFile(path, []byte("source: /srv/repo\nbogus: 1\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadConfig(path); err == nil {
		t.Fatal("LoadConfig accepted an unknown key")
	}
}

func TestLoadConfigRequiresSource(t *testing.T) {
	path := filepath.Join(t.TempDir(), "repo.yaml")
	if err := os.WriteFile(path, []byte("name: demo.stratum.io\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadConfig(path); err == nil {
		t.Fatal("LoadConfig accepted a config without a source")
	}
}
