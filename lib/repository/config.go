// Copyright 2026 The Stratum Authors
// SPDX-License-Identifier: Apache-2.0

package repository

import (
	"bytes"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/stratumfs/stratum/lib/fetch"
)

// Config describes how to reach and trust a repository.
type Config struct {
	// Source is the repository location: an http(s) base URL or a
	// local directory path.
	Source string `yaml:"source"`

	// Name, when set, must match the repository name recorded in the
	// manifest.
	Name string `yaml:"name"`

	// CertificateFingerprint, when set, pins the signing certificate:
	// the fetched certificate's content hash must equal it. Without a
	// pin, the certificate referenced by the manifest is trusted.
	CertificateFingerprint string `yaml:"certificate_fingerprint"`

	// CacheSize bounds the number of resident decoded catalogs. Zero
	// selects the default; negative disables eviction.
	CacheSize int `yaml:"cache_size"`

	// Logger receives structured diagnostics. Nil discards them.
	Logger *slog.Logger `yaml:"-"`
}

// LoadConfig reads a YAML config file. Unknown keys are rejected.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("repository: reading config: %w", err)
	}

	var cfg Config
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil {
		return Config{}, fmt.Errorf("repository: parsing config %s: %w", path, err)
	}
	if cfg.Source == "" {
		return Config{}, fmt.Errorf("repository: config %s: source is required", path)
	}
	return cfg, nil
}

// fetcher selects the transport from the source's shape: URLs go over
// HTTP, anything else is a local directory.
func (c *Config) fetcher() (fetch.Fetcher, error) {
	if strings.HasPrefix(c.Source, "http://") || strings.HasPrefix(c.Source, "https://") {
		return fetch.NewHTTP(c.Source, nil), nil
	}
	return fetch.NewLocal(c.Source)
}
