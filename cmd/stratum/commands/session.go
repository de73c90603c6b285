// Copyright 2026 The Stratum Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"errors"
	"log/slog"
	"os"

	"github.com/spf13/pflag"

	"github.com/stratumfs/stratum/lib/repository"
)

// repoFlags are the flags shared by every command that opens a
// repository. Explicit flags override values from the config file.
type repoFlags struct {
	source      string
	configPath  string
	name        string
	fingerprint string
	cacheSize   int
	verbose     bool
	jsonOutput  bool
}

func (f *repoFlags) register(flagSet *pflag.FlagSet) {
	flagSet.StringVar(&f.source, "repo", "", "repository source: http(s) base URL or local directory")
	flagSet.StringVar(&f.configPath, "config", "", "YAML repository config file")
	flagSet.StringVar(&f.name, "name", "", "expected repository name")
	flagSet.StringVar(&f.fingerprint, "fingerprint", "", "pinned certificate content hash")
	flagSet.IntVar(&f.cacheSize, "cache-size", 0, "max resident decoded catalogs (0 = default, negative = unbounded)")
	flagSet.BoolVar(&f.verbose, "verbose", false, "log progress to stderr")
	flagSet.BoolVar(&f.jsonOutput, "json", false, "output as JSON")
}

// open builds the session config from flags and config file and opens
// the repository.
func (f *repoFlags) open(ctx context.Context) (*repository.Repository, error) {
	var cfg repository.Config
	if f.configPath != "" {
		loaded, err := repository.LoadConfig(f.configPath)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	if f.source != "" {
		cfg.Source = f.source
	}
	if f.name != "" {
		cfg.Name = f.name
	}
	if f.fingerprint != "" {
		cfg.CertificateFingerprint = f.fingerprint
	}
	if f.cacheSize != 0 {
		cfg.CacheSize = f.cacheSize
	}
	if cfg.Source == "" {
		return nil, errors.New("a repository source is required (--repo or --config)")
	}
	if f.verbose {
		cfg.Logger = slog.New(slog.NewTextHandler(os.Stderr, nil))
	}
	return repository.Open(ctx, cfg)
}
