// Copyright 2026 The Stratum Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/pflag"

	"github.com/stratumfs/stratum/cmd/stratum/cli"
	"github.com/stratumfs/stratum/lib/catalog"
)

func resolveCommand() *cli.Command {
	var flags repoFlags
	return &cli.Command{
		Name:    "resolve",
		Summary: "resolve a path to its directory entry",
		Usage:   "stratum resolve --repo <source> <path>",
		Examples: []cli.Example{
			{Description: "look up a file across catalog boundaries", Command: "stratum resolve --repo /srv/repo /software/v2/bin/tool"},
		},
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("resolve", pflag.ContinueOnError)
			flags.register(flagSet)
			return flagSet
		},
		Run: func(args []string) error {
			if len(args) != 1 {
				return fmt.Errorf("resolve takes exactly one path, got %d args", len(args))
			}

			ctx := context.Background()
			repo, err := flags.open(ctx)
			if err != nil {
				return err
			}
			entry, err := repo.Tree().Resolve(ctx, args[0])
			if err != nil {
				return err
			}

			if flags.jsonOutput {
				return cli.WriteJSON(os.Stdout, entryJSON(entry))
			}
			return printEntry(os.Stdout, entry)
		},
	}
}

// entryJSON shapes a directory entry for --json output, carrying only
// the fields meaningful for its kind.
func entryJSON(entry *catalog.DirectoryEntry) map[string]any {
	out := map[string]any{
		"path": entry.Path,
		"kind": entry.Kind.String(),
		"mode": fmt.Sprintf("%04o", entry.Mode),
	}
	if !entry.ModTime.IsZero() {
		out["mtime"] = entry.ModTime.Format(time.RFC3339)
	}
	switch entry.Kind {
	case catalog.Regular:
		out["size"] = entry.Size
		out["content_hash"] = entry.ContentHash.String()
	case catalog.Symlink:
		out["target"] = entry.SymlinkTarget
	}
	return out
}

func printEntry(w *os.File, entry *catalog.DirectoryEntry) error {
	tw := tabwriter.NewWriter(w, 2, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Path:\t%s\n", entry.Path)
	fmt.Fprintf(tw, "Kind:\t%s\n", entry.Kind)
	fmt.Fprintf(tw, "Mode:\t%04o\n", entry.Mode)
	fmt.Fprintf(tw, "Modified:\t%s\n", entry.ModTime.Format(time.RFC3339))
	switch entry.Kind {
	case catalog.Regular:
		fmt.Fprintf(tw, "Size:\t%d\n", entry.Size)
		fmt.Fprintf(tw, "Content:\t%s\n", entry.ContentHash)
	case catalog.Symlink:
		fmt.Fprintf(tw, "Target:\t%s\n", entry.SymlinkTarget)
	}
	return tw.Flush()
}
