// Copyright 2026 The Stratum Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/pflag"

	"github.com/stratumfs/stratum/cmd/stratum/cli"
	"github.com/stratumfs/stratum/lib/catalog"
)

func lsCommand() *cli.Command {
	var flags repoFlags
	return &cli.Command{
		Name:    "ls",
		Summary: "list a directory",
		Usage:   "stratum ls --repo <source> [path]",
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("ls", pflag.ContinueOnError)
			flags.register(flagSet)
			return flagSet
		},
		Run: func(args []string) error {
			if len(args) > 1 {
				return fmt.Errorf("ls takes at most one path, got %d args", len(args))
			}
			dirPath := "/"
			if len(args) == 1 {
				dirPath = args[0]
			}

			ctx := context.Background()
			repo, err := flags.open(ctx)
			if err != nil {
				return err
			}
			entries, err := repo.Tree().List(ctx, dirPath)
			if err != nil {
				return err
			}

			if flags.jsonOutput {
				out := make([]map[string]any, len(entries))
				for index, entry := range entries {
					out[index] = entryJSON(entry)
				}
				return cli.WriteJSON(os.Stdout, out)
			}

			tw := tabwriter.NewWriter(os.Stdout, 2, 0, 2, ' ', 0)
			for _, entry := range entries {
				size := ""
				if entry.Kind == catalog.Regular {
					size = fmt.Sprintf("%d", entry.Size)
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\n", entry.Kind, size, entry.Name)
			}
			return tw.Flush()
		},
	}
}
