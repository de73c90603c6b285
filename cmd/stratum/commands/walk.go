// Copyright 2026 The Stratum Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/pflag"

	"github.com/stratumfs/stratum/cmd/stratum/cli"
)

func walkCommand() *cli.Command {
	var flags repoFlags
	return &cli.Command{
		Name:    "walk",
		Summary: "walk the whole namespace in pre-order",
		Usage:   "stratum walk --repo <source>",
		Description: "walk prints every path in the repository in deterministic\n" +
			"pre-order, fetching nested catalogs as it crosses their mount\n" +
			"boundaries. Broken subtrees are reported on stderr and the walk\n" +
			"continues with their siblings; any broken subtree makes the\n" +
			"command exit non-zero.",
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("walk", pflag.ContinueOnError)
			flags.register(flagSet)
			return flagSet
		},
		Run: func(args []string) error {
			ctx := context.Background()
			repo, err := flags.open(ctx)
			if err != nil {
				return err
			}

			walker := repo.Tree().Walk()
			broken := 0
			for walker.Next(ctx) {
				item := walker.Item()
				if item.Err != nil {
					broken++
					fmt.Fprintf(os.Stderr, "error: %s: %v\n", item.Path, item.Err)
					continue
				}
				if flags.jsonOutput {
					if err := cli.WriteJSON(os.Stdout, entryJSON(item.Entry)); err != nil {
						return err
					}
					continue
				}
				fmt.Printf("%s\t%s\n", item.Entry.Kind, item.Path)
			}

			if broken > 0 {
				fmt.Fprintf(os.Stderr, "%d unreachable subtree(s)\n", broken)
				return &cli.ExitError{Code: 1}
			}
			return nil
		},
	}
}
