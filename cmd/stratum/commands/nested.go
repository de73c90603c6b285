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
)

func nestedCommand() *cli.Command {
	var flags repoFlags
	var recursive bool
	return &cli.Command{
		Name:    "nested",
		Summary: "list nested catalog mounts",
		Usage:   "stratum nested --repo <source> [path]",
		Examples: []cli.Example{
			{Description: "all mounts in the whole repository", Command: "stratum nested --repo /srv/repo --recursive"},
		},
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("nested", pflag.ContinueOnError)
			flags.register(flagSet)
			flagSet.BoolVar(&recursive, "recursive", false, "fetch referenced catalogs and list their mounts too")
			return flagSet
		},
		Run: func(args []string) error {
			if len(args) > 1 {
				return fmt.Errorf("nested takes at most one path, got %d args", len(args))
			}
			mountRoot := "/"
			if len(args) == 1 {
				mountRoot = args[0]
			}

			ctx := context.Background()
			repo, err := flags.open(ctx)
			if err != nil {
				return err
			}
			references, err := repo.Tree().ListNested(ctx, mountRoot, recursive)
			if err != nil {
				return err
			}

			if flags.jsonOutput {
				out := make([]map[string]any, len(references))
				for index, reference := range references {
					out[index] = map[string]any{
						"mount_path": reference.MountPath,
						"hash":       reference.Hash.String(),
						"size":       reference.Size,
					}
				}
				return cli.WriteJSON(os.Stdout, out)
			}

			tw := tabwriter.NewWriter(os.Stdout, 2, 0, 2, ' ', 0)
			for _, reference := range references {
				fmt.Fprintf(tw, "%s\t%s\t%d\n", reference.MountPath, reference.Hash, reference.Size)
			}
			return tw.Flush()
		},
	}
}
