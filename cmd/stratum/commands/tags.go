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
	"github.com/stratumfs/stratum/lib/history"
)

func tagsCommand() *cli.Command {
	var flags repoFlags
	var all bool
	return &cli.Command{
		Name:    "tags",
		Summary: "list named snapshots from the tag history",
		Usage:   "stratum tags --repo <source> [name]",
		Description: "tags lists the named snapshots in the repository's newest\n" +
			"history segment. With a name argument it looks that tag up,\n" +
			"walking older segments until found. --all walks the whole chain.",
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("tags", pflag.ContinueOnError)
			flags.register(flagSet)
			flagSet.BoolVar(&all, "all", false, "include tags from all older history segments")
			return flagSet
		},
		Run: func(args []string) error {
			if len(args) > 1 {
				return fmt.Errorf("tags takes at most one name, got %d args", len(args))
			}

			ctx := context.Background()
			repo, err := flags.open(ctx)
			if err != nil {
				return err
			}
			chain, err := repo.History(ctx)
			if err != nil {
				return err
			}

			if len(args) == 1 {
				return lookupTag(ctx, chain, args[0], flags.jsonOutput)
			}

			var tags []history.Tag
			for chain != nil {
				tags = append(tags, chain.Tags()...)
				if !all {
					break
				}
				chain, err = chain.Older(ctx)
				if err != nil {
					return err
				}
			}

			if flags.jsonOutput {
				out := make([]map[string]any, len(tags))
				for index, tag := range tags {
					out[index] = tagJSON(tag)
				}
				return cli.WriteJSON(os.Stdout, out)
			}

			tw := tabwriter.NewWriter(os.Stdout, 2, 0, 2, ' ', 0)
			for _, tag := range tags {
				fmt.Fprintf(tw, "%s\t%d\t%s\t%s\n",
					tag.Name, tag.Revision, tag.Timestamp.Format(time.RFC3339), tag.RootHash)
			}
			return tw.Flush()
		},
	}
}

// lookupTag searches segments from newest to oldest for a named tag.
func lookupTag(ctx context.Context, chain *history.Chain, name string, jsonOutput bool) error {
	for chain != nil {
		if tag, ok := chain.Tag(name); ok {
			if jsonOutput {
				return cli.WriteJSON(os.Stdout, tagJSON(tag))
			}
			tw := tabwriter.NewWriter(os.Stdout, 2, 0, 2, ' ', 0)
			fmt.Fprintf(tw, "Name:\t%s\n", tag.Name)
			fmt.Fprintf(tw, "Revision:\t%d\n", tag.Revision)
			fmt.Fprintf(tw, "Timestamp:\t%s\n", tag.Timestamp.Format(time.RFC3339))
			fmt.Fprintf(tw, "Root:\t%s\n", tag.RootHash)
			if tag.Channel != "" {
				fmt.Fprintf(tw, "Channel:\t%s\n", tag.Channel)
			}
			if tag.Description != "" {
				fmt.Fprintf(tw, "Description:\t%s\n", tag.Description)
			}
			return tw.Flush()
		}
		older, err := chain.Older(ctx)
		if err != nil {
			return err
		}
		chain = older
	}
	return fmt.Errorf("tag %q not found in any history segment", name)
}

func tagJSON(tag history.Tag) map[string]any {
	out := map[string]any{
		"name":      tag.Name,
		"revision":  tag.Revision,
		"timestamp": tag.Timestamp.Format(time.RFC3339),
		"root_hash": tag.RootHash.String(),
	}
	if tag.Channel != "" {
		out["channel"] = tag.Channel
	}
	if tag.Description != "" {
		out["description"] = tag.Description
	}
	return out
}
