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
)

func manifestCommand() *cli.Command {
	var flags repoFlags
	return &cli.Command{
		Name:    "manifest",
		Summary: "show the verified repository manifest",
		Usage:   "stratum manifest --repo <source> [flags]",
		Examples: []cli.Example{
			{Description: "inspect a repository over HTTP", Command: "stratum manifest --repo https://mirror.example.org/demo"},
		},
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("manifest", pflag.ContinueOnError)
			flags.register(flagSet)
			return flagSet
		},
		Run: func(args []string) error {
			repo, err := flags.open(context.Background())
			if err != nil {
				return err
			}
			m := repo.Manifest()

			if flags.jsonOutput {
				out := map[string]any{
					"repository":       m.RepositoryName,
					"revision":         m.Revision,
					"root_hash":        m.RootHash.String(),
					"root_size":        m.RootSize,
					"last_modified":    m.LastModified.Format(time.RFC3339),
					"compression":      m.Compression.String(),
					"certificate_hash": m.CertificateHash.String(),
					"certificate_name": repo.Certificate().Name,
				}
				if m.HasHistory() {
					out["history_hash"] = m.HistoryHash.String()
				}
				if !m.PreviousRoot.IsZero() {
					out["previous_root"] = m.PreviousRoot.String()
				}
				return cli.WriteJSON(os.Stdout, out)
			}

			tw := tabwriter.NewWriter(os.Stdout, 2, 0, 2, ' ', 0)
			fmt.Fprintf(tw, "Repository:\t%s\n", m.RepositoryName)
			fmt.Fprintf(tw, "Revision:\t%d\n", m.Revision)
			fmt.Fprintf(tw, "Root catalog:\t%s (%d bytes)\n", m.RootHash, m.RootSize)
			fmt.Fprintf(tw, "Last modified:\t%s\n", m.LastModified.Format(time.RFC3339))
			fmt.Fprintf(tw, "Compression:\t%s\n", m.Compression)
			fmt.Fprintf(tw, "Certificate:\t%s (%s)\n", m.CertificateHash, repo.Certificate().Name)
			if m.HasHistory() {
				fmt.Fprintf(tw, "History:\t%s\n", m.HistoryHash)
			}
			if !m.PreviousRoot.IsZero() {
				fmt.Fprintf(tw, "Previous root:\t%s\n", m.PreviousRoot)
			}
			return tw.Flush()
		},
	}
}
