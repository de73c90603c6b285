// Copyright 2026 The Stratum Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"fmt"

	"github.com/stratumfs/stratum/cmd/stratum/cli"
	"github.com/stratumfs/stratum/lib/version"
)

// Root returns the stratum command tree.
func Root() *cli.Command {
	return &cli.Command{
		Name:    "stratum",
		Summary: "inspect stratum repositories",
		Description: "stratum fetches, verifies, and navigates the metadata of a\n" +
			"content-addressed repository: its signed manifest, directory\n" +
			"catalogs, and tag history.",
		Subcommands: []*cli.Command{
			manifestCommand(),
			resolveCommand(),
			lsCommand(),
			walkCommand(),
			nestedCommand(),
			tagsCommand(),
			versionCommand(),
		},
	}
}

func versionCommand() *cli.Command {
	return &cli.Command{
		Name:    "version",
		Summary: "print version information",
		Run: func(args []string) error {
			fmt.Println(version.Full())
			return nil
		},
	}
}
