// Copyright 2026 The Stratum Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"strings"
	"testing"

	"github.com/spf13/pflag"
)

func TestExecuteDispatchesSubcommand(t *testing.T) {
	var ran []string
	root := &Command{
		Name: "stratum",
		Subcommands: []*Command{
			{
				Name: "tags",
				Run: func(args []string) error {
					ran = append(ran, "tags")
					return nil
				},
			},
		},
	}

	if err := root.Execute([]string{"tags"}); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if len(ran) != 1 || ran[0] != "tags" {
		t.Errorf("ran = %v", ran)
	}
}

func TestExecuteSuggestsCommand(t *testing.T) {
	root := &Command{
		Name: "stratum",
		Subcommands: []*Command{
			{Name: "resolve", Run: func([]string) error { return nil }},
			{Name: "nested", Run: func([]string) error { return nil }},
		},
	}

	err := root.Execute([]string{"resovle"})
	if err == nil {
		t.Fatal("Execute accepted an unknown command")
	}
	if !strings.Contains(err.Error(), `did you mean "resolve"`) {
		t.Errorf("error = %v, want resolve suggestion", err)
	}
}

func TestExecuteParsesFlags(t *testing.T) {
	var recursive bool
	var rest []string
	command := &Command{
		Name: "nested",
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("nested", pflag.ContinueOnError)
			flagSet.BoolVar(&recursive, "recursive", false, "")
			return flagSet
		},
		Run: func(args []string) error {
			rest = args
			return nil
		},
	}

	if err := command.Execute([]string{"--recursive", "/software"}); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if !recursive {
		t.Error("--recursive not parsed")
	}
	if len(rest) != 1 || rest[0] != "/software" {
		t.Errorf("positional args = %v", rest)
	}
}

func TestExecuteSuggestsFlag(t *testing.T) {
	command := &Command{
		Name: "nested",
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("nested", pflag.ContinueOnError)
			flagSet.Bool("recursive", false, "")
			return flagSet
		},
		Run: func([]string) error { return nil },
	}

	err := command.Execute([]string{"--recusive"})
	if err == nil {
		t.Fatal("Execute accepted an unknown flag")
	}
	if !strings.Contains(err.Error(), "--recursive") {
		t.Errorf("error = %v, want --recursive suggestion", err)
	}
}

func TestLevenshtein(t *testing.T) {
	cases := []struct {
		a, b string
		want int
	}{
		{"", "", 0},
		{"tags", "tags", 0},
		{"tgas", "tags", 2},
		{"resovle", "resolve", 2},
		{"walk", "tags", 3},
	}
	for _, testCase := range cases {
		if got := levenshtein(testCase.a, testCase.b); got != testCase.want {
			t.Errorf("levenshtein(%q, %q) = %d, want %d", testCase.a, testCase.b, got, testCase.want)
		}
	}
}
