package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/google/subcommands"
)

// shellCmd is an interactive inspector for the preprocessed grammar.
type shellCmd struct{}

func (*shellCmd) Name() string     { return "shell" }
func (*shellCmd) Synopsis() string { return "Inspect the grammar interactively" }
func (*shellCmd) Usage() string {
	return `shell:
  Inspect the preprocessed grammar interactively.
`
}
func (*shellCmd) SetFlags(f *flag.FlagSet) {}

func (*shellCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	g := loadGrammar()
	scanner := bufio.NewScanner(os.Stdin)

	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			fmt.Println()
			return subcommands.ExitSuccess
		}
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}

		switch fields[0] {
		case "exit":
			return subcommands.ExitSuccess
		case "nts":
			for _, nt := range g.RuleNTs() {
				fmt.Println(nt.Name())
			}
		case "terms":
			for _, t := range g.Terms() {
				fmt.Println(t.TokenID())
			}
		case "rules":
			if len(fields) != 2 {
				fmt.Println("usage: rules <nt>")
				continue
			}
			nt := g.LookupNT(fields[1])
			if nt == nil {
				fmt.Printf("unknown nonterminal %q\n", fields[1])
				continue
			}
			for _, r := range g.RulesFor(nt) {
				fmt.Println(r)
			}
		default:
			fmt.Println("commands: nts, terms, rules <nt>, exit")
		}
	}
}
