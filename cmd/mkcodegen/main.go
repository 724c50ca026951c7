package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"

	"attoc/cgen"
	"attoc/isa"
)

type headersCmd struct{}

func (*headersCmd) Name() string     { return "headers" }
func (*headersCmd) Synopsis() string { return "Emit encoder and disassembler prototypes" }
func (*headersCmd) Usage() string {
	return `headers:
  Emit the C prototypes for the instruction encoders and the disassembler.
`
}
func (*headersCmd) SetFlags(f *flag.FlagSet) {}

func (*headersCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	src := cgen.NewSource()
	isa.EmitHeaders(src, isa.StandardTable())
	fmt.Print(src.String())
	return subcommands.ExitSuccess
}

type codeCmd struct{}

func (*codeCmd) Name() string     { return "code" }
func (*codeCmd) Synopsis() string { return "Emit encoder and disassembler bodies" }
func (*codeCmd) Usage() string {
	return `code:
  Emit the C definitions of the instruction encoders and the disassembler.
`
}
func (*codeCmd) SetFlags(f *flag.FlagSet) {}

func (*codeCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	src := cgen.NewSource()
	isa.EmitCode(src, isa.StandardTable())
	fmt.Print(src.String())
	return subcommands.ExitSuccess
}

func main() {
	subcommands.Register(subcommands.HelpCommand(), "")
	subcommands.Register(&headersCmd{}, "")
	subcommands.Register(&codeCmd{}, "")
	flag.Parse()

	ret := subcommands.Execute(context.Background())
	if ret == subcommands.ExitUsageError {
		// A missing or unknown artifact is answered with the usage
		// listing, not an error exit.
		os.Exit(0)
	}
	os.Exit(int(ret))
}
