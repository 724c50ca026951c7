package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/google/subcommands"

	"attoc/cgen"
	"attoc/grammar"
)

// emitCmd is one parser-generator artifact: it loads the artifact's
// template, runs the matching emission routine over the preprocessed
// AttoL grammar, and writes the result to stdout.
type emitCmd struct {
	artifact    string
	synopsis    string
	template    string
	emit        func(g *grammar.Grammar, tmpl *cgen.Template) (string, error)
	templateDir string
}

func (c *emitCmd) Name() string     { return c.artifact }
func (c *emitCmd) Synopsis() string { return c.synopsis }
func (c *emitCmd) Usage() string {
	return c.artifact + ":\n  " + c.synopsis + ".\n"
}

func (c *emitCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.templateDir, "template-dir", ".", "Directory containing the template files")
}

func (c *emitCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	g := loadGrammar()

	tmpl, err := cgen.LoadTemplate(filepath.Join(c.templateDir, c.template))
	if err != nil {
		log.Fatal(err)
	}
	out, err := c.emit(g, tmpl)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Print(out)
	return subcommands.ExitSuccess
}

func loadGrammar() *grammar.Grammar {
	g, err := grammar.AttoL()
	if err != nil {
		log.Fatal(err)
	}
	if err := g.Preprocess(); err != nil {
		log.Fatal(err)
	}
	return g
}

func main() {
	log.SetFlags(0)
	log.SetPrefix("mkparser: ")

	subcommands.Register(subcommands.HelpCommand(), "")
	subcommands.Register(&emitCmd{
		artifact: "parser.h",
		synopsis: "Emit the lexer/parser header",
		template: "parser.template.h",
		emit:     (*grammar.Grammar).EmitLexerParserHeader,
	}, "")
	subcommands.Register(&emitCmd{
		artifact: "lexer.l",
		synopsis: "Emit the lexer specification",
		template: "lexer.template.l",
		emit:     (*grammar.Grammar).EmitLexer,
	}, "")
	subcommands.Register(&emitCmd{
		artifact: "ast.h",
		synopsis: "Emit the AST type header",
		template: "ast.template.h",
		emit:     (*grammar.Grammar).EmitASTHeader,
	}, "")
	subcommands.Register(&emitCmd{
		artifact: "parser.c",
		synopsis: "Emit the recursive-descent parser",
		template: "parser.template.c",
		emit:     (*grammar.Grammar).EmitParser,
	}, "")
	subcommands.Register(&emitCmd{
		artifact: "unparser.c",
		synopsis: "Emit the AST unparser",
		template: "unparser.template.c",
		emit:     (*grammar.Grammar).EmitUnparser,
	}, "")
	subcommands.Register(&shellCmd{}, "")
	flag.Parse()

	ret := subcommands.Execute(context.Background())
	if ret == subcommands.ExitUsageError {
		// A missing or unknown artifact is answered with the usage
		// listing, not an error exit.
		os.Exit(0)
	}
	os.Exit(int(ret))
}
