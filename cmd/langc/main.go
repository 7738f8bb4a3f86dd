package main

import (
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/teris-io/cli"

	"langforge.dev/toolkit/pkg/lang"
	"langforge.dev/toolkit/pkg/tac"
	"langforge.dev/toolkit/pkg/x64"
)

var Description = strings.ReplaceAll(`
The langc compiler compiles a single source file down to x86-64 assembly and
hands the result to the system toolchain ('gcc tmp.S') to produce an
executable. The -t and -p flags print the intermediate artifacts (AST and
three-address code) of the two halves of the pipeline.
`, "\n", " ")

var Langc = cli.New(Description).
	WithArg(cli.NewArg("source", "The source file to be compiled").WithType(cli.TypeString)).
	WithOption(cli.NewOption("ast", "Prints the abstract syntax tree after type checking").
		WithChar('t').WithType(cli.TypeBool)).
	WithOption(cli.NewOption("tac", "Prints the three-address-code listing before lowering").
		WithChar('p').WithType(cli.TypeBool)).
	WithOption(cli.NewOption("verbose", "Enables per-pass debug logging").
		WithChar('v').WithType(cli.TypeBool)).
	WithAction(Handler)

func Handler(args []string, options map[string]string) int {
	if len(args) < 1 {
		fmt.Printf("ERROR: No source file provided, use --help\n")
		return -1
	}

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if _, enabled := options["verbose"]; enabled {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}

	source, err := os.ReadFile(args[0])
	if err != nil {
		report(errors.Wrapf(lang.ErrIO, "unable to open input file: %s", err))
		return -1
	}

	// The CLI always runs the pipeline in exit mode: a diagnostic prints with
	// its caret line and the process stops. Diagnostic mode (accumulate and
	// resume) is for embedding the front end in tooling.
	ctx := lang.NewContext(source, lang.ExitMode)
	arena, table := &lang.Arena{}, lang.NewStringTable()

	parser := lang.NewParser(ctx, arena, table)
	root, err := parser.ParseProgram()
	if err != nil {
		report(err)
		return -1
	}
	log.Debug().Int("nodes", arena.Len()).Msg("parsing complete")

	if err := lang.NewResolver(ctx, arena).Resolve(root); err != nil {
		report(err)
		return -1
	}
	if err := lang.NewTypeChecker(ctx, arena).Check(root); err != nil {
		report(err)
		return -1
	}

	if _, enabled := options["ast"]; enabled {
		fmt.Print(arena.Dump(root))
	}

	program, err := tac.NewGenerator(ctx, arena, table).Generate(root)
	if err != nil {
		report(err)
		return -1
	}

	if _, enabled := options["tac"]; enabled {
		fmt.Print(program.Listing())
	}

	listing, err := x64.NewEmitter(program, table, log.Logger).Emit()
	if err != nil {
		report(err)
		return -1
	}

	if err := os.WriteFile("tmp.S", []byte(listing), 0o644); err != nil {
		report(errors.Wrapf(lang.ErrIO, "unable to write assembly output: %s", err))
		return -1
	}

	// The external assembler/linker turns tmp.S into the final executable.
	assemble := exec.Command("gcc", "tmp.S")
	assemble.Stdout, assemble.Stderr = os.Stdout, os.Stderr
	if err := assemble.Run(); err != nil {
		report(errors.Wrapf(lang.ErrIO, "unable to invoke assembler: %s", err))
		return -1
	}
	return 0
}

func report(err error) {
	fmt.Fprintf(os.Stderr, "ERROR: %s\n", err)
}

func main() { os.Exit(Langc.Run(os.Args, os.Stdout)) }
