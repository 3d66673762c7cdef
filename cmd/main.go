package main

import (
	"fmt"
	"io"
	"log"
	"os"

	"github.com/kievzenit/c2ir/internal/ast"
	"github.com/kievzenit/c2ir/internal/backend"
	"github.com/kievzenit/c2ir/internal/compiler_errors"
	"github.com/kievzenit/c2ir/internal/driver"
	"github.com/kievzenit/c2ir/internal/lexer"
	"github.com/kievzenit/c2ir/internal/parser"
	"github.com/sanity-io/litter"
	"tinygo.org/x/go-llvm"
)

func main() {
	args, err := cli(os.Args[1:], os.Getenv, os.Stderr)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	switch args.Command {
	case COMMAND_HELP:
		fmt.Print(HELP_COMMAND)
		return
	case COMMAND_VERSION:
		fmt.Printf("LLVM %s (supported: %s)\n", llvm.Version, backend.SupportedLLVM)
		return
	}

	if err := backend.CheckLinkedLLVM(); err != nil {
		log.Fatal(err)
	}

	if args.Command == COMMAND_WATCH {
		if err := watch(args, os.Stdout, os.Stderr); err != nil {
			log.Fatal(err)
		}
		return
	}

	eh := compiler_errors.NewErrorHandler(os.Stderr)
	exitCode, err := execute(args, eh, os.Stdout, os.Stderr)
	if err != nil {
		log.Fatal(err)
	}
	os.Exit(exitCode)
}

// execute runs one command on one file. For run the returned code is the
// entry procedure's result; compile errors go through eh, which exits.
func execute(args CliResult, eh compiler_errors.ErrorHandler, stdout, stderr io.Writer) (int, error) {
	fileData, err := os.ReadFile(args.FileName)
	if err != nil {
		return 0, err
	}

	tokens := lexer.NewLexer(args.FileName, fileData, eh).Tokenize()
	tree, root := parser.NewParser(args.FileName, lexer.NewTokenScanner(tokens), eh).Parse()
	if eh.HasErrors() {
		eh.FailNow()
		return 1, nil
	}

	if args.Command == COMMAND_AST {
		dumpTree(stdout, tree, root)
		return 0, nil
	}

	program, err := driver.New(args.Config, eh, driver.WithTrace(stderr)).Compile(args.FileName, tree, root)
	if err != nil {
		eh.FailNow()
		return 1, nil
	}
	defer program.Dispose()

	b := backend.NewLLVMBackend(args.Config)

	switch args.Command {
	case COMMAND_RUN:
		result, err := b.Run(program)
		if err != nil {
			return 0, err
		}
		return result.ExitCode, nil

	case COMMAND_BUILD:
		return 0, writeOutput(outputPath(args, ".o"), func(w io.Writer) error {
			return b.EmitObject(program, w)
		})

	case COMMAND_IR:
		if args.Config.Output == "" {
			return 0, b.EmitIR(program, stdout)
		}
		return 0, writeOutput(args.Config.Output, func(w io.Writer) error {
			return b.EmitIR(program, w)
		})
	}

	return 0, fmt.Errorf("command %d does not produce output", args.Command)
}

func writeOutput(path string, emit func(w io.Writer) error) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}

	if err := emit(file); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}

func dumpTree(w io.Writer, tree *ast.Tree, root ast.NodeID) {
	options := litter.Options{
		Compact:           true,
		StripPackageNames: true,
	}

	for id := ast.NodeID(0); int(id) < tree.Len(); id++ {
		fmt.Fprintf(w, "%d: %s\n", id, options.Sdump(tree.Node(id)))
	}
	fmt.Fprintf(w, "root: %d\n", root)
}
