package main

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/kievzenit/c2ir/internal/config"
)

type Command int

const (
	COMMAND_HELP Command = iota
	COMMAND_VERSION
	COMMAND_RUN
	COMMAND_BUILD
	COMMAND_IR
	COMMAND_AST
	COMMAND_WATCH
)

type CliResult struct {
	Command  Command
	Config   config.Config
	FileName string
}

var HELP_COMMAND string = `c2ir - lowers a small subset of C to LLVM IR.

Usage:
  c2ir <command> [flags] <file.c>

Available Commands:
  run     Compile the file and run its entry procedure, exiting with its result
  build   Compile the file to a native object file
  ir      Print the LLVM IR of the file
  ast     Print the syntax tree of the file
  watch   Recompile and run the file every time it changes
  version Show the LLVM version this binary is linked against
  help    Show this help message

Flags:
  -release      Build in release mode
  -debug        Build in debug mode (default)
  -triple       Target triple for build (defaults to $C2IR_TRIPLE or the host)
  -entry        Name of the entry procedure (default "main")
  -o            Output file for build and ir
  -trace        Print every lowered node to stderr

Examples:
  c2ir run examples/add.c
  c2ir build -release -o add.o examples/add.c
  c2ir ir -entry start examples/add.c
`

var commands = map[string]Command{
	"run":   COMMAND_RUN,
	"build": COMMAND_BUILD,
	"ir":    COMMAND_IR,
	"ast":   COMMAND_AST,
	"watch": COMMAND_WATCH,
}

func cli(args []string, getenv func(string) string, stderr io.Writer) (CliResult, error) {
	result := CliResult{
		Command: COMMAND_HELP,
		Config:  config.Default(),
	}

	if len(args) == 0 {
		return result, nil
	}

	switch args[0] {
	case "help", "-h", "-help", "--help":
		return result, nil
	case "version":
		result.Command = COMMAND_VERSION
		return result, nil
	}

	command, ok := commands[args[0]]
	if !ok {
		return result, fmt.Errorf("unknown command %q, see 'c2ir help'", args[0])
	}
	result.Command = command

	cfg, rest, err := config.FromFlags("c2ir "+args[0], args[1:], getenv, stderr)
	if err != nil {
		return result, err
	}
	if len(rest) != 1 {
		return result, fmt.Errorf("%s expects exactly one source file, got %d", args[0], len(rest))
	}

	result.Config = cfg
	result.FileName = rest[0]
	return result, nil
}

// outputPath is the -o flag, or the source file name with its extension
// replaced by ext.
func outputPath(args CliResult, ext string) string {
	if args.Config.Output != "" {
		return args.Config.Output
	}
	base := filepath.Base(args.FileName)
	return strings.TrimSuffix(base, filepath.Ext(base)) + ext
}
