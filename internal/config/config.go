package config

import (
	"flag"
	"fmt"
	"io"
)

const (
	DefaultEntryName = "main"

	// TripleEnv overrides the target triple used for object emission.
	TripleEnv = "C2IR_TRIPLE"
)

type Config struct {
	BuildType BuildType

	// Triple is empty for the host's default triple.
	Triple    string
	EntryName string
	Output    string
	Trace     bool
}

func Default() Config {
	return Config{
		BuildType: DEBUG,
		EntryName: DefaultEntryName,
	}
}

// FromFlags parses command line flags into a Config and returns the remaining
// positional arguments. getenv is consulted for TripleEnv; an explicit
// -triple flag wins over it.
func FromFlags(name string, args []string, getenv func(string) string, output io.Writer) (Config, []string, error) {
	cfg := Default()

	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(output)

	release := fs.Bool("release", false, "build in release mode")
	debug := fs.Bool("debug", false, "build in debug mode (default)")
	fs.StringVar(&cfg.Triple, "triple", getenv(TripleEnv), "target triple for object emission")
	fs.StringVar(&cfg.EntryName, "entry", DefaultEntryName, "name of the entry procedure")
	fs.StringVar(&cfg.Output, "o", "", "output file")
	fs.BoolVar(&cfg.Trace, "trace", false, "print every lowered node")

	if err := fs.Parse(args); err != nil {
		return cfg, nil, err
	}

	if *release && *debug {
		return cfg, nil, fmt.Errorf("choose either -release or -debug, not both")
	}
	if *release {
		cfg.BuildType = RELEASE
	}

	if cfg.EntryName == "" {
		return cfg, nil, fmt.Errorf("entry name must not be empty")
	}

	return cfg, fs.Args(), nil
}
