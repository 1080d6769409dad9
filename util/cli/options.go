package cli

import (
	"flag"
	"io"
	"os"
)

type Options struct {
	ConfigDir  string
	ConfigName string
	Once       bool
	OutputFile string
	PrintHelp  bool
	flags      *flag.FlagSet
}

var EnvMessage = `If you don't set -config-dir and -config-name on the command line,
this requires the following environment vars:

IM_CONFIG_DIR - Path to the directory containing the .env settings file.

IM_CONFIG_NAME - Name of the configuration to load. For example:
    test - Loads .env.test from IM_CONFIG_DIR
    prod - Loads .env.prod from IM_CONFIG_DIR
`

// ParseOpts parses command-line args (without the program name).
func ParseOpts(name string, args []string) (*Options, error) {
	opts := &Options{
		flags: flag.NewFlagSet(name, flag.ContinueOnError),
	}
	opts.flags.SetOutput(io.Discard)
	opts.flags.StringVar(&opts.ConfigDir, "config-dir", "", "Directory containing the .env config file. Overrides IM_CONFIG_DIR.")
	opts.flags.StringVar(&opts.ConfigName, "config-name", "", "Name of the config to load (test, prod, etc.). Overrides IM_CONFIG_NAME.")
	opts.flags.BoolVar(&opts.Once, "once", false, "Run a single sweep, print the result and exit")
	opts.flags.StringVar(&opts.OutputFile, "out", "", "Path of the manifest to write (accept_baseline only)")
	opts.flags.BoolVar(&opts.PrintHelp, "help", false, "Print help message")
	if err := opts.flags.Parse(args); err != nil {
		return nil, err
	}
	return opts, nil
}

// ApplyToEnv copies -config-dir and -config-name into the env vars
// that common.NewConfig reads.
func (opts *Options) ApplyToEnv() {
	if opts.ConfigDir != "" {
		os.Setenv("IM_CONFIG_DIR", opts.ConfigDir)
	}
	if opts.ConfigName != "" {
		os.Setenv("IM_CONFIG_NAME", opts.ConfigName)
	}
}

func (opts *Options) PrintDefaults(w io.Writer) {
	opts.flags.SetOutput(w)
	opts.flags.PrintDefaults()
	opts.flags.SetOutput(io.Discard)
}
