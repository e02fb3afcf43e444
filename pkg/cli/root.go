package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/getmockd/clappy/pkg/cli/internal/flags"
	"github.com/getmockd/clappy/pkg/cliconfig"
)

// Streams are the standard streams of one run.
type Streams struct {
	In  io.Reader
	Out io.Writer
	Err io.Writer
}

type options struct {
	configPath    string
	prod          bool
	dryRun        bool
	jsonOutput    bool
	logLevel      string
	logFormat     string
	aliases       flags.Pairs
	filterAliases flags.Pairs
	accessible    bool
}

func newRootCmd(streams Streams) *cobra.Command {
	var opts options
	cmd := &cobra.Command{
		Use:   "clappy [program | script...]",
		Short: "clappy is an interactive and scriptable HTTP API client",
		Long: `clappy runs short commands against HTTP APIs and keeps a navigable history
of every request and response.

Without arguments and with a terminal attached it starts the interactive
client. A program can be piped to stdin, passed as script files (globs such as
'scripts/**/*.clappy' are expanded), or given inline:

  clappy "use foo local; get /things; inspect .items[0]"

Configuration is read from .clappy.yaml, $XDG_CONFIG_HOME/clappy/config.yaml,
the file named by --config, and CLAPPY_* environment variables.`,
		Args:          cobra.ArbitraryArgs,
		Version:       versionString(),
		SilenceUsage:  true,
		SilenceErrors: true, // Run prints errors
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, streams, &opts, args)
		},
	}

	f := cmd.Flags()
	// Program text may contain words starting with '-', such as "inspect -1".
	f.SetInterspersed(false)
	f.StringVarP(&opts.configPath, "config", "c", "", "Path to a config file (env: CLAPPY_CONFIG)")
	f.BoolVar(&opts.prod, "prod", false, "Allow requests that modify resources in prod environments")
	f.BoolVar(&opts.dryRun, "dry-run", false, "Use mock tokens and responses instead of the network")
	f.StringVar(&opts.logLevel, "log-level", "", "Log level: debug, info, warn, error (default warn)")
	f.StringVar(&opts.logFormat, "log-format", "", "Log format: text or json (default text)")
	f.BoolVar(&opts.jsonOutput, "json", false, "Print results as compact JSON")
	f.Var(&opts.aliases, "alias", "Add a command alias as name=program (repeatable)")
	f.Var(&opts.filterAliases, "filter-alias", "Add a filter alias as name=filter (repeatable)")
	f.BoolVar(&opts.accessible, "accessible", false, "Use line-based prompts in the interactive client")

	cmd.SetIn(streams.In)
	cmd.SetOut(streams.Out)
	cmd.SetErr(streams.Err)
	return cmd
}

// Run executes clappy with args and returns the process exit code.
func Run(ctx context.Context, args []string, streams Streams) int {
	cmd := newRootCmd(streams)
	cmd.SetArgs(args)
	if err := cmd.ExecuteContext(ctx); err != nil {
		if !errors.Is(err, errSilent) {
			fmt.Fprintf(streams.Err, "Error: %s\n", err)
		}
		return 1
	}
	return 0
}

// Main runs clappy with the process arguments and standard streams.
func Main() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	return Run(ctx, os.Args[1:], Streams{In: os.Stdin, Out: os.Stdout, Err: os.Stderr})
}

// loadConfig layers flags over every other configuration source.
func loadConfig(cmd *cobra.Command, opts *options) (*cliconfig.Config, error) {
	cfg, err := cliconfig.LoadAll(opts.configPath)
	if err != nil {
		return nil, err
	}

	f := cmd.Flags()
	if f.Changed("prod") {
		cfg.EnableProdModifications = opts.prod
		cfg.Sources["enableProdModifications"] = cliconfig.SourceFlag
	}
	if f.Changed("dry-run") {
		cfg.DryRun = opts.dryRun
		cfg.Sources["dryRun"] = cliconfig.SourceFlag
	}
	if f.Changed("json") {
		cfg.JSON = opts.jsonOutput
		cfg.Sources["json"] = cliconfig.SourceFlag
	}
	if opts.logLevel != "" {
		cfg.LogLevel = opts.logLevel
		cfg.Sources["logLevel"] = cliconfig.SourceFlag
	}
	if opts.logFormat != "" {
		cfg.LogFormat = opts.logFormat
		cfg.Sources["logFormat"] = cliconfig.SourceFlag
	}

	cliconfig.MergeConfig(cfg, &cliconfig.Config{
		CommandAliases: opts.aliases,
		FilterAliases:  opts.filterAliases,
	}, cliconfig.SourceFlag)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
