package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/charmbracelet/x/term"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/getmockd/clappy/pkg/actions"
	"github.com/getmockd/clappy/pkg/clappy"
	"github.com/getmockd/clappy/pkg/cli/internal/output"
	"github.com/getmockd/clappy/pkg/cliconfig"
	"github.com/getmockd/clappy/pkg/engine"
	"github.com/getmockd/clappy/pkg/history"
	"github.com/getmockd/clappy/pkg/logging"
	"github.com/getmockd/clappy/pkg/program"
	"github.com/getmockd/clappy/pkg/prompt"
	"github.com/getmockd/clappy/pkg/session"
	"github.com/getmockd/clappy/pkg/transport"
)

// app is one run of the clappy command.
type app struct {
	root     *session.Session
	engine   *engine.Engine
	prompter prompt.Prompter
	printer  *output.Printer
	logger   *slog.Logger
	width    int
}

func run(cmd *cobra.Command, streams Streams, opts *options, args []string) error {
	cfg, err := loadConfig(cmd, opts)
	if err != nil {
		return err
	}
	logCfg := logging.DefaultConfig()
	logCfg.Level = logging.ParseLevel(cfg.LogLevel)
	logCfg.Format = logging.ParseFormat(cfg.LogFormat)
	logCfg.Output = streams.Err
	logger := logging.New(logCfg)

	surface, text, err := selectSurface(streams.In, args)
	if err != nil {
		return err
	}
	logger.Debug("starting", "surface", surface, "config", cfg.ConfigFile, "sources", cfg.Sources)

	var p prompt.Prompter
	if surface == session.SurfaceClient {
		p = prompt.NewHuh(prompt.WithIO(streams.In, streams.Err), prompt.WithAccessible(opts.accessible))
	}
	a := newApp(cfg, surface, streams, logger, p)

	ctx := cmd.Context()
	if surface == session.SurfaceClient {
		return a.repl(ctx)
	}
	return a.runOnce(ctx, text)
}

func newApp(cfg *cliconfig.Config, surface session.Surface, streams Streams, logger *slog.Logger, p prompt.Prompter) *app {
	root := session.New(surface)
	root.Assign(cfg.Overrides())

	topts := []transport.Option{
		transport.WithTimeout(cfg.HTTPTimeout()),
		transport.WithLogger(logger),
	}
	eopts := []clappy.EngineOption{
		clappy.WithOutput(streams.Out),
		clappy.WithLogger(logger),
	}
	if p != nil {
		topts = append(topts, transport.WithConfirmer(p), transport.WithAsker(p))
		eopts = append(eopts, clappy.WithPrompter(p))
	}
	eopts = append(eopts, clappy.WithTransport(transport.New(topts...)))

	return &app{
		root:     root,
		engine:   clappy.NewEngine(root, eopts...),
		prompter: p,
		printer:  &output.Printer{Out: streams.Out, Err: streams.Err, JSON: cfg.JSON, Theme: root.Theme},
		logger:   logger,
		width:    terminalWidth(streams.Out),
	}
}

// selectSurface decides how commands arrive. Without arguments a terminal
// on stdin means the interactive client and anything else a script on
// stdin. Arguments naming files (or globs matching files) are scripts; any
// other arguments form a static program.
func selectSurface(in io.Reader, args []string) (session.Surface, string, error) {
	if len(args) == 0 {
		if f, ok := in.(*os.File); ok && isTerminal(f) {
			return session.SurfaceClient, "", nil
		}
		data, err := io.ReadAll(in)
		if err != nil {
			return "", "", fmt.Errorf("reading program from stdin: %w", err)
		}
		return session.SurfaceScript, program.StripComments(string(data)), nil
	}

	files := scriptFiles(args[0])
	if len(files) == 0 {
		return session.SurfaceStatic, strings.Join(args, " "), nil
	}
	for _, arg := range args[1:] {
		more := scriptFiles(arg)
		if len(more) == 0 {
			return "", "", fmt.Errorf("%w %q", ErrNoScripts, arg)
		}
		files = append(files, more...)
	}

	scripts := make([]string, 0, len(files))
	for _, path := range files {
		data, err := os.ReadFile(path)
		if err != nil {
			return "", "", err
		}
		scripts = append(scripts, program.StripComments(string(data)))
	}
	return session.SurfaceScript, strings.Join(scripts, "\n"), nil
}

// scriptFiles returns the regular files arg names, expanding doublestar
// globs. The result is nil when arg names no file.
func scriptFiles(arg string) []string {
	if info, err := os.Stat(arg); err == nil {
		if info.Mode().IsRegular() {
			return []string{arg}
		}
		return nil
	}
	if !strings.ContainsAny(arg, "*?[{") {
		return nil
	}
	matches, err := doublestar.FilepathGlob(arg, doublestar.WithFilesOnly())
	if err != nil {
		return nil
	}
	slices.Sort(matches)
	return matches
}

func isTerminal(f *os.File) bool {
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

func terminalWidth(w io.Writer) int {
	f, ok := w.(*os.File)
	if !ok || !term.IsTerminal(f.Fd()) {
		return 0
	}
	width, _, err := term.GetSize(f.Fd())
	if err != nil {
		return 0
	}
	return width
}

// runOnce runs a script or static program. The first failure ends it.
func (a *app) runOnce(ctx context.Context, text string) error {
	filters := len(a.root.FilterLog)
	out, err := a.engine.RunProgram(ctx, text, nil)
	if err != nil {
		a.fail(err)
		return errSilent
	}
	a.show(out, filters)
	return nil
}

// repl reads and runs programs until the user exits. Failures are printed
// and the loop continues with the same session.
func (a *app) repl(ctx context.Context) error {
	for {
		line, err := a.prompter.ReadProgram(ctx, prefix(a.root))
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		if strings.TrimSpace(line) == "" {
			continue
		}

		filters := len(a.root.FilterLog)
		out, err := a.engine.RunProgram(ctx, line, a.progress)
		if errors.Is(err, actions.ErrExit) {
			return nil
		}
		if err != nil {
			a.fail(err)
			continue
		}
		a.show(out, filters)
	}
}

func (a *app) progress(i, n int, cmd program.Command) {
	a.printer.Progress(i, n, cmd.String())
}

// fail reports a failed program. A declined production write is a notice,
// not an error.
func (a *app) fail(err error) {
	a.printer.Theme = a.root.Theme
	if errors.Is(err, transport.ErrCanceled) {
		a.printer.Notify("Request canceled.")
		return
	}
	a.logger.Debug("program failed", "error", err)
	a.printer.Error(err)
}

// show prints the output of the last command of a program: its notice, the
// meta block of each transaction it names (client only) and its result.
func (a *app) show(out *session.Output, filtersBefore int) {
	a.printer.Theme = a.root.Theme
	a.printer.Notify(out.Notify)

	if a.root.Surface == session.SurfaceClient && a.root.Theme.ShowTransactionMeta {
		filter := ""
		if n := len(a.root.FilterLog); n > filtersBefore {
			filter = a.root.FilterLog[n-1]
		}
		full := false
		if cmd, ok := a.root.LatestCommand(); ok {
			full = slices.Contains(cmd.Args, any("full"))
		}
		for _, t := range out.Entries {
			a.printer.Meta(history.Meta(t, full, filter, a.width))
		}
	}

	if err := a.printer.Result(out.Result); err != nil {
		a.printer.Error(err)
	}
}

// prefix is the interactive prompt: "clappy [3] (foo/local/cc)".
func prefix(s *session.Session) string {
	parts := []string{"clappy"}
	if !s.History.Empty() {
		parts = append(parts, fmt.Sprintf("[%d]", s.History.Current().ID))
	}
	if s.APIID != "" && s.EnvID != "" {
		gt := "cc"
		if s.GrantType == transport.PasswordGrant {
			gt = "pw"
		}
		parts = append(parts, fmt.Sprintf("(%s/%s/%s)", s.APIID, s.EnvID, gt))
	}
	return strings.Join(parts, " ")
}
