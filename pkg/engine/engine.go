package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"github.com/getmockd/clappy/pkg/logging"
	"github.com/getmockd/clappy/pkg/program"
	"github.com/getmockd/clappy/pkg/session"
)

// ErrUnknownAction is returned when a command names no alias or native
// action.
var ErrUnknownAction = errors.New("unknown action")

// Registry looks up native actions by name.
type Registry interface {
	Lookup(name string) (session.Action, bool)
}

// Engine owns the root session of a process and dispatches commands.
type Engine struct {
	root     *session.Session
	registry Registry
	logger   *slog.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the engine logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = logging.Component(l, "engine")
		}
	}
}

// New creates an engine around a root session.
func New(root *session.Session, registry Registry, opts ...Option) *Engine {
	e := &Engine{root: root, registry: registry, logger: logging.Nop()}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Root returns the root session.
func (e *Engine) Root() *session.Session { return e.root }

// Invoke runs one command against s. Callable aliases stored in the session
// take precedence over native actions. A successful command is recorded in
// the session command log.
func (e *Engine) Invoke(ctx context.Context, s *session.Session, name string, args ...any) (*session.Output, error) {
	binding, err := e.resolve(s, name)
	if err != nil {
		return nil, err
	}

	e.logger.Debug("dispatching action", "action", name, "session", s.ID, "args", args)

	out, err := binding.Call(ctx, s, args...)
	if err != nil {
		e.logger.Debug("action failed", "action", name, "session", s.ID, "error", err)
		return nil, err
	}
	if out == nil {
		out = &session.Output{}
	}

	all := append(slices.Clone(binding.Captured), args...)
	s.LogCommand(session.CommandRecord{
		Name:    name,
		Args:    all,
		Binding: &session.Binding{Name: name, Action: binding.Action, Captured: all},
	})
	return out, nil
}

func (e *Engine) resolve(s *session.Session, name string) (*session.Binding, error) {
	if a, ok := s.CommandAliases[name]; ok && a.Binding != nil {
		return a.Binding, nil
	}
	if e.registry != nil {
		if act, ok := e.registry.Lookup(name); ok {
			return &session.Binding{Name: name, Action: act}, nil
		}
	}
	return nil, fmt.Errorf("%w: %s is not a valid command", ErrUnknownAction, name)
}

// Progress is called before each command of a compound program.
type Progress func(i, n int, cmd program.Command)

// RunProgram parses text with the root session's command aliases and runs
// the commands in order against the root session. It stops at the first
// failure and returns the output of the last command.
func (e *Engine) RunProgram(ctx context.Context, text string, progress Progress) (*session.Output, error) {
	queue, err := program.Parse(text, e.root.ProgramAliases())
	if err != nil {
		return nil, err
	}

	out := &session.Output{}
	for i, cmd := range queue {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if progress != nil && len(queue) > 1 {
			progress(i+1, len(queue), cmd)
		}
		out, err = e.Invoke(ctx, e.root, cmd.Name(), cmd.Args()...)
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}
