// Package clappy is the programmatic entry point.
//
// New returns a chain whose steps are resolved by name when they run:
//
//	res, err := clappy.New(clappy.WithConfigure(func(p clappy.Presets) *session.Overrides {
//		return &session.Overrides{APIs: apis}
//	})).Use("foo", "local").Get("/things").Inspect(".items[0]").Result(ctx)
//
// Every chain gets its own session, copied from the process root session, so
// chains never observe each other's history or selections.
package clappy

import (
	"context"
	"io"
	"log/slog"
	"maps"
	"sync"

	"github.com/getmockd/clappy/pkg/actions"
	"github.com/getmockd/clappy/pkg/engine"
	"github.com/getmockd/clappy/pkg/logging"
	"github.com/getmockd/clappy/pkg/prompt"
	"github.com/getmockd/clappy/pkg/session"
	"github.com/getmockd/clappy/pkg/transport"
)

// Presets are the named color schemes offered to Configure callbacks.
type Presets map[string]map[string]string

// Configure returns the overrides merged into a new chain's session.
type Configure func(presets Presets) *session.Overrides

// EngineOption configures NewEngine.
type EngineOption func(*engineConfig)

type engineConfig struct {
	transport *transport.HTTP
	prompter  prompt.Prompter
	clipboard actions.Clipboard
	out       io.Writer
	logger    *slog.Logger
}

// WithTransport sets the transport used by request actions.
func WithTransport(t *transport.HTTP) EngineOption {
	return func(c *engineConfig) { c.transport = t }
}

// WithPrompter sets the prompter used on the client surface.
func WithPrompter(p prompt.Prompter) EngineOption {
	return func(c *engineConfig) { c.prompter = p }
}

// WithClipboard replaces the system clipboard.
func WithClipboard(cb actions.Clipboard) EngineOption {
	return func(c *engineConfig) { c.clipboard = cb }
}

// WithOutput sets where terminal control output goes.
func WithOutput(w io.Writer) EngineOption {
	return func(c *engineConfig) { c.out = w }
}

// WithLogger sets the logger for the engine and, unless a transport is
// given, the transport.
func WithLogger(l *slog.Logger) EngineOption {
	return func(c *engineConfig) { c.logger = l }
}

// NewEngine wires the native actions and an HTTP transport to an engine
// owning root.
func NewEngine(root *session.Session, opts ...EngineOption) *engine.Engine {
	cfg := engineConfig{logger: logging.Nop(), out: io.Discard}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.logger == nil {
		cfg.logger = logging.Nop()
	}
	if cfg.transport == nil {
		topts := []transport.Option{transport.WithLogger(cfg.logger)}
		if cfg.prompter != nil {
			topts = append(topts, transport.WithConfirmer(cfg.prompter), transport.WithAsker(cfg.prompter))
		}
		cfg.transport = transport.New(topts...)
	}

	registry := actions.New(actions.Deps{
		Transport: cfg.transport,
		Prompter:  cfg.prompter,
		Clipboard: cfg.clipboard,
		Out:       cfg.out,
		Logger:    cfg.logger,
	})
	return engine.New(root, registry, engine.WithLogger(cfg.logger))
}

var (
	defaultOnce   sync.Once
	defaultEngine *engine.Engine
)

// Default returns the engine owning the process root session. It is created
// on first use.
func Default() *engine.Engine {
	defaultOnce.Do(func() {
		defaultEngine = NewEngine(session.New(session.SurfaceModule))
	})
	return defaultEngine
}

// Option configures New.
type Option func(*options)

type options struct {
	ctx       context.Context
	engine    *engine.Engine
	configure Configure
}

// WithConfigure sets the callback producing the chain's overrides.
func WithConfigure(fn Configure) Option {
	return func(o *options) { o.configure = fn }
}

// WithEngine roots the chain at e instead of the process engine.
func WithEngine(e *engine.Engine) Option {
	return func(o *options) { o.engine = e }
}

// WithContext sets the context every step of the chain runs with.
func WithContext(ctx context.Context) Option {
	return func(o *options) { o.ctx = ctx }
}

// New returns a fresh chain on a new session copied from the root session.
func New(opts ...Option) *engine.Chain {
	o := options{ctx: context.Background()}
	for _, opt := range opts {
		opt(&o)
	}
	if o.engine == nil {
		o.engine = Default()
	}

	var overrides *session.Overrides
	if o.configure != nil {
		overrides = o.configure(presets())
	}
	return o.engine.Chain(o.ctx, overrides)
}

func presets() Presets {
	out := make(Presets, len(session.Presets))
	for name, colors := range session.Presets {
		out[name] = maps.Clone(colors)
	}
	return out
}
