// Package actions implements the native commands of clappy.
//
// Every action classifies its arguments with package args, so the same
// action serves program text ("get /things?page=2") and chains
// (Get("/things?page=2")). Actions only touch the session they are handed.
package actions

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"sort"
	"strings"

	"github.com/atotto/clipboard"

	"github.com/getmockd/clappy/pkg/history"
	"github.com/getmockd/clappy/pkg/logging"
	"github.com/getmockd/clappy/pkg/prompt"
	"github.com/getmockd/clappy/pkg/session"
)

var (
	// ErrPrecondition is returned when an action cannot run in the current
	// state, for example when no API is selected yet.
	ErrPrecondition = errors.New("precondition failed")

	// ErrExit is returned by the exit action. The interactive loop stops
	// when it sees it.
	ErrExit = errors.New("exit requested")
)

// Transport performs the requests behind request actions.
type Transport interface {
	CreateConfig(ctx context.Context, s *session.Session, partial *history.Request) (*history.Request, error)
	SubmitConfig(ctx context.Context, s *session.Session, req *history.Request) (*history.Transaction, error)
}

// Clipboard receives copied values.
type Clipboard interface {
	WriteAll(text string) error
}

// SystemClipboard writes to the operating system clipboard.
type SystemClipboard struct{}

// WriteAll implements Clipboard.
func (SystemClipboard) WriteAll(text string) error { return clipboard.WriteAll(text) }

// Deps are the collaborators of the native actions.
type Deps struct {
	Transport Transport

	// Prompter is used on the client surface. It may be nil elsewhere.
	Prompter prompt.Prompter

	// Clipboard defaults to SystemClipboard.
	Clipboard Clipboard

	// Out receives terminal control output such as screen clears.
	Out io.Writer

	Logger *slog.Logger
}

// Registry holds the native actions.
type Registry struct {
	deps    Deps
	actions map[string]session.Action
}

// New builds the registry of native actions.
func New(deps Deps) *Registry {
	if deps.Clipboard == nil {
		deps.Clipboard = SystemClipboard{}
	}
	if deps.Out == nil {
		deps.Out = io.Discard
	}
	if deps.Logger == nil {
		deps.Logger = logging.Nop()
	}
	r := &Registry{deps: deps}
	r.actions = map[string]session.Action{
		"alias":   r.alias,
		"clear":   r.clear,
		"copy":    r.copy,
		"delete":  r.routeOnly("DELETE"),
		"diff":    r.diff,
		"exit":    r.exit,
		"get":     r.routeOnly("GET"),
		"goto":    r.gotoTxn,
		"history": r.history,
		"inspect": r.inspect,
		"next":    r.next,
		"post":    r.withBody("POST"),
		"prev":    r.prev,
		"put":     r.withBody("PUT"),
		"repeat":  r.repeat,
		"request": r.request,
		"revise":  r.revise,
		"state":   r.state,
		"use":     r.use,
	}
	return r
}

// Lookup implements engine.Registry.
func (r *Registry) Lookup(name string) (session.Action, bool) {
	a, ok := r.actions[name]
	return a, ok
}

// Names returns the action names in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.actions))
	for name := range r.actions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func precondition(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrPrecondition, fmt.Sprintf(format, args...))
}

func clientOnly(s *session.Session) error {
	if s.Surface != session.SurfaceClient {
		return precondition("this command is only available in client mode")
	}
	return nil
}

func requireSelection(s *session.Session) error {
	if s.APIID == "" || s.EnvID == "" {
		return precondition("select an API and environment first")
	}
	return nil
}

func requireHistory(s *session.Session, what string) error {
	if s.History.Empty() {
		return precondition("nothing to %s; make a transaction first", what)
	}
	return nil
}

// ParseRoute splits a route into its path and query string.
func ParseRoute(route string) (string, url.Values, error) {
	path, query, _ := strings.Cut(route, "?")
	values, err := url.ParseQuery(query)
	if err != nil {
		return "", nil, precondition("invalid query string in %q: %v", route, err)
	}
	if len(values) == 0 {
		values = nil
	}
	return path, values, nil
}

// transactionOutput is the output of every action that makes a request.
func transactionOutput(txn *history.Transaction) *session.Output {
	return &session.Output{
		Result:  txn.Response.Body,
		Entries: []*history.Transaction{txn},
	}
}
