package actions

import (
	"context"
	"fmt"

	"github.com/getmockd/clappy/pkg/args"
	"github.com/getmockd/clappy/pkg/program"
	"github.com/getmockd/clappy/pkg/session"
)

var aliasSchema = args.Schema{
	args.Pick("targetType", "command", "filter", "transaction"),
	args.Txn("txnTarget"),
	args.Rest("alias", "target"),
}

// alias saves a command, filter or transaction alias. Without an explicit
// target it captures the latest command, the latest filter or the current
// transaction.
func (r *Registry) alias(_ context.Context, s *session.Session, in ...any) (*session.Output, error) {
	f, err := args.Classify(in, aliasSchema, s)
	if err != nil {
		return nil, err
	}
	kind := f.String("targetType")
	if kind == "" {
		return nil, precondition("provide a valid target type: command, filter or transaction")
	}
	name := f.String("alias")
	if name == "" {
		return nil, precondition("provide a valid alias")
	}

	switch kind {
	case "transaction":
		id, ok := f.Int("txnTarget")
		if !ok {
			if id, err = s.Resolve(nil); err != nil {
				return nil, err
			}
		}
		s.History.SetAlias(name, id)
		return saved(kind, name, id), nil

	case "filter":
		target := f.String("target")
		if target == "" {
			latest, ok := s.LatestFilter()
			if !ok {
				return nil, precondition("no filter to alias; use a filter first")
			}
			target = latest
		}
		s.FilterAliases[name] = target
		return saved(kind, name, target), nil

	default:
		return r.aliasCommand(s, name, f)
	}
}

func (r *Registry) aliasCommand(s *session.Session, name string, f args.Fields) (*session.Output, error) {
	target, hasTarget := f["target"]

	if s.Surface.Text() {
		text := f.String("target")
		if !hasTarget {
			latest, ok := s.LatestCommand()
			if !ok {
				return nil, precondition("no command to alias; run a command first")
			}
			text = latest.Program()
		}
		s.CommandAliases[name] = session.Alias{Program: text}
		return saved("command", name, text), nil
	}

	var binding *session.Binding
	if hasTarget {
		text, ok := target.(string)
		if !ok {
			return nil, precondition("command alias target must be program text")
		}
		b, err := r.bind(s, text)
		if err != nil {
			return nil, err
		}
		binding = b
	} else {
		latest, ok := s.LatestCommand()
		if !ok || latest.Binding == nil {
			return nil, precondition("no command to alias; run a command first")
		}
		binding = latest.Binding
	}
	s.CommandAliases[name] = session.Alias{Binding: binding}
	return &session.Output{Notify: fmt.Sprintf("Saved command alias %q.", name)}, nil
}

// bind turns one command of program text into a binding that captures its
// arguments.
func (r *Registry) bind(s *session.Session, text string) (*session.Binding, error) {
	queue, err := program.Parse(text, nil)
	if err != nil {
		return nil, err
	}
	if len(queue) != 1 {
		return nil, precondition("command alias target must be a single command")
	}
	cmd := queue[0]
	if a, ok := s.CommandAliases[cmd.Name()]; ok && a.Binding != nil {
		return &session.Binding{
			Name:     a.Binding.Name,
			Action:   a.Binding.Action,
			Captured: append(append([]any(nil), a.Binding.Captured...), cmd.Args()...),
		}, nil
	}
	act, ok := r.Lookup(cmd.Name())
	if !ok {
		return nil, precondition("%s is not a valid command", cmd.Name())
	}
	return &session.Binding{Name: cmd.Name(), Action: act, Captured: cmd.Args()}, nil
}

func saved(kind, name string, target any) *session.Output {
	return &session.Output{Notify: fmt.Sprintf("Saved %s alias %q targeting %v.", kind, name, target)}
}
