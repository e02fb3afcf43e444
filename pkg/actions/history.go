package actions

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/getmockd/clappy/pkg/args"
	"github.com/getmockd/clappy/pkg/filter"
	"github.com/getmockd/clappy/pkg/history"
	"github.com/getmockd/clappy/pkg/session"
)

var (
	viewSchema = args.Schema{args.Flag("full"), args.Txn("txnId"), args.Rest("filter")}
	diffSchema = args.Schema{args.Flag("full"), args.Txn("fromId", "toId"), args.Rest("filter")}
)

// view resolves the transaction and filter shared by inspect and copy.
func view(s *session.Session, in []any) (*history.Transaction, any, error) {
	f, err := args.Classify(in, viewSchema, s)
	if err != nil {
		return nil, nil, err
	}
	id, ok := f.Int("txnId")
	if !ok {
		if id, err = s.Resolve(nil); err != nil {
			return nil, nil, err
		}
	}
	txn := s.History.Get(id)
	expr := f.String("filter")
	v, err := filter.Apply(txn, f.Bool("full"), expr, s.FilterAliases)
	if err != nil {
		return nil, nil, err
	}
	if expr != "" {
		s.LogFilter(expr)
	}
	return txn, v, nil
}

func (r *Registry) inspect(_ context.Context, s *session.Session, in ...any) (*session.Output, error) {
	if err := requireHistory(s, "inspect"); err != nil {
		return nil, err
	}
	txn, v, err := view(s, in)
	if err != nil {
		return nil, err
	}
	return &session.Output{Result: v, Entries: []*history.Transaction{txn}}, nil
}

func (r *Registry) copy(_ context.Context, s *session.Session, in ...any) (*session.Output, error) {
	if err := requireHistory(s, "copy"); err != nil {
		return nil, err
	}
	_, v, err := view(s, in)
	if err != nil {
		return nil, err
	}
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, err
	}
	if err := r.deps.Clipboard.WriteAll(string(b)); err != nil {
		return nil, fmt.Errorf("copying to clipboard: %w", err)
	}
	return &session.Output{Notify: "Copied to clipboard."}, nil
}

// diff compares two transactions, by default the previous and the current
// one. The module surface gets a structured diff, text surfaces a unified
// diff.
func (r *Registry) diff(_ context.Context, s *session.Session, in ...any) (*session.Output, error) {
	switch s.History.Len() {
	case 0:
		return nil, precondition("nothing to diff; make at least two transactions first")
	case 1:
		return nil, precondition("nothing to diff; make another transaction first")
	}
	f, err := args.Classify(in, diffSchema, s)
	if err != nil {
		return nil, err
	}
	fromID, ok := f.Int("fromId")
	if !ok {
		if fromID, err = s.Resolve("prev"); err != nil {
			return nil, err
		}
	}
	toID, ok := f.Int("toId")
	if !ok {
		if toID, err = s.Resolve("current"); err != nil {
			return nil, err
		}
	}
	if fromID == toID {
		return nil, precondition("cannot diff a transaction with itself")
	}

	from, to := s.History.Get(fromID), s.History.Get(toID)
	expr, full := f.String("filter"), f.Bool("full")
	a, err := filter.Apply(from, full, expr, s.FilterAliases)
	if err != nil {
		return nil, err
	}
	b, err := filter.Apply(to, full, expr, s.FilterAliases)
	if err != nil {
		return nil, err
	}
	if expr != "" {
		s.LogFilter(expr)
	}

	d, err := filter.Compare(a, b, history.Slug(from), history.Slug(to))
	if err != nil {
		return nil, err
	}
	out := &session.Output{Entries: []*history.Transaction{from, to}}
	if s.Surface == session.SurfaceModule {
		out.Result = d
	} else {
		out.Result = d.Unified
	}
	return out, nil
}

func (r *Registry) gotoTxn(ctx context.Context, s *session.Session, in ...any) (*session.Output, error) {
	if s.History.Empty() {
		return nil, precondition("nowhere to go; make a transaction first")
	}
	f, err := args.Classify(in, txnSchema, s)
	if err != nil {
		return nil, err
	}
	id, ok := f.Int("txnId")
	if !ok {
		if s.Surface != session.SurfaceClient || r.deps.Prompter == nil {
			return nil, precondition("provide a transaction descriptor")
		}
		cur := s.History.Current()
		if id, err = r.deps.Prompter.PickTransaction(ctx, s.History.Slugs(), cur.ID); err != nil {
			return nil, err
		}
	}
	return move(s, id)
}

func (r *Registry) prev(_ context.Context, s *session.Session, _ ...any) (*session.Output, error) {
	if s.History.Empty() {
		return nil, precondition("make a transaction first")
	}
	if s.History.AtFirst() {
		return nil, precondition("already at the first transaction")
	}
	id, err := s.Resolve("prev")
	if err != nil {
		return nil, err
	}
	return move(s, id)
}

func (r *Registry) next(_ context.Context, s *session.Session, _ ...any) (*session.Output, error) {
	if s.History.Empty() {
		return nil, precondition("make a transaction first")
	}
	if s.History.AtLatest() {
		return nil, precondition("already at the latest transaction")
	}
	id, err := s.Resolve("next")
	if err != nil {
		return nil, err
	}
	return move(s, id)
}

func move(s *session.Session, id int) (*session.Output, error) {
	if err := s.History.Go(id); err != nil {
		return nil, err
	}
	txn := s.History.Current()
	return &session.Output{
		Notify:  "Now at: " + history.Slug(txn) + ".",
		Entries: []*history.Transaction{txn},
	}, nil
}

func (r *Registry) history(_ context.Context, s *session.Session, _ ...any) (*session.Output, error) {
	return &session.Output{Result: s.History.Slugs()}, nil
}
