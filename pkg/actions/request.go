package actions

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/getmockd/clappy/pkg/args"
	"github.com/getmockd/clappy/pkg/history"
	"github.com/getmockd/clappy/pkg/session"
)

var (
	routeSchema = args.Schema{args.Rest("route")}
	bodySchema  = args.Schema{args.Object("body"), args.Rest("route")}
	txnSchema   = args.Schema{args.Txn("txnId")}

	requestSchema = args.Schema{
		args.Pick("method", "get", "post", "put", "delete"),
		args.Object("body"),
		args.Rest("route"),
	}
)

// send creates a request config for the selected API and submits it.
func (r *Registry) send(ctx context.Context, s *session.Session, partial *history.Request) (*session.Output, error) {
	req, err := r.deps.Transport.CreateConfig(ctx, s, partial)
	if err != nil {
		return nil, err
	}
	return r.submit(ctx, s, req)
}

func (r *Registry) submit(ctx context.Context, s *session.Session, req *history.Request) (*session.Output, error) {
	txn, err := r.deps.Transport.SubmitConfig(ctx, s, req)
	if err != nil {
		return nil, err
	}
	return transactionOutput(txn), nil
}

func routeRequest(method string, f args.Fields) (*history.Request, error) {
	route := f.String("route")
	if route == "" {
		return nil, precondition("provide a valid endpoint")
	}
	path, query, err := ParseRoute(route)
	if err != nil {
		return nil, err
	}
	return &history.Request{Method: method, URL: path, Query: query}, nil
}

// routeOnly builds get and delete.
func (r *Registry) routeOnly(method string) session.Action {
	return func(ctx context.Context, s *session.Session, in ...any) (*session.Output, error) {
		if err := requireSelection(s); err != nil {
			return nil, err
		}
		f, err := args.Classify(in, routeSchema, s)
		if err != nil {
			return nil, err
		}
		req, err := routeRequest(method, f)
		if err != nil {
			return nil, err
		}
		return r.send(ctx, s, req)
	}
}

// withBody builds post and put. On the client surface a missing body is
// asked for.
func (r *Registry) withBody(method string) session.Action {
	return func(ctx context.Context, s *session.Session, in ...any) (*session.Output, error) {
		if err := requireSelection(s); err != nil {
			return nil, err
		}
		f, err := args.Classify(in, bodySchema, s)
		if err != nil {
			return nil, err
		}
		req, err := routeRequest(method, f)
		if err != nil {
			return nil, err
		}

		req.Body = f["body"]
		if req.Body == nil {
			if s.Surface != session.SurfaceClient || r.deps.Prompter == nil {
				return nil, precondition("provide a valid request body")
			}
			if req.Body, err = r.deps.Prompter.EditJSON(ctx, "Enter request body:", nil); err != nil {
				return nil, err
			}
		}
		return r.send(ctx, s, req)
	}
}

// request builds a config from whatever was given, lets the user edit it,
// then submits it.
func (r *Registry) request(ctx context.Context, s *session.Session, in ...any) (*session.Output, error) {
	if err := clientOnly(s); err != nil {
		return nil, err
	}
	if err := requireSelection(s); err != nil {
		return nil, err
	}
	f, err := args.Classify(in, requestSchema, s)
	if err != nil {
		return nil, err
	}

	partial := &history.Request{Method: "GET", Body: f["body"]}
	if m := f.String("method"); m != "" {
		partial.Method = strings.ToUpper(m)
	}
	if route := f.String("route"); route != "" {
		if partial.URL, partial.Query, err = ParseRoute(route); err != nil {
			return nil, err
		}
	}

	req, err := r.deps.Transport.CreateConfig(ctx, s, partial)
	if err != nil {
		return nil, err
	}
	edited, err := r.editRequest(ctx, req)
	if err != nil {
		return nil, err
	}
	return r.submit(ctx, s, edited)
}

// repeat resubmits a recorded request verbatim.
func (r *Registry) repeat(ctx context.Context, s *session.Session, in ...any) (*session.Output, error) {
	if err := requireHistory(s, "repeat"); err != nil {
		return nil, err
	}
	txn, err := pickTxn(s, in)
	if err != nil {
		return nil, err
	}
	return r.submit(ctx, s, txn.Request.Clone())
}

// revise lets the user edit a recorded request before submitting it again.
func (r *Registry) revise(ctx context.Context, s *session.Session, in ...any) (*session.Output, error) {
	if err := clientOnly(s); err != nil {
		return nil, err
	}
	if err := requireHistory(s, "revise"); err != nil {
		return nil, err
	}
	txn, err := pickTxn(s, in)
	if err != nil {
		return nil, err
	}
	edited, err := r.editRequest(ctx, txn.Request)
	if err != nil {
		return nil, err
	}
	return r.submit(ctx, s, edited)
}

func (r *Registry) editRequest(ctx context.Context, req *history.Request) (*history.Request, error) {
	if r.deps.Prompter == nil {
		return nil, precondition("no prompt available to edit the request")
	}
	v, err := r.deps.Prompter.EditJSON(ctx, "Edit request config:", session.Generic(req))
	if err != nil {
		return nil, err
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var edited history.Request
	if err := json.Unmarshal(b, &edited); err != nil {
		return nil, fmt.Errorf("%w: %v", args.ErrInvalidJSON, err)
	}
	if edited.Method == "" {
		return nil, precondition("the request needs a method")
	}
	edited.Method = strings.ToUpper(edited.Method)
	if m, ok := v.(map[string]any); ok {
		edited.Body = m["body"]
	}
	return &edited, nil
}

// pickTxn returns the transaction named by the first descriptor in in, or
// the current one.
func pickTxn(s *session.Session, in []any) (*history.Transaction, error) {
	f, err := args.Classify(in, txnSchema, s)
	if err != nil {
		return nil, err
	}
	id, ok := f.Int("txnId")
	if !ok {
		if id, err = s.Resolve(nil); err != nil {
			return nil, err
		}
	}
	return s.History.Get(id), nil
}
