package transport

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/getmockd/clappy/pkg/history"
	"github.com/getmockd/clappy/pkg/session"
)

// decorateRequest applies the API's request header expressions, then its
// request hook.
func (t *HTTP) decorateRequest(ctx context.Context, s *session.Session, apiID, envID string, req *history.Request) error {
	api, ok := s.APIs[apiID]
	if !ok {
		return nil
	}
	get := t.getter(s, apiID, envID)

	if len(api.Decorate.Request.Headers) > 0 {
		env, getErr := exprEnv(ctx, get, apiID, envID)
		env["method"] = req.Method
		env["url"] = req.URL
		env["headers"] = req.Headers
		env["body"] = req.Body
		if req.Headers == nil {
			req.Headers = map[string]string{}
		}
		if err := t.applyHeaders(api.Decorate.Request.Headers, env, getErr, req.Headers); err != nil {
			return fmt.Errorf("decorating %s request: %w", apiID, err)
		}
	}
	if api.RequestHook != nil {
		if err := api.RequestHook(ctx, req, get); err != nil {
			return fmt.Errorf("decorating %s request: %w", apiID, err)
		}
	}
	return nil
}

// decorateResponse applies the response decoration of the API owning the
// request's base URL. The current selection may differ when an earlier
// request is repeated.
func (t *HTTP) decorateResponse(ctx context.Context, s *session.Session, req *history.Request, res *history.Response) error {
	apiID, envID, ok := s.FromBaseURL(req.BaseURL)
	if !ok {
		return nil
	}
	api := s.APIs[apiID]
	get := t.getter(s, apiID, envID)

	if len(api.Decorate.Response.Headers) > 0 {
		env, getErr := exprEnv(ctx, get, apiID, envID)
		env["status"] = res.StatusCode
		env["headers"] = res.Headers
		env["body"] = res.Body
		if res.Headers == nil {
			res.Headers = map[string]string{}
		}
		if err := t.applyHeaders(api.Decorate.Response.Headers, env, getErr, res.Headers); err != nil {
			return fmt.Errorf("decorating %s response: %w", apiID, err)
		}
	}
	if api.ResponseHook != nil {
		if err := api.ResponseHook(ctx, res, get); err != nil {
			return fmt.Errorf("decorating %s response: %w", apiID, err)
		}
	}
	return nil
}

// exprEnv builds the expression environment. The first error returned by a
// get() call is stored in the returned pointer.
func exprEnv(ctx context.Context, get session.Getter, apiID, envID string) (map[string]any, *error) {
	getErr := new(error)
	env := map[string]any{
		"apiId": apiID,
		"envId": envID,
		"get": func(key string) string {
			v, err := get(ctx, key)
			if err != nil && *getErr == nil {
				*getErr = err
			}
			return v
		},
	}
	return env, getErr
}

func (t *HTTP) applyHeaders(rules map[string]string, env map[string]any, getErr *error, headers map[string]string) error {
	names := make([]string, 0, len(rules))
	for name := range rules {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		v, err := t.evalExpr(rules[name], env)
		if err != nil {
			return err
		}
		if *getErr != nil {
			return *getErr
		}
		if v == nil {
			continue
		}
		headers[name] = strings.TrimSpace(fmt.Sprint(v))
	}
	return nil
}

// evalExpr evaluates an expression against env, using a compile cache.
func (t *HTTP) evalExpr(expression string, env map[string]any) (any, error) {
	program, err := t.compileExpr(expression, env)
	if err != nil {
		return nil, fmt.Errorf("compile %q: %w", expression, err)
	}
	result, err := expr.Run(program, env)
	if err != nil {
		return nil, fmt.Errorf("eval %q: %w", expression, err)
	}
	return result, nil
}

func (t *HTTP) compileExpr(expression string, env map[string]any) (*vm.Program, error) {
	cacheKey := expression + "\x00" + envSignature(env)

	t.programMu.RLock()
	if program, ok := t.programCache[cacheKey]; ok {
		t.programMu.RUnlock()
		return program, nil
	}
	t.programMu.RUnlock()

	program, err := expr.Compile(expression, expr.Env(env))
	if err != nil {
		return nil, err
	}

	t.programMu.Lock()
	if existing, ok := t.programCache[cacheKey]; ok {
		t.programMu.Unlock()
		return existing, nil
	}
	t.programCache[cacheKey] = program
	t.programMu.Unlock()
	return program, nil
}

func envSignature(env map[string]any) string {
	keys := make([]string, 0, len(env))
	for k, v := range env {
		keys = append(keys, fmt.Sprintf("%s:%T", k, v))
	}
	sort.Strings(keys)
	return strings.Join(keys, ",")
}
