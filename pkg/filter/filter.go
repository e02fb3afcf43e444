// Package filter selects values out of recorded transactions.
//
// Filters use a jq-flavored path syntax that is translated to JSONPath:
//
//	.items[0].name        first item's name
//	.items[]              every item
//	.items[] | .id        the id of every item
//	.data | keys          the keys of the data object
//	$.items[?(@.id > 1)]  a raw JSONPath expression
//
// A filter yields a stream of values. A single value is returned as is, more
// than one as a slice.
package filter

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/ohler55/ojg/jp"

	"github.com/getmockd/clappy/pkg/history"
	"github.com/getmockd/clappy/pkg/session"
)

// ErrInvalidFilter is returned for filters that cannot be parsed or applied.
var ErrInvalidFilter = errors.New("invalid filter expression")

// maxAliasHops bounds alias-to-alias expansion.
const maxAliasHops = 32

var (
	multiPattern  = regexp.MustCompile(`\*|\.\.|\[[^\]]*[,:?][^\]]*\]`)
	quotedKey     = regexp.MustCompile(`\."((?:[^"\\]|\\.)*)"`)
	emptyBrackets = regexp.MustCompile(`\[\]`)
)

// Expand follows filter aliases until expr is no longer an alias name.
func Expand(expr string, aliases map[string]string) (string, error) {
	for hops := 0; ; hops++ {
		next, ok := aliases[expr]
		if !ok {
			return expr, nil
		}
		if hops >= maxAliasHops {
			return "", fmt.Errorf("%w: filter alias %q does not resolve", ErrInvalidFilter, expr)
		}
		expr = next
	}
}

// Subject returns what a filter applies to: the response body, or the whole
// response as a generic tree when full is set.
func Subject(t *history.Transaction, full bool) any {
	if t == nil || t.Response == nil {
		return nil
	}
	if full {
		return session.Generic(t.Response)
	}
	return history.CloneValue(t.Response.Body)
}

// Apply expands aliases in expr and evaluates it against the transaction.
func Apply(t *history.Transaction, full bool, expr string, aliases map[string]string) (any, error) {
	expanded, err := Expand(expr, aliases)
	if err != nil {
		return nil, err
	}
	return Eval(Subject(t, full), expanded)
}

// Eval evaluates a filter against a generic value.
func Eval(subject any, expr string) (any, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" || expr == "." {
		return subject, nil
	}

	stream := []any{subject}
	for _, stage := range splitStages(expr) {
		next, err := evalStage(stream, stage)
		if err != nil {
			return nil, err
		}
		stream = next
	}

	switch len(stream) {
	case 0:
		return nil, nil
	case 1:
		return stream[0], nil
	default:
		return stream, nil
	}
}

func evalStage(stream []any, stage string) ([]any, error) {
	switch stage {
	case "", ".":
		return stream, nil
	case "length":
		return mapStream(stream, length), nil
	case "keys":
		return mapStream(stream, keys), nil
	case "type":
		return mapStream(stream, typeName), nil
	}

	x, singular, err := compile(stage)
	if err != nil {
		return nil, err
	}
	var out []any
	for _, v := range stream {
		if singular {
			out = append(out, x.First(v))
			continue
		}
		out = append(out, x.Get(v)...)
	}
	return out, nil
}

// compile translates a jq-style path to JSONPath.
func compile(stage string) (jp.Expr, bool, error) {
	path := stage
	switch {
	case strings.HasPrefix(path, "$"):
	case strings.HasPrefix(path, "."), strings.HasPrefix(path, "["):
		path = quotedKey.ReplaceAllString(path, `["$1"]`)
		path = emptyBrackets.ReplaceAllString(path, "[*]")
		if strings.HasPrefix(path, ".[") {
			path = path[1:]
		}
		path = "$" + path
	default:
		return nil, false, fmt.Errorf("%w: %q", ErrInvalidFilter, stage)
	}

	x, err := jp.ParseString(path)
	if err != nil {
		return nil, false, fmt.Errorf("%w: %q: %v", ErrInvalidFilter, stage, err)
	}
	return x, !multiPattern.MatchString(path), nil
}

// splitStages splits expr on pipes outside of quotes and brackets.
func splitStages(expr string) []string {
	var (
		stages []string
		depth  int
		quote  rune
		start  int
	)
	for i, r := range expr {
		switch {
		case quote != 0:
			if r == quote {
				quote = 0
			}
		case r == '"' || r == '\'':
			quote = r
		case r == '[' || r == '(':
			depth++
		case r == ']' || r == ')':
			depth--
		case r == '|' && depth == 0:
			stages = append(stages, strings.TrimSpace(expr[start:i]))
			start = i + 1
		}
	}
	return append(stages, strings.TrimSpace(expr[start:]))
}

func mapStream(stream []any, fn func(any) any) []any {
	out := make([]any, len(stream))
	for i, v := range stream {
		out[i] = fn(v)
	}
	return out
}

func length(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return len(t)
	case []any:
		return len(t)
	case string:
		return len([]rune(t))
	case nil:
		return 0
	default:
		return v
	}
}

func keys(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make([]string, 0, len(t))
		for k := range t {
			out = append(out, k)
		}
		sort.Strings(out)
		ks := make([]any, len(out))
		for i, k := range out {
			ks[i] = k
		}
		return ks
	case []any:
		ks := make([]any, len(t))
		for i := range t {
			ks[i] = i
		}
		return ks
	default:
		return nil
	}
}

func typeName(v any) any {
	switch v.(type) {
	case nil:
		return "null"
	case bool:
		return "boolean"
	case int, int64, float64:
		return "number"
	case string:
		return "string"
	case []any:
		return "array"
	default:
		return "object"
	}
}
