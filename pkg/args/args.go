// Package args classifies command arguments into named fields.
//
// Classification is driven by a Schema of selectors, not by position. Each
// selector recognizes one family of values (flags, API identifiers, JSON
// objects, transaction descriptors, ...). Selectors run in declaration order,
// and each removes the values it matched from the pool before the next one
// runs. A Rest selector receives whatever is left. Because of this,
// "use prod foo cc" and "use foo prod cc" classify identically.
package args

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"slices"

	"github.com/getmockd/clappy/pkg/history"
)

// ErrInvalidJSON is returned when a value that looks like a JSON object or
// array cannot be parsed.
var ErrInvalidJSON = errors.New("could not parse JSON")

var jsonPattern = regexp.MustCompile(`(?s)^[\[\{].*[\}\]]$`)

// GrantTypes maps grant type shorthands to grant types.
var GrantTypes = map[string]string{
	"cc": "client_credentials",
	"pw": "password",
}

// Env supplies the known identifiers selectors recognize.
type Env interface {
	APIIDs() []string
	EnvIDs() []string
	IsTransaction(v any) bool
	Resolve(desc any) (int, error)
}

// Placeholder marks values that stand in for a pending chain result. They
// are never classified as objects or left-over arguments.
type Placeholder interface {
	Placeholder()
}

// Fields holds classified values by field name.
type Fields map[string]any

// Has reports whether the field was assigned.
func (f Fields) Has(name string) bool {
	_, ok := f[name]
	return ok
}

// String returns the field formatted as a string, or "" when unassigned.
func (f Fields) String(name string) string {
	v, ok := f[name]
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

// Bool returns a boolean field.
func (f Fields) Bool(name string) bool {
	b, _ := f[name].(bool)
	return b
}

// Int returns an integer field.
func (f Fields) Int(name string) (int, bool) {
	n, ok := f[name].(int)
	return n, ok
}

// Selector recognizes one family of argument values.
type Selector interface {
	match(v any, env Env) bool
	assign(found []any, fields Fields, env Env) error
}

// Schema is an ordered list of selectors.
type Schema []Selector

// Classify partitions inputs into fields according to schema. env may be nil,
// in which case identifier and transaction selectors match nothing.
func Classify(inputs []any, schema Schema, env Env) (Fields, error) {
	pool := slices.Clone(inputs)
	fields := Fields{}

	var rest *restSelector
	for _, sel := range schema {
		if r, ok := sel.(*restSelector); ok {
			rest = r
			continue
		}
		var found []any
		remaining := pool[:0:0]
		for _, v := range pool {
			if sel.match(v, env) {
				found = append(found, v)
			} else {
				remaining = append(remaining, v)
			}
		}
		pool = remaining
		if err := sel.assign(found, fields, env); err != nil {
			return nil, err
		}
	}

	if rest != nil {
		rest.fill(pool, fields)
	}
	return fields, nil
}

type flagSelector struct{ names []string }

// Flag declares boolean fields set when the token of the same name appears.
func Flag(names ...string) Selector { return &flagSelector{names: names} }

func (s *flagSelector) match(v any, _ Env) bool {
	str, ok := v.(string)
	return ok && slices.Contains(s.names, str)
}

func (s *flagSelector) assign(found []any, fields Fields, _ Env) error {
	for _, name := range s.names {
		fields[name] = slices.Contains(found, any(name))
	}
	return nil
}

type pickSelector struct {
	field   string
	options []string
}

// Pick declares a field set to whichever of options appears first.
func Pick(field string, options ...string) Selector {
	return &pickSelector{field: field, options: options}
}

func (s *pickSelector) match(v any, _ Env) bool {
	str, ok := v.(string)
	return ok && slices.Contains(s.options, str)
}

func (s *pickSelector) assign(found []any, fields Fields, _ Env) error {
	if len(found) > 0 {
		fields[s.field] = found[0]
	}
	return nil
}

type setSelector struct {
	keys  []string
	known func(env Env) []string
	value func(string) string
}

// APIID declares fields filled with known API identifiers, in input order.
func APIID(keys ...string) Selector {
	return &setSelector{keys: keys, known: func(env Env) []string { return env.APIIDs() }}
}

// EnvID declares fields filled with known environment identifiers.
func EnvID(keys ...string) Selector {
	return &setSelector{keys: keys, known: func(env Env) []string { return env.EnvIDs() }}
}

// GrantType declares fields filled with grant types given by shorthand
// ("cc", "pw").
func GrantType(keys ...string) Selector {
	return &setSelector{
		keys: keys,
		known: func(Env) []string {
			out := make([]string, 0, len(GrantTypes))
			for k := range GrantTypes {
				out = append(out, k)
			}
			return out
		},
		value: func(s string) string { return GrantTypes[s] },
	}
}

func (s *setSelector) match(v any, env Env) bool {
	str, ok := v.(string)
	if !ok {
		return false
	}
	if env == nil && s.value == nil {
		return false
	}
	return slices.Contains(s.known(env), str)
}

func (s *setSelector) assign(found []any, fields Fields, _ Env) error {
	var unique []string
	for _, v := range found {
		str := v.(string)
		if !slices.Contains(unique, str) {
			unique = append(unique, str)
		}
	}
	for i, key := range s.keys {
		if i >= len(unique) {
			break
		}
		if s.value != nil {
			fields[key] = s.value(unique[i])
		} else {
			fields[key] = unique[i]
		}
	}
	return nil
}

type txnSelector struct{ keys []string }

// Txn declares fields filled with resolved transaction ids.
func Txn(keys ...string) Selector { return &txnSelector{keys: keys} }

func (s *txnSelector) match(v any, env Env) bool {
	return env != nil && env.IsTransaction(v)
}

func (s *txnSelector) assign(found []any, fields Fields, env Env) error {
	for i, key := range s.keys {
		if i >= len(found) {
			break
		}
		id, err := env.Resolve(found[i])
		if err != nil {
			return err
		}
		fields[key] = id
	}
	return nil
}

type objectSelector struct{ keys []string }

// Object declares fields filled with structured values: maps, slices and
// structs as given, and strings that look like JSON objects or arrays, parsed.
func Object(keys ...string) Selector { return &objectSelector{keys: keys} }

func (s *objectSelector) match(v any, _ Env) bool {
	if v == nil || isPlaceholder(v) {
		return false
	}
	if str, ok := v.(string); ok {
		return jsonPattern.MatchString(str)
	}
	switch reflect.TypeOf(v).Kind() {
	case reflect.Map, reflect.Slice, reflect.Struct:
		return true
	case reflect.Pointer:
		return reflect.TypeOf(v).Elem().Kind() == reflect.Struct
	}
	return false
}

func (s *objectSelector) assign(found []any, fields Fields, _ Env) error {
	for i, key := range s.keys {
		if i >= len(found) {
			break
		}
		str, ok := found[i].(string)
		if !ok {
			fields[key] = found[i]
			continue
		}
		v, err := history.ParseJSON(str)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidJSON, err)
		}
		fields[key] = v
	}
	return nil
}

type restSelector struct{ keys []string }

// Rest declares fields filled, in order, with the values no other selector
// matched. It always runs last.
func Rest(keys ...string) Selector { return &restSelector{keys: keys} }

func (s *restSelector) match(any, Env) bool { return false }

func (s *restSelector) assign([]any, Fields, Env) error { return nil }

func (s *restSelector) fill(pool []any, fields Fields) {
	i := 0
	for _, v := range pool {
		if isPlaceholder(v) {
			continue
		}
		if i >= len(s.keys) {
			return
		}
		fields[s.keys[i]] = v
		i++
	}
}

func isPlaceholder(v any) bool {
	_, ok := v.(Placeholder)
	return ok
}
