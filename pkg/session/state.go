package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/ohler55/ojg/jp"
	"github.com/ohler55/ojg/oj"

	"github.com/getmockd/clappy/pkg/history"
)

// State errors.
var (
	ErrStatePath = errors.New("invalid state path")
	ErrReadOnly  = errors.New("state value is read-only")
)

// Collection selects what a state path is relative to.
type Collection string

// State collections.
const (
	CollectionRoot       Collection = ""
	CollectionDefinition Collection = "definition"
	CollectionToken      Collection = "token"
)

// Snapshot returns the session as a generic JSON tree. Callable aliases and
// hooks are omitted.
func (s *Session) Snapshot() map[string]any {
	tree, _ := Generic(s).(map[string]any)
	if tree == nil {
		return map[string]any{}
	}
	if h, ok := tree["history"].(map[string]any); ok {
		delete(tree, "history")
		for k, v := range h {
			tree[k] = v
		}
	}
	return tree
}

// ReadState returns the value at path within the collection. An empty path
// returns the whole collection.
func (s *Session) ReadState(c Collection, apiID, envID, path string) (any, error) {
	var root any
	switch c {
	case CollectionDefinition:
		api, ok := s.APIs[apiID]
		if !ok {
			return nil, fmt.Errorf("%w: unknown api %q", ErrStatePath, apiID)
		}
		root = Generic(api.Definitions[envID])
	case CollectionToken:
		root = Generic(s.Tokens[apiID][envID])
	default:
		root = s.Snapshot()
	}
	if path == "" {
		return root, nil
	}
	x, err := compilePath(path)
	if err != nil {
		return nil, err
	}
	return x.First(root), nil
}

// WriteState sets the value at path within the collection.
func (s *Session) WriteState(c Collection, apiID, envID, path string, value any) error {
	if path == "" {
		return fmt.Errorf("%w: a path is required", ErrStatePath)
	}
	switch c {
	case CollectionDefinition:
		return s.writeDefinition(apiID, envID, path, value)
	case CollectionToken:
		return s.writeToken(apiID, envID, path, value)
	default:
		return s.writeRoot(path, value)
	}
}

func (s *Session) writeDefinition(apiID, envID, path string, value any) error {
	api, ok := s.APIs[apiID]
	if !ok {
		return fmt.Errorf("%w: unknown api %q", ErrStatePath, apiID)
	}
	if api.Definitions == nil {
		api.Definitions = map[string]map[string]any{}
	}
	defs := api.Definitions[envID]
	if defs == nil {
		defs = map[string]any{}
		api.Definitions[envID] = defs
	}
	return setPath(defs, path, value)
}

func (s *Session) writeToken(apiID, envID, path string, value any) error {
	toks := map[string]Token{}
	if cur := s.Tokens[apiID][envID]; cur != nil {
		toks = cur
	}
	tree, _ := Generic(toks).(map[string]any)
	if tree == nil {
		tree = map[string]any{}
	}
	if err := setPath(tree, path, value); err != nil {
		return err
	}
	decoded := map[string]Token{}
	if err := decode(tree, &decoded); err != nil {
		return fmt.Errorf("%w: %v", ErrStatePath, err)
	}
	if s.Tokens == nil {
		s.Tokens = map[string]map[string]map[string]Token{}
	}
	if s.Tokens[apiID] == nil {
		s.Tokens[apiID] = map[string]map[string]Token{}
	}
	s.Tokens[apiID][envID] = decoded
	return nil
}

func (s *Session) writeRoot(path string, value any) error {
	head, rest, _ := strings.Cut(path, ".")
	switch head {
	case "apiId", "envId", "grantType":
		str, ok := value.(string)
		if !ok || rest != "" {
			return fmt.Errorf("%w: %s takes a string", ErrStatePath, head)
		}
		switch head {
		case "apiId":
			s.APIID = str
		case "envId":
			s.EnvID = str
		default:
			s.GrantType = str
		}
	case "dryRun", "enableProdModifications":
		b, ok := value.(bool)
		if !ok || rest != "" {
			return fmt.Errorf("%w: %s takes a boolean", ErrStatePath, head)
		}
		if head == "dryRun" {
			s.DryRun = b
		} else {
			s.EnableProdModifications = b
		}
	case "filterAliases", "transactionAliases":
		str, ok := value.(string)
		if !ok || rest == "" || strings.ContainsAny(rest, ".[") {
			return fmt.Errorf("%w: %s.<name> takes a string", ErrStatePath, head)
		}
		if head == "filterAliases" {
			s.FilterAliases[rest] = str
		} else {
			s.History.Aliases[rest] = str
		}
	case "theme":
		tree, _ := Generic(s.Theme).(map[string]any)
		if err := setPath(tree, rest, value); err != nil {
			return err
		}
		var t Theme
		if err := decode(tree, &t); err != nil {
			return fmt.Errorf("%w: %v", ErrStatePath, err)
		}
		s.Theme = t
	case "apis":
		// apis.<api>.definitions.<env>.<key...>
		parts := strings.SplitN(rest, ".", 4)
		if len(parts) < 4 || parts[1] != "definitions" {
			return fmt.Errorf("%w: only apis.<api>.definitions.<env>.<key> is writable", ErrReadOnly)
		}
		return s.writeDefinition(parts[0], parts[2], parts[3], value)
	default:
		return fmt.Errorf("%w: %s", ErrReadOnly, path)
	}
	return nil
}

// Generic converts v to a generic JSON tree of maps, slices and scalars.
func Generic(v any) any {
	b, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	out, err := oj.Parse(b)
	if err != nil {
		return nil
	}
	return history.Normalize(out)
}

func decode(tree any, dst any) error {
	b, err := json.Marshal(tree)
	if err != nil {
		return err
	}
	return json.Unmarshal(b, dst)
}

func compilePath(path string) (jp.Expr, error) {
	if !strings.HasPrefix(path, "$") {
		if strings.HasPrefix(path, "[") {
			path = "$" + path
		} else {
			path = "$." + path
		}
	}
	x, err := jp.ParseString(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStatePath, err)
	}
	return x, nil
}

func setPath(root any, path string, value any) error {
	if path == "" {
		return fmt.Errorf("%w: a path is required", ErrStatePath)
	}
	x, err := compilePath(path)
	if err != nil {
		return err
	}
	if err := x.Set(root, value); err != nil {
		return fmt.Errorf("%w: %v", ErrStatePath, err)
	}
	return nil
}
