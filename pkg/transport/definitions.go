package transport

import (
	"context"
	"fmt"
	"os"

	"github.com/getmockd/clappy/pkg/session"
)

// Definition sources for values that are not literals.
const (
	SourceEnv    = "env"
	SourcePrompt = "prompt"
)

// Value resolves a definition of the given API environment. Literal values
// are used as is; {source: env, key: NAME} reads an environment variable;
// {source: prompt, message: ...} asks the user on the client surface.
// Resolved values are cached in the session.
func (t *HTTP) Value(ctx context.Context, s *session.Session, apiID, envID, key string) (string, error) {
	if v, ok := s.CachedValue(apiID, envID, key); ok {
		return v, nil
	}
	def, ok := s.Definition(apiID, envID, key)
	if !ok {
		return "", fmt.Errorf("%w: %s has no definition for %q in %s environment", ErrDefinition, apiID, key, envID)
	}

	var value string
	switch d := def.(type) {
	case map[string]any:
		var err error
		value, err = t.sourced(ctx, s, apiID, envID, key, d)
		if err != nil {
			return "", err
		}
	case []any:
		return "", fmt.Errorf("%w: %s has an invalid definition for %q in %s environment", ErrDefinition, apiID, key, envID)
	default:
		value = fmt.Sprint(d)
	}

	s.CacheValue(apiID, envID, key, value)
	return value, nil
}

func (t *HTTP) sourced(ctx context.Context, s *session.Session, apiID, envID, key string, def map[string]any) (string, error) {
	switch def["source"] {
	case SourceEnv:
		name, _ := def["key"].(string)
		v, ok := os.LookupEnv(name)
		if name == "" || !ok {
			return "", fmt.Errorf("%w: environment variable %q for %q is not set", ErrDefinition, name, key)
		}
		return v, nil
	case SourcePrompt:
		if s.Surface != session.SurfaceClient || t.asker == nil {
			return "", fmt.Errorf("%w: %s has no value assigned for %q in %s environment", ErrDefinition, apiID, key, envID)
		}
		msg, _ := def["message"].(string)
		if msg == "" {
			msg = fmt.Sprintf("%s %s %s", apiID, envID, key)
		}
		secret, _ := def["secret"].(bool)
		return t.asker.AskValue(ctx, msg, secret)
	default:
		return "", fmt.Errorf("%w: %s has an invalid definition for %q in %s environment", ErrDefinition, apiID, key, envID)
	}
}

// getter binds Value to one API environment.
func (t *HTTP) getter(s *session.Session, apiID, envID string) session.Getter {
	return func(ctx context.Context, key string) (string, error) {
		return t.Value(ctx, s, apiID, envID, key)
	}
}
