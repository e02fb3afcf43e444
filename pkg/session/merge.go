package session

import (
	"maps"

	"github.com/getmockd/clappy/pkg/history"
)

// Overrides are configuration values merged into a session.
//
// Merging is deep: maps merge key by key and slices are concatenated, never
// replaced. Nil pointer fields leave the session untouched.
type Overrides struct {
	APIs map[string]*API

	// CommandAliases are program-text aliases. They only apply to text
	// surfaces.
	CommandAliases map[string]string

	// ChainAliases are callable aliases. They only apply to the module
	// surface.
	ChainAliases map[string]AliasFunc

	FilterAliases      map[string]string
	TransactionAliases map[string]string

	DryRun                  *bool
	EnableProdModifications *bool
	Theme                   *ThemeOverrides

	// Surface replaces the session surface when set. It is applied before
	// aliases are normalized.
	Surface Surface
}

// Create returns a new session seeded from a value copy of base with o
// merged in. base is not modified.
func Create(base *Session, o *Overrides) *Session {
	var s *Session
	if base == nil {
		surface := SurfaceModule
		if o != nil && o.Surface != "" {
			surface = o.Surface
		}
		s = New(surface)
	} else {
		s = base.Clone()
	}
	s.Assign(o)
	return s
}

// Assign merges o into s in place.
func (s *Session) Assign(o *Overrides) {
	if o == nil {
		return
	}
	if o.Surface != "" {
		s.Surface = o.Surface
	}

	if s.APIs == nil {
		s.APIs = map[string]*API{}
	}
	for id, api := range o.APIs {
		if api == nil {
			continue
		}
		if cur, ok := s.APIs[id]; ok {
			cur.Merge(api)
		} else {
			s.APIs[id] = api.Clone()
		}
	}

	if s.CommandAliases == nil {
		s.CommandAliases = map[string]Alias{}
	}
	if s.Surface.Text() {
		for name, text := range o.CommandAliases {
			s.CommandAliases[name] = Alias{Program: text}
		}
	} else {
		for name, fn := range o.ChainAliases {
			if fn != nil {
				s.CommandAliases[name] = Alias{Binding: WrapAliasFunc(name, fn)}
			}
		}
	}

	if s.FilterAliases == nil {
		s.FilterAliases = map[string]string{}
	}
	maps.Copy(s.FilterAliases, o.FilterAliases)
	if s.History.Aliases == nil {
		s.History.Aliases = map[string]string{}
	}
	maps.Copy(s.History.Aliases, o.TransactionAliases)

	if o.DryRun != nil {
		s.DryRun = *o.DryRun
	}
	if o.EnableProdModifications != nil {
		s.EnableProdModifications = *o.EnableProdModifications
	}
	if o.Theme != nil {
		s.Theme.merge(o.Theme)
	}
}

// Merge deep-merges o into a. Grant types are concatenated.
func (a *API) Merge(o *API) {
	a.GrantTypes = append(a.GrantTypes, o.GrantTypes...)
	if a.Definitions == nil {
		a.Definitions = map[string]map[string]any{}
	}
	for env, defs := range o.Definitions {
		cur, ok := a.Definitions[env]
		if !ok {
			a.Definitions[env] = history.CloneValue(defs).(map[string]any)
			continue
		}
		a.Definitions[env] = mergeValue(cur, defs).(map[string]any)
	}
	a.Decorate.Request.Headers = mergeStrings(a.Decorate.Request.Headers, o.Decorate.Request.Headers)
	a.Decorate.Response.Headers = mergeStrings(a.Decorate.Response.Headers, o.Decorate.Response.Headers)
	if o.RequestHook != nil {
		a.RequestHook = o.RequestHook
	}
	if o.ResponseHook != nil {
		a.ResponseHook = o.ResponseHook
	}
}

func (t *Theme) merge(o *ThemeOverrides) {
	if o.ShowJSONLevels != nil {
		t.ShowJSONLevels = *o.ShowJSONLevels
	}
	if o.ShowJSONQuotes != nil {
		t.ShowJSONQuotes = *o.ShowJSONQuotes
	}
	if o.ShowErrorTrace != nil {
		t.ShowErrorTrace = *o.ShowErrorTrace
	}
	if o.ShowTransactionMeta != nil {
		t.ShowTransactionMeta = *o.ShowTransactionMeta
	}
	t.Colors = mergeStrings(t.Colors, o.Colors)
}

// mergeValue merges src into dst the way configuration layers combine:
// maps merge recursively, slices concatenate, anything else is replaced.
func mergeValue(dst, src any) any {
	switch s := src.(type) {
	case map[string]any:
		d, ok := dst.(map[string]any)
		if !ok {
			return history.CloneValue(s)
		}
		for k, v := range s {
			if cur, exists := d[k]; exists {
				d[k] = mergeValue(cur, v)
			} else {
				d[k] = history.CloneValue(v)
			}
		}
		return d
	case []any:
		d, ok := dst.([]any)
		if !ok {
			return history.CloneValue(s)
		}
		return append(d, history.CloneValue(s).([]any)...)
	default:
		return src
	}
}

func mergeStrings(dst, src map[string]string) map[string]string {
	if len(src) == 0 {
		return dst
	}
	if dst == nil {
		dst = make(map[string]string, len(src))
	}
	maps.Copy(dst, src)
	return dst
}
