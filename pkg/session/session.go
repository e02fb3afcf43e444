package session

import (
	"maps"
	"slices"

	"github.com/google/uuid"

	"github.com/getmockd/clappy/pkg/history"
)

// Surface identifies how commands reach the engine.
type Surface string

// Invocation surfaces.
const (
	SurfaceModule Surface = "module" // programmatic chains
	SurfaceClient Surface = "client" // interactive REPL
	SurfaceScript Surface = "script" // program loaded from a file
	SurfaceStatic Surface = "static" // program passed on the command line
)

// Text reports whether commands on this surface arrive as program text.
func (s Surface) Text() bool { return s != SurfaceModule }

// Session is the mutable state of one chain or one process run.
//
// A Session is never shared between execution contexts: forks get a deep
// copy via Clone and diverge from there.
type Session struct {
	ID      string  `json:"id"`
	Surface Surface `json:"surface"`

	APIID     string `json:"apiId"`
	EnvID     string `json:"envId"`
	GrantType string `json:"grantType"`

	APIs           map[string]*API   `json:"apis"`
	CommandAliases map[string]Alias  `json:"commandAliases"`
	FilterAliases  map[string]string `json:"filterAliases"`

	// History holds the transaction log, its cursor and the transaction
	// aliases.
	History    history.Log     `json:"history"`
	CommandLog []CommandRecord `json:"commandLog"`
	FilterLog  []string        `json:"filterLog"`

	DryRun                  bool  `json:"dryRun"`
	EnableProdModifications bool  `json:"enableProdModifications"`
	Theme                   Theme `json:"theme"`

	// Values caches resolved definition values by api, env and key.
	Values map[string]map[string]map[string]string `json:"apiCache"`

	// Tokens holds access tokens by api, env and grant type.
	Tokens map[string]map[string]map[string]Token `json:"apiTokens"`
}

// New returns an empty session for the given surface.
func New(surface Surface) *Session {
	return &Session{
		ID:             uuid.NewString(),
		Surface:        surface,
		APIs:           map[string]*API{},
		CommandAliases: map[string]Alias{},
		FilterAliases:  map[string]string{},
		History:        history.NewLog(),
		Theme:          DefaultTheme(),
		Values:         map[string]map[string]map[string]string{},
		Tokens:         map[string]map[string]map[string]Token{},
	}
}

// Copy returns a deep copy of s that keeps its ID.
func (s *Session) Copy() *Session {
	c := s.Clone()
	c.ID = s.ID
	return c
}

// Clone returns a deep copy of s under a new ID. Nothing reachable from the
// copy is shared with s except immutable transactions and bindings.
func (s *Session) Clone() *Session {
	c := *s
	c.ID = uuid.NewString()

	c.APIs = make(map[string]*API, len(s.APIs))
	for id, api := range s.APIs {
		c.APIs[id] = api.Clone()
	}
	c.CommandAliases = maps.Clone(s.CommandAliases)
	if c.CommandAliases == nil {
		c.CommandAliases = map[string]Alias{}
	}
	c.FilterAliases = maps.Clone(s.FilterAliases)
	if c.FilterAliases == nil {
		c.FilterAliases = map[string]string{}
	}
	c.History = s.History.Clone()

	c.CommandLog = make([]CommandRecord, len(s.CommandLog))
	for i, r := range s.CommandLog {
		c.CommandLog[i] = r.clone()
	}
	c.FilterLog = slices.Clone(s.FilterLog)
	c.Theme = s.Theme.clone()

	c.Values = make(map[string]map[string]map[string]string, len(s.Values))
	for api, envs := range s.Values {
		c.Values[api] = make(map[string]map[string]string, len(envs))
		for env, vals := range envs {
			c.Values[api][env] = maps.Clone(vals)
		}
	}
	c.Tokens = make(map[string]map[string]map[string]Token, len(s.Tokens))
	for api, envs := range s.Tokens {
		c.Tokens[api] = make(map[string]map[string]Token, len(envs))
		for env, toks := range envs {
			c.Tokens[api][env] = maps.Clone(toks)
		}
	}
	return &c
}

// ProgramAliases returns the text command aliases used to expand programs.
func (s *Session) ProgramAliases() map[string]string {
	out := make(map[string]string, len(s.CommandAliases))
	for name, a := range s.CommandAliases {
		if a.Binding == nil && a.Program != "" {
			out[name] = a.Program
		}
	}
	return out
}

// LogCommand records a successfully executed command.
func (s *Session) LogCommand(r CommandRecord) {
	s.CommandLog = append(s.CommandLog, r)
}

// LatestCommand returns the most recent command record.
func (s *Session) LatestCommand() (CommandRecord, bool) {
	if len(s.CommandLog) == 0 {
		return CommandRecord{}, false
	}
	return s.CommandLog[len(s.CommandLog)-1], true
}

// LogFilter records a filter expression.
func (s *Session) LogFilter(f string) {
	s.FilterLog = append(s.FilterLog, f)
}

// LatestFilter returns the most recent filter expression.
func (s *Session) LatestFilter() (string, bool) {
	if len(s.FilterLog) == 0 {
		return "", false
	}
	return s.FilterLog[len(s.FilterLog)-1], true
}
