package session

import (
	"context"
	"maps"
	"slices"
	"sort"
	"strings"
	"time"

	"github.com/getmockd/clappy/pkg/history"
)

// TokenMargin is how long before expiry a cached token stops being reused.
const TokenMargin = 30 * time.Second

// Getter resolves a definition value for the API and environment a request
// is made against.
type Getter func(ctx context.Context, key string) (string, error)

// RequestHook decorates an outbound request in place.
type RequestHook func(ctx context.Context, req *history.Request, get Getter) error

// ResponseHook decorates an inbound response in place.
type ResponseHook func(ctx context.Context, res *history.Response, get Getter) error

// API describes one remote API: the grant types it accepts and, per
// environment, its definitions (baseUrl, authUrl, clientId, ...).
type API struct {
	GrantTypes  []string                  `yaml:"grantTypes" json:"grantTypes"`
	Definitions map[string]map[string]any `yaml:"definitions" json:"definitions"`
	Decorate    Decoration                `yaml:"decorate,omitempty" json:"decorate,omitempty"`

	// Hooks are only available to embedding programs.
	RequestHook  RequestHook  `yaml:"-" json:"-"`
	ResponseHook ResponseHook `yaml:"-" json:"-"`
}

// Decoration holds header expressions applied to requests and responses.
// Each value is an expression evaluated against the request environment.
type Decoration struct {
	Request  HeaderRules `yaml:"request,omitempty" json:"request,omitempty"`
	Response HeaderRules `yaml:"response,omitempty" json:"response,omitempty"`
}

// HeaderRules maps header names to expressions.
type HeaderRules struct {
	Headers map[string]string `yaml:"headers,omitempty" json:"headers,omitempty"`
}

// Clone returns a deep copy of the API.
func (a *API) Clone() *API {
	if a == nil {
		return nil
	}
	c := *a
	c.GrantTypes = slices.Clone(a.GrantTypes)
	c.Definitions = make(map[string]map[string]any, len(a.Definitions))
	for env, defs := range a.Definitions {
		c.Definitions[env] = history.CloneValue(map[string]any(defs)).(map[string]any)
	}
	c.Decorate.Request.Headers = maps.Clone(a.Decorate.Request.Headers)
	c.Decorate.Response.Headers = maps.Clone(a.Decorate.Response.Headers)
	return &c
}

// Token is an access token and its expiry.
type Token struct {
	Value   string    `json:"value"`
	Expires time.Time `json:"expires"`
}

// APIIDs returns the configured API identifiers in sorted order.
func (s *Session) APIIDs() []string {
	ids := make([]string, 0, len(s.APIs))
	for id := range s.APIs {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// EnvIDs returns every environment identifier defined by any API.
func (s *Session) EnvIDs() []string {
	seen := map[string]bool{}
	var ids []string
	for _, api := range s.APIs {
		for env := range api.Definitions {
			if !seen[env] {
				seen[env] = true
				ids = append(ids, env)
			}
		}
	}
	sort.Strings(ids)
	return ids
}

// SupportsEnv reports whether the API defines the environment.
func (s *Session) SupportsEnv(apiID, envID string) bool {
	api, ok := s.APIs[apiID]
	if !ok {
		return false
	}
	_, ok = api.Definitions[envID]
	return ok
}

// SupportsGrantType reports whether the API accepts the grant type.
func (s *Session) SupportsGrantType(apiID, grantType string) bool {
	api, ok := s.APIs[apiID]
	return ok && slices.Contains(api.GrantTypes, grantType)
}

// DefaultGrantType returns the first grant type of the API.
func (s *Session) DefaultGrantType(apiID string) string {
	api, ok := s.APIs[apiID]
	if !ok || len(api.GrantTypes) == 0 {
		return ""
	}
	return api.GrantTypes[0]
}

// FromBaseURL finds the API and environment whose baseUrl definition equals
// baseURL, ignoring case.
func (s *Session) FromBaseURL(baseURL string) (apiID, envID string, ok bool) {
	for _, id := range s.APIIDs() {
		api := s.APIs[id]
		envs := slices.Sorted(maps.Keys(api.Definitions))
		for _, env := range envs {
			if b, isString := api.Definitions[env]["baseUrl"].(string); isString && strings.EqualFold(b, baseURL) {
				return id, env, true
			}
		}
	}
	return "", "", false
}

// Definition returns the raw definition of key for an API environment.
func (s *Session) Definition(apiID, envID, key string) (any, bool) {
	api, ok := s.APIs[apiID]
	if !ok {
		return nil, false
	}
	v, ok := api.Definitions[envID][key]
	return v, ok && v != nil
}

// CachedValue returns a previously resolved definition value.
func (s *Session) CachedValue(apiID, envID, key string) (string, bool) {
	v, ok := s.Values[apiID][envID][key]
	return v, ok
}

// CacheValue records a resolved definition value.
func (s *Session) CacheValue(apiID, envID, key, value string) {
	if s.Values == nil {
		s.Values = map[string]map[string]map[string]string{}
	}
	if s.Values[apiID] == nil {
		s.Values[apiID] = map[string]map[string]string{}
	}
	if s.Values[apiID][envID] == nil {
		s.Values[apiID][envID] = map[string]string{}
	}
	s.Values[apiID][envID][key] = value
}

// CurrentToken returns the token for the selected API, environment and grant
// type if it is still valid for at least TokenMargin.
func (s *Session) CurrentToken(now time.Time) (Token, bool) {
	tok, ok := s.Tokens[s.APIID][s.EnvID][s.GrantType]
	if !ok || tok.Expires.Before(now.Add(TokenMargin)) {
		return Token{}, false
	}
	return tok, true
}

// SetToken stores a token for the selected API, environment and grant type.
func (s *Session) SetToken(tok Token) {
	if s.Tokens == nil {
		s.Tokens = map[string]map[string]map[string]Token{}
	}
	if s.Tokens[s.APIID] == nil {
		s.Tokens[s.APIID] = map[string]map[string]Token{}
	}
	if s.Tokens[s.APIID][s.EnvID] == nil {
		s.Tokens[s.APIID][s.EnvID] = map[string]Token{}
	}
	s.Tokens[s.APIID][s.EnvID][s.GrantType] = tok
}

// IsTransaction reports whether v looks like a transaction descriptor.
func (s *Session) IsTransaction(v any) bool { return s.History.IsDescriptor(v) }

// Resolve resolves a transaction descriptor against the session history.
func (s *Session) Resolve(desc any) (int, error) { return s.History.Resolve(desc) }
