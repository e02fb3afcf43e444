package session

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/getmockd/clappy/pkg/history"
)

func boolPtr(b bool) *bool { return &b }

func fooAPI() *API {
	return &API{
		GrantTypes: []string{"client_credentials"},
		Definitions: map[string]map[string]any{
			"local": {
				"baseUrl":  "http://localhost:8080",
				"authUrl":  "http://localhost:8080/token",
				"clientId": "abc",
				"scopes":   []any{"read"},
			},
			"prod": {"baseUrl": "https://api.example.com"},
		},
	}
}

func TestCreate_MergesOverrides(t *testing.T) {
	t.Parallel()

	base := New(SurfaceClient)
	base.Assign(&Overrides{APIs: map[string]*API{"foo": fooAPI()}})

	s := Create(base, &Overrides{
		APIs: map[string]*API{"foo": {
			GrantTypes: []string{"password"},
			Definitions: map[string]map[string]any{
				"local": {"scopes": []any{"write"}, "clientSecret": "shh"},
			},
		}},
		DryRun: boolPtr(true),
	})

	assert.Equal(t, []string{"client_credentials", "password"}, s.APIs["foo"].GrantTypes)
	assert.Equal(t, []any{"read", "write"}, s.APIs["foo"].Definitions["local"]["scopes"])
	assert.Equal(t, "shh", s.APIs["foo"].Definitions["local"]["clientSecret"])
	assert.Equal(t, "abc", s.APIs["foo"].Definitions["local"]["clientId"])
	assert.True(t, s.DryRun)

	// base untouched
	assert.Equal(t, []string{"client_credentials"}, base.APIs["foo"].GrantTypes)
	assert.Equal(t, []any{"read"}, base.APIs["foo"].Definitions["local"]["scopes"])
	assert.False(t, base.DryRun)
	assert.NotEqual(t, base.ID, s.ID)
}

func TestAssign_ThemeKeepsUnsetFlags(t *testing.T) {
	t.Parallel()

	s := New(SurfaceClient)
	require.True(t, s.Theme.ShowJSONQuotes)

	s.Assign(&Overrides{Theme: &ThemeOverrides{Colors: map[string]string{"error": "red"}}})
	assert.True(t, s.Theme.ShowJSONQuotes, "a colors-only theme keeps the flags")
	assert.Equal(t, "red", s.Theme.Colors["error"])
	assert.Equal(t, "reset", s.Theme.Colors["json.str"])

	s.Assign(&Overrides{Theme: &ThemeOverrides{ShowJSONQuotes: boolPtr(false), ShowErrorTrace: boolPtr(true)}})
	assert.False(t, s.Theme.ShowJSONQuotes)
	assert.True(t, s.Theme.ShowErrorTrace)
	assert.False(t, s.Theme.ShowJSONLevels)
	assert.Equal(t, "red", s.Theme.Colors["error"])
}

func TestAssign_NormalizesAliasesBySurface(t *testing.T) {
	t.Parallel()

	fn := func(ctx context.Context, s *Session, args ...any) (any, error) {
		return len(args), nil
	}
	o := &Overrides{
		CommandAliases: map[string]string{"g": "get resource"},
		ChainAliases:   map[string]AliasFunc{"count": fn},
	}

	text := New(SurfaceScript)
	text.Assign(o)
	assert.Equal(t, map[string]string{"g": "get resource"}, text.ProgramAliases())
	assert.NotContains(t, text.CommandAliases, "count")

	module := New(SurfaceModule)
	module.Assign(o)
	assert.NotContains(t, module.CommandAliases, "g")
	require.Contains(t, module.CommandAliases, "count")

	out, err := module.CommandAliases["count"].Binding.Call(context.Background(), module, 1, 2, 3)
	require.NoError(t, err)
	assert.Equal(t, &Output{Result: 3}, out)
}

func TestClone_Isolation(t *testing.T) {
	t.Parallel()

	parent := New(SurfaceModule)
	parent.Assign(&Overrides{APIs: map[string]*API{"foo": fooAPI()}})
	parent.APIID, parent.EnvID = "foo", "local"
	parent.History.Append(&history.Transaction{Request: &history.Request{Method: "GET"}})
	parent.LogFilter(".id")
	parent.CacheValue("foo", "local", "clientId", "abc")

	fork := parent.Clone()
	fork.APIID = "bar"
	fork.APIs["foo"].GrantTypes = append(fork.APIs["foo"].GrantTypes, "password")
	fork.APIs["foo"].Definitions["local"]["clientId"] = "changed"
	fork.History.Append(&history.Transaction{Request: &history.Request{Method: "POST"}})
	fork.History.SetAlias("mine", 2)
	fork.LogFilter(".name")
	fork.CacheValue("foo", "local", "clientId", "changed")
	fork.FilterAliases["x"] = ".x"

	assert.Equal(t, "foo", parent.APIID)
	assert.Equal(t, []string{"client_credentials"}, parent.APIs["foo"].GrantTypes)
	assert.Equal(t, "abc", parent.APIs["foo"].Definitions["local"]["clientId"])
	assert.Equal(t, 1, parent.History.Len())
	assert.NotContains(t, parent.History.Aliases, "mine")
	assert.Equal(t, []string{".id"}, parent.FilterLog)
	v, _ := parent.CachedValue("foo", "local", "clientId")
	assert.Equal(t, "abc", v)
	assert.Empty(t, parent.FilterAliases)
}

func TestAPIHelpers(t *testing.T) {
	t.Parallel()

	s := New(SurfaceStatic)
	s.Assign(&Overrides{APIs: map[string]*API{
		"foo": fooAPI(),
		"bar": {GrantTypes: []string{"password", "client_credentials"}, Definitions: map[string]map[string]any{
			"dev": {"baseUrl": "http://dev.bar"},
		}},
	}})

	assert.Equal(t, []string{"bar", "foo"}, s.APIIDs())
	assert.Equal(t, []string{"dev", "local", "prod"}, s.EnvIDs())
	assert.True(t, s.SupportsEnv("foo", "prod"))
	assert.False(t, s.SupportsEnv("foo", "dev"))
	assert.True(t, s.SupportsGrantType("bar", "client_credentials"))
	assert.Equal(t, "password", s.DefaultGrantType("bar"))

	api, env, ok := s.FromBaseURL("HTTPS://API.EXAMPLE.COM")
	require.True(t, ok)
	assert.Equal(t, "foo", api)
	assert.Equal(t, "prod", env)

	_, _, ok = s.FromBaseURL("http://nowhere")
	assert.False(t, ok)
}

func TestTokens(t *testing.T) {
	t.Parallel()

	s := New(SurfaceModule)
	s.APIID, s.EnvID, s.GrantType = "foo", "local", "client_credentials"
	now := time.Now()

	_, ok := s.CurrentToken(now)
	assert.False(t, ok)

	s.SetToken(Token{Value: "t1", Expires: now.Add(20 * time.Second)})
	_, ok = s.CurrentToken(now)
	assert.False(t, ok, "token expiring within the margin is not reused")

	s.SetToken(Token{Value: "t2", Expires: now.Add(time.Hour)})
	tok, ok := s.CurrentToken(now)
	require.True(t, ok)
	assert.Equal(t, "t2", tok.Value)

	s.GrantType = "password"
	_, ok = s.CurrentToken(now)
	assert.False(t, ok)
}

func TestState_ReadWrite(t *testing.T) {
	t.Parallel()

	s := New(SurfaceScript)
	s.Assign(&Overrides{APIs: map[string]*API{"foo": fooAPI()}})
	s.APIID, s.EnvID = "foo", "local"

	v, err := s.ReadState(CollectionDefinition, "foo", "local", "clientId")
	require.NoError(t, err)
	assert.Equal(t, "abc", v)

	require.NoError(t, s.WriteState(CollectionDefinition, "foo", "local", "clientSecret", "shh"))
	assert.Equal(t, "shh", s.APIs["foo"].Definitions["local"]["clientSecret"])

	require.NoError(t, s.WriteState(CollectionRoot, "", "", "dryRun", true))
	assert.True(t, s.DryRun)

	require.NoError(t, s.WriteState(CollectionRoot, "", "", "apis.foo.definitions.prod.clientId", "p"))
	assert.Equal(t, "p", s.APIs["foo"].Definitions["prod"]["clientId"])

	require.NoError(t, s.WriteState(CollectionToken, "foo", "local", "client_credentials.value", "tok"))
	assert.Equal(t, "tok", s.Tokens["foo"]["local"]["client_credentials"].Value)

	v, err = s.ReadState(CollectionRoot, "", "", "apiId")
	require.NoError(t, err)
	assert.Equal(t, "foo", v)

	err = s.WriteState(CollectionRoot, "", "", "history", 1)
	assert.ErrorIs(t, err, ErrReadOnly)

	err = s.WriteState(CollectionRoot, "", "", "dryRun", "yes")
	assert.ErrorIs(t, err, ErrStatePath)
}

func TestCommandRecord_Program(t *testing.T) {
	t.Parallel()

	r := CommandRecord{Name: "post", Args: []any{"/things", `{"a":1}`, true}}
	assert.Equal(t, `post /things '{\"a\":1}' true`, r.Program())
}
