package cliconfig

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/getmockd/clappy/pkg/session"
)

const sampleConfig = `
apis:
  foo:
    grantTypes: [client_credentials, password]
    definitions:
      local:
        baseUrl: http://localhost:8080
        authUrl: http://localhost:8080/token
        clientId: clappy
        clientSecret:
          source: env
          key: FOO_SECRET
        retries: 3
    decorate:
      request:
        headers:
          X-Api: apiId
commandAliases:
  things: get /things
filterAliases:
  first: .items[0]
transactionAliases:
  start: 1
dryRun: false
themePreset: TWO_TONE
theme:
  showTransactionMeta: true
  colors:
    error: red
logLevel: debug
timeout: 5
`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadConfigFile(t *testing.T) {
	t.Parallel()

	path := writeFile(t, t.TempDir(), "clappy.yaml", sampleConfig)
	cfg, err := LoadConfigFile(path)
	require.NoError(t, err)

	require.Contains(t, cfg.APIs, "foo")
	foo := cfg.APIs["foo"]
	assert.Equal(t, []string{"client_credentials", "password"}, foo.GrantTypes)
	assert.Equal(t, "http://localhost:8080", foo.Definitions["local"]["baseUrl"])
	assert.Equal(t, map[string]any{"source": "env", "key": "FOO_SECRET"}, foo.Definitions["local"]["clientSecret"])
	assert.Equal(t, 3, foo.Definitions["local"]["retries"])
	assert.Equal(t, "apiId", foo.Decorate.Request.Headers["X-Api"])

	assert.Equal(t, "get /things", cfg.CommandAliases["things"])
	assert.Equal(t, ".items[0]", cfg.FilterAliases["first"])
	assert.Equal(t, "1", cfg.TransactionAliases["start"])
	assert.Equal(t, "TWO_TONE", cfg.ThemePreset)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 5, cfg.Timeout)
	assert.True(t, cfg.SetFields["dryRun"])
	assert.False(t, cfg.SetFields["json"])
}

func TestLoadConfigFile_Invalid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		content string
		want    []string
		line    int
	}{
		{
			name:    "unknown key",
			content: "colour: red\n",
			want:    []string{"colour"},
		},
		{
			name: "unknown grant type",
			content: `
apis:
  foo:
    grantTypes: [authorization_code]
    definitions: {}
`,
			want: []string{"apis.foo.grantTypes.0"},
		},
		{
			name: "unknown value source",
			content: `
apis:
  foo:
    definitions:
      local:
        clientSecret: {source: vault}
`,
			want: []string{"apis.foo.definitions.local.clientSecret"},
		},
		{
			name:    "timeout out of range",
			content: "timeout: 0\n",
			want:    []string{"timeout"},
		},
		{
			name:    "yaml syntax",
			content: "apis:\n  foo: [\n",
			line:    3,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			path := writeFile(t, t.TempDir(), "clappy.yaml", tt.content)
			_, err := LoadConfigFile(path)
			require.Error(t, err)

			var cerr *ConfigError
			require.True(t, errors.As(err, &cerr))
			assert.Equal(t, path, cerr.Path)
			for _, w := range tt.want {
				assert.Contains(t, cerr.Message, w)
			}
			if tt.line > 0 {
				assert.Positive(t, cerr.Line)
			}
		})
	}
}

func TestLoadConfigFile_Empty(t *testing.T) {
	t.Parallel()

	for name, content := range map[string]string{
		"empty":         "",
		"blank lines":   "\n\n",
		"comments only": "# nothing configured yet\n",
	} {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			path := writeFile(t, t.TempDir(), "clappy.yaml", content)
			cfg, err := LoadConfigFile(path)
			require.NoError(t, err)
			assert.Empty(t, cfg.APIs)
			assert.Empty(t, cfg.SetFields)
		})
	}
}

func TestMergeConfig(t *testing.T) {
	t.Parallel()

	target := NewDefault()
	MergeConfig(target, &Config{
		DryRun:         true,
		CommandAliases: map[string]string{"a": "get /a"},
		APIs: map[string]*session.API{
			"foo": {GrantTypes: []string{"client_credentials"}, Definitions: map[string]map[string]any{
				"local": {"baseUrl": "http://a"},
			}},
		},
	}, SourceGlobal)

	MergeConfig(target, &Config{
		SetFields:      map[string]bool{"dryRun": true},
		CommandAliases: map[string]string{"b": "get /b"},
		Timeout:        9,
		APIs: map[string]*session.API{
			"foo": {Definitions: map[string]map[string]any{
				"local": {"authUrl": "http://a/token"},
				"prod":  {"baseUrl": "http://p"},
			}},
		},
	}, SourceLocal)

	assert.False(t, target.DryRun, "explicit false from a later file wins")
	assert.Equal(t, SourceLocal, target.Sources["dryRun"])
	assert.Equal(t, SourceLocal, target.Sources["timeout"])
	assert.Equal(t, SourceDefault, target.Sources["logLevel"])
	assert.Equal(t, map[string]string{"a": "get /a", "b": "get /b"}, target.CommandAliases)

	foo := target.APIs["foo"]
	assert.Equal(t, map[string]any{"baseUrl": "http://a", "authUrl": "http://a/token"}, foo.Definitions["local"])
	assert.Equal(t, "http://p", foo.Definitions["prod"]["baseUrl"])
	assert.Equal(t, []string{"client_credentials"}, foo.GrantTypes)
}

func TestMergeConfig_ThemeLayers(t *testing.T) {
	t.Parallel()

	global := writeFile(t, t.TempDir(), "global.yaml", "theme:\n  showJsonQuotes: false\n  colors:\n    error: red\n")
	local := writeFile(t, t.TempDir(), "local.yaml", "theme:\n  colors:\n    meta: gray\n")

	target := NewDefault()
	for _, layer := range []struct{ path, source string }{{global, SourceGlobal}, {local, SourceLocal}} {
		cfg, err := LoadConfigFile(layer.path)
		require.NoError(t, err)
		MergeConfig(target, cfg, layer.source)
	}

	require.NotNil(t, target.Theme)
	require.NotNil(t, target.Theme.ShowJSONQuotes)
	assert.False(t, *target.Theme.ShowJSONQuotes, "a colors-only layer keeps the earlier flag")
	assert.Nil(t, target.Theme.ShowTransactionMeta)
	assert.Equal(t, map[string]string{"error": "red", "meta": "gray"}, target.Theme.Colors)

	s := session.New(session.SurfaceScript)
	s.Assign(target.Overrides())
	assert.False(t, s.Theme.ShowJSONQuotes)
	assert.False(t, s.Theme.ShowTransactionMeta)
	assert.Equal(t, "gray", s.Theme.Colors["meta"])
	assert.Equal(t, "reset", s.Theme.Colors["json.str"])
}

func TestLoadEnvConfig(t *testing.T) {
	t.Setenv(EnvDryRun, "1")
	t.Setenv(EnvProd, "yes")
	t.Setenv(EnvLogLevel, "error")
	t.Setenv(EnvTimeout, "12")
	t.Setenv(EnvJSON, "false")

	cfg := NewDefault()
	LoadEnvConfig(cfg)

	assert.True(t, cfg.DryRun)
	assert.True(t, cfg.EnableProdModifications)
	assert.Equal(t, "error", cfg.LogLevel)
	assert.Equal(t, 12, cfg.Timeout)
	assert.False(t, cfg.JSON)
	assert.Equal(t, SourceEnv, cfg.Sources["timeout"])
}

func TestLoadAll(t *testing.T) {
	dir := t.TempDir()
	home := filepath.Join(dir, "home")
	require.NoError(t, os.MkdirAll(filepath.Join(home, GlobalConfigDir), 0o755))
	t.Setenv("HOME", home)
	t.Setenv("XDG_CONFIG_HOME", home)
	writeFile(t, filepath.Join(home, GlobalConfigDir), "config.yaml", "logLevel: info\ncommandAliases:\n  g: get /global\n")

	work := filepath.Join(dir, "work")
	require.NoError(t, os.MkdirAll(work, 0o755))
	writeFile(t, work, ".clappy.yaml", "timeout: 10\ncommandAliases:\n  l: get /local\n")
	t.Chdir(work)

	explicit := writeFile(t, dir, "explicit.yaml", "timeout: 20\n")
	t.Setenv(EnvConfig, "")
	t.Setenv(EnvLogLevel, "debug")

	cfg, err := LoadAll(explicit)
	require.NoError(t, err)
	assert.Equal(t, 20, cfg.Timeout)
	assert.Equal(t, SourceFile, cfg.Sources["timeout"])
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, SourceEnv, cfg.Sources["logLevel"])
	assert.Equal(t, map[string]string{"g": "get /global", "l": "get /local"}, cfg.CommandAliases)
	assert.Equal(t, explicit, cfg.ConfigFile)

	_, err = LoadAll(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}

func TestConfig_Validate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "defaults", mutate: func(*Config) {}},
		{name: "timeout", mutate: func(c *Config) { c.Timeout = 0 }, wantErr: "timeout 0 is out of range"},
		{name: "log level", mutate: func(c *Config) { c.LogLevel = "trace" }, wantErr: `logLevel "trace"`},
		{name: "log format", mutate: func(c *Config) { c.LogFormat = "xml" }, wantErr: `logFormat "xml"`},
		{name: "preset", mutate: func(c *Config) { c.ThemePreset = "NEON" }, wantErr: `themePreset "NEON"`},
		{name: "upper case level", mutate: func(c *Config) { c.LogLevel = "DEBUG" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := NewDefault()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestConfig_Overrides(t *testing.T) {
	t.Parallel()

	path := writeFile(t, t.TempDir(), "clappy.yaml", sampleConfig)
	cfg, err := LoadConfigFile(path)
	require.NoError(t, err)

	s := session.New(session.SurfaceScript)
	s.Assign(cfg.Overrides())

	assert.Equal(t, "get /things", s.ProgramAliases()["things"])
	assert.Equal(t, ".items[0]", s.FilterAliases["first"])
	assert.Equal(t, "1", s.History.Aliases["start"])
	assert.True(t, s.Theme.ShowTransactionMeta)
	assert.True(t, s.Theme.ShowJSONQuotes, "flags the file leaves out keep their defaults")
	assert.Equal(t, "red", s.Theme.Colors["error"])
	assert.Equal(t, "dim", s.Theme.Colors["json.attr"], "preset colors fill the rest")
	require.Contains(t, s.APIs, "foo")

	// The session owns its copy.
	s.APIs["foo"].Definitions["local"]["baseUrl"] = "changed"
	assert.Equal(t, "http://localhost:8080", cfg.APIs["foo"].Definitions["local"]["baseUrl"])
}
