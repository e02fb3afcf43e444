package transport

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/getmockd/clappy/pkg/history"
	"github.com/getmockd/clappy/pkg/session"
)

var fixedNow = time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)

// stubAPI serves a token endpoint and echoes every other request.
func stubAPI(t *testing.T, accessToken string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if r.URL.Path == "/token" {
			var body map[string]any
			_ = json.NewDecoder(r.Body).Decode(&body)
			if body["client_secret"] != "s3cret" {
				w.WriteHeader(http.StatusUnauthorized)
				_, _ = io.WriteString(w, `{"error":"invalid_client"}`)
				return
			}
			_ = json.NewEncoder(w).Encode(map[string]any{"access_token": accessToken, "expires_in": 3600})
			return
		}
		raw, _ := io.ReadAll(r.Body)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"for":   r.Method,
			"path":  r.URL.Path,
			"query": r.URL.RawQuery,
			"auth":  r.Header.Get("Authorization"),
			"agent": r.Header.Get("User-Agent"),
			"body":  string(raw),
			"count": 2,
		})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newSession(surface session.Surface, baseURL string) *session.Session {
	s := session.New(surface)
	s.APIs["foo"] = &session.API{
		GrantTypes: []string{"client_credentials", "password"},
		Definitions: map[string]map[string]any{
			"local": {
				"baseUrl":      baseURL,
				"authUrl":      baseURL + "/token",
				"clientId":     "clappy",
				"clientSecret": "s3cret",
			},
		},
	}
	s.APIID, s.EnvID, s.GrantType = "foo", "local", "client_credentials"
	return s
}

func newTransport(opts ...Option) *HTTP {
	return New(append([]Option{WithClock(func() time.Time { return fixedNow })}, opts...)...)
}

func TestCreateConfig_AcquiresAndCachesToken(t *testing.T) {
	t.Parallel()

	srv := stubAPI(t, "opaque-token")
	s := newSession(session.SurfaceScript, srv.URL)
	tr := newTransport()
	ctx := context.Background()

	req, err := tr.CreateConfig(ctx, s, &history.Request{Method: "GET", URL: "resource"})
	require.NoError(t, err)
	assert.Equal(t, srv.URL, req.BaseURL)
	assert.Equal(t, "Bearer opaque-token", req.Headers["Authorization"])
	assert.Equal(t, UserAgent, req.Headers["User-Agent"])

	tok, ok := s.CurrentToken(fixedNow)
	require.True(t, ok)
	assert.Equal(t, fixedNow.Add(3600*time.Second-expiryMargin), tok.Expires)

	_, err = tr.CreateConfig(ctx, s, &history.Request{Method: "GET", URL: "other"})
	require.NoError(t, err)

	x := tr.Exchanges()
	require.Len(t, x, 1)
	assert.Equal(t, KindToken, x[0].Kind)
	assert.Equal(t, http.StatusOK, x[0].Status)
}

func TestCreateConfig_JWTExpiry(t *testing.T) {
	t.Parallel()

	exp := fixedNow.Add(10 * time.Minute).Truncate(time.Second)
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"exp": exp.Unix()}).SignedString([]byte("k"))
	require.NoError(t, err)

	srv := stubAPI(t, signed)
	s := newSession(session.SurfaceScript, srv.URL)

	_, err = newTransport().CreateConfig(context.Background(), s, &history.Request{Method: "GET"})
	require.NoError(t, err)
	assert.True(t, exp.Equal(s.Tokens["foo"]["local"]["client_credentials"].Expires))
}

func TestCreateConfig_Errors(t *testing.T) {
	t.Parallel()

	srv := stubAPI(t, "tok")
	ctx := context.Background()

	t.Run("no selection", func(t *testing.T) {
		t.Parallel()
		s := session.New(session.SurfaceScript)
		_, err := newTransport().CreateConfig(ctx, s, &history.Request{})
		assert.ErrorIs(t, err, ErrNoSelection)
	})

	t.Run("rejected credentials", func(t *testing.T) {
		t.Parallel()
		s := newSession(session.SurfaceScript, srv.URL)
		s.APIs["foo"].Definitions["local"]["clientSecret"] = "wrong"
		_, err := newTransport().CreateConfig(ctx, s, &history.Request{})
		require.ErrorIs(t, err, ErrTransport)
		assert.Contains(t, err.Error(), "401")
	})

	t.Run("missing definition", func(t *testing.T) {
		t.Parallel()
		s := newSession(session.SurfaceScript, srv.URL)
		s.GrantType = PasswordGrant
		_, err := newTransport().CreateConfig(ctx, s, &history.Request{})
		require.ErrorIs(t, err, ErrDefinition)
		assert.Contains(t, err.Error(), `"username"`)
	})
}

func TestSubmitConfig(t *testing.T) {
	t.Parallel()

	srv := stubAPI(t, "tok")
	s := newSession(session.SurfaceScript, srv.URL)
	tr := newTransport()
	ctx := context.Background()

	req, err := tr.CreateConfig(ctx, s, &history.Request{
		Method: "POST",
		URL:    "/widgets/",
		Query:  map[string][]string{"key": {"val"}},
		Body:   map[string]any{"name": "w"},
	})
	require.NoError(t, err)

	txn, err := tr.SubmitConfig(ctx, s, req)
	require.NoError(t, err)
	assert.Equal(t, 1, txn.ID)
	assert.Equal(t, "foo", txn.API)
	assert.Equal(t, "local", txn.Env)
	assert.Equal(t, srv.URL+"/widgets?key=val", txn.Response.Href)
	assert.Equal(t, "application/json", txn.Response.Headers["content-type"])

	body := txn.Response.Body.(map[string]any)
	assert.Equal(t, "POST", body["for"])
	assert.Equal(t, "/widgets", body["path"])
	assert.Equal(t, "key=val", body["query"])
	assert.Equal(t, "Bearer tok", body["auth"])
	assert.Equal(t, UserAgent, body["agent"])
	assert.JSONEq(t, `{"name":"w"}`, body["body"].(string))
	assert.Equal(t, 2, body["count"])

	assert.Same(t, txn, s.History.Current())
	assert.Len(t, tr.Exchanges(), 2)

	// The recorded request does not alias the submitted one.
	req.Headers["Authorization"] = "changed"
	assert.Equal(t, "Bearer tok", txn.Request.Headers["Authorization"])
}

func TestSubmitConfig_DryRun(t *testing.T) {
	t.Parallel()

	s := newSession(session.SurfaceScript, "http://unreachable.invalid")
	s.DryRun = true
	tr := newTransport()
	ctx := context.Background()

	req, err := tr.CreateConfig(ctx, s, &history.Request{Method: "get", URL: "resource"})
	require.NoError(t, err)
	assert.Equal(t, "Bearer "+MockToken, req.Headers["Authorization"])

	txn, err := tr.SubmitConfig(ctx, s, req)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"mock": "response", "for": "GET resource"}, txn.Response.Body)
	assert.Equal(t, http.StatusOK, txn.Response.StatusCode)
	assert.Empty(t, tr.Exchanges())
}

type fixedConfirmer struct {
	decision Decision
	asked    int
}

func (c *fixedConfirmer) ConfirmProdWrite(context.Context, *history.Request) (Decision, error) {
	c.asked++
	return c.decision, nil
}

func TestSubmitConfig_ProdGuard(t *testing.T) {
	t.Parallel()

	srv := stubAPI(t, "tok")
	ctx := context.Background()
	prodSession := func(surface session.Surface) *session.Session {
		s := newSession(surface, "http://local.invalid")
		s.APIs["foo"].Definitions["prod"] = map[string]any{"baseUrl": srv.URL}
		return s
	}
	write := func() *history.Request {
		return &history.Request{Method: "DELETE", BaseURL: srv.URL, URL: "widgets/1"}
	}

	t.Run("script surface refuses", func(t *testing.T) {
		t.Parallel()
		_, err := newTransport().SubmitConfig(ctx, prodSession(session.SurfaceScript), write())
		require.ErrorIs(t, err, ErrProdWrite)
		assert.Contains(t, err.Error(), "--prod")
	})

	t.Run("reads pass", func(t *testing.T) {
		t.Parallel()
		req := write()
		req.Method = "GET"
		_, err := newTransport().SubmitConfig(ctx, prodSession(session.SurfaceScript), req)
		assert.NoError(t, err)
	})

	t.Run("enabled modifications pass", func(t *testing.T) {
		t.Parallel()
		s := prodSession(session.SurfaceStatic)
		s.EnableProdModifications = true
		_, err := newTransport().SubmitConfig(ctx, s, write())
		assert.NoError(t, err)
	})

	t.Run("client cancel", func(t *testing.T) {
		t.Parallel()
		c := &fixedConfirmer{decision: DecisionCancel}
		s := prodSession(session.SurfaceClient)
		_, err := newTransport(WithConfirmer(c)).SubmitConfig(ctx, s, write())
		require.ErrorIs(t, err, ErrCanceled)
		assert.Equal(t, 1, c.asked)
		assert.True(t, s.History.Empty())
	})

	t.Run("client silence", func(t *testing.T) {
		t.Parallel()
		c := &fixedConfirmer{decision: DecisionSilence}
		s := prodSession(session.SurfaceClient)
		tr := newTransport(WithConfirmer(c))
		_, err := tr.SubmitConfig(ctx, s, write())
		require.NoError(t, err)
		assert.True(t, s.EnableProdModifications)

		_, err = tr.SubmitConfig(ctx, s, write())
		require.NoError(t, err)
		assert.Equal(t, 1, c.asked)
	})
}

func TestDecoration(t *testing.T) {
	t.Parallel()

	srv := stubAPI(t, "tok")
	s := newSession(session.SurfaceScript, srv.URL)
	api := s.APIs["foo"]
	api.Definitions["local"]["apiKey"] = "k-123"
	api.Decorate.Request.Headers = map[string]string{
		"X-Api-Key": `get("apiKey")`,
		"X-Route":   `method + " " + url`,
	}
	api.Decorate.Response.Headers = map[string]string{
		"x-seen-by": `apiId + "/" + envId + " " + string(status)`,
	}
	api.ResponseHook = func(_ context.Context, res *history.Response, get session.Getter) error {
		id, err := get(context.Background(), "clientId")
		res.Headers["x-client"] = id
		return err
	}

	tr := newTransport()
	ctx := context.Background()

	req, err := tr.CreateConfig(ctx, s, &history.Request{Method: "GET", URL: "resource"})
	require.NoError(t, err)
	assert.Equal(t, "k-123", req.Headers["X-Api-Key"])
	assert.Equal(t, "GET resource", req.Headers["X-Route"])

	// Responses are decorated by the API owning the base URL, not by the
	// current selection.
	s.APIID, s.EnvID = "", ""
	txn, err := tr.SubmitConfig(ctx, s, req)
	require.NoError(t, err)
	assert.Equal(t, "foo/local 200", txn.Response.Headers["x-seen-by"])
	assert.Equal(t, "clappy", txn.Response.Headers["x-client"])

	api.Decorate.Request.Headers = map[string]string{"X-Bad": `get("missing")`}
	s.APIID, s.EnvID = "foo", "local"
	_, err = tr.CreateConfig(ctx, s, &history.Request{Method: "GET"})
	assert.ErrorIs(t, err, ErrDefinition)
}

func TestValue_Sources(t *testing.T) {
	t.Setenv("CLAPPY_TEST_SECRET", "from-env")

	s := newSession(session.SurfaceScript, "http://x.invalid")
	defs := s.APIs["foo"].Definitions["local"]
	defs["fromEnv"] = map[string]any{"source": "env", "key": "CLAPPY_TEST_SECRET"}
	defs["fromPrompt"] = map[string]any{"source": "prompt", "message": "Password?"}
	defs["port"] = 8080
	tr := newTransport()
	ctx := context.Background()

	v, err := tr.Value(ctx, s, "foo", "local", "fromEnv")
	require.NoError(t, err)
	assert.Equal(t, "from-env", v)

	v, err = tr.Value(ctx, s, "foo", "local", "port")
	require.NoError(t, err)
	assert.Equal(t, "8080", v)

	cached, ok := s.CachedValue("foo", "local", "fromEnv")
	assert.True(t, ok)
	assert.Equal(t, "from-env", cached)

	_, err = tr.Value(ctx, s, "foo", "local", "fromPrompt")
	require.ErrorIs(t, err, ErrDefinition)
	assert.Contains(t, err.Error(), "no value assigned")
}

type fixedAsker string

func (a fixedAsker) AskValue(context.Context, string, bool) (string, error) { return string(a), nil }

func TestValue_PromptOnClient(t *testing.T) {
	t.Parallel()

	s := newSession(session.SurfaceClient, "http://x.invalid")
	s.APIs["foo"].Definitions["local"]["password"] = map[string]any{"source": "prompt", "secret": true}

	v, err := newTransport(WithAsker(fixedAsker("hunter2"))).Value(context.Background(), s, "foo", "local", "password")
	require.NoError(t, err)
	assert.Equal(t, "hunter2", v)
}

func TestDecodeBody(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		contentType string
		body        string
		want        any
	}{
		{name: "empty", contentType: "application/json", body: "  ", want: nil},
		{name: "json", contentType: "application/json", body: `{"a":[1,"b"]}`, want: map[string]any{"a": []any{1, "b"}}},
		{name: "json without type", body: `[true]`, want: []any{true}},
		{
			name:        "xml",
			contentType: "application/xml",
			body:        `<r id="7"><item>a</item><item>b</item><name>x</name></r>`,
			want: map[string]any{"r": map[string]any{
				"@id":  "7",
				"item": []any{"a", "b"},
				"name": "x",
			}},
		},
		{name: "malformed json stays text", contentType: "application/json", body: `{"a": }`, want: `{"a": }`},
		{name: "text", contentType: "text/plain", body: "hello", want: "hello"},
		{name: "latin1", contentType: "text/plain; charset=iso-8859-1", body: "caf\xe9", want: "café"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, DecodeBody(tt.contentType, []byte(tt.body)))
		})
	}
}
