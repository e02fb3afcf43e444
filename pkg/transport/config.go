package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"net/http"
	"slices"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/getmockd/clappy/pkg/history"
	"github.com/getmockd/clappy/pkg/session"
)

// Token lifetimes.
const (
	// expiryMargin is subtracted from expires_in when the token carries no
	// exp claim.
	expiryMargin = 300 * time.Second

	// MockToken is the access token used in dry-run sessions.
	MockToken = "MOCK_TOKEN"

	mockTokenLifetime = time.Hour
)

// PasswordGrant is the grant type that sends user credentials.
const PasswordGrant = "password"

// tokenResponse is the body returned by an authorization server.
type tokenResponse struct {
	AccessToken string  `json:"access_token"`
	ExpiresIn   float64 `json:"expires_in"`
}

// CreateConfig completes a partial request for the session's selected API
// and environment. It adds the base URL, authorization and user agent
// headers, then applies the API's request decoration.
func (t *HTTP) CreateConfig(ctx context.Context, s *session.Session, partial *history.Request) (*history.Request, error) {
	if s.APIID == "" || s.EnvID == "" {
		return nil, ErrNoSelection
	}
	tok, err := t.token(ctx, s)
	if err != nil {
		return nil, err
	}
	baseURL, err := t.Value(ctx, s, s.APIID, s.EnvID, "baseUrl")
	if err != nil {
		return nil, err
	}

	req := partial.Clone()
	if req == nil {
		req = &history.Request{Method: http.MethodGet}
	}
	req.BaseURL = baseURL
	if req.Headers == nil {
		req.Headers = map[string]string{}
	}
	req.Headers["Authorization"] = "Bearer " + tok.Value
	req.Headers["User-Agent"] = UserAgent

	if err := t.decorateRequest(ctx, s, s.APIID, s.EnvID, req); err != nil {
		return nil, err
	}
	return req, nil
}

// token returns a usable access token for the selected grant type, asking
// the authorization server for a new one when none is cached.
func (t *HTTP) token(ctx context.Context, s *session.Session) (session.Token, error) {
	if s.DryRun {
		return session.Token{Value: MockToken, Expires: t.now().Add(mockTokenLifetime)}, nil
	}
	if tok, ok := s.CurrentToken(t.now()); ok {
		return tok, nil
	}

	get := t.getter(s, s.APIID, s.EnvID)
	authURL, err := get(ctx, "authUrl")
	if err != nil {
		return session.Token{}, err
	}
	body := map[string]any{"grant_type": s.GrantType}
	for field, key := range map[string]string{"client_id": "clientId", "client_secret": "clientSecret"} {
		if body[field], err = get(ctx, key); err != nil {
			return session.Token{}, err
		}
	}
	if s.GrantType == PasswordGrant {
		for _, key := range []string{"username", "password"} {
			if body[key], err = get(ctx, key); err != nil {
				return session.Token{}, err
			}
		}
	}

	req := &history.Request{
		Method:  http.MethodPost,
		URL:     authURL,
		Headers: map[string]string{"User-Agent": UserAgent},
		Body:    body,
	}
	if err := t.decorateRequest(ctx, s, s.APIID, s.EnvID, req); err != nil {
		return session.Token{}, err
	}

	resp, err := t.exchange(ctx, KindToken, req)
	if err != nil {
		return session.Token{}, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return session.Token{}, fmt.Errorf("%w: reading token response: %w", ErrTransport, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return session.Token{}, fmt.Errorf("%w: token request to %s failed with status %d: %s",
			ErrTransport, authURL, resp.StatusCode, bytes.TrimSpace(raw))
	}
	var tr tokenResponse
	if err := json.Unmarshal(raw, &tr); err != nil || tr.AccessToken == "" {
		return session.Token{}, fmt.Errorf("%w: token response from %s has no access_token", ErrTransport, authURL)
	}

	tok := session.Token{Value: tr.AccessToken, Expires: t.expiry(tr)}
	s.SetToken(tok)
	t.logger.Info("acquired access token",
		"api", s.APIID,
		"env", s.EnvID,
		"grantType", s.GrantType,
		"expires", tok.Expires.Format(time.RFC3339),
	)
	return tok, nil
}

// headerGroup logs headers in name order. Credentials are redacted by the
// logging handler.
func headerGroup(h map[string]string) slog.Attr {
	attrs := make([]any, 0, len(h))
	for _, k := range slices.Sorted(maps.Keys(h)) {
		attrs = append(attrs, slog.String(k, h[k]))
	}
	return slog.Group("headers", attrs...)
}

// expiry prefers the exp claim of a JWT access token over expires_in.
func (t *HTTP) expiry(tr tokenResponse) time.Time {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(tr.AccessToken, claims); err == nil {
		if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
			return exp.Time
		}
	}
	return t.now().Add(time.Duration(tr.ExpiresIn*float64(time.Second)) - expiryMargin)
}

// exchange sends req and journals the round trip. The caller closes the
// response body.
func (t *HTTP) exchange(ctx context.Context, kind string, req *history.Request) (*http.Response, error) {
	var body io.Reader
	if req.Body != nil {
		b, err := json.Marshal(req.Body)
		if err != nil {
			return nil, fmt.Errorf("encoding request body: %w", err)
		}
		body = bytes.NewReader(b)
	}

	href := req.Href()
	httpReq, err := http.NewRequestWithContext(ctx, req.Method, href, body)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTransport, err)
	}
	for k, v := range req.Headers {
		httpReq.Header.Set(k, v)
	}
	if body != nil && httpReq.Header.Get("Content-Type") == "" {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	httpReq.Header.Set("Accept", "application/json, */*")
	requestID := uuid.NewString()
	httpReq.Header.Set("X-Request-Id", requestID)

	start := t.now()
	resp, err := t.client.Do(httpReq)
	elapsed := t.now().Sub(start)
	if err != nil {
		return nil, fmt.Errorf("%w: %s %s: %w", ErrTransport, req.Method, href, err)
	}

	t.record(Exchange{
		Kind:      kind,
		RequestID: requestID,
		Method:    req.Method,
		URL:       href,
		Status:    resp.StatusCode,
		Elapsed:   elapsed,
	})
	t.logger.Debug("http exchange",
		"kind", kind,
		"method", req.Method,
		"url", href,
		"status", resp.StatusCode,
		"elapsed", elapsed,
		"requestId", requestID,
		headerGroup(req.Headers),
	)
	return resp, nil
}
