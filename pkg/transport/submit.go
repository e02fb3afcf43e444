package transport

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"
	"time"

	"github.com/beevik/etree"
	"golang.org/x/text/encoding/htmlindex"

	"github.com/getmockd/clappy/pkg/history"
	"github.com/getmockd/clappy/pkg/session"
)

// ProdEnv is the environment whose writes are guarded.
const ProdEnv = "prod"

// maxBodySize caps how much of a response body is read.
const maxBodySize = 32 << 20

// SubmitConfig sends a complete request and records the resulting
// transaction in the session history. Response decoration comes from the API
// that owns the request's base URL.
func (t *HTTP) SubmitConfig(ctx context.Context, s *session.Session, req *history.Request) (*history.Transaction, error) {
	if req == nil {
		return nil, fmt.Errorf("%w: no request to submit", ErrTransport)
	}
	if err := t.guardProd(ctx, s, req); err != nil {
		return nil, err
	}

	var (
		res     *history.Response
		started = t.now()
		err     error
	)
	if s.DryRun {
		res = mockResponse(req, started)
	} else {
		res, err = t.send(ctx, req)
		if err != nil {
			return nil, err
		}
	}
	elapsed := t.now().Sub(started)

	if err := t.decorateResponse(ctx, s, req, res); err != nil {
		return nil, err
	}

	txn := s.History.Append(&history.Transaction{
		Started:  started,
		Elapsed:  elapsed,
		API:      s.APIID,
		Env:      s.EnvID,
		Request:  req.Clone(),
		Response: res,
	})
	return txn, nil
}

// guardProd stops unconfirmed writes to a production environment.
func (t *HTTP) guardProd(ctx context.Context, s *session.Session, req *history.Request) error {
	if _, envID, _ := s.FromBaseURL(req.BaseURL); envID != ProdEnv {
		return nil
	}
	switch strings.ToUpper(req.Method) {
	case http.MethodGet, http.MethodOptions:
		return nil
	}
	if s.EnableProdModifications || s.DryRun {
		return nil
	}
	if s.Surface != session.SurfaceClient || t.confirmer == nil {
		return ErrProdWrite
	}

	decision, err := t.confirmer.ConfirmProdWrite(ctx, req)
	if err != nil {
		return err
	}
	switch decision {
	case DecisionContinue:
		return nil
	case DecisionSilence:
		s.EnableProdModifications = true
		return nil
	default:
		return ErrCanceled
	}
}

func (t *HTTP) send(ctx context.Context, req *history.Request) (*history.Response, error) {
	resp, err := t.exchange(ctx, KindResource, req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("%w: reading response: %w", ErrTransport, err)
	}

	headers := make(map[string]string, len(resp.Header))
	for k, v := range resp.Header {
		headers[strings.ToLower(k)] = strings.Join(v, ", ")
	}
	return &history.Response{
		StatusCode: resp.StatusCode,
		Headers:    headers,
		Body:       DecodeBody(resp.Header.Get("Content-Type"), raw),
		Href:       req.Href(),
	}, nil
}

// DecodeBody turns a response body into a generic value. JSON becomes a tree
// of maps and slices, XML is converted element by element, and anything else
// is returned as text decoded from the declared charset.
func DecodeBody(contentType string, raw []byte) any {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return nil
	}
	mediaType, params, _ := mime.ParseMediaType(contentType)

	if strings.HasSuffix(mediaType, "xml") || (mediaType == "" && trimmed[0] == '<') {
		if v, ok := decodeXML(trimmed); ok {
			return v
		}
	}
	if v, err := history.ParseJSON(string(trimmed)); err == nil {
		return v
	}
	return decodeText(params["charset"], raw)
}

func decodeText(charset string, raw []byte) string {
	if charset == "" || strings.EqualFold(charset, "utf-8") {
		return string(raw)
	}
	enc, err := htmlindex.Get(charset)
	if err != nil {
		return string(raw)
	}
	out, err := enc.NewDecoder().Bytes(raw)
	if err != nil {
		return string(raw)
	}
	return string(out)
}

func decodeXML(raw []byte) (any, bool) {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(raw); err != nil {
		return nil, false
	}
	root := doc.Root()
	if root == nil {
		return nil, false
	}
	return map[string]any{root.Tag: xmlValue(root)}, true
}

// xmlValue converts an element. Attributes are keyed "@name", repeated child
// tags become arrays and text-only elements become strings.
func xmlValue(el *etree.Element) any {
	children := el.ChildElements()
	if len(children) == 0 && len(el.Attr) == 0 {
		return strings.TrimSpace(el.Text())
	}
	m := make(map[string]any, len(children)+len(el.Attr))
	for _, a := range el.Attr {
		m["@"+a.Key] = a.Value
	}
	for _, c := range children {
		v := xmlValue(c)
		switch prev := m[c.Tag].(type) {
		case nil:
			m[c.Tag] = v
		case []any:
			m[c.Tag] = append(prev, v)
		default:
			m[c.Tag] = []any{prev, v}
		}
	}
	if text := strings.TrimSpace(el.Text()); text != "" {
		m["#text"] = text
	}
	return m
}

// mockResponse stands in for a network exchange in dry-run sessions.
func mockResponse(req *history.Request, now time.Time) *history.Response {
	return &history.Response{
		StatusCode: http.StatusOK,
		Headers: map[string]string{
			"content-type": "application/json; charset=utf-8",
			"date":         now.UTC().Format(http.TimeFormat),
			"connection":   "close",
		},
		Body: map[string]any{
			"mock": "response",
			"for":  strings.ToUpper(req.Method) + " " + req.URL,
		},
		Href: req.Href(),
	}
}
