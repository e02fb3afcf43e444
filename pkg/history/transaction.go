package history

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/ohler55/ojg/oj"
)

// Request is the outbound request descriptor recorded with a transaction.
// It carries everything needed to submit the same request again.
type Request struct {
	// Method is the HTTP method in upper case.
	Method string `json:"method"`

	// BaseURL is the base URL of the API environment the request targets.
	BaseURL string `json:"baseUrl"`

	// URL is the route relative to BaseURL, without the query string.
	URL string `json:"url"`

	// Query holds the parsed query string.
	Query url.Values `json:"qs,omitempty"`

	// Headers are the request headers, including authorization.
	Headers map[string]string `json:"headers,omitempty"`

	// Body is the decoded JSON request body.
	Body any `json:"body,omitempty"`
}

// Href returns the absolute URL of the request, query string included. When
// BaseURL is empty, URL is taken to be absolute.
func (r *Request) Href() string {
	href := r.URL
	if r.BaseURL != "" {
		href = strings.TrimRight(r.BaseURL, "/") + "/" + strings.Trim(r.URL, "/")
	}
	if len(r.Query) > 0 {
		href += "?" + r.Query.Encode()
	}
	return href
}

// Clone returns a deep copy of the request.
func (r *Request) Clone() *Request {
	if r == nil {
		return nil
	}
	c := *r
	if r.Query != nil {
		c.Query = make(url.Values, len(r.Query))
		for k, v := range r.Query {
			c.Query[k] = append([]string(nil), v...)
		}
	}
	if r.Headers != nil {
		c.Headers = make(map[string]string, len(r.Headers))
		for k, v := range r.Headers {
			c.Headers[k] = v
		}
	}
	c.Body = CloneValue(r.Body)
	return &c
}

// Response is the inbound response descriptor recorded with a transaction.
type Response struct {
	// StatusCode is the HTTP status code.
	StatusCode int `json:"statusCode"`

	// Headers are the response headers with lower-cased names.
	Headers map[string]string `json:"headers,omitempty"`

	// Body is the decoded body: JSON and XML become generic trees, anything
	// else is kept as text.
	Body any `json:"body"`

	// Href is the absolute URL that produced the response.
	Href string `json:"href"`
}

// Transaction is one request/response exchange. Transactions are created by
// the transport and never mutated after they are appended to a Log.
type Transaction struct {
	// ID is the 1-based position of the transaction in its log.
	ID int `json:"id"`

	// Started is when the request was sent.
	Started time.Time `json:"started"`

	// Elapsed is the time the exchange took.
	Elapsed time.Duration `json:"elapsed"`

	// API is the API identifier selected when the transaction was made.
	API string `json:"api"`

	// Env is the environment identifier selected when the transaction was made.
	Env string `json:"env"`

	Request  *Request  `json:"request"`
	Response *Response `json:"response"`
}

// CloneValue deep-copies a generic JSON-like value made of maps, slices and
// scalars. Other values are returned as is.
func CloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		m := make(map[string]any, len(t))
		for k, e := range t {
			m[k] = CloneValue(e)
		}
		return m
	case []any:
		s := make([]any, len(t))
		for i, e := range t {
			s[i] = CloneValue(e)
		}
		return s
	default:
		return v
	}
}

// Normalize converts the int64 values produced by JSON decoding to int, in
// place, so decoded trees compare equal to values parsed from program text.
func Normalize(v any) any {
	switch t := v.(type) {
	case int64:
		return int(t)
	case map[string]any:
		for k, e := range t {
			t[k] = Normalize(e)
		}
		return t
	case []any:
		for i, e := range t {
			t[i] = Normalize(e)
		}
		return t
	default:
		return v
	}
}

// ErrMalformedJSON is returned by ParseJSON for text that is not strict JSON.
var ErrMalformedJSON = errors.New("malformed JSON")

// ParseJSON parses strict JSON text into a normalized generic tree. The
// grammar is checked first: ojg on its own reads {"a": } as {}.
func ParseJSON(text string) (any, error) {
	if !json.Valid([]byte(text)) {
		return nil, fmt.Errorf("%w: %s", ErrMalformedJSON, text)
	}
	v, err := oj.ParseString(text)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedJSON, err)
	}
	return Normalize(v), nil
}
