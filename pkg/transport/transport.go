// Package transport performs the HTTP exchanges behind request commands.
//
// CreateConfig turns a partial request (method, route, body) into a complete
// request descriptor for the session's selected API and environment: it
// acquires or reuses an access token, fills in the base URL and headers, and
// applies the API's request decoration. SubmitConfig sends a descriptor,
// decorates the response with the API that owns the request's base URL, and
// appends the resulting transaction to the session history.
//
// In dry-run sessions no network traffic happens: a mock token and a mock
// response stand in.
package transport

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"sync"
	"time"

	"github.com/expr-lang/expr/vm"
	"golang.org/x/net/publicsuffix"

	"github.com/getmockd/clappy/pkg/history"
	"github.com/getmockd/clappy/pkg/logging"
)

// UserAgent is sent with every request.
const UserAgent = "Clappy API Client"

// Errors returned by the transport.
var (
	// ErrTransport wraps network and protocol failures.
	ErrTransport = errors.New("transport error")

	// ErrCanceled is returned when the user declines a production write.
	ErrCanceled = errors.New("request canceled")

	// ErrProdWrite is returned when a production write is attempted on a
	// surface that cannot ask for confirmation.
	ErrProdWrite = errors.New("production resource modifications are disabled by default; run again with the --prod flag")

	// ErrDefinition is returned when an API definition value cannot be
	// resolved.
	ErrDefinition = errors.New("missing definition")

	// ErrNoSelection is returned when no API or environment is selected.
	ErrNoSelection = errors.New("no API and environment selected")
)

// Decision is the answer to a production write confirmation.
type Decision string

// Production write decisions.
const (
	DecisionCancel   Decision = "cancel"
	DecisionContinue Decision = "continue"
	DecisionSilence  Decision = "silence"
)

// Confirmer asks the user whether a production write may proceed.
type Confirmer interface {
	ConfirmProdWrite(ctx context.Context, req *history.Request) (Decision, error)
}

// Asker prompts the user for a definition value.
type Asker interface {
	AskValue(ctx context.Context, message string, secret bool) (string, error)
}

// Exchange is one HTTP round trip made by the transport.
type Exchange struct {
	Kind      string        `json:"kind"` // "token" or "resource"
	RequestID string        `json:"requestId"`
	Method    string        `json:"method"`
	URL       string        `json:"url"`
	Status    int           `json:"status"`
	Elapsed   time.Duration `json:"elapsed"`
}

// Exchange kinds.
const (
	KindToken    = "token"
	KindResource = "resource"
)

// HTTP is the network transport.
type HTTP struct {
	client    *http.Client
	confirmer Confirmer
	asker     Asker
	logger    *slog.Logger
	now       func() time.Time

	programMu    sync.RWMutex
	programCache map[string]*vm.Program

	journalMu sync.Mutex
	journal   []Exchange
}

// Option configures an HTTP transport.
type Option func(*HTTP)

// WithClient sets the HTTP client.
func WithClient(c *http.Client) Option {
	return func(t *HTTP) { t.client = c }
}

// WithTimeout sets the timeout of the default HTTP client.
func WithTimeout(d time.Duration) Option {
	return func(t *HTTP) {
		if d > 0 {
			t.client.Timeout = d
		}
	}
}

// WithConfirmer sets the production write confirmer used on the client
// surface.
func WithConfirmer(c Confirmer) Option {
	return func(t *HTTP) { t.confirmer = c }
}

// WithAsker sets the prompt used for definitions sourced from the user.
func WithAsker(a Asker) Option {
	return func(t *HTTP) { t.asker = a }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(t *HTTP) {
		if l != nil {
			t.logger = logging.Component(l, "transport")
		}
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(t *HTTP) { t.now = now }
}

// New creates an HTTP transport. The default client keeps cookies per
// registrable domain and times out after 30 seconds.
func New(opts ...Option) *HTTP {
	jar, _ := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	t := &HTTP{
		client:       &http.Client{Timeout: 30 * time.Second, Jar: jar},
		logger:       logging.Nop(),
		now:          time.Now,
		programCache: make(map[string]*vm.Program),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Exchanges returns every HTTP exchange made so far, oldest first.
func (t *HTTP) Exchanges() []Exchange {
	t.journalMu.Lock()
	defer t.journalMu.Unlock()
	out := make([]Exchange, len(t.journal))
	copy(out, t.journal)
	return out
}

func (t *HTTP) record(x Exchange) {
	t.journalMu.Lock()
	t.journal = append(t.journal, x)
	t.journalMu.Unlock()
}
