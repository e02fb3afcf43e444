package prompt

import (
	"context"
	"errors"
	"io"
	"sync"

	"github.com/getmockd/clappy/pkg/history"
	"github.com/getmockd/clappy/pkg/transport"
)

// ErrNoAnswer is returned by Scripted when a prompt has no answer queued.
var ErrNoAnswer = errors.New("no scripted answer")

// Scripted replays queued answers in order. It is safe for concurrent use.
type Scripted struct {
	mu        sync.Mutex
	Programs  []string
	Decisions []transport.Decision
	Values    []string
	JSON      []any
	Picks     []int

	// Asked records every prompt title in order.
	Asked []string
}

// ReadProgram implements Prompter. It returns io.EOF once Programs is
// exhausted.
func (s *Scripted) ReadProgram(_ context.Context, prefix string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Asked = append(s.Asked, prefix)
	if len(s.Programs) == 0 {
		return "", io.EOF
	}
	line := s.Programs[0]
	s.Programs = s.Programs[1:]
	return line, nil
}

// ConfirmProdWrite implements transport.Confirmer.
func (s *Scripted) ConfirmProdWrite(_ context.Context, req *history.Request) (transport.Decision, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Asked = append(s.Asked, "confirm "+req.Method+" "+req.Href())
	if len(s.Decisions) == 0 {
		return transport.DecisionCancel, ErrNoAnswer
	}
	d := s.Decisions[0]
	s.Decisions = s.Decisions[1:]
	return d, nil
}

// AskValue implements transport.Asker.
func (s *Scripted) AskValue(_ context.Context, message string, _ bool) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Asked = append(s.Asked, message)
	if len(s.Values) == 0 {
		return "", ErrNoAnswer
	}
	v := s.Values[0]
	s.Values = s.Values[1:]
	return v, nil
}

// EditJSON implements Prompter. A queued nil keeps value unchanged.
func (s *Scripted) EditJSON(_ context.Context, title string, value any) (any, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Asked = append(s.Asked, title)
	if len(s.JSON) == 0 {
		return nil, ErrNoAnswer
	}
	v := s.JSON[0]
	s.JSON = s.JSON[1:]
	if v == nil {
		return value, nil
	}
	return v, nil
}

// PickTransaction implements Prompter.
func (s *Scripted) PickTransaction(_ context.Context, _ []string, _ int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Asked = append(s.Asked, "pick")
	if len(s.Picks) == 0 {
		return 0, ErrNoAnswer
	}
	id := s.Picks[0]
	s.Picks = s.Picks[1:]
	return id, nil
}

var _ Prompter = (*Scripted)(nil)
