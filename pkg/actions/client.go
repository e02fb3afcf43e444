package actions

import (
	"context"
	"io"

	"github.com/getmockd/clappy/pkg/session"
)

const clearScreen = "\033[H\033[2J"

func (r *Registry) clear(_ context.Context, s *session.Session, _ ...any) (*session.Output, error) {
	if err := clientOnly(s); err != nil {
		return nil, err
	}
	_, _ = io.WriteString(r.deps.Out, clearScreen)
	return &session.Output{}, nil
}

func (r *Registry) exit(_ context.Context, s *session.Session, _ ...any) (*session.Output, error) {
	if err := clientOnly(s); err != nil {
		return nil, err
	}
	return nil, ErrExit
}
