// Package prompt asks the user for input on the interactive surface.
//
// Huh implements every prompt with charmbracelet/huh forms. Scripted replays
// canned answers and is used wherever no terminal is attached.
package prompt

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/huh"

	"github.com/getmockd/clappy/pkg/history"
	"github.com/getmockd/clappy/pkg/transport"
)

// Prompter is everything the interactive surface asks the user.
type Prompter interface {
	// ReadProgram reads one program line. It returns io.EOF when the user
	// ends the session.
	ReadProgram(ctx context.Context, prefix string) (string, error)

	// ConfirmProdWrite asks whether a production write may proceed.
	ConfirmProdWrite(ctx context.Context, req *history.Request) (transport.Decision, error)

	// AskValue asks for a definition value.
	AskValue(ctx context.Context, message string, secret bool) (string, error)

	// EditJSON lets the user edit value as JSON and returns the result.
	EditJSON(ctx context.Context, title string, value any) (any, error)

	// PickTransaction asks the user to choose one of the listed transactions
	// and returns its id.
	PickTransaction(ctx context.Context, slugs []string, current int) (int, error)
}

// Huh prompts on a terminal.
type Huh struct {
	in         io.Reader
	out        io.Writer
	accessible bool
}

// Option configures a Huh prompter.
type Option func(*Huh)

// WithIO sets the input and output streams.
func WithIO(in io.Reader, out io.Writer) Option {
	return func(h *Huh) {
		h.in = in
		h.out = out
	}
}

// WithAccessible switches to line-based prompts without cursor control.
func WithAccessible(on bool) Option {
	return func(h *Huh) { h.accessible = on }
}

// NewHuh creates a prompter reading from stdin.
func NewHuh(opts ...Option) *Huh {
	h := &Huh{in: os.Stdin, out: os.Stderr}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *Huh) run(ctx context.Context, fields ...huh.Field) error {
	form := huh.NewForm(huh.NewGroup(fields...)).
		WithInput(h.in).
		WithOutput(h.out).
		WithAccessible(h.accessible).
		WithShowHelp(false)
	err := form.RunWithContext(ctx)
	if errors.Is(err, huh.ErrUserAborted) {
		return transport.ErrCanceled
	}
	return err
}

// ReadProgram implements Prompter.
func (h *Huh) ReadProgram(ctx context.Context, prefix string) (string, error) {
	var line string
	err := h.run(ctx, huh.NewInput().
		Prompt(prefix+" > ").
		Value(&line))
	if errors.Is(err, transport.ErrCanceled) {
		return "", io.EOF
	}
	return strings.TrimSpace(line), err
}

// ConfirmProdWrite implements transport.Confirmer.
func (h *Huh) ConfirmProdWrite(ctx context.Context, req *history.Request) (transport.Decision, error) {
	decision := transport.DecisionCancel
	err := h.run(ctx, huh.NewSelect[transport.Decision]().
		Title(fmt.Sprintf("%s %s modifies a production resource.", strings.ToUpper(req.Method), req.Href())).
		Description("Continue once, or stop asking for the rest of this session?").
		Options(
			huh.NewOption("Cancel", transport.DecisionCancel),
			huh.NewOption("Continue", transport.DecisionContinue),
			huh.NewOption("Continue and stop asking", transport.DecisionSilence),
		).
		Value(&decision))
	if err != nil {
		return transport.DecisionCancel, err
	}
	return decision, nil
}

// AskValue implements transport.Asker.
func (h *Huh) AskValue(ctx context.Context, message string, secret bool) (string, error) {
	var value string
	input := huh.NewInput().
		Title(message).
		Value(&value)
	if secret {
		input = input.EchoMode(huh.EchoModePassword)
	}
	if err := h.run(ctx, input); err != nil {
		return "", err
	}
	return value, nil
}

// EditJSON implements Prompter.
func (h *Huh) EditJSON(ctx context.Context, title string, value any) (any, error) {
	text := ""
	if value != nil {
		b, err := json.MarshalIndent(value, "", "  ")
		if err != nil {
			return nil, err
		}
		text = string(b)
	}
	err := h.run(ctx, huh.NewText().
		Title(title).
		Lines(12).
		Value(&text).
		Validate(func(s string) error {
			if strings.TrimSpace(s) == "" {
				return nil
			}
			_, err := history.ParseJSON(s)
			return err
		}))
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}
	return history.ParseJSON(text)
}

// PickTransaction implements Prompter.
func (h *Huh) PickTransaction(ctx context.Context, slugs []string, current int) (int, error) {
	if len(slugs) == 0 {
		return 0, errors.New("no transactions to choose from")
	}
	opts := make([]huh.Option[int], len(slugs))
	for i, slug := range slugs {
		opts[i] = huh.NewOption(slug, i+1)
	}
	id := current
	err := h.run(ctx, huh.NewSelect[int]().
		Title("Go to transaction").
		Options(opts...).
		Value(&id))
	return id, err
}

var _ Prompter = (*Huh)(nil)
