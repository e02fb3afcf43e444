package session

import (
	"context"
	"slices"

	"github.com/getmockd/clappy/pkg/history"
	"github.com/getmockd/clappy/pkg/program"
)

// Action is a dispatchable command. It operates on the session it is given
// and nothing else.
type Action func(ctx context.Context, s *Session, args ...any) (*Output, error)

// AliasFunc is a command alias supplied by an embedding program. Its return
// value becomes the Result of the step.
type AliasFunc func(ctx context.Context, s *Session, args ...any) (any, error)

// Output is what a dispatched step produces.
type Output struct {
	// Result is the primary payload, handed to the next step of a chain.
	Result any

	// Notify is a short human-readable status line.
	Notify string

	// Entries are the transactions relevant to this step, for meta display.
	Entries []*history.Transaction
}

// Binding pairs an action with arguments captured ahead of the call-time
// arguments.
type Binding struct {
	Name     string
	Action   Action
	Captured []any
}

// Call invokes the bound action with the captured arguments followed by args.
func (b *Binding) Call(ctx context.Context, s *Session, args ...any) (*Output, error) {
	all := make([]any, 0, len(b.Captured)+len(args))
	all = append(all, b.Captured...)
	all = append(all, args...)
	return b.Action(ctx, s, all...)
}

// Alias is a stored command alias. Text surfaces store program text that is
// expanded while parsing; the module surface stores a callable binding.
type Alias struct {
	Program string   `json:"program,omitempty"`
	Binding *Binding `json:"-"`
}

// WrapAliasFunc turns an AliasFunc into a binding whose output carries the
// function's return value as Result.
func WrapAliasFunc(name string, fn AliasFunc) *Binding {
	return &Binding{
		Name: name,
		Action: func(ctx context.Context, s *Session, args ...any) (*Output, error) {
			v, err := fn(ctx, s, args...)
			if err != nil {
				return nil, err
			}
			return &Output{Result: v}, nil
		},
	}
}

// CommandRecord is one successfully executed command.
type CommandRecord struct {
	Name string `json:"name"`
	Args []any  `json:"args,omitempty"`

	// Binding resolves the command without a registry lookup. It is set for
	// commands dispatched through the module surface.
	Binding *Binding `json:"-"`
}

// Program renders the record as program text.
func (r CommandRecord) Program() string {
	cmd := append(program.Command{r.Name}, r.Args...)
	return cmd.String()
}

func (r CommandRecord) clone() CommandRecord {
	r.Args = slices.Clone(r.Args)
	return r
}
