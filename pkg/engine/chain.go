package engine

import (
	"context"

	"github.com/getmockd/clappy/pkg/session"
)

// ForkAction is the reserved step name that switches a chain to a copy of its
// current session.
const ForkAction = "fork"

// Chain is a handle on a sequence of steps. Every method that adds a step
// returns a new handle; the receiver stays valid and can be extended again,
// which is how branches are built.
type Chain struct {
	engine *Engine
	exec   *executor
	ctx    context.Context

	done chan struct{}

	// Written once by the step's job before done is closed.
	sess *session.Session
	out  *session.Output
	err  error
}

// Chain starts a chain rooted at a new module-surface session created from a
// copy of the engine root with o merged in. Steps run with ctx.
func (e *Engine) Chain(ctx context.Context, o *session.Overrides) *Chain {
	merged := session.Overrides{}
	if o != nil {
		merged = *o
	}
	merged.Surface = session.SurfaceModule
	root := session.Create(e.root, &merged)

	done := make(chan struct{})
	close(done)
	return &Chain{
		engine: e,
		exec:   &executor{},
		ctx:    ctx,
		done:   done,
		sess:   root,
		out:    &session.Output{},
	}
}

// Placeholder marks a chain handle passed as a command argument.
func (c *Chain) Placeholder() {}

// Do appends a step that invokes the named action with args. The name is
// resolved when the step runs. If an earlier step failed, the step does not
// run and carries that failure.
func (c *Chain) Do(name string, args ...any) *Chain {
	next := &Chain{
		engine: c.engine,
		exec:   c.exec,
		ctx:    c.ctx,
		done:   make(chan struct{}),
	}
	c.exec.submit(func() { next.run(c, name, args) })
	return next
}

// Fork appends a step after which the chain operates on its own copy of the
// current session. The step's result is nil.
func (c *Chain) Fork() *Chain { return c.Do(ForkAction) }

func (c *Chain) run(prev *Chain, name string, args []any) {
	defer close(c.done)
	<-prev.done

	c.sess = prev.sess
	if prev.err != nil {
		c.err = prev.err
		return
	}
	if name == ForkAction {
		c.sess = prev.sess.Clone()
		c.out = &session.Output{}
		return
	}
	c.out, c.err = c.engine.Invoke(c.ctx, c.sess, name, args...)
}

// Output waits for the step and returns its full output.
func (c *Chain) Output(ctx context.Context) (*session.Output, error) {
	select {
	case <-c.done:
		return c.out, c.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Result waits for the step and returns its result.
func (c *Chain) Result(ctx context.Context) (any, error) {
	out, err := c.Output(ctx)
	if err != nil {
		return nil, err
	}
	return out.Result, nil
}

// Session waits for the step and returns a snapshot of the session it left
// active. The snapshot is taken on the chain's executor after every step
// queued so far, so steps sharing the session are never observed mid-run.
// Later steps do not change it.
func (c *Chain) Session(ctx context.Context) (*session.Session, error) {
	var snap *session.Session
	taken := make(chan struct{})
	c.exec.submit(func() {
		defer close(taken)
		<-c.done
		snap = c.sess.Copy()
	})
	select {
	case <-taken:
		return snap, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Err waits for the step and returns its failure, if any.
func (c *Chain) Err(ctx context.Context) error {
	_, err := c.Output(ctx)
	return err
}
