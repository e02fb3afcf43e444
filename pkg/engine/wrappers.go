package engine

// Typed conveniences over Do for the native actions.

// Use selects an API, environment and grant type ("cc" or "pw").
func (c *Chain) Use(args ...any) *Chain { return c.Do("use", args...) }

// Get requests route with the GET method.
func (c *Chain) Get(route string, args ...any) *Chain {
	return c.Do("get", prepend(route, args)...)
}

// Delete requests route with the DELETE method.
func (c *Chain) Delete(route string, args ...any) *Chain {
	return c.Do("delete", prepend(route, args)...)
}

// Post sends body to route with the POST method.
func (c *Chain) Post(route string, body any, args ...any) *Chain {
	return c.Do("post", append([]any{route, body}, args...)...)
}

// Put sends body to route with the PUT method.
func (c *Chain) Put(route string, body any, args ...any) *Chain {
	return c.Do("put", append([]any{route, body}, args...)...)
}

// Repeat resubmits the request of a past transaction.
func (c *Chain) Repeat(args ...any) *Chain { return c.Do("repeat", args...) }

// Inspect returns a filtered view of a past transaction.
func (c *Chain) Inspect(args ...any) *Chain { return c.Do("inspect", args...) }

// Copy copies a filtered view of a past transaction to the clipboard.
func (c *Chain) Copy(args ...any) *Chain { return c.Do("copy", args...) }

// Diff compares two past transactions.
func (c *Chain) Diff(args ...any) *Chain { return c.Do("diff", args...) }

// Goto moves the history cursor to a transaction.
func (c *Chain) Goto(desc any) *Chain { return c.Do("goto", desc) }

// Prev moves the history cursor back one transaction.
func (c *Chain) Prev() *Chain { return c.Do("prev") }

// Next moves the history cursor forward one transaction.
func (c *Chain) Next() *Chain { return c.Do("next") }

// Alias defines a command, filter or transaction alias.
func (c *Chain) Alias(args ...any) *Chain { return c.Do("alias", args...) }

// State reads or writes session state.
func (c *Chain) State(args ...any) *Chain { return c.Do("state", args...) }

// History lists the transactions made so far.
func (c *Chain) History() *Chain { return c.Do("history") }

func prepend(v any, rest []any) []any {
	return append([]any{v}, rest...)
}
