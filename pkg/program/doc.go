// Package program turns program text into a queue of commands.
//
// A program is one or more commands separated by ';' or a newline. Each
// command is an action name followed by space-separated arguments. Arguments
// may be wrapped in ', " or ` to keep spaces and delimiters literal, and a
// backslash makes the following character literal.
//
//	queue, err := program.Parse(`use foo local cc; post /things '{"a": 1}'`, nil)
//	// queue[0] = [use foo local cc]
//	// queue[1] = [post /things {"a": 1}]
//
// Every argument passes through Unquote, which strips matching quote layers
// and coerces bare true/false and integer literals.
//
// Command aliases are expanded while parsing: when a command's action name is
// a key of the alias table, the alias text is prepended to the command's raw
// arguments and the result is parsed again. Expansion is bounded by
// MaxAliasDepth so a cyclic alias table fails with ErrAliasDepth instead of
// recursing forever.
package program
