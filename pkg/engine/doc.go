// Package engine dispatches commands against sessions.
//
// The same dispatch path serves every surface. Programs (REPL input, script
// files, a command-line argument) are parsed with the root session's command
// aliases and run one command at a time by RunProgram. Embedding programs
// build chains instead:
//
//	out, err := eng.Chain(ctx, nil).
//		Use("foo", "local", "cc").
//		Get("resource", "key=val").
//		Result(ctx)
//
// Each Chain call returns a new handle representing "the steps so far plus
// this one". Action names are resolved when the step runs, against the
// session's callable aliases and then the native registry, so Do accepts any
// name and the typed wrappers are conveniences over it.
//
// # Isolation
//
// Every session is reachable from exactly one execution context. Chain
// creates a new root session from a copy of the engine's root; Fork switches
// the following steps of that handle to a copy of the current session. Steps
// of one chain root, forks included, run one at a time in submission order.
// Separate roots run independently.
package engine
