package cli

import "errors"

// errSilent is returned from the root command after the failure has already
// been printed. It only sets the exit code.
var errSilent = errors.New("failed")

// ErrNoScripts is returned when a glob argument matches no files.
var ErrNoScripts = errors.New("no script files match")
