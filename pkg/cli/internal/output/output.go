// Package output writes command results, notices and errors for the clappy
// CLI.
package output

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/getmockd/clappy/pkg/session"
)

const levelGuide = "│ "

// quotedKey matches an object key at the start of an indented JSON line.
var quotedKey = regexp.MustCompile(`(?m)^((?:  |│ )*)"((?:[^"\\]|\\.)*)":`)

// Printer writes to the user. Results and notices go to Out, errors to Err.
type Printer struct {
	Out io.Writer
	Err io.Writer

	// JSON prints every result as one line of compact JSON.
	JSON bool

	Theme session.Theme
}

// Progress announces command i of n of a compound program.
func (p *Printer) Progress(i, n int, cmd string) {
	if p.JSON {
		return
	}
	fmt.Fprintf(p.Out, "[%d of %d] %s\n", i, n, cmd)
}

// Notify prints a short status message.
func (p *Printer) Notify(msg string) {
	if msg == "" || p.JSON {
		return
	}
	fmt.Fprintln(p.Out, msg)
}

// Meta prints a transaction meta block.
func (p *Printer) Meta(block string) {
	if p.JSON {
		return
	}
	fmt.Fprintln(p.Out, block)
}

// Result prints a command result. Scalars are printed as is; maps and slices
// as indented JSON shaped by the theme.
func (p *Printer) Result(v any) error {
	if v == nil {
		return nil
	}
	if p.JSON {
		enc := json.NewEncoder(p.Out)
		enc.SetEscapeHTML(false)
		return enc.Encode(v)
	}
	switch v.(type) {
	case string, bool, int, int64, float64:
		_, err := fmt.Fprintln(p.Out, v)
		return err
	}
	s, err := p.formatJSON(v)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(p.Out, s)
	return err
}

func (p *Printer) formatJSON(v any) (string, error) {
	indent := "  "
	if p.Theme.ShowJSONLevels {
		indent = levelGuide
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", indent)
	if err := enc.Encode(v); err != nil {
		return "", err
	}
	s := strings.TrimRight(buf.String(), "\n")
	if !p.Theme.ShowJSONQuotes {
		s = quotedKey.ReplaceAllString(s, "$1$2:")
	}
	return s, nil
}

// Error prints err. With ShowErrorTrace every wrapped cause is printed on
// its own line.
func (p *Printer) Error(err error) {
	fmt.Fprintf(p.Err, "Error: %s\n", err)
	if !p.Theme.ShowErrorTrace {
		return
	}
	for cause := errors.Unwrap(err); cause != nil; cause = errors.Unwrap(cause) {
		fmt.Fprintf(p.Err, "  caused by: %s\n", cause)
	}
}

// Warn prints a warning message to Err.
func (p *Printer) Warn(format string, args ...any) {
	fmt.Fprintf(p.Err, "Warning: "+format+"\n", args...)
}
