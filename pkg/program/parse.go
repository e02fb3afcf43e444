package program

import (
	"errors"
	"fmt"
	"strings"
)

// MaxAliasDepth bounds how many alias expansions may nest while parsing one
// command.
const MaxAliasDepth = 32

// Errors returned by Parse.
var (
	// ErrAliasDepth is returned when alias expansion nests deeper than
	// MaxAliasDepth, which in practice means the alias table has a cycle.
	ErrAliasDepth = errors.New("command alias expansion exceeded maximum depth")
)

const escape = '\\'

// Command is one parsed command: the action name followed by its coerced
// arguments.
type Command []any

// Name returns the action name of the command.
func (c Command) Name() string {
	if len(c) == 0 {
		return ""
	}
	if s, ok := c[0].(string); ok {
		return s
	}
	return fmt.Sprint(c[0])
}

// Args returns the arguments following the action name.
func (c Command) Args() []any {
	if len(c) < 2 {
		return nil
	}
	return c[1:]
}

// String renders the command as program text that parses back to the same
// command.
func (c Command) String() string {
	parts := make([]string, len(c))
	for i, v := range c {
		parts[i] = Quote(v)
	}
	return strings.Join(parts, " ")
}

// Queue is the ordered list of commands produced from one program.
type Queue []Command

// String renders the queue as program text, joining commands with ';'.
func (q Queue) String() string {
	cmds := make([]string, len(q))
	for i, c := range q {
		cmds[i] = c.String()
	}
	return strings.Join(cmds, ";")
}

// Parse converts program text into a command queue. aliases maps command
// names to program text; a nil map disables expansion.
func Parse(text string, aliases map[string]string) (Queue, error) {
	return parse(text, aliases, 0)
}

type parser struct {
	aliases map[string]string
	depth   int

	queue   Queue
	context []rune
	escaped bool

	// source holds the current component as written, quotes and escapes
	// included. Unquote resolves both.
	source strings.Builder

	sources []string
}

func parse(text string, aliases map[string]string, depth int) (Queue, error) {
	if depth > MaxAliasDepth {
		return nil, fmt.Errorf("%w (%d)", ErrAliasDepth, MaxAliasDepth)
	}
	p := &parser{aliases: aliases, depth: depth}
	for _, r := range strings.TrimSpace(text) {
		if err := p.next(r); err != nil {
			return nil, err
		}
	}
	if err := p.flushCommand(); err != nil {
		return nil, err
	}
	return p.queue, nil
}

func (p *parser) next(r rune) error {
	if p.escaped {
		p.escaped = false
		p.source.WriteRune(r)
		return nil
	}

	switch {
	case r == escape:
		p.escaped = true
		p.source.WriteRune(r)
	case r == '"' || r == '\'' || r == '`':
		p.source.WriteRune(r)
		if n := len(p.context); n > 0 && p.context[n-1] == r {
			p.context = p.context[:n-1]
		} else {
			p.context = append(p.context, r)
		}
	case r == ' ':
		if len(p.context) > 0 {
			p.source.WriteRune(r)
		} else {
			p.flushComponent()
		}
	case r == ';' || r == '\n':
		if len(p.context) > 0 {
			p.source.WriteRune(r)
			return nil
		}
		return p.flushCommand()
	default:
		p.source.WriteRune(r)
	}
	return nil
}

func (p *parser) flushComponent() {
	if p.source.Len() == 0 {
		return
	}
	p.sources = append(p.sources, p.source.String())
	p.source.Reset()
}

func (p *parser) flushCommand() error {
	p.flushComponent()
	if len(p.sources) == 0 {
		return nil
	}
	sources := p.sources
	p.sources = nil

	name := Unquote(sources[0])
	if s, ok := name.(string); ok {
		if expansion, ok := p.aliases[s]; ok {
			text := strings.Join(append([]string{expansion}, sources[1:]...), " ")
			expanded, err := parse(text, p.aliases, p.depth+1)
			if err != nil {
				return fmt.Errorf("expanding alias %q: %w", s, err)
			}
			p.queue = append(p.queue, expanded...)
			return nil
		}
	}

	cmd := make(Command, len(sources))
	cmd[0] = name
	for i := 1; i < len(sources); i++ {
		cmd[i] = Unquote(sources[i])
	}
	p.queue = append(p.queue, cmd)
	return nil
}

// StripComments prepares the contents of a script file: lines are trimmed and
// lines starting with '#' are dropped.
func StripComments(script string) string {
	lines := strings.Split(script, "\n")
	kept := lines[:0]
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "#") {
			continue
		}
		kept = append(kept, line)
	}
	return strings.Join(kept, "\n")
}
