package history

import (
	"errors"
	"fmt"
	"maps"
	"regexp"
	"slices"
	"strconv"
	"strings"
)

// ErrInvalidDescriptor is returned when a descriptor does not resolve to a
// transaction in the log.
var ErrInvalidDescriptor = errors.New("invalid transaction descriptor")

// DescriptorPattern matches the keyword and integer descriptor forms. Aliases
// and the bracketed "[N]" form are recognized separately.
var DescriptorPattern = regexp.MustCompile(`(?i)^(-?\d+|prev|current|this|next|latest)$`)

var bracketed = regexp.MustCompile(`^\[(\d+)\]`)

// maxAliasHops bounds alias-to-alias resolution.
const maxAliasHops = 32

// Log is an ordered list of transactions with a cursor.
//
// Cursor is -1 while the log is empty and otherwise a valid zero-based index
// into Entries.
type Log struct {
	Entries []*Transaction    `json:"transactionLog"`
	Cursor  int               `json:"index"`
	Aliases map[string]string `json:"transactionAliases"`
}

// NewLog returns an empty log.
func NewLog() Log {
	return Log{Cursor: -1, Aliases: map[string]string{}}
}

// Append numbers t, records it, and moves the cursor to it.
func (l *Log) Append(t *Transaction) *Transaction {
	t.ID = len(l.Entries) + 1
	l.Entries = append(l.Entries, t)
	l.Cursor = len(l.Entries) - 1
	return t
}

// Resolve converts a descriptor to a transaction id. A nil descriptor means
// "current".
func (l *Log) Resolve(desc any) (int, error) {
	index, err := l.resolveIndex(desc, 0)
	if err != nil {
		return 0, err
	}
	if err := l.validate(desc, index); err != nil {
		return 0, err
	}
	return index + 1, nil
}

// IsDescriptor reports whether v has the shape of a transaction descriptor:
// an integer, a keyword, a bracketed id, or a known alias.
func (l *Log) IsDescriptor(v any) bool {
	switch t := v.(type) {
	case int:
		return true
	case string:
		if DescriptorPattern.MatchString(t) || bracketed.MatchString(t) {
			return true
		}
		_, ok := l.Aliases[t]
		return ok
	default:
		return false
	}
}

// Get returns the transaction with the given id, or nil.
func (l *Log) Get(id int) *Transaction {
	if id < 1 || id > len(l.Entries) {
		return nil
	}
	return l.Entries[id-1]
}

// Go moves the cursor to the transaction with the given id.
func (l *Log) Go(id int) error {
	if err := l.validate(id, id-1); err != nil {
		return err
	}
	l.Cursor = id - 1
	return nil
}

// Current returns the transaction under the cursor, or nil.
func (l *Log) Current() *Transaction {
	if l.Cursor < 0 || l.Cursor >= len(l.Entries) {
		return nil
	}
	return l.Entries[l.Cursor]
}

// Latest returns the most recent transaction, or nil.
func (l *Log) Latest() *Transaction {
	if len(l.Entries) == 0 {
		return nil
	}
	return l.Entries[len(l.Entries)-1]
}

// Len returns the number of transactions.
func (l *Log) Len() int { return len(l.Entries) }

// Empty reports whether no transaction has been made.
func (l *Log) Empty() bool { return len(l.Entries) == 0 }

// AtFirst reports whether the cursor is on the first transaction.
func (l *Log) AtFirst() bool { return l.Cursor == 0 }

// AtLatest reports whether the cursor is on the latest transaction.
func (l *Log) AtLatest() bool { return l.Cursor == len(l.Entries)-1 }

// SetAlias records name as an alias for the transaction id.
func (l *Log) SetAlias(name string, id int) {
	if l.Aliases == nil {
		l.Aliases = map[string]string{}
	}
	l.Aliases[name] = strconv.Itoa(id)
}

// Clone returns a copy of the log that shares no mutable state with l.
// Transactions themselves are immutable and are shared.
func (l *Log) Clone() Log {
	c := Log{
		Entries: slices.Clone(l.Entries),
		Cursor:  l.Cursor,
		Aliases: maps.Clone(l.Aliases),
	}
	if c.Aliases == nil {
		c.Aliases = map[string]string{}
	}
	return c
}

func (l *Log) resolveIndex(desc any, hops int) (int, error) {
	switch t := desc.(type) {
	case nil:
		return l.Cursor, nil
	case int:
		return l.intIndex(t), nil
	case string:
		return l.stringIndex(t, hops)
	default:
		return l.stringIndex(fmt.Sprint(t), hops)
	}
}

func (l *Log) stringIndex(desc string, hops int) (int, error) {
	if m := bracketed.FindStringSubmatch(desc); m != nil {
		n, err := strconv.Atoi(m[1])
		if err != nil {
			return 0, fmt.Errorf("%w: could not resolve %q to a transaction", ErrInvalidDescriptor, desc)
		}
		return n - 1, nil
	}

	switch strings.ToLower(desc) {
	case "latest":
		return len(l.Entries) - 1, nil
	case "this", "current":
		return l.Cursor, nil
	case "prev":
		return l.Cursor - 1, nil
	case "next":
		return l.Cursor + 1, nil
	}

	if target, ok := l.Aliases[desc]; ok {
		if hops >= maxAliasHops {
			return 0, fmt.Errorf("%w: transaction alias %q does not resolve", ErrInvalidDescriptor, desc)
		}
		return l.resolveIndex(target, hops+1)
	}

	n, err := strconv.Atoi(strings.TrimSpace(desc))
	if err != nil {
		return 0, fmt.Errorf("%w: could not resolve %q to a transaction", ErrInvalidDescriptor, desc)
	}
	return l.intIndex(n), nil
}

func (l *Log) intIndex(n int) int {
	if n < 0 {
		return len(l.Entries) - 1 + n
	}
	return n - 1
}

func (l *Log) validate(desc any, index int) error {
	switch {
	case len(l.Entries) == 0:
		return fmt.Errorf("%w: no transactions yet, make a request and try again", ErrInvalidDescriptor)
	case index < 0:
		return fmt.Errorf("%w: %v is before the first transaction", ErrInvalidDescriptor, describe(desc))
	case index >= len(l.Entries):
		return fmt.Errorf("%w: %v is beyond the latest transaction", ErrInvalidDescriptor, describe(desc))
	}
	return nil
}

func describe(desc any) string {
	if desc == nil {
		return "current"
	}
	return fmt.Sprintf("%q", fmt.Sprint(desc))
}
