// Package flags provides flag types for the clappy command.
package flags

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/getmockd/clappy/pkg/cli/internal/parse"
)

// Pairs is a repeatable name=value flag such as --alias. Later values for
// the same name win.
type Pairs map[string]string

// String implements pflag.Value.
func (p *Pairs) String() string {
	if p == nil || len(*p) == 0 {
		return ""
	}
	items := make([]string, 0, len(*p))
	for _, k := range slices.Sorted(maps.Keys(*p)) {
		items = append(items, k+"="+(*p)[k])
	}
	return strings.Join(items, ",")
}

// Set implements pflag.Value. Values without a name are rejected so the
// error names the flag.
func (p *Pairs) Set(value string) error {
	name, v, ok := parse.KeyValue(value)
	name = strings.TrimSpace(name)
	if !ok || name == "" {
		return fmt.Errorf("expected name=value, got %q", value)
	}
	if *p == nil {
		*p = Pairs{}
	}
	(*p)[name] = v
	return nil
}

// Type implements pflag.Value.
func (p *Pairs) Type() string {
	return "name=value"
}
