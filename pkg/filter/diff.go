package filter

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/pmezard/go-difflib/difflib"
)

// Diff is a line diff of two filtered values rendered as indented JSON.
type Diff struct {
	Unified string   `json:"unified"`
	Lines   []string `json:"lines"`
	Added   int      `json:"added"`
	Removed int      `json:"removed"`
}

// Equal reports whether the two values rendered identically.
func (d *Diff) Equal() bool { return d.Added == 0 && d.Removed == 0 }

// Compare diffs two values. fromName and toName label the sides.
func Compare(from, to any, fromName, toName string) (*Diff, error) {
	a, err := render(from)
	if err != nil {
		return nil, err
	}
	b, err := render(to)
	if err != nil {
		return nil, err
	}
	if a == b {
		return &Diff{}, nil
	}

	unified, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(a),
		B:        difflib.SplitLines(b),
		FromFile: fromName,
		ToFile:   toName,
		Context:  3,
	})
	if err != nil {
		return nil, fmt.Errorf("diffing %s and %s: %w", fromName, toName, err)
	}

	d := &Diff{Unified: strings.TrimRight(unified, "\n")}
	for _, line := range strings.Split(d.Unified, "\n") {
		switch {
		case strings.HasPrefix(line, "+++"), strings.HasPrefix(line, "---"):
			continue
		case strings.HasPrefix(line, "+"):
			d.Added++
		case strings.HasPrefix(line, "-"):
			d.Removed++
		}
		d.Lines = append(d.Lines, line)
	}
	return d, nil
}

// render formats v as indented JSON with sorted keys and a trailing newline.
func render(v any) (string, error) {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", fmt.Errorf("rendering value: %w", err)
	}
	return string(b) + "\n", nil
}
