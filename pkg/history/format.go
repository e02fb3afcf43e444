package history

import (
	"fmt"
	"strings"
)

// MetaTimeFormat is the layout of the DATE line in Meta.
const MetaTimeFormat = "Monday 2006/01/02 3:04:05 PM"

const maxRuleWidth = 50

// Slug summarizes a transaction on one line: "[id] href - status".
// Resolve accepts the leading "[id]" as a descriptor.
func Slug(t *Transaction) string {
	href, status := "", 0
	if t.Response != nil {
		href, status = t.Response.Href, t.Response.StatusCode
	}
	if href == "" && t.Request != nil {
		href = t.Request.Href()
	}
	return fmt.Sprintf("[%d] %s - %d", t.ID, href, status)
}

// Slugs returns the slug of every transaction in the log.
func (l *Log) Slugs() []string {
	out := make([]string, len(l.Entries))
	for i, t := range l.Entries {
		out[i] = Slug(t)
	}
	return out
}

// FilterPath describes which part of a transaction a filter selects. Without
// full the filter applies to the response body.
func FilterPath(filter string, full bool) string {
	switch {
	case full && filter != "":
		return filter
	case full:
		return "."
	case filter == "" || filter == ".":
		return ".body"
	case strings.HasPrefix(filter, ".["):
		return ".body" + filter[1:]
	case strings.HasPrefix(filter, "."):
		return ".body" + filter
	default:
		return ".body|" + filter
	}
}

// Meta renders the multi-line header printed above an inspected transaction.
// width is the terminal width; the rule never exceeds 50 columns.
func Meta(t *Transaction, full bool, filter string, width int) string {
	if width <= 0 || width > maxRuleWidth {
		width = maxRuleWidth
	}
	rule := strings.Repeat("═", width)

	method, url := "", ""
	if t.Request != nil {
		method, url = t.Request.Method, t.Request.URL
	}

	var b strings.Builder
	b.WriteString(rule + "\n")
	fmt.Fprintf(&b, "ID   : %d\n", t.ID)
	fmt.Fprintf(&b, "DATE : %s\n", t.Started.Format(MetaTimeFormat))
	fmt.Fprintf(&b, "API  : %s\n", t.API)
	fmt.Fprintf(&b, "ENV  : %s\n", t.Env)
	fmt.Fprintf(&b, "REQ  : %s %s\n", method, url)
	fmt.Fprintf(&b, "PATH : %s\n", FilterPath(filter, full))
	b.WriteString(rule)
	return b.String()
}
