package program

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Quote renders a command component as program text. For every value Parse
// can produce, parsing the rendered text yields the value again.
func Quote(v any) string {
	switch t := v.(type) {
	case string:
		return quoteString(t)
	case bool:
		return strconv.FormatBool(t)
	case int:
		return strconv.Itoa(t)
	case nil:
		return `""`
	case map[string]any, []any:
		b, err := json.Marshal(t)
		if err != nil {
			return quoteString(fmt.Sprint(t))
		}
		return quoteString(string(b))
	default:
		return quoteString(fmt.Sprint(t))
	}
}

func quoteString(s string) string {
	if s == "" || s == "true" || s == "false" {
		return `"` + s + `"`
	}
	if !strings.ContainsAny(s, " ;\n\\\"'`") {
		return s
	}
	for _, q := range binders {
		if strings.IndexByte(s, q) >= 0 {
			continue
		}
		var b strings.Builder
		b.WriteByte(q)
		for _, r := range s {
			if r == escape || r == '"' || r == '\'' || r == '`' {
				b.WriteRune(escape)
			}
			b.WriteRune(r)
		}
		b.WriteByte(q)
		return b.String()
	}
	var b strings.Builder
	for _, r := range s {
		if strings.ContainsRune(" ;\n\\\"'`", r) {
			b.WriteRune(escape)
		}
		b.WriteRune(r)
	}
	return b.String()
}
