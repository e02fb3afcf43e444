package program

import (
	"strconv"
	"strings"
)

// binders are the quote characters, in the order they are checked when
// stripping a layer of quoting.
var binders = []byte{'"', '\'', '`'}

// Unquote strips balanced wrapping quotes from a component and coerces the
// result.
//
// One layer is stripped at a time, outermost first, until the text is no
// longer fully wrapped. Backslash escapes are resolved after the quotes are
// gone, so `"a\"b"` is a"b and `\"x\"` is "x" with its quotes. Integer
// literals (-?\d+) become int whether or not they were quoted. true and false
// become bool only when they were not quoted, so `"true"` stays the string
// "true".
func Unquote(component string) any {
	text, quoted := stripQuotes(component)
	text = unescape(text)
	if !quoted && (text == "true" || text == "false") {
		return text == "true"
	}
	if isInteger(text) {
		if n, err := strconv.Atoi(text); err == nil {
			return n
		}
	}
	return text
}

func stripQuotes(s string) (string, bool) {
	quoted := false
	for isWrapped(s) {
		s = s[1 : len(s)-1]
		quoted = true
	}
	return s, quoted
}

// isWrapped reports whether one binder fully wraps s. The inner text may
// only contain that binder when it is preceded by a backslash.
func isWrapped(s string) bool {
	if len(s) < 2 {
		return false
	}
	for _, q := range binders {
		if s[0] != q || s[len(s)-1] != q {
			continue
		}
		inner := s[1 : len(s)-1]
		balanced := true
		for i := 0; i < len(inner); i++ {
			if inner[i] == '\\' {
				i++
				continue
			}
			if inner[i] == q {
				balanced = false
				break
			}
		}
		if balanced {
			return true
		}
	}
	return false
}

// unescape drops each escape character and keeps the one after it. A trailing
// escape is dropped.
func unescape(s string) string {
	if !strings.ContainsRune(s, escape) {
		return s
	}
	var b strings.Builder
	escaped := false
	for _, r := range s {
		if !escaped && r == escape {
			escaped = true
			continue
		}
		escaped = false
		b.WriteRune(r)
	}
	return b.String()
}

func isInteger(s string) bool {
	if s == "" {
		return false
	}
	start := 0
	if s[0] == '-' {
		start = 1
	}
	if start == len(s) {
		return false
	}
	for i := start; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
