package output

import (
	"bytes"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/getmockd/clappy/pkg/session"
)

func newPrinter(theme session.Theme) (*Printer, *bytes.Buffer, *bytes.Buffer) {
	var out, errOut bytes.Buffer
	return &Printer{Out: &out, Err: &errOut, Theme: theme}, &out, &errOut
}

func TestResult(t *testing.T) {
	t.Parallel()

	value := map[string]any{"name": "w", "tags": []any{"a"}}

	tests := []struct {
		name  string
		theme session.Theme
		value any
		want  string
	}{
		{name: "nil", value: nil, want: ""},
		{name: "string", value: "/things", want: "/things\n"},
		{name: "number", value: 2, want: "2\n"},
		{name: "bool", value: true, want: "true\n"},
		{
			name:  "quoted keys",
			theme: session.Theme{ShowJSONQuotes: true},
			value: value,
			want:  "{\n  \"name\": \"w\",\n  \"tags\": [\n    \"a\"\n  ]\n}\n",
		},
		{
			name:  "bare keys",
			value: value,
			want:  "{\n  name: \"w\",\n  tags: [\n    \"a\"\n  ]\n}\n",
		},
		{
			name:  "level guides",
			theme: session.Theme{ShowJSONLevels: true},
			value: value,
			want:  "{\n│ name: \"w\",\n│ tags: [\n│ │ \"a\"\n│ ]\n}\n",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			p, out, _ := newPrinter(tt.theme)
			require.NoError(t, p.Result(tt.value))
			assert.Equal(t, tt.want, out.String())
		})
	}
}

func TestJSONMode(t *testing.T) {
	t.Parallel()

	p, out, _ := newPrinter(session.Theme{})
	p.JSON = true

	p.Progress(1, 2, "get /a")
	p.Notify("Now using foo.")
	p.Meta("═══")
	require.NoError(t, p.Result(map[string]any{"path": "/a?x=<1>"}))
	require.NoError(t, p.Result("done"))

	assert.Equal(t, "{\"path\":\"/a?x=<1>\"}\n\"done\"\n", out.String())
}

func TestProgressAndNotify(t *testing.T) {
	t.Parallel()

	p, out, _ := newPrinter(session.Theme{})
	p.Progress(2, 3, "inspect .path")
	p.Notify("")
	p.Notify("Copied to clipboard.")

	assert.Equal(t, "[2 of 3] inspect .path\nCopied to clipboard.\n", out.String())
}

func TestError(t *testing.T) {
	t.Parallel()

	root := errors.New("connection refused")
	err := fmt.Errorf("submitting request: %w", root)

	p, _, errOut := newPrinter(session.Theme{})
	p.Error(err)
	assert.Equal(t, "Error: submitting request: connection refused\n", errOut.String())

	p, _, errOut = newPrinter(session.Theme{ShowErrorTrace: true})
	p.Error(err)
	assert.Equal(t, "Error: submitting request: connection refused\n  caused by: connection refused\n", errOut.String())
}
