package flags

import (
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPairs(t *testing.T) {
	t.Parallel()

	var aliases Pairs
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	fs.Var(&aliases, "alias", "")

	require.NoError(t, fs.Parse([]string{
		"--alias", "a=get /a",
		"--alias", "b=use foo local; get /b?x=1",
		"--alias", "a=get /c",
	}))
	assert.Equal(t, Pairs{"a": "get /c", "b": "use foo local; get /b?x=1"}, aliases)
	assert.Equal(t, "a=get /c,b=use foo local; get /b?x=1", aliases.String())
}

func TestPairs_Invalid(t *testing.T) {
	t.Parallel()

	for _, value := range []string{"novalue", "=x", " =x"} {
		var p Pairs
		err := p.Set(value)
		assert.Error(t, err, value)
		assert.Empty(t, p)
	}
}
