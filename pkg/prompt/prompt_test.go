package prompt

import (
	"context"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/getmockd/clappy/pkg/history"
	"github.com/getmockd/clappy/pkg/transport"
)

func TestScripted(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := &Scripted{
		Programs:  []string{"get /x"},
		Decisions: []transport.Decision{transport.DecisionSilence},
		Values:    []string{"hunter2"},
		JSON:      []any{nil, map[string]any{"a": 1}},
		Picks:     []int{2},
	}

	line, err := s.ReadProgram(ctx, "clappy")
	require.NoError(t, err)
	assert.Equal(t, "get /x", line)
	_, err = s.ReadProgram(ctx, "clappy")
	assert.ErrorIs(t, err, io.EOF)

	d, err := s.ConfirmProdWrite(ctx, &history.Request{Method: "POST", BaseURL: "https://api", URL: "x"})
	require.NoError(t, err)
	assert.Equal(t, transport.DecisionSilence, d)
	_, err = s.ConfirmProdWrite(ctx, &history.Request{})
	assert.ErrorIs(t, err, ErrNoAnswer)

	v, err := s.AskValue(ctx, "Password?", true)
	require.NoError(t, err)
	assert.Equal(t, "hunter2", v)

	kept, err := s.EditJSON(ctx, "Body", "original")
	require.NoError(t, err)
	assert.Equal(t, "original", kept)
	edited, err := s.EditJSON(ctx, "Body", "original")
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"a": 1}, edited)

	id, err := s.PickTransaction(ctx, []string{"[1] a", "[2] b"}, 1)
	require.NoError(t, err)
	assert.Equal(t, 2, id)

	assert.Equal(t, []string{
		"clappy", "clappy",
		"confirm POST https://api/x", "confirm  ",
		"Password?", "Body", "Body", "pick",
	}, s.Asked)
}

func TestHuh_PickTransactionWithoutEntries(t *testing.T) {
	t.Parallel()

	_, err := NewHuh().PickTransaction(context.Background(), nil, 0)
	assert.Error(t, err)
}
