package history

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"prism/internal/db"
	"prism/internal/provider"
)

func TestBuildExcludesTrailingUserTurn(t *testing.T) {
	stored := []provider.Turn{
		{Role: "user", Content: "hi"},
		{Role: "assistant", Content: "hello"},
		{Role: "user", Content: "what is go?"},
	}

	p := Build(stored, "what is go?")

	assert.Len(t, p.History, 2)
	assert.Equal(t, "hello", p.History[1].Content)
	assert.Equal(t, "what is go?", p.Prompt)
}

func TestBuildKeepsUnrelatedTrailingTurn(t *testing.T) {
	// A trailing user turn that is not the current prompt stays: another
	// submission may have landed between our save and the history fetch.
	stored := []provider.Turn{
		{Role: "user", Content: "first question"},
	}

	p := Build(stored, "second question")

	assert.Len(t, p.History, 1)
	assert.Equal(t, "first question", p.History[0].Content)
}

func TestBuildEmptyThread(t *testing.T) {
	p := Build(nil, "opening line")
	assert.Empty(t, p.History)
	assert.Equal(t, "opening line", p.Prompt)
}

func TestBuildKeepsSystemSummaryTurn(t *testing.T) {
	stored := []provider.Turn{
		{Role: "system", Content: "Earlier the user asked about travel."},
		{Role: "user", Content: "and hotels?"},
	}

	p := Build(stored, "and hotels?")

	assert.Len(t, p.History, 1)
	assert.Equal(t, "system", p.History[0].Role)
}

func TestBuildFromMessages(t *testing.T) {
	msgs := []db.Message{
		{Role: "user", Content: "q1", Seq: 1},
		{Role: "assistant", Content: "a1", Seq: 2},
		{Role: "user", Content: "q2", Seq: 3},
	}

	p := BuildFromMessages(msgs, "q2")

	assert.Len(t, p.History, 2)
	assert.Equal(t, provider.Turn{Role: "user", Content: "q1"}, p.History[0])
}
