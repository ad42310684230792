package pipeline

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/w-h-a/shebot/knowledge"
)

func candidate(question string, source string, score float64) knowledge.Candidate {
	return knowledge.Candidate{
		Record: knowledge.Record{Category: "safety", Question: question, Answer: "some answer", Language: "en", Source: source},
		Score:  score,
	}
}

func TestBuildNoContextVariant(t *testing.T) {
	builder := NewContextBuilder(0.7)

	tests := []struct {
		name       string
		candidates []knowledge.Candidate
	}{
		{name: "no candidates", candidates: nil},
		{name: "all below context threshold", candidates: []knowledge.Candidate{
			candidate("reporting harassment", "kb", 0.6),
			candidate("protection orders", "kb", 0.55),
		}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			prompt := builder.Build("how do I report", tc.candidates)

			assert.False(t, prompt.HasContext)
			assert.Contains(t, prompt.Text, "999")
			assert.Contains(t, prompt.Text, "1195")
			assert.Contains(t, prompt.Text, "Say you are unsure")
		})
	}
}

func TestBuildLexicalGate(t *testing.T) {
	builder := NewContextBuilder(0.7)

	// first five words of the candidate text are "safety | reporting
	// harassment to | ..." so "safety" appears in the query below
	overlap := candidate("reporting harassment to police", "helpline", 0.9)
	noOverlap := knowledge.Candidate{
		Record: knowledge.Record{Category: "legal", Question: "zzzz yyyy xxxx", Answer: "some answer", Language: "en", Source: "other"},
		Score:  0.9,
	}

	prompt := builder.Build("safety question about harassment", []knowledge.Candidate{overlap, noOverlap})
	require.True(t, prompt.HasContext)

	assert.Contains(t, prompt.Text, "Source: helpline")
	assert.NotContains(t, prompt.Text, "Source: other")
}

func TestBuildGateEliminatesEverything(t *testing.T) {
	builder := NewContextBuilder(0.7)

	prompt := builder.Build("completely unrelated words", []knowledge.Candidate{
		candidate("zzzz yyyy xxxx", "kb", 0.9),
	})

	require.True(t, prompt.HasContext)
	assert.Contains(t, prompt.Text, "No directly relevant context found.")
}

func TestBuildSnippetTruncation(t *testing.T) {
	builder := NewContextBuilder(0.7)

	long := candidate("safety "+strings.Repeat("very long question text ", 10), "kb", 0.95)

	prompt := builder.Build("safety concern", []knowledge.Candidate{long})
	require.True(t, prompt.HasContext)

	for _, line := range strings.Split(prompt.Text, "\n") {
		if strings.HasPrefix(line, "- Q: ") {
			snippet := strings.TrimPrefix(line, "- Q: ")
			snippet = strings.TrimSuffix(snippet, "... | Source: kb")
			assert.LessOrEqual(t, len(snippet), 50)
			return
		}
	}
	t.Fatal("no context line rendered")
}

func TestBuildSnippetKeepsValidUTF8(t *testing.T) {
	builder := NewContextBuilder(0.7)

	// "safety | " is 9 bytes and each en dash is 3, so the 50-byte cut
	// lands inside a rune unless truncation backs up to a boundary
	multiByte := candidate(strings.Repeat("–", 40), "kb", 0.9)

	prompt := builder.Build("safety concern", []knowledge.Candidate{multiByte})
	require.True(t, prompt.HasContext)
	assert.True(t, utf8.ValidString(prompt.Text))
	assert.NotContains(t, prompt.Text, "�")
}

func TestBuildMissingSourceLabeledUnknown(t *testing.T) {
	builder := NewContextBuilder(0.7)

	prompt := builder.Build("safety concern", []knowledge.Candidate{
		candidate("safety basics", "", 0.9),
	})

	require.True(t, prompt.HasContext)
	assert.Contains(t, prompt.Text, "Source: unknown")
}
