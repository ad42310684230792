package pipeline

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/w-h-a/shebot/knowledge"
)

const snippetLength = 50

// ContextBuilder renders retrieved candidates into the grounded prompt sent
// to the generator. It applies a stricter relevance cut than the knowledge
// base itself; the double threshold is deliberate defense-in-depth.
type ContextBuilder struct {
	threshold float64
}

// Prompt is a rendered generation request. HasContext is false when no
// candidate survived the context threshold and the generator is being asked
// to express uncertainty instead of answer.
type Prompt struct {
	Text       string
	HasContext bool
}

// Build filters candidates to those scoring at or above the context
// threshold, then gates each survivor on cheap lexical overlap: one of the
// first five words of its text must appear in the lowercased query. Cosine
// similarity alone lets semantically-near but topically-irrelevant rows
// through; the gate suppresses those.
func (b *ContextBuilder) Build(query string, candidates []knowledge.Candidate) Prompt {
	filtered := make([]knowledge.Candidate, 0, len(candidates))
	for _, c := range candidates {
		if c.Score >= b.threshold {
			filtered = append(filtered, c)
		}
	}

	if len(filtered) == 0 {
		return Prompt{Text: b.noContextPrompt(query), HasContext: false}
	}

	queryLower := strings.ToLower(query)

	var ctxLines []string
	for _, c := range filtered {
		text := c.Record.RetrievalText()
		if !overlapsQuery(queryLower, text) {
			continue
		}

		snippet := text
		if len(snippet) > snippetLength {
			// back up to a rune boundary so Swahili and Sheng text is
			// never cut mid-character
			cut := snippetLength
			for cut > 0 && !utf8.RuneStart(snippet[cut]) {
				cut--
			}
			snippet = snippet[:cut]
		}

		source := c.Record.Source
		if source == "" {
			source = "unknown"
		}

		ctxLines = append(ctxLines, fmt.Sprintf("- Q: %s... | Source: %s", snippet, source))
	}

	ctx := "No directly relevant context found."
	if len(ctxLines) > 0 {
		ctx = strings.Join(ctxLines, "\n")
	}

	return Prompt{Text: b.contextPrompt(query, ctx), HasContext: true}
}

func overlapsQuery(queryLower, text string) bool {
	words := strings.Fields(strings.ToLower(text))
	if len(words) > 5 {
		words = words[:5]
	}
	for _, word := range words {
		if strings.Contains(queryLower, word) {
			return true
		}
	}
	return false
}

func (b *ContextBuilder) noContextPrompt(query string) string {
	return fmt.Sprintf(`User: %s

Rules:
- No relevant context found. Say you are unsure and suggest contacting 999 or 1195 if relevant.
- Be supportive and non-judgmental.
- Avoid speculation or unrelated information.
`, query)
}

func (b *ContextBuilder) contextPrompt(query string, ctx string) string {
	return fmt.Sprintf(`Use ONLY the provided context to answer the user's exact question safely and accurately.
Context:
%s

User: %s

Rules:
- Answer directly based on the context, citing sources inline if used (e.g., [Source: unknown]).
- If the context does not address the question, say you are unsure and suggest contacting 999 or 1195 if relevant.
- Do not speculate, generate unrelated content, or provide information beyond the context.
- Be supportive and non-judgmental.
- Apply safety-first principles: avoid sharing personal data, focus on empowerment, and redirect to professionals for complex issues.
`, ctx, query)
}

func NewContextBuilder(threshold float64) *ContextBuilder {
	if threshold <= 0 {
		threshold = 0.7
	}
	return &ContextBuilder{threshold: threshold}
}
