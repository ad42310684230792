package knowledge

import "strings"

// Record is one knowledge-base entry. Records are immutable once loaded;
// their identity is their position in the corpus.
type Record struct {
	Category string
	Question string
	Answer   string
	Language string
	Source   string
}

// RetrievalText is the concatenation embedded for similarity search.
// Field order is fixed: changing it changes every vector in the corpus.
func (r Record) RetrievalText() string {
	return strings.Join([]string{r.Category, r.Question, r.Answer, r.Language, r.Source}, " | ")
}

// Candidate pairs a record with its similarity to a query. Candidates are
// ephemeral: produced per query and discarded once the response is built.
type Candidate struct {
	Record Record
	Index  int
	Score  float64
}

func (c Candidate) Metadata() map[string]any {
	return map[string]any{
		"category": c.Record.Category,
		"language": c.Record.Language,
		"source":   c.Record.Source,
	}
}
