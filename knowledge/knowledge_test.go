package knowledge

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/w-h-a/shebot/embedder"
)

type fakeEmbedder struct {
	vectors map[string][]float32
	query   []float32
	calls   int
}

func (e *fakeEmbedder) Embed(ctx context.Context, texts []string, purpose embedder.Purpose) ([][]float32, error) {
	e.calls++

	out := make([][]float32, len(texts))
	for i, text := range texts {
		if purpose == embedder.PurposeQuery {
			out[i] = e.query
			continue
		}
		for key, vec := range e.vectors {
			if strings.Contains(text, key) {
				out[i] = vec
				break
			}
		}
		if out[i] == nil {
			out[i] = []float32{0, 0}
		}
	}

	return out, nil
}

type fakeStore struct {
	matrices map[string][][]float32
	saves    int
}

func (s *fakeStore) Exists(ctx context.Context, corpus string) (bool, error) {
	_, ok := s.matrices[corpus]
	return ok, nil
}

func (s *fakeStore) Load(ctx context.Context, corpus string) ([][]float32, error) {
	return s.matrices[corpus], nil
}

func (s *fakeStore) Save(ctx context.Context, corpus string, matrix [][]float32) error {
	s.saves++
	s.matrices[corpus] = matrix
	return nil
}

func newFakeStore() *fakeStore {
	return &fakeStore{matrices: map[string][][]float32{}}
}

func testRecords() []Record {
	return []Record{
		{Category: "safety", Question: "reporting harassment", Answer: "visit the nearest police station", Source: "kb"},
		{Category: "health", Question: "managing anxiety", Answer: "breathing exercises can help", Source: "kb"},
		{Category: "legal", Question: "protection orders", Answer: "courts can issue protection orders", Source: "kb"},
	}
}

func TestQueryThresholdAndOrder(t *testing.T) {
	// query [1,0] scores: reporting=1.0, anxiety=0.6, orders=0.0
	emb := &fakeEmbedder{
		vectors: map[string][]float32{
			"reporting": {1, 0},
			"anxiety":   {0.6, 0.8},
			"orders":    {0, 1},
		},
		query: []float32{1, 0},
	}

	kb := New(WithEmbedder(emb))
	require.NoError(t, kb.LoadRecords(context.Background(), "test", testRecords()))

	candidates, err := kb.Query(context.Background(), "how do I report", 5)
	require.NoError(t, err)

	require.Len(t, candidates, 2, "candidates at or below 0.5 must be discarded")
	assert.Equal(t, "reporting harassment", candidates[0].Record.Question)
	assert.Equal(t, "managing anxiety", candidates[1].Record.Question)
	assert.Greater(t, candidates[0].Score, candidates[1].Score)

	for _, c := range candidates {
		assert.Greater(t, c.Score, 0.5)
	}
}

func TestQueryTieBreakKeepsCorpusOrder(t *testing.T) {
	// both records embed identically, so both score 1.0
	emb := &fakeEmbedder{
		vectors: map[string][]float32{
			"reporting": {1, 0},
			"anxiety":   {1, 0},
			"orders":    {0, 1},
		},
		query: []float32{1, 0},
	}

	kb := New(WithEmbedder(emb))
	require.NoError(t, kb.LoadRecords(context.Background(), "test", testRecords()))

	candidates, err := kb.Query(context.Background(), "anything", 5)
	require.NoError(t, err)

	require.Len(t, candidates, 2)
	assert.Equal(t, 0, candidates[0].Index, "equal scores keep corpus order")
	assert.Equal(t, 1, candidates[1].Index)
}

func TestQueryRespectsTopK(t *testing.T) {
	emb := &fakeEmbedder{
		vectors: map[string][]float32{
			"reporting": {1, 0},
			"anxiety":   {0.9, 0.435889894},
			"orders":    {0.8, 0.6},
		},
		query: []float32{1, 0},
	}

	kb := New(WithEmbedder(emb))
	require.NoError(t, kb.LoadRecords(context.Background(), "test", testRecords()))

	candidates, err := kb.Query(context.Background(), "anything", 2)
	require.NoError(t, err)
	assert.Len(t, candidates, 2)
}

func TestQueryEmptyResultIsNotAnError(t *testing.T) {
	emb := &fakeEmbedder{
		vectors: map[string][]float32{
			"reporting": {0, 1},
			"anxiety":   {0, 1},
			"orders":    {0, 1},
		},
		query: []float32{1, 0},
	}

	kb := New(WithEmbedder(emb))
	require.NoError(t, kb.LoadRecords(context.Background(), "test", testRecords()))

	candidates, err := kb.Query(context.Background(), "anything", 5)
	require.NoError(t, err)
	assert.Empty(t, candidates)
}

func TestQueryRejectsDimensionMismatch(t *testing.T) {
	// corpus embedded in 2 dimensions, queries now coming back in 3: the
	// embedder model changed under the cache
	emb := &fakeEmbedder{
		vectors: map[string][]float32{
			"reporting": {1, 0},
			"anxiety":   {0, 1},
			"orders":    {1, 1},
		},
		query: []float32{1, 0, 0},
	}

	kb := New(WithEmbedder(emb))
	require.NoError(t, kb.LoadRecords(context.Background(), "test", testRecords()))

	candidates, err := kb.Query(context.Background(), "how do I report", 5)
	require.Error(t, err, "misaligned vector dimensions must not look like an empty result")
	assert.Contains(t, err.Error(), "dimensions")
	assert.Nil(t, candidates)
}

func TestLoadCachesEmbeddings(t *testing.T) {
	emb := &fakeEmbedder{
		vectors: map[string][]float32{"reporting": {1, 0}, "anxiety": {0, 1}, "orders": {1, 1}},
	}
	st := newFakeStore()

	kb := New(WithEmbedder(emb), WithStore(st))
	require.NoError(t, kb.LoadRecords(context.Background(), "corpus.csv", testRecords()))
	assert.Equal(t, 1, emb.calls)
	assert.Equal(t, 1, st.saves)

	// a second load of the unchanged corpus must hit the cache
	kb2 := New(WithEmbedder(emb), WithStore(st))
	require.NoError(t, kb2.LoadRecords(context.Background(), "corpus.csv", testRecords()))
	assert.Equal(t, 1, emb.calls, "cache hit must not recompute embeddings")
}

func TestLoadRejectsStaleCache(t *testing.T) {
	emb := &fakeEmbedder{}
	st := newFakeStore()
	st.matrices["corpus.csv"] = [][]float32{{1, 0}} // one row for a three-record corpus

	kb := New(WithEmbedder(emb), WithStore(st))
	err := kb.LoadRecords(context.Background(), "corpus.csv", testRecords())

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrStaleCache)
	assert.Equal(t, 0, emb.calls, "a stale cache must fail fast, not be recomputed over")
}

func TestAddGrowsCorpusAndCache(t *testing.T) {
	emb := &fakeEmbedder{
		vectors: map[string][]float32{"reporting": {1, 0}, "anxiety": {0, 1}, "orders": {1, 1}, "shelter": {0.5, 0.5}},
	}
	st := newFakeStore()

	kb := New(WithEmbedder(emb), WithStore(st))
	require.NoError(t, kb.LoadRecords(context.Background(), "corpus.csv", testRecords()))

	added := []Record{{Category: "document", Answer: "shelter contacts for Nairobi", Source: "upload.txt"}}
	require.NoError(t, kb.Add(context.Background(), added))

	assert.Equal(t, 4, kb.Size())
	assert.Len(t, st.matrices["corpus.csv"], 4, "cache must be re-persisted after Add")
}

func TestCosineSimilarity(t *testing.T) {
	assert.InDelta(t, 1.0, CosineSimilarity([]float32{1, 0}, []float32{2, 0}), 1e-9)
	assert.InDelta(t, 0.0, CosineSimilarity([]float32{1, 0}, []float32{0, 1}), 1e-9)
	assert.InDelta(t, -1.0, CosineSimilarity([]float32{1, 0}, []float32{-1, 0}), 1e-9)
	assert.Equal(t, 0.0, CosineSimilarity(nil, nil))
}

func TestParseCSV(t *testing.T) {
	input := `Category,Question,Bot Response,Language,Source
safety,How do I report harassment?,Visit the nearest police station.,en,kb
health,Ninawezaje kupata msaada?,Piga simu 1195.,sw,helpline
`

	records, err := ParseCSV(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Equal(t, "safety", records[0].Category)
	assert.Equal(t, "Visit the nearest police station.", records[0].Answer)
	assert.Equal(t, "sw", records[1].Language)

	text := records[0].RetrievalText()
	assert.Contains(t, text, "safety | How do I report harassment?")
	assert.Contains(t, text, "| en | kb")
}

func TestParseCSVAnswerColumnFallback(t *testing.T) {
	input := `Category,Question,Answer,Language,Source
safety,What is a protection order?,A court order keeping an abuser away.,en,kb
`

	records, err := ParseCSV(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "A court order keeping an abuser away.", records[0].Answer)
}
