package knowledge

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/w-h-a/shebot/embedder"
)

// ErrStaleCache means the persisted embedding matrix no longer lines up with
// the corpus. Proceeding would silently pair records with the wrong vectors,
// so callers must treat this as fatal.
var ErrStaleCache = errors.New("cached embeddings do not match corpus size")

type KnowledgeBase struct {
	options Options
	corpus  string
	records []Record
	matrix  [][]float32
	mtx     sync.RWMutex
}

// Load parses records from the CSV at source and either restores their
// embedding matrix from the configured store or computes and persists one.
// A cache with the wrong row count is rejected with ErrStaleCache, never
// truncated or padded.
func (kb *KnowledgeBase) Load(ctx context.Context, source string) error {
	records, err := ReadCSV(source)
	if err != nil {
		return err
	}

	return kb.load(ctx, source, records)
}

// LoadRecords is Load for corpora that do not come from CSV files, e.g.
// pre-chunked uploaded documents.
func (kb *KnowledgeBase) LoadRecords(ctx context.Context, corpus string, records []Record) error {
	return kb.load(ctx, corpus, records)
}

func (kb *KnowledgeBase) load(ctx context.Context, corpus string, records []Record) error {
	matrix, err := kb.restoreOrEmbed(ctx, corpus, records)
	if err != nil {
		return err
	}

	kb.mtx.Lock()
	defer kb.mtx.Unlock()

	kb.corpus = corpus
	kb.records = records
	kb.matrix = matrix

	return nil
}

func (kb *KnowledgeBase) restoreOrEmbed(ctx context.Context, corpus string, records []Record) ([][]float32, error) {
	if kb.options.Store != nil {
		exists, err := kb.options.Store.Exists(ctx, corpus)
		if err != nil {
			return nil, fmt.Errorf("failed to check embedding cache: %w", err)
		}

		if exists {
			matrix, err := kb.options.Store.Load(ctx, corpus)
			if err != nil {
				return nil, fmt.Errorf("failed to load embedding cache: %w", err)
			}
			if len(matrix) != len(records) {
				return nil, fmt.Errorf("%w: cache has %d rows, corpus has %d", ErrStaleCache, len(matrix), len(records))
			}
			return matrix, nil
		}
	}

	texts := make([]string, len(records))
	for i, rec := range records {
		texts[i] = rec.RetrievalText()
	}

	matrix, err := kb.options.Embedder.Embed(ctx, texts, embedder.PurposeDocument)
	if err != nil {
		return nil, fmt.Errorf("failed to embed corpus: %w", err)
	}

	if len(matrix) != len(records) {
		return nil, fmt.Errorf("embedder returned %d vectors for %d records", len(matrix), len(records))
	}

	if kb.options.Store != nil {
		if err := kb.options.Store.Save(ctx, corpus, matrix); err != nil {
			return nil, fmt.Errorf("failed to persist embedding cache: %w", err)
		}
	}

	return matrix, nil
}

// Add embeds new records and appends them to the corpus, re-persisting the
// cache so a restart sees the grown corpus and matrix together.
func (kb *KnowledgeBase) Add(ctx context.Context, records []Record) error {
	if len(records) == 0 {
		return nil
	}

	texts := make([]string, len(records))
	for i, rec := range records {
		texts[i] = rec.RetrievalText()
	}

	vectors, err := kb.options.Embedder.Embed(ctx, texts, embedder.PurposeDocument)
	if err != nil {
		return fmt.Errorf("failed to embed documents: %w", err)
	}

	if len(vectors) != len(records) {
		return fmt.Errorf("embedder returned %d vectors for %d records", len(vectors), len(records))
	}

	kb.mtx.Lock()
	defer kb.mtx.Unlock()

	kb.records = append(kb.records, records...)
	kb.matrix = append(kb.matrix, vectors...)

	if kb.options.Store != nil && kb.corpus != "" {
		if err := kb.options.Store.Save(ctx, kb.corpus, kb.matrix); err != nil {
			return fmt.Errorf("failed to persist embedding cache: %w", err)
		}
	}

	return nil
}

// Query embeds text, scores it against every stored record by cosine
// similarity, and returns up to topK candidates above the relevance
// threshold in descending score order. Equal scores keep corpus order.
// An empty result is not an error.
func (kb *KnowledgeBase) Query(ctx context.Context, text string, topK int) ([]Candidate, error) {
	if topK < 1 {
		return nil, nil
	}

	vectors, err := kb.options.Embedder.Embed(ctx, []string{text}, embedder.PurposeQuery)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}
	if len(vectors) != 1 {
		return nil, errors.New("embedder returned no vector for query")
	}

	kb.mtx.RLock()
	defer kb.mtx.RUnlock()

	// A dimension mismatch means the embedder changed under an existing
	// cache. Scoring would silently compare misaligned vectors, so fail
	// instead.
	if len(kb.matrix) > 0 && len(vectors[0]) != len(kb.matrix[0]) {
		return nil, fmt.Errorf("query embedding has %d dimensions but the corpus matrix has %d", len(vectors[0]), len(kb.matrix[0]))
	}

	candidates := make([]Candidate, 0, len(kb.records))
	for i, rec := range kb.records {
		score := CosineSimilarity(vectors[0], kb.matrix[i])
		if score <= kb.options.Threshold {
			continue
		}
		candidates = append(candidates, Candidate{Record: rec, Index: i, Score: score})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Score > candidates[j].Score
	})

	if len(candidates) > topK {
		candidates = candidates[:topK]
	}

	return candidates, nil
}

func (kb *KnowledgeBase) Size() int {
	kb.mtx.RLock()
	defer kb.mtx.RUnlock()
	return len(kb.records)
}

func CosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 || len(b) == 0 {
		return 0.0
	}

	var dotProduct, normA, normB float64
	for i := range a {
		dotProduct += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return 0.0
	}

	return dotProduct / (math.Sqrt(normA) * math.Sqrt(normB))
}

func New(opts ...Option) *KnowledgeBase {
	options := NewOptions(opts...)

	if options.Embedder == nil {
		panic("embedder is required")
	}

	return &KnowledgeBase{
		options: options,
	}
}
