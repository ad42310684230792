package store

import "context"

// Store persists the embedding matrix for a corpus, keyed by corpus identity.
// Save overwrites any existing matrix for the same corpus.
type Store interface {
	Exists(ctx context.Context, corpus string) (bool, error)
	Load(ctx context.Context, corpus string) ([][]float32, error)
	Save(ctx context.Context, corpus string, matrix [][]float32) error
}
