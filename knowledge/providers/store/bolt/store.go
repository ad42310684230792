package bolt

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/w-h-a/shebot/knowledge/providers/store"
	"go.etcd.io/bbolt"
)

var bucketEmbeddings = []byte("embeddings")

type boltStore struct {
	options store.Options
	db      *bbolt.DB
}

func (s *boltStore) Exists(ctx context.Context, corpus string) (bool, error) {
	var exists bool
	err := s.db.View(func(tx *bbolt.Tx) error {
		exists = tx.Bucket(bucketEmbeddings).Get([]byte(corpus)) != nil
		return nil
	})
	return exists, err
}

func (s *boltStore) Load(ctx context.Context, corpus string) ([][]float32, error) {
	var matrix [][]float32
	err := s.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket(bucketEmbeddings).Get([]byte(corpus))
		if data == nil {
			return fmt.Errorf("no embeddings cached for corpus %s", corpus)
		}
		return json.Unmarshal(data, &matrix)
	})
	if err != nil {
		return nil, err
	}
	return matrix, nil
}

func (s *boltStore) Save(ctx context.Context, corpus string, matrix [][]float32) error {
	data, err := json.Marshal(matrix)
	if err != nil {
		return err
	}
	return s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketEmbeddings).Put([]byte(corpus), data)
	})
}

func (s *boltStore) Close() error {
	return s.db.Close()
}

func NewStore(opts ...store.Option) (*boltStore, error) {
	options := store.NewOptions(opts...)

	db, err := bbolt.Open(options.Location, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open bolt db: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketEmbeddings)
		return err
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &boltStore{
		options: options,
		db:      db,
	}, nil
}
