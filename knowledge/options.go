package knowledge

import (
	"context"

	"github.com/w-h-a/shebot/embedder"
	"github.com/w-h-a/shebot/knowledge/providers/store"
)

type Option func(*Options)

type Options struct {
	Embedder  embedder.Embedder
	Store     store.Store
	Threshold float64
	Context   context.Context
}

func WithEmbedder(embedder embedder.Embedder) Option {
	return func(o *Options) {
		o.Embedder = embedder
	}
}

func WithStore(store store.Store) Option {
	return func(o *Options) {
		o.Store = store
	}
}

// WithThreshold sets the minimum similarity a candidate must exceed to be
// returned from Query.
func WithThreshold(threshold float64) Option {
	return func(o *Options) {
		o.Threshold = threshold
	}
}

func NewOptions(opts ...Option) Options {
	options := Options{
		Threshold: 0.5,
		Context:   context.Background(),
	}
	for _, opt := range opts {
		opt(&options)
	}
	return options
}
