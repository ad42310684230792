package pipeline

import (
	"context"

	"github.com/w-h-a/shebot/generator"
	"github.com/w-h-a/shebot/knowledge"
	"github.com/w-h-a/shebot/ratelimit"
	"github.com/w-h-a/shebot/safety"
	"go.uber.org/zap"
)

type Option func(*Options)

type Options struct {
	Detector         *safety.Detector
	Validator        *safety.Validator
	KnowledgeBase    *knowledge.KnowledgeBase
	Generator        generator.Generator
	Limiter          *ratelimit.Limiter
	Logger           *zap.Logger
	ContextThreshold float64
	DefaultTopK      int
	RelevanceNet     bool
	Context          context.Context
}

func WithDetector(detector *safety.Detector) Option {
	return func(o *Options) {
		o.Detector = detector
	}
}

func WithValidator(validator *safety.Validator) Option {
	return func(o *Options) {
		o.Validator = validator
	}
}

func WithKnowledgeBase(kb *knowledge.KnowledgeBase) Option {
	return func(o *Options) {
		o.KnowledgeBase = kb
	}
}

func WithGenerator(generator generator.Generator) Option {
	return func(o *Options) {
		o.Generator = generator
	}
}

func WithLimiter(limiter *ratelimit.Limiter) Option {
	return func(o *Options) {
		o.Limiter = limiter
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(o *Options) {
		o.Logger = logger
	}
}

// WithContextThreshold sets the minimum score for a candidate to make it
// into the rendered prompt context.
func WithContextThreshold(threshold float64) Option {
	return func(o *Options) {
		o.ContextThreshold = threshold
	}
}

func WithDefaultTopK(topK int) Option {
	return func(o *Options) {
		o.DefaultTopK = topK
	}
}

// WithRelevanceNet toggles the post-generation word-overlap check. It is a
// blunt instrument prone to false positives on paraphrased answers, so it
// can be switched off without touching the rest of the pipeline.
func WithRelevanceNet(enabled bool) Option {
	return func(o *Options) {
		o.RelevanceNet = enabled
	}
}

func NewOptions(opts ...Option) Options {
	options := Options{
		Logger:           zap.NewNop(),
		ContextThreshold: 0.7,
		DefaultTopK:      5,
		RelevanceNet:     true,
		Context:          context.Background(),
	}
	for _, opt := range opts {
		opt(&options)
	}
	return options
}
