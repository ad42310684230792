package ratelimit

import (
	"context"
	"time"

	"go.uber.org/zap"
)

type Option func(*Options)

type Options struct {
	Limit   int
	Window  time.Duration
	Now     func() time.Time
	Logger  *zap.Logger
	Context context.Context
}

func WithLimit(limit int) Option {
	return func(o *Options) {
		o.Limit = limit
	}
}

func WithWindow(window time.Duration) Option {
	return func(o *Options) {
		o.Window = window
	}
}

// WithNow overrides the clock. Tests use this to walk the window forward
// without sleeping.
func WithNow(now func() time.Time) Option {
	return func(o *Options) {
		o.Now = now
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(o *Options) {
		o.Logger = logger
	}
}

func NewOptions(opts ...Option) Options {
	options := Options{
		Limit:   100,
		Window:  60 * time.Second,
		Now:     time.Now,
		Logger:  zap.NewNop(),
		Context: context.Background(),
	}
	for _, opt := range opts {
		opt(&options)
	}
	return options
}
