package safety

import (
	"context"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type Option func(*Options)

type Options struct {
	Keywords  map[string][]string
	Responses map[string]string
	Context   context.Context
}

func WithKeywords(keywords map[string][]string) Option {
	return func(o *Options) {
		if len(keywords) > 0 {
			o.Keywords = keywords
		}
	}
}

func WithResponses(responses map[string]string) Option {
	return func(o *Options) {
		for lang, msg := range responses {
			o.Responses[lang] = msg
		}
	}
}

func NewOptions(opts ...Option) Options {
	responses := make(map[string]string, len(defaultResponses))
	for lang, msg := range defaultResponses {
		responses[lang] = msg
	}

	options := Options{
		Keywords:  defaultKeywords,
		Responses: responses,
		Context:   context.Background(),
	}
	for _, opt := range opts {
		opt(&options)
	}
	return options
}

// FileConfig is the optional YAML override for keyword sets and hotline
// messages, so the safety team can extend either without a rebuild.
type FileConfig struct {
	Keywords  map[string][]string `yaml:"keywords"`
	Responses map[string]string   `yaml:"responses"`
}

func LoadConfig(path string) (*FileConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read safety config: %w", err)
	}

	var cfg FileConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse safety config: %w", err)
	}

	return &cfg, nil
}
