package pipeline

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/w-h-a/shebot/knowledge"
	"go.uber.org/zap"
)

const (
	ProviderEmergency = "rule/emergency"
	ProviderLLM       = "llm"

	unsureAnswer   = "I'm unsure. For help, contact 999 or 1195."
	offTopicAnswer = "I'm unsure. Please provide more details or contact 999 or 1195 for help."
	failureAnswer  = "I'm sorry, I couldn't respond just now. If you need urgent help, contact 999 or 1195."
)

type Request struct {
	Query    string `json:"query"`
	UserLang string `json:"user_lang,omitempty"`
	TopK     int    `json:"top_k,omitempty"`
	Client   string `json:"-"`
}

type Retrieved struct {
	Text     string         `json:"text"`
	Score    float64        `json:"score"`
	Metadata map[string]any `json:"metadata"`
}

type Response struct {
	Answer       string      `json:"answer"`
	UsedProvider string      `json:"used_provider"`
	Retrieved    []Retrieved `json:"retrieved"`
	Timestamp    string      `json:"ts"`
}

// Pipeline runs one query end to end: rate limit, emergency short-circuit,
// retrieval, context building, generation, then the safety and relevance
// passes. It holds no per-request state besides the injected limiter.
type Pipeline struct {
	options Options
	builder *ContextBuilder
}

func (p *Pipeline) Handle(ctx context.Context, req Request) (*Response, error) {
	// 1. Rate limit before any work
	if p.options.Limiter != nil && !p.options.Limiter.Allow(req.Client) {
		return nil, ErrRateLimited
	}

	if len(strings.TrimSpace(req.Query)) == 0 {
		return nil, ErrEmptyQuery
	}

	// 2. Emergency short-circuit takes absolute precedence over retrieval
	// and generation
	if p.options.Detector.Detect(req.Query) {
		return p.respond(p.options.Detector.Respond(req.UserLang), ProviderEmergency, nil), nil
	}

	topK := req.TopK
	if topK <= 0 {
		topK = p.options.DefaultTopK
	}

	// 3. Retrieve
	candidates, err := p.options.KnowledgeBase.Query(ctx, req.Query, topK)
	if err != nil {
		return nil, fmt.Errorf("retrieval failed: %w", err)
	}

	if len(candidates) == 0 {
		return p.respond(unsureAnswer, ProviderLLM, nil), nil
	}

	// 4. Compose and generate
	prompt := p.builder.Build(req.Query, candidates)

	answer, err := p.options.Generator.Generate(ctx, prompt.Text)
	if err != nil {
		// The product must never leave a user without guidance, so a
		// backend failure becomes an apology with the hotlines.
		p.options.Logger.Error("generation failed", zap.Error(err))
		return p.respond(failureAnswer, ProviderLLM, candidates), nil
	}

	// 5. Post-generation safety pass
	if safe, reason := p.options.Validator.Validate(answer); !safe {
		answer = fmt.Sprintf("I'm sorry, I can't assist with that due to safety concerns: %s. Please contact 999 or 1195.", reason)
	}

	// 6. Relevance net: an answer sharing no vocabulary with the query is
	// assumed off-topic unless it already admits uncertainty
	if p.options.RelevanceNet && !sharesVocabulary(req.Query, answer) && !strings.Contains(strings.ToLower(answer), "unsure") {
		answer = offTopicAnswer
	}

	p.options.Logger.Info("answered query",
		zap.String("user", "[redacted]"),
		zap.String("provider", ProviderLLM),
		zap.Int("retrieved", len(candidates)),
		zap.Bool("context", prompt.HasContext))

	return p.respond(answer, ProviderLLM, candidates), nil
}

func (p *Pipeline) respond(answer string, provider string, candidates []knowledge.Candidate) *Response {
	retrieved := make([]Retrieved, 0, len(candidates))
	for _, c := range candidates {
		retrieved = append(retrieved, Retrieved{
			Text:     c.Record.RetrievalText(),
			Score:    c.Score,
			Metadata: c.Metadata(),
		})
	}

	return &Response{
		Answer:       answer,
		UsedProvider: provider,
		Retrieved:    retrieved,
		Timestamp:    time.Now().UTC().Format(time.RFC3339),
	}
}

func sharesVocabulary(query, answer string) bool {
	queryWords := map[string]struct{}{}
	for _, word := range strings.Fields(strings.ToLower(query)) {
		queryWords[word] = struct{}{}
	}

	for _, word := range strings.Fields(strings.ToLower(answer)) {
		if _, ok := queryWords[word]; ok {
			return true
		}
	}

	return false
}

func New(opts ...Option) *Pipeline {
	options := NewOptions(opts...)

	if options.Detector == nil {
		panic("detector is required")
	}

	if options.Validator == nil {
		panic("validator is required")
	}

	if options.KnowledgeBase == nil {
		panic("knowledge base is required")
	}

	if options.Generator == nil {
		panic("generator is required")
	}

	return &Pipeline{
		options: options,
		builder: NewContextBuilder(options.ContextThreshold),
	}
}
