package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	"github.com/joho/godotenv"
	"github.com/w-h-a/shebot/embedder"
	googleembedder "github.com/w-h-a/shebot/embedder/google"
	openaiembedder "github.com/w-h-a/shebot/embedder/openai"
	"github.com/w-h-a/shebot/generator"
	anthropicgenerator "github.com/w-h-a/shebot/generator/anthropic"
	googlegenerator "github.com/w-h-a/shebot/generator/google"
	openaigenerator "github.com/w-h-a/shebot/generator/openai"
	"github.com/w-h-a/shebot/knowledge"
	"github.com/w-h-a/shebot/knowledge/providers/store"
	boltstore "github.com/w-h-a/shebot/knowledge/providers/store/bolt"
	postgresstore "github.com/w-h-a/shebot/knowledge/providers/store/postgres"
	"github.com/w-h-a/shebot/pipeline"
	"github.com/w-h-a/shebot/ratelimit"
	"github.com/w-h-a/shebot/safety"
	"github.com/w-h-a/shebot/server"
	httpserver "github.com/w-h-a/shebot/server/http"
	"go.uber.org/zap"
)

const systemPrompt = `You are SHEBot: a Kenyan women's safety assistant.
Follow Safety by Design: privacy-first, trauma-informed, concise.
If emergency keywords appear, return the emergency contacts first.
Answer in the same language the user uses (English, Swahili, or Sheng) when possible.
If unsure, say so and offer reputable local contacts.
You are supportive and non-judgmental.`

var cfg struct {
	// Server config
	Address string `help:"Address to listen on" default:":8000"`

	// Corpus config
	Corpus       string `help:"Path to the knowledge CSV" default:"data/knowledge.csv"`
	SafetyConfig string `help:"Optional YAML override for emergency keywords and responses" default:""`

	// Store config
	Store         string `help:"Embedding cache backend (bolt|postgres)" enum:"bolt,postgres" default:"bolt"`
	StoreLocation string `help:"Bolt file path or postgres DSN" default:"shebot.db"`

	// Embedder config
	EmbedderProvider string `help:"Embedding backend (openai|google)" enum:"openai,google" default:"openai"`
	EmbedderModel    string `help:"Model identifier for embeddings" default:"text-embedding-3-large"`

	// Generator config
	GeneratorProvider string `help:"Generation backend (google|openai|anthropic)" enum:"google,openai,anthropic" default:"google"`
	GeneratorModel    string `help:"Model identifier for generation" default:"gemini-1.5-flash"`

	// Pipeline config
	TopK               int     `help:"Default number of records to retrieve" default:"5"`
	RetrievalThreshold float64 `help:"Minimum similarity for retrieval" default:"0.5"`
	ContextThreshold   float64 `help:"Minimum similarity for prompt context" default:"0.7"`

	// Rate limit config
	RateLimit   int           `help:"Max requests per client per window" default:"100"`
	RateWindow  time.Duration `help:"Rate limit window" default:"60s"`
	RateSweep   time.Duration `help:"Interval for evicting idle rate limit clients" default:"5m"`
}

func main() {
	_ = kong.Parse(&cfg)
	_ = godotenv.Load()

	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// 1. Resolve providers; a missing credential for the selected provider
	// is a startup failure, not a silent runtime one
	emb := newEmbedder(logger)
	gen := newGenerator(logger)

	// 2. Open the embedding cache
	st := newStore(logger)

	// 3. Load the corpus (fatal on a stale cache)
	kb := knowledge.New(
		knowledge.WithEmbedder(emb),
		knowledge.WithStore(st),
		knowledge.WithThreshold(cfg.RetrievalThreshold),
	)
	if err := kb.Load(ctx, cfg.Corpus); err != nil {
		logger.Fatal("failed to load knowledge base", zap.Error(err))
	}
	logger.Info("knowledge base loaded", zap.String("corpus", cfg.Corpus), zap.Int("records", kb.Size()))

	// 4. Safety components
	detectorOpts := []safety.Option{}
	if cfg.SafetyConfig != "" {
		fileCfg, err := safety.LoadConfig(cfg.SafetyConfig)
		if err != nil {
			logger.Fatal("failed to load safety config", zap.Error(err))
		}
		detectorOpts = append(detectorOpts,
			safety.WithKeywords(fileCfg.Keywords),
			safety.WithResponses(fileCfg.Responses),
		)
	}
	detector := safety.NewDetector(detectorOpts...)
	validator := safety.NewValidator()

	// 5. Rate limiter with background eviction
	limiter := ratelimit.New(
		ratelimit.WithLimit(cfg.RateLimit),
		ratelimit.WithWindow(cfg.RateWindow),
		ratelimit.WithLogger(logger),
	)
	go limiter.StartEviction(ctx, cfg.RateSweep)

	// 6. Pipeline
	p := pipeline.New(
		pipeline.WithDetector(detector),
		pipeline.WithValidator(validator),
		pipeline.WithKnowledgeBase(kb),
		pipeline.WithGenerator(gen),
		pipeline.WithLimiter(limiter),
		pipeline.WithLogger(logger),
		pipeline.WithContextThreshold(cfg.ContextThreshold),
		pipeline.WithDefaultTopK(cfg.TopK),
	)

	// 7. Serve
	srv := httpserver.NewServer(
		p,
		kb,
		server.WithAddress(cfg.Address),
		server.WithLogger(logger),
		httpserver.WithMiddleware(
			httpserver.RequestID(),
			httpserver.Logging(logger),
		),
	)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Run()
	}()

	select {
	case err := <-errCh:
		if err != nil {
			logger.Fatal("server failed", zap.Error(err))
		}
	case <-ctx.Done():
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		if err := srv.Stop(shutdownCtx); err != nil {
			logger.Error("failed to stop server cleanly", zap.Error(err))
		}
	}
}

func newEmbedder(logger *zap.Logger) embedder.Embedder {
	switch cfg.EmbedderProvider {
	case "google":
		key := mustKey(logger, "GEMINI_API_KEY", cfg.EmbedderProvider)
		return googleembedder.NewEmbedder(
			embedder.WithApiKey(key),
			embedder.WithModel(cfg.EmbedderModel),
		)
	default:
		key := mustKey(logger, "OPENAI_API_KEY", cfg.EmbedderProvider)
		return openaiembedder.NewEmbedder(
			embedder.WithApiKey(key),
			embedder.WithModel(cfg.EmbedderModel),
		)
	}
}

func newGenerator(logger *zap.Logger) generator.Generator {
	switch cfg.GeneratorProvider {
	case "openai":
		key := mustKey(logger, "OPENAI_API_KEY", cfg.GeneratorProvider)
		return openaigenerator.NewGenerator(
			generator.WithApiKey(key),
			generator.WithModel(cfg.GeneratorModel),
			generator.WithSystemPrompt(systemPrompt),
		)
	case "anthropic":
		key := mustKey(logger, "ANTHROPIC_API_KEY", cfg.GeneratorProvider)
		return anthropicgenerator.NewGenerator(
			generator.WithApiKey(key),
			generator.WithModel(cfg.GeneratorModel),
			generator.WithSystemPrompt(systemPrompt),
		)
	default:
		key := mustKey(logger, "GEMINI_API_KEY", cfg.GeneratorProvider)
		return googlegenerator.NewGenerator(
			generator.WithApiKey(key),
			generator.WithModel(cfg.GeneratorModel),
			generator.WithSystemPrompt(systemPrompt),
		)
	}
}

func newStore(logger *zap.Logger) store.Store {
	switch cfg.Store {
	case "postgres":
		st, err := postgresstore.NewStore(store.WithLocation(cfg.StoreLocation))
		if err != nil {
			logger.Fatal("failed to open postgres store", zap.Error(err))
		}
		return st
	default:
		st, err := boltstore.NewStore(store.WithLocation(cfg.StoreLocation))
		if err != nil {
			logger.Fatal("failed to open bolt store", zap.Error(err))
		}
		return st
	}
}

func mustKey(logger *zap.Logger, env string, provider string) string {
	key := os.Getenv(env)
	if key == "" {
		logger.Fatal("missing credential for selected provider",
			zap.String("provider", provider),
			zap.String("env", env))
	}
	return key
}
