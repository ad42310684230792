package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/alecthomas/kong"
	"github.com/joho/godotenv"
	"github.com/w-h-a/shebot/embedder"
	googleembedder "github.com/w-h-a/shebot/embedder/google"
	openaiembedder "github.com/w-h-a/shebot/embedder/openai"
	"github.com/w-h-a/shebot/generator"
	googlegenerator "github.com/w-h-a/shebot/generator/google"
	"github.com/w-h-a/shebot/knowledge"
	"github.com/w-h-a/shebot/knowledge/providers/store"
	boltstore "github.com/w-h-a/shebot/knowledge/providers/store/bolt"
	"github.com/w-h-a/shebot/pipeline"
)

// Standalone knowledge-base mode: query the corpus from a terminal without
// the HTTP server. Backend failures print as messages instead of crashing
// the session.

var cfg struct {
	Corpus           string  `help:"Path to the knowledge CSV" default:"data/knowledge.csv"`
	StoreLocation    string  `help:"Bolt file path for the embedding cache" default:"shebot.db"`
	EmbedderProvider string  `help:"Embedding backend (openai|google)" enum:"openai,google" default:"openai"`
	EmbedderModel    string  `help:"Model identifier for embeddings" default:"text-embedding-3-large"`
	GeneratorModel   string  `help:"Model identifier for generation" default:"gemini-1.5-flash"`
	TopK             int     `help:"Number of records to retrieve" default:"5"`
	Threshold        float64 `help:"Minimum similarity for retrieval" default:"0.5"`
	ContextThreshold float64 `help:"Minimum similarity for prompt context" default:"0.7"`
}

func main() {
	_ = kong.Parse(&cfg)
	_ = godotenv.Load()
	ctx := context.Background()

	var emb embedder.Embedder
	switch cfg.EmbedderProvider {
	case "google":
		emb = googleembedder.NewEmbedder(
			embedder.WithApiKey(mustEnv("GEMINI_API_KEY")),
			embedder.WithModel(cfg.EmbedderModel),
		)
	default:
		emb = openaiembedder.NewEmbedder(
			embedder.WithApiKey(mustEnv("OPENAI_API_KEY")),
			embedder.WithModel(cfg.EmbedderModel),
		)
	}

	gen := googlegenerator.NewGenerator(
		generator.WithApiKey(mustEnv("GEMINI_API_KEY")),
		generator.WithModel(cfg.GeneratorModel),
	)

	st, err := boltstore.NewStore(store.WithLocation(cfg.StoreLocation))
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to open embedding cache: %v\n", err)
		os.Exit(1)
	}
	defer st.Close()

	kb := knowledge.New(
		knowledge.WithEmbedder(emb),
		knowledge.WithStore(st),
		knowledge.WithThreshold(cfg.Threshold),
	)
	if err := kb.Load(ctx, cfg.Corpus); err != nil {
		fmt.Fprintf(os.Stderr, "failed to load knowledge base: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Loaded %d records from %s\n", kb.Size(), cfg.Corpus)

	builder := pipeline.NewContextBuilder(cfg.ContextThreshold)
	scanner := bufio.NewScanner(os.Stdin)

	for {
		fmt.Print("\nAsk a question (or type 'exit'): ")
		if !scanner.Scan() {
			break
		}

		query := strings.TrimSpace(scanner.Text())
		if query == "" {
			continue
		}
		if strings.EqualFold(query, "exit") {
			break
		}

		candidates, err := kb.Query(ctx, query, cfg.TopK)
		if err != nil {
			fmt.Printf("Error retrieving context: %v\n", err)
			continue
		}

		if len(candidates) == 0 {
			fmt.Println("\nNo relevant information found.")
			continue
		}

		prompt := builder.Build(query, candidates)

		answer, err := gen.Generate(ctx, prompt.Text)
		if err != nil {
			fmt.Printf("Error generating answer: %v\n", err)
			continue
		}

		fmt.Println("\nAnswer:")
		fmt.Println(answer)
	}
}

func mustEnv(key string) string {
	v := os.Getenv(key)
	if v == "" {
		fmt.Fprintf(os.Stderr, "%s is not set\n", key)
		os.Exit(1)
	}
	return v
}
