// Command ydh is a question answering tool over per-channel video
// transcript corpora.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/y-data-house/ydh-cli/internal/adapters/driven/cache/sqlite"
	configfile "github.com/y-data-house/ydh-cli/internal/adapters/driven/config/file"
	"github.com/y-data-house/ydh-cli/internal/adapters/driven/corpus/qdrant"
	embeddingollama "github.com/y-data-house/ydh-cli/internal/adapters/driven/embedding/ollama"
	embeddingopenai "github.com/y-data-house/ydh-cli/internal/adapters/driven/embedding/openai"
	"github.com/y-data-house/ydh-cli/internal/adapters/driven/llm/deepseek"
	llmollama "github.com/y-data-house/ydh-cli/internal/adapters/driven/llm/ollama"
	promptfile "github.com/y-data-house/ydh-cli/internal/adapters/driven/prompts/file"
	"github.com/y-data-house/ydh-cli/internal/adapters/driving/cli"
	"github.com/y-data-house/ydh-cli/internal/core/domain"
	"github.com/y-data-house/ydh-cli/internal/core/ports/driven"
	"github.com/y-data-house/ydh-cli/internal/core/services"
	"github.com/y-data-house/ydh-cli/internal/logger"
)

// version is overridden at build time via ldflags.
var version = "dev"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := configfile.NewConfigStore(os.Getenv("YDH_CONFIG_DIR"))
	if err != nil {
		return fmt.Errorf("open config: %w", err)
	}

	embedding := buildEmbedding(cfg)
	llm := buildLLM(cfg)

	dimensions := cfg.GetInt("embedding.dimensions")
	if dimensions == 0 && embedding != nil {
		dimensions = embedding.Dimensions()
	}
	corpus := qdrant.New(qdrant.Config{
		BaseURL:    cfg.GetString("qdrant.url"),
		APIKey:     cfg.GetString("qdrant.api_key"),
		Dimensions: dimensions,
	})
	defer corpus.Close()

	prompts, err := promptfile.NewPromptStore(promptfile.Config{
		Root:  cfg.GetString("prompts.dir"),
		Watch: cfg.GetBool("prompts.watch"),
	})
	if err != nil {
		return fmt.Errorf("open prompt store: %w", err)
	}
	defer prompts.Close()

	var cache driven.AnswerCache
	if !cfg.GetBool("cache.disabled") {
		ttl := time.Duration(cfg.GetInt("cache.ttl_days")) * 24 * time.Hour
		sqlCache, err := sqlite.New(sqlite.Config{
			DataDir: cfg.GetString("cache.dir"),
			TTL:     ttl,
		})
		if err != nil {
			return fmt.Errorf("open answer cache: %w", err)
		}
		defer sqlCache.Close()
		cache = sqlCache
	}

	retrievalCfg := retrievalConfig(cfg)
	retriever := services.NewRetriever(corpus, embedding, llm, retrievalCfg)
	analyzer := services.NewAnalyzerService(corpus)
	promptSvc := services.NewPromptService(analyzer, services.NewSynthesizer(), prompts, cache)
	answerer := services.NewAnswerer(retriever, llm, prompts, cache)

	cli.SetVersion(version)
	cli.SetServices(cli.Services{
		Analyzer: analyzer,
		Prompts:  promptSvc,
		Ask:      answerer,
		Cache:    cache,
		Config:   cfg,
	})
	return cli.Execute()
}

// buildEmbedding constructs the configured embedding provider, nil when
// none is usable. Commands that need embeddings report the missing
// provider themselves.
func buildEmbedding(cfg driven.ConfigStore) driven.EmbeddingService {
	provider := cfg.GetString("embedding.provider")
	switch provider {
	case "", "openai":
		apiKey := cfg.GetString("openai.api_key")
		if apiKey == "" {
			apiKey = os.Getenv("OPENAI_API_KEY")
		}
		svc, err := embeddingopenai.New(embeddingopenai.Config{
			APIKey:     apiKey,
			BaseURL:    cfg.GetString("openai.base_url"),
			Model:      cfg.GetString("embedding.model"),
			Dimensions: cfg.GetInt("embedding.dimensions"),
		})
		if err != nil {
			logger.Warn("embedding provider unavailable: %v", err)
			return nil
		}
		return svc
	case "ollama":
		return embeddingollama.New(embeddingollama.Config{
			BaseURL:    cfg.GetString("ollama.url"),
			Model:      cfg.GetString("embedding.model"),
			Dimensions: cfg.GetInt("embedding.dimensions"),
		})
	default:
		logger.Warn("unknown embedding provider %q", provider)
		return nil
	}
}

// buildLLM constructs the configured LLM provider, nil when none is
// usable. A nil LLM disables expansion and re-ranking; asking fails with
// a clear error.
func buildLLM(cfg driven.ConfigStore) driven.LLMService {
	provider := cfg.GetString("llm.provider")
	switch provider {
	case "", "deepseek":
		apiKey := cfg.GetString("deepseek.api_key")
		if apiKey == "" {
			apiKey = os.Getenv("DEEPSEEK_API_KEY")
		}
		svc, err := deepseek.New(deepseek.Config{
			APIKey:            apiKey,
			BaseURL:           cfg.GetString("deepseek.base_url"),
			Model:             cfg.GetString("llm.model"),
			RequestsPerMinute: cfg.GetInt("llm.requests_per_minute"),
		})
		if err != nil {
			logger.Warn("llm provider unavailable: %v", err)
			return nil
		}
		return svc
	case "ollama":
		return llmollama.New(llmollama.Config{
			BaseURL: cfg.GetString("ollama.url"),
			Model:   cfg.GetString("llm.model"),
		})
	default:
		logger.Warn("unknown llm provider %q", provider)
		return nil
	}
}

// retrievalConfig applies config-file overrides on top of the defaults.
func retrievalConfig(cfg driven.ConfigStore) domain.RetrievalConfig {
	rc := domain.DefaultRetrievalConfig()
	if v := cfg.GetInt("retrieval.top_k"); v > 0 {
		rc.TopK = v
	}
	if v := cfg.GetInt("retrieval.max_results"); v > 0 {
		rc.MaxResults = v
	}
	if v := cfg.GetFloat("retrieval.similarity_threshold"); v > 0 {
		rc.SimilarityThreshold = v
	}
	if v := cfg.GetInt("retrieval.fusion_queries"); v > 0 {
		rc.FusionQueries = v
	}
	if v := cfg.GetInt("retrieval.max_concurrent_searches"); v > 0 {
		rc.MaxConcurrentSearches = v
	}

	// enable_expansion is the master switch; per-stage keys override it.
	if _, ok := cfg.Get("retrieval.enable_expansion"); ok && !cfg.GetBool("retrieval.enable_expansion") {
		rc.EnableHyde = false
		rc.EnableRewrite = false
		rc.EnableDecompose = false
		rc.EnableFusion = false
	}
	applyBool(cfg, "retrieval.enable_hyde", &rc.EnableHyde)
	applyBool(cfg, "retrieval.enable_rewrite", &rc.EnableRewrite)
	applyBool(cfg, "retrieval.enable_decompose", &rc.EnableDecompose)
	applyBool(cfg, "retrieval.enable_fusion", &rc.EnableFusion)
	applyBool(cfg, "retrieval.enable_rerank", &rc.EnableRerank)
	return rc
}

// applyBool overrides dst only when the key is present in the config file.
func applyBool(cfg driven.ConfigStore, key string, dst *bool) {
	if _, ok := cfg.Get(key); ok {
		*dst = cfg.GetBool(key)
	}
}
