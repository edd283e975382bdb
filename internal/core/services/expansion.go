package services

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/y-data-house/ydh-cli/internal/core/domain"
	"github.com/y-data-house/ydh-cli/internal/core/ports/driven"
	"github.com/y-data-house/ydh-cli/internal/logger"
)

// Generation temperatures per expansion stage. Creative stages (hypothetical
// answers, paraphrases) run hot; restatement stages run cold.
const (
	hydeTemperature      = 0.7
	rewriteTemperature   = 0.3
	decomposeTemperature = 0.3
	fusionTemperature    = 0.7

	hydeMaxTokens      = 200
	rewriteMaxTokens   = 80
	decomposeMaxTokens = 200
	fusionMaxTokens    = 250

	// Decomposition keeps between 2 and 4 sub-questions.
	decomposeMinParts = 2
	decomposeMaxParts = 4
)

// Expander produces query variants for a question via LLM-backed stages.
// Every stage is best effort: a failed or timed-out stage is logged and
// dropped, and the original question always survives.
type Expander struct {
	llm driven.LLMService
	cfg domain.RetrievalConfig
}

// NewExpander creates a new expansion engine. llm may be nil, in which case
// Expand returns only the original question.
func NewExpander(llm driven.LLMService, cfg domain.RetrievalConfig) *Expander {
	return &Expander{llm: llm, cfg: cfg}
}

// Expand runs the enabled expansion stages concurrently and returns the
// original question plus every variant the stages produced. The persona is
// used by the HyDE stage to answer in the channel's voice; it may be empty.
func (e *Expander) Expand(ctx context.Context, question, persona string) []domain.QueryVariant {
	variants := []domain.QueryVariant{{Text: question, Stage: domain.StageOriginal}}
	if e.llm == nil {
		logger.Debug("No LLM service, skipping query expansion")
		return variants
	}

	type stage struct {
		name string
		run  func(context.Context) ([]domain.QueryVariant, error)
	}
	var stages []stage
	if e.cfg.EnableHyde {
		stages = append(stages, stage{domain.StageHyde, func(ctx context.Context) ([]domain.QueryVariant, error) {
			return e.hyde(ctx, question, persona)
		}})
	}
	if e.cfg.EnableRewrite {
		stages = append(stages, stage{domain.StageRewrite, func(ctx context.Context) ([]domain.QueryVariant, error) {
			return e.rewrite(ctx, question)
		}})
	}
	if e.cfg.EnableDecompose {
		stages = append(stages, stage{domain.StageDecompose, func(ctx context.Context) ([]domain.QueryVariant, error) {
			return e.decompose(ctx, question)
		}})
	}
	if e.cfg.EnableFusion {
		stages = append(stages, stage{domain.StageFusion, func(ctx context.Context) ([]domain.QueryVariant, error) {
			return e.fusion(ctx, question)
		}})
	}
	if len(stages) == 0 {
		return variants
	}

	logger.Section("Query Expansion")
	logger.Debug("Running %d stages, concurrency %d", len(stages), e.cfg.MaxConcurrentSearches)

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	if e.cfg.MaxConcurrentSearches > 0 {
		g.SetLimit(e.cfg.MaxConcurrentSearches)
	}
	for _, st := range stages {
		g.Go(func() error {
			sctx := gctx
			if e.cfg.StageTimeout > 0 {
				var cancel context.CancelFunc
				sctx, cancel = context.WithTimeout(gctx, e.cfg.StageTimeout)
				defer cancel()
			}
			got, err := st.run(sctx)
			if err != nil {
				logger.Warn("Expansion stage %s failed: %v", st.name, err)
				return nil
			}
			mu.Lock()
			variants = append(variants, got...)
			mu.Unlock()
			logger.Debug("Stage %s produced %d variants", st.name, len(got))
			return nil
		})
	}
	_ = g.Wait() // stages never return errors, only log them

	return variants
}

// hyde generates a short hypothetical answer; its wording tends to sit
// closer in embedding space to relevant chunks than the question does.
func (e *Expander) hyde(ctx context.Context, question, persona string) ([]domain.QueryVariant, error) {
	if persona == "" {
		persona = "knowledgeable channel expert"
	}
	prompt := fmt.Sprintf(
		"You are a %s. Write a brief, plausible answer to the question below, "+
			"as it might appear in a video transcript. Two to four sentences, no preamble.\n\nQuestion: %s",
		persona, question)
	out, err := e.llm.Generate(ctx, prompt, driven.GenerateOptions{
		MaxTokens:   hydeMaxTokens,
		Temperature: hydeTemperature,
	})
	if err != nil {
		return nil, err
	}
	out = strings.TrimSpace(out)
	if out == "" {
		return nil, nil
	}
	return []domain.QueryVariant{{Text: out, Stage: domain.StageHyde}}, nil
}

// rewrite restates the question explicitly, resolving pronouns and
// abbreviations.
func (e *Expander) rewrite(ctx context.Context, question string) ([]domain.QueryVariant, error) {
	prompt := fmt.Sprintf(
		"Rewrite the following question to be fully explicit and self-contained. "+
			"Expand abbreviations and replace pronouns with what they refer to. "+
			"Output only the rewritten question.\n\nQuestion: %s", question)
	out, err := e.llm.Generate(ctx, prompt, driven.GenerateOptions{
		MaxTokens:   rewriteMaxTokens,
		Temperature: rewriteTemperature,
	})
	if err != nil {
		return nil, err
	}
	out = strings.TrimSpace(out)
	if out == "" || strings.EqualFold(out, question) {
		return nil, nil
	}
	return []domain.QueryVariant{{Text: out, Stage: domain.StageRewrite}}, nil
}

// decompose splits a compound question into 2-4 sub-questions, one per line.
func (e *Expander) decompose(ctx context.Context, question string) ([]domain.QueryVariant, error) {
	prompt := fmt.Sprintf(
		"Break the following question into %d to %d simpler sub-questions that "+
			"together cover it. Output one sub-question per line, nothing else.\n\nQuestion: %s",
		decomposeMinParts, decomposeMaxParts, question)
	out, err := e.llm.Generate(ctx, prompt, driven.GenerateOptions{
		MaxTokens:   decomposeMaxTokens,
		Temperature: decomposeTemperature,
	})
	if err != nil {
		return nil, err
	}
	parts := parseLines(out, decomposeMaxParts)
	if len(parts) < decomposeMinParts {
		// A question simple enough not to decompose adds nothing.
		return nil, nil
	}
	variants := make([]domain.QueryVariant, 0, len(parts))
	for _, p := range parts {
		variants = append(variants, domain.QueryVariant{Text: p, Stage: domain.StageDecompose})
	}
	return variants, nil
}

// fusion asks for paraphrases of the question to widen recall.
func (e *Expander) fusion(ctx context.Context, question string) ([]domain.QueryVariant, error) {
	n := e.cfg.FusionQueries
	if n <= 0 {
		n = 4
	}
	prompt := fmt.Sprintf(
		"Generate %d different paraphrases of the following question, varying "+
			"vocabulary and phrasing but keeping the meaning. Output one per line, "+
			"nothing else.\n\nQuestion: %s", n, question)
	out, err := e.llm.Generate(ctx, prompt, driven.GenerateOptions{
		MaxTokens:   fusionMaxTokens,
		Temperature: fusionTemperature,
	})
	if err != nil {
		return nil, err
	}
	parts := parseLines(out, n)
	variants := make([]domain.QueryVariant, 0, len(parts))
	for _, p := range parts {
		variants = append(variants, domain.QueryVariant{Text: p, Stage: domain.StageFusion})
	}
	return variants, nil
}

// parseLines extracts up to max non-empty lines, stripping common list
// prefixes ("1.", "-", "*") that models add despite instructions.
func parseLines(out string, max int) []string {
	var lines []string
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		line = strings.TrimLeft(line, "-*•0123456789.) ")
		if line == "" {
			continue
		}
		lines = append(lines, line)
		if len(lines) >= max {
			break
		}
	}
	return lines
}
