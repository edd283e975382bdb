package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/y-data-house/ydh-cli/internal/core/domain"
	"github.com/y-data-house/ydh-cli/internal/core/ports/driven"
	"github.com/y-data-house/ydh-cli/internal/logger"
)

const rerankMaxTokens = 60

// Retriever runs the full retrieval pipeline for one question: expansion,
// per-variant vector search, merge and dedup, optional LLM re-ranking and
// the final threshold/top-k cut. All searches stay inside one channel's
// collection.
type Retriever struct {
	corpus    driven.CorpusStore
	embedding driven.EmbeddingService
	llm       driven.LLMService
	expander  *Expander
	cfg       domain.RetrievalConfig
}

// NewRetriever creates a new retriever. llm may be nil; expansion and
// re-ranking are then skipped.
func NewRetriever(
	corpus driven.CorpusStore,
	embedding driven.EmbeddingService,
	llm driven.LLMService,
	cfg domain.RetrievalConfig,
) *Retriever {
	return &Retriever{
		corpus:    corpus,
		embedding: embedding,
		llm:       llm,
		expander:  NewExpander(llm, cfg),
		cfg:       cfg,
	}
}

// Retrieve returns the channel's best supporting chunks for the question,
// along with the question classification used downstream for generation.
func (r *Retriever) Retrieve(
	ctx context.Context, channel, question, persona string,
) ([]domain.RetrievalCandidate, domain.QuestionType, error) {
	qt := classifyQuestion(question)
	queryID := uuid.NewString()
	logger.Section("Retrieval")
	logger.Debug("Query %s: channel=%q type=%s", queryID, channel, qt)

	if r.embedding == nil {
		return nil, qt, fmt.Errorf("retrieve: %w", domain.ErrEmbeddingUnavailable)
	}

	variants := r.expander.Expand(ctx, question, persona)
	logger.Debug("Query %s: %d query variants", queryID, len(variants))

	texts := make([]string, len(variants))
	for i, v := range variants {
		texts[i] = v.Text
	}
	embeddings, err := r.embedding.EmbedBatch(ctx, texts)
	if err != nil {
		return nil, qt, fmt.Errorf("embed query variants: %w", err)
	}
	if len(embeddings) != len(variants) {
		return nil, qt, fmt.Errorf("embed query variants: got %d embeddings for %d texts",
			len(embeddings), len(variants))
	}

	merged, err := r.searchVariants(ctx, channel, variants, embeddings)
	if err != nil {
		return nil, qt, err
	}
	logger.Debug("Query %s: %d merged candidates", queryID, len(merged))

	if r.shouldRerank(len(merged), qt) {
		merged = r.rerank(ctx, question, merged)
	}

	final := r.finalCut(merged)
	logger.Info("Query %s: %d candidates after final cut", queryID, len(final))
	return final, qt, nil
}

// searchVariants queries the channel collection once per variant and merges
// hits by chunk identity, keeping the best similarity and the union of
// stage tags.
func (r *Retriever) searchVariants(
	ctx context.Context,
	channel string,
	variants []domain.QueryVariant,
	embeddings [][]float32,
) ([]domain.RetrievalCandidate, error) {
	byRef := make(map[domain.ChunkRef]*domain.RetrievalCandidate)
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	if r.cfg.MaxConcurrentSearches > 0 {
		g.SetLimit(r.cfg.MaxConcurrentSearches)
	}
	for i, v := range variants {
		emb := embeddings[i]
		g.Go(func() error {
			k := r.cfg.StageResults
			if v.Stage == domain.StageOriginal {
				k = r.cfg.MaxResults
			}
			hits, err := r.corpus.Query(gctx, channel, emb, k)
			if err != nil {
				if errors.Is(err, domain.ErrMissingCorpus) {
					return err
				}
				// Variant searches are best effort; only the original
				// query is load-bearing.
				if v.Stage == domain.StageOriginal {
					return fmt.Errorf("search original query: %w", err)
				}
				logger.Warn("Variant search (%s) failed: %v", v.Stage, err)
				return nil
			}
			mu.Lock()
			defer mu.Unlock()
			for _, hit := range hits {
				ref := hit.Chunk.Ref()
				if existing, ok := byRef[ref]; ok {
					if hit.Similarity > existing.Similarity {
						existing.Similarity = hit.Similarity
					}
					if !containsStage(existing.Stages, v.Stage) {
						existing.Stages = append(existing.Stages, v.Stage)
					}
					continue
				}
				c := hit
				c.Stages = []string{v.Stage}
				byRef[ref] = &c
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	merged := make([]domain.RetrievalCandidate, 0, len(byRef))
	for _, c := range byRef {
		merged = append(merged, *c)
	}
	sortCandidates(merged)
	return merged, nil
}

func (r *Retriever) shouldRerank(merged int, qt domain.QuestionType) bool {
	return r.cfg.EnableRerank &&
		r.llm != nil &&
		merged > r.cfg.RerankThreshold &&
		qt == domain.QuestionAnalytical
}

// rerank asks the LLM to order candidates by relevance to the question.
// The reply is a comma-separated list of 1-based indexes; candidates it
// names get a position-derived rank score. Any failure falls back to the
// similarity ordering.
func (r *Retriever) rerank(
	ctx context.Context, question string, candidates []domain.RetrievalCandidate,
) []domain.RetrievalCandidate {
	var b strings.Builder
	fmt.Fprintf(&b, "Order the following excerpts by relevance to the question. "+
		"Reply with only the excerpt numbers, most relevant first, comma-separated.\n\n"+
		"Question: %s\n\n", question)
	for i, c := range candidates {
		fmt.Fprintf(&b, "[%d] %s\n", i+1, excerpt(c.Chunk.Text, 200))
	}

	out, err := r.llm.Generate(ctx, b.String(), driven.GenerateOptions{
		MaxTokens:   rerankMaxTokens,
		Temperature: 0,
	})
	if err != nil {
		logger.Warn("Re-ranking failed, keeping similarity order: %v", err)
		return candidates
	}

	order := parseIndexList(out, len(candidates))
	if len(order) == 0 {
		logger.Warn("Re-ranking reply unparseable, keeping similarity order: %q", out)
		return candidates
	}

	reranked := make([]domain.RetrievalCandidate, 0, len(candidates))
	seen := make(map[int]bool, len(order))
	for pos, idx := range order {
		c := candidates[idx]
		c.RankScore = 1.0 - 0.1*float64(pos)
		if c.RankScore < 0 {
			c.RankScore = 0
		}
		c.Reranked = true
		reranked = append(reranked, c)
		seen[idx] = true
	}
	// Candidates the model skipped keep their similarity score and trail.
	for i, c := range candidates {
		if !seen[i] {
			reranked = append(reranked, c)
		}
	}
	logger.Debug("Re-ranked %d of %d candidates", len(seen), len(candidates))
	return reranked
}

// finalCut drops weak matches and bounds the list to TopK. Re-ranked
// ordering is preserved; the similarity threshold applies to the raw
// similarity in both cases.
func (r *Retriever) finalCut(candidates []domain.RetrievalCandidate) []domain.RetrievalCandidate {
	kept := candidates[:0:0]
	for _, c := range candidates {
		if c.Similarity >= r.cfg.SimilarityThreshold {
			kept = append(kept, c)
		}
	}
	if r.cfg.TopK > 0 && len(kept) > r.cfg.TopK {
		kept = kept[:r.cfg.TopK]
	}
	return kept
}

// sortCandidates orders by similarity descending, then stage rank
// (original before hyde before the rest), then newer upload date.
func sortCandidates(candidates []domain.RetrievalCandidate) {
	sort.SliceStable(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if a.Similarity != b.Similarity {
			return a.Similarity > b.Similarity
		}
		ar, br := bestStageRank(a.Stages), bestStageRank(b.Stages)
		if ar != br {
			return ar < br
		}
		return a.Chunk.UploadDate.After(b.Chunk.UploadDate)
	})
}

func bestStageRank(stages []string) int {
	best := 4
	for _, s := range stages {
		if r := domain.StageRank(s); r < best {
			best = r
		}
	}
	return best
}

func containsStage(stages []string, stage string) bool {
	for _, s := range stages {
		if s == stage {
			return true
		}
	}
	return false
}

// parseIndexList extracts 1-based indexes from a comma-separated reply and
// returns them 0-based, deduplicated, bounds-checked.
func parseIndexList(out string, n int) []int {
	var order []int
	seen := make(map[int]bool)
	for _, field := range strings.FieldsFunc(out, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\n'
	}) {
		idx, err := strconv.Atoi(strings.TrimSpace(field))
		if err != nil || idx < 1 || idx > n || seen[idx] {
			continue
		}
		seen[idx] = true
		order = append(order, idx-1)
	}
	return order
}

// excerpt truncates text on a rune boundary.
func excerpt(text string, maxRunes int) string {
	runes := []rune(strings.TrimSpace(text))
	if len(runes) <= maxRunes {
		return string(runes)
	}
	return string(runes[:maxRunes]) + "..."
}
