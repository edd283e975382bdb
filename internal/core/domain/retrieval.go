package domain

import "time"

// Stage tags identify which retrieval stage surfaced a candidate.
const (
	StageOriginal  = "original"
	StageHyde      = "hyde"
	StageRewrite   = "rewrite"
	StageDecompose = "decompose"
	StageFusion    = "fusion"
)

// stageRank orders stages for tie-breaking: original beats hyde beats the rest.
var stageRank = map[string]int{
	StageOriginal:  0,
	StageHyde:      1,
	StageRewrite:   2,
	StageDecompose: 2,
	StageFusion:    2,
}

// StageRank returns the tie-break rank of a stage tag (lower wins).
func StageRank(tag string) int {
	if r, ok := stageRank[tag]; ok {
		return r
	}
	return 3
}

// QueryVariant is one query produced by the expansion engine.
type QueryVariant struct {
	// Text is the query text to embed and search with.
	Text string

	// Stage tags which expansion stage produced the variant.
	Stage string
}

// RetrievalCandidate is a transient scored chunk produced per question.
type RetrievalCandidate struct {
	// Chunk is the matched chunk.
	Chunk Chunk

	// Similarity is the best cosine similarity seen across stages.
	Similarity float64

	// Stages lists every stage that surfaced this chunk, first seen first.
	Stages []string

	// RankScore is set only when the LLM re-ranker ordered this candidate;
	// it is position-derived (1.0 for the top pick, descending by 0.1).
	RankScore float64

	// Reranked is true when RankScore is meaningful.
	Reranked bool
}

// Relevance is the score reported to users: re-ranked candidates use the
// position-derived score, everything else the raw similarity.
func (c RetrievalCandidate) Relevance() float64 {
	if c.Reranked {
		return c.RankScore
	}
	return c.Similarity
}

// RetrievalConfig controls the expansion and retrieval pipeline.
// Defaults follow the original tuning of the search pipeline.
type RetrievalConfig struct {
	// TopK bounds the final candidate list.
	TopK int

	// MaxResults is the per-search cap for the original query.
	MaxResults int

	// StageResults is the per-search cap for each expansion variant.
	StageResults int

	// SimilarityThreshold filters weak matches before the final cut.
	SimilarityThreshold float64

	// RerankThreshold is the merged-set size above which re-ranking runs.
	RerankThreshold int

	// FusionQueries is how many paraphrases the fusion stage asks for.
	FusionQueries int

	// MaxConcurrentSearches bounds concurrently running expansion stages
	// and corpus queries, to respect external API rate limits.
	MaxConcurrentSearches int

	// StageTimeout bounds each expansion stage's generation call.
	StageTimeout time.Duration

	// EnableHyde toggles hypothetical-answer expansion.
	EnableHyde bool

	// EnableRewrite toggles query rewriting.
	EnableRewrite bool

	// EnableDecompose toggles sub-question decomposition.
	EnableDecompose bool

	// EnableFusion toggles multi-query fusion.
	EnableFusion bool

	// EnableRerank toggles LLM re-ranking.
	EnableRerank bool
}

// DefaultRetrievalConfig returns the standard pipeline tuning.
func DefaultRetrievalConfig() RetrievalConfig {
	return RetrievalConfig{
		TopK:                  5,
		MaxResults:            12,
		StageResults:          3,
		SimilarityThreshold:   0.20,
		RerankThreshold:       5,
		FusionQueries:         4,
		MaxConcurrentSearches: 2,
		StageTimeout:          15 * time.Second,
		EnableHyde:            true,
		EnableRewrite:         true,
		EnableDecompose:       true,
		EnableFusion:          true,
		EnableRerank:          true,
	}
}

// QuestionType classifies a question for temperature and re-rank gating.
type QuestionType string

// Question types.
const (
	QuestionFactual    QuestionType = "factual"
	QuestionAnalytical QuestionType = "analytical"
)
