package domain

import "time"

// Depth classifies how data-heavy a channel's content is.
type Depth string

// Depth values.
const (
	DepthLight  Depth = "light"
	DepthMedium Depth = "medium"
	DepthDeep   Depth = "deep"
)

// ContentPatterns holds counters of fixed-vocabulary matches across a
// channel's corpus. The vocabularies and thresholds live in heuristics.go.
type ContentPatterns struct {
	// InvestmentTerms counts investment/finance vocabulary hits.
	InvestmentTerms int

	// LocationMentions counts place-name hits.
	LocationMentions int

	// NumericMentions counts numeric-data patterns (figures with units).
	NumericMentions int

	// ExperienceMentions counts first-person-experience phrases.
	ExperienceMentions int

	// RealEstateFocus counts real-estate vocabulary hits.
	RealEstateFocus int

	// PracticalTips counts how-to/tip vocabulary hits.
	PracticalTips int

	// Depth is the derived content-depth classification.
	Depth Depth
}

// ToneAnalysis holds the tone classification of a channel's corpus.
type ToneAnalysis struct {
	// PrimaryTone is the highest-scoring tone bucket.
	PrimaryTone string

	// Scores holds the raw hit counts per tone bucket.
	Scores map[string]int

	// NormalizedScores holds hits per 1000 words per tone bucket.
	NormalizedScores map[string]float64

	// StyleDescription is a human-readable rendering of the tone mix.
	StyleDescription string
}

// MetadataInsights aggregates signals from chunk metadata.
type MetadataInsights struct {
	// AvgDurationSeconds is the mean video duration, 0 if unknown.
	AvgDurationSeconds float64

	// PopularTopics lists the most frequent topic tags, best first.
	PopularTopics []string

	// VideoTypes counts videos per inferred type (analysis, tips, ...).
	VideoTypes map[string]int
}

// ChannelProfile is the derived statistical profile of one channel corpus.
// It is disposable and recomputed on demand; the synthesized prompt is the
// persisted artifact, never the profile.
type ChannelProfile struct {
	// Channel is the channel name.
	Channel string

	// KeywordFrequencies maps the top corpus keywords to their counts.
	KeywordFrequencies map[string]int

	// TopKeywords lists the keywords of KeywordFrequencies ordered by
	// descending count (count ties broken lexicographically).
	TopKeywords []string

	// Patterns holds the content-pattern counters.
	Patterns ContentPatterns

	// Tone holds the tone classification.
	Tone ToneAnalysis

	// Metadata holds metadata-level signals.
	Metadata MetadataInsights

	// TotalVideos is the number of distinct videos analyzed.
	TotalVideos int

	// TotalChunks is the number of chunks analyzed.
	TotalChunks int

	// AnalyzedAt is when the analysis ran.
	AnalyzedAt time.Time
}

// IsEmpty reports whether the profile was produced from an empty corpus.
func (p ChannelProfile) IsEmpty() bool {
	return p.TotalChunks == 0
}
