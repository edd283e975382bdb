package services

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"
	"unicode"

	"github.com/y-data-house/ydh-cli/internal/core/domain"
	"github.com/y-data-house/ydh-cli/internal/core/ports/driven"
	"github.com/y-data-house/ydh-cli/internal/core/ports/driving"
	"github.com/y-data-house/ydh-cli/internal/logger"
)

// Ensure AnalyzerService implements the interface.
var _ driving.AnalyzerService = (*AnalyzerService)(nil)

// numericMentionPattern matches figures with a unit suffix: percentages,
// Korean date/currency/area units. "6.2%" and "3억" both count.
var numericMentionPattern = regexp.MustCompile(`\d+(?:\.\d+)?(?:%|년|월|일|억|만원|원|평|달|층|분)`)

// AnalyzerService derives a statistical profile from a channel's corpus.
// The profile is recomputed on every call; nothing is persisted here.
type AnalyzerService struct {
	corpus driven.CorpusStore
}

// NewAnalyzerService creates a new analyzer service.
func NewAnalyzerService(corpus driven.CorpusStore) *AnalyzerService {
	return &AnalyzerService{corpus: corpus}
}

// ListChannels returns every channel with an indexed corpus.
func (s *AnalyzerService) ListChannels(ctx context.Context) ([]domain.ChannelInfo, error) {
	return s.corpus.ListChannels(ctx)
}

// Analyze reads the channel's full corpus and derives its profile.
func (s *AnalyzerService) Analyze(ctx context.Context, channel string) (domain.ChannelProfile, error) {
	logger.Section("Channel Analysis")
	logger.Debug("Channel: %q", channel)

	channel = strings.TrimSpace(channel)
	if channel == "" {
		return domain.ChannelProfile{}, fmt.Errorf("analyze: %w: empty channel name", domain.ErrInvalidInput)
	}

	profile := domain.ChannelProfile{
		Channel:    channel,
		AnalyzedAt: time.Now(),
	}

	chunks, err := s.corpus.GetAll(ctx, channel)
	if errors.Is(err, domain.ErrMissingCorpus) {
		logger.Warn("Channel %q has no corpus", channel)
		return profile, nil
	}
	if err != nil {
		return domain.ChannelProfile{}, fmt.Errorf("analyze %q: %w", channel, err)
	}
	if len(chunks) == 0 {
		logger.Warn("Channel %q has an empty corpus", channel)
		return profile, nil
	}

	var sb strings.Builder
	videos := make(map[string]string) // video ID -> title
	for _, c := range chunks {
		sb.WriteString(c.Text)
		sb.WriteByte('\n')
		if _, ok := videos[c.VideoID]; !ok {
			videos[c.VideoID] = c.Title
		}
	}
	text := strings.ToLower(sb.String())
	tokens := tokenize(text)

	profile.TotalChunks = len(chunks)
	profile.TotalVideos = len(videos)
	profile.KeywordFrequencies, profile.TopKeywords = extractKeywords(tokens)
	profile.Patterns = analyzePatterns(text)
	profile.Tone = analyzeTone(text, len(tokens))
	profile.Metadata = analyzeMetadata(chunks, videos)

	logger.Info("Analyzed %q: %d videos, %d chunks, depth=%s, tone=%s",
		channel, profile.TotalVideos, profile.TotalChunks,
		profile.Patterns.Depth, profile.Tone.PrimaryTone)
	return profile, nil
}

// tokenize splits lowered text into Hangul and Latin word tokens. Runs of
// one script form one token; a script change ends the token. Length bounds
// are applied later, during keyword extraction.
func tokenize(text string) []string {
	var tokens []string
	var run []rune
	var runHangul bool

	flush := func() {
		if len(run) > 0 {
			tokens = append(tokens, string(run))
			run = run[:0]
		}
	}

	for _, r := range text {
		switch {
		case unicode.Is(unicode.Hangul, r):
			if len(run) > 0 && !runHangul {
				flush()
			}
			runHangul = true
			run = append(run, r)
		case unicode.Is(unicode.Latin, r):
			if len(run) > 0 && runHangul {
				flush()
			}
			runHangul = false
			run = append(run, r)
		default:
			flush()
		}
	}
	flush()
	return tokens
}

// extractKeywords filters tokens by language-aware length bounds and
// stopwords, keeps those seen at least twice and returns the top 30 by
// descending count (ties broken lexicographically).
func extractKeywords(tokens []string) (map[string]int, []string) {
	counts := make(map[string]int)
	for _, tok := range tokens {
		if !keywordLengthOK(tok) {
			continue
		}
		if _, stop := domain.KeywordStopwords[tok]; stop {
			continue
		}
		counts[tok]++
	}

	type kw struct {
		word  string
		count int
	}
	var candidates []kw
	for w, c := range counts {
		if c >= domain.MinKeywordCount {
			candidates = append(candidates, kw{w, c})
		}
	}
	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].count != candidates[j].count {
			return candidates[i].count > candidates[j].count
		}
		return candidates[i].word < candidates[j].word
	})
	if len(candidates) > domain.TopKeywordCount {
		candidates = candidates[:domain.TopKeywordCount]
	}

	freqs := make(map[string]int, len(candidates))
	words := make([]string, 0, len(candidates))
	for _, c := range candidates {
		freqs[c.word] = c.count
		words = append(words, c.word)
	}
	return freqs, words
}

func keywordLengthOK(tok string) bool {
	runes := []rune(tok)
	n := len(runes)
	if n == 0 {
		return false
	}
	if unicode.Is(unicode.Hangul, runes[0]) {
		return n >= domain.MinHangulKeywordLen && n <= domain.MaxHangulKeywordLen
	}
	return n >= domain.MinLatinKeywordLen && n <= domain.MaxLatinKeywordLen
}

// analyzePatterns counts fixed-vocabulary hits across the whole corpus text
// and derives the depth classification.
func analyzePatterns(text string) domain.ContentPatterns {
	p := domain.ContentPatterns{
		InvestmentTerms:    countVocabulary(text, domain.InvestmentVocabulary),
		LocationMentions:   countVocabulary(text, domain.LocationVocabulary),
		NumericMentions:    len(numericMentionPattern.FindAllString(text, -1)),
		ExperienceMentions: countVocabulary(text, domain.ExperienceVocabulary),
		RealEstateFocus:    countVocabulary(text, domain.RealEstateVocabulary),
		PracticalTips:      countVocabulary(text, domain.PracticalVocabulary),
	}

	domainMentions := p.InvestmentTerms + p.RealEstateFocus
	switch {
	case p.NumericMentions > domain.DepthDeepNumericMentions && domainMentions > domain.DepthDeepDomainMentions:
		p.Depth = domain.DepthDeep
	case p.NumericMentions < domain.DepthLightNumericMax:
		p.Depth = domain.DepthLight
	default:
		p.Depth = domain.DepthMedium
	}
	return p
}

func countVocabulary(text string, vocab []string) int {
	total := 0
	for _, term := range vocab {
		total += strings.Count(text, term)
	}
	return total
}

// toneOrder fixes tie-breaking when two buckets score equally.
var toneOrder = []string{
	domain.ToneFormal,
	domain.ToneCasual,
	domain.ToneAnalytical,
	domain.TonePractical,
}

// analyzeTone scores the four tone buckets and normalizes hits per 1000
// words so corpora of different sizes compare.
func analyzeTone(text string, totalWords int) domain.ToneAnalysis {
	scores := make(map[string]int, len(toneOrder))
	normalized := make(map[string]float64, len(toneOrder))
	for _, tone := range toneOrder {
		hits := countVocabulary(text, domain.ToneVocabularies[tone])
		scores[tone] = hits
		if totalWords > 0 {
			normalized[tone] = float64(hits) * 1000 / float64(totalWords)
		}
	}

	primary := toneOrder[0]
	for _, tone := range toneOrder[1:] {
		if scores[tone] > scores[primary] {
			primary = tone
		}
	}

	style := domain.ToneStyleDescriptions[primary]
	secondary := ""
	for _, tone := range toneOrder {
		if tone == primary {
			continue
		}
		if normalized[tone] >= domain.SecondaryToneMin &&
			(secondary == "" || scores[tone] > scores[secondary]) {
			secondary = tone
		}
	}
	if secondary != "" {
		style = fmt.Sprintf("%s, with %s elements", style, domain.ToneStyleDescriptions[secondary])
	}

	return domain.ToneAnalysis{
		PrimaryTone:      primary,
		Scores:           scores,
		NormalizedScores: normalized,
		StyleDescription: style,
	}
}

// analyzeMetadata aggregates per-video signals: average duration, topic
// tags and title-inferred video types. Metadata fields are optional and
// missing ones are skipped.
func analyzeMetadata(chunks []domain.Chunk, videos map[string]string) domain.MetadataInsights {
	insights := domain.MetadataInsights{
		VideoTypes: make(map[string]int),
	}

	durations := make(map[string]float64)
	topicCounts := make(map[string]int)
	for _, c := range chunks {
		if d, ok := numericMetadata(c.Metadata, "duration"); ok {
			durations[c.VideoID] = d
		}
		for _, t := range topicMetadata(c.Metadata) {
			topicCounts[strings.ToLower(t)]++
		}
	}

	if len(durations) > 0 {
		var sum float64
		for _, d := range durations {
			sum += d
		}
		insights.AvgDurationSeconds = sum / float64(len(durations))
	}

	type topic struct {
		name  string
		count int
	}
	var topics []topic
	for name, count := range topicCounts {
		topics = append(topics, topic{name, count})
	}
	sort.Slice(topics, func(i, j int) bool {
		if topics[i].count != topics[j].count {
			return topics[i].count > topics[j].count
		}
		return topics[i].name < topics[j].name
	})
	for i, t := range topics {
		if i >= 5 {
			break
		}
		insights.PopularTopics = append(insights.PopularTopics, t.name)
	}

	for _, title := range videos {
		lowered := strings.ToLower(title)
		for videoType, markers := range domain.VideoTypeTitleKeywords {
			for _, marker := range markers {
				if strings.Contains(lowered, marker) {
					insights.VideoTypes[videoType]++
					break
				}
			}
		}
	}
	return insights
}

func numericMetadata(meta map[string]any, key string) (float64, bool) {
	switch v := meta[key].(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	default:
		return 0, false
	}
}

func topicMetadata(meta map[string]any) []string {
	var topics []string
	switch v := meta["topics"].(type) {
	case []string:
		topics = append(topics, v...)
	case []any:
		for _, item := range v {
			if s, ok := item.(string); ok {
				topics = append(topics, s)
			}
		}
	case string:
		if v != "" {
			topics = append(topics, v)
		}
	}
	if s, ok := meta["topic"].(string); ok && s != "" {
		topics = append(topics, s)
	}
	return topics
}
