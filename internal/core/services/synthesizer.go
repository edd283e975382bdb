package services

import (
	"fmt"
	"strings"
	"time"

	"github.com/y-data-house/ydh-cli/internal/core/domain"
	"github.com/y-data-house/ydh-cli/internal/logger"
)

const (
	// expertiseKeywordCount caps the keywords stored on the prompt record.
	expertiseKeywordCount = 10

	// templateKeywordCount caps the keywords embedded in the template text.
	templateKeywordCount = 5
)

// Synthesizer turns a channel profile into a prompt version. The mapping is
// a fixed decision tree over the profile's counters, so the same profile
// always yields the same prompt. No LLM is involved.
type Synthesizer struct{}

// NewSynthesizer creates a new synthesizer.
func NewSynthesizer() *Synthesizer {
	return &Synthesizer{}
}

// Synthesize derives a prompt from the profile. An empty profile yields the
// built-in default prompt. Never fails.
func (s *Synthesizer) Synthesize(profile domain.ChannelProfile) domain.PromptVersion {
	if profile.IsEmpty() {
		logger.Debug("Empty profile for %q, using default prompt", profile.Channel)
		return domain.DefaultPrompt(profile.Channel)
	}

	persona := synthesizePersona(profile.Patterns)
	prompt := domain.PromptVersion{
		Channel:              profile.Channel,
		CreatedAt:            time.Now(),
		AutoGenerated:        true,
		Persona:              persona,
		Tone:                 profile.Tone.StyleDescription,
		SystemPromptTemplate: synthesizeTemplate(persona, profile),
		Rules:                synthesizeRules(profile.Patterns),
		Output:               synthesizeOutputFormat(profile.Patterns),
		ExpertiseKeywords:    topN(profile.TopKeywords, expertiseKeywordCount),
	}
	return prompt
}

// synthesizePersona composes the answering persona: a base from the
// domain-term counters, then qualifiers appended for experience-heavy,
// deep-analysis and tip-heavy channels.
func synthesizePersona(p domain.ContentPatterns) string {
	base := "video content analyst"
	switch {
	case p.InvestmentTerms >= domain.PersonaInvestmentMin && p.RealEstateFocus >= domain.PersonaRealEstateMin:
		base = "real-estate investment expert"
	case p.InvestmentTerms >= domain.PersonaInvestmentMin:
		base = "investment analyst"
	case p.RealEstateFocus >= domain.PersonaRealEstateMin:
		base = "real-estate specialist"
	}
	if p.ExperienceMentions >= domain.PersonaExperienceMin {
		base += " with practical field experience"
	}
	if p.Depth == domain.DepthDeep {
		base += " and data-driven analyst"
	}
	if p.PracticalTips >= domain.PersonaPracticalMin {
		base += " who gives actionable advice"
	}
	return base
}

// synthesizeRules appends conditional rules after the fixed base rules.
func synthesizeRules(p domain.ContentPatterns) []string {
	rules := append([]string(nil), domain.BaseRules...)
	if p.NumericMentions >= domain.RuleNumericMin {
		rules = append(rules, domain.RuleConcreteFigures)
	}
	if p.ExperienceMentions >= domain.RuleExperienceMin {
		rules = append(rules, domain.RuleRealExamples)
	}
	if p.PracticalTips >= domain.RulePracticalMin {
		rules = append(rules, domain.RuleActionableSteps)
	}
	rules = append(rules, domain.RuleAnswerStructure)
	return rules
}

// synthesizeOutputFormat picks the answer structure from depth and patterns.
func synthesizeOutputFormat(p domain.ContentPatterns) domain.OutputFormat {
	switch {
	case p.Depth == domain.DepthDeep:
		return domain.DeepAnalyticalOutputFormat
	case p.ExperienceMentions >= domain.OutputExperienceMin:
		return domain.ExperienceOutputFormat
	default:
		return domain.DefaultOutputFormat
	}
}

// synthesizeTemplate builds the system prompt template. The channel name
// stays a placeholder so renames don't invalidate stored prompts.
func synthesizeTemplate(persona string, profile domain.ChannelProfile) string {
	var b strings.Builder
	fmt.Fprintf(&b, "You are a %s answering questions about the %s channel.\n",
		persona, domain.ChannelPlaceholder)
	fmt.Fprintf(&b, "Speak in a %s style.\n", profile.Tone.StyleDescription)
	if len(profile.TopKeywords) > 0 {
		fmt.Fprintf(&b, "The channel's recurring topics include: %s.\n",
			strings.Join(topN(profile.TopKeywords, templateKeywordCount), ", "))
	}
	b.WriteString("Base every answer strictly on the transcript excerpts provided.")
	return b.String()
}

func topN(keywords []string, n int) []string {
	if len(keywords) < n {
		n = len(keywords)
	}
	return append([]string(nil), keywords[:n]...)
}
