package domain

import (
	"strings"
	"time"
)

// ChannelPlaceholder is the token in a system prompt template that gets
// replaced with the channel name at generation time. Storing the placeholder
// instead of the name keeps templates valid if a channel is renamed.
const ChannelPlaceholder = "{{channel}}"

// OutputFormat describes how an answer should be structured.
type OutputFormat struct {
	// Structure is a human-readable section ordering.
	Structure string `json:"structure"`

	// MaxBullets bounds bullet lists in the answer.
	MaxBullets int `json:"max_bullets"`

	// IncludeSourceLinks appends a source list to the answer.
	IncludeSourceLinks bool `json:"include_source_links"`
}

// PromptVersion is one immutable synthesized (or manually edited) answer
// contract for a channel. Versions form a gapless sequence starting at 1;
// the store assigns Version on save.
type PromptVersion struct {
	// Channel is the channel this prompt belongs to.
	Channel string `json:"channel"`

	// Version is the monotonically increasing version number, >= 1.
	Version int `json:"version"`

	// CreatedAt is when the version was written.
	CreatedAt time.Time `json:"created_at"`

	// AutoGenerated is true when the synthesizer produced this version,
	// false for manual edits and the default prompt.
	AutoGenerated bool `json:"auto_generated"`

	// Persona is the answering persona, e.g. "real-estate investment expert".
	Persona string `json:"persona"`

	// Tone is the style description the answer should follow.
	Tone string `json:"tone"`

	// SystemPromptTemplate is the system prompt with ChannelPlaceholder
	// left unsubstituted.
	SystemPromptTemplate string `json:"system_prompt_template"`

	// Rules are ordered answer rules.
	Rules []string `json:"rules"`

	// Output describes the answer structure.
	Output OutputFormat `json:"output_format"`

	// ExpertiseKeywords are the channel's top keywords.
	ExpertiseKeywords []string `json:"expertise_keywords"`
}

// SystemPrompt renders the template with the channel name substituted.
func (p PromptVersion) SystemPrompt(channel string) string {
	return strings.ReplaceAll(p.SystemPromptTemplate, ChannelPlaceholder, channel)
}

// Validate repairs a prompt record loaded from disk. Records written by
// older builds or edited by hand may miss fields; defaults are filled in
// rather than rejecting the record outright.
func (p *PromptVersion) Validate() error {
	if p.Channel == "" && p.Version != 0 {
		return ErrInvalidInput
	}
	if p.Persona == "" {
		p.Persona = defaultPersona
	}
	if p.Tone == "" {
		p.Tone = defaultTone
	}
	if p.SystemPromptTemplate == "" {
		p.SystemPromptTemplate = defaultSystemPromptTemplate
	}
	if len(p.Rules) == 0 {
		p.Rules = append([]string(nil), BaseRules...)
	}
	if p.Output.Structure == "" {
		p.Output = DefaultOutputFormat
	}
	if p.Output.MaxBullets <= 0 {
		p.Output.MaxBullets = DefaultOutputFormat.MaxBullets
	}
	return nil
}

// Fixed prompt building blocks used by the synthesizer and the default
// prompt. BaseRules are always included, in this order, before any
// conditional rules.
var BaseRules = []string{
	"Answer using only this channel's material.",
	"State explicitly when information is insufficient. Never fabricate.",
}

// Conditional rules appended by the synthesizer when pattern thresholds are met.
const (
	RuleConcreteFigures = "Include concrete figures and data in the answer."
	RuleRealExamples    = "Center the answer on real examples and first-hand cases."
	RuleActionableSteps = "End with concrete, actionable steps."
	RuleAnswerStructure = "Answer structure: key summary, then evidence, then action steps."
)

// The three fixed output formats, selected by depth/pattern combination.
var (
	DeepAnalyticalOutputFormat = OutputFormat{
		Structure:          "summary -> data analysis -> evidence/sources -> action steps -> one-line takeaway",
		MaxBullets:         7,
		IncludeSourceLinks: true,
	}

	ExperienceOutputFormat = OutputFormat{
		Structure:          "summary -> real experience -> evidence/sources -> action guide -> one-line takeaway",
		MaxBullets:         5,
		IncludeSourceLinks: true,
	}

	DefaultOutputFormat = OutputFormat{
		Structure:          "summary -> evidence/sources -> action steps -> one-line takeaway",
		MaxBullets:         5,
		IncludeSourceLinks: true,
	}
)

const (
	defaultPersona = "video content analyst"
	defaultTone    = "friendly and helpful"

	defaultSystemPromptTemplate = "You are an assistant answering questions about the " +
		ChannelPlaceholder + " channel. Base your answers on the channel's video transcripts " +
		"and be accurate and useful."
)

// DefaultPrompt is the system-wide fallback used when a channel has no
// synthesized prompt. It is deterministic and never fails.
func DefaultPrompt(channel string) PromptVersion {
	return PromptVersion{
		Channel:              channel,
		Version:              0,
		AutoGenerated:        false,
		Persona:              defaultPersona,
		Tone:                 defaultTone,
		SystemPromptTemplate: defaultSystemPromptTemplate,
		Rules:                append([]string(nil), BaseRules...),
		Output: OutputFormat{
			Structure:          "answer -> evidence -> summary",
			MaxBullets:         3,
			IncludeSourceLinks: false,
		},
	}
}
