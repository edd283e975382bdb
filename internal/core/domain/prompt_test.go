package domain

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestPromptVersion_SystemPrompt tests placeholder substitution
func TestPromptVersion_SystemPrompt(t *testing.T) {
	pv := PromptVersion{
		SystemPromptTemplate: "You answer questions about the {{channel}} channel. Always {{channel}}.",
	}

	got := pv.SystemPrompt("budongsan_tv")

	assert.Equal(t, "You answer questions about the budongsan_tv channel. Always budongsan_tv.", got)
	assert.NotContains(t, got, ChannelPlaceholder)
}

// TestPromptVersion_SystemPrompt_NoPlaceholder tests templates without the placeholder
func TestPromptVersion_SystemPrompt_NoPlaceholder(t *testing.T) {
	pv := PromptVersion{SystemPromptTemplate: "Plain prompt."}

	assert.Equal(t, "Plain prompt.", pv.SystemPrompt("any"))
}

// TestPromptVersion_Validate_FillsDefaults tests repair of incomplete records
func TestPromptVersion_Validate_FillsDefaults(t *testing.T) {
	pv := PromptVersion{Channel: "test_channel"}

	pv.Validate()

	assert.NotEmpty(t, pv.Persona)
	assert.NotEmpty(t, pv.Tone)
	assert.NotEmpty(t, pv.SystemPromptTemplate)
	assert.NotEmpty(t, pv.Rules)
	assert.NotEmpty(t, pv.Output.Structure)
	assert.Greater(t, pv.Output.MaxBullets, 0)
}

// TestPromptVersion_Validate_KeepsExisting tests that populated fields survive
func TestPromptVersion_Validate_KeepsExisting(t *testing.T) {
	pv := PromptVersion{
		Channel:              "c",
		Persona:              "a seasoned analyst",
		Tone:                 "formal",
		SystemPromptTemplate: "custom {{channel}} template",
		Rules:                []string{"rule one"},
		Output:               OutputFormat{Structure: "list", MaxBullets: 9},
	}

	pv.Validate()

	assert.Equal(t, "a seasoned analyst", pv.Persona)
	assert.Equal(t, "formal", pv.Tone)
	assert.Equal(t, "custom {{channel}} template", pv.SystemPromptTemplate)
	assert.Equal(t, []string{"rule one"}, pv.Rules)
	assert.Equal(t, 9, pv.Output.MaxBullets)
}

// TestDefaultPrompt tests the built-in fallback prompt
func TestDefaultPrompt(t *testing.T) {
	pv := DefaultPrompt("seoul_re")

	assert.Equal(t, "seoul_re", pv.Channel)
	assert.Equal(t, 0, pv.Version)
	assert.False(t, pv.AutoGenerated)
	assert.Contains(t, pv.SystemPromptTemplate, ChannelPlaceholder)
	for _, rule := range BaseRules {
		assert.Contains(t, pv.Rules, rule)
	}
}

// TestDefaultPrompt_Deterministic tests that the fallback is stable
func TestDefaultPrompt_Deterministic(t *testing.T) {
	a := DefaultPrompt("x")
	b := DefaultPrompt("x")

	a.CreatedAt = b.CreatedAt
	assert.Equal(t, a, b)
}

// TestPromptVersion_JSONRoundTrip tests serialization to the on-disk format
func TestPromptVersion_JSONRoundTrip(t *testing.T) {
	pv := DefaultPrompt("roundtrip")
	pv.Version = 3
	pv.AutoGenerated = true
	pv.ExpertiseKeywords = []string{"재건축", "분양가"}

	data, err := json.Marshal(pv)
	require.NoError(t, err)

	var decoded PromptVersion
	require.NoError(t, json.Unmarshal(data, &decoded))

	assert.Equal(t, pv.Channel, decoded.Channel)
	assert.Equal(t, pv.Version, decoded.Version)
	assert.True(t, decoded.AutoGenerated)
	assert.Equal(t, pv.Rules, decoded.Rules)
	assert.Equal(t, pv.ExpertiseKeywords, decoded.ExpertiseKeywords)
	assert.Equal(t, pv.Output, decoded.Output)
}

// TestPromptVersion_JSONFieldNames tests the stable on-disk field names
func TestPromptVersion_JSONFieldNames(t *testing.T) {
	data, err := json.Marshal(DefaultPrompt("c"))
	require.NoError(t, err)

	raw := string(data)
	for _, field := range []string{
		`"channel"`, `"version"`, `"created_at"`, `"auto_generated"`,
		`"persona"`, `"tone"`, `"system_prompt_template"`, `"rules"`, `"output_format"`,
	} {
		assert.True(t, strings.Contains(raw, field), "missing field %s", field)
	}
}

// TestOutputFormats tests the canonical output formats
func TestOutputFormats(t *testing.T) {
	assert.Equal(t, 7, DeepAnalyticalOutputFormat.MaxBullets)
	assert.Equal(t, 5, ExperienceOutputFormat.MaxBullets)
	assert.Equal(t, 5, DefaultOutputFormat.MaxBullets)
	assert.True(t, DeepAnalyticalOutputFormat.IncludeSourceLinks)
}
