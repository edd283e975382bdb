package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestChannelProfile_IsEmpty tests the empty-corpus check
func TestChannelProfile_IsEmpty(t *testing.T) {
	assert.True(t, ChannelProfile{}.IsEmpty())
	assert.True(t, ChannelProfile{TotalVideos: 3}.IsEmpty())
	assert.False(t, ChannelProfile{TotalChunks: 1}.IsEmpty())
}

// TestToneVocabularies tests that all four tones have marker words
func TestToneVocabularies(t *testing.T) {
	for _, tone := range []string{ToneFormal, ToneCasual, ToneAnalytical, TonePractical} {
		assert.NotEmpty(t, ToneVocabularies[tone], "tone %s has no vocabulary", tone)
		assert.NotEmpty(t, ToneStyleDescriptions[tone], "tone %s has no style description", tone)
	}
}

// TestDepthThresholds tests the classification boundaries
func TestDepthThresholds(t *testing.T) {
	assert.Greater(t, DepthDeepNumericMentions, DepthLightNumericMax)
	assert.Greater(t, DepthDeepDomainMentions, 0)
}

// TestKeywordBounds tests language-aware keyword length limits
func TestKeywordBounds(t *testing.T) {
	assert.Less(t, MinHangulKeywordLen, MaxHangulKeywordLen)
	assert.Less(t, MinLatinKeywordLen, MaxLatinKeywordLen)
	assert.Equal(t, 30, TopKeywordCount)
	assert.Equal(t, 2, MinKeywordCount)
}
