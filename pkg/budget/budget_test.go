package budget

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/koztechie/svitlogics/pkg/analysis"
	"github.com/koztechie/svitlogics/pkg/catalog"
)

func model(tpm int) catalog.ModelDescriptor {
	return catalog.ModelDescriptor{
		ID:              "test-model",
		DisplayName:     "Test Model",
		TokensPerMinute: tpm,
		MaxOutputTokens: 1024,
	}
}

func TestMaxCharsConcreteScenario(t *testing.T) {
	// tpm 100, system prompt 50, buffer 10, 2 chars per token: (100-50-10)*2 = 80.
	calc := New(WithOutputBuffer(10), WithGranularity(10))
	profile := LanguageProfile{
		Language:           analysis.LanguageEnglish,
		SystemPromptTokens: 50,
		CharsPerToken:      2,
	}

	got := calc.MaxChars(model(100), profile)
	assert.Equal(t, 80, got)

	text := make([]byte, 90)
	for i := range text {
		text[i] = 'a'
	}
	assert.False(t, calc.Fits(string(text), model(100), profile))
}

func TestMaxCharsMonotonicInQuota(t *testing.T) {
	calc := New()
	profile, ok := ProfileFor(analysis.LanguageEnglish)
	require.True(t, ok)

	prev := -1
	for tpm := 1000; tpm <= 100000; tpm += 1000 {
		got := calc.MaxChars(model(tpm), profile)
		assert.GreaterOrEqual(t, got, prev, "budget decreased at tpm=%d", tpm)
		prev = got
	}
}

func TestMaxCharsExhaustedQuotaIsZero(t *testing.T) {
	calc := New()
	profile, ok := ProfileFor(analysis.LanguageUkrainian)
	require.True(t, ok)

	// Quota smaller than system prompt plus output buffer.
	assert.Equal(t, 0, calc.MaxChars(model(2000), profile))
	assert.Equal(t, 0, calc.MaxChars(model(1), profile))
}

func TestMaxCharsFlooredToGranularity(t *testing.T) {
	calc := New(WithOutputBuffer(0), WithGranularity(1000))
	profile := LanguageProfile{SystemPromptTokens: 0, CharsPerToken: 1}

	assert.Equal(t, 1000, calc.MaxChars(model(1999), profile))
	assert.Equal(t, 0, calc.MaxChars(model(999), profile))
}

func TestFitsCountsRunesNotBytes(t *testing.T) {
	calc := New(WithOutputBuffer(0), WithGranularity(10))
	profile := LanguageProfile{SystemPromptTokens: 0, CharsPerToken: 1}

	// 10 Cyrillic characters are 20 bytes but must count as 10.
	text := "абвгґдеєжз"
	assert.True(t, calc.Fits(text, model(10), profile))
}

func TestProfilesExistForSupportedLanguages(t *testing.T) {
	for _, lang := range []analysis.Language{analysis.LanguageEnglish, analysis.LanguageUkrainian} {
		p, ok := ProfileFor(lang)
		require.True(t, ok, "missing profile for %s", lang)
		assert.Positive(t, p.SystemPromptTokens)
		assert.Positive(t, p.CharsPerToken)
	}

	_, ok := ProfileFor(analysis.Language("de"))
	assert.False(t, ok)
}

func TestUkrainianBudgetSmallerThanEnglish(t *testing.T) {
	// Cyrillic packs fewer characters per token, so the same quota must
	// yield a smaller character allowance.
	calc := New()
	en, _ := ProfileFor(analysis.LanguageEnglish)
	uk, _ := ProfileFor(analysis.LanguageUkrainian)

	m := model(15000)
	assert.Less(t, calc.MaxChars(m, uk), calc.MaxChars(m, en))
}
