// Package budget computes the maximum input size a model can accept for a
// given language without tripping its token-per-minute quota.
//
// The arithmetic is deliberately conservative pre-flight estimation: a fixed
// chars-per-token ratio per language stands in for real tokenization, which
// would require an extra round trip to the upstream tokenizer.
package budget

import (
	"unicode/utf8"

	"github.com/koztechie/svitlogics/pkg/analysis"
	"github.com/koztechie/svitlogics/pkg/catalog"
)

const (
	// DefaultOutputBufferTokens is reserved out of every model's quota for
	// generation overhead, independent of language.
	DefaultOutputBufferTokens = 2048

	// DefaultGranularity is the flooring unit for published character
	// limits, so users never see jittery values.
	DefaultGranularity = 100
)

// LanguageProfile holds the per-language constants the calculator needs.
type LanguageProfile struct {
	Language           analysis.Language
	SystemPromptTokens int
	CharsPerToken      float64
}

var profiles = map[analysis.Language]LanguageProfile{
	analysis.LanguageEnglish: {
		Language:           analysis.LanguageEnglish,
		SystemPromptTokens: 1700,
		CharsPerToken:      3.5,
	},
	analysis.LanguageUkrainian: {
		Language:           analysis.LanguageUkrainian,
		SystemPromptTokens: 2100,
		CharsPerToken:      1.9,
	},
}

// ProfileFor returns the built-in profile for a supported language.
func ProfileFor(lang analysis.Language) (LanguageProfile, bool) {
	p, ok := profiles[lang]
	return p, ok
}

// Calculator computes per-model character budgets.
type Calculator struct {
	outputBufferTokens int
	granularity        int
}

// Option adjusts a Calculator.
type Option func(*Calculator)

// WithOutputBuffer overrides the reserved generation-overhead tokens.
func WithOutputBuffer(tokens int) Option {
	return func(c *Calculator) {
		c.outputBufferTokens = tokens
	}
}

// WithGranularity overrides the flooring unit for computed limits.
func WithGranularity(chars int) Option {
	return func(c *Calculator) {
		if chars > 0 {
			c.granularity = chars
		}
	}
}

// New creates a Calculator with production defaults.
func New(opts ...Option) Calculator {
	c := Calculator{
		outputBufferTokens: DefaultOutputBufferTokens,
		granularity:        DefaultGranularity,
	}
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

// MaxChars returns the largest input character count the model can take for
// the language, floored to the calculator's granularity. A model whose quota
// cannot even cover the system prompt and output buffer yields 0.
func (c Calculator) MaxChars(m catalog.ModelDescriptor, p LanguageProfile) int {
	available := m.TokensPerMinute - p.SystemPromptTokens - c.outputBufferTokens
	if available <= 0 {
		return 0
	}
	raw := int(float64(available) * p.CharsPerToken)
	return raw - raw%c.granularity
}

// Fits reports whether text fits the model's budget for the language.
// Characters are counted as runes, matching what users see as text length.
func (c Calculator) Fits(text string, m catalog.ModelDescriptor, p LanguageProfile) bool {
	return utf8.RuneCountInString(text) <= c.MaxChars(m, p)
}
