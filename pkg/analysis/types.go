// Package analysis defines the core types exchanged between the cascade
// orchestrator and its callers, plus the extractor that turns raw model
// output into a structured result.
package analysis

import (
	"errors"
	"fmt"
	"strings"
)

// Language identifies one of the supported analysis languages.
type Language string

const (
	LanguageEnglish   Language = "en"
	LanguageUkrainian Language = "uk"
)

// ParseLanguage validates a language code from an external request.
func ParseLanguage(s string) (Language, error) {
	switch Language(strings.ToLower(strings.TrimSpace(s))) {
	case LanguageEnglish:
		return LanguageEnglish, nil
	case LanguageUkrainian:
		return LanguageUkrainian, nil
	default:
		return "", fmt.Errorf("unsupported language %q", s)
	}
}

// Request carries one analysis invocation. SystemPrompt is sourced by the
// caller and opaque to the cascade.
type Request struct {
	Text         string
	Language     Language
	SystemPrompt string
}

// Validate rejects requests before any upstream call is made.
func (r Request) Validate() error {
	if strings.TrimSpace(r.Text) == "" {
		return errors.New("text is required")
	}
	if _, err := ParseLanguage(string(r.Language)); err != nil {
		return err
	}
	if r.SystemPrompt == "" {
		return errors.New("system prompt is required")
	}
	return nil
}

// Category is one scored analysis dimension.
type Category struct {
	Name          string `json:"category_name"`
	Score         int    `json:"score"`
	Justification string `json:"justification"`
}

// Result is the structured outcome of a completed analysis.
type Result struct {
	Categories     []Category `json:"analysis_results"`
	OverallSummary string     `json:"overall_summary"`
	UsedModelName  string     `json:"usedModelName,omitempty"`
}
