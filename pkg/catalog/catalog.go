// Package catalog holds the static model configuration the cascade walks.
// The active cascade is computed once at construction and never mutated.
package catalog

import (
	"fmt"
	"sort"
)

// Family tags the API shape a descriptor speaks. It selects the provider
// adapter used for the call and is surfaced in diagnostics.
type Family string

const (
	FamilyGemini    Family = "gemini"
	FamilyGemma     Family = "gemma"
	FamilyOpenAI    Family = "openai"
	FamilyAnthropic Family = "anthropic"
)

// ModelDescriptor is one immutable cascade entry.
type ModelDescriptor struct {
	ID                string `yaml:"id"`
	DisplayName       string `yaml:"display_name"`
	TokensPerMinute   int    `yaml:"tokens_per_minute"`
	RequestsPerMinute int    `yaml:"requests_per_minute"`
	MaxOutputTokens   int32  `yaml:"max_output_tokens"`
	Priority          int    `yaml:"priority"`
	Enabled           bool   `yaml:"enabled"`
	Family            Family `yaml:"family"`
}

// Catalog is a validated, priority-ordered set of model descriptors.
type Catalog struct {
	descriptors []ModelDescriptor
	cascade     []ModelDescriptor
}

// New validates descriptors and precomputes the active cascade: enabled
// entries sorted by ascending priority, insertion order preserved for ties.
func New(descriptors []ModelDescriptor) (*Catalog, error) {
	seen := make(map[string]bool, len(descriptors))
	for _, d := range descriptors {
		if d.ID == "" {
			return nil, fmt.Errorf("model descriptor missing id")
		}
		if seen[d.ID] {
			return nil, fmt.Errorf("duplicate model id %q", d.ID)
		}
		seen[d.ID] = true
		if d.TokensPerMinute <= 0 {
			return nil, fmt.Errorf("model %s: tokens_per_minute must be positive", d.ID)
		}
		if d.RequestsPerMinute <= 0 {
			return nil, fmt.Errorf("model %s: requests_per_minute must be positive", d.ID)
		}
		if d.MaxOutputTokens <= 0 {
			return nil, fmt.Errorf("model %s: max_output_tokens must be positive", d.ID)
		}
		if d.DisplayName == "" {
			return nil, fmt.Errorf("model %s: display_name is required", d.ID)
		}
		switch d.Family {
		case FamilyGemini, FamilyGemma, FamilyOpenAI, FamilyAnthropic:
		default:
			return nil, fmt.Errorf("model %s: unknown family %q", d.ID, d.Family)
		}
	}

	cascade := make([]ModelDescriptor, 0, len(descriptors))
	for _, d := range descriptors {
		if d.Enabled {
			cascade = append(cascade, d)
		}
	}
	sort.SliceStable(cascade, func(i, j int) bool {
		return cascade[i].Priority < cascade[j].Priority
	})

	all := make([]ModelDescriptor, len(descriptors))
	copy(all, descriptors)

	return &Catalog{descriptors: all, cascade: cascade}, nil
}

// ActiveCascade returns the enabled descriptors in try order. The returned
// slice is shared and must not be modified.
func (c *Catalog) ActiveCascade() []ModelDescriptor {
	return c.cascade
}

// Descriptors returns every configured descriptor, enabled or not.
func (c *Catalog) Descriptors() []ModelDescriptor {
	return c.descriptors
}

// Default returns the built-in cascade mirroring the deployed configuration:
// the Gemma instruction-tuned sizes in descending capability order, with a
// Gemini flash entry kept configured but disabled.
func Default() *Catalog {
	cat, err := New([]ModelDescriptor{
		{
			ID:                "gemma-3-27b-it",
			DisplayName:       "Gemma 3 27B",
			TokensPerMinute:   15000,
			RequestsPerMinute: 30,
			MaxOutputTokens:   8192,
			Priority:          1,
			Enabled:           true,
			Family:            FamilyGemma,
		},
		{
			ID:                "gemma-3-12b-it",
			DisplayName:       "Gemma 3 12B",
			TokensPerMinute:   15000,
			RequestsPerMinute: 30,
			MaxOutputTokens:   8192,
			Priority:          2,
			Enabled:           true,
			Family:            FamilyGemma,
		},
		{
			ID:                "gemma-3-4b-it",
			DisplayName:       "Gemma 3 4B",
			TokensPerMinute:   15000,
			RequestsPerMinute: 30,
			MaxOutputTokens:   8192,
			Priority:          3,
			Enabled:           true,
			Family:            FamilyGemma,
		},
		{
			ID:                "gemini-2.0-flash",
			DisplayName:       "Gemini 2.0 Flash",
			TokensPerMinute:   1000000,
			RequestsPerMinute: 15,
			MaxOutputTokens:   8192,
			Priority:          4,
			Enabled:           false,
			Family:            FamilyGemini,
		},
	})
	if err != nil {
		panic(fmt.Sprintf("built-in catalog is invalid: %v", err))
	}
	return cat
}
