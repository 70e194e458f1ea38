// Package adapter wraps the upstream AI providers behind one interface and
// normalizes their failures so the cascade can classify outcomes uniformly.
package adapter

import (
	"context"

	"github.com/koztechie/svitlogics/pkg/catalog"
)

// Request is one upstream generation call.
type Request struct {
	Model           string
	SystemPrompt    string
	Prompt          string
	MaxOutputTokens int32
	Temperature     float32
}

// Adapter sends a request to one provider API shape and returns the raw
// generated text.
type Adapter interface {
	// Generate performs the call. Failures carry *Error when the provider
	// reported an HTTP status, ErrEmptyContent when the call succeeded but
	// produced no text, and plain wrapped errors for transport problems.
	Generate(ctx context.Context, req Request) (string, error)

	// Name returns the adapter's identifier.
	Name() string
}

// Registry maps descriptor families to adapters.
type Registry map[catalog.Family]Adapter

// For returns the adapter serving a descriptor's family.
func (r Registry) For(d catalog.ModelDescriptor) (Adapter, bool) {
	a, ok := r[d.Family]
	return a, ok
}
