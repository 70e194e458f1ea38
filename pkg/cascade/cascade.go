// Package cascade implements the model-fallback orchestrator: a bounded walk
// over the priority-ordered catalog that pre-flights each model's character
// budget, issues the upstream call, classifies the outcome, and advances to
// the next model on retryable failure.
package cascade

import (
	"context"
	"errors"
	"fmt"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/koztechie/svitlogics/pkg/adapter"
	"github.com/koztechie/svitlogics/pkg/analysis"
	"github.com/koztechie/svitlogics/pkg/budget"
	"github.com/koztechie/svitlogics/pkg/catalog"
	"github.com/koztechie/svitlogics/pkg/metrics"
	"github.com/koztechie/svitlogics/pkg/prompt"
)

var (
	// ErrNoModelsAvailable means the active cascade is empty, a
	// configuration error.
	ErrNoModelsAvailable = errors.New("no models available")

	// ErrNoModelFits means the text exceeds every model's character
	// budget. Structural: retrying later will not help, shortening the
	// text will.
	ErrNoModelFits = errors.New("text exceeds the character limit of every available model")

	// ErrCascadeExhausted means every model that could take the text was
	// tried and none produced a usable result. Transient: capacity may
	// free up.
	ErrCascadeExhausted = errors.New("all models failed or are at capacity")
)

// FatalError aborts the cascade without trying further models: the upstream
// rejection is expected to reproduce identically everywhere.
type FatalError struct {
	Model string
	Err   error
}

func (e *FatalError) Error() string {
	return fmt.Sprintf("model %s: %v", e.Model, e.Err)
}

func (e *FatalError) Unwrap() error {
	return e.Err
}

const (
	defaultAttemptTimeout = 60 * time.Second
	defaultTemperature    = 0.1
)

// Orchestrator walks the cascade for one request at a time. It holds no
// mutable state between invocations; every call is independent given the
// static catalog.
type Orchestrator struct {
	catalog        *catalog.Catalog
	adapters       adapter.Registry
	calc           budget.Calculator
	logger         *zap.Logger
	attemptTimeout time.Duration
	temperature    float32
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithLogger sets the diagnostic logger.
func WithLogger(logger *zap.Logger) Option {
	return func(o *Orchestrator) {
		o.logger = logger
	}
}

// WithCalculator overrides the budget calculator.
func WithCalculator(calc budget.Calculator) Option {
	return func(o *Orchestrator) {
		o.calc = calc
	}
}

// WithAttemptTimeout caps the wall-clock time of a single model attempt.
func WithAttemptTimeout(d time.Duration) Option {
	return func(o *Orchestrator) {
		if d > 0 {
			o.attemptTimeout = d
		}
	}
}

// WithTemperature sets the sampling temperature for upstream calls.
func WithTemperature(t float32) Option {
	return func(o *Orchestrator) {
		o.temperature = t
	}
}

// New creates an Orchestrator over a catalog and adapter registry.
func New(cat *catalog.Catalog, adapters adapter.Registry, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		catalog:        cat,
		adapters:       adapters,
		calc:           budget.New(),
		logger:         zap.NewNop(),
		attemptTimeout: defaultAttemptTimeout,
		temperature:    defaultTemperature,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// ModelLimit pairs a cascade entry with its character budget for a language.
type ModelLimit struct {
	Model    catalog.ModelDescriptor
	MaxChars int
}

// ModelLimits returns the active cascade's per-model character budgets for
// the language, in try order.
func (o *Orchestrator) ModelLimits(lang analysis.Language) ([]ModelLimit, error) {
	profile, ok := budget.ProfileFor(lang)
	if !ok {
		return nil, fmt.Errorf("unsupported language %q", lang)
	}
	models := o.catalog.ActiveCascade()
	limits := make([]ModelLimit, 0, len(models))
	for _, m := range models {
		limits = append(limits, ModelLimit{Model: m, MaxChars: o.calc.MaxChars(m, profile)})
	}
	return limits, nil
}

// MaxChars returns the largest character budget any active model offers for
// the language, the limit worth surfacing to users.
func (o *Orchestrator) MaxChars(lang analysis.Language) (int, error) {
	limits, err := o.ModelLimits(lang)
	if err != nil {
		return 0, err
	}
	best := 0
	for _, l := range limits {
		if l.MaxChars > best {
			best = l.MaxChars
		}
	}
	return best, nil
}

// Analyze runs the cascade for one request. Models are tried strictly in
// ascending priority order; a model whose budget the text exceeds is skipped
// without a network call. The overall deadline is the caller's context.
func (o *Orchestrator) Analyze(ctx context.Context, req analysis.Request) (*analysis.Result, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	profile, ok := budget.ProfileFor(req.Language)
	if !ok {
		return nil, fmt.Errorf("unsupported language %q", req.Language)
	}

	models := o.catalog.ActiveCascade()
	if len(models) == 0 {
		return nil, ErrNoModelsAvailable
	}

	start := time.Now()
	defer func() {
		metrics.CascadeDuration.Observe(time.Since(start).Seconds())
	}()

	textChars := utf8.RuneCountInString(req.Text)
	anyFits := false
	var lastErr error

	for _, m := range models {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		limit := o.calc.MaxChars(m, profile)
		if textChars > limit {
			o.logger.Debug("model skipped, text over budget",
				zap.String("model", m.ID),
				zap.Int("text_chars", textChars),
				zap.Int("limit", limit))
			metrics.RecordAttempt(m.ID, metrics.OutcomeSkipped)
			continue
		}
		anyFits = true

		ad, ok := o.adapters.For(m)
		if !ok {
			// A descriptor whose family has no configured adapter cannot
			// serve the request; treat it like a skip rather than aborting
			// models that can.
			o.logger.Warn("no adapter registered for family, skipping model",
				zap.String("model", m.ID),
				zap.String("family", string(m.Family)))
			metrics.RecordAttempt(m.ID, metrics.OutcomeSkipped)
			lastErr = fmt.Errorf("model %s: no adapter for family %q", m.ID, m.Family)
			continue
		}

		result, err := o.attempt(ctx, ad, m, req)
		if err == nil {
			o.logger.Info("analysis succeeded",
				zap.String("model", m.ID),
				zap.String("display_name", m.DisplayName))
			metrics.RecordAttempt(m.ID, metrics.OutcomeSuccess)
			return result, nil
		}
		lastErr = err

		if adapter.Retryable(err) {
			o.logger.Warn("model failed, advancing cascade",
				zap.String("model", m.ID),
				zap.Error(err))
			metrics.RecordAttempt(m.ID, metrics.OutcomeRetryable)
			continue
		}
		if adapter.QuotaFlavored(err) {
			// Status said fatal, message said quota. Logged so upstream
			// wording drift is observable.
			o.logger.Warn("message heuristic reclassified 400 as retryable",
				zap.String("model", m.ID),
				zap.Error(err))
			metrics.RecordAttempt(m.ID, metrics.OutcomeRetryable)
			continue
		}

		o.logger.Error("fatal upstream error, aborting cascade",
			zap.String("model", m.ID),
			zap.Error(err))
		metrics.RecordAttempt(m.ID, metrics.OutcomeFatal)
		return nil, &FatalError{Model: m.ID, Err: err}
	}

	if !anyFits {
		return nil, ErrNoModelFits
	}
	return nil, fmt.Errorf("%w (last error: %v)", ErrCascadeExhausted, lastErr)
}

// attempt issues one upstream call and parses its output.
func (o *Orchestrator) attempt(ctx context.Context, ad adapter.Adapter, m catalog.ModelDescriptor, req analysis.Request) (*analysis.Result, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, o.attemptTimeout)
	defer cancel()

	raw, err := ad.Generate(attemptCtx, adapter.Request{
		Model:           m.ID,
		SystemPrompt:    req.SystemPrompt,
		Prompt:          prompt.Compose(req.Text),
		MaxOutputTokens: m.MaxOutputTokens,
		Temperature:     o.temperature,
	})
	if err != nil {
		return nil, err
	}

	result, err := analysis.Extract(raw, m.DisplayName)
	if err != nil {
		// Malformed output is a per-model condition; the next model may
		// follow instructions better.
		return nil, err
	}
	return result, nil
}
