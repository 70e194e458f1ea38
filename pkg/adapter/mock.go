package adapter

import (
	"context"
	"sync"
)

// MockAdapter returns scripted responses for local runs and tests. Outcomes
// are keyed by model ID so cascade tests can make one entry fail and the
// next succeed, and every call is recorded so tests can assert which models
// were actually hit.
type MockAdapter struct {
	mu              sync.Mutex
	responses       map[string]string
	errs            map[string]error
	defaultResponse string
	calls           []Request
}

// NewMockAdapter creates a mock adapter with a default response.
func NewMockAdapter() *MockAdapter {
	return &MockAdapter{
		responses:       make(map[string]string),
		errs:            make(map[string]error),
		defaultResponse: `{"analysis_results":[],"overall_summary":"mock"}`,
	}
}

// Name returns the adapter identifier.
func (a *MockAdapter) Name() string {
	return "mock"
}

// Respond scripts the text returned for a model.
func (a *MockAdapter) Respond(model, response string) *MockAdapter {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.responses[model] = response
	return a
}

// Fail scripts an error for a model.
func (a *MockAdapter) Fail(model string, err error) *MockAdapter {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.errs[model] = err
	return a
}

// Calls returns a copy of every request received so far.
func (a *MockAdapter) Calls() []Request {
	a.mu.Lock()
	defer a.mu.Unlock()
	calls := make([]Request, len(a.calls))
	copy(calls, a.calls)
	return calls
}

// CallCount returns how many requests were received.
func (a *MockAdapter) CallCount() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.calls)
}

// Generate returns the scripted outcome for the request's model.
func (a *MockAdapter) Generate(_ context.Context, req Request) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.calls = append(a.calls, req)

	if err, ok := a.errs[req.Model]; ok {
		return "", err
	}
	if response, ok := a.responses[req.Model]; ok {
		return response, nil
	}
	return a.defaultResponse, nil
}
