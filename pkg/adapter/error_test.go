package adapter

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRetryableClassification(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"cancelled", context.Canceled, false},
		{"wrapped cancelled", fmt.Errorf("call: %w", context.Canceled), false},
		{"attempt deadline", context.DeadlineExceeded, true},
		{"empty content", ErrEmptyContent, true},
		{"wrapped empty content", fmt.Errorf("google: %w", ErrEmptyContent), true},
		{"quota 429", &Error{Status: http.StatusTooManyRequests, Message: "rate limited"}, true},
		{"forbidden", &Error{Status: http.StatusForbidden, Message: "permission denied"}, false},
		{"server error", &Error{Status: http.StatusInternalServerError, Message: "boom"}, false},
		{"plain 400", &Error{Status: http.StatusBadRequest, Message: "invalid argument"}, false},
		{"transport", errors.New("connection reset by peer"), true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Retryable(tc.err))
		})
	}
}

func TestQuotaFlavoredHeuristic(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want bool
	}{
		{"quota wording", &Error{Status: 400, Message: "Quota exceeded for this model"}, true},
		{"size wording", &Error{Status: 400, Message: "request SIZE limit reached"}, true},
		{"plain 400", &Error{Status: 400, Message: "invalid argument"}, false},
		{"quota wording on 403", &Error{Status: 403, Message: "quota"}, false},
		{"non-adapter error", errors.New("quota"), false},
		{"nil", nil, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, QuotaFlavored(tc.err))
		})
	}
}

func TestErrorMessageAndUnwrap(t *testing.T) {
	inner := errors.New("upstream said no")
	err := &Error{Status: 403, Message: "permission denied", Err: inner}

	assert.Contains(t, err.Error(), "403")
	assert.Contains(t, err.Error(), "permission denied")
	assert.ErrorIs(t, err, inner)
}

func TestMockAdapterScripting(t *testing.T) {
	mock := NewMockAdapter().
		Respond("model-a", `{"overall_summary":"a"}`).
		Fail("model-b", &Error{Status: 429})

	out, err := mock.Generate(context.Background(), Request{Model: "model-a"})
	assert.NoError(t, err)
	assert.Contains(t, out, `"a"`)

	_, err = mock.Generate(context.Background(), Request{Model: "model-b"})
	assert.True(t, Retryable(err))

	assert.Equal(t, 2, mock.CallCount())
	calls := mock.Calls()
	assert.Equal(t, "model-a", calls[0].Model)
	assert.Equal(t, "model-b", calls[1].Model)
}
