package helpers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPStatus(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, http.StatusOK},
		{"not found", NewNotFound("User not found"), http.StatusNotFound},
		{"precondition", NewPreconditionFailed("Please complete onboarding first"), http.StatusBadRequest},
		{"conflict", NewConflict("Email already registered"), http.StatusBadRequest},
		{"validation", NewValidation("Validation failed"), http.StatusBadRequest},
		{"unauthorized", NewUnauthorized("bad token", nil), http.StatusUnauthorized},
		{"wrapped not found", fmt.Errorf("load: %w", NewNotFound("gone")), http.StatusNotFound},
		{"plain", errors.New("boom"), http.StatusInternalServerError},
		{"network", NewNetworkError("upstream", errors.New("timeout")), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, HTTPStatus(tc.err))
		})
	}
}

func TestPublicMessage(t *testing.T) {
	assert.Equal(t, "User not found", PublicMessage(fmt.Errorf("x: %w", NewNotFound("User not found")), true))
	assert.Equal(t, "Internal server error", PublicMessage(errors.New("db exploded"), true))
	assert.Equal(t, "db exploded", PublicMessage(errors.New("db exploded"), false))
}

func TestAppErrorUnwrap(t *testing.T) {
	cause := errors.New("dial tcp: timeout")
	err := NewNetworkError("coingecko request failed", cause)

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "coingecko request failed: dial tcp: timeout", err.Error())
}

func TestRetryWithBackoffSucceedsAfterFailures(t *testing.T) {
	calls := 0
	var retried []int
	err := RetryWithBackoff(context.Background(), 3, time.Millisecond, nil,
		func(attempt int, err error, delay time.Duration) { retried = append(retried, attempt) },
		func() error {
			calls++
			if calls < 3 {
				return errors.New("temporary")
			}
			return nil
		})

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
	assert.Equal(t, []int{1, 2}, retried)
}

func TestRetryWithBackoffStopsOnNonRetryable(t *testing.T) {
	permanent := errors.New("400 bad request")
	calls := 0
	err := RetryWithBackoff(context.Background(), 5, time.Millisecond,
		func(err error) bool { return !errors.Is(err, permanent) },
		nil,
		func() error {
			calls++
			return permanent
		})

	assert.ErrorIs(t, err, permanent)
	assert.Equal(t, 1, calls)
}

func TestRetryWithBackoffHonoursContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	err := RetryWithBackoff(ctx, 5, time.Hour, nil, func(int, error, time.Duration) { cancel() },
		func() error {
			calls++
			return errors.New("fail")
		})

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}
