package adapters

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kulucloud/kulu/types"
)

type fakeThrottleErr struct{ code int }

func (e fakeThrottleErr) Error() string { return fmt.Sprintf("status %d", e.code) }
func (e fakeThrottleErr) HTTPStatusCode() int { return e.code }

func TestWithRetry_ThrottleExhaustsExactlyFiveAttempts(t *testing.T) {
	if testing.Short() {
		t.Skip("sleeps through the backoff schedule")
	}

	var attempts int
	_, err := WithRetry(context.Background(), types.ProviderAWS, "list", nil,
		func(ctx context.Context) (int, error) {
			attempts++
			return 0, fakeThrottleErr{code: 429}
		})

	require.Error(t, err)
	assert.Equal(t, 5, attempts)

	var aerr *AdapterError
	require.ErrorAs(t, err, &aerr)
	assert.False(t, aerr.Retryable)
	assert.Equal(t, types.ProviderAWS, aerr.Provider)
}

func TestWithRetry_PermanentFailsImmediately(t *testing.T) {
	var attempts int
	_, err := WithRetry(context.Background(), types.ProviderAzure, "list", nil,
		func(ctx context.Context) (string, error) {
			attempts++
			return "", fakeThrottleErr{code: 403}
		})

	require.Error(t, err)
	assert.Equal(t, 1, attempts)
}

func TestWithRetry_TransientThenSuccess(t *testing.T) {
	if testing.Short() {
		t.Skip("sleeps through one backoff interval")
	}

	var attempts int
	got, err := WithRetry(context.Background(), types.ProviderGCP, "metrics", nil,
		func(ctx context.Context) (string, error) {
			attempts++
			if attempts == 1 {
				return "", fakeThrottleErr{code: 503}
			}
			return "ok", nil
		})

	require.NoError(t, err)
	assert.Equal(t, "ok", got)
	assert.Equal(t, 2, attempts)
}

func TestWithRetry_NotifyObservesRetries(t *testing.T) {
	if testing.Short() {
		t.Skip("sleeps through one backoff interval")
	}

	var notified []time.Duration
	var attempts int
	_, _ = WithRetry(context.Background(), types.ProviderAWS, "list",
		func(_ types.Provider, _ string, _ error, next time.Duration) {
			notified = append(notified, next)
		},
		func(ctx context.Context) (int, error) {
			attempts++
			if attempts < 3 {
				return 0, fakeThrottleErr{code: 500}
			}
			return 1, nil
		})

	assert.Len(t, notified, 2)
}

func TestTransient(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"throttle", fakeThrottleErr{code: 429}, true},
		{"server", fakeThrottleErr{code: 500}, true},
		{"forbidden", fakeThrottleErr{code: 403}, false},
		{"not found", fakeThrottleErr{code: 404}, false},
		{"conn reset", errors.New("read tcp: connection reset by peer"), true},
		{"azure throttle", errors.New("RESPONSE 429: 429 Too Many Requests"), true},
		{"gcp rate limit", errors.New("googleapi: Error 403: rateLimitExceeded"), true},
		{"aws throttle code", errors.New("api error RequestLimitExceeded"), true},
		{"plain", errors.New("malformed request"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Transient(tt.err))
		})
	}
}
