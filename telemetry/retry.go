package telemetry

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/kulucloud/kulu/types"
)

// ObserveRetry counts adapter backoff retries. Installed on adapters as
// their retry notify hook; the signature matches adapters.RetryNotify.
func ObserveRetry(provider types.Provider, op string, err error, next time.Duration) {
	AdapterRetries.Add(context.Background(), 1, metric.WithAttributes(
		attribute.String("provider", string(provider)),
		attribute.String("operation", op),
	))
	log.Debug().
		Str("provider", string(provider)).
		Str("operation", op).
		Dur("next_backoff", next).
		Err(err).
		Msg("retrying cloud API call")
}
