package bridge

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/goevery/canvas-gateway/internal/gateway"
	"go.uber.org/zap"
)

// Bridge relays externally produced domain events into room
// broadcasts. It polls the backend's next-event endpoint for the
// process lifetime: 204 means no pending event, any transport failure
// or non-success status is logged and backed off so an upstream outage
// never busy-loops while existing clients keep being served.
type Bridge struct {
	logger       *zap.Logger
	client       *http.Client
	baseURL      string
	serviceKey   string
	pollInterval time.Duration
	errorBackoff time.Duration
	broadcaster  gateway.Broadcaster
}

func New(
	logger *zap.Logger,
	client *http.Client,
	baseURL string,
	serviceKey string,
	pollInterval time.Duration,
	errorBackoff time.Duration,
	broadcaster gateway.Broadcaster,
) *Bridge {
	return &Bridge{
		logger:       logger,
		client:       client,
		baseURL:      baseURL,
		serviceKey:   serviceKey,
		pollInterval: pollInterval,
		errorBackoff: errorBackoff,
		broadcaster:  broadcaster,
	}
}

// Run polls until the context is cancelled. Cancellation is
// cooperative: an in-flight request or sleep finishes before exit.
func (b *Bridge) Run(ctx context.Context) {
	b.logger.Info("starting backend event bridge",
		zap.String("url", b.baseURL),
		zap.Duration("pollInterval", b.pollInterval))

	for {
		if ctx.Err() != nil {
			b.logger.Info("backend event bridge stopped")

			return
		}

		delay := b.poll(ctx)
		if delay <= 0 {
			continue
		}

		select {
		case <-ctx.Done():
			b.logger.Info("backend event bridge stopped")

			return
		case <-time.After(delay):
		}
	}
}

// poll issues one next-event request and returns how long to wait
// before the next iteration. A delivered event returns zero so a
// backlog drains without artificial pauses.
func (b *Bridge) poll(ctx context.Context) time.Duration {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, b.baseURL+"/internal/events/next", nil)
	if err != nil {
		b.logger.Error("failed to build next-event request", zap.Error(err))

		return b.errorBackoff
	}

	if b.serviceKey != "" {
		req.Header.Set("X-Service-Key", b.serviceKey)
	}

	resp, err := b.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return 0
		}

		b.logger.Warn("next-event request failed", zap.Error(err))

		return b.errorBackoff
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusNoContent:
		return b.pollInterval
	case http.StatusOK:
		var envelope gateway.Envelope
		if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
			b.logger.Warn("failed to decode next-event response", zap.Error(err))

			return b.errorBackoff
		}

		if envelope.RoomId == "" {
			b.logger.Warn("dropping bridged event without room id")

			return b.pollInterval
		}

		// Bridged events exclude no one: originators must also see
		// delivered/blocked outcomes.
		b.broadcaster.Broadcast(envelope.RoomId, envelope, nil)

		return 0
	default:
		b.logger.Warn("next-event request returned unexpected status",
			zap.Int("status", resp.StatusCode))

		return b.errorBackoff
	}
}
