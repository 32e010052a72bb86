package gateway

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"
)

// Supervisor probes every registered connection on a fixed interval
// and evicts the ones that stay silent past the tolerance window.
// Worst-case detection latency is about 2×interval + tolerance. A
// connection exchanging any traffic is never evicted.
type Supervisor struct {
	logger    *zap.Logger
	registry  Registry
	presence  *Presence
	interval  time.Duration
	tolerance time.Duration
	now       func() time.Time
}

func NewSupervisor(
	logger *zap.Logger,
	registry Registry,
	presence *Presence,
	interval time.Duration,
	tolerance time.Duration,
) *Supervisor {
	return &Supervisor{
		logger:    logger,
		registry:  registry,
		presence:  presence,
		interval:  interval,
		tolerance: tolerance,
		now:       time.Now,
	}
}

func (s *Supervisor) Run(ctx context.Context) {
	s.logger.Info("starting heartbeat supervisor",
		zap.Duration("interval", s.interval),
		zap.Duration("tolerance", s.tolerance))

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Sweep()
		}
	}
}

// Sweep terminates connections that missed the previous probe and are
// past the tolerance window, then probes everyone else.
func (s *Supervisor) Sweep() {
	now := s.now()
	probe, err := json.Marshal(NewSystemEnvelope(ActionPing, "", struct{}{}, now))
	if err != nil {
		s.logger.Error("failed to serialize liveness probe", zap.Error(err))

		return
	}

	for _, conn := range s.registry.Connections() {
		alive, lastSeen := conn.Liveness()
		if !alive && now.Sub(lastSeen) > s.tolerance {
			s.evict(conn)

			continue
		}

		// A probe that cannot be enqueued must not count against the
		// connection; a member with a saturated buffer is torn down by
		// the dispatcher's stale pass instead.
		select {
		case conn.Send <- probe:
			conn.MarkProbed()
		default:
		}
	}
}

func (s *Supervisor) evict(conn *Connection) {
	s.logger.Warn("terminating unresponsive connection",
		zap.String("connectionId", conn.Id))

	roomId, userId, left := s.registry.Disconnect(conn)
	if left {
		s.presence.Leave(conn, roomId, userId)
	}
}
