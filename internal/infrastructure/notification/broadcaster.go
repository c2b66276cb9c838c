package notification

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/riskibarqy/game-night/internal/domain/pod"
	"github.com/riskibarqy/game-night/internal/platform/logging"
	"github.com/riskibarqy/game-night/internal/platform/resilience"
	"github.com/riskibarqy/game-night/internal/usecase"
)

const (
	EventAttendanceUpdated = "attendance.updated"
	EventPodCreated        = "pod.created"

	defaultBroadcastWorkers = 4
	deliveryTimeout         = 5 * time.Second
)

type BroadcasterConfig struct {
	WebhookURL     string
	Token          string
	Workers        int
	Timeout        time.Duration
	CircuitBreaker resilience.CircuitBreakerConfig
}

// Broadcaster pushes realtime events to a webhook from a bounded worker pool.
// Publishing never blocks the caller; events are dropped when the pool is saturated.
type Broadcaster struct {
	pool      *ants.Pool
	transport *jsonTransport
	logger    *logging.Logger
}

func NewBroadcaster(cfg BroadcasterConfig, logger *logging.Logger) (*Broadcaster, error) {
	if logger == nil {
		logger = logging.Default()
	}
	logger = logger.Named("notification.realtime")

	workers := cfg.Workers
	if workers <= 0 {
		workers = defaultBroadcastWorkers
	}
	pool, err := ants.NewPool(workers, ants.WithNonblocking(true))
	if err != nil {
		return nil, fmt.Errorf("create realtime worker pool: %w", err)
	}

	b := &Broadcaster{pool: pool, logger: logger}
	if strings.TrimSpace(cfg.WebhookURL) != "" {
		b.transport = newJSONTransport("realtime webhook", cfg.WebhookURL, cfg.Token, cfg.Timeout, cfg.CircuitBreaker, logger)
	}
	return b, nil
}

func (b *Broadcaster) PublishAttendanceUpdated(ctx context.Context, event usecase.AttendanceEvent) {
	b.publish(ctx, realtimeEnvelope{
		Type:      EventAttendanceUpdated,
		SessionID: event.SessionID,
		LeagueID:  event.LeagueID,
		At:        event.At.UTC(),
		Data: attendanceEventData{
			UserID:   event.UserID,
			Action:   string(event.Outcome),
			Source:   string(event.Source),
			IsActive: event.IsActive,
		},
	})
}

func (b *Broadcaster) PublishPodCreated(ctx context.Context, item pod.Pod) {
	b.publish(ctx, realtimeEnvelope{
		Type:      EventPodCreated,
		SessionID: item.SessionID,
		LeagueID:  item.LeagueID,
		At:        item.CreatedAt.UTC(),
		Data:      toPodPayload(item),
	})
}

func (b *Broadcaster) publish(ctx context.Context, envelope realtimeEnvelope) {
	if b.transport == nil {
		b.logger.DebugContext(ctx, "realtime webhook not configured, event skipped",
			"event", envelope.Type,
			"session_id", envelope.SessionID,
		)
		return
	}

	deliverCtx := context.WithoutCancel(ctx)
	err := b.pool.Submit(func() {
		callCtx, cancel := context.WithTimeout(deliverCtx, deliveryTimeout)
		defer cancel()

		if err := b.transport.post(callCtx, "", envelope, nil); err != nil {
			b.logger.WarnContext(callCtx, "realtime event delivery failed",
				"event", envelope.Type,
				"session_id", envelope.SessionID,
				"error", err,
			)
		}
	})
	if err != nil {
		b.logger.WarnContext(ctx, "realtime event dropped",
			"event", envelope.Type,
			"session_id", envelope.SessionID,
			"error", err,
		)
	}
}

// Close waits up to timeout for queued deliveries to finish.
func (b *Broadcaster) Close(timeout time.Duration) error {
	if timeout <= 0 {
		b.pool.Release()
		return nil
	}
	return b.pool.ReleaseTimeout(timeout)
}

type realtimeEnvelope struct {
	Type      string    `json:"type"`
	SessionID string    `json:"session_id"`
	LeagueID  string    `json:"league_id,omitempty"`
	At        time.Time `json:"at"`
	Data      any       `json:"data"`
}

type attendanceEventData struct {
	UserID   string `json:"user_id"`
	Action   string `json:"action"`
	Source   string `json:"source"`
	IsActive bool   `json:"is_active"`
}
