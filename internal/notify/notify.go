// Package notify fans domain events out to connected observers. Sinks are
// fire-and-forget: a delivery failure is logged and never fails the ticket
// mutation that produced the event.
package notify

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/spec-kit/internal-crm/internal/events"
)

// Sink attaches itself to a dispatcher.
type Sink interface {
	Register(dispatcher events.Dispatcher)
}

// Broadcaster publishes assignment events on a Redis pub/sub channel so that
// connected observers (dashboards, the crmctl watch command) see assignment
// changes as they happen.
type Broadcaster struct {
	client  *redis.Client
	channel string
	logger  *zap.Logger
}

// NewBroadcaster creates the Redis sink.
func NewBroadcaster(client *redis.Client, channel string, logger *zap.Logger) *Broadcaster {
	return &Broadcaster{client: client, channel: channel, logger: logger}
}

// Register subscribes the broadcaster to assignment events.
func (b *Broadcaster) Register(dispatcher events.Dispatcher) {
	if dispatcher == nil || b.client == nil {
		return
	}
	dispatcher.Subscribe(events.EventTicketAssigned, b.handle)
}

func (b *Broadcaster) handle(ctx context.Context, event events.Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		b.logger.Warn("marshal event", zap.Error(err))
		return nil
	}
	if err := b.client.Publish(ctx, b.channel, payload).Err(); err != nil {
		b.logger.Warn("publish to redis channel",
			zap.String("channel", b.channel),
			zap.String("ticket_id", event.TicketID),
			zap.Error(err))
	}
	return nil
}

// LogSink records domain events in the service log and stubs out the
// configured webhook endpoint.
type LogSink struct {
	logger     *zap.Logger
	webhookURL string
}

// NewLogSink creates the logging sink.
func NewLogSink(logger *zap.Logger, webhookURL string) *LogSink {
	return &LogSink{logger: logger, webhookURL: webhookURL}
}

// Register subscribes the sink to all ticket events.
func (s *LogSink) Register(dispatcher events.Dispatcher) {
	if dispatcher == nil {
		return
	}
	dispatcher.Subscribe(events.EventTicketCreated, s.handle)
	dispatcher.Subscribe(events.EventTicketAssigned, s.handle)
}

func (s *LogSink) handle(_ context.Context, event events.Event) error {
	s.logger.Info("ticket event",
		zap.String("event_type", string(event.Type)),
		zap.String("ticket_id", event.TicketID),
		zap.String("actor_id", event.Actor.ID))
	if strings.TrimSpace(s.webhookURL) != "" {
		s.logger.Debug("webhook notification stub",
			zap.String("url", s.webhookURL),
			zap.String("event_type", string(event.Type)))
	}
	return nil
}
