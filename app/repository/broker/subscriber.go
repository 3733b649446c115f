package broker

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"time"

	"thrift-stock-service/app/domain"

	"github.com/nats-io/nats.go/jetstream"
)

// StockSubscriber relays stock snapshots from JetStream into a Hub so every
// instance's SSE clients see changes made on any instance.
type StockSubscriber struct {
	js         jetstream.JetStream
	streamName string
	hub        *Hub
}

func NewStockSubscriber(js jetstream.JetStream, streamName string, hub *Hub) *StockSubscriber {
	return &StockSubscriber{js: js, streamName: streamName, hub: hub}
}

// Run consumes until ctx is done.
func (s *StockSubscriber) Run(ctx context.Context) error {
	consumer, err := s.js.CreateOrUpdateConsumer(ctx, strings.ToUpper(s.streamName), jetstream.ConsumerConfig{
		FilterSubject:     AvailableSubject(s.streamName),
		DeliverPolicy:     jetstream.DeliverNewPolicy,
		AckPolicy:         jetstream.AckNonePolicy,
		InactiveThreshold: 5 * time.Minute,
	})
	if err != nil {
		slog.ErrorContext(ctx, "[StockSubscriber] Run", "CreateOrUpdateConsumer", err)
		return err
	}

	consumeCtx, err := consumer.Consume(func(msg jetstream.Msg) {
		s.handle(ctx, msg.Data())
	})
	if err != nil {
		slog.ErrorContext(ctx, "[StockSubscriber] Run", "Consume", err)
		return err
	}
	defer consumeCtx.Stop()

	slog.InfoContext(ctx, "[StockSubscriber] Run", "subject", AvailableSubject(s.streamName))
	<-ctx.Done()
	return nil
}

func (s *StockSubscriber) handle(ctx context.Context, data []byte) {
	var msg domain.StockMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		slog.WarnContext(ctx, "[StockSubscriber] handle", "json.Unmarshal", err)
		return
	}
	s.hub.Broadcast(ctx, msg)
}
