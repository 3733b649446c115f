package broker

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"thrift-stock-service/app/domain"

	"github.com/nats-io/nats.go/jetstream"
)

// AvailableSubject is the subject stock snapshots are published on, under the
// stream's lower-cased name.
func AvailableSubject(streamName string) string {
	return fmt.Sprintf("%s.available", strings.ToLower(streamName))
}

type stockBroker struct {
	js      jetstream.JetStream
	subject string
}

func NewStockBrokerPublisher(js jetstream.JetStream, streamName string) domain.BrokerPublisher {
	return &stockBroker{
		js:      js,
		subject: AvailableSubject(streamName),
	}
}

func (s *stockBroker) PublishStockAvailable(ctx context.Context, data domain.StockMessage) error {
	msg, err := json.Marshal(data)
	if err != nil {
		slog.ErrorContext(ctx, "[stockBroker] PublishStockAvailable", "json.Marshal", err)
		return err
	}

	if _, err = s.js.Publish(ctx, s.subject, msg); err != nil {
		slog.ErrorContext(ctx, "[stockBroker] PublishStockAvailable", "Publish", err)
		return err
	}

	slog.DebugContext(ctx, "[stockBroker] PublishStockAvailable", "productId", data.ProductID, "available", data.Available)
	return nil
}
