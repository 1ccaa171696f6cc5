package viewer

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/segmentio/kafka-go"
)

// MessageReader is the subset of *kafka.Reader the consumer needs.
type MessageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
	Close() error
}

// NewReader opens a partition-0 reader on topic starting lookback ago.
// A partition reader works without consumer-group coordination, which keeps
// the tool usable through a port-forward.
func NewReader(ctx context.Context, brokers []string, topic string, lookback time.Duration) *kafka.Reader {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:   brokers,
		Topic:     topic,
		Partition: 0,
		MinBytes:  1,
		MaxBytes:  10e6,
	})
	if err := reader.SetOffsetAt(ctx, time.Now().Add(-lookback)); err != nil {
		log.Warn().Err(err).Str("topic", topic).Msg("Could not seek, reading from the stored offset")
	}
	return reader
}

// Consume forwards every JSON record from r to hub until ctx is cancelled.
// Records that are not valid JSON are skipped.
func Consume(ctx context.Context, hub *Hub, r MessageReader) {
	defer r.Close()

	for {
		msg, err := r.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			log.Warn().Err(err).Msg("Kafka read error")
			select {
			case <-ctx.Done():
				return
			case <-time.After(time.Second):
			}
			continue
		}

		if !json.Valid(msg.Value) {
			log.Warn().Str("topic", msg.Topic).Int64("offset", msg.Offset).Msg("Skipping non-JSON record")
			continue
		}

		log.Debug().Str("topic", msg.Topic).Str("key", string(msg.Key)).Msg("Event received")
		hub.Publish(Event{
			Topic:     msg.Topic,
			Key:       string(msg.Key),
			Payload:   json.RawMessage(msg.Value),
			Timestamp: msg.Time.UnixMilli(),
		})
	}
}
