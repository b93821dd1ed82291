package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"

	"ms-raffle/internal/logger"
	"ms-raffle/internal/models"
)

// TopicEntryGranted carries one message per accepted entry command.
const TopicEntryGranted = "raffle.entry.granted"

// Producer streams raffle events to Kafka. In mock mode nothing is
// written; events are only logged, which keeps local development free
// of a broker.
type Producer struct {
	Writer *kafka.Writer
	Logger *logger.Logger
	mock   bool
}

func NewProducer(brokers []string, log *logger.Logger) *Producer {
	writer := kafka.NewWriter(kafka.WriterConfig{
		Brokers: brokers,
		Topic:   TopicEntryGranted,
	})
	return &Producer{Writer: writer, Logger: log}
}

// NewMockProducer returns a producer that logs instead of publishing.
func NewMockProducer(log *logger.Logger) *Producer {
	return &Producer{Logger: log, mock: true}
}

// PublishEntryGranted streams a ticket grant. Callers treat failures as
// best effort: the ticket is already durable by the time this runs.
func (p *Producer) PublishEntryGranted(ctx context.Context, userID int64, tickets int) error {
	event := models.EntryGrantedEvent{
		EventID:   uuid.New().String(),
		UserID:    userID,
		Tickets:   tickets,
		GrantedAt: time.Now().UTC(),
	}

	msgBytes, err := json.Marshal(event)
	if err != nil {
		return err
	}

	if p.mock {
		if p.Logger != nil {
			p.Logger.Info("KAFKA", fmt.Sprintf("[mock] %s: %s", TopicEntryGranted, string(msgBytes)))
		}
		return nil
	}

	return p.Writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(fmt.Sprintf("%d", userID)),
		Value: msgBytes,
	})
}

func (p *Producer) Close() error {
	if p.Writer == nil {
		return nil
	}
	return p.Writer.Close()
}
