// Package events publishes bar-refresh notifications for downstream
// consumers (live dashboard feeds, alerting). Publishing is best-effort:
// a broker outage must never fail a resolve call.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/finview/finview-backend/internal/domain"
)

// barRefreshEvent is the wire shape written to the prices topic.
type barRefreshEvent struct {
	Symbol    string    `json:"symbol"`
	Bars      int       `json:"bars"`
	LastClose string    `json:"lastClose"`
	LastAt    time.Time `json:"lastAt"`
	FetchedAt time.Time `json:"fetchedAt"`
}

// KafkaPublisher implements domain.PricePublisher on a Kafka topic.
type KafkaPublisher struct {
	writer *kafka.Writer
	logger *zap.Logger
}

// NewKafkaPublisher creates a publisher writing to topic on the given brokers.
func NewKafkaPublisher(brokers []string, topic string, logger *zap.Logger) *KafkaPublisher {
	return &KafkaPublisher{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireOne,
			BatchTimeout: 100 * time.Millisecond,
		},
		logger: logger,
	}
}

// PublishBars emits one refresh event keyed by symbol.
func (p *KafkaPublisher) PublishBars(ctx context.Context, symbol string, bars []domain.PriceBar) error {
	if len(bars) == 0 {
		return nil
	}

	last := bars[len(bars)-1]
	payload, err := json.Marshal(barRefreshEvent{
		Symbol:    symbol,
		Bars:      len(bars),
		LastClose: last.Close.String(),
		LastAt:    last.At(),
		FetchedAt: time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("failed to marshal bar refresh event: %w", err)
	}

	if err := p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(symbol),
		Value: payload,
	}); err != nil {
		return fmt.Errorf("failed to publish bar refresh event for %s: %w", symbol, err)
	}

	p.logger.Debug("published bar refresh",
		zap.String("symbol", symbol),
		zap.Int("bars", len(bars)))
	return nil
}

// Close flushes and closes the underlying writer.
func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

// NoopPublisher discards events. Used when no broker is configured.
type NoopPublisher struct{}

// PublishBars discards the event.
func (NoopPublisher) PublishBars(context.Context, string, []domain.PriceBar) error {
	return nil
}
