// Package events publishes order events to Kafka and relays them from the
// transactional outbox.
package events

import (
	"context"
	"fmt"
	"time"

	"github.com/IBM/sarama"
	"github.com/rs/zerolog"
	"github.com/sony/gobreaker"
)

// Publisher sends one keyed message to a topic.
type Publisher interface {
	Publish(ctx context.Context, topic, key string, value []byte) error
	Close() error
}

// Producer is a Kafka Publisher. In mock mode it only logs the messages it
// would have sent.
type Producer struct {
	producer sarama.SyncProducer
	mockMode bool
	cb       *gobreaker.CircuitBreaker
	logger   zerolog.Logger
}

// NewProducer connects a synchronous Kafka producer to brokers, or returns a
// logging producer when mockMode is set.
func NewProducer(brokers []string, mockMode bool, logger zerolog.Logger) (*Producer, error) {
	if mockMode {
		logger.Info().Msg("kafka producer running in mock mode, events are logged only")
		return newProducer(nil, true, logger), nil
	}

	config := sarama.NewConfig()
	config.Producer.RequiredAcks = sarama.WaitForAll
	config.Producer.Retry.Max = 5
	config.Producer.Return.Successes = true

	sp, err := sarama.NewSyncProducer(brokers, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka producer: %w", err)
	}

	logger.Info().Strs("brokers", brokers).Msg("connected to kafka")
	return newProducer(sp, false, logger), nil
}

// NewProducerWithClient wraps an existing sarama producer.
func NewProducerWithClient(sp sarama.SyncProducer, logger zerolog.Logger) *Producer {
	return newProducer(sp, false, logger)
}

func newProducer(sp sarama.SyncProducer, mockMode bool, logger zerolog.Logger) *Producer {
	log := logger.With().Str("component", "kafka-producer").Logger()

	settings := gobreaker.Settings{
		Name:        "kafka-producer",
		MaxRequests: 1,
		Interval:    30 * time.Second,
		Timeout:     15 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			log.Warn().
				Str("name", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("circuit breaker state changed")
		},
	}

	return &Producer{
		producer: sp,
		mockMode: mockMode,
		cb:       gobreaker.NewCircuitBreaker(settings),
		logger:   log,
	}
}

// Publish sends value to topic keyed by key. Once repeated failures open the
// breaker, calls fail fast with gobreaker.ErrOpenState until it half-opens.
func (p *Producer) Publish(ctx context.Context, topic, key string, value []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if p.mockMode {
		p.logger.Info().
			Str("topic", topic).
			Str("key", key).
			RawJSON("payload", value).
			Msg("mock publish")
		return nil
	}

	msg := &sarama.ProducerMessage{
		Topic: topic,
		Key:   sarama.StringEncoder(key),
		Value: sarama.ByteEncoder(value),
	}

	_, err := p.cb.Execute(func() (interface{}, error) {
		partition, offset, err := p.producer.SendMessage(msg)
		if err != nil {
			return nil, err
		}
		p.logger.Debug().
			Str("topic", topic).
			Str("key", key).
			Int32("partition", partition).
			Int64("offset", offset).
			Msg("message published")
		return nil, nil
	})
	if err != nil {
		p.logger.Error().Err(err).Str("topic", topic).Str("key", key).Msg("failed to publish message")
		return fmt.Errorf("failed to publish to %s: %w", topic, err)
	}
	return nil
}

// Close flushes and closes the underlying producer.
func (p *Producer) Close() error {
	if p.mockMode || p.producer == nil {
		return nil
	}
	return p.producer.Close()
}
