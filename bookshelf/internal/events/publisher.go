package events

import (
	"context"
	"encoding/json"

	"github.com/Astemirdum/bookshelf-service/bookshelf/internal/model"
	cb "github.com/Astemirdum/bookshelf-service/pkg/circuit_breaker"
	"github.com/IBM/sarama"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

type Publisher struct {
	producer sarama.SyncProducer
	breaker  cb.CircuitBreaker
	topic    string
	log      *zap.Logger
}

func NewPublisher(producer sarama.SyncProducer, breaker cb.CircuitBreaker, topic string, log *zap.Logger) *Publisher {
	return &Publisher{
		producer: producer,
		breaker:  breaker,
		topic:    topic,
		log:      log.Named("events"),
	}
}

// Publish sends the event keyed by book id so that events of one book stay ordered.
func (p *Publisher) Publish(_ context.Context, event model.BookEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return errors.Wrap(err, "marshal event")
	}
	msg := &sarama.ProducerMessage{
		Topic: p.topic,
		Key:   sarama.StringEncoder(event.BookID),
		Value: sarama.ByteEncoder(data),
	}
	return p.breaker.Call(func() error {
		partition, offset, err := p.producer.SendMessage(msg)
		if err != nil {
			return errors.Wrap(err, "producer.SendMessage")
		}
		p.log.Debug("event sent",
			zap.String("type", string(event.Type)),
			zap.String("bookId", event.BookID),
			zap.Int32("partition", partition),
			zap.Int64("offset", offset))
		return nil
	})
}

func (p *Publisher) Close() error {
	return p.producer.Close()
}
