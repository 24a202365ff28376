package notify

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"
	logger "github.com/sirupsen/logrus"

	"smmpanel/src/model"
)

const kafkaBatchTimeout = 10 * time.Millisecond

// MessageWriter is satisfied by *kafka.Writer.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaNotifier publishes a StatusEvent per change, keyed by order id so
// events of one order stay ordered within a partition.
type KafkaNotifier struct {
	w MessageWriter
}

func NewKafkaNotifier(brokers []string, topic string) *KafkaNotifier {
	logger.WithFields(map[string]interface{}{
		"brokers": brokers,
		"topic":   topic,
	}).Info("Publishing order status events to Kafka")

	return NewKafkaNotifierWithWriter(newKafkaWriter(brokers, topic))
}

// newKafkaWriter flushes within kafkaBatchTimeout rather than kafka-go's 1s default.
func newKafkaWriter(brokers []string, topic string) *kafka.Writer {
	return &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
		BatchTimeout: kafkaBatchTimeout,
		WriteTimeout: 5 * time.Second,
	}
}

func NewKafkaNotifierWithWriter(w MessageWriter) *KafkaNotifier {
	return &KafkaNotifier{w: w}
}

func (n *KafkaNotifier) NotifyStatus(ctx context.Context, order model.Order) error {
	value, err := json.Marshal(NewStatusEvent(order))
	if err != nil {
		return err
	}
	return n.w.WriteMessages(ctx, kafka.Message{
		Key:   []byte(order.ID),
		Value: value,
		Time:  time.Now(),
		Headers: []kafka.Header{
			{Key: "type", Value: []byte("order.status")},
		},
	})
}

func (n *KafkaNotifier) Close() error {
	return n.w.Close()
}
