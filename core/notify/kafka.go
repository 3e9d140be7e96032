// Copyright 2021 Dalarub & Ettrich GmbH - All Rights Reserved
// Unauthorized copying of this file, via any medium is strictly prohibited
// Proprietary and confidential
// info@dalarub.com
//

package notify

import (
	"context"
	"fmt"

	"github.com/segmentio/kafka-go"

	"github.com/relabs-tech/folio/core"
	"github.com/relabs-tech/folio/core/logger"
)

// Kafka message headers
const (
	HeaderResource  = "resource"
	HeaderOperation = "operation"
	HeaderContext   = "context"
)

// messageWriter is the part of kafka.Writer used to publish events
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Kafka publishes every change to a kafka topic. The message key is the
// resource, so all changes of one resource land in the same partition.
type Kafka struct {
	writer messageWriter
}

var _ core.Notifier = (*Kafka)(nil)

// NewKafka returns a notifier publishing to topic on brokers
func NewKafka(brokers []string, topic string) *Kafka {
	return &Kafka{writer: &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		AllowAutoTopicCreation: true,
	}}
}

// Notify publishes one message carrying payload. The logger context of ctx is
// passed in a header, so consumers can log with the same request id.
func (k *Kafka) Notify(ctx context.Context, resource string, operation core.Operation, payload []byte) error {
	err := k.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(resource),
		Value: payload,
		Headers: []kafka.Header{
			{Key: HeaderResource, Value: []byte(resource)},
			{Key: HeaderOperation, Value: []byte(operation)},
			{Key: HeaderContext, Value: logger.SerializeLoggerContext(ctx)},
		},
	})
	if err != nil {
		return fmt.Errorf("cannot publish %s %s: %w", resource, operation, err)
	}
	return nil
}

// Close flushes pending messages and closes the writer
func (k *Kafka) Close() error {
	return k.writer.Close()
}
