package queue

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
)

// KafkaPublisher writes each job to the topic named after its key, keyed by
// job id.
type KafkaPublisher struct {
	writer *kafka.Writer
}

func NewKafkaPublisher(brokers []string) *KafkaPublisher {
	return &KafkaPublisher{writer: &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireOne,
		AllowAutoTopicCreation: true,
	}}
}

func (p *KafkaPublisher) Push(ctx context.Context, job *Job) error {
	data, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("encode job %s: %w", job.ID, err)
	}

	headers := []kafka.Header{
		{Key: "job_id", Value: []byte(job.ID)},
		{Key: "job_key", Value: []byte(job.Key)},
	}
	carrier := &kafkaHeaderCarrier{headers: headers}
	otel.GetTextMapPropagator().Inject(ctx, carrier)

	return p.writer.WriteMessages(ctx, kafka.Message{
		Topic:   job.Key,
		Key:     []byte(job.ID),
		Value:   data,
		Headers: carrier.headers,
	})
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

// KafkaSubscriber reads jobs for a consumer group across the given topics.
type KafkaSubscriber struct {
	reader *kafka.Reader
}

func NewKafkaSubscriber(brokers []string, groupID string, topics []string) *KafkaSubscriber {
	return &KafkaSubscriber{reader: kafka.NewReader(kafka.ReaderConfig{
		Brokers:     brokers,
		GroupID:     groupID,
		GroupTopics: topics,
		MinBytes:    1,
		MaxBytes:    10e6,
	})}
}

func (s *KafkaSubscriber) Next(ctx context.Context) (*Job, error) {
	msg, err := s.reader.ReadMessage(ctx)
	if err != nil {
		return nil, err
	}

	var job Job
	if err := json.Unmarshal(msg.Value, &job); err != nil {
		return nil, fmt.Errorf("kafka: decode job from %s@%d: %w", msg.Topic, msg.Offset, err)
	}
	if job.Key == "" {
		job.Key = msg.Topic
	}
	if len(job.Trace) == 0 {
		job.Trace = map[string]string{}
		otel.GetTextMapPropagator().Inject(
			otel.GetTextMapPropagator().Extract(ctx, &kafkaHeaderCarrier{headers: msg.Headers}),
			propagation.MapCarrier(job.Trace),
		)
	}
	return &job, nil
}

func (s *KafkaSubscriber) Close() error {
	return s.reader.Close()
}

type kafkaHeaderCarrier struct {
	headers []kafka.Header
}

func (c *kafkaHeaderCarrier) Get(key string) string {
	for _, h := range c.headers {
		if h.Key == key {
			return string(h.Value)
		}
	}
	return ""
}

func (c *kafkaHeaderCarrier) Keys() []string {
	keys := make([]string, 0, len(c.headers))
	for _, h := range c.headers {
		keys = append(keys, h.Key)
	}
	return keys
}

func (c *kafkaHeaderCarrier) Set(key, value string) {
	for i := range c.headers {
		if c.headers[i].Key == key {
			c.headers[i].Value = []byte(value)
			return
		}
	}
	c.headers = append(c.headers, kafka.Header{Key: key, Value: []byte(value)})
}

var _ propagation.TextMapCarrier = (*kafkaHeaderCarrier)(nil)
