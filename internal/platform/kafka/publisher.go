package kafka

import (
	"context"
	"fmt"

	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kgo"

	"trustline/internal/platform/config"
)

// Publisher wraps a franz-go client for the engine's event topics. Returns
// nil from New when no brokers are configured; event emitters treat a nil
// publisher as a no-op sink.
type Publisher struct {
	client *kgo.Client
}

// New connects to the Kafka cluster and ensures the configured topics exist.
func New(ctx context.Context, cfg config.KafkaConfig) (*Publisher, error) {
	if len(cfg.Brokers) == 0 {
		return nil, nil
	}

	client, err := kgo.NewClient(
		kgo.SeedBrokers(cfg.Brokers...),
		kgo.AllowAutoTopicCreation(),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka client: %w", err)
	}

	if err := ensureTopics(ctx, client, cfg.DeploymentTopic, cfg.AuditTopic); err != nil {
		client.Close()
		return nil, err
	}

	return &Publisher{client: client}, nil
}

// ensureTopics creates missing topics up front so the first publish does not
// race topic auto-creation.
func ensureTopics(ctx context.Context, client *kgo.Client, topics ...string) error {
	adm := kadm.NewClient(client)
	existing, err := adm.ListTopics(ctx)
	if err != nil {
		return fmt.Errorf("kafka list topics: %w", err)
	}
	for _, topic := range topics {
		if existing.Has(topic) {
			continue
		}
		if _, err := adm.CreateTopic(ctx, 1, 1, nil, topic); err != nil {
			return fmt.Errorf("kafka create topic %s: %w", topic, err)
		}
	}
	return nil
}

// Publish produces a single keyed record and waits for the broker ack.
func (p *Publisher) Publish(ctx context.Context, topic string, key, value []byte) error {
	if p == nil {
		return nil
	}
	record := &kgo.Record{Topic: topic, Key: key, Value: value}
	if err := p.client.ProduceSync(ctx, record).FirstErr(); err != nil {
		return fmt.Errorf("kafka produce to %s: %w", topic, err)
	}
	return nil
}

// Close flushes buffered records and releases the client.
func (p *Publisher) Close() {
	if p != nil {
		p.client.Close()
	}
}
