// Package events carries token revocations between service instances over
// kafka. Each instance publishes its own revocations and applies peer
// events to its local redis blacklist, so a logout on one instance takes
// effect everywhere before the databases converge.
package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/redlinehq/redline/internal/config"
	"github.com/redlinehq/redline/pkg/constants"
	"github.com/redlinehq/redline/pkg/logger"
)

// RevocationEvent is the wire form of one revocation.
type RevocationEvent struct {
	JTI       string    `json:"jti"`
	ExpiresAt time.Time `json:"expires_at"`
	Origin    string    `json:"origin"`
}

// KafkaRevocationPublisher emits revocation events.
type KafkaRevocationPublisher struct {
	writer *kafka.Writer
	log    logger.Logger
}

// NewKafkaRevocationPublisher creates a publisher for cfg.RevocationTopic.
func NewKafkaRevocationPublisher(cfg config.KafkaConfig, log logger.Logger) *KafkaRevocationPublisher {
	topic := cfg.RevocationTopic
	if topic == "" {
		topic = constants.DefaultRevocationTopic
	}
	return &KafkaRevocationPublisher{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(cfg.Brokers...),
			Topic:        topic,
			Balancer:     &kafka.LeastBytes{},
			RequiredAcks: kafka.RequireOne,
		},
		log: log.WithComponent("revocation_publisher"),
	}
}

// PublishRevocation emits one event keyed by jti.
func (p *KafkaRevocationPublisher) PublishRevocation(ctx context.Context, jti string, expiresAt time.Time) error {
	payload, err := json.Marshal(RevocationEvent{
		JTI:       jti,
		ExpiresAt: expiresAt,
		Origin:    constants.ServiceName,
	})
	if err != nil {
		return err
	}

	err = p.writer.WriteMessages(ctx, kafka.Message{Key: []byte(jti), Value: payload})
	if err != nil {
		p.log.Error(ctx, "failed to write revocation event", err, logger.String("jti", jti))
	}
	return err
}

// Close closes the underlying writer.
func (p *KafkaRevocationPublisher) Close() error {
	return p.writer.Close()
}
