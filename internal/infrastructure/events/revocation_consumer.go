package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/segmentio/kafka-go"

	"github.com/redlinehq/redline/internal/config"
	"github.com/redlinehq/redline/pkg/constants"
	"github.com/redlinehq/redline/pkg/logger"
)

// RevocationConsumer applies peer revocation events to the local redis
// blacklist. All instances share one consumer group per deployment region.
type RevocationConsumer struct {
	reader *kafka.Reader
	rdb    redis.UniversalClient
	log    logger.Logger
}

// NewRevocationConsumer creates a consumer for cfg.RevocationTopic.
func NewRevocationConsumer(cfg config.KafkaConfig, rdb redis.UniversalClient, log logger.Logger) *RevocationConsumer {
	topic := cfg.RevocationTopic
	if topic == "" {
		topic = constants.DefaultRevocationTopic
	}
	return &RevocationConsumer{
		reader: kafka.NewReader(kafka.ReaderConfig{
			Brokers:        cfg.Brokers,
			Topic:          topic,
			GroupID:        constants.RevocationConsumerGroup,
			CommitInterval: time.Second,
		}),
		rdb: rdb,
		log: log.WithComponent("revocation_consumer"),
	}
}

// Run consumes until ctx is cancelled. Malformed events are committed and
// dropped; redis failures leave the message uncommitted for redelivery.
func (c *RevocationConsumer) Run(ctx context.Context) error {
	c.log.Info(ctx, "revocation consumer started")
	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return c.reader.Close()
			}
			c.log.Error(ctx, "failed to fetch revocation event", err)
			continue
		}

		var event RevocationEvent
		if err := json.Unmarshal(msg.Value, &event); err != nil || event.JTI == "" {
			c.log.Warn(ctx, "dropping malformed revocation event",
				logger.String("payload", string(msg.Value)))
			_ = c.reader.CommitMessages(ctx, msg)
			continue
		}

		if err := c.apply(ctx, event); err != nil {
			c.log.Error(ctx, "failed to apply revocation event", err,
				logger.String("jti", event.JTI))
			continue
		}
		if err := c.reader.CommitMessages(ctx, msg); err != nil {
			c.log.Error(ctx, "failed to commit revocation event", err)
		}
	}
}

func (c *RevocationConsumer) apply(ctx context.Context, event RevocationEvent) error {
	ttl := time.Until(event.ExpiresAt)
	if ttl <= 0 {
		// Already past the token's own expiry; verification rejects it
		// regardless, so there is nothing to blacklist.
		return nil
	}
	return c.rdb.Set(ctx, constants.RevocationKeyPrefix+event.JTI, "1", ttl).Err()
}
