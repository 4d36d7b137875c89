package notify

import (
	"context"

	"resource-locator/internal/config"

	"go.uber.org/zap"
)

// FromConfig builds the publishers enabled in cfg. With neither Kafka nor FCM
// configured the result drops every event.
func FromConfig(ctx context.Context, cfg *config.Config, logger *zap.Logger) (Publisher, error) {
	var pubs Multi

	if len(cfg.Kafka.Brokers) > 0 {
		pubs = append(pubs, NewKafkaPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic))
		logger.Info("Kafka events enabled", zap.Strings("brokers", cfg.Kafka.Brokers), zap.String("topic", cfg.Kafka.Topic))
	}
	if cfg.FCM.CredentialsFile != "" {
		client, err := NewFCMClient(ctx, cfg.FCM.CredentialsFile)
		if err != nil {
			_ = pubs.Close()
			return nil, err
		}
		pubs = append(pubs, NewFCMPublisher(client, cfg.FCM.Topic))
		logger.Info("Firebase Cloud Messaging ready", zap.String("topic", cfg.FCM.Topic))
	}

	if len(pubs) == 0 {
		return Nop{}, nil
	}
	return pubs, nil
}
