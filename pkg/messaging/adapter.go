package messaging

import (
	"context"

	"github.com/rs/zerolog"
)

// Handler processes one raw message.
type Handler func(ctx context.Context, payload []byte) error

// Consumer feeds messages from a broker channel to a handler.
type Consumer struct {
	broker Broker
	logger *zerolog.Logger
}

func NewConsumer(broker Broker, logger *zerolog.Logger) *Consumer {
	return &Consumer{broker: broker, logger: logger}
}

// Run blocks until ctx is cancelled or the subscription closes. Handler
// errors are logged and the message is dropped.
func (c *Consumer) Run(ctx context.Context, channel string, handler Handler) error {
	msgChan, err := c.broker.Subscribe(ctx, channel)
	if err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-msgChan:
			if !ok {
				return nil
			}
			if err := handler(ctx, msg); err != nil {
				c.logger.Error().Err(err).Str("channel", channel).Msg("failed to handle message")
			}
		}
	}
}
