package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/rpmweb/rpm-api/internal/email"
	"github.com/rpmweb/rpm-api/internal/model"
	"github.com/rpmweb/rpm-api/pkg/logger"
	"github.com/rpmweb/rpm-api/pkg/messaging"
	"github.com/rpmweb/rpm-api/pkg/metrics"
)

type DispatcherConfig struct {
	Channel       string
	RetryAttempts int
	RetryDelay    time.Duration
}

// NotificationDispatcher emails notification events published by the API.
type NotificationDispatcher struct {
	broker  messaging.Broker
	mailer  email.Service
	config  DispatcherConfig
	logger  *logger.Logger
	metrics *metrics.Metrics
}

func NewNotificationDispatcher(
	broker messaging.Broker,
	mailer email.Service,
	config DispatcherConfig,
	logger *logger.Logger,
	metrics *metrics.Metrics,
) *NotificationDispatcher {
	// Config validation instead of defaults
	if config.Channel == "" {
		panic("Channel must be set")
	}
	if config.RetryAttempts <= 0 {
		panic("RetryAttempts must be greater than 0")
	}
	if config.RetryDelay <= 0 {
		panic("RetryDelay must be greater than 0")
	}

	return &NotificationDispatcher{
		broker:  broker,
		mailer:  mailer,
		config:  config,
		logger:  logger,
		metrics: metrics,
	}
}

// Start blocks until ctx is cancelled.
func (d *NotificationDispatcher) Start(ctx context.Context) error {
	d.logger.Info("Starting notification dispatcher", "channel", d.config.Channel)

	consumer := messaging.NewConsumer(d.broker, d.logger.Zerolog())
	err := consumer.Run(ctx, d.config.Channel, d.Handle)
	if err == context.Canceled {
		d.logger.Info("Shutting down notification dispatcher")
		return nil
	}
	return err
}

// Handle delivers one encoded model.NotificationEvent.
func (d *NotificationDispatcher) Handle(ctx context.Context, payload []byte) error {
	timer := prometheus.NewTimer(d.metrics.DeliveryDuration)
	defer timer.ObserveDuration()

	var event model.NotificationEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		return fmt.Errorf("failed to decode notification event: %w", err)
	}
	if event.Email == "" {
		d.logger.Debug("Skipping notification without email", "notification_id", event.NotificationID.String())
		return nil
	}

	msg := email.Message{
		To:        event.Email,
		Name:      event.Name,
		Subject:   event.Title,
		Body:      event.Message,
		ActionURL: event.ActionURL,
	}

	attempt := 0
	err := retry(ctx, d.config.RetryAttempts, d.config.RetryDelay, func() error {
		if attempt > 0 {
			d.metrics.EmailRetries.Inc()
		}
		attempt++
		return d.mailer.SendNotification(ctx, msg)
	})
	d.metrics.ObserveEmail(err)
	if err != nil {
		return fmt.Errorf("failed to deliver notification %s: %w", event.NotificationID, err)
	}
	return nil
}

// retry calls fn up to attempts times with a linear backoff.
func retry(ctx context.Context, attempts int, delay time.Duration, fn func() error) error {
	var err error
	for i := 0; i < attempts; i++ {
		if err = fn(); err == nil {
			return nil
		}
		if i < attempts-1 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(time.Duration(i+1) * delay):
			}
		}
	}
	return err
}
