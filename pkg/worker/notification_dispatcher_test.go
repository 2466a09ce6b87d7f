package worker

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/rpmweb/rpm-api/internal/email"
	"github.com/rpmweb/rpm-api/internal/model"
	"github.com/rpmweb/rpm-api/pkg/logger"
	"github.com/rpmweb/rpm-api/pkg/messaging"
	"github.com/rpmweb/rpm-api/pkg/metrics"
)

type mockMailer struct {
	mock.Mock
}

func (m *mockMailer) SendNotification(ctx context.Context, msg email.Message) error {
	return m.Called(ctx, msg).Error(0)
}

func newTestDispatcher(mailer email.Service) (*NotificationDispatcher, *metrics.Metrics) {
	m := metrics.New("dispatcher_test")
	d := NewNotificationDispatcher(messaging.NopBroker{}, mailer, DispatcherConfig{
		Channel:       "notifications",
		RetryAttempts: 3,
		RetryDelay:    time.Millisecond,
	}, logger.Nop(), m)
	return d, m
}

func encode(t *testing.T, e model.NotificationEvent) []byte {
	data, err := json.Marshal(e)
	require.NoError(t, err)
	return data
}

func TestHandleRetriesThenSucceeds(t *testing.T) {
	mailer := &mockMailer{}
	d, m := newTestDispatcher(mailer)

	expected := email.Message{To: "doc@example.com", Name: "Dr. Lee", Subject: "New Appointment Scheduled", Body: "A patient booked a slot."}
	mailer.On("SendNotification", mock.Anything, expected).Return(errors.New("421 try later")).Once()
	mailer.On("SendNotification", mock.Anything, expected).Return(nil).Once()

	err := d.Handle(context.Background(), encode(t, model.NotificationEvent{
		NotificationID: uuid.New(),
		Email:          "doc@example.com",
		Name:           "Dr. Lee",
		Title:          "New Appointment Scheduled",
		Message:        "A patient booked a slot.",
	}))

	require.NoError(t, err)
	mailer.AssertNumberOfCalls(t, "SendNotification", 2)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.EmailRetries))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.EmailsSent.WithLabelValues("success")))
}

func TestHandleGivesUpAfterAttempts(t *testing.T) {
	mailer := &mockMailer{}
	d, m := newTestDispatcher(mailer)
	mailer.On("SendNotification", mock.Anything, mock.Anything).Return(errors.New("connection refused"))

	err := d.Handle(context.Background(), encode(t, model.NotificationEvent{Email: "p@example.com", Title: "x"}))

	assert.ErrorContains(t, err, "connection refused")
	mailer.AssertNumberOfCalls(t, "SendNotification", 3)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.EmailsSent.WithLabelValues("error")))
}

func TestHandleSkipsEventsWithoutEmail(t *testing.T) {
	mailer := &mockMailer{}
	d, _ := newTestDispatcher(mailer)

	require.NoError(t, d.Handle(context.Background(), encode(t, model.NotificationEvent{Title: "wallet-only user"})))
	mailer.AssertNotCalled(t, "SendNotification", mock.Anything, mock.Anything)
}

func TestHandleRejectsGarbage(t *testing.T) {
	d, _ := newTestDispatcher(&mockMailer{})
	assert.Error(t, d.Handle(context.Background(), []byte("{")))
}
