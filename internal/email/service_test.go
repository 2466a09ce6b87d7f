package email

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildMessage(t *testing.T) {
	s := NewSMTPService(Config{Host: "localhost", Port: 1025, From: "rpm@example.com"})

	m := s.build(Message{
		To:        "pat@example.com",
		Name:      "Pat",
		Subject:   "Abnormal Vital Sign Alert",
		Body:      "Patient Pat has recorded an abnormal heart rate reading of 130 <bpm>.",
		ActionURL: "/patients/123",
	})

	var buf bytes.Buffer
	_, err := m.WriteTo(&buf)
	require.NoError(t, err)
	raw := strings.ReplaceAll(buf.String(), "=\r\n", "")

	assert.Contains(t, raw, "From: rpm@example.com")
	assert.Contains(t, raw, `To: "Pat" <pat@example.com>`)
	assert.Contains(t, raw, "Subject: Abnormal Vital Sign Alert")
	assert.Contains(t, raw, "130 &lt;bpm&gt;")
	assert.Contains(t, raw, `href=3D"/patients/123"`)
}

func TestSendNotificationHonoursCancelledContext(t *testing.T) {
	s := NewSMTPService(Config{Host: "localhost", Port: 1025})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, s.SendNotification(ctx, Message{To: "a@example.com"}), context.Canceled)
}
