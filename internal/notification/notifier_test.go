package notification

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/gomail.v2"

	"github.com/jwalitptl/emr-assistant/internal/model"
	"github.com/jwalitptl/emr-assistant/pkg/logger"
	"github.com/jwalitptl/emr-assistant/pkg/messaging"
	"github.com/jwalitptl/emr-assistant/pkg/metrics"
)

type fakeSender struct {
	sent  []*gomail.Message
	err   error
	calls int
	// failures is how many calls fail before succeeding.
	failures int
}

func (f *fakeSender) DialAndSend(m ...*gomail.Message) error {
	f.calls++
	if f.err != nil {
		return f.err
	}
	if f.calls <= f.failures {
		return errors.New("421 try again later")
	}
	f.sent = append(f.sent, m...)
	return nil
}

func bookedMessage(t *testing.T) messaging.Message {
	t.Helper()
	payload, err := json.Marshal(model.AppointmentBookedEvent{
		ID:            uuid.New(),
		AppointmentID: uuid.MustParse("6f1c2c1e-7a43-4d8e-9a55-0d2b4b0f8a11"),
		UserID:        "1",
		Date:          "2025-09-02",
		Type:          "Pregnancy Test",
		Doctor:        "Dr. Aisha",
		OccurredAt:    time.Now(),
	})
	require.NoError(t, err)
	return messaging.Message{Type: model.EventAppointmentBooked, Payload: payload}
}

func TestNotifier_Handle(t *testing.T) {
	sender := &fakeSender{}
	m := metrics.New("test")
	n := NewNotifier(sender, Config{From: "assistant@clinic.test", To: "desk@clinic.test"}, m, logger.Nop())

	require.NoError(t, n.Handle(context.Background(), bookedMessage(t)))
	require.Len(t, sender.sent, 1)

	msg := sender.sent[0]
	assert.Equal(t, []string{"desk@clinic.test"}, msg.GetHeader("To"))
	assert.Equal(t, []string{"New appointment: Pregnancy Test on 2025-09-02"}, msg.GetHeader("Subject"))

	var buf bytes.Buffer
	_, err := msg.WriteTo(&buf)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "Doctor: Dr. Aisha")
	assert.Contains(t, buf.String(), "Reference: 6f1c2c1e-7a43-4d8e-9a55-0d2b4b0f8a11")

	assert.Equal(t, 1.0, testutil.ToFloat64(m.NotificationsSent.WithLabelValues("sent")))
}

func TestNotifier_IgnoresOtherEvents(t *testing.T) {
	sender := &fakeSender{}
	n := NewNotifier(sender, Config{To: "desk@clinic.test"}, nil, logger.Nop())

	require.NoError(t, n.Handle(context.Background(), messaging.Message{Type: "user.created"}))
	assert.Empty(t, sender.sent)
}

func TestNotifier_Failures(t *testing.T) {
	t.Run("bad payload", func(t *testing.T) {
		n := NewNotifier(&fakeSender{}, Config{To: "desk@clinic.test"}, nil, logger.Nop())
		err := n.Handle(context.Background(), messaging.Message{Type: model.EventAppointmentBooked, Payload: []byte(`"x"`)})
		assert.ErrorContains(t, err, "failed to decode")
	})

	t.Run("smtp error", func(t *testing.T) {
		m := metrics.New("test")
		sender := &fakeSender{err: errors.New("connection refused")}
		n := NewNotifier(sender, Config{To: "desk@clinic.test", RetryAttempts: 2, RetryDelay: time.Millisecond}, m, logger.Nop())
		err := n.Handle(context.Background(), bookedMessage(t))
		assert.ErrorContains(t, err, "connection refused")
		assert.Equal(t, 2, sender.calls)
		assert.Equal(t, 1.0, testutil.ToFloat64(m.NotificationsSent.WithLabelValues("failed")))
	})

	t.Run("no recipient", func(t *testing.T) {
		sender := &fakeSender{}
		n := NewNotifier(sender, Config{}, nil, logger.Nop())
		require.NoError(t, n.Handle(context.Background(), bookedMessage(t)))
		assert.Empty(t, sender.sent)
	})
}

func TestNotifier_RetriesTransientFailures(t *testing.T) {
	sender := &fakeSender{failures: 2}
	n := NewNotifier(sender, Config{To: "desk@clinic.test", RetryAttempts: 3, RetryDelay: time.Millisecond}, nil, logger.Nop())

	require.NoError(t, n.Handle(context.Background(), bookedMessage(t)))
	assert.Equal(t, 3, sender.calls)
	assert.Len(t, sender.sent, 1)
}
