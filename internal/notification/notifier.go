package notification

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"gopkg.in/gomail.v2"

	"github.com/jwalitptl/emr-assistant/internal/model"
	"github.com/jwalitptl/emr-assistant/pkg/logger"
	"github.com/jwalitptl/emr-assistant/pkg/messaging"
	"github.com/jwalitptl/emr-assistant/pkg/metrics"
)

// Sender delivers composed messages. *gomail.Dialer satisfies it.
type Sender interface {
	DialAndSend(m ...*gomail.Message) error
}

type Config struct {
	From string
	To   string
	// RetryAttempts is the total number of send attempts, at least 1.
	RetryAttempts int
	RetryDelay    time.Duration
}

// Notifier e-mails the clinic desk about new bookings.
type Notifier struct {
	sender  Sender
	config  Config
	metrics *metrics.Metrics
	logger  *logger.Logger
}

func NewNotifier(sender Sender, config Config, m *metrics.Metrics, l *logger.Logger) *Notifier {
	if config.RetryAttempts <= 0 {
		config.RetryAttempts = 3
	}
	if config.RetryDelay <= 0 {
		config.RetryDelay = time.Second
	}
	return &Notifier{
		sender:  sender,
		config:  config,
		metrics: m,
		logger:  l.With("notification"),
	}
}

// NewDialer builds the SMTP sender for the given settings.
func NewDialer(host string, port int, user, password string) *gomail.Dialer {
	return gomail.NewDialer(host, port, user, password)
}

// Compose builds the booking e-mail.
func (n *Notifier) Compose(event model.AppointmentBookedEvent) *gomail.Message {
	m := gomail.NewMessage()
	m.SetHeader("From", n.config.From)
	m.SetHeader("To", n.config.To)
	m.SetHeader("Subject", fmt.Sprintf("New appointment: %s on %s", event.Type, event.Date))
	m.SetBody("text/plain", fmt.Sprintf(
		"A new appointment was booked.\n\nPatient ID: %s\nProcedure: %s\nDoctor: %s\nDate: %s\nReference: %s\n",
		event.UserID, event.Type, event.Doctor, event.Date, event.AppointmentID,
	))
	return m
}

// Handle is a messaging.Handler. Other event types are ignored.
func (n *Notifier) Handle(ctx context.Context, msg messaging.Message) error {
	if msg.Type != model.EventAppointmentBooked {
		n.logger.Debug("ignoring event", "type", msg.Type)
		return nil
	}

	var event model.AppointmentBookedEvent
	if err := json.Unmarshal(msg.Payload, &event); err != nil {
		n.count("invalid")
		return fmt.Errorf("failed to decode %s payload: %w", msg.Type, err)
	}

	if n.config.To == "" {
		n.count("skipped")
		n.logger.Warn("no notification recipient configured", "appointment_id", event.AppointmentID.String())
		return nil
	}

	if err := n.send(ctx, n.Compose(event)); err != nil {
		n.count("failed")
		return fmt.Errorf("failed to send booking notification: %w", err)
	}

	n.count("sent")
	n.logger.Info("booking notification sent",
		"appointment_id", event.AppointmentID.String(),
		"doctor", event.Doctor,
		"date", event.Date,
	)
	return nil
}

func (n *Notifier) send(ctx context.Context, msg *gomail.Message) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = n.config.RetryDelay

	attempt := 0
	op := func() error {
		attempt++
		err := n.sender.DialAndSend(msg)
		if err != nil && attempt < n.config.RetryAttempts {
			n.logger.Warn("retrying booking notification", "attempt", attempt, "error", err.Error())
		}
		return err
	}
	return backoff.Retry(op, backoff.WithContext(backoff.WithMaxRetries(b, uint64(n.config.RetryAttempts-1)), ctx))
}

func (n *Notifier) count(status string) {
	if n.metrics != nil {
		n.metrics.NotificationsSent.WithLabelValues(status).Inc()
	}
}
