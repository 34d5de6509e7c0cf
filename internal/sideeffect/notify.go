package sideeffect

import (
	"context"
	"fmt"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"

	"github.com/advisordesk/advisor-booking-agent/internal/booking"
	"github.com/advisordesk/advisor-booking-agent/internal/clock"
	"github.com/advisordesk/advisor-booking-agent/pkg/logging"
)

// EmailSender defines the interface for sending emails.
// Implementations can be swapped (SendGrid, SES, SMTP) without changing callers.
type EmailSender interface {
	Send(ctx context.Context, msg EmailMessage) error
}

// EmailMessage represents an email to be sent.
type EmailMessage struct {
	To      string
	ToName  string
	Subject string
	Body    string
}

// SendGridSender sends emails via the SendGrid API.
type SendGridSender struct {
	client    *sendgrid.Client
	fromEmail string
	fromName  string
	logger    *logging.Logger
}

// SendGridConfig holds configuration for SendGrid.
type SendGridConfig struct {
	APIKey    string
	FromEmail string
	FromName  string
}

// NewSendGridSender creates a new SendGrid email sender. Returns nil when no
// API key is configured so callers can treat email as optional.
func NewSendGridSender(cfg SendGridConfig, logger *logging.Logger) *SendGridSender {
	if cfg.APIKey == "" {
		return nil
	}
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.FromName == "" {
		cfg.FromName = "Advisor Desk"
	}
	return &SendGridSender{
		client:    sendgrid.NewSendClient(cfg.APIKey),
		fromEmail: cfg.FromEmail,
		fromName:  cfg.FromName,
		logger:    logger,
	}
}

// Send sends an email via SendGrid.
func (s *SendGridSender) Send(ctx context.Context, msg EmailMessage) error {
	if s.client == nil {
		return fmt.Errorf("sideeffect: sendgrid client not configured")
	}

	from := mail.NewEmail(s.fromName, s.fromEmail)
	to := mail.NewEmail(msg.ToName, msg.To)
	message := mail.NewSingleEmail(from, msg.Subject, to, msg.Body, msg.Body)

	response, err := s.client.SendWithContext(ctx, message)
	if err != nil {
		s.logger.Error("sendgrid send failed", "error", err, "to", msg.To)
		return fmt.Errorf("sideeffect: sendgrid send failed: %w", err)
	}
	if response.StatusCode >= 400 {
		s.logger.Error("sendgrid returned error status", "status", response.StatusCode, "to", msg.To)
		return fmt.Errorf("sideeffect: sendgrid returned status %d", response.StatusCode)
	}

	s.logger.Info("email sent via sendgrid", "to", msg.To, "subject", msg.Subject, "status", response.StatusCode)
	return nil
}

// EmailNotifier sends booking lifecycle notices to the advisor mailbox.
type EmailNotifier struct {
	sender       EmailSender
	advisorEmail string
	advisorName  string
}

func NewEmailNotifier(sender EmailSender, advisorEmail, advisorName string) *EmailNotifier {
	if sender == nil {
		panic("sideeffect: EmailNotifier requires a sender")
	}
	if advisorName == "" {
		advisorName = "Advisor"
	}
	return &EmailNotifier{sender: sender, advisorEmail: advisorEmail, advisorName: advisorName}
}

func (n *EmailNotifier) BookingNotice(ctx context.Context, b booking.Booking, eventLink string) error {
	body := fmt.Sprintf("New consultation booked.\n\nCode: %s\nTopic: %s\nSlot: %s\n",
		b.Code, b.Topic, formatSlot(b.Slot))
	if eventLink != "" {
		body += fmt.Sprintf("Calendar: %s\n", eventLink)
	}
	return n.send(ctx, fmt.Sprintf("New booking %s", b.Code), body)
}

func (n *EmailNotifier) RescheduleNotice(ctx context.Context, b booking.Booking) error {
	body := fmt.Sprintf("Consultation rescheduled.\n\nCode: %s\nTopic: %s\nNew slot: %s\n",
		b.Code, b.Topic, formatSlot(b.Slot))
	if b.PreviousSlot != nil {
		body += fmt.Sprintf("Previous slot: %s\n", formatSlot(*b.PreviousSlot))
	}
	return n.send(ctx, fmt.Sprintf("Booking %s rescheduled", b.Code), body)
}

func (n *EmailNotifier) CancellationNotice(ctx context.Context, b booking.Booking) error {
	body := fmt.Sprintf("Consultation cancelled.\n\nCode: %s\nTopic: %s\nSlot was: %s\n",
		b.Code, b.Topic, formatSlot(b.Slot))
	return n.send(ctx, fmt.Sprintf("Booking %s cancelled", b.Code), body)
}

func (n *EmailNotifier) send(ctx context.Context, subject, body string) error {
	return n.sender.Send(ctx, EmailMessage{
		To:      n.advisorEmail,
		ToName:  n.advisorName,
		Subject: subject,
		Body:    body,
	})
}

func formatSlot(s booking.Slot) string {
	date, err := clock.ParseDate(s.Date)
	if err != nil {
		return s.Key()
	}
	return clock.FormatSlot(clock.Combine(date, s.Time.Hour(), 0))
}
