package service

import (
	"context"
	"fmt"
	"html"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/psgtech-fest/fest-api/internal/models"
	"github.com/psgtech-fest/fest-api/pkg/jobs"
)

const jobTypeRegistrationMail = "registration_confirmation"

// MailStore persists mail documents for the delivery extension.
type MailStore interface {
	Create(ctx context.Context, msg *models.MailMessage) error
}

// NotificationConfig tunes the confirmation mail queue.
type NotificationConfig struct {
	Workers    int
	BufferSize int
	Retries    int
	RetryDelay time.Duration
	From       string
}

// NotificationService writes confirmation mail documents from a background queue.
// Nothing it does can change the outcome of the registration that triggered it.
type NotificationService struct {
	mail    MailStore
	queue   *jobs.Queue
	from    string
	metrics *MetricsService
	logger  *zap.Logger
}

// NewNotificationService builds the service and its queue. Call Start before use.
func NewNotificationService(mail MailStore, cfg NotificationConfig, metrics *MetricsService, logger *zap.Logger) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = 256
	}
	s := &NotificationService{mail: mail, from: cfg.From, metrics: metrics, logger: logger}
	s.queue = jobs.NewQueue("notifications", s.handle, jobs.QueueConfig{
		Workers:    cfg.Workers,
		BufferSize: cfg.BufferSize,
		MaxRetries: cfg.Retries,
		RetryDelay: cfg.RetryDelay,
		Logger:     logger,
		OnGiveUp: func(job jobs.Job, err error) {
			s.metrics.RecordNotification(NotificationFailed)
		},
	})
	return s
}

// Start launches the workers.
func (s *NotificationService) Start(ctx context.Context) {
	s.queue.Start(ctx)
}

// Stop cancels the workers and waits for them. Buffered jobs are discarded.
func (s *NotificationService) Stop() {
	s.queue.Stop()
}

// RegistrationConfirmed queues the confirmation mail for a new registration.
func (s *NotificationService) RegistrationConfirmed(reg models.Registration, event models.Event) error {
	msg := ConfirmationMail(reg, event)
	msg.ID = uuid.NewString()
	msg.From = s.from
	job := jobs.Job{
		ID:       msg.ID,
		Type:     jobTypeRegistrationMail,
		Payload:  msg,
		Enqueued: time.Now().UTC(),
	}
	if err := s.queue.Enqueue(job); err != nil {
		s.metrics.RecordNotification(NotificationDropped)
		return fmt.Errorf("enqueue confirmation mail: %w", err)
	}
	return nil
}

func (s *NotificationService) handle(ctx context.Context, job jobs.Job) error {
	msg, ok := job.Payload.(*models.MailMessage)
	if !ok {
		return fmt.Errorf("unexpected payload %T", job.Payload)
	}
	if err := s.mail.Create(ctx, msg); err != nil {
		return err
	}
	s.metrics.RecordNotification(NotificationSent)
	s.logger.Debug("confirmation mail written", zap.String("mail_id", msg.ID), zap.String("to", msg.To))
	return nil
}

// ConfirmationMail renders the mail document for a registration. ID and sender are left empty.
func ConfirmationMail(reg models.Registration, event models.Event) *models.MailMessage {
	subject := fmt.Sprintf("Registration confirmed: %s", event.Name)
	text := fmt.Sprintf("Hi %s,\n\nYou are registered for %s.\nDate: %s\nTime: %s\nVenue: %s\nRoll number: %s\n",
		reg.UserName, event.Name, event.Date, event.Time, event.Venue, reg.UserRoll)
	if event.SpecialNote != nil && *event.SpecialNote != "" {
		text += fmt.Sprintf("Note: %s\n", *event.SpecialNote)
	}

	e := html.EscapeString
	body := fmt.Sprintf("<p>Hi %s,</p><p>You are registered for <strong>%s</strong>.</p><ul><li>Date: %s</li><li>Time: %s</li><li>Venue: %s</li><li>Roll number: %s</li></ul>",
		e(reg.UserName), e(event.Name), e(event.Date), e(event.Time), e(event.Venue), e(reg.UserRoll))
	if event.SpecialNote != nil && *event.SpecialNote != "" {
		body += fmt.Sprintf("<p>%s</p>", e(*event.SpecialNote))
	}

	return &models.MailMessage{
		To: reg.UserEmail,
		Message: models.MailContent{
			Subject: subject,
			HTML:    body,
			Text:    text,
		},
	}
}
