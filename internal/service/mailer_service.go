package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/unitime-io/unitime-api/pkg/jobs"
	"github.com/unitime-io/unitime-api/pkg/mail"
)

// MailerService dispatches outbound email through the background queue so
// request handlers never block on the mail provider.
type MailerService struct {
	queue  *jobs.Queue
	logger *zap.Logger
}

// MailerConfig tunes the mail worker pool.
type MailerConfig struct {
	Workers    int
	MaxRetries int
}

// NewMailerService builds the mailer and its queue. Call Start before
// dispatching and Stop on shutdown.
func NewMailerService(sender mail.Sender, cfg MailerConfig, logger *zap.Logger) *MailerService {
	if logger == nil {
		logger = zap.NewNop()
	}
	handler := func(ctx context.Context, job jobs.Job) error {
		msg, ok := job.Payload.(mail.Message)
		if !ok {
			return fmt.Errorf("unexpected mail payload type %T", job.Payload)
		}
		return sender.Send(msg)
	}
	queue := jobs.NewQueue("mail", handler, jobs.QueueConfig{
		Workers:    cfg.Workers,
		MaxRetries: cfg.MaxRetries,
		Logger:     logger,
	})
	return &MailerService{queue: queue, logger: logger}
}

// Start launches the mail workers.
func (s *MailerService) Start(ctx context.Context) {
	s.queue.Start(ctx)
}

// Stop drains the queue and stops the workers.
func (s *MailerService) Stop() {
	s.queue.Stop()
}

// Dispatch enqueues a message for delivery. Failures to enqueue are logged
// and swallowed: email is best-effort and never fails the calling request.
func (s *MailerService) Dispatch(msg mail.Message) {
	err := s.queue.Enqueue(jobs.Job{
		ID:      uuid.NewString(),
		Type:    "mail.send",
		Payload: msg,
	})
	if err != nil {
		s.logger.Warn("failed to enqueue mail", zap.String("to", msg.ToEmail), zap.Error(err))
	}
}
